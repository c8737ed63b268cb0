package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"sporture-backend/internal/models"
	"sporture-backend/internal/services"
)

type fakeAuth struct {
	users map[string]*models.User
	err   error
}

func (f *fakeAuth) Authenticate(ctx context.Context, token string) (*models.User, error) {
	if f.err != nil {
		return nil, f.err
	}
	if u, ok := f.users[token]; ok {
		return u, nil
	}
	return nil, services.ErrInvalidToken
}

func runAuth(t *testing.T, auth Authenticator, header string) (*httptest.ResponseRecorder, *models.User) {
	t.Helper()

	var seen *models.User
	h := AuthMiddleware(auth)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = GetUser(r.Context())
		if GetUserID(r.Context()) != seen.ID {
			t.Errorf("GetUserID mismatch")
		}
		w.WriteHeader(http.StatusNoContent)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/auth/me", nil)
	if header != "" {
		req.Header.Set("Authorization", header)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec, seen
}

func messageOf(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]string
	if err := json.NewDecoder(rec.Body).Decode(&body); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	return body["message"]
}

func TestAuthMiddleware(t *testing.T) {
	alice := &models.User{ID: "6f1c0c52-0a57-4d3e-9d0e-6a4f0f3b1e01", Name: "Alice"}
	auth := &fakeAuth{users: map[string]*models.User{"good": alice}}

	t.Run("missing header", func(t *testing.T) {
		rec, _ := runAuth(t, auth, "")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if msg := messageOf(t, rec); msg != "Access denied. No token provided." {
			t.Fatalf("unexpected message %q", msg)
		}
	})

	t.Run("malformed header", func(t *testing.T) {
		rec, _ := runAuth(t, auth, "Token good")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
	})

	t.Run("invalid token", func(t *testing.T) {
		rec, _ := runAuth(t, auth, "Bearer bad")
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("expected 401, got %d", rec.Code)
		}
		if msg := messageOf(t, rec); msg != "Invalid or expired token" {
			t.Fatalf("unexpected message %q", msg)
		}
	})

	t.Run("valid token", func(t *testing.T) {
		rec, seen := runAuth(t, auth, "Bearer good")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
		if seen == nil || seen.ID != alice.ID {
			t.Fatalf("expected alice in context, got %+v", seen)
		}
	})

	t.Run("lowercase scheme", func(t *testing.T) {
		rec, _ := runAuth(t, auth, "bearer good")
		if rec.Code != http.StatusNoContent {
			t.Fatalf("expected 204, got %d", rec.Code)
		}
	})

	t.Run("backend failure", func(t *testing.T) {
		rec, _ := runAuth(t, &fakeAuth{err: errors.New("db down")}, "Bearer good")
		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("expected 500, got %d", rec.Code)
		}
		if msg := messageOf(t, rec); msg != "Server error" {
			t.Fatalf("unexpected message %q", msg)
		}
	})
}

func TestGetUserEmptyContext(t *testing.T) {
	if GetUser(context.Background()) != nil {
		t.Fatal("expected nil user")
	}
	if GetUserID(context.Background()) != "" {
		t.Fatal("expected empty id")
	}
}
