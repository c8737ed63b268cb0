package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"sporture-backend/internal/models"
	"sporture-backend/internal/repository"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 6

// sniffLen is how many leading bytes http.DetectContentType considers
const sniffLen = 512

// photoExts lists the accepted photo types
var photoExts = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/gif":  ".gif",
	"image/webp": ".webp",
}

// UserRepository is the user persistence used by the services
type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)
	UpdatePushToken(ctx context.Context, userID string, pushToken *string) error
	GetPushTokens(ctx context.Context, userIDs []string) (map[string]string, error)
}

// UserService handles registration, credentials and profiles
type UserService struct {
	userRepo   UserRepository
	photos     PhotoStore
	jwtSecret  []byte
	jwtTTL     time.Duration
	bcryptCost int
	now        func() time.Time
}

// NewUserService creates a new user service
func NewUserService(userRepo UserRepository, photos PhotoStore, jwtSecret string, jwtTTL time.Duration) *UserService {
	return &UserService{
		userRepo:   userRepo,
		photos:     photos,
		jwtSecret:  []byte(jwtSecret),
		jwtTTL:     jwtTTL,
		bcryptCost: bcrypt.DefaultCost,
		now:        time.Now,
	}
}

// tokenClaims binds a bearer credential to a user id
type tokenClaims struct {
	ID string `json:"id"`
	jwt.RegisteredClaims
}

// RegisterInput represents a registration request
type RegisterInput struct {
	Name       string   `json:"name"`
	Email      string   `json:"email"`
	Password   string   `json:"password"`
	FavSports  []string `json:"favSports"`
	SkillLevel string   `json:"skillLevel"`
}

// Register creates a new user with a bcrypt-hashed password
func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	name := strings.TrimSpace(in.Name)
	email := normalizeEmail(in.Email)
	if name == "" || email == "" || in.Password == "" {
		return nil, ErrMissingFields
	}
	if len(in.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}
	skill, ok := models.ParseSkillLevel(in.SkillLevel)
	if !ok {
		return nil, ErrInvalidSkillLevel
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	now := s.now()
	user := &models.User{
		ID:           uuid.New().String(),
		Name:         name,
		Email:        email,
		PasswordHash: string(hash),
		FavSports:    cleanSports(in.FavSports),
		SkillLevel:   skill,
		MemberSince:  now.Format("Jan 2006"),
		City:         "Unknown",
		Bio:          "No bio yet.",
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	return user, nil
}

// Login verifies the email/password pair and issues a bearer credential
func (s *UserService) Login(ctx context.Context, email, password string) (string, *models.User, error) {
	email = normalizeEmail(email)
	if email == "" || password == "" {
		return "", nil, ErrInvalidCredentials
	}

	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("failed to get user: %w", err)
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", nil, ErrInvalidCredentials
	}

	token, err := s.GenerateJWT(user.ID)
	if err != nil {
		return "", nil, fmt.Errorf("failed to generate token: %w", err)
	}

	return token, user, nil
}

// GenerateJWT generates a JWT token for a user
func (s *UserService) GenerateJWT(userID string) (string, error) {
	now := s.now()
	claims := tokenClaims{
		ID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.jwtTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}

	return tokenString, nil
}

// ValidateJWT validates a JWT token and returns the user ID
func (s *UserService) ValidateJWT(tokenString string) (string, error) {
	var claims tokenClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(token *jwt.Token) (interface{}, error) {
		return s.jwtSecret, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", fmt.Errorf("failed to parse token: %w", err)
	}

	if !token.Valid {
		return "", fmt.Errorf("invalid token")
	}

	if claims.ID == "" {
		return "", fmt.Errorf("id not found in token")
	}

	return claims.ID, nil
}

// Authenticate resolves a bearer credential to its user
func (s *UserService) Authenticate(ctx context.Context, tokenString string) (*models.User, error) {
	userID, err := s.ValidateJWT(tokenString)
	if err != nil {
		return nil, ErrInvalidToken
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrInvalidToken
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	return user, nil
}

// GetUser returns the user with the given id
func (s *UserService) GetUser(ctx context.Context, id string) (*models.User, error) {
	id, ok := models.NormalizeID(id)
	if !ok {
		return nil, ErrInvalidUserID
	}

	user, err := s.userRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// ProfileInput holds the editable profile fields. Absent fields stay unchanged.
type ProfileInput struct {
	Name       *string   `json:"name"`
	FavSports  *[]string `json:"favSports"`
	SkillLevel *string   `json:"skillLevel"`
	City       *string   `json:"city"`
	Bio        *string   `json:"bio"`
	PhotoURL   *string   `json:"photoURL"`
}

// UpdateProfile applies a partial profile update
func (s *UserService) UpdateProfile(ctx context.Context, id string, in ProfileInput) (*models.User, error) {
	id, ok := models.NormalizeID(id)
	if !ok {
		return nil, ErrInvalidUserID
	}

	var upd models.ProfileUpdate
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, newError(ErrValidation, "Name cannot be empty")
		}
		upd.Name = &name
	}
	if in.FavSports != nil {
		sports := cleanSports(*in.FavSports)
		upd.FavSports = &sports
	}
	if in.SkillLevel != nil {
		skill, ok := models.ParseSkillLevel(*in.SkillLevel)
		if !ok {
			return nil, ErrInvalidSkillLevel
		}
		upd.SkillLevel = &skill
	}
	upd.City = trimmed(in.City)
	upd.Bio = trimmed(in.Bio)
	upd.PhotoURL = trimmed(in.PhotoURL)

	user, err := s.userRepo.UpdateProfile(ctx, id, upd)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// UploadPhoto stores a profile photo and points the user's photoURL at it.
// The stored type and extension come from the file's leading bytes.
func (s *UserService) UploadPhoto(ctx context.Context, id, contentType string, body io.Reader) (*models.User, error) {
	id, ok := models.NormalizeID(id)
	if !ok {
		return nil, ErrInvalidUserID
	}
	if !strings.HasPrefix(contentType, "image/") {
		return nil, ErrInvalidPhoto
	}

	if _, err := s.GetUser(ctx, id); err != nil {
		return nil, err
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(body, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("failed to read photo: %w", err)
	}
	head = head[:n]

	detected := http.DetectContentType(head)
	ext, ok := photoExts[detected]
	if !ok {
		return nil, ErrInvalidPhoto
	}

	key := uuid.New().String() + ext
	url, err := s.photos.Save(ctx, key, detected, io.MultiReader(bytes.NewReader(head), body))
	if err != nil {
		return nil, fmt.Errorf("failed to store photo: %w", err)
	}

	return s.UpdateProfile(ctx, id, ProfileInput{PhotoURL: &url})
}

// SetPushToken stores the device token used for event reminders. An empty
// token clears it.
func (s *UserService) SetPushToken(ctx context.Context, userID, pushToken string) error {
	var tok *string
	if t := strings.TrimSpace(pushToken); t != "" {
		tok = &t
	}

	if err := s.userRepo.UpdatePushToken(ctx, userID, tok); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrUserNotFound
		}
		return fmt.Errorf("failed to update push token: %w", err)
	}
	return nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// cleanSports trims names and drops blanks and case-insensitive duplicates
func cleanSports(in []string) []string {
	out := make([]string, 0, len(in))
	seen := make(map[string]bool, len(in))
	for _, s := range in {
		s = strings.TrimSpace(s)
		key := strings.ToLower(s)
		if s == "" || seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, s)
	}
	return out
}

func trimmed(s *string) *string {
	if s == nil {
		return nil
	}
	t := strings.TrimSpace(*s)
	return &t
}
