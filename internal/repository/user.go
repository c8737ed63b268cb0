package repository

import (
	"context"
	"errors"
	"fmt"

	"sporture-backend/internal/models"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const userColumns = `id, name, email, password_hash, fav_sports, skill_level, rating, games_played,
	events_hosted, photo_url, member_since, city, bio, push_token, created_at, updated_at`

// UserRepository handles database operations for users
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// Create creates a new user
func (r *UserRepository) Create(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (id, name, email, password_hash, fav_sports, skill_level, rating, games_played,
			events_hosted, photo_url, member_since, city, bio, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := r.db.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.FavSports, string(user.SkillLevel),
		user.Rating, user.GamesPlayed, user.EventsHosted, user.PhotoURL, user.MemberSince,
		user.City, user.Bio, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if pgErrorCode(err) == pgUniqueViolation {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	return nil
}

// GetByID retrieves a user by ID
func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return user, nil
}

// GetByEmail retrieves a user by email
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	user, err := scanUser(r.db.QueryRow(ctx, query, email))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}
	return user, nil
}

// UpdateProfile applies the non-nil fields of upd and returns the updated user
func (r *UserRepository) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	var skill *string
	if upd.SkillLevel != nil {
		s := string(*upd.SkillLevel)
		skill = &s
	}

	query := `
		UPDATE users SET
			name = COALESCE($2, name),
			fav_sports = COALESCE($3, fav_sports),
			skill_level = COALESCE($4, skill_level),
			city = COALESCE($5, city),
			bio = COALESCE($6, bio),
			photo_url = COALESCE($7, photo_url),
			updated_at = now()
		WHERE id = $1
		RETURNING ` + userColumns
	user, err := scanUser(r.db.QueryRow(ctx, query, id, upd.Name, upd.FavSports, skill, upd.City, upd.Bio, upd.PhotoURL))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}
	return user, nil
}

// UpdatePushToken updates the push token for a user
func (r *UserRepository) UpdatePushToken(ctx context.Context, userID string, pushToken *string) error {
	query := `UPDATE users SET push_token = $1, updated_at = now() WHERE id = $2`
	result, err := r.db.Exec(ctx, query, pushToken, userID)
	if err != nil {
		return fmt.Errorf("failed to update push token: %w", err)
	}
	if result.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// GetPushTokens returns the push tokens of the given users, keyed by user ID.
// Users without a token are omitted.
func (r *UserRepository) GetPushTokens(ctx context.Context, userIDs []string) (map[string]string, error) {
	tokens := make(map[string]string, len(userIDs))
	if len(userIDs) == 0 {
		return tokens, nil
	}

	query := `SELECT id, push_token FROM users WHERE id = ANY($1) AND push_token IS NOT NULL AND push_token <> ''`
	rows, err := r.db.Query(ctx, query, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to get push tokens: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id, token string
		if err := rows.Scan(&id, &token); err != nil {
			return nil, fmt.Errorf("failed to scan push token: %w", err)
		}
		tokens[id] = token
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating push tokens: %w", err)
	}
	return tokens, nil
}

func scanUser(row pgx.Row) (*models.User, error) {
	var user models.User
	var skill string
	err := row.Scan(
		&user.ID, &user.Name, &user.Email, &user.PasswordHash, &user.FavSports, &skill,
		&user.Rating, &user.GamesPlayed, &user.EventsHosted, &user.PhotoURL, &user.MemberSince,
		&user.City, &user.Bio, &user.PushToken, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	user.SkillLevel = models.SkillLevel(skill)
	if user.FavSports == nil {
		user.FavSports = []string{}
	}
	return &user, nil
}
