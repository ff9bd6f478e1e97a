package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

const userColumns = `
	id, name, email, phone, avatar, is_admin, is_verified, is_active, last_login,
	addresses, wishlist, cart, created_at, updated_at, password_hash,
	email_verification_token, email_verification_expire,
	reset_password_token, reset_password_expire, login_attempts, lock_until`

// userRepository implements the UserRepository interface using PostgreSQL.
type userRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewUserRepository creates a new PostgreSQL-backed user repository.
func NewUserRepository(pool *pgxpool.Pool, logger zerolog.Logger) UserRepository {
	return &userRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "user").Logger(),
	}
}

// Create inserts a new user.
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))
	user.Normalise()

	query := `
		INSERT INTO users (
			id, name, email, password_hash, phone, avatar, is_admin, is_verified, is_active,
			email_verification_token, email_verification_expire,
			addresses, wishlist, cart, created_at, updated_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err := r.pool.Exec(ctx, query,
		user.ID, user.Name, user.Email, user.PasswordHash, user.Phone, user.Avatar,
		user.IsAdmin, user.IsVerified, user.IsActive,
		user.VerificationToken, user.VerificationExpires,
		user.Addresses, user.Wishlist, user.Cart, user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrEmailTaken
		}
		r.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to create user")
		return fmt.Errorf("failed to create user: %w", err)
	}

	r.logger.Debug().Str("user_id", user.ID.String()).Msg("user created successfully")
	return nil
}

// GetByID retrieves a user by ID.
func (r *userRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	return r.getOne(ctx, "id = $1", id)
}

// GetByEmail retrieves a user by email, ignoring case.
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.getOne(ctx, "LOWER(email) = LOWER($1)", strings.TrimSpace(email))
}

// GetByResetToken finds the user holding an unexpired reset token digest.
func (r *userRepository) GetByResetToken(ctx context.Context, digest string, now time.Time) (*model.User, error) {
	return r.getOne(ctx, "reset_password_token = $1 AND reset_password_expire > $2", digest, now)
}

// GetByVerificationToken finds the user holding an unexpired verification token digest.
func (r *userRepository) GetByVerificationToken(ctx context.Context, digest string, now time.Time) (*model.User, error) {
	return r.getOne(ctx, "email_verification_token = $1 AND email_verification_expire > $2", digest, now)
}

func (r *userRepository) getOne(ctx context.Context, where string, args ...any) (*model.User, error) {
	query := "SELECT " + userColumns + " FROM users WHERE " + where

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query user")
		return nil, fmt.Errorf("failed to query user: %w", err)
	}

	user, err := pgx.CollectOneRow(rows, pgx.RowToAddrOfStructByName[model.User])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Msg("failed to scan user")
		return nil, fmt.Errorf("failed to scan user: %w", err)
	}
	return user, nil
}

// UpdateProfile stores name, email, phone, avatar and admin flag.
func (r *userRepository) UpdateProfile(ctx context.Context, user *model.User) error {
	user.Email = strings.ToLower(strings.TrimSpace(user.Email))

	query := `
		UPDATE users
		SET name = $2, email = $3, phone = $4, avatar = $5, is_admin = $6, updated_at = NOW()
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query, user.ID, user.Name, user.Email, user.Phone, user.Avatar, user.IsAdmin)
	if err != nil {
		if isUniqueViolation(err) {
			return model.ErrEmailTaken
		}
		r.logger.Error().Err(err).Str("user_id", user.ID.String()).Msg("failed to update user")
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}

// UpdatePassword stores a new hash and clears any reset token.
func (r *userRepository) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	query := `
		UPDATE users
		SET password_hash = $2, reset_password_token = NULL, reset_password_expire = NULL, updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, "update password", id, query, id, hash)
}

// UpdateLoginState stores the failed-attempt counter, lock and last login.
func (r *userRepository) UpdateLoginState(ctx context.Context, user *model.User) error {
	query := `
		UPDATE users SET login_attempts = $2, lock_until = $3, last_login = $4
		WHERE id = $1
	`
	return r.exec(ctx, "update login state", user.ID, query, user.ID, user.LoginAttempts, user.LockUntil, user.LastLogin)
}

// SetResetToken stores a password reset token digest.
func (r *userRepository) SetResetToken(ctx context.Context, id uuid.UUID, digest string, expires time.Time) error {
	query := `UPDATE users SET reset_password_token = $2, reset_password_expire = $3 WHERE id = $1`
	return r.exec(ctx, "set reset token", id, query, id, digest, expires)
}

// ClearResetToken removes any password reset token.
func (r *userRepository) ClearResetToken(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET reset_password_token = NULL, reset_password_expire = NULL WHERE id = $1`
	return r.exec(ctx, "clear reset token", id, query, id)
}

// SetVerificationToken stores an email verification token digest.
func (r *userRepository) SetVerificationToken(ctx context.Context, id uuid.UUID, digest string, expires time.Time) error {
	query := `UPDATE users SET email_verification_token = $2, email_verification_expire = $3 WHERE id = $1`
	return r.exec(ctx, "set verification token", id, query, id, digest, expires)
}

// MarkVerified flags the email as verified and drops the token.
func (r *userRepository) MarkVerified(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET is_verified = TRUE, email_verification_token = NULL, email_verification_expire = NULL, updated_at = NOW()
		WHERE id = $1
	`
	return r.exec(ctx, "mark verified", id, query, id)
}

// UpdateCart replaces the stored cart.
func (r *userRepository) UpdateCart(ctx context.Context, id uuid.UUID, cart []model.CartItem) error {
	if cart == nil {
		cart = []model.CartItem{}
	}
	query := `UPDATE users SET cart = $2, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, "update cart", id, query, id, cart)
}

// UpdateAddresses replaces the stored address book.
func (r *userRepository) UpdateAddresses(ctx context.Context, id uuid.UUID, addresses []model.Address) error {
	if addresses == nil {
		addresses = []model.Address{}
	}
	query := `UPDATE users SET addresses = $2, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, "update addresses", id, query, id, addresses)
}

// UpdateWishlist replaces the stored wishlist.
func (r *userRepository) UpdateWishlist(ctx context.Context, id uuid.UUID, wishlist []uuid.UUID) error {
	if wishlist == nil {
		wishlist = []uuid.UUID{}
	}
	query := `UPDATE users SET wishlist = $2, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, "update wishlist", id, query, id, wishlist)
}

// Deactivate soft-deletes the account.
func (r *userRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	query := `UPDATE users SET is_active = FALSE, updated_at = NOW() WHERE id = $1`
	return r.exec(ctx, "deactivate user", id, query, id)
}

// List returns a page of users, newest first, and the total count.
func (r *userRepository) List(ctx context.Context, limit, offset int) ([]model.User, int, error) {
	var total int
	if err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM users").Scan(&total); err != nil {
		r.logger.Error().Err(err).Msg("failed to count users")
		return nil, 0, fmt.Errorf("failed to count users: %w", err)
	}

	query := "SELECT " + userColumns + " FROM users ORDER BY created_at DESC LIMIT $1 OFFSET $2"
	rows, err := r.pool.Query(ctx, query, limit, offset)
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to query users")
		return nil, 0, fmt.Errorf("failed to query users: %w", err)
	}

	users, err := pgx.CollectRows(rows, pgx.RowToStructByName[model.User])
	if err != nil {
		r.logger.Error().Err(err).Msg("failed to scan users")
		return nil, 0, fmt.Errorf("failed to scan users: %w", err)
	}
	return users, total, nil
}

func (r *userRepository) exec(ctx context.Context, op string, id uuid.UUID, query string, args ...any) error {
	tag, err := r.pool.Exec(ctx, query, args...)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", id.String()).Msgf("failed to %s", op)
		return fmt.Errorf("failed to %s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrUserNotFound
	}
	return nil
}
