package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/constants"
	"github.com/authgate/authgate/internal/database"
	"github.com/authgate/authgate/internal/models"
	"github.com/authgate/authgate/internal/utils"
)

// PasswordResetRepository defines the interface for password reset token
// persistence. Only the SHA-256 hash of a reset token is stored; the plain
// token travels to the user by email and is never persisted.
type PasswordResetRepository interface {
	// Create stores a new password reset token hash.
	Create(ctx context.Context, token *models.PasswordResetToken) error

	// GetByTokenHash retrieves a reset token record by its hash.
	GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error)

	// Delete removes a reset token by its hash.
	Delete(ctx context.Context, tokenHash string) error

	// DeleteByUserID removes all reset tokens for a user.
	DeleteByUserID(ctx context.Context, userID int64) error

	// DeleteExpired removes all reset tokens that have passed their expiry.
	DeleteExpired(ctx context.Context) (int64, error)
}

// PostgresPasswordResetRepository is a PostgreSQL implementation of
// PasswordResetRepository.
type PostgresPasswordResetRepository struct {
	db *database.Pool
}

// NewPasswordResetRepository creates a new PasswordResetRepository backed by
// PostgreSQL.
func NewPasswordResetRepository(db *database.Pool) PasswordResetRepository {
	return &PostgresPasswordResetRepository{db: db}
}

// Create stores a new password reset token hash.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - token: The reset token record to store
//
// Returns:
//   - An error for database issues
//   - nil on successful creation
func (r *PostgresPasswordResetRepository) Create(ctx context.Context, token *models.PasswordResetToken) error {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		INSERT INTO password_reset_tokens (token_hash, user_id, expires_at, created_at)
		VALUES ($1, $2, $3, $4)
	`

	// Execute the query
	_, err := r.db.ExecContext(
		ctx,
		query,
		token.TokenHash,
		token.UserID,
		token.ExpiresAt,
		token.CreatedAt,
	)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{"[REDACTED]", token.UserID, token.ExpiresAt, token.CreatedAt},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return fmt.Errorf("failed to create password reset token: %w", err)
	}

	log.Info().
		Int64(constants.ColumnUserID, token.UserID).
		Time(constants.ColumnExpiresAt, token.ExpiresAt).
		Msg("Password reset token stored")

	return nil
}

// GetByTokenHash retrieves a reset token record by its hash.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - tokenHash: SHA-256 hex hash of the presented reset token
//
// Returns:
//   - The reset token record if found
//   - NotFoundError if no record matches the hash
//   - Other errors for database issues
//
// Expiry is not checked here; callers compare ExpiresAt themselves so an
// expired token can be distinguished from an unknown one.
func (r *PostgresPasswordResetRepository) GetByTokenHash(ctx context.Context, tokenHash string) (*models.PasswordResetToken, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		SELECT token_hash, user_id, expires_at, created_at
		FROM password_reset_tokens
		WHERE token_hash = $1
	`

	// Execute the query
	token := &models.PasswordResetToken{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&token.TokenHash,
		&token.UserID,
		&token.ExpiresAt,
		&token.CreatedAt,
	)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{"[REDACTED]"},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("PasswordResetToken", "token hash")
		}
		return nil, fmt.Errorf("failed to get password reset token: %w", err)
	}

	return token, nil
}

// Delete removes a reset token by its hash. Deleting an already-removed
// token is not an error.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - tokenHash: SHA-256 hex hash of the reset token
//
// Returns:
//   - An error for database issues
//   - nil otherwise
func (r *PostgresPasswordResetRepository) Delete(ctx context.Context, tokenHash string) error {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `DELETE FROM password_reset_tokens WHERE token_hash = $1`

	// Execute the query
	_, err := r.db.ExecContext(ctx, query, tokenHash)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{"[REDACTED]"},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return fmt.Errorf("failed to delete password reset token: %w", err)
	}

	return nil
}

// DeleteByUserID removes all reset tokens for a user. Called after a
// successful reset so older emailed links stop working.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - userID: The unique identifier of the user
//
// Returns:
//   - An error for database issues
//   - nil otherwise
func (r *PostgresPasswordResetRepository) DeleteByUserID(ctx context.Context, userID int64) error {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `DELETE FROM password_reset_tokens WHERE user_id = $1`

	// Execute the query
	_, err := r.db.ExecContext(ctx, query, userID)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{userID},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return fmt.Errorf("failed to delete password reset tokens for user: %w", err)
	}

	return nil
}

// DeleteExpired removes all reset tokens that have passed their expiry.
// Intended for periodic maintenance sweeps.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//
// Returns:
//   - The number of tokens deleted
//   - An error for database issues
func (r *PostgresPasswordResetRepository) DeleteExpired(ctx context.Context) (int64, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `DELETE FROM password_reset_tokens WHERE expires_at < $1`

	// Execute the query
	now := time.Now()
	result, err := r.db.ExecContext(ctx, query, now)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{now},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return 0, fmt.Errorf("failed to delete expired password reset tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		log.Info().
			Int64("count", rowsAffected).
			Msg("Expired password reset tokens deleted")
	}

	return rowsAffected, nil
}
