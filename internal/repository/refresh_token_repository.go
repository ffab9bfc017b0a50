package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/constants"
	"github.com/authgate/authgate/internal/database"
	"github.com/authgate/authgate/internal/models"
	"github.com/authgate/authgate/internal/utils"
)

// RefreshTokenRepository defines the interface for refresh token persistence.
// Tokens are stored hashed; the plain token only ever lives in the client's
// cookie or response body.
type RefreshTokenRepository interface {
	// Create adds a new refresh token to the database.
	Create(ctx context.Context, token *models.RefreshToken) error

	// GetByJTI retrieves a refresh token by its JWT ID.
	GetByJTI(ctx context.Context, jti string) (*models.RefreshToken, error)

	// DeleteByJTI removes a refresh token by its JWT ID.
	DeleteByJTI(ctx context.Context, jti string) error

	// DeleteByUserID removes all refresh tokens belonging to a user.
	DeleteByUserID(ctx context.Context, userID int64) (int64, error)

	// DeleteExpired removes all refresh tokens that have passed their expiry.
	DeleteExpired(ctx context.Context) (int64, error)
}

// PostgresRefreshTokenRepository is a PostgreSQL implementation of
// RefreshTokenRepository.
type PostgresRefreshTokenRepository struct {
	db *database.Pool
}

// NewRefreshTokenRepository creates a new RefreshTokenRepository backed by
// PostgreSQL.
func NewRefreshTokenRepository(db *database.Pool) RefreshTokenRepository {
	return &PostgresRefreshTokenRepository{db: db}
}

// Create adds a new refresh token to the database.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - token: The refresh token to store
//
// Returns:
//   - DuplicateError if a token with the same JTI already exists
//   - Other errors for database issues
//   - nil on successful creation
//
// The token's ID is populated from the database on success.
func (r *PostgresRefreshTokenRepository) Create(ctx context.Context, token *models.RefreshToken) error {
	// Start query timer
	startTime := time.Now()

	// Define the query with RETURNING for PostgreSQL
	query := `
		INSERT INTO refresh_tokens (user_id, jti, token_hash, expires_at, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING token_id
	`

	// Execute the query
	err := r.db.QueryRowContext(
		ctx,
		query,
		token.UserID,
		token.JTI,
		token.TokenHash,
		token.ExpiresAt,
		token.CreatedAt,
	).Scan(&token.ID)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{token.UserID, token.JTI, "[REDACTED]", token.ExpiresAt, token.CreatedAt},
		time.Since(startTime),
		err,
	)

	if err != nil {
		// Check for unique constraint violations
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == constants.PGErrorUniqueViolation && pqErr.Constraint == constants.IndexRefreshTokenJTI {
				return utils.NewDuplicateError("RefreshToken", constants.ColumnJTI, token.JTI)
			}
		}
		return fmt.Errorf("failed to create refresh token: %w", err)
	}

	log.Info().
		Int64(constants.ColumnUserID, token.UserID).
		Str(constants.ColumnJTI, token.JTI).
		Time(constants.ColumnExpiresAt, token.ExpiresAt).
		Msg("Refresh token stored")

	return nil
}

// GetByJTI retrieves a refresh token by its JWT ID.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - jti: The unique identifier of the JWT
//
// Returns:
//   - The refresh token if found
//   - NotFoundError if no token exists for the JTI
//   - Other errors for database issues
func (r *PostgresRefreshTokenRepository) GetByJTI(ctx context.Context, jti string) (*models.RefreshToken, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		SELECT token_id, user_id, jti, token_hash, expires_at, created_at
		FROM refresh_tokens
		WHERE jti = $1
	`

	// Execute the query
	token := &models.RefreshToken{}
	err := r.db.QueryRowContext(ctx, query, jti).Scan(
		&token.ID,
		&token.UserID,
		&token.JTI,
		&token.TokenHash,
		&token.ExpiresAt,
		&token.CreatedAt,
	)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{jti},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("RefreshToken", fmt.Sprintf("jti=%s", jti))
		}
		return nil, fmt.Errorf("failed to get refresh token by JTI: %w", err)
	}

	return token, nil
}

// DeleteByJTI removes a refresh token by its JWT ID.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - jti: The unique identifier of the JWT
//
// Returns:
//   - NotFoundError if no token exists for the JTI
//   - Other errors for database issues
//   - nil on successful deletion
func (r *PostgresRefreshTokenRepository) DeleteByJTI(ctx context.Context, jti string) error {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `DELETE FROM refresh_tokens WHERE jti = $1`

	// Execute the query
	result, err := r.db.ExecContext(ctx, query, jti)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{jti},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return fmt.Errorf("failed to delete refresh token: %w", err)
	}

	// Check if the token existed
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return utils.NewNotFoundError("RefreshToken", fmt.Sprintf("jti=%s", jti))
	}

	log.Info().
		Str(constants.ColumnJTI, jti).
		Msg("Refresh token deleted")

	return nil
}

// DeleteByUserID removes all refresh tokens belonging to a user. Used for
// logout-everywhere and after a password reset.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - userID: The unique identifier of the user
//
// Returns:
//   - The number of tokens deleted
//   - An error for database issues
func (r *PostgresRefreshTokenRepository) DeleteByUserID(ctx context.Context, userID int64) (int64, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `DELETE FROM refresh_tokens WHERE user_id = $1`

	// Execute the query
	result, err := r.db.ExecContext(ctx, query, userID)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{userID},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return 0, fmt.Errorf("failed to delete refresh tokens for user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		log.Info().
			Int64(constants.ColumnUserID, userID).
			Int64("count", rowsAffected).
			Msg("Refresh tokens deleted for user")
	}

	return rowsAffected, nil
}

// DeleteExpired removes all refresh tokens that have passed their expiry.
// Intended for periodic maintenance sweeps.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//
// Returns:
//   - The number of tokens deleted
//   - An error for database issues
func (r *PostgresRefreshTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `DELETE FROM refresh_tokens WHERE expires_at < $1`

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
		return 0, fmt.Errorf("failed to delete expired refresh tokens: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		log.Info().
			Int64("count", rowsAffected).
			Msg("Expired refresh tokens deleted")
	}

	return rowsAffected, nil
}
