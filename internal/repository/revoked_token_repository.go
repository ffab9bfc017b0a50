package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/lib/pq"
	"github.com/rs/zerolog/log"

	"github.com/authgate/authgate/internal/constants"
	"github.com/authgate/authgate/internal/database"
	"github.com/authgate/authgate/internal/models"
	"github.com/authgate/authgate/internal/utils"
)

// RevokedTokenRepository defines the interface for revocation tombstone
// persistence. The tombstone table is the source of truth for token
// revocation: a cache miss elsewhere proves nothing until this store has
// been consulted.
type RevokedTokenRepository interface {
	// Create adds a revocation tombstone for a token JTI.
	Create(ctx context.Context, token *models.RevokedToken) error

	// IsRevoked checks whether a tombstone exists for the given JTI.
	IsRevoked(ctx context.Context, jti string) (bool, error)

	// DeleteExpired removes tombstones whose tokens have expired on their own.
	DeleteExpired(ctx context.Context) (int64, error)
}

// PostgresRevokedTokenRepository is a PostgreSQL implementation of
// RevokedTokenRepository.
type PostgresRevokedTokenRepository struct {
	db *database.Pool
}

// NewRevokedTokenRepository creates a new RevokedTokenRepository backed by
// PostgreSQL.
func NewRevokedTokenRepository(db *database.Pool) RevokedTokenRepository {
	return &PostgresRevokedTokenRepository{db: db}
}

// Create adds a revocation tombstone for a token JTI.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - token: The tombstone to store, carrying the JTI, owning user,
//     revocation reason and the token's original expiry
//
// Returns:
//   - DuplicateError if the JTI is already revoked
//   - Other errors for database issues
//   - nil on successful creation
//
// Callers treat DuplicateError as the token already being revoked, which
// makes revocation idempotent.
func (r *PostgresRevokedTokenRepository) Create(ctx context.Context, token *models.RevokedToken) error {
	// Start query timer
	startTime := time.Now()

	// Define the query with RETURNING for PostgreSQL
	query := `
		INSERT INTO revoked_tokens (jti, user_id, reason, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING revoked_id
	`

	// Execute the query
	err := r.db.QueryRowContext(
		ctx,
		query,
		token.JTI,
		token.UserID,
		token.Reason,
		token.ExpiresAt,
		token.RevokedAt,
	).Scan(&token.ID)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{token.JTI, token.UserID, token.Reason, token.ExpiresAt, token.RevokedAt},
		time.Since(startTime),
		err,
	)

	if err != nil {
		// Check for unique constraint violations
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == constants.PGErrorUniqueViolation && pqErr.Constraint == constants.IndexRevokedTokenJTI {
				return utils.NewDuplicateError("RevokedToken", constants.ColumnJTI, token.JTI)
			}
		}
		return fmt.Errorf("failed to create revocation tombstone: %w", err)
	}

	log.Info().
		Str(constants.ColumnJTI, token.JTI).
		Int64(constants.ColumnUserID, token.UserID).
		Str("reason", token.Reason).
		Msg("Token revoked")

	return nil
}

// IsRevoked checks whether a tombstone exists for the given JTI.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - jti: The unique identifier of the JWT
//
// Returns:
//   - true if the JTI has a tombstone, false otherwise
//   - An error for database issues; callers must refuse the token rather
//     than treat a failed check as not-revoked
func (r *PostgresRevokedTokenRepository) IsRevoked(ctx context.Context, jti string) (bool, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `SELECT EXISTS(SELECT 1 FROM revoked_tokens WHERE jti = $1)`

	// Execute the query
	var revoked bool
	err := r.db.QueryRowContext(ctx, query, jti).Scan(&revoked)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{jti},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return false, fmt.Errorf("failed to check token revocation: %w", err)
	}

	return revoked, nil
}

// DeleteExpired removes tombstones whose tokens have expired on their own.
// An expired token fails validation before the revocation check, so its
// tombstone no longer serves a purpose.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//
// Returns:
//   - The number of tombstones deleted
//   - An error for database issues
func (r *PostgresRevokedTokenRepository) DeleteExpired(ctx context.Context) (int64, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `DELETE FROM revoked_tokens WHERE expires_at < $1`

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
		return 0, fmt.Errorf("failed to delete expired tombstones: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if rowsAffected > 0 {
		log.Info().
			Int64("count", rowsAffected).
			Msg("Expired revocation tombstones deleted")
	}

	return rowsAffected, nil
}
