// Package repository provides data access interfaces and PostgreSQL
// implementations for the application's persistence layer.
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

// UserRepository defines the interface for user account persistence.
type UserRepository interface {
	// Create adds a new user to the database.
	Create(ctx context.Context, user *models.User) error

	// GetByID retrieves a user by ID.
	GetByID(ctx context.Context, id int64) (*models.User, error)

	// GetByEmail retrieves a user by email address.
	GetByEmail(ctx context.Context, email string) (*models.User, error)

	// GetByVerificationTokenHash retrieves a user by the hash of their
	// email verification token.
	GetByVerificationTokenHash(ctx context.Context, tokenHash string) (*models.User, error)

	// MarkEmailVerified flags a user's email as verified and clears the
	// stored verification token.
	MarkEmailVerified(ctx context.Context, id int64) error

	// UpdatePassword replaces a user's password hash and salt.
	UpdatePassword(ctx context.Context, id int64, passwordHash, salt string) error

	// ExistsByEmail checks if a user with the given email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)
}

// PostgresUserRepository is a PostgreSQL implementation of UserRepository.
type PostgresUserRepository struct {
	db *database.Pool
}

// NewUserRepository creates a new UserRepository backed by PostgreSQL.
func NewUserRepository(db *database.Pool) UserRepository {
	return &PostgresUserRepository{db: db}
}

// Create adds a new user to the database.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - user: The user to store
//
// Returns:
//   - DuplicateError if a user with the same email already exists
//   - Other errors for database issues
//   - nil on successful creation
//
// The user's ID is populated from the database on success.
func (r *PostgresUserRepository) Create(ctx context.Context, user *models.User) error {
	// Start query timer
	startTime := time.Now()

	// Set created/updated timestamps
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	// Define the query with RETURNING for PostgreSQL
	query := `
		INSERT INTO users (name, email, password_hash, salt, email_verified, verification_token_hash, verification_expires_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING user_id
	`

	// Execute the query
	err := r.db.QueryRowContext(
		ctx,
		query,
		user.Name,
		user.Email,
		user.PasswordHash,
		user.Salt,
		user.EmailVerified,
		user.VerificationTokenHash,
		user.VerificationExpiresAt,
		user.CreatedAt,
		user.UpdatedAt,
	).Scan(&user.ID)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{user.Name, user.Email, "[REDACTED]", "[REDACTED]", user.EmailVerified},
		time.Since(startTime),
		err,
	)

	if err != nil {
		// Check for unique constraint violations
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == constants.PGErrorUniqueViolation && pqErr.Constraint == constants.IndexUserEmail {
				return utils.NewDuplicateError("User", constants.ColumnEmail, user.Email)
			}
		}
		return fmt.Errorf("failed to create user: %w", err)
	}

	log.Info().
		Int64(constants.ColumnUserID, user.ID).
		Str(constants.ColumnEmail, user.Email).
		Msg("User created")

	return nil
}

// GetByID retrieves a user by ID.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - id: The unique identifier of the user
//
// Returns:
//   - The user if found
//   - NotFoundError if the user doesn't exist
//   - Other errors for database issues
func (r *PostgresUserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		SELECT user_id, name, email, password_hash, salt, email_verified, verification_token_hash, verification_expires_at, created_at, updated_at
		FROM users
		WHERE user_id = $1
	`

	// Execute the query
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Salt,
		&user.EmailVerified,
		&user.VerificationTokenHash,
		&user.VerificationExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{id},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("User", id)
		}
		return nil, fmt.Errorf("failed to get user by ID: %w", err)
	}

	return user, nil
}

// GetByEmail retrieves a user by email address.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - email: The email address of the user
//
// Returns:
//   - The user if found
//   - NotFoundError if no user exists with the email
//   - Other errors for database issues
//
// The lookup is case-insensitive.
func (r *PostgresUserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		SELECT user_id, name, email, password_hash, salt, email_verified, verification_token_hash, verification_expires_at, created_at, updated_at
		FROM users
		WHERE LOWER(email) = LOWER($1)
	`

	// Execute the query
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Salt,
		&user.EmailVerified,
		&user.VerificationTokenHash,
		&user.VerificationExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
	)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{email},
		time.Since(startTime),
		err,
	)

	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, utils.NewNotFoundError("User", fmt.Sprintf("email=%s", email))
		}
		return nil, fmt.Errorf("failed to get user by email: %w", err)
	}

	return user, nil
}

// GetByVerificationTokenHash retrieves a user by the hash of their email
// verification token.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - tokenHash: SHA-256 hex hash of the verification token
//
// Returns:
//   - The user if found
//   - NotFoundError if no user holds the token hash
//   - Other errors for database issues
func (r *PostgresUserRepository) GetByVerificationTokenHash(ctx context.Context, tokenHash string) (*models.User, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		SELECT user_id, name, email, password_hash, salt, email_verified, verification_token_hash, verification_expires_at, created_at, updated_at
		FROM users
		WHERE verification_token_hash = $1
	`

	// Execute the query
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, tokenHash).Scan(
		&user.ID,
		&user.Name,
		&user.Email,
		&user.PasswordHash,
		&user.Salt,
		&user.EmailVerified,
		&user.VerificationTokenHash,
		&user.VerificationExpiresAt,
		&user.CreatedAt,
		&user.UpdatedAt,
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
			return nil, utils.NewNotFoundError("User", "verification token")
		}
		return nil, fmt.Errorf("failed to get user by verification token: %w", err)
	}

	return user, nil
}

// MarkEmailVerified flags a user's email as verified and clears the stored
// verification token.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - id: The unique identifier of the user
//
// Returns:
//   - NotFoundError if the user doesn't exist
//   - Other errors for database issues
//   - nil on successful update
func (r *PostgresUserRepository) MarkEmailVerified(ctx context.Context, id int64) error {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		UPDATE users
		SET email_verified = TRUE, verification_token_hash = '', verification_expires_at = NULL, updated_at = $1
		WHERE user_id = $2
	`

	// Execute the query
	result, err := r.db.ExecContext(ctx, query, time.Now(), id)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{id},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return fmt.Errorf("failed to mark email verified: %w", err)
	}

	// Check if the user exists
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return utils.NewNotFoundError("User", id)
	}

	log.Info().
		Int64(constants.ColumnUserID, id).
		Msg("Email verified")

	return nil
}

// UpdatePassword replaces a user's password hash and salt.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - id: The unique identifier of the user
//   - passwordHash: The new password hash
//   - salt: The new salt used for hashing
//
// Returns:
//   - NotFoundError if the user doesn't exist
//   - Other errors for database issues
//   - nil on successful update
func (r *PostgresUserRepository) UpdatePassword(ctx context.Context, id int64, passwordHash, salt string) error {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `
		UPDATE users
		SET password_hash = $1, salt = $2, updated_at = $3
		WHERE user_id = $4
	`

	// Execute the query
	result, err := r.db.ExecContext(ctx, query, passwordHash, salt, time.Now(), id)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{"[REDACTED]", "[REDACTED]", id},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	// Check if the user exists
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return utils.NewNotFoundError("User", id)
	}

	log.Info().
		Int64(constants.ColumnUserID, id).
		Msg("Password updated")

	return nil
}

// ExistsByEmail checks if a user with the given email exists.
//
// Parameters:
//   - ctx: Context for transaction and cancellation control
//   - email: The email address to check
//
// Returns:
//   - true if a user with the email exists, false otherwise
//   - An error for database issues
func (r *PostgresUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	// Start query timer
	startTime := time.Now()

	// Define the query
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE LOWER(email) = LOWER($1))`

	// Execute the query
	var exists bool
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)

	// Log the query execution
	utils.LogDBQuery(
		query,
		[]interface{}{email},
		time.Since(startTime),
		err,
	)

	if err != nil {
		return false, fmt.Errorf("failed to check if email exists: %w", err)
	}

	return exists, nil
}
