// Package constants provides shared constant values used throughout the application.
//
// The database_const.go file defines constants related to database structures,
// including table names, column names, and PostgreSQL error codes. These constants
// ensure consistent and correct database access patterns throughout the application,
// reducing the risk of SQL errors and simplifying database schema changes.
package constants

// Table Names define the names of database tables used in the application.
// Using these constants instead of string literals ensures consistency
// and makes database schema changes easier to implement.
const (
	// TableUsers is the name of the table storing user account information.
	TableUsers = "users"

	// TableRefreshTokens is the name of the table storing hashed refresh tokens,
	// one row per outstanding (not yet rotated or revoked) refresh token.
	TableRefreshTokens = "refresh_tokens"

	// TableRevokedTokens is the name of the table storing revocation tombstones,
	// one row per revoked token identifier (jti).
	TableRevokedTokens = "revoked_tokens"

	// TablePasswordResetTokens is the name of the table storing hashed password
	// reset tokens.
	TablePasswordResetTokens = "password_reset_tokens"
)

// Column Names define commonly referenced database column names.
// These are primarily used for structured logging of database operations.
const (
	// ColumnUserID is the column storing the owning user's identifier.
	ColumnUserID = "user_id"

	// ColumnJTI is the column storing the unique JWT token identifier.
	ColumnJTI = "jti"

	// ColumnExpiresAt is the column storing record expiry timestamps.
	ColumnExpiresAt = "expires_at"

	// ColumnEmail is the column storing user email addresses.
	ColumnEmail = "email"

	// ColumnPasswordHash is the column storing hashed user passwords.
	ColumnPasswordHash = "password_hash"
)

// PostgreSQL Error Codes define the error codes returned by the database driver.
// These are used to translate low-level driver errors into application errors.
const (
	// PGErrorUniqueViolation is the PostgreSQL error code for unique constraint violations.
	PGErrorUniqueViolation = "23505"

	// PGErrorForeignKeyViolation is the PostgreSQL error code for foreign key violations.
	PGErrorForeignKeyViolation = "23503"

	// PGErrorNotNullViolation is the PostgreSQL error code for not-null violations.
	PGErrorNotNullViolation = "23502"
)

// Index Names define unique index names referenced when translating constraint
// violations into specific duplicate errors.
const (
	// IndexRefreshTokenJTI is the unique index on refresh_tokens.jti.
	IndexRefreshTokenJTI = "refresh_tokens_jti_key"

	// IndexRevokedTokenJTI is the unique index on revoked_tokens.jti.
	IndexRevokedTokenJTI = "revoked_tokens_jti_key"

	// IndexUserEmail is the unique index on users.email.
	IndexUserEmail = "users_email_key"
)
