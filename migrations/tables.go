package migrations

import (
	"context"
	"database/sql"
)

// createUsersTable creates the users table
func createUsersTable() Migration {
	return Migration{
		Name:        "create_users_table",
		Description: "Creates the users table",
		TableName:   "users",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			query := `
				CREATE TABLE IF NOT EXISTS users (
					user_id BIGSERIAL PRIMARY KEY,
					name VARCHAR(100) NOT NULL,
					email VARCHAR(255) NOT NULL,
					password_hash VARCHAR(255) NOT NULL,
					salt VARCHAR(255) NOT NULL,
					email_verified BOOLEAN NOT NULL DEFAULT FALSE,
					verification_token_hash VARCHAR(64),
					verification_expires_at TIMESTAMP,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					updated_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT users_email_key UNIQUE (email)
				);
				CREATE INDEX IF NOT EXISTS idx_users_verification_token_hash ON users(verification_token_hash);
			`
			_, err := tx.ExecContext(ctx, query)
			return err
		},
	}
}

// createRefreshTokensTable creates the refresh_tokens table
func createRefreshTokensTable() Migration {
	return Migration{
		Name:        "create_refresh_tokens_table",
		Description: "Creates the refresh_tokens table",
		TableName:   "refresh_tokens",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			query := `
				CREATE TABLE IF NOT EXISTS refresh_tokens (
					token_id BIGSERIAL PRIMARY KEY,
					user_id BIGINT NOT NULL,
					jti VARCHAR(255) NOT NULL,
					token_hash VARCHAR(64) NOT NULL,
					expires_at TIMESTAMP NOT NULL,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT refresh_tokens_jti_key UNIQUE (jti),
					CONSTRAINT fk_user FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
				);
				CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id);
				CREATE INDEX IF NOT EXISTS idx_refresh_tokens_token_hash ON refresh_tokens(token_hash);
				CREATE INDEX IF NOT EXISTS idx_refresh_tokens_expires_at ON refresh_tokens(expires_at);
			`
			_, err := tx.ExecContext(ctx, query)
			return err
		},
	}
}

// createRevokedTokensTable creates the revoked_tokens table.
// Tombstones are not foreign-keyed to users so that revocations recorded for
// a deleted account keep refusing that account's outstanding tokens.
func createRevokedTokensTable() Migration {
	return Migration{
		Name:        "create_revoked_tokens_table",
		Description: "Creates the revoked_tokens table",
		TableName:   "revoked_tokens",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			query := `
				CREATE TABLE IF NOT EXISTS revoked_tokens (
					revoked_id BIGSERIAL PRIMARY KEY,
					jti VARCHAR(255) NOT NULL,
					user_id BIGINT NOT NULL,
					reason VARCHAR(50) NOT NULL,
					expires_at TIMESTAMP NOT NULL,
					revoked_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT revoked_tokens_jti_key UNIQUE (jti)
				);
				CREATE INDEX IF NOT EXISTS idx_revoked_tokens_expires_at ON revoked_tokens(expires_at);
			`
			_, err := tx.ExecContext(ctx, query)
			return err
		},
	}
}

// createPasswordResetTokensTable creates the password_reset_tokens table
func createPasswordResetTokensTable() Migration {
	return Migration{
		Name:        "create_password_reset_tokens_table",
		Description: "Creates the password_reset_tokens table",
		TableName:   "password_reset_tokens",
		RunSQL: func(ctx context.Context, tx *sql.Tx) error {
			query := `
				CREATE TABLE IF NOT EXISTS password_reset_tokens (
					token_hash VARCHAR(64) PRIMARY KEY,
					user_id BIGINT NOT NULL,
					expires_at TIMESTAMP NOT NULL,
					created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
					CONSTRAINT fk_user FOREIGN KEY (user_id) REFERENCES users(user_id) ON DELETE CASCADE
				);
				CREATE INDEX IF NOT EXISTS idx_password_reset_tokens_user_id ON password_reset_tokens(user_id);
				CREATE INDEX IF NOT EXISTS idx_password_reset_tokens_expires_at ON password_reset_tokens(expires_at);
			`
			_, err := tx.ExecContext(ctx, query)
			return err
		},
	}
}
