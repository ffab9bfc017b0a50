package migrations

import (
	"context"
	"database/sql"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
)

// createMockDBAndTx creates a mock database with an open transaction for testing
func createMockDBAndTx(t *testing.T) (*sql.DB, *sql.Tx, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("Failed to create mock database: %v", err)
	}

	mock.ExpectBegin()
	tx, err := db.Begin()
	if err != nil {
		t.Fatalf("Failed to create transaction: %v", err)
	}

	cleanup := func() {
		tx.Rollback()
		db.Close()
	}

	return db, tx, mock, cleanup
}

// Test individual table creation functions
func TestCreateUsersTable(t *testing.T) {
	_, tx, mock, cleanup := createMockDBAndTx(t)
	defer cleanup()

	migration := createUsersTable()

	assert.Equal(t, "create_users_table", migration.Name)
	assert.Equal(t, "Creates the users table", migration.Description)
	assert.Equal(t, "users", migration.TableName)
	assert.NotNil(t, migration.RunSQL)

	// Expect the SQL execution
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Test the SQL execution
	ctx := context.Background()
	err := migration.RunSQL(ctx, tx)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRefreshTokensTable(t *testing.T) {
	_, tx, mock, cleanup := createMockDBAndTx(t)
	defer cleanup()

	migration := createRefreshTokensTable()

	assert.Equal(t, "create_refresh_tokens_table", migration.Name)
	assert.Equal(t, "Creates the refresh_tokens table", migration.Description)
	assert.Equal(t, "refresh_tokens", migration.TableName)
	assert.NotNil(t, migration.RunSQL)

	// Expect the SQL execution
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS refresh_tokens").
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Test the SQL execution
	ctx := context.Background()
	err := migration.RunSQL(ctx, tx)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateRevokedTokensTable(t *testing.T) {
	_, tx, mock, cleanup := createMockDBAndTx(t)
	defer cleanup()

	migration := createRevokedTokensTable()

	assert.Equal(t, "create_revoked_tokens_table", migration.Name)
	assert.Equal(t, "Creates the revoked_tokens table", migration.Description)
	assert.Equal(t, "revoked_tokens", migration.TableName)
	assert.NotNil(t, migration.RunSQL)

	// Expect the SQL execution
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS revoked_tokens").
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Test the SQL execution
	ctx := context.Background()
	err := migration.RunSQL(ctx, tx)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreatePasswordResetTokensTable(t *testing.T) {
	_, tx, mock, cleanup := createMockDBAndTx(t)
	defer cleanup()

	migration := createPasswordResetTokensTable()

	assert.Equal(t, "create_password_reset_tokens_table", migration.Name)
	assert.Equal(t, "Creates the password_reset_tokens table", migration.Description)
	assert.Equal(t, "password_reset_tokens", migration.TableName)
	assert.NotNil(t, migration.RunSQL)

	// Expect the SQL execution
	mock.ExpectExec("CREATE TABLE IF NOT EXISTS password_reset_tokens").
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Test the SQL execution
	ctx := context.Background()
	err := migration.RunSQL(ctx, tx)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

// TestRunSQLError verifies that a failed DDL statement is surfaced to the caller
func TestRunSQLError(t *testing.T) {
	_, tx, mock, cleanup := createMockDBAndTx(t)
	defer cleanup()

	migration := createUsersTable()

	mock.ExpectExec("CREATE TABLE IF NOT EXISTS users").
		WillReturnError(sql.ErrConnDone)

	ctx := context.Background()
	err := migration.RunSQL(ctx, tx)

	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
