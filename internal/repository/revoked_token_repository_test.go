package repository_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/authgate/authgate/internal/constants"
	"github.com/authgate/authgate/internal/database"
	"github.com/authgate/authgate/internal/models"
	"github.com/authgate/authgate/internal/repository"
	"github.com/authgate/authgate/internal/utils"
)

// setupRevokedTokenRepositoryTest creates a new test database connection and mock
func setupRevokedTokenRepositoryTest(t *testing.T) (repository.RevokedTokenRepository, sqlmock.Sqlmock, func()) {
	// Create a new SQL mock database
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	// Create a database pool with the mock database
	dbPool := &database.Pool{DB: db}

	// Create a new repository with the mocked database
	repo := repository.NewRevokedTokenRepository(dbPool)

	// Return the repository, mock and a cleanup function
	return repo, mock, func() {
		db.Close()
	}
}

func TestRevokedTokenRepository_Create(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupRevokedTokenRepositoryTest(t)
	defer cleanup()

	// Set up test data
	token := models.NewRevokedToken("jti-abc", 100, constants.RevocationReasonLogout, time.Now().Add(15*time.Minute))

	mock.ExpectQuery("INSERT INTO revoked_tokens").
		WithArgs(token.JTI, token.UserID, token.Reason, token.ExpiresAt, token.RevokedAt).
		WillReturnRows(sqlmock.NewRows([]string{"revoked_id"}).AddRow(int64(9)))

	// Execute the method being tested
	err := repo.Create(context.Background(), token)

	// Assert the results
	assert.NoError(t, err)
	assert.Equal(t, int64(9), token.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokedTokenRepository_Create_AlreadyRevoked(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupRevokedTokenRepositoryTest(t)
	defer cleanup()

	// Set up test data
	token := models.NewRevokedToken("jti-abc", 100, constants.RevocationReasonLogout, time.Now().Add(15*time.Minute))

	// Mock a unique constraint violation on the JTI index
	mock.ExpectQuery("INSERT INTO revoked_tokens").
		WillReturnError(&pq.Error{
			Code:       pq.ErrorCode(constants.PGErrorUniqueViolation),
			Constraint: constants.IndexRevokedTokenJTI,
		})

	// Execute the method being tested
	err := repo.Create(context.Background(), token)

	// A second revocation of the same JTI surfaces as a duplicate so
	// callers can treat it as already revoked
	assert.Error(t, err)
	assert.True(t, utils.IsDuplicateError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokedTokenRepository_Create_Error(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupRevokedTokenRepositoryTest(t)
	defer cleanup()

	// Set up test data
	token := models.NewRevokedToken("jti-abc", 100, constants.RevocationReasonRefresh, time.Now().Add(15*time.Minute))

	// Mock database error
	mock.ExpectQuery("INSERT INTO revoked_tokens").
		WillReturnError(errors.New("database error"))

	// Execute the method being tested
	err := repo.Create(context.Background(), token)

	// Assert the results
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create revocation tombstone")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokedTokenRepository_IsRevoked(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupRevokedTokenRepositoryTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("jti-abc").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	// Execute the method being tested
	revoked, err := repo.IsRevoked(context.Background(), "jti-abc")

	// Assert the results
	assert.NoError(t, err)
	assert.True(t, revoked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokedTokenRepository_IsRevoked_NoTombstone(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupRevokedTokenRepositoryTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("jti-live").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(false))

	// Execute the method being tested
	revoked, err := repo.IsRevoked(context.Background(), "jti-live")

	// Assert the results
	assert.NoError(t, err)
	assert.False(t, revoked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokedTokenRepository_IsRevoked_Error(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupRevokedTokenRepositoryTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("jti-abc").
		WillReturnError(errors.New("database error"))

	// Execute the method being tested
	revoked, err := repo.IsRevoked(context.Background(), "jti-abc")

	// The error must surface so callers refuse the token instead of
	// treating a failed check as not-revoked
	assert.Error(t, err)
	assert.False(t, revoked)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRevokedTokenRepository_DeleteExpired(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupRevokedTokenRepositoryTest(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM revoked_tokens").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 4))

	// Execute the method being tested
	count, err := repo.DeleteExpired(context.Background())

	// Assert the results
	assert.NoError(t, err)
	assert.Equal(t, int64(4), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}
