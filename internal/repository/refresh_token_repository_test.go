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

// setupRefreshTokenRepositoryTest creates a new test database connection and mock
func setupRefreshTokenRepositoryTest(t *testing.T) (repository.RefreshTokenRepository, sqlmock.Sqlmock, func()) {
	// Create a new SQL mock database
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	// Create a database pool with the mock database
	dbPool := &database.Pool{DB: db}

	// Create a new repository with the mocked database
	repo := repository.NewRefreshTokenRepository(dbPool)

	// Return the repository, mock and a cleanup function
	return repo, mock, func() {
		db.Close()
	}
}

func refreshTokenColumns() []string {
	return []string{"token_id", "user_id", "jti", "token_hash", "expires_at", "created_at"}
}

func TestRefreshTokenRepository_Create(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupRefreshTokenRepositoryTest(t)
	defer cleanup()

	// Set up test data
	token := models.NewRefreshToken(100, "jti-abc", "tokenhash", time.Now().Add(7*24*time.Hour))

	mock.ExpectQuery("INSERT INTO refresh_tokens").
		WithArgs(token.UserID, token.JTI, token.TokenHash, token.ExpiresAt, token.CreatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"token_id"}).AddRow(int64(5)))

	// Execute the method being tested
	err := repo.Create(context.Background(), token)

	// Assert the results
	assert.NoError(t, err)
	assert.Equal(t, int64(5), token.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_Create_DuplicateJTI(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupRefreshTokenRepositoryTest(t)
	defer cleanup()

	// Set up test data
	token := models.NewRefreshToken(100, "jti-abc", "tokenhash", time.Now().Add(7*24*time.Hour))

	// Mock a unique constraint violation on the JTI index
	mock.ExpectQuery("INSERT INTO refresh_tokens").
		WillReturnError(&pq.Error{
			Code:       pq.ErrorCode(constants.PGErrorUniqueViolation),
			Constraint: constants.IndexRefreshTokenJTI,
		})

	// Execute the method being tested
	err := repo.Create(context.Background(), token)

	// Assert the results
	assert.Error(t, err)
	assert.True(t, utils.IsDuplicateError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_GetByJTI(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupRefreshTokenRepositoryTest(t)
	defer cleanup()

	// Set up test data
	now := time.Now()
	rows := sqlmock.NewRows(refreshTokenColumns()).
		AddRow(int64(5), int64(100), "jti-abc", "tokenhash", now.Add(7*24*time.Hour), now)

	mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WithArgs("jti-abc").
		WillReturnRows(rows)

	// Execute the method being tested
	token, err := repo.GetByJTI(context.Background(), "jti-abc")

	// Assert the results
	assert.NoError(t, err)
	assert.Equal(t, int64(100), token.UserID)
	assert.Equal(t, "jti-abc", token.JTI)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_GetByJTI_NotFound(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupRefreshTokenRepositoryTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM refresh_tokens").
		WithArgs("jti-missing").
		WillReturnRows(sqlmock.NewRows(refreshTokenColumns()))

	// Execute the method being tested
	token, err := repo.GetByJTI(context.Background(), "jti-missing")

	// Assert the results
	assert.Error(t, err)
	assert.Nil(t, token)
	assert.True(t, utils.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_DeleteByJTI(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupRefreshTokenRepositoryTest(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs("jti-abc").
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Execute the method being tested
	err := repo.DeleteByJTI(context.Background(), "jti-abc")

	// Assert the results
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_DeleteByJTI_NotFound(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupRefreshTokenRepositoryTest(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs("jti-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Execute the method being tested
	err := repo.DeleteByJTI(context.Background(), "jti-missing")

	// Assert the results
	assert.Error(t, err)
	assert.True(t, utils.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_DeleteByUserID(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupRefreshTokenRepositoryTest(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs(int64(100)).
		WillReturnResult(sqlmock.NewResult(0, 3))

	// Execute the method being tested
	count, err := repo.DeleteByUserID(context.Background(), 100)

	// Assert the results
	assert.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_DeleteExpired(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupRefreshTokenRepositoryTest(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 7))

	// Execute the method being tested
	count, err := repo.DeleteExpired(context.Background())

	// Assert the results
	assert.NoError(t, err)
	assert.Equal(t, int64(7), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRefreshTokenRepository_DeleteExpired_Error(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupRefreshTokenRepositoryTest(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM refresh_tokens").
		WithArgs(sqlmock.AnyArg()).
		WillReturnError(errors.New("database error"))

	// Execute the method being tested
	count, err := repo.DeleteExpired(context.Background())

	// Assert the results
	assert.Error(t, err)
	assert.Zero(t, count)
	assert.Contains(t, err.Error(), "failed to delete expired refresh tokens")
	assert.NoError(t, mock.ExpectationsWereMet())
}
