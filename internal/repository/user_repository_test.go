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

// setupUserRepositoryTest creates a new test database connection and mock
func setupUserRepositoryTest(t *testing.T) (repository.UserRepository, sqlmock.Sqlmock, func()) {
	// Create a new SQL mock database
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	// Create a database pool with the mock database
	dbPool := &database.Pool{DB: db}

	// Create a new repository with the mocked database
	repo := repository.NewUserRepository(dbPool)

	// Return the repository, mock and a cleanup function
	return repo, mock, func() {
		db.Close()
	}
}

func userColumns() []string {
	return []string{
		"user_id", "name", "email", "password_hash", "salt",
		"email_verified", "verification_token_hash", "verification_expires_at",
		"created_at", "updated_at",
	}
}

func TestUserRepository_Create(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	// Set up test data
	user := models.NewUser("Test User", "test@example.com")
	user.PasswordHash = "hashedpassword"
	user.Salt = "somesalt"
	user.VerificationTokenHash = "tokenhash"

	// The insert returns the generated user ID
	mock.ExpectQuery("INSERT INTO users").
		WithArgs(
			user.Name, user.Email, user.PasswordHash, user.Salt,
			user.EmailVerified, user.VerificationTokenHash, user.VerificationExpiresAt,
			sqlmock.AnyArg(), sqlmock.AnyArg(),
		).
		WillReturnRows(sqlmock.NewRows([]string{"user_id"}).AddRow(int64(42)))

	// Execute the method being tested
	err := repo.Create(context.Background(), user)

	// Assert the results
	assert.NoError(t, err)
	assert.Equal(t, int64(42), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_Create_DuplicateEmail(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	// Set up test data
	user := models.NewUser("Test User", "taken@example.com")
	user.PasswordHash = "hashedpassword"
	user.Salt = "somesalt"

	// Mock a unique constraint violation on the email index
	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{
			Code:       pq.ErrorCode(constants.PGErrorUniqueViolation),
			Constraint: constants.IndexUserEmail,
		})

	// Execute the method being tested
	err := repo.Create(context.Background(), user)

	// Assert the results
	assert.Error(t, err)
	assert.True(t, utils.IsDuplicateError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	// Set up test data
	now := time.Now()
	rows := sqlmock.NewRows(userColumns()).
		AddRow(int64(1), "Test User", "test@example.com", "hash", "salt",
			true, "", nil, now, now)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(int64(1)).
		WillReturnRows(rows)

	// Execute the method being tested
	user, err := repo.GetByID(context.Background(), 1)

	// Assert the results
	assert.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.Equal(t, "test@example.com", user.Email)
	assert.True(t, user.EmailVerified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByID_NotFound(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows(userColumns()))

	// Execute the method being tested
	user, err := repo.GetByID(context.Background(), 999)

	// Assert the results
	assert.Error(t, err)
	assert.Nil(t, user)
	assert.True(t, utils.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	// Set up test data
	now := time.Now()
	rows := sqlmock.NewRows(userColumns()).
		AddRow(int64(1), "Test User", "test@example.com", "hash", "salt",
			false, "tokenhash", &now, now, now)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("test@example.com").
		WillReturnRows(rows)

	// Execute the method being tested
	user, err := repo.GetByEmail(context.Background(), "test@example.com")

	// Assert the results
	assert.NoError(t, err)
	assert.Equal(t, int64(1), user.ID)
	assert.False(t, user.EmailVerified)
	assert.Equal(t, "tokenhash", user.VerificationTokenHash)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByEmail_NotFound(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("missing@example.com").
		WillReturnRows(sqlmock.NewRows(userColumns()))

	// Execute the method being tested
	user, err := repo.GetByEmail(context.Background(), "missing@example.com")

	// Assert the results
	assert.Error(t, err)
	assert.Nil(t, user)
	assert.True(t, utils.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_GetByVerificationTokenHash(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	// Set up test data
	now := time.Now()
	expiry := now.Add(24 * time.Hour)
	rows := sqlmock.NewRows(userColumns()).
		AddRow(int64(7), "Test User", "test@example.com", "hash", "salt",
			false, "tokenhash", &expiry, now, now)

	mock.ExpectQuery("SELECT (.+) FROM users").
		WithArgs("tokenhash").
		WillReturnRows(rows)

	// Execute the method being tested
	user, err := repo.GetByVerificationTokenHash(context.Background(), "tokenhash")

	// Assert the results
	assert.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	require.NotNil(t, user.VerificationExpiresAt)
	assert.WithinDuration(t, expiry, *user.VerificationExpiresAt, time.Second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_MarkEmailVerified(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	mock.ExpectExec("UPDATE users").
		WithArgs(sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Execute the method being tested
	err := repo.MarkEmailVerified(context.Background(), 1)

	// Assert the results
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_MarkEmailVerified_NotFound(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	mock.ExpectExec("UPDATE users").
		WithArgs(sqlmock.AnyArg(), int64(999)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	// Execute the method being tested
	err := repo.MarkEmailVerified(context.Background(), 999)

	// Assert the results
	assert.Error(t, err)
	assert.True(t, utils.IsNotFoundError(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePassword(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	mock.ExpectExec("UPDATE users").
		WithArgs("newhash", "newsalt", sqlmock.AnyArg(), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	// Execute the method being tested
	err := repo.UpdatePassword(context.Background(), 1, "newhash", "newsalt")

	// Assert the results
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_UpdatePassword_Error(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	mock.ExpectExec("UPDATE users").
		WithArgs("newhash", "newsalt", sqlmock.AnyArg(), int64(1)).
		WillReturnError(errors.New("database error"))

	// Execute the method being tested
	err := repo.UpdatePassword(context.Background(), 1, "newhash", "newsalt")

	// Assert the results
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to update password")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepository_ExistsByEmail(t *testing.T) {
	// Set up the test
	repo, mock, cleanup := setupUserRepositoryTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs("test@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	// Execute the method being tested
	exists, err := repo.ExistsByEmail(context.Background(), "test@example.com")

	// Assert the results
	assert.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}
