package database

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMockPool(t *testing.T) (*Pool, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	return &Pool{DB: db}, mock
}

func TestTransactionCommit(t *testing.T) {
	pool, mock := newMockPool(t)
	defer pool.Close()

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE users").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := pool.Transaction(context.Background(), func(tx *sql.Tx) error {
		_, err := tx.Exec("UPDATE users SET email_verified = true WHERE user_id = $1", 1)
		return err
	})
	if err != nil {
		t.Errorf("Transaction() error = %v, want nil", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTransactionRollback(t *testing.T) {
	pool, mock := newMockPool(t)
	defer pool.Close()

	wantErr := errors.New("operation failed")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := pool.Transaction(context.Background(), func(tx *sql.Tx) error {
		return wantErr
	})
	if !errors.Is(err, wantErr) {
		t.Errorf("Transaction() error = %v, want %v", err, wantErr)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestTransactionBeginFailure(t *testing.T) {
	pool, mock := newMockPool(t)
	defer pool.Close()

	mock.ExpectBegin().WillReturnError(errors.New("connection lost"))

	err := pool.Transaction(context.Background(), func(tx *sql.Tx) error {
		return nil
	})
	if err == nil {
		t.Error("Transaction() error = nil, want begin failure")
	}
}

func TestHealthCheck(t *testing.T) {
	pool, mock := newMockPool(t)
	defer pool.Close()

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	if err := pool.HealthCheck(context.Background()); err != nil {
		t.Errorf("HealthCheck() error = %v, want nil", err)
	}
}

func TestHealthCheckQueryFailure(t *testing.T) {
	pool, mock := newMockPool(t)
	defer pool.Close()

	mock.ExpectPing()
	mock.ExpectQuery("SELECT 1").WillReturnError(errors.New("query failed"))

	if err := pool.HealthCheck(context.Background()); err == nil {
		t.Error("HealthCheck() error = nil, want query failure")
	}
}
