package services

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travellanka/listings-backend/internal/database"
)

func setupRateLimitTest(t *testing.T) (*RateLimitService, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	postgresDB := &database.PostgresDB{DB: sqlxDB}
	service := NewRateLimitService(postgresDB, DefaultRateLimitConfig())

	cleanup := func() {
		db.Close()
	}

	return service, mock, cleanup
}

func TestCheck_NoAttempts(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	email := "owner@example.com"
	ip := "192.168.1.1"

	mock.ExpectQuery("SELECT COUNT(.+) FROM login_attempts").
		WithArgs(email, "email", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(0, time.Now()))

	mock.ExpectQuery("SELECT COUNT(.+) FROM login_attempts").
		WithArgs(ip, "ip", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(0, time.Now()))

	err := service.Check(context.Background(), email, ip)
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheck_EmailExceeded(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	lastAttempt := time.Now().Add(-5 * time.Minute)

	// Email is normalised before lookup
	mock.ExpectQuery("SELECT COUNT(.+) FROM login_attempts").
		WithArgs("owner@example.com", "email", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(5, lastAttempt))

	err := service.Check(context.Background(), "  Owner@Example.com ", "192.168.1.1")
	require.Error(t, err)

	var rateLimitErr *RateLimitError
	require.True(t, errors.As(err, &rateLimitErr), "Error should be RateLimitError")
	assert.Equal(t, "email", rateLimitErr.Type)
	assert.Contains(t, rateLimitErr.Message, "Too many failed login attempts for this account")
	assert.True(t, rateLimitErr.RetryAfter.After(time.Now()))

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheck_IPExceeded(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	email := "owner@example.com"
	ip := "192.168.1.1"
	lastAttempt := time.Now().Add(-30 * time.Minute)

	mock.ExpectQuery("SELECT COUNT(.+) FROM login_attempts").
		WithArgs(email, "email", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(2, lastAttempt))

	mock.ExpectQuery("SELECT COUNT(.+) FROM login_attempts").
		WithArgs(ip, "ip", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"count", "created_at"}).
			AddRow(20, lastAttempt))

	err := service.Check(context.Background(), email, ip)

	var rateLimitErr *RateLimitError
	require.True(t, errors.As(err, &rateLimitErr), "Error should be RateLimitError")
	assert.Equal(t, "ip", rateLimitErr.Type)
	assert.Contains(t, rateLimitErr.Message, "from this IP address")

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCheck_DatabaseError(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectQuery("SELECT COUNT(.+) FROM login_attempts").
		WithArgs("owner@example.com", "email", sqlmock.AnyArg()).
		WillReturnError(sql.ErrConnDone)

	err := service.Check(context.Background(), "owner@example.com", "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "failed to check email rate limit")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordFailure_Success(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO login_attempts").
		WithArgs("owner@example.com", "email").
		WillReturnResult(sqlmock.NewResult(1, 1))

	mock.ExpectExec("INSERT INTO login_attempts").
		WithArgs("192.168.1.1", "ip").
		WillReturnResult(sqlmock.NewResult(2, 1))

	err := service.RecordFailure(context.Background(), "owner@example.com", "192.168.1.1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRecordFailure_IPOnly(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectExec("INSERT INTO login_attempts").
		WithArgs("192.168.1.1", "ip").
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := service.RecordFailure(context.Background(), "", "192.168.1.1")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReset(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM login_attempts WHERE identifier = (.+) AND identifier_type = 'email'").
		WithArgs("owner@example.com").
		WillReturnResult(sqlmock.NewResult(0, 3))

	err := service.Reset(context.Background(), "OWNER@example.com")
	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCleanupExpired(t *testing.T) {
	service, mock, cleanup := setupRateLimitTest(t)
	defer cleanup()

	mock.ExpectExec("DELETE FROM login_attempts").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 10))

	rowsAffected, err := service.CleanupExpired(context.Background())
	assert.NoError(t, err)
	assert.Equal(t, int64(10), rowsAffected)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDefaultRateLimitConfig(t *testing.T) {
	config := DefaultRateLimitConfig()

	assert.Equal(t, 5, config.MaxEmailAttempts)
	assert.Equal(t, 15*time.Minute, config.EmailWindow)
	assert.Equal(t, 20, config.MaxIPAttempts)
	assert.Equal(t, 1*time.Hour, config.IPWindow)
}

func TestNewRateLimitConfig(t *testing.T) {
	config := NewRateLimitConfig(3, 10)
	assert.Equal(t, 3, config.MaxEmailAttempts)
	assert.Equal(t, 12, config.MaxIPAttempts)
	assert.Equal(t, 10*time.Minute, config.EmailWindow)
	assert.Equal(t, 10*time.Minute, config.IPWindow)

	assert.Equal(t, DefaultRateLimitConfig(), NewRateLimitConfig(0, 0))
}
