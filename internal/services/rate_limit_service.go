package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/travellanka/listings-backend/internal/database"
)

// LoginLimiter throttles repeated failed logins per email and per IP
type LoginLimiter interface {
	Check(ctx context.Context, email, ip string) error
	RecordFailure(ctx context.Context, email, ip string) error
	Reset(ctx context.Context, email string) error
}

// RateLimitConfig holds rate limiting configuration
type RateLimitConfig struct {
	MaxEmailAttempts int           // Max failed logins per email
	EmailWindow      time.Duration // Time window for email rate limit
	MaxIPAttempts    int           // Max failed logins per IP
	IPWindow         time.Duration // Time window for IP rate limit
}

// DefaultRateLimitConfig returns the default rate limit configuration
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		MaxEmailAttempts: 5,                // 5 failures
		EmailWindow:      15 * time.Minute, // per 15 minutes
		MaxIPAttempts:    20,               // 20 failures
		IPWindow:         1 * time.Hour,    // per hour
	}
}

// NewRateLimitConfig builds a config from the configured attempts and window.
// The IP limit is four times the per-email limit over the same window.
func NewRateLimitConfig(maxAttempts, windowMinutes int) RateLimitConfig {
	cfg := DefaultRateLimitConfig()
	if maxAttempts > 0 {
		cfg.MaxEmailAttempts = maxAttempts
		cfg.MaxIPAttempts = maxAttempts * 4
	}
	if windowMinutes > 0 {
		cfg.EmailWindow = time.Duration(windowMinutes) * time.Minute
		cfg.IPWindow = cfg.EmailWindow
	}
	return cfg
}

// RateLimitError represents a rate limit exceeded error
type RateLimitError struct {
	Message    string
	RetryAfter time.Time
	Type       string // "email" or "ip"
}

func (e *RateLimitError) Error() string {
	return e.Message
}

func emailLimitError(retryAfter time.Time) *RateLimitError {
	return &RateLimitError{
		Message:    fmt.Sprintf("Too many failed login attempts for this account. Please try again after %s", retryAfter.Format("15:04:05")),
		RetryAfter: retryAfter,
		Type:       "email",
	}
}

func ipLimitError(retryAfter time.Time) *RateLimitError {
	return &RateLimitError{
		Message:    fmt.Sprintf("Too many failed login attempts from this IP address. Please try again after %s", retryAfter.Format("15:04:05")),
		RetryAfter: retryAfter,
		Type:       "ip",
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// RateLimitService keeps failed login attempts in PostgreSQL
type RateLimitService struct {
	db     database.DB
	config RateLimitConfig
}

// NewRateLimitService creates a new rate limit service
func NewRateLimitService(db database.DB, config RateLimitConfig) *RateLimitService {
	return &RateLimitService{
		db:     db,
		config: config,
	}
}

// Check returns a *RateLimitError when the email or IP has too many recent failures
func (s *RateLimitService) Check(ctx context.Context, email, ip string) error {
	if email = normalizeEmail(email); email != "" {
		count, lastAttempt, err := s.getAttemptCount(ctx, email, "email", s.config.EmailWindow)
		if err != nil {
			return fmt.Errorf("failed to check email rate limit: %w", err)
		}
		if count >= s.config.MaxEmailAttempts {
			return emailLimitError(lastAttempt.Add(s.config.EmailWindow))
		}
	}

	if ip != "" {
		count, lastAttempt, err := s.getAttemptCount(ctx, ip, "ip", s.config.IPWindow)
		if err != nil {
			return fmt.Errorf("failed to check IP rate limit: %w", err)
		}
		if count >= s.config.MaxIPAttempts {
			return ipLimitError(lastAttempt.Add(s.config.IPWindow))
		}
	}

	return nil
}

// getAttemptCount gets the number of failures within the time window
func (s *RateLimitService) getAttemptCount(ctx context.Context, identifier, identifierType string, window time.Duration) (int, time.Time, error) {
	windowStart := time.Now().Add(-window)

	query := `
		SELECT COUNT(*), COALESCE(MAX(created_at), NOW())
		FROM login_attempts
		WHERE identifier = $1
		  AND identifier_type = $2
		  AND created_at > $3
	`

	var count int
	var lastAttempt time.Time

	err := s.db.QueryRowContext(ctx, query, identifier, identifierType, windowStart).Scan(&count, &lastAttempt)
	if err != nil && err != sql.ErrNoRows {
		return 0, time.Time{}, err
	}

	return count, lastAttempt, nil
}

// RecordFailure records a failed login for the email and the IP
func (s *RateLimitService) RecordFailure(ctx context.Context, email, ip string) error {
	if email = normalizeEmail(email); email != "" {
		if err := s.recordAttempt(ctx, email, "email"); err != nil {
			return fmt.Errorf("failed to record email attempt: %w", err)
		}
	}

	if ip != "" {
		if err := s.recordAttempt(ctx, ip, "ip"); err != nil {
			return fmt.Errorf("failed to record IP attempt: %w", err)
		}
	}

	return nil
}

// recordAttempt inserts a rate limit record
func (s *RateLimitService) recordAttempt(ctx context.Context, identifier, identifierType string) error {
	query := `
		INSERT INTO login_attempts (identifier, identifier_type, created_at)
		VALUES ($1, $2, NOW())
	`

	_, err := s.db.ExecContext(ctx, query, identifier, identifierType)
	return err
}

// Reset clears the failures recorded against an email after a successful login
func (s *RateLimitService) Reset(ctx context.Context, email string) error {
	query := `DELETE FROM login_attempts WHERE identifier = $1 AND identifier_type = 'email'`

	if _, err := s.db.ExecContext(ctx, query, normalizeEmail(email)); err != nil {
		return fmt.Errorf("failed to reset login attempts: %w", err)
	}
	return nil
}

// CleanupExpired removes records older than the longest window
func (s *RateLimitService) CleanupExpired(ctx context.Context) (int64, error) {
	maxWindow := s.config.IPWindow
	if s.config.EmailWindow > maxWindow {
		maxWindow = s.config.EmailWindow
	}

	cutoffTime := time.Now().Add(-maxWindow)

	query := `
		DELETE FROM login_attempts
		WHERE created_at < $1
	`

	result, err := s.db.ExecContext(ctx, query, cutoffTime)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup login attempts: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected, nil
}
