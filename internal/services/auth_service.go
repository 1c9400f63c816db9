package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/travellanka/listings-backend/internal/database"
	"github.com/travellanka/listings-backend/internal/models"
	"github.com/travellanka/listings-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength is enforced on registration and password changes
const MinPasswordLength = 8

// AuthService handles account authentication business logic
type AuthService struct {
	accounts   AccountStore
	tokens     RefreshTokenStore
	jwtService *jwt.Service
	limiter    LoginLimiter
	audit      AuditRecorder
	bcryptCost int
	logger     *logrus.Logger
}

// NewAuthService creates a new auth service. audit may be nil.
func NewAuthService(
	accounts AccountStore,
	tokens RefreshTokenStore,
	jwtService *jwt.Service,
	limiter LoginLimiter,
	audit AuditRecorder,
	bcryptCost int,
	logger *logrus.Logger,
) *AuthService {
	if audit == nil {
		audit = noopAudit{}
	}
	if bcryptCost < bcrypt.MinCost || bcryptCost > bcrypt.MaxCost {
		bcryptCost = bcrypt.DefaultCost
	}
	return &AuthService{
		accounts:   accounts,
		tokens:     tokens,
		jwtService: jwtService,
		limiter:    limiter,
		audit:      audit,
		bcryptCost: bcryptCost,
		logger:     logger,
	}
}

// RegisterInput is the self-service sign-up payload
type RegisterInput struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Password  string `json:"password"`
}

// AuthResult is returned on register, login and refresh
type AuthResult struct {
	AccessToken  string          `json:"accessToken"`
	RefreshToken string          `json:"refreshToken"`
	ExpiresIn    int64           `json:"expiresIn"`
	User         *models.Account `json:"user"`
}

// HashPassword hashes a plaintext password with the configured cost
func (s *AuthService) HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// validateEmail returns the normalised address or a validation error
func validateEmail(email string) (string, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return "", models.NewValidationError("email is required")
	}
	if !models.IsValidEmail(email) {
		return "", models.NewValidationError("email is invalid")
	}
	return email, nil
}

func validatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return models.NewValidationError(fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	return nil
}

// Register creates a plain user account and signs it in
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*AuthResult, error) {
	email, err := validateEmail(in.Email)
	if err != nil {
		return nil, err
	}
	if err := validatePassword(in.Password); err != nil {
		return nil, err
	}
	if strings.TrimSpace(in.FirstName) == "" {
		return nil, models.NewValidationError("firstName is required")
	}

	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.HashPassword(in.Password)
	if err != nil {
		return nil, err
	}

	account := &models.Account{
		FirstName:    strings.TrimSpace(in.FirstName),
		LastName:     strings.TrimSpace(in.LastName),
		Email:        email,
		Phone:        models.NewNullString(strings.TrimSpace(in.Phone)),
		PasswordHash: hash,
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.logger.WithFields(logrus.Fields{
		"user_id": account.ID.String(),
		"email":   account.Email,
	}).Info("Account registered")

	return s.issueTokens(ctx, account)
}

// Login verifies credentials and returns a token pair. Failed attempts
// count towards the per-email and per-IP limits.
func (s *AuthService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	meta := RequestMetaFrom(ctx)
	email = strings.ToLower(strings.TrimSpace(email))

	if err := s.limiter.Check(ctx, email, meta.IPAddress); err != nil {
		var rateLimitErr *RateLimitError
		if errors.As(err, &rateLimitErr) {
			s.audit.Record(ctx, AuditEvent{
				Action: AuditRateLimited,
				Details: map[string]interface{}{
					"email":       email,
					"limit_type":  rateLimitErr.Type,
					"retry_after": rateLimitErr.RetryAfter.Format(time.RFC3339),
				},
			})
		}
		return nil, err
	}

	account, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil || bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(password)) != nil {
		s.recordFailedLogin(ctx, email, meta, account)
		return nil, ErrInvalidCredentials
	}

	if !account.IsActive {
		return nil, ErrAccountDisabled
	}

	if err := s.limiter.Reset(ctx, email); err != nil {
		s.logger.WithError(err).Warn("Failed to reset login attempts")
	}
	if err := s.accounts.UpdateLastLogin(ctx, account.ID); err != nil {
		s.logger.WithError(err).WithField("user_id", account.ID.String()).Warn("Failed to update last login")
	}

	s.audit.Record(ctx, AuditEvent{
		UserID:     &account.ID,
		Action:     AuditLogin,
		EntityType: "account",
		EntityID:   account.ID.String(),
		Details:    map[string]interface{}{"role": account.Role},
	})

	return s.issueTokens(ctx, account)
}

func (s *AuthService) recordFailedLogin(ctx context.Context, email string, meta RequestMeta, account *models.Account) {
	if err := s.limiter.RecordFailure(ctx, email, meta.IPAddress); err != nil {
		s.logger.WithError(err).Warn("Failed to record failed login")
	}

	event := AuditEvent{
		Action:  AuditLoginFailed,
		Details: map[string]interface{}{"email": email},
	}
	if account != nil {
		event.UserID = &account.ID
		event.EntityType = "account"
		event.EntityID = account.ID.String()
	}
	s.audit.Record(ctx, event)
}

// Refresh exchanges a refresh token for a new pair. The presented token is
// revoked so each refresh token can be used once.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (*AuthResult, error) {
	claims, err := s.jwtService.ValidateRefreshToken(refreshToken)
	if err != nil {
		return nil, ErrInvalidToken
	}

	stored, err := s.tokens.Get(ctx, refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to load refresh token: %w", err)
	}
	if stored == nil || !stored.Usable(time.Now()) || stored.UserID != claims.UserID {
		return nil, ErrInvalidToken
	}

	account, err := s.accounts.GetByID(ctx, claims.UserID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, ErrInvalidToken
	}
	if !account.IsActive {
		return nil, ErrAccountDisabled
	}

	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return nil, fmt.Errorf("failed to revoke refresh token: %w", err)
	}

	return s.issueTokens(ctx, account)
}

// Logout revokes the refresh token. Unknown tokens are ignored.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.tokens.Revoke(ctx, refreshToken); err != nil {
		return fmt.Errorf("failed to revoke refresh token: %w", err)
	}
	return nil
}

// Me returns the caller's account
func (s *AuthService) Me(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	account, err := s.accounts.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}

// ChangePassword replaces the caller's password after checking the current
// one. Every outstanding refresh token is revoked.
func (s *AuthService) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	if err := validatePassword(newPassword); err != nil {
		return err
	}

	account, err := s.Me(ctx, userID)
	if err != nil {
		return err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(account.PasswordHash), []byte(currentPassword)); err != nil {
		return ErrWrongPassword
	}

	hash, err := s.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.UpdatePassword(ctx, userID, hash); err != nil {
		return fmt.Errorf("failed to update password: %w", err)
	}

	if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
		s.logger.WithError(err).WithField("user_id", userID.String()).Warn("Failed to revoke refresh tokens")
	}

	s.audit.Record(ctx, AuditEvent{
		UserID:     &userID,
		Action:     AuditPasswordChanged,
		EntityType: "account",
		EntityID:   userID.String(),
	})

	return nil
}

func (s *AuthService) issueTokens(ctx context.Context, account *models.Account) (*AuthResult, error) {
	accessToken, err := s.jwtService.GenerateAccessToken(jwt.Identity{
		UserID:       account.ID,
		Email:        account.Email,
		Role:         account.Role,
		BusinessType: account.BusinessType.String,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}

	refreshToken, err := s.jwtService.GenerateRefreshToken(account.ID, account.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	expiresAt, err := s.jwtService.GetTokenExpiry(refreshToken)
	if err != nil {
		return nil, fmt.Errorf("failed to read refresh token expiry: %w", err)
	}

	meta := RequestMetaFrom(ctx)
	if err := s.tokens.Store(ctx, account.ID, refreshToken, meta.IPAddress, meta.UserAgent, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to store refresh token: %w", err)
	}

	return &AuthResult{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		ExpiresIn:    int64(s.jwtService.AccessTokenExpiry().Seconds()),
		User:         account,
	}, nil
}
