package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/travellanka/listings-backend/internal/models"
	"github.com/travellanka/listings-backend/pkg/jwt"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	svc      *AuthService
	accounts *memoryAccounts
	tokens   *memoryTokens
	limiter  *memoryLimiter
	audit    *recordingAudit
	jwt      *jwt.Service
}

func newAuthFixture() *authFixture {
	f := &authFixture{
		accounts: newMemoryAccounts(),
		tokens:   newMemoryTokens(),
		limiter:  newMemoryLimiter(3),
		audit:    &recordingAudit{},
		jwt:      jwt.NewService("access-secret", "refresh-secret", 15*time.Minute, 24*time.Hour),
	}
	f.svc = NewAuthService(f.accounts, f.tokens, f.jwt, f.limiter, f.audit, bcrypt.MinCost, testLogger())
	return f
}

func (f *authFixture) account(t *testing.T, email, password, role string) *models.Account {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	a := models.Account{
		FirstName:    "Nimal",
		LastName:     "Perera",
		Email:        email,
		PasswordHash: string(hash),
		Role:         role,
		IsActive:     true,
	}
	if role == models.RoleOwner {
		a.BusinessType = models.NewNullString("restaurant")
	}
	return f.accounts.add(a)
}

func TestAuthService_Register(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()

	result, err := f.svc.Register(ctx, RegisterInput{
		FirstName: "Kamala",
		LastName:  "Silva",
		Email:     " Kamala@Example.com ",
		Password:  "longenough",
	})
	require.NoError(t, err)
	assert.Equal(t, "kamala@example.com", result.User.Email)
	assert.Equal(t, models.RoleUser, result.User.Role)
	assert.Equal(t, int64(900), result.ExpiresIn)
	assert.NotEqual(t, "longenough", result.User.PasswordHash)

	claims, err := f.jwt.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.Equal(t, models.RoleUser, claims.Role)

	_, err = f.svc.Register(ctx, RegisterInput{FirstName: "K", Email: "kamala@example.com", Password: "longenough"})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_RegisterValidation(t *testing.T) {
	f := newAuthFixture()

	tests := []struct {
		name string
		in   RegisterInput
	}{
		{"missing email", RegisterInput{FirstName: "A", Password: "longenough"}},
		{"bad email", RegisterInput{FirstName: "A", Email: "not-an-email", Password: "longenough"}},
		{"email without domain", RegisterInput{FirstName: "A", Email: "kamal@", Password: "longenough"}},
		{"display name form", RegisterInput{FirstName: "A", Email: "Kamal <kamal@example.com>", Password: "longenough"}},
		{"short password", RegisterInput{FirstName: "A", Email: "a@example.com", Password: "short"}},
		{"missing first name", RegisterInput{Email: "a@example.com", Password: "longenough"}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Register(context.Background(), tc.in)
			var validation *models.ValidationError
			assert.True(t, errors.As(err, &validation))
		})
	}
}

func TestAuthService_Login(t *testing.T) {
	ctx := WithRequestMeta(context.Background(), RequestMeta{IPAddress: "10.0.0.5", UserAgent: "test-agent"})
	f := newAuthFixture()
	owner := f.account(t, "owner@example.com", "correct-horse", models.RoleOwner)

	result, err := f.svc.Login(ctx, "OWNER@example.com", "correct-horse")
	require.NoError(t, err)
	assert.Equal(t, owner.ID, result.User.ID)

	claims, err := f.jwt.ValidateAccessToken(result.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, models.RoleOwner, claims.Role)
	assert.Equal(t, "restaurant", claims.BusinessType)

	stored, _ := f.tokens.Get(ctx, result.RefreshToken)
	require.NotNil(t, stored)
	assert.Equal(t, "10.0.0.5", stored.IPAddress.String)
	assert.Equal(t, "test-agent", stored.UserAgent.String)

	account, _ := f.accounts.GetByID(ctx, owner.ID)
	assert.True(t, account.LastLoginAt.Valid)
	assert.Contains(t, f.audit.actions(), AuditLogin)
}

func TestAuthService_LoginFailures(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.account(t, "owner@example.com", "correct-horse", models.RoleOwner)

	_, err := f.svc.Login(ctx, "owner@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, "nobody@example.com", "whatever")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = f.svc.Login(ctx, "owner@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = f.svc.Login(ctx, "owner@example.com", "wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	// Limit reached: even the right password is refused
	_, err = f.svc.Login(ctx, "owner@example.com", "correct-horse")
	var rateLimitErr *RateLimitError
	require.True(t, errors.As(err, &rateLimitErr))

	actions := f.audit.actions()
	assert.Contains(t, actions, AuditLoginFailed)
	assert.Contains(t, actions, AuditRateLimited)
}

func TestAuthService_LoginResetsFailures(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.account(t, "owner@example.com", "correct-horse", models.RoleOwner)

	_, _ = f.svc.Login(ctx, "owner@example.com", "wrong")
	_, _ = f.svc.Login(ctx, "owner@example.com", "wrong")
	_, err := f.svc.Login(ctx, "owner@example.com", "correct-horse")
	require.NoError(t, err)

	_, _ = f.svc.Login(ctx, "owner@example.com", "wrong")
	_, _ = f.svc.Login(ctx, "owner@example.com", "wrong")
	_, err = f.svc.Login(ctx, "owner@example.com", "correct-horse")
	assert.NoError(t, err)
}

func TestAuthService_LoginDisabledAccount(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	owner := f.account(t, "owner@example.com", "correct-horse", models.RoleOwner)
	require.NoError(t, f.accounts.SetActive(ctx, owner.ID, false))

	_, err := f.svc.Login(ctx, "owner@example.com", "correct-horse")
	assert.ErrorIs(t, err, ErrAccountDisabled)
}

func TestAuthService_Refresh(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.account(t, "owner@example.com", "correct-horse", models.RoleOwner)

	login, err := f.svc.Login(ctx, "owner@example.com", "correct-horse")
	require.NoError(t, err)

	refreshed, err := f.svc.Refresh(ctx, login.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, login.RefreshToken, refreshed.RefreshToken)

	// Refresh tokens are single use
	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	// Access tokens are not refresh tokens
	_, err = f.svc.Refresh(ctx, refreshed.AccessToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_RefreshUnknownToken(t *testing.T) {
	f := newAuthFixture()
	owner := f.account(t, "owner@example.com", "correct-horse", models.RoleOwner)

	// Validly signed but never stored
	token, err := f.jwt.GenerateRefreshToken(owner.ID, owner.Email)
	require.NoError(t, err)

	_, err = f.svc.Refresh(context.Background(), token)
	assert.ErrorIs(t, err, ErrInvalidToken)
}

func TestAuthService_Logout(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	f.account(t, "owner@example.com", "correct-horse", models.RoleOwner)

	login, err := f.svc.Login(ctx, "owner@example.com", "correct-horse")
	require.NoError(t, err)

	require.NoError(t, f.svc.Logout(ctx, login.RefreshToken))
	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)

	assert.NoError(t, f.svc.Logout(ctx, "never-issued"))
}

func TestAuthService_ChangePassword(t *testing.T) {
	ctx := context.Background()
	f := newAuthFixture()
	owner := f.account(t, "owner@example.com", "correct-horse", models.RoleOwner)

	login, err := f.svc.Login(ctx, "owner@example.com", "correct-horse")
	require.NoError(t, err)

	err = f.svc.ChangePassword(ctx, owner.ID, "wrong", "battery-staple")
	assert.ErrorIs(t, err, ErrWrongPassword)

	err = f.svc.ChangePassword(ctx, owner.ID, "correct-horse", "short")
	var validation *models.ValidationError
	assert.True(t, errors.As(err, &validation))

	require.NoError(t, f.svc.ChangePassword(ctx, owner.ID, "correct-horse", "battery-staple"))

	_, err = f.svc.Login(ctx, "owner@example.com", "battery-staple")
	assert.NoError(t, err)

	_, err = f.svc.Refresh(ctx, login.RefreshToken)
	assert.ErrorIs(t, err, ErrInvalidToken)
	assert.Contains(t, f.audit.actions(), AuditPasswordChanged)
}

func TestAuthService_Me(t *testing.T) {
	f := newAuthFixture()
	owner := f.account(t, "owner@example.com", "correct-horse", models.RoleOwner)

	account, err := f.svc.Me(context.Background(), owner.ID)
	require.NoError(t, err)
	assert.Equal(t, "owner@example.com", account.Email)

	_, err = f.svc.Me(context.Background(), models.Account{}.ID)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}
