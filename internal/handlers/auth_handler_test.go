package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/travellanka/listings-backend/internal/models"
	"github.com/travellanka/listings-backend/internal/services"
)

func setupAuthRouter(auth *MockAuth, userID uuid.UUID) *gin.Engine {
	router := newTestRouter()
	h := NewAuthHandler(auth, testLogger())

	public := router.Group("/api/auth")
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)
	public.POST("/refresh", h.RefreshToken)
	public.POST("/logout", h.Logout)

	protected := router.Group("/api/auth", withUser(userID, models.RoleUser))
	protected.GET("/me", h.Me)
	protected.PUT("/change-password", h.ChangePassword)
	return router
}

func jsonRequest(t *testing.T, method, path string, body interface{}) *http.Request {
	payload, err := json.Marshal(body)
	require.NoError(t, err)
	req := httptest.NewRequest(method, path, bytes.NewReader(payload))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func sampleAuthResult() *services.AuthResult {
	return &services.AuthResult{
		AccessToken:  "access-token",
		RefreshToken: "refresh-token",
		ExpiresIn:    3600,
		User: &models.Account{
			ID:           uuid.New(),
			Email:        "kamal@example.com",
			Role:         models.RoleUser,
			PasswordHash: "$2a$10$secret",
			IsActive:     true,
		},
	}
}

func TestAuthHandler_Register(t *testing.T) {
	auth := new(MockAuth)
	router := setupAuthRouter(auth, uuid.New())

	in := services.RegisterInput{
		FirstName: "Kamal",
		LastName:  "Silva",
		Email:     "kamal@example.com",
		Phone:     "0771234567",
		Password:  "supersecret",
	}
	auth.On("Register", mock.Anything, in).Return(sampleAuthResult(), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(t, "POST", "/api/auth/register", in))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Contains(t, w.Body.String(), `"accessToken":"access-token"`)
	assert.NotContains(t, w.Body.String(), "secret")
	auth.AssertExpectations(t)
}

func TestAuthHandler_RegisterErrors(t *testing.T) {
	t.Run("missing fields", func(t *testing.T) {
		auth := new(MockAuth)
		router := setupAuthRouter(auth, uuid.New())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(t, "POST", "/api/auth/register", gin.H{"email": "x@example.com"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("malformed email", func(t *testing.T) {
		auth := new(MockAuth)
		router := setupAuthRouter(auth, uuid.New())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(t, "POST", "/api/auth/register", gin.H{
			"firstName": "Kamal", "email": "kamal-at-example", "password": "supersecret",
		}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		auth.AssertNotCalled(t, "Register", mock.Anything, mock.Anything)
	})

	t.Run("email taken", func(t *testing.T) {
		auth := new(MockAuth)
		router := setupAuthRouter(auth, uuid.New())
		auth.On("Register", mock.Anything, mock.Anything).Return(nil, services.ErrEmailTaken)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(t, "POST", "/api/auth/register", gin.H{
			"firstName": "Kamal", "email": "kamal@example.com", "password": "supersecret",
		}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "EMAIL_TAKEN")
	})

	t.Run("weak password", func(t *testing.T) {
		auth := new(MockAuth)
		router := setupAuthRouter(auth, uuid.New())
		auth.On("Register", mock.Anything, mock.Anything).
			Return(nil, models.NewValidationError("password must be at least 8 characters"))

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(t, "POST", "/api/auth/register", gin.H{
			"firstName": "Kamal", "email": "kamal@example.com", "password": "short",
		}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "at least 8 characters")
	})
}

func TestAuthHandler_Login(t *testing.T) {
	auth := new(MockAuth)
	router := setupAuthRouter(auth, uuid.New())
	auth.On("Login", mock.Anything, "kamal@example.com", "supersecret").Return(sampleAuthResult(), nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(t, "POST", "/api/auth/login", LoginRequest{
		Email: "kamal@example.com", Password: "supersecret",
	}))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"refreshToken":"refresh-token"`)
	assert.Contains(t, w.Body.String(), `"expiresIn":3600`)
}

func TestAuthHandler_LoginErrors(t *testing.T) {
	t.Run("invalid credentials", func(t *testing.T) {
		auth := new(MockAuth)
		router := setupAuthRouter(auth, uuid.New())
		auth.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, services.ErrInvalidCredentials)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(t, "POST", "/api/auth/login", LoginRequest{Email: "a@b.lk", Password: "wrong"}))

		assert.Equal(t, http.StatusUnauthorized, w.Code)
		assert.Contains(t, w.Body.String(), "INVALID_CREDENTIALS")
	})

	t.Run("disabled", func(t *testing.T) {
		auth := new(MockAuth)
		router := setupAuthRouter(auth, uuid.New())
		auth.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, services.ErrAccountDisabled)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(t, "POST", "/api/auth/login", LoginRequest{Email: "a@b.lk", Password: "supersecret"}))

		assert.Equal(t, http.StatusForbidden, w.Code)
		assert.Contains(t, w.Body.String(), "ACCOUNT_DISABLED")
	})

	t.Run("rate limited", func(t *testing.T) {
		auth := new(MockAuth)
		router := setupAuthRouter(auth, uuid.New())
		retryAt := time.Now().Add(10 * time.Minute)
		auth.On("Login", mock.Anything, mock.Anything, mock.Anything).Return(nil, &services.RateLimitError{
			Message:    "Too many failed login attempts for this account",
			RetryAfter: retryAt,
			Type:       "email",
		})

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(t, "POST", "/api/auth/login", LoginRequest{Email: "a@b.lk", Password: "x"}))

		assert.Equal(t, http.StatusTooManyRequests, w.Code)
		retryAfter, err := strconv.Atoi(w.Header().Get("Retry-After"))
		require.NoError(t, err)
		assert.InDelta(t, 600, retryAfter, 5)
		assert.Contains(t, w.Body.String(), `"limit_type":"email"`)
	})

	t.Run("missing password", func(t *testing.T) {
		auth := new(MockAuth)
		router := setupAuthRouter(auth, uuid.New())

		w := httptest.NewRecorder()
		router.ServeHTTP(w, jsonRequest(t, "POST", "/api/auth/login", gin.H{"email": "a@b.lk"}))

		assert.Equal(t, http.StatusBadRequest, w.Code)
		auth.AssertNotCalled(t, "Login", mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestAuthHandler_Refresh(t *testing.T) {
	auth := new(MockAuth)
	router := setupAuthRouter(auth, uuid.New())
	auth.On("Refresh", mock.Anything, "old-refresh").Return(sampleAuthResult(), nil)
	auth.On("Refresh", mock.Anything, "revoked").Return(nil, services.ErrInvalidToken)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(t, "POST", "/api/auth/refresh", RefreshTokenRequest{RefreshToken: "old-refresh"}))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "refresh-token")

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(t, "POST", "/api/auth/refresh", RefreshTokenRequest{RefreshToken: "revoked"}))
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "INVALID_TOKEN")
}

func TestAuthHandler_Logout(t *testing.T) {
	auth := new(MockAuth)
	router := setupAuthRouter(auth, uuid.New())
	auth.On("Logout", mock.Anything, "refresh-token").Return(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(t, "POST", "/api/auth/logout", RefreshTokenRequest{RefreshToken: "refresh-token"}))

	assert.Equal(t, http.StatusOK, w.Code)
	auth.AssertExpectations(t)
}

func TestAuthHandler_Me(t *testing.T) {
	auth := new(MockAuth)
	userID := uuid.New()
	router := setupAuthRouter(auth, userID)
	auth.On("Me", mock.Anything, userID).Return(&models.Account{
		ID:           userID,
		FirstName:    "Kamal",
		Email:        "kamal@example.com",
		Role:         models.RoleUser,
		PasswordHash: "$2a$10$secret",
	}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest("GET", "/api/auth/me", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "kamal@example.com")
	assert.NotContains(t, w.Body.String(), "secret")
}

func TestAuthHandler_ChangePassword(t *testing.T) {
	auth := new(MockAuth)
	userID := uuid.New()
	router := setupAuthRouter(auth, userID)
	auth.On("ChangePassword", mock.Anything, userID, "oldpassword", "newpassword").Return(nil)
	auth.On("ChangePassword", mock.Anything, userID, "guess", "newpassword").Return(services.ErrWrongPassword)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(t, "PUT", "/api/auth/change-password", ChangePasswordRequest{
		CurrentPassword: "oldpassword", NewPassword: "newpassword",
	}))
	assert.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, jsonRequest(t, "PUT", "/api/auth/change-password", ChangePasswordRequest{
		CurrentPassword: "guess", NewPassword: "newpassword",
	}))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "WRONG_PASSWORD")
}
