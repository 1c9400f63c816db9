package middleware

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/travellanka/listings-backend/internal/models"
)

// AccountContextKey holds the freshly loaded *models.Account
const AccountContextKey = "account"

// AccountLookup loads an account by ID. Returns nil, nil when it does not exist.
type AccountLookup interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// RequireActiveAccount reloads the caller's account and rejects disabled ones.
// Access tokens outlive a deactivation, so the role in the token is re-checked too.
// Must be used after AuthMiddleware.
func RequireActiveAccount(accounts AccountLookup, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := loadActiveAccount(c, accounts, logger); ok {
			c.Next()
		}
	}
}

// RequireOwner checks that the caller is an active owner bound to a
// supported business type. Must be used after AuthMiddleware.
func RequireOwner(accounts AccountLookup, logger *logrus.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := loadActiveAccount(c, accounts, logger)
		if !ok {
			return
		}

		if !account.IsOwner() {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "not_business_owner",
				"message": "Only business owners can access this resource",
				"code":    "NOT_BUSINESS_OWNER",
			})
			return
		}

		if _, ok := account.OwnedBusinessType(); !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error":   "unsupported_business_type",
				"message": "Your account is not bound to a supported business type",
				"code":    "UNSUPPORTED_BUSINESS_TYPE",
			})
			return
		}

		c.Next()
	}
}

// GetAccount returns the account stored by RequireOwner or RequireActiveAccount
func GetAccount(c *gin.Context) (*models.Account, bool) {
	value, exists := c.Get(AccountContextKey)
	if !exists {
		return nil, false
	}
	account, ok := value.(*models.Account)
	return account, ok && account != nil
}

func loadActiveAccount(c *gin.Context, accounts AccountLookup, logger *logrus.Logger) (*models.Account, bool) {
	userCtx, exists := GetUserContext(c)
	if !exists {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "User context not found",
			"code":    "MISSING_USER_CONTEXT",
		})
		return nil, false
	}

	account, err := accounts.GetByID(c.Request.Context(), userCtx.UserID)
	if err != nil {
		logger.WithError(err).WithField("user_id", userCtx.UserID).Error("Failed to load account for access check")
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Failed to verify account",
			"code":    "INTERNAL_ERROR",
		})
		return nil, false
	}

	if account == nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error":   "unauthorized",
			"message": "Account not found",
			"code":    "ACCOUNT_NOT_FOUND",
		})
		return nil, false
	}

	if !account.IsActive {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "account_disabled",
			"message": "Your account has been disabled",
			"code":    "ACCOUNT_DISABLED",
		})
		return nil, false
	}

	if account.Role != userCtx.Role {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error":   "forbidden",
			"message": "You don't have permission to access this resource",
			"code":    "INSUFFICIENT_PERMISSIONS",
		})
		return nil, false
	}

	c.Set(AccountContextKey, account)
	return account, true
}
