package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/travellanka/listings-backend/internal/database"
	"github.com/travellanka/listings-backend/internal/middleware"
	"github.com/travellanka/listings-backend/internal/models"
	"github.com/travellanka/listings-backend/internal/services"
)

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ValidationErrorResponse carries every rejected field of a write
type ValidationErrorResponse struct {
	Error   string   `json:"error"`
	Message string   `json:"message"`
	Code    string   `json:"code"`
	Errors  []string `json:"errors"`
}

// IncompleteSetupResponse tells the owner which sections still block activation
type IncompleteSetupResponse struct {
	Error                string                    `json:"error"`
	Message              string                    `json:"message"`
	Code                 string                    `json:"code"`
	CompletionProgress   models.CompletionProgress `json:"completionProgress"`
	CompletionPercentage int                       `json:"completionPercentage"`
	Missing              []string                  `json:"missing"`
}

type statusMapping struct {
	err    error
	status int
	kind   string
	code   string
}

var errorStatuses = []statusMapping{
	{services.ErrNotOwner, http.StatusForbidden, "forbidden", "NOT_BUSINESS_OWNER"},
	{services.ErrUnsupportedBusinessType, http.StatusForbidden, "forbidden", "UNSUPPORTED_BUSINESS_TYPE"},
	{services.ErrListingLocked, http.StatusForbidden, "forbidden", "LISTING_LOCKED"},
	{services.ErrAccountDisabled, http.StatusForbidden, "forbidden", "ACCOUNT_DISABLED"},
	{services.ErrSelfModification, http.StatusForbidden, "forbidden", "SELF_MODIFICATION"},
	{services.ErrBusinessNotFound, http.StatusNotFound, "not_found", "BUSINESS_NOT_FOUND"},
	{services.ErrAccountNotFound, http.StatusNotFound, "not_found", "ACCOUNT_NOT_FOUND"},
	{services.ErrListingNotFound, http.StatusNotFound, "not_found", "LISTING_NOT_FOUND"},
	{services.ErrInvalidCredentials, http.StatusUnauthorized, "unauthorized", "INVALID_CREDENTIALS"},
	{services.ErrInvalidToken, http.StatusUnauthorized, "unauthorized", "INVALID_TOKEN"},
	{services.ErrWrongPassword, http.StatusBadRequest, "validation_error", "WRONG_PASSWORD"},
	{services.ErrEmailTaken, http.StatusBadRequest, "validation_error", "EMAIL_TAKEN"},
	{database.ErrVersionConflict, http.StatusConflict, "conflict", "VERSION_CONFLICT"},
	{database.ErrListingExists, http.StatusConflict, "conflict", "LISTING_EXISTS"},
}

// respondError translates a service error into an HTTP response. Errors
// that are not part of the service contract are logged and answered with
// a generic 500.
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var validationErr *models.ValidationError
	if errors.As(err, &validationErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:   "validation_error",
			Message: "Request validation failed",
			Code:    "VALIDATION_FAILED",
			Errors:  validationErr.Errors,
		})
		return
	}

	var incompleteErr *services.IncompleteSetupError
	if errors.As(err, &incompleteErr) {
		c.JSON(http.StatusBadRequest, IncompleteSetupResponse{
			Error:                "setup_incomplete",
			Message:              "Please complete all required sections before activating your business",
			Code:                 "SETUP_INCOMPLETE",
			CompletionProgress:   incompleteErr.Result.Progress,
			CompletionPercentage: incompleteErr.Result.Percentage,
			Missing:              incompleteErr.Missing,
		})
		return
	}

	var rateErr *services.RateLimitError
	if errors.As(err, &rateErr) {
		retryAfter := int(time.Until(rateErr.RetryAfter).Seconds())
		if retryAfter < 1 {
			retryAfter = 1
		}
		c.Header("Retry-After", strconv.Itoa(retryAfter))
		c.JSON(http.StatusTooManyRequests, gin.H{
			"error":       "rate_limit_exceeded",
			"message":     rateErr.Message,
			"code":        "RATE_LIMITED",
			"limit_type":  rateErr.Type,
			"retry_after": rateErr.RetryAfter.Unix(),
		})
		return
	}

	for _, m := range errorStatuses {
		if errors.Is(err, m.err) {
			c.JSON(m.status, ErrorResponse{
				Error:   m.kind,
				Message: m.err.Error(),
				Code:    m.code,
			})
			return
		}
	}

	logger.WithFields(logrus.Fields{
		"method": c.Request.Method,
		"path":   c.Request.URL.Path,
	}).WithError(err).Error("Unhandled error")
	_ = c.Error(err)
	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   "internal_error",
		Message: "An unexpected error occurred",
		Code:    "INTERNAL_ERROR",
	})
}

// badRequest answers a malformed request
func badRequest(c *gin.Context, message string) {
	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   "validation_error",
		Message: message,
		Code:    "INVALID_REQUEST",
	})
}

// currentUser returns the authenticated caller or answers 401
func currentUser(c *gin.Context) (uuid.UUID, bool) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Error:   "unauthorized",
			Message: "User context not found",
			Code:    "MISSING_USER_CONTEXT",
		})
		return uuid.Nil, false
	}
	return userCtx.UserID, true
}
