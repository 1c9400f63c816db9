package services

import (
	"errors"
	"fmt"
	"strings"

	"github.com/travellanka/listings-backend/internal/models"
)

// Access errors
var (
	ErrNotOwner                = errors.New("only business owners can access this resource")
	ErrUnsupportedBusinessType = errors.New("account is not bound to a supported business type")
	ErrListingLocked           = errors.New("listing has been taken offline by an administrator")
	ErrAccountDisabled         = errors.New("account is disabled")
)

// Not-found errors
var (
	ErrBusinessNotFound = errors.New("no business has been set up for this owner yet")
	ErrAccountNotFound  = errors.New("account not found")
	ErrListingNotFound  = errors.New("listing not found")
)

// Authentication errors
var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid or expired token")
	ErrWrongPassword      = errors.New("current password is incorrect")
	ErrEmailTaken         = errors.New("email is already registered")
)

// IncompleteSetupError is returned when a listing cannot go live yet.
// It carries the section-level diagnostic so the caller can point the
// owner at what is missing.
type IncompleteSetupError struct {
	Result  models.CompletionResult
	Missing []string
}

func newIncompleteSetupError(l models.BusinessListing, result models.CompletionResult) *IncompleteSetupError {
	return &IncompleteSetupError{
		Result:  result,
		Missing: result.Progress.Missing(models.Sections(l.Type())),
	}
}

func (e *IncompleteSetupError) Error() string {
	return fmt.Sprintf("business setup is incomplete (%d%%), missing: %s",
		e.Result.Percentage, strings.Join(e.Missing, ", "))
}
