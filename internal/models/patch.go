package models

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// ValidationError lists the offending fields of a rejected write
type ValidationError struct {
	Errors []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Errors, "; ")
}

// NewValidationError builds a ValidationError from one or more messages
func NewValidationError(messages ...string) *ValidationError {
	return &ValidationError{Errors: messages}
}

// systemManagedFields are maintained by the server and never taken from a patch
var systemManagedFields = []string{
	"id",
	"_id",
	"status",
	"isSetupComplete",
	"completionProgress",
	"rating",
	"isActive",
	"isVerified",
	"verifiedAt",
	"verifiedBy",
	"version",
	"createdAt",
	"updatedAt",
	"adminCreatedFields",
}

// ProtectedFields returns every field an owner patch may not touch
func ProtectedFields(l BusinessListing) []string {
	fields := append([]string{}, l.AdminAssignedFields()...)
	return append(fields, systemManagedFields...)
}

// IsProtectedField reports whether key names a protected field. Keys are
// compared case-insensitively because JSON decoding matches struct fields
// that way too.
func IsProtectedField(l BusinessListing, key string) bool {
	for _, f := range ProtectedFields(l) {
		if strings.EqualFold(f, key) {
			return true
		}
	}
	return false
}

// ApplyPatch merges the top-level keys of patch into a copy of l. Each
// submitted key replaces the whole field; protected keys are dropped and
// returned so the caller can log them. The original listing is not modified.
func ApplyPatch(l BusinessListing, patch []byte) (BusinessListing, []string, error) {
	var changes map[string]json.RawMessage
	if err := json.Unmarshal(patch, &changes); err != nil || changes == nil {
		return nil, nil, NewValidationError("request body must be a JSON object")
	}

	current, err := json.Marshal(l)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode listing: %w", err)
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(current, &doc); err != nil {
		return nil, nil, fmt.Errorf("failed to decode listing: %w", err)
	}

	var ignored []string
	for key, value := range changes {
		if IsProtectedField(l, key) {
			ignored = append(ignored, key)
			continue
		}
		for existing := range doc {
			if strings.EqualFold(existing, key) {
				delete(doc, existing)
			}
		}
		doc[key] = value
	}
	sort.Strings(ignored)

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to encode merged listing: %w", err)
	}

	updated, err := NewListing(l.Type())
	if err != nil {
		return nil, nil, err
	}

	if err := json.Unmarshal(merged, updated); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) && typeErr.Field != "" {
			return nil, nil, NewValidationError(fmt.Sprintf("%s has an invalid value", typeErr.Field))
		}
		return nil, nil, NewValidationError("request body contains invalid values")
	}

	return updated, ignored, nil
}
