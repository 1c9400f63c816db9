package models

import (
	"database/sql"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
)

// NullString wraps sql.NullString to provide proper JSON marshaling
type NullString struct {
	sql.NullString
}

// NewNullString returns a valid NullString for non-empty input
func NewNullString(s string) NullString {
	if s == "" {
		return NullString{}
	}
	return NullString{sql.NullString{String: s, Valid: true}}
}

// MarshalJSON implements json.Marshaler
func (ns NullString) MarshalJSON() ([]byte, error) {
	if ns.Valid {
		return json.Marshal(ns.String)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (ns *NullString) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	if s != nil {
		ns.Valid = true
		ns.String = *s
	} else {
		ns.Valid = false
	}
	return nil
}

// NullTime wraps sql.NullTime to provide proper JSON marshaling
type NullTime struct {
	sql.NullTime
}

// MarshalJSON implements json.Marshaler
func (nt NullTime) MarshalJSON() ([]byte, error) {
	if nt.Valid {
		return json.Marshal(nt.Time)
	}
	return json.Marshal(nil)
}

// UnmarshalJSON implements json.Unmarshaler
func (nt *NullTime) UnmarshalJSON(data []byte) error {
	var t *time.Time
	if err := json.Unmarshal(data, &t); err != nil {
		return err
	}
	if t != nil {
		nt.Valid = true
		nt.Time = *t
	} else {
		nt.Valid = false
	}
	return nil
}

// Account roles
const (
	RoleUser  = "user"
	RoleOwner = "owner"
	RoleAdmin = "admin"
)

// BusinessType identifies which listing variant an owner account is bound to
type BusinessType string

const (
	BusinessTypeHotel      BusinessType = "hotel"
	BusinessTypeRestaurant BusinessType = "restaurant"
	BusinessTypeTransport  BusinessType = "transport"
)

// BusinessTypes lists the supported listing variants in display order
var BusinessTypes = []BusinessType{BusinessTypeHotel, BusinessTypeRestaurant, BusinessTypeTransport}

// IsValid reports whether t is one of the supported listing variants
func (t BusinessType) IsValid() bool {
	switch t {
	case BusinessTypeHotel, BusinessTypeRestaurant, BusinessTypeTransport:
		return true
	}
	return false
}

// ParseBusinessType accepts both the singular type ("hotel") and the
// plural collection name ("hotels") used in public routes.
func ParseBusinessType(s string) (BusinessType, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	t := BusinessType(strings.TrimSuffix(s, "s"))
	return t, t.IsValid()
}

// Account represents a user, owner or admin account
type Account struct {
	ID                uuid.UUID  `json:"id" db:"id"`
	FirstName         string     `json:"firstName" db:"first_name"`
	LastName          string     `json:"lastName" db:"last_name"`
	Email             string     `json:"email" db:"email"`
	Phone             NullString `json:"phone" db:"phone"`
	PasswordHash      string     `json:"-" db:"password_hash"`
	Role              string     `json:"role" db:"role"`
	BusinessType      NullString `json:"businessType" db:"business_type"`
	HasCompletedSetup bool       `json:"hasCompletedSetup" db:"has_completed_setup"`
	IsActive          bool       `json:"isActive" db:"is_active"`
	LastLoginAt       NullTime   `json:"lastLoginAt" db:"last_login_at"`
	CreatedAt         time.Time  `json:"createdAt" db:"created_at"`
	UpdatedAt         time.Time  `json:"updatedAt" db:"updated_at"`
}

// FullName joins first and last name
func (a *Account) FullName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// IsOwner reports whether the account has the owner role
func (a *Account) IsOwner() bool {
	return a.Role == RoleOwner
}

// OwnedBusinessType returns the account's listing variant, if it is a supported one
func (a *Account) OwnedBusinessType() (BusinessType, bool) {
	if !a.BusinessType.Valid {
		return "", false
	}
	t := BusinessType(a.BusinessType.String)
	return t, t.IsValid()
}

// OwnerSummary is the owner block returned alongside a business document
type OwnerSummary struct {
	ID                uuid.UUID `json:"id"`
	Name              string    `json:"name"`
	Email             string    `json:"email"`
	Phone             string    `json:"phone"`
	BusinessType      string    `json:"businessType"`
	HasCompletedSetup bool      `json:"hasCompletedSetup"`
}

// Summary builds the owner block for API responses
func (a *Account) Summary() OwnerSummary {
	return OwnerSummary{
		ID:                a.ID,
		Name:              a.FullName(),
		Email:             a.Email,
		Phone:             a.Phone.String,
		BusinessType:      a.BusinessType.String,
		HasCompletedSetup: a.HasCompletedSetup,
	}
}

// AuditLog represents an audit log entry
type AuditLog struct {
	ID         int64         `json:"id" db:"id"`
	UserID     uuid.NullUUID `json:"userId" db:"user_id"`
	Action     string        `json:"action" db:"action"`
	EntityType NullString    `json:"entityType" db:"entity_type"`
	EntityID   NullString    `json:"entityId" db:"entity_id"`
	IPAddress  NullString    `json:"ipAddress" db:"ip_address"`
	UserAgent  NullString    `json:"userAgent" db:"user_agent"`
	Details    NullString    `json:"details" db:"details"`
	CreatedAt  time.Time     `json:"createdAt" db:"created_at"`
}

// RefreshToken is a stored, hashed refresh token
type RefreshToken struct {
	ID        int64      `db:"id"`
	UserID    uuid.UUID  `db:"user_id"`
	TokenHash string     `db:"token_hash"`
	IPAddress NullString `db:"ip_address"`
	UserAgent NullString `db:"user_agent"`
	CreatedAt time.Time  `db:"created_at"`
	ExpiresAt time.Time  `db:"expires_at"`
	Revoked   bool       `db:"revoked"`
	RevokedAt NullTime   `db:"revoked_at"`
}

// Usable reports whether the token can still be exchanged
func (t *RefreshToken) Usable(now time.Time) bool {
	return !t.Revoked && now.Before(t.ExpiresAt)
}
