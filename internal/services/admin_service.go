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
	"github.com/travellanka/listings-backend/internal/utils"
	"github.com/travellanka/listings-backend/pkg/validator"
)

const generatedPasswordLength = 12

// ErrSelfModification is returned when an admin tries to disable their own account
var ErrSelfModification = errors.New("administrators cannot change the status of their own account")

// AdminService handles owner provisioning and listing moderation
type AdminService struct {
	accounts AccountStore
	listings ListingStore
	tokens   RefreshTokenStore
	auth     *AuthService
	audit    AuditRecorder
	cache    CacheInvalidator
	phones   *validator.PhoneValidator
	logger   *logrus.Logger
}

// NewAdminService creates a new admin service. audit and cache may be nil.
func NewAdminService(
	accounts AccountStore,
	listings ListingStore,
	tokens RefreshTokenStore,
	auth *AuthService,
	audit AuditRecorder,
	cache CacheInvalidator,
	logger *logrus.Logger,
) *AdminService {
	if audit == nil {
		audit = noopAudit{}
	}
	if cache == nil {
		cache = noopInvalidator{}
	}
	return &AdminService{
		accounts: accounts,
		listings: listings,
		tokens:   tokens,
		auth:     auth,
		audit:    audit,
		cache:    cache,
		phones:   validator.NewPhoneValidator(),
		logger:   logger,
	}
}

// CreateOwnerInput is the admin payload for provisioning an owner
type CreateOwnerInput struct {
	OwnerFirstName string              `json:"ownerFirstName"`
	OwnerLastName  string              `json:"ownerLastName"`
	OwnerEmail     string              `json:"ownerEmail"`
	OwnerPhone     string              `json:"ownerPhone"`
	OwnerPassword  string              `json:"ownerPassword"`
	BusinessType   models.BusinessType `json:"businessType"`
	BusinessName   string              `json:"businessName"`
	TransportType  string              `json:"transportType"`
}

// CreateOwnerResult is returned after an owner and their listing are created.
// GeneratedPassword is only set when no password was supplied.
type CreateOwnerResult struct {
	Owner             models.OwnerSummary `json:"owner"`
	Business          models.ListingView  `json:"business"`
	GeneratedPassword string              `json:"generatedPassword,omitempty"`
}

// OwnerOverview is an owner together with a short summary of their listing
type OwnerOverview struct {
	*models.Account
	Business *ListingSummary `json:"business"`
}

// ListingSummary is the moderation view of a listing
type ListingSummary struct {
	ID                   string               `json:"id"`
	BusinessType         models.BusinessType  `json:"businessType"`
	Name                 string               `json:"name"`
	Status               models.ListingStatus `json:"status"`
	IsSetupComplete      bool                 `json:"isSetupComplete"`
	IsVerified           bool                 `json:"isVerified"`
	CompletionPercentage int                  `json:"completionPercentage"`
	Owner                string               `json:"owner"`
	City                 string               `json:"city"`
	District             string               `json:"district"`
	CreatedAt            time.Time            `json:"createdAt"`
	UpdatedAt            time.Time            `json:"updatedAt"`
}

// Summarize builds the moderation view of a listing
func Summarize(l models.BusinessListing) ListingSummary {
	base := l.Base()
	summary := ListingSummary{
		ID:                   base.ID,
		BusinessType:         l.Type(),
		Name:                 base.Name,
		Status:               base.Status,
		IsSetupComplete:      base.IsSetupComplete,
		IsVerified:           base.IsVerified,
		CompletionPercentage: base.CompletionPercentage(),
		Owner:                base.Owner,
		CreatedAt:            base.CreatedAt,
		UpdatedAt:            base.UpdatedAt,
	}
	if area := l.SearchArea(); len(area) > 0 {
		summary.City = area[0].City
		summary.District = area[0].District
	}
	return summary
}

// ListingsPage is one page of listings across the requested types
type ListingsPage struct {
	Listings []ListingSummary           `json:"listings"`
	Totals   map[models.BusinessType]int `json:"totals"`
	Page     int                        `json:"page"`
	Limit    int                        `json:"limit"`
}

// DashboardStats are the admin dashboard counters
type DashboardStats struct {
	TotalUsers       int `json:"totalUsers"`
	TotalOwners      int `json:"totalOwners"`
	TotalAdmins      int `json:"totalAdmins"`
	TotalHotels      int `json:"totalHotels"`
	TotalRestaurants int `json:"totalRestaurants"`
	TotalTransport   int `json:"totalTransport"`
	ActiveListings   int `json:"activeListings"`
	PendingApprovals int `json:"pendingApprovals"`
	TotalBookings    int `json:"totalBookings"`
	Revenue          int `json:"revenue"`
}

// CreateOwner provisions an owner account and the minimal pending listing
// of its business type. If the listing cannot be stored the account is
// removed again.
func (s *AdminService) CreateOwner(ctx context.Context, adminID uuid.UUID, in CreateOwnerInput) (*CreateOwnerResult, error) {
	email, err := validateEmail(in.OwnerEmail)
	if err != nil {
		return nil, err
	}

	businessType, ok := models.ParseBusinessType(string(in.BusinessType))
	if !ok {
		return nil, models.NewValidationError("businessType must be one of hotel, restaurant, transport")
	}

	businessName := strings.TrimSpace(in.BusinessName)
	if businessName == "" {
		return nil, models.NewValidationError("businessName is required")
	}

	phone := ""
	if strings.TrimSpace(in.OwnerPhone) != "" {
		phone, err = s.phones.Validate(in.OwnerPhone)
		if err != nil || !s.phones.IsMobile(phone) {
			return nil, models.NewValidationError("ownerPhone must be a valid Sri Lankan mobile number")
		}
	}

	password, generated := in.OwnerPassword, ""
	if password == "" {
		if generated, err = utils.GeneratePassword(generatedPasswordLength); err != nil {
			return nil, err
		}
		password = generated
	} else if err := validatePassword(password); err != nil {
		return nil, err
	}

	firstName, lastName := strings.TrimSpace(in.OwnerFirstName), strings.TrimSpace(in.OwnerLastName)
	if firstName == "" {
		firstName, lastName = businessName, "Owner"
	}

	listing, err := models.NewListing(businessType)
	if err != nil {
		return nil, err
	}
	base := listing.Base()
	base.Name = businessName
	if t, ok := listing.(*models.Transport); ok && strings.TrimSpace(in.TransportType) != "" {
		t.ServiceType = strings.TrimSpace(in.TransportType)
	}
	if problems := models.Validate(listing); len(problems) > 0 {
		return nil, models.NewValidationError(problems...)
	}

	existing, err := s.accounts.GetByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("failed to check email: %w", err)
	}
	if existing != nil {
		return nil, ErrEmailTaken
	}

	hash, err := s.auth.HashPassword(password)
	if err != nil {
		return nil, err
	}

	owner := &models.Account{
		FirstName:    firstName,
		LastName:     lastName,
		Email:        email,
		Phone:        models.NewNullString(phone),
		PasswordHash: hash,
		Role:         models.RoleOwner,
		BusinessType: models.NewNullString(string(businessType)),
		IsActive:     true,
	}
	if err := s.accounts.Create(ctx, owner); err != nil {
		if errors.Is(err, database.ErrDuplicateEmail) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("failed to create owner: %w", err)
	}

	base.Owner = owner.ID.String()
	models.ApplyCompletion(listing)

	if err := s.listings.Create(ctx, listing); err != nil {
		if delErr := s.accounts.Delete(ctx, owner.ID); delErr != nil {
			s.logger.WithError(delErr).WithField("owner_id", owner.ID.String()).
				Error("Failed to remove owner after listing creation failed")
		}
		return nil, fmt.Errorf("failed to create %s listing: %w", businessType, err)
	}

	s.audit.Record(ctx, AuditEvent{
		UserID:     &adminID,
		Action:     AuditOwnerCreated,
		EntityType: string(businessType),
		EntityID:   base.ID,
		Details: map[string]interface{}{
			"owner_id":    owner.ID.String(),
			"owner_email": owner.Email,
		},
	})

	s.logger.WithFields(logrus.Fields{
		"admin_id":   adminID.String(),
		"owner_id":   owner.ID.String(),
		"listing_id": base.ID,
		"type":       businessType,
	}).Info("Owner provisioned")

	return &CreateOwnerResult{
		Owner:             owner.Summary(),
		Business:          models.NewListingView(listing),
		GeneratedPassword: generated,
	}, nil
}

// ListOwners returns every owner account with a summary of their listing
func (s *AdminService) ListOwners(ctx context.Context) ([]OwnerOverview, error) {
	owners, err := s.accounts.ListByRole(ctx, models.RoleOwner)
	if err != nil {
		return nil, err
	}

	overviews := make([]OwnerOverview, 0, len(owners))
	for _, owner := range owners {
		overview := OwnerOverview{Account: owner}
		if t, ok := owner.OwnedBusinessType(); ok {
			listing, err := s.listings.GetByOwner(ctx, t, owner.ID.String())
			switch {
			case err == nil:
				summary := Summarize(listing)
				overview.Business = &summary
			case !errors.Is(err, database.ErrNotFound):
				return nil, fmt.Errorf("failed to load listing for owner %s: %w", owner.ID, err)
			}
		}
		overviews = append(overviews, overview)
	}

	return overviews, nil
}

// ListListings pages through listings of one type, or of every type when
// t is empty. Paging applies per type.
func (s *AdminService) ListListings(ctx context.Context, t models.BusinessType, filter database.ListingFilter) (*ListingsPage, error) {
	filter = filter.Normalize()
	if filter.Status != "" && !filter.Status.IsValid() {
		return nil, models.NewValidationError("status must be one of pending, active, inactive, suspended")
	}

	types := models.BusinessTypes
	if t != "" {
		types = []models.BusinessType{t}
	}

	page := &ListingsPage{
		Listings: []ListingSummary{},
		Totals:   map[models.BusinessType]int{},
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
	for _, bt := range types {
		listings, total, err := s.listings.List(ctx, bt, filter)
		if err != nil {
			return nil, err
		}
		page.Totals[bt] = total
		for _, l := range listings {
			page.Listings = append(page.Listings, Summarize(l))
		}
	}

	return page, nil
}

func (s *AdminService) loadListing(ctx context.Context, t models.BusinessType, id string) (models.BusinessListing, error) {
	listing, err := s.listings.GetByID(ctx, t, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s listing: %w", t, err)
	}
	return listing, nil
}

// SetListingStatus changes a listing's status without checking completion
func (s *AdminService) SetListingStatus(ctx context.Context, adminID uuid.UUID, t models.BusinessType, id string, status models.ListingStatus) (models.BusinessListing, error) {
	if !status.IsValid() {
		return nil, models.NewValidationError("status must be one of pending, active, inactive, suspended")
	}

	listing, err := s.loadListing(ctx, t, id)
	if err != nil {
		return nil, err
	}

	previous := listing.Base().Status
	listing.Base().Status = status
	if err := s.listings.Save(ctx, listing); err != nil {
		if errors.Is(err, database.ErrVersionConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update listing status: %w", err)
	}

	s.cache.Invalidate(t, id)
	s.audit.Record(ctx, AuditEvent{
		UserID:     &adminID,
		Action:     AuditListingStatus,
		EntityType: string(t),
		EntityID:   id,
		Details: map[string]interface{}{
			"from": previous,
			"to":   status,
		},
	})

	return listing, nil
}

// VerifyListing sets or clears the verified badge
func (s *AdminService) VerifyListing(ctx context.Context, adminID uuid.UUID, t models.BusinessType, id string, verified bool) (models.BusinessListing, error) {
	listing, err := s.loadListing(ctx, t, id)
	if err != nil {
		return nil, err
	}

	base := listing.Base()
	base.IsVerified = verified
	if verified {
		now := time.Now()
		base.VerifiedAt = &now
		base.VerifiedBy = adminID.String()
	} else {
		base.VerifiedAt = nil
		base.VerifiedBy = ""
	}

	if err := s.listings.Save(ctx, listing); err != nil {
		if errors.Is(err, database.ErrVersionConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to verify listing: %w", err)
	}

	s.cache.Invalidate(t, id)
	s.audit.Record(ctx, AuditEvent{
		UserID:     &adminID,
		Action:     AuditListingVerified,
		EntityType: string(t),
		EntityID:   id,
		Details:    map[string]interface{}{"verified": verified},
	})

	return listing, nil
}

// DeleteListing removes a listing. The owner account is kept.
func (s *AdminService) DeleteListing(ctx context.Context, adminID uuid.UUID, t models.BusinessType, id string) error {
	if err := s.listings.Delete(ctx, t, id); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrListingNotFound
		}
		return fmt.Errorf("failed to delete listing: %w", err)
	}

	s.cache.Invalidate(t, id)
	s.audit.Record(ctx, AuditEvent{
		UserID:     &adminID,
		Action:     AuditListingDeleted,
		EntityType: string(t),
		EntityID:   id,
	})

	return nil
}

// SetAccountActive enables or disables an account. Disabling an account
// revokes its refresh tokens.
func (s *AdminService) SetAccountActive(ctx context.Context, adminID, userID uuid.UUID, active bool) error {
	if adminID == userID {
		return ErrSelfModification
	}

	if err := s.accounts.SetActive(ctx, userID, active); err != nil {
		if errors.Is(err, database.ErrNotFound) {
			return ErrAccountNotFound
		}
		return fmt.Errorf("failed to update account status: %w", err)
	}

	if !active {
		if err := s.tokens.RevokeAllForUser(ctx, userID); err != nil {
			s.logger.WithError(err).WithField("user_id", userID.String()).Warn("Failed to revoke refresh tokens")
		}
	}

	s.audit.Record(ctx, AuditEvent{
		UserID:     &adminID,
		Action:     AuditAccountStatus,
		EntityType: "account",
		EntityID:   userID.String(),
		Details:    map[string]interface{}{"active": active},
	})

	return nil
}

// GetDashboardStats counts accounts and listings. Bookings and revenue
// are always zero.
func (s *AdminService) GetDashboardStats(ctx context.Context) (*DashboardStats, error) {
	roles, err := s.accounts.CountByRole(ctx)
	if err != nil {
		return nil, err
	}

	stats := &DashboardStats{
		TotalUsers:  roles[models.RoleUser] + roles[models.RoleOwner] + roles[models.RoleAdmin],
		TotalOwners: roles[models.RoleOwner],
		TotalAdmins: roles[models.RoleAdmin],
	}

	for _, t := range models.BusinessTypes {
		counts, err := s.listings.CountByStatus(ctx, t)
		if err != nil {
			return nil, err
		}
		total := 0
		for _, n := range counts {
			total += n
		}
		switch t {
		case models.BusinessTypeHotel:
			stats.TotalHotels = total
		case models.BusinessTypeRestaurant:
			stats.TotalRestaurants = total
		case models.BusinessTypeTransport:
			stats.TotalTransport = total
		}
		stats.ActiveListings += counts[models.StatusActive]
		stats.PendingApprovals += counts[models.StatusPending]
	}

	return stats, nil
}
