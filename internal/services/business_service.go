package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/travellanka/listings-backend/internal/database"
	"github.com/travellanka/listings-backend/internal/models"
)

// BusinessService implements the owner self-service workflow: reading the
// owner's single listing, patching it, tracking setup progress and
// activating it once every section is complete.
type BusinessService struct {
	accounts AccountStore
	listings ListingStore
	audit    AuditRecorder
	notifier ActivationNotifier
	cache    CacheInvalidator
	logger   *logrus.Logger
}

// NewBusinessService creates a new business service. audit, notifier and
// cache may be nil.
func NewBusinessService(
	accounts AccountStore,
	listings ListingStore,
	audit AuditRecorder,
	notifier ActivationNotifier,
	cache CacheInvalidator,
	logger *logrus.Logger,
) *BusinessService {
	if audit == nil {
		audit = noopAudit{}
	}
	if notifier == nil {
		notifier = noopNotifier{}
	}
	if cache == nil {
		cache = noopInvalidator{}
	}
	return &BusinessService{
		accounts: accounts,
		listings: listings,
		audit:    audit,
		notifier: notifier,
		cache:    cache,
		logger:   logger,
	}
}

// BusinessDetails is the owner's account summary together with their listing
type BusinessDetails struct {
	Owner    models.OwnerSummary `json:"owner"`
	Business models.ListingView  `json:"business"`
}

// UpdateResult is returned after a successful owner update
type UpdateResult struct {
	Business             models.ListingView `json:"business"`
	IsSetupComplete      bool               `json:"isSetupComplete"`
	CompletionPercentage int                `json:"completionPercentage"`
	IgnoredFields        []string           `json:"ignoredFields,omitempty"`
}

// ActivatedBusiness is the short listing summary returned by CompleteBusiness
type ActivatedBusiness struct {
	ID              string               `json:"id"`
	Name            string               `json:"name"`
	Status          models.ListingStatus `json:"status"`
	IsSetupComplete bool                 `json:"isSetupComplete"`
}

// CompleteResult is returned when a listing is live
type CompleteResult struct {
	Business      ActivatedBusiness `json:"business"`
	AlreadyActive bool              `json:"alreadyActive"`
}

// ProgressResult describes how far the owner is through setup
type ProgressResult struct {
	BusinessType           models.BusinessType       `json:"businessType"`
	BusinessName           string                    `json:"businessName"`
	OwnerHasCompletedSetup bool                      `json:"ownerHasCompletedSetup"`
	Status                 models.ListingStatus      `json:"status"`
	IsSetupComplete        bool                      `json:"isSetupComplete"`
	CompletionProgress     models.CompletionProgress `json:"completionProgress"`
	CompletionPercentage   int                       `json:"completionPercentage"`
	MissingSections        []string                  `json:"missingSections"`
}

// RequirementsResult lists what each setup section needs
type RequirementsResult struct {
	BusinessType models.BusinessType `json:"businessType"`
	Sections     []string            `json:"sections"`
	Requirements map[string][]string `json:"requirements"`
}

// resolveOwner loads the caller and checks it may manage a business
func (s *BusinessService) resolveOwner(ctx context.Context, ownerID uuid.UUID) (*models.Account, models.BusinessType, error) {
	account, err := s.accounts.GetByID(ctx, ownerID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to load account: %w", err)
	}
	if account == nil {
		return nil, "", ErrAccountNotFound
	}
	if !account.IsOwner() {
		return nil, "", ErrNotOwner
	}
	if !account.IsActive {
		return nil, "", ErrAccountDisabled
	}

	businessType, ok := account.OwnedBusinessType()
	if !ok {
		return nil, "", ErrUnsupportedBusinessType
	}

	return account, businessType, nil
}

// loadBusiness resolves the caller and their single listing
func (s *BusinessService) loadBusiness(ctx context.Context, ownerID uuid.UUID) (*models.Account, models.BusinessListing, error) {
	account, businessType, err := s.resolveOwner(ctx, ownerID)
	if err != nil {
		return nil, nil, err
	}

	listing, err := s.listings.GetByOwner(ctx, businessType, account.ID.String())
	if errors.Is(err, database.ErrNotFound) {
		return nil, nil, ErrBusinessNotFound
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load %s listing: %w", businessType, err)
	}

	return account, listing, nil
}

// GetBusiness returns the owner's account summary and listing
func (s *BusinessService) GetBusiness(ctx context.Context, ownerID uuid.UUID) (*BusinessDetails, error) {
	account, listing, err := s.loadBusiness(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	return &BusinessDetails{
		Owner:    account.Summary(),
		Business: models.NewListingView(listing),
	}, nil
}

// UpdateBusiness merges patch into the owner's listing and stores it.
// Protected fields in the patch are ignored. expectedVersion, when
// non-zero, must match the stored version or ErrVersionConflict is returned.
func (s *BusinessService) UpdateBusiness(ctx context.Context, ownerID uuid.UUID, patch []byte, expectedVersion int64) (*UpdateResult, error) {
	account, listing, err := s.loadBusiness(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	if expectedVersion != 0 && expectedVersion != listing.Base().Version {
		return nil, database.ErrVersionConflict
	}

	updated, ignored, err := models.ApplyPatch(listing, patch)
	if err != nil {
		return nil, err
	}
	if len(ignored) > 0 {
		s.logger.WithFields(logrus.Fields{
			"owner_id":   ownerID.String(),
			"listing_id": listing.Base().ID,
			"fields":     ignored,
		}).Warn("Ignored protected fields in business update")
	}

	if problems := models.Validate(updated); len(problems) > 0 {
		return nil, models.NewValidationError(problems...)
	}

	result := models.ApplyCompletion(updated)

	// An active listing has to stay complete
	if updated.Base().Status == models.StatusActive && !result.Complete {
		return nil, newIncompleteSetupError(updated, result)
	}

	if err := s.listings.Save(ctx, updated); err != nil {
		if errors.Is(err, database.ErrVersionConflict) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to save business: %w", err)
	}

	// Setup counts as done once the listing is complete, even before activation.
	// A failure here is retried by the next update or by CompleteBusiness.
	if result.Complete && !account.HasCompletedSetup {
		if err := s.accounts.MarkSetupComplete(ctx, account.ID); err != nil {
			s.logger.WithError(err).WithField("owner_id", ownerID.String()).Error("Failed to mark owner setup complete")
		} else {
			account.HasCompletedSetup = true
		}
	}

	base := updated.Base()
	s.cache.Invalidate(updated.Type(), base.ID)
	s.audit.Record(ctx, AuditEvent{
		UserID:     &ownerID,
		Action:     AuditBusinessUpdated,
		EntityType: string(updated.Type()),
		EntityID:   base.ID,
		Details: map[string]interface{}{
			"completion_percentage": result.Percentage,
			"ignored_fields":        ignored,
		},
	})

	return &UpdateResult{
		Business:             models.NewListingView(updated),
		IsSetupComplete:      result.Complete,
		CompletionPercentage: result.Percentage,
		IgnoredFields:        ignored,
	}, nil
}

// CompleteBusiness activates the owner's listing when every section is
// complete and marks the owner's setup as done. Calling it on a listing
// that is already active succeeds without changing anything.
func (s *BusinessService) CompleteBusiness(ctx context.Context, ownerID uuid.UUID) (*CompleteResult, error) {
	account, listing, err := s.loadBusiness(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	result, outcome := models.Activate(listing)
	switch outcome {
	case models.ActivationLocked:
		return nil, ErrListingLocked
	case models.ActivationRejected:
		return nil, newIncompleteSetupError(listing, result)
	case models.ActivationApplied:
		if err := s.listings.Save(ctx, listing); err != nil {
			if errors.Is(err, database.ErrVersionConflict) {
				return nil, err
			}
			return nil, fmt.Errorf("failed to activate business: %w", err)
		}
	}

	if !account.HasCompletedSetup {
		if err := s.accounts.MarkSetupComplete(ctx, account.ID); err != nil {
			return nil, fmt.Errorf("failed to mark owner setup complete: %w", err)
		}
		account.HasCompletedSetup = true
	}

	base := listing.Base()
	if outcome == models.ActivationApplied {
		s.cache.Invalidate(listing.Type(), base.ID)
		s.audit.Record(ctx, AuditEvent{
			UserID:     &ownerID,
			Action:     AuditBusinessActivated,
			EntityType: string(listing.Type()),
			EntityID:   base.ID,
		})
		s.notifier.ListingActivated(ctx, account, listing)

		s.logger.WithFields(logrus.Fields{
			"owner_id":   ownerID.String(),
			"listing_id": base.ID,
			"type":       listing.Type(),
		}).Info("Business activated")
	}

	return &CompleteResult{
		Business: ActivatedBusiness{
			ID:              base.ID,
			Name:            base.Name,
			Status:          base.Status,
			IsSetupComplete: base.IsSetupComplete,
		},
		AlreadyActive: outcome == models.ActivationUnchanged,
	}, nil
}

// GetProgress evaluates the owner's listing as it is stored right now
func (s *BusinessService) GetProgress(ctx context.Context, ownerID uuid.UUID) (*ProgressResult, error) {
	account, listing, err := s.loadBusiness(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	result := listing.Evaluate()
	return &ProgressResult{
		BusinessType:           listing.Type(),
		BusinessName:           listing.Base().Name,
		OwnerHasCompletedSetup: account.HasCompletedSetup,
		Status:                 listing.Base().Status,
		IsSetupComplete:        result.Complete,
		CompletionProgress:     result.Progress,
		CompletionPercentage:   result.Percentage,
		MissingSections:        result.Progress.Missing(models.Sections(listing.Type())),
	}, nil
}

// GetRequirements returns the setup requirements for the owner's business type
func (s *BusinessService) GetRequirements(ctx context.Context, ownerID uuid.UUID) (*RequirementsResult, error) {
	_, businessType, err := s.resolveOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return Requirements(businessType), nil
}

// Requirements is the static requirements table for one business type
func Requirements(t models.BusinessType) *RequirementsResult {
	return &RequirementsResult{
		BusinessType: t,
		Sections:     append([]string{}, models.Sections(t)...),
		Requirements: models.Requirements(t),
	}
}
