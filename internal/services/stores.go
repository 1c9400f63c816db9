package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/travellanka/listings-backend/internal/database"
	"github.com/travellanka/listings-backend/internal/models"
)

// AccountStore persists accounts. Lookups return nil, nil when nothing matches.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	MarkSetupComplete(ctx context.Context, id uuid.UUID) error
	UpdateLastLogin(ctx context.Context, id uuid.UUID) error
	UpdatePassword(ctx context.Context, id uuid.UUID, passwordHash string) error
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	ListByRole(ctx context.Context, role string) ([]*models.Account, error)
	CountByRole(ctx context.Context) (map[string]int, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ListingStore persists listings of all three variants. Lookups return
// database.ErrNotFound when nothing matches; Save returns
// database.ErrVersionConflict when the listing changed since it was read.
type ListingStore interface {
	Create(ctx context.Context, listing models.BusinessListing) error
	GetByID(ctx context.Context, t models.BusinessType, id string) (models.BusinessListing, error)
	GetByOwner(ctx context.Context, t models.BusinessType, ownerID string) (models.BusinessListing, error)
	Save(ctx context.Context, listing models.BusinessListing) error
	Delete(ctx context.Context, t models.BusinessType, id string) error
	List(ctx context.Context, t models.BusinessType, filter database.ListingFilter) ([]models.BusinessListing, int, error)
	CountByStatus(ctx context.Context, t models.BusinessType) (map[models.ListingStatus]int, error)
}

// RefreshTokenStore persists hashed refresh tokens
type RefreshTokenStore interface {
	Store(ctx context.Context, userID uuid.UUID, token, ipAddress, userAgent string, expiresAt time.Time) error
	Get(ctx context.Context, token string) (*models.RefreshToken, error)
	Revoke(ctx context.Context, token string) error
	RevokeAllForUser(ctx context.Context, userID uuid.UUID) error
}

// AuditRecorder records security and moderation events
type AuditRecorder interface {
	Record(ctx context.Context, event AuditEvent)
}

// ActivationNotifier is told when a listing goes live
type ActivationNotifier interface {
	ListingActivated(ctx context.Context, owner *models.Account, listing models.BusinessListing)
}

// CacheInvalidator drops cached copies of a listing after it changes
type CacheInvalidator interface {
	Invalidate(t models.BusinessType, id string)
}

var (
	_ AccountStore      = (*database.AccountRepository)(nil)
	_ ListingStore      = (*database.ListingRepository)(nil)
	_ ListingStore      = (*database.MongoListingRepository)(nil)
	_ RefreshTokenStore = (*database.RefreshTokenRepository)(nil)
)

// RequestMeta describes where a request came from, for audit entries
type RequestMeta struct {
	IPAddress string
	UserAgent string
}

type requestMetaKey struct{}

// WithRequestMeta attaches client details to ctx
func WithRequestMeta(ctx context.Context, meta RequestMeta) context.Context {
	return context.WithValue(ctx, requestMetaKey{}, meta)
}

// RequestMetaFrom returns the client details attached by WithRequestMeta
func RequestMetaFrom(ctx context.Context) RequestMeta {
	meta, _ := ctx.Value(requestMetaKey{}).(RequestMeta)
	return meta
}

type noopAudit struct{}

func (noopAudit) Record(context.Context, AuditEvent) {}

type noopNotifier struct{}

func (noopNotifier) ListingActivated(context.Context, *models.Account, models.BusinessListing) {}

type noopInvalidator struct{}

func (noopInvalidator) Invalidate(models.BusinessType, string) {}
