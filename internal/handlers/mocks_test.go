package handlers

import (
	"context"
	"io"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/mock"
	"github.com/travellanka/listings-backend/internal/database"
	"github.com/travellanka/listings-backend/internal/middleware"
	"github.com/travellanka/listings-backend/internal/models"
	"github.com/travellanka/listings-backend/internal/services"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// withUser stands in for AuthMiddleware in handler tests
func withUser(userID uuid.UUID, role string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Set(middleware.UserContextKey, middleware.UserContext{
			UserID: userID,
			Email:  "caller@example.com",
			Role:   role,
		})
		c.Next()
	}
}

func newTestRouter() *gin.Engine {
	gin.SetMode(gin.TestMode)
	return gin.New()
}

// MockBusiness is a mock BusinessOperations
type MockBusiness struct {
	mock.Mock
}

func (m *MockBusiness) GetBusiness(ctx context.Context, ownerID uuid.UUID) (*services.BusinessDetails, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.BusinessDetails), args.Error(1)
}

func (m *MockBusiness) UpdateBusiness(ctx context.Context, ownerID uuid.UUID, patch []byte, expectedVersion int64) (*services.UpdateResult, error) {
	args := m.Called(ctx, ownerID, patch, expectedVersion)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.UpdateResult), args.Error(1)
}

func (m *MockBusiness) CompleteBusiness(ctx context.Context, ownerID uuid.UUID) (*services.CompleteResult, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CompleteResult), args.Error(1)
}

func (m *MockBusiness) GetProgress(ctx context.Context, ownerID uuid.UUID) (*services.ProgressResult, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ProgressResult), args.Error(1)
}

func (m *MockBusiness) GetRequirements(ctx context.Context, ownerID uuid.UUID) (*services.RequirementsResult, error) {
	args := m.Called(ctx, ownerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.RequirementsResult), args.Error(1)
}

// MockAuth is a mock AuthOperations
type MockAuth struct {
	mock.Mock
}

func (m *MockAuth) Register(ctx context.Context, in services.RegisterInput) (*services.AuthResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuth) Login(ctx context.Context, email, password string) (*services.AuthResult, error) {
	args := m.Called(ctx, email, password)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuth) Refresh(ctx context.Context, refreshToken string) (*services.AuthResult, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.AuthResult), args.Error(1)
}

func (m *MockAuth) Logout(ctx context.Context, refreshToken string) error {
	return m.Called(ctx, refreshToken).Error(0)
}

func (m *MockAuth) Me(ctx context.Context, userID uuid.UUID) (*models.Account, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *MockAuth) ChangePassword(ctx context.Context, userID uuid.UUID, currentPassword, newPassword string) error {
	return m.Called(ctx, userID, currentPassword, newPassword).Error(0)
}

// MockAdmin is a mock AdminOperations
type MockAdmin struct {
	mock.Mock
}

func (m *MockAdmin) CreateOwner(ctx context.Context, adminID uuid.UUID, in services.CreateOwnerInput) (*services.CreateOwnerResult, error) {
	args := m.Called(ctx, adminID, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.CreateOwnerResult), args.Error(1)
}

func (m *MockAdmin) ListOwners(ctx context.Context) ([]services.OwnerOverview, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]services.OwnerOverview), args.Error(1)
}

func (m *MockAdmin) ListListings(ctx context.Context, t models.BusinessType, filter database.ListingFilter) (*services.ListingsPage, error) {
	args := m.Called(ctx, t, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ListingsPage), args.Error(1)
}

func (m *MockAdmin) SetListingStatus(ctx context.Context, adminID uuid.UUID, t models.BusinessType, id string, status models.ListingStatus) (models.BusinessListing, error) {
	args := m.Called(ctx, adminID, t, id, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.BusinessListing), args.Error(1)
}

func (m *MockAdmin) VerifyListing(ctx context.Context, adminID uuid.UUID, t models.BusinessType, id string, verified bool) (models.BusinessListing, error) {
	args := m.Called(ctx, adminID, t, id, verified)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.BusinessListing), args.Error(1)
}

func (m *MockAdmin) DeleteListing(ctx context.Context, adminID uuid.UUID, t models.BusinessType, id string) error {
	return m.Called(ctx, adminID, t, id).Error(0)
}

func (m *MockAdmin) SetAccountActive(ctx context.Context, adminID, userID uuid.UUID, active bool) error {
	return m.Called(ctx, adminID, userID, active).Error(0)
}

func (m *MockAdmin) GetDashboardStats(ctx context.Context) (*services.DashboardStats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.DashboardStats), args.Error(1)
}

// MockExporter is a mock ListingExporter
type MockExporter struct {
	mock.Mock
}

func (m *MockExporter) ExportListings(ctx context.Context, t models.BusinessType, status models.ListingStatus) ([]byte, error) {
	args := m.Called(ctx, t, status)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]byte), args.Error(1)
}

// MockAuditReader is a mock AuditReader
type MockAuditReader struct {
	mock.Mock
}

func (m *MockAuditReader) Recent(ctx context.Context, userID *uuid.UUID, limit int) ([]models.AuditLog, error) {
	args := m.Called(ctx, userID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.AuditLog), args.Error(1)
}

// MockListings is a mock ListingReader
type MockListings struct {
	mock.Mock
}

func (m *MockListings) List(ctx context.Context, t models.BusinessType, filter database.ListingFilter) (*services.ListingPage, error) {
	args := m.Called(ctx, t, filter)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*services.ListingPage), args.Error(1)
}

func (m *MockListings) Get(ctx context.Context, t models.BusinessType, id string) (models.BusinessListing, error) {
	args := m.Called(ctx, t, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.BusinessListing), args.Error(1)
}

func sampleHotel(version int64) *models.Hotel {
	hotel := models.NewHotel()
	base := hotel.Base()
	base.ID = uuid.NewString()
	base.Name = "Galle Face Hotel"
	base.Owner = uuid.NewString()
	base.Version = version
	base.CreatedAt = time.Date(2026, 1, 10, 8, 0, 0, 0, time.UTC)
	base.UpdatedAt = base.CreatedAt
	return hotel
}
