package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/travellanka/listings-backend/internal/database"
	"github.com/travellanka/listings-backend/internal/models"
	"github.com/travellanka/listings-backend/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// AdminOperations is the admin provisioning and moderation workflow
type AdminOperations interface {
	CreateOwner(ctx context.Context, adminID uuid.UUID, in services.CreateOwnerInput) (*services.CreateOwnerResult, error)
	ListOwners(ctx context.Context) ([]services.OwnerOverview, error)
	ListListings(ctx context.Context, t models.BusinessType, filter database.ListingFilter) (*services.ListingsPage, error)
	SetListingStatus(ctx context.Context, adminID uuid.UUID, t models.BusinessType, id string, status models.ListingStatus) (models.BusinessListing, error)
	VerifyListing(ctx context.Context, adminID uuid.UUID, t models.BusinessType, id string, verified bool) (models.BusinessListing, error)
	DeleteListing(ctx context.Context, adminID uuid.UUID, t models.BusinessType, id string) error
	SetAccountActive(ctx context.Context, adminID, userID uuid.UUID, active bool) error
	GetDashboardStats(ctx context.Context) (*services.DashboardStats, error)
}

// ListingExporter renders listings as a spreadsheet
type ListingExporter interface {
	ExportListings(ctx context.Context, t models.BusinessType, status models.ListingStatus) ([]byte, error)
}

// AuditReader reads back the audit trail
type AuditReader interface {
	Recent(ctx context.Context, userID *uuid.UUID, limit int) ([]models.AuditLog, error)
}

var (
	_ AdminOperations = (*services.AdminService)(nil)
	_ ListingExporter = (*services.ExportService)(nil)
	_ AuditReader     = (*services.AuditService)(nil)
)

// AdminHandler handles admin-related HTTP requests
type AdminHandler struct {
	admin    AdminOperations
	exporter ListingExporter
	audit    AuditReader
	logger   *logrus.Logger
}

// NewAdminHandler creates a new admin handler
func NewAdminHandler(admin AdminOperations, exporter ListingExporter, audit AuditReader, logger *logrus.Logger) *AdminHandler {
	return &AdminHandler{
		admin:    admin,
		exporter: exporter,
		audit:    audit,
		logger:   logger,
	}
}

// CreateOwnerRequest represents the owner provisioning request body
type CreateOwnerRequest struct {
	OwnerFirstName string `json:"ownerFirstName"`
	OwnerLastName  string `json:"ownerLastName"`
	OwnerEmail     string `json:"ownerEmail" binding:"required,email"`
	OwnerPhone     string `json:"ownerPhone" binding:"required"`
	OwnerPassword  string `json:"ownerPassword"`
	BusinessType   string `json:"businessType"`
	BusinessName   string `json:"businessName" binding:"required"`
	TransportType  string `json:"transportType"`
}

// UpdateListingStatusRequest represents the moderation status change body
type UpdateListingStatusRequest struct {
	Type   string `json:"type" binding:"required"`
	ID     string `json:"id" binding:"required"`
	Status string `json:"status" binding:"required"`
}

// VerifyListingRequest represents the verify body. Verified defaults to true.
type VerifyListingRequest struct {
	Verified *bool `json:"verified"`
}

// CreateOwner handles POST /api/admin/owners and the per-type aliases
// POST /api/admin/owners/:type
func (h *AdminHandler) CreateOwner(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}

	var req CreateOwnerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	businessType := req.BusinessType
	if pathType := c.Param("type"); pathType != "" {
		businessType = pathType
	}

	result, err := h.admin.CreateOwner(c.Request.Context(), adminID, services.CreateOwnerInput{
		OwnerFirstName: req.OwnerFirstName,
		OwnerLastName:  req.OwnerLastName,
		OwnerEmail:     req.OwnerEmail,
		OwnerPhone:     req.OwnerPhone,
		OwnerPassword:  req.OwnerPassword,
		BusinessType:   models.BusinessType(businessType),
		BusinessName:   req.BusinessName,
		TransportType:  req.TransportType,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message":           "Owner and business created successfully",
		"owner":             result.Owner,
		"business":          result.Business,
		"generatedPassword": result.GeneratedPassword,
	})
}

// ListOwners handles GET /api/admin/owners
func (h *AdminHandler) ListOwners(c *gin.Context) {
	owners, err := h.admin.ListOwners(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"owners": owners,
		"total":  len(owners),
	})
}

// ListListings handles GET /api/admin/listings?type=&status=&city=&district=&page=&limit=
// plus the public variant filters, with transportType in place of type
func (h *AdminHandler) ListListings(c *gin.Context) {
	t, ok := optionalBusinessType(c, c.Query("type"))
	if !ok {
		return
	}

	filter := listingFilterFromQuery(c)
	filter.Status = models.ListingStatus(c.Query("status"))
	// "type" selects the business type here
	filter.TransportType = strings.TrimSpace(c.Query("transportType"))

	page, err := h.admin.ListListings(c.Request.Context(), t, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, page)
}

// UpdateListingStatus handles PUT /api/admin/listings/status
func (h *AdminHandler) UpdateListingStatus(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}

	var req UpdateListingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "type, id and status are required")
		return
	}

	t, ok := requiredBusinessType(c, req.Type)
	if !ok {
		return
	}

	listing, err := h.admin.SetListingStatus(c.Request.Context(), adminID, t, req.ID, models.ListingStatus(req.Status))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Listing status updated",
		"listing": services.Summarize(listing),
	})
}

// VerifyListing handles PUT /api/admin/listings/:type/:id/verify
func (h *AdminHandler) VerifyListing(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}

	t, ok := requiredBusinessType(c, c.Param("type"))
	if !ok {
		return
	}

	var req VerifyListingRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body: "+err.Error())
			return
		}
	}
	verified := req.Verified == nil || *req.Verified

	listing, err := h.admin.VerifyListing(c.Request.Context(), adminID, t, c.Param("id"), verified)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	base := listing.Base()
	c.JSON(http.StatusOK, gin.H{
		"message":    "Listing verification updated",
		"id":         base.ID,
		"isVerified": base.IsVerified,
		"verifiedAt": base.VerifiedAt,
		"verifiedBy": base.VerifiedBy,
	})
}

// DeleteListing handles DELETE /api/admin/listings/:type/:id
func (h *AdminHandler) DeleteListing(c *gin.Context) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}

	t, ok := requiredBusinessType(c, c.Param("type"))
	if !ok {
		return
	}

	if err := h.admin.DeleteListing(c.Request.Context(), adminID, t, c.Param("id")); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Listing deleted"})
}

// ExportListings handles GET /api/admin/listings/export?type=&status=
func (h *AdminHandler) ExportListings(c *gin.Context) {
	t, ok := optionalBusinessType(c, c.Query("type"))
	if !ok {
		return
	}

	status := models.ListingStatus(c.Query("status"))
	if status != "" && !status.IsValid() {
		badRequest(c, "status must be one of pending, active, inactive, suspended")
		return
	}

	data, err := h.exporter.ExportListings(c.Request.Context(), t, status)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	filename := fmt.Sprintf("listings-%s.xlsx", time.Now().Format("20060102-150405"))
	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// ActivateUser handles PUT /api/admin/users/:id/activate
func (h *AdminHandler) ActivateUser(c *gin.Context) {
	h.setUserActive(c, true)
}

// DeactivateUser handles PUT /api/admin/users/:id/deactivate
func (h *AdminHandler) DeactivateUser(c *gin.Context) {
	h.setUserActive(c, false)
}

func (h *AdminHandler) setUserActive(c *gin.Context, active bool) {
	adminID, ok := currentUser(c)
	if !ok {
		return
	}

	userID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "Invalid user ID")
		return
	}

	if err := h.admin.SetAccountActive(c.Request.Context(), adminID, userID, active); err != nil {
		respondError(c, h.logger, err)
		return
	}

	message := "User deactivated"
	if active {
		message = "User activated"
	}
	c.JSON(http.StatusOK, gin.H{
		"message":  message,
		"id":       userID,
		"isActive": active,
	})
}

// GetDashboardStats handles GET /api/admin/dashboard/stats
func (h *AdminHandler) GetDashboardStats(c *gin.Context) {
	stats, err := h.admin.GetDashboardStats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, stats)
}

// GetAuditLogs handles GET /api/admin/audit-logs?userId=&limit=
func (h *AdminHandler) GetAuditLogs(c *gin.Context) {
	var userID *uuid.UUID
	if raw := c.Query("userId"); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			badRequest(c, "Invalid user ID")
			return
		}
		userID = &id
	}

	limit, _ := strconv.Atoi(c.Query("limit"))

	logs, err := h.audit.Recent(c.Request.Context(), userID, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"logs":  logs,
		"total": len(logs),
	})
}

// optionalBusinessType parses an optional type parameter; empty means all types
func optionalBusinessType(c *gin.Context, raw string) (models.BusinessType, bool) {
	if raw == "" {
		return "", true
	}
	return requiredBusinessType(c, raw)
}

func requiredBusinessType(c *gin.Context, raw string) (models.BusinessType, bool) {
	t, ok := models.ParseBusinessType(raw)
	if !ok {
		badRequest(c, "type must be one of hotel, restaurant, transport")
		return "", false
	}
	return t, true
}

// listingFilterFromQuery reads the area, paging and variant filters.
// Unparseable numbers are ignored.
func listingFilterFromQuery(c *gin.Context) database.ListingFilter {
	page, _ := strconv.Atoi(c.Query("page"))
	limit, _ := strconv.Atoi(c.Query("limit"))
	starRating, _ := strconv.Atoi(c.Query("starRating"))
	rating, _ := strconv.ParseFloat(c.Query("rating"), 64)
	minPrice, _ := strconv.ParseFloat(c.Query("minPrice"), 64)
	maxPrice, _ := strconv.ParseFloat(c.Query("maxPrice"), 64)
	return database.ListingFilter{
		City:          c.Query("city"),
		District:      c.Query("district"),
		Page:          page,
		Limit:         limit,
		MinRating:     rating,
		StarRating:    starRating,
		MinPrice:      minPrice,
		MaxPrice:      maxPrice,
		Amenities:     queryList(c, "amenities"),
		Cuisine:       queryList(c, "cuisine"),
		PriceRange:    c.Query("priceRange"),
		TransportType: c.Query("type"),
	}.Normalize()
}

// queryList reads a comma separated query value
func queryList(c *gin.Context, key string) []string {
	raw := c.Query(key)
	if raw == "" {
		return nil
	}
	return strings.Split(raw, ",")
}
