package handlers

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/travellanka/listings-backend/internal/services"
)

// maxPatchBytes caps the size of an owner update body
const maxPatchBytes = 1 << 20

// BusinessOperations is the owner-facing business workflow
type BusinessOperations interface {
	GetBusiness(ctx context.Context, ownerID uuid.UUID) (*services.BusinessDetails, error)
	UpdateBusiness(ctx context.Context, ownerID uuid.UUID, patch []byte, expectedVersion int64) (*services.UpdateResult, error)
	CompleteBusiness(ctx context.Context, ownerID uuid.UUID) (*services.CompleteResult, error)
	GetProgress(ctx context.Context, ownerID uuid.UUID) (*services.ProgressResult, error)
	GetRequirements(ctx context.Context, ownerID uuid.UUID) (*services.RequirementsResult, error)
}

var _ BusinessOperations = (*services.BusinessService)(nil)

// BusinessHandler handles the owner's own listing
type BusinessHandler struct {
	business BusinessOperations
	logger   *logrus.Logger
}

// NewBusinessHandler creates a new business handler
func NewBusinessHandler(business BusinessOperations, logger *logrus.Logger) *BusinessHandler {
	return &BusinessHandler{
		business: business,
		logger:   logger,
	}
}

// GetBusiness handles GET /api/owner/business
func (h *BusinessHandler) GetBusiness(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	details, err := h.business.GetBusiness(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	setETag(c, details.Business.Listing.Base().Version)
	c.JSON(http.StatusOK, details)
}

// UpdateBusiness handles PUT /api/owner/business. An If-Match header
// carrying the listing version turns the write into a compare-and-set
// against that version.
func (h *BusinessHandler) UpdateBusiness(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	expectedVersion, err := parseIfMatch(c.GetHeader("If-Match"))
	if err != nil {
		badRequest(c, "If-Match must carry the listing version")
		return
	}

	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxPatchBytes+1))
	if err != nil {
		badRequest(c, "Failed to read request body")
		return
	}
	if len(body) > maxPatchBytes {
		c.JSON(http.StatusRequestEntityTooLarge, ErrorResponse{
			Error:   "payload_too_large",
			Message: "Request body is too large",
			Code:    "PAYLOAD_TOO_LARGE",
		})
		return
	}

	result, err := h.business.UpdateBusiness(c.Request.Context(), ownerID, body, expectedVersion)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	setETag(c, result.Business.Listing.Base().Version)
	c.JSON(http.StatusOK, gin.H{
		"message":              "Business updated successfully",
		"business":             result.Business,
		"isSetupComplete":      result.IsSetupComplete,
		"completionPercentage": result.CompletionPercentage,
		"ignoredFields":        result.IgnoredFields,
	})
}

// CompleteBusiness handles POST /api/owner/business/complete
func (h *BusinessHandler) CompleteBusiness(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	result, err := h.business.CompleteBusiness(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	message := "Business setup completed. Your listing is now live."
	if result.AlreadyActive {
		message = "Business is already active"
	}

	c.JSON(http.StatusOK, gin.H{
		"message":       message,
		"business":      result.Business,
		"alreadyActive": result.AlreadyActive,
	})
}

// GetProgress handles GET /api/owner/business/progress
func (h *BusinessHandler) GetProgress(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	progress, err := h.business.GetProgress(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, progress)
}

// GetRequirements handles GET /api/owner/business/requirements
func (h *BusinessHandler) GetRequirements(c *gin.Context) {
	ownerID, ok := currentUser(c)
	if !ok {
		return
	}

	requirements, err := h.business.GetRequirements(c.Request.Context(), ownerID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, requirements)
}

func setETag(c *gin.Context, version int64) {
	c.Header("ETag", strconv.Quote(strconv.FormatInt(version, 10)))
}

// parseIfMatch reads a version from an If-Match header. Both the quoted
// ETag form and a bare number are accepted; an empty header means 0.
func parseIfMatch(header string) (int64, error) {
	v := strings.TrimSpace(header)
	if v == "" || v == "*" {
		return 0, nil
	}
	v = strings.TrimPrefix(v, "W/")
	v = strings.Trim(v, `"`)
	version, err := strconv.ParseInt(v, 10, 64)
	if err != nil || version < 1 {
		return 0, strconv.ErrSyntax
	}
	return version, nil
}
