package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/travellanka/listings-backend/internal/database"
	"github.com/travellanka/listings-backend/internal/models"
	"github.com/travellanka/listings-backend/internal/services"
)

// ListingReader serves live listings to the public
type ListingReader interface {
	List(ctx context.Context, t models.BusinessType, filter database.ListingFilter) (*services.ListingPage, error)
	Get(ctx context.Context, t models.BusinessType, id string) (models.BusinessListing, error)
}

var _ ListingReader = (*services.ListingService)(nil)

// ListingHandler handles public browsing of hotels, restaurants and transport
type ListingHandler struct {
	listings ListingReader
	logger   *logrus.Logger
}

// NewListingHandler creates a new public listing handler
func NewListingHandler(listings ListingReader, logger *logrus.Logger) *ListingHandler {
	return &ListingHandler{
		listings: listings,
		logger:   logger,
	}
}

// List returns a handler for GET /api/{hotels|restaurants|transports}
func (h *ListingHandler) List(t models.BusinessType) gin.HandlerFunc {
	return func(c *gin.Context) {
		page, err := h.listings.List(c.Request.Context(), t, listingFilterFromQuery(c))
		if err != nil {
			respondError(c, h.logger, err)
			return
		}

		c.JSON(http.StatusOK, page)
	}
}

// Get returns a handler for GET /api/{hotels|restaurants|transports}/:id
func (h *ListingHandler) Get(t models.BusinessType) gin.HandlerFunc {
	return func(c *gin.Context) {
		listing, err := h.listings.Get(c.Request.Context(), t, c.Param("id"))
		if err != nil {
			respondError(c, h.logger, err)
			return
		}

		c.JSON(http.StatusOK, models.NewListingView(listing))
	}
}
