package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/travellanka/listings-backend/internal/database"
	"github.com/travellanka/listings-backend/internal/models"
)

// ListingService serves the public catalogue. Only active listings are visible.
type ListingService struct {
	listings ListingStore
	cache    *ListingCache
}

// NewListingService creates a new public listing service. cache may be nil.
func NewListingService(listings ListingStore, cache *ListingCache) *ListingService {
	return &ListingService{
		listings: listings,
		cache:    cache,
	}
}

// ListingPage is one page of public listings
type ListingPage struct {
	Listings   []models.ListingView `json:"listings"`
	Total      int                  `json:"total"`
	Page       int                  `json:"page"`
	Limit      int                  `json:"limit"`
	TotalPages int                  `json:"totalPages"`
}

// List returns active listings of one type matching the filter
func (s *ListingService) List(ctx context.Context, t models.BusinessType, filter database.ListingFilter) (*ListingPage, error) {
	filter = filter.Normalize()
	filter.Status = models.StatusActive

	listings, total, err := s.listings.List(ctx, t, filter)
	if err != nil {
		return nil, err
	}

	return &ListingPage{
		Listings:   models.ListingViews(listings),
		Total:      total,
		Page:       filter.Page,
		Limit:      filter.Limit,
		TotalPages: (total + filter.Limit - 1) / filter.Limit,
	}, nil
}

// Get returns one active listing
func (s *ListingService) Get(ctx context.Context, t models.BusinessType, id string) (models.BusinessListing, error) {
	if s.cache != nil {
		if listing, ok := s.cache.Get(t, id); ok {
			return listing, nil
		}
	}

	listing, err := s.listings.GetByID(ctx, t, id)
	if errors.Is(err, database.ErrNotFound) {
		return nil, ErrListingNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s listing: %w", t, err)
	}

	if listing.Base().Status != models.StatusActive {
		return nil, ErrListingNotFound
	}

	if s.cache != nil {
		s.cache.Set(listing)
	}
	return listing, nil
}
