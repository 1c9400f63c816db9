package services

import (
	"time"

	"github.com/jellydator/ttlcache/v3"
	"github.com/travellanka/listings-backend/internal/models"
)

// ListingCache holds recently read public listings for a short time.
// Cached listings are shared between requests and must not be modified.
type ListingCache struct {
	cache *ttlcache.Cache[string, models.BusinessListing]
}

// NewListingCache creates a cache whose entries live for ttl. Call Start
// to run the expiry loop and Stop on shutdown.
func NewListingCache(ttl time.Duration) *ListingCache {
	return &ListingCache{
		cache: ttlcache.New(
			ttlcache.WithTTL[string, models.BusinessListing](ttl),
			ttlcache.WithDisableTouchOnHit[string, models.BusinessListing](),
		),
	}
}

func cacheKey(t models.BusinessType, id string) string {
	return string(t) + ":" + id
}

// Start runs the expiry loop until Stop is called
func (c *ListingCache) Start() {
	go c.cache.Start()
}

// Stop ends the expiry loop
func (c *ListingCache) Stop() {
	c.cache.Stop()
}

// Get returns a cached listing
func (c *ListingCache) Get(t models.BusinessType, id string) (models.BusinessListing, bool) {
	item := c.cache.Get(cacheKey(t, id))
	if item == nil {
		return nil, false
	}
	return item.Value(), true
}

// Set caches a listing with the default TTL
func (c *ListingCache) Set(listing models.BusinessListing) {
	c.cache.Set(cacheKey(listing.Type(), listing.Base().ID), listing, ttlcache.DefaultTTL)
}

// Invalidate implements CacheInvalidator
func (c *ListingCache) Invalidate(t models.BusinessType, id string) {
	c.cache.Delete(cacheKey(t, id))
}

// Len returns the number of cached entries
func (c *ListingCache) Len() int {
	return c.cache.Len()
}
