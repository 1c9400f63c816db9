package database

import (
	"strings"

	"github.com/travellanka/listings-backend/internal/models"
)

// Default and maximum page sizes for listing queries
const (
	DefaultPageSize = 12
	MaxPageSize     = 100
)

// ListingFilter narrows listing queries. Empty fields are not applied.
type ListingFilter struct {
	Status   models.ListingStatus
	City     string
	District string
	Page     int
	Limit    int

	// MinRating applies to every variant; the rest only to the variant
	// that carries the field and are ignored otherwise.
	MinRating     float64
	StarRating    int      // hotels, exact
	MinPrice      float64  // hotels, some room priced at or above
	MaxPrice      float64  // hotels, the same room priced at or below
	Amenities     []string // hotels, any of
	Cuisine       []string // restaurants, any of
	PriceRange    string   // restaurants
	TransportType string   // transports
}

// Normalize clamps paging values to sane defaults
func (f ListingFilter) Normalize() ListingFilter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	f.City = strings.TrimSpace(f.City)
	f.District = strings.TrimSpace(f.District)
	f.PriceRange = strings.TrimSpace(f.PriceRange)
	f.TransportType = strings.TrimSpace(f.TransportType)
	f.Amenities = compactValues(f.Amenities)
	f.Cuisine = compactValues(f.Cuisine)
	if f.MinRating < 0 {
		f.MinRating = 0
	}
	if f.StarRating < 0 {
		f.StarRating = 0
	}
	if f.MinPrice < 0 {
		f.MinPrice = 0
	}
	if f.MaxPrice < 0 {
		f.MaxPrice = 0
	}
	return f
}

// compactValues trims each value and drops blanks. Nil when nothing remains.
func compactValues(values []string) []string {
	var out []string
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// Offset returns the number of rows to skip for the current page
func (f ListingFilter) Offset() int {
	return (f.Page - 1) * f.Limit
}

// collectionName returns the table/collection that stores a listing variant
func collectionName(t models.BusinessType) string {
	return string(t) + "s"
}

// areaValues splits a listing's search area into lower-cased cities and districts
func areaValues(l models.BusinessListing) (cities, districts []string) {
	cities, districts = []string{}, []string{}
	for _, a := range l.SearchArea() {
		if c := strings.TrimSpace(a.City); c != "" {
			cities = append(cities, strings.ToLower(c))
		}
		if d := strings.TrimSpace(a.District); d != "" {
			districts = append(districts, strings.ToLower(d))
		}
	}
	return cities, districts
}
