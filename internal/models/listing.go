package models

import (
	"fmt"
	"strings"
	"time"
)

// ListingStatus is the lifecycle state of a business listing
type ListingStatus string

const (
	StatusPending   ListingStatus = "pending"
	StatusActive    ListingStatus = "active"
	StatusInactive  ListingStatus = "inactive"
	StatusSuspended ListingStatus = "suspended"
)

// IsValid reports whether s is a known listing status
func (s ListingStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusActive, StatusInactive, StatusSuspended:
		return true
	}
	return false
}

// BusinessListing is implemented by every listing variant (Hotel, Restaurant, Transport).
// The variant is chosen once from the owner's business type; callers then work
// against this interface instead of switching on the type string.
type BusinessListing interface {
	// Type returns the variant's business type
	Type() BusinessType
	// Base exposes the fields shared by every variant
	Base() *ListingBase
	// Evaluate computes section completion without modifying the listing
	Evaluate() CompletionResult
	// AdminAssignedFields lists the JSON fields only an admin may set
	AdminAssignedFields() []string
	// SearchArea returns the cities and districts the listing is found under
	SearchArea() []Area
}

// NewListing returns an empty listing of the given variant with schema defaults applied
func NewListing(t BusinessType) (BusinessListing, error) {
	switch t {
	case BusinessTypeHotel:
		return NewHotel(), nil
	case BusinessTypeRestaurant:
		return NewRestaurant(), nil
	case BusinessTypeTransport:
		return NewTransport(), nil
	}
	return nil, fmt.Errorf("unsupported business type: %q", t)
}

// ListingBase holds the fields common to all listing variants
type ListingBase struct {
	ID                 string             `json:"id" bson:"_id"`
	Name               string             `json:"name" bson:"name" validate:"required,max=100"`
	Owner              string             `json:"owner" bson:"owner"`
	Description        string             `json:"description" bson:"description" validate:"max=1000"`
	Images             []Image            `json:"images" bson:"images" validate:"dive"`
	Rating             Rating             `json:"rating" bson:"rating"`
	Status             ListingStatus      `json:"status" bson:"status" validate:"required,oneof=pending active inactive suspended"`
	IsSetupComplete    bool               `json:"isSetupComplete" bson:"isSetupComplete"`
	CompletionProgress CompletionProgress `json:"completionProgress" bson:"completionProgress"`
	IsActive           bool               `json:"isActive" bson:"isActive"`
	IsVerified         bool               `json:"isVerified" bson:"isVerified"`
	VerifiedAt         *time.Time         `json:"verifiedAt,omitempty" bson:"verifiedAt,omitempty"`
	VerifiedBy         string             `json:"verifiedBy,omitempty" bson:"verifiedBy,omitempty"`
	Version            int64              `json:"version" bson:"version"`
	CreatedAt          time.Time          `json:"createdAt" bson:"createdAt"`
	UpdatedAt          time.Time          `json:"updatedAt" bson:"updatedAt"`
}

// Base returns the shared fields; promoted to every variant
func (b *ListingBase) Base() *ListingBase {
	return b
}

// MainImage returns the image flagged as main, else the first image, else nil
func (b *ListingBase) MainImage() *string {
	if len(b.Images) == 0 {
		return nil
	}
	for _, img := range b.Images {
		if img.IsMain {
			url := img.URL
			return &url
		}
	}
	url := b.Images[0].URL
	return &url
}

// CompletionPercentage is derived from the stored completion progress
func (b *ListingBase) CompletionPercentage() int {
	return b.CompletionProgress.Percentage()
}

func newListingBase(progress CompletionProgress) ListingBase {
	return ListingBase{
		Images:             []Image{},
		Status:             StatusPending,
		IsActive:           true,
		CompletionProgress: progress,
	}
}

// Image is a listing photo reference
type Image struct {
	URL     string `json:"url" bson:"url" validate:"required"`
	Caption string `json:"caption" bson:"caption"`
	IsMain  bool   `json:"isMain" bson:"isMain"`
}

// Rating aggregates review scores
type Rating struct {
	Average float64 `json:"average" bson:"average" validate:"gte=0,lte=5"`
	Count   int     `json:"count" bson:"count" validate:"gte=0"`
}

// Coordinates is a map position
type Coordinates struct {
	Latitude  float64 `json:"latitude" bson:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" bson:"longitude" validate:"gte=-180,lte=180"`
}

// Location is a street address with optional coordinates
type Location struct {
	Address     string       `json:"address" bson:"address"`
	City        string       `json:"city" bson:"city"`
	District    string       `json:"district" bson:"district"`
	Coordinates *Coordinates `json:"coordinates,omitempty" bson:"coordinates,omitempty"`
}

// Contact holds the public contact details of a listing
type Contact struct {
	Phone   string `json:"phone" bson:"phone" validate:"omitempty,lkphone"`
	Email   string `json:"email" bson:"email" validate:"omitempty,email"`
	Website string `json:"website" bson:"website"`
	Address string `json:"address,omitempty" bson:"address,omitempty"`
}

// Area is a city/district pair used for public filtering
type Area struct {
	City     string `json:"city" bson:"city"`
	District string `json:"district" bson:"district"`
}

// DayHours describes opening hours for one weekday
type DayHours struct {
	Open     string `json:"open" bson:"open"`
	Close    string `json:"close" bson:"close"`
	IsClosed bool   `json:"isClosed" bson:"isClosed"`
}

// isOpen reports whether the day has usable opening hours
func (d DayHours) isOpen() bool {
	return !d.IsClosed && nonEmpty(d.Open, d.Close)
}

// OperatingHours covers the full week
type OperatingHours struct {
	Monday    DayHours `json:"monday" bson:"monday"`
	Tuesday   DayHours `json:"tuesday" bson:"tuesday"`
	Wednesday DayHours `json:"wednesday" bson:"wednesday"`
	Thursday  DayHours `json:"thursday" bson:"thursday"`
	Friday    DayHours `json:"friday" bson:"friday"`
	Saturday  DayHours `json:"saturday" bson:"saturday"`
	Sunday    DayHours `json:"sunday" bson:"sunday"`
}

// Days returns the week in order starting from Monday
func (h OperatingHours) Days() []DayHours {
	return []DayHours{h.Monday, h.Tuesday, h.Wednesday, h.Thursday, h.Friday, h.Saturday, h.Sunday}
}

// HasOpenDay reports whether at least one day is open with both times set
func (h OperatingHours) HasOpenDay() bool {
	for _, d := range h.Days() {
		if d.isOpen() {
			return true
		}
	}
	return false
}

// PriceRange is the derived min/max price across a listing's priced items
type PriceRange struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

func priceRangeOf(prices []float64) PriceRange {
	if len(prices) == 0 {
		return PriceRange{}
	}
	r := PriceRange{Min: prices[0], Max: prices[0]}
	for _, p := range prices[1:] {
		if p < r.Min {
			r.Min = p
		}
		if p > r.Max {
			r.Max = p
		}
	}
	return r
}

// nonEmpty reports whether every value has content after trimming whitespace
func nonEmpty(values ...string) bool {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			return false
		}
	}
	return true
}
