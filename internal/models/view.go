package models

import "encoding/json"

// ListingView renders a listing together with its derived attributes
// (mainImage, completionPercentage and, where it applies, priceRange and
// totalAvailable). Derived values are computed at render time and never stored.
type ListingView struct {
	Listing BusinessListing
}

// NewListingView wraps a listing for API output
func NewListingView(l BusinessListing) ListingView {
	return ListingView{Listing: l}
}

// MarshalJSON implements json.Marshaler
func (v ListingView) MarshalJSON() ([]byte, error) {
	if v.Listing == nil {
		return []byte("null"), nil
	}

	raw, err := json.Marshal(v.Listing)
	if err != nil {
		return nil, err
	}

	var doc map[string]json.RawMessage
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, err
	}

	base := v.Listing.Base()
	derived := map[string]interface{}{
		"businessType":         v.Listing.Type(),
		"mainImage":            base.MainImage(),
		"completionPercentage": base.CompletionPercentage(),
	}

	switch l := v.Listing.(type) {
	case *Hotel:
		derived["priceRange"] = l.PriceRange()
	case *Transport:
		derived["priceRange"] = l.PriceRange()
		derived["totalAvailable"] = l.TotalAvailable()
	}

	for key, value := range derived {
		encoded, err := json.Marshal(value)
		if err != nil {
			return nil, err
		}
		doc[key] = encoded
	}

	return json.Marshal(doc)
}

// ListingViews wraps a slice of listings for API output
func ListingViews(listings []BusinessListing) []ListingView {
	views := make([]ListingView, 0, len(listings))
	for _, l := range listings {
		views = append(views, NewListingView(l))
	}
	return views
}
