package models

// Hotel setup sections
const (
	SectionBasicInfo   = "basicInfo"
	SectionLocation    = "location"
	SectionContact     = "contact"
	SectionRooms       = "rooms"
	SectionAmenities   = "amenities"
	SectionPolicies    = "policies"
	SectionMenu        = "menu"
	SectionHours       = "hours"
	SectionCapacity    = "capacity"
	SectionServiceArea = "serviceArea"
	SectionVehicles    = "vehicles"
)

// Hotel schema defaults
const (
	DefaultCheckInTime  = "14:00"
	DefaultCheckOutTime = "11:00"
	DefaultStarRating   = 3
)

// HotelSections is the ordered list of hotel setup sections
var HotelSections = []string{SectionBasicInfo, SectionLocation, SectionContact, SectionRooms, SectionAmenities, SectionPolicies}

// HotelAmenities are the accepted amenity values
var HotelAmenities = []string{
	"WiFi", "Pool", "Gym", "Spa", "Restaurant", "Bar", "Parking",
	"AC", "Room Service", "Laundry", "Business Center", "Pet Friendly",
	"Airport Shuttle", "Beach Access", "Garden", "Terrace",
}

// RoomTypes are the accepted room type values
var RoomTypes = []string{"Single", "Double", "Triple", "Suite", "Family", "Deluxe"}

// Hotel is an accommodation listing
type Hotel struct {
	ListingBase  `bson:",inline"`
	Location     Location      `json:"location" bson:"location"`
	Contact      Contact       `json:"contact" bson:"contact"`
	Amenities    []string      `json:"amenities" bson:"amenities" validate:"dive,amenity"`
	Rooms        []Room        `json:"rooms" bson:"rooms" validate:"dive"`
	StarRating   int           `json:"starRating" bson:"starRating" validate:"min=1,max=5"`
	CheckInTime  string        `json:"checkInTime" bson:"checkInTime"`
	CheckOutTime string        `json:"checkOutTime" bson:"checkOutTime"`
	Policies     HotelPolicies `json:"policies" bson:"policies"`
}

// Room is a bookable room type with its nightly price
type Room struct {
	Type          string   `json:"type" bson:"type" validate:"required,roomtype"`
	PricePerNight float64  `json:"pricePerNight" bson:"pricePerNight" validate:"gte=0"`
	Capacity      int      `json:"capacity" bson:"capacity" validate:"min=1"`
	Available     int      `json:"available" bson:"available" validate:"gte=0"`
	Features      []string `json:"features" bson:"features"`
}

// HotelPolicies are free-text house rules
type HotelPolicies struct {
	Cancellation string `json:"cancellation" bson:"cancellation"`
	Children     string `json:"children" bson:"children"`
	Pets         string `json:"pets" bson:"pets"`
	Smoking      string `json:"smoking" bson:"smoking"`
}

// NewHotel returns a hotel with schema defaults
func NewHotel() *Hotel {
	return &Hotel{
		ListingBase:  newListingBase(emptyProgress(HotelSections)),
		Amenities:    []string{},
		Rooms:        []Room{},
		StarRating:   DefaultStarRating,
		CheckInTime:  DefaultCheckInTime,
		CheckOutTime: DefaultCheckOutTime,
	}
}

// Type implements BusinessListing
func (h *Hotel) Type() BusinessType { return BusinessTypeHotel }

// AdminAssignedFields implements BusinessListing
func (h *Hotel) AdminAssignedFields() []string { return []string{"name", "owner"} }

// SearchArea implements BusinessListing
func (h *Hotel) SearchArea() []Area {
	return []Area{{City: h.Location.City, District: h.Location.District}}
}

// Evaluate implements BusinessListing. Amenities are optional and always
// count as satisfied; check-in/out times carry defaults so policies is
// satisfied unless the owner blanks them.
func (h *Hotel) Evaluate() CompletionResult {
	return evaluateSections(
		section{SectionBasicInfo, nonEmpty(h.Description)},
		section{SectionLocation, nonEmpty(h.Location.Address, h.Location.City, h.Location.District)},
		section{SectionContact, nonEmpty(h.Contact.Phone)},
		section{SectionRooms, len(h.Rooms) > 0},
		section{SectionAmenities, true},
		section{SectionPolicies, nonEmpty(h.CheckInTime, h.CheckOutTime)},
	)
}

// PriceRange spans the nightly price of every room type
func (h *Hotel) PriceRange() PriceRange {
	prices := make([]float64, 0, len(h.Rooms))
	for _, r := range h.Rooms {
		prices = append(prices, r.PricePerNight)
	}
	return priceRangeOf(prices)
}
