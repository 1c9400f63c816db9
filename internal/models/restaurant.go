package models

// RestaurantSections is the ordered list of restaurant setup sections
var RestaurantSections = []string{SectionBasicInfo, SectionLocation, SectionContact, SectionMenu, SectionHours, SectionCapacity}

// Cuisines are the accepted cuisine values
var Cuisines = []string{
	"Sri Lankan", "Indian", "Chinese", "Italian", "Thai", "Japanese",
	"Continental", "Seafood", "Vegetarian", "Vegan", "Fast Food",
	"Bakery", "Cafe", "Bar & Grill", "Fine Dining", "Buffet",
}

// RestaurantFeatures are the accepted restaurant feature values
var RestaurantFeatures = []string{
	"WiFi", "Parking", "AC", "Outdoor Seating", "Private Dining",
	"Live Music", "Delivery", "Takeaway", "Bar", "Kids Menu",
	"Wheelchair Accessible", "Pet Friendly", "Beach View", "Garden View",
}

// PriceLevels are the accepted restaurant price level values
var PriceLevels = []string{"Budget", "Mid-range", "Fine Dining", "Luxury"}

const (
	DefaultPriceLevel         = "Budget"
	DefaultRestaurantCapacity = 1
)

// Restaurant is a dining listing
type Restaurant struct {
	ListingBase    `bson:",inline"`
	Location       Location       `json:"location" bson:"location"`
	Contact        Contact        `json:"contact" bson:"contact"`
	Cuisine        []string       `json:"cuisine" bson:"cuisine" validate:"dive,cuisine"`
	Features       []string       `json:"features" bson:"features" validate:"dive,restaurantfeature"`
	PriceRange     string         `json:"priceRange" bson:"priceRange" validate:"pricelevel"`
	Capacity       int            `json:"capacity" bson:"capacity" validate:"min=1"`
	OperatingHours OperatingHours `json:"operatingHours" bson:"operatingHours"`
	Menu           []MenuCategory `json:"menu" bson:"menu" validate:"dive"`
}

// MenuCategory groups menu items
type MenuCategory struct {
	Category string     `json:"category" bson:"category"`
	Items    []MenuItem `json:"items" bson:"items" validate:"dive"`
}

// MenuItem is a single dish
type MenuItem struct {
	Name         string   `json:"name" bson:"name" validate:"required"`
	Description  string   `json:"description" bson:"description"`
	Price        float64  `json:"price" bson:"price" validate:"gte=0"`
	IsVegetarian bool     `json:"isVegetarian" bson:"isVegetarian"`
	IsVegan      bool     `json:"isVegan" bson:"isVegan"`
	Allergens    []string `json:"allergens" bson:"allergens"`
	Image        string   `json:"image" bson:"image"`
}

// NewRestaurant returns a restaurant with schema defaults
func NewRestaurant() *Restaurant {
	return &Restaurant{
		ListingBase: newListingBase(emptyProgress(RestaurantSections)),
		Cuisine:     []string{},
		Features:    []string{},
		PriceRange:  DefaultPriceLevel,
		Capacity:    DefaultRestaurantCapacity,
		Menu:        []MenuCategory{},
	}
}

// Type implements BusinessListing
func (r *Restaurant) Type() BusinessType { return BusinessTypeRestaurant }

// AdminAssignedFields implements BusinessListing
func (r *Restaurant) AdminAssignedFields() []string { return []string{"name", "owner"} }

// SearchArea implements BusinessListing
func (r *Restaurant) SearchArea() []Area {
	return []Area{{City: r.Location.City, District: r.Location.District}}
}

// Evaluate implements BusinessListing
func (r *Restaurant) Evaluate() CompletionResult {
	return evaluateSections(
		section{SectionBasicInfo, nonEmpty(r.Description)},
		section{SectionLocation, nonEmpty(r.Location.Address, r.Location.City, r.Location.District)},
		section{SectionContact, nonEmpty(r.Contact.Phone)},
		section{SectionMenu, r.hasMenuItems()},
		section{SectionHours, r.OperatingHours.HasOpenDay()},
		section{SectionCapacity, r.Capacity > 0},
	)
}

func (r *Restaurant) hasMenuItems() bool {
	for _, c := range r.Menu {
		if len(c.Items) > 0 {
			return true
		}
	}
	return false
}
