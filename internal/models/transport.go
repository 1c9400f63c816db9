package models

// TransportSections is the ordered list of transport setup sections
var TransportSections = []string{SectionBasicInfo, SectionContact, SectionServiceArea, SectionVehicles, SectionPolicies}

// TransportTypes are the service categories an admin can assign
var TransportTypes = []string{
	"Car Rental", "Taxi Service", "Bus Service", "Train Service",
	"Tuk Tuk", "Motorbike Rental", "Bicycle Rental", "Boat Service",
	"Helicopter Tour", "Airport Transfer", "Tour Package",
}

// DefaultTransportType is assigned when an admin provisions a transport owner without a type
const DefaultTransportType = "Car Rental"

// VehicleTypes are the accepted vehicle type values
var VehicleTypes = []string{
	"Sedan", "SUV", "Van", "Bus", "Luxury Car", "Tuk Tuk",
	"Motorbike", "Bicycle", "Boat", "Helicopter", "Train",
}

// VehicleFeatures are the accepted vehicle feature values
var VehicleFeatures = []string{
	"AC", "GPS", "WiFi", "Driver Included", "Fuel Included",
	"Insurance", "Child Seat", "Wheelchair Accessible",
	"Luxury Interior", "Sound System", "Refrigerator",
}

// Distances used to compare per-km and per-hour rates with daily rates
const (
	comparisonKm    = 100
	comparisonHours = 8
)

// Transport is a transport service listing
type Transport struct {
	ListingBase    `bson:",inline"`
	ServiceType    string             `json:"type" bson:"type" validate:"required,transporttype"`
	ServiceArea    []Area             `json:"serviceArea" bson:"serviceArea"`
	Contact        Contact            `json:"contact" bson:"contact"`
	Vehicles       []Vehicle          `json:"vehicles" bson:"vehicles" validate:"dive"`
	Services       []TransportService `json:"services" bson:"services" validate:"dive"`
	OperatingHours OperatingHours     `json:"operatingHours" bson:"operatingHours"`
	Policies       TransportPolicies  `json:"policies" bson:"policies"`
}

// Vehicle is a vehicle in the fleet; any of the three rates may be set
type Vehicle struct {
	Type         string   `json:"type" bson:"type" validate:"required,vehicletype"`
	Model        string   `json:"model" bson:"model"`
	Year         int      `json:"year" bson:"year" validate:"omitempty,min=1900,max=2100"`
	Capacity     int      `json:"capacity" bson:"capacity" validate:"min=1"`
	PricePerDay  float64  `json:"pricePerDay" bson:"pricePerDay" validate:"gte=0"`
	PricePerKm   float64  `json:"pricePerKm" bson:"pricePerKm" validate:"gte=0"`
	PricePerHour float64  `json:"pricePerHour" bson:"pricePerHour" validate:"gte=0"`
	Features     []string `json:"features" bson:"features" validate:"dive,vehiclefeature"`
	Available    int      `json:"available" bson:"available" validate:"gte=0"`
	Images       []string `json:"images" bson:"images"`
	IsActive     bool     `json:"isActive" bson:"isActive"`
}

// HasPrice reports whether at least one rate is set
func (v Vehicle) HasPrice() bool {
	return v.PricePerDay > 0 || v.PricePerKm > 0 || v.PricePerHour > 0
}

// TransportService is an add-on package such as a day tour
type TransportService struct {
	Name        string   `json:"name" bson:"name"`
	Description string   `json:"description" bson:"description"`
	Price       float64  `json:"price" bson:"price" validate:"gte=0"`
	Duration    string   `json:"duration" bson:"duration"`
	Includes    []string `json:"includes" bson:"includes"`
}

// TransportPolicies are free-text terms of service
type TransportPolicies struct {
	Cancellation  string `json:"cancellation" bson:"cancellation"`
	Deposit       string `json:"deposit" bson:"deposit"`
	DriverLicense string `json:"driverLicense" bson:"driverLicense"`
	Age           string `json:"age" bson:"age"`
	Insurance     string `json:"insurance" bson:"insurance"`
}

// NewTransport returns a transport listing with schema defaults
func NewTransport() *Transport {
	return &Transport{
		ListingBase: newListingBase(emptyProgress(TransportSections)),
		ServiceType: DefaultTransportType,
		ServiceArea: []Area{},
		Vehicles:    []Vehicle{},
		Services:    []TransportService{},
	}
}

// Type implements BusinessListing
func (t *Transport) Type() BusinessType { return BusinessTypeTransport }

// AdminAssignedFields implements BusinessListing. The service type is
// chosen when the owner is provisioned and cannot be changed by the owner.
func (t *Transport) AdminAssignedFields() []string { return []string{"name", "owner", "type"} }

// SearchArea implements BusinessListing
func (t *Transport) SearchArea() []Area {
	return t.ServiceArea
}

// Evaluate implements BusinessListing
func (t *Transport) Evaluate() CompletionResult {
	return evaluateSections(
		section{SectionBasicInfo, nonEmpty(t.Description)},
		section{SectionContact, nonEmpty(t.Contact.Phone)},
		section{SectionServiceArea, len(t.ServiceArea) > 0},
		section{SectionVehicles, t.hasPricedVehicle()},
		section{SectionPolicies, nonEmpty(t.Policies.Cancellation) || nonEmpty(t.Policies.Deposit)},
	)
}

func (t *Transport) hasPricedVehicle() bool {
	for _, v := range t.Vehicles {
		if v.HasPrice() {
			return true
		}
	}
	return false
}

// PriceRange compares daily rates with per-km rates over 100km and hourly rates over 8 hours
func (t *Transport) PriceRange() PriceRange {
	var prices []float64
	for _, v := range t.Vehicles {
		if v.PricePerDay > 0 {
			prices = append(prices, v.PricePerDay)
		}
		if v.PricePerKm > 0 {
			prices = append(prices, v.PricePerKm*comparisonKm)
		}
		if v.PricePerHour > 0 {
			prices = append(prices, v.PricePerHour*comparisonHours)
		}
	}
	return priceRangeOf(prices)
}

// TotalAvailable sums the available count of every vehicle
func (t *Transport) TotalAvailable() int {
	total := 0
	for _, v := range t.Vehicles {
		total += v.Available
	}
	return total
}
