package models

// Requirement describes what a setup section needs
type Requirement struct {
	Section string   `json:"section"`
	Needs   []string `json:"needs"`
}

var requirements = map[BusinessType][]Requirement{
	BusinessTypeHotel: {
		{SectionBasicInfo, []string{"description"}},
		{SectionLocation, []string{"address", "city", "district"}},
		{SectionContact, []string{"phone"}},
		{SectionRooms, []string{"At least one room type with pricing"}},
		{SectionAmenities, []string{"Optional - can be added later"}},
		{SectionPolicies, []string{"checkInTime", "checkOutTime"}},
	},
	BusinessTypeRestaurant: {
		{SectionBasicInfo, []string{"description"}},
		{SectionLocation, []string{"address", "city", "district"}},
		{SectionContact, []string{"phone"}},
		{SectionMenu, []string{"At least one menu category with items"}},
		{SectionHours, []string{"Operating hours for at least one day"}},
		{SectionCapacity, []string{"Seating capacity"}},
	},
	BusinessTypeTransport: {
		{SectionBasicInfo, []string{"description"}},
		{SectionContact, []string{"phone"}},
		{SectionServiceArea, []string{"At least one service area"}},
		{SectionVehicles, []string{"At least one vehicle with pricing"}},
		{SectionPolicies, []string{"Basic terms and conditions"}},
	},
}

// Requirements returns the section requirements for a business type,
// keyed by section name. Unknown types yield an empty table.
func Requirements(t BusinessType) map[string][]string {
	table := map[string][]string{}
	for _, r := range requirements[t] {
		table[r.Section] = append([]string{}, r.Needs...)
	}
	return table
}

// Sections returns the ordered section names for a business type
func Sections(t BusinessType) []string {
	switch t {
	case BusinessTypeHotel:
		return HotelSections
	case BusinessTypeRestaurant:
		return RestaurantSections
	case BusinessTypeTransport:
		return TransportSections
	}
	return nil
}
