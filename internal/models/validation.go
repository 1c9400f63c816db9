package models

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	lkphone "github.com/travellanka/listings-backend/pkg/validator"
)

// enumTags maps custom validator tags to their accepted values
var enumTags = map[string][]string{
	"amenity":           HotelAmenities,
	"roomtype":          RoomTypes,
	"cuisine":           Cuisines,
	"restaurantfeature": RestaurantFeatures,
	"pricelevel":        PriceLevels,
	"transporttype":     TransportTypes,
	"vehicletype":       VehicleTypes,
	"vehiclefeature":    VehicleFeatures,
}

var (
	validatorOnce   sync.Once
	listingValidate *validator.Validate
	phones          = lkphone.NewPhoneValidator()
)

func listingValidator() *validator.Validate {
	validatorOnce.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		for tag, allowed := range enumTags {
			allowed := allowed
			_ = v.RegisterValidation(tag, func(fl validator.FieldLevel) bool {
				return contains(allowed, fl.Field().String())
			})
		}
		_ = v.RegisterValidation("lkphone", func(fl validator.FieldLevel) bool {
			return phones.IsValid(fl.Field().String())
		})
		listingValidate = v
	})
	return listingValidate
}

// Validate checks field constraints and enum values. It returns one
// human-readable message per offending field, or nil when the listing is valid.
func Validate(l BusinessListing) []string {
	err := listingValidator().Struct(l)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	messages := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		messages = append(messages, describeFieldError(fe))
	}
	return messages
}

// fieldPath turns "Hotel.ListingBase.rooms[0].type" into "rooms[0].type"
func fieldPath(fe validator.FieldError) string {
	parts := strings.Split(fe.Namespace(), ".")
	kept := make([]string, 0, len(parts))
	for i, p := range parts {
		if i == 0 || p == "ListingBase" {
			continue
		}
		kept = append(kept, p)
	}
	return strings.Join(kept, ".")
}

func describeFieldError(fe validator.FieldError) string {
	field := fieldPath(fe)
	if _, ok := enumTags[fe.Tag()]; ok {
		return fmt.Sprintf("%s has an unsupported value %q", field, fe.Value())
	}

	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", field)
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
		}
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "min", "gte":
		if fe.Param() == "0" {
			return fmt.Sprintf("%s cannot be negative", field)
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "lte":
		return fmt.Sprintf("%s must be at most %s", field, fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email", field)
	case "lkphone":
		return fmt.Sprintf("%s must be a valid Sri Lankan phone number", field)
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	}
	return fmt.Sprintf("%s is invalid", field)
}

// IsValidEmail applies the same email rule used for listing contacts
func IsValidEmail(email string) bool {
	return listingValidator().Var(email, "required,email") == nil
}

func contains(values []string, v string) bool {
	for _, candidate := range values {
		if candidate == v {
			return true
		}
	}
	return false
}
