package domain

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
)

var addressValidate = validator.New(validator.WithRequiredStructEnabled())

// requiredAddress holds the fields carriers refuse to label without. Field
// order is the order missing fields are reported in.
type requiredAddress struct {
	State    string `validate:"required" label:"state"`
	City     string `validate:"required" label:"city"`
	Zip      string `validate:"required" label:"zip"`
	Address1 string `validate:"required" label:"address1"`
}

func init() {
	addressValidate.RegisterTagNameFunc(func(f reflect.StructField) string {
		return f.Tag.Get("label")
	})
}

// MissingAddressFields returns "<role> <field>" for every required field that
// is blank in loc, e.g. "ShipFrom city". A country that does not resolve to an
// ISO code is reported as "<role> country".
func MissingAddressFields(role string, loc Location) []string {
	err := addressValidate.Struct(requiredAddress{
		State:    strings.TrimSpace(loc.State),
		City:     strings.TrimSpace(loc.City),
		Zip:      strings.TrimSpace(loc.PostalCode),
		Address1: strings.TrimSpace(loc.Address1),
	})
	var missing []string
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		for _, fe := range verrs {
			missing = append(missing, role+" "+fe.Field())
		}
	}
	return append(missing, MissingCountry(role, loc)...)
}

// MissingCountry returns "<role> country" when loc's country is blank or
// unknown. Rates and transit times need nothing else from an address.
func MissingCountry(role string, loc Location) []string {
	if loc.CountryCode() == "" {
		return []string{role + " country"}
	}
	return nil
}
