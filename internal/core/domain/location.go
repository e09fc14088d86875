package domain

import (
	"strings"
	"unicode"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Location is a postal address as carriers see it.
type Location struct {
	Name          string `json:"name,omitempty"`
	Company       string `json:"company,omitempty"`
	AttentionName string `json:"attention_name,omitempty"`
	TaxID         string `json:"tax_id,omitempty"`
	Address1      string `json:"address1,omitempty"`
	Address2      string `json:"address2,omitempty"`
	Address3      string `json:"address3,omitempty"`
	City          string `json:"city,omitempty"`
	State         string `json:"state,omitempty"` // state or province code
	PostalCode    string `json:"postal_code,omitempty"`
	Country       string `json:"country,omitempty"`
	Phone         string `json:"phone,omitempty"`
	Fax           string `json:"fax,omitempty"`
	Email         string `json:"email,omitempty"`
	Commercial    bool   `json:"commercial,omitempty"`
}

// usTerritories are US states for addressing purposes but separate countries
// for UPS.
var usTerritories = map[string]struct{}{
	"AS": {}, "FM": {}, "GU": {}, "MH": {}, "MP": {}, "PW": {}, "PR": {}, "VI": {},
}

// CountryCode returns the ISO 3166-1 alpha-2 code for the location's country,
// or "" when it cannot be resolved.
func (l Location) CountryCode() string {
	return NormalizeCountry(l.Country)
}

// IsDomesticTo reports whether both locations are in the same country.
func (l Location) IsDomesticTo(other Location) bool {
	code := l.CountryCode()
	return code != "" && code == other.CountryCode()
}

// AsCountryIfTerritory rewrites a US-territory address so that the territory
// code becomes the country.
func (l Location) AsCountryIfTerritory() Location {
	state := strings.ToUpper(strings.TrimSpace(l.State))
	if l.CountryCode() != "US" {
		return l
	}
	if _, ok := usTerritories[state]; !ok {
		return l
	}
	out := l
	out.Country = state
	return out
}

// Digits strips everything but 0-9 from s.
func Digits(s string) string {
	return strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, s)
}

// countryNames maps upper-cased English region names to alpha-2 codes.
var countryNames = buildCountryNames()

func buildCountryNames() map[string]string {
	names := make(map[string]string, 300)
	namer := display.English.Regions()
	for a := 'A'; a <= 'Z'; a++ {
		for b := 'A'; b <= 'Z'; b++ {
			region, err := language.ParseRegion(string([]rune{a, b}))
			if err != nil || !region.IsCountry() {
				continue
			}
			if name := namer.Name(region); name != "" {
				names[strings.ToUpper(name)] = region.String()
			}
		}
	}
	// common spellings the CLDR names do not cover
	names["USA"] = "US"
	names["UNITED STATES OF AMERICA"] = "US"
	names["GREAT BRITAIN"] = "GB"
	return names
}

// NormalizeCountry resolves alpha-2, alpha-3, UN M.49 numeric codes and
// English country names to an alpha-2 code.
func NormalizeCountry(country string) string {
	s := strings.TrimSpace(country)
	if s == "" {
		return ""
	}
	upper := strings.ToUpper(s)
	if code, ok := countryNames[upper]; ok {
		return code
	}
	if isCode(upper) {
		if region, err := language.ParseRegion(upper); err == nil {
			region = region.Canonicalize()
			if region.IsCountry() {
				return region.String()
			}
		}
	}
	return ""
}

func isCode(s string) bool {
	if len(s) < 2 || len(s) > 3 {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) && !unicode.IsDigit(r) {
			return false
		}
	}
	return true
}
