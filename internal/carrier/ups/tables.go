package ups

import "github.com/99minutos/carrier-bindings/internal/core/domain"

const (
	testURL = "https://wwwcie.ups.com"
	liveURL = "https://onlinetools.ups.com"
)

const (
	actionAccept = "accept"
)

var resources = map[string]string{
	domain.ActionRates:   "ups.app/xml/Rate",
	domain.ActionTrack:   "ups.app/xml/Track",
	domain.ActionTransit: "ups.app/xml/TimeInTransit",
	domain.ActionLabel:   "ups.app/xml/ShipConfirm",
	actionAccept:         "ups.app/xml/ShipAccept",
}

var pickupCodes = map[domain.PickupType]string{
	domain.PickupDaily:                "01",
	domain.PickupCustomerCounter:      "03",
	domain.PickupOneTime:              "06",
	domain.PickupOnCallAir:            "07",
	domain.PickupSuggestedRetailRates: "11",
	domain.PickupLetterCenter:         "19",
	domain.PickupAirServiceCenter:     "20",
}

var classificationCodes = map[domain.Classification]string{
	domain.ClassificationWholesale:  "01",
	domain.ClassificationOccasional: "03",
	domain.ClassificationRetail:     "04",
}

var defaultServices = map[string]string{
	"01": "UPS Next Day Air",
	"02": "UPS Second Day Air",
	"03": "UPS Ground",
	"07": "UPS Worldwide Express",
	"08": "UPS Worldwide Expedited",
	"11": "UPS Standard",
	"12": "UPS Three-Day Select",
	"13": "UPS Next Day Air Saver",
	"14": "UPS Next Day Air Early A.M.",
	"54": "UPS Worldwide Express Plus",
	"59": "UPS Second Day Air A.M.",
	"65": "UPS Saver",
	"82": "UPS Today Standard",
	"83": "UPS Today Dedicated Courier",
	"84": "UPS Today Intercity",
	"85": "UPS Today Express",
	"86": "UPS Today Express Saver",
}

var canadaOriginServices = map[string]string{
	"01": "UPS Express",
	"02": "UPS Expedited",
	"14": "UPS Express Early A.M.",
}

var mexicoOriginServices = map[string]string{
	"07": "UPS Express",
	"08": "UPS Expedited",
	"54": "UPS Express Plus",
}

var euOriginServices = map[string]string{
	"07": "UPS Express",
	"08": "UPS Expedited",
}

var otherNonUSOriginServices = map[string]string{
	"07": "UPS Express",
}

var euCountryCodes = map[string]struct{}{
	"GB": {}, "AT": {}, "BE": {}, "BG": {}, "CY": {}, "CZ": {}, "DK": {}, "EE": {}, "FI": {},
	"FR": {}, "DE": {}, "GR": {}, "HU": {}, "IE": {}, "IT": {}, "LV": {}, "LT": {}, "LU": {},
	"MT": {}, "NL": {}, "PL": {}, "PT": {}, "RO": {}, "SK": {}, "SI": {}, "ES": {}, "SE": {},
}

var trackingStatusCodes = map[string]domain.TrackingStatus{
	"I": domain.TrackingInTransit,
	"D": domain.TrackingDelivered,
	"X": domain.TrackingException,
	"P": domain.TrackingPickup,
	"M": domain.TrackingManifestPickup,
}

var paymentTypes = map[domain.PayType]string{
	domain.PayPrepaid:        "Prepaid",
	domain.PayConsignee:      "Consignee",
	domain.PayBillThirdParty: "BillThirdParty",
	domain.PayFreightCollect: "FreightCollect",
}

// serviceNameFor translates a service code using the table for the origin
// country, falling back to the US names.
func serviceNameFor(origin domain.Location, code string) string {
	country := origin.CountryCode()
	var name string
	switch {
	case country == "CA":
		name = canadaOriginServices[code]
	case country == "MX":
		name = mexicoOriginServices[code]
	case isEU(country):
		name = euOriginServices[code]
	}
	if name == "" && country != "US" {
		name = otherNonUSOriginServices[code]
	}
	if name == "" {
		name = defaultServices[code]
	}
	return name
}

// serviceCodeFor accepts either a service code or a US service name and
// defaults to Ground.
func serviceCodeFor(service string) string {
	if service == "" {
		return "03"
	}
	if _, ok := defaultServices[service]; ok {
		return service
	}
	for code, name := range defaultServices {
		if name == service {
			return code
		}
	}
	return "03"
}

func isEU(country string) bool {
	_, ok := euCountryCodes[country]
	return ok
}
