package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PickupType is how the carrier receives the parcel.
type PickupType string

const (
	PickupDaily                PickupType = "daily_pickup"
	PickupCustomerCounter      PickupType = "customer_counter"
	PickupOneTime              PickupType = "one_time_pickup"
	PickupOnCallAir            PickupType = "on_call_air"
	PickupSuggestedRetailRates PickupType = "suggested_retail_rates"
	PickupLetterCenter         PickupType = "letter_center"
	PickupAirServiceCenter     PickupType = "air_service_center"
)

// Classification is the UPS customer classification used for rating.
type Classification string

const (
	ClassificationWholesale  Classification = "wholesale"
	ClassificationOccasional Classification = "occasional"
	ClassificationRetail     Classification = "retail"
)

// DefaultClassification picks the classification UPS documents for a pickup
// type. Daily pickups rate as wholesale and counter drop-offs as retail.
func DefaultClassification(pickup PickupType) Classification {
	switch pickup {
	case PickupDaily:
		return ClassificationWholesale
	case PickupCustomerCounter:
		return ClassificationRetail
	default:
		return ClassificationOccasional
	}
}

// PayType selects who is billed for a label.
type PayType string

const (
	PayPrepaid        PayType = "prepaid"
	PayConsignee      PayType = "consignee"
	PayBillThirdParty PayType = "bill_third_party"
	PayFreightCollect PayType = "freight_collect"
)

// CustomsItem is one declared line of a customs form.
type CustomsItem struct {
	Quantity    int             `json:"quantity"`
	Value       decimal.Decimal `json:"value"`
	Weight      float64         `json:"weight"`
	Description string          `json:"description"`
	Country     string          `json:"country"`
}

// Customs describes the customs declaration attached to a label.
// Certify defaults to true; only an explicit false is sent as such.
type Customs struct {
	FormType     string        `json:"form_type,omitempty"`
	Certify      *bool         `json:"certify,omitempty"`
	Signer       string        `json:"signer,omitempty"`
	ContentsType string        `json:"contents_type,omitempty"`
	Items        []CustomsItem `json:"items,omitempty"`
}

// Options is the per-call option set. Zero values mean "not set".
type Options struct {
	// Credential overrides; empty fields fall back to the client's config.
	Key         string
	Login       string
	Password    string
	AccountID   string
	RequesterID string

	// Test selects the carrier's test host. Nil falls back to the client's config.
	Test *bool

	PickupType             PickupType
	CustomerClassification Classification
	ServiceType            string
	PayType                PayType
	OriginAccount          string
	DestinationAccount     string
	BillingAccount         string
	BillingZip             string
	BillingCountry         string
	ImageType              string
	Customs                *Customs
	TransactionID          string
	CustomerID             string
	PackageType            string
	Shipper                *Location
	PickupDate             time.Time
	CurrencyCode           string
	InsuredValue           decimal.Decimal
	Description            string
	ReturnServiceCode      string
}

// Bool returns a pointer to b, for optional flags.
func Bool(b bool) *bool { return &b }
