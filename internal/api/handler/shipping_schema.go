package handler

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/99minutos/carrier-bindings/internal/core/domain"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// --- Request types ---

type locationRequest struct {
	Name          string `json:"name"`
	Company       string `json:"company"`
	AttentionName string `json:"attention_name"`
	TaxID         string `json:"tax_id"`
	Address1      string `json:"address1"`
	Address2      string `json:"address2"`
	Address3      string `json:"address3"`
	City          string `json:"city"`
	State         string `json:"state"`
	PostalCode    string `json:"postal_code"`
	Country       string `json:"country"        validate:"required"`
	Phone         string `json:"phone"`
	Fax           string `json:"fax"`
	Email         string `json:"email"          validate:"omitempty,email"`
	Commercial    bool   `json:"commercial"`
}

// packageRequest takes weight and dimensions in the given units: ounces and
// inches for imperial (the default), grams and centimeters for metric.
type packageRequest struct {
	Weight     float64         `json:"weight"     validate:"gt=0"`
	Dimensions [3]float64      `json:"dimensions" validate:"dive,gte=0"`
	Units      string          `json:"units"      validate:"omitempty,oneof=imperial metric"`
	Value      decimal.Decimal `json:"value"`
	Currency   string          `json:"currency"   validate:"omitempty,len=3"`
}

type customsItemRequest struct {
	Quantity    int             `json:"quantity"    validate:"gt=0"`
	Value       decimal.Decimal `json:"value"`
	Weight      float64         `json:"weight"      validate:"gte=0"`
	Description string          `json:"description" validate:"required"`
	Country     string          `json:"country"`
}

type customsRequest struct {
	FormType     string               `json:"form_type"`
	Certify      *bool                `json:"certify"`
	Signer       string               `json:"signer"`
	ContentsType string               `json:"contents_type"`
	Items        []customsItemRequest `json:"items" validate:"dive"`
}

// optionsRequest mirrors domain.Options minus credentials, which only ever
// come from server configuration.
type optionsRequest struct {
	Test                   *bool            `json:"test"`
	PickupType             string           `json:"pickup_type"`
	CustomerClassification string           `json:"customer_classification"`
	ServiceType            string           `json:"service_type"`
	PayType                string           `json:"pay_type"              validate:"omitempty,oneof=prepaid consignee bill_third_party freight_collect"`
	OriginAccount          string           `json:"origin_account"`
	DestinationAccount     string           `json:"destination_account"`
	BillingAccount         string           `json:"billing_account"`
	BillingZip             string           `json:"billing_zip"`
	BillingCountry         string           `json:"billing_country"`
	ImageType              string           `json:"image_type"`
	Customs                *customsRequest  `json:"customs"`
	TransactionID          string           `json:"transaction_id"`
	CustomerID             string           `json:"customer_id"`
	PackageType            string           `json:"package_type"`
	Shipper                *locationRequest `json:"shipper"`
	PickupDate             string           `json:"pickup_date"           validate:"omitempty,datetime=2006-01-02"`
	CurrencyCode           string           `json:"currency_code"         validate:"omitempty,len=3"`
	InsuredValue           decimal.Decimal  `json:"insured_value"`
	Description            string           `json:"description"`
	ReturnServiceCode      string           `json:"return_service_code"`
}

type shipmentRequest struct {
	Origin      locationRequest  `json:"origin"      validate:"required"`
	Destination locationRequest  `json:"destination" validate:"required"`
	Packages    []packageRequest `json:"packages"    validate:"required,min=1,max=50,dive"`
	Options     optionsRequest   `json:"options"`
}

type trackingBatchRequest struct {
	TrackingNumbers []string `json:"tracking_numbers" validate:"required,min=1,max=100,dive,required"`
}

// --- Response types ---

type carriersResponse struct {
	Carriers []string `json:"carriers"`
}

type batchTrackingItem struct {
	TrackingNumber string                   `json:"tracking_number"`
	Tracking       *domain.TrackingResponse `json:"tracking,omitempty"`
	Error          string                   `json:"error,omitempty"`
}

type batchTrackingResponse struct {
	Carrier string              `json:"carrier"`
	Results []batchTrackingItem `json:"results"`
}

// labelItem carries images base64-encoded, as encoding/json does for []byte.
type labelItem struct {
	TrackingNumber  string `json:"tracking_number"`
	Format          string `json:"format"`
	ArchiveID       string `json:"archive_id,omitempty"`
	Image           []byte `json:"image"`
	HighValueReport []byte `json:"high_value_report,omitempty"`
}

// labelResponse sets Error when the purchase stopped after Labels were paid for.
type labelResponse struct {
	Carrier       string      `json:"carrier"`
	TransactionID string      `json:"transaction_id,omitempty"`
	Message       string      `json:"message,omitempty"`
	Error         string      `json:"error,omitempty"`
	Labels        []labelItem `json:"labels"`
	CreatedAt     time.Time   `json:"created_at"`
}
