package ports

import (
	"context"

	"github.com/99minutos/carrier-bindings/internal/core/domain"
)

// ShipmentQuery is the input shared by rate, transit time and label requests.
type ShipmentQuery struct {
	Carrier     string
	Origin      domain.Location
	Destination domain.Location
	Packages    []domain.Package
	Options     domain.Options
}

// TrackingResult is one entry of a batch tracking lookup. Err is set instead
// of Response when the lookup failed.
type TrackingResult struct {
	TrackingNumber string
	Response       *domain.TrackingResponse
	Err            error
}

// LabelRecord describes one purchased label after it has been archived.
type LabelRecord struct {
	TrackingNumber  string
	Format          string
	ArchiveID       string
	Image           []byte
	HighValueReport []byte
}

// LabelReceipt is returned by PurchaseLabel. Partial marks a purchase that
// stopped with an error after Labels were paid for.
type LabelReceipt struct {
	Carrier       string
	TransactionID string
	Message       string
	Partial       bool
	Labels        []LabelRecord
}

// ShippingService defines the use cases exposed over HTTP.
type ShippingService interface {
	Carriers() []string
	FindRates(ctx context.Context, q ShipmentQuery) (*domain.RateResponse, error)
	TrackShipment(ctx context.Context, carrier, trackingNumber string, opts domain.Options) (*domain.TrackingResponse, error)
	TrackBatch(ctx context.Context, carrier string, trackingNumbers []string) ([]TrackingResult, error)
	FindTransitTime(ctx context.Context, q ShipmentQuery) (*domain.TransitTimeResponse, error)
	PurchaseLabel(ctx context.Context, q ShipmentQuery) (*LabelReceipt, error)
}
