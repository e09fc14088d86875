package ports

import (
	"context"

	"github.com/99minutos/carrier-bindings/internal/core/domain"
)

// Carrier is a client binding for one carrier web service. Operations a
// carrier does not offer return domain.ErrUnsupportedOperation.
//
// When the carrier answers but reports failure, implementations return the
// parsed response together with a *domain.CarrierRejected error so callers
// can still inspect the raw exchange.
type Carrier interface {
	Name() string
	FindRates(ctx context.Context, origin, destination domain.Location, packages []domain.Package, opts domain.Options) (*domain.RateResponse, error)
	FindTrackingInfo(ctx context.Context, trackingNumber string, opts domain.Options) (*domain.TrackingResponse, error)
	FindTransitTime(ctx context.Context, origin, destination domain.Location, packages []domain.Package, opts domain.Options) (*domain.TransitTimeResponse, error)
	GetLabel(ctx context.Context, origin, destination domain.Location, packages []domain.Package, opts domain.Options) (*domain.LabelResponse, error)
}

// Poster sends a request body to a carrier endpoint and returns the raw
// response body. Failures are reported as *domain.TransportError.
type Poster interface {
	Post(ctx context.Context, url, contentType string, body []byte) ([]byte, error)
}
