package api

import (
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/rs/zerolog"

	"github.com/99minutos/carrier-bindings/internal/api/handler"
	"github.com/99minutos/carrier-bindings/internal/api/middleware"
	"github.com/99minutos/carrier-bindings/internal/core/domain"
	"github.com/99minutos/carrier-bindings/internal/core/ports"
)

// NewRouter builds the gateway's Echo instance with all /v1 routes registered.
func NewRouter(service ports.ShippingService, jwtSecret string, log zerolog.Logger) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(echomiddleware.BodyLimit("2M"))
	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			log.Info().
				Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	}))

	// --- Dependencies ---
	shippingHandler := handler.NewShippingHandler(service, log)

	// --- Carrier routes (bearer token required) ---
	v1 := e.Group("/v1", middleware.Auth(jwtSecret))
	v1.GET("/carriers", shippingHandler.Carriers)

	carrier := v1.Group("/carriers/:carrier")
	carrier.POST("/rates", shippingHandler.Rates)
	carrier.POST("/transit-times", shippingHandler.TransitTimes)
	carrier.GET("/tracking/:tracking_number", shippingHandler.Track)
	carrier.POST("/tracking/batch", shippingHandler.TrackBatch)
	carrier.POST("/labels", shippingHandler.PurchaseLabel, middleware.RBAC(domain.RoleAdmin, domain.RoleShipper))

	return e
}
