package handler

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/rs/zerolog"

	"github.com/99minutos/carrier-bindings/internal/core/ports"
)

// ShippingHandler exposes the carrier bindings over HTTP.
type ShippingHandler struct {
	service ports.ShippingService
	logger  zerolog.Logger
	now     func() time.Time
}

func NewShippingHandler(service ports.ShippingService, logger zerolog.Logger) *ShippingHandler {
	return &ShippingHandler{service: service, logger: logger, now: time.Now}
}

// bindShipment binds and validates the shared shipment payload.
func (h *ShippingHandler) bindShipment(c echo.Context) (ports.ShipmentQuery, error) {
	var req shipmentRequest
	if err := c.Bind(&req); err != nil {
		return ports.ShipmentQuery{}, echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return ports.ShipmentQuery{}, echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	return toShipmentQuery(c.Param("carrier"), req)
}

// Carriers handles GET /v1/carriers.
//
// @Summary      List configured carriers
// @Tags         carriers
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  carriersResponse
// @Router       /v1/carriers [get]
func (h *ShippingHandler) Carriers(c echo.Context) error {
	return c.JSON(http.StatusOK, carriersResponse{Carriers: h.service.Carriers()})
}

// Rates handles POST /v1/carriers/:carrier/rates.
//
// @Summary      Shop rates for a shipment
// @Tags         rates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        carrier  path      string           true  "Carrier name (ups, endicia)"
// @Param        body     body      shipmentRequest  true  "Shipment"
// @Success      200      {object}  domain.RateResponse
// @Failure      400      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Failure      422      {object}  errorResponse
// @Failure      502      {object}  errorResponse
// @Router       /v1/carriers/{carrier}/rates [post]
func (h *ShippingHandler) Rates(c echo.Context) error {
	q, err := h.bindShipment(c)
	if err != nil {
		return err
	}
	resp, err := h.service.FindRates(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// Track handles GET /v1/carriers/:carrier/tracking/:tracking_number.
//
// @Summary      Track one shipment
// @Tags         tracking
// @Produce      json
// @Security     BearerAuth
// @Param        carrier          path      string  true  "Carrier name"
// @Param        tracking_number  path      string  true  "Tracking number (e.g. 1Z12345E0291980793)"
// @Param        test             query     bool    false "Use the carrier's test host"
// @Success      200              {object}  domain.TrackingResponse
// @Failure      404              {object}  errorResponse
// @Failure      502              {object}  errorResponse
// @Router       /v1/carriers/{carrier}/tracking/{tracking_number} [get]
func (h *ShippingHandler) Track(c echo.Context) error {
	number := strings.TrimSpace(c.Param("tracking_number"))
	if number == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "tracking_number is required")
	}
	opts, err := trackingOptions(c)
	if err != nil {
		return err
	}
	resp, err := h.service.TrackShipment(c.Request().Context(), c.Param("carrier"), number, opts)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// TrackBatch handles POST /v1/carriers/:carrier/tracking/batch. Individual
// lookup failures are reported per entry; the request itself still succeeds.
//
// @Summary      Track up to 100 shipments
// @Tags         tracking
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        carrier  path      string                true  "Carrier name"
// @Param        body     body      trackingBatchRequest  true  "Tracking numbers"
// @Success      200      {object}  batchTrackingResponse
// @Failure      400      {object}  errorResponse
// @Failure      404      {object}  errorResponse
// @Router       /v1/carriers/{carrier}/tracking/batch [post]
func (h *ShippingHandler) TrackBatch(c echo.Context) error {
	var req trackingBatchRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	carrier := c.Param("carrier")
	results, err := h.service.TrackBatch(c.Request().Context(), carrier, req.TrackingNumbers)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, toBatchTrackingResponse(carrier, results))
}

// TransitTimes handles POST /v1/carriers/:carrier/transit-times.
//
// @Summary      Estimate transit time per service
// @Tags         rates
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        carrier  path      string           true  "Carrier name"
// @Param        body     body      shipmentRequest  true  "Shipment"
// @Success      200      {object}  domain.TransitTimeResponse
// @Failure      400      {object}  errorResponse
// @Failure      501      {object}  errorResponse
// @Router       /v1/carriers/{carrier}/transit-times [post]
func (h *ShippingHandler) TransitTimes(c echo.Context) error {
	q, err := h.bindShipment(c)
	if err != nil {
		return err
	}
	resp, err := h.service.FindTransitTime(c.Request().Context(), q)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resp)
}

// PurchaseLabel handles POST /v1/carriers/:carrier/labels. The
// Idempotency-Key header stands in for options.transaction_id when the body
// leaves it empty.
//
// @Summary      Buy shipping labels
// @Tags         labels
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        carrier          path      string           true   "Carrier name"
// @Param        Idempotency-Key  header    string           false  "Transaction id guarding against double purchase"
// @Param        body             body      shipmentRequest  true   "Shipment"
// @Success      201              {object}  labelResponse
// @Success      207              {object}  labelResponse  "Some packages were paid for before the carrier failed"
// @Failure      400              {object}  errorResponse
// @Failure      403              {object}  errorResponse
// @Failure      409              {object}  errorResponse
// @Failure      422              {object}  errorResponse
// @Failure      502              {object}  errorResponse
// @Router       /v1/carriers/{carrier}/labels [post]
func (h *ShippingHandler) PurchaseLabel(c echo.Context) error {
	principal, err := ctxPrincipal(c)
	if err != nil {
		return err
	}
	q, err := h.bindShipment(c)
	if err != nil {
		return err
	}
	if q.Options.TransactionID == "" {
		q.Options.TransactionID = strings.TrimSpace(c.Request().Header.Get("Idempotency-Key"))
	}
	if q.Options.CustomerID == "" {
		q.Options.CustomerID = principal.Subject
	}

	receipt, err := h.service.PurchaseLabel(c.Request().Context(), q)
	if err != nil {
		if receipt == nil || !receipt.Partial {
			return err
		}
		h.logger.Warn().
			Err(err).
			Str("subject", principal.Subject).
			Str("carrier", receipt.Carrier).
			Str("transaction_id", receipt.TransactionID).
			Int("labels", len(receipt.Labels)).
			Msg("labels partially issued")
		resp := toLabelResponse(receipt, h.now())
		resp.Error = err.Error()
		return c.JSON(http.StatusMultiStatus, resp)
	}
	h.logger.Info().
		Str("subject", principal.Subject).
		Str("carrier", receipt.Carrier).
		Str("transaction_id", receipt.TransactionID).
		Int("labels", len(receipt.Labels)).
		Msg("labels issued")
	return c.JSON(http.StatusCreated, toLabelResponse(receipt, h.now()))
}
