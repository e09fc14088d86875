package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/99minutos/carrier-bindings/internal/core/domain"
	"github.com/99minutos/carrier-bindings/internal/core/ports"
)

const testSecret = "router-secret"

// failingService answers every call with err.
type failingService struct {
	err error
}

func (s *failingService) Carriers() []string { return []string{"UPS"} }

func (s *failingService) FindRates(context.Context, ports.ShipmentQuery) (*domain.RateResponse, error) {
	return nil, s.err
}

func (s *failingService) TrackShipment(context.Context, string, string, domain.Options) (*domain.TrackingResponse, error) {
	return nil, s.err
}

func (s *failingService) TrackBatch(context.Context, string, []string) ([]ports.TrackingResult, error) {
	return nil, s.err
}

func (s *failingService) FindTransitTime(context.Context, ports.ShipmentQuery) (*domain.TransitTimeResponse, error) {
	return nil, s.err
}

func (s *failingService) PurchaseLabel(context.Context, ports.ShipmentQuery) (*ports.LabelReceipt, error) {
	return nil, s.err
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  "warehouse-7",
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(testSecret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return "Bearer " + token
}

func serve(t *testing.T, svc ports.ShippingService, method, target, auth, body string) (int, string) {
	t.Helper()
	e := NewRouter(svc, testSecret, zerolog.Nop())

	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if auth != "" {
		req.Header.Set("Authorization", auth)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	var env errorResponse
	_ = json.Unmarshal(rec.Body.Bytes(), &env)
	return rec.Code, env.Error
}

const minimalShipment = `{"origin":{"country":"US"},"destination":{"country":"US"},"packages":[{"weight":16}]}`

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

func TestErrorMapping(t *testing.T) {
	cases := []struct {
		name string
		err  error
		code int
		msg  string
	}{
		{"validation", &domain.ValidationError{Prefix: "UPS labels require", Missing: []string{"ShipTo City"}}, http.StatusUnprocessableEntity, "UPS labels require: ShipTo City"},
		{"rejected", &domain.CarrierRejected{Carrier: "UPS", Message: "Invalid Access License number"}, http.StatusUnprocessableEntity, "Invalid Access License number"},
		{"configuration", &domain.ConfigurationError{Carrier: "UPS", Detail: "key, login and password are required"}, http.StatusBadRequest, "UPS: key, login and password are required"},
		{"unknown carrier", fmt.Errorf("%w: dhl", domain.ErrUnknownCarrier), http.StatusNotFound, "unknown carrier: dhl"},
		{"duplicate label", fmt.Errorf("order-1: %w", domain.ErrDuplicateLabel), http.StatusConflict, "order-1: label already purchased for transaction"},
		{"unsupported", fmt.Errorf("endicia: %w", domain.ErrUnsupportedOperation), http.StatusNotImplemented, "endicia: operation not supported by carrier"},
		{"transport", &domain.TransportError{URL: "https://onlinetools.ups.com/ups.app/xml/Rate", StatusCode: 503}, http.StatusBadGateway, "carrier unavailable"},
		{"malformed", &domain.MalformedResponse{Carrier: "UPS", Detail: "no ShipmentDigest"}, http.StatusBadGateway, "carrier unavailable"},
		{"unexpected", errors.New("boom"), http.StatusInternalServerError, "internal server error"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			code, msg := serve(t, &failingService{err: tc.err}, http.MethodPost, "/v1/carriers/ups/rates", bearer(t, domain.RoleViewer), minimalShipment)
			if code != tc.code {
				t.Errorf("code = %d, want %d", code, tc.code)
			}
			if msg != tc.msg {
				t.Errorf("message = %q, want %q", msg, tc.msg)
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Routing and access control
// ---------------------------------------------------------------------------

func TestRouter_RequiresToken(t *testing.T) {
	code, _ := serve(t, &failingService{}, http.MethodGet, "/v1/carriers", "", "")
	if code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", code)
	}
}

func TestRouter_ListsCarriers(t *testing.T) {
	code, _ := serve(t, &failingService{}, http.MethodGet, "/v1/carriers", bearer(t, domain.RoleViewer), "")
	if code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
}

func TestRouter_LabelsNeedShipperOrAdmin(t *testing.T) {
	svc := &failingService{err: fmt.Errorf("order-1: %w", domain.ErrDuplicateLabel)}

	code, _ := serve(t, svc, http.MethodPost, "/v1/carriers/ups/labels", bearer(t, domain.RoleViewer), minimalShipment)
	if code != http.StatusForbidden {
		t.Fatalf("viewer: expected 403, got %d", code)
	}
	for _, role := range []string{domain.RoleShipper, domain.RoleAdmin} {
		code, _ := serve(t, svc, http.MethodPost, "/v1/carriers/ups/labels", bearer(t, role), minimalShipment)
		if code != http.StatusConflict {
			t.Errorf("%s: expected the service to run (409), got %d", role, code)
		}
	}
}

func TestRouter_UnknownRoute(t *testing.T) {
	code, _ := serve(t, &failingService{}, http.MethodGet, "/v2/carriers", bearer(t, domain.RoleViewer), "")
	if code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", code)
	}
}
