// Package ups is a client for the UPS XML API: rating, tracking, time in
// transit and the two-step ShipConfirm/ShipAccept label purchase.
package ups

import (
	"cmp"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/carrier-bindings/internal/core/domain"
	"github.com/99minutos/carrier-bindings/internal/core/ports"
	"github.com/99minutos/carrier-bindings/pkg/logger"
	"github.com/99minutos/carrier-bindings/pkg/xmlnode"
)

// Name is the carrier name reported on every result.
const Name = "UPS"

const contentType = "text/xml; charset=utf-8"

// Config holds account credentials and defaults. Per-call options override
// any non-empty field.
type Config struct {
	Key                string
	Login              string
	Password           string
	OriginAccount      string
	DestinationAccount string
	Test               bool
}

// Client talks to UPS. It holds no per-request state and is safe for
// concurrent use.
type Client struct {
	cfg      Config
	poster   ports.Poster
	now      func() time.Time
	logger   zerolog.Logger
	testBase string
	liveBase string
}

// Option configures a Client.
type Option func(*Client)

// WithEndpoints points the client at other hosts, e.g. a local fake.
func WithEndpoints(test, live string) Option {
	return func(c *Client) {
		c.testBase = test
		c.liveBase = live
	}
}

// WithClock overrides the clock used for pickup dates and delivery ranges.
func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

func New(cfg Config, poster ports.Poster, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		cfg:      cfg,
		poster:   poster,
		now:      time.Now,
		logger:   logger.ForCarrier(log, Name),
		testBase: testURL,
		liveBase: liveURL,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Name() string { return Name }

// FindRates shops every service UPS offers between origin and destination.
func (c *Client) FindRates(ctx context.Context, origin, destination domain.Location, packages []domain.Package, opts domain.Options) (*domain.RateResponse, error) {
	s, err := c.settings(opts)
	if err != nil {
		return nil, err
	}
	origin, destination = origin.AsCountryIfTerritory(), destination.AsCountryIfTerritory()
	body, err := buildRateRequest(origin, destination, packages, opts, s)
	if err != nil {
		return nil, fmt.Errorf("ups rates: %w", err)
	}
	req := buildAccessRequest(s) + body
	raw, err := c.commit(ctx, domain.ActionRates, req, s.test)
	if err != nil {
		return nil, fmt.Errorf("ups rates: %w", err)
	}
	resp, err := parseRateResponse(raw, origin, destination, packages, c.now())
	if err != nil {
		return nil, fmt.Errorf("ups rates: %w", err)
	}
	resp.Request = req
	return resp, rejected(resp.Envelope)
}

// FindTrackingInfo looks up the activity of one shipment.
func (c *Client) FindTrackingInfo(ctx context.Context, trackingNumber string, opts domain.Options) (*domain.TrackingResponse, error) {
	s, err := c.settings(opts)
	if err != nil {
		return nil, err
	}
	body, err := buildTrackingRequest(trackingNumber)
	if err != nil {
		return nil, fmt.Errorf("ups track: %w", err)
	}
	req := buildAccessRequest(s) + body
	raw, err := c.commit(ctx, domain.ActionTrack, req, s.test)
	if err != nil {
		return nil, fmt.Errorf("ups track: %w", err)
	}
	resp, err := parseTrackingResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("ups track: %w", err)
	}
	resp.Request = req
	return resp, rejected(resp.Envelope)
}

// FindTransitTime asks UPS for the estimated arrival of each service.
func (c *Client) FindTransitTime(ctx context.Context, origin, destination domain.Location, packages []domain.Package, opts domain.Options) (*domain.TransitTimeResponse, error) {
	s, err := c.settings(opts)
	if err != nil {
		return nil, err
	}
	origin, destination = origin.AsCountryIfTerritory(), destination.AsCountryIfTerritory()
	body, err := buildTransitTimeRequest(origin, destination, packages, opts, c.now())
	if err != nil {
		return nil, fmt.Errorf("ups transit time: %w", err)
	}
	req := xmlnode.Declaration + buildAccessRequest(s) + body
	raw, err := c.commit(ctx, domain.ActionTransit, req, s.test)
	if err != nil {
		return nil, fmt.Errorf("ups transit time: %w", err)
	}
	resp, err := parseTransitTimeResponse(raw, origin)
	if err != nil {
		return nil, fmt.Errorf("ups transit time: %w", err)
	}
	resp.Request = req
	return resp, rejected(resp.Envelope)
}

// GetLabel confirms the shipment and accepts the returned digest, yielding
// one label per package. The caller must Close the response.
func (c *Client) GetLabel(ctx context.Context, origin, destination domain.Location, packages []domain.Package, opts domain.Options) (*domain.LabelResponse, error) {
	missing := append(domain.MissingAddressFields("ShipFrom", origin), domain.MissingAddressFields("ShipTo", destination)...)
	if len(missing) > 0 {
		return nil, &domain.ValidationError{Carrier: Name, Prefix: "UPS labels require", Missing: missing}
	}
	s, err := c.settings(opts)
	if err != nil {
		return nil, err
	}
	origin, destination = origin.AsCountryIfTerritory(), destination.AsCountryIfTerritory()
	access := buildAccessRequest(s)

	body, err := buildShipConfirmRequest(origin, destination, packages, opts, s)
	if err != nil {
		return nil, fmt.Errorf("ups ship confirm: %w", err)
	}
	confirmReq := access + body
	raw, err := c.commit(ctx, domain.ActionLabel, confirmReq, s.test)
	if err != nil {
		return nil, fmt.Errorf("ups ship confirm: %w", err)
	}
	env, digest, err := parseConfirmResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("ups ship confirm: %w", err)
	}
	if !env.Success {
		env.Request = confirmReq
		return &domain.LabelResponse{Envelope: env}, rejected(env)
	}

	acceptReq := access + buildShipAcceptRequest(digest, destination)
	raw, err = c.commit(ctx, actionAccept, acceptReq, s.test)
	if err != nil {
		return nil, fmt.Errorf("ups ship accept: %w", err)
	}
	resp, err := parseAcceptResponse(raw)
	if err != nil {
		return nil, fmt.Errorf("ups ship accept: %w", err)
	}
	resp.Request = confirmReq + "\n" + acceptReq
	c.logger.Info().Int("labels", len(resp.Labels)).Bool("success", resp.Success).Msg("label purchased")
	return resp, rejected(resp.Envelope)
}

func (c *Client) settings(opts domain.Options) (settings, error) {
	s := settings{
		key:                cmp.Or(opts.Key, c.cfg.Key),
		login:              cmp.Or(opts.Login, c.cfg.Login),
		password:           cmp.Or(opts.Password, c.cfg.Password),
		originAccount:      cmp.Or(opts.OriginAccount, c.cfg.OriginAccount),
		destinationAccount: cmp.Or(opts.DestinationAccount, c.cfg.DestinationAccount),
		test:               c.cfg.Test,
	}
	if opts.Test != nil {
		s.test = *opts.Test
	}
	if s.key == "" || s.login == "" || s.password == "" {
		return s, &domain.ConfigurationError{Carrier: Name, Detail: "key, login and password are required"}
	}
	return s, nil
}

func (c *Client) commit(ctx context.Context, action, request string, test bool) ([]byte, error) {
	base := c.liveBase
	if test {
		base = c.testBase
	}
	url := base + "/" + resources[action]
	start := time.Now()
	raw, err := c.poster.Post(ctx, url, contentType, []byte(request))
	if err != nil {
		c.logger.Warn().Err(err).Str("action", action).Msg("carrier request failed")
		return nil, err
	}
	c.logger.Debug().Str("action", action).Bool("test", test).Dur("elapsed", time.Since(start)).Int("bytes", len(raw)).Msg("carrier request completed")
	return raw, nil
}

// rejected turns an unsuccessful envelope into a CarrierRejected error.
func rejected(env domain.Envelope) error {
	if env.Success {
		return nil
	}
	return &domain.CarrierRejected{Carrier: Name, Message: env.Message}
}
