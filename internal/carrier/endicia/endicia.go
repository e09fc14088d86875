// Package endicia buys USPS postage labels through the Endicia label
// service. Endicia offers no rating, tracking or transit time over this API.
package endicia

import (
	"cmp"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/99minutos/carrier-bindings/internal/core/domain"
	"github.com/99minutos/carrier-bindings/internal/core/ports"
	"github.com/99minutos/carrier-bindings/pkg/logger"
)

// Name is the carrier name reported on every result.
const Name = "Endicia"

const (
	testURL       = "https://www.envmgr.com"
	liveURL       = "https://www.envmgr.com"
	labelResource = "LabelService/EwsLabelService.asmx/GetPostageLabelXML"
	contentType   = "application/x-www-form-urlencoded"
	defaultFormat = "GIF"
)

type Config struct {
	AccountID   string
	RequesterID string
	Password    string
	Test        bool
}

// Client talks to Endicia. It is safe for concurrent use.
type Client struct {
	cfg      Config
	poster   ports.Poster
	logger   zerolog.Logger
	testBase string
	liveBase string
}

type Option func(*Client)

// WithEndpoints points the client at other hosts, e.g. a local fake.
func WithEndpoints(test, live string) Option {
	return func(c *Client) {
		c.testBase = test
		c.liveBase = live
	}
}

func New(cfg Config, poster ports.Poster, log zerolog.Logger, opts ...Option) *Client {
	c := &Client{
		cfg:      cfg,
		poster:   poster,
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

func (c *Client) FindRates(context.Context, domain.Location, domain.Location, []domain.Package, domain.Options) (*domain.RateResponse, error) {
	return nil, fmt.Errorf("endicia rates: %w", domain.ErrUnsupportedOperation)
}

func (c *Client) FindTrackingInfo(context.Context, string, domain.Options) (*domain.TrackingResponse, error) {
	return nil, fmt.Errorf("endicia track: %w", domain.ErrUnsupportedOperation)
}

func (c *Client) FindTransitTime(context.Context, domain.Location, domain.Location, []domain.Package, domain.Options) (*domain.TransitTimeResponse, error) {
	return nil, fmt.Errorf("endicia transit time: %w", domain.ErrUnsupportedOperation)
}

// GetLabel buys one label per package. When a later package fails after
// earlier ones were paid for, the labels bought so far come back with the
// error in a response whose Success is false. The caller owns them and must
// Close the response. With nothing bought, only the error is returned.
func (c *Client) GetLabel(ctx context.Context, origin, destination domain.Location, packages []domain.Package, opts domain.Options) (*domain.LabelResponse, error) {
	if err := validate(origin, destination); err != nil {
		return nil, err
	}
	if len(packages) == 0 {
		return nil, &domain.ValidationError{Carrier: Name, Prefix: "USPS labels require", Missing: []string{"packages"}}
	}
	s, err := c.settings(opts)
	if err != nil {
		return nil, err
	}
	format := cmp.Or(strings.ToUpper(strings.TrimSpace(opts.ImageType)), defaultFormat)

	out := &domain.LabelResponse{Envelope: domain.Envelope{Success: true}}
	var requests, raws []string
	for i, pkg := range packages {
		req := buildLabelRequest(origin, destination, pkg, opts, s)
		requests = append(requests, req)
		raw, err := c.commit(ctx, formBody(req), s.test)
		if err != nil {
			err = fmt.Errorf("endicia label %d: %w", i+1, err)
			return c.partial(out, requests, raws, err.Error(), err)
		}
		raws = append(raws, string(raw))
		resp, err := parseLabelResponse(raw, format)
		if err != nil {
			err = fmt.Errorf("endicia label %d: %w", i+1, err)
			return c.partial(out, requests, raws, err.Error(), err)
		}
		if !resp.Success {
			rejected := &domain.CarrierRejected{Carrier: Name, Message: resp.Message}
			if len(out.Labels) == 0 {
				resp.Request = req
				return resp, rejected
			}
			return c.partial(out, requests, raws, resp.Message, rejected)
		}
		out.Message = resp.Message
		out.Labels = append(out.Labels, resp.Labels...)
	}
	out.Request = strings.Join(requests, "\n")
	out.Raw = strings.Join(raws, "\n")
	c.logger.Info().Int("labels", len(out.Labels)).Msg("label purchased")
	return out, nil
}

// partial returns out alongside err when it already holds paid labels.
func (c *Client) partial(out *domain.LabelResponse, requests, raws []string, message string, err error) (*domain.LabelResponse, error) {
	if len(out.Labels) == 0 {
		return nil, err
	}
	out.Success = false
	out.Message = message
	out.Request = strings.Join(requests, "\n")
	out.Raw = strings.Join(raws, "\n")
	c.logger.Warn().Err(err).Int("labels", len(out.Labels)).Msg("label purchase stopped after partial success")
	return out, err
}

func (c *Client) settings(opts domain.Options) (settings, error) {
	s := settings{
		accountID:   cmp.Or(opts.AccountID, c.cfg.AccountID),
		requesterID: cmp.Or(opts.RequesterID, c.cfg.RequesterID),
		password:    cmp.Or(opts.Password, c.cfg.Password),
		test:        c.cfg.Test,
	}
	if opts.Test != nil {
		s.test = *opts.Test
	}
	if s.accountID == "" || s.requesterID == "" || s.password == "" {
		return s, &domain.ConfigurationError{Carrier: Name, Detail: "account id, requester id and password are required"}
	}
	return s, nil
}

func (c *Client) commit(ctx context.Context, body []byte, test bool) ([]byte, error) {
	base := c.liveBase
	if test {
		base = c.testBase
	}
	start := time.Now()
	raw, err := c.poster.Post(ctx, base+"/"+labelResource, contentType, body)
	if err != nil {
		c.logger.Warn().Err(err).Msg("carrier request failed")
		return nil, err
	}
	c.logger.Debug().Bool("test", test).Dur("elapsed", time.Since(start)).Int("bytes", len(raw)).Msg("carrier request completed")
	return raw, nil
}
