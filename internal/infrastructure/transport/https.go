// Package transport posts carrier request documents over HTTPS. Each carrier
// host gets its own circuit breaker so a failing host fails fast instead of
// tying up callers until the timeout.
package transport

import (
	"bytes"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/sony/gobreaker"

	"github.com/99minutos/carrier-bindings/internal/api/metrics"
	"github.com/99minutos/carrier-bindings/internal/core/domain"
)

const (
	defaultTimeout     = 30 * time.Second
	defaultMaxFailures = 5
	defaultOpenTimeout = 30 * time.Second
	maxResponseBytes   = 32 << 20
)

// Config tunes the poster. Zero values fall back to defaults.
type Config struct {
	Timeout time.Duration
	// MaxFailures is the number of consecutive failures that opens a host's breaker.
	MaxFailures uint32
	// OpenTimeout is how long a breaker stays open before letting a probe through.
	OpenTimeout time.Duration
}

// Poster implements ports.Poster.
type Poster struct {
	client *http.Client
	cfg    Config
	log    zerolog.Logger

	mu       sync.Mutex
	breakers map[string]*gobreaker.CircuitBreaker
}

type Option func(*Poster)

// WithHTTPClient replaces the TLS client, e.g. with an httptest server's client.
func WithHTTPClient(c *http.Client) Option {
	return func(p *Poster) { p.client = c }
}

func New(cfg Config, log zerolog.Logger, opts ...Option) *Poster {
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaultTimeout
	}
	if cfg.MaxFailures == 0 {
		cfg.MaxFailures = defaultMaxFailures
	}
	if cfg.OpenTimeout <= 0 {
		cfg.OpenTimeout = defaultOpenTimeout
	}
	p := &Poster{
		client: &http.Client{
			Timeout: cfg.Timeout,
			Transport: &http.Transport{
				Proxy:               http.ProxyFromEnvironment,
				TLSClientConfig:     &tls.Config{MinVersion: tls.VersionTLS12},
				TLSHandshakeTimeout: 10 * time.Second,
				MaxIdleConnsPerHost: 16,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		cfg:      cfg,
		log:      log,
		breakers: make(map[string]*gobreaker.CircuitBreaker),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Post sends body to target and returns the response body. Non-2xx statuses,
// network failures and open breakers all come back as *domain.TransportError.
// Nothing is retried.
func (p *Poster) Post(ctx context.Context, target, contentType string, body []byte) ([]byte, error) {
	u, err := url.Parse(target)
	if err != nil || u.Host == "" {
		return nil, &domain.TransportError{URL: target, Err: fmt.Errorf("invalid url: %w", orMissingHost(err))}
	}

	start := time.Now()
	out, err := p.breaker(u.Host).Execute(func() (any, error) {
		return p.do(ctx, target, contentType, body)
	})
	metrics.HTTPDuration.WithLabelValues(u.Host, outcome(err)).Observe(time.Since(start).Seconds())
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, &domain.TransportError{URL: target, Err: fmt.Errorf("%s unavailable: %w", u.Host, err)}
		}
		return nil, err
	}
	return out.([]byte), nil
}

func (p *Poster) do(ctx context.Context, target, contentType string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(body))
	if err != nil {
		return nil, &domain.TransportError{URL: target, Err: err}
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &domain.TransportError{URL: target, Err: err}
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, &domain.TransportError{URL: target, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &domain.TransportError{URL: target, StatusCode: resp.StatusCode, Body: string(data)}
	}
	return data, nil
}

func (p *Poster) breaker(host string) *gobreaker.CircuitBreaker {
	p.mu.Lock()
	defer p.mu.Unlock()

	if cb, ok := p.breakers[host]; ok {
		return cb
	}
	maxFailures := p.cfg.MaxFailures
	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        host,
		MaxRequests: 1,
		Timeout:     p.cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= maxFailures
		},
		// A caller giving up says nothing about the host.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.BreakerState.WithLabelValues(name).Set(float64(to))
			p.log.Warn().Str("host", name).Str("from", from.String()).Str("to", to.String()).Msg("carrier breaker state changed")
		},
	})
	p.breakers[host] = cb
	metrics.BreakerState.WithLabelValues(host).Set(float64(gobreaker.StateClosed))
	return cb
}

// State reports the breaker state for host. Hosts never posted to are closed.
func (p *Poster) State(host string) gobreaker.State {
	p.mu.Lock()
	cb, ok := p.breakers[host]
	p.mu.Unlock()
	if !ok {
		return gobreaker.StateClosed
	}
	return cb.State()
}

func outcome(err error) string {
	var te *domain.TransportError
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		return "open"
	case errors.As(err, &te) && te.StatusCode != 0:
		return "status"
	default:
		return "network"
	}
}

func orMissingHost(err error) error {
	if err != nil {
		return err
	}
	return errors.New("missing host")
}
