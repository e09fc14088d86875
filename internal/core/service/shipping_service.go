package service

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/99minutos/carrier-bindings/internal/api/metrics"
	"github.com/99minutos/carrier-bindings/internal/core/domain"
	"github.com/99minutos/carrier-bindings/internal/core/ports"
)

// carrierAliases maps alternate names callers use onto registered carriers.
var carrierAliases = map[string]string{
	"usps": "endicia",
}

// ShippingService implements ports.ShippingService on top of the carrier
// bindings. Every collaborator besides the carriers is optional.
type ShippingService struct {
	carriers map[string]ports.Carrier
	cache    ports.RateCache
	guard    ports.LabelGuard
	audit    ports.RequestLog
	archive  ports.LabelArchive
	queue    ports.TrackingQueue
	group    singleflight.Group
	now      func() time.Time
	logger   zerolog.Logger
}

type Option func(*ShippingService)

func WithRateCache(c ports.RateCache) Option         { return func(s *ShippingService) { s.cache = c } }
func WithLabelGuard(g ports.LabelGuard) Option       { return func(s *ShippingService) { s.guard = g } }
func WithRequestLog(l ports.RequestLog) Option       { return func(s *ShippingService) { s.audit = l } }
func WithLabelArchive(a ports.LabelArchive) Option   { return func(s *ShippingService) { s.archive = a } }
func WithTrackingQueue(q ports.TrackingQueue) Option { return func(s *ShippingService) { s.queue = q } }
func WithClock(now func() time.Time) Option         { return func(s *ShippingService) { s.now = now } }

func NewShippingService(carriers []ports.Carrier, logger zerolog.Logger, opts ...Option) *ShippingService {
	s := &ShippingService{
		carriers: make(map[string]ports.Carrier, len(carriers)),
		now:      time.Now,
		logger:   logger,
	}
	for _, c := range carriers {
		s.carriers[strings.ToLower(c.Name())] = c
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Carriers lists the registered carrier names in sorted order.
func (s *ShippingService) Carriers() []string {
	names := make([]string, 0, len(s.carriers))
	for _, c := range s.carriers {
		names = append(names, c.Name())
	}
	sort.Strings(names)
	return names
}

func (s *ShippingService) carrier(name string) (ports.Carrier, error) {
	key := strings.ToLower(strings.TrimSpace(name))
	if alias, ok := carrierAliases[key]; ok {
		key = alias
	}
	c, ok := s.carriers[key]
	if !ok {
		return nil, fmt.Errorf("carrier %q: %w", name, domain.ErrUnknownCarrier)
	}
	return c, nil
}

// FindRates answers from the cache when it can. Identical concurrent quotes
// share one carrier call.
func (s *ShippingService) FindRates(ctx context.Context, q ports.ShipmentQuery) (*domain.RateResponse, error) {
	c, err := s.carrier(q.Carrier)
	if err != nil {
		return nil, err
	}
	key, err := quoteKey(c.Name(), q)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		cached, ok, err := s.cache.Get(ctx, key)
		switch {
		case err != nil:
			s.logger.Warn().Err(err).Str("carrier", c.Name()).Msg("rate cache read failed")
		case ok:
			metrics.RateCacheTotal.WithLabelValues("hit").Inc()
			return withQuery(cached, q), nil
		default:
			metrics.RateCacheTotal.WithLabelValues("miss").Inc()
		}
	}

	// The flight is detached from every caller's cancellation. A caller that
	// gives up only stops waiting.
	ch := s.group.DoChan(key, func() (any, error) {
		fctx := context.WithoutCancel(ctx)
		start := s.now()
		resp, err := c.FindRates(fctx, q.Origin, q.Destination, q.Packages, q.Options)
		s.record(fctx, c.Name(), domain.ActionRates, envelopeOf(resp), err, start)
		if err == nil && s.cache != nil {
			if cerr := s.cache.Set(fctx, key, resp); cerr != nil {
				s.logger.Warn().Err(cerr).Str("carrier", c.Name()).Msg("rate cache write failed")
			}
		}
		return resp, err
	})
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			s.logger.Debug().Str("carrier", c.Name()).Msg("rate quote shared with concurrent caller")
		}
		resp, _ := res.Val.(*domain.RateResponse)
		return resp, res.Err
	}
}

// TrackShipment looks up one tracking number.
func (s *ShippingService) TrackShipment(ctx context.Context, carrier, trackingNumber string, opts domain.Options) (*domain.TrackingResponse, error) {
	c, err := s.carrier(carrier)
	if err != nil {
		return nil, err
	}
	start := s.now()
	resp, err := c.FindTrackingInfo(ctx, strings.TrimSpace(trackingNumber), opts)
	var env *domain.Envelope
	if resp != nil {
		env = &resp.Envelope
	}
	s.record(ctx, c.Name(), domain.ActionTrack, env, err, start)
	return resp, err
}

// TrackBatch looks up every number and reports each outcome separately. With
// a tracking queue the lookups fan out across its workers.
func (s *ShippingService) TrackBatch(ctx context.Context, carrier string, trackingNumbers []string) ([]ports.TrackingResult, error) {
	if _, err := s.carrier(carrier); err != nil {
		return nil, err
	}
	results := make([]ports.TrackingResult, len(trackingNumbers))
	lookup := func(ctx context.Context, i int) {
		number := trackingNumbers[i]
		resp, err := s.TrackShipment(ctx, carrier, number, domain.Options{})
		results[i] = ports.TrackingResult{TrackingNumber: number, Response: resp, Err: err}
	}

	if s.queue == nil {
		for i := range trackingNumbers {
			lookup(ctx, i)
		}
		return results, nil
	}

	var wg sync.WaitGroup
	for i, number := range trackingNumbers {
		wg.Add(1)
		err := s.queue.Enqueue(ctx, number, func(ctx context.Context) {
			defer wg.Done()
			lookup(ctx, i)
		})
		if err != nil {
			wg.Done()
			results[i] = ports.TrackingResult{TrackingNumber: number, Err: err}
		}
	}
	wg.Wait()
	return results, nil
}

// FindTransitTime asks the carrier for per-service arrival estimates.
func (s *ShippingService) FindTransitTime(ctx context.Context, q ports.ShipmentQuery) (*domain.TransitTimeResponse, error) {
	c, err := s.carrier(q.Carrier)
	if err != nil {
		return nil, err
	}
	start := s.now()
	resp, err := c.FindTransitTime(ctx, q.Origin, q.Destination, q.Packages, q.Options)
	var env *domain.Envelope
	if resp != nil {
		env = &resp.Envelope
	}
	s.record(ctx, c.Name(), domain.ActionTransit, env, err, start)
	return resp, err
}

// PurchaseLabel buys labels for the query's packages, archives them and
// releases the carrier's temp files before returning. When the carrier fails
// after some packages were paid for, the receipt for those comes back with
// the error and the transaction stays claimed.
func (s *ShippingService) PurchaseLabel(ctx context.Context, q ports.ShipmentQuery) (*ports.LabelReceipt, error) {
	c, err := s.carrier(q.Carrier)
	if err != nil {
		return nil, err
	}
	txID := strings.TrimSpace(q.Options.TransactionID)
	guarded := s.guard != nil && txID != ""
	if guarded {
		if err := s.guard.Acquire(ctx, c.Name(), txID); err != nil {
			return nil, err
		}
	}

	start := s.now()
	resp, err := c.GetLabel(ctx, q.Origin, q.Destination, q.Packages, q.Options)
	var env *domain.Envelope
	if resp != nil {
		env = &resp.Envelope
		defer func() {
			if cerr := resp.Close(); cerr != nil {
				s.logger.Warn().Err(cerr).Str("carrier", c.Name()).Msg("removing label temp files failed")
			}
		}()
	}
	s.record(ctx, c.Name(), domain.ActionLabel, env, err, start)
	if err != nil && (resp == nil || len(resp.Labels) == 0) {
		if guarded {
			if rerr := s.guard.Release(ctx, c.Name(), txID); rerr != nil {
				s.logger.Warn().Err(rerr).Str("transaction_id", txID).Msg("label guard release failed")
			}
		}
		return nil, err
	}

	receipt := &ports.LabelReceipt{Carrier: c.Name(), TransactionID: txID, Message: resp.Message}
	for _, label := range resp.Labels {
		rec := ports.LabelRecord{
			TrackingNumber: label.TrackingNumber,
			Format:         label.Label.Format,
			Image:          label.Label.Data,
		}
		if label.HighValueReport != nil {
			rec.HighValueReport = label.HighValueReport.Data
		}
		rec.ArchiveID = s.archiveLabel(ctx, c.Name(), txID, label)
		receipt.Labels = append(receipt.Labels, rec)
	}
	metrics.LabelsPurchasedTotal.WithLabelValues(c.Name()).Add(float64(len(receipt.Labels)))
	if err != nil {
		// Paid labels keep the transaction claimed.
		receipt.Partial = true
		s.logger.Warn().Err(err).Str("carrier", c.Name()).Str("transaction_id", txID).Int("labels", len(receipt.Labels)).Msg("label purchase partially completed")
		return receipt, err
	}
	s.logger.Info().Str("carrier", c.Name()).Str("transaction_id", txID).Int("labels", len(receipt.Labels)).Msg("labels purchased")
	return receipt, nil
}

// archiveLabel stores the label image and returns its archive id. A failed
// upload is logged and leaves the id empty: the label is already paid for.
func (s *ShippingService) archiveLabel(ctx context.Context, carrier, txID string, label domain.PackageLabel) string {
	if s.archive == nil {
		return ""
	}
	name := label.TrackingNumber + "." + strings.ToLower(label.Label.Format)
	if label.Label.File != nil {
		name = filepath.Base(label.Label.File.Name())
	}
	id, err := s.archive.Store(ctx, name, label.Label.Data, ports.LabelMeta{
		Carrier:        carrier,
		TrackingNumber: label.TrackingNumber,
		TransactionID:  txID,
		Format:         label.Label.Format,
	})
	if err != nil {
		s.logger.Error().Err(err).Str("carrier", carrier).Str("tracking_number", label.TrackingNumber).Msg("label archive failed")
		return ""
	}
	return id
}

// record feeds metrics and the audit log. Audit failures never fail the call.
func (s *ShippingService) record(ctx context.Context, carrier, action string, env *domain.Envelope, callErr error, start time.Time) {
	elapsed := s.now().Sub(start)
	metrics.CarrierRequestsTotal.WithLabelValues(carrier, action, outcome(callErr)).Inc()
	metrics.CarrierRequestDuration.WithLabelValues(carrier, action).Observe(elapsed.Seconds())

	if s.audit == nil {
		return
	}
	rec := &domain.RequestRecord{
		Carrier:   carrier,
		Action:    action,
		Duration:  elapsed.Milliseconds(),
		CreatedAt: s.now().UTC(),
	}
	if env != nil {
		rec.Success = env.Success
		rec.Message = env.Message
		rec.Request = domain.RedactCredentials(env.Request)
		rec.Response = env.Raw
	}
	if callErr != nil {
		rec.Error = callErr.Error()
	}
	if err := s.audit.Record(ctx, rec); err != nil {
		s.logger.Warn().Err(err).Str("carrier", carrier).Str("action", action).Msg("request audit failed")
	}
}

func outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, domain.ErrCarrierRejected):
		return "rejected"
	default:
		return "error"
	}
}

func envelopeOf(resp *domain.RateResponse) *domain.Envelope {
	if resp == nil {
		return nil
	}
	return &resp.Envelope
}

// withQuery restores the fields a cached response does not carry.
func withQuery(resp *domain.RateResponse, q ports.ShipmentQuery) *domain.RateResponse {
	for i := range resp.Rates {
		resp.Rates[i].Origin = q.Origin
		resp.Rates[i].Destination = q.Destination
		resp.Rates[i].Packages = q.Packages
	}
	return resp
}

type quotePackage struct {
	Grams    float64    `json:"g"`
	Cm       [3]float64 `json:"cm"`
	Value    string     `json:"v"`
	Currency string     `json:"c"`
}

// quoteKey fingerprints everything that can change a rate answer.
func quoteKey(carrier string, q ports.ShipmentQuery) (string, error) {
	pkgs := make([]quotePackage, len(q.Packages))
	for i, p := range q.Packages {
		pkgs[i] = quotePackage{
			Grams:    p.Grams(),
			Cm:       [3]float64{p.Centimeters(domain.Length), p.Centimeters(domain.Width), p.Centimeters(domain.Height)},
			Value:    p.Value.String(),
			Currency: p.Currency,
		}
	}
	raw, err := json.Marshal(struct {
		Carrier     string          `json:"carrier"`
		Origin      domain.Location `json:"origin"`
		Destination domain.Location `json:"destination"`
		Packages    []quotePackage  `json:"packages"`
		Options     domain.Options  `json:"options"`
	}{carrier, q.Origin, q.Destination, pkgs, q.Options})
	if err != nil {
		return "", fmt.Errorf("rate quote key: %w", err)
	}
	sum := sha256.Sum256(raw)
	return strings.ToLower(carrier) + ":" + hex.EncodeToString(sum[:]), nil
}
