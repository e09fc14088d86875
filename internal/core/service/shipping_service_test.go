package service

import (
	"context"
	"errors"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/99minutos/carrier-bindings/internal/core/domain"
	"github.com/99minutos/carrier-bindings/internal/core/ports"
)

// ---------------------------------------------------------------------------
// Stubs
// ---------------------------------------------------------------------------

type stubCarrier struct {
	name      string
	rateCalls atomic.Int32
	rates     func() (*domain.RateResponse, error)
	ratesCtx  func(ctx context.Context) (*domain.RateResponse, error)
	track     func(number string) (*domain.TrackingResponse, error)
	transit   func() (*domain.TransitTimeResponse, error)
	label     func() (*domain.LabelResponse, error)
}

func (c *stubCarrier) Name() string { return c.name }

func (c *stubCarrier) FindRates(ctx context.Context, _, _ domain.Location, _ []domain.Package, _ domain.Options) (*domain.RateResponse, error) {
	c.rateCalls.Add(1)
	if c.ratesCtx != nil {
		return c.ratesCtx(ctx)
	}
	return c.rates()
}

func (c *stubCarrier) FindTrackingInfo(_ context.Context, number string, _ domain.Options) (*domain.TrackingResponse, error) {
	return c.track(number)
}

func (c *stubCarrier) FindTransitTime(context.Context, domain.Location, domain.Location, []domain.Package, domain.Options) (*domain.TransitTimeResponse, error) {
	return c.transit()
}

func (c *stubCarrier) GetLabel(context.Context, domain.Location, domain.Location, []domain.Package, domain.Options) (*domain.LabelResponse, error) {
	return c.label()
}

type stubCache struct {
	mu      sync.Mutex
	entries map[string]*domain.RateResponse
	getErr  error
}

func newStubCache() *stubCache { return &stubCache{entries: make(map[string]*domain.RateResponse)} }

func (c *stubCache) Get(_ context.Context, key string) (*domain.RateResponse, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	r, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	clone := *r
	clone.Rates = append([]domain.RateEstimate(nil), r.Rates...)
	return &clone, true, nil
}

func (c *stubCache) Set(_ context.Context, key string, resp *domain.RateResponse) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = resp
	return nil
}

type stubGuard struct {
	held     map[string]bool
	released []string
}

func newStubGuard() *stubGuard { return &stubGuard{held: make(map[string]bool)} }

func (g *stubGuard) Acquire(_ context.Context, carrier, txID string) error {
	if g.held[carrier+":"+txID] {
		return domain.ErrDuplicateLabel
	}
	g.held[carrier+":"+txID] = true
	return nil
}

func (g *stubGuard) Release(_ context.Context, carrier, txID string) error {
	delete(g.held, carrier+":"+txID)
	g.released = append(g.released, txID)
	return nil
}

type stubLog struct {
	mu      sync.Mutex
	records []domain.RequestRecord
}

func (l *stubLog) Record(_ context.Context, rec *domain.RequestRecord) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.records = append(l.records, *rec)
	return nil
}

type stubArchive struct {
	names []string
	metas []ports.LabelMeta
	err   error
}

func (a *stubArchive) Store(_ context.Context, name string, _ []byte, meta ports.LabelMeta) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	a.names = append(a.names, name)
	a.metas = append(a.metas, meta)
	return "archive-" + meta.TrackingNumber, nil
}

// inlineQueue runs lookups on a goroutine per call.
type inlineQueue struct{ enqueued atomic.Int32 }

func (q *inlineQueue) Enqueue(ctx context.Context, _ string, run func(context.Context)) error {
	q.enqueued.Add(1)
	go run(ctx)
	return nil
}

var fixedNow = func() time.Time { return time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC) }

func newService(carriers []ports.Carrier, opts ...Option) *ShippingService {
	return NewShippingService(carriers, zerolog.Nop(), append([]Option{WithClock(fixedNow)}, opts...)...)
}

func rateQuery(carrier string) ports.ShipmentQuery {
	return ports.ShipmentQuery{
		Carrier:     carrier,
		Origin:      domain.Location{City: "Atlanta", State: "GA", PostalCode: "30303", Country: "US"},
		Destination: domain.Location{City: "Portland", State: "OR", PostalCode: "97204", Country: "US"},
		Packages:    []domain.Package{domain.NewImperialPackage(16, [3]float64{12, 10, 4}, decimal.RequireFromString("69.99"))},
	}
}

func groundRates() (*domain.RateResponse, error) {
	return &domain.RateResponse{
		Envelope: domain.Envelope{Success: true, Request: "<req/>", Raw: "<resp/>"},
		Rates:    []domain.RateEstimate{{Carrier: "UPS", ServiceCode: "03", TotalPrice: decimal.RequireFromString("9.86")}},
	}, nil
}

// writeTempLabel creates a temp file standing in for a decoded label.
func writeTempLabel(t *testing.T) *os.File {
	t.Helper()
	f, err := os.CreateTemp(t.TempDir(), "shipping_label-*.gif")
	if err != nil {
		t.Fatal(err)
	}
	return f
}

// ---------------------------------------------------------------------------
// Carrier registry
// ---------------------------------------------------------------------------

func TestCarriers_SortedAndCaseInsensitive(t *testing.T) {
	svc := newService([]ports.Carrier{&stubCarrier{name: "UPS"}, &stubCarrier{name: "Endicia"}})
	got := svc.Carriers()
	if len(got) != 2 || got[0] != "Endicia" || got[1] != "UPS" {
		t.Fatalf("Carriers = %v", got)
	}
	if _, err := svc.carrier("ups"); err != nil {
		t.Errorf("lowercase lookup: %v", err)
	}
	if c, err := svc.carrier("USPS"); err != nil || c.Name() != "Endicia" {
		t.Errorf("usps alias: %v %v", c, err)
	}
}

func TestUnknownCarrier(t *testing.T) {
	svc := newService(nil)
	if _, err := svc.FindRates(context.Background(), rateQuery("fedex")); !errors.Is(err, domain.ErrUnknownCarrier) {
		t.Errorf("FindRates: expected ErrUnknownCarrier, got %v", err)
	}
	if _, err := svc.TrackBatch(context.Background(), "fedex", []string{"1"}); !errors.Is(err, domain.ErrUnknownCarrier) {
		t.Errorf("TrackBatch: expected ErrUnknownCarrier, got %v", err)
	}
}

// ---------------------------------------------------------------------------
// Rates
// ---------------------------------------------------------------------------

func TestFindRates_CachesSuccessfulQuotes(t *testing.T) {
	ups := &stubCarrier{name: "UPS", rates: groundRates}
	cache := newStubCache()
	svc := newService([]ports.Carrier{ups}, WithRateCache(cache))
	q := rateQuery("ups")

	first, err := svc.FindRates(context.Background(), q)
	if err != nil {
		t.Fatalf("first FindRates: %v", err)
	}
	second, err := svc.FindRates(context.Background(), q)
	if err != nil {
		t.Fatalf("second FindRates: %v", err)
	}
	if ups.rateCalls.Load() != 1 {
		t.Errorf("carrier called %d times, want 1", ups.rateCalls.Load())
	}
	if len(second.Rates) != len(first.Rates) || second.Rates[0].Origin.City != "Atlanta" {
		t.Errorf("cached response not restored: %+v", second.Rates)
	}

	other := rateQuery("ups")
	other.Destination.PostalCode = "97205"
	if _, err := svc.FindRates(context.Background(), other); err != nil {
		t.Fatal(err)
	}
	if ups.rateCalls.Load() != 2 {
		t.Error("a different quote must not hit the cache")
	}
}

func TestFindRates_RejectedQuotesAreNotCached(t *testing.T) {
	ups := &stubCarrier{name: "UPS", rates: func() (*domain.RateResponse, error) {
		env := domain.Envelope{Success: false, Message: "The postal code 00000 is invalid for NY United States."}
		return &domain.RateResponse{Envelope: env}, &domain.CarrierRejected{Carrier: "UPS", Message: env.Message}
	}}
	cache := newStubCache()
	svc := newService([]ports.Carrier{ups}, WithRateCache(cache))

	resp, err := svc.FindRates(context.Background(), rateQuery("UPS"))
	if !errors.Is(err, domain.ErrCarrierRejected) {
		t.Fatalf("expected ErrCarrierRejected, got %v", err)
	}
	if resp == nil || resp.Message == "" {
		t.Error("rejected response should still be returned")
	}
	if len(cache.entries) != 0 {
		t.Error("rejected quote was cached")
	}
}

func TestFindRates_CacheErrorFallsThrough(t *testing.T) {
	ups := &stubCarrier{name: "UPS", rates: groundRates}
	cache := newStubCache()
	cache.getErr = errors.New("connection refused")
	svc := newService([]ports.Carrier{ups}, WithRateCache(cache))

	if _, err := svc.FindRates(context.Background(), rateQuery("UPS")); err != nil {
		t.Fatalf("cache failure must not fail the quote: %v", err)
	}
	if ups.rateCalls.Load() != 1 {
		t.Error("expected a carrier call")
	}
}

func TestFindRates_CollapsesConcurrentQuotes(t *testing.T) {
	release := make(chan struct{})
	ups := &stubCarrier{name: "UPS", rates: func() (*domain.RateResponse, error) {
		<-release
		return groundRates()
	}}
	svc := newService([]ports.Carrier{ups})

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := svc.FindRates(context.Background(), rateQuery("UPS")); err != nil {
				t.Errorf("FindRates: %v", err)
			}
		}()
	}
	// Give every caller time to join the in-flight call.
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()

	if got := ups.rateCalls.Load(); got != 1 {
		t.Errorf("carrier called %d times, want 1", got)
	}
}

func TestFindRates_RecordsAudit(t *testing.T) {
	log := &stubLog{}
	svc := newService([]ports.Carrier{&stubCarrier{name: "UPS", rates: groundRates}}, WithRequestLog(log))

	if _, err := svc.FindRates(context.Background(), rateQuery("UPS")); err != nil {
		t.Fatal(err)
	}
	if len(log.records) != 1 {
		t.Fatalf("records = %d", len(log.records))
	}
	rec := log.records[0]
	if rec.Carrier != "UPS" || rec.Action != domain.ActionRates || !rec.Success {
		t.Errorf("unexpected record %+v", rec)
	}
	if rec.Request != "<req/>" || rec.Response != "<resp/>" {
		t.Errorf("raw exchange not recorded: %+v", rec)
	}
	if !rec.CreatedAt.Equal(fixedNow()) {
		t.Errorf("created_at = %v", rec.CreatedAt)
	}
}

// ---------------------------------------------------------------------------
// Tracking
// ---------------------------------------------------------------------------

func TestFindRates_CallerCancelDoesNotFailSharedQuote(t *testing.T) {
	started := make(chan struct{})
	release := make(chan struct{})
	flightErr := make(chan error, 2)
	var once sync.Once
	ups := &stubCarrier{name: "UPS", ratesCtx: func(ctx context.Context) (*domain.RateResponse, error) {
		once.Do(func() { close(started) })
		<-release
		if err := ctx.Err(); err != nil {
			flightErr <- err
			return nil, err
		}
		flightErr <- nil
		return groundRates()
	}}
	cache := newStubCache()
	svc := newService([]ports.Carrier{ups}, WithRateCache(cache))

	first, cancelFirst := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := svc.FindRates(first, rateQuery("UPS"))
		firstErr <- err
	}()
	<-started

	type result struct {
		resp *domain.RateResponse
		err  error
	}
	second := make(chan result, 1)
	go func() {
		resp, err := svc.FindRates(context.Background(), rateQuery("UPS"))
		second <- result{resp, err}
	}()

	cancelFirst()
	if err := <-firstErr; !errors.Is(err, context.Canceled) {
		t.Fatalf("cancelled caller: expected context.Canceled, got %v", err)
	}
	close(release)

	if err := <-flightErr; err != nil {
		t.Fatalf("carrier call saw cancelled context: %v", err)
	}
	got := <-second
	if got.err != nil || got.resp == nil || len(got.resp.Rates) != 1 {
		t.Fatalf("remaining caller: %+v, %v", got.resp, got.err)
	}
	cache.mu.Lock()
	defer cache.mu.Unlock()
	if len(cache.entries) != 1 {
		t.Errorf("completed quote not cached: %d entries", len(cache.entries))
	}
}

func TestFindRates_AuditRedactsCredentials(t *testing.T) {
	const doc = `<?xml version="1.0"?><AccessRequest><AccessLicenseNumber>lic-7731</AccessLicenseNumber><UserId>shipper</UserId><Password>pw-s3cret</Password></AccessRequest><?xml version="1.0"?><RatingServiceSelectionRequest/>`
	ups := &stubCarrier{name: "UPS", rates: func() (*domain.RateResponse, error) {
		resp, err := groundRates()
		resp.Request = doc
		return resp, err
	}}
	log := &stubLog{}
	svc := newService([]ports.Carrier{ups}, WithRequestLog(log))

	resp, err := svc.FindRates(context.Background(), rateQuery("UPS"))
	if err != nil {
		t.Fatal(err)
	}
	if len(log.records) != 1 {
		t.Fatalf("records = %d", len(log.records))
	}
	stored := log.records[0].Request
	for _, secret := range []string{"lic-7731", "pw-s3cret"} {
		if strings.Contains(stored, secret) {
			t.Errorf("audit record leaks %q: %s", secret, stored)
		}
	}
	if !strings.Contains(stored, "<UserId>shipper</UserId>") || !strings.Contains(stored, "<Password>[REDACTED]</Password>") {
		t.Errorf("audit request = %s", stored)
	}
	if resp.Request != doc {
		t.Error("redaction must not alter the response handed to the caller")
	}
}

func trackingStub() *stubCarrier {
	return &stubCarrier{name: "UPS", track: func(number string) (*domain.TrackingResponse, error) {
		if number == "bad" {
			return nil, &domain.MalformedResponse{Carrier: "UPS", Detail: "no Shipment"}
		}
		return &domain.TrackingResponse{Envelope: domain.Envelope{Success: true}, Carrier: "UPS", TrackingNumber: number}, nil
	}}
}

func TestTrackShipment_TrimsNumber(t *testing.T) {
	svc := newService([]ports.Carrier{trackingStub()})
	resp, err := svc.TrackShipment(context.Background(), "UPS", "  1Z12345E0291980793 ", domain.Options{})
	if err != nil {
		t.Fatal(err)
	}
	if resp.TrackingNumber != "1Z12345E0291980793" {
		t.Errorf("tracking number = %q", resp.TrackingNumber)
	}
}

func TestTrackBatch_ReportsEachOutcome(t *testing.T) {
	for _, tc := range []struct {
		name  string
		queue *inlineQueue
	}{
		{"sequential", nil},
		{"queued", &inlineQueue{}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			var opts []Option
			if tc.queue != nil {
				opts = append(opts, WithTrackingQueue(tc.queue))
			}
			svc := newService([]ports.Carrier{trackingStub()}, opts...)

			results, err := svc.TrackBatch(context.Background(), "UPS", []string{"1Z1", "bad", "1Z3"})
			if err != nil {
				t.Fatal(err)
			}
			if len(results) != 3 {
				t.Fatalf("results = %d", len(results))
			}
			if results[0].Response == nil || results[0].Response.TrackingNumber != "1Z1" {
				t.Errorf("result 0 = %+v", results[0])
			}
			if !errors.Is(results[1].Err, domain.ErrMalformedResponse) || results[1].TrackingNumber != "bad" {
				t.Errorf("result 1 = %+v", results[1])
			}
			if results[2].Response == nil || results[2].Response.TrackingNumber != "1Z3" {
				t.Errorf("result 2 = %+v", results[2])
			}
			if tc.queue != nil && tc.queue.enqueued.Load() != 3 {
				t.Errorf("enqueued = %d", tc.queue.enqueued.Load())
			}
		})
	}
}

// ---------------------------------------------------------------------------
// Transit time
// ---------------------------------------------------------------------------

func TestFindTransitTime_PassesThroughUnsupported(t *testing.T) {
	endicia := &stubCarrier{name: "Endicia", transit: func() (*domain.TransitTimeResponse, error) {
		return nil, domain.ErrUnsupportedOperation
	}}
	log := &stubLog{}
	svc := newService([]ports.Carrier{endicia}, WithRequestLog(log))

	_, err := svc.FindTransitTime(context.Background(), rateQuery("endicia"))
	if !errors.Is(err, domain.ErrUnsupportedOperation) {
		t.Fatalf("expected ErrUnsupportedOperation, got %v", err)
	}
	if len(log.records) != 1 || log.records[0].Error == "" {
		t.Errorf("failed call should be audited with its error: %+v", log.records)
	}
}

// ---------------------------------------------------------------------------
// Labels
// ---------------------------------------------------------------------------

func labelStub(t *testing.T, files *[]string) *stubCarrier {
	return &stubCarrier{name: "UPS", label: func() (*domain.LabelResponse, error) {
		f := writeTempLabel(t)
		*files = append(*files, f.Name())
		return &domain.LabelResponse{
			Envelope: domain.Envelope{Success: true, Message: "Success"},
			Labels: []domain.PackageLabel{{
				TrackingNumber:  "1Z12345E0291980793",
				Label:           domain.LabelArtifact{Format: "GIF", Data: []byte("label-one"), File: f},
				HighValueReport: &domain.LabelArtifact{Format: "HTML", Data: []byte("report")},
			}},
		}, nil
	}}
}

func TestPurchaseLabel_ArchivesAndCleansUp(t *testing.T) {
	var files []string
	archive := &stubArchive{}
	svc := newService([]ports.Carrier{labelStub(t, &files)}, WithLabelArchive(archive), WithLabelGuard(newStubGuard()))
	q := rateQuery("UPS")
	q.Options.TransactionID = "tx-1"

	receipt, err := svc.PurchaseLabel(context.Background(), q)
	if err != nil {
		t.Fatalf("PurchaseLabel: %v", err)
	}
	if receipt.Carrier != "UPS" || receipt.TransactionID != "tx-1" || len(receipt.Labels) != 1 {
		t.Fatalf("receipt = %+v", receipt)
	}
	label := receipt.Labels[0]
	if string(label.Image) != "label-one" || string(label.HighValueReport) != "report" {
		t.Errorf("label bytes = %q / %q", label.Image, label.HighValueReport)
	}
	if label.ArchiveID != "archive-1Z12345E0291980793" {
		t.Errorf("archive id = %q", label.ArchiveID)
	}
	if archive.metas[0].TransactionID != "tx-1" || archive.metas[0].Format != "GIF" {
		t.Errorf("archive meta = %+v", archive.metas[0])
	}
	if _, err := os.Stat(files[0]); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp label file not removed: %v", err)
	}
}

func TestPurchaseLabel_DuplicateTransaction(t *testing.T) {
	var files []string
	svc := newService([]ports.Carrier{labelStub(t, &files)}, WithLabelGuard(newStubGuard()))
	q := rateQuery("UPS")
	q.Options.TransactionID = "tx-1"

	if _, err := svc.PurchaseLabel(context.Background(), q); err != nil {
		t.Fatal(err)
	}
	_, err := svc.PurchaseLabel(context.Background(), q)
	if !errors.Is(err, domain.ErrDuplicateLabel) {
		t.Fatalf("expected ErrDuplicateLabel, got %v", err)
	}
	if len(files) != 1 {
		t.Errorf("carrier called %d times, want 1", len(files))
	}
}

func TestPurchaseLabel_FailureReleasesGuard(t *testing.T) {
	ups := &stubCarrier{name: "UPS", label: func() (*domain.LabelResponse, error) {
		return nil, &domain.TransportError{URL: "https://wwwcie.ups.com/ups.app/xml/ShipConfirm", StatusCode: 503}
	}}
	guard := newStubGuard()
	svc := newService([]ports.Carrier{ups}, WithLabelGuard(guard))
	q := rateQuery("UPS")
	q.Options.TransactionID = "tx-9"

	_, err := svc.PurchaseLabel(context.Background(), q)
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("expected ErrTransport, got %v", err)
	}
	if len(guard.released) != 1 || guard.released[0] != "tx-9" {
		t.Errorf("guard not released: %v", guard.released)
	}
	if guard.held["UPS:tx-9"] {
		t.Error("claim still held")
	}
}

func TestPurchaseLabel_AuditRedactsPassPhrase(t *testing.T) {
	var files []string
	endicia := labelStub(t, &files)
	endicia.name = "Endicia"
	inner := endicia.label
	endicia.label = func() (*domain.LabelResponse, error) {
		resp, err := inner()
		resp.Request = "<LabelRequest><AccountID>792190</AccountID><PassPhrase>whiplash1</PassPhrase></LabelRequest>"
		return resp, err
	}
	log := &stubLog{}
	svc := newService([]ports.Carrier{endicia}, WithRequestLog(log))

	if _, err := svc.PurchaseLabel(context.Background(), rateQuery("endicia")); err != nil {
		t.Fatal(err)
	}
	if len(log.records) != 1 || strings.Contains(log.records[0].Request, "whiplash1") {
		t.Fatalf("audit record leaks pass phrase: %+v", log.records)
	}
}

func TestPurchaseLabel_PartialPurchaseKeepsGuardAndArchives(t *testing.T) {
	f := writeTempLabel(t)
	endicia := &stubCarrier{name: "Endicia", label: func() (*domain.LabelResponse, error) {
		resp := &domain.LabelResponse{
			Envelope: domain.Envelope{Success: false, Message: "Insufficient postage balance for account 792190."},
			Labels: []domain.PackageLabel{{
				TrackingNumber: "9400110200881234567890",
				Label:          domain.LabelArtifact{Format: "PNG", Data: []byte("usps-label"), File: f},
			}},
		}
		return resp, &domain.CarrierRejected{Carrier: "Endicia", Message: resp.Message}
	}}
	guard := newStubGuard()
	archive := &stubArchive{}
	svc := newService([]ports.Carrier{endicia}, WithLabelGuard(guard), WithLabelArchive(archive))
	q := rateQuery("endicia")
	q.Options.TransactionID = "tx-9"

	receipt, err := svc.PurchaseLabel(context.Background(), q)
	if !errors.Is(err, domain.ErrCarrierRejected) {
		t.Fatalf("expected ErrCarrierRejected, got %v", err)
	}
	if receipt == nil || !receipt.Partial || len(receipt.Labels) != 1 {
		t.Fatalf("receipt = %+v", receipt)
	}
	if receipt.Labels[0].ArchiveID != "archive-9400110200881234567890" {
		t.Errorf("archive id = %q", receipt.Labels[0].ArchiveID)
	}
	if len(guard.released) != 0 || !guard.held["Endicia:tx-9"] {
		t.Errorf("paid transaction was released: held=%v released=%v", guard.held, guard.released)
	}
	if _, err := os.Stat(f.Name()); !errors.Is(err, os.ErrNotExist) {
		t.Errorf("temp label file not removed: %v", err)
	}
	if _, err := svc.PurchaseLabel(context.Background(), q); !errors.Is(err, domain.ErrDuplicateLabel) {
		t.Errorf("retry: expected ErrDuplicateLabel, got %v", err)
	}
}

func TestPurchaseLabel_ArchiveFailureKeepsLabel(t *testing.T) {
	var files []string
	archive := &stubArchive{err: errors.New("gridfs unavailable")}
	svc := newService([]ports.Carrier{labelStub(t, &files)}, WithLabelArchive(archive))

	receipt, err := svc.PurchaseLabel(context.Background(), rateQuery("UPS"))
	if err != nil {
		t.Fatalf("archive failure must not fail the purchase: %v", err)
	}
	if receipt.Labels[0].ArchiveID != "" || len(receipt.Labels[0].Image) == 0 {
		t.Errorf("label = %+v", receipt.Labels[0])
	}
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func TestQuoteKey_StableAndSensitive(t *testing.T) {
	a, err := quoteKey("UPS", rateQuery("UPS"))
	if err != nil {
		t.Fatal(err)
	}
	b, _ := quoteKey("UPS", rateQuery("ups"))
	if a != b {
		t.Error("carrier spelling in the query must not change the key")
	}

	q := rateQuery("UPS")
	q.Options.PickupType = domain.PickupDaily
	c, _ := quoteKey("UPS", q)
	if a == c {
		t.Error("pickup type should change the key")
	}
}
