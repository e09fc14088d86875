package ups

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/beevik/etree"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/99minutos/carrier-bindings/internal/core/domain"
	"github.com/99minutos/carrier-bindings/pkg/xmlnode"
)

// ---------------------------------------------------------------------------
// Stub poster
// ---------------------------------------------------------------------------

type postedRequest struct {
	URL         string
	ContentType string
	Body        string
}

// stubPoster answers by matching the URL suffix against responses.
type stubPoster struct {
	mu        sync.Mutex
	responses map[string][]byte
	err       error
	calls     []postedRequest
}

func newStubPoster() *stubPoster {
	return &stubPoster{responses: make(map[string][]byte)}
}

func (p *stubPoster) on(resource string, body []byte) *stubPoster {
	p.responses[resource] = body
	return p
}

func (p *stubPoster) Post(_ context.Context, url, contentType string, body []byte) ([]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, postedRequest{URL: url, ContentType: contentType, Body: string(body)})
	if p.err != nil {
		return nil, p.err
	}
	for suffix, resp := range p.responses {
		if strings.HasSuffix(url, suffix) {
			return resp, nil
		}
	}
	return nil, &domain.TransportError{URL: url, StatusCode: 404}
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

var fixedNow = time.Date(2024, 3, 4, 9, 0, 0, 0, time.UTC) // a Monday

func fixture(t *testing.T, name string) []byte {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return b
}

func trackingFixture(t *testing.T, shipperCity, code, description string) []byte {
	t.Helper()
	r := strings.NewReplacer("{shipper_city}", shipperCity, "{status_code}", code, "{status_description}", description)
	return []byte(r.Replace(string(fixture(t, "tracking_response.xml"))))
}

func atlanta() domain.Location {
	return domain.Location{
		Name:       "Indie Game The Movie",
		Company:    "Distribution",
		Address1:   "100 Peachtree St",
		City:       "Atlanta",
		State:      "GA",
		PostalCode: "30303",
		Country:    "US",
		Phone:      "(404) 555-0100",
		Commercial: true,
	}
}

func portland() domain.Location {
	return domain.Location{
		Name:       "Ron Chan",
		Address1:   "333 SW 5th Ave",
		Address2:   "Ste 500",
		City:       "Portland",
		State:      "OR",
		PostalCode: "97204",
		Country:    "US",
	}
}

func toronto() domain.Location {
	return domain.Location{
		Name:       "Maple Goods",
		Address1:   "1 Yonge St",
		City:       "Toronto",
		State:      "ON",
		PostalCode: "M5E 1E5",
		Country:    "CA",
		Commercial: true,
	}
}

func onePound() domain.Package {
	return domain.NewImperialPackage(16, [3]float64{4, 12, 10}, decimal.RequireFromString("69.99"))
}

func testConfig() Config {
	return Config{Key: "KEY", Login: "login", Password: "secret", OriginAccount: "A1B2C3", Test: true}
}

func newTestClient(p *stubPoster) *Client {
	return New(testConfig(), p, zerolog.Nop(), WithClock(func() time.Time { return fixedNow }))
}

// requestRoot parses the document whose root tag is name out of a
// concatenated UPS request body.
func requestRoot(t *testing.T, body, name string) *etree.Element {
	t.Helper()
	i := strings.Index(body, "<"+name)
	require.GreaterOrEqual(t, i, 0, "%s not found in request", name)
	root, err := xmlnode.Parse([]byte(body[i:]))
	require.NoError(t, err)
	return root
}
