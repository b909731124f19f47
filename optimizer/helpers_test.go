package optimizer

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/djakobczak/basketwise/models"
	"github.com/djakobczak/basketwise/source"
	"github.com/shopspring/decimal"
)

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func decs(values ...string) []decimal.Decimal {
	out := make([]decimal.Decimal, 0, len(values))
	for _, v := range values {
		out = append(out, dec(v))
	}
	return out
}

func mkOffer(t *testing.T, name, price string, deliveries []decimal.Decimal,
	sellerID string, rating float64, ratingCount int) *models.Offer {
	t.Helper()
	o, err := models.NewOffer(name, dec(price), deliveries, rating, ratingCount,
		"https://www.skapiec.pl/red/"+sellerID+"/"+name, "store-"+sellerID)
	if err != nil {
		t.Fatalf("test offer %s: %v", name, err)
	}
	o.Quantity = 1
	return o
}

// lineWith wraps pre-sorted offers in a read-only product line, the state a
// line is in after Acquire.
func lineWith(name string, offers ...*models.Offer) *ProductLine {
	return &ProductLine{Name: name, RequestedCount: 1, offers: offers}
}

// reqWith builds a requirement with wide-open constraints around a line.
func reqWith(name string, line *ProductLine) *Requirement {
	return &Requirement{
		Name:     name,
		Quantity: 1,
		MinPrice: decimal.Zero,
		MaxPrice: dec("99999"),
		Line:     line,
	}
}

// fakeSource is an in-memory OfferSource for optimizer tests. Candidate
// links mapped in failing return a FetchError; delay simulates network
// latency inside the acquisition workers.
type fakeSource struct {
	candidates map[string][]source.Candidate
	offers     map[string][]*models.Offer
	failing    map[string]bool
	delay      time.Duration

	mu        sync.Mutex
	listCalls int
}

var _ source.OfferSource = (*fakeSource)(nil)

func (f *fakeSource) ListCandidates(ctx context.Context, productName string) ([]source.Candidate, error) {
	f.mu.Lock()
	f.listCalls++
	f.mu.Unlock()

	candidates := f.candidates[strings.ToLower(productName)]
	if len(candidates) == 0 {
		return nil, source.ErrProductNotFound
	}
	return candidates, nil
}

func (f *fakeSource) FetchOffers(ctx context.Context, candidate source.Candidate, maxCount int) ([]*models.Offer, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	if f.failing[candidate.Link] {
		return nil, &source.FetchError{Link: candidate.Link, Err: errors.New("connection reset")}
	}

	offers := f.offers[candidate.Link]
	if len(offers) > maxCount {
		offers = offers[:maxCount]
	}
	return offers, nil
}
