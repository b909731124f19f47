package optimizer

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/djakobczak/basketwise/models"
	"github.com/djakobczak/basketwise/source"
)

func TestAcquireSortsByMinTotalThenRating(t *testing.T) {
	src := &fakeSource{
		candidates: map[string][]source.Candidate{
			"mouse": {{Name: "Mouse", Link: "cand-1"}},
		},
		offers: map[string][]*models.Offer{
			"cand-1": {
				mkOffer(t, "Mouse A", "50", decs("10"), "1", 3.0, 100), // delivered 60
				mkOffer(t, "Mouse B", "55", decs("0"), "2", 2.0, 100),  // delivered 55
				mkOffer(t, "Mouse C", "50", decs("5"), "3", 4.5, 100),  // delivered 55, better rated
			},
		},
	}

	line := NewProductLine("mouse", 1, 6, 8)
	if err := line.Acquire(context.Background(), src); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	offers := line.Offers()
	if len(offers) != 3 {
		t.Fatalf("offer count = %d, want 3", len(offers))
	}
	if offers[0].SellerID != "3" || offers[1].SellerID != "2" || offers[2].SellerID != "1" {
		t.Fatalf("sort order = [%s %s %s], want [3 2 1]",
			offers[0].SellerID, offers[1].SellerID, offers[2].SellerID)
	}
}

func TestAcquireCollectsAllConcurrentAppends(t *testing.T) {
	candidates := make([]source.Candidate, 0, 6)
	offers := make(map[string][]*models.Offer, 6)
	for i := 0; i < 6; i++ {
		link := fmt.Sprintf("cand-%d", i)
		candidates = append(candidates, source.Candidate{Name: link, Link: link})
		for j := 0; j < 3; j++ {
			sellerID := fmt.Sprintf("%d%d", i+1, j)
			offers[link] = append(offers[link],
				mkOffer(t, fmt.Sprintf("offer-%d-%d", i, j), "10", decs("1"), sellerID, 4.0, 100))
		}
	}
	src := &fakeSource{
		candidates: map[string][]source.Candidate{"mouse": candidates},
		offers:     offers,
		delay:      2 * time.Millisecond,
	}

	line := NewProductLine("mouse", 4, 6, 8)
	if err := line.Acquire(context.Background(), src); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// 6 workers x 3 offers, none lost, all stamped with the requested count.
	if line.Len() != 18 {
		t.Fatalf("offer count = %d, want 18", line.Len())
	}
	for _, o := range line.Offers() {
		if o.Quantity != 4 {
			t.Fatalf("offer %s quantity = %d, want 4", o.Name, o.Quantity)
		}
	}
}

func TestAcquireRespectsMaxOffers(t *testing.T) {
	src := &fakeSource{
		candidates: map[string][]source.Candidate{
			"mouse": {
				{Name: "a", Link: "cand-a"},
				{Name: "b", Link: "cand-b"},
				{Name: "c", Link: "cand-c"},
			},
		},
		offers: map[string][]*models.Offer{
			"cand-a": {mkOffer(t, "A", "10", decs("0"), "1", 4, 100)},
			"cand-b": {mkOffer(t, "B", "11", decs("0"), "2", 4, 100)},
			"cand-c": {mkOffer(t, "C", "12", decs("0"), "3", 4, 100)},
		},
	}

	line := NewProductLine("mouse", 1, 2, 8)
	if err := line.Acquire(context.Background(), src); err != nil {
		t.Fatalf("acquire: %v", err)
	}

	// maxOffers=2 bounds the fan-out to the first two candidates.
	if line.Len() != 2 {
		t.Fatalf("offer count = %d, want 2", line.Len())
	}
}

func TestAcquireIsolatesWorkerFailure(t *testing.T) {
	src := &fakeSource{
		candidates: map[string][]source.Candidate{
			"mouse": {
				{Name: "good", Link: "cand-good"},
				{Name: "bad", Link: "cand-bad"},
			},
		},
		offers: map[string][]*models.Offer{
			"cand-good": {mkOffer(t, "A", "10", decs("0"), "1", 4, 100)},
		},
		failing: map[string]bool{"cand-bad": true},
	}

	line := NewProductLine("mouse", 1, 6, 8)
	if err := line.Acquire(context.Background(), src); err != nil {
		t.Fatalf("a failed worker must not fail the acquisition: %v", err)
	}
	if line.Len() != 1 {
		t.Fatalf("offer count = %d, want 1", line.Len())
	}
}

func TestAcquireProductNotFound(t *testing.T) {
	src := &fakeSource{}

	line := NewProductLine("nothing", 1, 6, 8)
	err := line.Acquire(context.Background(), src)
	if !errors.Is(err, source.ErrProductNotFound) {
		t.Fatalf("err = %v, want ErrProductNotFound", err)
	}
	if line.Len() != 0 {
		t.Fatalf("line should stay empty, got %d offers", line.Len())
	}
}

func TestFilterStrictBounds(t *testing.T) {
	atMax := mkOffer(t, "AtMax", "100", decs("0"), "1", 4.0, 100)
	atMin := mkOffer(t, "AtMin", "10", decs("0"), "2", 4.0, 100)
	atRatingCount := mkOffer(t, "AtCount", "50", decs("0"), "3", 4.0, 50)
	atRating := mkOffer(t, "AtRating", "50", decs("0"), "4", 3.0, 100)
	passing := mkOffer(t, "Passing", "50", decs("0"), "5", 4.0, 100)

	line := lineWith("mouse", atMin, passing, atRating, atRatingCount, atMax)

	got := line.Filter(dec("10"), dec("100"), 3.0, 50)
	if len(got) != 1 || got[0] != passing {
		t.Fatalf("filter must exclude boundary values on all four bounds, got %d offers", len(got))
	}
}

func TestFilterMayBeEmpty(t *testing.T) {
	line := lineWith("mouse", mkOffer(t, "A", "10", decs("0"), "1", 1.0, 5))
	if got := line.Filter(dec("0"), dec("99999"), 0, 50); len(got) != 0 {
		t.Fatalf("expected empty filter result, got %d offers", len(got))
	}
}
