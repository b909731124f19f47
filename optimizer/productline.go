// Package optimizer contains the algorithmic core: concurrent offer
// acquisition per product line, requirement filtering, and the search over
// candidate basket assignments.
package optimizer

import (
	"context"
	"log/slog"
	"sort"
	"sync"

	"github.com/djakobczak/basketwise/models"
	"github.com/djakobczak/basketwise/source"
	"github.com/shopspring/decimal"
)

// ProductLine owns the offers gathered for one requirement. It is written
// only during Acquire and read-only afterwards.
type ProductLine struct {
	Name           string
	RequestedCount int

	maxOffers int
	maxStores int
	offers    []*models.Offer
}

// NewProductLine builds an empty line for one requirement. maxOffers bounds
// the concurrent candidate fan-out, maxStores the offers per candidate.
func NewProductLine(name string, requestedCount, maxOffers, maxStores int) *ProductLine {
	return &ProductLine{
		Name:           name,
		RequestedCount: requestedCount,
		maxOffers:      maxOffers,
		maxStores:      maxStores,
	}
}

// Acquire lists candidates for the line's name and fetches each candidate's
// offers in its own goroutine, at most maxOffers of them. It blocks until
// every worker finished, then sorts the collected offers by delivered
// minimum total, ties broken by seller rating. A failed worker only logs and
// contributes nothing; callers never observe a partially populated line.
func (pl *ProductLine) Acquire(ctx context.Context, src source.OfferSource) error {
	candidates, err := src.ListCandidates(ctx, pl.Name)
	if err != nil {
		return err
	}
	if len(candidates) == 0 {
		return source.ErrProductNotFound
	}

	if len(candidates) > pl.maxOffers {
		candidates = candidates[:pl.maxOffers]
	}

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, candidate := range candidates {
		wg.Add(1)
		go func(c source.Candidate) {
			defer wg.Done()

			offers, err := src.FetchOffers(ctx, c, pl.maxStores)
			if err != nil {
				slog.Warn("candidate fetch failed, contributes no offers",
					slog.String("product", pl.Name),
					slog.String("candidate", c.Name),
					slog.Any("error", err),
				)
				return
			}
			for _, offer := range offers {
				offer.Quantity = pl.RequestedCount
			}

			mu.Lock()
			pl.offers = append(pl.offers, offers...)
			mu.Unlock()
		}(candidate)
	}
	wg.Wait()

	sort.SliceStable(pl.offers, func(i, j int) bool {
		cmp := pl.offers[i].MinTotal.Cmp(pl.offers[j].MinTotal)
		if cmp != 0 {
			return cmp < 0
		}
		return pl.offers[i].RatingAverage > pl.offers[j].RatingAverage
	})

	slog.Info("product line acquired",
		slog.String("product", pl.Name),
		slog.Int("candidates", len(candidates)),
		slog.Int("offers", len(pl.offers)),
	)
	return nil
}

// Offers returns the acquired offers, cheapest delivered total first.
func (pl *ProductLine) Offers() []*models.Offer {
	return pl.offers
}

// Len returns the number of acquired offers.
func (pl *ProductLine) Len() int {
	return len(pl.offers)
}

// Filter returns the offers satisfying the user's constraints. All four
// bounds are strict: an offer priced exactly at a bound, or with exactly the
// minimum rating count, is excluded. The result keeps acquisition order and
// may be empty.
func (pl *ProductLine) Filter(minPrice, maxPrice decimal.Decimal, minRating float64, minRatingCount int) []*models.Offer {
	out := make([]*models.Offer, 0, len(pl.offers))
	for _, o := range pl.offers {
		if o.UnitPrice.GreaterThan(minPrice) && o.UnitPrice.LessThan(maxPrice) &&
			o.RatingAverage > minRating && o.RatingCount > minRatingCount {
			out = append(out, o)
		}
	}
	return out
}
