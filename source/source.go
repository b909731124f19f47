// Package source acquires raw offers from a price-comparison site. The
// optimizer only sees the OfferSource interface; the colly-backed skapiec.pl
// implementation lives here together with its parsing, caching and metrics.
package source

import (
	"context"

	"github.com/djakobczak/basketwise/models"
	"github.com/shopspring/decimal"
)

// Candidate is one search result: a product listing whose page holds the
// per-store offers.
type Candidate struct {
	Name     string
	MinPrice decimal.Decimal // lowest advertised price on the search page
	Link     string
}

// OfferSource yields candidate listings for a product name and concrete
// offers for a candidate listing.
//
// ListCandidates fails with ErrProductNotFound when the source has nothing
// for the name. FetchOffers returns between zero and maxCount offers;
// internal failures degrade to a shorter (possibly empty) result and are
// logged, they never have to abort the caller.
type OfferSource interface {
	ListCandidates(ctx context.Context, productName string) ([]Candidate, error)
	FetchOffers(ctx context.Context, candidate Candidate, maxCount int) ([]*models.Offer, error)
}
