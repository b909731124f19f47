package optimizer

import (
	"fmt"
	"sort"

	"github.com/djakobczak/basketwise/models"
)

// Optimizer builds and ranks candidate baskets from requirements whose
// product lines have already been acquired. It is deterministic and purely
// computational: running it twice over unchanged lines yields identical
// output.
type Optimizer struct {
	returnedSets int
	reqs         []*Requirement
}

// New builds an optimizer returning at most returnedSets ranked baskets.
func New(returnedSets int, reqs []*Requirement) *Optimizer {
	return &Optimizer{returnedSets: returnedSets, reqs: reqs}
}

// Find builds the baseline basket (each line's cheapest candidate) and the
// rank-k baskets (each line's k-th cheapest candidate) and returns them
// ranked by (covered lines desc, total price asc), together with the
// advisory messages produced while selecting candidates. An empty
// requirement list yields an empty result without error; missing offers
// become empty slots and surface only through the messages.
func (o *Optimizer) Find() ([]*models.Basket, []string) {
	if len(o.reqs) == 0 {
		return nil, nil
	}

	candidates, msgs := o.candidateSets()
	return rankBaskets(o.rankKBaskets(candidates)), msgs
}

// FindConsolidated extends Find with the store-consolidation strategy:
// baskets favoring sellers covering several lines are generated, deduplicated
// against the rank-k baskets and merged into the final ranking.
func (o *Optimizer) FindConsolidated() ([]*models.Basket, []string) {
	if len(o.reqs) == 0 {
		return nil, nil
	}

	candidates, msgs := o.candidateSets()
	primary := rankBaskets(o.rankKBaskets(candidates))
	consolidated := ConsolidatedBaskets(candidates, buildRank(candidates, 0))
	return MergeRanked(primary, consolidated, o.returnedSets), msgs
}

// candidateSets picks the offer list each line competes with: the filtered
// offers when any survive the requirements, the full unfiltered list plus a
// "requirements relaxed" message when none do, and an empty set plus a "not
// found" message when the line has no offers at all.
func (o *Optimizer) candidateSets() ([][]*models.Offer, []string) {
	sets := make([][]*models.Offer, 0, len(o.reqs))
	var msgs []string

	for _, req := range o.reqs {
		if req.Line == nil || req.Line.Len() == 0 {
			sets = append(sets, nil)
			msgs = append(msgs, fmt.Sprintf("no offers found for %q", req.Name))
			continue
		}

		filtered := req.Line.Filter(req.MinPrice, req.MaxPrice, req.MinRating, req.MinRatingCount)
		if len(filtered) == 0 {
			sets = append(sets, req.Line.Offers())
			msgs = append(msgs, fmt.Sprintf("%q does not meet the requirements, offers listed without the criteria", req.Name))
			continue
		}
		sets = append(sets, filtered)
	}
	return sets, msgs
}

// rankKBaskets builds the baseline (k=0) and the k-th cheapest baskets.
func (o *Optimizer) rankKBaskets(candidates [][]*models.Offer) []*models.Basket {
	baskets := make([]*models.Basket, 0, o.returnedSets)
	for k := 0; k < o.returnedSets; k++ {
		baskets = append(baskets, buildRank(candidates, k))
	}
	return baskets
}

// buildRank assembles the basket holding every line's k-th candidate; lines
// with fewer candidates contribute an empty slot. Chosen offers are stamped
// with their line index.
func buildRank(candidates [][]*models.Offer, k int) *models.Basket {
	slots := make([]*models.Offer, len(candidates))
	for j, set := range candidates {
		if k < len(set) {
			offer := set[k]
			offer.LineID = j
			slots[j] = offer
		}
	}
	return models.NewBasket(slots)
}

// ConsolidatedBaskets generates one basket per seller that covers more than
// one line: the seller's cheapest offer for each line it covers, the
// baseline offer everywhere else. Sellers are visited in a fixed order so
// the result is deterministic.
func ConsolidatedBaskets(candidates [][]*models.Offer, baseline *models.Basket) []*models.Basket {
	bySeller := make(map[string][]*models.Offer)
	for j, set := range candidates {
		for _, offer := range set {
			offer.LineID = j
			bySeller[offer.SellerID] = append(bySeller[offer.SellerID], offer)
		}
	}

	sellerIDs := make([]string, 0, len(bySeller))
	for sellerID := range bySeller {
		sellerIDs = append(sellerIDs, sellerID)
	}
	sort.Strings(sellerIDs)

	var baskets []*models.Basket
	for _, sellerID := range sellerIDs {
		slots := make([]*models.Offer, len(candidates))
		covered := 0
		for _, offer := range bySeller[sellerID] {
			if slots[offer.LineID] == nil {
				slots[offer.LineID] = offer
				covered++
			}
		}
		if covered < 2 {
			continue
		}

		for j, slot := range baseline.Slots() {
			if slots[j] == nil {
				slots[j] = slot
			}
		}
		baskets = append(baskets, models.NewBasket(slots))
	}
	return baskets
}

// MergeRanked merges extra baskets into an already ranked primary list,
// dropping extras equal to a primary basket, and returns the top n of the
// combined ranking.
func MergeRanked(primary, extra []*models.Basket, n int) []*models.Basket {
	merged := make([]*models.Basket, 0, len(primary)+len(extra))
	merged = append(merged, primary...)
	for _, basket := range extra {
		duplicate := false
		for _, existing := range primary {
			if basket.Equal(existing) {
				duplicate = true
				break
			}
		}
		if !duplicate {
			merged = append(merged, basket)
		}
	}

	merged = rankBaskets(merged)
	if len(merged) > n {
		merged = merged[:n]
	}
	return merged
}

// PruneBySeller narrows one line's offer list to consolidation-worthy
// entries: offers whose bare unit price already exceeds the cheapest offer's
// delivered total can never win, and only the best offer per seller is kept.
// The input is not modified.
func PruneBySeller(offers []*models.Offer) []*models.Offer {
	if len(offers) == 0 {
		return nil
	}

	sorted := make([]*models.Offer, len(offers))
	copy(sorted, offers)
	sort.SliceStable(sorted, func(i, j int) bool {
		cmp := sorted[i].MinTotal.Cmp(sorted[j].MinTotal)
		if cmp != 0 {
			return cmp < 0
		}
		return sorted[i].RatingAverage > sorted[j].RatingAverage
	})

	cheapest := sorted[0]
	seen := make(map[string]bool)
	var out []*models.Offer
	for _, offer := range sorted {
		if offer.UnitPrice.GreaterThan(cheapest.MinTotal) {
			continue
		}
		if seen[offer.SellerID] {
			continue
		}
		seen[offer.SellerID] = true
		out = append(out, offer)
	}
	return out
}

// rankBaskets orders baskets by covered lines (more first), then by total
// price (cheaper first).
func rankBaskets(baskets []*models.Basket) []*models.Basket {
	sort.SliceStable(baskets, func(i, j int) bool {
		if baskets[i].NonNullCount() != baskets[j].NonNullCount() {
			return baskets[i].NonNullCount() > baskets[j].NonNullCount()
		}
		return baskets[i].TotalPrice().LessThan(baskets[j].TotalPrice())
	})
	return baskets
}
