package models

import (
	"sort"

	"github.com/shopspring/decimal"
)

// Basket is one candidate purchase: a fixed-width slot sequence with one
// slot per product line, in requirement order. A nil slot means no offer was
// chosen for that line. Baskets are priced at construction and immutable
// afterwards; when requirements change they are rebuilt, never patched.
type Basket struct {
	slots        []*Offer
	totalPrice   decimal.Decimal
	nonNullCount int
}

// NewBasket prices the given slots and returns the finished basket. The
// slice is copied, so callers may reuse their buffer.
func NewBasket(slots []*Offer) *Basket {
	b := &Basket{slots: make([]*Offer, len(slots))}
	copy(b.slots, slots)
	b.price()
	return b
}

// Slots returns the slot sequence in requirement order.
func (b *Basket) Slots() []*Offer {
	return b.slots
}

// TotalPrice is the aggregate of item prices and per-seller delivery
// contributions.
func (b *Basket) TotalPrice() decimal.Decimal {
	return b.totalPrice
}

// NonNullCount is the number of slots holding a real offer.
func (b *Basket) NonNullCount() int {
	return b.nonNullCount
}

// Equal reports whether both baskets hold the same slot sequence. Slots
// compare by identity; empty slots match empty slots.
func (b *Basket) Equal(other *Basket) bool {
	if other == nil || len(b.slots) != len(other.slots) {
		return false
	}
	for i, slot := range b.slots {
		if slot != other.slots[i] {
			return false
		}
	}
	return true
}

// price computes the aggregate basket price. Real offers are walked in unit
// price order and their delivery option lists are pooled per seller. A seller
// supplying more than one slot contributes the most expensive option of the
// pooled list (conservative: the shop may ship the bulky combination); a
// seller supplying exactly one slot contributes its cheapest option.
func (b *Basket) price() {
	offers := make([]*Offer, 0, len(b.slots))
	for _, slot := range b.slots {
		if slot != nil {
			offers = append(offers, slot)
		}
	}
	b.nonNullCount = len(offers)

	sort.SliceStable(offers, func(i, j int) bool {
		return offers[i].UnitPrice.LessThan(offers[j].UnitPrice)
	})

	total := decimal.Zero
	deliveries := make(map[string][]decimal.Decimal)
	perSeller := make(map[string]int)
	for _, o := range offers {
		total = total.Add(o.UnitPrice.Mul(decimal.NewFromInt(int64(o.Quantity))))
		deliveries[o.SellerID] = append(deliveries[o.SellerID], o.DeliveryOptions...)
		perSeller[o.SellerID]++
	}

	for sellerID, options := range deliveries {
		if perSeller[sellerID] > 1 {
			total = total.Add(maxDecimal(options))
		} else {
			total = total.Add(minDecimal(options))
		}
	}
	b.totalPrice = total
}

func minDecimal(values []decimal.Decimal) decimal.Decimal {
	min := values[0]
	for _, v := range values[1:] {
		if v.LessThan(min) {
			min = v
		}
	}
	return min
}

func maxDecimal(values []decimal.Decimal) decimal.Decimal {
	max := values[0]
	for _, v := range values[1:] {
		if v.GreaterThan(max) {
			max = v
		}
	}
	return max
}
