// Package models defines the value types the optimizer works on: a single
// seller's Offer for one product line and a Basket of one offer per line.
package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// sellerIDPattern matches the stable store identifier embedded in a
// listing's canonical link, e.g. ".../red/866987/offer".
var sellerIDPattern = regexp.MustCompile(`red/(\d+)/`)

// Offer is one seller's listing for one product line. Offers are built by an
// offer source and never modified afterwards except for LineID and Quantity
// stamping during acquisition and basket construction.
type Offer struct {
	LineID          int
	Name            string
	UnitPrice       decimal.Decimal
	DeliveryOptions []decimal.Decimal
	RatingAverage   float64
	RatingCount     int
	SellerID        string
	SellerName      string
	Link            string
	Quantity        int

	MinTotal decimal.Decimal // unit price + cheapest delivery option
	MaxTotal decimal.Decimal // unit price + most expensive delivery option
}

// NewOffer builds an Offer and computes its derived totals. It rejects
// listings without any delivery option and listings whose link carries no
// seller identifier; callers drop those rows instead of constructing a
// partially usable offer.
func NewOffer(name string, unitPrice decimal.Decimal, deliveryOptions []decimal.Decimal,
	ratingAverage float64, ratingCount int, link, sellerName string) (*Offer, error) {

	if len(deliveryOptions) == 0 {
		return nil, fmt.Errorf("offer %q: no delivery options", name)
	}
	sellerID, err := SellerIDFromLink(link)
	if err != nil {
		return nil, fmt.Errorf("offer %q: %w", name, err)
	}

	o := &Offer{
		LineID:          -1,
		Name:            strings.TrimSpace(name),
		UnitPrice:       unitPrice,
		DeliveryOptions: deliveryOptions,
		RatingAverage:   ratingAverage,
		RatingCount:     ratingCount,
		SellerID:        sellerID,
		SellerName:      sellerName,
		Link:            link,
	}
	o.MinTotal = unitPrice.Add(o.MinDelivery())
	o.MaxTotal = unitPrice.Add(o.MaxDelivery())
	return o, nil
}

// SellerIDFromLink extracts the stable store identifier from a listing link.
func SellerIDFromLink(link string) (string, error) {
	match := sellerIDPattern.FindStringSubmatch(link)
	if match == nil {
		return "", fmt.Errorf("link %q: no seller id", link)
	}
	return match[1], nil
}

// MinDelivery returns the cheapest delivery option.
func (o *Offer) MinDelivery() decimal.Decimal {
	min := o.DeliveryOptions[0]
	for _, d := range o.DeliveryOptions[1:] {
		if d.LessThan(min) {
			min = d
		}
	}
	return min
}

// MaxDelivery returns the most expensive delivery option.
func (o *Offer) MaxDelivery() decimal.Decimal {
	max := o.DeliveryOptions[0]
	for _, d := range o.DeliveryOptions[1:] {
		if d.GreaterThan(max) {
			max = d
		}
	}
	return max
}

func (o *Offer) String() string {
	return fmt.Sprintf("%s %s zl (+%s delivery) seller=%s rating=%.1f/%d",
		o.Name, o.UnitPrice, o.MinDelivery(), o.SellerName, o.RatingAverage, o.RatingCount)
}
