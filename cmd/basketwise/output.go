package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/djakobczak/basketwise/config"
	"github.com/djakobczak/basketwise/models"
	"github.com/djakobczak/basketwise/optimizer"
	"github.com/shopspring/decimal"
)

// productSpec is one --product flag value after parsing. Omitted fields take
// the configured defaults.
type productSpec struct {
	Name           string
	Quantity       int
	MinPrice       decimal.Decimal
	MaxPrice       decimal.Decimal
	MinRating      float64
	MinRatingCount int
}

// parseProductSpec parses "name[:qty[:min[:max[:rating[:nrates]]]]]".
func parseProductSpec(spec string, cfg *config.Config) (*productSpec, error) {
	parts := strings.Split(spec, ":")
	if len(parts) > 6 {
		return nil, fmt.Errorf("product spec %q: too many fields", spec)
	}

	name := strings.TrimSpace(parts[0])
	if name == "" {
		return nil, fmt.Errorf("product spec %q: empty name", spec)
	}

	result := &productSpec{
		Name:           name,
		Quantity:       cfg.DefaultQuantity,
		MinPrice:       cfg.DefaultMinPrice,
		MaxPrice:       cfg.DefaultMaxPrice,
		MinRating:      cfg.DefaultMinRating,
		MinRatingCount: cfg.DefaultMinRatingCount,
	}

	for i, raw := range parts[1:] {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		switch i {
		case 0:
			quantity, err := strconv.Atoi(raw)
			if err != nil || quantity < 1 {
				return nil, fmt.Errorf("product spec %q: invalid quantity %q", spec, raw)
			}
			result.Quantity = quantity
		case 1:
			minPrice, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("product spec %q: invalid min price %q", spec, raw)
			}
			result.MinPrice = minPrice
		case 2:
			maxPrice, err := decimal.NewFromString(raw)
			if err != nil {
				return nil, fmt.Errorf("product spec %q: invalid max price %q", spec, raw)
			}
			result.MaxPrice = maxPrice
		case 3:
			rating, err := strconv.ParseFloat(raw, 64)
			if err != nil || rating < 0 {
				return nil, fmt.Errorf("product spec %q: invalid rating %q", spec, raw)
			}
			result.MinRating = rating
		case 4:
			count, err := strconv.Atoi(raw)
			if err != nil || count < 0 {
				return nil, fmt.Errorf("product spec %q: invalid rating count %q", spec, raw)
			}
			result.MinRatingCount = count
		}
	}

	if result.MaxPrice.LessThanOrEqual(result.MinPrice) {
		return nil, fmt.Errorf("product spec %q: max price must exceed min price", spec)
	}
	return result, nil
}

// basketResult pairs a ranked basket with the line names its slots answer.
type basketResult struct {
	basket    *models.Basket
	lineNames []string
}

func describeBaskets(baskets []*models.Basket, reqs []*optimizer.Requirement) []*basketResult {
	names := make([]string, len(reqs))
	for i, req := range reqs {
		names[i] = req.Name
	}

	results := make([]*basketResult, 0, len(baskets))
	for _, basket := range baskets {
		result := &basketResult{basket: basket, lineNames: names}
		if len(names) < len(basket.Slots()) {
			padded := make([]string, len(basket.Slots()))
			copy(padded, names)
			result.lineNames = padded
		}
		results = append(results, result)
	}
	return results
}

func printResults(w io.Writer, results []*basketResult, messages []string) {
	for _, message := range messages {
		fmt.Fprintf(w, "note: %s\n", message)
	}
	if len(messages) > 0 {
		fmt.Fprintln(w)
	}

	if len(results) == 0 {
		fmt.Fprintln(w, "No baskets found.")
		return
	}

	for rank, result := range results {
		basket := result.basket
		fmt.Fprintf(w, "#%d  total %s zl  (%d/%d lines)\n",
			rank+1, basket.TotalPrice().StringFixed(2), basket.NonNullCount(), len(basket.Slots()))

		tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
		for i, offer := range basket.Slots() {
			name := result.lineNames[i]
			if offer == nil {
				fmt.Fprintf(tw, "    %s\tunavailable\t\t\n", name)
				continue
			}
			fmt.Fprintf(tw, "    %s\t%s x%d\t%s zl\t%s\n",
				name, offer.SellerName, offer.Quantity, offer.UnitPrice.StringFixed(2), offer.Link)
		}
		tw.Flush()
		fmt.Fprintln(w)
	}
}
