package source

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	// "od 12,99 zł do 15,99 zł" — a delivery price range; the minimum counts.
	deliveryRangePattern = regexp.MustCompile(`od\s+(\d+(?:[.,]\d+)?)`)

	// data-description="{'avg': 4.5, 'count': 120}"
	ratingAvgPattern   = regexp.MustCompile(`'avg'\s*:\s*([0-9.]+)`)
	ratingCountPattern = regexp.MustCompile(`'count'\s*:\s*([0-9]+)`)

	priceCleaner = strings.NewReplacer(
		"zł", "",
		"zl", "",
		"od", "",
		",", ".",
		" ", "",
		" ", "",
	)
)

// ParsePrice turns a Polish-formatted price string ("1 234,56 zł", "od 99 zł")
// into a decimal.
func ParsePrice(text string) (decimal.Decimal, error) {
	cleaned := strings.TrimSpace(priceCleaner.Replace(text))
	if cleaned == "" {
		return decimal.Zero, fmt.Errorf("empty price text %q", text)
	}
	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero, fmt.Errorf("parse price %q: %w", text, err)
	}
	if price.IsNegative() {
		return decimal.Zero, fmt.Errorf("negative price %q", text)
	}
	return price, nil
}

// ParseDeliveryPrice parses one cell of the delivery price table. Ranges
// like "od 5,99 zł do 12,99 zł" yield the lower bound.
func ParseDeliveryPrice(text string) (decimal.Decimal, error) {
	text = strings.TrimSpace(text)
	if match := deliveryRangePattern.FindStringSubmatch(text); match != nil {
		return ParsePrice(match[1])
	}
	return ParsePrice(text)
}

// ParseRating extracts the seller's average rating and rating count from the
// rating widget's data-description attribute. Sellers without a rating
// widget get zero for both.
func ParseRating(description string) (float64, int) {
	if description == "" {
		return 0, 0
	}

	var avg float64
	if match := ratingAvgPattern.FindStringSubmatch(description); match != nil {
		if parsed, err := strconv.ParseFloat(match[1], 64); err == nil {
			avg = parsed
		}
	}
	var count int
	if match := ratingCountPattern.FindStringSubmatch(description); match != nil {
		if parsed, err := strconv.Atoi(match[1]); err == nil {
			count = parsed
		}
	}
	return avg, count
}

// searchURL builds the search page address; the trailing /price/ segment
// asks the site for ascending price order.
func searchURL(baseURL, productName string) string {
	name := strings.ReplaceAll(strings.TrimSpace(productName), " ", "+")
	return fmt.Sprintf("%s/szukaj/w_calym_serwisie/%s/price/", baseURL, name)
}

// truncateName caps listing names the way the results page displays them.
func truncateName(name string, limit int) string {
	runes := []rune(strings.TrimSpace(name))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit])
}
