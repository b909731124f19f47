package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds every tunable of the search: scraping limits, retry policy
// and the default filter values applied when a user leaves a field blank.
type Config struct {
	BaseURL         string
	MaxOffers       int // candidate listings fetched concurrently per product line
	MaxStores       int // offers taken from a single listing page
	ReturnedSets    int // ranked baskets returned by the optimizer
	Timeout         time.Duration
	MaxRetries      int
	RetryBackoff    time.Duration
	RetryBackoffMax time.Duration
	CacheSize       int // candidate-list LRU entries
	UserAgent       string
	MetricsAddr     string
	Verbose         bool

	DefaultQuantity       int
	DefaultMinPrice       decimal.Decimal
	DefaultMaxPrice       decimal.Decimal
	DefaultMinRating      float64
	DefaultMinRatingCount int
}

// DefaultConfig returns the limits the optimizer was tuned with.
func DefaultConfig() *Config {
	return &Config{
		BaseURL:               "https://www.skapiec.pl",
		MaxOffers:             6,
		MaxStores:             8,
		ReturnedSets:          3,
		Timeout:               10 * time.Second,
		MaxRetries:            2,
		RetryBackoff:          200 * time.Millisecond,
		RetryBackoffMax:       2 * time.Second,
		CacheSize:             64,
		UserAgent:             "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/117.0.0.0 Safari/537.36",
		MetricsAddr:           "",
		Verbose:               false,
		DefaultQuantity:       1,
		DefaultMinPrice:       decimal.Zero,
		DefaultMaxPrice:       decimal.NewFromInt(99999),
		DefaultMinRating:      0,
		DefaultMinRatingCount: 50,
	}
}

// Validate ensures all configuration values are coherent.
func (c *Config) Validate() error {
	if c.BaseURL == "" {
		return fmt.Errorf("base URL cannot be empty")
	}

	parsedURL, err := url.Parse(c.BaseURL)
	if err != nil {
		return fmt.Errorf("invalid base URL: %w", err)
	}
	if parsedURL.Host == "" {
		return fmt.Errorf("base URL must include a host")
	}

	if c.MaxOffers <= 0 {
		return fmt.Errorf("max offers must be positive")
	}
	if c.MaxStores <= 0 {
		return fmt.Errorf("max stores must be positive")
	}
	if c.ReturnedSets <= 0 {
		return fmt.Errorf("returned sets must be positive")
	}
	if c.Timeout <= 0 {
		return fmt.Errorf("timeout must be positive")
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("max retries cannot be negative")
	}
	if c.RetryBackoff < 0 {
		return fmt.Errorf("retry backoff cannot be negative")
	}
	if c.RetryBackoffMax < 0 {
		return fmt.Errorf("retry backoff max cannot be negative")
	}
	if c.RetryBackoffMax > 0 && c.RetryBackoff > c.RetryBackoffMax {
		return fmt.Errorf("retry backoff (%s) cannot exceed retry backoff max (%s)", c.RetryBackoff, c.RetryBackoffMax)
	}
	if c.CacheSize <= 0 {
		return fmt.Errorf("cache size must be positive")
	}
	if c.UserAgent == "" {
		return fmt.Errorf("user agent cannot be empty")
	}
	if c.DefaultQuantity <= 0 {
		return fmt.Errorf("default quantity must be positive")
	}
	if c.DefaultMinPrice.IsNegative() {
		return fmt.Errorf("default min price cannot be negative")
	}
	if c.DefaultMaxPrice.LessThanOrEqual(c.DefaultMinPrice) {
		return fmt.Errorf("default max price (%s) must exceed default min price (%s)",
			c.DefaultMaxPrice, c.DefaultMinPrice)
	}
	if c.DefaultMinRating < 0 {
		return fmt.Errorf("default min rating cannot be negative")
	}
	if c.DefaultMinRatingCount < 0 {
		return fmt.Errorf("default min rating count cannot be negative")
	}

	return nil
}
