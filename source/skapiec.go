package source

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/djakobczak/basketwise/config"
	"github.com/djakobczak/basketwise/models"
	"github.com/gocolly/colly/v2"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/shopspring/decimal"
)

// Delivery details are spread over per-method pages; methods 3 and 4 are
// personal pickup and carry no shipping price.
var deliveryMethodIDs = []int{1, 2, 5}

// nameDisplayLimit caps listing names the way the results page shows them.
const nameDisplayLimit = 60

var _ OfferSource = (*Skapiec)(nil)

// Skapiec scrapes skapiec.pl search and listing pages into Candidates and
// Offers. Safe for concurrent use: every call builds its own collector, the
// candidate cache is the only shared state.
type Skapiec struct {
	cfg       *config.Config
	host      string
	transport http.RoundTripper
	cache     *lru.Cache[string, []Candidate]
	metrics   *Metrics
}

// NewSkapiec builds a source configured from cfg.
func NewSkapiec(cfg *config.Config) (*Skapiec, error) {
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("base url must include a host")
	}

	cache, err := lru.New[string, []Candidate](cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("create candidate cache: %w", err)
	}

	return &Skapiec{
		cfg:  cfg,
		host: parsed.Host,
		transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout:   cfg.Timeout,
				KeepAlive: 30 * time.Second,
			}).DialContext,
			MaxIdleConns:        100,
			IdleConnTimeout:     90 * time.Second,
			TLSHandshakeTimeout: 10 * time.Second,
		},
		cache:   cache,
		metrics: NewMetrics(),
	}, nil
}

// Metrics exposes the source's Prometheus registry for the metrics endpoint.
func (s *Skapiec) Metrics() *Metrics {
	return s.metrics
}

// ListCandidates searches the site for productName and returns the candidate
// listings found on the first results page. Repeat searches of the same name
// are served from the LRU cache.
func (s *Skapiec) ListCandidates(ctx context.Context, productName string) ([]Candidate, error) {
	key := strings.ToLower(strings.TrimSpace(productName))
	if cached, ok := s.cache.Get(key); ok {
		s.metrics.IncCacheHit()
		return cached, nil
	}

	c := s.newCollector()

	var notFound bool
	c.OnHTML("div.message.only-header.info", func(e *colly.HTMLElement) {
		notFound = true
	})

	var candidates []Candidate
	c.OnHTML(".box-row.js", func(e *colly.HTMLElement) {
		name := strings.TrimSpace(e.ChildText("h2.title.gtm_red_solink"))
		href := e.ChildAttr("a[href]", "href")
		if name == "" || href == "" {
			return
		}
		price, err := ParsePrice(e.ChildText("strong.price.gtm_sor_price"))
		if err != nil {
			slog.Warn("skipping candidate with unreadable price",
				slog.String("name", name),
				slog.Any("error", err),
			)
			return
		}
		candidates = append(candidates, Candidate{
			Name:     name,
			MinPrice: price,
			Link:     e.Request.AbsoluteURL(href),
		})
	})

	start := time.Now()
	if err := s.visit(ctx, c, searchURL(s.cfg.BaseURL, productName)); err != nil {
		s.metrics.IncSearch("error")
		s.metrics.IncError(err)
		return nil, fmt.Errorf("search %q: %w", productName, err)
	}
	s.metrics.ObserveFetch(time.Since(start))

	if notFound || len(candidates) == 0 {
		s.metrics.IncSearch("not_found")
		return nil, ErrProductNotFound
	}

	s.cache.Add(key, candidates)
	s.metrics.IncSearch("ok")
	slog.Debug("candidates listed",
		slog.String("product", productName),
		slog.Int("count", len(candidates)),
	)
	return candidates, nil
}

// offerRow carries raw strings scraped from one store row; parsing and
// delivery fetching happen after the page visit.
type offerRow struct {
	name         string
	priceText    string
	sellerName   string
	link         string
	deliveryHref string
	ratingDesc   string
	freeDelivery bool
}

// FetchOffers scrapes at most maxCount per-store offers from a candidate's
// listing page. Rows without delivery information or a recognizable seller
// are dropped, so fewer than maxCount offers may come back.
func (s *Skapiec) FetchOffers(ctx context.Context, candidate Candidate, maxCount int) ([]*models.Offer, error) {
	c := s.newCollector()

	var rows []offerRow
	c.OnHTML("a.offer-row-item.gtm_or_row", func(e *colly.HTMLElement) {
		sellerName := e.ChildAttr("img.offer-dealer-logo.gtm_bdg_l", "alt")
		if sellerName == "" {
			sellerName = strings.TrimSpace(e.ChildText("b.offer-dealer-logo"))
		}
		rows = append(rows, offerRow{
			name:         e.ChildText("span.description.gtm_or_name"),
			priceText:    e.ChildText("span.price.gtm_or_price"),
			sellerName:   sellerName,
			link:         e.Request.AbsoluteURL(e.Attr("href")),
			deliveryHref: e.ChildAttr("a.delivery-cost.link.gtm_oa_shipping", "href"),
			ratingDesc:   e.ChildAttr("div.shop-rating.gtm_stars", "data-description"),
			freeDelivery: e.ChildAttr("span.delivery-cost.free-delivery", "class") != "",
		})
	})

	start := time.Now()
	if err := s.visit(ctx, c, candidate.Link); err != nil {
		s.metrics.IncError(err)
		return nil, &FetchError{Link: candidate.Link, Err: err}
	}
	s.metrics.ObserveFetch(time.Since(start))

	offers := make([]*models.Offer, 0, maxCount)
	for _, row := range rows {
		if len(offers) >= maxCount {
			break
		}

		deliveries := s.deliveryOptions(ctx, row)
		if len(deliveries) == 0 {
			slog.Debug("skipping offer without delivery information",
				slog.String("name", row.name),
				slog.String("seller", row.sellerName),
			)
			continue
		}

		price, err := ParsePrice(row.priceText)
		if err != nil {
			slog.Warn("skipping offer with unreadable price",
				slog.String("name", row.name),
				slog.Any("error", err),
			)
			continue
		}
		avg, count := ParseRating(row.ratingDesc)

		offer, err := models.NewOffer(truncateName(row.name, nameDisplayLimit),
			price, deliveries, avg, count, row.link, row.sellerName)
		if err != nil {
			slog.Warn("skipping malformed offer", slog.Any("error", err))
			continue
		}
		offers = append(offers, offer)
	}

	s.metrics.IncOffers(len(offers))
	slog.Debug("offers fetched",
		slog.String("candidate", candidate.Name),
		slog.Int("rows", len(rows)),
		slog.Int("offers", len(offers)),
	)
	return offers, nil
}

// deliveryOptions resolves a row's delivery price list: free delivery is a
// single zero, otherwise every shipping method's detail page is scraped.
func (s *Skapiec) deliveryOptions(ctx context.Context, row offerRow) []decimal.Decimal {
	if row.freeDelivery {
		return []decimal.Decimal{decimal.Zero}
	}
	if row.deliveryHref == "" {
		return nil
	}

	var prices []decimal.Decimal
	for _, method := range deliveryMethodIDs {
		c := s.newCollector()
		c.OnHTML("table#deliveryRulesets b", func(e *colly.HTMLElement) {
			price, err := ParseDeliveryPrice(e.Text)
			if err != nil {
				return
			}
			prices = append(prices, price)
		})

		pageURL := s.cfg.BaseURL + row.deliveryHref + "&t=" + strconv.Itoa(method)
		if err := s.visit(ctx, c, pageURL); err != nil {
			slog.Debug("delivery page fetch failed",
				slog.String("url", pageURL),
				slog.Any("error", err),
			)
		}
	}
	return prices
}

// newCollector builds a synchronous collector; callers run inside their own
// acquisition goroutine already.
func (s *Skapiec) newCollector() *colly.Collector {
	c := colly.NewCollector(
		colly.AllowedDomains(s.host),
		colly.UserAgent(s.cfg.UserAgent),
	)
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	c.SetRequestTimeout(s.cfg.Timeout)
	c.WithTransport(s.transport)
	return c
}

// visit fetches one page, retrying transient failures with capped
// exponential backoff.
func (s *Skapiec) visit(ctx context.Context, c *colly.Collector, pageURL string) error {
	backoff := s.cfg.RetryBackoff
	if backoff <= 0 {
		backoff = 100 * time.Millisecond
	}

	var err error
	for attempt := 0; ; attempt++ {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if err = c.Visit(pageURL); err == nil {
			return nil
		}
		if attempt >= s.cfg.MaxRetries {
			return err
		}

		s.metrics.IncRetries()
		slog.Debug("retrying page fetch",
			slog.String("url", pageURL),
			slog.Int("attempt", attempt+1),
			slog.Any("error", err),
		)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(backoff):
		}
		backoff *= 2
		if limit := s.cfg.RetryBackoffMax; limit > 0 && backoff > limit {
			backoff = limit
		}
	}
}
