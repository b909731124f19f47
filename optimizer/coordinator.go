package optimizer

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/djakobczak/basketwise/config"
	"github.com/djakobczak/basketwise/models"
	"github.com/djakobczak/basketwise/source"
	"github.com/shopspring/decimal"
)

// MaxRequirements caps the number of product lines a single search handles.
const MaxRequirements = 5

// ErrCapacityExceeded is returned when adding a requirement beyond the cap.
var ErrCapacityExceeded = errors.New("optimizer: requirement list is full")

// Coordinator holds the user's requirement list and drives acquisition and
// optimization over it. All methods are safe for concurrent use, though the
// intended caller is a single UI loop.
type Coordinator struct {
	cfg *config.Config
	src source.OfferSource

	mu     sync.Mutex
	reqs   []*Requirement
	nextID int
}

// NewCoordinator builds a coordinator searching through src.
func NewCoordinator(cfg *config.Config, src source.OfferSource) *Coordinator {
	return &Coordinator{cfg: cfg, src: src, nextID: 1}
}

// AddRequirement appends a product line to the list. It fails with
// ErrCapacityExceeded once MaxRequirements lines are held.
func (c *Coordinator) AddRequirement(name string, quantity int, minPrice, maxPrice decimal.Decimal,
	minRating float64, minRatingCount int) (*Requirement, error) {

	c.mu.Lock()
	defer c.mu.Unlock()

	if len(c.reqs) >= MaxRequirements {
		slog.Warn("requirement rejected, list is full",
			slog.String("product", name),
			slog.Int("held", len(c.reqs)),
		)
		return nil, ErrCapacityExceeded
	}

	req := &Requirement{
		ID:             c.nextID,
		Name:           name,
		Quantity:       quantity,
		MinPrice:       minPrice,
		MaxPrice:       maxPrice,
		MinRating:      minRating,
		MinRatingCount: minRatingCount,
	}
	c.nextID++
	c.reqs = append(c.reqs, req)
	return req, nil
}

// RemoveRequirement drops the requirement with the given id and reports
// whether it was held.
func (c *Coordinator) RemoveRequirement(id int) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i, req := range c.reqs {
		if req.ID == id {
			c.reqs = append(c.reqs[:i], c.reqs[i+1:]...)
			return true
		}
	}
	return false
}

// ClearRequirements drops every held requirement.
func (c *Coordinator) ClearRequirements() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.reqs = nil
}

// Requirements returns a snapshot of the held requirement list.
func (c *Coordinator) Requirements() []*Requirement {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Requirement, len(c.reqs))
	copy(out, c.reqs)
	return out
}

// Search acquires a product line for every held requirement, one line at a
// time; each line fans out over its candidates internally. A line the source
// knows nothing about stays empty and surfaces later as an advisory message
// from FindBest, never as a failure here.
func (c *Coordinator) Search(ctx context.Context) {
	for _, req := range c.Requirements() {
		line := NewProductLine(req.Name, req.Quantity, c.cfg.MaxOffers, c.cfg.MaxStores)
		if err := line.Acquire(ctx, c.src); err != nil {
			if errors.Is(err, source.ErrProductNotFound) {
				slog.Info("product not found", slog.String("product", req.Name))
			} else {
				slog.Error("product line acquisition failed",
					slog.String("product", req.Name),
					slog.Any("error", err),
				)
			}
		}
		req.Line = line
	}
}

// FindBest ranks baskets over the acquired lines.
func (c *Coordinator) FindBest() ([]*models.Basket, []string) {
	return New(c.cfg.ReturnedSets, c.Requirements()).Find()
}

// FindBestConsolidated ranks baskets including the store-consolidation
// strategy.
func (c *Coordinator) FindBestConsolidated() ([]*models.Basket, []string) {
	return New(c.cfg.ReturnedSets, c.Requirements()).FindConsolidated()
}
