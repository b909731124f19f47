package optimizer

import (
	"github.com/shopspring/decimal"
)

// Requirement is one user-entered product line: the desired name and
// quantity plus the constraints offers must satisfy. The coordinator assigns
// the ID; it is how a line is addressed for removal later.
type Requirement struct {
	ID             int
	Name           string
	Quantity       int
	MinPrice       decimal.Decimal
	MaxPrice       decimal.Decimal
	MinRating      float64
	MinRatingCount int

	// Line holds the offers acquired for this requirement; nil until the
	// coordinator has run a search.
	Line *ProductLine
}
