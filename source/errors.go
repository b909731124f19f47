package source

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ErrProductNotFound is returned by ListCandidates when the site reports no
// results for the searched name.
var ErrProductNotFound = errors.New("source: product not found")

// FetchError wraps a failure while fetching or parsing one candidate's
// offers. It is recovered at the product-line boundary into zero offers for
// that candidate.
type FetchError struct {
	Link string
	Err  error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch offers from %s: %v", e.Link, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// errorLabel classifies an error for the metrics error_type label.
func errorLabel(err error) string {
	switch {
	case err == nil:
		return "unknown"
	case errors.Is(err, ErrProductNotFound):
		return "not_found"
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return "timeout"
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return "timeout"
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		return "connection"
	}
	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return "fetch"
	}
	return "other"
}
