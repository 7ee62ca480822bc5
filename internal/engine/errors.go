package engine

import (
	"errors"
	"fmt"
)

var (
	// ErrNoData means no usable history exists for the request: the ticker is
	// unknown, delisted, or nothing overlaps once series are joined. In
	// multi-ticker flows a single ticker hitting this is excluded rather than
	// failing the batch; it is fatal only when it leaves zero usable tickers.
	ErrNoData = errors.New("no data")

	// ErrInsufficientHistory means too few observations remain to fit a trend
	// model at all.
	ErrInsufficientHistory = errors.New("insufficient history")
)

// AllocationError rejects user-supplied portfolio allocations that do not sum
// to 100 percent. It is raised before any data is fetched.
type AllocationError struct {
	Sum float64
}

func (e *AllocationError) Error() string {
	return fmt.Sprintf("allocations must sum to 100, got %.4g", e.Sum)
}
