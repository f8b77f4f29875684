// Package gather pulls daily closing prices from market-data providers into
// the price store served by the reference backend.
package gather

import (
	"context"
	"fmt"
	"time"

	"stockdash/internal/domain"
)

// Gatherer is the interface for all data gathering processes.
type Gatherer interface {
	// Name returns the gatherer identifier.
	Name() string
	// Run performs one gathering pass and returns when it is done or ctx is
	// cancelled.
	Run(ctx context.Context) error
}

// DateRange is an inclusive range of calendar dates.
type DateRange struct {
	Start time.Time
	End   time.Time
}

// Empty reports whether the range contains no days.
func (r DateRange) Empty() bool {
	return r.End.Before(r.Start)
}

func (r DateRange) String() string {
	return fmt.Sprintf("%s..%s", r.Start.Format(domain.DateLayout), r.End.Format(domain.DateLayout))
}
