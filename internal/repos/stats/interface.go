package stats

import (
	"context"
	"errors"

	"github.com/fastprodman/vapor/internal/stats"
)

var ErrDuplicateDay = errors.New("stats for this day already stored")

// Store keeps the running totals between end-of-day runs.
type Store interface {
	// Totals returns what previous days carried forward, zero when nothing
	// was stored yet.
	Totals(ctx context.Context) (stats.Totals, error)
	Save(ctx context.Context, r stats.Report) error
}
