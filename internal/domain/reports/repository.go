package reports

import (
	"context"

	"sitestock/internal/core/id"
)

// Repository defines read-only report queries over the movement log.
type Repository interface {
	// Turnover aggregates opening, period movements and closing per material.
	Turnover(ctx context.Context, filter TurnoverFilter) ([]TurnoverLine, error)

	// TransferJournal reconstructs transfers by joining the paired
	// entries of each group id, most recent first.
	TransferJournal(ctx context.Context, filter JournalFilter) ([]TransferRow, error)

	// StockList returns non-zero balances for a site joined with
	// material catalog data.
	StockList(ctx context.Context, siteID id.ID) ([]StockLine, error)
}
