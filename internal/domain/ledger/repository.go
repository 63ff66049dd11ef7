// Package ledger provides the append-only stock movement log and the
// operations that feed it.
package ledger

import (
	"context"
	"time"

	"sitestock/internal/core/entity"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
)

// Repository defines storage operations for the movement log.
// Entries are append-only: there is no update or delete.
type Repository interface {
	// Append inserts a single entry.
	Append(ctx context.Context, e *entity.LedgerEntry) error

	// AppendPair inserts both legs of a transfer in one statement so a
	// half-written pair can never be observed.
	AppendPair(ctx context.Context, out, in *entity.LedgerEntry) error

	// GetByID returns one entry.
	GetByID(ctx context.Context, entryID id.ID) (*entity.LedgerEntry, error)

	// Query returns entries matching the filter, most recent first
	// (effective date, then created at).
	Query(ctx context.Context, filter EntryFilter) ([]*entity.LedgerEntry, error)

	// Balance computes Sum(incoming) - Sum(outgoing) - Sum(loss) for
	// one site and material. asOf limits to entries with effective date
	// on or before the given date; nil means all entries.
	Balance(ctx context.Context, siteID, materialID id.ID, asOf *time.Time) (types.Quantity, error)

	// SiteBalances returns non-zero balances for every material at a site.
	SiteBalances(ctx context.Context, siteID id.ID) ([]MaterialBalance, error)

	// CostBasis sums quantity and rounded amount over priced incoming
	// entries of a material across all sites. Input for recosting.
	CostBasis(ctx context.Context, materialID id.ID) (CostBasis, error)

	// LockStock serializes movements on one (site, material) pair for
	// the duration of the current transaction. Must be called before
	// the balance read of any depleting operation.
	LockStock(ctx context.Context, siteID, materialID id.ID) error
}

// EntryFilter narrows entry queries.
type EntryFilter struct {
	SiteID          *id.ID
	MaterialID      *id.ID
	Kinds           []entity.EntryKind
	FromDate        *time.Time
	ToDate          *time.Time
	TransferGroupID *id.ID
	OrderID         *id.ID
	Limit           int
	Offset          int
}

// MaterialBalance is a per-material balance line for a site.
type MaterialBalance struct {
	MaterialID id.ID          `db:"material_id" json:"materialId"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`
}

// CostBasis is the accumulated priced-incoming volume for a material.
type CostBasis struct {
	// Quantity is the total incoming quantity with a real price.
	Quantity types.Quantity `db:"quantity"`

	// Spent is the total acquisition amount (each entry amount rounded
	// at money scale before summing).
	Spent types.Money `db:"spent"`
}
