// Package reports provides read-only reporting over the movement log.
// All figures are computed from ledger entries at query time.
package reports

import (
	"time"

	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
)

// TurnoverFilter selects the period and optional site for a turnover report.
type TurnoverFilter struct {
	SiteID   *id.ID
	FromDate time.Time
	ToDate   time.Time
}

// TurnoverLine is per-material movement totals for the period.
// Closing = Opening + Incoming - Outgoing - Loss, always.
type TurnoverLine struct {
	MaterialID   id.ID          `db:"material_id" json:"materialId"`
	MaterialCode string         `db:"material_code" json:"materialCode"`
	MaterialName string         `db:"material_name" json:"materialName"`
	Unit         string         `db:"unit" json:"unit"`
	Opening      types.Quantity `db:"opening" json:"opening"`
	Incoming     types.Quantity `db:"incoming" json:"incoming"`
	Outgoing     types.Quantity `db:"outgoing" json:"outgoing"`
	Loss         types.Quantity `db:"loss" json:"loss"`
	Closing      types.Quantity `db:"closing" json:"closing"`
}

// JournalFilter selects the period and optional endpoints for the
// transfer journal.
type JournalFilter struct {
	SiteID   *id.ID // matches either endpoint
	FromDate time.Time
	ToDate   time.Time
	Limit    int
	Offset   int
}

// TransferRow is one transfer reconstructed from its paired entries.
type TransferRow struct {
	GroupID       id.ID          `db:"group_id" json:"groupId"`
	EffectiveDate time.Time      `db:"effective_date" json:"effectiveDate"`
	MaterialID    id.ID          `db:"material_id" json:"materialId"`
	MaterialName  string         `db:"material_name" json:"materialName"`
	FromSiteID    id.ID          `db:"from_site_id" json:"fromSiteId"`
	ToSiteID      id.ID          `db:"to_site_id" json:"toSiteId"`
	Quantity      types.Quantity `db:"quantity" json:"quantity"`
	Note          string         `db:"note" json:"note,omitempty"`
	CreatedBy     string         `db:"created_by" json:"createdBy,omitempty"`
}

// StockLine is a current-stock row for one material at a site.
type StockLine struct {
	MaterialID   id.ID          `db:"material_id" json:"materialId"`
	MaterialCode string         `db:"material_code" json:"materialCode"`
	MaterialName string         `db:"material_name" json:"materialName"`
	Unit         string         `db:"unit" json:"unit"`
	Quantity     types.Quantity `db:"quantity" json:"quantity"`
	MinLimit     types.Quantity `db:"min_limit" json:"minLimit"`
	AvgCost      types.Money    `db:"avg_cost" json:"avgCost"`

	// LowStock flags balances under the material's threshold.
	LowStock bool `db:"-" json:"lowStock"`

	// Value is Quantity * AvgCost at money scale.
	Value types.Money `db:"-" json:"value"`
}
