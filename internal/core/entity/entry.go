// Package entity provides core domain entities.
package entity

import (
	"time"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
)

// EntryKind defines movement direction for the stock ledger.
type EntryKind string

const (
	// EntryKindIncoming increases balance (delivery, transfer-in)
	EntryKindIncoming EntryKind = "incoming"
	// EntryKindOutgoing decreases balance (consumption, transfer-out)
	EntryKindOutgoing EntryKind = "outgoing"
	// EntryKindLoss decreases balance (damage, shrinkage)
	EntryKindLoss EntryKind = "loss"
)

// Valid reports whether the kind is one of the three known directions.
func (k EntryKind) Valid() bool {
	switch k {
	case EntryKindIncoming, EntryKindOutgoing, EntryKindLoss:
		return true
	}
	return false
}

// LedgerEntry is a single row of the append-only stock movement log.
// Entries are immutable: never updated, never deleted. Every stock fact
// (balances, turnover, average cost) is derived from entries on demand.
type LedgerEntry struct {
	// ID is the primary key (UUIDv7, time-ordered)
	ID id.ID `db:"id" json:"id"`

	Kind       EntryKind `db:"kind" json:"kind"`
	SiteID     id.ID     `db:"site_id" json:"siteId"`
	MaterialID id.ID     `db:"material_id" json:"materialId"`

	// Quantity is always strictly positive; direction comes from Kind.
	Quantity types.Quantity `db:"quantity" json:"quantity"`

	// UnitCost is the per-unit price carried by the entry. Purchases
	// carry the supplier price, write-offs and transfer legs the
	// material's average cost at posting time; zero marks an unpriced
	// entry which the costing engine ignores.
	UnitCost types.Money `db:"unit_cost" json:"unitCost"`

	// EffectiveDate is the business date of the movement.
	EffectiveDate time.Time `db:"effective_date" json:"effectiveDate"`

	// CreatedAt is the wall-clock time the entry was appended.
	CreatedAt time.Time `db:"created_at" json:"createdAt"`

	Note string `db:"note" json:"note,omitempty"`

	// TransferGroupID links the paired legs of a transfer. Both legs of
	// one transfer (and all legs of one order receipt) share the value.
	TransferGroupID *id.ID `db:"transfer_group_id" json:"transferGroupId,omitempty"`

	// OrderID references the purchase order this entry settles, if any.
	OrderID *id.ID `db:"order_id" json:"orderId,omitempty"`

	// StageTag is a free-form work stage label for cost attribution.
	StageTag string `db:"stage_tag" json:"stageTag,omitempty"`

	CreatedBy string `db:"created_by" json:"createdBy,omitempty"`
}

// NewLedgerEntry creates an entry with generated ID and creation time.
func NewLedgerEntry(kind EntryKind, siteID, materialID id.ID, qty types.Quantity, unitCost types.Money, effectiveDate time.Time) *LedgerEntry {
	return &LedgerEntry{
		ID:            id.New(),
		Kind:          kind,
		SiteID:        siteID,
		MaterialID:    materialID,
		Quantity:      qty,
		UnitCost:      unitCost,
		EffectiveDate: effectiveDate.UTC(),
		CreatedAt:     time.Now().UTC(),
	}
}

// Validate checks entry invariants without database access.
func (e *LedgerEntry) Validate() error {
	if !e.Kind.Valid() {
		return apperror.NewValidation("unknown entry kind: " + string(e.Kind))
	}
	if id.IsNil(e.SiteID) {
		return apperror.NewValidation("site is required")
	}
	if id.IsNil(e.MaterialID) {
		return apperror.NewValidation("material is required")
	}
	if !e.Quantity.IsPositive() {
		return apperror.NewInvalidQuantity(e.Quantity.String())
	}
	if e.UnitCost.IsNegative() {
		return apperror.NewInvalidCost(e.UnitCost.String())
	}
	if e.EffectiveDate.IsZero() {
		return apperror.NewValidation("effective date is required")
	}
	return nil
}

// SignedQuantity returns quantity with sign based on kind.
// Incoming = positive, outgoing and loss = negative.
func (e *LedgerEntry) SignedQuantity() types.Quantity {
	if e.Kind == EntryKindIncoming {
		return e.Quantity
	}
	return e.Quantity.Neg()
}

// IsPriced reports whether the entry carries a real acquisition cost.
// Only priced incoming entries participate in average cost computation.
func (e *LedgerEntry) IsPriced() bool {
	return e.Kind == EntryKindIncoming && e.UnitCost.IsPositive()
}

// Amount returns quantity * unit cost at money scale.
func (e *LedgerEntry) Amount() types.Money {
	return e.Quantity.Amount(e.UnitCost)
}
