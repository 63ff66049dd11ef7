// Package orders provides purchase orders and the receipt workflow
// that settles them into the stock ledger.
package orders

import (
	"time"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
)

// Status is the lifecycle state of an order.
type Status string

const (
	// StatusDraft - order is being prepared
	StatusDraft Status = "draft"
	// StatusOrdered - sent to supplier, awaiting delivery
	StatusOrdered Status = "ordered"
	// StatusReceived - goods accepted, ledger entries written
	StatusReceived Status = "received"
	// StatusCancelled - order abandoned before receipt
	StatusCancelled Status = "cancelled"
)

// Order is a purchase order for materials delivered to a site.
//
// When SourceSiteID is set the order is fulfilled from another site's
// stock instead of a supplier: receipt produces transfer pairs at the
// material's average cost rather than supplier-priced incoming entries.
type Order struct {
	ID id.ID `db:"id" json:"id"`

	// Number is the human-readable document number (ORD-2026-00001)
	Number string `db:"number" json:"number"`

	// SiteID is the destination site
	SiteID id.ID `db:"site_id" json:"siteId"`

	// SourceSiteID, when set, fulfills the order from internal stock
	SourceSiteID *id.ID `db:"source_site_id" json:"sourceSiteId,omitempty"`

	Supplier string `db:"supplier" json:"supplier,omitempty"`

	Status Status `db:"status" json:"status"`

	// UnitCost is the order-level default price, used for lines that
	// carry no price of their own
	UnitCost *types.Money `db:"unit_cost" json:"unitCost,omitempty"`

	Note string `db:"note" json:"note,omitempty"`

	Items []OrderItem `db:"-" json:"items"`

	CreatedAt  time.Time  `db:"created_at" json:"createdAt"`
	UpdatedAt  time.Time  `db:"updated_at" json:"updatedAt"`
	ReceivedAt *time.Time `db:"received_at" json:"receivedAt,omitempty"`
	CreatedBy  string     `db:"created_by" json:"createdBy,omitempty"`
}

// OrderItem is a single material line of an order.
type OrderItem struct {
	ID         id.ID          `db:"id" json:"id"`
	OrderID    id.ID          `db:"order_id" json:"orderId"`
	MaterialID id.ID          `db:"material_id" json:"materialId"`
	Quantity   types.Quantity `db:"quantity" json:"quantity"`

	// UnitCost is the line price; nil falls back to the order price,
	// then to the material's current average cost
	UnitCost *types.Money `db:"unit_cost" json:"unitCost,omitempty"`
}

// NewOrder creates a draft order with generated ID.
func NewOrder(siteID id.ID) *Order {
	now := time.Now().UTC()
	return &Order{
		ID:        id.New(),
		SiteID:    siteID,
		Status:    StatusDraft,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks order invariants.
func (o *Order) Validate() error {
	if id.IsNil(o.SiteID) {
		return apperror.NewValidation("destination site is required")
	}
	if o.SourceSiteID != nil && *o.SourceSiteID == o.SiteID {
		return apperror.NewTransferEndpointsEqual(o.SiteID.String())
	}
	if len(o.Items) == 0 {
		return apperror.NewValidation("order has no items")
	}
	for i, item := range o.Items {
		if id.IsNil(item.MaterialID) {
			return apperror.NewValidation("item material is required").
				WithDetail("line", i)
		}
		if !item.Quantity.IsPositive() {
			return apperror.NewInvalidQuantity(item.Quantity.String()).
				WithDetail("line", i)
		}
		if item.UnitCost != nil && !item.UnitCost.IsPositive() {
			return apperror.NewInvalidCost(item.UnitCost.String()).
				WithDetail("line", i)
		}
	}
	if o.UnitCost != nil && !o.UnitCost.IsPositive() {
		return apperror.NewInvalidCost(o.UnitCost.String())
	}
	return nil
}

// CanReceive reports whether the order may still be settled into stock.
func (o *Order) CanReceive() bool {
	return o.Status == StatusDraft || o.Status == StatusOrdered
}

// IsInternal reports whether the order is fulfilled from another site.
func (o *Order) IsInternal() bool {
	return o.SourceSiteID != nil
}
