package orders

import (
	"context"
	"time"

	"sitestock/internal/core/id"
)

// Repository defines storage operations for purchase orders.
type Repository interface {
	// Create stores the order together with its items.
	Create(ctx context.Context, o *Order) error

	// GetByID returns the order with items loaded.
	GetByID(ctx context.Context, orderID id.ID) (*Order, error)

	// GetForUpdate returns the order row locked for update, preventing
	// two concurrent receipts of the same order.
	GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error)

	// List returns orders matching the filter, items loaded.
	List(ctx context.Context, filter Filter) ([]*Order, error)

	// SetStatus updates the lifecycle state.
	SetStatus(ctx context.Context, orderID id.ID, status Status, receivedAt *time.Time) error
}

// Filter narrows order listing.
type Filter struct {
	SiteID   *id.ID
	Status   *Status
	FromDate *time.Time
	ToDate   *time.Time
	Limit    int
	Offset   int
}
