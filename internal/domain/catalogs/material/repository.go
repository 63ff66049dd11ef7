package material

import (
	"context"

	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
)

// Repository defines storage operations for the materials catalog.
type Repository interface {
	Create(ctx context.Context, m *Material) error
	Update(ctx context.Context, m *Material) error
	GetByID(ctx context.Context, materialID id.ID) (*Material, error)
	GetByCode(ctx context.Context, code string) (*Material, error)
	List(ctx context.Context, filter Filter) ([]*Material, error)

	// GetForUpdate returns the material row locked for update.
	// Serializes concurrent average cost recomputation per material.
	GetForUpdate(ctx context.Context, materialID id.ID) (*Material, error)

	// UpdateAvgCost persists a recomputed moving-average cost.
	UpdateAvgCost(ctx context.Context, materialID id.ID, avgCost types.Money) error
}

// Filter narrows material listing.
type Filter struct {
	Search     string
	OnlyActive bool
	Limit      int
	Offset     int
}
