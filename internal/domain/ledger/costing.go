package ledger

import (
	"context"
	"fmt"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
	"sitestock/internal/domain/catalogs/material"
	"sitestock/pkg/logger"
)

// Costing recomputes the moving-average cost of a material.
//
// The average is always rebuilt from scratch over every priced incoming
// entry: avg = Sum(qty * cost) / Sum(qty), rounded half-up at money
// scale. No incremental update is kept, so the stored value can never
// drift from the log.
type Costing struct {
	entries   Repository
	materials material.Repository
}

// NewCosting creates the costing engine.
func NewCosting(entries Repository, materials material.Repository) *Costing {
	return &Costing{
		entries:   entries,
		materials: materials,
	}
}

// Recost recomputes and persists the average cost of a material.
// Must run inside the same transaction as the incoming entry that
// triggered it. The material row lock serializes concurrent recosts.
func (c *Costing) Recost(ctx context.Context, materialID id.ID) (types.Money, error) {
	if _, err := c.materials.GetForUpdate(ctx, materialID); err != nil {
		return types.ZeroMoney(), fmt.Errorf("lock material: %w", err)
	}

	avg, err := c.compute(ctx, materialID)
	if err != nil {
		return types.ZeroMoney(), err
	}

	if err := c.materials.UpdateAvgCost(ctx, materialID, avg); err != nil {
		return types.ZeroMoney(), fmt.Errorf("update avg cost: %w", err)
	}

	logger.Debug(ctx, "material recosted", "material_id", materialID, "avg_cost", avg)
	return avg, nil
}

// Verify recomputes the average cost and compares it with the stored
// value. A mismatch means the denormalized value drifted from the log
// and is reported as a data integrity fault; nothing is repaired.
func (c *Costing) Verify(ctx context.Context, materialID id.ID) error {
	m, err := c.materials.GetByID(ctx, materialID)
	if err != nil {
		return err
	}

	expected, err := c.compute(ctx, materialID)
	if err != nil {
		return err
	}

	if !m.AvgCost.Equal(expected) {
		return apperror.NewDataIntegrity("stored average cost diverged from movement log").
			WithDetail("material_id", materialID.String()).
			WithDetail("stored", m.AvgCost.String()).
			WithDetail("computed", expected.String())
	}
	return nil
}

// compute derives the average from the cost basis.
// Zero when the material has no priced incoming entries.
func (c *Costing) compute(ctx context.Context, materialID id.ID) (types.Money, error) {
	basis, err := c.entries.CostBasis(ctx, materialID)
	if err != nil {
		return types.ZeroMoney(), fmt.Errorf("cost basis: %w", err)
	}

	if basis.Quantity.IsNegative() || (basis.Quantity.IsZero() && !basis.Spent.IsZero()) {
		return types.ZeroMoney(), apperror.NewDataIntegrity("cost basis is inconsistent").
			WithDetail("material_id", materialID.String()).
			WithDetail("quantity", basis.Quantity.String()).
			WithDetail("spent", basis.Spent.String())
	}

	if basis.Quantity.IsZero() {
		return types.ZeroMoney(), nil
	}

	return types.RoundMoney(basis.Spent.Div(basis.Quantity.Decimal())), nil
}
