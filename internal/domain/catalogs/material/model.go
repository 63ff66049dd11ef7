// Package material provides the construction materials catalog.
package material

import (
	"strings"
	"time"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
)

// Material represents a construction material tracked in the stock ledger.
type Material struct {
	// ID is the primary key (UUIDv7)
	ID id.ID `db:"id" json:"id"`

	// Code is a unique human-readable identifier (auto-generated if empty)
	Code string `db:"code" json:"code"`

	Name string `db:"name" json:"name"`

	// Unit is the unit of measure (kg, m3, pcs, ...)
	Unit string `db:"unit" json:"unit"`

	// MinLimit is the low-stock threshold; zero disables the check
	MinLimit types.Quantity `db:"min_limit" json:"minLimit"`

	// AvgCost is the current moving-average acquisition cost per unit.
	// Maintained by the costing engine; never edited directly.
	AvgCost types.Money `db:"avg_cost" json:"avgCost"`

	// IsActive indicates the material can be used in new movements
	IsActive bool `db:"is_active" json:"isActive"`

	Description *string `db:"description" json:"description,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewMaterial creates a new active Material with generated ID.
func NewMaterial(code, name, unit string) *Material {
	now := time.Now().UTC()
	return &Material{
		ID:        id.New(),
		Code:      code,
		Name:      name,
		Unit:      unit,
		AvgCost:   types.ZeroMoney(),
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks material invariants.
func (m *Material) Validate() error {
	if strings.TrimSpace(m.Name) == "" {
		return apperror.NewValidation("material name is required").
			WithDetail("field", "name")
	}
	if strings.TrimSpace(m.Unit) == "" {
		return apperror.NewValidation("unit of measure is required").
			WithDetail("field", "unit")
	}
	if m.MinLimit.IsNegative() {
		return apperror.NewValidation("min limit cannot be negative").
			WithDetail("field", "minLimit")
	}
	if m.AvgCost.IsNegative() {
		return apperror.NewValidation("average cost cannot be negative").
			WithDetail("field", "avgCost")
	}
	return nil
}

// IsBelowLimit reports whether the given balance is under the threshold.
func (m *Material) IsBelowLimit(balance types.Quantity) bool {
	return m.MinLimit.IsPositive() && balance < m.MinLimit
}
