package dto

import (
	"time"

	"sitestock/internal/core/types"
	"sitestock/internal/domain/catalogs/material"
)

// CreateMaterialRequest for creating materials.
type CreateMaterialRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name" binding:"required"`
	Unit        string `json:"unit" binding:"required"`
	MinLimit    string `json:"minLimit"`
	Description string `json:"description"`
}

// ToMaterial converts to a domain material. An empty minLimit means no
// low-stock threshold.
func (r CreateMaterialRequest) ToMaterial() (*material.Material, error) {
	m := material.NewMaterial(r.Code, r.Name, r.Unit)
	if r.Description != "" {
		m.Description = &r.Description
	}

	if r.MinLimit != "" {
		limit, err := types.ParseQuantity(r.MinLimit)
		if err != nil {
			return nil, err
		}
		m.MinLimit = limit
	}
	return m, nil
}

// UpdateMaterialRequest for updating materials.
type UpdateMaterialRequest struct {
	Code        string `json:"code"`
	Name        string `json:"name" binding:"required"`
	Unit        string `json:"unit" binding:"required"`
	MinLimit    string `json:"minLimit"`
	Description string `json:"description"`
	IsActive    *bool  `json:"isActive"`
}

// Apply overwrites editable fields of an existing material.
func (r UpdateMaterialRequest) Apply(m *material.Material) error {
	m.Code = r.Code
	m.Name = r.Name
	m.Unit = r.Unit
	m.Description = nil
	if r.Description != "" {
		m.Description = &r.Description
	}
	if r.IsActive != nil {
		m.IsActive = *r.IsActive
	}

	m.MinLimit = 0
	if r.MinLimit != "" {
		limit, err := types.ParseQuantity(r.MinLimit)
		if err != nil {
			return err
		}
		m.MinLimit = limit
	}
	return nil
}

// MaterialResponse is the API view of a material.
type MaterialResponse struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Unit        string    `json:"unit"`
	MinLimit    string    `json:"minLimit"`
	AvgCost     string    `json:"avgCost"`
	IsActive    bool      `json:"isActive"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"createdAt"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

// FromMaterial creates MaterialResponse from domain material.
func FromMaterial(m *material.Material) MaterialResponse {
	description := ""
	if m.Description != nil {
		description = *m.Description
	}
	return MaterialResponse{
		ID:          m.ID.String(),
		Code:        m.Code,
		Name:        m.Name,
		Unit:        m.Unit,
		MinLimit:    m.MinLimit.String(),
		AvgCost:     m.AvgCost.StringFixed(types.MoneyScale),
		IsActive:    m.IsActive,
		Description: description,
		CreatedAt:   m.CreatedAt,
		UpdatedAt:   m.UpdatedAt,
	}
}
