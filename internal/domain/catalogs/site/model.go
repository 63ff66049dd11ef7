// Package site provides the construction sites catalog.
// A site is a stock location: every ledger entry belongs to exactly one site.
package site

import (
	"strings"
	"time"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
)

// Site represents a construction site or depot holding materials.
type Site struct {
	ID id.ID `db:"id" json:"id"`

	// Code is a unique human-readable identifier (auto-generated if empty)
	Code string `db:"code" json:"code"`

	Name    string  `db:"name" json:"name"`
	Address *string `db:"address" json:"address,omitempty"`

	// IsActive indicates the site can participate in new movements
	IsActive bool `db:"is_active" json:"isActive"`

	Note string `db:"note" json:"note,omitempty"`

	CreatedAt time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt time.Time `db:"updated_at" json:"updatedAt"`
}

// NewSite creates a new active Site with generated ID.
func NewSite(code, name string) *Site {
	now := time.Now().UTC()
	return &Site{
		ID:        id.New(),
		Code:      code,
		Name:      name,
		IsActive:  true,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// Validate checks site invariants.
func (s *Site) Validate() error {
	if strings.TrimSpace(s.Name) == "" {
		return apperror.NewValidation("site name is required").
			WithDetail("field", "name")
	}
	return nil
}
