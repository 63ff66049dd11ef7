package site

import (
	"context"

	"sitestock/internal/core/id"
)

// Repository defines storage operations for the sites catalog.
type Repository interface {
	Create(ctx context.Context, s *Site) error
	Update(ctx context.Context, s *Site) error
	GetByID(ctx context.Context, siteID id.ID) (*Site, error)
	GetByCode(ctx context.Context, code string) (*Site, error)
	List(ctx context.Context, filter Filter) ([]*Site, error)
}

// Filter narrows site listing.
type Filter struct {
	Search     string
	OnlyActive bool
	Limit      int
	Offset     int
}
