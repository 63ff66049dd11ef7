package dto

import (
	"time"

	"sitestock/internal/domain/catalogs/site"
)

// CreateSiteRequest for creating sites.
type CreateSiteRequest struct {
	Code    string `json:"code"`
	Name    string `json:"name" binding:"required"`
	Address string `json:"address"`
	Note    string `json:"note"`
}

// ToSite converts to a domain site.
func (r CreateSiteRequest) ToSite() *site.Site {
	s := site.NewSite(r.Code, r.Name)
	if r.Address != "" {
		s.Address = &r.Address
	}
	s.Note = r.Note
	return s
}

// UpdateSiteRequest for updating sites.
type UpdateSiteRequest struct {
	Code     string `json:"code"`
	Name     string `json:"name" binding:"required"`
	Address  string `json:"address"`
	Note     string `json:"note"`
	IsActive *bool  `json:"isActive"`
}

// Apply overwrites editable fields of an existing site.
func (r UpdateSiteRequest) Apply(s *site.Site) {
	s.Code = r.Code
	s.Name = r.Name
	s.Address = nil
	if r.Address != "" {
		s.Address = &r.Address
	}
	s.Note = r.Note
	if r.IsActive != nil {
		s.IsActive = *r.IsActive
	}
}

// SiteResponse is the API view of a site.
type SiteResponse struct {
	ID        string    `json:"id"`
	Code      string    `json:"code"`
	Name      string    `json:"name"`
	Address   string    `json:"address,omitempty"`
	IsActive  bool      `json:"isActive"`
	Note      string    `json:"note,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FromSite creates SiteResponse from domain site.
func FromSite(s *site.Site) SiteResponse {
	address := ""
	if s.Address != nil {
		address = *s.Address
	}
	return SiteResponse{
		ID:        s.ID.String(),
		Code:      s.Code,
		Name:      s.Name,
		Address:   address,
		IsActive:  s.IsActive,
		Note:      s.Note,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}
