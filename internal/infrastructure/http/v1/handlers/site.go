package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/domain/catalogs/site"
	"sitestock/internal/infrastructure/http/v1/dto"
)

// SiteHandler handles HTTP requests for the sites catalog.
type SiteHandler struct {
	*BaseHandler
	service *site.Service
}

// NewSiteHandler creates a new site handler.
func NewSiteHandler(base *BaseHandler, service *site.Service) *SiteHandler {
	return &SiteHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /catalog/sites
func (h *SiteHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateSiteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s := req.ToSite()
	if err := h.service.Create(ctx, s); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromSite(s))
}

// Update handles PUT /catalog/sites/:id
func (h *SiteHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	siteID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateSiteRequest
	if !h.BindJSON(c, &req) {
		return
	}

	s, err := h.service.GetByID(ctx, siteID)
	if err != nil {
		h.Error(c, err)
		return
	}
	req.Apply(s)

	if err := h.service.Update(ctx, s); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSite(s))
}

// Get handles GET /catalog/sites/:id
func (h *SiteHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	siteID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	s, err := h.service.GetByID(ctx, siteID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromSite(s))
}

// List handles GET /catalog/sites
func (h *SiteHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := site.Filter{
		Search:     c.Query("search"),
		OnlyActive: c.Query("onlyActive") == "true",
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	sites, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := make([]dto.SiteResponse, len(sites))
	for i, s := range sites {
		response[i] = dto.FromSite(s)
	}

	h.OK(c, dto.ListResponse{Items: response, TotalCount: len(response)})
}

// Archive handles DELETE /catalog/sites/:id
func (h *SiteHandler) Archive(c *gin.Context) {
	ctx := c.Request.Context()

	siteID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Archive(ctx, siteID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
