package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/domain/catalogs/material"
	"sitestock/internal/infrastructure/http/v1/dto"
)

// MaterialHandler handles HTTP requests for the materials catalog.
type MaterialHandler struct {
	*BaseHandler
	service *material.Service
}

// NewMaterialHandler creates a new material handler.
func NewMaterialHandler(base *BaseHandler, service *material.Service) *MaterialHandler {
	return &MaterialHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /catalog/materials
func (h *MaterialHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := req.ToMaterial()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(ctx, m); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromMaterial(m))
}

// Update handles PUT /catalog/materials/:id
func (h *MaterialHandler) Update(c *gin.Context) {
	ctx := c.Request.Context()

	materialID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.UpdateMaterialRequest
	if !h.BindJSON(c, &req) {
		return
	}

	m, err := h.service.GetByID(ctx, materialID)
	if err != nil {
		h.Error(c, err)
		return
	}
	if err := req.Apply(m); err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Update(ctx, m); err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMaterial(m))
}

// Get handles GET /catalog/materials/:id
func (h *MaterialHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	materialID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	m, err := h.service.GetByID(ctx, materialID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromMaterial(m))
}

// List handles GET /catalog/materials
func (h *MaterialHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := material.Filter{
		Search:     c.Query("search"),
		OnlyActive: c.Query("onlyActive") == "true",
		Limit:      h.ParseIntQuery(c, "limit", 50),
		Offset:     h.ParseIntQuery(c, "offset", 0),
	}

	materials, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := make([]dto.MaterialResponse, len(materials))
	for i, m := range materials {
		response[i] = dto.FromMaterial(m)
	}

	h.OK(c, dto.ListResponse{Items: response, TotalCount: len(response)})
}

// Archive handles DELETE /catalog/materials/:id
func (h *MaterialHandler) Archive(c *gin.Context) {
	ctx := c.Request.Context()

	materialID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Archive(ctx, materialID); err != nil {
		h.Error(c, err)
		return
	}

	h.NoContent(c)
}
