package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/domain/orders"
	"sitestock/internal/infrastructure/http/v1/dto"
)

// OrderHandler handles HTTP requests for purchase orders.
type OrderHandler struct {
	*BaseHandler
	service *orders.Service
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(base *BaseHandler, service *orders.Service) *OrderHandler {
	return &OrderHandler{
		BaseHandler: base,
		service:     service,
	}
}

// Create handles POST /orders
func (h *OrderHandler) Create(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.CreateOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	o, err := req.ToOrder()
	if err != nil {
		h.Error(c, err)
		return
	}

	if err := h.service.Create(ctx, o); err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromOrder(o))
}

// Get handles GET /orders/:id
func (h *OrderHandler) Get(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	o, err := h.service.GetByID(ctx, orderID)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromOrder(o))
}

// List handles GET /orders
func (h *OrderHandler) List(c *gin.Context) {
	ctx := c.Request.Context()

	filter := orders.Filter{
		Limit:  h.ParseIntQuery(c, "limit", 50),
		Offset: h.ParseIntQuery(c, "offset", 0),
	}

	if s := c.Query("siteId"); s != "" {
		parsed, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid siteId format"))
			return
		}
		filter.SiteID = &parsed
	}
	if s := c.Query("status"); s != "" {
		status := orders.Status(s)
		filter.Status = &status
	}
	if s := c.Query("fromDate"); s != "" {
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			filter.FromDate = &parsed
		}
	}
	if s := c.Query("toDate"); s != "" {
		if parsed, err := time.Parse(time.RFC3339, s); err == nil {
			filter.ToDate = &parsed
		}
	}

	list, err := h.service.List(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := make([]dto.OrderResponse, len(list))
	for i, o := range list {
		response[i] = dto.FromOrder(o)
	}

	h.OK(c, dto.ListResponse{Items: response, TotalCount: len(response)})
}

// MarkOrdered handles POST /orders/:id/mark-ordered
func (h *OrderHandler) MarkOrdered(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.MarkOrdered(ctx, orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "order marked as ordered")
}

// Cancel handles POST /orders/:id/cancel
func (h *OrderHandler) Cancel(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	if err := h.service.Cancel(ctx, orderID); err != nil {
		h.Error(c, err)
		return
	}

	h.Success(c, "order cancelled")
}

// Receive handles POST /orders/:id/receive
func (h *OrderHandler) Receive(c *gin.Context) {
	ctx := c.Request.Context()

	orderID, err := id.Parse(c.Param("id"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid id format"))
		return
	}

	var req dto.ReceiveOrderRequest
	if !h.BindJSON(c, &req) {
		return
	}

	received, err := req.ToReceived()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.ReconcileReceipt(ctx, orderID, received, req.EffectiveDate)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.FromReceiptResult(result))
}
