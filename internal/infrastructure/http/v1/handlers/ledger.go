package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/entity"
	"sitestock/internal/core/id"
	"sitestock/internal/domain/ledger"
	"sitestock/internal/infrastructure/http/v1/dto"
)

// LedgerHandler handles HTTP requests for the movement log.
type LedgerHandler struct {
	*BaseHandler
	service *ledger.Service
}

// NewLedgerHandler creates a new ledger handler.
func NewLedgerHandler(base *BaseHandler, service *ledger.Service) *LedgerHandler {
	return &LedgerHandler{
		BaseHandler: base,
		service:     service,
	}
}

// RecordIncoming handles POST /ledger/incoming
func (h *LedgerHandler) RecordIncoming(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.IncomingRequest
	if !h.BindJSON(c, &req) {
		return
	}

	params, err := req.ToParams()
	if err != nil {
		h.Error(c, err)
		return
	}

	entry, err := h.service.RecordIncoming(ctx, params)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromEntry(entry))
}

// RecordWriteOff handles POST /ledger/write-off
func (h *LedgerHandler) RecordWriteOff(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.WriteOffRequest
	if !h.BindJSON(c, &req) {
		return
	}

	params, err := req.ToParams()
	if err != nil {
		h.Error(c, err)
		return
	}

	entry, err := h.service.RecordWriteOff(ctx, params)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromEntry(entry))
}

// RecordTransfer handles POST /ledger/transfers
func (h *LedgerHandler) RecordTransfer(c *gin.Context) {
	ctx := c.Request.Context()

	var req dto.TransferRequest
	if !h.BindJSON(c, &req) {
		return
	}

	params, err := req.ToParams()
	if err != nil {
		h.Error(c, err)
		return
	}

	result, err := h.service.RecordTransfer(ctx, params)
	if err != nil {
		h.Error(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.FromTransferResult(result))
}

// ListEntries handles GET /ledger/entries
func (h *LedgerHandler) ListEntries(c *gin.Context) {
	ctx := c.Request.Context()

	filter := ledger.EntryFilter{
		Limit:  h.ParseIntQuery(c, "limit", 100),
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
	if s := c.Query("materialId"); s != "" {
		parsed, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid materialId format"))
			return
		}
		filter.MaterialID = &parsed
	}
	if s := c.Query("kind"); s != "" {
		filter.Kinds = []entity.EntryKind{entity.EntryKind(s)}
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

	entries, err := h.service.Query(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromEntries(entries)
	h.OK(c, dto.ListResponse{Items: response, TotalCount: len(response)})
}

// GetBalance handles GET /ledger/balance
func (h *LedgerHandler) GetBalance(c *gin.Context) {
	ctx := c.Request.Context()

	siteID, err := id.Parse(c.Query("siteId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid siteId format"))
		return
	}
	materialID, err := id.Parse(c.Query("materialId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid materialId format"))
		return
	}

	var asOf *time.Time
	if s := c.Query("asOf"); s != "" {
		parsed, err := time.Parse(time.RFC3339, s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid asOf format, expected RFC3339"))
			return
		}
		asOf = &parsed
	}

	balance, err := h.service.Balance(ctx, siteID, materialID, asOf)
	if err != nil {
		h.Error(c, err)
		return
	}

	h.OK(c, dto.BalanceResponse{
		SiteID:     siteID.String(),
		MaterialID: materialID.String(),
		Quantity:   balance.String(),
	})
}

// GetSiteBalances handles GET /ledger/balances/:siteId
func (h *LedgerHandler) GetSiteBalances(c *gin.Context) {
	ctx := c.Request.Context()

	siteID, err := id.Parse(c.Param("siteId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid siteId format"))
		return
	}

	balances, err := h.service.SiteBalances(ctx, siteID)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromMaterialBalances(balances)
	h.OK(c, dto.ListResponse{Items: response, TotalCount: len(response)})
}
