package handlers

import (
	"time"

	"github.com/gin-gonic/gin"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/domain/reports"
	"sitestock/internal/infrastructure/http/v1/dto"
)

// ReportsHandler handles HTTP requests for reports.
type ReportsHandler struct {
	*BaseHandler
	service *reports.Service
}

// NewReportsHandler creates a new reports handler.
func NewReportsHandler(base *BaseHandler, service *reports.Service) *ReportsHandler {
	return &ReportsHandler{
		BaseHandler: base,
		service:     service,
	}
}

// GetTurnover handles GET /reports/turnover
func (h *ReportsHandler) GetTurnover(c *gin.Context) {
	ctx := c.Request.Context()

	fromDate, toDate, ok := h.parsePeriod(c)
	if !ok {
		return
	}

	filter := reports.TurnoverFilter{
		FromDate: fromDate,
		ToDate:   toDate,
	}
	if s := c.Query("siteId"); s != "" {
		parsed, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid siteId format"))
			return
		}
		filter.SiteID = &parsed
	}

	lines, err := h.service.Turnover(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromTurnoverLines(lines)
	h.OK(c, dto.ListResponse{Items: response, TotalCount: len(response)})
}

// GetTransferJournal handles GET /reports/transfer-journal
func (h *ReportsHandler) GetTransferJournal(c *gin.Context) {
	ctx := c.Request.Context()

	fromDate, toDate, ok := h.parsePeriod(c)
	if !ok {
		return
	}

	filter := reports.JournalFilter{
		FromDate: fromDate,
		ToDate:   toDate,
		Limit:    h.ParseIntQuery(c, "limit", 100),
		Offset:   h.ParseIntQuery(c, "offset", 0),
	}
	if s := c.Query("siteId"); s != "" {
		parsed, err := id.Parse(s)
		if err != nil {
			h.Error(c, apperror.NewValidation("invalid siteId format"))
			return
		}
		filter.SiteID = &parsed
	}

	rows, err := h.service.TransferJournal(ctx, filter)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromTransferRows(rows)
	h.OK(c, dto.ListResponse{Items: response, TotalCount: len(response)})
}

// GetStockList handles GET /reports/stock/:siteId
func (h *ReportsHandler) GetStockList(c *gin.Context) {
	ctx := c.Request.Context()

	siteID, err := id.Parse(c.Param("siteId"))
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid siteId format"))
		return
	}

	lines, err := h.service.StockList(ctx, siteID)
	if err != nil {
		h.Error(c, err)
		return
	}

	response := dto.FromStockLines(lines)
	h.OK(c, dto.ListResponse{Items: response, TotalCount: len(response)})
}

// parsePeriod reads the required fromDate/toDate query parameters.
func (h *ReportsHandler) parsePeriod(c *gin.Context) (time.Time, time.Time, bool) {
	fromStr := c.Query("fromDate")
	toStr := c.Query("toDate")

	if fromStr == "" || toStr == "" {
		h.Error(c, apperror.NewValidation("fromDate and toDate are required"))
		return time.Time{}, time.Time{}, false
	}

	fromDate, err := time.Parse(time.RFC3339, fromStr)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid fromDate format, expected RFC3339"))
		return time.Time{}, time.Time{}, false
	}
	toDate, err := time.Parse(time.RFC3339, toStr)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid toDate format, expected RFC3339"))
		return time.Time{}, time.Time{}, false
	}

	return fromDate, toDate, true
}
