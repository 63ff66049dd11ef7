package dto

import (
	"time"

	"sitestock/internal/core/types"
	"sitestock/internal/domain/reports"
)

// TurnoverLineResponse is per-material movement totals for a period.
type TurnoverLineResponse struct {
	MaterialID   string `json:"materialId"`
	MaterialCode string `json:"materialCode"`
	MaterialName string `json:"materialName"`
	Unit         string `json:"unit"`
	Opening      string `json:"opening"`
	Incoming     string `json:"incoming"`
	Outgoing     string `json:"outgoing"`
	Loss         string `json:"loss"`
	Closing      string `json:"closing"`
}

// FromTurnoverLines converts domain turnover lines.
func FromTurnoverLines(lines []reports.TurnoverLine) []TurnoverLineResponse {
	out := make([]TurnoverLineResponse, len(lines))
	for i, l := range lines {
		out[i] = TurnoverLineResponse{
			MaterialID:   l.MaterialID.String(),
			MaterialCode: l.MaterialCode,
			MaterialName: l.MaterialName,
			Unit:         l.Unit,
			Opening:      l.Opening.String(),
			Incoming:     l.Incoming.String(),
			Outgoing:     l.Outgoing.String(),
			Loss:         l.Loss.String(),
			Closing:      l.Closing.String(),
		}
	}
	return out
}

// TransferRowResponse is one reconstructed transfer.
type TransferRowResponse struct {
	GroupID       string    `json:"groupId"`
	EffectiveDate time.Time `json:"effectiveDate"`
	MaterialID    string    `json:"materialId"`
	MaterialName  string    `json:"materialName"`
	FromSiteID    string    `json:"fromSiteId"`
	ToSiteID      string    `json:"toSiteId"`
	Quantity      string    `json:"quantity"`
	Note          string    `json:"note,omitempty"`
	CreatedBy     string    `json:"createdBy,omitempty"`
}

// FromTransferRows converts domain transfer rows.
func FromTransferRows(rows []reports.TransferRow) []TransferRowResponse {
	out := make([]TransferRowResponse, len(rows))
	for i, r := range rows {
		out[i] = TransferRowResponse{
			GroupID:       r.GroupID.String(),
			EffectiveDate: r.EffectiveDate,
			MaterialID:    r.MaterialID.String(),
			MaterialName:  r.MaterialName,
			FromSiteID:    r.FromSiteID.String(),
			ToSiteID:      r.ToSiteID.String(),
			Quantity:      r.Quantity.String(),
			Note:          r.Note,
			CreatedBy:     r.CreatedBy,
		}
	}
	return out
}

// StockLineResponse is a current-stock row for one material at a site.
type StockLineResponse struct {
	MaterialID   string `json:"materialId"`
	MaterialCode string `json:"materialCode"`
	MaterialName string `json:"materialName"`
	Unit         string `json:"unit"`
	Quantity     string `json:"quantity"`
	MinLimit     string `json:"minLimit"`
	AvgCost      string `json:"avgCost"`
	LowStock     bool   `json:"lowStock"`
	Value        string `json:"value"`
}

// FromStockLines converts domain stock lines.
func FromStockLines(lines []reports.StockLine) []StockLineResponse {
	out := make([]StockLineResponse, len(lines))
	for i, l := range lines {
		out[i] = StockLineResponse{
			MaterialID:   l.MaterialID.String(),
			MaterialCode: l.MaterialCode,
			MaterialName: l.MaterialName,
			Unit:         l.Unit,
			Quantity:     l.Quantity.String(),
			MinLimit:     l.MinLimit.String(),
			AvgCost:      l.AvgCost.StringFixed(types.MoneyScale),
			LowStock:     l.LowStock,
			Value:        l.Value.StringFixed(types.MoneyScale),
		}
	}
	return out
}
