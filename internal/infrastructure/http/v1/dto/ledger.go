package dto

import (
	"time"

	"sitestock/internal/core/entity"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
	"sitestock/internal/domain/ledger"
)

// IncomingRequest records a delivery of material to a site.
type IncomingRequest struct {
	SiteID        string    `json:"siteId" binding:"required"`
	MaterialID    string    `json:"materialId" binding:"required"`
	Quantity      string    `json:"quantity" binding:"required"`
	UnitCost      string    `json:"unitCost" binding:"required"`
	EffectiveDate time.Time `json:"effectiveDate" binding:"required"`
	Note          string    `json:"note"`
	StageTag      string    `json:"stageTag"`
}

// ToParams converts to domain params.
func (r IncomingRequest) ToParams() (ledger.IncomingParams, error) {
	siteID, err := id.Parse(r.SiteID)
	if err != nil {
		return ledger.IncomingParams{}, invalidID("siteId", err)
	}
	materialID, err := id.Parse(r.MaterialID)
	if err != nil {
		return ledger.IncomingParams{}, invalidID("materialId", err)
	}
	quantity, err := types.ParseQuantity(r.Quantity)
	if err != nil {
		return ledger.IncomingParams{}, err
	}
	unitCost, err := types.ParseCost(r.UnitCost)
	if err != nil {
		return ledger.IncomingParams{}, err
	}

	return ledger.IncomingParams{
		SiteID:        siteID,
		MaterialID:    materialID,
		Quantity:      quantity,
		UnitCost:      unitCost,
		EffectiveDate: r.EffectiveDate,
		Note:          r.Note,
		StageTag:      r.StageTag,
	}, nil
}

// WriteOffRequest records consumption or loss of material at a site.
type WriteOffRequest struct {
	SiteID        string    `json:"siteId" binding:"required"`
	MaterialID    string    `json:"materialId" binding:"required"`
	Quantity      string    `json:"quantity" binding:"required"`
	Kind          string    `json:"kind" binding:"required"`
	EffectiveDate time.Time `json:"effectiveDate" binding:"required"`
	Note          string    `json:"note"`
	StageTag      string    `json:"stageTag"`
}

// ToParams converts to domain params.
func (r WriteOffRequest) ToParams() (ledger.WriteOffParams, error) {
	siteID, err := id.Parse(r.SiteID)
	if err != nil {
		return ledger.WriteOffParams{}, invalidID("siteId", err)
	}
	materialID, err := id.Parse(r.MaterialID)
	if err != nil {
		return ledger.WriteOffParams{}, invalidID("materialId", err)
	}
	quantity, err := types.ParseQuantity(r.Quantity)
	if err != nil {
		return ledger.WriteOffParams{}, err
	}

	return ledger.WriteOffParams{
		SiteID:        siteID,
		MaterialID:    materialID,
		Quantity:      quantity,
		Kind:          entity.EntryKind(r.Kind),
		EffectiveDate: r.EffectiveDate,
		Note:          r.Note,
		StageTag:      r.StageTag,
	}, nil
}

// TransferRequest moves material between two sites.
type TransferRequest struct {
	FromSiteID    string    `json:"fromSiteId" binding:"required"`
	ToSiteID      string    `json:"toSiteId" binding:"required"`
	MaterialID    string    `json:"materialId" binding:"required"`
	Quantity      string    `json:"quantity" binding:"required"`
	EffectiveDate time.Time `json:"effectiveDate" binding:"required"`
	Note          string    `json:"note"`
}

// ToParams converts to domain params.
func (r TransferRequest) ToParams() (ledger.TransferParams, error) {
	fromSiteID, err := id.Parse(r.FromSiteID)
	if err != nil {
		return ledger.TransferParams{}, invalidID("fromSiteId", err)
	}
	toSiteID, err := id.Parse(r.ToSiteID)
	if err != nil {
		return ledger.TransferParams{}, invalidID("toSiteId", err)
	}
	materialID, err := id.Parse(r.MaterialID)
	if err != nil {
		return ledger.TransferParams{}, invalidID("materialId", err)
	}
	quantity, err := types.ParseQuantity(r.Quantity)
	if err != nil {
		return ledger.TransferParams{}, err
	}

	return ledger.TransferParams{
		FromSiteID:    fromSiteID,
		ToSiteID:      toSiteID,
		MaterialID:    materialID,
		Quantity:      quantity,
		EffectiveDate: r.EffectiveDate,
		Note:          r.Note,
	}, nil
}

// EntryResponse is the API view of a movement log entry.
type EntryResponse struct {
	ID              string    `json:"id"`
	Kind            string    `json:"kind"`
	SiteID          string    `json:"siteId"`
	MaterialID      string    `json:"materialId"`
	Quantity        string    `json:"quantity"`
	UnitCost        string    `json:"unitCost"`
	Amount          string    `json:"amount"`
	EffectiveDate   time.Time `json:"effectiveDate"`
	CreatedAt       time.Time `json:"createdAt"`
	Note            string    `json:"note,omitempty"`
	TransferGroupID *string   `json:"transferGroupId,omitempty"`
	OrderID         *string   `json:"orderId,omitempty"`
	StageTag        string    `json:"stageTag,omitempty"`
	CreatedBy       string    `json:"createdBy,omitempty"`
}

// FromEntry creates EntryResponse from a ledger entry.
func FromEntry(e *entity.LedgerEntry) EntryResponse {
	resp := EntryResponse{
		ID:            e.ID.String(),
		Kind:          string(e.Kind),
		SiteID:        e.SiteID.String(),
		MaterialID:    e.MaterialID.String(),
		Quantity:      e.Quantity.String(),
		UnitCost:      e.UnitCost.StringFixed(types.MoneyScale),
		Amount:        e.Amount().StringFixed(types.MoneyScale),
		EffectiveDate: e.EffectiveDate,
		CreatedAt:     e.CreatedAt,
		Note:          e.Note,
		StageTag:      e.StageTag,
		CreatedBy:     e.CreatedBy,
	}
	if e.TransferGroupID != nil {
		s := e.TransferGroupID.String()
		resp.TransferGroupID = &s
	}
	if e.OrderID != nil {
		s := e.OrderID.String()
		resp.OrderID = &s
	}
	return resp
}

// FromEntries converts a slice of ledger entries.
func FromEntries(entries []*entity.LedgerEntry) []EntryResponse {
	out := make([]EntryResponse, len(entries))
	for i, e := range entries {
		out[i] = FromEntry(e)
	}
	return out
}

// TransferResponse holds both legs of a recorded transfer.
type TransferResponse struct {
	GroupID string        `json:"groupId"`
	Out     EntryResponse `json:"out"`
	In      EntryResponse `json:"in"`
}

// FromTransferResult creates TransferResponse from domain result.
func FromTransferResult(r *ledger.TransferResult) TransferResponse {
	return TransferResponse{
		GroupID: r.GroupID.String(),
		Out:     FromEntry(r.Out),
		In:      FromEntry(r.In),
	}
}

// BalanceResponse is a single site+material balance.
type BalanceResponse struct {
	SiteID     string `json:"siteId"`
	MaterialID string `json:"materialId"`
	Quantity   string `json:"quantity"`
}

// MaterialBalanceResponse is a per-material balance at one site.
type MaterialBalanceResponse struct {
	MaterialID string `json:"materialId"`
	Quantity   string `json:"quantity"`
}

// FromMaterialBalances converts domain balances.
func FromMaterialBalances(balances []ledger.MaterialBalance) []MaterialBalanceResponse {
	out := make([]MaterialBalanceResponse, len(balances))
	for i, b := range balances {
		out[i] = MaterialBalanceResponse{
			MaterialID: b.MaterialID.String(),
			Quantity:   b.Quantity.String(),
		}
	}
	return out
}
