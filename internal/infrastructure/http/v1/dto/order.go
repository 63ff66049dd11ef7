package dto

import (
	"time"

	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
	"sitestock/internal/domain/orders"
)

// CreateOrderRequest for creating purchase orders.
type CreateOrderRequest struct {
	SiteID       string                   `json:"siteId" binding:"required"`
	SourceSiteID string                   `json:"sourceSiteId"`
	Supplier     string                   `json:"supplier"`
	UnitCost     string                   `json:"unitCost"`
	Note         string                   `json:"note"`
	Items        []CreateOrderItemRequest `json:"items" binding:"required"`
}

// CreateOrderItemRequest is one material line of an order.
type CreateOrderItemRequest struct {
	MaterialID string `json:"materialId" binding:"required"`
	Quantity   string `json:"quantity" binding:"required"`
	UnitCost   string `json:"unitCost"`
}

// ToOrder converts to a domain order.
func (r CreateOrderRequest) ToOrder() (*orders.Order, error) {
	siteID, err := id.Parse(r.SiteID)
	if err != nil {
		return nil, invalidID("siteId", err)
	}

	o := orders.NewOrder(siteID)
	o.Supplier = r.Supplier
	o.Note = r.Note

	if r.SourceSiteID != "" {
		sourceID, err := id.Parse(r.SourceSiteID)
		if err != nil {
			return nil, invalidID("sourceSiteId", err)
		}
		o.SourceSiteID = &sourceID
	}
	if r.UnitCost != "" {
		cost, err := types.ParseCost(r.UnitCost)
		if err != nil {
			return nil, err
		}
		o.UnitCost = &cost
	}

	o.Items = make([]orders.OrderItem, len(r.Items))
	for i, item := range r.Items {
		materialID, err := id.Parse(item.MaterialID)
		if err != nil {
			return nil, invalidID("materialId", err)
		}
		quantity, err := types.ParseQuantity(item.Quantity)
		if err != nil {
			return nil, err
		}

		line := orders.OrderItem{
			ID:         id.New(),
			OrderID:    o.ID,
			MaterialID: materialID,
			Quantity:   quantity,
		}
		if item.UnitCost != "" {
			cost, err := types.ParseCost(item.UnitCost)
			if err != nil {
				return nil, err
			}
			line.UnitCost = &cost
		}
		o.Items[i] = line
	}

	return o, nil
}

// ReceiveOrderRequest settles an order into stock. Lines declare the
// quantity actually accepted per order line; order lines left out of
// the request stay unreceived.
type ReceiveOrderRequest struct {
	EffectiveDate time.Time                 `json:"effectiveDate" binding:"required"`
	Lines         []ReceiveOrderLineRequest `json:"lines" binding:"required,dive"`
}

// ReceiveOrderLineRequest is the declared receipt of one order line.
type ReceiveOrderLineRequest struct {
	ItemID   string `json:"itemId" binding:"required"`
	Quantity string `json:"quantity" binding:"required"`
}

// ToReceived converts the declared lines to a quantity-per-line map.
func (r ReceiveOrderRequest) ToReceived() (map[id.ID]types.Quantity, error) {
	received := make(map[id.ID]types.Quantity, len(r.Lines))
	for _, line := range r.Lines {
		itemID, err := id.Parse(line.ItemID)
		if err != nil {
			return nil, invalidID("itemId", err)
		}
		quantity, err := types.ParseQuantity(line.Quantity)
		if err != nil {
			return nil, err
		}
		received[itemID] = quantity
	}
	return received, nil
}

// OrderItemResponse is the API view of an order line.
type OrderItemResponse struct {
	ID         string  `json:"id"`
	MaterialID string  `json:"materialId"`
	Quantity   string  `json:"quantity"`
	UnitCost   *string `json:"unitCost,omitempty"`
}

// OrderResponse is the API view of an order.
type OrderResponse struct {
	ID           string              `json:"id"`
	Number       string              `json:"number"`
	SiteID       string              `json:"siteId"`
	SourceSiteID *string             `json:"sourceSiteId,omitempty"`
	Supplier     string              `json:"supplier,omitempty"`
	Status       string              `json:"status"`
	UnitCost     *string             `json:"unitCost,omitempty"`
	Note         string              `json:"note,omitempty"`
	Items        []OrderItemResponse `json:"items"`
	CreatedAt    time.Time           `json:"createdAt"`
	UpdatedAt    time.Time           `json:"updatedAt"`
	ReceivedAt   *time.Time          `json:"receivedAt,omitempty"`
	CreatedBy    string              `json:"createdBy,omitempty"`
}

// FromOrder creates OrderResponse from domain order.
func FromOrder(o *orders.Order) OrderResponse {
	resp := OrderResponse{
		ID:         o.ID.String(),
		Number:     o.Number,
		SiteID:     o.SiteID.String(),
		Supplier:   o.Supplier,
		Status:     string(o.Status),
		Note:       o.Note,
		Items:      make([]OrderItemResponse, len(o.Items)),
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
		ReceivedAt: o.ReceivedAt,
		CreatedBy:  o.CreatedBy,
	}
	if o.SourceSiteID != nil {
		s := o.SourceSiteID.String()
		resp.SourceSiteID = &s
	}
	if o.UnitCost != nil {
		s := o.UnitCost.StringFixed(types.MoneyScale)
		resp.UnitCost = &s
	}
	for i, item := range o.Items {
		line := OrderItemResponse{
			ID:         item.ID.String(),
			MaterialID: item.MaterialID.String(),
			Quantity:   item.Quantity.String(),
		}
		if item.UnitCost != nil {
			s := item.UnitCost.StringFixed(types.MoneyScale)
			line.UnitCost = &s
		}
		resp.Items[i] = line
	}
	return resp
}

// ReceiptResponse reports the entries produced by an order receipt.
// GroupID is present only for internal resupplies.
type ReceiptResponse struct {
	GroupID *string         `json:"groupId,omitempty"`
	Entries []EntryResponse `json:"entries"`
}

// FromReceiptResult creates ReceiptResponse from domain result.
func FromReceiptResult(r *orders.ReceiptResult) ReceiptResponse {
	resp := ReceiptResponse{
		Entries: FromEntries(r.Entries),
	}
	if r.GroupID != nil {
		g := r.GroupID.String()
		resp.GroupID = &g
	}
	return resp
}
