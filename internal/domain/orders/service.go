package orders

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"sitestock/internal/core/apperror"
	appctx "sitestock/internal/core/context"
	"sitestock/internal/core/entity"
	"sitestock/internal/core/id"
	"sitestock/internal/core/numerator"
	"sitestock/internal/core/tx"
	"sitestock/internal/core/types"
	"sitestock/internal/domain/catalogs/material"
	"sitestock/internal/domain/ledger"
	"sitestock/pkg/logger"
)

// Service provides the purchase order workflow. Receipt is the only
// place where an order touches the stock ledger, and it does so
// all-or-nothing: either every line lands or none do.
type Service struct {
	repo      Repository
	entries   ledger.Repository
	materials material.Repository
	costing   *ledger.Costing
	txManager tx.Manager
	numerator numerator.Generator
	audit     ledger.Auditor
}

// NewService creates the orders service.
func NewService(
	repo Repository,
	entries ledger.Repository,
	materials material.Repository,
	costing *ledger.Costing,
	txManager tx.Manager,
	gen numerator.Generator,
	audit ledger.Auditor,
) *Service {
	return &Service{
		repo:      repo,
		entries:   entries,
		materials: materials,
		costing:   costing,
		txManager: txManager,
		numerator: gen,
		audit:     audit,
	}
}

// ReceiptResult describes the ledger outcome of a received order.
// GroupID is set only for internal resupplies; supplier receipts have
// no paired legs, their entries are linked through the order instead.
type ReceiptResult struct {
	GroupID *id.ID                `json:"groupId,omitempty"`
	Entries []*entity.LedgerEntry `json:"entries"`
}

// receiptLine pairs an order line with its declared received quantity.
type receiptLine struct {
	item OrderItem
	qty  types.Quantity
}

// Create validates and stores a new order, assigning a number.
func (s *Service) Create(ctx context.Context, o *Order) error {
	if err := o.Validate(); err != nil {
		return err
	}

	if o.Number == "" {
		number, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("ORD"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate order number: %w", err)
		}
		o.Number = number
	}
	o.CreatedBy = appctx.GetUserID(ctx)

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, o); err != nil {
			return fmt.Errorf("create order: %w", err)
		}
		logger.Info(ctx, "order created", "order_id", o.ID, "number", o.Number)
		return nil
	})
}

// GetByID returns an order with items.
func (s *Service) GetByID(ctx context.Context, orderID id.ID) (*Order, error) {
	return s.repo.GetByID(ctx, orderID)
}

// List returns orders matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Order, error) {
	return s.repo.List(ctx, filter)
}

// MarkOrdered moves a draft order to the ordered state.
func (s *Service) MarkOrdered(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if o.Status != StatusDraft {
			return apperror.NewBusinessRule(apperror.CodeOrderNotReceivable,
				"only draft orders can be marked ordered").
				WithDetail("status", string(o.Status))
		}
		return s.repo.SetStatus(ctx, orderID, StatusOrdered, nil)
	})
}

// Cancel abandons an order that has not been received.
func (s *Service) Cancel(ctx context.Context, orderID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.CanReceive() {
			return apperror.NewBusinessRule(apperror.CodeOrderNotReceivable,
				"order is already settled").
				WithDetail("status", string(o.Status))
		}
		return s.repo.SetStatus(ctx, orderID, StatusCancelled, nil)
	})
}

// ReconcileReceipt settles a delivered order into the stock ledger.
//
// received maps order line ids to the quantity actually accepted;
// lines without a declared positive quantity stay unreceived. Supplier
// orders produce one priced incoming entry per received line; the line
// price falls back to the order price, then to the material's current
// average cost. Internal orders (SourceSiteID set) produce transfer
// pairs at the material's current average cost, guarded against the
// source site's stock, all sharing a single transfer group id. The
// whole receipt commits or rolls back as one transaction.
func (s *Service) ReconcileReceipt(ctx context.Context, orderID id.ID, received map[id.ID]types.Quantity, effectiveDate time.Time) (*ReceiptResult, error) {
	if len(received) == 0 {
		return nil, apperror.NewValidation("no received quantities declared")
	}

	var result *ReceiptResult

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		o, err := s.repo.GetForUpdate(ctx, orderID)
		if err != nil {
			return err
		}
		if !o.CanReceive() {
			return apperror.NewBusinessRule(apperror.CodeOrderNotReceivable,
				"order cannot be received").
				WithDetail("order_id", orderID.String()).
				WithDetail("status", string(o.Status))
		}
		if err := o.Validate(); err != nil {
			return err
		}

		lines := receivedLines(o, received)
		if len(lines) == 0 {
			return apperror.NewValidation("declared quantities match no order line").
				WithDetail("order_id", orderID.String())
		}

		var groupID *id.ID
		var recorded []*entity.LedgerEntry

		if o.IsInternal() {
			g := id.New()
			groupID = &g
			recorded, err = s.receiveInternal(ctx, o, g, lines, effectiveDate)
		} else {
			recorded, err = s.receiveFromSupplier(ctx, o, lines, effectiveDate)
		}
		if err != nil {
			return err
		}

		receivedAt := time.Now().UTC()
		if err := s.repo.SetStatus(ctx, orderID, StatusReceived, &receivedAt); err != nil {
			return fmt.Errorf("mark received: %w", err)
		}

		if s.audit != nil {
			changes := map[string]any{
				"number":  o.Number,
				"entries": len(recorded),
			}
			if groupID != nil {
				changes["group_id"] = *groupID
			}
			if auditErr := s.audit.LogChange(ctx, "order", o.ID, "post", changes); auditErr != nil {
				logger.Warn(ctx, "audit log failed", "order_id", o.ID, "error", auditErr)
			}
		}

		result = &ReceiptResult{GroupID: groupID, Entries: recorded}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "order received",
		"order_id", orderID,
		"entries", len(result.Entries),
	)
	return result, nil
}

// receivedLines matches declared quantities to order lines. Undeclared
// and non-positive declarations are skipped; declarations that match
// no line are ignored.
func receivedLines(o *Order, received map[id.ID]types.Quantity) []receiptLine {
	lines := make([]receiptLine, 0, len(o.Items))
	for _, item := range o.Items {
		qty, ok := received[item.ID]
		if !ok || !qty.IsPositive() {
			continue
		}
		lines = append(lines, receiptLine{item: item, qty: qty})
	}
	return lines
}

// receiveFromSupplier writes priced incoming entries for the received
// lines and recosts every affected material once. Supplier entries
// carry no transfer group: there is no outgoing leg to pair with, the
// order reference links them.
func (s *Service) receiveFromSupplier(ctx context.Context, o *Order, lines []receiptLine, effectiveDate time.Time) ([]*entity.LedgerEntry, error) {
	userID := appctx.GetUserID(ctx)
	recorded := make([]*entity.LedgerEntry, 0, len(lines))
	affected := make(map[id.ID]struct{})

	for i, line := range lines {
		price, err := s.resolvePrice(ctx, o, line.item)
		if err != nil {
			if appErr, ok := apperror.AsAppError(err); ok {
				return nil, appErr.WithDetail("line", i)
			}
			return nil, err
		}

		e := entity.NewLedgerEntry(entity.EntryKindIncoming, o.SiteID, line.item.MaterialID, line.qty, price, effectiveDate)
		e.OrderID = &o.ID
		e.Note = o.Note
		e.CreatedBy = userID

		if err := e.Validate(); err != nil {
			return nil, err
		}
		if err := s.entries.Append(ctx, e); err != nil {
			return nil, fmt.Errorf("append receipt line %d: %w", i, err)
		}

		recorded = append(recorded, e)
		affected[line.item.MaterialID] = struct{}{}
	}

	for materialID := range affected {
		if _, err := s.costing.Recost(ctx, materialID); err != nil {
			return nil, err
		}
	}
	return recorded, nil
}

// receiveInternal fulfills the received lines from the source site's
// stock. Requirements are summed per material so an order with several
// lines of the same material cannot slip past the guard. Legs are
// priced at the material's current average cost, the same as a direct
// transfer; internal fulfillment never recosts.
func (s *Service) receiveInternal(ctx context.Context, o *Order, groupID id.ID, lines []receiptLine, effectiveDate time.Time) ([]*entity.LedgerEntry, error) {
	source := *o.SourceSiteID
	userID := appctx.GetUserID(ctx)

	required := make(map[id.ID]types.Quantity)
	for _, line := range lines {
		required[line.item.MaterialID] += line.qty
	}

	costs := make(map[id.ID]types.Money, len(required))
	for materialID, qty := range required {
		if err := s.lockOrdered(ctx, source, o.SiteID, materialID); err != nil {
			return nil, err
		}
		available, err := s.entries.Balance(ctx, source, materialID, nil)
		if err != nil {
			return nil, fmt.Errorf("source balance: %w", err)
		}
		if available < qty {
			return nil, apperror.NewInsufficientStock(
				source.String(), materialID.String(),
				qty.String(), available.String(),
			)
		}

		m, err := s.materials.GetByID(ctx, materialID)
		if err != nil {
			return nil, err
		}
		costs[materialID] = m.AvgCost
	}

	recorded := make([]*entity.LedgerEntry, 0, 2*len(lines))
	for i, line := range lines {
		cost := costs[line.item.MaterialID]

		out := entity.NewLedgerEntry(entity.EntryKindOutgoing, source, line.item.MaterialID, line.qty, cost, effectiveDate)
		out.TransferGroupID = &groupID
		out.OrderID = &o.ID
		out.Note = o.Note
		out.CreatedBy = userID

		in := entity.NewLedgerEntry(entity.EntryKindIncoming, o.SiteID, line.item.MaterialID, line.qty, cost, effectiveDate)
		in.TransferGroupID = &groupID
		in.OrderID = &o.ID
		in.Note = o.Note
		in.CreatedBy = userID

		if err := out.Validate(); err != nil {
			return nil, err
		}
		if err := in.Validate(); err != nil {
			return nil, err
		}
		if err := s.entries.AppendPair(ctx, out, in); err != nil {
			return nil, fmt.Errorf("append transfer line %d: %w", i, err)
		}
		recorded = append(recorded, out, in)
	}
	return recorded, nil
}

// resolvePrice applies the line -> order -> average cost fallback.
func (s *Service) resolvePrice(ctx context.Context, o *Order, item OrderItem) (types.Money, error) {
	if item.UnitCost != nil {
		return *item.UnitCost, nil
	}
	if o.UnitCost != nil {
		return *o.UnitCost, nil
	}

	m, err := s.materials.GetByID(ctx, item.MaterialID)
	if err != nil {
		return types.ZeroMoney(), err
	}
	if !m.AvgCost.IsPositive() {
		return types.ZeroMoney(), apperror.NewInvalidCost("").
			WithDetail("material_id", item.MaterialID.String()).
			WithDetail("reason", "no line price, no order price, no average cost")
	}
	return m.AvgCost, nil
}

// lockOrdered acquires both stock locks in byte order of the site IDs.
func (s *Service) lockOrdered(ctx context.Context, a, b, materialID id.ID) error {
	first, second := a, b
	if bytes.Compare(b[:], a[:]) < 0 {
		first, second = b, a
	}
	if err := s.entries.LockStock(ctx, first, materialID); err != nil {
		return fmt.Errorf("lock stock: %w", err)
	}
	if err := s.entries.LockStock(ctx, second, materialID); err != nil {
		return fmt.Errorf("lock stock: %w", err)
	}
	return nil
}
