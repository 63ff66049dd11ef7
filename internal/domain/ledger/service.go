package ledger

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"sitestock/internal/core/apperror"
	appctx "sitestock/internal/core/context"
	"sitestock/internal/core/entity"
	"sitestock/internal/core/id"
	"sitestock/internal/core/tx"
	"sitestock/internal/core/types"
	"sitestock/internal/domain/catalogs/material"
	"sitestock/pkg/logger"
)

// Auditor records movement operations to the audit trail.
// Implemented by the postgres audit store; nil disables auditing.
type Auditor interface {
	LogChange(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) error
}

// Service implements the movement operations. It is the only write
// path into the movement log: every entry goes through validation,
// stock guards and (for priced incoming) recosting, atomically.
type Service struct {
	repo      Repository
	materials material.Repository
	txManager tx.Manager
	costing   *Costing
	audit     Auditor
}

// NewService creates the ledger service.
func NewService(repo Repository, materials material.Repository, txManager tx.Manager, costing *Costing, audit Auditor) *Service {
	return &Service{
		repo:      repo,
		materials: materials,
		txManager: txManager,
		costing:   costing,
		audit:     audit,
	}
}

// IncomingParams describes a delivery of material to a site.
type IncomingParams struct {
	SiteID        id.ID
	MaterialID    id.ID
	Quantity      types.Quantity
	UnitCost      types.Money
	EffectiveDate time.Time
	Note          string
	StageTag      string
	OrderID       *id.ID
}

// WriteOffParams describes consumption or loss of material at a site.
type WriteOffParams struct {
	SiteID        id.ID
	MaterialID    id.ID
	Quantity      types.Quantity
	Kind          entity.EntryKind // outgoing or loss
	EffectiveDate time.Time
	Note          string
	StageTag      string
}

// TransferParams describes a movement of material between two sites.
type TransferParams struct {
	FromSiteID    id.ID
	ToSiteID      id.ID
	MaterialID    id.ID
	Quantity      types.Quantity
	EffectiveDate time.Time
	Note          string
}

// TransferResult holds both legs of a recorded transfer.
type TransferResult struct {
	GroupID id.ID               `json:"groupId"`
	Out     *entity.LedgerEntry `json:"out"`
	In      *entity.LedgerEntry `json:"in"`
}

// RecordIncoming appends a priced incoming entry and recomputes the
// material's average cost in the same transaction.
func (s *Service) RecordIncoming(ctx context.Context, p IncomingParams) (*entity.LedgerEntry, error) {
	if !p.UnitCost.IsPositive() {
		return nil, apperror.NewInvalidCost(p.UnitCost.String())
	}

	e := entity.NewLedgerEntry(entity.EntryKindIncoming, p.SiteID, p.MaterialID, p.Quantity, p.UnitCost, p.EffectiveDate)
	e.Note = p.Note
	e.StageTag = p.StageTag
	e.OrderID = p.OrderID
	e.CreatedBy = appctx.GetUserID(ctx)

	if err := e.Validate(); err != nil {
		return nil, err
	}

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Append(ctx, e); err != nil {
			return fmt.Errorf("append incoming: %w", err)
		}
		if _, err := s.costing.Recost(ctx, p.MaterialID); err != nil {
			return err
		}
		s.logAudit(ctx, "ledger_entry", e.ID, "create", map[string]any{
			"kind":      e.Kind,
			"site_id":   e.SiteID,
			"quantity":  e.Quantity,
			"unit_cost": e.UnitCost,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "incoming recorded",
		"entry_id", e.ID,
		"site_id", p.SiteID,
		"material_id", p.MaterialID,
		"quantity", p.Quantity,
	)
	return e, nil
}

// RecordWriteOff appends an outgoing or loss entry after the stock
// guard passes. The entry is costed at the material's current average
// cost read inside the same transaction; it does not trigger recosting.
func (s *Service) RecordWriteOff(ctx context.Context, p WriteOffParams) (*entity.LedgerEntry, error) {
	if p.Kind != entity.EntryKindOutgoing && p.Kind != entity.EntryKindLoss {
		return nil, apperror.NewValidation("write-off kind must be outgoing or loss").
			WithDetail("kind", string(p.Kind))
	}

	var e *entity.LedgerEntry
	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.guardStock(ctx, p.SiteID, p.MaterialID, p.Quantity); err != nil {
			return err
		}

		m, err := s.materials.GetByID(ctx, p.MaterialID)
		if err != nil {
			return err
		}

		e = entity.NewLedgerEntry(p.Kind, p.SiteID, p.MaterialID, p.Quantity, m.AvgCost, p.EffectiveDate)
		e.Note = p.Note
		e.StageTag = p.StageTag
		e.CreatedBy = appctx.GetUserID(ctx)

		if err := e.Validate(); err != nil {
			return err
		}
		if err := s.repo.Append(ctx, e); err != nil {
			return fmt.Errorf("append write-off: %w", err)
		}
		s.logAudit(ctx, "ledger_entry", e.ID, "create", map[string]any{
			"kind":     e.Kind,
			"site_id":  e.SiteID,
			"quantity": e.Quantity,
		})
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "write-off recorded",
		"entry_id", e.ID,
		"kind", p.Kind,
		"site_id", p.SiteID,
		"material_id", p.MaterialID,
		"quantity", p.Quantity,
	)
	return e, nil
}

// RecordTransfer moves material between sites as one atomic pair of
// entries sharing a transfer group id. Both legs are priced at the
// material's current average cost read inside the transaction, so the
// value travels with the goods. A transfer never triggers recosting;
// legs priced at the current average leave the average unchanged.
func (s *Service) RecordTransfer(ctx context.Context, p TransferParams) (*TransferResult, error) {
	if p.FromSiteID == p.ToSiteID {
		return nil, apperror.NewTransferEndpointsEqual(p.FromSiteID.String())
	}

	groupID := id.New()
	var result *TransferResult

	err := s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		// Lock both endpoints in deterministic order so two opposite
		// transfers cannot deadlock.
		if err := s.lockOrdered(ctx, p.FromSiteID, p.ToSiteID, p.MaterialID); err != nil {
			return err
		}

		available, err := s.repo.Balance(ctx, p.FromSiteID, p.MaterialID, nil)
		if err != nil {
			return fmt.Errorf("source balance: %w", err)
		}
		if available < p.Quantity {
			return apperror.NewInsufficientStock(
				p.FromSiteID.String(), p.MaterialID.String(),
				p.Quantity.String(), available.String(),
			)
		}

		m, err := s.materials.GetByID(ctx, p.MaterialID)
		if err != nil {
			return err
		}
		cost := m.AvgCost

		userID := appctx.GetUserID(ctx)

		out := entity.NewLedgerEntry(entity.EntryKindOutgoing, p.FromSiteID, p.MaterialID, p.Quantity, cost, p.EffectiveDate)
		out.Note = p.Note
		out.TransferGroupID = &groupID
		out.CreatedBy = userID

		in := entity.NewLedgerEntry(entity.EntryKindIncoming, p.ToSiteID, p.MaterialID, p.Quantity, cost, p.EffectiveDate)
		in.Note = p.Note
		in.TransferGroupID = &groupID
		in.CreatedBy = userID

		if err := out.Validate(); err != nil {
			return err
		}
		if err := in.Validate(); err != nil {
			return err
		}

		if err := s.repo.AppendPair(ctx, out, in); err != nil {
			return fmt.Errorf("append transfer pair: %w", err)
		}

		s.logAudit(ctx, "stock_transfer", groupID, "create", map[string]any{
			"from_site_id": p.FromSiteID,
			"to_site_id":   p.ToSiteID,
			"material_id":  p.MaterialID,
			"quantity":     p.Quantity,
		})

		result = &TransferResult{GroupID: groupID, Out: out, In: in}
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info(ctx, "transfer recorded",
		"group_id", groupID,
		"from_site_id", p.FromSiteID,
		"to_site_id", p.ToSiteID,
		"material_id", p.MaterialID,
		"quantity", p.Quantity,
	)
	return result, nil
}

// Balance returns the computed balance for one site and material.
func (s *Service) Balance(ctx context.Context, siteID, materialID id.ID, asOf *time.Time) (types.Quantity, error) {
	return s.repo.Balance(ctx, siteID, materialID, asOf)
}

// SiteBalances returns non-zero balances for every material at a site.
func (s *Service) SiteBalances(ctx context.Context, siteID id.ID) ([]MaterialBalance, error) {
	return s.repo.SiteBalances(ctx, siteID)
}

// Query returns movement log entries matching the filter.
func (s *Service) Query(ctx context.Context, filter EntryFilter) ([]*entity.LedgerEntry, error) {
	return s.repo.Query(ctx, filter)
}

// guardStock locks the (site, material) pair, then checks that the
// current balance covers the requested quantity. Call inside a
// transaction; the lock holds until commit or rollback.
func (s *Service) guardStock(ctx context.Context, siteID, materialID id.ID, requested types.Quantity) error {
	if err := s.repo.LockStock(ctx, siteID, materialID); err != nil {
		return fmt.Errorf("lock stock: %w", err)
	}

	available, err := s.repo.Balance(ctx, siteID, materialID, nil)
	if err != nil {
		return fmt.Errorf("balance: %w", err)
	}
	if available < requested {
		return apperror.NewInsufficientStock(
			siteID.String(), materialID.String(),
			requested.String(), available.String(),
		)
	}
	return nil
}

// lockOrdered acquires both stock locks in byte order of the site IDs.
func (s *Service) lockOrdered(ctx context.Context, a, b, materialID id.ID) error {
	first, second := a, b
	if bytes.Compare(b[:], a[:]) < 0 {
		first, second = b, a
	}
	if err := s.repo.LockStock(ctx, first, materialID); err != nil {
		return fmt.Errorf("lock stock: %w", err)
	}
	if err := s.repo.LockStock(ctx, second, materialID); err != nil {
		return fmt.Errorf("lock stock: %w", err)
	}
	return nil
}

// logAudit writes an audit record, tolerating a nil auditor.
// Audit failures are logged but do not fail the movement.
func (s *Service) logAudit(ctx context.Context, entityType string, entityID id.ID, action string, changes map[string]any) {
	if s.audit == nil {
		return
	}
	if err := s.audit.LogChange(ctx, entityType, entityID, action, changes); err != nil {
		logger.Warn(ctx, "audit log failed", "entity_type", entityType, "entity_id", entityID, "error", err)
	}
}
