// Package report_repo provides the PostgreSQL implementation of the
// reporting queries. Reports are raw SQL: every figure is an aggregate
// over the movement log, nothing is read from materialized state.
package report_repo

import (
	"context"
	"fmt"

	"github.com/georgysavva/scany/v2/pgxscan"

	"sitestock/internal/core/id"
	"sitestock/internal/domain/reports"
	"sitestock/internal/infrastructure/storage/postgres"
)

// ReportRepo implements reports.Repository.
type ReportRepo struct {
	txm *postgres.TxManager
}

// NewReportRepo creates a new report repository.
func NewReportRepo(txm *postgres.TxManager) *ReportRepo {
	return &ReportRepo{txm: txm}
}

// Turnover aggregates per-material movement for the period. Opening is
// the signed sum strictly before the period, closing the signed sum
// through its end, so closing always equals
// opening + incoming - outgoing - loss.
func (r *ReportRepo) Turnover(ctx context.Context, filter reports.TurnoverFilter) ([]reports.TurnoverLine, error) {
	sql := `
		SELECT m.id   AS material_id,
		       m.code AS material_code,
		       m.name AS material_name,
		       m.unit,
		       COALESCE(SUM(CASE WHEN e.effective_date < $1 THEN
		           CASE WHEN e.kind = 'incoming' THEN e.quantity ELSE -e.quantity END
		       ELSE 0 END), 0)::bigint AS opening,
		       COALESCE(SUM(CASE WHEN e.effective_date >= $1 AND e.kind = 'incoming' THEN e.quantity ELSE 0 END), 0)::bigint AS incoming,
		       COALESCE(SUM(CASE WHEN e.effective_date >= $1 AND e.kind = 'outgoing' THEN e.quantity ELSE 0 END), 0)::bigint AS outgoing,
		       COALESCE(SUM(CASE WHEN e.effective_date >= $1 AND e.kind = 'loss' THEN e.quantity ELSE 0 END), 0)::bigint AS loss,
		       COALESCE(SUM(CASE WHEN e.kind = 'incoming' THEN e.quantity ELSE -e.quantity END), 0)::bigint AS closing
		FROM ledger_entries e
		JOIN materials m ON m.id = e.material_id
		WHERE e.effective_date <= $2
	`
	args := []any{filter.FromDate, filter.ToDate}

	if filter.SiteID != nil {
		sql += " AND e.site_id = $3"
		args = append(args, *filter.SiteID)
	}

	sql += `
		GROUP BY m.id, m.code, m.name, m.unit
		ORDER BY m.code
	`

	var lines []reports.TurnoverLine
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, args...); err != nil {
		return nil, fmt.Errorf("select turnover: %w", err)
	}
	return lines, nil
}

// TransferJournal reconstructs transfers by pairing the outgoing leg of
// each group with its incoming counterpart for the same material. Legs
// are matched one-to-one by insertion order within the group, so an
// order receipt carrying several lines of one material yields one row
// per line instead of a cross product. Order receipts from suppliers
// carry no transfer group, so they never show up here.
func (r *ReportRepo) TransferJournal(ctx context.Context, filter reports.JournalFilter) ([]reports.TransferRow, error) {
	sql := `
		WITH legs AS (
			SELECT *,
			       row_number() OVER (
			           PARTITION BY transfer_group_id, material_id, kind
			           ORDER BY created_at, id
			       ) AS leg_no
			FROM ledger_entries
			WHERE transfer_group_id IS NOT NULL
		)
		SELECT o.transfer_group_id AS group_id,
		       o.effective_date,
		       o.material_id,
		       m.name AS material_name,
		       o.site_id AS from_site_id,
		       i.site_id AS to_site_id,
		       o.quantity,
		       o.note,
		       o.created_by
		FROM legs o
		JOIN legs i
		  ON i.transfer_group_id = o.transfer_group_id
		 AND i.material_id = o.material_id
		 AND i.kind = 'incoming'
		 AND i.leg_no = o.leg_no
		JOIN materials m ON m.id = o.material_id
		WHERE o.kind = 'outgoing'
		  AND o.effective_date >= $1
		  AND o.effective_date <= $2
	`
	args := []any{filter.FromDate, filter.ToDate}

	if filter.SiteID != nil {
		args = append(args, *filter.SiteID)
		sql += fmt.Sprintf(" AND (o.site_id = $%d OR i.site_id = $%d)", len(args), len(args))
	}

	sql += " ORDER BY o.effective_date DESC, o.created_at DESC"

	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		sql += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		sql += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	var rows []reports.TransferRow
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &rows, sql, args...); err != nil {
		return nil, fmt.Errorf("select transfer journal: %w", err)
	}
	return rows, nil
}

// StockList returns non-zero balances at a site joined with catalog data.
func (r *ReportRepo) StockList(ctx context.Context, siteID id.ID) ([]reports.StockLine, error) {
	sql := `
		SELECT m.id   AS material_id,
		       m.code AS material_code,
		       m.name AS material_name,
		       m.unit,
		       b.quantity,
		       m.min_limit,
		       m.avg_cost
		FROM (
			SELECT material_id,
			       SUM(CASE WHEN kind = 'incoming' THEN quantity ELSE -quantity END)::bigint AS quantity
			FROM ledger_entries
			WHERE site_id = $1
			GROUP BY material_id
			HAVING SUM(CASE WHEN kind = 'incoming' THEN quantity ELSE -quantity END) <> 0
		) b
		JOIN materials m ON m.id = b.material_id
		ORDER BY m.code
	`

	var lines []reports.StockLine
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &lines, sql, siteID); err != nil {
		return nil, fmt.Errorf("select stock list: %w", err)
	}
	return lines, nil
}

// Ensure interface compliance.
var _ reports.Repository = (*ReportRepo)(nil)
