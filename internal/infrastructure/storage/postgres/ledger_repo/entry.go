// Package ledger_repo provides the PostgreSQL implementation of the
// movement log repository.
package ledger_repo

import (
	"context"
	"fmt"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/entity"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
	"sitestock/internal/domain/ledger"
	"sitestock/internal/infrastructure/storage/postgres"
)

const entriesTable = "ledger_entries"

var entryColumns = []string{
	"id", "kind", "site_id", "material_id", "quantity", "unit_cost",
	"effective_date", "created_at", "note",
	"transfer_group_id", "order_id", "stage_tag", "created_by",
}

// EntryRepo implements ledger.Repository.
type EntryRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewEntryRepo creates a new movement log repository.
func NewEntryRepo(txm *postgres.TxManager) *EntryRepo {
	return &EntryRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Append inserts a single entry. The table carries no UPDATE or DELETE
// grants; inserts are the only write.
func (r *EntryRepo) Append(ctx context.Context, e *entity.LedgerEntry) error {
	q := r.builder.Insert(entriesTable).
		Columns(entryColumns...).
		Values(entryValues(e)...)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert entry: %w", err)
	}
	return nil
}

// AppendPair inserts both legs of a transfer with one statement.
func (r *EntryRepo) AppendPair(ctx context.Context, out, in *entity.LedgerEntry) error {
	q := r.builder.Insert(entriesTable).
		Columns(entryColumns...).
		Values(entryValues(out)...).
		Values(entryValues(in)...)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		return fmt.Errorf("insert entry pair: %w", err)
	}
	return nil
}

// GetByID returns one entry.
func (r *EntryRepo) GetByID(ctx context.Context, entryID id.ID) (*entity.LedgerEntry, error) {
	q := r.builder.Select(entryColumns...).
		From(entriesTable).
		Where(squirrel.Eq{"id": entryID}).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var e entity.LedgerEntry
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &e, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("ledger entry", entryID)
		}
		return nil, fmt.Errorf("get entry: %w", err)
	}
	return &e, nil
}

// Query returns entries matching the filter, most recent first.
func (r *EntryRepo) Query(ctx context.Context, filter ledger.EntryFilter) ([]*entity.LedgerEntry, error) {
	q := r.builder.Select(entryColumns...).From(entriesTable)

	if filter.SiteID != nil {
		q = q.Where(squirrel.Eq{"site_id": *filter.SiteID})
	}
	if filter.MaterialID != nil {
		q = q.Where(squirrel.Eq{"material_id": *filter.MaterialID})
	}
	if len(filter.Kinds) > 0 {
		q = q.Where(squirrel.Eq{"kind": filter.Kinds})
	}
	if filter.FromDate != nil {
		q = q.Where(squirrel.GtOrEq{"effective_date": *filter.FromDate})
	}
	if filter.ToDate != nil {
		q = q.Where(squirrel.LtOrEq{"effective_date": *filter.ToDate})
	}
	if filter.TransferGroupID != nil {
		q = q.Where(squirrel.Eq{"transfer_group_id": *filter.TransferGroupID})
	}
	if filter.OrderID != nil {
		q = q.Where(squirrel.Eq{"order_id": *filter.OrderID})
	}

	q = q.OrderBy("effective_date DESC", "created_at DESC")

	if filter.Limit > 0 {
		q = q.Limit(uint64(filter.Limit))
	}
	if filter.Offset > 0 {
		q = q.Offset(uint64(filter.Offset))
	}

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var entries []*entity.LedgerEntry
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &entries, sql, args...); err != nil {
		return nil, fmt.Errorf("select entries: %w", err)
	}
	return entries, nil
}

// Balance computes the signed sum over entries for one site+material.
func (r *EntryRepo) Balance(ctx context.Context, siteID, materialID id.ID, asOf *time.Time) (types.Quantity, error) {
	sql := `
		SELECT COALESCE(
			SUM(CASE WHEN kind = 'incoming' THEN quantity ELSE -quantity END),
			0
		)::bigint
		FROM ledger_entries
		WHERE site_id = $1 AND material_id = $2
	`
	args := []any{siteID, materialID}
	if asOf != nil {
		sql += " AND effective_date <= $3"
		args = append(args, *asOf)
	}

	var balanceScaled int64
	querier := r.txm.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, args...).Scan(&balanceScaled)
	if err != nil && err != pgx.ErrNoRows {
		return 0, fmt.Errorf("calculate balance: %w", err)
	}
	return types.NewQuantityFromInt64Scaled(balanceScaled), nil
}

// SiteBalances returns non-zero balances for every material at a site.
func (r *EntryRepo) SiteBalances(ctx context.Context, siteID id.ID) ([]ledger.MaterialBalance, error) {
	sql := `
		SELECT material_id,
		       SUM(CASE WHEN kind = 'incoming' THEN quantity ELSE -quantity END)::bigint AS quantity
		FROM ledger_entries
		WHERE site_id = $1
		GROUP BY material_id
		HAVING SUM(CASE WHEN kind = 'incoming' THEN quantity ELSE -quantity END) <> 0
		ORDER BY material_id
	`

	var balances []ledger.MaterialBalance
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &balances, sql, siteID); err != nil {
		return nil, fmt.Errorf("select balances: %w", err)
	}
	return balances, nil
}

// CostBasis sums quantity and rounded amounts over priced incoming
// entries of a material. Each line amount is rounded at money scale
// before summing, matching the in-process computation.
func (r *EntryRepo) CostBasis(ctx context.Context, materialID id.ID) (ledger.CostBasis, error) {
	sql := `
		SELECT COALESCE(SUM(quantity), 0)::bigint AS quantity,
		       COALESCE(SUM(ROUND(quantity::numeric / 1000 * unit_cost, 2)), 0) AS spent
		FROM ledger_entries
		WHERE material_id = $1 AND kind = 'incoming' AND unit_cost > 0
	`

	var quantityScaled int64
	var spent decimal.Decimal
	querier := r.txm.GetQuerier(ctx)
	err := querier.QueryRow(ctx, sql, materialID).Scan(&quantityScaled, &spent)
	if err != nil && err != pgx.ErrNoRows {
		return ledger.CostBasis{}, fmt.Errorf("calculate cost basis: %w", err)
	}

	return ledger.CostBasis{
		Quantity: types.NewQuantityFromInt64Scaled(quantityScaled),
		Spent:    spent,
	}, nil
}

// LockStock takes a transaction-scoped advisory lock on the
// (site, material) pair. Released automatically at commit or rollback.
func (r *EntryRepo) LockStock(ctx context.Context, siteID, materialID id.ID) error {
	sql := `SELECT pg_advisory_xact_lock(hashtext($1), hashtext($2))`

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, siteID.String(), materialID.String()); err != nil {
		return fmt.Errorf("advisory lock: %w", err)
	}
	return nil
}

func entryValues(e *entity.LedgerEntry) []any {
	return []any{
		e.ID, e.Kind, e.SiteID, e.MaterialID, e.Quantity, e.UnitCost,
		e.EffectiveDate, e.CreatedAt, e.Note,
		e.TransferGroupID, e.OrderID, e.StageTag, e.CreatedBy,
	}
}

// Ensure interface compliance.
var _ ledger.Repository = (*EntryRepo)(nil)
