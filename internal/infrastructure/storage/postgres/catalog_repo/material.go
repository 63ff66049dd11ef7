// Package catalog_repo provides PostgreSQL implementations for the
// catalog repositories.
package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
	"sitestock/internal/domain/catalogs/material"
	"sitestock/internal/infrastructure/storage/postgres"
)

const materialsTable = "materials"

var materialColumns = []string{
	"id", "code", "name", "unit", "min_limit", "avg_cost",
	"is_active", "description", "created_at", "updated_at",
}

// MaterialRepo implements material.Repository.
type MaterialRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewMaterialRepo creates a new materials catalog repository.
func NewMaterialRepo(txm *postgres.TxManager) *MaterialRepo {
	return &MaterialRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new material.
func (r *MaterialRepo) Create(ctx context.Context, m *material.Material) error {
	q := r.builder.Insert(materialsTable).
		Columns(materialColumns...).
		Values(
			m.ID, m.Code, m.Name, m.Unit, m.MinLimit, m.AvgCost,
			m.IsActive, m.Description, m.CreatedAt, m.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("material", "code", m.Code)
		}
		return fmt.Errorf("insert material: %w", err)
	}
	return nil
}

// Update stores changes to an existing material.
func (r *MaterialRepo) Update(ctx context.Context, m *material.Material) error {
	q := r.builder.Update(materialsTable).
		Set("code", m.Code).
		Set("name", m.Name).
		Set("unit", m.Unit).
		Set("min_limit", m.MinLimit).
		Set("is_active", m.IsActive).
		Set("description", m.Description).
		Set("updated_at", m.UpdatedAt).
		Where(squirrel.Eq{"id": m.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update material: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("material", m.ID)
	}
	return nil
}

// GetByID returns a material by its ID.
func (r *MaterialRepo) GetByID(ctx context.Context, materialID id.ID) (*material.Material, error) {
	return r.getOne(ctx, squirrel.Eq{"id": materialID}, materialID)
}

// GetByCode returns a material by its unique code.
func (r *MaterialRepo) GetByCode(ctx context.Context, code string) (*material.Material, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code}, code)
}

func (r *MaterialRepo) getOne(ctx context.Context, where squirrel.Eq, key any) (*material.Material, error) {
	q := r.builder.Select(materialColumns...).
		From(materialsTable).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var m material.Material
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &m, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("material", key)
		}
		return nil, fmt.Errorf("get material: %w", err)
	}
	return &m, nil
}

// List returns materials matching the filter.
func (r *MaterialRepo) List(ctx context.Context, filter material.Filter) ([]*material.Material, error) {
	q := r.builder.Select(materialColumns...).From(materialsTable)

	if filter.Search != "" {
		pattern := "%" + filter.Search + "%"
		q = q.Where(squirrel.Or{
			squirrel.ILike{"name": pattern},
			squirrel.ILike{"code": pattern},
		})
	}
	if filter.OnlyActive {
		q = q.Where(squirrel.Eq{"is_active": true})
	}

	q = q.OrderBy("code")

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

	var materials []*material.Material
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &materials, sql, args...); err != nil {
		return nil, fmt.Errorf("select materials: %w", err)
	}
	return materials, nil
}

// GetForUpdate returns the material row locked for update.
func (r *MaterialRepo) GetForUpdate(ctx context.Context, materialID id.ID) (*material.Material, error) {
	sql := `
		SELECT id, code, name, unit, min_limit, avg_cost,
		       is_active, description, created_at, updated_at
		FROM materials
		WHERE id = $1
		FOR UPDATE
	`

	var m material.Material
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &m, sql, materialID); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("material", materialID)
		}
		return nil, fmt.Errorf("get material for update: %w", err)
	}
	return &m, nil
}

// UpdateAvgCost persists a recomputed moving-average cost.
func (r *MaterialRepo) UpdateAvgCost(ctx context.Context, materialID id.ID, avgCost types.Money) error {
	q := r.builder.Update(materialsTable).
		Set("avg_cost", avgCost).
		Set("updated_at", squirrel.Expr("now()")).
		Where(squirrel.Eq{"id": materialID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update avg cost: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("material", materialID)
	}
	return nil
}

// Ensure interface compliance.
var _ material.Repository = (*MaterialRepo)(nil)
