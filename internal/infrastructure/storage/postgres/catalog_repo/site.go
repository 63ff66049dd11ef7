package catalog_repo

import (
	"context"
	"fmt"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/pgxscan"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/domain/catalogs/site"
	"sitestock/internal/infrastructure/storage/postgres"
)

const sitesTable = "sites"

var siteColumns = []string{
	"id", "code", "name", "address", "is_active", "note",
	"created_at", "updated_at",
}

// SiteRepo implements site.Repository.
type SiteRepo struct {
	txm     *postgres.TxManager
	builder squirrel.StatementBuilderType
}

// NewSiteRepo creates a new sites catalog repository.
func NewSiteRepo(txm *postgres.TxManager) *SiteRepo {
	return &SiteRepo{
		txm:     txm,
		builder: squirrel.StatementBuilder.PlaceholderFormat(squirrel.Dollar),
	}
}

// Create inserts a new site.
func (r *SiteRepo) Create(ctx context.Context, s *site.Site) error {
	q := r.builder.Insert(sitesTable).
		Columns(siteColumns...).
		Values(
			s.ID, s.Code, s.Name, s.Address, s.IsActive, s.Note,
			s.CreatedAt, s.UpdatedAt,
		)

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build insert: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	if _, err := querier.Exec(ctx, sql, args...); err != nil {
		if postgres.IsUniqueViolation(err) {
			return apperror.NewDuplicate("site", "code", s.Code)
		}
		return fmt.Errorf("insert site: %w", err)
	}
	return nil
}

// Update stores changes to an existing site.
func (r *SiteRepo) Update(ctx context.Context, s *site.Site) error {
	q := r.builder.Update(sitesTable).
		Set("code", s.Code).
		Set("name", s.Name).
		Set("address", s.Address).
		Set("is_active", s.IsActive).
		Set("note", s.Note).
		Set("updated_at", s.UpdatedAt).
		Where(squirrel.Eq{"id": s.ID})

	sql, args, err := q.ToSql()
	if err != nil {
		return fmt.Errorf("build update: %w", err)
	}

	querier := r.txm.GetQuerier(ctx)
	tag, err := querier.Exec(ctx, sql, args...)
	if err != nil {
		return fmt.Errorf("update site: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperror.NewNotFound("site", s.ID)
	}
	return nil
}

// GetByID returns a site by its ID.
func (r *SiteRepo) GetByID(ctx context.Context, siteID id.ID) (*site.Site, error) {
	return r.getOne(ctx, squirrel.Eq{"id": siteID}, siteID)
}

// GetByCode returns a site by its unique code.
func (r *SiteRepo) GetByCode(ctx context.Context, code string) (*site.Site, error) {
	return r.getOne(ctx, squirrel.Eq{"code": code}, code)
}

func (r *SiteRepo) getOne(ctx context.Context, where squirrel.Eq, key any) (*site.Site, error) {
	q := r.builder.Select(siteColumns...).
		From(sitesTable).
		Where(where).
		Limit(1)

	sql, args, err := q.ToSql()
	if err != nil {
		return nil, fmt.Errorf("build query: %w", err)
	}

	var s site.Site
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Get(ctx, querier, &s, sql, args...); err != nil {
		if pgxscan.NotFound(err) {
			return nil, apperror.NewNotFound("site", key)
		}
		return nil, fmt.Errorf("get site: %w", err)
	}
	return &s, nil
}

// List returns sites matching the filter.
func (r *SiteRepo) List(ctx context.Context, filter site.Filter) ([]*site.Site, error) {
	q := r.builder.Select(siteColumns...).From(sitesTable)

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

	var sites []*site.Site
	querier := r.txm.GetQuerier(ctx)
	if err := pgxscan.Select(ctx, querier, &sites, sql, args...); err != nil {
		return nil, fmt.Errorf("select sites: %w", err)
	}
	return sites, nil
}

// Ensure interface compliance.
var _ site.Repository = (*SiteRepo)(nil)
