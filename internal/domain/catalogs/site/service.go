package site

import (
	"context"
	"fmt"
	"time"

	"sitestock/internal/core/id"
	"sitestock/internal/core/numerator"
	"sitestock/internal/core/tx"
	"sitestock/pkg/logger"
)

// Service provides business logic for the sites catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator numerator.Generator
}

// NewService creates a new sites catalog service.
func NewService(repo Repository, txManager tx.Manager, gen numerator.Generator) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		numerator: gen,
	}
}

// Create validates and stores a new site, generating a code if absent.
func (s *Service) Create(ctx context.Context, site *Site) error {
	if err := site.Validate(); err != nil {
		return err
	}

	if site.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("SITE"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate site code: %w", err)
		}
		site.Code = code
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, site); err != nil {
			return fmt.Errorf("create site: %w", err)
		}
		logger.Info(ctx, "site created", "site_id", site.ID, "code", site.Code)
		return nil
	})
}

// Update validates and stores changes to an existing site.
func (s *Service) Update(ctx context.Context, site *Site) error {
	if err := site.Validate(); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, site.ID)
		if err != nil {
			return err
		}
		site.CreatedAt = current.CreatedAt
		site.UpdatedAt = time.Now().UTC()
		return s.repo.Update(ctx, site)
	})
}

// GetByID returns a site by its ID.
func (s *Service) GetByID(ctx context.Context, siteID id.ID) (*Site, error) {
	return s.repo.GetByID(ctx, siteID)
}

// List returns sites matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Site, error) {
	return s.repo.List(ctx, filter)
}

// Archive deactivates a site. History stays readable.
func (s *Service) Archive(ctx context.Context, siteID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		site, err := s.repo.GetByID(ctx, siteID)
		if err != nil {
			return err
		}
		if !site.IsActive {
			return nil
		}
		site.IsActive = false
		site.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, site); err != nil {
			return fmt.Errorf("archive site: %w", err)
		}
		logger.Info(ctx, "site archived", "site_id", siteID)
		return nil
	})
}
