package material

import (
	"context"
	"fmt"
	"time"

	"sitestock/internal/core/id"
	"sitestock/internal/core/numerator"
	"sitestock/internal/core/tx"
	"sitestock/pkg/logger"
)

// Service provides business logic for the materials catalog.
type Service struct {
	repo      Repository
	txManager tx.Manager
	numerator numerator.Generator
}

// NewService creates a new materials catalog service.
func NewService(repo Repository, txManager tx.Manager, gen numerator.Generator) *Service {
	return &Service{
		repo:      repo,
		txManager: txManager,
		numerator: gen,
	}
}

// Create validates and stores a new material, generating a code if absent.
func (s *Service) Create(ctx context.Context, m *Material) error {
	if err := m.Validate(); err != nil {
		return err
	}

	if m.Code == "" {
		code, err := s.numerator.GetNextNumber(ctx, numerator.DefaultConfig("MAT"), nil, time.Now())
		if err != nil {
			return fmt.Errorf("generate material code: %w", err)
		}
		m.Code = code
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		if err := s.repo.Create(ctx, m); err != nil {
			return fmt.Errorf("create material: %w", err)
		}
		logger.Info(ctx, "material created", "material_id", m.ID, "code", m.Code)
		return nil
	})
}

// Update validates and stores changes to an existing material.
// Average cost is owned by the costing engine and is not touched here.
func (s *Service) Update(ctx context.Context, m *Material) error {
	if err := m.Validate(); err != nil {
		return err
	}

	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		current, err := s.repo.GetByID(ctx, m.ID)
		if err != nil {
			return err
		}
		m.AvgCost = current.AvgCost
		m.CreatedAt = current.CreatedAt
		m.UpdatedAt = time.Now().UTC()

		if err := s.repo.Update(ctx, m); err != nil {
			return fmt.Errorf("update material: %w", err)
		}
		return nil
	})
}

// GetByID returns a material by its ID.
func (s *Service) GetByID(ctx context.Context, materialID id.ID) (*Material, error) {
	return s.repo.GetByID(ctx, materialID)
}

// GetByCode returns a material by its unique code.
func (s *Service) GetByCode(ctx context.Context, code string) (*Material, error) {
	return s.repo.GetByCode(ctx, code)
}

// List returns materials matching the filter.
func (s *Service) List(ctx context.Context, filter Filter) ([]*Material, error) {
	return s.repo.List(ctx, filter)
}

// Archive deactivates a material so it cannot appear in new movements.
// Ledger history referencing it is preserved untouched.
func (s *Service) Archive(ctx context.Context, materialID id.ID) error {
	return s.txManager.RunInTransaction(ctx, func(ctx context.Context) error {
		m, err := s.repo.GetByID(ctx, materialID)
		if err != nil {
			return err
		}
		if !m.IsActive {
			return nil
		}
		m.IsActive = false
		m.UpdatedAt = time.Now().UTC()
		if err := s.repo.Update(ctx, m); err != nil {
			return fmt.Errorf("archive material: %w", err)
		}
		logger.Info(ctx, "material archived", "material_id", materialID)
		return nil
	})
}
