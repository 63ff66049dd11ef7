package reports

import (
	"context"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
)

// Service provides report generation with input validation and
// derived fields the SQL layer does not compute.
type Service struct {
	repo Repository
}

// NewService creates the reports service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Turnover builds the period turnover report.
func (s *Service) Turnover(ctx context.Context, filter TurnoverFilter) ([]TurnoverLine, error) {
	if filter.ToDate.Before(filter.FromDate) {
		return nil, apperror.NewValidation("period end is before period start")
	}
	return s.repo.Turnover(ctx, filter)
}

// TransferJournal builds the transfer journal for a period.
func (s *Service) TransferJournal(ctx context.Context, filter JournalFilter) ([]TransferRow, error) {
	if filter.ToDate.Before(filter.FromDate) {
		return nil, apperror.NewValidation("period end is before period start")
	}
	return s.repo.TransferJournal(ctx, filter)
}

// StockList returns current stock at a site with low-stock flags and
// valuation at the current average cost.
func (s *Service) StockList(ctx context.Context, siteID id.ID) ([]StockLine, error) {
	lines, err := s.repo.StockList(ctx, siteID)
	if err != nil {
		return nil, err
	}

	for i := range lines {
		line := &lines[i]
		// A material is low as soon as it drops to its threshold.
		line.LowStock = line.MinLimit.IsPositive() && line.Quantity <= line.MinLimit
		line.Value = line.Quantity.Amount(line.AvgCost)
	}
	return lines, nil
}
