package reports

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
)

type stubRepo struct {
	turnover  []TurnoverLine
	transfers []TransferRow
	stock     []StockLine
}

func (r *stubRepo) Turnover(_ context.Context, _ TurnoverFilter) ([]TurnoverLine, error) {
	return r.turnover, nil
}

func (r *stubRepo) TransferJournal(_ context.Context, _ JournalFilter) ([]TransferRow, error) {
	return r.transfers, nil
}

func (r *stubRepo) StockList(_ context.Context, _ id.ID) ([]StockLine, error) {
	return r.stock, nil
}

func TestTurnoverRejectsInvertedPeriod(t *testing.T) {
	svc := NewService(&stubRepo{})

	_, err := svc.Turnover(context.Background(), TurnoverFilter{
		FromDate: time.Date(2026, 2, 1, 0, 0, 0, 0, time.UTC),
		ToDate:   time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestStockListDerivedFields(t *testing.T) {
	qty := func(s string) types.Quantity {
		q, err := types.ParseQuantity(s)
		require.NoError(t, err)
		return q
	}

	repo := &stubRepo{stock: []StockLine{
		{
			MaterialName: "Cement M500",
			Quantity:     qty("40"),
			MinLimit:     qty("100"),
			AvgCost:      types.MustMoney("110.00"),
		},
		{
			MaterialName: "Sand",
			Quantity:     qty("300"),
			MinLimit:     qty("100"),
			AvgCost:      types.MustMoney("450.333"),
		},
		{
			// Zero threshold disables the low-stock check.
			MaterialName: "Gravel",
			Quantity:     qty("0.001"),
			AvgCost:      types.ZeroMoney(),
		},
		{
			// A stock sitting exactly at its threshold is already low.
			MaterialName: "Paint",
			Quantity:     qty("10"),
			MinLimit:     qty("10"),
			AvgCost:      types.MustMoney("410.50"),
		},
	}}
	svc := NewService(repo)

	lines, err := svc.StockList(context.Background(), id.New())
	require.NoError(t, err)
	require.Len(t, lines, 4)

	assert.True(t, lines[0].LowStock)
	assert.Equal(t, "4400.00", lines[0].Value.StringFixed(2))

	assert.False(t, lines[1].LowStock)
	// 300 * 450.333 = 135099.9, rounded once at money scale.
	assert.Equal(t, "135099.90", lines[1].Value.StringFixed(2))

	assert.False(t, lines[2].LowStock)
	assert.Equal(t, "0.00", lines[2].Value.StringFixed(2))

	assert.True(t, lines[3].LowStock)
	assert.Equal(t, "4105.00", lines[3].Value.StringFixed(2))
}
