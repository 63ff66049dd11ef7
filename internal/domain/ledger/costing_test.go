package ledger

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/entity"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
	"sitestock/internal/domain/catalogs/material"
)

func TestRecostZeroWithoutPricedEntries(t *testing.T) {
	repo := &memRepo{}
	rebar := material.NewMaterial("MAT-004", "Rebar 12mm", "t")
	materials := newMemMaterials(rebar)
	costing := NewCosting(repo, materials)

	avg, err := costing.Recost(context.Background(), rebar.ID)
	require.NoError(t, err)
	assert.True(t, avg.IsZero())
	assert.True(t, rebar.AvgCost.IsZero())
}

func TestRecostIgnoresUnpricedLegs(t *testing.T) {
	repo := &memRepo{}
	rebar := material.NewMaterial("MAT-004", "Rebar 12mm", "t")
	materials := newMemMaterials(rebar)
	costing := NewCosting(repo, materials)

	siteA := id.New()
	siteB := id.New()
	date := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

	priced := entity.NewLedgerEntry(entity.EntryKindIncoming, siteA, rebar.ID, types.Quantity(4000), types.MustMoney("60000"), date)
	require.NoError(t, repo.Append(context.Background(), priced))

	// An unpriced entry must not drag the average down.
	groupID := id.New()
	transferIn := entity.NewLedgerEntry(entity.EntryKindIncoming, siteB, rebar.ID, types.Quantity(1000), types.ZeroMoney(), date)
	transferIn.TransferGroupID = &groupID
	require.NoError(t, repo.Append(context.Background(), transferIn))

	avg, err := costing.Recost(context.Background(), rebar.ID)
	require.NoError(t, err)
	assert.Equal(t, "60000.00", avg.StringFixed(2))
}

func TestRecostRounding(t *testing.T) {
	repo := &memRepo{}
	paint := material.NewMaterial("MAT-005", "Paint", "l")
	materials := newMemMaterials(paint)
	costing := NewCosting(repo, materials)

	siteID := id.New()
	date := time.Now().UTC()

	// 3 units at 10.00 plus 3 units at 10.01: avg = 60.03 / 6 = 10.005 -> 10.01
	e1 := entity.NewLedgerEntry(entity.EntryKindIncoming, siteID, paint.ID, types.Quantity(3000), types.MustMoney("10.00"), date)
	e2 := entity.NewLedgerEntry(entity.EntryKindIncoming, siteID, paint.ID, types.Quantity(3000), types.MustMoney("10.01"), date)
	require.NoError(t, repo.Append(context.Background(), e1))
	require.NoError(t, repo.Append(context.Background(), e2))

	avg, err := costing.Recost(context.Background(), paint.ID)
	require.NoError(t, err)
	assert.Equal(t, "10.01", avg.StringFixed(2))
}

func TestVerifyDetectsDrift(t *testing.T) {
	repo := &memRepo{}
	paint := material.NewMaterial("MAT-005", "Paint", "l")
	materials := newMemMaterials(paint)
	costing := NewCosting(repo, materials)

	siteID := id.New()
	e := entity.NewLedgerEntry(entity.EntryKindIncoming, siteID, paint.ID, types.Quantity(2000), types.MustMoney("15"), time.Now())
	require.NoError(t, repo.Append(context.Background(), e))

	_, err := costing.Recost(context.Background(), paint.ID)
	require.NoError(t, err)
	require.NoError(t, costing.Verify(context.Background(), paint.ID))

	// Simulate external tampering with the denormalized value.
	paint.AvgCost = types.MustMoney("1.00")

	err = costing.Verify(context.Background(), paint.ID)
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeDataIntegrity, appErr.Code)
}
