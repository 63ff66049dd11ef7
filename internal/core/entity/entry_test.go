package entity

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/id"
	"sitestock/internal/core/types"
)

func TestLedgerEntryValidate(t *testing.T) {
	siteID := id.New()
	materialID := id.New()
	date := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("valid incoming", func(t *testing.T) {
		e := NewLedgerEntry(EntryKindIncoming, siteID, materialID, types.Quantity(5000), types.MustMoney("120.50"), date)
		require.NoError(t, e.Validate())
	})

	t.Run("unknown kind", func(t *testing.T) {
		e := NewLedgerEntry("adjustment", siteID, materialID, types.Quantity(1000), types.ZeroMoney(), date)
		err := e.Validate()
		require.Error(t, err)
		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, apperror.CodeValidation, appErr.Code)
	})

	t.Run("zero quantity", func(t *testing.T) {
		e := NewLedgerEntry(EntryKindOutgoing, siteID, materialID, 0, types.ZeroMoney(), date)
		err := e.Validate()
		require.Error(t, err)
		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, apperror.CodeInvalidQuantity, appErr.Code)
	})

	t.Run("missing site", func(t *testing.T) {
		e := NewLedgerEntry(EntryKindLoss, id.Nil(), materialID, types.Quantity(1000), types.ZeroMoney(), date)
		require.Error(t, e.Validate())
	})

	t.Run("negative cost", func(t *testing.T) {
		e := NewLedgerEntry(EntryKindIncoming, siteID, materialID, types.Quantity(1000), types.MustMoney("-1"), date)
		err := e.Validate()
		require.Error(t, err)
		appErr, _ := apperror.AsAppError(err)
		assert.Equal(t, apperror.CodeInvalidCost, appErr.Code)
	})
}

func TestLedgerEntrySignedQuantity(t *testing.T) {
	siteID := id.New()
	materialID := id.New()
	date := time.Now().UTC()

	in := NewLedgerEntry(EntryKindIncoming, siteID, materialID, types.Quantity(2500), types.MustMoney("10"), date)
	out := NewLedgerEntry(EntryKindOutgoing, siteID, materialID, types.Quantity(1500), types.ZeroMoney(), date)
	loss := NewLedgerEntry(EntryKindLoss, siteID, materialID, types.Quantity(500), types.ZeroMoney(), date)

	assert.Equal(t, types.Quantity(2500), in.SignedQuantity())
	assert.Equal(t, types.Quantity(-1500), out.SignedQuantity())
	assert.Equal(t, types.Quantity(-500), loss.SignedQuantity())
}

func TestLedgerEntryIsPriced(t *testing.T) {
	siteID := id.New()
	materialID := id.New()
	date := time.Now().UTC()

	priced := NewLedgerEntry(EntryKindIncoming, siteID, materialID, types.Quantity(1000), types.MustMoney("99.99"), date)
	assert.True(t, priced.IsPriced())

	// Zero cost marks an unpriced entry, which stays out of costing.
	unpriced := NewLedgerEntry(EntryKindIncoming, siteID, materialID, types.Quantity(1000), types.ZeroMoney(), date)
	assert.False(t, unpriced.IsPriced())

	outgoing := NewLedgerEntry(EntryKindOutgoing, siteID, materialID, types.Quantity(1000), types.MustMoney("5"), date)
	assert.False(t, outgoing.IsPriced())
}

func TestLedgerEntryAmount(t *testing.T) {
	e := NewLedgerEntry(EntryKindIncoming, id.New(), id.New(), types.Quantity(2500), types.MustMoney("10.01"), time.Now())
	assert.Equal(t, "25.03", e.Amount().StringFixed(2))
}
