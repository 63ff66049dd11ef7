package ledger

import (
	"context"
	"sort"
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

// --- In-memory fakes ---

type memRepo struct {
	entries []*entity.LedgerEntry
	locked  []string
}

func (r *memRepo) Append(_ context.Context, e *entity.LedgerEntry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *memRepo) AppendPair(_ context.Context, out, in *entity.LedgerEntry) error {
	r.entries = append(r.entries, out, in)
	return nil
}

func (r *memRepo) GetByID(_ context.Context, entryID id.ID) (*entity.LedgerEntry, error) {
	for _, e := range r.entries {
		if e.ID == entryID {
			return e, nil
		}
	}
	return nil, apperror.NewNotFound("ledger entry", entryID)
}

func (r *memRepo) Query(_ context.Context, filter EntryFilter) ([]*entity.LedgerEntry, error) {
	var out []*entity.LedgerEntry
	for _, e := range r.entries {
		if filter.SiteID != nil && e.SiteID != *filter.SiteID {
			continue
		}
		if filter.MaterialID != nil && e.MaterialID != *filter.MaterialID {
			continue
		}
		if filter.TransferGroupID != nil {
			if e.TransferGroupID == nil || *e.TransferGroupID != *filter.TransferGroupID {
				continue
			}
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].EffectiveDate.Equal(out[j].EffectiveDate) {
			return out[i].EffectiveDate.After(out[j].EffectiveDate)
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (r *memRepo) Balance(_ context.Context, siteID, materialID id.ID, asOf *time.Time) (types.Quantity, error) {
	var total types.Quantity
	for _, e := range r.entries {
		if e.SiteID != siteID || e.MaterialID != materialID {
			continue
		}
		if asOf != nil && e.EffectiveDate.After(*asOf) {
			continue
		}
		total += e.SignedQuantity()
	}
	return total, nil
}

func (r *memRepo) SiteBalances(_ context.Context, siteID id.ID) ([]MaterialBalance, error) {
	totals := make(map[id.ID]types.Quantity)
	for _, e := range r.entries {
		if e.SiteID != siteID {
			continue
		}
		totals[e.MaterialID] += e.SignedQuantity()
	}
	var out []MaterialBalance
	for materialID, qty := range totals {
		if qty != 0 {
			out = append(out, MaterialBalance{MaterialID: materialID, Quantity: qty})
		}
	}
	return out, nil
}

func (r *memRepo) CostBasis(_ context.Context, materialID id.ID) (CostBasis, error) {
	basis := CostBasis{Spent: types.ZeroMoney()}
	for _, e := range r.entries {
		if e.MaterialID != materialID || !e.IsPriced() {
			continue
		}
		basis.Quantity += e.Quantity
		basis.Spent = basis.Spent.Add(e.Amount())
	}
	return basis, nil
}

func (r *memRepo) LockStock(_ context.Context, siteID, materialID id.ID) error {
	r.locked = append(r.locked, siteID.String()+"/"+materialID.String())
	return nil
}

type memMaterials struct {
	items map[id.ID]*material.Material
}

func newMemMaterials(items ...*material.Material) *memMaterials {
	m := &memMaterials{items: make(map[id.ID]*material.Material)}
	for _, item := range items {
		m.items[item.ID] = item
	}
	return m
}

func (m *memMaterials) Create(_ context.Context, mat *material.Material) error {
	m.items[mat.ID] = mat
	return nil
}

func (m *memMaterials) Update(_ context.Context, mat *material.Material) error {
	m.items[mat.ID] = mat
	return nil
}

func (m *memMaterials) GetByID(_ context.Context, materialID id.ID) (*material.Material, error) {
	if mat, ok := m.items[materialID]; ok {
		return mat, nil
	}
	return nil, apperror.NewNotFound("material", materialID)
}

func (m *memMaterials) GetByCode(_ context.Context, code string) (*material.Material, error) {
	for _, mat := range m.items {
		if mat.Code == code {
			return mat, nil
		}
	}
	return nil, apperror.NewNotFound("material", code)
}

func (m *memMaterials) List(_ context.Context, _ material.Filter) ([]*material.Material, error) {
	var out []*material.Material
	for _, mat := range m.items {
		out = append(out, mat)
	}
	return out, nil
}

func (m *memMaterials) GetForUpdate(ctx context.Context, materialID id.ID) (*material.Material, error) {
	return m.GetByID(ctx, materialID)
}

func (m *memMaterials) UpdateAvgCost(_ context.Context, materialID id.ID, avgCost types.Money) error {
	if mat, ok := m.items[materialID]; ok {
		mat.AvgCost = avgCost
		return nil
	}
	return apperror.NewNotFound("material", materialID)
}

// noopTxManager runs functions directly; the fakes have no real transactions.
type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(repo *memRepo, materials *memMaterials) *Service {
	costing := NewCosting(repo, materials)
	return NewService(repo, materials, noopTxManager{}, costing, nil)
}

func mustQty(t *testing.T, s string) types.Quantity {
	t.Helper()
	q, err := types.ParseQuantity(s)
	require.NoError(t, err)
	return q
}

// --- Tests ---

func TestRecordIncoming(t *testing.T) {
	repo := &memRepo{}
	cement := material.NewMaterial("MAT-001", "Cement M500", "kg")
	materials := newMemMaterials(cement)
	svc := newTestService(repo, materials)

	siteID := id.New()
	date := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)

	e, err := svc.RecordIncoming(context.Background(), IncomingParams{
		SiteID:        siteID,
		MaterialID:    cement.ID,
		Quantity:      mustQty(t, "10"),
		UnitCost:      types.MustMoney("100"),
		EffectiveDate: date,
		Note:          "first delivery",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.EntryKindIncoming, e.Kind)
	assert.Equal(t, "100.00", cement.AvgCost.StringFixed(2))

	_, err = svc.RecordIncoming(context.Background(), IncomingParams{
		SiteID:        siteID,
		MaterialID:    cement.ID,
		Quantity:      mustQty(t, "5"),
		UnitCost:      types.MustMoney("130"),
		EffectiveDate: date.AddDate(0, 0, 1),
	})
	require.NoError(t, err)

	// (10*100 + 5*130) / 15 = 110.00
	assert.Equal(t, "110.00", cement.AvgCost.StringFixed(2))

	balance, err := svc.Balance(context.Background(), siteID, cement.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, mustQty(t, "15"), balance)
}

func TestRecordIncomingRejectsZeroCost(t *testing.T) {
	repo := &memRepo{}
	cement := material.NewMaterial("MAT-001", "Cement M500", "kg")
	svc := newTestService(repo, newMemMaterials(cement))

	_, err := svc.RecordIncoming(context.Background(), IncomingParams{
		SiteID:        id.New(),
		MaterialID:    cement.ID,
		Quantity:      mustQty(t, "10"),
		UnitCost:      types.ZeroMoney(),
		EffectiveDate: time.Now(),
	})
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidCost, appErr.Code)
	assert.Empty(t, repo.entries)
}

func TestRecordWriteOff(t *testing.T) {
	repo := &memRepo{}
	brick := material.NewMaterial("MAT-002", "Brick", "pcs")
	materials := newMemMaterials(brick)
	svc := newTestService(repo, materials)

	siteID := id.New()
	date := time.Date(2026, 4, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.RecordIncoming(context.Background(), IncomingParams{
		SiteID:        siteID,
		MaterialID:    brick.ID,
		Quantity:      mustQty(t, "1000"),
		UnitCost:      types.MustMoney("25.50"),
		EffectiveDate: date,
	})
	require.NoError(t, err)

	e, err := svc.RecordWriteOff(context.Background(), WriteOffParams{
		SiteID:        siteID,
		MaterialID:    brick.ID,
		Quantity:      mustQty(t, "300"),
		Kind:          entity.EntryKindOutgoing,
		EffectiveDate: date.AddDate(0, 0, 2),
		StageTag:      "foundation",
	})
	require.NoError(t, err)

	// Write-off is valued at current average cost but never recosts.
	assert.Equal(t, "25.50", e.UnitCost.StringFixed(2))
	assert.Equal(t, "25.50", brick.AvgCost.StringFixed(2))

	balance, err := svc.Balance(context.Background(), siteID, brick.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, mustQty(t, "700"), balance)

	// Loss entries deplete stock the same way.
	_, err = svc.RecordWriteOff(context.Background(), WriteOffParams{
		SiteID:        siteID,
		MaterialID:    brick.ID,
		Quantity:      mustQty(t, "50"),
		Kind:          entity.EntryKindLoss,
		EffectiveDate: date.AddDate(0, 0, 3),
	})
	require.NoError(t, err)

	balance, err = svc.Balance(context.Background(), siteID, brick.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, mustQty(t, "650"), balance)
}

func TestRecordWriteOffInsufficientStock(t *testing.T) {
	repo := &memRepo{}
	brick := material.NewMaterial("MAT-002", "Brick", "pcs")
	svc := newTestService(repo, newMemMaterials(brick))

	siteID := id.New()
	date := time.Now().UTC()

	_, err := svc.RecordIncoming(context.Background(), IncomingParams{
		SiteID:        siteID,
		MaterialID:    brick.ID,
		Quantity:      mustQty(t, "100"),
		UnitCost:      types.MustMoney("25"),
		EffectiveDate: date,
	})
	require.NoError(t, err)

	_, err = svc.RecordWriteOff(context.Background(), WriteOffParams{
		SiteID:        siteID,
		MaterialID:    brick.ID,
		Quantity:      mustQty(t, "100.001"),
		Kind:          entity.EntryKindOutgoing,
		EffectiveDate: date,
	})
	require.Error(t, err)

	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInsufficientStock, appErr.Code)
	assert.Equal(t, "100.001", appErr.Details["requested"])
	assert.Equal(t, "100.000", appErr.Details["available"])

	// Guard failure leaves no trace in the log.
	assert.Len(t, repo.entries, 1)
}

func TestRecordWriteOffRejectsIncomingKind(t *testing.T) {
	repo := &memRepo{}
	brick := material.NewMaterial("MAT-002", "Brick", "pcs")
	svc := newTestService(repo, newMemMaterials(brick))

	_, err := svc.RecordWriteOff(context.Background(), WriteOffParams{
		SiteID:        id.New(),
		MaterialID:    brick.ID,
		Quantity:      mustQty(t, "1"),
		Kind:          entity.EntryKindIncoming,
		EffectiveDate: time.Now(),
	})
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestRecordTransfer(t *testing.T) {
	repo := &memRepo{}
	sand := material.NewMaterial("MAT-003", "Sand", "m3")
	materials := newMemMaterials(sand)
	svc := newTestService(repo, materials)

	siteA := id.New()
	siteB := id.New()
	date := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	_, err := svc.RecordIncoming(context.Background(), IncomingParams{
		SiteID:        siteA,
		MaterialID:    sand.ID,
		Quantity:      mustQty(t, "50"),
		UnitCost:      types.MustMoney("450"),
		EffectiveDate: date,
	})
	require.NoError(t, err)

	res, err := svc.RecordTransfer(context.Background(), TransferParams{
		FromSiteID:    siteA,
		ToSiteID:      siteB,
		MaterialID:    sand.ID,
		Quantity:      mustQty(t, "20"),
		EffectiveDate: date.AddDate(0, 0, 5),
	})
	require.NoError(t, err)

	// Both legs share one group.
	require.NotNil(t, res.Out.TransferGroupID)
	require.NotNil(t, res.In.TransferGroupID)
	assert.Equal(t, res.GroupID, *res.Out.TransferGroupID)
	assert.Equal(t, res.GroupID, *res.In.TransferGroupID)
	assert.Equal(t, entity.EntryKindOutgoing, res.Out.Kind)
	assert.Equal(t, entity.EntryKindIncoming, res.In.Kind)

	// The value travels with the goods: both legs carry the material's
	// average cost at the time of the transfer.
	assert.Equal(t, "450.00", res.Out.UnitCost.StringFixed(2))
	assert.Equal(t, "450.00", res.In.UnitCost.StringFixed(2))

	balA, err := svc.Balance(context.Background(), siteA, sand.ID, nil)
	require.NoError(t, err)
	balB, err := svc.Balance(context.Background(), siteB, sand.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, mustQty(t, "30"), balA)
	assert.Equal(t, mustQty(t, "20"), balB)

	// Transfers are cost-neutral.
	assert.Equal(t, "450.00", sand.AvgCost.StringFixed(2))

	// A later recost still lands on the same average: the transfer-in
	// leg is priced exactly at it.
	_, err = svc.RecordIncoming(context.Background(), IncomingParams{
		SiteID:        siteB,
		MaterialID:    sand.ID,
		Quantity:      mustQty(t, "10"),
		UnitCost:      types.MustMoney("450"),
		EffectiveDate: date.AddDate(0, 0, 6),
	})
	require.NoError(t, err)
	assert.Equal(t, "450.00", sand.AvgCost.StringFixed(2))
}

func TestRecordTransferSameSite(t *testing.T) {
	repo := &memRepo{}
	sand := material.NewMaterial("MAT-003", "Sand", "m3")
	svc := newTestService(repo, newMemMaterials(sand))

	siteID := id.New()
	_, err := svc.RecordTransfer(context.Background(), TransferParams{
		FromSiteID:    siteID,
		ToSiteID:      siteID,
		MaterialID:    sand.ID,
		Quantity:      mustQty(t, "1"),
		EffectiveDate: time.Now(),
	})
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeTransferEndpointsEqual, appErr.Code)
	assert.Empty(t, repo.entries)
}

func TestRecordTransferInsufficientStock(t *testing.T) {
	repo := &memRepo{}
	sand := material.NewMaterial("MAT-003", "Sand", "m3")
	svc := newTestService(repo, newMemMaterials(sand))

	_, err := svc.RecordTransfer(context.Background(), TransferParams{
		FromSiteID:    id.New(),
		ToSiteID:      id.New(),
		MaterialID:    sand.ID,
		Quantity:      mustQty(t, "5"),
		EffectiveDate: time.Now(),
	})
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))
	assert.Empty(t, repo.entries)
}

func TestBalanceAsOf(t *testing.T) {
	repo := &memRepo{}
	cement := material.NewMaterial("MAT-001", "Cement M500", "kg")
	svc := newTestService(repo, newMemMaterials(cement))

	siteID := id.New()
	jan := time.Date(2026, 1, 10, 0, 0, 0, 0, time.UTC)
	feb := time.Date(2026, 2, 10, 0, 0, 0, 0, time.UTC)

	_, err := svc.RecordIncoming(context.Background(), IncomingParams{
		SiteID: siteID, MaterialID: cement.ID,
		Quantity: mustQty(t, "10"), UnitCost: types.MustMoney("100"),
		EffectiveDate: jan,
	})
	require.NoError(t, err)
	_, err = svc.RecordIncoming(context.Background(), IncomingParams{
		SiteID: siteID, MaterialID: cement.ID,
		Quantity: mustQty(t, "7"), UnitCost: types.MustMoney("100"),
		EffectiveDate: feb,
	})
	require.NoError(t, err)

	asOf := time.Date(2026, 1, 31, 0, 0, 0, 0, time.UTC)
	balance, err := svc.Balance(context.Background(), siteID, cement.ID, &asOf)
	require.NoError(t, err)
	assert.Equal(t, mustQty(t, "10"), balance)
}
