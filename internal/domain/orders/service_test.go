package orders

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sitestock/internal/core/apperror"
	"sitestock/internal/core/entity"
	"sitestock/internal/core/id"
	"sitestock/internal/core/numerator"
	"sitestock/internal/core/types"
	"sitestock/internal/domain/catalogs/material"
	"sitestock/internal/domain/ledger"
)

// --- In-memory fakes ---

type memOrders struct {
	orders map[id.ID]*Order
}

func newMemOrders(orders ...*Order) *memOrders {
	m := &memOrders{orders: make(map[id.ID]*Order)}
	for _, o := range orders {
		m.orders[o.ID] = o
	}
	return m
}

func (m *memOrders) Create(_ context.Context, o *Order) error {
	m.orders[o.ID] = o
	return nil
}

func (m *memOrders) GetByID(_ context.Context, orderID id.ID) (*Order, error) {
	if o, ok := m.orders[orderID]; ok {
		return o, nil
	}
	return nil, apperror.NewNotFound("order", orderID)
}

func (m *memOrders) GetForUpdate(ctx context.Context, orderID id.ID) (*Order, error) {
	return m.GetByID(ctx, orderID)
}

func (m *memOrders) List(_ context.Context, _ Filter) ([]*Order, error) {
	var out []*Order
	for _, o := range m.orders {
		out = append(out, o)
	}
	return out, nil
}

func (m *memOrders) SetStatus(_ context.Context, orderID id.ID, status Status, receivedAt *time.Time) error {
	o, ok := m.orders[orderID]
	if !ok {
		return apperror.NewNotFound("order", orderID)
	}
	o.Status = status
	o.ReceivedAt = receivedAt
	return nil
}

type memEntries struct {
	entries []*entity.LedgerEntry
}

func (r *memEntries) Append(_ context.Context, e *entity.LedgerEntry) error {
	r.entries = append(r.entries, e)
	return nil
}

func (r *memEntries) AppendPair(_ context.Context, out, in *entity.LedgerEntry) error {
	r.entries = append(r.entries, out, in)
	return nil
}

func (r *memEntries) GetByID(_ context.Context, entryID id.ID) (*entity.LedgerEntry, error) {
	for _, e := range r.entries {
		if e.ID == entryID {
			return e, nil
		}
	}
	return nil, apperror.NewNotFound("ledger entry", entryID)
}

func (r *memEntries) Query(_ context.Context, filter ledger.EntryFilter) ([]*entity.LedgerEntry, error) {
	var out []*entity.LedgerEntry
	for _, e := range r.entries {
		if filter.TransferGroupID != nil {
			if e.TransferGroupID == nil || *e.TransferGroupID != *filter.TransferGroupID {
				continue
			}
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *memEntries) Balance(_ context.Context, siteID, materialID id.ID, _ *time.Time) (types.Quantity, error) {
	var total types.Quantity
	for _, e := range r.entries {
		if e.SiteID == siteID && e.MaterialID == materialID {
			total += e.SignedQuantity()
		}
	}
	return total, nil
}

func (r *memEntries) SiteBalances(_ context.Context, _ id.ID) ([]ledger.MaterialBalance, error) {
	return nil, nil
}

func (r *memEntries) CostBasis(_ context.Context, materialID id.ID) (ledger.CostBasis, error) {
	basis := ledger.CostBasis{Spent: types.ZeroMoney()}
	for _, e := range r.entries {
		if e.MaterialID != materialID || !e.IsPriced() {
			continue
		}
		basis.Quantity += e.Quantity
		basis.Spent = basis.Spent.Add(e.Amount())
	}
	return basis, nil
}

func (r *memEntries) LockStock(_ context.Context, _, _ id.ID) error { return nil }

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
	return nil, nil
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

type noopTxManager struct{}

func (noopTxManager) RunInTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func newTestService(repo *memOrders, entries *memEntries, materials *memMaterials) *Service {
	costing := ledger.NewCosting(entries, materials)
	return NewService(repo, entries, materials, costing, noopTxManager{}, &numerator.MockGenerator{}, nil)
}

func mustQty(t *testing.T, s string) types.Quantity {
	t.Helper()
	q, err := types.ParseQuantity(s)
	require.NoError(t, err)
	return q
}

func moneyPtr(s string) *types.Money {
	m := types.MustMoney(s)
	return &m
}

// fullReceipt declares every line received at its ordered quantity.
func fullReceipt(o *Order) map[id.ID]types.Quantity {
	received := make(map[id.ID]types.Quantity, len(o.Items))
	for _, item := range o.Items {
		received[item.ID] = item.Quantity
	}
	return received
}

// --- Tests ---

func TestCreateAssignsNumber(t *testing.T) {
	repo := newMemOrders()
	svc := newTestService(repo, &memEntries{}, newMemMaterials())

	cement := material.NewMaterial("MAT-001", "Cement M500", "kg")
	o := NewOrder(id.New())
	o.Items = []OrderItem{{ID: id.New(), OrderID: o.ID, MaterialID: cement.ID, Quantity: mustQty(t, "10")}}

	require.NoError(t, svc.Create(context.Background(), o))
	assert.Equal(t, "MOCK-2026-00001", o.Number)
	assert.Equal(t, StatusDraft, o.Status)
}

func TestCreateRejectsEmptyOrder(t *testing.T) {
	svc := newTestService(newMemOrders(), &memEntries{}, newMemMaterials())

	o := NewOrder(id.New())
	err := svc.Create(context.Background(), o)
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
}

func TestReconcileReceiptFromSupplier(t *testing.T) {
	cement := material.NewMaterial("MAT-001", "Cement M500", "kg")
	board := material.NewMaterial("MAT-002", "OSB board", "pcs")
	board.AvgCost = types.MustMoney("780.00")

	entriesRepo := &memEntries{}
	materials := newMemMaterials(cement, board)

	siteID := id.New()
	o := NewOrder(siteID)
	o.Number = "ORD-2026-00007"
	o.Status = StatusOrdered
	o.UnitCost = moneyPtr("95.00")
	o.Items = []OrderItem{
		// Line price wins over order price.
		{ID: id.New(), OrderID: o.ID, MaterialID: cement.ID, Quantity: mustQty(t, "100"), UnitCost: moneyPtr("90.00")},
		// No line price: falls back to the order price.
		{ID: id.New(), OrderID: o.ID, MaterialID: board.ID, Quantity: mustQty(t, "40")},
	}

	repo := newMemOrders(o)
	svc := newTestService(repo, entriesRepo, materials)

	date := time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC)
	res, err := svc.ReconcileReceipt(context.Background(), o.ID, fullReceipt(o), date)
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)

	// Supplier entries are linked through the order; no outgoing legs
	// exist, so no transfer group is allocated.
	assert.Nil(t, res.GroupID)
	for _, e := range res.Entries {
		assert.Nil(t, e.TransferGroupID)
		require.NotNil(t, e.OrderID)
		assert.Equal(t, o.ID, *e.OrderID)
		assert.Equal(t, entity.EntryKindIncoming, e.Kind)
	}

	assert.Equal(t, "90.00", res.Entries[0].UnitCost.StringFixed(2))
	assert.Equal(t, "95.00", res.Entries[1].UnitCost.StringFixed(2))

	// Receipt recosts affected materials.
	assert.Equal(t, "90.00", cement.AvgCost.StringFixed(2))
	assert.Equal(t, "95.00", board.AvgCost.StringFixed(2))

	assert.Equal(t, StatusReceived, o.Status)
	require.NotNil(t, o.ReceivedAt)
}

func TestReconcileReceiptAvgCostFallback(t *testing.T) {
	paint := material.NewMaterial("MAT-005", "Paint", "l")
	paint.AvgCost = types.MustMoney("410.50")

	siteID := id.New()
	o := NewOrder(siteID)
	o.Number = "ORD-2026-00008"
	o.Items = []OrderItem{
		{ID: id.New(), OrderID: o.ID, MaterialID: paint.ID, Quantity: mustQty(t, "12")},
	}

	svc := newTestService(newMemOrders(o), &memEntries{}, newMemMaterials(paint))

	res, err := svc.ReconcileReceipt(context.Background(), o.ID, fullReceipt(o), time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)
	assert.Equal(t, "410.50", res.Entries[0].UnitCost.StringFixed(2))
}

func TestReconcileReceiptPartial(t *testing.T) {
	cement := material.NewMaterial("MAT-001", "Cement M500", "kg")
	board := material.NewMaterial("MAT-002", "OSB board", "pcs")

	siteID := id.New()
	o := NewOrder(siteID)
	o.Number = "ORD-2026-00014"
	o.Status = StatusOrdered
	o.Items = []OrderItem{
		{ID: id.New(), OrderID: o.ID, MaterialID: cement.ID, Quantity: mustQty(t, "100"), UnitCost: moneyPtr("90.00")},
		{ID: id.New(), OrderID: o.ID, MaterialID: board.ID, Quantity: mustQty(t, "40"), UnitCost: moneyPtr("780.00")},
	}

	entriesRepo := &memEntries{}
	svc := newTestService(newMemOrders(o), entriesRepo, newMemMaterials(cement, board))

	// Only 80 of 100 cement units arrived; the board line is not
	// declared at all and stays unreceived.
	received := map[id.ID]types.Quantity{
		o.Items[0].ID: mustQty(t, "80"),
	}

	res, err := svc.ReconcileReceipt(context.Background(), o.ID, received, time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, res.Entries, 1)

	e := res.Entries[0]
	assert.Equal(t, cement.ID, e.MaterialID)
	assert.Equal(t, mustQty(t, "80"), e.Quantity)
	assert.Equal(t, "90.00", e.UnitCost.StringFixed(2))

	// Only the declared quantity lands on the books.
	balance, err := entriesRepo.Balance(context.Background(), siteID, cement.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, mustQty(t, "80"), balance)
	assert.Equal(t, "90.00", cement.AvgCost.StringFixed(2))

	// The undeclared material is untouched.
	assert.True(t, board.AvgCost.IsZero())
}

func TestReconcileReceiptNoDeclaredLines(t *testing.T) {
	cement := material.NewMaterial("MAT-001", "Cement M500", "kg")
	o := NewOrder(id.New())
	o.Number = "ORD-2026-00015"
	o.Items = []OrderItem{
		{ID: id.New(), OrderID: o.ID, MaterialID: cement.ID, Quantity: mustQty(t, "10"), UnitCost: moneyPtr("100")},
	}

	svc := newTestService(newMemOrders(o), &memEntries{}, newMemMaterials(cement))

	_, err := svc.ReconcileReceipt(context.Background(), o.ID, nil, time.Now().UTC())
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)

	// Declarations that match no line are ignored, so the receipt is empty.
	_, err = svc.ReconcileReceipt(context.Background(), o.ID,
		map[id.ID]types.Quantity{id.New(): mustQty(t, "5")}, time.Now().UTC())
	require.Error(t, err)
	appErr, _ = apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeValidation, appErr.Code)
	assert.Equal(t, StatusDraft, o.Status)
}

func TestReconcileReceiptNoResolvablePrice(t *testing.T) {
	gravel := material.NewMaterial("MAT-006", "Gravel", "m3")

	o := NewOrder(id.New())
	o.Number = "ORD-2026-00009"
	o.Items = []OrderItem{
		{ID: id.New(), OrderID: o.ID, MaterialID: gravel.ID, Quantity: mustQty(t, "3")},
	}

	entriesRepo := &memEntries{}
	svc := newTestService(newMemOrders(o), entriesRepo, newMemMaterials(gravel))

	_, err := svc.ReconcileReceipt(context.Background(), o.ID, fullReceipt(o), time.Now().UTC())
	require.Error(t, err)
	appErr, ok := apperror.AsAppError(err)
	require.True(t, ok)
	assert.Equal(t, apperror.CodeInvalidCost, appErr.Code)
	assert.Empty(t, entriesRepo.entries)
	assert.Equal(t, StatusDraft, o.Status)
}

func TestReconcileReceiptTwice(t *testing.T) {
	cement := material.NewMaterial("MAT-001", "Cement M500", "kg")

	o := NewOrder(id.New())
	o.Number = "ORD-2026-00010"
	o.Items = []OrderItem{
		{ID: id.New(), OrderID: o.ID, MaterialID: cement.ID, Quantity: mustQty(t, "5"), UnitCost: moneyPtr("100")},
	}

	svc := newTestService(newMemOrders(o), &memEntries{}, newMemMaterials(cement))

	_, err := svc.ReconcileReceipt(context.Background(), o.ID, fullReceipt(o), time.Now().UTC())
	require.NoError(t, err)

	_, err = svc.ReconcileReceipt(context.Background(), o.ID, fullReceipt(o), time.Now().UTC())
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeOrderNotReceivable, appErr.Code)
}

func TestReconcileReceiptInternal(t *testing.T) {
	sand := material.NewMaterial("MAT-003", "Sand", "m3")
	sand.AvgCost = types.MustMoney("450.00")

	depot := id.New()
	siteID := id.New()

	entriesRepo := &memEntries{}
	stock := entity.NewLedgerEntry(entity.EntryKindIncoming, depot, sand.ID, mustQty(t, "50"), types.MustMoney("450"), time.Now().UTC())
	require.NoError(t, entriesRepo.Append(context.Background(), stock))

	o := NewOrder(siteID)
	o.Number = "ORD-2026-00011"
	o.SourceSiteID = &depot
	o.Items = []OrderItem{
		{ID: id.New(), OrderID: o.ID, MaterialID: sand.ID, Quantity: mustQty(t, "20")},
	}

	svc := newTestService(newMemOrders(o), entriesRepo, newMemMaterials(sand))

	res, err := svc.ReconcileReceipt(context.Background(), o.ID, fullReceipt(o), time.Now().UTC())
	require.NoError(t, err)
	require.Len(t, res.Entries, 2)
	require.NotNil(t, res.GroupID)

	out, in := res.Entries[0], res.Entries[1]
	assert.Equal(t, entity.EntryKindOutgoing, out.Kind)
	assert.Equal(t, depot, out.SiteID)
	assert.Equal(t, entity.EntryKindIncoming, in.Kind)
	assert.Equal(t, siteID, in.SiteID)

	// Both legs carry the source average so the value moves with the goods.
	assert.Equal(t, "450.00", out.UnitCost.StringFixed(2))
	assert.Equal(t, "450.00", in.UnitCost.StringFixed(2))

	require.NotNil(t, out.TransferGroupID)
	require.NotNil(t, in.TransferGroupID)
	assert.Equal(t, *res.GroupID, *out.TransferGroupID)
	assert.Equal(t, *res.GroupID, *in.TransferGroupID)

	// Internal fulfillment never recosts.
	assert.Equal(t, "450.00", sand.AvgCost.StringFixed(2))

	fromBalance, err := entriesRepo.Balance(context.Background(), depot, sand.ID, nil)
	require.NoError(t, err)
	toBalance, err := entriesRepo.Balance(context.Background(), siteID, sand.ID, nil)
	require.NoError(t, err)
	assert.Equal(t, mustQty(t, "30"), fromBalance)
	assert.Equal(t, mustQty(t, "20"), toBalance)
}

func TestReconcileReceiptInternalInsufficientStock(t *testing.T) {
	sand := material.NewMaterial("MAT-003", "Sand", "m3")

	depot := id.New()
	o := NewOrder(id.New())
	o.Number = "ORD-2026-00012"
	o.SourceSiteID = &depot
	// Two lines of the same material must be guarded as a sum.
	o.Items = []OrderItem{
		{ID: id.New(), OrderID: o.ID, MaterialID: sand.ID, Quantity: mustQty(t, "6")},
		{ID: id.New(), OrderID: o.ID, MaterialID: sand.ID, Quantity: mustQty(t, "6")},
	}

	entriesRepo := &memEntries{}
	stock := entity.NewLedgerEntry(entity.EntryKindIncoming, depot, sand.ID, mustQty(t, "10"), types.MustMoney("450"), time.Now().UTC())
	require.NoError(t, entriesRepo.Append(context.Background(), stock))

	svc := newTestService(newMemOrders(o), entriesRepo, newMemMaterials(sand))

	_, err := svc.ReconcileReceipt(context.Background(), o.ID, fullReceipt(o), time.Now().UTC())
	require.Error(t, err)
	assert.True(t, apperror.IsInsufficientStock(err))

	// Nothing written beyond the pre-existing stock entry.
	assert.Len(t, entriesRepo.entries, 1)
	assert.Equal(t, StatusDraft, o.Status)
}

func TestCancel(t *testing.T) {
	cement := material.NewMaterial("MAT-001", "Cement M500", "kg")
	o := NewOrder(id.New())
	o.Number = "ORD-2026-00013"
	o.Items = []OrderItem{
		{ID: id.New(), OrderID: o.ID, MaterialID: cement.ID, Quantity: mustQty(t, "5"), UnitCost: moneyPtr("100")},
	}

	svc := newTestService(newMemOrders(o), &memEntries{}, newMemMaterials(cement))

	require.NoError(t, svc.Cancel(context.Background(), o.ID))
	assert.Equal(t, StatusCancelled, o.Status)

	// Cancelled orders cannot be received.
	_, err := svc.ReconcileReceipt(context.Background(), o.ID, fullReceipt(o), time.Now().UTC())
	require.Error(t, err)
	appErr, _ := apperror.AsAppError(err)
	assert.Equal(t, apperror.CodeOrderNotReceivable, appErr.Code)
}
