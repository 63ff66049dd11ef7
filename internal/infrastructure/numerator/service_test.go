package numerator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	corenumerator "sitestock/internal/core/numerator"
)

type fakeRow struct {
	val int64
	err error
}

func (r *fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) > 0 {
		if ptr, ok := dest[0].(*int64); ok {
			*ptr = r.val
		}
	}
	return nil
}

// fakeQuerier simulates the sys_sequences upsert: every call adds the
// increment (args[1] when it is an int64, otherwise 1) and returns the
// new counter value.
type fakeQuerier struct {
	mu      sync.Mutex
	counter int64
	calls   int
}

func (q *fakeQuerier) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	q.mu.Lock()
	defer q.mu.Unlock()

	var increment int64 = 1
	if len(args) == 2 {
		if v, ok := args[1].(int64); ok {
			increment = v
		}
	}

	q.counter += increment
	q.calls++
	return &fakeRow{val: q.counter}
}

func TestGetNextNumberStrict(t *testing.T) {
	q := &fakeQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("MAT")
	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	num, err := svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "MAT-2026-00001", num)

	num, err = svc.GetNextNumber(ctx, cfg, nil, period)
	require.NoError(t, err)
	assert.Equal(t, "MAT-2026-00002", num)

	// strict hits the database every time
	assert.Equal(t, 2, q.calls)
}

func TestGetNextNumberCached(t *testing.T) {
	q := &fakeQuerier{}
	svc := New(q)
	ctx := context.Background()
	cfg := corenumerator.DefaultConfig("ORD")
	period := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	opts := &corenumerator.Options{
		Strategy:  corenumerator.StrategyCached,
		RangeSize: 10,
	}

	num, err := svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00001", num)
	assert.Equal(t, int64(10), q.counter, "first call reserves a full range")

	// subsequent numbers come from memory
	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00002", num)
	assert.Equal(t, 1, q.calls)

	// exhaust the reserved range
	for i := 0; i < 8; i++ {
		_, err = svc.GetNextNumber(ctx, cfg, opts, period)
		require.NoError(t, err)
	}

	// next call crosses the boundary and reserves a second range
	num, err = svc.GetNextNumber(ctx, cfg, opts, period)
	require.NoError(t, err)
	assert.Equal(t, "ORD-2026-00011", num)
	assert.Equal(t, int64(20), q.counter)
}

func TestBuildKeyResetPeriods(t *testing.T) {
	svc := New(&fakeQuerier{})
	period := time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		resetPeriod string
		want        string
	}{
		{"year", "TRF_2026"},
		{"month", "TRF_2026_03"},
		{"never", "TRF"},
	}

	for _, tt := range tests {
		cfg := corenumerator.Config{Prefix: "TRF", ResetPeriod: tt.resetPeriod}
		assert.Equal(t, tt.want, svc.buildKey(cfg, period))
	}
}

func TestParseNumber(t *testing.T) {
	assert.Equal(t, int64(42), ParseNumber("ORD-2026-00042"))
	assert.Equal(t, int64(7), ParseNumber("TRF-00007"))
	assert.Equal(t, int64(-1), ParseNumber("garbage"))
}
