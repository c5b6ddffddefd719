package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eurostyle/datagen/internal/config"
	"github.com/eurostyle/datagen/internal/emit"
	"github.com/eurostyle/datagen/internal/model"
	"github.com/eurostyle/datagen/internal/state"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Demo()
	require.NoError(t, err)
	// Small volumes keep the suite quick without losing any code path.
	cfg.Counts = config.Counts{
		Customers: 30, Products: 20, Stores: 6, Employees: 12,
		OrdersPerDay: 8, POSPerDay: 10, SessionsPerDay: 15,
	}
	return cfg
}

func testStore(t *testing.T) *state.Store {
	t.Helper()
	st, err := state.Open(filepath.Join(t.TempDir(), "state.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return st
}

func quiet() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func runOnce(t *testing.T, opts Options) *Result {
	t.Helper()
	ctrl, err := New(opts)
	require.NoError(t, err)
	res, err := ctrl.Run(context.Background())
	require.NoError(t, err)
	return res
}

func TestFreshRunIsCleanAndConsistent(t *testing.T) {
	res := runOnce(t, Options{
		Config: testConfig(t),
		Store:  testStore(t),
		Seed:   42,
		Days:   2,
		Year:   2026,
		Logger: quiet(),
	})

	assert.Equal(t, PhasePersisted, res.Phase)
	assert.Equal(t, StatusClean, res.Status)
	assert.Zero(t, res.Rejected)
	assert.True(t, res.Report.Pass(), "failures: %v", res.Report.Failures())
	assert.True(t, res.Revenue.IsPositive())
	assert.True(t, res.TotalRevenue.Equal(res.Revenue))

	byName := make(map[string]*emit.Batch)
	for _, b := range res.Batches {
		byName[b.Name()] = b
	}
	assert.Len(t, byName["erp.customers"].Rows, 30)
	assert.Len(t, byName["erp.orders"].Rows, 16)
	assert.Len(t, byName["pos.pos_transactions"].Rows, 10*2)
	assert.Len(t, byName["hr.payroll_runs"].Rows, 12)
	assert.Empty(t, byName["erp.customers_updates"].Rows, "fresh runs carry no update batches")
	// Every posted event produced one journal header.
	assert.Len(t, byName["finance.journal_headers"].Rows, 16+20+12)
}

// sumColumn totals a decimal column of a batch by column name.
func sumColumn(t *testing.T, b *emit.Batch, column string) decimal.Decimal {
	t.Helper()
	idx := -1
	for i, c := range b.Columns {
		if c == column {
			idx = i
		}
	}
	require.GreaterOrEqual(t, idx, 0, "batch %s has no column %s", b.Name(), column)
	total := decimal.Zero
	for _, row := range b.Rows {
		total = total.Add(decimal.RequireFromString(row[idx]))
	}
	return total
}

func TestRunRevenueCountsSalesNotPayroll(t *testing.T) {
	res := runOnce(t, Options{
		Config: testConfig(t),
		Store:  testStore(t),
		Seed:   42,
		Days:   1,
		Year:   2026,
		Logger: quiet(),
	})

	byName := make(map[string]*emit.Batch)
	for _, b := range res.Batches {
		byName[b.Name()] = b
	}
	require.NotEmpty(t, byName["hr.payroll_runs"].Rows)

	sales := sumColumn(t, byName["erp.orders"], "total").
		Add(sumColumn(t, byName["pos.pos_transactions"], "total"))
	assert.True(t, res.Revenue.Equal(sales),
		"revenue %s must equal sales totals %s, payroll excluded", res.Revenue, sales)
}

func TestSameSeedReproducesIdenticalDataset(t *testing.T) {
	opts := func() Options {
		return Options{
			Config: testConfig(t),
			Store:  testStore(t),
			Seed:   777,
			Days:   2,
			Year:   2026,
			Logger: quiet(),
		}
	}

	first := runOnce(t, opts())
	second := runOnce(t, opts())

	require.Equal(t, len(first.Batches), len(second.Batches))
	for i, a := range first.Batches {
		b := second.Batches[i]
		require.Equal(t, a.Name(), b.Name())
		assert.Equal(t, a.Rows, b.Rows, "batch %s differs between identically seeded runs", a.Name())
	}
	assert.True(t, first.Revenue.Equal(second.Revenue))
}

func TestDifferentSeedsDiverge(t *testing.T) {
	a := runOnce(t, Options{Config: testConfig(t), Store: testStore(t), Seed: 1, Days: 1, Year: 2026, Logger: quiet()})
	b := runOnce(t, Options{Config: testConfig(t), Store: testStore(t), Seed: 2, Days: 1, Year: 2026, Logger: quiet()})
	assert.False(t, a.Revenue.Equal(b.Revenue))
}

func TestIncrementalRunExtendsWithoutRewriting(t *testing.T) {
	cfg := testConfig(t)
	st := testStore(t)
	out := t.TempDir()

	first := runOnce(t, Options{
		Config: cfg, Store: st, OutDir: out,
		Seed: 42, Days: 1, Year: 2026, Logger: quiet(),
	})
	require.Equal(t, StatusClean, first.Status)

	ordersPath := filepath.Join(out, "erp", "orders.csv")
	before, err := os.ReadFile(ordersPath)
	require.NoError(t, err)

	second := runOnce(t, Options{
		Config: cfg, Store: st, OutDir: out,
		Seed: 43, Days: 1, Year: 2026, Updates: true, Logger: quiet(),
	})
	require.Equal(t, StatusClean, second.Status)
	assert.True(t, second.Report.Pass(), "failures: %v", second.Report.Failures())

	// Prior output is append-only: run 1's bytes survive untouched.
	after, err := os.ReadFile(ordersPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(after), string(before)))
	assert.Greater(t, len(after), len(before))
	assert.Equal(t, 1, strings.Count(string(after), "order_id"), "header written once")

	// Identifier sequences continue where run 1 stopped.
	assert.Equal(t, first.Watermark.Kinds[model.KindOrder]+8, second.Watermark.Kinds[model.KindOrder])
	assert.Greater(t, second.Watermark.Kinds[model.KindJournal], first.Watermark.Kinds[model.KindJournal])

	// No base re-emission, but update batches appear.
	byName := make(map[string]*emit.Batch)
	for _, b := range second.Batches {
		byName[b.Name()] = b
	}
	assert.Empty(t, byName["erp.customers"].Rows)
	assert.NotEmpty(t, byName["hr.payroll_runs"].Rows)

	// Cumulative revenue adds exactly.
	assert.True(t, second.TotalRevenue.Equal(first.TotalRevenue.Add(second.Revenue)),
		"cumulative %s want %s + %s", second.TotalRevenue, first.TotalRevenue, second.Revenue)

	runs, err := st.Runs(context.Background())
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestUpdateBatchesReferenceExistingEntities(t *testing.T) {
	cfg := testConfig(t)
	cfg.UpdateFraction = 0.5
	st := testStore(t)

	first := runOnce(t, Options{Config: cfg, Store: st, Seed: 9, Days: 1, Year: 2026, Logger: quiet()})
	baseCustomers := make(map[string]bool)
	for _, b := range first.Batches {
		if b.Name() == "erp.customers" {
			for _, row := range b.Rows {
				baseCustomers[row[0]] = true
			}
		}
	}

	second := runOnce(t, Options{Config: cfg, Store: st, Seed: 10, Days: 1, Year: 2026, Updates: true, Logger: quiet()})
	require.True(t, second.Report.Pass(), "failures: %v", second.Report.Failures())

	found := false
	for _, b := range second.Batches {
		if b.Name() != "erp.customers_updates" {
			continue
		}
		require.NotEmpty(t, b.Rows, "half the customers should update")
		for _, row := range b.Rows {
			assert.True(t, baseCustomers[row[0]], "update row %s must target a run-1 customer", row[0])
		}
		found = true
	}
	assert.True(t, found)
}

func TestCorruptEventDegradesRunButStaysConsistent(t *testing.T) {
	var tapped int
	res := runOnce(t, Options{
		Config: testConfig(t),
		Store:  testStore(t),
		Seed:   42,
		Days:   2,
		Year:   2026,
		Logger: quiet(),
		EventTap: func(ev *model.RevenueEvent) {
			tapped++
			if tapped == 5 {
				ev.Total = ev.Total.Neg()
			}
		},
	})

	assert.Equal(t, 1, res.Rejected)
	assert.True(t, res.Degraded)
	assert.Equal(t, StatusDegraded, res.Status)
	assert.True(t, res.Report.Pass(),
		"surviving events still reconcile: %v", res.Report.Failures())

	byName := make(map[string]*emit.Batch)
	for _, b := range res.Batches {
		byName[b.Name()] = b
	}
	// The rejected order appears in no table at all.
	assert.Len(t, byName["erp.orders"].Rows, 15)
	assert.Len(t, byName["finance.journal_headers"].Rows, 15+20+12)
}

func TestAbortedRunWritesNoWatermark(t *testing.T) {
	st := testStore(t)
	cfg := testConfig(t)

	ctrl, err := New(Options{Config: cfg, Store: st, Seed: 1, Days: 1, Year: 2026, Logger: quiet()})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = ctrl.Run(ctx)
	require.Error(t, err)

	wm, err := st.LoadWatermark(context.Background())
	require.NoError(t, err)
	assert.Nil(t, wm, "cancelled runs leave the watermark untouched")
}

func TestOptionsValidation(t *testing.T) {
	_, err := New(Options{Store: testStore(t)})
	require.Error(t, err)

	cfg := testConfig(t)
	_, err = New(Options{Config: cfg})
	require.Error(t, err)

	ctrl, err := New(Options{Config: cfg, Store: testStore(t)})
	require.NoError(t, err)
	assert.Equal(t, cfg.Days, ctrl.opts.Days, "days default to the config value")
}

func TestBusinessDaySkipsWeekends(t *testing.T) {
	for i := 0; i < 20; i++ {
		d := businessDay(2026, i)
		assert.NotEqual(t, "Saturday", d.Weekday().String())
		assert.NotEqual(t, "Sunday", d.Weekday().String())
	}
	// 2026-01-05 is the first Monday of 2026.
	assert.Equal(t, "2026-01-05", businessDay(2026, 0).Format("2006-01-02"))
	assert.Equal(t, "2026-01-09", businessDay(2026, 4).Format("2006-01-02"))
	assert.Equal(t, "2026-01-12", businessDay(2026, 5).Format("2006-01-02"))
}
