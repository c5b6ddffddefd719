package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eurostyle/datagen/internal/model"
)

func TestOpen_CreatesAndReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "watermark.db")

	s, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, s.Close())

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Fatal("database file was not created")
	}

	s2, err := Open(path)
	require.NoError(t, err)
	defer s2.Close()
}

func TestLoadWatermark_EmptyDatabaseReturnsNil(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "watermark.db"))
	require.NoError(t, err)
	defer s.Close()

	wm, err := s.LoadWatermark(context.Background())
	require.NoError(t, err)
	assert.Nil(t, wm, "fresh database has no watermark")
}

func TestSaveWatermark_RoundTrip(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "watermark.db"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	wm := &Watermark{
		Kinds: map[model.Kind]int64{
			model.KindCustomer: 250,
			model.KindOrder:    125,
		},
		Accounts: map[string]decimal.Decimal{
			"4000": decimal.RequireFromString("10431.50"),
			"2200": decimal.RequireFromString("2190.62"),
		},
		Days:    5,
		Revenue: decimal.RequireFromString("12622.12"),
	}
	refs := []EntityRef{
		{Kind: model.KindCustomer, ID: "CUST-000001", Country: "NL"},
		{Kind: model.KindProduct, ID: "PROD-000001", Amount: decimal.RequireFromString("49.95")},
	}
	run := RunRecord{
		ID:         "run-1",
		StartedAt:  time.Date(2026, 3, 9, 6, 0, 0, 0, time.UTC),
		FinishedAt: time.Date(2026, 3, 9, 6, 1, 0, 0, time.UTC),
		Days:       5,
		Seed:       42,
		Status:     "clean",
		Revenue:    wm.Revenue,
	}

	require.NoError(t, s.SaveWatermark(ctx, wm, refs, run))

	got, err := s.LoadWatermark(ctx)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, int64(250), got.Kinds[model.KindCustomer])
	assert.Equal(t, int64(125), got.Kinds[model.KindOrder])
	assert.True(t, got.Accounts["4000"].Equal(wm.Accounts["4000"]))
	assert.Equal(t, 5, got.Days)
	assert.True(t, got.Revenue.Equal(wm.Revenue))

	customers, err := s.LoadEntities(ctx, model.KindCustomer)
	require.NoError(t, err)
	require.Len(t, customers, 1)
	assert.Equal(t, model.ID("CUST-000001"), customers[0].ID)
	assert.Equal(t, "NL", customers[0].Country)

	products, err := s.LoadEntities(ctx, model.KindProduct)
	require.NoError(t, err)
	require.Len(t, products, 1)
	assert.True(t, products[0].Amount.Equal(decimal.RequireFromString("49.95")))
}

func TestSaveWatermark_SecondRunOverwritesPositions(t *testing.T) {
	s, err := Open(filepath.Join(t.TempDir(), "watermark.db"))
	require.NoError(t, err)
	defer s.Close()
	ctx := context.Background()

	first := &Watermark{
		Kinds:    map[model.Kind]int64{model.KindOrder: 100},
		Accounts: map[string]decimal.Decimal{"4000": decimal.RequireFromString("500.00")},
		Days:     1,
		Revenue:  decimal.RequireFromString("500.00"),
	}
	require.NoError(t, s.SaveWatermark(ctx, first, nil, RunRecord{
		ID: "run-1", StartedAt: time.Now().UTC(), FinishedAt: time.Now().UTC(),
		Days: 1, Seed: 1, Status: "clean", Revenue: first.Revenue,
	}))

	second := &Watermark{
		Kinds:    map[model.Kind]int64{model.KindOrder: 180},
		Accounts: map[string]decimal.Decimal{"4000": decimal.RequireFromString("900.00")},
		Days:     2,
		Revenue:  decimal.RequireFromString("900.00"),
	}
	require.NoError(t, s.SaveWatermark(ctx, second, nil, RunRecord{
		ID: "run-2", StartedAt: time.Now().UTC(), FinishedAt: time.Now().UTC(),
		Days: 1, Seed: 2, Status: "clean", Revenue: second.Revenue,
	}))

	got, err := s.LoadWatermark(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(180), got.Kinds[model.KindOrder])
	assert.True(t, got.Accounts["4000"].Equal(decimal.RequireFromString("900.00")))

	runs, err := s.Runs(ctx)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}
