package ident

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eurostyle/datagen/internal/model"
)

func TestAllocator_NextFormatsPerKind(t *testing.T) {
	a := New(DefaultFormats, 2026)

	id, err := a.Next(model.KindCustomer)
	require.NoError(t, err)
	assert.Equal(t, model.ID("CUST-000001"), id)

	id, err = a.Next(model.KindOrder)
	require.NoError(t, err)
	assert.Equal(t, model.ID("ORD-2026-000001"), id, "year-bearing kinds embed the business year")

	id, err = a.Next(model.KindStore)
	require.NoError(t, err)
	assert.Equal(t, model.ID("STOR-001"), id)
}

func TestAllocator_SequencesAreIndependentPerKind(t *testing.T) {
	a := New(DefaultFormats, 2026)

	for i := 0; i < 3; i++ {
		_, err := a.Next(model.KindCustomer)
		require.NoError(t, err)
	}
	id, err := a.Next(model.KindProduct)
	require.NoError(t, err)
	assert.Equal(t, model.ID("PROD-000001"), id, "other kinds must not advance")
	assert.Equal(t, int64(3), a.Last(model.KindCustomer))
}

func TestAllocator_UnconfiguredKindFails(t *testing.T) {
	a := New(map[model.Kind]Format{model.KindCustomer: {Prefix: "CUST", Width: 6}}, 2026)

	_, err := a.Next(model.KindOrder)
	assert.Error(t, err)
	assert.ErrorContains(t, err, "unconfigured")

	assert.Error(t, a.Resume(model.KindOrder, 10))
}

func TestAllocator_ResumeContinuesSequence(t *testing.T) {
	a := New(DefaultFormats, 2026)
	require.NoError(t, a.Resume(model.KindCustomer, 41))

	id, err := a.Next(model.KindCustomer)
	require.NoError(t, err)
	assert.Equal(t, model.ID("CUST-000042"), id)
}

func TestAllocator_NoCollisionAcrossResume(t *testing.T) {
	first := New(DefaultFormats, 2026)
	seen := make(map[model.ID]bool)
	for i := 0; i < 50; i++ {
		id, err := first.Next(model.KindOrder)
		require.NoError(t, err)
		require.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}

	// Second run resumes from the first run's watermark.
	second := New(DefaultFormats, 2026)
	require.NoError(t, second.Resume(model.KindOrder, first.Last(model.KindOrder)))
	for i := 0; i < 50; i++ {
		id, err := second.Next(model.KindOrder)
		require.NoError(t, err)
		require.False(t, seen[id], "resumed run reissued id %s", id)
		seen[id] = true
	}
	assert.Len(t, seen, 100)
}

func TestAllocator_Snapshot(t *testing.T) {
	a := New(DefaultFormats, 2026)
	_, err := a.Next(model.KindCustomer)
	require.NoError(t, err)
	_, err = a.Next(model.KindCustomer)
	require.NoError(t, err)

	snap := a.Snapshot()
	assert.Equal(t, int64(2), snap[model.KindCustomer])
	assert.Equal(t, int64(0), snap[model.KindOrder])
}
