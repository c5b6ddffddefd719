package cli

import (
	"testing"

	"github.com/sebdah/goldie/v2"
	"github.com/stretchr/testify/assert"
)

func sampleSummary() RunSummary {
	return RunSummary{
		RunID:        "1f0c8f2a-0000-4000-8000-000000000001",
		Status:       "degraded",
		Days:         2,
		Rejected:     1,
		Revenue:      "18240.55",
		TotalRevenue: "36481.10",
		Tables: []TableCount{
			{Table: "erp.customers", Rows: 30},
			{Table: "erp.orders", Rows: 16},
			{Table: "finance.journal_headers", Rows: 48},
		},
		Checks: []CheckResult{
			{Name: "identifier_uniqueness", Pass: true, Detail: "94 identifiers"},
			{Name: "balanced_journals", Pass: true, Detail: "48 journals"},
			{
				Name:     "reconciliation",
				Pass:     false,
				Detail:   "orders vs journal revenue",
				Variance: "0.02",
				Offender: []string{"JRN-2026-000031"},
			},
		},
	}
}

func TestRenderSummaryGolden(t *testing.T) {
	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, "run_summary", []byte(renderSummary(sampleSummary())))
}

func TestRenderChecksMarksFailures(t *testing.T) {
	out := renderChecks(sampleSummary().Checks)
	assert.Contains(t, out, "✓ identifier_uniqueness")
	assert.Contains(t, out, "✗ reconciliation")
	assert.Contains(t, out, "variance 0.02")
	assert.Contains(t, out, "JRN-2026-000031")
}
