package cli

import (
	"fmt"
	"strings"

	"github.com/eurostyle/datagen/internal/pipeline"
	"github.com/eurostyle/datagen/internal/validate"
)

// RunSummary is the JSON payload for generate and resume.
type RunSummary struct {
	RunID        string        `json:"run_id"`
	Status       string        `json:"status"`
	Days         int           `json:"days"`
	Rejected     int           `json:"rejected"`
	Revenue      string        `json:"revenue"`
	TotalRevenue string        `json:"total_revenue"`
	Tables       []TableCount  `json:"tables"`
	Checks       []CheckResult `json:"checks"`
}

// TableCount is one emitted table's row count.
type TableCount struct {
	Table string `json:"table"`
	Rows  int    `json:"rows"`
}

// CheckResult is one consistency check outcome.
type CheckResult struct {
	Name     string   `json:"name"`
	Pass     bool     `json:"pass"`
	Detail   string   `json:"detail,omitempty"`
	Variance string   `json:"variance,omitempty"`
	Offender []string `json:"offenders,omitempty"`
}

func summarize(res *pipeline.Result) RunSummary {
	s := RunSummary{
		RunID:        res.RunID,
		Status:       res.Status,
		Days:         res.Days,
		Rejected:     res.Rejected,
		Revenue:      res.Revenue.StringFixed(2),
		TotalRevenue: res.TotalRevenue.StringFixed(2),
		Checks:       checkResults(res.Report),
	}
	for _, b := range res.Batches {
		if len(b.Rows) == 0 {
			continue
		}
		s.Tables = append(s.Tables, TableCount{Table: b.Name(), Rows: len(b.Rows)})
	}
	return s
}

func checkResults(r *validate.Report) []CheckResult {
	if r == nil {
		return nil
	}
	out := make([]CheckResult, 0, len(r.Checks))
	for _, c := range r.Checks {
		cr := CheckResult{Name: c.Name, Pass: c.Pass, Detail: c.Detail, Offender: c.Offenders}
		if !c.Variance.IsZero() {
			cr.Variance = c.Variance.StringFixed(2)
		}
		out = append(out, cr)
	}
	return out
}

// renderSummary formats a run summary for operators.
func renderSummary(s RunSummary) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Run %s: %s\n", s.RunID, s.Status)
	fmt.Fprintf(&b, "  days generated:  %d\n", s.Days)
	fmt.Fprintf(&b, "  rejected events: %d\n", s.Rejected)
	fmt.Fprintf(&b, "  run revenue:     %s\n", s.Revenue)
	fmt.Fprintf(&b, "  total revenue:   %s\n", s.TotalRevenue)

	if len(s.Tables) > 0 {
		b.WriteString("\nRows emitted:\n")
		for _, tc := range s.Tables {
			fmt.Fprintf(&b, "  %-28s %6d\n", tc.Table, tc.Rows)
		}
	}

	b.WriteString("\n")
	b.WriteString(renderChecks(s.Checks))
	return b.String()
}

// renderChecks formats consistency check outcomes, one line per check.
func renderChecks(checks []CheckResult) string {
	var b strings.Builder
	b.WriteString("Consistency checks:\n")
	for _, c := range checks {
		mark := "✓"
		if !c.Pass {
			mark = "✗"
		}
		fmt.Fprintf(&b, "  %s %s", mark, c.Name)
		if c.Detail != "" {
			fmt.Fprintf(&b, ": %s", c.Detail)
		}
		if c.Variance != "" {
			fmt.Fprintf(&b, " (variance %s)", c.Variance)
		}
		b.WriteString("\n")
		for _, off := range c.Offender {
			fmt.Fprintf(&b, "      %s\n", off)
		}
	}
	return b.String()
}
