// Package validate recomputes cross-database consistency checks from
// emitted row batches, independently of any engine state.
//
// Inconsistency is a reportable outcome, not a crash: Validate never
// fails on data findings, it describes them. Callers map the report to
// exit codes or operator output.
package validate

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/eurostyle/datagen/internal/config"
	"github.com/eurostyle/datagen/internal/emit"
	"github.com/eurostyle/datagen/internal/model"
)

// Check is one recomputed consistency check.
type Check struct {
	Name      string
	Pass      bool
	Detail    string
	Variance  decimal.Decimal
	Offenders []string
}

// Report is the validator's structured result.
type Report struct {
	Checks []Check
}

// Pass reports whether every check passed.
func (r *Report) Pass() bool {
	for _, c := range r.Checks {
		if !c.Pass {
			return false
		}
	}
	return true
}

// Failures returns the failed checks.
func (r *Report) Failures() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.Pass {
			out = append(out, c)
		}
	}
	return out
}

// Options carries context for validating an incremental run: identifiers
// and allocator positions from prior runs, and the configured aggregate
// tolerance.
type Options struct {
	// KnownIDs holds identifiers emitted by prior runs, from the
	// watermark store's registry. FK references into prior runs are
	// legal; re-emitting one of these ids is not.
	KnownIDs map[model.Kind]map[model.ID]bool

	// PriorOrdinals is each kind's last ordinal before this run, for
	// the sequence-continuity check.
	PriorOrdinals map[model.Kind]int64

	// RejectedIDs holds identifiers allocated to events rejected before
	// emission. Their ordinals are legal holes in the sequences.
	RejectedIDs []string

	// Tolerance bounds accepted variance in aggregate comparisons.
	// Zero demands exact equality.
	Tolerance decimal.Decimal
}

// idColumns maps each base table to its identifier column and kind.
var idColumns = map[string]struct {
	column string
	kind   model.Kind
}{
	"erp.customers":            {"customer_id", model.KindCustomer},
	"erp.products":             {"product_id", model.KindProduct},
	"erp.stores":               {"store_id", model.KindStore},
	"erp.orders":               {"order_id", model.KindOrder},
	"hr.employees":             {"employee_id", model.KindEmployee},
	"hr.payroll_runs":          {"payroll_id", model.KindPayroll},
	"webshop.sessions":         {"session_id", model.KindSession},
	"pos.pos_transactions":     {"pos_id", model.KindPOS},
	"finance.journal_headers":  {"journal_id", model.KindJournal},
}

// fkColumns lists every foreign-key column and its referenced kind.
// Nullable marks columns where an empty cell is legal.
var fkColumns = []struct {
	table    string
	column   string
	kind     model.Kind
	nullable bool
}{
	{"erp.orders", "customer_id", model.KindCustomer, false},
	{"erp.orders", "store_id", model.KindStore, false},
	{"erp.order_lines", "order_id", model.KindOrder, false},
	{"erp.order_lines", "product_id", model.KindProduct, false},
	{"hr.employees", "store_id", model.KindStore, false},
	{"hr.payroll_runs", "employee_id", model.KindEmployee, false},
	{"webshop.sessions", "customer_id", model.KindCustomer, false},
	{"webshop.sessions", "order_id", model.KindOrder, true},
	{"pos.pos_transactions", "store_id", model.KindStore, false},
	{"pos.pos_transactions", "employee_id", model.KindEmployee, false},
	{"finance.journal_lines", "journal_id", model.KindJournal, false},
}

// updateTables maps update batches to their base kind.
var updateTables = map[string]model.Kind{
	"erp.customers_updates": model.KindCustomer,
	"erp.products_updates":  model.KindProduct,
	"hr.employees_updates":  model.KindEmployee,
}

// Validate recomputes every consistency check over the given batches.
func Validate(batches []*emit.Batch, accounts config.Accounts, opts Options) *Report {
	v := &validator{
		byName:   make(map[string]*emit.Batch, len(batches)),
		accounts: accounts,
		opts:     opts,
		ids:      make(map[model.Kind]map[model.ID]bool),
	}
	for _, b := range batches {
		v.byName[b.Name()] = b
	}

	r := &Report{}
	v.checkUniqueness(r)
	v.checkReferences(r)
	v.checkUpdateOrphans(r)
	v.checkBalancedJournals(r)
	v.checkReconciliation(r)
	v.checkSequenceContinuity(r)
	return r
}

type validator struct {
	byName   map[string]*emit.Batch
	accounts config.Accounts
	opts     Options
	ids      map[model.Kind]map[model.ID]bool // emitted this run, per kind
}

func colIdx(b *emit.Batch, name string) int {
	for i, c := range b.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

func (v *validator) known(kind model.Kind, id model.ID) bool {
	if v.ids[kind][id] {
		return true
	}
	return v.opts.KnownIDs[kind][id]
}

// checkUniqueness collects identifiers per kind and flags duplicates,
// both within this run and against prior runs.
func (v *validator) checkUniqueness(r *Report) {
	var offenders []string
	for name, idc := range idColumns {
		b, ok := v.byName[name]
		if !ok {
			continue
		}
		idx := colIdx(b, idc.column)
		if idx < 0 {
			offenders = append(offenders, fmt.Sprintf("%s missing column %s", name, idc.column))
			continue
		}
		if v.ids[idc.kind] == nil {
			v.ids[idc.kind] = make(map[model.ID]bool)
		}
		for _, row := range b.Rows {
			id := model.ID(row[idx])
			if v.ids[idc.kind][id] || v.opts.KnownIDs[idc.kind][id] {
				offenders = append(offenders, string(id))
				continue
			}
			v.ids[idc.kind][id] = true
		}
	}
	sort.Strings(offenders)
	r.Checks = append(r.Checks, Check{
		Name:      "identifier_uniqueness",
		Pass:      len(offenders) == 0,
		Detail:    fmt.Sprintf("%d duplicate or malformed identifiers", len(offenders)),
		Offenders: capped(offenders),
	})
}

// checkReferences verifies every FK value references an existing
// identifier of the referenced kind (this run or a prior one).
func (v *validator) checkReferences(r *Report) {
	var offenders []string
	for _, fk := range fkColumns {
		b, ok := v.byName[fk.table]
		if !ok {
			continue
		}
		idx := colIdx(b, fk.column)
		if idx < 0 {
			offenders = append(offenders, fmt.Sprintf("%s missing column %s", fk.table, fk.column))
			continue
		}
		for _, row := range b.Rows {
			val := model.ID(row[idx])
			if val == "" {
				if !fk.nullable {
					offenders = append(offenders, fmt.Sprintf("%s.%s: empty", fk.table, fk.column))
				}
				continue
			}
			if !v.known(fk.kind, val) {
				offenders = append(offenders, fmt.Sprintf("%s.%s -> %s", fk.table, fk.column, val))
			}
		}
	}
	// Journal headers link back to their source event, whichever kind
	// produced it.
	if b, ok := v.byName["finance.journal_headers"]; ok {
		idx := colIdx(b, "source_id")
		if idx >= 0 {
			for _, row := range b.Rows {
				id := model.ID(row[idx])
				if !v.known(model.KindOrder, id) && !v.known(model.KindPOS, id) && !v.known(model.KindPayroll, id) {
					offenders = append(offenders, fmt.Sprintf("journal_headers.source_id -> %s", id))
				}
			}
		}
	}

	r.Checks = append(r.Checks, Check{
		Name:      "referential_integrity",
		Pass:      len(offenders) == 0,
		Detail:    fmt.Sprintf("%d dangling references", len(offenders)),
		Offenders: capped(offenders),
	})
}

// checkUpdateOrphans verifies update rows reference existing base
// identifiers and never introduce new ones.
func (v *validator) checkUpdateOrphans(r *Report) {
	var offenders []string
	for name, kind := range updateTables {
		b, ok := v.byName[name]
		if !ok {
			continue
		}
		// Update tables share the base table's column contract, so the
		// identifier column is the first one.
		for _, row := range b.Rows {
			id := model.ID(row[0])
			if !v.known(kind, id) {
				offenders = append(offenders, fmt.Sprintf("%s -> %s", name, id))
			}
		}
	}
	r.Checks = append(r.Checks, Check{
		Name:      "update_orphans",
		Pass:      len(offenders) == 0,
		Detail:    fmt.Sprintf("%d update records without a base record", len(offenders)),
		Offenders: capped(offenders),
	})
}

// checkBalancedJournals verifies per-journal debit/credit equality, both
// on the header totals and recomputed from the lines.
func (v *validator) checkBalancedJournals(r *Report) {
	var offenders []string
	maxVariance := decimal.Zero

	lines, okLines := v.byName["finance.journal_lines"]
	headers, okHeaders := v.byName["finance.journal_headers"]
	if okLines && okHeaders {
		jIdx, dIdx, cIdx := colIdx(lines, "journal_id"), colIdx(lines, "debit"), colIdx(lines, "credit")
		debits := map[string]decimal.Decimal{}
		credits := map[string]decimal.Decimal{}
		if jIdx < 0 || dIdx < 0 || cIdx < 0 {
			offenders = append(offenders, "journal_lines missing journal_id/debit/credit")
		} else {
			for _, row := range lines.Rows {
				d, err1 := decimal.NewFromString(row[dIdx])
				c, err2 := decimal.NewFromString(row[cIdx])
				if err1 != nil || err2 != nil {
					offenders = append(offenders, fmt.Sprintf("unparsable amount in journal %s", row[jIdx]))
					continue
				}
				debits[row[jIdx]] = debits[row[jIdx]].Add(d)
				credits[row[jIdx]] = credits[row[jIdx]].Add(c)
			}
		}
		hIdx := colIdx(headers, "journal_id")
		tdIdx, tcIdx := colIdx(headers, "total_debit"), colIdx(headers, "total_credit")
		if hIdx < 0 || tdIdx < 0 || tcIdx < 0 {
			offenders = append(offenders, "journal_headers missing journal_id/total_debit/total_credit")
		} else {
			for _, row := range headers.Rows {
				id := row[hIdx]
				td, err1 := decimal.NewFromString(row[tdIdx])
				tc, err2 := decimal.NewFromString(row[tcIdx])
				if err1 != nil || err2 != nil {
					offenders = append(offenders, fmt.Sprintf("unparsable header totals for %s", id))
					continue
				}
				variance := td.Sub(tc).Abs()
				if !variance.IsZero() {
					offenders = append(offenders, id)
					maxVariance = decimal.Max(maxVariance, variance)
				}
				if !debits[id].Equal(td) || !credits[id].Equal(tc) {
					offenders = append(offenders, fmt.Sprintf("%s: header totals disagree with lines", id))
				}
			}
		}
	}
	r.Checks = append(r.Checks, Check{
		Name:      "balanced_journals",
		Pass:      len(offenders) == 0,
		Detail:    fmt.Sprintf("%d unbalanced journals", len(offenders)),
		Variance:  maxVariance,
		Offenders: capped(offenders),
	})
}

// capped limits offender lists so a systemic failure stays readable.
func capped(offenders []string) []string {
	const max = 25
	if len(offenders) > max {
		return append(offenders[:max:max], fmt.Sprintf("... %d more", len(offenders)-max))
	}
	return offenders
}

// sumColumn totals a decimal column, recording parse failures.
func sumColumn(b *emit.Batch, column string, offenders *[]string) decimal.Decimal {
	total := decimal.Zero
	if b == nil {
		return total
	}
	idx := colIdx(b, column)
	if idx < 0 {
		*offenders = append(*offenders, fmt.Sprintf("%s missing column %s", b.Name(), column))
		return total
	}
	for _, row := range b.Rows {
		d, err := decimal.NewFromString(row[idx])
		if err != nil {
			*offenders = append(*offenders, fmt.Sprintf("%s.%s: %q", b.Name(), column, row[idx]))
			continue
		}
		total = total.Add(d)
	}
	return total
}

// sumAccountSide totals one side of the journal lines for one account.
func (v *validator) sumAccountSide(account, side string, offenders *[]string) decimal.Decimal {
	total := decimal.Zero
	b := v.byName["finance.journal_lines"]
	if b == nil {
		return total
	}
	aIdx, sIdx := colIdx(b, "account"), colIdx(b, side)
	if aIdx < 0 || sIdx < 0 {
		*offenders = append(*offenders, fmt.Sprintf("journal_lines missing %s/%s", "account", side))
		return total
	}
	for _, row := range b.Rows {
		if row[aIdx] != account {
			continue
		}
		d, err := decimal.NewFromString(row[sIdx])
		if err != nil {
			*offenders = append(*offenders, fmt.Sprintf("journal_lines.%s: %q", side, row[sIdx]))
			continue
		}
		total = total.Add(d)
	}
	return total
}

// checkReconciliation compares GL aggregates against the source events'
// components, per account and in total.
func (v *validator) checkReconciliation(r *Report) {
	orders := v.byName["erp.orders"]
	pos := v.byName["pos.pos_transactions"]
	payroll := v.byName["hr.payroll_runs"]

	compare := func(name string, want, got decimal.Decimal, offenders []string) {
		variance := want.Sub(got).Abs()
		pass := len(offenders) == 0 && variance.LessThanOrEqual(v.opts.Tolerance)
		r.Checks = append(r.Checks, Check{
			Name:      name,
			Pass:      pass,
			Detail:    fmt.Sprintf("events %s vs GL %s", want.StringFixed(2), got.StringFixed(2)),
			Variance:  variance,
			Offenders: capped(offenders),
		})
	}

	var offenders []string
	netRevenue := sumColumn(orders, "subtotal", &offenders).
		Sub(sumColumn(orders, "discount", &offenders)).
		Add(sumColumn(pos, "subtotal", &offenders)).
		Sub(sumColumn(pos, "discount", &offenders))
	compare("revenue_reconciliation", netRevenue,
		v.sumAccountSide(v.accounts.Revenue, "credit", &offenders), offenders)

	offenders = nil
	vat := sumColumn(orders, "tax", &offenders).Add(sumColumn(pos, "tax", &offenders))
	compare("vat_reconciliation", vat,
		v.sumAccountSide(v.accounts.VATPayable, "credit", &offenders), offenders)

	offenders = nil
	shipping := sumColumn(orders, "shipping", &offenders)
	compare("shipping_reconciliation", shipping,
		v.sumAccountSide(v.accounts.ShippingRevenue, "credit", &offenders), offenders)

	offenders = nil
	gross := sumColumn(payroll, "gross", &offenders)
	compare("payroll_reconciliation", gross,
		v.sumAccountSide(v.accounts.PayrollExpense, "debit", &offenders), offenders)

	offenders = nil
	withholding := sumColumn(payroll, "withholding", &offenders)
	compare("withholding_reconciliation", withholding,
		v.sumAccountSide(v.accounts.PayrollTax, "credit", &offenders), offenders)

	// Grand total: every event total appears as exactly one debit.
	offenders = nil
	eventTotals := sumColumn(orders, "total", &offenders).
		Add(sumColumn(pos, "total", &offenders)).
		Add(sumColumn(payroll, "gross", &offenders))
	var glDebits decimal.Decimal
	if lines := v.byName["finance.journal_lines"]; lines != nil {
		glDebits = sumColumn(lines, "debit", &offenders)
	}
	compare("total_reconciliation", eventTotals, glDebits, offenders)
}

// checkSequenceContinuity verifies each kind's new ordinals continue the
// prior watermark without gaps or restarts.
func (v *validator) checkSequenceContinuity(r *Report) {
	// Rejected events consumed an ordinal without producing a row;
	// their holes are accounted for by identifier prefix.
	rejected := make(map[string]map[int64]bool)
	for _, id := range v.opts.RejectedIDs {
		prefix, ord, err := splitID(id)
		if err != nil {
			continue
		}
		if rejected[prefix] == nil {
			rejected[prefix] = make(map[int64]bool)
		}
		rejected[prefix][ord] = true
	}

	var offenders []string
	for name, idc := range idColumns {
		b, ok := v.byName[name]
		if !ok {
			continue
		}
		idx := colIdx(b, idc.column)
		if idx < 0 {
			continue
		}
		prior := v.opts.PriorOrdinals[idc.kind]
		seen := make(map[int64]bool, len(b.Rows))
		if len(b.Rows) > 0 {
			if prefix, _, err := splitID(b.Rows[0][idx]); err == nil {
				for ord := range rejected[prefix] {
					seen[ord] = true
				}
			}
		}
		for _, row := range b.Rows {
			ord, err := ordinalOf(row[idx])
			if err != nil {
				offenders = append(offenders, fmt.Sprintf("%s: %v", row[idx], err))
				continue
			}
			if ord <= prior {
				offenders = append(offenders, fmt.Sprintf("%s: ordinal %d not above watermark %d", row[idx], ord, prior))
				continue
			}
			seen[ord] = true
		}
		for i := prior + 1; i <= prior+int64(len(seen)); i++ {
			if !seen[i] {
				offenders = append(offenders, fmt.Sprintf("%s: gap at ordinal %d", idc.kind, i))
			}
		}
	}
	sort.Strings(offenders)
	r.Checks = append(r.Checks, Check{
		Name:      "sequence_continuity",
		Pass:      len(offenders) == 0,
		Detail:    fmt.Sprintf("%d sequence irregularities", len(offenders)),
		Offenders: capped(offenders),
	})
}

// ordinalOf parses the numeric suffix of a formatted identifier.
func ordinalOf(id string) (int64, error) {
	_, n, err := splitID(id)
	return n, err
}

// splitID splits a formatted identifier into its prefix and ordinal.
func splitID(id string) (string, int64, error) {
	cut := strings.LastIndex(id, "-")
	if cut < 0 {
		return "", 0, fmt.Errorf("no ordinal suffix")
	}
	n, err := strconv.ParseInt(id[cut+1:], 10, 64)
	if err != nil {
		return "", 0, fmt.Errorf("malformed ordinal")
	}
	return id[:cut], n, nil
}
