// Package ledger derives balanced double-entry GL journal entries from
// revenue events and tracks cumulative per-account postings.
//
// The engine never recomputes VAT: event components are computed once by
// the generators from the event's own country tag, and the engine only
// re-expresses the already-correct amounts as ledger lines. This keeps a
// single tax calculation in the system, so operational and finance
// figures cannot diverge.
package ledger

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eurostyle/datagen/internal/config"
	"github.com/eurostyle/datagen/internal/ident"
	"github.com/eurostyle/datagen/internal/model"
)

// ValidationError rejects one malformed revenue event before posting.
// Siblings continue; the run is marked degraded by the caller.
type ValidationError struct {
	EventID model.ID
	Reason  string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("ledger: event %s rejected: %s", e.EventID, e.Reason)
}

// InvariantError reports a journal whose debit and credit totals
// disagree. This indicates a defect in the engine itself, never bad
// input; the run aborts and no watermark is written.
type InvariantError struct {
	JournalID model.ID
	Debit     decimal.Decimal
	Credit    decimal.Decimal
}

func (e *InvariantError) Error() string {
	return fmt.Sprintf("ledger: journal %s unbalanced: debit %s != credit %s",
		e.JournalID, e.Debit.StringFixed(2), e.Credit.StringFixed(2))
}

// Engine posts revenue events to the GL. Single-writer: the pipeline
// calls Post from one goroutine, immediately after each event is
// generated, so a posting can never precede its source event.
type Engine struct {
	alloc    *ident.Allocator
	accounts config.Accounts
	totals   map[string]decimal.Decimal
	posted   int64
}

// New creates an engine with zeroed running totals.
func New(alloc *ident.Allocator, accounts config.Accounts) *Engine {
	return &Engine{
		alloc:    alloc,
		accounts: accounts,
		totals:   make(map[string]decimal.Decimal),
	}
}

// Resume seeds running totals from a prior run's watermark so cumulative
// aggregates stay correct across incremental runs.
func (e *Engine) Resume(totals map[string]decimal.Decimal) {
	for account, amount := range totals {
		e.totals[account] = amount
	}
}

// Post derives the balanced journal entry for one revenue event.
//
// Order:   debit receivable total;  credit revenue (subtotal - discount),
//          VAT payable tax, shipping revenue shipping.
// POS:     debit cash total; credit side as for orders.
// Payroll: debit payroll expense gross; credit cash net,
//          payroll tax payable withholding.
func (e *Engine) Post(ev model.RevenueEvent) (*model.JournalEntry, error) {
	if err := e.check(ev); err != nil {
		return nil, err
	}

	id, err := e.alloc.Next(model.KindJournal)
	if err != nil {
		return nil, err
	}

	var lines []model.JournalLine
	switch ev.Kind {
	case model.EventOrder:
		lines = e.saleLines(ev, e.accounts.Receivable)
	case model.EventPOS:
		lines = e.saleLines(ev, e.accounts.Cash)
	case model.EventPayroll:
		lines = e.payrollLines(ev)
	default:
		return nil, &ValidationError{EventID: ev.ID, Reason: fmt.Sprintf("unknown event kind %q", ev.Kind)}
	}

	entry := &model.JournalEntry{
		ID:         id,
		SourceKind: ev.Kind,
		SourceID:   ev.ID,
		Date:       ev.Date,
	}
	for i := range lines {
		lines[i].JournalID = id
		lines[i].LineNo = i + 1
		entry.TotalDebit = entry.TotalDebit.Add(lines[i].Debit)
		entry.TotalCredit = entry.TotalCredit.Add(lines[i].Credit)
	}
	entry.Lines = lines

	if !entry.TotalDebit.Equal(entry.TotalCredit) {
		return nil, &InvariantError{JournalID: id, Debit: entry.TotalDebit, Credit: entry.TotalCredit}
	}

	// Accumulate each account's signed balance, debit minus credit, so
	// accounts posted on both sides (cash takes POS debits and payroll
	// net-pay credits) net to one unambiguous figure.
	for _, line := range entry.Lines {
		e.totals[line.Account] = e.totals[line.Account].Add(line.Debit).Sub(line.Credit)
	}
	e.posted++

	return entry, nil
}

// check rejects events that must not reach the ledger.
func (e *Engine) check(ev model.RevenueEvent) error {
	switch {
	case ev.Total.IsNegative():
		return &ValidationError{EventID: ev.ID, Reason: "negative total"}
	case ev.Subtotal.IsNegative(), ev.Tax.IsNegative(), ev.Shipping.IsNegative(), ev.Discount.IsNegative():
		return &ValidationError{EventID: ev.ID, Reason: "negative component"}
	case !ev.Balanced():
		return &ValidationError{EventID: ev.ID, Reason: fmt.Sprintf(
			"components do not sum to total: %s + %s + %s - %s != %s",
			ev.Subtotal.StringFixed(2), ev.Tax.StringFixed(2), ev.Shipping.StringFixed(2),
			ev.Discount.StringFixed(2), ev.Total.StringFixed(2))}
	}
	return nil
}

// saleLines builds the posting for an order or POS sale. The debit
// account differs (receivable vs cash); discounts net against revenue.
func (e *Engine) saleLines(ev model.RevenueEvent, debitAccount string) []model.JournalLine {
	memo := string(ev.ID)
	lines := []model.JournalLine{
		{Account: debitAccount, Debit: ev.Total, Memo: memo},
		{Account: e.accounts.Revenue, Credit: ev.Subtotal.Sub(ev.Discount), Memo: memo},
	}
	if ev.Tax.IsPositive() {
		lines = append(lines, model.JournalLine{Account: e.accounts.VATPayable, Credit: ev.Tax, Memo: memo})
	}
	if ev.Shipping.IsPositive() {
		lines = append(lines, model.JournalLine{Account: e.accounts.ShippingRevenue, Credit: ev.Shipping, Memo: memo})
	}
	return lines
}

// payrollLines builds the expense-side posting for one payroll record.
func (e *Engine) payrollLines(ev model.RevenueEvent) []model.JournalLine {
	memo := string(ev.ID)
	lines := []model.JournalLine{
		{Account: e.accounts.PayrollExpense, Debit: ev.Total, Memo: memo},
		{Account: e.accounts.Cash, Credit: ev.Subtotal, Memo: memo},
	}
	if ev.Tax.IsPositive() {
		lines = append(lines, model.JournalLine{Account: e.accounts.PayrollTax, Credit: ev.Tax, Memo: memo})
	}
	return lines
}

// RunningTotals returns a copy of each account's cumulative signed
// balance: debits positive, credits negative.
func (e *Engine) RunningTotals() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal, len(e.totals))
	for account, amount := range e.totals {
		out[account] = amount
	}
	return out
}

// Posted returns the number of journal entries posted by this engine
// instance (excludes resumed history).
func (e *Engine) Posted() int64 {
	return e.posted
}
