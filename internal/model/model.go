// Package model defines the record types shared by the generation pipeline:
// base entities (master data), revenue events, and GL journal entries.
//
// All monetary fields use shopspring/decimal at 2 fraction digits (minor
// currency unit). Records are immutable once emitted; corrections are
// modeled as new records, never as mutation of an emitted one.
package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Kind identifies an entity kind for identifier allocation, pools,
// and watermark bookkeeping.
type Kind string

const (
	KindCustomer Kind = "customer"
	KindProduct  Kind = "product"
	KindStore    Kind = "store"
	KindEmployee Kind = "employee"
	KindOrder    Kind = "order"
	KindSession  Kind = "session"
	KindPOS      Kind = "pos"
	KindPayroll  Kind = "payroll"
	KindJournal  Kind = "journal"
)

// Kinds lists every entity kind in generation-dependency order.
// Base entities first, then revenue-bearing kinds, then journals.
var Kinds = []Kind{
	KindCustomer, KindProduct, KindStore, KindEmployee,
	KindOrder, KindSession, KindPOS, KindPayroll, KindJournal,
}

// ID is a formatted entity identifier, e.g. "CUST-000042" or
// "ORD-2026-000117". IDs are allocated once and never reused.
type ID string

// Customer is an ERP master-data record. Country is chosen once at
// generation time and drives every country-dependent derived field
// (VAT rate, currency, payment mix) on downstream revenue events.
type Customer struct {
	ID         ID
	Name       string
	Email      string
	Country    string
	City       string
	Street     string
	PostalCode string
	Segment    string
	SignupDate time.Time
}

// Product is an ERP master-data record. Prices are in EUR.
type Product struct {
	ID       ID
	Name     string
	Category string
	Price    decimal.Decimal
	Cost     decimal.Decimal
	Status   string
}

// Store is a physical or online sales location.
type Store struct {
	ID      ID
	Name    string
	Country string
	City    string
	Channel string
}

// Employee is an HR master-data record, assigned to one store.
type Employee struct {
	ID       ID
	Name     string
	Country  string
	StoreID  ID
	Role     string
	Salary   decimal.Decimal // annual gross
	HireDate time.Time
	Status   string
}

// Session is a webshop analytics record. OrderID is empty for
// non-converting sessions.
type Session struct {
	ID         ID
	Token      string // opaque UUID, matches webshop cookie format
	CustomerID ID
	Country    string
	Device     string
	Referrer   string
	StartedAt  time.Time
	Duration   int // seconds
	Pageviews  int
	OrderID    ID
}

// EventKind discriminates the source of a RevenueEvent.
type EventKind string

const (
	EventOrder   EventKind = "order"
	EventPOS     EventKind = "pos"
	EventPayroll EventKind = "payroll"
)

// RevenueEvent is the normalized monetary view of an order, POS sale, or
// payroll run that the reconciliation engine posts to the GL.
//
// Invariant: Total = Subtotal + Tax + Shipping - Discount, exact to the
// cent. For payroll the mapping is Total = gross, Subtotal = net pay,
// Tax = withholding, Shipping = Discount = 0.
type RevenueEvent struct {
	Kind       EventKind
	ID         ID
	Country    string
	CustomerID ID
	StoreID    ID
	EmployeeID ID
	Date       time.Time
	Subtotal   decimal.Decimal
	Tax        decimal.Decimal
	Shipping   decimal.Decimal
	Discount   decimal.Decimal
	Total      decimal.Decimal
	VATRate    decimal.Decimal
}

// Balanced reports whether the component breakdown sums to Total exactly.
func (ev RevenueEvent) Balanced() bool {
	sum := ev.Subtotal.Add(ev.Tax).Add(ev.Shipping).Sub(ev.Discount)
	return sum.Equal(ev.Total)
}

// Order is a webshop order with its monetary breakdown.
type Order struct {
	ID            ID
	CustomerID    ID
	StoreID       ID
	Country       string
	Date          time.Time
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Shipping      decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	VATRate       decimal.Decimal
	PaymentMethod string
	Currency      string
	Lines         []OrderLine
}

// OrderLine is one product position on an order.
// Subtotal of the order equals the sum of its lines' totals.
type OrderLine struct {
	OrderID   ID
	LineNo    int
	ProductID ID
	Quantity  int
	UnitPrice decimal.Decimal
	LineTotal decimal.Decimal
}

// Event returns the normalized revenue view of the order.
func (o Order) Event() RevenueEvent {
	return RevenueEvent{
		Kind:       EventOrder,
		ID:         o.ID,
		Country:    o.Country,
		CustomerID: o.CustomerID,
		StoreID:    o.StoreID,
		Date:       o.Date,
		Subtotal:   o.Subtotal,
		Tax:        o.Tax,
		Shipping:   o.Shipping,
		Discount:   o.Discount,
		Total:      o.Total,
		VATRate:    o.VATRate,
	}
}

// POSTransaction is an in-store sale rung up by one employee.
// POS sales settle immediately (cash/card), so they post to cash
// rather than receivables.
type POSTransaction struct {
	ID            ID
	StoreID       ID
	EmployeeID    ID
	Country       string
	Date          time.Time
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Discount      decimal.Decimal
	Total         decimal.Decimal
	VATRate       decimal.Decimal
	PaymentMethod string
	Currency      string
}

// Event returns the normalized revenue view of the POS sale.
func (p POSTransaction) Event() RevenueEvent {
	return RevenueEvent{
		Kind:       EventPOS,
		ID:         p.ID,
		Country:    p.Country,
		StoreID:    p.StoreID,
		EmployeeID: p.EmployeeID,
		Date:       p.Date,
		Subtotal:   p.Subtotal,
		Tax:        p.Tax,
		Discount:   p.Discount,
		Total:      p.Total,
		VATRate:    p.VATRate,
	}
}

// PayrollRun is one employee's pay for one period. Expense-side event:
// gross salary is the posted total, split into net pay and withholding.
type PayrollRun struct {
	ID          ID
	EmployeeID  ID
	Country     string
	Period      string // "2026-01"
	Date        time.Time
	Gross       decimal.Decimal
	Withholding decimal.Decimal
	Net         decimal.Decimal
}

// Event returns the normalized expense view of the payroll run.
func (pr PayrollRun) Event() RevenueEvent {
	return RevenueEvent{
		Kind:       EventPayroll,
		ID:         pr.ID,
		Country:    pr.Country,
		EmployeeID: pr.EmployeeID,
		Date:       pr.Date,
		Subtotal:   pr.Net,
		Tax:        pr.Withholding,
		Total:      pr.Gross,
	}
}

// JournalLine is one side of a double-entry posting. Exactly one of
// Debit/Credit is non-zero.
type JournalLine struct {
	JournalID ID
	LineNo    int
	Account   string
	Debit     decimal.Decimal
	Credit    decimal.Decimal
	Memo      string
}

// JournalEntry is a balanced GL transaction derived from exactly one
// revenue event. TotalDebit always equals TotalCredit.
type JournalEntry struct {
	ID          ID
	SourceKind  EventKind
	SourceID    ID
	Date        time.Time
	Lines       []JournalLine
	TotalDebit  decimal.Decimal
	TotalCredit decimal.Decimal
}
