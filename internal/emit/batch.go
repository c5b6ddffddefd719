// Package emit buffers generated rows into per-(database, table)
// batches and writes them as CSV for the downstream bulk loader.
//
// Column order per table is fixed here and matches the external SQL
// schema contract; the emitter never invents columns and fills every
// non-nullable one. Incremental runs append to existing files without
// touching previously written rows.
package emit

import "fmt"

// Batch is one tabular row batch for a (logical database, table) pair.
type Batch struct {
	Database string
	Table    string
	Columns  []string
	Rows     [][]string
}

// NewBatch creates an empty batch with the table's fixed column order.
func NewBatch(database, table string, columns []string) *Batch {
	return &Batch{Database: database, Table: table, Columns: columns}
}

// Append adds one row. Arity must match the column contract; a mismatch
// is a defect in the calling generator, not recoverable.
func (b *Batch) Append(cells ...string) error {
	if len(cells) != len(b.Columns) {
		return fmt.Errorf("emit: %s.%s row has %d cells, want %d",
			b.Database, b.Table, len(cells), len(b.Columns))
	}
	b.Rows = append(b.Rows, cells)
	return nil
}

// Name returns the batch's qualified table name.
func (b *Batch) Name() string {
	return b.Database + "." + b.Table
}

// Logical database names in the demo environment.
const (
	DBOperations = "erp"
	DBFinance    = "finance"
	DBHR         = "hr"
	DBWebshop    = "webshop"
	DBPOS        = "pos"
)

// Column contracts per table. Order is part of the loader contract.
var (
	CustomerColumns = []string{
		"customer_id", "name", "email", "country", "city", "street",
		"postal_code", "segment", "signup_date",
	}
	ProductColumns = []string{
		"product_id", "name", "category", "price", "cost", "status",
	}
	StoreColumns = []string{
		"store_id", "name", "country", "city", "channel",
	}
	OrderColumns = []string{
		"order_id", "customer_id", "store_id", "country", "order_ts",
		"subtotal", "tax", "shipping", "discount", "total", "vat_rate",
		"payment_method", "currency", "display_total",
	}
	OrderLineColumns = []string{
		"order_id", "line_no", "product_id", "quantity", "unit_price", "line_total",
	}
	EmployeeColumns = []string{
		"employee_id", "name", "country", "store_id", "role", "salary",
		"hire_date", "status",
	}
	PayrollColumns = []string{
		"payroll_id", "employee_id", "country", "period", "pay_date",
		"gross", "withholding", "net",
	}
	SessionColumns = []string{
		"session_id", "session_token", "customer_id", "country", "device",
		"referrer", "started_ts", "duration_sec", "pageviews", "order_id",
	}
	POSColumns = []string{
		"pos_id", "store_id", "employee_id", "country", "sale_ts",
		"subtotal", "tax", "discount", "total", "vat_rate",
		"payment_method", "currency", "display_total",
	}
	JournalHeaderColumns = []string{
		"journal_id", "source_kind", "source_id", "entry_date",
		"total_debit", "total_credit",
	}
	JournalLineColumns = []string{
		"journal_id", "line_no", "account", "debit", "credit", "memo",
	}
)

// Tables maps every emitted table to its database and columns, in
// emission order. The validator walks this to find identifier and
// foreign-key columns.
type TableDef struct {
	Database string
	Table    string
	Columns  []string
}

// AllTables lists every emitted (database, table) pair.
var AllTables = []TableDef{
	{DBOperations, "customers", CustomerColumns},
	{DBOperations, "customers_updates", CustomerColumns},
	{DBOperations, "products", ProductColumns},
	{DBOperations, "products_updates", ProductColumns},
	{DBOperations, "stores", StoreColumns},
	{DBOperations, "orders", OrderColumns},
	{DBOperations, "order_lines", OrderLineColumns},
	{DBHR, "employees", EmployeeColumns},
	{DBHR, "employees_updates", EmployeeColumns},
	{DBHR, "payroll_runs", PayrollColumns},
	{DBWebshop, "sessions", SessionColumns},
	{DBPOS, "pos_transactions", POSColumns},
	{DBFinance, "journal_headers", JournalHeaderColumns},
	{DBFinance, "journal_lines", JournalLineColumns},
}
