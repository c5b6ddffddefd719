package generate

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eurostyle/datagen/internal/config"
	"github.com/eurostyle/datagen/internal/ident"
	"github.com/eurostyle/datagen/internal/model"
	"github.com/eurostyle/datagen/internal/sample"
)

func testContext(t *testing.T, seed int64) *Context {
	t.Helper()
	cfg, err := config.Demo()
	require.NoError(t, err)
	return &Context{
		Cfg:   cfg,
		Alloc: ident.New(ident.DefaultFormats, 2026),
		Rand:  sample.New(seed),
	}
}

// seedPools fills the context with a small but complete entity base.
func seedPools(t *testing.T, c *Context) {
	t.Helper()
	now := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	customers, err := c.Customers(40, now)
	require.NoError(t, err)
	c.Pools.Customers = customers

	products, err := c.Products(20)
	require.NoError(t, err)
	c.Pools.Products = products

	stores, err := c.Stores(8)
	require.NoError(t, err)
	c.Pools.Stores = stores

	employees, err := c.Employees(15, now)
	require.NoError(t, err)
	c.Pools.Employees = employees
}

// A country without its own store borrows from the full pool; the
// fallback leaves a debug trace so cross-border rows are explainable.
func TestOrdersLogCrossBorderStoreFallback(t *testing.T) {
	c := testContext(t, 7)
	var logs bytes.Buffer
	c.Log = slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))

	c.Pools.Customers = []model.Customer{{ID: "CUST-000001", Country: "DE"}}
	c.Pools.Stores = []model.Store{{ID: "STOR-001", Country: "NL"}}
	c.Pools.Products = []model.Product{{ID: "PROD-000001", Price: decimal.RequireFromString("19.99"), Status: "active"}}

	orders, err := c.Orders(3, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	for _, o := range orders {
		assert.Equal(t, model.ID("STOR-001"), o.StoreID)
	}
	assert.Contains(t, logs.String(), "assigning cross-border")
	assert.Contains(t, logs.String(), "country=DE")
}

func TestCustomersCarryConfiguredCountries(t *testing.T) {
	c := testContext(t, 7)
	customers, err := c.Customers(50, time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, customers, 50)

	for _, cust := range customers {
		_, ok := c.Cfg.CountryByCode(cust.Country)
		assert.True(t, ok, "customer %s country %q must be configured", cust.ID, cust.Country)
		assert.True(t, strings.HasPrefix(string(cust.ID), "CUST-"))
		assert.Contains(t, cust.Email, "@")
		assert.NotEmpty(t, cust.Name)
	}
	assert.Equal(t, model.ID("CUST-000001"), customers[0].ID)
	assert.Equal(t, model.ID("CUST-000050"), customers[49].ID)
}

func TestProductsPriceWithinCategoryRange(t *testing.T) {
	c := testContext(t, 7)
	products, err := c.Products(60)
	require.NoError(t, err)

	ranges := make(map[string]config.Category)
	for _, cat := range c.Cfg.Categories {
		ranges[cat.Name] = cat
	}
	for _, p := range products {
		cat, ok := ranges[p.Category]
		require.True(t, ok, "unknown category %q", p.Category)
		price, _ := p.Price.Float64()
		assert.GreaterOrEqual(t, price, cat.PriceMin)
		assert.LessOrEqual(t, price, cat.PriceMax)
		assert.True(t, p.Cost.LessThan(p.Price), "cost below retail")
	}
}

func TestEmployeesRequireStores(t *testing.T) {
	c := testContext(t, 7)
	_, err := c.Employees(5, time.Now())

	var derr *DependencyError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, model.KindStore, derr.Missing)
}

func TestEmployeesInheritStoreCountry(t *testing.T) {
	c := testContext(t, 7)
	seedPools(t, c)

	byID := make(map[model.ID]model.Store)
	for _, s := range c.Pools.Stores {
		byID[s.ID] = s
	}
	for _, e := range c.Pools.Employees {
		store, ok := byID[e.StoreID]
		require.True(t, ok, "employee %s references unknown store %s", e.ID, e.StoreID)
		assert.Equal(t, store.Country, e.Country)
		assert.True(t, e.Salary.IsPositive())
	}
}

func TestOrdersRequirePools(t *testing.T) {
	c := testContext(t, 7)
	_, err := c.Orders(1, time.Now())

	var derr *DependencyError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, model.KindCustomer, derr.Missing)
}

func TestOrdersBalanceAndReference(t *testing.T) {
	c := testContext(t, 11)
	seedPools(t, c)
	day := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)

	orders, err := c.Orders(100, day)
	require.NoError(t, err)
	require.Len(t, orders, 100)

	customers := make(map[model.ID]model.Customer)
	for _, cust := range c.Pools.Customers {
		customers[cust.ID] = cust
	}
	stores := make(map[model.ID]bool)
	for _, s := range c.Pools.Stores {
		stores[s.ID] = true
	}

	for _, o := range orders {
		ev := o.Event()
		assert.True(t, ev.Balanced(), "order %s: %s != %s+%s+%s-%s",
			o.ID, o.Total, o.Subtotal, o.Tax, o.Shipping, o.Discount)

		cust, ok := customers[o.CustomerID]
		require.True(t, ok, "order %s references unknown customer", o.ID)
		assert.Equal(t, cust.Country, o.Country, "order country follows the customer")
		assert.True(t, stores[o.StoreID])
		assert.Equal(t, "EUR", o.Currency)

		// VAT is charged on subtotal net of discount.
		wantTax := o.Subtotal.Sub(o.Discount).Mul(o.VATRate).Round(2)
		assert.True(t, o.Tax.Equal(wantTax), "order %s tax %s want %s", o.ID, o.Tax, wantTax)

		if o.PaymentMethod == "ideal" {
			assert.Contains(t, []string{"NL", "BE"}, o.Country, "iDEAL is restricted to NL and BE")
		}
		assert.Equal(t, day.Year(), o.Date.Year())
		assert.Equal(t, day.YearDay(), o.Date.YearDay())
	}
}

func TestOrderLinesSumToSubtotal(t *testing.T) {
	c := testContext(t, 13)
	seedPools(t, c)

	orders, err := c.Orders(50, time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	products := make(map[model.ID]bool)
	for _, p := range c.Pools.Products {
		products[p.ID] = true
	}
	for _, o := range orders {
		require.NotEmpty(t, o.Lines)
		require.LessOrEqual(t, len(o.Lines), c.Cfg.Order.MaxLines)
		sum := decimal.Zero
		for i, line := range o.Lines {
			assert.Equal(t, o.ID, line.OrderID)
			assert.Equal(t, i+1, line.LineNo)
			assert.True(t, products[line.ProductID])
			assert.True(t, line.LineTotal.Equal(line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))))
			sum = sum.Add(line.LineTotal)
		}
		assert.True(t, sum.Equal(o.Subtotal), "order %s lines %s want subtotal %s", o.ID, sum, o.Subtotal)
	}
}

func TestPOSFollowsStoreCountry(t *testing.T) {
	c := testContext(t, 17)
	seedPools(t, c)

	txs, err := c.POS(80, time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, txs, 80)

	stores := make(map[model.ID]model.Store)
	for _, s := range c.Pools.Stores {
		stores[s.ID] = s
	}
	for _, tx := range txs {
		store, ok := stores[tx.StoreID]
		require.True(t, ok)
		assert.Equal(t, store.Country, tx.Country)
		assert.True(t, tx.Event().Balanced())
		assert.NotEmpty(t, tx.EmployeeID)
		assert.Contains(t, []string{"card", "cash"}, tx.PaymentMethod)
	}
}

func TestSessionsConversionBorrowsOrderCustomer(t *testing.T) {
	c := testContext(t, 19)
	seedPools(t, c)
	day := time.Date(2026, 1, 6, 0, 0, 0, 0, time.UTC)

	orders, err := c.Orders(10, day)
	require.NoError(t, err)

	sessions, err := c.Sessions(200, day, orders)
	require.NoError(t, err)
	require.Len(t, sessions, 200)

	byOrder := make(map[model.ID]model.Order)
	for _, o := range orders {
		byOrder[o.ID] = o
	}

	converted := 0
	for _, s := range sessions {
		assert.NotEmpty(t, s.Token)
		if s.OrderID == "" {
			continue
		}
		converted++
		o, ok := byOrder[s.OrderID]
		require.True(t, ok, "session %s references unknown order %s", s.ID, s.OrderID)
		assert.Equal(t, o.CustomerID, s.CustomerID)
		assert.Equal(t, o.Country, s.Country)
	}
	assert.Greater(t, converted, 0, "some sessions convert")
	assert.Less(t, converted, 120, "most sessions do not convert")
}

func TestPayrollNetsExactly(t *testing.T) {
	c := testContext(t, 23)
	seedPools(t, c)
	day := time.Date(2026, 1, 30, 0, 0, 0, 0, time.UTC)

	runs, err := c.Payroll(day)
	require.NoError(t, err)
	require.Len(t, runs, len(c.Pools.Employees))

	for _, pr := range runs {
		assert.Equal(t, "2026-01", pr.Period)
		assert.True(t, pr.Net.Equal(pr.Gross.Sub(pr.Withholding)))
		assert.True(t, pr.Event().Balanced())

		country, ok := c.Cfg.CountryByCode(pr.Country)
		require.True(t, ok)
		want := pr.Gross.Mul(decimal.NewFromFloat(country.PayrollTaxRate)).Round(2)
		assert.True(t, pr.Withholding.Equal(want))
	}
}

func TestUpdatesPreserveIdentifiers(t *testing.T) {
	c := testContext(t, 29)
	seedPools(t, c)

	known := make(map[model.ID]bool)
	for _, cust := range c.Pools.Customers {
		known[cust.ID] = true
	}

	updates, err := c.CustomerUpdates(1.0)
	require.NoError(t, err)
	require.Len(t, updates, len(c.Pools.Customers), "fraction 1.0 touches every record")
	for _, u := range updates {
		assert.True(t, known[u.ID], "updates never mint identifiers")
	}

	none, err := c.CustomerUpdates(0)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestProductUpdatesRepriceOrRetire(t *testing.T) {
	c := testContext(t, 31)
	seedPools(t, c)

	updates, err := c.ProductUpdates(1.0)
	require.NoError(t, err)
	require.Len(t, updates, len(c.Pools.Products))

	for _, u := range updates {
		if u.Status == "discontinued" {
			continue
		}
		assert.True(t, u.Price.IsPositive())
	}
}

func TestEmployeeUpdatesRaiseWithinBounds(t *testing.T) {
	c := testContext(t, 37)
	seedPools(t, c)

	before := make(map[model.ID]model.Employee)
	for _, e := range c.Pools.Employees {
		before[e.ID] = e
	}

	updates, err := c.EmployeeUpdates(1.0)
	require.NoError(t, err)

	for _, u := range updates {
		old := before[u.ID]
		if u.Status == "on_leave" {
			continue
		}
		ratio, _ := u.Salary.Div(old.Salary).Float64()
		assert.GreaterOrEqual(t, ratio, 1.019)
		assert.LessOrEqual(t, ratio, 1.081)
	}
}

func TestUpdatesRequirePools(t *testing.T) {
	c := testContext(t, 41)

	_, err := c.CustomerUpdates(0.5)
	var derr *DependencyError
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, model.KindCustomer, derr.Missing)

	_, err = c.ProductUpdates(0.5)
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, model.KindProduct, derr.Missing)

	_, err = c.EmployeeUpdates(0.5)
	require.ErrorAs(t, err, &derr)
	assert.Equal(t, model.KindEmployee, derr.Missing)
}
