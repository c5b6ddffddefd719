package generate

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eurostyle/datagen/internal/config"
	"github.com/eurostyle/datagen/internal/model"
)

// vatOn computes the VAT charged on a taxable base. Round-half-up to
// cents; any remainder of the percentage calculation lands in the tax
// figure itself, so total = subtotal + tax + shipping - discount always
// holds exactly.
func vatOn(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Round(2)
}

// Orders generates n webshop orders dated within the given business day.
// Requires customer, product, and store pools. The order's country is
// the customer's country; VAT rate, store assignment, and payment-method
// availability all follow from it.
func (c *Context) Orders(n int, day time.Time) ([]model.Order, error) {
	if err := need("Orders", model.KindCustomer, len(c.Pools.Customers)); err != nil {
		return nil, err
	}
	if err := need("Orders", model.KindProduct, len(c.Pools.Products)); err != nil {
		return nil, err
	}
	if err := need("Orders", model.KindStore, len(c.Pools.Stores)); err != nil {
		return nil, err
	}

	out := make([]model.Order, 0, n)
	for i := 0; i < n; i++ {
		id, err := c.Alloc.Next(model.KindOrder)
		if err != nil {
			return nil, err
		}
		customer := c.Pools.Customers[c.Rand.Index(len(c.Pools.Customers))]
		country, ok := c.Cfg.CountryByCode(customer.Country)
		if !ok {
			return nil, fmt.Errorf("generate: customer %s has unconfigured country %q", customer.ID, customer.Country)
		}
		stores := c.storesIn(country.Code)
		store := stores[c.Rand.Index(len(stores))]

		lines, subtotal := c.orderLines(id)

		var discount decimal.Decimal
		if c.Rand.Bool(c.Cfg.Order.DiscountShare) {
			discount = subtotal.Mul(decimal.NewFromFloat(c.Cfg.Order.DiscountRate)).Round(2)
		}
		base := subtotal.Sub(discount)

		shipping := decimal.NewFromFloat(c.Cfg.Order.ShippingFlat).Round(2)
		if base.GreaterThanOrEqual(decimal.NewFromFloat(c.Cfg.Order.FreeShippingOver)) {
			shipping = decimal.Zero
		}

		vatRate := decimal.NewFromFloat(country.VATRate)
		tax := vatOn(base, vatRate)
		total := subtotal.Add(tax).Add(shipping).Sub(discount)

		payment, err := c.pickPayment(c.Cfg.PaymentMethods, country.Code)
		if err != nil {
			return nil, err
		}

		out = append(out, model.Order{
			ID:            id,
			CustomerID:    customer.ID,
			StoreID:       store.ID,
			Country:       country.Code,
			Date:          c.Rand.TimeInDay(day),
			Subtotal:      subtotal,
			Tax:           tax,
			Shipping:      shipping,
			Discount:      discount,
			Total:         total,
			VATRate:       vatRate,
			PaymentMethod: payment,
			Currency:      country.Currency,
			Lines:         lines,
		})
	}
	return out, nil
}

// orderLines draws 1..max_lines product positions. The order subtotal is
// the exact sum of line totals, so ERP line data reconciles with the
// order header by construction.
func (c *Context) orderLines(orderID model.ID) ([]model.OrderLine, decimal.Decimal) {
	n := c.Rand.IntBetween(1, c.Cfg.Order.MaxLines)
	lines := make([]model.OrderLine, 0, n)
	subtotal := decimal.Zero
	for i := 0; i < n; i++ {
		product := c.Pools.Products[c.Rand.Index(len(c.Pools.Products))]
		qty := c.Rand.IntBetween(1, 3)
		lineTotal := product.Price.Mul(decimal.NewFromInt(int64(qty)))
		lines = append(lines, model.OrderLine{
			OrderID:   orderID,
			LineNo:    i + 1,
			ProductID: product.ID,
			Quantity:  qty,
			UnitPrice: product.Price,
			LineTotal: lineTotal,
		})
		subtotal = subtotal.Add(lineTotal)
	}
	return lines, subtotal
}

// pickPayment draws a payment method, re-drawing when the method is not
// available in the event's country (e.g. iDEAL outside NL/BE).
func (c *Context) pickPayment(spec []config.Weight, country string) (string, error) {
	for attempt := 0; attempt < 16; attempt++ {
		method, err := c.Rand.Pick(spec)
		if err != nil {
			return "", err
		}
		if paymentOK(method, country) {
			return method, nil
		}
	}
	// Weighted draw kept landing on a restricted method; fall back to the
	// first universally available one.
	for _, w := range spec {
		if w.Weight > 0 && paymentOK(w.Label, country) {
			return w.Label, nil
		}
	}
	return "", fmt.Errorf("generate: no payment method available for %s", country)
}

// POS generates n in-store transactions for the business day.
// Requires store and employee pools. Country follows the store.
func (c *Context) POS(n int, day time.Time) ([]model.POSTransaction, error) {
	if err := need("POS", model.KindStore, len(c.Pools.Stores)); err != nil {
		return nil, err
	}
	if err := need("POS", model.KindEmployee, len(c.Pools.Employees)); err != nil {
		return nil, err
	}

	out := make([]model.POSTransaction, 0, n)
	for i := 0; i < n; i++ {
		id, err := c.Alloc.Next(model.KindPOS)
		if err != nil {
			return nil, err
		}
		store := c.Pools.Stores[c.Rand.Index(len(c.Pools.Stores))]
		country, ok := c.Cfg.CountryByCode(store.Country)
		if !ok {
			return nil, fmt.Errorf("generate: store %s has unconfigured country %q", store.ID, store.Country)
		}
		staff := c.employeesAt(store.ID)
		cashier := staff[c.Rand.Index(len(staff))]

		subtotal := c.Rand.Amount(5, 250)
		var discount decimal.Decimal
		if c.Rand.Bool(0.05) {
			discount = subtotal.Mul(decimal.NewFromFloat(c.Cfg.Order.DiscountRate)).Round(2)
		}
		base := subtotal.Sub(discount)
		vatRate := decimal.NewFromFloat(country.VATRate)
		tax := vatOn(base, vatRate)
		total := subtotal.Add(tax).Sub(discount)

		payment, err := c.pickPayment(c.Cfg.POSPaymentMethods, country.Code)
		if err != nil {
			return nil, err
		}

		out = append(out, model.POSTransaction{
			ID:            id,
			StoreID:       store.ID,
			EmployeeID:    cashier.ID,
			Country:       country.Code,
			Date:          c.Rand.TimeInDay(day),
			Subtotal:      subtotal,
			Tax:           tax,
			Discount:      discount,
			Total:         total,
			VATRate:       vatRate,
			PaymentMethod: payment,
			Currency:      country.Currency,
		})
	}
	return out, nil
}

// Sessions generates n webshop sessions for the business day. Requires
// the customer pool. Converted sessions borrow the customer and country
// of one of the day's orders so analytics and ERP agree on who bought.
func (c *Context) Sessions(n int, day time.Time, todaysOrders []model.Order) ([]model.Session, error) {
	if err := need("Sessions", model.KindCustomer, len(c.Pools.Customers)); err != nil {
		return nil, err
	}

	out := make([]model.Session, 0, n)
	for i := 0; i < n; i++ {
		id, err := c.Alloc.Next(model.KindSession)
		if err != nil {
			return nil, err
		}
		device, err := c.Rand.Pick(c.Cfg.Devices)
		if err != nil {
			return nil, err
		}
		referrer, err := c.Rand.Pick(c.Cfg.Referrers)
		if err != nil {
			return nil, err
		}

		s := model.Session{
			ID:        id,
			Token:     c.Rand.UUID(),
			Device:    device,
			Referrer:  referrer,
			StartedAt: c.Rand.TimeInDay(day),
			Duration:  int(c.Rand.NormalClamped(420, 300, 30, 3600)),
			Pageviews: c.Rand.IntBetween(1, 15),
		}

		if len(todaysOrders) > 0 && c.Rand.Bool(0.2) {
			order := todaysOrders[c.Rand.Index(len(todaysOrders))]
			s.CustomerID = order.CustomerID
			s.Country = order.Country
			s.OrderID = order.ID
		} else {
			customer := c.Pools.Customers[c.Rand.Index(len(c.Pools.Customers))]
			s.CustomerID = customer.ID
			s.Country = customer.Country
		}
		out = append(out, s)
	}
	return out, nil
}

// Payroll generates one pay record per employee for the period containing
// day. Requires the employee pool. Withholding uses the employee
// country's payroll tax rate; net = gross - withholding exactly.
func (c *Context) Payroll(day time.Time) ([]model.PayrollRun, error) {
	if err := need("Payroll", model.KindEmployee, len(c.Pools.Employees)); err != nil {
		return nil, err
	}

	period := day.Format("2006-01")
	twelve := decimal.NewFromInt(12)

	out := make([]model.PayrollRun, 0, len(c.Pools.Employees))
	for _, emp := range c.Pools.Employees {
		id, err := c.Alloc.Next(model.KindPayroll)
		if err != nil {
			return nil, err
		}
		country, ok := c.Cfg.CountryByCode(emp.Country)
		if !ok {
			return nil, fmt.Errorf("generate: employee %s has unconfigured country %q", emp.ID, emp.Country)
		}

		gross := emp.Salary.Div(twelve).Round(2)
		withholding := gross.Mul(decimal.NewFromFloat(country.PayrollTaxRate)).Round(2)

		out = append(out, model.PayrollRun{
			ID:          id,
			EmployeeID:  emp.ID,
			Country:     emp.Country,
			Period:      period,
			Date:        day,
			Gross:       gross,
			Withholding: withholding,
			Net:         gross.Sub(withholding),
		})
	}
	return out, nil
}
