package pipeline

import (
	"context"
	"errors"
	"time"

	"github.com/eurostyle/datagen/internal/emit"
	"github.com/eurostyle/datagen/internal/ledger"
	"github.com/eurostyle/datagen/internal/model"
	"github.com/eurostyle/datagen/internal/state"
)

// batchSet holds one batch per emitted table, in the loader contract's
// table order.
type batchSet struct {
	byName map[string]*emit.Batch
	order  []string
}

func newBatchSet() *batchSet {
	s := &batchSet{byName: make(map[string]*emit.Batch, len(emit.AllTables))}
	for _, def := range emit.AllTables {
		b := emit.NewBatch(def.Database, def.Table, def.Columns)
		s.byName[b.Name()] = b
		s.order = append(s.order, b.Name())
	}
	return s
}

func (s *batchSet) get(name string) *emit.Batch {
	return s.byName[name]
}

func (s *batchSet) ordered() []*emit.Batch {
	out := make([]*emit.Batch, 0, len(s.order))
	for _, name := range s.order {
		out = append(out, s.byName[name])
	}
	return out
}

// generateAll produces base entities (fresh runs), update batches
// (incremental runs), daily revenue activity, and payroll.
func (c *Controller) generateAll(ctx context.Context) error {
	c.phase = PhaseGenerating
	cfg := c.opts.Config

	if c.prior == nil {
		if err := c.generateBase(); err != nil {
			return err
		}
	} else if c.opts.Updates {
		if err := c.generateUpdates(); err != nil {
			return err
		}
	}

	for d := 0; d < c.opts.Days; d++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		day := businessDay(c.opts.Year, c.startDay+d)
		if err := c.generateDay(day, cfg.Scaled(cfg.Counts.OrdersPerDay),
			cfg.Scaled(cfg.Counts.POSPerDay), cfg.Scaled(cfg.Counts.SessionsPerDay)); err != nil {
			return err
		}
	}

	// One payroll run per invocation, dated on the last business day.
	payday := businessDay(c.opts.Year, c.startDay+c.opts.Days-1)
	return c.generatePayroll(payday)
}

// businessDay maps a zero-based business-day index onto the calendar,
// Monday through Friday starting from the year's first Monday.
func businessDay(year, index int) time.Time {
	// Walk to the first Monday of January.
	d := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	for d.Weekday() != time.Monday {
		d = d.AddDate(0, 0, 1)
	}
	weeks, offset := index/5, index%5
	return d.AddDate(0, 0, weeks*7+offset)
}

// generateBase produces the master data for a fresh run and registers
// every record for future incremental pools.
func (c *Controller) generateBase() error {
	cfg := c.opts.Config
	now := businessDay(c.opts.Year, 0)

	customers, err := c.gctx.Customers(cfg.Scaled(cfg.Counts.Customers), now)
	if err != nil {
		return err
	}
	for _, cust := range customers {
		if err := c.batches.get("erp.customers").Append(emit.CustomerRow(cust)...); err != nil {
			return err
		}
		c.newRefs = append(c.newRefs, state.EntityRef{Kind: model.KindCustomer, ID: cust.ID, Country: cust.Country})
	}
	c.gctx.Pools.Customers = customers

	products, err := c.gctx.Products(cfg.Scaled(cfg.Counts.Products))
	if err != nil {
		return err
	}
	for _, p := range products {
		if err := c.batches.get("erp.products").Append(emit.ProductRow(p)...); err != nil {
			return err
		}
		c.newRefs = append(c.newRefs, state.EntityRef{Kind: model.KindProduct, ID: p.ID, Amount: p.Price})
	}
	c.gctx.Pools.Products = products

	stores, err := c.gctx.Stores(cfg.Scaled(cfg.Counts.Stores))
	if err != nil {
		return err
	}
	for _, s := range stores {
		if err := c.batches.get("erp.stores").Append(emit.StoreRow(s)...); err != nil {
			return err
		}
		c.newRefs = append(c.newRefs, state.EntityRef{Kind: model.KindStore, ID: s.ID, Country: s.Country})
	}
	c.gctx.Pools.Stores = stores

	employees, err := c.gctx.Employees(cfg.Scaled(cfg.Counts.Employees), now)
	if err != nil {
		return err
	}
	for _, e := range employees {
		if err := c.batches.get("hr.employees").Append(emit.EmployeeRow(e)...); err != nil {
			return err
		}
		c.newRefs = append(c.newRefs, state.EntityRef{
			Kind: model.KindEmployee, ID: e.ID, Country: e.Country, RefID: e.StoreID, Amount: e.Salary,
		})
	}
	c.gctx.Pools.Employees = employees

	c.log.Info("base entities generated",
		"customers", len(customers), "products", len(products),
		"stores", len(stores), "employees", len(employees))
	return nil
}

// generateUpdates mutates a configured fraction of existing base
// records. Updated records replace their pool entries so later events
// in this run see the new attribute values, and the registry entry is
// refreshed in the same watermark commit.
func (c *Controller) generateUpdates() error {
	frac := c.opts.Config.UpdateFraction

	customers, err := c.gctx.CustomerUpdates(frac)
	if err != nil {
		return err
	}
	for _, cust := range customers {
		if err := c.batches.get("erp.customers_updates").Append(emit.CustomerRow(cust)...); err != nil {
			return err
		}
		replaceCustomer(c.gctx.Pools.Customers, cust)
		c.newRefs = append(c.newRefs, state.EntityRef{Kind: model.KindCustomer, ID: cust.ID, Country: cust.Country})
	}

	products, err := c.gctx.ProductUpdates(frac)
	if err != nil {
		return err
	}
	for _, p := range products {
		if err := c.batches.get("erp.products_updates").Append(emit.ProductRow(p)...); err != nil {
			return err
		}
		replaceProduct(c.gctx.Pools.Products, p)
		c.newRefs = append(c.newRefs, state.EntityRef{Kind: model.KindProduct, ID: p.ID, Amount: p.Price})
	}

	employees, err := c.gctx.EmployeeUpdates(frac)
	if err != nil {
		return err
	}
	for _, e := range employees {
		if err := c.batches.get("hr.employees_updates").Append(emit.EmployeeRow(e)...); err != nil {
			return err
		}
		replaceEmployee(c.gctx.Pools.Employees, e)
		c.newRefs = append(c.newRefs, state.EntityRef{
			Kind: model.KindEmployee, ID: e.ID, Country: e.Country, RefID: e.StoreID, Amount: e.Salary,
		})
	}

	c.log.Info("update batches generated",
		"customers", len(customers), "products", len(products), "employees", len(employees))
	return nil
}

func replaceCustomer(pool []model.Customer, updated model.Customer) {
	for i := range pool {
		if pool[i].ID == updated.ID {
			pool[i] = updated
			return
		}
	}
}

func replaceProduct(pool []model.Product, updated model.Product) {
	for i := range pool {
		if pool[i].ID == updated.ID {
			pool[i] = updated
			return
		}
	}
}

func replaceEmployee(pool []model.Employee, updated model.Employee) {
	for i := range pool {
		if pool[i].ID == updated.ID {
			pool[i] = updated
			return
		}
	}
}

// generateDay produces one business day of orders, POS sales, and
// sessions, posting each revenue event immediately after generation.
func (c *Controller) generateDay(day time.Time, orders, posCount, sessions int) error {
	generated, err := c.gctx.Orders(orders, day)
	if err != nil {
		return err
	}

	var accepted []model.Order
	for _, o := range generated {
		ok, err := c.post(o.Event())
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		display := emit.DisplayAmount(o.Total, o.Currency, c.localeFor(o.Country))
		if err := c.batches.get("erp.orders").Append(emit.OrderRow(o, display)...); err != nil {
			return err
		}
		for _, line := range o.Lines {
			if err := c.batches.get("erp.order_lines").Append(emit.OrderLineRow(line)...); err != nil {
				return err
			}
		}
		accepted = append(accepted, o)
	}

	posTx, err := c.gctx.POS(posCount, day)
	if err != nil {
		return err
	}
	for _, p := range posTx {
		ok, err := c.post(p.Event())
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		display := emit.DisplayAmount(p.Total, p.Currency, c.localeFor(p.Country))
		if err := c.batches.get("pos.pos_transactions").Append(emit.POSRow(p, display)...); err != nil {
			return err
		}
	}

	sessionRecords, err := c.gctx.Sessions(sessions, day, accepted)
	if err != nil {
		return err
	}
	for _, s := range sessionRecords {
		if err := c.batches.get("webshop.sessions").Append(emit.SessionRow(s)...); err != nil {
			return err
		}
	}
	return nil
}

// generatePayroll produces and posts one pay record per employee.
func (c *Controller) generatePayroll(day time.Time) error {
	runs, err := c.gctx.Payroll(day)
	if err != nil {
		return err
	}
	for _, pr := range runs {
		ok, err := c.post(pr.Event())
		if err != nil {
			return err
		}
		if !ok {
			continue
		}
		if err := c.batches.get("hr.payroll_runs").Append(emit.PayrollRow(pr)...); err != nil {
			return err
		}
	}
	return nil
}

// post runs one event through the reconciliation engine. Event-level
// rejections skip the event (and its row) and degrade the run;
// invariant violations abort it.
func (c *Controller) post(ev model.RevenueEvent) (bool, error) {
	c.phase = PhaseReconciling
	defer func() { c.phase = PhaseGenerating }()

	if c.opts.EventTap != nil {
		c.opts.EventTap(&ev)
	}

	entry, err := c.engine.Post(ev)
	if err != nil {
		var verr *ledger.ValidationError
		if errors.As(err, &verr) {
			c.rejected++
			c.rejectedIDs = append(c.rejectedIDs, string(verr.EventID))
			c.log.Warn("event rejected", "event", verr.EventID, "reason", verr.Reason)
			return false, nil
		}
		return false, err
	}

	if err := c.batches.get("finance.journal_headers").Append(emit.JournalHeaderRow(*entry)...); err != nil {
		return false, err
	}
	for _, line := range entry.Lines {
		if err := c.batches.get("finance.journal_lines").Append(emit.JournalLineRow(line)...); err != nil {
			return false, err
		}
	}

	// Payroll posts an expense; only sales count toward revenue.
	if ev.Kind != model.EventPayroll {
		c.revenue = c.revenue.Add(ev.Total)
	}
	return true, nil
}

// localeFor returns the configured locale of a country.
func (c *Controller) localeFor(country string) string {
	if ct, ok := c.opts.Config.CountryByCode(country); ok {
		return ct.Locale
	}
	return "en"
}
