package generate

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/eurostyle/datagen/internal/model"
)

// Update generation mutates a sampled subset of existing base records'
// non-identifying fields. Identifiers never change, and no previously
// emitted revenue event is touched; the loader applies updates as
// overwrites keyed on the primary identifier.

// CustomerUpdates samples frac of the customer pool and changes address
// or segment fields.
func (c *Context) CustomerUpdates(frac float64) ([]model.Customer, error) {
	if err := need("CustomerUpdates", model.KindCustomer, len(c.Pools.Customers)); err != nil {
		return nil, err
	}

	var out []model.Customer
	for _, cust := range c.Pools.Customers {
		if !c.Rand.Bool(frac) {
			continue
		}
		updated := cust
		switch c.Rand.Index(3) {
		case 0:
			// Moved within the same country.
			cities := citiesByCountry[cust.Country]
			if len(cities) > 0 {
				updated.City = cities[c.Rand.Index(len(cities))]
			}
			updated.Street = fmt.Sprintf("%s %d", streets[c.Rand.Index(len(streets))], c.Rand.IntBetween(1, 250))
			updated.PostalCode = fmt.Sprintf("%04d", c.Rand.IntBetween(1000, 9999))
		case 1:
			updated.Segment = segments[c.Rand.Index(len(segments))]
		default:
			updated.Email = email(firstNames[c.Rand.Index(len(firstNames))], lastNames[c.Rand.Index(len(lastNames))], cust.Country, int64(c.Rand.IntBetween(1, 9999)))
		}
		out = append(out, updated)
	}
	return out, nil
}

// ProductUpdates samples frac of the product pool and reprices or
// retires products. Prices shift within ±10%.
func (c *Context) ProductUpdates(frac float64) ([]model.Product, error) {
	if err := need("ProductUpdates", model.KindProduct, len(c.Pools.Products)); err != nil {
		return nil, err
	}

	var out []model.Product
	for _, p := range c.Pools.Products {
		if !c.Rand.Bool(frac) {
			continue
		}
		updated := p
		if c.Rand.Bool(0.85) {
			shift := decimal.NewFromFloat(c.Rand.NormalClamped(1.0, 0.05, 0.9, 1.1))
			updated.Price = p.Price.Mul(shift).Round(2)
		} else {
			updated.Status = "discontinued"
		}
		out = append(out, updated)
	}
	return out, nil
}

// EmployeeUpdates samples frac of the employee pool and applies raises
// or status changes. Raises land between 2% and 8%.
func (c *Context) EmployeeUpdates(frac float64) ([]model.Employee, error) {
	if err := need("EmployeeUpdates", model.KindEmployee, len(c.Pools.Employees)); err != nil {
		return nil, err
	}

	var out []model.Employee
	for _, e := range c.Pools.Employees {
		if !c.Rand.Bool(frac) {
			continue
		}
		updated := e
		if c.Rand.Bool(0.9) {
			raise := decimal.NewFromFloat(1 + c.Rand.NormalClamped(0.04, 0.02, 0.02, 0.08))
			updated.Salary = e.Salary.Mul(raise).Round(2)
		} else {
			updated.Status = "on_leave"
		}
		out = append(out, updated)
	}
	return out, nil
}
