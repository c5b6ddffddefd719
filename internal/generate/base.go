package generate

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eurostyle/datagen/internal/config"
	"github.com/eurostyle/datagen/internal/model"
)

// Customers generates n customer records. Country is drawn once per
// customer from the configured market-share weights and owns every
// downstream country-dependent field.
func (c *Context) Customers(n int, now time.Time) ([]model.Customer, error) {
	out := make([]model.Customer, 0, n)
	for i := 0; i < n; i++ {
		id, err := c.Alloc.Next(model.KindCustomer)
		if err != nil {
			return nil, err
		}
		country, err := c.Rand.Country(c.Cfg.Countries)
		if err != nil {
			return nil, err
		}

		first := firstNames[c.Rand.Index(len(firstNames))]
		last := lastNames[c.Rand.Index(len(lastNames))]
		cities := citiesByCountry[country]
		city := ""
		if len(cities) > 0 {
			city = cities[c.Rand.Index(len(cities))]
		}

		out = append(out, model.Customer{
			ID:         id,
			Name:       first + " " + last,
			Email:      email(first, last, country, c.Alloc.Last(model.KindCustomer)),
			Country:    country,
			City:       city,
			Street:     fmt.Sprintf("%s %d", streets[c.Rand.Index(len(streets))], c.Rand.IntBetween(1, 250)),
			PostalCode: fmt.Sprintf("%04d", c.Rand.IntBetween(1000, 9999)),
			Segment:    segments[c.Rand.Index(len(segments))],
			SignupDate: now.AddDate(0, 0, -c.Rand.IntBetween(1, 900)),
		})
	}
	return out, nil
}

func email(first, last, country string, ordinal int64) string {
	domain, ok := mailDomains[country]
	if !ok {
		domain = "example.com"
	}
	user := strings.ToLower(first + "." + strings.ReplaceAll(last, " ", ""))
	return fmt.Sprintf("%s%d@%s", user, ordinal, domain)
}

// Products generates n product records with category-dependent pricing.
func (c *Context) Products(n int) ([]model.Product, error) {
	out := make([]model.Product, 0, n)
	for i := 0; i < n; i++ {
		id, err := c.Alloc.Next(model.KindProduct)
		if err != nil {
			return nil, err
		}
		cat, err := c.pickCategory()
		if err != nil {
			return nil, err
		}

		words := productWords[cat.Name]
		word := "Item"
		if len(words) > 0 {
			word = words[c.Rand.Index(len(words))]
		}
		price := c.Rand.Amount(cat.PriceMin, cat.PriceMax)
		// Cost between 35% and 60% of retail.
		margin := decimal.NewFromFloat(c.Rand.NormalClamped(0.45, 0.08, 0.35, 0.60))

		out = append(out, model.Product{
			ID:       id,
			Name:     fmt.Sprintf("%s %s %03d", productLines[c.Rand.Index(len(productLines))], word, c.Alloc.Last(model.KindProduct)),
			Category: cat.Name,
			Price:    price,
			Cost:     price.Mul(margin).Round(2),
			Status:   "active",
		})
	}
	return out, nil
}

func (c *Context) pickCategory() (config.Category, error) {
	spec := make([]config.Weight, len(c.Cfg.Categories))
	for i, cat := range c.Cfg.Categories {
		spec[i] = config.Weight{Label: cat.Name, Weight: cat.Weight}
	}
	name, err := c.Rand.Pick(spec)
	if err != nil {
		return config.Category{}, err
	}
	for _, cat := range c.Cfg.Categories {
		if cat.Name == name {
			return cat, nil
		}
	}
	return config.Category{}, fmt.Errorf("generate: unknown category %q", name)
}

func (c *Context) pickBand() (config.SalaryBand, error) {
	spec := make([]config.Weight, len(c.Cfg.SalaryBands))
	for i, b := range c.Cfg.SalaryBands {
		spec[i] = config.Weight{Label: b.Role, Weight: b.Weight}
	}
	role, err := c.Rand.Pick(spec)
	if err != nil {
		return config.SalaryBand{}, err
	}
	for _, b := range c.Cfg.SalaryBands {
		if b.Role == role {
			return b, nil
		}
	}
	return config.SalaryBand{}, fmt.Errorf("generate: unknown salary band %q", role)
}

// Stores generates n store records.
func (c *Context) Stores(n int) ([]model.Store, error) {
	out := make([]model.Store, 0, n)
	for i := 0; i < n; i++ {
		id, err := c.Alloc.Next(model.KindStore)
		if err != nil {
			return nil, err
		}
		country, err := c.Rand.Country(c.Cfg.Countries)
		if err != nil {
			return nil, err
		}
		cities := citiesByCountry[country]
		city := ""
		if len(cities) > 0 {
			city = cities[c.Rand.Index(len(cities))]
		}
		out = append(out, model.Store{
			ID:      id,
			Name:    fmt.Sprintf("EuroStyle %s", city),
			Country: country,
			City:    city,
			Channel: storeChannels[c.Rand.Index(len(storeChannels))],
		})
	}
	return out, nil
}

// Employees generates n employee records assigned to existing stores.
// Requires the store pool.
func (c *Context) Employees(n int, now time.Time) ([]model.Employee, error) {
	if err := need("Employees", model.KindStore, len(c.Pools.Stores)); err != nil {
		return nil, err
	}

	out := make([]model.Employee, 0, n)
	for i := 0; i < n; i++ {
		id, err := c.Alloc.Next(model.KindEmployee)
		if err != nil {
			return nil, err
		}
		store := c.Pools.Stores[c.Rand.Index(len(c.Pools.Stores))]
		band, err := c.pickBand()
		if err != nil {
			return nil, err
		}

		out = append(out, model.Employee{
			ID:       id,
			Name:     firstNames[c.Rand.Index(len(firstNames))] + " " + lastNames[c.Rand.Index(len(lastNames))],
			Country:  store.Country,
			StoreID:  store.ID,
			Role:     band.Role,
			Salary:   c.Rand.Amount(band.Min, band.Max).Round(2),
			HireDate: now.AddDate(0, 0, -c.Rand.IntBetween(30, 2900)),
			Status:   "active",
		})
	}
	return out, nil
}
