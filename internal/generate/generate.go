// Package generate produces base entities and revenue events from the
// configured distributions, consuming upstream entities as foreign-key
// pools.
//
// Generation order is a hard precondition: a generator invoked without
// its required upstream pool fails fast with a DependencyError rather
// than emitting records with dangling references.
//
// Country-consistent generation: every revenue-producing record picks its
// country once (weighted by configured market share) and carries it to
// every derived field — VAT rate, currency, payment-method mix, store
// assignment. Events are born with their country tag, so no central
// lookup is needed at reconciliation time.
package generate

import (
	"fmt"
	"log/slog"

	"github.com/eurostyle/datagen/internal/config"
	"github.com/eurostyle/datagen/internal/ident"
	"github.com/eurostyle/datagen/internal/model"
	"github.com/eurostyle/datagen/internal/sample"
)

// Pools holds already-generated records available as foreign-key targets.
// On incremental runs the pools are rehydrated from the watermark store's
// entity registry.
type Pools struct {
	Customers []model.Customer
	Products  []model.Product
	Stores    []model.Store
	Employees []model.Employee
}

// Context carries the shared generation state: validated config, the
// identifier allocator, the seeded sampler, and the foreign-key pools.
// It replaces any ambient globals; everything a generator needs is
// threaded through here explicitly.
type Context struct {
	Cfg   *config.Config
	Alloc *ident.Allocator
	Rand  *sample.Sampler
	Pools Pools
	Log   *slog.Logger // optional; cross-border fallbacks are logged here
}

// DependencyError reports a generator invoked before its upstream pool
// was populated. Fatal: the run aborts rather than producing dangling
// references.
type DependencyError struct {
	Generator string
	Missing   model.Kind
}

func (e *DependencyError) Error() string {
	return fmt.Sprintf("generate: %s requires a populated %s pool", e.Generator, e.Missing)
}

// need returns a DependencyError when a required pool is empty.
func need(generator string, kind model.Kind, size int) error {
	if size == 0 {
		return &DependencyError{Generator: generator, Missing: kind}
	}
	return nil
}

// storesIn returns the stores in a country, or the full pool when the
// country has no store (small demo configs). Cross-border assignments
// are logged so a run's output can be traced back to the fallback.
func (c *Context) storesIn(country string) []model.Store {
	var out []model.Store
	for _, s := range c.Pools.Stores {
		if s.Country == country {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		if c.Log != nil {
			c.Log.Debug("no store in country, assigning cross-border", "country", country)
		}
		return c.Pools.Stores
	}
	return out
}

// employeesAt returns the employees of a store, or the full pool when
// the store has none.
func (c *Context) employeesAt(storeID model.ID) []model.Employee {
	var out []model.Employee
	for _, e := range c.Pools.Employees {
		if e.StoreID == storeID {
			out = append(out, e)
		}
	}
	if len(out) == 0 {
		return c.Pools.Employees
	}
	return out
}
