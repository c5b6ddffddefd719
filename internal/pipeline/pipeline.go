// Package pipeline drives the dependency-ordered generation run: base
// entities, daily revenue events, GL postings, validation, and the
// atomic watermark commit.
//
// The controller is the single writer for the allocator and the
// ledger's running totals. Every revenue event is posted to the GL
// immediately after it is generated, so a posting can never precede or
// outlive its source event, and cross-database consistency holds by
// construction rather than by an afterthought check.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/eurostyle/datagen/internal/config"
	"github.com/eurostyle/datagen/internal/emit"
	"github.com/eurostyle/datagen/internal/generate"
	"github.com/eurostyle/datagen/internal/ident"
	"github.com/eurostyle/datagen/internal/ledger"
	"github.com/eurostyle/datagen/internal/model"
	"github.com/eurostyle/datagen/internal/sample"
	"github.com/eurostyle/datagen/internal/state"
	"github.com/eurostyle/datagen/internal/validate"
)

// Options configures one run.
type Options struct {
	Config *config.Config
	Store  *state.Store
	OutDir string

	// Seed drives every random draw; a fixed seed reproduces an
	// identical dataset on a fresh store.
	Seed int64

	// Days of business activity to generate. Zero uses the config value.
	Days int

	// Updates enables update-batch generation (incremental runs).
	Updates bool

	// Year anchors the business calendar and year-bearing identifiers.
	// Zero uses the current year.
	Year int

	Logger *slog.Logger

	// EventTap, when set, sees every revenue event before posting.
	// Used by tests to inject malformed events.
	EventTap func(*model.RevenueEvent)
}

// Result is the outcome of a completed run.
type Result struct {
	RunID        string
	Phase        Phase
	Status       string
	Days         int
	Batches      []*emit.Batch
	Report       *validate.Report
	Rejected     int
	Degraded     bool
	Revenue      decimal.Decimal // revenue generated by this run
	TotalRevenue decimal.Decimal // cumulative revenue after this run
	Watermark    *state.Watermark
}

// Controller runs the pipeline. Create one per run.
type Controller struct {
	opts  Options
	log   *slog.Logger
	phase Phase

	alloc  *ident.Allocator
	rand   *sample.Sampler
	engine *ledger.Engine
	gctx   *generate.Context

	batches     *batchSet
	rejected    int
	rejectedIDs []string
	revenue     decimal.Decimal

	prior     *state.Watermark
	knownIDs  map[model.Kind]map[model.ID]bool
	newRefs   []state.EntityRef
	startDay  int
}

// New validates options and creates a controller.
func New(opts Options) (*Controller, error) {
	if opts.Config == nil {
		return nil, errors.New("pipeline: config is required")
	}
	if opts.Store == nil {
		return nil, errors.New("pipeline: state store is required")
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Year == 0 {
		opts.Year = time.Now().UTC().Year()
	}
	if opts.Days == 0 {
		opts.Days = opts.Config.Days
	}
	return &Controller{
		opts:     opts,
		log:      opts.Logger,
		batches:  newBatchSet(),
		revenue:  decimal.Zero,
		knownIDs: make(map[model.Kind]map[model.ID]bool),
	}, nil
}

// Run executes the full state machine and returns the run result.
// On Configuration, Dependency, or Invariant errors the run aborts with
// no watermark write; event-level rejections degrade but do not abort.
func (c *Controller) Run(ctx context.Context) (*Result, error) {
	started := time.Now().UTC()

	if err := c.seed(ctx); err != nil {
		return nil, err
	}
	if err := c.generateAll(ctx); err != nil {
		return nil, err
	}

	c.phase = PhaseValidating
	report := c.validateRun()

	status := StatusClean
	switch {
	case !report.Pass():
		status = StatusInconsistent
	case c.rejected > 0:
		status = StatusDegraded
	}

	result := &Result{
		RunID:    uuid.NewString(),
		Days:     c.opts.Days,
		Batches:  c.batches.ordered(),
		Report:   report,
		Rejected: c.rejected,
		Degraded: c.rejected > 0,
		Revenue:  c.revenue,
		Status:   status,
	}

	if err := c.persist(ctx, result, started); err != nil {
		return nil, err
	}
	c.phase = PhasePersisted
	result.Phase = c.phase

	c.log.Info("run complete",
		"run", result.RunID,
		"status", result.Status,
		"days", result.Days,
		"rejected", result.Rejected,
		"revenue", result.Revenue.StringFixed(2),
	)
	return result, nil
}

// seed loads the prior watermark (if any) and rehydrates the allocator,
// ledger totals, and foreign-key pools.
func (c *Controller) seed(ctx context.Context) error {
	c.phase = PhaseFresh

	wm, err := c.opts.Store.LoadWatermark(ctx)
	if err != nil {
		return err
	}
	c.prior = wm

	c.alloc = ident.New(ident.DefaultFormats, c.opts.Year)
	c.rand = sample.New(c.opts.Seed)
	c.engine = ledger.New(c.alloc, c.opts.Config.Accounts)
	c.gctx = &generate.Context{
		Cfg:   c.opts.Config,
		Alloc: c.alloc,
		Rand:  c.rand,
		Log:   c.log,
	}

	if wm == nil {
		c.phase = PhaseSeeded
		c.log.Info("fresh run", "seed", c.opts.Seed, "days", c.opts.Days)
		return nil
	}

	for kind, last := range wm.Kinds {
		if err := c.alloc.Resume(kind, last); err != nil {
			return err
		}
	}
	c.engine.Resume(wm.Accounts)
	c.revenue = decimal.Zero
	c.startDay = wm.Days

	if err := c.rehydratePools(ctx); err != nil {
		return err
	}
	c.phase = PhaseSeeded
	c.log.Info("resumed from watermark",
		"days_done", wm.Days,
		"revenue", wm.Revenue.StringFixed(2),
		"seed", c.opts.Seed,
	)
	return nil
}

// rehydratePools rebuilds the generators' foreign-key pools from the
// watermark store's entity registry, avoiding any re-parse of prior CSV
// output.
func (c *Controller) rehydratePools(ctx context.Context) error {
	customers, err := c.opts.Store.LoadEntities(ctx, model.KindCustomer)
	if err != nil {
		return err
	}
	for _, ref := range customers {
		c.gctx.Pools.Customers = append(c.gctx.Pools.Customers, model.Customer{ID: ref.ID, Country: ref.Country})
		c.remember(model.KindCustomer, ref.ID)
	}

	products, err := c.opts.Store.LoadEntities(ctx, model.KindProduct)
	if err != nil {
		return err
	}
	for _, ref := range products {
		c.gctx.Pools.Products = append(c.gctx.Pools.Products, model.Product{ID: ref.ID, Price: ref.Amount, Status: "active"})
		c.remember(model.KindProduct, ref.ID)
	}

	stores, err := c.opts.Store.LoadEntities(ctx, model.KindStore)
	if err != nil {
		return err
	}
	for _, ref := range stores {
		c.gctx.Pools.Stores = append(c.gctx.Pools.Stores, model.Store{ID: ref.ID, Country: ref.Country})
		c.remember(model.KindStore, ref.ID)
	}

	employees, err := c.opts.Store.LoadEntities(ctx, model.KindEmployee)
	if err != nil {
		return err
	}
	for _, ref := range employees {
		c.gctx.Pools.Employees = append(c.gctx.Pools.Employees, model.Employee{
			ID: ref.ID, Country: ref.Country, StoreID: ref.RefID, Salary: ref.Amount, Status: "active",
		})
		c.remember(model.KindEmployee, ref.ID)
	}
	return nil
}

func (c *Controller) remember(kind model.Kind, id model.ID) {
	if c.knownIDs[kind] == nil {
		c.knownIDs[kind] = make(map[model.ID]bool)
	}
	c.knownIDs[kind][id] = true
}

// validateRun recomputes consistency checks from the emitted batches.
func (c *Controller) validateRun() *validate.Report {
	opts := validate.Options{
		KnownIDs:    c.knownIDs,
		RejectedIDs: c.rejectedIDs,
		Tolerance:   c.opts.Config.Tolerance(),
	}
	if c.prior != nil {
		opts.PriorOrdinals = c.prior.Kinds
	}
	return validate.Validate(c.batches.ordered(), c.opts.Config.Accounts, opts)
}

// persist writes output files and then commits the new watermark as the
// final atomic step.
func (c *Controller) persist(ctx context.Context, result *Result, started time.Time) error {
	if c.opts.OutDir != "" {
		w := &emit.Writer{Dir: c.opts.OutDir}
		if err := w.Write(result.Batches); err != nil {
			return err
		}
	}

	wm := &state.Watermark{
		Kinds:    c.alloc.Snapshot(),
		Accounts: c.engine.RunningTotals(),
		Days:     c.startDay + c.opts.Days,
	}
	// Resumed kinds keep their counters even when idle this run.
	if c.prior != nil {
		for kind, last := range c.prior.Kinds {
			if wm.Kinds[kind] < last {
				wm.Kinds[kind] = last
			}
		}
		wm.Revenue = c.prior.Revenue.Add(c.revenue)
	} else {
		wm.Revenue = c.revenue
	}

	run := state.RunRecord{
		ID:         result.RunID,
		StartedAt:  started,
		FinishedAt: time.Now().UTC(),
		Days:       c.opts.Days,
		Seed:       c.opts.Seed,
		Status:     result.Status,
		Rejected:   c.rejected,
		Revenue:    c.revenue,
	}
	if err := c.opts.Store.SaveWatermark(ctx, wm, c.newRefs, run); err != nil {
		return fmt.Errorf("pipeline: persist watermark: %w", err)
	}

	result.Watermark = wm
	result.TotalRevenue = wm.Revenue
	return nil
}
