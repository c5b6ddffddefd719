package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/eurostyle/datagen/internal/model"
)

// Watermark is the sole state carried between runs: last allocated
// ordinal per entity kind, signed balance (debit minus credit) per GL
// account, days generated so far, and cumulative revenue for validation.
type Watermark struct {
	Kinds    map[model.Kind]int64
	Accounts map[string]decimal.Decimal
	Days     int
	Revenue  decimal.Decimal
}

// EntityRef is one registry entry: the minimal attributes incremental
// runs need to use a prior entity as a foreign-key target. Amount holds
// the price for products and the salary for employees.
type EntityRef struct {
	Kind    model.Kind
	ID      model.ID
	Country string
	RefID   model.ID
	Amount  decimal.Decimal
}

// RunRecord is one row of the run log.
type RunRecord struct {
	ID         string
	StartedAt  time.Time
	FinishedAt time.Time
	Days       int
	Seed       int64
	Status     string
	Rejected   int
	Revenue    decimal.Decimal
}

// SaveWatermark commits the watermark, new registry entries, and the
// run record in one transaction. This is the last step of a run; a run
// that fails earlier leaves the previous watermark intact.
func (s *Store) SaveWatermark(ctx context.Context, wm *Watermark, refs []EntityRef, run RunRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("state: begin: %w", err)
	}
	defer tx.Rollback() // no-op after commit

	for kind, last := range wm.Kinds {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO watermarks (kind, last_ordinal) VALUES (?, ?)
			ON CONFLICT(kind) DO UPDATE SET last_ordinal = excluded.last_ordinal
		`, string(kind), last); err != nil {
			return fmt.Errorf("state: save watermark %s: %w", kind, err)
		}
	}

	for account, total := range wm.Accounts {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO account_totals (account, total) VALUES (?, ?)
			ON CONFLICT(account) DO UPDATE SET total = excluded.total
		`, account, total.StringFixed(2)); err != nil {
			return fmt.Errorf("state: save total %s: %w", account, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES ('days', ?), ('revenue', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, fmt.Sprint(wm.Days), wm.Revenue.StringFixed(2)); err != nil {
		return fmt.Errorf("state: save meta: %w", err)
	}

	for _, ref := range refs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO entities (kind, id, country, ref_id, amount) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(kind, id) DO UPDATE SET
				country = excluded.country, ref_id = excluded.ref_id, amount = excluded.amount
		`, string(ref.Kind), string(ref.ID), ref.Country, string(ref.RefID), ref.Amount.String()); err != nil {
			return fmt.Errorf("state: save entity %s: %w", ref.ID, err)
		}
	}

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO runs (id, started_at, finished_at, days, seed, status, rejected, revenue)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.ID,
		run.StartedAt.UTC().Format(time.RFC3339),
		run.FinishedAt.UTC().Format(time.RFC3339),
		run.Days, run.Seed, run.Status, run.Rejected,
		run.Revenue.StringFixed(2),
	); err != nil {
		return fmt.Errorf("state: save run: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("state: commit watermark: %w", err)
	}
	return nil
}

// LoadWatermark returns the persisted watermark, or nil when no run has
// completed yet (fresh database).
func (s *Store) LoadWatermark(ctx context.Context) (*Watermark, error) {
	wm := &Watermark{
		Kinds:    make(map[model.Kind]int64),
		Accounts: make(map[string]decimal.Decimal),
	}

	rows, err := s.db.QueryContext(ctx, `SELECT kind, last_ordinal FROM watermarks ORDER BY kind`)
	if err != nil {
		return nil, fmt.Errorf("state: load watermarks: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind string
		var last int64
		if err := rows.Scan(&kind, &last); err != nil {
			return nil, fmt.Errorf("state: scan watermark: %w", err)
		}
		wm.Kinds[model.Kind(kind)] = last
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("state: iterate watermarks: %w", err)
	}
	if len(wm.Kinds) == 0 {
		return nil, nil
	}

	accounts, err := s.db.QueryContext(ctx, `SELECT account, total FROM account_totals ORDER BY account`)
	if err != nil {
		return nil, fmt.Errorf("state: load totals: %w", err)
	}
	defer accounts.Close()
	for accounts.Next() {
		var account, total string
		if err := accounts.Scan(&account, &total); err != nil {
			return nil, fmt.Errorf("state: scan total: %w", err)
		}
		d, err := decimal.NewFromString(total)
		if err != nil {
			return nil, fmt.Errorf("state: parse total for %s: %w", account, err)
		}
		wm.Accounts[account] = d
	}
	if err := accounts.Err(); err != nil {
		return nil, fmt.Errorf("state: iterate totals: %w", err)
	}

	var daysStr string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'days'`).Scan(&daysStr)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("state: load days: %w", err)
	}
	if err == nil {
		if _, err := fmt.Sscanf(daysStr, "%d", &wm.Days); err != nil {
			return nil, fmt.Errorf("state: parse days: %w", err)
		}
	}

	var revStr string
	err = s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = 'revenue'`).Scan(&revStr)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("state: load revenue: %w", err)
	}
	if err == nil {
		d, err := decimal.NewFromString(revStr)
		if err != nil {
			return nil, fmt.Errorf("state: parse revenue: %w", err)
		}
		wm.Revenue = d
	}

	return wm, nil
}

// LoadEntities returns every registry entry of a kind, in id order.
func (s *Store) LoadEntities(ctx context.Context, kind model.Kind) ([]EntityRef, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, id, country, ref_id, amount FROM entities
		WHERE kind = ?
		ORDER BY id
	`, string(kind))
	if err != nil {
		return nil, fmt.Errorf("state: load entities: %w", err)
	}
	defer rows.Close()

	var out []EntityRef
	for rows.Next() {
		var kindStr, id, country, refID, amount string
		if err := rows.Scan(&kindStr, &id, &country, &refID, &amount); err != nil {
			return nil, fmt.Errorf("state: scan entity: %w", err)
		}
		d, err := decimal.NewFromString(amount)
		if err != nil {
			return nil, fmt.Errorf("state: parse amount for %s: %w", id, err)
		}
		out = append(out, EntityRef{
			Kind:    model.Kind(kindStr),
			ID:      model.ID(id),
			Country: country,
			RefID:   model.ID(refID),
			Amount:  d,
		})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("state: iterate entities: %w", err)
	}
	return out, nil
}

// Runs returns the run log, newest first.
func (s *Store) Runs(ctx context.Context) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, started_at, finished_at, days, seed, status, rejected, revenue
		FROM runs
		ORDER BY started_at DESC, id DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("state: load runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var r RunRecord
		var started, finished, revenue string
		if err := rows.Scan(&r.ID, &started, &finished, &r.Days, &r.Seed, &r.Status, &r.Rejected, &revenue); err != nil {
			return nil, fmt.Errorf("state: scan run: %w", err)
		}
		if r.StartedAt, err = time.Parse(time.RFC3339, started); err != nil {
			return nil, fmt.Errorf("state: parse started_at: %w", err)
		}
		if r.FinishedAt, err = time.Parse(time.RFC3339, finished); err != nil {
			return nil, fmt.Errorf("state: parse finished_at: %w", err)
		}
		if r.Revenue, err = decimal.NewFromString(revenue); err != nil {
			return nil, fmt.Errorf("state: parse revenue: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("state: iterate runs: %w", err)
	}
	return out, nil
}
