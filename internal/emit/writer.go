package emit

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
)

// Writer persists batches as <dir>/<database>/<table>.csv.
//
// A table's file is created with a header row on first write; later
// writes (incremental runs) append rows only, so previously emitted
// rows are never rewritten.
type Writer struct {
	Dir string
}

// Write persists all batches. Empty batches are skipped.
func (w *Writer) Write(batches []*Batch) error {
	for _, b := range batches {
		if len(b.Rows) == 0 {
			continue
		}
		if err := w.writeBatch(b); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) writeBatch(b *Batch) error {
	dir := filepath.Join(w.Dir, b.Database)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("emit: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, b.Table+".csv")

	_, statErr := os.Stat(path)
	isNew := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("emit: open %s: %w", path, err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	if isNew {
		if err := cw.Write(b.Columns); err != nil {
			return fmt.Errorf("emit: write header %s: %w", path, err)
		}
	}
	for _, row := range b.Rows {
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("emit: write row %s: %w", path, err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("emit: flush %s: %w", path, err)
	}
	return nil
}

// ReadBatch loads a previously written CSV back into a Batch. Used by
// the standalone validate command, which checks the dataset from the
// emitted files rather than from in-memory engine state.
func ReadBatch(dir, database, table string) (*Batch, error) {
	path := filepath.Join(dir, database, table+".csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("emit: open %s: %w", path, err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		return nil, fmt.Errorf("emit: read %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("emit: %s has no header row", path)
	}
	return &Batch{
		Database: database,
		Table:    table,
		Columns:  records[0],
		Rows:     records[1:],
	}, nil
}

// ReadAll loads every emitted table present under dir. Missing tables
// are skipped (not every run emits every table).
func ReadAll(dir string) ([]*Batch, error) {
	var out []*Batch
	for _, def := range AllTables {
		path := filepath.Join(dir, def.Database, def.Table+".csv")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		b, err := ReadBatch(dir, def.Database, def.Table)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}
