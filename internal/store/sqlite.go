package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopspring/decimal"

	"github.com/theirongolddev/payplan/internal/model"

	_ "modernc.org/sqlite" // register sqlite driver
)

// timeLayout sorts lexically in chronological order.
const timeLayout = "2006-01-02T15:04:05.000000000Z"

// SQLite is a Store backed by a SQLite database file.
type SQLite struct {
	db *sql.DB
}

// Open opens or creates the scenario database at the given path.
func Open(dbPath string) (*SQLite, error) {
	dir := filepath.Dir(dbPath)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating store dir: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(wal)&_pragma=synchronous(normal)&_pragma=foreign_keys(on)")
	if err != nil {
		return nil, fmt.Errorf("opening store db: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

// Close closes the database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

// Save stores set under name inside one transaction. An existing scenario
// with the same name is replaced, rows and attributes included.
func (s *SQLite) Save(ctx context.Context, name string, set model.AllocationSet) (Scenario, error) {
	sc := newScenario(name, set)

	columns, err := json.Marshal(set.Columns)
	if err != nil {
		return Scenario{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return Scenario{}, err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, "DELETE FROM scenarios WHERE name = ?", name); err != nil {
		return Scenario{}, err
	}

	_, err = tx.ExecContext(ctx, `INSERT INTO scenarios
		(id, name, columns, row_count, distributed_total, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		sc.ID, sc.Name, string(columns), sc.Rows, sc.Total, sc.CreatedAt.UTC().Format(timeLayout),
	)
	if err != nil {
		return Scenario{}, fmt.Errorf("inserting scenario: %w", err)
	}

	rowStmt, err := tx.PrepareContext(ctx, `INSERT INTO scenario_rows
		(scenario_id, position, obligation_id, liability, allocated_amount)
		VALUES (?, ?, ?, ?, ?)`)
	if err != nil {
		return Scenario{}, err
	}
	defer func() { _ = rowStmt.Close() }()

	attrStmt, err := tx.PrepareContext(ctx, `INSERT INTO scenario_attributes
		(scenario_id, position, name, value) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return Scenario{}, err
	}
	defer func() { _ = attrStmt.Close() }()

	for pos, o := range set.Obligations {
		if _, err := rowStmt.ExecContext(ctx, sc.ID, pos, o.ID, o.RemainingLiability.String(), o.AllocatedAmount); err != nil {
			return Scenario{}, fmt.Errorf("inserting row %s: %w", o.ID, err)
		}
		for k, v := range o.Attributes {
			if _, err := attrStmt.ExecContext(ctx, sc.ID, pos, k, v); err != nil {
				return Scenario{}, fmt.Errorf("inserting attribute %s of row %s: %w", k, o.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return Scenario{}, err
	}
	return sc, nil
}

// Get loads the named scenario with all of its rows.
func (s *SQLite) Get(ctx context.Context, name string) (Scenario, error) {
	var (
		sc      Scenario
		columns string
		created string
	)
	err := s.db.QueryRowContext(ctx, `SELECT id, name, columns, row_count, distributed_total, created_at
		FROM scenarios WHERE name = ?`, name).
		Scan(&sc.ID, &sc.Name, &columns, &sc.Rows, &sc.Total, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return Scenario{}, ErrNotFound
	}
	if err != nil {
		return Scenario{}, err
	}
	sc.CreatedAt, _ = time.Parse(timeLayout, created)
	if err := json.Unmarshal([]byte(columns), &sc.Set.Columns); err != nil {
		return Scenario{}, fmt.Errorf("decoding columns: %w", err)
	}

	rows, err := s.db.QueryContext(ctx, `SELECT position, obligation_id, liability, allocated_amount
		FROM scenario_rows WHERE scenario_id = ? ORDER BY position`, sc.ID)
	if err != nil {
		return Scenario{}, err
	}
	defer func() { _ = rows.Close() }()

	byPos := make(map[int]int)
	for rows.Next() {
		var (
			pos       int
			o         model.Obligation
			liability string
		)
		if err := rows.Scan(&pos, &o.ID, &liability, &o.AllocatedAmount); err != nil {
			return Scenario{}, err
		}
		o.RemainingLiability, err = decimal.NewFromString(liability)
		if err != nil {
			return Scenario{}, fmt.Errorf("decoding liability of row %s: %w", o.ID, err)
		}
		o.Attributes = make(map[string]string)
		byPos[pos] = len(sc.Set.Obligations)
		sc.Set.Obligations = append(sc.Set.Obligations, o)
	}
	if err := rows.Err(); err != nil {
		return Scenario{}, err
	}

	attrRows, err := s.db.QueryContext(ctx, `SELECT position, name, value
		FROM scenario_attributes WHERE scenario_id = ?`, sc.ID)
	if err != nil {
		return Scenario{}, err
	}
	defer func() { _ = attrRows.Close() }()

	for attrRows.Next() {
		var (
			pos      int
			key, val string
		)
		if err := attrRows.Scan(&pos, &key, &val); err != nil {
			return Scenario{}, err
		}
		if idx, ok := byPos[pos]; ok {
			sc.Set.Obligations[idx].Attributes[key] = val
		}
	}
	return sc, attrRows.Err()
}

// List returns all scenario headers, newest first.
func (s *SQLite) List(ctx context.Context) ([]Scenario, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, row_count, distributed_total, created_at
		FROM scenarios ORDER BY created_at DESC, name`)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()

	var out []Scenario
	for rows.Next() {
		var sc Scenario
		var created string
		if err := rows.Scan(&sc.ID, &sc.Name, &sc.Rows, &sc.Total, &created); err != nil {
			return nil, err
		}
		sc.CreatedAt, _ = time.Parse(timeLayout, created)
		out = append(out, sc)
	}
	return out, rows.Err()
}

// Delete removes the named scenario. Rows and attributes cascade.
func (s *SQLite) Delete(ctx context.Context, name string) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM scenarios WHERE name = ?", name)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
