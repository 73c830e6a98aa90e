package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	corestore "github.com/kilianp07/roster/core/store"
	"github.com/kilianp07/roster/pkg/export"
)

// SQLite persists committed plans in a local SQLite file. It is the plan
// store of single-host setups that read their input from scenario files.
type SQLite struct {
	db *sql.DB
}

// NewSQLite opens or creates the database and ensures schema.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	schema := `CREATE TABLE IF NOT EXISTS roster_plans (
        id         TEXT PRIMARY KEY,
        created_at INTEGER NOT NULL,
        assigned   INTEGER NOT NULL,
        unassigned INTEGER NOT NULL,
        conflicts  INTEGER NOT NULL,
        document   TEXT NOT NULL
    );`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &SQLite{db: db}, nil
}

// SavePlan inserts or replaces the plan.
func (s *SQLite) SavePlan(ctx context.Context, doc export.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	sum := corestore.Summarize(doc)
	_, err = s.db.ExecContext(ctx, `INSERT INTO roster_plans (id, created_at, assigned, unassigned, conflicts, document)
        VALUES (?, ?, ?, ?, ?, ?)
        ON CONFLICT(id) DO UPDATE SET
            created_at = excluded.created_at,
            assigned = excluded.assigned,
            unassigned = excluded.unassigned,
            conflicts = excluded.conflicts,
            document = excluded.document`,
		doc.ID, doc.CreatedAt.Unix(), sum.Assigned, sum.Unassigned, sum.Conflicts, string(body))
	if err != nil {
		return fmt.Errorf("save plan %s: %w", doc.ID, err)
	}
	return nil
}

// GetPlan implements store.PlanStore.
func (s *SQLite) GetPlan(ctx context.Context, id string) (export.Document, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT document FROM roster_plans WHERE id = ?`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return export.Document{}, corestore.ErrNotFound
	}
	if err != nil {
		return export.Document{}, err
	}
	var doc export.Document
	if err := json.Unmarshal([]byte(body), &doc); err != nil {
		return export.Document{}, fmt.Errorf("decode plan %s: %w", id, err)
	}
	return doc, nil
}

// ListPlans returns the latest plans, newest first.
func (s *SQLite) ListPlans(ctx context.Context, limit int) ([]corestore.PlanSummary, error) {
	if limit <= 0 {
		limit = corestore.DefaultListLimit
	}
	rows, err := s.db.QueryContext(ctx, `SELECT id, created_at, assigned, unassigned, conflicts
        FROM roster_plans ORDER BY created_at DESC, id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []corestore.PlanSummary
	for rows.Next() {
		var p corestore.PlanSummary
		var ts int64
		if err := rows.Scan(&p.ID, &ts, &p.Assigned, &p.Unassigned, &p.Conflicts); err != nil {
			return nil, err
		}
		p.CreatedAt = time.Unix(ts, 0).UTC()
		res = append(res, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return res, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error { return s.db.Close() }

var _ corestore.PlanStore = (*SQLite)(nil)
