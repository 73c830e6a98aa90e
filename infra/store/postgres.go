// Package store implements the input source and plan store on PostgreSQL and
// in memory.
package store

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/kilianp07/roster/core/model"
	corestore "github.com/kilianp07/roster/core/store"
	"github.com/kilianp07/roster/pkg/export"
)

//go:embed schema.sql
var schema string

// Postgres reads planning inputs from and persists plans to PostgreSQL.
type Postgres struct {
	db *sql.DB
}

// NewPostgres opens dsn with the pgx driver and checks the connection.
func NewPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return &Postgres{db: db}, nil
}

func (p *Postgres) Ping(ctx context.Context) error { return p.db.PingContext(ctx) }

func (p *Postgres) Close() error { return p.db.Close() }

// Migrate creates the tables when missing.
func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

// Import upserts the drivers, routes, availability records and rules of in.
// Rules keep their input order.
func (p *Postgres) Import(ctx context.Context, in model.Input) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	for _, d := range in.Drivers {
		if _, err := tx.ExecContext(ctx, `INSERT INTO drivers (id, name, monthly_minutes, max_routes_per_day)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, monthly_minutes=EXCLUDED.monthly_minutes,
				max_routes_per_day=EXCLUDED.max_routes_per_day`,
			d.ID, d.Name, minutes(d.MonthlyBudget), d.MaxRoutesPerDay); err != nil {
			return fmt.Errorf("driver %s: %w", d.ID, err)
		}
	}
	for _, r := range in.Routes {
		if _, err := tx.ExecContext(ctx, `INSERT INTO routes (id, name, route_date, duration_minutes)
			VALUES ($1,$2,$3,$4)
			ON CONFLICT (id) DO UPDATE SET name=EXCLUDED.name, route_date=EXCLUDED.route_date,
				duration_minutes=EXCLUDED.duration_minutes`,
			r.ID, r.Name, r.Date.Time(), minutes(r.Duration)); err != nil {
			return fmt.Errorf("route %s: %w", r.ID, err)
		}
	}
	for _, a := range in.Availability {
		if _, err := tx.ExecContext(ctx, `INSERT INTO driver_availability (driver_id, avail_date, available, hours_minutes, max_routes)
			VALUES ($1,$2,$3,$4,$5)
			ON CONFLICT (driver_id, avail_date) DO UPDATE SET available=EXCLUDED.available,
				hours_minutes=EXCLUDED.hours_minutes, max_routes=EXCLUDED.max_routes`,
			a.DriverID, a.Date.Time(), a.Available, minutes(a.Hours), a.MaxRoutes); err != nil {
			return fmt.Errorf("availability %s %s: %w", a.DriverID, a.Date, err)
		}
	}
	for _, r := range in.Rules {
		if _, err := tx.ExecContext(ctx, `INSERT INTO fixed_rules (id, driver_id, route_pattern, priority, weekday, active, valid_from, valid_to)
			VALUES ($1,$2,$3,$4,$5,$6,$7,$8)
			ON CONFLICT (id) DO UPDATE SET driver_id=EXCLUDED.driver_id, route_pattern=EXCLUDED.route_pattern,
				priority=EXCLUDED.priority, weekday=EXCLUDED.weekday, active=EXCLUDED.active,
				valid_from=EXCLUDED.valid_from, valid_to=EXCLUDED.valid_to`,
			r.ID, r.DriverID, r.RoutePattern, r.Priority, r.Weekday, r.Active, nullDate(r.ValidFrom), nullDate(r.ValidTo)); err != nil {
			return fmt.Errorf("rule %s: %w", r.ID, err)
		}
	}
	return tx.Commit()
}

// Load implements store.Source. Without bounds the horizon spans the stored
// routes.
func (p *Postgres) Load(ctx context.Context, from, to model.Date) (model.Input, error) {
	var in model.Input
	var err error
	if in.Drivers, err = p.drivers(ctx); err != nil {
		return in, err
	}
	lo, hi := bound(from, "1900-01-01"), bound(to, "9999-12-31")
	if in.Routes, err = p.routes(ctx, lo, hi); err != nil {
		return in, err
	}
	if in.Availability, err = p.availability(ctx, lo, hi); err != nil {
		return in, err
	}
	if in.Rules, err = p.rules(ctx); err != nil {
		return in, err
	}
	in.Horizon = horizon(from, to, in.Routes)
	return in, nil
}

func (p *Postgres) drivers(ctx context.Context) ([]model.Driver, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, monthly_minutes, max_routes_per_day FROM drivers ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query drivers: %w", err)
	}
	defer rows.Close()
	var out []model.Driver
	for rows.Next() {
		var d model.Driver
		var mins int64
		if err := rows.Scan(&d.ID, &d.Name, &mins, &d.MaxRoutesPerDay); err != nil {
			return nil, err
		}
		d.MonthlyBudget = time.Duration(mins) * time.Minute
		out = append(out, d)
	}
	return out, rows.Err()
}

func (p *Postgres) routes(ctx context.Context, lo, hi string) ([]model.Route, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, name, route_date, duration_minutes FROM routes
		WHERE route_date BETWEEN $1::date AND $2::date ORDER BY route_date, name, id`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("query routes: %w", err)
	}
	defer rows.Close()
	var out []model.Route
	for rows.Next() {
		var r model.Route
		var day time.Time
		var mins int64
		if err := rows.Scan(&r.ID, &r.Name, &day, &mins); err != nil {
			return nil, err
		}
		r.Date = model.DateOf(day)
		r.Duration = time.Duration(mins) * time.Minute
		out = append(out, r)
	}
	return out, rows.Err()
}

func (p *Postgres) availability(ctx context.Context, lo, hi string) ([]model.Availability, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT driver_id, avail_date, available, hours_minutes, max_routes
		FROM driver_availability WHERE avail_date BETWEEN $1::date AND $2::date ORDER BY avail_date, driver_id`, lo, hi)
	if err != nil {
		return nil, fmt.Errorf("query availability: %w", err)
	}
	defer rows.Close()
	var out []model.Availability
	for rows.Next() {
		var a model.Availability
		var day time.Time
		var mins int64
		if err := rows.Scan(&a.DriverID, &day, &a.Available, &mins, &a.MaxRoutes); err != nil {
			return nil, err
		}
		a.Date = model.DateOf(day)
		a.Hours = time.Duration(mins) * time.Minute
		out = append(out, a)
	}
	return out, rows.Err()
}

func (p *Postgres) rules(ctx context.Context) ([]model.FixedRule, error) {
	rows, err := p.db.QueryContext(ctx, `SELECT id, seq, driver_id, route_pattern, priority, weekday, active, valid_from, valid_to
		FROM fixed_rules ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("query rules: %w", err)
	}
	defer rows.Close()
	var out []model.FixedRule
	for rows.Next() {
		var r model.FixedRule
		var seq int64
		var from, to sql.NullTime
		if err := rows.Scan(&r.ID, &seq, &r.DriverID, &r.RoutePattern, &r.Priority, &r.Weekday, &r.Active, &from, &to); err != nil {
			return nil, err
		}
		r.Seq = int(seq)
		if from.Valid {
			r.ValidFrom = model.DateOf(from.Time)
		}
		if to.Valid {
			r.ValidTo = model.DateOf(to.Time)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// SavePlan implements store.PlanStore. Saving an existing id replaces it.
func (p *Postgres) SavePlan(ctx context.Context, doc export.Document) error {
	body, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `INSERT INTO roster_plans (id, created_at, document) VALUES ($1,$2,$3)
		ON CONFLICT (id) DO UPDATE SET created_at=EXCLUDED.created_at, document=EXCLUDED.document`,
		doc.ID, doc.CreatedAt, body); err != nil {
		return fmt.Errorf("save plan %s: %w", doc.ID, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM roster_assignments WHERE plan_id=$1`, doc.ID); err != nil {
		return err
	}
	for _, a := range doc.Assignments {
		hours, err := model.ParseHours(a.Hours)
		if err != nil {
			return fmt.Errorf("assignment %s: %w", a.RouteID, err)
		}
		if _, err := tx.ExecContext(ctx, `INSERT INTO roster_assignments
			(plan_id, driver_id, route_id, route_name, route_date, hours_minutes, origin) VALUES ($1,$2,$3,$4,$5,$6,$7)`,
			doc.ID, a.DriverID, a.RouteID, a.Route, a.Date.Time(), minutes(hours), a.Origin); err != nil {
			return fmt.Errorf("assignment %s: %w", a.RouteID, err)
		}
	}
	return tx.Commit()
}

// GetPlan implements store.PlanStore.
func (p *Postgres) GetPlan(ctx context.Context, id string) (export.Document, error) {
	var body []byte
	err := p.db.QueryRowContext(ctx, `SELECT document FROM roster_plans WHERE id=$1`, id).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return export.Document{}, corestore.ErrNotFound
	}
	if err != nil {
		return export.Document{}, err
	}
	var doc export.Document
	if err := json.Unmarshal(body, &doc); err != nil {
		return export.Document{}, fmt.Errorf("decode plan %s: %w", id, err)
	}
	return doc, nil
}

// ListPlans implements store.PlanStore.
func (p *Postgres) ListPlans(ctx context.Context, limit int) ([]corestore.PlanSummary, error) {
	if limit <= 0 {
		limit = corestore.DefaultListLimit
	}
	rows, err := p.db.QueryContext(ctx, `SELECT id, created_at,
			`+jsonCount("assignments")+`, `+jsonCount("unassigned")+`, `+jsonCount("conflicts")+`
		FROM roster_plans ORDER BY created_at DESC, id LIMIT $1`, limit)
	if err != nil {
		return nil, err
	}
	defer func() { _ = rows.Close() }()
	var res []corestore.PlanSummary
	for rows.Next() {
		var s corestore.PlanSummary
		if err := rows.Scan(&s.ID, &s.CreatedAt, &s.Assigned, &s.Unassigned, &s.Conflicts); err != nil {
			return nil, err
		}
		s.CreatedAt = s.CreatedAt.UTC()
		res = append(res, s)
	}
	return res, rows.Err()
}

// jsonCount counts the elements of a document array, treating null as empty.
func jsonCount(field string) string {
	return fmt.Sprintf(`CASE WHEN jsonb_typeof(document->'%[1]s') = 'array' THEN jsonb_array_length(document->'%[1]s') ELSE 0 END`, field)
}

func minutes(d time.Duration) int64 { return int64(d / time.Minute) }

func nullDate(d model.Date) any {
	if d.IsZero() {
		return nil
	}
	return d.Time()
}

func bound(d model.Date, open string) string {
	if d.IsZero() {
		return open
	}
	return d.String()
}

// horizon returns every day between from and to. An open bound is replaced
// by the earliest or latest route date.
func horizon(from, to model.Date, routes []model.Route) []model.Date {
	lo, hi := from, to
	for _, r := range routes {
		if from.IsZero() && (lo.IsZero() || r.Date.Before(lo)) {
			lo = r.Date
		}
		if to.IsZero() && (hi.IsZero() || r.Date.After(hi)) {
			hi = r.Date
		}
	}
	if lo.IsZero() || hi.IsZero() {
		return nil
	}
	return model.DateRange(lo, hi)
}
