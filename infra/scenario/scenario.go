// Package scenario reads planning inputs from YAML or JSON documents. The same
// document shape is accepted by the CLI (--input) and by the HTTP API.
package scenario

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/kilianp07/roster/core/model"
)

// Hours is an hour quantity written as "H:MM" or as a number of hours.
type Hours time.Duration

func (h *Hours) set(s string) error {
	d, err := model.ParseHours(s)
	if err != nil {
		return err
	}
	*h = Hours(d)
	return nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (h *Hours) UnmarshalYAML(n *yaml.Node) error { return h.set(n.Value) }

// UnmarshalJSON accepts a string or a number.
func (h *Hours) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err == nil {
		return h.set(s)
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return fmt.Errorf("hours must be a string or a number: %s", b)
	}
	return h.set(strconv.FormatFloat(f, 'f', -1, 64))
}

func (h Hours) MarshalYAML() (any, error) { return model.FormatHours(time.Duration(h)), nil }

func (h Hours) MarshalJSON() ([]byte, error) {
	return json.Marshal(model.FormatHours(time.Duration(h)))
}

type Driver struct {
	ID              string `yaml:"id" json:"id"`
	Name            string `yaml:"name,omitempty" json:"name,omitempty"`
	MonthlyHours    Hours  `yaml:"monthly_hours" json:"monthly_hours"`
	MaxRoutesPerDay int    `yaml:"max_routes_per_day,omitempty" json:"max_routes_per_day,omitempty"`
}

type Route struct {
	// ID defaults to "<name>@<date>".
	ID       string     `yaml:"id,omitempty" json:"id,omitempty"`
	Name     string     `yaml:"name" json:"name"`
	Date     model.Date `yaml:"date" json:"date"`
	Duration *Hours     `yaml:"duration,omitempty" json:"duration,omitempty"`
}

type Availability struct {
	Driver    string     `yaml:"driver" json:"driver"`
	Date      model.Date `yaml:"date" json:"date"`
	Available *bool      `yaml:"available,omitempty" json:"available,omitempty"`
	Hours     *Hours     `yaml:"hours,omitempty" json:"hours,omitempty"`
	MaxRoutes int        `yaml:"max_routes,omitempty" json:"max_routes,omitempty"`
}

type Rule struct {
	ID        string     `yaml:"id,omitempty" json:"id,omitempty"`
	Driver    string     `yaml:"driver" json:"driver"`
	Route     string     `yaml:"route" json:"route"`
	Priority  int        `yaml:"priority" json:"priority"`
	Weekday   string     `yaml:"weekday,omitempty" json:"weekday,omitempty"`
	Active    *bool      `yaml:"active,omitempty" json:"active,omitempty"`
	ValidFrom model.Date `yaml:"valid_from,omitempty" json:"valid_from,omitempty"`
	ValidTo   model.Date `yaml:"valid_to,omitempty" json:"valid_to,omitempty"`
}

// File is a complete planning input. The horizon is Dates when given, else
// every day from From to To, else every day spanned by the routes.
type File struct {
	Name         string         `yaml:"name,omitempty" json:"name,omitempty"`
	Description  string         `yaml:"description,omitempty" json:"description,omitempty"`
	From         model.Date     `yaml:"from,omitempty" json:"from,omitempty"`
	To           model.Date     `yaml:"to,omitempty" json:"to,omitempty"`
	Dates        []model.Date   `yaml:"dates,omitempty" json:"dates,omitempty"`
	Drivers      []Driver       `yaml:"drivers" json:"drivers"`
	Routes       []Route        `yaml:"routes" json:"routes"`
	Availability []Availability `yaml:"availability,omitempty" json:"availability,omitempty"`
	Rules        []Rule         `yaml:"rules,omitempty" json:"rules,omitempty"`
}

// Options holds the defaults applied while converting a File.
type Options struct {
	// DefaultDuration applies to routes without a duration.
	DefaultDuration time.Duration
}

// DefaultOptions matches the planning sheets: routes without a duration last
// eight hours.
func DefaultOptions() Options { return Options{DefaultDuration: 8 * time.Hour} }

// Parse decodes a YAML or JSON document.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("decode scenario: %w", err)
	}
	return &f, nil
}

// Load reads and decodes the file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

func (f *File) horizon() []model.Date {
	switch {
	case len(f.Dates) > 0:
		return append([]model.Date(nil), f.Dates...)
	case !f.From.IsZero() && !f.To.IsZero():
		return model.DateRange(f.From, f.To)
	}
	var lo, hi model.Date
	for _, r := range f.Routes {
		if lo.IsZero() || r.Date.Before(lo) {
			lo = r.Date
		}
		if hi.IsZero() || r.Date.After(hi) {
			hi = r.Date
		}
	}
	if lo.IsZero() {
		return nil
	}
	return model.DateRange(lo, hi)
}

// Input converts f into an engine input. Structural checks are left to the
// engine.
func (f *File) Input(opts Options) model.Input {
	in := model.Input{Horizon: f.horizon()}
	for _, d := range f.Drivers {
		in.Drivers = append(in.Drivers, model.Driver{
			ID:              d.ID,
			Name:            d.Name,
			MonthlyBudget:   time.Duration(d.MonthlyHours),
			MaxRoutesPerDay: d.MaxRoutesPerDay,
		})
	}
	for _, r := range f.Routes {
		dur := opts.DefaultDuration
		if r.Duration != nil {
			dur = time.Duration(*r.Duration)
		}
		id := r.ID
		if id == "" {
			id = r.Name + "@" + r.Date.String()
		}
		in.Routes = append(in.Routes, model.Route{ID: id, Name: r.Name, Date: r.Date, Duration: dur})
	}
	for _, a := range f.Availability {
		av := model.Availability{DriverID: a.Driver, Date: a.Date, Available: true, MaxRoutes: a.MaxRoutes}
		if a.Available != nil {
			av.Available = *a.Available
		}
		if a.Hours != nil {
			av.Hours = time.Duration(*a.Hours)
		}
		in.Availability = append(in.Availability, av)
	}
	for i, r := range f.Rules {
		id := r.ID
		if id == "" {
			id = fmt.Sprintf("rule-%d", i+1)
		}
		active := true
		if r.Active != nil {
			active = *r.Active
		}
		weekday := r.Weekday
		if weekday == "" {
			weekday = model.AnyWeekday
		}
		in.Rules = append(in.Rules, model.FixedRule{
			ID:           id,
			DriverID:     r.Driver,
			RoutePattern: r.Route,
			Priority:     r.Priority,
			Weekday:      weekday,
			Active:       active,
			ValidFrom:    r.ValidFrom,
			ValidTo:      r.ValidTo,
			Seq:          i,
		})
	}
	return in
}

// Window restricts in to the dates between from and to inclusive. Zero bounds
// are open.
func Window(in model.Input, from, to model.Date) model.Input {
	inside := func(d model.Date) bool {
		return (from.IsZero() || !d.Before(from)) && (to.IsZero() || !d.After(to))
	}
	out := model.Input{Drivers: in.Drivers, Rules: in.Rules}
	for _, d := range in.Horizon {
		if inside(d) {
			out.Horizon = append(out.Horizon, d)
		}
	}
	for _, r := range in.Routes {
		if inside(r.Date) {
			out.Routes = append(out.Routes, r)
		}
	}
	for _, a := range in.Availability {
		if inside(a.Date) {
			out.Availability = append(out.Availability, a)
		}
	}
	return out
}

// FileSource loads inputs from a scenario file on every call.
type FileSource struct {
	Path    string
	Options Options
}

// NewFileSource returns a source reading path with DefaultOptions.
func NewFileSource(path string) *FileSource {
	return &FileSource{Path: path, Options: DefaultOptions()}
}

// Load implements store.Source.
func (s *FileSource) Load(ctx context.Context, from, to model.Date) (model.Input, error) {
	if err := ctx.Err(); err != nil {
		return model.Input{}, err
	}
	f, err := Load(s.Path)
	if err != nil {
		return model.Input{}, err
	}
	return Window(f.Input(s.Options), from, to), nil
}
