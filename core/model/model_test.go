package model

import (
	"testing"
	"time"
)

func TestParseHours(t *testing.T) {
	tests := []struct {
		in   string
		want time.Duration
		err  bool
	}{
		{"8:00", 8 * time.Hour, false},
		{"7:45", 7*time.Hour + 45*time.Minute, false},
		{" 10:05 ", 10*time.Hour + 5*time.Minute, false},
		{"8.5", 8*time.Hour + 30*time.Minute, false},
		{"6", 6 * time.Hour, false},
		{"8:60", 0, true},
		{"x:10", 0, true},
		{"", 0, true},
		{"abc", 0, true},
		{"-0:30", 0, true},
		{"-1:15", 0, true},
		{"0:-5", 0, true},
		{"+2:00", 0, true},
	}
	for _, tt := range tests {
		got, err := ParseHours(tt.in)
		if tt.err {
			if err == nil {
				t.Fatalf("%q: expected error", tt.in)
			}
			continue
		}
		if err != nil || got != tt.want {
			t.Fatalf("%q: got %s, %v want %s", tt.in, got, err, tt.want)
		}
	}
}

func TestFormatHours(t *testing.T) {
	if got := FormatHours(8*time.Hour + 5*time.Minute); got != "8:05" {
		t.Fatalf("got %s", got)
	}
	if got := FormatHours(-90 * time.Minute); got != "-1:30" {
		t.Fatalf("got %s", got)
	}
	if got := FormatHours(0); got != "0:00" {
		t.Fatalf("got %s", got)
	}
}

func TestDate(t *testing.T) {
	d, err := ParseDate("2025-03-08")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if d.Weekday() != time.Saturday {
		t.Fatalf("expected saturday got %s", d.Weekday())
	}
	if ws := d.WeekStart(); ws != NewDate(2025, time.March, 3) {
		t.Fatalf("unexpected week start %s", ws)
	}
	if next := NewDate(2025, time.February, 28).AddDays(1); next.String() != "2025-03-01" {
		t.Fatalf("unexpected rollover %s", next)
	}
	if !d.After(d.AddDays(-1)) || !d.Before(d.AddDays(1)) || d.Compare(d) != 0 {
		t.Fatalf("comparison broken")
	}
	if _, err := ParseDate("08/03/2025"); err == nil {
		t.Fatalf("expected parse error")
	}

	var back Date
	b, _ := d.MarshalText()
	if err := back.UnmarshalText(b); err != nil || back != d {
		t.Fatalf("text round trip: %v %s", err, back)
	}
}

func TestDateRange(t *testing.T) {
	start := NewDate(2025, time.March, 30)
	r := DateRange(start, start.AddDays(3))
	if len(r) != 4 || r[3].String() != "2025-04-02" {
		t.Fatalf("unexpected range %v", r)
	}
	if DateRange(start, start.AddDays(-1)) != nil {
		t.Fatalf("expected nil for inverted range")
	}
}

func TestFixedRuleAppliesTo(t *testing.T) {
	sat := NewDate(2025, time.March, 8)
	r := FixedRule{ID: "r", DriverID: "d", RoutePattern: "452*", Priority: 1, Weekday: "Saturday", Active: true}
	tests := []struct {
		name  string
		rule  FixedRule
		route Route
		want  bool
	}{
		{"match", r, Route{Name: "452SA", Date: sat}, true},
		{"other weekday", r, Route{Name: "452SA", Date: sat.AddDays(1)}, false},
		{"other name", r, Route{Name: "453SA", Date: sat}, false},
		{"inactive", FixedRule{RoutePattern: "452SA", Active: false}, Route{Name: "452SA", Date: sat}, false},
		{"any weekday", FixedRule{RoutePattern: "452SA", Weekday: AnyWeekday, Active: true}, Route{Name: "452SA", Date: sat.AddDays(2)}, true},
		{"before range", FixedRule{RoutePattern: "*", Active: true, ValidFrom: sat.AddDays(1)}, Route{Name: "x", Date: sat}, false},
		{"after range", FixedRule{RoutePattern: "*", Active: true, ValidTo: sat.AddDays(-1)}, Route{Name: "x", Date: sat}, false},
		{"inside range", FixedRule{RoutePattern: "*", Active: true, ValidFrom: sat, ValidTo: sat}, Route{Name: "x", Date: sat}, true},
	}
	for _, tt := range tests {
		if got := tt.rule.AppliesTo(tt.route); got != tt.want {
			t.Fatalf("%s: got %v want %v", tt.name, got, tt.want)
		}
	}
}

func TestParseWeekdayScope(t *testing.T) {
	if _, anyDay, err := ParseWeekdayScope(""); err != nil || !anyDay {
		t.Fatalf("empty scope should mean any day")
	}
	if d, anyDay, err := ParseWeekdayScope("monday"); err != nil || anyDay || d != time.Monday {
		t.Fatalf("unexpected result %v %v %v", d, anyDay, err)
	}
	if _, _, err := ParseWeekdayScope("someday"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestGridCell(t *testing.T) {
	d := NewDate(2025, time.March, 3)
	g := Grid{
		Dates:   []Date{d},
		Drivers: []string{"a"},
		Cells:   [][]Cell{{{DriverID: "a", Date: d, State: CellUnavailable}}},
	}
	if g.Size() != 1 {
		t.Fatalf("size %d", g.Size())
	}
	c, ok := g.Cell("a", d)
	if !ok || c.State.String() != "unavailable" {
		t.Fatalf("unexpected cell %+v", c)
	}
	if _, ok := g.Cell("b", d); ok {
		t.Fatalf("unexpected cell for unknown driver")
	}
}
