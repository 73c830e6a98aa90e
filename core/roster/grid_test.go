package roster

import (
	"testing"

	"github.com/kilianp07/roster/core/model"
)

func TestFormatGrid(t *testing.T) {
	d := days(3)
	asn := []model.Assignment{
		{DriverID: "a", RouteID: "r1", Date: d[0]},
		{DriverID: "a", RouteID: "r2", Date: d[0]},
		{DriverID: "b", RouteID: "r3", Date: d[2]},
	}
	off := func(id string, day model.Date) bool { return id == "b" && day == d[1] }
	g := FormatGrid(d, []string{"a", "b", "c"}, asn, off)

	if g.Size() != 9 {
		t.Fatalf("expected 9 cells got %d", g.Size())
	}
	tests := []struct {
		driver string
		day    model.Date
		state  model.CellState
		n      int
	}{
		{"a", d[0], model.CellAssigned, 2},
		{"a", d[1], model.CellEmpty, 0},
		{"b", d[1], model.CellUnavailable, 0},
		{"b", d[2], model.CellAssigned, 1},
		{"c", d[2], model.CellEmpty, 0},
	}
	for _, tt := range tests {
		c, ok := g.Cell(tt.driver, tt.day)
		if !ok {
			t.Fatalf("missing cell %s/%s", tt.driver, tt.day)
		}
		if c.State != tt.state || len(c.Assignments) != tt.n {
			t.Fatalf("cell %s/%s: got %s with %d assignments", tt.driver, tt.day, c.State, len(c.Assignments))
		}
	}
}

func TestFormatGrid_AssignedWinsOverUnavailable(t *testing.T) {
	d := days(1)
	asn := []model.Assignment{{DriverID: "a", RouteID: "r1", Date: d[0]}}
	g := FormatGrid(d, []string{"a"}, asn, func(string, model.Date) bool { return true })
	if g.Cells[0][0].State != model.CellAssigned {
		t.Fatalf("expected assigned got %s", g.Cells[0][0].State)
	}
}
