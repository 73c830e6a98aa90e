package roster

import "github.com/kilianp07/roster/core/model"

// FormatGrid expands assignments into the dense drivers by dates grid. A cell
// with at least one assignment is assigned; otherwise it is unavailable when
// unavailable reports so, else empty.
func FormatGrid(dates []model.Date, drivers []string, assignments []model.Assignment, unavailable func(driverID string, d model.Date) bool) model.Grid {
	byCell := make(map[dayKey][]model.Assignment, len(assignments))
	for _, a := range assignments {
		k := dayKey{a.DriverID, a.Date}
		byCell[k] = append(byCell[k], a)
	}

	g := model.Grid{
		Dates:   append([]model.Date(nil), dates...),
		Drivers: append([]string(nil), drivers...),
		Cells:   make([][]model.Cell, len(drivers)),
	}
	for i, id := range drivers {
		row := make([]model.Cell, len(dates))
		for j, d := range dates {
			c := model.Cell{DriverID: id, Date: d}
			switch as := byCell[dayKey{id, d}]; {
			case len(as) > 0:
				c.State = model.CellAssigned
				c.Assignments = as
			case unavailable != nil && unavailable(id, d):
				c.State = model.CellUnavailable
			default:
				c.State = model.CellEmpty
			}
			row[j] = c
		}
		g.Cells[i] = row
	}
	return g
}
