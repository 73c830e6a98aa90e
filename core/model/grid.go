package model

// CellState is the state of one driver/date cell of the roster grid.
type CellState int

const (
	CellEmpty CellState = iota
	CellAssigned
	CellUnavailable
)

func (s CellState) String() string {
	switch s {
	case CellAssigned:
		return "assigned"
	case CellUnavailable:
		return "unavailable"
	default:
		return "empty"
	}
}

// Cell is one entry of the grid. Assignments is non-empty only for
// CellAssigned.
type Cell struct {
	DriverID    string
	Date        Date
	State       CellState
	Assignments []Assignment
}

// Grid is the dense driver by date matrix. Cells[i][j] belongs to Drivers[i]
// on Dates[j].
type Grid struct {
	Dates   []Date
	Drivers []string
	Cells   [][]Cell
}

// Size returns the number of cells.
func (g Grid) Size() int {
	n := 0
	for _, row := range g.Cells {
		n += len(row)
	}
	return n
}

// Cell returns the cell for driverID on d.
func (g Grid) Cell(driverID string, d Date) (Cell, bool) {
	for i, id := range g.Drivers {
		if id != driverID {
			continue
		}
		for j, day := range g.Dates {
			if day == d {
				return g.Cells[i][j], true
			}
		}
	}
	return Cell{}, false
}
