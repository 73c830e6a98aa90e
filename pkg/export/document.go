package export

import (
	"strings"
	"time"

	"github.com/kilianp07/roster/core/model"
	"github.com/kilianp07/roster/core/roster"
)

// UnavailableMarker fills grid cells of drivers who cannot work that date.
const UnavailableMarker = "F"

// Document is the serialisable form of a committed plan. Hours are rendered
// as "H:MM".
type Document struct {
	ID          string       `json:"id"`
	CreatedAt   time.Time    `json:"created_at"`
	Horizon     []model.Date `json:"horizon"`
	Assignments []Assignment `json:"assignments"`
	Unassigned  []Route      `json:"unassigned"`
	Grid        Grid         `json:"grid"`
	Days        []Day        `json:"days"`
	Drivers     []Driver     `json:"drivers"`
	Conflicts   []Conflict   `json:"conflicts,omitempty"`
}

type Assignment struct {
	DriverID string     `json:"driver_id"`
	RouteID  string     `json:"route_id"`
	Route    string     `json:"route"`
	Date     model.Date `json:"date"`
	Hours    string     `json:"hours"`
	Origin   string     `json:"origin"`
}

type Route struct {
	ID    string     `json:"id"`
	Name  string     `json:"name"`
	Date  model.Date `json:"date"`
	Hours string     `json:"hours"`
}

// Grid holds one row per driver and one cell per horizon date. A cell holds
// the route names joined by "+", UnavailableMarker, or "".
type Grid struct {
	Dates []model.Date `json:"dates"`
	Rows  []GridRow    `json:"rows"`
}

type GridRow struct {
	DriverID string   `json:"driver_id"`
	Name     string   `json:"name"`
	Cells    []string `json:"cells"`
}

type Day struct {
	Date       model.Date `json:"date"`
	Weekday    string     `json:"weekday"`
	Routes     int        `json:"routes"`
	Assigned   int        `json:"assigned"`
	Fixed      int        `json:"fixed"`
	Optimized  int        `json:"optimized"`
	Unassigned int        `json:"unassigned"`
	Rate       float64    `json:"rate"`
	Status     string     `json:"status"`
	Nodes      int        `json:"nodes"`
	ElapsedMS  float64    `json:"elapsed_ms"`
}

type Driver struct {
	DriverID    string  `json:"driver_id"`
	Name        string  `json:"name"`
	Budget      string  `json:"budget"`
	Used        string  `json:"used"`
	Remaining   string  `json:"remaining"`
	Routes      int     `json:"routes"`
	Utilisation float64 `json:"utilisation"`
}

type Conflict struct {
	RouteID   string     `json:"route_id"`
	RouteName string     `json:"route_name"`
	Date      model.Date `json:"date"`
	Priority  int        `json:"priority"`
	RuleIDs   []string   `json:"rule_ids"`
}

// NewDocument renders p.
func NewDocument(id string, createdAt time.Time, p *roster.Plan) Document {
	doc := Document{
		ID:        id,
		CreatedAt: createdAt.UTC(),
		Horizon:   p.Horizon,
	}
	for _, a := range p.Assignments {
		doc.Assignments = append(doc.Assignments, Assignment{
			DriverID: a.DriverID,
			RouteID:  a.RouteID,
			Route:    a.RouteName,
			Date:     a.Date,
			Hours:    model.FormatHours(a.Hours),
			Origin:   string(a.Origin),
		})
	}
	for _, r := range p.Unassigned {
		doc.Unassigned = append(doc.Unassigned, Route{ID: r.ID, Name: r.Name, Date: r.Date, Hours: model.FormatHours(r.Duration)})
	}

	names := make(map[string]string, len(p.Drivers))
	for _, u := range p.Drivers {
		names[u.DriverID] = u.Name
		doc.Drivers = append(doc.Drivers, Driver{
			DriverID:    u.DriverID,
			Name:        u.Name,
			Budget:      model.FormatHours(u.Budget),
			Used:        model.FormatHours(u.Used),
			Remaining:   model.FormatHours(u.Remaining),
			Routes:      u.Routes,
			Utilisation: u.Utilisation,
		})
	}

	doc.Grid.Dates = p.Grid.Dates
	for i, id := range p.Grid.Drivers {
		row := GridRow{DriverID: id, Name: names[id], Cells: make([]string, len(p.Grid.Cells[i]))}
		for j, c := range p.Grid.Cells[i] {
			row.Cells[j] = cellText(c)
		}
		doc.Grid.Rows = append(doc.Grid.Rows, row)
	}

	for _, d := range p.Days {
		doc.Days = append(doc.Days, Day{
			Date:       d.Date,
			Weekday:    d.Weekday.String(),
			Routes:     d.Routes,
			Assigned:   d.Assigned,
			Fixed:      d.Fixed,
			Optimized:  d.Optimized,
			Unassigned: d.Unassigned,
			Rate:       d.Rate,
			Status:     string(d.Status),
			Nodes:      d.Nodes,
			ElapsedMS:  float64(d.Elapsed) / float64(time.Millisecond),
		})
	}
	for _, c := range p.Conflicts {
		doc.Conflicts = append(doc.Conflicts, Conflict{
			RouteID:   c.RouteID,
			RouteName: c.RouteName,
			Date:      c.Date,
			Priority:  c.Priority,
			RuleIDs:   c.RuleIDs,
		})
	}
	return doc
}

func cellText(c model.Cell) string {
	switch c.State {
	case model.CellAssigned:
		names := make([]string, len(c.Assignments))
		for i, a := range c.Assignments {
			names[i] = a.RouteName
		}
		return strings.Join(names, "+")
	case model.CellUnavailable:
		return UnavailableMarker
	default:
		return ""
	}
}

// AssignmentsFor returns the assignments of driverID in plan order.
func (d Document) AssignmentsFor(driverID string) []Assignment {
	var out []Assignment
	for _, a := range d.Assignments {
		if a.DriverID == driverID {
			out = append(out, a)
		}
	}
	return out
}
