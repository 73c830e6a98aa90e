package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"
)

// Formats accepted by Write.
const (
	FormatJSON = "json"
	FormatCSV  = "csv"
	FormatGrid = "grid"
	FormatText = "text"
)

// Write renders doc in the named format.
func Write(w io.Writer, format string, doc Document) error {
	switch format {
	case FormatJSON, "":
		return WriteJSON(w, doc)
	case FormatCSV:
		return WriteCSV(w, doc)
	case FormatGrid:
		return WriteGridCSV(w, doc)
	case FormatText:
		return WriteText(w, doc)
	default:
		return fmt.Errorf("unknown format %q", format)
	}
}

// WriteJSON writes the plan document to w in JSON format.
func WriteJSON(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

// WriteCSV writes one row per committed assignment.
func WriteCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "driver_id", "route_id", "route", "hours", "origin"}); err != nil {
		return err
	}
	for _, a := range doc.Assignments {
		if err := cw.Write([]string{a.Date.String(), a.DriverID, a.RouteID, a.Route, a.Hours, a.Origin}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteGridCSV writes the driver by date grid: a header of dates, then one
// row per driver.
func WriteGridCSV(w io.Writer, doc Document) error {
	cw := csv.NewWriter(w)
	header := make([]string, 0, len(doc.Grid.Dates)+1)
	header = append(header, "driver")
	for _, d := range doc.Grid.Dates {
		header = append(header, d.String())
	}
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range doc.Grid.Rows {
		name := row.Name
		if name == "" {
			name = row.DriverID
		}
		if err := cw.Write(append([]string{name}, row.Cells...)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteText prints the day reports, driver usage and unassigned routes as
// aligned tables.
func WriteText(w io.Writer, doc Document) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "plan %s\n\n", doc.ID)
	fmt.Fprintln(tw, "DATE\tDAY\tROUTES\tFIXED\tOPTIMIZED\tUNASSIGNED\tRATE\tSTATUS")
	for _, d := range doc.Days {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%s%%\t%s\n", d.Date, abbrev(d.Weekday), d.Routes, d.Fixed,
			d.Optimized, d.Unassigned, strconv.FormatFloat(d.Rate*100, 'f', 1, 64), d.Status)
	}
	fmt.Fprintln(tw)
	fmt.Fprintln(tw, "DRIVER\tBUDGET\tUSED\tREMAINING\tROUTES\tUTILISATION")
	for _, u := range doc.Drivers {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s%%\n", u.Name, u.Budget, u.Used, u.Remaining, u.Routes,
			strconv.FormatFloat(u.Utilisation*100, 'f', 1, 64))
	}
	if len(doc.Unassigned) > 0 {
		fmt.Fprintln(tw)
		fmt.Fprintln(tw, "UNASSIGNED\tDATE\tHOURS")
		for _, r := range doc.Unassigned {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Name, r.Date, r.Hours)
		}
	}
	return tw.Flush()
}

func abbrev(s string) string {
	if len(s) > 3 {
		return s[:3]
	}
	return s
}
