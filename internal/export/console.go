// Package export writes offers and aggregates as console tables, JSON and
// XLSX workbooks.
package export

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/jedib0t/go-pretty/v6/table"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/farewatch/fare-service/internal/aggregate"
	"github.com/farewatch/fare-service/internal/merge"
	"github.com/farewatch/fare-service/internal/query"
)

// Missing is printed for cells without a price
const Missing = "-"

var printer = message.NewPrinter(language.English)

// FormatPrice renders a price with thousands separators, or Missing when nil
func FormatPrice(p *float64) string {
	if p == nil {
		return Missing
	}
	return printer.Sprintf("%.2f", *p)
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetStyle(table.StyleRounded)
	t.SetOutputMirror(w)
	return t
}

// OffersTable prints one row per offer in merge order
func OffersTable(w io.Writer, offers []merge.Offer) {
	t := newTable(w)
	t.AppendHeader(table.Row{"Entity", "Date", "Route", "Airline", "Depart", "Arrive", "Duration", "Stops", "Price"})
	for _, o := range offers {
		arrive := Missing
		if o.ArrivalTime != nil {
			arrive = o.ArrivalTime.Format("Jan 2 15:04")
		}
		stops := strconv.Itoa(o.NumStops)
		if o.Layover != nil {
			stops += " (" + *o.Layover + ")"
		}
		t.AppendRow(table.Row{
			o.Entity,
			aggregate.Day(o),
			o.Origin + "-" + o.Destination,
			o.Airline,
			o.DepartureTime.Format("Jan 2 15:04"),
			arrive,
			fmt.Sprintf("%dh%02dm", o.TravelTimeMinutes/60, o.TravelTimeMinutes%60),
			stops,
			FormatPrice(o.Price),
		})
	}
	t.AppendFooter(table.Row{"", "", "", "", "", "", "", "Offers", len(offers)})
	t.Render()
}

// PriceTable prints a wide key-by-date table with a trailing average column
func PriceTable(w io.Writer, tbl *aggregate.Table) {
	t := newTable(w)

	header := table.Row{string(tbl.Key)}
	for _, d := range tbl.Dates {
		header = append(header, d)
	}
	header = append(header, "Average")
	t.AppendHeader(header)

	for _, row := range tbl.Rows {
		r := table.Row{row.Key}
		for _, cell := range row.Cells {
			r = append(r, FormatPrice(cell.Price))
		}
		r = append(r, FormatPrice(row.Average))
		t.AppendRow(r)
	}
	t.Render()
}

// BestDatesTable prints a ranking, cheapest first
func BestDatesTable(w io.Writer, dates []aggregate.BestDate) {
	t := newTable(w)
	t.AppendHeader(table.Row{"#", "Date", "Weekday", "Price", "Routes"})
	for i, d := range dates {
		weekday := ""
		if day, err := query.ParseDates([]string{d.Date}); err == nil && len(day) == 1 {
			weekday = day[0].Weekday().String()
		}
		price := d.Price
		t.AppendRow(table.Row{i + 1, d.Date, weekday, FormatPrice(&price), d.Routes})
	}
	t.Render()
}

// WriteJSON writes v as indented JSON
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode json: %w", err)
	}
	return nil
}
