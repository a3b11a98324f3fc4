package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/farewatch/fare-service/internal/aggregate"
	"github.com/farewatch/fare-service/internal/merge"
)

// Sheet names of the exported workbook
const (
	SheetOffers    = "Offers"
	SheetPrices    = "Prices"
	SheetBestDates = "Best Dates"
)

// Workbook is the content of an XLSX export. Nil parts are left out.
type Workbook struct {
	Offers    []merge.Offer
	Prices    *aggregate.Table
	BestDates []aggregate.BestDate
}

// WriteXLSX writes the workbook to w
func WriteXLSX(w io.Writer, wb Workbook) error {
	f, err := wb.build()
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func (wb Workbook) build() (*excelize.File, error) {
	f := excelize.NewFile()
	first := f.GetSheetName(0)

	var sheets []string
	if wb.Offers != nil {
		if err := writeOffers(f, wb.Offers); err != nil {
			return nil, err
		}
		sheets = append(sheets, SheetOffers)
	}
	if wb.Prices != nil {
		if err := writePrices(f, wb.Prices); err != nil {
			return nil, err
		}
		sheets = append(sheets, SheetPrices)
	}
	if wb.BestDates != nil {
		if err := writeBestDates(f, wb.BestDates); err != nil {
			return nil, err
		}
		sheets = append(sheets, SheetBestDates)
	}
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has nothing to export")
	}

	if err := f.DeleteSheet(first); err != nil {
		return nil, fmt.Errorf("failed to remove default sheet: %w", err)
	}
	idx, err := f.GetSheetIndex(sheets[0])
	if err != nil {
		return nil, err
	}
	f.SetActiveSheet(idx)
	return f, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create sheet %s: %w", sheet, err)
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}

func price(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}

func writeOffers(f *excelize.File, offers []merge.Offer) error {
	rows := [][]any{{
		"Query", "Entity", "Segment", "Search date", "Origin", "Destination", "Airline",
		"Departure", "Arrival", "Minutes", "Stops", "Layover", "Price", "CO2 kg", "Emissions %",
	}}
	for _, o := range offers {
		var arrival, layover, co2, diff any
		if o.ArrivalTime != nil {
			arrival = o.ArrivalTime.Format("2006-01-02 15:04")
		}
		if o.Layover != nil {
			layover = *o.Layover
		}
		if o.CO2EmissionKg != nil {
			co2 = *o.CO2EmissionKg
		}
		if o.EmissionDiffPercent != nil {
			diff = *o.EmissionDiffPercent
		}
		rows = append(rows, []any{
			o.QueryID, o.Entity, o.SegmentIndex, aggregate.Day(o), o.Origin, o.Destination, o.Airline,
			o.DepartureTime.Format("2006-01-02 15:04"), arrival, o.TravelTimeMinutes, o.NumStops,
			layover, price(o.Price), co2, diff,
		})
	}
	return writeRows(f, SheetOffers, rows)
}

func writePrices(f *excelize.File, tbl *aggregate.Table) error {
	header := []any{string(tbl.Key)}
	for _, d := range tbl.Dates {
		header = append(header, d)
	}
	header = append(header, "Average")

	rows := [][]any{header}
	for _, row := range tbl.Rows {
		r := []any{row.Key}
		for _, cell := range row.Cells {
			r = append(r, price(cell.Price))
		}
		r = append(r, price(row.Average))
		rows = append(rows, r)
	}
	return writeRows(f, SheetPrices, rows)
}

func writeBestDates(f *excelize.File, dates []aggregate.BestDate) error {
	rows := [][]any{{"Rank", "Date", "Price", "Routes"}}
	for i, d := range dates {
		rows = append(rows, []any{i + 1, d.Date, d.Price, d.Routes})
	}
	return writeRows(f, SheetBestDates, rows)
}
