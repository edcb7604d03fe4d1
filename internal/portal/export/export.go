package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"

	"citizenportal.org/portal-web/internal/portal/engagement"
)

// SheetName is the worksheet holding engagement rows.
const SheetName = "Engagements"

// CSVFilename and XLSXFilename are the attachment names offered to the browser.
const (
	CSVFilename  = "engagements.csv"
	XLSXFilename = "engagements.xlsx"
	XLSXMimeType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

// columns matches the backend CSV export: desires are comma-joined without spaces.
func columns(r engagement.Record) []string {
	return []string{
		r.UserID,
		r.Age.String(),
		r.Job,
		strings.Join(r.Desires, ","),
		r.QuestionClicked,
		r.Service,
		r.Timestamp,
	}
}

// WriteCSV writes records with the backend export header.
func WriteCSV(w io.Writer, records []engagement.Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(engagement.Header); err != nil {
		return fmt.Errorf("export: write csv header: %w", err)
	}
	for _, r := range records {
		if err := cw.Write(columns(r)); err != nil {
			return fmt.Errorf("export: write csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: flush csv: %w", err)
	}
	return nil
}

// WriteXLSX writes records as a single-sheet workbook.
func WriteXLSX(w io.Writer, records []engagement.Record) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetName); err != nil {
		return fmt.Errorf("export: rename sheet: %w", err)
	}
	if err := setRow(f, 1, engagement.Header); err != nil {
		return err
	}
	for i, r := range records {
		if err := setRow(f, i+2, columns(r)); err != nil {
			return err
		}
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("export: write workbook: %w", err)
	}
	return nil
}

func setRow(f *excelize.File, row int, values []string) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("export: cell name: %w", err)
	}
	cells := make([]any, len(values))
	for i, v := range values {
		cells[i] = v
	}
	if err := f.SetSheetRow(SheetName, cell, &cells); err != nil {
		return fmt.Errorf("export: set row %d: %w", row, err)
	}
	return nil
}
