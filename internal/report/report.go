// Package report exports score breakdowns as xlsx workbooks.
package report

import (
	"fmt"
	"io"

	"github.com/spigell/talentscore/internal/scoring"
	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet holding the rows.
const SheetName = "Matches"

// Header is the first row of the sheet.
var Header = []any{"Job ID", "Title", "Company", "Resume", "Job", "Match", "Risk", "Overall", "Recommendation", "Confidence"}

// Row is one job scored against the report's candidate.
type Row struct {
	JobID     string
	Title     string
	Company   string
	Breakdown scoring.Breakdown
}

func (r Row) cells() []any {
	b := r.Breakdown
	return []any{r.JobID, r.Title, r.Company, b.Resume, b.Job, b.Match, b.Risk, b.Overall, string(b.Recommendation), string(b.Confidence)}
}

// Build returns a workbook with one header row and one row per item. The
// caller closes it.
func Build(rows []Row) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("rename sheet: %w", err)
	}

	if err := f.SetSheetRow(SheetName, "A1", &Header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("write header: %w", err)
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			_ = f.Close()
			return nil, err
		}
		values := r.cells()
		if err := f.SetSheetRow(SheetName, cell, &values); err != nil {
			_ = f.Close()
			return nil, fmt.Errorf("write row %d: %w", i+2, err)
		}
	}

	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	return f, nil
}

// Write streams the workbook of rows to w.
func Write(w io.Writer, rows []Row) error {
	f, err := Build(rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

// WriteFile saves the workbook of rows at path.
func WriteFile(path string, rows []Row) error {
	f, err := Build(rows)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}
