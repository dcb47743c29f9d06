// Package export writes processing results to files: an Excel workbook with
// the cleaned data, the removal report, and the column profile, plus a CSV
// export in the original Bibliojobs format.
package export

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/bibliojobs/sift/internal/dedup"
	"github.com/bibliojobs/sift/internal/profile"
	"github.com/bibliojobs/sift/internal/record"
)

const (
	SheetData     = "Daten"
	SheetRemovals = "Duplikate"
	SheetProfile  = "Profil"
)

var profileHeader = []string{
	"column", "rows", "missing", "missing %", "unique",
	"top error", "errors", "error %", "top value", "top value %",
}

var removalHeader = []string{"record", "cluster", "matched records", "reason"}

// WriteExcel writes records, removals, and the profile into one workbook.
// Columns controls the order of the data sheet; fields a record lacks come
// out as empty cells.
func WriteExcel(path string, records []record.Record, columns []string, removals []dedup.Removal, report profile.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetData); err != nil {
		return fmt.Errorf("rename data sheet: %w", err)
	}
	if err := writeDataSheet(f, records, columns); err != nil {
		return err
	}
	if err := writeRemovalSheet(f, removals); err != nil {
		return err
	}
	if err := writeProfileSheet(f, report); err != nil {
		return err
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("save workbook %s: %w", path, err)
	}
	return nil
}

func writeDataSheet(f *excelize.File, records []record.Record, columns []string) error {
	if err := writeRow(f, SheetData, 1, toAny(columns)); err != nil {
		return err
	}
	for i, r := range records {
		row := make([]any, len(columns))
		for j, column := range columns {
			row[j] = r.Get(column)
		}
		if err := writeRow(f, SheetData, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRemovalSheet(f *excelize.File, removals []dedup.Removal) error {
	if _, err := f.NewSheet(SheetRemovals); err != nil {
		return fmt.Errorf("create removal sheet: %w", err)
	}
	if err := writeRow(f, SheetRemovals, 1, toAny(removalHeader)); err != nil {
		return err
	}
	for i, removal := range removals {
		row := []any{removal.RecordID, removal.ClusterID, formatIndexes(removal.MatchedAgainst), removal.Reason}
		if err := writeRow(f, SheetRemovals, i+2, row); err != nil {
			return err
		}
	}
	return nil
}

func writeProfileSheet(f *excelize.File, report profile.Report) error {
	if _, err := f.NewSheet(SheetProfile); err != nil {
		return fmt.Errorf("create profile sheet: %w", err)
	}
	if err := writeRow(f, SheetProfile, 1, toAny(profileHeader)); err != nil {
		return err
	}
	for i, column := range report.Columns {
		row := []any{
			column.Column, column.Rows, column.Missing, column.MissingPct,
			column.Unique, column.TopError, column.TopErrorN, column.TopErrorPct,
			column.TopValue, column.TopValuePct,
		}
		if err := writeRow(f, SheetProfile, i+2, row); err != nil {
			return err
		}
	}

	// Language mix goes below the column table, separated by a blank row.
	base := len(report.Columns) + 3
	for i, share := range report.Languages {
		row := []any{"language " + share.Code, share.Count, strconv.FormatFloat(share.Pct, 'f', 2, 64) + " %"}
		if err := writeRow(f, SheetProfile, base+i, row); err != nil {
			return err
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("cell name for row %d: %w", row, err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("write %s row %d: %w", sheet, row, err)
	}
	return nil
}

func formatIndexes(values []int) string {
	parts := make([]string, len(values))
	for i, v := range values {
		parts[i] = strconv.Itoa(v)
	}
	return strings.Join(parts, ", ")
}

func toAny(values []string) []any {
	row := make([]any, len(values))
	for i, v := range values {
		row[i] = v
	}
	return row
}
