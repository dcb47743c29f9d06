package export

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/bibliojobs/sift/internal/dedup"
	"github.com/bibliojobs/sift/internal/profile"
	"github.com/bibliojobs/sift/internal/record"
)

func sampleRecords() []record.Record {
	return []record.Record{
		record.New(0, map[string]string{
			"company":  "Stadtbibliothek Köln",
			"location": "Köln",
		}),
		record.New(1, map[string]string{
			"company": "ZLB",
		}),
	}
}

func TestWriteExcelRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "result.xlsx")
	records := sampleRecords()
	columns := []string{"company", "location"}
	removals := []dedup.Removal{
		{RecordID: 3, ClusterID: 1, MatchedAgainst: []int{1}, Reason: "duplicate of record 1"},
	}
	report := profile.Build(records, profile.Options{Columns: columns})

	if err := WriteExcel(path, records, columns, removals, report); err != nil {
		t.Fatalf("WriteExcel failed: %v", err)
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		t.Fatalf("OpenFile failed: %v", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	for _, want := range []string{SheetData, SheetRemovals, SheetProfile} {
		found := false
		for _, sheet := range sheets {
			if sheet == want {
				found = true
			}
		}
		if !found {
			t.Fatalf("missing sheet %q in %v", want, sheets)
		}
	}

	if got, _ := f.GetCellValue(SheetData, "A1"); got != "company" {
		t.Fatalf("unexpected header cell: %q", got)
	}
	if got, _ := f.GetCellValue(SheetData, "A2"); got != "Stadtbibliothek Köln" {
		t.Fatalf("unexpected data cell: %q", got)
	}
	if got, _ := f.GetCellValue(SheetData, "B3"); got != "" {
		t.Fatalf("absent field must be an empty cell, got %q", got)
	}

	if got, _ := f.GetCellValue(SheetRemovals, "D2"); got != "duplicate of record 1" {
		t.Fatalf("unexpected removal reason: %q", got)
	}
	if got, _ := f.GetCellValue(SheetProfile, "A2"); got != "company" {
		t.Fatalf("unexpected profile row: %q", got)
	}
}

func TestWriteCSV(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	records := []record.Record{
		record.New(0, map[string]string{
			"company":        "ZLB",
			"jobdescription": "Zeile eins\nZeile zwei",
		}),
	}

	if err := WriteCSV(&buf, records, []string{"company", "jobdescription"}, "_§_"); err != nil {
		t.Fatalf("WriteCSV failed: %v", err)
	}

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected header and one record, got %d lines", len(lines))
	}
	if lines[0] != "company_§_jobdescription" {
		t.Fatalf("unexpected header: %q", lines[0])
	}
	if lines[1] != "ZLB_§_Zeile eins Zeile zwei" {
		t.Fatalf("unexpected record line: %q", lines[1])
	}
}

func TestWriteCSVEmptyDelimiter(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := WriteCSV(&buf, nil, []string{"company"}, ""); err == nil {
		t.Fatalf("expected error for empty delimiter")
	}
}
