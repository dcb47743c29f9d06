package profile

import (
	"testing"

	"github.com/bibliojobs/sift/internal/record"
)

func makeRecords(rows []map[string]string) []record.Record {
	records := make([]record.Record, len(rows))
	for i, fields := range rows {
		records[i] = record.New(i, fields)
	}
	return records
}

func columnByName(t *testing.T, report Report, name string) ColumnStats {
	t.Helper()
	for _, column := range report.Columns {
		if column.Column == name {
			return column
		}
	}
	t.Fatalf("column %q not in report", name)
	return ColumnStats{}
}

func TestBuildCountsMissingAndUnique(t *testing.T) {
	t.Parallel()

	records := makeRecords([]map[string]string{
		{"company": "A", "location": "Berlin"},
		{"company": "A", "location": ""},
		{"company": "B"},
		{"company": "", "location": "Berlin"},
	})

	report := Build(records, Options{Columns: []string{"company", "location"}})
	if report.Rows != 4 {
		t.Fatalf("expected 4 rows, got %d", report.Rows)
	}

	company := columnByName(t, report, "company")
	if company.Missing != 1 {
		t.Fatalf("company missing = %d, want 1", company.Missing)
	}
	if company.Unique != 2 {
		t.Fatalf("company unique = %d, want 2", company.Unique)
	}
	if company.TopValue != "A" || company.TopValuePct != 50 {
		t.Fatalf("unexpected top value: %q %.2f", company.TopValue, company.TopValuePct)
	}

	location := columnByName(t, report, "location")
	if location.Missing != 2 {
		t.Fatalf("location missing = %d, want 2 (blank plus absent)", location.Missing)
	}
	if location.MissingPct != 50 {
		t.Fatalf("location missing pct = %.2f, want 50", location.MissingPct)
	}
}

func TestBuildErrorMarkers(t *testing.T) {
	t.Parallel()

	records := makeRecords([]map[string]string{
		{"jobtype": "n/a"},
		{"jobtype": "N/A"},
		{"jobtype": "??"},
		{"jobtype": "Vollzeit"},
	})

	report := Build(records, Options{Columns: []string{"jobtype"}})
	jobtype := columnByName(t, report, "jobtype")
	if jobtype.TopError != "n/a" || jobtype.TopErrorN != 2 {
		t.Fatalf("unexpected top error: %q x%d", jobtype.TopError, jobtype.TopErrorN)
	}
	if jobtype.TopErrorPct != 50 {
		t.Fatalf("top error pct = %.2f, want 50", jobtype.TopErrorPct)
	}
}

func TestBuildDefaultColumnsSorted(t *testing.T) {
	t.Parallel()

	records := makeRecords([]map[string]string{
		{"b": "1", "a": "2"},
		{"c": "3"},
	})

	report := Build(records, Options{})
	if len(report.Columns) != 3 {
		t.Fatalf("expected 3 columns, got %d", len(report.Columns))
	}
	for i, want := range []string{"a", "b", "c"} {
		if report.Columns[i].Column != want {
			t.Fatalf("column %d = %q, want %q", i, report.Columns[i].Column, want)
		}
	}
}

func TestBuildEmptyDataset(t *testing.T) {
	t.Parallel()

	report := Build(nil, Options{Columns: []string{"company"}})
	company := columnByName(t, report, "company")
	if company.MissingPct != 0 || company.TopValuePct != 0 {
		t.Fatalf("empty dataset must not divide by zero: %+v", company)
	}
}

func TestBuildLanguageShares(t *testing.T) {
	t.Parallel()

	records := makeRecords([]map[string]string{
		{"jobdescription": "Wir suchen eine Bibliothekarin für die Katalogisierung unserer Bestände."},
		{"jobdescription": "Die Stadtbibliothek sucht Verstärkung für den Auskunftsdienst im Lesesaal."},
		{"jobdescription": "We are looking for a librarian to manage our digital collections."},
		{"jobdescription": ""},
	})

	report := Build(records, Options{Columns: []string{"jobdescription"}, DetectLanguages: true})
	if len(report.Languages) == 0 {
		t.Fatalf("expected language shares")
	}
	if report.Languages[0].Code != "de" || report.Languages[0].Count != 2 {
		t.Fatalf("unexpected dominant language: %+v", report.Languages[0])
	}

	total := 0
	for _, share := range report.Languages {
		total += share.Count
	}
	if total != 3 {
		t.Fatalf("blank descriptions must not be classified, got %d", total)
	}
}
