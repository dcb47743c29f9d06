package ingest

import (
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

const sampleExport = "_jobid__§__company__§__location__§__jobtype__§__jobdescription__§__date__§__geo_lat_\n" +
	"101_§_Stadtbibliothek Berlin_§_Berlin_§_Vollzeit_§_Bibliothekar (m/w/d)_§_03-05-2021_§_52,52\n" +
	"102_§_Acme GmbH_§_Potsdam_§_Teilzeit_§_Archivar_§_17-11-2021_§_52.39\n"

func newTestLoader() *Loader {
	return NewLoader(Options{}, zerolog.Nop())
}

func TestLoadParsesHeaderAndRows(t *testing.T) {
	t.Parallel()

	result, err := newTestLoader().Load(strings.NewReader(sampleExport))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if result.Rows != 2 {
		t.Fatalf("expected 2 rows, got %d", result.Rows)
	}

	wantColumns := []string{"jobid", "company", "location", "jobtype", "jobdescription", "date", "geo_lat"}
	if len(result.Columns) != len(wantColumns) {
		t.Fatalf("unexpected columns: %v", result.Columns)
	}
	for i, want := range wantColumns {
		if result.Columns[i] != want {
			t.Fatalf("column %d: got %q want %q", i, result.Columns[i], want)
		}
	}

	first := result.Records[0]
	if first.Index != 0 {
		t.Fatalf("expected stable index 0, got %d", first.Index)
	}
	if got := first.Get("company"); got != "Stadtbibliothek Berlin" {
		t.Fatalf("unexpected company: %q", got)
	}
	if got := first.Get("date"); got != "2021-05-03" {
		t.Fatalf("date not normalized: %q", got)
	}
	if got := first.Get("geo_lat"); got != "52.52" {
		t.Fatalf("decimal comma not handled: %q", got)
	}
}

func TestLoadCountsInvalidValues(t *testing.T) {
	t.Parallel()

	input := "_jobid__§__company__§__date_\n" +
		"abc_§_Acme_§_2021-05-03\n" +
		"7_§_Beta_§_12-01-2022\n"

	result, err := newTestLoader().Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if result.InvalidJobIDs != 1 {
		t.Fatalf("expected 1 invalid jobid, got %d", result.InvalidJobIDs)
	}
	if result.InvalidDates != 1 {
		t.Fatalf("expected 1 invalid date, got %d", result.InvalidDates)
	}
	if got := result.Records[0].Get("jobid"); got != "" {
		t.Fatalf("invalid jobid should be blanked, got %q", got)
	}
	if got := result.Records[1].Get("date"); got != "2022-01-12" {
		t.Fatalf("valid date mangled: %q", got)
	}
}

func TestLoadRejectsDuplicateColumns(t *testing.T) {
	t.Parallel()

	input := "_company__§__COMPANY_\nAcme_§_Acme\n"
	if _, err := newTestLoader().Load(strings.NewReader(input)); err == nil {
		t.Fatalf("expected error for duplicate normalized column names")
	}
}

func TestLoadPadsRaggedRows(t *testing.T) {
	t.Parallel()

	input := "_company__§__location_\nAcme\nBeta_§_Berlin_§_extra\n"
	result, err := newTestLoader().Load(strings.NewReader(input))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if result.RaggedRows != 2 {
		t.Fatalf("expected 2 ragged rows, got %d", result.RaggedRows)
	}
	if got := result.Records[0].Get("location"); got != "" {
		t.Fatalf("short row should pad with empty values, got %q", got)
	}
	if got := result.Records[1].Get("location"); got != "Berlin" {
		t.Fatalf("long row should truncate to header width, got %q", got)
	}
}

func TestLoadEmptyInput(t *testing.T) {
	t.Parallel()

	if _, err := newTestLoader().Load(strings.NewReader("")); err == nil {
		t.Fatalf("expected error for missing header")
	}
}
