package cleaning

import (
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"

	"github.com/bibliojobs/sift/internal/plates"
	"github.com/bibliojobs/sift/internal/record"
)

func TestStripMarkup(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		value string
		want  string
	}{
		{"plain", "Bibliothekar (m/w/d)", "Bibliothekar (m/w/d)"},
		{"tags removed", "<b>Leitung</b> der <i>Bibliothek</i>", "Leitung der Bibliothek"},
		{"entities decoded", "Forschung &amp; Lehre", "Forschung & Lehre"},
		{"tags then entities", "<p>Kauf &uuml;ber Portal</p>", "Kauf über Portal"},
		{"whitespace trimmed", "  Vollzeit  ", "Vollzeit"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := StripMarkup(tt.value); got != tt.want {
				t.Fatalf("StripMarkup(%q) = %q, want %q", tt.value, got, tt.want)
			}
		})
	}
}

func TestCleanResolvesPlatesAndExtractsPLZ(t *testing.T) {
	t.Parallel()

	resolver := plates.MapResolver{"B": "Berlin", "HRO": "Rostock"}
	cleaner := NewCleaner(resolver, zerolog.Nop())

	records := []record.Record{
		record.New(0, map[string]string{
			record.FieldCompany:  "Stadtbibliothek Rostock, 18055 Rostock",
			record.FieldLocation: "HRO",
		}),
		record.New(1, map[string]string{
			record.FieldCompany:  "ZLB",
			record.FieldLocation: "Frankfurt am Main",
		}),
	}

	cleaned, stats, err := cleaner.Clean(context.Background(), records)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}

	if cleaned[0].Location() != "Rostock" {
		t.Fatalf("plate code not resolved: %q", cleaned[0].Location())
	}
	if cleaned[0].Get(record.FieldPLZ) != "18055" {
		t.Fatalf("PLZ not extracted: %q", cleaned[0].Get(record.FieldPLZ))
	}
	if cleaned[0].Company() != "Stadtbibliothek Rostock" {
		t.Fatalf("company not cleaned: %q", cleaned[0].Company())
	}
	if cleaned[1].Location() != "Frankfurt am Main" {
		t.Fatalf("long place name must stay untouched: %q", cleaned[1].Location())
	}
	if stats.PLZExtracted != 1 || stats.PlatesResolved != 1 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
}

func TestCleanDoesNotOverwriteExistingPLZ(t *testing.T) {
	t.Parallel()

	cleaner := NewCleaner(nil, zerolog.Nop())
	records := []record.Record{
		record.New(0, map[string]string{
			record.FieldCompany: "Bücherhallen Hamburg, 20095 Hamburg",
			record.FieldPLZ:     "22083",
		}),
	}

	cleaned, _, err := cleaner.Clean(context.Background(), records)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if got := cleaned[0].Get(record.FieldPLZ); got != "22083" {
		t.Fatalf("existing PLZ overwritten: %q", got)
	}
}

func TestCleanConsolidatesCompanies(t *testing.T) {
	t.Parallel()

	cleaner := NewCleaner(nil, zerolog.Nop())
	rows := []string{
		"Stadtbibliothek Köln",
		"Stadtbibliothek Köln",
		"Stadtbibliothek Koeln",
	}
	records := make([]record.Record, len(rows))
	for i, company := range rows {
		records[i] = record.New(i, map[string]string{record.FieldCompany: company})
	}

	cleaned, stats, err := cleaner.Clean(context.Background(), records)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	for i, r := range cleaned {
		if r.Company() != "Stadtbibliothek Köln" {
			t.Fatalf("record %d not consolidated: %q", i, r.Company())
		}
	}
	if stats.CompaniesConsolidated != 1 {
		t.Fatalf("expected 1 consolidation, got %d", stats.CompaniesConsolidated)
	}
}

func TestCleanStripsMarkupEverywhere(t *testing.T) {
	t.Parallel()

	cleaner := NewCleaner(nil, zerolog.Nop())
	records := []record.Record{
		record.New(0, map[string]string{
			record.FieldJobType:        "<b>Vollzeit</b>",
			record.FieldJobDescription: "Katalogisierung &amp; Erwerbung",
		}),
	}

	cleaned, _, err := cleaner.Clean(context.Background(), records)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if cleaned[0].JobType() != "Vollzeit" {
		t.Fatalf("jobtype not cleaned: %q", cleaned[0].JobType())
	}
	if cleaned[0].JobDescription() != "Katalogisierung & Erwerbung" {
		t.Fatalf("description not cleaned: %q", cleaned[0].JobDescription())
	}
}

func TestCleanExtractsFullDocumentDescription(t *testing.T) {
	t.Parallel()

	document := `<!DOCTYPE html><html><head><title>Stelle</title></head><body>
		<nav><a href="/">Home</a></nav>
		<article><h1>Bibliothekar gesucht</h1>
		<p>Wir suchen eine engagierte Fachkraft für die Katalogisierung und die
		Betreuung unserer digitalen Angebote. Die Stelle ist unbefristet und
		umfasst auch die Mitarbeit im Auskunftsdienst unserer Zentralbibliothek.</p>
		</article></body></html>`

	cleaner := NewCleaner(nil, zerolog.Nop())
	records := []record.Record{
		record.New(0, map[string]string{record.FieldJobDescription: document}),
	}

	cleaned, stats, err := cleaner.Clean(context.Background(), records)
	if err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if stats.DescriptionsExtracted != 1 {
		t.Fatalf("expected 1 extracted description, got %d", stats.DescriptionsExtracted)
	}
	description := cleaned[0].JobDescription()
	if description == "" {
		t.Fatalf("expected extracted text, got empty string")
	}
	if !strings.Contains(description, "Katalogisierung") {
		t.Fatalf("expected extracted text to keep the article body, got %q", description)
	}
}

func TestCleanDoesNotMutateInput(t *testing.T) {
	t.Parallel()

	cleaner := NewCleaner(nil, zerolog.Nop())
	records := []record.Record{
		record.New(0, map[string]string{record.FieldCompany: "<b>ZLB</b>, 10178 Berlin"}),
	}

	if _, _, err := cleaner.Clean(context.Background(), records); err != nil {
		t.Fatalf("Clean failed: %v", err)
	}
	if records[0].Company() != "<b>ZLB</b>, 10178 Berlin" {
		t.Fatalf("input record mutated: %q", records[0].Company())
	}
}

func TestCleanCanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	cleaner := NewCleaner(nil, zerolog.Nop())
	records := []record.Record{record.New(0, map[string]string{record.FieldCompany: "x"})}
	if _, _, err := cleaner.Clean(ctx, records); err == nil {
		t.Fatalf("expected context error")
	}
}
