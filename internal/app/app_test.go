package app

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

const testHeader = "jobid_§_company_§_location_§_jobtype_§_jobdescription"

func writeInput(t *testing.T, rows ...string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "export.csv")
	content := testHeader + "\n" + strings.Join(rows, "\n") + "\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write input: %v", err)
	}
	return path
}

func setTestEnv(t *testing.T) {
	t.Helper()

	t.Setenv("SIFT_PLATE_OFFLINE", "true")
	t.Setenv("SIFT_PLATE_CACHE", filepath.Join(t.TempDir(), "plates.json"))
	t.Setenv("LOG_LEVEL", "error")
}

func TestRunUnknownCommand(t *testing.T) {
	if code := Run([]string{"frobnicate"}); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestRunHelp(t *testing.T) {
	if code := Run([]string{"help"}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}

func TestRunWithoutArguments(t *testing.T) {
	if code := Run(nil); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestValidateCommand(t *testing.T) {
	setTestEnv(t)

	input := writeInput(t,
		"1_§_Stadtbibliothek Köln_§_Köln_§_Bibliothekar_§_Katalogisierung",
		"2_§_UB Kiel_§_Kiel_§_FaMI_§_Fernleihe",
	)

	if code := Run([]string{"validate", "--input", input}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}

func TestValidateCommandJSONPayload(t *testing.T) {
	path := filepath.Join(t.TempDir(), "payload.json")
	payload := `{"payload_version":"v1","records":[{"company":"ZLB","location":"Berlin"}]}`
	if err := os.WriteFile(path, []byte(payload), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}

	if code := Run([]string{"validate", "--json", path}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	bad := filepath.Join(t.TempDir(), "bad.json")
	if err := os.WriteFile(bad, []byte(`{"payload_version":"v2"}`), 0o644); err != nil {
		t.Fatalf("write payload: %v", err)
	}
	if code := Run([]string{"validate", "--json", bad}); code != 1 {
		t.Fatalf("expected exit code 1, got %d", code)
	}
}

func TestValidateCommandRequiresInput(t *testing.T) {
	if code := Run([]string{"validate"}); code != 2 {
		t.Fatalf("expected exit code 2, got %d", code)
	}
}

func TestCleanCommand(t *testing.T) {
	setTestEnv(t)

	input := writeInput(t,
		"1_§_Stadtbibliothek Köln GmbH., 50667 Köln_§_Köln_§_Bibliothekar_§_<p>Katalogisierung &amp; Auskunft</p>",
	)
	output := filepath.Join(t.TempDir(), "cleaned.csv")

	if code := Run([]string{"clean", "--input", input, "--output", output}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	raw, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	got := string(raw)
	if strings.Contains(got, "<p>") {
		t.Fatalf("markup survived cleaning: %s", got)
	}
	if !strings.Contains(got, "Katalogisierung & Auskunft") {
		t.Fatalf("expected unescaped description, got: %s", got)
	}
	if !strings.Contains(got, "50667") {
		t.Fatalf("expected the extracted plz in the output, got: %s", got)
	}
}

func TestDedupCommand(t *testing.T) {
	setTestEnv(t)

	input := writeInput(t,
		"1_§_Stadtbibliothek Köln_§_Köln_§_Bibliothekar (m/w/d)_§_Katalogisierung und Auskunftsdienst in der Zentralbibliothek",
		"2_§_Stadtbibliothek Köln_§_Köln_§_Bibliothekar (m/w/d)_§_Katalogisierung und Auskunftsdienst in der Zentralbibliothek",
		"3_§_Universitätsbibliothek Kiel_§_Kiel_§_FaMI_§_Betreuung der Lehrbuchsammlung und Fernleihe",
	)
	output := filepath.Join(t.TempDir(), "deduped.csv")

	if code := Run([]string{"dedup", "--input", input, "--output", output}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}

	raw, err := os.ReadFile(output)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(string(raw)), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected header plus 2 survivors, got %d lines:\n%s", len(lines), raw)
	}
	if strings.Count(string(raw), "Stadtbibliothek Köln") != 1 {
		t.Fatalf("duplicate survived:\n%s", raw)
	}
}

func TestProcessCommand(t *testing.T) {
	setTestEnv(t)

	input := writeInput(t,
		"1_§_Stadtbibliothek Köln_§_Köln_§_Bibliothekar (m/w/d)_§_Katalogisierung und Auskunftsdienst in der Zentralbibliothek",
		"2_§_Stadtbibliothek Köln_§_Köln_§_Bibliothekar (m/w/d)_§_Katalogisierung und Auskunftsdienst in der Zentralbibliothek",
		"3_§_Universitätsbibliothek Kiel_§_Kiel_§_FaMI_§_Betreuung der Lehrbuchsammlung und Fernleihe in Vollzeit",
	)
	output := filepath.Join(t.TempDir(), "report.xlsx")

	code := Run([]string{"process", "--input", input, "--output", output, "--languages=false"})
	if code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
	if _, err := os.Stat(output); err != nil {
		t.Fatalf("expected the workbook to exist: %v", err)
	}
}

func TestHashPasswordCommand(t *testing.T) {
	if code := Run([]string{"hash-password", "s3cret"}); code != 0 {
		t.Fatalf("expected exit code 0, got %d", code)
	}
}
