package app

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bibliojobs/sift/internal/cli"
	"github.com/bibliojobs/sift/internal/record"
	payloadschema "github.com/bibliojobs/sift/schema"
)

func runValidate(args []string) int {
	fs := flag.NewFlagSet("validate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	input := fs.String("input", "", "Path to the Bibliojobs CSV export")
	jsonInput := fs.String("json", "", "Validate a JSON dedup payload instead of a CSV export")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if strings.TrimSpace(*jsonInput) != "" {
		return validateJSONPayload(*jsonInput)
	}
	if strings.TrimSpace(*input) == "" {
		fmt.Fprintln(os.Stderr, "validate: --input or --json is required")
		return 2
	}

	cfg, logger, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}

	result, err := loadRecords(cfg, logger, *input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		return 1
	}

	fmt.Printf(
		"validate rows=%d columns=%d invalid_jobids=%d invalid_dates=%d ragged_rows=%d\n",
		result.Rows,
		len(result.Columns),
		result.InvalidJobIDs,
		result.InvalidDates,
		result.RaggedRows,
	)

	if !record.HasColumn(result.Records, record.FieldLocation) {
		fmt.Fprintln(os.Stderr, "Validation failed: the location column is missing from the whole dataset")
		return 1
	}
	if result.RaggedRows > 0 {
		fmt.Fprintf(os.Stderr, "Warning: %d rows had a wrong field count and were padded or truncated\n", result.RaggedRows)
	}
	return 0
}

// validateJSONPayload checks a dedup request document against the embedded
// JSON schema, the same check the API applies before running the engine.
func validateJSONPayload(path string) int {
	raw, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		return 1
	}

	request, err := payloadschema.ValidateDedupRequest(raw)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Validation failed: %v\n", err)
		return 1
	}

	fmt.Printf("validate payload=%s records=%d\n", request.PayloadVersion, len(request.Records))
	return 0
}
