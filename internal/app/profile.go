package app

import (
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bibliojobs/sift/internal/cli"
	"github.com/bibliojobs/sift/internal/profile"
)

func runProfile(args []string) int {
	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	input := fs.String("input", "", "Path to the Bibliojobs CSV export")
	output := fs.String("output", "", "Write the JSON report to this file instead of stdout")
	languages := fs.Bool("languages", false, "Detect the language of each job description")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if strings.TrimSpace(*input) == "" {
		fmt.Fprintln(os.Stderr, "profile: --input is required")
		return 2
	}

	cfg, logger, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}

	result, err := loadRecords(cfg, logger, *input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Profiling failed: %v\n", err)
		return 1
	}

	report := profile.Build(result.Records, profile.Options{
		Columns:         result.Columns,
		DetectLanguages: *languages,
	})

	encoded, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Profiling failed: %v\n", err)
		return 1
	}
	encoded = append(encoded, '\n')

	if strings.TrimSpace(*output) == "" {
		os.Stdout.Write(encoded)
		return 0
	}
	if err := os.WriteFile(*output, encoded, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "Profiling failed: %v\n", err)
		return 1
	}

	logger.Info().
		Str("output", *output).
		Int("rows", report.Rows).
		Int("columns", len(report.Columns)).
		Msg("profile report written")
	return 0
}
