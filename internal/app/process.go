package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/bibliojobs/sift/internal/cleaning"
	"github.com/bibliojobs/sift/internal/cli"
	"github.com/bibliojobs/sift/internal/export"
	"github.com/bibliojobs/sift/internal/extract"
	"github.com/bibliojobs/sift/internal/profile"
	"github.com/bibliojobs/sift/internal/record"
)

// runProcess is the full pipeline in one shot: clean, extract, dedup,
// profile, and an Excel report with the survivors, the removals, and the
// data-quality numbers.
func runProcess(args []string) int {
	fs := flag.NewFlagSet("process", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	input := fs.String("input", "", "Path to the Bibliojobs CSV export")
	output := fs.String("output", "", "Path for the Excel report (.xlsx)")
	csvOut := fs.String("csv", "", "Optionally also write the survivors as CSV to this path")
	languages := fs.Bool("languages", true, "Detect the language of each job description")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if strings.TrimSpace(*input) == "" || strings.TrimSpace(*output) == "" {
		fmt.Fprintln(os.Stderr, "process: --input and --output are required")
		return 2
	}

	cfg, logger, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}

	result, err := loadRecords(cfg, logger, *input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Processing failed: %v\n", err)
		return 1
	}

	ctx := context.Background()
	cleaner := cleaning.NewCleaner(plateResolver(ctx, cfg, logger), logger)
	cleaned, cleanStats, err := cleaner.Clean(ctx, result.Records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Processing failed: %v\n", err)
		return 1
	}
	extract.Apply(cleaned)

	dedupResult, err := dedupRecords(ctx, cfg, logger, cfg.EngineOptions(), *input, cleaned)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Processing failed: %v\n", err)
		return 1
	}

	columns := ensureColumns(result.Columns, columnsInUse(dedupResult.Survivors,
		record.FieldPLZ,
		extract.FieldEmploymentType,
		extract.FieldWeeklyHours,
		extract.FieldPayScale,
	)...)

	report := profile.Build(dedupResult.Survivors, profile.Options{
		Columns:         columns,
		DetectLanguages: *languages,
	})

	if err := export.WriteExcel(*output, dedupResult.Survivors, columns, dedupResult.Removed, report); err != nil {
		fmt.Fprintf(os.Stderr, "Processing failed: %v\n", err)
		return 1
	}
	if strings.TrimSpace(*csvOut) != "" {
		if err := export.WriteCSVFile(*csvOut, dedupResult.Survivors, columns, cfg.CSVDelimiter); err != nil {
			fmt.Fprintf(os.Stderr, "Processing failed: %v\n", err)
			return 1
		}
	}

	fmt.Printf(
		"process rows=%d cleaned=%d survivors=%d removed=%d clusters=%d output=%s\n",
		result.Rows,
		cleanStats.Rows,
		len(dedupResult.Survivors),
		len(dedupResult.Removed),
		len(dedupResult.Clusters),
		*output,
	)
	return 0
}
