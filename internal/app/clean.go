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
	"github.com/bibliojobs/sift/internal/record"
)

func runClean(args []string) int {
	fs := flag.NewFlagSet("clean", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	input := fs.String("input", "", "Path to the Bibliojobs CSV export")
	output := fs.String("output", "", "Path for the cleaned CSV file")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if strings.TrimSpace(*input) == "" || strings.TrimSpace(*output) == "" {
		fmt.Fprintln(os.Stderr, "clean: --input and --output are required")
		return 2
	}

	cfg, logger, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}

	result, err := loadRecords(cfg, logger, *input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cleaning failed: %v\n", err)
		return 1
	}

	ctx := context.Background()
	cleaner := cleaning.NewCleaner(plateResolver(ctx, cfg, logger), logger)
	cleaned, stats, err := cleaner.Clean(ctx, result.Records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Cleaning failed: %v\n", err)
		return 1
	}
	extracted := extract.Apply(cleaned)

	columns := ensureColumns(result.Columns, columnsInUse(cleaned,
		record.FieldPLZ,
		extract.FieldEmploymentType,
		extract.FieldWeeklyHours,
		extract.FieldPayScale,
	)...)

	if err := export.WriteCSVFile(*output, cleaned, columns, cfg.CSVDelimiter); err != nil {
		fmt.Fprintf(os.Stderr, "Cleaning failed: %v\n", err)
		return 1
	}

	fmt.Printf(
		"clean rows=%d plz_extracted=%d plates_resolved=%d companies_consolidated=%d employment_types=%d weekly_hours=%d pay_scales=%d output=%s\n",
		stats.Rows,
		stats.PLZExtracted,
		stats.PlatesResolved,
		stats.CompaniesConsolidated,
		extracted.EmploymentTypes,
		extracted.WeeklyHours,
		extracted.PayScales,
		*output,
	)
	return 0
}
