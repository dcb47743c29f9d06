package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bibliojobs/sift/internal/cli"
	"github.com/bibliojobs/sift/internal/config"
	"github.com/bibliojobs/sift/internal/dedup"
	"github.com/bibliojobs/sift/internal/export"
	"github.com/bibliojobs/sift/internal/record"
	"github.com/bibliojobs/sift/internal/store"
)

func runDedup(args []string) int {
	fs := flag.NewFlagSet("dedup", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	input := fs.String("input", "", "Path to the Bibliojobs CSV export")
	output := fs.String("output", "", "Path for the deduplicated CSV file")
	threshold := fs.Float64("threshold", 0, "Override the confirmation threshold from the configuration")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}
	if strings.TrimSpace(*input) == "" || strings.TrimSpace(*output) == "" {
		fmt.Fprintln(os.Stderr, "dedup: --input and --output are required")
		return 2
	}

	cfg, logger, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}

	opts := cfg.EngineOptions()
	if *threshold > 0 {
		opts.MatchThreshold = *threshold
	}

	result, err := loadRecords(cfg, logger, *input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Deduplication failed: %v\n", err)
		return 1
	}

	ctx := context.Background()
	dedupResult, err := dedupRecords(ctx, cfg, logger, opts, *input, result.Records)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Deduplication failed: %v\n", err)
		return 1
	}

	columns := ensureColumns(result.Columns, columnsInUse(dedupResult.Survivors, record.FieldPLZ)...)
	if err := export.WriteCSVFile(*output, dedupResult.Survivors, columns, cfg.CSVDelimiter); err != nil {
		fmt.Fprintf(os.Stderr, "Deduplication failed: %v\n", err)
		return 1
	}

	fmt.Printf(
		"dedup rows=%d survivors=%d removed=%d clusters=%d candidates=%d output=%s\n",
		result.Rows,
		len(dedupResult.Survivors),
		len(dedupResult.Removed),
		len(dedupResult.Clusters),
		dedupResult.Candidates,
		*output,
	)
	return 0
}

// dedupRecords runs the engine and, when a database is configured, records
// the run so it shows up in the API run history.
func dedupRecords(
	ctx context.Context,
	cfg *config.Config,
	logger zerolog.Logger,
	opts dedup.Options,
	inputFile string,
	records []record.Record,
) (*dedup.Result, error) {
	engine, err := dedup.NewEngine(opts, logger)
	if err != nil {
		return nil, err
	}

	if !cfg.PersistenceEnabled() {
		return engine.Run(ctx, records)
	}

	runs, err := store.Open(ctx, cfg)
	if err != nil {
		logger.Warn().Err(err).Msg("database unavailable, running without run history")
		return engine.Run(ctx, records)
	}
	defer runs.Close()

	run, err := runs.BeginRun(ctx, inputFile, opts, len(records))
	if err != nil {
		return nil, err
	}

	result, err := engine.Run(ctx, records)
	if err != nil {
		if failErr := runs.FailRun(ctx, run.RunID, err); failErr != nil {
			logger.Error().Err(failErr).Msg("could not mark run as failed")
		}
		return nil, err
	}
	if err := runs.FinishRun(ctx, run.RunID, result); err != nil {
		return nil, err
	}

	logger.Info().
		Str("run_uuid", run.RunUUID).
		Int("survivors", len(result.Survivors)).
		Msg("dedup run recorded")
	return result, nil
}
