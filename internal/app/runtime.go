package app

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog"

	"github.com/bibliojobs/sift/internal/cli"
	"github.com/bibliojobs/sift/internal/config"
	"github.com/bibliojobs/sift/internal/ingest"
	"github.com/bibliojobs/sift/internal/logging"
	"github.com/bibliojobs/sift/internal/plates"
	"github.com/bibliojobs/sift/internal/record"
)

// loadRuntime finishes the boilerplate every command shares: env file,
// configuration, logger. The env loader may be nil for commands that do not
// register the --env flag.
func loadRuntime(envLoader *cli.EnvLoader) (*config.Config, zerolog.Logger, error) {
	if envLoader != nil {
		if _, err := envLoader.Load(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: %v\n", err)
		}
	}

	cfg, err := config.Load()
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Environment, cfg.LogLevel)
	if err != nil {
		return nil, zerolog.Logger{}, fmt.Errorf("initialize logger: %w", err)
	}

	return cfg, logger, nil
}

func loadRecords(cfg *config.Config, logger zerolog.Logger, input string) (*ingest.Result, error) {
	loader := ingest.NewLoader(ingest.Options{Delimiter: cfg.CSVDelimiter}, logger)
	result, err := loader.LoadFile(input)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", input, err)
	}
	return result, nil
}

// plateResolver builds the resolver for the clean and process commands.
// Offline mode never talks to Wikidata and uses whatever the cache holds.
func plateResolver(ctx context.Context, cfg *config.Config, logger zerolog.Logger) plates.Resolver {
	var client *plates.Client
	if !cfg.PlateOffline {
		client = plates.NewClient(plates.ClientOptions{}, logger)
	}
	return plates.LoadResolver(ctx, cfg.PlateCachePath, client, logger)
}

// ensureColumns appends the extra columns the pipeline may have added, in a
// stable position after the original ones.
func ensureColumns(columns []string, extras ...string) []string {
	seen := make(map[string]bool, len(columns))
	for _, column := range columns {
		seen[column] = true
	}
	out := append([]string(nil), columns...)
	for _, extra := range extras {
		if !seen[extra] {
			out = append(out, extra)
			seen[extra] = true
		}
	}
	return out
}

// columnsInUse filters extras down to those any record actually carries.
func columnsInUse(records []record.Record, extras ...string) []string {
	used := make([]string, 0, len(extras))
	for _, extra := range extras {
		if record.HasColumn(records, extra) {
			used = append(used, extra)
		}
	}
	return used
}
