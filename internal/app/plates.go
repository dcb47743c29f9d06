package app

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/bibliojobs/sift/internal/cli"
	"github.com/bibliojobs/sift/internal/plates"
)

func runPlates(args []string) int {
	fs := flag.NewFlagSet("plates", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	envLoader := cli.AddEnvFlag(fs, ".env", "Path to the .env file")
	show := fs.Bool("show", false, "Print the cached mapping instead of refreshing it")
	timeout := fs.Duration("timeout", 2*time.Minute, "Wikidata fetch timeout")

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, logger, err := loadRuntime(envLoader)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to start: %v\n", err)
		return 1
	}
	if strings.TrimSpace(cfg.PlateCachePath) == "" {
		fmt.Fprintln(os.Stderr, "plates: SIFT_PLATE_CACHE is not set")
		return 2
	}

	if *show {
		mapping, err := plates.LoadCache(cfg.PlateCachePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Reading the cache failed: %v\n", err)
			return 1
		}
		codes := make([]string, 0, len(mapping))
		for code := range mapping {
			codes = append(codes, code)
		}
		sort.Strings(codes)
		for _, code := range codes {
			fmt.Printf("%s\t%s\n", code, mapping[code])
		}
		fmt.Printf("plates cached=%d file=%s\n", len(mapping), cfg.PlateCachePath)
		return 0
	}

	if cfg.PlateOffline {
		fmt.Fprintln(os.Stderr, "plates: SIFT_PLATE_OFFLINE is set, refusing to contact Wikidata")
		return 2
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	client := plates.NewClient(plates.ClientOptions{}, logger)
	mapping, err := client.Fetch(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Fetching license plates failed: %v\n", err)
		return 1
	}
	if err := plates.SaveCache(cfg.PlateCachePath, mapping); err != nil {
		fmt.Fprintf(os.Stderr, "Writing the cache failed: %v\n", err)
		return 1
	}

	fmt.Printf("plates fetched=%d file=%s\n", len(mapping), cfg.PlateCachePath)
	return 0
}
