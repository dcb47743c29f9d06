package plates

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// A cache below this size is treated as incomplete; Germany has several
// hundred registration districts.
const minUsableCacheSize = 10

func LoadCache(path string) (map[string]string, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]string{}, nil
		}
		return nil, fmt.Errorf("read plate cache %s: %w", path, err)
	}
	mapping := map[string]string{}
	if err := json.Unmarshal(raw, &mapping); err != nil {
		return nil, fmt.Errorf("decode plate cache %s: %w", path, err)
	}
	return mapping, nil
}

func SaveCache(path string, mapping map[string]string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	raw, err := json.MarshalIndent(mapping, "", "  ")
	if err != nil {
		return fmt.Errorf("encode plate cache: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write plate cache %s: %w", path, err)
	}
	return nil
}

// LoadResolver builds a Resolver from the local cache, refreshing it from
// Wikidata when the cache is missing or implausibly small. A failed refresh
// falls back to whatever the cache held; resolution then degrades per code
// instead of failing the whole cleaning run.
func LoadResolver(ctx context.Context, cachePath string, client *Client, logger zerolog.Logger) Resolver {
	mapping, err := LoadCache(cachePath)
	if err != nil {
		logger.Warn().Err(err).Msg("plate cache unreadable, starting empty")
		mapping = map[string]string{}
	}

	if len(mapping) >= minUsableCacheSize {
		logger.Info().Int("plates", len(mapping)).Msg("using cached plate mapping")
		return MapResolver(mapping)
	}

	if client == nil {
		return MapResolver(mapping)
	}

	fetched, err := client.Fetch(ctx)
	if err != nil {
		logger.Warn().Err(err).Msg("plate fetch failed, falling back to cache contents")
		return MapResolver(mapping)
	}

	if err := SaveCache(cachePath, fetched); err != nil {
		logger.Warn().Err(err).Msg("failed to persist plate cache")
	}
	return MapResolver(fetched)
}
