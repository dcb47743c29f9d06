// Package profile computes per-column statistics over a job-posting dataset:
// missing values, distinct values, common error markers, top values, and the
// language mix of the free-text columns.
package profile

import (
	"sort"
	"strings"

	"github.com/bibliojobs/sift/internal/langdetect"
	"github.com/bibliojobs/sift/internal/record"
)

// errorMarkers are placeholder strings treated as data errors rather than
// real values. Comparison is case-insensitive after trimming.
var errorMarkers = []string{"", "??", "na", "n/a", "null"}

// ColumnStats describes one column of the dataset. Percentages are in
// [0,100], rounded to two decimals.
type ColumnStats struct {
	Column      string  `json:"column"`
	Rows        int     `json:"rows"`
	Missing     int     `json:"missing"`
	MissingPct  float64 `json:"missing_pct"`
	Unique      int     `json:"unique"`
	TopError    string  `json:"top_error"`
	TopErrorN   int     `json:"top_error_n"`
	TopErrorPct float64 `json:"top_error_pct"`
	TopValue    string  `json:"top_value"`
	TopValuePct float64 `json:"top_value_pct"`
}

// LanguageShare is one language's slice of the description column.
type LanguageShare struct {
	Code  string  `json:"code"`
	Count int     `json:"count"`
	Pct   float64 `json:"pct"`
}

// Report is the full profiling result. Columns are ordered as given by the
// caller; Languages is sorted by descending share.
type Report struct {
	Rows      int             `json:"rows"`
	Columns   []ColumnStats   `json:"columns"`
	Languages []LanguageShare `json:"languages,omitempty"`
}

// Options selects what the profiler computes.
type Options struct {
	// Columns to profile, in output order. Empty means every column seen
	// in the records, sorted by name.
	Columns []string

	// DetectLanguages adds a language distribution over the description
	// column. Off by default, the lingua models are expensive to load.
	DetectLanguages bool
}

// Build profiles the records. Missing counts both absent columns and blank
// values; error markers are matched case-insensitively.
func Build(records []record.Record, opts Options) Report {
	columns := opts.Columns
	if len(columns) == 0 {
		columns = collectColumns(records)
	}

	report := Report{Rows: len(records), Columns: make([]ColumnStats, 0, len(columns))}
	for _, column := range columns {
		report.Columns = append(report.Columns, profileColumn(records, column))
	}

	if opts.DetectLanguages {
		report.Languages = languageShares(records)
	}
	return report
}

func profileColumn(records []record.Record, column string) ColumnStats {
	stats := ColumnStats{Column: column, Rows: len(records)}

	values := map[string]int{}
	errorCounts := map[string]int{}
	for _, r := range records {
		if !r.Has(column) {
			stats.Missing++
			errorCounts[""]++
			continue
		}
		value := r.Get(column)
		trimmed := strings.TrimSpace(value)
		if trimmed == "" {
			stats.Missing++
		} else {
			values[value]++
		}
		if marker, ok := matchErrorMarker(trimmed); ok {
			errorCounts[marker]++
		}
	}

	stats.Unique = len(values)
	stats.MissingPct = pct(stats.Missing, stats.Rows)

	stats.TopError, stats.TopErrorN = topEntry(errorCounts)
	stats.TopErrorPct = pct(stats.TopErrorN, stats.Rows)

	topValue, topCount := topEntry(values)
	stats.TopValue = topValue
	stats.TopValuePct = pct(topCount, stats.Rows)
	return stats
}

func matchErrorMarker(trimmed string) (string, bool) {
	lowered := strings.ToLower(trimmed)
	for _, marker := range errorMarkers {
		if lowered == marker {
			return marker, true
		}
	}
	return "", false
}

// topEntry returns the most frequent key, ties broken by lexical order so
// repeated runs produce identical reports.
func topEntry(counts map[string]int) (string, int) {
	best := ""
	bestCount := 0
	for value, count := range counts {
		if count > bestCount || (count == bestCount && bestCount > 0 && value < best) {
			best = value
			bestCount = count
		}
	}
	return best, bestCount
}

// languageShares gets its denominator from classified rows only, blank and
// too-short descriptions do not dilute the percentages.
func languageShares(records []record.Record) []LanguageShare {
	counts := map[string]int{}
	classified := 0
	for _, r := range records {
		code := langdetect.DetectISO6391(r.JobDescription())
		if code == "" {
			continue
		}
		counts[code]++
		classified++
	}

	shares := make([]LanguageShare, 0, len(counts))
	for code, count := range counts {
		shares = append(shares, LanguageShare{Code: code, Count: count, Pct: pct(count, classified)})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Count != shares[j].Count {
			return shares[i].Count > shares[j].Count
		}
		return shares[i].Code < shares[j].Code
	})
	return shares
}

func collectColumns(records []record.Record) []string {
	seen := map[string]bool{}
	for _, r := range records {
		for column := range r.Fields {
			seen[column] = true
		}
	}
	columns := make([]string, 0, len(seen))
	for column := range seen {
		columns = append(columns, column)
	}
	sort.Strings(columns)
	return columns
}

func pct(part, total int) float64 {
	if total == 0 {
		return 0
	}
	ratio := float64(part) / float64(total) * 100
	return float64(int(ratio*100+0.5)) / 100
}
