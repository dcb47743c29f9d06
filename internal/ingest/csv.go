package ingest

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/bibliojobs/sift/internal/record"
)

// The raw export separates columns with a literal `_§_` sequence instead of a
// single rune, which rules out encoding/csv.
const DefaultDelimiter = "_§_"

// DefaultDateFormat matches the `date` column of the raw export.
const DefaultDateFormat = "02-01-2006"

type Options struct {
	Delimiter  string
	DateFormat string
}

// Result carries the loaded records plus the quality counters the profiling
// report surfaces.
type Result struct {
	Records       []record.Record
	Columns       []string
	Rows          int
	InvalidJobIDs int
	InvalidDates  int
	RaggedRows    int
}

type Loader struct {
	opts   Options
	logger zerolog.Logger
}

func NewLoader(opts Options, logger zerolog.Logger) *Loader {
	if strings.TrimSpace(opts.Delimiter) == "" {
		opts.Delimiter = DefaultDelimiter
	}
	if strings.TrimSpace(opts.DateFormat) == "" {
		opts.DateFormat = DefaultDateFormat
	}
	return &Loader{opts: opts, logger: logger}
}

func (l *Loader) LoadFile(path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	return l.Load(f)
}

// Load reads the delimited export and assigns each row its stable record
// index in file order. Header names are trimmed of the surrounding
// underscores the export wraps them in and lower-cased; two columns
// collapsing onto the same normalized name is a hard error.
func (l *Loader) Load(r io.Reader) (*Result, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)

	if !scanner.Scan() {
		if err := scanner.Err(); err != nil {
			return nil, fmt.Errorf("read header: %w", err)
		}
		return nil, fmt.Errorf("input is empty, expected a header row")
	}

	columns, err := normalizeHeader(splitRow(scanner.Text(), l.opts.Delimiter))
	if err != nil {
		return nil, err
	}

	result := &Result{Columns: columns}
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		values := splitRow(line, l.opts.Delimiter)
		if len(values) != len(columns) {
			result.RaggedRows++
			l.logger.Warn().
				Int("row", result.Rows+1).
				Int("fields", len(values)).
				Int("columns", len(columns)).
				Msg("ragged row, padding or truncating to the header width")
			values = fitWidth(values, len(columns))
		}

		fields := make(map[string]string, len(columns))
		for i, column := range columns {
			fields[column] = l.coerce(column, strings.TrimSpace(values[i]), result)
		}
		result.Records = append(result.Records, record.New(result.Rows, fields))
		result.Rows++
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read rows: %w", err)
	}

	l.logger.Info().
		Int("rows", result.Rows).
		Int("columns", len(columns)).
		Int("invalid_jobids", result.InvalidJobIDs).
		Int("invalid_dates", result.InvalidDates).
		Msg("csv load completed")

	return result, nil
}

// coerce normalizes typed columns to a canonical string form. Values that do
// not parse are blanked and counted, never fatal.
func (l *Loader) coerce(column, value string, result *Result) string {
	if value == "" {
		return ""
	}
	switch column {
	case "jobid":
		if _, err := strconv.ParseInt(value, 10, 64); err != nil {
			result.InvalidJobIDs++
			l.logger.Warn().Str("jobid", value).Msg("non-numeric jobid")
			return ""
		}
		return value
	case "geo_lat", "geo_lon":
		parsed, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64)
		if err != nil {
			return ""
		}
		return strconv.FormatFloat(parsed, 'f', -1, 64)
	case "date":
		parsed, err := time.Parse(l.opts.DateFormat, value)
		if err != nil {
			result.InvalidDates++
			l.logger.Warn().Str("date", value).Msg("date does not match expected format")
			return ""
		}
		return parsed.Format("2006-01-02")
	default:
		return value
	}
}

func splitRow(line, delimiter string) []string {
	return strings.Split(strings.TrimSuffix(line, "\r"), delimiter)
}

func normalizeHeader(raw []string) ([]string, error) {
	columns := make([]string, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for i, name := range raw {
		normalized := strings.ToLower(strings.Trim(strings.TrimSpace(name), "_"))
		if normalized == "" {
			normalized = fmt.Sprintf("column_%d", i)
		}
		if _, dup := seen[normalized]; dup {
			return nil, fmt.Errorf("duplicate column name after normalization: %q", normalized)
		}
		seen[normalized] = struct{}{}
		columns[i] = normalized
	}
	return columns, nil
}

func fitWidth(values []string, width int) []string {
	if len(values) > width {
		return values[:width]
	}
	for len(values) < width {
		values = append(values, "")
	}
	return values
}
