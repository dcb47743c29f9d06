package export

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/bibliojobs/sift/internal/record"
)

// WriteCSVFile writes records in the Bibliojobs export format, one header
// line and one line per record, fields joined by the delimiter.
func WriteCSVFile(path string, records []record.Record, columns []string, delimiter string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file %s: %w", path, err)
	}
	defer f.Close()

	if err := WriteCSV(f, records, columns, delimiter); err != nil {
		return err
	}
	return f.Close()
}

// WriteCSV streams records to w. Newlines inside field values are replaced
// by spaces; the format has no quoting.
func WriteCSV(w io.Writer, records []record.Record, columns []string, delimiter string) error {
	if delimiter == "" {
		return fmt.Errorf("export delimiter must not be empty")
	}

	buffered := bufio.NewWriter(w)
	if _, err := buffered.WriteString(strings.Join(columns, delimiter) + "\n"); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	fields := make([]string, len(columns))
	for _, r := range records {
		for i, column := range columns {
			fields[i] = flatten(r.Get(column))
		}
		if _, err := buffered.WriteString(strings.Join(fields, delimiter) + "\n"); err != nil {
			return fmt.Errorf("write record %d: %w", r.Index, err)
		}
	}
	return buffered.Flush()
}

func flatten(value string) string {
	if !strings.ContainsAny(value, "\r\n") {
		return value
	}
	value = strings.ReplaceAll(value, "\r\n", " ")
	value = strings.ReplaceAll(value, "\n", " ")
	return strings.ReplaceAll(value, "\r", " ")
}
