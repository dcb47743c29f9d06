package record

import "strings"

// Field names used for duplicate comparison. All other columns are carried
// through untouched.
const (
	FieldCompany        = "company"
	FieldLocation       = "location"
	FieldJobType        = "jobtype"
	FieldJobDescription = "jobdescription"
)

// FieldPLZ holds the German postal code, either present in the source file or
// extracted from the company name during cleaning.
const FieldPLZ = "plz"

// ComparisonFields lists the columns the duplicate engine compares.
var ComparisonFields = []string{FieldCompany, FieldLocation, FieldJobType, FieldJobDescription}

// SignatureFields are the columns combined into a record's textual signature
// for vectorization. Location stays out: it is the exact-match gate, not part
// of the similarity text.
var SignatureFields = []string{FieldCompany, FieldJobType, FieldJobDescription}

// Record is one job posting. Index is the stable row position assigned at
// ingestion and never changes afterwards. Fields holds every column of the
// source row keyed by normalized column name; a column absent from the source
// file has no key at all, which is distinct from an empty value.
type Record struct {
	Index  int
	Fields map[string]string
}

func New(index int, fields map[string]string) Record {
	if fields == nil {
		fields = map[string]string{}
	}
	return Record{Index: index, Fields: fields}
}

func (r Record) Get(field string) string {
	return r.Fields[field]
}

func (r Record) Has(field string) bool {
	_, ok := r.Fields[field]
	return ok
}

func (r Record) Company() string        { return r.Fields[FieldCompany] }
func (r Record) Location() string       { return r.Fields[FieldLocation] }
func (r Record) JobType() string        { return r.Fields[FieldJobType] }
func (r Record) JobDescription() string { return r.Fields[FieldJobDescription] }

// Completeness returns the number of non-blank values in the record. The
// resolver prefers the more complete record when choosing a cluster survivor.
func (r Record) Completeness() int {
	filled := 0
	for _, value := range r.Fields {
		if strings.TrimSpace(value) != "" {
			filled++
		}
	}
	return filled
}

// Clone returns a deep copy so callers can mutate fields without touching the
// original row.
func (r Record) Clone() Record {
	fields := make(map[string]string, len(r.Fields))
	for key, value := range r.Fields {
		fields[key] = value
	}
	return Record{Index: r.Index, Fields: fields}
}

// HasColumn reports whether any record in the set carries the given column.
func HasColumn(records []Record, field string) bool {
	for _, r := range records {
		if r.Has(field) {
			return true
		}
	}
	return false
}
