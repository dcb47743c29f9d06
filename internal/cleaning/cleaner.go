// Package cleaning prepares raw job-posting rows for deduplication: markup
// stripped, postal codes split out of company names, license-plate location
// codes resolved, and company spellings standardized and consolidated.
package cleaning

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bibliojobs/sift/internal/plates"
	"github.com/bibliojobs/sift/internal/record"
)

// Stats counts what a cleaning pass changed.
type Stats struct {
	Rows                  int
	PLZExtracted          int
	PlatesResolved        int
	CompaniesConsolidated int
	DescriptionsExtracted int
}

type Cleaner struct {
	resolver plates.Resolver
	logger   zerolog.Logger
}

// NewCleaner builds a Cleaner. A nil resolver disables license-plate
// resolution; everything else still runs.
func NewCleaner(resolver plates.Resolver, logger zerolog.Logger) *Cleaner {
	if resolver == nil {
		resolver = plates.Unavailable{}
	}
	return &Cleaner{resolver: resolver, logger: logger}
}

// Clean returns cleaned copies of the input records in their original order.
// The input records are never mutated.
func (c *Cleaner) Clean(ctx context.Context, records []record.Record) ([]record.Record, Stats, error) {
	stats := Stats{Rows: len(records)}
	cleaned := make([]record.Record, 0, len(records))

	for _, r := range records {
		if err := ctx.Err(); err != nil {
			return nil, Stats{}, err
		}
		clone := r.Clone()

		if clone.Has(record.FieldCompany) {
			company, plz := ExtractPLZ(clone.Get(record.FieldCompany))
			clone.Fields[record.FieldCompany] = company
			if plz != "" {
				stats.PLZExtracted++
				if strings.TrimSpace(clone.Get(record.FieldPLZ)) == "" {
					clone.Fields[record.FieldPLZ] = plz
				}
			}
		}

		for field, value := range clone.Fields {
			if field == record.FieldJobDescription && isFullDocument(value) {
				clone.Fields[field] = extractArticleText(value)
				stats.DescriptionsExtracted++
				continue
			}
			clone.Fields[field] = StripMarkup(value)
		}

		if clone.Has(record.FieldLocation) {
			if resolved, ok := c.resolveLocation(clone.Get(record.FieldLocation)); ok {
				clone.Fields[record.FieldLocation] = resolved
				stats.PlatesResolved++
			}
		}

		if clone.Has(record.FieldCompany) {
			clone.Fields[record.FieldCompany] = StandardizeCompany(clone.Get(record.FieldCompany))
		}

		cleaned = append(cleaned, clone)
	}

	companies := make([]string, 0, len(cleaned))
	for _, r := range cleaned {
		if r.Has(record.FieldCompany) {
			companies = append(companies, r.Company())
		}
	}
	mapping := ConsolidateCompanies(companies, ConsolidationThreshold)
	for _, r := range cleaned {
		if canonical, ok := mapping[r.Company()]; ok {
			r.Fields[record.FieldCompany] = canonical
			stats.CompaniesConsolidated++
		}
	}

	c.logger.Info().
		Int("rows", stats.Rows).
		Int("plz_extracted", stats.PLZExtracted).
		Int("plates_resolved", stats.PlatesResolved).
		Int("companies_consolidated", stats.CompaniesConsolidated).
		Int("descriptions_extracted", stats.DescriptionsExtracted).
		Msg("cleaning pass finished")

	return cleaned, stats, nil
}

// resolveLocation replaces a value that is exactly a plate code. Codes inside
// longer place names stay untouched, "AM" in "Frankfurt am Main" is not a
// registration district.
func (c *Cleaner) resolveLocation(value string) (string, bool) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" || len([]rune(trimmed)) > 3 {
		return "", false
	}
	name, err := c.resolver.Resolve(trimmed)
	if err != nil {
		return "", false
	}
	return name, true
}
