// Package extract pulls structured attributes out of free-text job
// descriptions: employment type, weekly hours, and public-sector pay scale.
// Extracted values land in their own columns and never overwrite data the
// source file already carries.
package extract

import (
	"regexp"
	"strings"

	"github.com/bibliojobs/sift/internal/record"
)

// Column names for the extracted attributes.
const (
	FieldEmploymentType = "employmenttype"
	FieldWeeklyHours    = "weeklyhours"
	FieldPayScale       = "payscale"
)

var (
	fullTimeRe = regexp.MustCompile(`(?i)\bvollzeit\b`)
	partTimeRe = regexp.MustCompile(`(?i)\bteilzeit\b`)

	// "39,5 Wochenstunden", "19.5 Stunden pro Woche", "30 Std./Woche".
	hoursRe = regexp.MustCompile(`(?i)\b(\d{1,2}(?:[.,]\d{1,2})?)\s*(?:wochenstunden|stunden\s*(?:pro|je|/)\s*woche|std\.?\s*/\s*woche|h\s*/\s*woche)`)

	// Collective agreements of the German public sector.
	payScaleRe = regexp.MustCompile(`(?i)\b(TV-?L|TVöD|TV-H|AVR|BAT)\b`)

	// Pay groups like "E 13", "EG 9b", "Entgeltgruppe 11".
	payGroupRe = regexp.MustCompile(`(?i)\b(?:Entgeltgruppe|EG|E)\s*(\d{1,2}[ab]?)\b`)
)

// Attributes holds what was found in one description. Zero values mean the
// pattern did not occur.
type Attributes struct {
	EmploymentType string
	WeeklyHours    string
	PayScale       string
}

func (a Attributes) Empty() bool {
	return a.EmploymentType == "" && a.WeeklyHours == "" && a.PayScale == ""
}

// Stats counts extractions over a record set.
type Stats struct {
	EmploymentTypes int
	WeeklyHours     int
	PayScales       int
}

// FromText scans a description for the supported attributes.
func FromText(text string) Attributes {
	var attrs Attributes

	fullTime := fullTimeRe.MatchString(text)
	partTime := partTimeRe.MatchString(text)
	switch {
	case fullTime && partTime:
		attrs.EmploymentType = "Vollzeit/Teilzeit"
	case fullTime:
		attrs.EmploymentType = "Vollzeit"
	case partTime:
		attrs.EmploymentType = "Teilzeit"
	}

	if match := hoursRe.FindStringSubmatch(text); match != nil {
		attrs.WeeklyHours = strings.ReplaceAll(match[1], ",", ".")
	}

	attrs.PayScale = payScale(text)
	return attrs
}

func payScale(text string) string {
	scale := ""
	if match := payScaleRe.FindStringSubmatch(text); match != nil {
		scale = canonicalScale(match[1])
	}

	group := ""
	if match := payGroupRe.FindStringSubmatch(text); match != nil {
		group = "E" + strings.ToLower(match[1])
	}

	switch {
	case scale != "" && group != "":
		return scale + " " + group
	case scale != "":
		return scale
	case group != "":
		return group
	}
	return ""
}

func canonicalScale(raw string) string {
	switch strings.ToUpper(raw) {
	case "TVL", "TV-L":
		return "TV-L"
	case "TVÖD":
		return "TVöD"
	case "TV-H":
		return "TV-H"
	case "AVR":
		return "AVR"
	case "BAT":
		return "BAT"
	}
	return raw
}

// Apply enriches the records in place with attributes extracted from the
// description column. A column that already holds a non-blank value for a
// row is left alone.
func Apply(records []record.Record) Stats {
	var stats Stats
	for _, r := range records {
		description := r.JobDescription()
		if strings.TrimSpace(description) == "" {
			continue
		}
		attrs := FromText(description)
		if attrs.Empty() {
			continue
		}

		if attrs.EmploymentType != "" && setIfBlank(r, FieldEmploymentType, attrs.EmploymentType) {
			stats.EmploymentTypes++
		}
		if attrs.WeeklyHours != "" && setIfBlank(r, FieldWeeklyHours, attrs.WeeklyHours) {
			stats.WeeklyHours++
		}
		if attrs.PayScale != "" && setIfBlank(r, FieldPayScale, attrs.PayScale) {
			stats.PayScales++
		}
	}
	return stats
}

func setIfBlank(r record.Record, field, value string) bool {
	if strings.TrimSpace(r.Get(field)) != "" {
		return false
	}
	r.Fields[field] = value
	return true
}
