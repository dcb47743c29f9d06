package dedup

import (
	"strings"

	"github.com/bibliojobs/sift/internal/record"
)

// RuleExactLocationFuzzyText is the only confirmation rule path: locations
// must match exactly after normalization, then the weighted fuzzy score over
// the remaining comparison fields must reach the configured threshold.
const RuleExactLocationFuzzyText = "exact_location+fuzzy_text"

// Relative weight of each fuzzy-compared field. Location is deliberately not
// part of the weighted score: it is a hard gate, reflecting that locations in
// the source data are captured reliably while company naming is noisy.
const (
	companyWeight        = 0.4
	jobTypeWeight        = 0.2
	jobDescriptionWeight = 0.4
)

// ConfirmedPair is a candidate pair that passed the field-level rules, with
// the per-field scores retained for the removal report.
type ConfirmedPair struct {
	CandidatePair
	Rule                string
	CompanyScore        float64
	JobTypeScore        float64
	JobDescriptionScore float64
	CombinedScore       float64
}

type decider struct {
	threshold float64
}

// confirm applies the match rules to one candidate pair. Pair ids are record
// indexes, looked up in the keyed record set. Any difference in normalized
// location rejects the pair outright regardless of how similar the rest of
// the text is.
func (d decider) confirm(pair CandidatePair, records map[int]record.Record) (ConfirmedPair, bool) {
	left := records[pair.A]
	right := records[pair.B]

	if Normalize(left.Location()) != Normalize(right.Location()) {
		return ConfirmedPair{}, false
	}

	company, companyUsed := fieldScore(left.Company(), right.Company())
	jobType, jobTypeUsed := fieldScore(left.JobType(), right.JobType())
	description, descriptionUsed := fieldScore(left.JobDescription(), right.JobDescription())

	var score, weight float64
	if companyUsed {
		score += companyWeight * company
		weight += companyWeight
	}
	if jobTypeUsed {
		score += jobTypeWeight * jobType
		weight += jobTypeWeight
	}
	if descriptionUsed {
		score += jobDescriptionWeight * description
		weight += jobDescriptionWeight
	}
	if weight == 0 {
		return ConfirmedPair{}, false
	}
	combined := score / weight

	if combined < d.threshold {
		return ConfirmedPair{}, false
	}

	return ConfirmedPair{
		CandidatePair:       pair,
		Rule:                RuleExactLocationFuzzyText,
		CompanyScore:        company,
		JobTypeScore:        jobType,
		JobDescriptionScore: description,
		CombinedScore:       combined,
	}, true
}

// fieldScore compares one field pair. A field blank on both sides carries no
// signal either way and is left out of the weighted combination; blank on one
// side only counts as full disagreement.
func fieldScore(left, right string) (float64, bool) {
	leftBlank := strings.TrimSpace(left) == ""
	rightBlank := strings.TrimSpace(right) == ""
	if leftBlank && rightBlank {
		return 0, false
	}
	if leftBlank || rightBlank {
		return 0, true
	}
	return tokenSetRatio(left, right), true
}
