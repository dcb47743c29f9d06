package dedup

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/bibliojobs/sift/internal/record"
)

// Options tune the engine. There are no hidden fallbacks inside the run: a
// zero or out-of-range value is rejected up front, and the documented
// defaults live only in DefaultOptions and the env config layer.
type Options struct {
	// KNeighbors bounds how many nearest neighbors are retrieved per record.
	KNeighbors int
	// MinSimilarity is the cosine floor below which neighbors are discarded.
	MinSimilarity float64
	// MatchThreshold is the weighted fuzzy score a location-gated pair must
	// reach to be confirmed as a duplicate.
	MatchThreshold float64
	// NgramMin and NgramMax bound the word n-gram sizes used for
	// vectorization.
	NgramMin int
	NgramMax int
}

// DefaultOptions returns the documented defaults: 10 neighbors, a 0.30
// retrieval floor, a 0.80 confirmation threshold, and 1–2 word n-grams.
// The thresholds are calibrated loosely against the source dataset and are
// meant to be tuned; see DESIGN.md.
func DefaultOptions() Options {
	return Options{
		KNeighbors:     10,
		MinSimilarity:  0.30,
		MatchThreshold: 0.80,
		NgramMin:       1,
		NgramMax:       2,
	}
}

func (o Options) Validate() error {
	if o.KNeighbors < 1 {
		return &ConfigurationError{Option: "k_neighbors", Reason: "must be at least 1"}
	}
	if o.MinSimilarity < 0 || o.MinSimilarity > 1 {
		return &ConfigurationError{Option: "min_similarity", Reason: "must be in [0,1]"}
	}
	if o.MatchThreshold <= 0 || o.MatchThreshold > 1 {
		return &ConfigurationError{Option: "match_threshold", Reason: "is required and must be in (0,1]"}
	}
	if o.NgramMin < 1 {
		return &ConfigurationError{Option: "ngram_range", Reason: "minimum n-gram size must be at least 1"}
	}
	if o.NgramMax < o.NgramMin {
		return &ConfigurationError{Option: "ngram_range", Reason: "maximum n-gram size must not be below the minimum"}
	}
	if o.NgramMax > 5 {
		return &ConfigurationError{Option: "ngram_range", Reason: "maximum n-gram size above 5 is not supported"}
	}
	return nil
}

// Result is the outcome of one deduplication run. Survivors and Removed
// partition the input record set: every input record appears in exactly one
// of the two, and both are ordered by record index.
type Result struct {
	Survivors []record.Record
	Removed   []Removal
	Clusters  []Cluster
	Confirmed []ConfirmedPair
	// Candidates counts the pairs retrieved before rule confirmation.
	Candidates int
}

// Engine runs the full candidate-retrieval and duplicate-resolution pipeline
// over an in-memory record set. An Engine is stateless between runs.
type Engine struct {
	opts   Options
	logger zerolog.Logger
}

func NewEngine(opts Options, logger zerolog.Logger) (*Engine, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Engine{opts: opts, logger: logger}, nil
}

// Run deduplicates the given records. The input order defines vectorization
// order but the outcome depends only on record indexes and field values, so
// identical input and options always produce an identical result.
func (e *Engine) Run(ctx context.Context, records []record.Record) (*Result, error) {
	if len(records) == 0 {
		return &Result{}, nil
	}

	if !record.HasColumn(records, record.FieldLocation) {
		return nil, &InputShapeError{
			Field:  record.FieldLocation,
			Reason: "is absent from the dataset; the exact-location gate cannot function",
		}
	}

	signatures := make([]string, len(records))
	for i, r := range records {
		signatures[i] = signature(r)
	}

	vectorizer := newVectorizer(e.opts.NgramMin, e.opts.NgramMax)
	vectors, err := vectorizer.fitTransform(ctx, signatures)
	if err != nil {
		return nil, err
	}

	if vectorizer.vocabularySize() == 0 {
		// No usable tokens anywhere: "no duplicates found" is a valid
		// outcome, so every record survives as its own cluster.
		e.logger.Warn().Int("records", len(records)).Msg("empty corpus, skipping retrieval")
		return singletonResult(records), nil
	}

	candidates, err := findCandidates(ctx, vectors, vectorizer.vocabularySize(), e.opts.KNeighbors, e.opts.MinSimilarity)
	if err != nil {
		return nil, err
	}
	candidates = toRecordIndexes(candidates, records)

	byIndex := indexRecords(records)
	d := decider{threshold: e.opts.MatchThreshold}
	confirmed := make([]ConfirmedPair, 0, len(candidates))
	for _, candidate := range candidates {
		if pair, ok := d.confirm(candidate, byIndex); ok {
			confirmed = append(confirmed, pair)
		}
	}

	clusters, removals := resolveClusters(confirmed, records)

	removed := make(map[int]struct{}, len(removals))
	for _, removal := range removals {
		removed[removal.RecordID] = struct{}{}
	}
	survivors := make([]record.Record, 0, len(records)-len(removals))
	for _, r := range records {
		if _, gone := removed[r.Index]; !gone {
			survivors = append(survivors, r)
		}
	}

	e.logger.Info().
		Int("records", len(records)).
		Int("candidates", len(candidates)).
		Int("confirmed", len(confirmed)).
		Int("clusters", len(clusters)).
		Int("removed", len(removals)).
		Msg("deduplication run completed")

	return &Result{
		Survivors:  survivors,
		Removed:    removals,
		Clusters:   clusters,
		Confirmed:  confirmed,
		Candidates: len(candidates),
	}, nil
}

// signature combines the normalized signature fields into the vectorizer
// input for one record. Location is left out: the decider checks it exactly,
// and mixing it into the text would let a shared city name inflate the
// similarity of unrelated postings.
func signature(r record.Record) string {
	parts := make([]string, 0, len(record.SignatureFields))
	for _, field := range record.SignatureFields {
		if value := Normalize(r.Get(field)); value != "" {
			parts = append(parts, value)
		}
	}
	return strings.Join(parts, " ")
}

// indexRecords keys the record set by its stable record index. The vectorizer
// and retriever work on slice positions; everything from the decider on
// speaks record indexes, which survive filtering (a survivor set fed back in
// keeps its original ids).
func indexRecords(records []record.Record) map[int]record.Record {
	byIndex := make(map[int]record.Record, len(records))
	for _, r := range records {
		byIndex[r.Index] = r
	}
	return byIndex
}

// toRecordIndexes translates retriever output from slice positions into
// record indexes, restoring the A < B invariant and the (A, B) ordering in
// the index space.
func toRecordIndexes(candidates []CandidatePair, records []record.Record) []CandidatePair {
	translated := make([]CandidatePair, len(candidates))
	for i, candidate := range candidates {
		a := records[candidate.A].Index
		b := records[candidate.B].Index
		if a > b {
			a, b = b, a
		}
		translated[i] = CandidatePair{A: a, B: b, Similarity: candidate.Similarity}
	}
	sort.Slice(translated, func(i, j int) bool {
		if translated[i].A != translated[j].A {
			return translated[i].A < translated[j].A
		}
		return translated[i].B < translated[j].B
	})
	return translated
}

func singletonResult(records []record.Record) *Result {
	clusters := make([]Cluster, 0, len(records))
	for _, r := range records {
		clusters = append(clusters, Cluster{
			ID:       r.Index,
			Members:  []int{r.Index},
			Survivor: r.Index,
		})
	}
	return &Result{
		Survivors: append([]record.Record(nil), records...),
		Clusters:  clusters,
	}
}
