package dedup

import (
	"context"
	"math"
	"runtime"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"
)

// termWeight is one non-zero component of a sparse feature vector. Entries
// are kept sorted by term id.
type termWeight struct {
	term   int
	weight float64
}

type featureVector []termWeight

// vectorizer builds TF-IDF vectors over word n-grams. The vocabulary is
// fitted once per run and frozen before any transform happens; term ids are
// assigned in first-appearance order over the input sequence so identical
// input always yields identical vectors.
type vectorizer struct {
	ngramMin   int
	ngramMax   int
	vocabulary map[string]int
	idf        []float64
}

func newVectorizer(ngramMin, ngramMax int) *vectorizer {
	return &vectorizer{
		ngramMin:   ngramMin,
		ngramMax:   ngramMax,
		vocabulary: map[string]int{},
	}
}

func (v *vectorizer) vocabularySize() int {
	return len(v.vocabulary)
}

// fitTransform fits the vocabulary on the given signatures and returns one
// vector per signature, index-aligned with the input. Empty signatures yield
// empty vectors; a single-record or empty corpus is fine.
func (v *vectorizer) fitTransform(ctx context.Context, signatures []string) ([]featureVector, error) {
	termLists := make([][]string, len(signatures))
	for i, signature := range signatures {
		termLists[i] = v.ngrams(tokenize(signature))
	}

	documentFrequency := make([]int, 0, 256)
	for _, terms := range termLists {
		seen := map[int]struct{}{}
		for _, term := range terms {
			id, ok := v.vocabulary[term]
			if !ok {
				id = len(v.vocabulary)
				v.vocabulary[term] = id
				documentFrequency = append(documentFrequency, 0)
			}
			if _, counted := seen[id]; counted {
				continue
			}
			seen[id] = struct{}{}
			documentFrequency[id]++
		}
	}

	// Smoothed IDF, so a term present in every record still carries a small
	// positive weight and a single-record corpus does not divide by zero.
	total := len(signatures)
	v.idf = make([]float64, len(documentFrequency))
	for id, df := range documentFrequency {
		v.idf[id] = math.Log(float64(1+total)/float64(1+df)) + 1
	}

	vectors := make([]featureVector, len(signatures))
	group, ctx := errgroup.WithContext(ctx)
	group.SetLimit(runtime.GOMAXPROCS(0))
	for i := range termLists {
		group.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			vectors[i] = v.transformOne(termLists[i])
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}
	return vectors, nil
}

func (v *vectorizer) transformOne(terms []string) featureVector {
	if len(terms) == 0 {
		return nil
	}

	counts := map[int]int{}
	for _, term := range terms {
		if id, ok := v.vocabulary[term]; ok {
			counts[id]++
		}
	}
	if len(counts) == 0 {
		return nil
	}

	vector := make(featureVector, 0, len(counts))
	for id, count := range counts {
		vector = append(vector, termWeight{term: id, weight: float64(count) * v.idf[id]})
	}
	sortVector(vector)

	var squared float64
	for _, entry := range vector {
		squared += entry.weight * entry.weight
	}
	norm := math.Sqrt(squared)
	if norm == 0 {
		return nil
	}
	for i := range vector {
		vector[i].weight /= norm
	}
	return vector
}

func (v *vectorizer) ngrams(tokens []string) []string {
	if len(tokens) == 0 {
		return nil
	}
	terms := make([]string, 0, len(tokens)*(v.ngramMax-v.ngramMin+1))
	for size := v.ngramMin; size <= v.ngramMax; size++ {
		for i := 0; i+size <= len(tokens); i++ {
			terms = append(terms, strings.Join(tokens[i:i+size], " "))
		}
	}
	return terms
}

func sortVector(vector featureVector) {
	sort.Slice(vector, func(i, j int) bool {
		return vector[i].term < vector[j].term
	})
}
