package dedup

import (
	"context"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"
)

// CandidatePair is a plausibly-similar record pair retrieved before any
// rule-based confirmation. A < B always holds, so each unordered pair is
// emitted at most once.
type CandidatePair struct {
	A          int
	B          int
	Similarity float64
}

type posting struct {
	doc    int
	weight float64
}

// findCandidates retrieves, for each record, up to k nearest neighbors by
// cosine similarity and keeps those at or above minSimilarity. Pair ids are
// positions in the vector list; the engine translates them into record
// indexes afterwards. Vectors are
// L2-normalized, so accumulating term-weight products over an inverted index
// yields cosine directly and records sharing no term are never compared.
// Workers read the shared index and write disjoint partitions; the merged
// output is sorted by (A, B) regardless of scheduling.
func findCandidates(ctx context.Context, vectors []featureVector, vocabularySize, k int, minSimilarity float64) ([]CandidatePair, error) {
	if len(vectors) < 2 || vocabularySize == 0 {
		return nil, nil
	}

	index := make([][]posting, vocabularySize)
	for doc, vector := range vectors {
		for _, entry := range vector {
			index[entry.term] = append(index[entry.term], posting{doc: doc, weight: entry.weight})
		}
	}

	workers := runtime.GOMAXPROCS(0)
	if workers > len(vectors) {
		workers = len(vectors)
	}
	partitions := make([][]CandidatePair, workers)
	chunk := (len(vectors) + workers - 1) / workers

	group, ctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if end > len(vectors) {
			end = len(vectors)
		}
		group.Go(func() error {
			scores := map[int]float64{}
			for doc := start; doc < end; doc++ {
				if err := ctx.Err(); err != nil {
					return err
				}
				clear(scores)
				for _, entry := range vectors[doc] {
					for _, p := range index[entry.term] {
						if p.doc == doc {
							continue
						}
						scores[p.doc] += entry.weight * p.weight
					}
				}
				partitions[w] = append(partitions[w], topNeighbors(doc, scores, k, minSimilarity)...)
			}
			return nil
		})
	}
	if err := group.Wait(); err != nil {
		return nil, err
	}

	return mergeCandidatePartitions(partitions), nil
}

// topNeighbors keeps the k best neighbors of doc above the similarity floor.
// Equal similarities break toward the lower record id for determinism.
func topNeighbors(doc int, scores map[int]float64, k int, minSimilarity float64) []CandidatePair {
	neighbors := make([]posting, 0, len(scores))
	for other, score := range scores {
		if score < minSimilarity {
			continue
		}
		neighbors = append(neighbors, posting{doc: other, weight: score})
	}
	sort.Slice(neighbors, func(i, j int) bool {
		if neighbors[i].weight != neighbors[j].weight {
			return neighbors[i].weight > neighbors[j].weight
		}
		return neighbors[i].doc < neighbors[j].doc
	})
	if len(neighbors) > k {
		neighbors = neighbors[:k]
	}

	pairs := make([]CandidatePair, 0, len(neighbors))
	for _, n := range neighbors {
		a, b := doc, n.doc
		if a > b {
			a, b = b, a
		}
		pairs = append(pairs, CandidatePair{A: a, B: b, Similarity: n.weight})
	}
	return pairs
}

// mergeCandidatePartitions combines per-worker output, collapses pairs seen
// from both sides, and returns a deterministic (A, B) ordering. When the two
// directions disagree on the last float bit, the lower-id side wins.
func mergeCandidatePartitions(partitions [][]CandidatePair) []CandidatePair {
	type pairKey struct{ a, b int }
	merged := map[pairKey]float64{}
	for _, partition := range partitions {
		for _, pair := range partition {
			key := pairKey{a: pair.A, b: pair.B}
			if _, seen := merged[key]; !seen {
				merged[key] = pair.Similarity
			}
		}
	}

	pairs := make([]CandidatePair, 0, len(merged))
	for key, similarity := range merged {
		pairs = append(pairs, CandidatePair{A: key.a, B: key.b, Similarity: similarity})
	}
	sort.Slice(pairs, func(i, j int) bool {
		if pairs[i].A != pairs[j].A {
			return pairs[i].A < pairs[j].A
		}
		return pairs[i].B < pairs[j].B
	})
	return pairs
}
