package dedup

import (
	"context"
	"math"
	"reflect"
	"testing"
)

func TestVectorizerFitTransformBasics(t *testing.T) {
	t.Parallel()

	v := newVectorizer(1, 1)
	vectors, err := v.fitTransform(context.Background(), []string{
		"bibliothekar berlin",
		"bibliothekar potsdam",
	})
	if err != nil {
		t.Fatalf("fitTransform failed: %v", err)
	}
	if len(vectors) != 2 {
		t.Fatalf("expected 2 vectors, got %d", len(vectors))
	}
	if v.vocabularySize() != 3 {
		t.Fatalf("expected vocabulary of 3 terms, got %d", v.vocabularySize())
	}
	for i, vector := range vectors {
		var squared float64
		for _, entry := range vector {
			squared += entry.weight * entry.weight
		}
		if math.Abs(math.Sqrt(squared)-1) > 1e-9 {
			t.Fatalf("vector %d is not L2-normalized: norm %f", i, math.Sqrt(squared))
		}
	}
}

func TestVectorizerSingleRecord(t *testing.T) {
	t.Parallel()

	v := newVectorizer(1, 2)
	vectors, err := v.fitTransform(context.Background(), []string{"stadtbibliothek berlin"})
	if err != nil {
		t.Fatalf("fitTransform failed on a single record: %v", err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		t.Fatalf("expected one non-empty vector, got %v", vectors)
	}
}

func TestVectorizerEmptyCorpus(t *testing.T) {
	t.Parallel()

	v := newVectorizer(1, 2)
	vectors, err := v.fitTransform(context.Background(), []string{"", "   ", ""})
	if err != nil {
		t.Fatalf("fitTransform failed on empty corpus: %v", err)
	}
	if v.vocabularySize() != 0 {
		t.Fatalf("expected empty vocabulary, got %d terms", v.vocabularySize())
	}
	for i, vector := range vectors {
		if len(vector) != 0 {
			t.Fatalf("expected empty vector at %d, got %v", i, vector)
		}
	}
}

func TestVectorizerNgrams(t *testing.T) {
	t.Parallel()

	v := newVectorizer(1, 2)
	got := v.ngrams([]string{"acme", "inc", "berlin"})
	want := []string{"acme", "inc", "berlin", "acme inc", "inc berlin"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("unexpected n-grams: got %v want %v", got, want)
	}

	if got := v.ngrams(nil); got != nil {
		t.Fatalf("expected nil n-grams for empty tokens, got %v", got)
	}
}

func TestVectorizerBigramsCatchPartialNames(t *testing.T) {
	t.Parallel()

	v := newVectorizer(1, 2)
	vectors, err := v.fitTransform(context.Background(), []string{
		"acme inc berlin",
		"acme gmbh berlin",
		"completely different text",
	})
	if err != nil {
		t.Fatalf("fitTransform failed: %v", err)
	}

	near := cosine(vectors[0], vectors[1])
	far := cosine(vectors[0], vectors[2])
	if near <= far {
		t.Fatalf("expected partial-name overlap to beat unrelated text: near=%f far=%f", near, far)
	}
	if far != 0 {
		t.Fatalf("records sharing no term should have zero similarity, got %f", far)
	}
}

func TestVectorizerDeterministicVocabulary(t *testing.T) {
	t.Parallel()

	signatures := []string{"a b c", "b c d", "d e f"}
	first := newVectorizer(1, 2)
	second := newVectorizer(1, 2)
	if _, err := first.fitTransform(context.Background(), signatures); err != nil {
		t.Fatalf("first fit failed: %v", err)
	}
	if _, err := second.fitTransform(context.Background(), signatures); err != nil {
		t.Fatalf("second fit failed: %v", err)
	}
	if !reflect.DeepEqual(first.vocabulary, second.vocabulary) {
		t.Fatalf("vocabulary assignment is not deterministic")
	}
}

func cosine(left, right featureVector) float64 {
	weights := map[int]float64{}
	for _, entry := range left {
		weights[entry.term] = entry.weight
	}
	var sum float64
	for _, entry := range right {
		sum += weights[entry.term] * entry.weight
	}
	return sum
}
