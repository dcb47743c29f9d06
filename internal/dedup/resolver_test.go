package dedup

import (
	"testing"
)

func confirmedPair(a, b int, score float64) ConfirmedPair {
	return ConfirmedPair{
		CandidatePair: CandidatePair{A: a, B: b, Similarity: score},
		Rule:          RuleExactLocationFuzzyText,
		CombinedScore: score,
	}
}

func TestResolveClustersTransitiveClosure(t *testing.T) {
	t.Parallel()

	records := makeRecords([]map[string]string{
		{"company": "a", "location": "x", "jobtype": "v", "jobdescription": "d"},
		{"company": "a", "location": "x", "jobtype": "v", "jobdescription": "d"},
		{"company": "a", "location": "x", "jobtype": "v", "jobdescription": "d"},
		{"company": "b", "location": "y", "jobtype": "v", "jobdescription": "e"},
	})
	// 0-1 and 1-2 confirmed: 0,1,2 must land in one cluster even though 0-2
	// was never directly compared.
	pairs := []ConfirmedPair{confirmedPair(0, 1, 0.95), confirmedPair(1, 2, 0.92)}

	clusters, removals := resolveClusters(pairs, records)
	if len(clusters) != 2 {
		t.Fatalf("expected 2 clusters, got %d: %v", len(clusters), clusters)
	}
	if clusters[0].ID != 0 || len(clusters[0].Members) != 3 {
		t.Fatalf("unexpected first cluster: %+v", clusters[0])
	}
	if clusters[1].ID != 3 || len(clusters[1].Members) != 1 || clusters[1].Survivor != 3 {
		t.Fatalf("record without pairs must be a singleton survivor: %+v", clusters[1])
	}
	if len(removals) != 2 {
		t.Fatalf("expected 2 removals, got %d", len(removals))
	}
}

func TestResolveClustersPartition(t *testing.T) {
	t.Parallel()

	records := makeRecords([]map[string]string{
		{"company": "a", "location": "x"},
		{"company": "a", "location": "x"},
		{"company": "b", "location": "x"},
		{"company": "c", "location": "y"},
		{"company": "c", "location": "y"},
	})
	pairs := []ConfirmedPair{confirmedPair(0, 1, 0.9), confirmedPair(3, 4, 0.9)}

	clusters, removals := resolveClusters(pairs, records)

	seen := map[int]int{}
	for _, cluster := range clusters {
		for _, member := range cluster.Members {
			seen[member]++
		}
	}
	if len(seen) != len(records) {
		t.Fatalf("clusters do not cover all records: %v", seen)
	}
	for id, count := range seen {
		if count != 1 {
			t.Fatalf("record %d appears in %d clusters", id, count)
		}
	}

	removed := map[int]struct{}{}
	for _, removal := range removals {
		if _, dup := removed[removal.RecordID]; dup {
			t.Fatalf("record %d removed twice", removal.RecordID)
		}
		removed[removal.RecordID] = struct{}{}
	}
	survivors := map[int]struct{}{}
	for _, cluster := range clusters {
		if _, gone := removed[cluster.Survivor]; gone {
			t.Fatalf("survivor %d also appears in removals", cluster.Survivor)
		}
		survivors[cluster.Survivor] = struct{}{}
	}
	if len(survivors)+len(removed) != len(records) {
		t.Fatalf("survivors and removals do not partition the input: %d + %d != %d",
			len(survivors), len(removed), len(records))
	}
}

func TestSurvivorPrefersCompleteness(t *testing.T) {
	t.Parallel()

	records := makeRecords([]map[string]string{
		{"company": "a", "location": "x", "jobtype": "", "jobdescription": ""},
		{"company": "a", "location": "x", "jobtype": "Vollzeit", "jobdescription": "Bestandspflege"},
	})
	pairs := []ConfirmedPair{confirmedPair(0, 1, 0.9)}

	clusters, removals := resolveClusters(pairs, records)
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].Survivor != 1 {
		t.Fatalf("more complete record must survive, got survivor %d", clusters[0].Survivor)
	}
	if len(removals) != 1 || removals[0].RecordID != 0 {
		t.Fatalf("unexpected removals: %v", removals)
	}
}

func TestSurvivorTieBreaksLowestID(t *testing.T) {
	t.Parallel()

	records := makeRecords([]map[string]string{
		{"company": "a", "location": "x", "jobtype": "v", "jobdescription": "d"},
		{"company": "a", "location": "x", "jobtype": "v", "jobdescription": "d"},
	})
	pairs := []ConfirmedPair{confirmedPair(0, 1, 0.9)}

	clusters, _ := resolveClusters(pairs, records)
	if clusters[0].Survivor != 0 {
		t.Fatalf("equally complete records must keep the lower id, got %d", clusters[0].Survivor)
	}
}

func TestRemovalCarriesAuditTrail(t *testing.T) {
	t.Parallel()

	records := makeRecords([]map[string]string{
		{"company": "a", "location": "x", "jobtype": "v", "jobdescription": "d"},
		{"company": "a", "location": "x", "jobtype": "v", "jobdescription": "d"},
	})
	pairs := []ConfirmedPair{confirmedPair(0, 1, 0.913)}

	_, removals := resolveClusters(pairs, records)
	if len(removals) != 1 {
		t.Fatalf("expected 1 removal, got %d", len(removals))
	}
	removal := removals[0]
	if removal.ClusterID != 0 {
		t.Fatalf("unexpected cluster id %d", removal.ClusterID)
	}
	if len(removal.MatchedAgainst) != 1 || removal.MatchedAgainst[0] != 0 {
		t.Fatalf("unexpected matched-against set: %v", removal.MatchedAgainst)
	}
	if removal.Reason == "" {
		t.Fatalf("removal reason must not be empty")
	}
}
