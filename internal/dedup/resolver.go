package dedup

import (
	"fmt"
	"sort"

	"github.com/bibliojobs/sift/internal/record"
)

// Cluster is one group of mutually duplicate records: the transitive closure
// of confirmed pairs. ID is the smallest record index in the cluster.
type Cluster struct {
	ID       int
	Members  []int
	Survivor int
}

// Removal reports one non-survivor record for auditing: which cluster it
// belonged to, which records implicated it, and why it was removed.
type Removal struct {
	RecordID       int
	ClusterID      int
	Reason         string
	MatchedAgainst []int
}

type unionFind struct {
	parent map[int]int
}

func newUnionFind() *unionFind {
	return &unionFind{parent: map[int]int{}}
}

func (u *unionFind) find(x int) int {
	root, ok := u.parent[x]
	if !ok {
		u.parent[x] = x
		return x
	}
	if root != x {
		u.parent[x] = u.find(root)
	}
	return u.parent[x]
}

func (u *unionFind) union(x, y int) {
	rootX := u.find(x)
	rootY := u.find(y)
	if rootX != rootY {
		u.parent[rootY] = rootX
	}
}

// resolveClusters groups confirmed pairs into clusters and picks exactly one
// survivor per cluster: the record with the most filled fields, ties broken
// by the lowest record index. Records without any confirmed pair become
// singleton clusters surviving unchanged.
func resolveClusters(pairs []ConfirmedPair, records []record.Record) ([]Cluster, []Removal) {
	uf := newUnionFind()
	matchedWith := map[int][]int{}
	pairScore := map[[2]int]ConfirmedPair{}
	for _, pair := range pairs {
		uf.union(pair.A, pair.B)
		matchedWith[pair.A] = append(matchedWith[pair.A], pair.B)
		matchedWith[pair.B] = append(matchedWith[pair.B], pair.A)
		pairScore[[2]int{pair.A, pair.B}] = pair
	}

	memberships := map[int][]int{}
	for _, r := range records {
		root := uf.find(r.Index)
		memberships[root] = append(memberships[root], r.Index)
	}

	byIndex := make(map[int]record.Record, len(records))
	for _, r := range records {
		byIndex[r.Index] = r
	}

	clusters := make([]Cluster, 0, len(memberships))
	for _, members := range memberships {
		sort.Ints(members)
		clusters = append(clusters, Cluster{
			ID:       members[0],
			Members:  members,
			Survivor: chooseSurvivor(members, byIndex),
		})
	}
	sort.Slice(clusters, func(i, j int) bool { return clusters[i].ID < clusters[j].ID })

	var removals []Removal
	for _, cluster := range clusters {
		for _, member := range cluster.Members {
			if member == cluster.Survivor {
				continue
			}
			matched := append([]int(nil), matchedWith[member]...)
			sort.Ints(matched)
			removals = append(removals, Removal{
				RecordID:       member,
				ClusterID:      cluster.ID,
				Reason:         removalReason(member, cluster, matched, pairScore),
				MatchedAgainst: matched,
			})
		}
	}
	sort.Slice(removals, func(i, j int) bool { return removals[i].RecordID < removals[j].RecordID })

	return clusters, removals
}

func chooseSurvivor(members []int, byIndex map[int]record.Record) int {
	survivor := members[0]
	bestCompleteness := byIndex[survivor].Completeness()
	for _, member := range members[1:] {
		completeness := byIndex[member].Completeness()
		if completeness > bestCompleteness {
			survivor = member
			bestCompleteness = completeness
		}
	}
	return survivor
}

func removalReason(member int, cluster Cluster, matched []int, pairScore map[[2]int]ConfirmedPair) string {
	for _, other := range matched {
		key := [2]int{member, other}
		if member > other {
			key = [2]int{other, member}
		}
		if pair, ok := pairScore[key]; ok {
			return fmt.Sprintf(
				"duplicate of record %d (%s, score %.3f)",
				cluster.Survivor, pair.Rule, pair.CombinedScore,
			)
		}
	}
	return fmt.Sprintf("duplicate member of cluster %d", cluster.ID)
}
