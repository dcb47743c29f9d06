package dedup

import (
	"sort"
	"strings"
)

// tokenSetRatio scores two strings in [0,1] by comparing the sorted token
// intersection against each side's full sorted token string. Word order and
// repeated tokens do not matter, and a string whose tokens are a subset of
// the other's scores 1. Both sides are normalized before comparison.
func tokenSetRatio(left, right string) float64 {
	leftSet := tokenSet(left)
	rightSet := tokenSet(right)
	if len(leftSet) == 0 || len(rightSet) == 0 {
		return 0
	}

	common := make([]string, 0, len(leftSet))
	leftOnly := make([]string, 0, len(leftSet))
	rightOnly := make([]string, 0, len(rightSet))
	for token := range leftSet {
		if _, ok := rightSet[token]; ok {
			common = append(common, token)
		} else {
			leftOnly = append(leftOnly, token)
		}
	}
	for token := range rightSet {
		if _, ok := leftSet[token]; !ok {
			rightOnly = append(rightOnly, token)
		}
	}
	sort.Strings(common)
	sort.Strings(leftOnly)
	sort.Strings(rightOnly)

	base := strings.Join(common, " ")
	combinedLeft := strings.TrimSpace(base + " " + strings.Join(leftOnly, " "))
	combinedRight := strings.TrimSpace(base + " " + strings.Join(rightOnly, " "))

	best := Ratio(base, combinedLeft)
	if r := Ratio(base, combinedRight); r > best {
		best = r
	}
	if r := Ratio(combinedLeft, combinedRight); r > best {
		best = r
	}
	return best
}

// Ratio is plain string similarity, 1 - editDistance/maxLen over runes. The
// cleaning layer uses it to consolidate near-identical company spellings.
func Ratio(left, right string) float64 {
	if left == right {
		return 1
	}
	leftRunes := []rune(left)
	rightRunes := []rune(right)
	longest := len(leftRunes)
	if len(rightRunes) > longest {
		longest = len(rightRunes)
	}
	if longest == 0 {
		return 1
	}
	distance := levenshtein(leftRunes, rightRunes)
	return 1 - float64(distance)/float64(longest)
}

func levenshtein(left, right []rune) int {
	if len(left) == 0 {
		return len(right)
	}
	if len(right) == 0 {
		return len(left)
	}

	previous := make([]int, len(right)+1)
	current := make([]int, len(right)+1)
	for j := range previous {
		previous[j] = j
	}

	for i := 1; i <= len(left); i++ {
		current[0] = i
		for j := 1; j <= len(right); j++ {
			cost := 1
			if left[i-1] == right[j-1] {
				cost = 0
			}
			current[j] = min3(
				previous[j]+1,
				current[j-1]+1,
				previous[j-1]+cost,
			)
		}
		previous, current = current, previous
	}
	return previous[len(right)]
}

func min3(a, b, c int) int {
	if b < a {
		a = b
	}
	if c < a {
		a = c
	}
	return a
}
