package cleaning

import (
	"regexp"
	"sort"
	"strings"

	"github.com/bibliojobs/sift/internal/dedup"
)

// ConsolidationThreshold is the minimum full-string similarity for two
// company spellings to be folded into one canonical form.
const ConsolidationThreshold = 0.85

var (
	// German postal codes appended to company names, usually as
	// ", 12345 Stadt" or ", 12345" at the end of the value.
	plzRe = regexp.MustCompile(`(?i),\s*(\d{5})(?:\s+[A-ZÄÖÜ][a-zäöüß\s-]+)?$`)

	// Less common form without a comma. Requires a trailing city name so a
	// five-digit job id at the end of a name is not mistaken for a PLZ.
	plzNoCommaRe = regexp.MustCompile(`(?i)\s+(\d{5})\s+[A-ZÄÖÜ][a-zäöüß\s-]+$`)

	// Large-city suffixes after a comma carry no information beyond the
	// location column and get stripped.
	trailingCityRe = regexp.MustCompile(`(?i),\s+(?:Hamburg|Berlin|München|Köln|Frankfurt|Dresden|Leipzig|Hannover|Düsseldorf|Stuttgart|Dortmund|Essen|Bremen|Duisburg|Nürnberg|Bochum|Wuppertal|Bielefeld|Bonn|Münster|Karlsruhe|Mannheim|Augsburg|Wiesbaden|Gelsenkirchen|Mönchengladbach|Braunschweig|Chemnitz|Kiel|Aachen|Halle|Magdeburg|Freiburg|Krefeld|Lübeck|Mainz|Erfurt|Oberhausen|Rostock|Kassel|Hagen|Potsdam|Saarbrücken|Hamm|Mülheim|Ludwigshafen|Leverkusen|Oldenburg|Osnabrück|Solingen|Heidelberg|Herne|Neuss|Darmstadt|Paderborn|Regensburg|Ingolstadt|Würzburg|Fürth|Wolfsburg|Offenbach|Ulm|Heilbronn|Pforzheim|Göttingen|Bottrop|Trier|Recklinghausen|Reutlingen|Bremerhaven|Koblenz|Bergisch Gladbach|Jena|Remscheid|Erlangen|Moers|Siegen|Hildesheim|Salzgitter|Leimen|Marburg|Kleve|Wildau|Minden|Oberhaching|Böhl-Iggelheim|Groß-Umstadt|Mainburg|Stralsund|Zella-Mehlis)$`)

	trailingDotRe   = regexp.MustCompile(`\s*\.\s*$`)
	repeatedCommaRe = regexp.MustCompile(`,\s*,+`)
	trailingCommaRe = regexp.MustCompile(`,\s*$`)
	innerSpaceRe    = regexp.MustCompile(`\s+`)
	hyphenSpacingRe = regexp.MustCompile(`-\s+`)
)

// Legal forms and institution words are folded to one canonical spelling so
// casing variants do not split a company into several values. Order matters:
// gGmbH must win over the plain GmbH pattern.
var legalForms = []struct {
	re          *regexp.Regexp
	replacement string
}{
	{regexp.MustCompile(`(?i)\bgGmbH\b`), "gGmbH"},
	{regexp.MustCompile(`(?i)\bGmbH\b`), "GmbH"},
	{regexp.MustCompile(`(?i)\bAG\b`), "AG"},
	{regexp.MustCompile(`(?i)\be\.V\.`), "e.V."},
	{regexp.MustCompile(`(?i)\beV\b`), "e.V."},
	{regexp.MustCompile(`(?i)\bLLP\b`), "LLP"},
	{regexp.MustCompile(`(?i)\bBibliothek\b`), "Bibliothek"},
	{regexp.MustCompile(`(?i)\bUniversität\b`), "Universität"},
	{regexp.MustCompile(`(?i)\bHochschule\b`), "Hochschule"},
	{regexp.MustCompile(`(?i)\bInstitut\b`), "Institut"},
	{regexp.MustCompile(`(?i)\bZentrum\b`), "Zentrum"},
	{regexp.MustCompile(`(?i)\bStadt\b`), "Stadt"},
}

// Descriptive tails that repeat what other columns already say.
var redundantSuffixes = []*regexp.Regexp{
	regexp.MustCompile(`(?i),\s*Softwarehersteller für Bibliotheken`),
	regexp.MustCompile(`(?i),\s*Bibliothek$`),
	regexp.MustCompile(`(?i),\s*Stadtbibliothek$`),
	regexp.MustCompile(`(?i),\s*Universitätsbibliothek$`),
	regexp.MustCompile(`(?i),\s*Referat Benutzung$`),
	regexp.MustCompile(`(?i),\s*Dienstort\s+\w+$`),
	regexp.MustCompile(`(?i),\s*Standort\s+\w+$`),
	regexp.MustCompile(`(?i),\s*Ärztliche Zentralbibliothek$`),
	regexp.MustCompile(`(?i),\s*Hochschulbibliothek$`),
}

// ExtractPLZ splits a trailing postal code off a company name. It returns the
// company name without the PLZ part and the extracted code, or "" when the
// value carries none.
func ExtractPLZ(value string) (company, plz string) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return trimmed, ""
	}

	if match := plzRe.FindStringSubmatch(trimmed); match != nil {
		return strings.TrimSpace(plzRe.ReplaceAllString(trimmed, "")), match[1]
	}
	if match := plzNoCommaRe.FindStringSubmatch(trimmed); match != nil {
		return strings.TrimSpace(plzNoCommaRe.ReplaceAllString(trimmed, "")), match[1]
	}
	return trimmed, ""
}

// StandardizeCompany normalizes a single company name: trailing city and
// descriptive suffixes removed, punctuation tidied, legal forms in canonical
// casing. PLZ extraction happens separately before this step.
func StandardizeCompany(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return v
	}

	v = trailingCityRe.ReplaceAllString(v, "")

	v = trailingDotRe.ReplaceAllString(v, "")
	v = repeatedCommaRe.ReplaceAllString(v, ",")
	v = trailingCommaRe.ReplaceAllString(v, "")
	v = innerSpaceRe.ReplaceAllString(v, " ")
	v = hyphenSpacingRe.ReplaceAllString(v, "- ")

	for _, form := range legalForms {
		v = form.re.ReplaceAllString(v, form.replacement)
	}
	for _, suffix := range redundantSuffixes {
		v = suffix.ReplaceAllString(v, "")
	}

	return strings.TrimSpace(v)
}

// ConsolidateCompanies maps near-identical company spellings to one canonical
// value. Values are grouped greedily in order of decreasing frequency; within
// a group the most frequent spelling wins, ties going to the shortest. The
// returned map only contains values that actually change.
func ConsolidateCompanies(values []string, threshold float64) map[string]string {
	counts := map[string]int{}
	for _, value := range values {
		if strings.TrimSpace(value) == "" {
			continue
		}
		counts[value]++
	}

	unique := make([]string, 0, len(counts))
	for value := range counts {
		unique = append(unique, value)
	}
	sort.Slice(unique, func(i, j int) bool {
		if counts[unique[i]] != counts[unique[j]] {
			return counts[unique[i]] > counts[unique[j]]
		}
		return unique[i] < unique[j]
	})

	mapping := map[string]string{}
	used := make(map[string]bool, len(unique))
	for i, canonicalCandidate := range unique {
		if used[canonicalCandidate] {
			continue
		}
		used[canonicalCandidate] = true

		group := []string{canonicalCandidate}
		for _, other := range unique[i+1:] {
			if used[other] {
				continue
			}
			if dedup.Ratio(strings.ToLower(canonicalCandidate), strings.ToLower(other)) >= threshold {
				group = append(group, other)
				used[other] = true
			}
		}
		if len(group) < 2 {
			continue
		}

		canonical := pickCanonical(group, counts)
		for _, member := range group {
			if member != canonical {
				mapping[member] = canonical
			}
		}
	}
	return mapping
}

func pickCanonical(group []string, counts map[string]int) string {
	sorted := append([]string(nil), group...)
	sort.Slice(sorted, func(i, j int) bool {
		if counts[sorted[i]] != counts[sorted[j]] {
			return counts[sorted[i]] > counts[sorted[j]]
		}
		if len(sorted[i]) != len(sorted[j]) {
			return len(sorted[i]) < len(sorted[j])
		}
		return sorted[i] < sorted[j]
	})
	return sorted[0]
}
