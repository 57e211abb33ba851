package quality

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/codemapper/codemap/internal/graph"
)

var (
	validationCallRe = regexp.MustCompile(`\b\w*[Vv]alidate\w*\([^)]*\)`)
	addressTokenRe   = regexp.MustCompile(`(?i)\b(street|city|zip|zipcode|postal_code|postcode|state|country|address_line)\b`)
	sqlTableDefRe    = regexp.MustCompile(`(?i)\b(CREATE|ALTER)\s+TABLE\s+(\w+)`)
	ormIncludeRe     = regexp.MustCompile(`\.Include\([^)]*\)|\.ThenInclude\([^)]*\)`)

	whitespaceRe = regexp.MustCompile(`\s+`)
)

// repeatedCategory defines one repeated-code detector: its matcher and the
// occurrence threshold above which an issue is emitted.
var repeatedCategories = []struct {
	name      string
	re        *regexp.Regexp
	threshold int
}{
	{"validation_calls", validationCallRe, 1},
	{"address_fields", addressTokenRe, 3},
	{"sql_table_definitions", sqlTableDefRe, 1},
	{"orm_includes", ormIncludeRe, 1},
}

// scanRepeatedCode counts normalized pattern occurrences across all
// snippets and emits one issue per category whose most-repeated pattern
// crosses its threshold. Fingerprints use xxh3 over the normalized text so
// the counting maps stay small on large trees.
func scanRepeatedCode(m *graph.CodeMap, stats *graph.Statistics) {
	for _, cat := range repeatedCategories {
		counts := map[uint64]int{}
		samples := map[uint64]string{}

		for _, n := range m.Nodes {
			if n.CodeSnippet == "" {
				continue
			}
			for _, match := range cat.re.FindAllString(n.CodeSnippet, -1) {
				norm := normalizeFragment(match)
				h := xxh3.HashString(norm)
				counts[h]++
				if _, ok := samples[h]; !ok {
					samples[h] = norm
				}
			}
		}

		maxCount, maxHash := 0, uint64(0)
		for h, c := range counts {
			if c > maxCount || (c == maxCount && samples[h] < samples[maxHash]) {
				maxCount, maxHash = c, h
			}
		}
		if maxCount > cat.threshold {
			stats.RepeatedCode.Add(graph.Issue{
				IssueType: cat.name,
				Detail:    samples[maxHash] + " ×" + strconv.Itoa(maxCount),
			})
		}
	}
}

// normalizeFragment lowercases and collapses whitespace.
func normalizeFragment(s string) string {
	return whitespaceRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(s)), " ")
}
