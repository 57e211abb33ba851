package quality

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/codemapper/codemap/internal/graph"
)

var (
	tryRe   = regexp.MustCompile(`\btry\b\s*[{:]`)
	catchRe = regexp.MustCompile(`\bcatch\b|\bexcept\b|\brescue\b`)

	numberLiteralRe = regexp.MustCompile(`\b\d+\b`)
	stringLiteralRe = regexp.MustCompile(`["']([^"'\n]{2,})["']`)
	upperTokenRe    = regexp.MustCompile(`^[A-Z_]{8,}$`)

	castParenRe = regexp.MustCompile(`\(\s*[A-Z]\w*\s*\)\s*\w`)
	castAsRe    = regexp.MustCompile(`\bas\s+[A-Z]\w*`)
)

// allowedNumbers are the HTTP status codes excluded from magic-number
// counting; years 1900-2100 are excluded by range.
var allowedNumbers = map[int]bool{200: true, 201: true, 400: true, 404: true, 500: true}

// contentTypeTokens are well-known web tokens excluded from magic-string
// counting.
var contentTypeTokens = []string{
	"application/json", "application/xml", "text/html", "text/plain",
	"multipart/form-data", "application/x-www-form-urlencoded", "utf-8",
}

const (
	magicCountThreshold = 5
	longMethodLines     = 80
	castCountThreshold  = 10
)

// scanCodeSmells fills the code-smells bucket for Service/Controller scope:
// try without catch, magic number/string overuse, over-long methods and
// excessive explicit casts.
func scanCodeSmells(m *graph.CodeMap, stats *graph.Statistics) {
	for _, n := range m.Nodes {
		if n.CodeSnippet == "" || !inServiceScope(n) {
			continue
		}
		snippet := n.CodeSnippet

		if tryWithoutCatch(snippet) {
			stats.CodeSmells.Add(graph.Issue{
				FilePath: n.FilePath, FunctionName: n.Label,
				IssueType: "try_without_catch",
			})
		}

		if c := magicCount(snippet); c > magicCountThreshold {
			stats.CodeSmells.Add(graph.Issue{
				FilePath: n.FilePath, FunctionName: n.Label,
				IssueType: "magic_values",
				Detail:    strconv.Itoa(c) + " magic literals",
			})
		}

		if functionLike(n) {
			if lines := strings.Count(snippet, "\n") + 1; lines > longMethodLines {
				stats.CodeSmells.Add(graph.Issue{
					FilePath: n.FilePath, FunctionName: n.Label,
					IssueType: "long_method",
					Detail:    strconv.Itoa(lines) + " lines",
				})
			}
		}

		if c := castCount(snippet); c > castCountThreshold {
			stats.CodeSmells.Add(graph.Issue{
				FilePath: n.FilePath, FunctionName: n.Label,
				IssueType: "excessive_casts",
				Detail:    strconv.Itoa(c) + " casts",
			})
		}
	}
}

func tryWithoutCatch(snippet string) bool {
	return tryRe.MatchString(snippet) && !catchRe.MatchString(snippet)
}

// magicCount counts magic numbers (≥400 or ≥4 digits, minus allowed status
// codes and years) plus magic strings (length ≥15 or shouty tokens, minus
// content-type tokens).
func magicCount(snippet string) int {
	count := 0
	for _, m := range numberLiteralRe.FindAllString(snippet, -1) {
		v, err := strconv.Atoi(m)
		if err != nil {
			continue
		}
		if v < 400 && len(m) < 4 {
			continue
		}
		if allowedNumbers[v] || (v >= 1900 && v <= 2100) {
			continue
		}
		count++
	}
	for _, m := range stringLiteralRe.FindAllStringSubmatch(snippet, -1) {
		s := m[1]
		if len(s) < 15 && !upperTokenRe.MatchString(s) {
			continue
		}
		if isContentTypeToken(s) {
			continue
		}
		count++
	}
	return count
}

func isContentTypeToken(s string) bool {
	lower := strings.ToLower(s)
	for _, t := range contentTypeTokens {
		if strings.Contains(lower, t) {
			return true
		}
	}
	return false
}

func castCount(snippet string) int {
	return len(castParenRe.FindAllString(snippet, -1)) + len(castAsRe.FindAllString(snippet, -1))
}
