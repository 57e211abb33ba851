package quality

import (
	"regexp"
	"strings"

	"github.com/codemapper/codemap/internal/graph"
)

var (
	todoRe        = regexp.MustCompile(`\bTODO\b`)
	fixmeRe       = regexp.MustCompile(`\bFIXME\b`)
	hackRe        = regexp.MustCompile(`(?i)\bhacky\b|\bhack\b|\bkludge\b|\bworkaround\b`)
	tempRemovalRe = regexp.MustCompile(`(?i)temporarily removed|temp removed|temporary removal`)
)

// commentIntroducers are the tokens that start a comment on a line.
var commentIntroducers = []string{"//", "#", "--", "/*", "*"}

// scanTechnicalDebt scans Service-scope snippets line by line for debt
// markers. A marker only counts when it appears inside a comment and no
// string literal opens before the match column.
func scanTechnicalDebt(m *graph.CodeMap, stats *graph.Statistics) {
	seen := map[string]bool{}
	for _, n := range m.Nodes {
		if n.CodeSnippet == "" || !inServiceOnlyScope(n) {
			continue
		}
		key := n.FilePath + "|" + n.Label
		if seen[key] {
			continue
		}
		seen[key] = true

		for i, line := range strings.Split(n.CodeSnippet, "\n") {
			marker, kind := classifyDebtLine(line)
			if kind == "" {
				continue
			}
			issue := graph.Issue{
				FilePath:     n.FilePath,
				FunctionName: n.Label,
				Line:         i + 1,
				IssueType:    kind,
				Detail:       marker,
			}
			switch kind {
			case "todo":
				stats.TechnicalDebt.Todos++
			case "fixme":
				stats.TechnicalDebt.Fixmes++
			case "hack":
				stats.TechnicalDebt.Hacks++
			case "temp_removal":
				stats.TechnicalDebt.TempRemovals++
			}
			stats.TechnicalDebt.Issues = append(stats.TechnicalDebt.Issues, issue)
			stats.TechnicalDebt.Count++
		}
	}
}

// classifyDebtLine returns the matched marker text and its class when the
// line carries a debt marker inside a comment.
func classifyDebtLine(line string) (marker, kind string) {
	commentCol := commentStart(line)
	if commentCol < 0 {
		return "", ""
	}
	comment := line[commentCol:]

	checks := []struct {
		re   *regexp.Regexp
		kind string
	}{
		{todoRe, "todo"},
		{fixmeRe, "fixme"},
		{hackRe, "hack"},
		{tempRemovalRe, "temp_removal"},
	}
	for _, c := range checks {
		if loc := c.re.FindStringIndex(comment); loc != nil {
			return strings.TrimSpace(comment), c.kind
		}
	}
	return "", ""
}

// commentStart returns the column where a comment begins, or -1. A string
// literal opening before the introducer disqualifies the line.
func commentStart(line string) int {
	best := -1
	for _, intro := range commentIntroducers {
		idx := strings.Index(line, intro)
		if idx < 0 {
			continue
		}
		if strings.ContainsAny(line[:idx], `"'`) {
			continue
		}
		if best == -1 || idx < best {
			best = idx
		}
	}
	return best
}
