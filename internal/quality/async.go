package quality

import (
	"regexp"

	"github.com/codemapper/codemap/internal/graph"
)

var (
	// .Result not immediately followed by an equality operator.
	blockingResultRe  = regexp.MustCompile(`\.Result\b\s*(?:[^=!\s]|$)`)
	blockingWaitRe    = regexp.MustCompile(`\.Wait\(\)`)
	blockingAwaiterRe = regexp.MustCompile(`\.GetAwaiter\(\)\.GetResult\(`)
)

// blockingPatterns pairs each blocking-call method with its matcher.
var blockingPatterns = []struct {
	method string
	re     *regexp.Regexp
}{
	{".Result", blockingResultRe},
	{".Wait()", blockingWaitRe},
	{".GetAwaiter().GetResult()", blockingAwaiterRe},
}

// scanBlockingAsync flags synchronous blocking over async results in
// Service/Controller code, excluding test fixtures. Deduped per
// (filePath, label, method).
func scanBlockingAsync(m *graph.CodeMap, stats *graph.Statistics) {
	seen := map[string]bool{}
	for _, n := range m.Nodes {
		if n.CodeSnippet == "" || !inServiceScope(n) || isTestFixture(n) {
			continue
		}
		for _, p := range blockingPatterns {
			if !p.re.MatchString(n.CodeSnippet) {
				continue
			}
			key := n.FilePath + "|" + n.Label + "|" + p.method
			if seen[key] {
				continue
			}
			seen[key] = true
			stats.BlockingAsync.Add(graph.Issue{
				FilePath:     n.FilePath,
				FunctionName: n.Label,
				IssueType:    "blocking_async",
				Detail:       p.method,
			})
		}
	}
}

var (
	unawaitedSaveRe    = regexp.MustCompile(`(?m)^\s*(?:\w+\.)*\w*\.SaveChangesAsync\(`)
	awaitedResultRe    = regexp.MustCompile(`await\s+[^;\n]*\.Result\b`)
	commentedIncludeRe = regexp.MustCompile(`//[^\n]*\.Include\(`)
	activeQueryRe      = regexp.MustCompile(`\.Where\(|\.First\(|\.FirstOrDefault\(|\.ToList\(|\.ToListAsync\(`)
	lowTimeoutRe       = regexp.MustCompile(`(?i)(?:CommandTimeout|timeout)\s*[=:]\s*([0-9]{1,2})\b`)
	fireAndForgetRe    = regexp.MustCompile(`(?m)^\s*Task\.Run\(`)
	asyncBodyRe        = regexp.MustCompile(`\basync\b`)
)

// anomalyChecks maps each anomaly type to its detector.
var anomalyChecks = []struct {
	issueType string
	match     func(snippet string) bool
}{
	{"unawaited_save_changes", func(s string) bool { return unawaitedSaveRe.MatchString(s) }},
	{"await_then_result", func(s string) bool { return asyncBodyRe.MatchString(s) && awaitedResultRe.MatchString(s) }},
	{"commented_include", func(s string) bool { return commentedIncludeRe.MatchString(s) && activeQueryRe.MatchString(s) }},
	{"low_db_timeout", func(s string) bool { return lowTimeoutRe.MatchString(s) }},
	{"fire_and_forget", func(s string) bool { return fireAndForgetRe.MatchString(s) }},
}

// scanAnomalies flags async-usage anomalies in Service/Controller code,
// deduped by issue type per function.
func scanAnomalies(m *graph.CodeMap, stats *graph.Statistics) {
	seen := map[string]bool{}
	for _, n := range m.Nodes {
		if n.CodeSnippet == "" || !inServiceScope(n) || isTestFixture(n) {
			continue
		}
		for _, check := range anomalyChecks {
			if !check.match(n.CodeSnippet) {
				continue
			}
			key := n.FilePath + "|" + n.Label + "|" + check.issueType
			if seen[key] {
				continue
			}
			seen[key] = true
			stats.Anomalies.Add(graph.Issue{
				FilePath:     n.FilePath,
				FunctionName: n.Label,
				IssueType:    check.issueType,
			})
		}
	}
}
