// Package quality derives structural metrics from extracted snippets and
// the edge graph. The pattern lists are part of the output contract: metric
// counts are compared by golden tests.
package quality

import (
	"regexp"
	"strings"

	"github.com/codemapper/codemap/internal/graph"
)

// Analyze computes the full statistics record over a finalized map. It is
// read-only: nodes and edges are never mutated.
func Analyze(m *graph.CodeMap) *graph.Statistics {
	stats := &graph.Statistics{}

	scanLoops(m, stats)
	scanBlockingAsync(m, stats)
	scanTechnicalDebt(m, stats)
	scanCodeSmells(m, stats)
	scanAnomalies(m, stats)
	scanDeadCode(m, stats)
	scanRepeatedCode(m, stats)

	return stats
}

var (
	serviceScopeRe = regexp.MustCompile(`Service|Controller`)
	serviceOnlyRe  = regexp.MustCompile(`Service`)
	testFixtureRe  = regexp.MustCompile(`(?i)test|spec|mock|stub`)
)

// inServiceScope reports whether a node's path or label mentions Service or
// Controller.
func inServiceScope(n *graph.Node) bool {
	return serviceScopeRe.MatchString(n.FilePath) || serviceScopeRe.MatchString(n.Label)
}

// inServiceOnlyScope restricts to Service mentions.
func inServiceOnlyScope(n *graph.Node) bool {
	return serviceOnlyRe.MatchString(n.FilePath) || serviceOnlyRe.MatchString(n.Label)
}

// isTestFixture excludes test/spec/mock/stub paths.
func isTestFixture(n *graph.Node) bool {
	return testFixtureRe.MatchString(n.FilePath)
}

// functionLike selects the node types whose snippets are scanned.
func functionLike(n *graph.Node) bool {
	return n.Type == graph.NodeFunction || n.Type == graph.NodeAPIRoute
}

// lineOf returns the 1-based line of a byte offset within a snippet.
func lineOf(snippet string, offset int) int {
	if offset > len(snippet) {
		offset = len(snippet)
	}
	return strings.Count(snippet[:offset], "\n") + 1
}
