package quality

import (
	"fmt"
	"regexp"

	"github.com/codemapper/codemap/internal/graph"
)

// dbPatternRe matches evidence of a database operation inside a loop body:
// raw SQL verbs, ORM operations, EF Core context access, Laravel facades,
// SaveChanges calls and SQLAlchemy sessions.
var dbPatternRe = regexp.MustCompile(`(?i)\bSELECT\b|\bINSERT\s+INTO\b|\bUPDATE\s+\w+\s+SET\b|\bDELETE\s+FROM\b` +
	`|\bprisma\.\w+\.\w+\(|_context\.\w+|\bDB::|\bCache::|\.SaveChanges\w*\(|\bsession\.query\b` +
	`|\.Find\(|\.FindAsync\(|\.First\(|\.FirstOrDefault\(|\.Where\(|\.findOne\(|\.findMany\(|\.query\(`)

// findOpRe matches the narrower find/where/select operations that make a
// loop an N+1 candidate.
var findOpRe = regexp.MustCompile(`\.Find\(|\.FindAsync\(|\.First\(|\.FirstOrDefault\(|\.Where\(|\.findOne\(|\.findMany\(|\.findById\(|(?i)\bselect\b`)

// eagerLoadRe matches eager-loading markers that clear an N+1 candidate.
var eagerLoadRe = regexp.MustCompile(`\.Include\b|\.ThenInclude\b|\.With\b|\.Join\b|(?i)eager|(?i)preload|\.Load\b`)

// scanLoops fills the DB-queries-in-loops and N+1 buckets. Each issue is
// counted once per (filePath, label, loopStart).
func scanLoops(m *graph.CodeMap, stats *graph.Statistics) {
	seenDB := map[string]bool{}
	seenN1 := map[string]bool{}

	for _, n := range m.Nodes {
		if !functionLike(n) || n.CodeSnippet == "" {
			continue
		}

		for _, loop := range findLoops(n.CodeSnippet, false) {
			if !dbPatternRe.MatchString(loop.Body) {
				continue
			}
			key := fmt.Sprintf("%s|%s|%d", n.FilePath, n.Label, loop.Start)
			if seenDB[key] {
				continue
			}
			seenDB[key] = true
			stats.DBQueriesInLoops.Add(graph.Issue{
				FilePath:     n.FilePath,
				FunctionName: n.Label,
				Line:         lineOf(n.CodeSnippet, loop.Start),
				IssueType:    "db_query_in_loop",
			})
		}

		for _, loop := range findLoops(n.CodeSnippet, true) {
			if !findOpRe.MatchString(loop.Body) || eagerLoadRe.MatchString(loop.Body) {
				continue
			}
			key := fmt.Sprintf("%s|%s|%d", n.FilePath, n.Label, loop.Start)
			if seenN1[key] {
				continue
			}
			seenN1[key] = true
			stats.NPlusOneQueries.Add(graph.Issue{
				FilePath:     n.FilePath,
				FunctionName: n.Label,
				Line:         lineOf(n.CodeSnippet, loop.Start),
				IssueType:    "n_plus_one",
			})
		}
	}
}
