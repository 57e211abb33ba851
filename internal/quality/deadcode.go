package quality

import (
	"regexp"
	"strings"

	"github.com/codemapper/codemap/internal/graph"
)

var (
	backupFileRe     = regexp.MustCompile(`(?i)\.(bak|backup|old|orig)$|_backup\.|_old\.|\.copy\.`)
	blockCommentRe   = regexp.MustCompile(`(?s)/\*.*?\*/`)
	controllerNameRe = regexp.MustCompile(`Controller`)
)

// entryLabels are method names never reported as unused.
var entryLabels = map[string]bool{
	"main": true, "index": true, "entry": true,
	"constructor": true, "init": true, "startup": true,
}

// scanDeadCode fills the dead-code bucket from the edge graph: controllers
// with no incoming API_CALL/CALLS, uncalled public methods in
// Service/Controller files, large commented blocks, and backup files.
func scanDeadCode(m *graph.CodeMap, stats *graph.Statistics) {
	incoming := map[string]map[graph.EdgeType]int{}
	for _, e := range m.Edges {
		if incoming[e.TargetID] == nil {
			incoming[e.TargetID] = map[graph.EdgeType]int{}
		}
		incoming[e.TargetID][e.Type]++
	}

	for _, n := range m.Nodes {
		switch {
		case isController(n):
			if incoming[n.ID][graph.EdgeAPICall] == 0 && incoming[n.ID][graph.EdgeCalls] == 0 {
				stats.DeadCode.UnusedControllers++
				stats.DeadCode.Issues = append(stats.DeadCode.Issues, graph.Issue{
					FilePath: n.FilePath, FunctionName: n.Label,
					IssueType: "unused_controller",
				})
				stats.DeadCode.Count++
			}
		case n.Type == graph.NodeFunction && inServiceScope(n) && !entryLabels[strings.ToLower(n.Label)]:
			if incoming[n.ID][graph.EdgeCalls] == 0 && isPublicName(n.Label) {
				stats.DeadCode.UnusedMethods++
				stats.DeadCode.Issues = append(stats.DeadCode.Issues, graph.Issue{
					FilePath: n.FilePath, FunctionName: n.Label,
					IssueType: "unused_method",
				})
				stats.DeadCode.Count++
			}
		}

		if n.CodeSnippet != "" {
			for _, block := range blockCommentRe.FindAllString(n.CodeSnippet, -1) {
				if strings.Count(block, "\n") > 5 {
					stats.DeadCode.CommentedBlocks++
					stats.DeadCode.Issues = append(stats.DeadCode.Issues, graph.Issue{
						FilePath: n.FilePath, FunctionName: n.Label,
						IssueType: "commented_block",
					})
					stats.DeadCode.Count++
				}
			}
		}

		if n.Type == graph.NodeFile && backupFileRe.MatchString(n.FilePath) {
			stats.DeadCode.BackupFiles++
			stats.DeadCode.Issues = append(stats.DeadCode.Issues, graph.Issue{
				FilePath:  n.FilePath,
				IssueType: "backup_file",
			})
			stats.DeadCode.Count++
		}
	}
}

// isController selects APIRoute nodes plus nodes whose label or metadata
// mentions Controller.
func isController(n *graph.Node) bool {
	if n.Type == graph.NodeAPIRoute {
		return true
	}
	if controllerNameRe.MatchString(n.Label) {
		return true
	}
	for _, v := range n.Metadata {
		if s, ok := v.(string); ok && controllerNameRe.MatchString(s) {
			return true
		}
	}
	return n.MetaString("role") == "controller"
}

// isPublicName approximates visibility: names with a leading underscore are
// treated as private; every other name counts as public.
func isPublicName(name string) bool {
	return name != "" && !strings.HasPrefix(name, "_")
}
