package strategy

import (
	"regexp"

	"github.com/codemapper/codemap/internal/graph"
)

var (
	bashFuncRe = regexp.MustCompile(`(?m)^\s*(?:function\s+)?([A-Za-z_][\w-]*)\s*\(\)\s*\{`)
	bashCLIRe  = regexp.MustCompile(`(?m)(?:^|[|&;(\s])(curl|wget|kubectl|docker|aws|gcloud)\s`)
)

// AnalyzeBash extracts shell function definitions and CLI tool invocations
// (curl, wget, kubectl, docker, aws, gcloud become Components). Text-driven.
func AnalyzeBash(in *Input) *Result {
	res := newResult(in)
	text := rootText(in)

	for _, m := range bashFuncRe.FindAllStringSubmatch(text, -1) {
		res.addNode(&graph.Node{
			ID:       graph.NodeID("function", m[1], in.Path),
			Type:     graph.NodeFunction,
			Label:    m[1],
			FilePath: graph.NormalizePath(in.Path),
			Language: string(in.Language),
		})
	}

	seen := map[string]bool{}
	for _, m := range bashCLIRe.FindAllStringSubmatch(text, -1) {
		tool := m[1]
		if seen[tool] {
			continue
		}
		seen[tool] = true
		n := res.addNode(&graph.Node{
			ID:       graph.NodeID("cli", tool, in.Path),
			Type:     graph.NodeComponent,
			Label:    tool,
			FilePath: graph.NormalizePath(in.Path),
			Language: string(in.Language),
		})
		n.SetMeta("cliTool", true)
		res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
	}
	return res
}
