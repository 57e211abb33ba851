package strategy

import (
	"regexp"
	"strings"

	"github.com/codemapper/codemap/internal/graph"
)

var (
	tfProviderRe = regexp.MustCompile(`^provider\s+"([^"]+)"`)
	tfResourceRe = regexp.MustCompile(`^resource\s+"([^"]+)"\s+"([^"]+)"`)
	tfModuleRe   = regexp.MustCompile(`^module\s+"([^"]+)"`)
	tfSourceRe   = regexp.MustCompile(`(?m)^\s*source\s*=\s*"([^"]*)"`)
)

// AnalyzeTerraform scans .tf files line by line with brace tracking,
// emitting Components for providers, resources and modules. Module blocks
// with a local source get a REFERENCES edge to the raw source string; the
// interaction analyzer rewrites it when a matching File node exists.
func AnalyzeTerraform(in *Input) *Result {
	res := newResult(in)
	lines := strings.Split(rootText(in), "\n")

	var (
		block      []string
		braceDepth int
		finish     func(snippet string)
	)

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if braceDepth == 0 {
			if trimmed == "" || strings.HasPrefix(trimmed, "#") || strings.HasPrefix(trimmed, "//") {
				continue
			}
			finish = matchTerraformHeader(in, res, trimmed)
		}

		if finish != nil {
			block = append(block, line)
		}
		braceDepth += strings.Count(trimmed, "{") - strings.Count(trimmed, "}")
		if braceDepth <= 0 && finish != nil {
			finish(strings.Join(block, "\n"))
			finish = nil
			block = nil
			braceDepth = 0
		}
	}
	if finish != nil {
		finish(strings.Join(block, "\n"))
	}
	return res
}

// matchTerraformHeader recognizes a block opener and returns a closure that
// finalizes the node once the block's closing brace is seen.
func matchTerraformHeader(in *Input, res *Result, line string) func(string) {
	if m := tfProviderRe.FindStringSubmatch(line); m != nil {
		label := "provider:" + m[1]
		return func(snippet string) {
			n := res.addNode(&graph.Node{
				ID:          graph.NodeID("terraform", label, in.Path),
				Type:        graph.NodeComponent,
				Label:       label,
				FilePath:    graph.NormalizePath(in.Path),
				Language:    string(in.Language),
				CodeSnippet: snippet,
			})
			n.SetMeta("platform", "Terraform")
			n.SetMeta("provider", m[1])
			res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
		}
	}
	if m := tfResourceRe.FindStringSubmatch(line); m != nil {
		label := m[1] + "." + m[2]
		return func(snippet string) {
			n := res.addNode(&graph.Node{
				ID:          graph.NodeID("terraform", label, in.Path),
				Type:        graph.NodeComponent,
				Label:       label,
				FilePath:    graph.NormalizePath(in.Path),
				Language:    string(in.Language),
				CodeSnippet: snippet,
			})
			n.SetMeta("platform", "Terraform")
			n.SetMeta("resourceType", m[1])
			n.SetMeta("resourceName", m[2])
			res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
		}
	}
	if m := tfModuleRe.FindStringSubmatch(line); m != nil {
		label := "module:" + m[1]
		return func(snippet string) {
			n := res.addNode(&graph.Node{
				ID:          graph.NodeID("terraform", label, in.Path),
				Type:        graph.NodeComponent,
				Label:       label,
				FilePath:    graph.NormalizePath(in.Path),
				Language:    string(in.Language),
				CodeSnippet: snippet,
			})
			n.SetMeta("platform", "Terraform")
			if sm := tfSourceRe.FindStringSubmatch(snippet); sm != nil {
				n.SetMeta("source", sm[1])
				if strings.HasPrefix(sm[1], ".") || strings.HasPrefix(sm[1], "/") {
					res.addEdge(n.ID, sm[1], graph.EdgeReferences)
				}
			}
			res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
		}
	}
	return nil
}
