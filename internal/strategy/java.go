package strategy

import (
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codemapper/codemap/internal/graph"
	"github.com/codemapper/codemap/internal/parser"
)

var (
	springMappingRe  = regexp.MustCompile(`@(Get|Post|Put|Delete|Patch|Request)Mapping\(\s*(?:value\s*=\s*)?["']([^"']+)["']`)
	javaImportRe     = regexp.MustCompile(`import\s+(?:static\s+)?([\w.]+)\s*;`)
	springClassMapRe = regexp.MustCompile(`@RequestMapping\(\s*(?:value\s*=\s*)?["']([^"']+)["']\s*\)\s*(?:public\s+)?(?:abstract\s+)?class`)
)

// AnalyzeJava extracts classes, interfaces, methods, Spring REST endpoints
// and import edges.
func AnalyzeJava(in *Input) *Result {
	res := newResult(in)
	text := rootText(in)

	if in.Tree != nil {
		extractJavaDecls(in, res)
	}
	for _, m := range javaImportRe.FindAllStringSubmatch(text, -1) {
		res.addImport(m[1])
	}
	extractSpringRoutes(in, res, text)
	return res
}

func extractJavaDecls(in *Input, res *Result) {
	root := in.Tree.RootNode()
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "class_declaration", "interface_declaration", "enum_declaration", "record_declaration":
			name := nodeName(node, in.Source)
			if name == "" {
				return false
			}
			n := res.addNode(&graph.Node{
				ID:          graph.NodeID("class", name, in.Path),
				Type:        graph.NodeClass,
				Label:       name,
				FilePath:    graph.NormalizePath(in.Path),
				Language:    string(in.Language),
				CodeSnippet: declSnippet(node, in),
			})
			if node.Kind() == "interface_declaration" {
				n.SetMeta("kind", "interface")
			}
			res.Exports[name] = n.ID
			return true
		case "method_declaration":
			name := nodeName(node, in.Source)
			if name == "" {
				return false
			}
			res.addNode(&graph.Node{
				ID:          graph.NodeID("function", name, in.Path),
				Type:        graph.NodeFunction,
				Label:       name,
				FilePath:    graph.NormalizePath(in.Path),
				Language:    string(in.Language),
				CodeSnippet: parser.NodeText(node, in.Source),
			})
			return false
		}
		return true
	})
}

// extractSpringRoutes reads Spring mapping annotations. A class-level
// @RequestMapping contributes a base path joined onto method-level mappings.
func extractSpringRoutes(in *Input, res *Result, text string) {
	base := ""
	if m := springClassMapRe.FindStringSubmatch(text); m != nil {
		base = m[1]
	}
	for _, m := range springMappingRe.FindAllStringSubmatch(text, -1) {
		method := strings.ToUpper(m[1])
		if method == "REQUEST" {
			method = ""
		}
		label := m[2]
		if base != "" {
			if method == "" && label == base {
				continue // the class-level mapping itself
			}
			label = joinRoute(base, label)
		}
		n := routeNode(in, label, "Spring", method)
		res.addNode(n)
		res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
	}
}
