package strategy

import (
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codemapper/codemap/internal/graph"
	"github.com/codemapper/codemap/internal/parser"
)

var goRouterRouteRe = regexp.MustCompile(`\b\w+\.(GET|POST|PUT|DELETE|PATCH|Get|Post|Put|Delete|Patch)\(\s*"([^"]+)"`)

// AnalyzeGo extracts functions, methods with receivers, struct and interface
// types, router registrations (Gin/Echo/Fiber/Chi) and import edges.
func AnalyzeGo(in *Input) *Result {
	res := newResult(in)

	if in.Tree != nil {
		extractGoDecls(in, res)
		extractGoImports(in, res)
	}

	for _, m := range goRouterRouteRe.FindAllStringSubmatch(rootText(in), -1) {
		n := routeNode(in, m[2], "Go HTTP", strings.ToUpper(m[1]))
		res.addNode(n)
		res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
	}
	return res
}

func extractGoDecls(in *Input, res *Result) {
	root := in.Tree.RootNode()
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "function_declaration":
			name := nodeName(node, in.Source)
			if name == "" {
				return false
			}
			n := res.addNode(&graph.Node{
				ID:          graph.NodeID("function", name, in.Path),
				Type:        graph.NodeFunction,
				Label:       name,
				FilePath:    graph.NormalizePath(in.Path),
				Language:    string(in.Language),
				CodeSnippet: parser.NodeText(node, in.Source),
			})
			if isGoHTTPHandler(node, in.Source) {
				n.SetMeta("httpHandler", true)
			}
			res.Exports[name] = n.ID
			return false
		case "method_declaration":
			name := nodeName(node, in.Source)
			if name == "" {
				return false
			}
			n := res.addNode(&graph.Node{
				ID:          graph.NodeID("function", name, in.Path),
				Type:        graph.NodeFunction,
				Label:       name,
				FilePath:    graph.NormalizePath(in.Path),
				Language:    string(in.Language),
				CodeSnippet: parser.NodeText(node, in.Source),
			})
			if recv := node.ChildByFieldName("receiver"); recv != nil {
				n.SetMeta("receiver", strings.Trim(parser.NodeText(recv, in.Source), "()"))
			}
			if isGoHTTPHandler(node, in.Source) {
				n.SetMeta("httpHandler", true)
			}
			return false
		case "type_spec":
			name := nodeName(node, in.Source)
			typeNode := node.ChildByFieldName("type")
			if name == "" || typeNode == nil {
				return false
			}
			kind := typeNode.Kind()
			if kind != "struct_type" && kind != "interface_type" {
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
			if kind == "interface_type" {
				n.SetMeta("kind", "interface")
			}
			res.Exports[name] = n.ID
			return false
		}
		return true
	})
}

// isGoHTTPHandler reports whether a function's parameters include
// http.ResponseWriter.
func isGoHTTPHandler(node *tree_sitter.Node, source []byte) bool {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return false
	}
	return strings.Contains(parser.NodeText(params, source), "http.ResponseWriter")
}

// extractGoImports reads quoted import paths.
func extractGoImports(in *Input, res *Result) {
	root := in.Tree.RootNode()
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		if node.Kind() != "import_spec" {
			return true
		}
		if pathNode := node.ChildByFieldName("path"); pathNode != nil {
			res.addImport(stripQuotes(parser.NodeText(pathNode, in.Source)))
		}
		return false
	})
}
