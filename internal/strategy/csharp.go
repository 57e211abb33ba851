package strategy

import (
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codemapper/codemap/internal/graph"
	"github.com/codemapper/codemap/internal/parser"
)

var (
	aspAttrRouteRe = regexp.MustCompile(`\[Http(Get|Post|Put|Delete|Patch)\(\s*"([^"]+)"\s*\)\]`)
	aspMapRouteRe  = regexp.MustCompile(`\bMap(Get|Post|Put|Delete|Patch)\(\s*"([^"]+)"`)
	csUsingRe      = regexp.MustCompile(`using\s+([\w.]+)\s*;`)
)

// AnalyzeCSharp extracts classes, interfaces, structs, enums, methods,
// ASP.NET attribute/minimal-API routes and using-directive edges.
func AnalyzeCSharp(in *Input) *Result {
	res := newResult(in)
	text := rootText(in)

	for _, m := range csUsingRe.FindAllStringSubmatch(text, -1) {
		res.addImport(m[1])
	}

	if in.Tree != nil {
		root := in.Tree.RootNode()
		parser.Walk(root, func(node *tree_sitter.Node) bool {
			switch node.Kind() {
			case "class_declaration", "interface_declaration", "struct_declaration", "enum_declaration", "record_declaration":
				name := nodeName(node, in.Source)
				if name == "" {
					return true
				}
				n := res.addNode(&graph.Node{
					ID:          graph.NodeID("class", name, in.Path),
					Type:        graph.NodeClass,
					Label:       name,
					FilePath:    graph.NormalizePath(in.Path),
					Language:    string(in.Language),
					CodeSnippet: declSnippet(node, in),
				})
				if strings.HasSuffix(name, "Controller") {
					n.SetMeta("framework", "ASP.NET")
				}
				res.Exports[name] = n.ID
				return true
			case "method_declaration", "local_function_statement":
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

	for _, m := range aspAttrRouteRe.FindAllStringSubmatch(text, -1) {
		n := routeNode(in, m[2], "ASP.NET", m[1])
		res.addNode(n)
		res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
	}
	for _, m := range aspMapRouteRe.FindAllStringSubmatch(text, -1) {
		n := routeNode(in, m[2], "ASP.NET", m[1])
		res.addNode(n)
		res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
	}
	return res
}
