package strategy

import (
	"regexp"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codemapper/codemap/internal/graph"
	"github.com/codemapper/codemap/internal/parser"
)

var cppIncludeRe = regexp.MustCompile(`#include\s+["<]([^">]+)[">]`)

// AnalyzeCPP extracts classes, structs, enums, namespaces, templates,
// function definitions and macros, plus #include edges.
func AnalyzeCPP(in *Input) *Result {
	res := newResult(in)

	for _, m := range cppIncludeRe.FindAllStringSubmatch(rootText(in), -1) {
		res.addImport(m[1])
	}
	if in.Tree == nil {
		return res
	}

	root := in.Tree.RootNode()
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "class_specifier", "struct_specifier", "enum_specifier", "namespace_definition":
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
			if node.Kind() == "namespace_definition" {
				n.SetMeta("kind", "namespace")
			}
			return true
		case "function_definition":
			name := cppFunctionName(node, in.Source)
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
		case "preproc_function_def":
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
			n.SetMeta("macro", true)
			return false
		}
		return true
	})
	return res
}

// cppFunctionName digs the identifier out of a function_definition's
// declarator chain (pointers and qualifiers nest declarators).
func cppFunctionName(node *tree_sitter.Node, source []byte) string {
	decl := node.ChildByFieldName("declarator")
	for decl != nil {
		switch decl.Kind() {
		case "identifier", "field_identifier", "qualified_identifier", "destructor_name", "operator_name":
			return parser.NodeText(decl, source)
		}
		next := decl.ChildByFieldName("declarator")
		if next == nil {
			break
		}
		decl = next
	}
	if decl == nil {
		return ""
	}
	if id := findChildByKind(decl, "identifier"); id != nil {
		return parser.NodeText(id, source)
	}
	return ""
}
