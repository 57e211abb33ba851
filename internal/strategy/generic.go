package strategy

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codemapper/codemap/internal/graph"
	"github.com/codemapper/codemap/internal/parser"
)

// genericFunctionKinds covers the function declaration node kinds of the
// grammars without framework-specific responsibilities (Kotlin, Swift,
// Scala, Lua).
var genericFunctionKinds = map[string]bool{
	"function_declaration": true,
	"function_definition":  true,
	"function_item":        true,
}

// genericClassKinds likewise for class-like declarations.
var genericClassKinds = map[string]bool{
	"class_declaration":     true,
	"class_definition":      true,
	"object_declaration":    true,
	"object_definition":     true,
	"trait_definition":      true,
	"protocol_declaration":  true,
	"interface_declaration": true,
}

// AnalyzeGeneric extracts named functions and classes using the common
// tree-sitter field conventions. Languages whose grammar uses other node
// kinds simply contribute fewer nodes; a stub tree yields the File node only.
func AnalyzeGeneric(in *Input) *Result {
	res := newResult(in)
	if in.Tree == nil {
		return res
	}

	root := in.Tree.RootNode()
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		kind := node.Kind()
		switch {
		case genericFunctionKinds[kind]:
			name := nodeName(node, in.Source)
			if name == "" {
				return true
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
		case genericClassKinds[kind]:
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
			res.Exports[name] = n.ID
			return true
		}
		return true
	})
	return res
}
