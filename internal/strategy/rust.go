package strategy

import (
	"regexp"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codemapper/codemap/internal/graph"
	"github.com/codemapper/codemap/internal/parser"
)

var rustUseRe = regexp.MustCompile(`\buse\s+([\w:]+)`)

// AnalyzeRust extracts functions, structs, enums, traits and impl blocks,
// plus use-declaration edges.
func AnalyzeRust(in *Input) *Result {
	res := newResult(in)

	for _, m := range rustUseRe.FindAllStringSubmatch(rootText(in), -1) {
		res.addImport(m[1])
	}
	if in.Tree == nil {
		return res
	}

	root := in.Tree.RootNode()
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "function_item":
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
		case "struct_item", "enum_item", "trait_item":
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
			if node.Kind() == "trait_item" {
				n.SetMeta("kind", "trait")
			}
			res.Exports[name] = n.ID
			return false
		case "impl_item":
			// Methods inside impl blocks attach to the implementing type.
			typeNode := node.ChildByFieldName("type")
			typeName := ""
			if typeNode != nil {
				typeName = parser.NodeText(typeNode, in.Source)
			}
			parser.Walk(node, func(child *tree_sitter.Node) bool {
				if child.Id() == node.Id() {
					return true
				}
				if child.Kind() != "function_item" {
					return true
				}
				name := nodeName(child, in.Source)
				if name == "" {
					return false
				}
				key := name
				if typeName != "" {
					key = typeName + "." + name
				}
				fn := res.addNode(&graph.Node{
					ID:          graph.NodeID("function", key, in.Path),
					Type:        graph.NodeFunction,
					Label:       name,
					FilePath:    graph.NormalizePath(in.Path),
					Language:    string(in.Language),
					CodeSnippet: parser.NodeText(child, in.Source),
				})
				if typeName != "" {
					fn.SetMeta("receiver", typeName)
				}
				return false
			})
			return false
		}
		return true
	})
	return res
}
