package strategy

import (
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codemapper/codemap/internal/graph"
	"github.com/codemapper/codemap/internal/parser"
)

var (
	laravelRouteRe = regexp.MustCompile(`Route::(get|post|put|delete|patch|any)\(\s*['"]([^'"]+)['"]`)
	phpUseRe       = regexp.MustCompile(`\buse\s+([\w\\]+)\s*;`)
	phpExtendsRe   = regexp.MustCompile(`class\s+\w+\s+extends\s+(\w+)`)
)

// AnalyzePHP extracts classes, functions and methods, Laravel routes in
// route files, and use-statement edges. Controllers, models and middleware
// are tagged by suffix or base class.
func AnalyzePHP(in *Input) *Result {
	res := newResult(in)
	text := rootText(in)

	for _, m := range phpUseRe.FindAllStringSubmatch(text, -1) {
		res.addImport(m[1])
	}

	if in.Tree != nil {
		extractPHPDecls(in, res)
	}

	// Laravel convention: route registrations live under routes/.
	norm := graph.NormalizePath(in.Path)
	if strings.Contains(norm, "/routes/") || strings.HasSuffix(norm, "web.php") || strings.HasSuffix(norm, "api.php") {
		for _, m := range laravelRouteRe.FindAllStringSubmatch(text, -1) {
			method := strings.ToUpper(m[1])
			if method == "ANY" {
				method = ""
			}
			n := routeNode(in, m[2], "Laravel", method)
			res.addNode(n)
			res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
		}
	}
	return res
}

func extractPHPDecls(in *Input, res *Result) {
	root := in.Tree.RootNode()
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "class_declaration", "interface_declaration", "trait_declaration":
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
			tagLaravelClass(n, name, parser.NodeText(node, in.Source))
			res.Exports[name] = n.ID
			return true
		case "function_definition", "method_declaration":
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

// tagLaravelClass marks controllers, models and middleware by suffix or
// extends clause.
func tagLaravelClass(n *graph.Node, name, snippet string) {
	role := ""
	switch {
	case strings.HasSuffix(name, "Controller"):
		role = "controller"
	case strings.HasSuffix(name, "Middleware"):
		role = "middleware"
	}
	if role == "" {
		if m := phpExtendsRe.FindStringSubmatch(snippet); m != nil {
			switch m[1] {
			case "Controller":
				role = "controller"
			case "Model":
				role = "model"
			case "Middleware":
				role = "middleware"
			}
		}
	}
	if role != "" {
		n.SetMeta("framework", "Laravel")
		n.SetMeta("role", role)
	}
}
