package strategy

import (
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codemapper/codemap/internal/graph"
	"github.com/codemapper/codemap/internal/parser"
)

var (
	flaskRouteRe   = regexp.MustCompile(`@[\w.]+\.route\(\s*['"]([^'"]+)['"](?:[^)]*methods\s*=\s*\[([^\]]*)\])?`)
	fastAPIRouteRe = regexp.MustCompile(`@?(?:app|router)\.(get|post|put|delete|patch|head|options)\(\s*['"]([^'"]+)['"]`)
	djangoPathRe   = regexp.MustCompile(`\bpath\(\s*['"]([^'"]*)['"]`)
	drfRegisterRe  = regexp.MustCompile(`router\.register\(\s*['"]([^'"]+)['"]\s*,\s*(\w+)`)
	pyMethodListRe = regexp.MustCompile(`['"](\w+)['"]`)
)

// AnalyzePython extracts function and class definitions, Flask/FastAPI/
// Django/DRF routes, and import edges.
func AnalyzePython(in *Input) *Result {
	res := newResult(in)
	text := rootText(in)

	if in.Tree != nil {
		extractPythonDefs(in, res)
		extractPythonImports(in, res)
	}

	extractFlaskRoutes(in, res, text)
	extractFastAPIRoutes(in, res, text)
	if strings.HasSuffix(graph.NormalizePath(in.Path), "urls.py") {
		for _, m := range djangoPathRe.FindAllStringSubmatch(text, -1) {
			label := "/" + strings.TrimPrefix(m[1], "/")
			n := routeNode(in, label, "Django", "")
			res.addNode(n)
			res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
		}
	}
	extractDRFRoutes(in, res, text)

	return res
}

func extractPythonDefs(in *Input, res *Result) {
	root := in.Tree.RootNode()
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "function_definition":
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
				CodeSnippet: declSnippet(node, in),
			})
			res.Exports[name] = graph.NodeID("function", name, in.Path)
			return false
		case "class_definition":
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
			if bases := pythonBaseClasses(node, in.Source); len(bases) > 0 {
				n.SetMeta("baseClasses", bases)
			}
			res.Exports[name] = n.ID
			// Recurse: methods inside become Function nodes too.
			return true
		}
		return true
	})
}

// pythonBaseClasses reads the superclass list of a class definition.
func pythonBaseClasses(node *tree_sitter.Node, source []byte) []string {
	sup := node.ChildByFieldName("superclasses")
	if sup == nil {
		return nil
	}
	var bases []string
	parser.Walk(sup, func(n *tree_sitter.Node) bool {
		if n.Kind() == "identifier" || n.Kind() == "attribute" {
			bases = append(bases, parser.NodeText(n, source))
			return false
		}
		return true
	})
	return bases
}

// extractPythonImports handles `import X` and `from X import ...`.
func extractPythonImports(in *Input, res *Result) {
	root := in.Tree.RootNode()
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "import_statement":
			parser.Walk(node, func(child *tree_sitter.Node) bool {
				if child.Kind() == "dotted_name" {
					res.addImport(parser.NodeText(child, in.Source))
					return false
				}
				return true
			})
			return false
		case "import_from_statement":
			if mod := node.ChildByFieldName("module_name"); mod != nil {
				res.addImport(parser.NodeText(mod, in.Source))
			}
			return false
		}
		return true
	})
}

func extractFlaskRoutes(in *Input, res *Result, text string) {
	for _, m := range flaskRouteRe.FindAllStringSubmatch(text, -1) {
		method := ""
		if m[2] != "" {
			if mm := pyMethodListRe.FindStringSubmatch(m[2]); mm != nil {
				method = mm[1]
			}
		}
		n := routeNode(in, m[1], "Flask", method)
		res.addNode(n)
		res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
	}
}

func extractFastAPIRoutes(in *Input, res *Result, text string) {
	for _, m := range fastAPIRouteRe.FindAllStringSubmatch(text, -1) {
		n := routeNode(in, m[2], "FastAPI", m[1])
		res.addNode(n)
		res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
	}
}

// extractDRFRoutes handles DRF router.register("base", ViewSetClass) plus
// bare ViewSet subclasses.
func extractDRFRoutes(in *Input, res *Result, text string) {
	for _, m := range drfRegisterRe.FindAllStringSubmatch(text, -1) {
		label := "/" + strings.Trim(m[1], "/")
		n := routeNode(in, label, "DRF", "")
		n.SetMeta("viewSet", m[2])
		res.addNode(n)
		res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
	}
	for _, n := range res.Nodes {
		if n.Type != graph.NodeClass {
			continue
		}
		for _, base := range n.MetaStrings("baseClasses") {
			if strings.Contains(base, "ViewSet") {
				n.SetMeta("framework", "DRF")
				break
			}
		}
	}
}
