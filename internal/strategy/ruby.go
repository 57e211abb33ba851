package strategy

import (
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codemapper/codemap/internal/graph"
	"github.com/codemapper/codemap/internal/parser"
)

var (
	sinatraRouteRe = regexp.MustCompile(`(?m)^\s*(get|post|put|delete|patch)\s+['"]([^'"]+)['"]`)
	rubyRequireRe  = regexp.MustCompile(`require(?:_relative)?\s+['"]([^'"]+)['"]`)
	railsClassRe   = regexp.MustCompile(`class\s+(\w+)\s*<\s*ApplicationController`)
)

// railsActionVerbs maps the RESTful controller action names to their
// conventional HTTP verbs.
var railsActionVerbs = map[string]string{
	"index":   "GET",
	"show":    "GET",
	"create":  "POST",
	"update":  "PUT",
	"destroy": "DELETE",
	"edit":    "GET",
	"new":     "GET",
}

// AnalyzeRuby extracts classes, modules and methods, Rails controller
// actions (as APIRoutes with derived verbs), Sinatra DSL routes, and
// require edges. Works on raw text when no tree is available.
func AnalyzeRuby(in *Input) *Result {
	res := newResult(in)
	text := rootText(in)

	for _, m := range rubyRequireRe.FindAllStringSubmatch(text, -1) {
		res.addImport(m[1])
	}

	if in.Tree != nil {
		extractRubyDecls(in, res)
	}

	for _, m := range sinatraRouteRe.FindAllStringSubmatch(text, -1) {
		n := routeNode(in, m[2], "Sinatra", m[1])
		res.addNode(n)
		res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
	}

	extractRailsRoutes(in, res, text)
	return res
}

func extractRubyDecls(in *Input, res *Result) {
	root := in.Tree.RootNode()
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "class", "module":
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
		case "method", "singleton_method":
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

// extractRailsRoutes derives APIRoutes from controllers inheriting
// ApplicationController: each RESTful action name becomes a route under the
// controller's resource path.
func extractRailsRoutes(in *Input, res *Result, text string) {
	m := railsClassRe.FindStringSubmatch(text)
	if m == nil {
		return
	}
	resource := strings.TrimSuffix(m[1], "Controller")
	resource = toSnake(resource)

	for _, n := range res.Nodes {
		if n.Type != graph.NodeFunction {
			continue
		}
		verb, ok := railsActionVerbs[n.Label]
		if !ok {
			continue
		}
		label := railsRouteLabel(resource, n.Label)
		rn := routeNode(in, label, "Rails", verb)
		rn.SetMeta("action", n.Label)
		res.addNode(rn)
		res.addEdge(n.ID, rn.ID, graph.EdgeReferences)
	}
}

// railsRouteLabel builds the conventional member/collection path.
func railsRouteLabel(resource, action string) string {
	switch action {
	case "index", "create":
		return "/" + resource
	case "new":
		return "/" + resource + "/new"
	case "edit":
		return "/" + resource + "/:id/edit"
	default: // show, update, destroy
		return "/" + resource + "/:id"
	}
}

// toSnake converts CamelCase to snake_case.
func toSnake(s string) string {
	var b strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(r + ('a' - 'A'))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
