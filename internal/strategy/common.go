package strategy

import (
	"path/filepath"
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codemapper/codemap/internal/graph"
	"github.com/codemapper/codemap/internal/parser"
)

// newResult creates a Result seeded with the File node for the input path.
func newResult(in *Input) *Result {
	return &Result{
		Nodes: []*graph.Node{{
			ID:       FileNodeID(in.Path),
			Type:     graph.NodeFile,
			Label:    filepath.Base(in.Path),
			FilePath: graph.NormalizePath(in.Path),
			Language: string(in.Language),
		}},
		Exports: map[string]string{},
	}
}

// FileNodeID is the id every strategy gives the File node for a path.
func FileNodeID(path string) string {
	return graph.NodeID("file", filepath.Base(path), path)
}

// fileID returns the File node id of a result (always the first node).
func (r *Result) fileID() string {
	return r.Nodes[0].ID
}

func (r *Result) addNode(n *graph.Node) *graph.Node {
	r.Nodes = append(r.Nodes, n)
	return n
}

func (r *Result) addEdge(source, target string, t graph.EdgeType) {
	r.Edges = append(r.Edges, &graph.Edge{SourceID: source, TargetID: target, Type: t})
}

// addImport records an IMPORTS edge from the File node to a raw specifier.
// Resolution happens in the interaction analyzer.
func (r *Result) addImport(specifier string) {
	if specifier == "" {
		return
	}
	r.addEdge(r.fileID(), specifier, graph.EdgeImports)
}

// declSnippet returns the text of the top-level declaration enclosing node.
func declSnippet(node *tree_sitter.Node, in *Input) string {
	if in.Tree == nil {
		return ""
	}
	top := parser.TopLevelAncestor(node, in.Tree.RootNode())
	return parser.NodeText(top, in.Source)
}

// nodeName returns the text of a node's "name" field, or "".
func nodeName(node *tree_sitter.Node, source []byte) string {
	n := node.ChildByFieldName("name")
	if n == nil {
		return ""
	}
	return parser.NodeText(n, source)
}

// findChildByKind returns the first direct or nested child of the given kind.
func findChildByKind(node *tree_sitter.Node, kind string) *tree_sitter.Node {
	var found *tree_sitter.Node
	parser.Walk(node, func(n *tree_sitter.Node) bool {
		if found != nil {
			return false
		}
		if n.Id() != node.Id() && n.Kind() == kind {
			found = n
			return false
		}
		return true
	})
	return found
}

// rootText returns the full file content; for real trees this equals the
// root node's text, for stub inputs it is the raw source.
func rootText(in *Input) string {
	return string(in.Source)
}

// stripQuotes removes one layer of surrounding ", ' or ` quotes.
func stripQuotes(s string) string {
	if len(s) >= 2 {
		first, last := s[0], s[len(s)-1]
		if first == last && (first == '"' || first == '\'' || first == '`') {
			return s[1 : len(s)-1]
		}
	}
	return s
}

var upperFirstRe = regexp.MustCompile(`^[A-Z]`)

// isUpperFirst reports whether a name starts with an uppercase letter.
func isUpperFirst(name string) bool {
	return upperFirstRe.MatchString(name)
}

// joinRoute joins a route base and sub path with exactly one slash.
func joinRoute(base, sub string) string {
	base = strings.TrimSuffix(base, "/")
	if sub == "" {
		if base == "" {
			return "/"
		}
		return base
	}
	if !strings.HasPrefix(sub, "/") {
		sub = "/" + sub
	}
	return base + sub
}

// routeNode builds an APIRoute node for a route label in a file. The id key
// carries the HTTP method so method variants of one path stay distinct;
// dedupe uses the same (path, label, method) key.
func routeNode(in *Input, label, framework, method string) *graph.Node {
	key := label
	if method != "" {
		key = strings.ToUpper(method) + " " + label
	}
	n := &graph.Node{
		ID:       graph.NodeID("route", key, in.Path),
		Type:     graph.NodeAPIRoute,
		Label:    label,
		FilePath: graph.NormalizePath(in.Path),
		Language: string(in.Language),
	}
	if framework != "" {
		n.SetMeta("framework", framework)
	}
	if method != "" {
		n.SetMeta("httpMethod", strings.ToUpper(method))
	}
	return n
}
