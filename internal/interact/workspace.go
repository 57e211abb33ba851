// Package interact holds the cross-file linkage passes: import resolution,
// API call synthesis, database and ORM lineage, and the Kubernetes, Helm,
// Kustomize, Terraform and GraphQL linkers. Every pass is single-threaded.
// Import resolution, ORM lineage and Terraform module linkage rewrite raw
// edge targets, and route dedupe drops duplicate APIRoute nodes; the other
// passes only add nodes and edges.
package interact

import (
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/codemapper/codemap/internal/graph"
)

// Rule pairs a frontend root with a backend root for API call linkage.
type Rule struct {
	Type     string   `json:"type"` // "API_CALL"
	Frontend Endpoint `json:"frontend"`
	Backend  Endpoint `json:"backend"`
}

// Endpoint is one side of an interaction rule.
type Endpoint struct {
	Path      string `json:"path"`
	URLPrefix string `json:"urlPrefix,omitempty"`
}

// Workspace owns the merged map while linkage passes run.
type Workspace struct {
	Root  string // absolute discovery root, forward-slash
	Nodes []*graph.Node
	Edges []*graph.Edge

	Exports map[string]string
	Calls   []graph.CallSite

	byID       map[string]*graph.Node
	fileByPath map[string]*graph.Node
}

// NewWorkspace creates an empty workspace for a discovery root.
func NewWorkspace(root string) *Workspace {
	return &Workspace{
		Root:       graph.NormalizePath(root),
		Exports:    map[string]string{},
		byID:       map[string]*graph.Node{},
		fileByPath: map[string]*graph.Node{},
	}
}

// AddResult merges one file's partial result. Duplicate node ids keep the
// first occurrence; exports keep the first binding of each name.
func (w *Workspace) AddResult(nodes []*graph.Node, edges []*graph.Edge, exports map[string]string, calls []graph.CallSite) {
	for _, n := range nodes {
		w.AddNode(n)
	}
	w.Edges = append(w.Edges, edges...)
	// Export names are merged in sorted order so ties resolve identically
	// across runs.
	names := make([]string, 0, len(exports))
	for name := range exports {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if _, ok := w.Exports[name]; !ok {
			w.Exports[name] = exports[name]
		}
	}
	w.Calls = append(w.Calls, calls...)
}

// AddNode inserts a node unless its id is already present. Returns the
// surviving node.
func (w *Workspace) AddNode(n *graph.Node) *graph.Node {
	if existing, ok := w.byID[n.ID]; ok {
		return existing
	}
	w.byID[n.ID] = n
	w.Nodes = append(w.Nodes, n)
	if n.Type == graph.NodeFile {
		w.fileByPath[n.FilePath] = n
	}
	return n
}

// AddEdge appends an edge.
func (w *Workspace) AddEdge(source, target string, t graph.EdgeType) {
	w.Edges = append(w.Edges, &graph.Edge{SourceID: source, TargetID: target, Type: t})
}

// NodeByID returns a node by id.
func (w *Workspace) NodeByID(id string) *graph.Node { return w.byID[id] }

// FileByPath returns the File node for a normalized absolute path.
func (w *Workspace) FileByPath(p string) *graph.Node { return w.fileByPath[p] }

// nodesOfType returns nodes of one type in merge order.
func (w *Workspace) nodesOfType(t graph.NodeType) []*graph.Node {
	var out []*graph.Node
	for _, n := range w.Nodes {
		if n.Type == t {
			out = append(out, n)
		}
	}
	return out
}

// underDir reports whether a node's file path sits under a directory
// relative to the workspace root ("client", "services/api", ...), or whether
// the file's base name starts with dir ("client" matches client.ts).
func (w *Workspace) underDir(n *graph.Node, dir string) bool {
	if n.FilePath == "" {
		return false
	}
	prefix := path.Join(w.Root, filepath.ToSlash(dir))
	return n.FilePath == prefix || strings.HasPrefix(n.FilePath, prefix+"/") ||
		strings.HasPrefix(path.Base(n.FilePath), filepath.ToSlash(dir))
}

// ensureSynthetic returns the synthetic node with the given pseudo-id,
// creating it on first use. Synthetic nodes carry no file path.
func (w *Workspace) ensureSynthetic(id string, t graph.NodeType, label string) *graph.Node {
	if n, ok := w.byID[id]; ok {
		return n
	}
	return w.AddNode(&graph.Node{
		ID:       id,
		Type:     t,
		Label:    label,
		Language: "N/A",
	})
}

// DedupeRoutes collapses APIRoute nodes sharing (filePath, label, method):
// the first-encountered node survives and edges touching dropped duplicates
// are rewritten to it.
func (w *Workspace) DedupeRoutes() {
	type routeKey struct{ path, label, method string }
	survivors := map[routeKey]*graph.Node{}
	rewrite := map[string]string{}

	kept := w.Nodes[:0]
	for _, n := range w.Nodes {
		if n.Type != graph.NodeAPIRoute {
			kept = append(kept, n)
			continue
		}
		key := routeKey{n.FilePath, n.Label, n.MetaString("httpMethod")}
		if surv, ok := survivors[key]; ok {
			rewrite[n.ID] = surv.ID
			delete(w.byID, n.ID)
			continue
		}
		survivors[key] = n
		kept = append(kept, n)
	}
	w.Nodes = kept

	if len(rewrite) == 0 {
		return
	}
	for _, e := range w.Edges {
		if to, ok := rewrite[e.TargetID]; ok {
			e.TargetID = to
		}
		if to, ok := rewrite[e.SourceID]; ok {
			e.SourceID = to
		}
	}
}

// ResolveCalls turns collected call sites into CALLS edges when the raw
// callee name is an exported symbol somewhere in the map.
func (w *Workspace) ResolveCalls() {
	seen := map[string]bool{}
	for _, cs := range w.Calls {
		target, ok := w.Exports[cs.Raw]
		if !ok || target == cs.CallerID {
			continue
		}
		key := cs.CallerID + "→" + target
		if seen[key] {
			continue
		}
		seen[key] = true
		w.AddEdge(cs.CallerID, target, graph.EdgeCalls)
	}
}
