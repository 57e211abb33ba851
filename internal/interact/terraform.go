package interact

import (
	"path"
	"regexp"
	"strings"

	"github.com/codemapper/codemap/internal/graph"
	"github.com/codemapper/codemap/internal/lang"
)

var (
	tfDependsOnRe = regexp.MustCompile(`depends_on\s*=\s*\[([^\]]*)\]`)
	tfRefRe       = regexp.MustCompile(`\b([a-z][\w]*\.[\w-]+)\b`)
)

// LinkTerraform builds a {type.name → node} index over Terraform resources
// and emits REFERENCES edges for depends_on lists and inline type.name
// references inside each resource's snippet. Module source edges pointing
// at a local path are rewritten to the matching File node when one exists.
func (w *Workspace) LinkTerraform() {
	index := map[string]*graph.Node{}
	var resources []*graph.Node
	for _, n := range w.nodesOfType(graph.NodeComponent) {
		if n.MetaString("platform") != "Terraform" {
			continue
		}
		rt, rn := n.MetaString("resourceType"), n.MetaString("resourceName")
		if rt != "" && rn != "" {
			index[rt+"."+rn] = n
			resources = append(resources, n)
		}
	}

	for _, res := range resources {
		self := res.MetaString("resourceType") + "." + res.MetaString("resourceName")
		seen := map[string]bool{}

		for _, m := range tfDependsOnRe.FindAllStringSubmatch(res.CodeSnippet, -1) {
			for _, entry := range strings.Split(m[1], ",") {
				ref := strings.Trim(strings.TrimSpace(entry), `"`)
				if target, ok := index[ref]; ok && ref != self && !seen[ref] {
					seen[ref] = true
					w.AddEdge(res.ID, target.ID, graph.EdgeReferences)
				}
			}
		}
		for _, m := range tfRefRe.FindAllStringSubmatch(res.CodeSnippet, -1) {
			ref := m[1]
			if target, ok := index[ref]; ok && ref != self && !seen[ref] {
				seen[ref] = true
				w.AddEdge(res.ID, target.ID, graph.EdgeReferences)
			}
		}
	}

	w.resolveModuleSources()
}

// resolveModuleSources rewrites module REFERENCES edges whose target is a
// raw local source string to the File node at that path (trying the path
// itself, then main.tf inside it).
func (w *Workspace) resolveModuleSources() {
	for _, e := range w.Edges {
		if e.Type != graph.EdgeReferences {
			continue
		}
		if _, isNode := w.byID[e.TargetID]; isNode {
			continue
		}
		if !strings.HasPrefix(e.TargetID, ".") && !strings.HasPrefix(e.TargetID, "/") {
			continue
		}
		src := w.byID[e.SourceID]
		if src == nil || src.MetaString("platform") != "Terraform" {
			continue
		}
		dir := path.Dir(src.FilePath)
		for _, candidate := range []string{
			path.Join(dir, e.TargetID),
			path.Join(dir, e.TargetID, "main.tf"),
		} {
			if f := w.fileByPath[candidate]; f != nil {
				e.TargetID = f.ID
				break
			}
		}
	}
}

// LinkGraphQL gives every GraphQL SDL file a REFERENCES edge to the single
// synthetic schema Component.
func (w *Workspace) LinkGraphQL() {
	for _, f := range w.nodesOfType(graph.NodeFile) {
		if lang.Language(f.Language) != lang.GraphQL {
			continue
		}
		schema := w.ensureSynthetic(graph.GraphQLSchemaID, graph.NodeComponent, "GraphQL Schema")
		w.AddEdge(f.ID, schema.ID, graph.EdgeReferences)
	}
}
