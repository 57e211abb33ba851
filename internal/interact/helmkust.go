package interact

import (
	"path"
	"strings"

	"github.com/codemapper/codemap/internal/graph"
)

// LinkHelmKustomize attaches Helm charts to their templates and values
// files, and resolves Kustomize resource lists to neighbour files.
func (w *Workspace) LinkHelmKustomize() {
	w.linkHelmCharts()
	w.linkKustomizations()
}

func (w *Workspace) linkHelmCharts() {
	var charts, templates []*graph.Node
	for _, n := range w.nodesOfType(graph.NodeComponent) {
		if n.MetaString("platform") != "Helm" {
			continue
		}
		if n.MetaString("resourceKind") == "Chart" {
			charts = append(charts, n)
		} else {
			templates = append(templates, n)
		}
	}

	for _, chart := range charts {
		root := chart.MetaString("chartRoot")
		for _, tpl := range templates {
			if tpl.MetaString("chartRoot") == root {
				w.AddEdge(chart.ID, tpl.ID, graph.EdgeReferences)
			}
		}
		for _, f := range w.nodesOfType(graph.NodeFile) {
			if path.Base(f.FilePath) == "values.yaml" && strings.HasPrefix(f.FilePath, root+"/") {
				w.AddEdge(chart.ID, f.ID, graph.EdgeReferences)
			}
		}
	}
}

func (w *Workspace) linkKustomizations() {
	for _, n := range w.nodesOfType(graph.NodeComponent) {
		if n.MetaString("platform") != "Kustomize" {
			continue
		}
		dir := path.Dir(n.FilePath)
		for _, entry := range n.MetaStrings("resources") {
			if target := w.resolveKustomizeResource(dir, entry); target != nil {
				w.AddEdge(n.ID, target.ID, graph.EdgeReferences)
			}
		}
	}
}

// resolveKustomizeResource tries the raw entry plus .yaml/.yml suffixes
// relative to the kustomization's directory, preferring a Component in the
// resolved file (Deployment kind first), then the File node, then a
// basename match against any YAML file.
func (w *Workspace) resolveKustomizeResource(dir, entry string) *graph.Node {
	for _, candidate := range []string{entry, entry + ".yaml", entry + ".yml"} {
		resolved := path.Join(dir, candidate)
		if target := w.bestNodeInFile(resolved); target != nil {
			return target
		}
	}

	base := path.Base(entry)
	for _, f := range w.nodesOfType(graph.NodeFile) {
		if f.Language != "YAML" {
			continue
		}
		fb := path.Base(f.FilePath)
		if fb == base || fb == base+".yaml" || fb == base+".yml" {
			if target := w.bestNodeInFile(f.FilePath); target != nil {
				return target
			}
		}
	}
	return nil
}

// bestNodeInFile picks the Deployment Component, else the first Component,
// else the File node, for a normalized path.
func (w *Workspace) bestNodeInFile(p string) *graph.Node {
	var first *graph.Node
	for _, n := range w.nodesOfType(graph.NodeComponent) {
		if n.FilePath != p {
			continue
		}
		if n.MetaString("resourceKind") == "Deployment" {
			return n
		}
		if first == nil {
			first = n
		}
	}
	if first != nil {
		return first
	}
	return w.fileByPath[p]
}
