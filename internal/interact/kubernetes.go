package interact

import "github.com/codemapper/codemap/internal/graph"

// LinkKubernetes matches Service selectors against Deployment/Pod labels
// (superset match: every selector entry must appear in the labels with an
// equal value) and attaches container image Components to Deployments.
func (w *Workspace) LinkKubernetes() {
	var services, workloads []*graph.Node
	for _, n := range w.nodesOfType(graph.NodeComponent) {
		if n.MetaString("platform") != "Kubernetes" {
			continue
		}
		switch n.MetaString("resourceKind") {
		case "Service":
			services = append(services, n)
		case "Deployment", "Pod":
			workloads = append(workloads, n)
		}
	}

	for _, svc := range services {
		selector := svc.MetaStringMap("selector")
		if len(selector) == 0 {
			continue
		}
		for _, wl := range workloads {
			if labelsMatch(selector, wl.MetaStringMap("labels")) {
				w.AddEdge(svc.ID, wl.ID, graph.EdgeReferences)
			}
		}
	}

	for _, wl := range workloads {
		if wl.MetaString("resourceKind") != "Deployment" {
			continue
		}
		for _, ref := range wl.MetaStrings("images") {
			img := w.ensureSynthetic(graph.ImageNodeID(ref), graph.NodeComponent, ref)
			img.SetMeta("image", ref)
			w.AddEdge(wl.ID, img.ID, graph.EdgeReferences)
		}
	}
}

// labelsMatch reports whether every selector entry appears in labels.
func labelsMatch(selector, labels map[string]string) bool {
	if len(labels) == 0 {
		return false
	}
	for k, v := range selector {
		if labels[k] != v {
			return false
		}
	}
	return true
}
