package strategy

import (
	"path/filepath"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/codemapper/codemap/internal/graph"
)

var yamlDocSepRe = regexp.MustCompile(`(?m)^---\s*$`)

// k8sDoc captures the Kubernetes resource fields the linkage passes read.
type k8sDoc struct {
	APIVersion string `yaml:"apiVersion"`
	Kind       string `yaml:"kind"`
	Metadata   struct {
		Name   string            `yaml:"name"`
		Labels map[string]string `yaml:"labels"`
	} `yaml:"metadata"`
	Spec struct {
		Selector map[string]any `yaml:"selector"`
		Template struct {
			Metadata struct {
				Labels map[string]string `yaml:"labels"`
			} `yaml:"metadata"`
		} `yaml:"template"`
	} `yaml:"spec"`
}

var imageLineRe = regexp.MustCompile(`(?m)^\s*(?:-\s+)?image:\s*["']?([^"'\s]+)["']?`)

// AnalyzeYAML splits multi-document YAML and classifies each document as
// Kubernetes, Helm, Kustomize or OpenAPI. Text-driven: stub trees work.
func AnalyzeYAML(in *Input) *Result {
	res := newResult(in)
	text := rootText(in)
	norm := graph.NormalizePath(in.Path)
	base := filepath.Base(norm)

	isChart := base == "Chart.yaml"
	isTemplate := strings.Contains(norm, "/templates/")
	isKustomization := base == "kustomization.yaml" || base == "kustomization.yml"

	docs := yamlDocSepRe.Split(text, -1)
	for i, doc := range docs {
		if strings.TrimSpace(doc) == "" {
			continue
		}
		switch {
		case isKustomization || strings.Contains(doc, "\nkustomization:") || strings.HasPrefix(doc, "kustomization:"):
			addKustomizeNode(in, res, doc)
		case isChart:
			addHelmChartNode(in, res, doc, norm)
		case hasTopKey(doc, "openapi"):
			addOpenAPIRoutesYAML(in, res, doc)
		case hasTopKey(doc, "apiVersion") && hasTopKey(doc, "kind"):
			addKubernetesNode(in, res, doc, i, isTemplate, norm)
		}
	}
	return res
}

// hasTopKey reports whether a YAML document has a top-level key, without a
// full parse.
func hasTopKey(doc, key string) bool {
	return strings.HasPrefix(doc, key+":") || strings.Contains(doc, "\n"+key+":")
}

func addKubernetesNode(in *Input, res *Result, doc string, index int, isTemplate bool, norm string) {
	var k k8sDoc
	if err := yaml.Unmarshal([]byte(doc), &k); err != nil || k.Kind == "" {
		return
	}

	label := k.Metadata.Name
	if label == "" {
		label = k.Kind
	}
	n := res.addNode(&graph.Node{
		ID:       graph.NodeIDAt("k8s", k.Kind+"/"+label, in.Path, uint(index)),
		Type:     graph.NodeComponent,
		Label:    label,
		FilePath: norm,
		Language: string(in.Language),
		CodeSnippet: doc,
	})
	n.SetMeta("platform", "Kubernetes")
	n.SetMeta("resourceKind", k.Kind)
	n.SetMeta("resourceName", k.Metadata.Name)

	labels := k.Metadata.Labels
	if len(k.Spec.Template.Metadata.Labels) > 0 {
		merged := make(map[string]string, len(labels)+len(k.Spec.Template.Metadata.Labels))
		for key, v := range labels {
			merged[key] = v
		}
		for key, v := range k.Spec.Template.Metadata.Labels {
			merged[key] = v
		}
		labels = merged
	}
	if len(labels) > 0 {
		n.SetMeta("labels", labels)
	}
	if sel := flattenSelector(k.Spec.Selector); len(sel) > 0 {
		n.SetMeta("selector", sel)
	}
	if images := imageRefs(doc); len(images) > 0 {
		n.SetMeta("images", images)
	}
	if isTemplate {
		n.SetMeta("platform", "Helm")
		n.SetMeta("resourceKind", k.Kind)
		n.SetMeta("chartRoot", chartRootOf(norm))
	}
	res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
}

// flattenSelector accepts both the flat Service selector form and the
// Deployment matchLabels form.
func flattenSelector(sel map[string]any) map[string]string {
	if len(sel) == 0 {
		return nil
	}
	out := make(map[string]string)
	for k, v := range sel {
		switch val := v.(type) {
		case string:
			out[k] = val
		case map[string]any:
			if k == "matchLabels" {
				for mk, mv := range val {
					if s, ok := mv.(string); ok {
						out[mk] = s
					}
				}
			}
		}
	}
	return out
}

func imageRefs(doc string) []string {
	var images []string
	seen := map[string]bool{}
	for _, m := range imageLineRe.FindAllStringSubmatch(doc, -1) {
		if !seen[m[1]] {
			seen[m[1]] = true
			images = append(images, m[1])
		}
	}
	return images
}

// chartRootOf strips the /templates suffix from a Helm template path's dir.
func chartRootOf(norm string) string {
	dir := filepath.ToSlash(filepath.Dir(norm))
	if idx := strings.Index(dir, "/templates"); idx >= 0 {
		return dir[:idx]
	}
	return dir
}

type helmChart struct {
	Name        string `yaml:"name"`
	Version     string `yaml:"version"`
	Description string `yaml:"description"`
}

func addHelmChartNode(in *Input, res *Result, doc, norm string) {
	var c helmChart
	if err := yaml.Unmarshal([]byte(doc), &c); err != nil || c.Name == "" {
		return
	}
	n := res.addNode(&graph.Node{
		ID:       graph.NodeID("helm", c.Name, in.Path),
		Type:     graph.NodeComponent,
		Label:    c.Name,
		FilePath: norm,
		Language: string(in.Language),
	})
	n.SetMeta("platform", "Helm")
	n.SetMeta("resourceKind", "Chart")
	n.SetMeta("chartRoot", filepath.ToSlash(filepath.Dir(norm)))
	if c.Version != "" {
		n.SetMeta("version", c.Version)
	}
	res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
}

type kustomization struct {
	Resources []string `yaml:"resources"`
	Bases     []string `yaml:"bases"`
}

func addKustomizeNode(in *Input, res *Result, doc string) {
	var k kustomization
	if err := yaml.Unmarshal([]byte(doc), &k); err != nil {
		return
	}
	norm := graph.NormalizePath(in.Path)
	n := res.addNode(&graph.Node{
		ID:       graph.NodeID("kustomize", filepath.Base(filepath.Dir(norm)), in.Path),
		Type:     graph.NodeComponent,
		Label:    "kustomization",
		FilePath: norm,
		Language: string(in.Language),
	})
	n.SetMeta("platform", "Kustomize")
	resources := append([]string{}, k.Resources...)
	resources = append(resources, k.Bases...)
	if len(resources) > 0 {
		n.SetMeta("resources", resources)
	}
	res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
}

// openAPIDoc is the subset of an OpenAPI spec the route extraction reads.
type openAPIDoc struct {
	OpenAPI string                    `yaml:"openapi" json:"openapi"`
	Swagger string                    `yaml:"swagger" json:"swagger"`
	Paths   map[string]map[string]any `yaml:"paths" json:"paths"`
}

var httpMethods = []string{"get", "post", "put", "delete", "patch", "head", "options"}

func addOpenAPIRoutesYAML(in *Input, res *Result, doc string) {
	var o openAPIDoc
	if err := yaml.Unmarshal([]byte(doc), &o); err != nil {
		return
	}
	addOpenAPIRoutes(in, res, &o)
}

// addOpenAPIRoutes emits one APIRoute per method under each path.
func addOpenAPIRoutes(in *Input, res *Result, o *openAPIDoc) {
	for path, ops := range o.Paths {
		for _, method := range httpMethods {
			if _, ok := ops[method]; !ok {
				continue
			}
			n := routeNode(in, path, "OpenAPI", method)
			res.addNode(n)
			res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
		}
	}
}
