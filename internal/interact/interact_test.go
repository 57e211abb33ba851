package interact

import (
	"testing"

	"github.com/codemapper/codemap/internal/graph"
)

func testWorkspace() *Workspace {
	return NewWorkspace("/repo")
}

func fileNode(path string, language string) *graph.Node {
	return &graph.Node{
		ID:       graph.NodeID("file", path, path),
		Type:     graph.NodeFile,
		Label:    path,
		FilePath: path,
		Language: language,
	}
}

func k8sComponent(id, kind, name string, labels, selector map[string]string) *graph.Node {
	n := &graph.Node{ID: id, Type: graph.NodeComponent, Label: name, Language: "YAML"}
	n.SetMeta("platform", "Kubernetes")
	n.SetMeta("resourceKind", kind)
	n.SetMeta("resourceName", name)
	if labels != nil {
		n.SetMeta("labels", labels)
	}
	if selector != nil {
		n.SetMeta("selector", selector)
	}
	return n
}

func edgeExists(w *Workspace, source, target string, t graph.EdgeType) bool {
	for _, e := range w.Edges {
		if e.SourceID == source && e.TargetID == target && e.Type == t {
			return true
		}
	}
	return false
}

func TestKubernetesSelectorMatch(t *testing.T) {
	w := testWorkspace()
	dep := w.AddNode(k8sComponent("dep", "Deployment", "web", map[string]string{"app": "web", "tier": "front"}, nil))
	svc := w.AddNode(k8sComponent("svc", "Service", "web-svc", nil, map[string]string{"app": "web"}))

	w.LinkKubernetes()

	if !edgeExists(w, svc.ID, dep.ID, graph.EdgeReferences) {
		t.Fatal("service selector should match deployment labels (superset)")
	}
}

func TestKubernetesEmptySelectorNoEdges(t *testing.T) {
	// B3: an empty selector produces no REFERENCES edges.
	w := testWorkspace()
	w.AddNode(k8sComponent("dep", "Deployment", "web", map[string]string{"app": "web"}, nil))
	w.AddNode(k8sComponent("svc", "Service", "web-svc", nil, nil))

	w.LinkKubernetes()

	for _, e := range w.Edges {
		if e.SourceID == "svc" {
			t.Fatalf("unexpected edge: %+v", e)
		}
	}
}

func TestKubernetesSelectorMismatch(t *testing.T) {
	w := testWorkspace()
	w.AddNode(k8sComponent("dep", "Deployment", "web", map[string]string{"app": "web"}, nil))
	w.AddNode(k8sComponent("svc", "Service", "other", nil, map[string]string{"app": "other"}))

	w.LinkKubernetes()

	if edgeExists(w, "svc", "dep", graph.EdgeReferences) {
		t.Fatal("mismatched selector must not link")
	}
}

func TestKubernetesImageComponents(t *testing.T) {
	w := testWorkspace()
	dep := k8sComponent("dep", "Deployment", "web", nil, nil)
	dep.SetMeta("images", []string{"nginx:1.27", "nginx:1.27"})
	w.AddNode(dep)

	w.LinkKubernetes()

	img := w.NodeByID(graph.ImageNodeID("nginx:1.27"))
	if img == nil || img.Type != graph.NodeComponent {
		t.Fatal("missing image component")
	}
	count := 0
	for _, n := range w.Nodes {
		if n.ID == img.ID {
			count++
		}
	}
	if count != 1 {
		t.Fatal("image node must be created once")
	}
}

func TestDedupeRoutesRewritesEdges(t *testing.T) {
	w := testWorkspace()
	a := w.AddNode(&graph.Node{ID: "r1", Type: graph.NodeAPIRoute, Label: "/users", FilePath: "/repo/s.js"})
	w.Nodes = append(w.Nodes, &graph.Node{ID: "r2", Type: graph.NodeAPIRoute, Label: "/users", FilePath: "/repo/s.js"})
	w.byID["r2"] = w.Nodes[len(w.Nodes)-1]
	w.AddEdge("caller", "r2", graph.EdgeAPICall)

	w.DedupeRoutes()

	routes := 0
	for _, n := range w.Nodes {
		if n.Type == graph.NodeAPIRoute {
			routes++
		}
	}
	if routes != 1 {
		t.Fatalf("expected 1 surviving route, got %d", routes)
	}
	if !edgeExists(w, "caller", a.ID, graph.EdgeAPICall) {
		t.Fatal("edge must be rewritten to survivor")
	}
}

func TestDedupeRoutesKeepsMethodVariants(t *testing.T) {
	w := testWorkspace()
	g := &graph.Node{ID: "g", Type: graph.NodeAPIRoute, Label: "/users", FilePath: "/repo/r.ts"}
	g.SetMeta("httpMethod", "GET")
	p := &graph.Node{ID: "p", Type: graph.NodeAPIRoute, Label: "/users", FilePath: "/repo/r.ts"}
	p.SetMeta("httpMethod", "POST")
	w.AddNode(g)
	w.AddNode(p)

	w.DedupeRoutes()

	routes := 0
	for _, n := range w.Nodes {
		if n.Type == graph.NodeAPIRoute {
			routes++
		}
	}
	if routes != 2 {
		t.Fatalf("method variants must both survive, got %d", routes)
	}
}

func TestResolveCalls(t *testing.T) {
	w := testWorkspace()
	w.AddResult(
		[]*graph.Node{fileNode("/repo/a.ts", "TypeScript")},
		nil,
		map[string]string{"helper": "helper-id"},
		[]graph.CallSite{{CallerID: "caller-id", Raw: "helper", CallerFile: "/repo/b.ts"}},
	)
	w.ResolveCalls()

	if !edgeExists(w, "caller-id", "helper-id", graph.EdgeCalls) {
		t.Fatal("missing CALLS edge")
	}
}

func TestLinkDatabaseSingleton(t *testing.T) {
	w := testWorkspace()
	w.AddNode(&graph.Node{ID: "f1", Type: graph.NodeFunction, Label: "a", CodeSnippet: "SELECT * FROM users"})
	w.AddNode(&graph.Node{ID: "f2", Type: graph.NodeFunction, Label: "b", CodeSnippet: "DELETE FROM logs"})

	w.LinkDatabase()

	dbCount := 0
	for _, n := range w.Nodes {
		if n.ID == graph.GenericDatabaseID {
			dbCount++
		}
	}
	if dbCount != 1 {
		t.Fatalf("db:generic must exist once, got %d", dbCount)
	}
	if !edgeExists(w, "f1", graph.GenericDatabaseID, graph.EdgeDBQuery) ||
		!edgeExists(w, "f2", graph.GenericDatabaseID, graph.EdgeDBQuery) {
		t.Fatal("missing DB_QUERY edges")
	}
}

func TestLinkORMPrisma(t *testing.T) {
	w := testWorkspace()
	w.AddNode(&graph.Node{ID: "f", Type: graph.NodeFunction, Label: "svc",
		CodeSnippet: "await prisma.user.findMany(); await prisma.order.create({})"})

	w.LinkORM()

	if !edgeExists(w, "f", graph.TableNodeID("user"), graph.EdgeReadsFrom) {
		t.Fatal("findMany should read from table:user")
	}
	if !edgeExists(w, "f", graph.TableNodeID("order"), graph.EdgeWritesTo) {
		t.Fatal("create should write to table:order")
	}
}

func TestLinkORMDefinitions(t *testing.T) {
	w := testWorkspace()
	w.AddNode(&graph.Node{ID: "m", Type: graph.NodeClass, Label: "User",
		CodeSnippet: `sequelize.define('users', {})`})
	w.AddNode(&graph.Node{ID: "p", Type: graph.NodeClass, Label: "Order",
		CodeSnippet: `__tablename__ = 'orders'`})

	w.LinkORM()

	if w.NodeByID(graph.TableNodeID("users")) == nil || w.NodeByID(graph.TableNodeID("orders")) == nil {
		t.Fatal("missing table nodes")
	}
}

func TestLinkGraphQLSchemaSingleton(t *testing.T) {
	w := testWorkspace()
	w.AddNode(fileNode("/repo/a.graphql", "GraphQL"))
	w.AddNode(fileNode("/repo/b.gql", "GraphQL"))

	w.LinkGraphQL()

	schemas := 0
	for _, n := range w.Nodes {
		if n.ID == graph.GraphQLSchemaID {
			schemas++
		}
	}
	if schemas != 1 {
		t.Fatalf("graphql:schema must exist once, got %d", schemas)
	}
}

func TestLinkTerraformReferences(t *testing.T) {
	w := testWorkspace()
	vpc := &graph.Node{ID: "vpc", Type: graph.NodeComponent, Label: "aws_vpc.main",
		CodeSnippet: `resource "aws_vpc" "main" {}`}
	vpc.SetMeta("platform", "Terraform")
	vpc.SetMeta("resourceType", "aws_vpc")
	vpc.SetMeta("resourceName", "main")

	subnet := &graph.Node{ID: "subnet", Type: graph.NodeComponent, Label: "aws_subnet.a",
		CodeSnippet: "resource \"aws_subnet\" \"a\" {\n  vpc_id = aws_vpc.main.id\n  depends_on = [aws_vpc.main]\n}"}
	subnet.SetMeta("platform", "Terraform")
	subnet.SetMeta("resourceType", "aws_subnet")
	subnet.SetMeta("resourceName", "a")

	w.AddNode(vpc)
	w.AddNode(subnet)
	w.LinkTerraform()

	count := 0
	for _, e := range w.Edges {
		if e.SourceID == "subnet" && e.TargetID == "vpc" {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("expected exactly one deduped reference edge, got %d", count)
	}
}

func TestKustomizeNeighbourResolution(t *testing.T) {
	w := testWorkspace()
	depFile := w.AddNode(fileNode("/repo/k8s/deployment.yaml", "YAML"))
	_ = depFile
	dep := k8sComponent("dep", "Deployment", "web", nil, nil)
	dep.FilePath = "/repo/k8s/deployment.yaml"
	w.AddNode(dep)

	kust := &graph.Node{ID: "kust", Type: graph.NodeComponent, Label: "kustomization",
		FilePath: "/repo/k/kustomization.yaml"}
	kust.SetMeta("platform", "Kustomize")
	kust.SetMeta("resources", []string{"../k8s/deployment.yaml"})
	w.AddNode(kust)

	w.LinkHelmKustomize()

	if !edgeExists(w, "kust", "dep", graph.EdgeReferences) {
		t.Fatal("kustomize must reference the Deployment Component, not the File node")
	}
}

func TestKustomizeBasenameFallback(t *testing.T) {
	w := testWorkspace()
	w.AddNode(fileNode("/repo/base/service.yaml", "YAML"))

	kust := &graph.Node{ID: "kust", Type: graph.NodeComponent, Label: "kustomization",
		FilePath: "/repo/overlays/prod/kustomization.yaml"}
	kust.SetMeta("platform", "Kustomize")
	kust.SetMeta("resources", []string{"service"})
	w.AddNode(kust)

	w.LinkHelmKustomize()

	target := w.FileByPath("/repo/base/service.yaml")
	if !edgeExists(w, "kust", target.ID, graph.EdgeReferences) {
		t.Fatal("basename fallback should reach the YAML file")
	}
}

func TestHelmChartLinksTemplatesAndValues(t *testing.T) {
	w := testWorkspace()
	chart := &graph.Node{ID: "chart", Type: graph.NodeComponent, Label: "my-chart",
		FilePath: "/repo/charts/my-chart/Chart.yaml"}
	chart.SetMeta("platform", "Helm")
	chart.SetMeta("resourceKind", "Chart")
	chart.SetMeta("chartRoot", "/repo/charts/my-chart")
	w.AddNode(chart)

	tpl := &graph.Node{ID: "tpl", Type: graph.NodeComponent, Label: "dep",
		FilePath: "/repo/charts/my-chart/templates/deploy.yaml"}
	tpl.SetMeta("platform", "Helm")
	tpl.SetMeta("chartRoot", "/repo/charts/my-chart")
	w.AddNode(tpl)

	values := w.AddNode(fileNode("/repo/charts/my-chart/values.yaml", "YAML"))

	w.LinkHelmKustomize()

	if !edgeExists(w, "chart", "tpl", graph.EdgeReferences) {
		t.Fatal("chart must reference its template docs")
	}
	if !edgeExists(w, "chart", values.ID, graph.EdgeReferences) {
		t.Fatal("chart must reference values.yaml")
	}
}
