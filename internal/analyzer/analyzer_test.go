package analyzer

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/codemapper/codemap/internal/graph"
	"github.com/codemapper/codemap/internal/interact"
	"github.com/codemapper/codemap/internal/sink"
)

func writeFixture(t *testing.T, root, rel, content string) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(rel))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(p, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
}

func runPipeline(t *testing.T, root string, cfg Config) *graph.CodeMap {
	t.Helper()
	a := New(root, cfg)
	a.Now = func() time.Time { return time.Unix(0, 0) }
	m, err := a.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	return m
}

func findByLabel(m *graph.CodeMap, t graph.NodeType, label string) *graph.Node {
	for _, n := range m.Nodes {
		if n.Type == t && n.Label == label {
			return n
		}
	}
	return nil
}

func hasEdge(m *graph.CodeMap, source, target string, et graph.EdgeType) bool {
	for _, e := range m.Edges {
		if e.SourceID == source && e.TargetID == target && e.Type == et {
			return true
		}
	}
	return false
}

const selectorFixture = `apiVersion: apps/v1
kind: Deployment
metadata:
  name: web
  labels:
    app: web
---
apiVersion: v1
kind: Service
metadata:
  name: web-svc
spec:
  selector:
    app: web
`

func TestServiceDeploymentSelectorMatch(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "k8s/all.yaml", selectorFixture)

	m := runPipeline(t, root, Config{})

	dep := findByLabel(m, graph.NodeComponent, "web")
	svc := findByLabel(m, graph.NodeComponent, "web-svc")
	if dep == nil || svc == nil {
		t.Fatal("missing Kubernetes components")
	}
	if dep.MetaString("platform") != "Kubernetes" || svc.MetaString("platform") != "Kubernetes" {
		t.Fatal("platform metadata missing")
	}
	if !hasEdge(m, svc.ID, dep.ID, graph.EdgeReferences) {
		t.Fatal("missing Service→Deployment REFERENCES edge")
	}
}

func TestKustomizeNeighbourResolution(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "k/kustomization.yaml", "resources:\n  - ../k8s/deployment.yaml\n")
	writeFixture(t, root, "k8s/deployment.yaml", "apiVersion: apps/v1\nkind: Deployment\nmetadata:\n  name: web\n")

	m := runPipeline(t, root, Config{})

	kust := findByLabel(m, graph.NodeComponent, "kustomization")
	dep := findByLabel(m, graph.NodeComponent, "web")
	if kust == nil || dep == nil {
		t.Fatal("missing kustomize/deployment nodes")
	}
	if !hasEdge(m, kust.ID, dep.ID, graph.EdgeReferences) {
		t.Fatal("kustomize must reference the Deployment Component, not the File node")
	}
}

func TestExpressFetchLinkage(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "server.js", "const app = require('express')()\napp.get('/api/users', handler)\n")
	writeFixture(t, root, "client.ts", "async function load(){ fetch('/api/users') }\n")

	m := runPipeline(t, root, Config{
		InteractionRules: []interact.Rule{{
			Type:     "API_CALL",
			Frontend: interact.Endpoint{Path: "client"},
			Backend:  interact.Endpoint{Path: "server"},
		}},
	})

	route := findByLabel(m, graph.NodeAPIRoute, "/api/users")
	if route == nil || route.MetaString("framework") != "Express" {
		t.Fatalf("route: %+v", route)
	}
	load := findByLabel(m, graph.NodeFunction, "load")
	if load == nil {
		t.Fatal("missing load function node")
	}
	if !hasEdge(m, load.ID, route.ID, graph.EdgeAPICall) {
		t.Fatal("missing API_CALL edge load → /api/users")
	}
}

func TestTerraformModuleReference(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "main.tf", "module \"mod\" {\n  source = \"./modules/mod\"\n}\n")

	m := runPipeline(t, root, Config{})

	mod := findByLabel(m, graph.NodeComponent, "module:mod")
	if mod == nil {
		t.Fatal("missing module component")
	}
	if !hasEdge(m, mod.ID, "./modules/mod", graph.EdgeReferences) {
		t.Fatal("module source edge must keep the raw path when no file exists")
	}
}

func TestTerraformModuleReferenceResolved(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "main.tf", "module \"mod\" {\n  source = \"./modules/mod\"\n}\n")
	writeFixture(t, root, "modules/mod/main.tf", "resource \"aws_s3_bucket\" \"b\" {}\n")

	m := runPipeline(t, root, Config{})

	mod := findByLabel(m, graph.NodeComponent, "module:mod")
	var target *graph.Node
	for _, n := range m.Nodes {
		if n.Type == graph.NodeFile && filepath.ToSlash(n.FilePath) == graph.NormalizePath(filepath.Join(root, "modules/mod/main.tf")) {
			target = n
		}
	}
	if target == nil {
		t.Fatal("missing module file node")
	}
	if !hasEdge(m, mod.ID, target.ID, graph.EdgeReferences) {
		t.Fatal("module source edge must be rewritten to the File node")
	}
}

func TestNextAppRouterScenario(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "app/api/users/route.ts",
		"export async function GET(req) { return Response.json([]) }\nexport async function POST(req) { return new Response(null) }\n")

	m := runPipeline(t, root, Config{})

	var routes []*graph.Node
	for _, n := range m.Nodes {
		if n.Type == graph.NodeAPIRoute {
			routes = append(routes, n)
		}
	}
	if len(routes) != 2 {
		t.Fatalf("expected 2 APIRoute nodes, got %d", len(routes))
	}
	methods := map[string]bool{}
	for _, r := range routes {
		if r.Label != "/users" || r.MetaString("framework") != "Next.js" {
			t.Fatalf("bad route: %+v", r)
		}
		methods[r.MetaString("httpMethod")] = true
	}
	if !methods["GET"] || !methods["POST"] {
		t.Fatalf("methods = %v", methods)
	}
}

func TestNPlusOneEndToEnd(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "LoadUsersService.ts",
		"function load(us) { for(const u of us){ db.users.Find(u.id) } }\n")

	m := runPipeline(t, root, Config{})

	if m.Statistics.NPlusOneQueries.Count != 1 {
		t.Fatalf("nPlusOneQueries.count = %d", m.Statistics.NPlusOneQueries.Count)
	}
	if m.Statistics.DBQueriesInLoops.Count != 1 {
		t.Fatalf("dbQueriesInLoops.count = %d", m.Statistics.DBQueriesInLoops.Count)
	}
	if m.Statistics.NPlusOneQueries.Issues[0].FunctionName != "load" {
		t.Fatalf("functionName = %q", m.Statistics.NPlusOneQueries.Issues[0].FunctionName)
	}
}

func TestDeterministicOutput(t *testing.T) {
	// I3: two runs over identical inputs are byte-identical (fixed clock).
	root := t.TempDir()
	writeFixture(t, root, "k8s/all.yaml", selectorFixture)
	writeFixture(t, root, "main.tf", "provider \"aws\" {}\n")
	writeFixture(t, root, "schema.sql", "CREATE TABLE users (id INT);\n")
	writeFixture(t, root, "api.graphql", "type Query { users: [User] }\n")

	var outputs [][]byte
	for i := 0; i < 2; i++ {
		m := runPipeline(t, root, Config{Concurrency: 8})
		var buf bytes.Buffer
		if err := sink.WriteJSON(&buf, m); err != nil {
			t.Fatal(err)
		}
		outputs = append(outputs, buf.Bytes())
	}
	if !bytes.Equal(outputs[0], outputs[1]) {
		t.Fatal("two runs produced different bytes")
	}
}

func TestEdgeSourcesResolve(t *testing.T) {
	// I1: every edge's sourceId is a node id after the pipeline.
	root := t.TempDir()
	writeFixture(t, root, "k8s/all.yaml", selectorFixture)
	writeFixture(t, root, "schema.sql", "CREATE TABLE a (x INT REFERENCES b(y));\n")

	m := runPipeline(t, root, Config{})

	ids := map[string]bool{}
	for _, n := range m.Nodes {
		ids[n.ID] = true
	}
	for _, e := range m.Edges {
		if !ids[e.SourceID] {
			t.Fatalf("edge source %q is not a node", e.SourceID)
		}
	}
}

func TestOversizeFileContributesNothing(t *testing.T) {
	// B1: a file over maxFileSizeKB contributes no nodes or edges.
	root := t.TempDir()
	writeFixture(t, root, "big.sql", string(bytes.Repeat([]byte("CREATE TABLE t (x INT);\n"), 200)))

	m := runPipeline(t, root, Config{MaxFileSizeKB: 1})
	if len(m.Nodes) != 0 || len(m.Edges) != 0 {
		t.Fatalf("oversize file leaked: %d nodes, %d edges", len(m.Nodes), len(m.Edges))
	}
}

func TestStrictModeNoParseErrorsForValidInput(t *testing.T) {
	root := t.TempDir()
	writeFixture(t, root, "ok.yaml", "apiVersion: v1\nkind: ConfigMap\nmetadata:\n  name: x\n")

	a := New(root, Config{Strict: true})
	a.Now = func() time.Time { return time.Unix(0, 0) }
	if _, err := a.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	// Well-formed input: no parse errors recorded.
	if len(a.ParseErrors) != 0 {
		t.Fatalf("unexpected parse errors: %+v", a.ParseErrors)
	}
}
