package sink

import (
	"bytes"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/codemapper/codemap/internal/graph"
)

func sampleMap() *graph.CodeMap {
	return &graph.CodeMap{
		Version:     "1.0",
		GeneratedAt: "1970-01-01T00:00:00Z",
		Generator:   "codemap",
		Nodes: []*graph.Node{
			{ID: "a", Type: graph.NodeFile, Label: "a.go", FilePath: "/r/a.go", Language: "Go"},
			{ID: "b", Type: graph.NodeFunction, Label: "run", FilePath: "/r/a.go", Language: "Go", CodeSnippet: "func run() {}"},
		},
		Edges: []*graph.Edge{
			{SourceID: "a", TargetID: "b", Type: graph.EdgeReferences},
		},
		Statistics: &graph.Statistics{},
	}
}

func TestWriteJSONStable(t *testing.T) {
	var a, b bytes.Buffer
	if err := WriteJSON(&a, sampleMap()); err != nil {
		t.Fatal(err)
	}
	if err := WriteJSON(&b, sampleMap()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a.Bytes(), b.Bytes()) {
		t.Fatal("identical maps must serialize identically")
	}
}

func TestWriteJSONRoundTrip(t *testing.T) {
	// R1: parse the output and re-sort — order is unchanged.
	var buf bytes.Buffer
	m := sampleMap()
	graph.Sort(m)
	if err := WriteJSON(&buf, m); err != nil {
		t.Fatal(err)
	}

	var parsed graph.CodeMap
	if err := json.Unmarshal(buf.Bytes(), &parsed); err != nil {
		t.Fatal(err)
	}
	before := make([]string, len(parsed.Nodes))
	for i, n := range parsed.Nodes {
		before[i] = n.ID
	}
	graph.Sort(&parsed)
	for i, n := range parsed.Nodes {
		if n.ID != before[i] {
			t.Fatal("re-sorting parsed output changed node order")
		}
	}
}

func TestSQLiteSinkSaveAndCount(t *testing.T) {
	path := filepath.Join(t.TempDir(), "maps.db")
	s, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	defer s.Close()

	id, err := s.SaveCodeMap(sampleMap())
	if err != nil {
		t.Fatalf("SaveCodeMap: %v", err)
	}
	nodes, err := s.CountNodes(id)
	if err != nil || nodes != 2 {
		t.Fatalf("CountNodes = %d, err %v", nodes, err)
	}
	edges, err := s.CountEdges(id)
	if err != nil || edges != 1 {
		t.Fatalf("CountEdges = %d, err %v", edges, err)
	}
}
