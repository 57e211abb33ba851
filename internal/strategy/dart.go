package strategy

import (
	"regexp"

	"github.com/codemapper/codemap/internal/graph"
)

var (
	dartClassRe    = regexp.MustCompile(`class\s+(\w+)(?:\s+extends\s+(\w+))?`)
	dartImportRe   = regexp.MustCompile(`import\s+['"]([^'"]+)['"]`)
	dartRoutesRe   = regexp.MustCompile(`routes\s*:\s*(?:<[^>]*>)?\s*\{([^}]*)\}`)
	dartRouteKeyRe = regexp.MustCompile(`['"]([^'"]+)['"]\s*:`)
)

// flutterWidgetBases are the base classes that make a Dart class a Flutter
// Component.
var flutterWidgetBases = map[string]bool{
	"StatelessWidget": true,
	"StatefulWidget":  true,
}

// AnalyzeDart extracts classes (Flutter widgets become Components),
// MaterialApp route tables and import edges. Text-driven: it works the same
// on real and stub trees.
func AnalyzeDart(in *Input) *Result {
	res := newResult(in)
	text := rootText(in)

	for _, m := range dartImportRe.FindAllStringSubmatch(text, -1) {
		res.addImport(m[1])
	}

	for _, m := range dartClassRe.FindAllStringSubmatch(text, -1) {
		name, base := m[1], m[2]
		nodeType := graph.NodeClass
		kind := "class"
		if flutterWidgetBases[base] {
			nodeType = graph.NodeComponent
			kind = "component"
		}
		n := res.addNode(&graph.Node{
			ID:       graph.NodeID(kind, name, in.Path),
			Type:     nodeType,
			Label:    name,
			FilePath: graph.NormalizePath(in.Path),
			Language: string(in.Language),
		})
		if flutterWidgetBases[base] {
			n.SetMeta("framework", "Flutter")
			n.SetMeta("widget", base)
		}
		res.Exports[name] = n.ID
	}

	// MaterialApp.routes: {'/path': (context) => Screen()}
	if m := dartRoutesRe.FindStringSubmatch(text); m != nil {
		for _, key := range dartRouteKeyRe.FindAllStringSubmatch(m[1], -1) {
			n := routeNode(in, key[1], "Flutter", "")
			res.addNode(n)
			res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
		}
	}
	return res
}
