package graph

import "sort"

// Sort orders nodes and edges into the total order that makes two runs over
// identical inputs byte-identical: nodes by (type, filePath, label), edges by
// (type, sourceId, targetId), lexicographic string comparison, stable.
func Sort(m *CodeMap) {
	sort.SliceStable(m.Nodes, func(i, j int) bool {
		a, b := m.Nodes[i], m.Nodes[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.FilePath != b.FilePath {
			return a.FilePath < b.FilePath
		}
		return a.Label < b.Label
	})
	sort.SliceStable(m.Edges, func(i, j int) bool {
		a, b := m.Edges[i], m.Edges[j]
		if a.Type != b.Type {
			return a.Type < b.Type
		}
		if a.SourceID != b.SourceID {
			return a.SourceID < b.SourceID
		}
		return a.TargetID < b.TargetID
	})
}
