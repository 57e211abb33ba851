// Package graph defines the code map data model: nodes, edges, statistics,
// and the deterministic id and ordering contracts shared by every pass.
package graph

// NodeType classifies a code map vertex.
type NodeType string

const (
	NodeFile      NodeType = "File"
	NodeFunction  NodeType = "Function"
	NodeClass     NodeType = "Class"
	NodeComponent NodeType = "Component"
	NodeAPIRoute  NodeType = "APIRoute"
	// NodeDatabase covers the synthetic db:generic and table:* nodes.
	NodeDatabase NodeType = "Database"
)

// EdgeType classifies a directed relationship between two nodes.
type EdgeType string

const (
	EdgeImports        EdgeType = "IMPORTS"
	EdgeCalls          EdgeType = "CALLS"
	EdgeAPICall        EdgeType = "API_CALL"
	EdgeDBQuery        EdgeType = "DB_QUERY"
	EdgeReferences     EdgeType = "REFERENCES"
	EdgeMessagePublish EdgeType = "MESSAGE_PUBLISH"
	EdgeMessageConsume EdgeType = "MESSAGE_CONSUME"
	EdgeRPCCall        EdgeType = "RPC_CALL"
	EdgeGraphQLQuery   EdgeType = "GRAPHQL_QUERY"
	EdgeReadsFrom      EdgeType = "READS_FROM"
	EdgeWritesTo       EdgeType = "WRITES_TO"
)

// Node is a code map vertex. FilePath is absolute and forward-slash
// normalized; it is empty for synthetic nodes. Metadata holds free-form
// string-keyed values (scalars, string slices, nested maps); the keys read
// by the interaction analyzer (platform, resourceKind, labels, selector,
// images, resources, framework, httpMethod, ...) are contract keys.
type Node struct {
	ID          string         `json:"id"`
	Type        NodeType       `json:"type"`
	Label       string         `json:"label"`
	FilePath    string         `json:"filePath"`
	Language    string         `json:"language"`
	CodeSnippet string         `json:"codeSnippet,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
}

// Edge is a directed relationship. TargetID may temporarily hold a raw
// import specifier before import resolution rewrites it; unresolved IMPORTS
// edges keep the raw specifier.
type Edge struct {
	SourceID string   `json:"sourceId"`
	TargetID string   `json:"targetId"`
	Type     EdgeType `json:"type"`
}

// CallSite is an intermediate record produced by strategies and consumed by
// the interaction analyzer. It is never emitted in the final map.
type CallSite struct {
	CallerID   string
	Raw        string
	Qualifier  string
	CallerFile string
}

// CodeMap is the emitted artifact.
type CodeMap struct {
	Version     string      `json:"version"`
	GeneratedAt string      `json:"generatedAt"`
	Generator   string      `json:"generator"`
	Commit      string      `json:"commit,omitempty"`
	Nodes       []*Node     `json:"nodes"`
	Edges       []*Edge     `json:"edges"`
	Statistics  *Statistics `json:"statistics"`
}

// SetMeta sets a metadata key, allocating the map on first use.
func (n *Node) SetMeta(key string, value any) {
	if n.Metadata == nil {
		n.Metadata = make(map[string]any)
	}
	n.Metadata[key] = value
}

// MetaString returns a string metadata value, or "".
func (n *Node) MetaString(key string) string {
	if n.Metadata == nil {
		return ""
	}
	s, _ := n.Metadata[key].(string)
	return s
}

// MetaStringMap returns a map-valued metadata entry as map[string]string.
// Both map[string]string and map[string]any (JSON round-tripped) are accepted.
func (n *Node) MetaStringMap(key string) map[string]string {
	if n.Metadata == nil {
		return nil
	}
	switch v := n.Metadata[key].(type) {
	case map[string]string:
		return v
	case map[string]any:
		out := make(map[string]string, len(v))
		for k, val := range v {
			if s, ok := val.(string); ok {
				out[k] = s
			}
		}
		return out
	}
	return nil
}

// MetaStrings returns a slice-valued metadata entry as []string.
func (n *Node) MetaStrings(key string) []string {
	if n.Metadata == nil {
		return nil
	}
	switch v := n.Metadata[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, val := range v {
			if s, ok := val.(string); ok {
				out = append(out, s)
			}
		}
		return out
	}
	return nil
}
