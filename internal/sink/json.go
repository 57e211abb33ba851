// Package sink persists finalized code maps: a byte-stable JSON writer for
// golden comparison and a SQLite store for queryable copies.
package sink

import (
	"encoding/json"
	"io"

	"github.com/codemapper/codemap/internal/graph"
)

// WriteJSON emits the code map in the output contract format: two-space
// indent, keys in struct order, map keys sorted by the encoder. Nodes and
// edges must already be sorted; the writer never reorders.
func WriteJSON(w io.Writer, m *graph.CodeMap) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(m)
}
