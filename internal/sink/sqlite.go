package sink

import (
	"database/sql"
	"encoding/json"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/codemapper/codemap/internal/graph"
)

// SQLiteSink stores code maps in a SQLite database so dashboards can query
// nodes and edges without re-parsing JSON.
type SQLiteSink struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS maps (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	version TEXT NOT NULL,
	generated_at TEXT NOT NULL,
	generator TEXT NOT NULL,
	commit_hash TEXT,
	statistics TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS nodes (
	map_id INTEGER NOT NULL REFERENCES maps(id) ON DELETE CASCADE,
	id TEXT NOT NULL,
	type TEXT NOT NULL,
	label TEXT NOT NULL,
	file_path TEXT NOT NULL,
	language TEXT NOT NULL,
	code_snippet TEXT,
	metadata TEXT
);
CREATE TABLE IF NOT EXISTS edges (
	map_id INTEGER NOT NULL REFERENCES maps(id) ON DELETE CASCADE,
	source_id TEXT NOT NULL,
	target_id TEXT NOT NULL,
	type TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_nodes_map ON nodes(map_id, type);
CREATE INDEX IF NOT EXISTS idx_edges_map ON edges(map_id, type);
`

// OpenSQLite opens (creating if needed) a code map database.
func OpenSQLite(path string) (*SQLiteSink, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}
	return &SQLiteSink{db: db}, nil
}

// SaveCodeMap writes one map (nodes, edges, statistics) in a transaction
// and returns the new map row id.
func (s *SQLiteSink) SaveCodeMap(m *graph.CodeMap) (int64, error) {
	statsJSON, err := json.Marshal(m.Statistics)
	if err != nil {
		return 0, fmt.Errorf("marshal statistics: %w", err)
	}

	tx, err := s.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(
		"INSERT INTO maps (version, generated_at, generator, commit_hash, statistics) VALUES (?, ?, ?, ?, ?)",
		m.Version, m.GeneratedAt, m.Generator, m.Commit, string(statsJSON),
	)
	if err != nil {
		return 0, fmt.Errorf("insert map: %w", err)
	}
	mapID, _ := res.LastInsertId()

	nodeStmt, err := tx.Prepare(
		"INSERT INTO nodes (map_id, id, type, label, file_path, language, code_snippet, metadata) VALUES (?, ?, ?, ?, ?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("prepare nodes: %w", err)
	}
	defer nodeStmt.Close()
	for _, n := range m.Nodes {
		var meta []byte
		if n.Metadata != nil {
			meta, _ = json.Marshal(n.Metadata)
		}
		if _, err := nodeStmt.Exec(mapID, n.ID, string(n.Type), n.Label, n.FilePath, n.Language, n.CodeSnippet, string(meta)); err != nil {
			return 0, fmt.Errorf("insert node %s: %w", n.ID, err)
		}
	}

	edgeStmt, err := tx.Prepare("INSERT INTO edges (map_id, source_id, target_id, type) VALUES (?, ?, ?, ?)")
	if err != nil {
		return 0, fmt.Errorf("prepare edges: %w", err)
	}
	defer edgeStmt.Close()
	for _, e := range m.Edges {
		if _, err := edgeStmt.Exec(mapID, e.SourceID, e.TargetID, string(e.Type)); err != nil {
			return 0, fmt.Errorf("insert edge: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return mapID, nil
}

// CountNodes returns the node count of one stored map.
func (s *SQLiteSink) CountNodes(mapID int64) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM nodes WHERE map_id=?", mapID).Scan(&n)
	return n, err
}

// CountEdges returns the edge count of one stored map.
func (s *SQLiteSink) CountEdges(mapID int64) (int, error) {
	var n int
	err := s.db.QueryRow("SELECT COUNT(*) FROM edges WHERE map_id=?", mapID).Scan(&n)
	return n, err
}

// Close closes the database.
func (s *SQLiteSink) Close() error { return s.db.Close() }
