package strategy

import (
	"regexp"
	"strings"

	"github.com/codemapper/codemap/internal/graph"
)

var (
	sqlCreateTableRe   = regexp.MustCompile(`(?i)CREATE\s+TABLE\s+(?:IF\s+NOT\s+EXISTS\s+)?[\x60"\[]?(\w+)[\x60"\]]?`)
	sqlCreateIndexRe   = regexp.MustCompile(`(?i)CREATE\s+(?:UNIQUE\s+)?INDEX\s+(?:IF\s+NOT\s+EXISTS\s+)?[\x60"\[]?(\w+)[\x60"\]]?`)
	sqlCreateFuncRe    = regexp.MustCompile(`(?i)CREATE\s+(?:OR\s+REPLACE\s+)?FUNCTION\s+[\x60"\[]?(\w+)[\x60"\]]?`)
	sqlCreateTriggerRe = regexp.MustCompile(`(?i)CREATE\s+TRIGGER\s+(?:IF\s+NOT\s+EXISTS\s+)?[\x60"\[]?(\w+)[\x60"\]]?`)
	sqlReferencesRe    = regexp.MustCompile(`(?i)REFERENCES\s+[\x60"\[]?(\w+)[\x60"\]]?`)
)

// dialectFingerprints maps SQL dialects to keyword evidence, checked in
// order; the first dialect with a hit wins.
var dialectFingerprints = []struct {
	dialect  string
	keywords []string
}{
	{"PostgreSQL", []string{"SERIAL", "BIGSERIAL", "JSONB", "ILIKE", "RETURNING", "PLPGSQL", "TEXT[]"}},
	{"MySQL", []string{"AUTO_INCREMENT", "ENGINE=", "UNSIGNED", "MEDIUMTEXT", "LONGTEXT"}},
	{"SQL Server", []string{"NVARCHAR", "IDENTITY(", "DATETIME2", "UNIQUEIDENTIFIER", "[DBO]"}},
	{"SQLite", []string{"AUTOINCREMENT", "WITHOUT ROWID", "PRAGMA"}},
	{"Oracle", []string{"VARCHAR2", "NUMBER(", "SYSDATE", "NVL("}},
}

// AnalyzeSQL extracts CREATE TABLE/INDEX/FUNCTION/TRIGGER statements, infers
// the dialect by keyword fingerprint, and emits edges for foreign-key
// REFERENCES clauses. Text-driven.
func AnalyzeSQL(in *Input) *Result {
	res := newResult(in)
	text := rootText(in)

	dialect := inferSQLDialect(text)
	res.Nodes[0].SetMeta("dialect", dialect)

	add := func(kind, name string) *graph.Node {
		n := res.addNode(&graph.Node{
			ID:       graph.NodeID("sql", kind+":"+name, in.Path),
			Type:     graph.NodeDatabase,
			Label:    name,
			FilePath: graph.NormalizePath(in.Path),
			Language: string(in.Language),
		})
		n.SetMeta("sqlKind", kind)
		n.SetMeta("dialect", dialect)
		res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
		return n
	}

	for _, m := range sqlCreateTableRe.FindAllStringSubmatch(text, -1) {
		add("table", m[1])
	}
	for _, m := range sqlCreateIndexRe.FindAllStringSubmatch(text, -1) {
		add("index", m[1])
	}
	for _, m := range sqlCreateFuncRe.FindAllStringSubmatch(text, -1) {
		add("function", m[1])
	}
	for _, m := range sqlCreateTriggerRe.FindAllStringSubmatch(text, -1) {
		add("trigger", m[1])
	}

	seen := map[string]bool{}
	for _, m := range sqlReferencesRe.FindAllStringSubmatch(text, -1) {
		table := m[1]
		if !seen[table] {
			seen[table] = true
			res.addEdge(res.fileID(), table, graph.EdgeReferences)
		}
	}
	return res
}

func inferSQLDialect(text string) string {
	upper := strings.ToUpper(text)
	for _, fp := range dialectFingerprints {
		for _, kw := range fp.keywords {
			if strings.Contains(upper, kw) {
				return fp.dialect
			}
		}
	}
	return "Generic"
}
