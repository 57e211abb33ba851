package interact

import (
	"regexp"

	"github.com/codemapper/codemap/internal/graph"
)

var sqlVerbRe = regexp.MustCompile(`(?i)\bSELECT\b|\bINSERT\s+INTO\b|\bUPDATE\s+\w+\s+SET\b|\bDELETE\s+FROM\b`)

// LinkDatabase emits a DB_QUERY edge to the shared generic Database node for
// every Function whose snippet contains a raw SQL verb.
func (w *Workspace) LinkDatabase() {
	for _, n := range w.nodesOfType(graph.NodeFunction) {
		if n.CodeSnippet == "" || !sqlVerbRe.MatchString(n.CodeSnippet) {
			continue
		}
		db := w.ensureSynthetic(graph.GenericDatabaseID, graph.NodeDatabase, "Database")
		w.AddEdge(n.ID, db.ID, graph.EdgeDBQuery)
	}
}

var (
	prismaOpRe      = regexp.MustCompile(`\bprisma\.(\w+)\.(\w+)\(`)
	sequelizeDefRe  = regexp.MustCompile(`\bdefine\(\s*['"](\w+)['"]`)
	sqlalchemyTblRe = regexp.MustCompile(`__tablename__\s*=\s*['"](\w+)['"]`)

	prismaReadOps  = regexp.MustCompile(`^(find|select|aggregate|count|groupBy)`)
	prismaWriteOps = regexp.MustCompile(`^(create|update|upsert|delete)`)
)

// LinkORM scans every node snippet for ORM table usage: Prisma operations
// become READS_FROM / WRITES_TO / REFERENCES edges, Sequelize define() and
// SQLAlchemy __tablename__ create table nodes.
func (w *Workspace) LinkORM() {
	for _, n := range w.Nodes {
		if n.CodeSnippet == "" {
			continue
		}
		for _, m := range prismaOpRe.FindAllStringSubmatch(n.CodeSnippet, -1) {
			table, op := m[1], m[2]
			t := w.ensureTable(table)
			switch {
			case prismaReadOps.MatchString(op):
				w.AddEdge(n.ID, t.ID, graph.EdgeReadsFrom)
			case prismaWriteOps.MatchString(op):
				w.AddEdge(n.ID, t.ID, graph.EdgeWritesTo)
			default:
				w.AddEdge(n.ID, t.ID, graph.EdgeReferences)
			}
		}
		for _, m := range sequelizeDefRe.FindAllStringSubmatch(n.CodeSnippet, -1) {
			w.ensureTable(m[1])
		}
		for _, m := range sqlalchemyTblRe.FindAllStringSubmatch(n.CodeSnippet, -1) {
			w.ensureTable(m[1])
		}
	}
	w.resolveSQLTableRefs()
}

func (w *Workspace) ensureTable(name string) *graph.Node {
	return w.ensureSynthetic(graph.TableNodeID(name), graph.NodeDatabase, name)
}

// resolveSQLTableRefs rewrites the foreign-key REFERENCES edges emitted by
// the SQL strategy (File → raw table name) to table nodes.
func (w *Workspace) resolveSQLTableRefs() {
	for _, e := range w.Edges {
		if e.Type != graph.EdgeReferences {
			continue
		}
		if _, isNode := w.byID[e.TargetID]; isNode {
			continue
		}
		src := w.byID[e.SourceID]
		if src == nil || src.Type != graph.NodeFile || src.Language != "SQL" {
			continue
		}
		e.TargetID = w.ensureTable(e.TargetID).ID
	}
}
