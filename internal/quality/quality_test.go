package quality

import (
	"strings"
	"testing"

	"github.com/codemapper/codemap/internal/graph"
)

func mapWith(nodes ...*graph.Node) *graph.CodeMap {
	return &graph.CodeMap{Nodes: nodes}
}

func fn(id, label, filePath, snippet string) *graph.Node {
	return &graph.Node{ID: id, Type: graph.NodeFunction, Label: label, FilePath: filePath, CodeSnippet: snippet}
}

func TestBalancedBlockStringAware(t *testing.T) {
	s := `{ const msg = "don't } stop"; run(); }`
	body := balancedBlock(s, 0, '{', '}')
	if !strings.Contains(body, "run()") {
		t.Fatalf("body = %q", body)
	}
	if strings.HasSuffix(strings.TrimSpace(body), "stop\";") {
		t.Fatal("brace inside string terminated the block early")
	}
}

func TestBalancedBlockEscapes(t *testing.T) {
	s := `{ const s = "a\"}b"; done(); }`
	body := balancedBlock(s, 0, '{', '}')
	if !strings.Contains(body, "done()") {
		t.Fatalf("escaped quote broke scanning: %q", body)
	}
}

func TestBalancedBlockUnclosed(t *testing.T) {
	s := `{ if (x) { y(`
	body := balancedBlock(s, 0, '{', '}')
	if body == "" {
		t.Fatal("malformed input should return the remainder, not loop or panic")
	}
}

func TestNPlusOneScenario(t *testing.T) {
	// A loop with a Find and no eager loading is both a DB-in-loop and an
	// N+1 issue.
	snippet := `function load(us) { for(const u of us){ db.users.Find(u.id) } }`
	m := mapWith(fn("f", "load", "/repo/LoadUsersService.cs", snippet))

	stats := Analyze(m)

	if stats.DBQueriesInLoops.Count != 1 {
		t.Fatalf("dbQueriesInLoops.count = %d", stats.DBQueriesInLoops.Count)
	}
	if stats.NPlusOneQueries.Count != 1 {
		t.Fatalf("nPlusOneQueries.count = %d", stats.NPlusOneQueries.Count)
	}
	if stats.NPlusOneQueries.Issues[0].FunctionName != "load" {
		t.Fatalf("functionName = %q", stats.NPlusOneQueries.Issues[0].FunctionName)
	}
}

func TestNPlusOneEagerLoadingClears(t *testing.T) {
	snippet := `for(const u of us){ ctx.Users.Include(x => x.Orders).Where(p) }`
	m := mapWith(fn("f", "load", "/repo/svc.cs", snippet))
	stats := Analyze(m)
	if stats.NPlusOneQueries.Count != 0 {
		t.Fatal("eager-loaded loop must not count as N+1")
	}
}

func TestForEachCountsForNPlusOneOnly(t *testing.T) {
	snippet := `users.forEach(u => repo.findOne(u.id))`
	m := mapWith(fn("f", "sync", "/repo/svc.ts", snippet))
	stats := Analyze(m)
	if stats.NPlusOneQueries.Count != 1 {
		t.Fatalf("forEach N+1 count = %d", stats.NPlusOneQueries.Count)
	}
	if stats.DBQueriesInLoops.Count != 0 {
		t.Fatal("forEach is not part of the db-in-loops loop set")
	}
}

func TestLoopDedupBySite(t *testing.T) {
	snippet := `for(i=0;i<n;i++){ SELECT 1 }`
	// Same (filePath, label, loopStart) twice: the second node is a
	// duplicate view of the same function.
	m := mapWith(
		fn("a", "load", "/repo/svc.go", snippet),
		fn("b", "load", "/repo/svc.go", snippet),
	)
	stats := Analyze(m)
	if stats.DBQueriesInLoops.Count != 1 {
		t.Fatalf("duplicate sites must collapse, got %d", stats.DBQueriesInLoops.Count)
	}
}

func TestBlockingAsync(t *testing.T) {
	m := mapWith(
		fn("a", "Fetch", "/repo/OrderService.cs", "var x = client.GetAsync(url).Result;"),
		fn("b", "Check", "/repo/OrderService.cs", "if (task.Result == null) return;"),
		fn("c", "Wait", "/repo/OrderService.cs", "task.Wait()"),
		fn("d", "Test", "/repo/tests/OrderServiceTest.cs", "task.Wait()"),
		fn("e", "Free", "/repo/util.cs", "task.Wait()"),
	)
	stats := Analyze(m)

	types := map[string]int{}
	for _, i := range stats.BlockingAsync.Issues {
		types[i.FunctionName]++
	}
	if types["Fetch"] != 1 {
		t.Fatal(".Result should flag")
	}
	if types["Check"] != 0 {
		t.Fatal(".Result followed by equality must not flag")
	}
	if types["Wait"] != 1 {
		t.Fatal(".Wait() should flag")
	}
	if types["Test"] != 0 {
		t.Fatal("test fixtures are excluded")
	}
	if types["Free"] != 0 {
		t.Fatal("outside Service/Controller scope must not flag")
	}
}

func TestTechnicalDebtClassification(t *testing.T) {
	snippet := strings.Join([]string{
		"func work() {",
		"  // TODO: remove once the importer is fixed",
		"  // FIXME broken on empty input",
		"  // this is a hack around the cache",
		"  // temporarily removed until v2",
		`  log("TODO in string, not a comment")`,
		"}",
	}, "\n")
	m := mapWith(fn("a", "work", "/repo/BillingService.go", snippet))
	stats := Analyze(m)

	if stats.TechnicalDebt.Todos != 1 || stats.TechnicalDebt.Fixmes != 1 ||
		stats.TechnicalDebt.Hacks != 1 || stats.TechnicalDebt.TempRemovals != 1 {
		t.Fatalf("sub-counts = %+v", stats.TechnicalDebt)
	}
	if stats.TechnicalDebt.Count != 4 {
		t.Fatalf("count = %d (string literal TODO must not count)", stats.TechnicalDebt.Count)
	}
}

func TestCodeSmellTryWithoutCatch(t *testing.T) {
	m := mapWith(fn("a", "run", "/repo/JobService.cs", "try { risky(); } finally { cleanup(); }"))
	stats := Analyze(m)
	found := false
	for _, i := range stats.CodeSmells.Issues {
		if i.IssueType == "try_without_catch" {
			found = true
		}
	}
	if !found {
		t.Fatal("try without catch not reported")
	}
}

func TestCodeSmellLongMethod(t *testing.T) {
	snippet := strings.Repeat("x++\n", 90)
	m := mapWith(fn("a", "big", "/repo/ReportService.go", snippet))
	stats := Analyze(m)
	found := false
	for _, i := range stats.CodeSmells.Issues {
		if i.IssueType == "long_method" {
			found = true
		}
	}
	if !found {
		t.Fatal("method over 80 lines not reported")
	}
}

func TestMagicNumbersExclusions(t *testing.T) {
	// Status codes and years are excluded; six large literals cross the
	// threshold.
	snippet := "a(404); b(200); c(2024); d(9999); e(8888); f(7777); g(6666); h(5555); i(4444)"
	m := mapWith(fn("a", "calc", "/repo/MathService.go", snippet))
	stats := Analyze(m)
	found := false
	for _, i := range stats.CodeSmells.Issues {
		if i.IssueType == "magic_values" {
			found = true
		}
	}
	if !found {
		t.Fatal("magic number overuse not reported")
	}
}

func TestDeadCodeUnusedController(t *testing.T) {
	route := &graph.Node{ID: "r", Type: graph.NodeAPIRoute, Label: "/orphan", FilePath: "/repo/s.js"}
	called := &graph.Node{ID: "c", Type: graph.NodeAPIRoute, Label: "/used", FilePath: "/repo/s.js"}
	m := &graph.CodeMap{
		Nodes: []*graph.Node{route, called},
		Edges: []*graph.Edge{{SourceID: "fn", TargetID: "c", Type: graph.EdgeAPICall}},
	}
	stats := Analyze(m)
	if stats.DeadCode.UnusedControllers != 1 {
		t.Fatalf("unusedControllers = %d", stats.DeadCode.UnusedControllers)
	}
}

func TestDeadCodeBackupFiles(t *testing.T) {
	m := mapWith(&graph.Node{ID: "f", Type: graph.NodeFile, Label: "old", FilePath: "/repo/service.go.bak"})
	stats := Analyze(m)
	if stats.DeadCode.BackupFiles != 1 {
		t.Fatalf("backupFiles = %d", stats.DeadCode.BackupFiles)
	}
}

func TestDeadCodeCommentedBlock(t *testing.T) {
	snippet := "/*\n1\n2\n3\n4\n5\n6\n*/\nfunc x() {}"
	m := mapWith(fn("a", "x", "/repo/util.go", snippet))
	stats := Analyze(m)
	if stats.DeadCode.CommentedBlocks != 1 {
		t.Fatalf("commentedBlocks = %d", stats.DeadCode.CommentedBlocks)
	}
}

func TestAnomalies(t *testing.T) {
	snippet := strings.Join([]string{
		"async Task Save() {",
		"  _db.SaveChangesAsync();",
		"  Task.Run(() => Cleanup());",
		"}",
	}, "\n")
	m := mapWith(fn("a", "Save", "/repo/OrderService.cs", snippet))
	stats := Analyze(m)

	types := map[string]bool{}
	for _, i := range stats.Anomalies.Issues {
		types[i.IssueType] = true
	}
	if !types["unawaited_save_changes"] {
		t.Fatal("unawaited SaveChangesAsync not flagged")
	}
	if !types["fire_and_forget"] {
		t.Fatal("fire-and-forget Task.Run not flagged")
	}
}

func TestRepeatedCode(t *testing.T) {
	m := mapWith(
		fn("a", "f1", "/repo/a.cs", "ValidateOrder(order)\nValidateOrder(order)"),
		fn("b", "f2", "/repo/b.cs", "ValidateOrder(order)"),
	)
	stats := Analyze(m)
	found := false
	for _, i := range stats.RepeatedCode.Issues {
		if i.IssueType == "validation_calls" {
			found = true
		}
	}
	if !found {
		t.Fatal("repeated validation call not reported")
	}
}
