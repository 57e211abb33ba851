package strategy

import (
	"path/filepath"
	"regexp"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codemapper/codemap/internal/graph"
	"github.com/codemapper/codemap/internal/lang"
	"github.com/codemapper/codemap/internal/parser"
)

var (
	reactImportRe = regexp.MustCompile(`from\s+['"](react|@react[^'"]*|react-[^'"]*)['"]`)
	hookNameRe    = regexp.MustCompile(`^use[A-Z]`)
	jsxEvidenceRe = regexp.MustCompile(`return\s*<|jsx|createElement`)

	expressRouteRe = regexp.MustCompile(`\b(?:app|router)\.(get|post|put|delete|patch|all)\(\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`)

	nestControllerRe = regexp.MustCompile(`@Controller\(\s*['"]([^'"]*)['"]`)
	nestBareCtrlRe   = regexp.MustCompile(`@Controller\(\s*\)`)
	nestVerbRe       = regexp.MustCompile(`@(Get|Post|Put|Delete|Patch)\(\s*(?:['"]([^'"]*)['"])?\s*\)`)

	nextHandlerRe = regexp.MustCompile(`export\s+(?:async\s+)?function\s+(GET|POST|PUT|DELETE|PATCH|HEAD|OPTIONS)\b|export\s+const\s+(GET|POST|PUT|DELETE|PATCH|HEAD|OPTIONS)\s*=`)

	requireRe = regexp.MustCompile(`require\(\s*['"]([^'"]+)['"]\s*\)`)
)

// AnalyzeTypeScript extracts TypeScript/JavaScript/TSX declarations, React
// components, hooks, Express/NestJS/Next.js routes, imports, exports and
// call sites.
func AnalyzeTypeScript(in *Input) *Result {
	res := newResult(in)
	text := rootText(in)

	reactFlavoured := lang.IsTSX(in.Path) || reactImportRe.MatchString(text)

	if in.Tree != nil {
		extractTSDeclarations(in, res, reactFlavoured)
		extractTSImports(in, res)
		extractTSCalls(in, res)
	}

	extractExpressRoutes(in, res, text)
	extractNestRoutes(in, res, text)
	extractNextRoutes(in, res, text)

	return res
}

// extractTSDeclarations walks the AST for functions, arrow functions and
// classes, classifying React components along the way.
func extractTSDeclarations(in *Input, res *Result, reactFlavoured bool) {
	root := in.Tree.RootNode()

	parser.Walk(root, func(node *tree_sitter.Node) bool {
		switch node.Kind() {
		case "function_declaration", "generator_function_declaration":
			name := nodeName(node, in.Source)
			if name != "" {
				addTSFunction(in, res, node, name, reactFlavoured)
			}
			return false
		case "arrow_function", "function_expression":
			name := tsAssignedName(node, in.Source)
			if name != "" {
				addTSFunction(in, res, node, name, reactFlavoured)
			}
			return false
		case "class_declaration":
			name := nodeName(node, in.Source)
			if name == "" {
				return false
			}
			n := res.addNode(&graph.Node{
				ID:          graph.NodeID("class", name, in.Path),
				Type:        graph.NodeClass,
				Label:       name,
				FilePath:    graph.NormalizePath(in.Path),
				Language:    string(in.Language),
				CodeSnippet: declSnippet(node, in),
			})
			recordTSExport(res, node, name, n.ID)
			return false
		}
		return true
	})
}

// tsAssignedName resolves `const X = () => {}` / `const X = function(){}`
// by reading the parent variable_declarator's name.
func tsAssignedName(node *tree_sitter.Node, source []byte) string {
	p := node.Parent()
	if p == nil || p.Kind() != "variable_declarator" {
		return ""
	}
	return nodeName(p, source)
}

func addTSFunction(in *Input, res *Result, node *tree_sitter.Node, name string, reactFlavoured bool) {
	snippet := declSnippet(node, in)

	nodeType := graph.NodeFunction
	kind := "function"
	if reactFlavoured && isUpperFirst(name) && jsxEvidenceRe.MatchString(snippet) {
		nodeType = graph.NodeComponent
		kind = "component"
	}

	n := res.addNode(&graph.Node{
		ID:          graph.NodeID(kind, name, in.Path),
		Type:        nodeType,
		Label:       name,
		FilePath:    graph.NormalizePath(in.Path),
		Language:    string(in.Language),
		CodeSnippet: snippet,
	})
	if hookNameRe.MatchString(name) {
		n.SetMeta("hook", true)
	}
	recordTSExport(res, node, name, n.ID)
}

// recordTSExport adds name → id to the export map when the declaration (or
// its variable statement) sits under an export_statement.
func recordTSExport(res *Result, node *tree_sitter.Node, name, id string) {
	cur := node
	for depth := 0; cur != nil && depth < 4; depth++ {
		if cur.Kind() == "export_statement" {
			res.Exports[name] = id
			return
		}
		cur = cur.Parent()
	}
}

// extractTSImports emits IMPORTS edges for import statements and require().
func extractTSImports(in *Input, res *Result) {
	root := in.Tree.RootNode()
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		if node.Kind() != "import_statement" {
			return true
		}
		if src := node.ChildByFieldName("source"); src != nil {
			res.addImport(stripQuotes(parser.NodeText(src, in.Source)))
		}
		return false
	})
	for _, m := range requireRe.FindAllStringSubmatch(rootText(in), -1) {
		res.addImport(m[1])
	}
}

// extractTSCalls collects best-effort call-site names for the CALLS pass.
func extractTSCalls(in *Input, res *Result) {
	root := in.Tree.RootNode()
	fileID := res.fileID()
	parser.Walk(root, func(node *tree_sitter.Node) bool {
		if node.Kind() != "call_expression" {
			return true
		}
		fn := node.ChildByFieldName("function")
		if fn == nil {
			return true
		}
		switch fn.Kind() {
		case "identifier":
			res.Calls = append(res.Calls, graph.CallSite{
				CallerID:   fileID,
				Raw:        parser.NodeText(fn, in.Source),
				CallerFile: graph.NormalizePath(in.Path),
			})
		case "member_expression":
			obj := fn.ChildByFieldName("object")
			prop := fn.ChildByFieldName("property")
			if prop != nil {
				cs := graph.CallSite{
					CallerID:   fileID,
					Raw:        parser.NodeText(prop, in.Source),
					CallerFile: graph.NormalizePath(in.Path),
				}
				if obj != nil && obj.Kind() == "identifier" {
					cs.Qualifier = parser.NodeText(obj, in.Source)
				}
				res.Calls = append(res.Calls, cs)
			}
		}
		return true
	})
}

// extractExpressRoutes finds app.VERB / router.VERB registrations.
func extractExpressRoutes(in *Input, res *Result, text string) {
	for _, m := range expressRouteRe.FindAllStringSubmatch(text, -1) {
		method := strings.ToUpper(m[1])
		if method == "ALL" {
			method = ""
		}
		n := routeNode(in, m[2], "Express", method)
		res.addNode(n)
		res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
	}
}

// extractNestRoutes joins @Controller(base) with each @Verb(sub).
func extractNestRoutes(in *Input, res *Result, text string) {
	base := ""
	if m := nestControllerRe.FindStringSubmatch(text); m != nil {
		base = m[1]
	} else if !nestBareCtrlRe.MatchString(text) {
		return
	}
	if base != "" && !strings.HasPrefix(base, "/") {
		base = "/" + base
	}
	for _, m := range nestVerbRe.FindAllStringSubmatch(text, -1) {
		label := joinRoute(base, m[2])
		n := routeNode(in, label, "NestJS", m[1])
		res.addNode(n)
		res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
	}
}

// extractNextRoutes handles pages/api/* files and App Router route files.
func extractNextRoutes(in *Input, res *Result, text string) {
	norm := graph.NormalizePath(in.Path)

	// Pages Router: pages/api/users.ts → /api/users
	if idx := strings.Index(norm, "pages/api/"); idx >= 0 {
		rest := norm[idx+len("pages/api/"):]
		rest = strings.TrimSuffix(rest, filepath.Ext(rest))
		rest = strings.TrimSuffix(rest, "/index")
		label := "/api/" + rest
		n := routeNode(in, label, "Next.js", "")
		res.addNode(n)
		res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
		return
	}

	// App Router: app/api/users/route.ts → /users, one node per exported
	// HTTP method handler.
	idx := strings.Index(norm, "app/api/")
	if idx < 0 {
		return
	}
	base := filepath.Base(norm)
	if !strings.HasPrefix(base, "route.") {
		return
	}
	rest := norm[idx+len("app/api/"):]
	rest = strings.TrimSuffix(rest, "/"+base)
	label := "/" + strings.TrimSuffix(rest, "/")
	if rest == base || rest == "" {
		label = "/"
	}
	for _, m := range nextHandlerRe.FindAllStringSubmatch(text, -1) {
		method := m[1]
		if method == "" {
			method = m[2]
		}
		n := routeNode(in, label, "Next.js", method)
		res.addNode(n)
		res.addEdge(res.fileID(), n.ID, graph.EdgeReferences)
	}
}
