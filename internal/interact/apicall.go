package interact

import (
	"path"
	"regexp"
	"strings"

	"github.com/joho/godotenv"

	"github.com/codemapper/codemap/internal/graph"
)

var (
	fetchCallRe   = regexp.MustCompile(`\bfetch\(\s*([^),]+)`)
	axiosVerbRe   = regexp.MustCompile(`\baxios\.(get|post|put|delete|patch)\(\s*([^),]+)`)
	axiosCreateRe = regexp.MustCompile(`(?:const|let|var)\s+(\w+)\s*=\s*axios\.create\(\s*\{[^}]*baseURL\s*:\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`)
	instVerbRe    = regexp.MustCompile(`\b(\w+)\.(get|post|put|delete|patch)\(\s*([^),]+)`)
	urlConstRe    = regexp.MustCompile(`(?:const|let|var)\s+(apiUrl|baseURL|BASE_URL|API_URL)\s*=\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]`)
	concatRe      = regexp.MustCompile(`^(\w+)\s*\+\s*['"` + "`" + `]([^'"` + "`" + `]+)['"` + "`" + `]$`)
	envTemplateRe = regexp.MustCompile(`\$\{process\.env\.(\w+)\}`)
	envBareRe     = regexp.MustCompile(`process\.env\.(\w+)`)
	fullURLRe     = regexp.MustCompile(`^https?://[^/]+`)

	colonParamRe = regexp.MustCompile(`:[A-Za-z_]\w*`)
	braceParamRe = regexp.MustCompile(`\{[A-Za-z_]\w*\}`)
)

// SynthesizeAPICalls links frontend call sites to backend routes for every
// configured API_CALL rule.
func (w *Workspace) SynthesizeAPICalls(rules []Rule) {
	if len(rules) == 0 {
		return
	}
	env, _ := godotenv.Read(path.Join(w.Root, ".env"))

	for _, rule := range rules {
		if rule.Type != "" && rule.Type != "API_CALL" {
			continue
		}
		routes := w.backendRoutes(rule.Backend.Path)
		if len(routes) == 0 {
			continue
		}
		for _, fn := range w.Nodes {
			if fn.Type != graph.NodeFunction && fn.Type != graph.NodeComponent {
				continue
			}
			if fn.CodeSnippet == "" || !w.underDir(fn, rule.Frontend.Path) {
				continue
			}
			for _, raw := range extractCallURLs(fn.CodeSnippet, env) {
				callPath := normalizeURLPath(raw)
				if callPath == "" {
					continue
				}
				if rule.Frontend.URLPrefix != "" {
					callPath = strings.TrimSuffix(rule.Frontend.URLPrefix, "/") + callPath
				}
				if route := matchRoute(routes, callPath); route != nil {
					w.AddEdge(fn.ID, route.ID, graph.EdgeAPICall)
				}
			}
		}
	}
}

// compiledRoute pairs an APIRoute node with its label converted to a regex
// (:name and {name} path parameters match one non-slash segment).
type compiledRoute struct {
	node *graph.Node
	re   *regexp.Regexp
}

func (w *Workspace) backendRoutes(backendPath string) []compiledRoute {
	var routes []compiledRoute
	for _, n := range w.nodesOfType(graph.NodeAPIRoute) {
		if !w.underDir(n, backendPath) {
			continue
		}
		if re := routeRegexp(n.Label); re != nil {
			routes = append(routes, compiledRoute{node: n, re: re})
		}
	}
	return routes
}

// routeRegexp converts a route label to an anchored matcher.
func routeRegexp(label string) *regexp.Regexp {
	pattern := regexp.QuoteMeta(strings.TrimSuffix(label, "/"))
	// QuoteMeta escapes { } but leaves : alone; undo before substitution.
	pattern = strings.ReplaceAll(pattern, `\{`, `{`)
	pattern = strings.ReplaceAll(pattern, `\}`, `}`)
	pattern = colonParamRe.ReplaceAllString(pattern, `[^/]+`)
	pattern = braceParamRe.ReplaceAllString(pattern, `[^/]+`)
	re, err := regexp.Compile("^" + pattern + "$")
	if err != nil {
		return nil
	}
	return re
}

// matchRoute returns the first route whose pattern matches. Routes are in
// merge order, so ties resolve identically across runs.
func matchRoute(routes []compiledRoute, callPath string) *graph.Node {
	for _, r := range routes {
		if r.re.MatchString(callPath) {
			return r.node
		}
	}
	return nil
}

// extractCallURLs pulls URL strings out of one function snippet: fetch and
// axios arguments, axios.create instances with a baseURL prefix, and local
// apiUrl/baseURL constants concatenated with literal suffixes.
func extractCallURLs(snippet string, env map[string]string) []string {
	bindings := map[string]string{}
	for _, m := range urlConstRe.FindAllStringSubmatch(snippet, -1) {
		bindings[m[1]] = substituteEnv(m[2], env)
	}
	instances := map[string]string{}
	for _, m := range axiosCreateRe.FindAllStringSubmatch(snippet, -1) {
		instances[m[1]] = substituteEnv(m[2], env)
	}

	var urls []string
	seen := map[string]bool{}
	add := func(u string) {
		if u != "" && !seen[u] {
			seen[u] = true
			urls = append(urls, u)
		}
	}

	for _, m := range fetchCallRe.FindAllStringSubmatch(snippet, -1) {
		add(evalURLArg(m[1], bindings, env))
	}
	for _, m := range axiosVerbRe.FindAllStringSubmatch(snippet, -1) {
		add(evalURLArg(m[2], bindings, env))
	}
	for _, m := range instVerbRe.FindAllStringSubmatch(snippet, -1) {
		prefix, ok := instances[m[1]]
		if !ok {
			continue
		}
		if arg := evalURLArg(m[3], bindings, env); arg != "" {
			add(strings.TrimSuffix(prefix, "/") + arg)
		}
	}
	return urls
}

// evalURLArg resolves one call argument to a URL string: a bare string or
// template literal, a known identifier, or `ident + 'literal'` where the
// identifier has a known value.
func evalURLArg(arg string, bindings, env map[string]string) string {
	arg = strings.TrimSpace(arg)

	if len(arg) >= 2 {
		first := arg[0]
		if first == '\'' || first == '"' || first == '`' {
			if arg[len(arg)-1] == first {
				return substituteEnv(arg[1:len(arg)-1], env)
			}
			return ""
		}
	}

	if m := concatRe.FindStringSubmatch(arg); m != nil {
		base, ok := bindings[m[1]]
		if !ok || base == "" {
			return ""
		}
		return strings.TrimSuffix(base, "/") + ensureLeadingSlash(m[2])
	}

	if v, ok := bindings[arg]; ok {
		return v
	}
	return ""
}

// substituteEnv replaces ${process.env.NAME} and process.env.NAME with
// values from the repository-root .env.
func substituteEnv(s string, env map[string]string) string {
	s = envTemplateRe.ReplaceAllStringFunc(s, func(m string) string {
		name := envTemplateRe.FindStringSubmatch(m)[1]
		return env[name]
	})
	s = envBareRe.ReplaceAllStringFunc(s, func(m string) string {
		name := envBareRe.FindStringSubmatch(m)[1]
		return env[name]
	})
	return s
}

func ensureLeadingSlash(s string) string {
	if strings.HasPrefix(s, "/") {
		return s
	}
	return "/" + s
}

// normalizeURLPath reduces a URL to its path component with no trailing
// slash.
func normalizeURLPath(u string) string {
	u = fullURLRe.ReplaceAllString(u, "")
	if u == "" {
		return ""
	}
	if !strings.HasPrefix(u, "/") {
		u = "/" + u
	}
	if idx := strings.IndexAny(u, "?#"); idx >= 0 {
		u = u[:idx]
	}
	for len(u) > 1 && strings.HasSuffix(u, "/") {
		u = strings.TrimSuffix(u, "/")
	}
	return u
}
