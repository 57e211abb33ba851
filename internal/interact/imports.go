package interact

import (
	"bufio"
	"encoding/json"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/codemapper/codemap/internal/graph"
	"github.com/codemapper/codemap/internal/lang"
)

// ResolveImports rewrites IMPORTS edge targets from raw specifiers to File
// node ids. Unresolvable specifiers are left as-is.
func (w *Workspace) ResolveImports() {
	aliases := w.loadTSConfigAliases()
	gomod := w.loadGoModule()

	for _, e := range w.Edges {
		if e.Type != graph.EdgeImports {
			continue
		}
		src := w.byID[e.SourceID]
		if src == nil || src.Type != graph.NodeFile {
			continue
		}
		if _, isNode := w.byID[e.TargetID]; isNode {
			continue // already resolved
		}

		var target *graph.Node
		switch lang.Language(src.Language) {
		case lang.TypeScript, lang.JavaScript:
			target = w.resolveTSImport(src, e.TargetID, aliases)
		case lang.Python:
			target = w.resolvePythonImport(src, e.TargetID)
		case lang.Java:
			target = w.resolveJavaImport(e.TargetID)
		case lang.Go:
			target = w.resolveGoImport(e.TargetID, gomod)
		default:
			target = w.resolveRelativeImport(src, e.TargetID)
		}
		if target != nil {
			e.TargetID = target.ID
		}
	}
}

// --- TypeScript / JavaScript ---

type tsAlias struct {
	pattern string   // may contain one *
	targets []string // first target wins
}

// loadTSConfigAliases reads compilerOptions.paths from tsconfig.json or
// tsconfig.base.json at the project root.
func (w *Workspace) loadTSConfigAliases() []tsAlias {
	for _, name := range []string{"tsconfig.json", "tsconfig.base.json"} {
		data, err := os.ReadFile(path.Join(w.Root, name))
		if err != nil {
			continue
		}
		var cfg struct {
			CompilerOptions struct {
				BaseURL string              `json:"baseUrl"`
				Paths   map[string][]string `json:"paths"`
			} `json:"compilerOptions"`
		}
		if err := json.Unmarshal(stripJSONComments(data), &cfg); err != nil {
			continue
		}
		if len(cfg.CompilerOptions.Paths) == 0 {
			continue
		}
		base := cfg.CompilerOptions.BaseURL
		patterns := make([]string, 0, len(cfg.CompilerOptions.Paths))
		for p := range cfg.CompilerOptions.Paths {
			patterns = append(patterns, p)
		}
		sort.Strings(patterns)
		aliases := make([]tsAlias, 0, len(patterns))
		for _, p := range patterns {
			targets := cfg.CompilerOptions.Paths[p]
			for i, t := range targets {
				targets[i] = path.Join(base, t)
			}
			aliases = append(aliases, tsAlias{pattern: p, targets: targets})
		}
		return aliases
	}
	return nil
}

// stripJSONComments removes // line comments, which tsconfig files allow.
func stripJSONComments(data []byte) []byte {
	var out []byte
	sc := bufio.NewScanner(strings.NewReader(string(data)))
	for sc.Scan() {
		line := sc.Text()
		if idx := strings.Index(line, "//"); idx >= 0 && !strings.Contains(line[:idx], `"`) {
			line = line[:idx]
		}
		out = append(out, line...)
		out = append(out, '\n')
	}
	return out
}

var tsExtensions = []string{"", ".ts", ".tsx", ".js", ".jsx", "/index.ts", "/index.tsx", "/index.js", "/index.jsx"}

func (w *Workspace) resolveTSImport(src *graph.Node, specifier string, aliases []tsAlias) *graph.Node {
	// Path alias substitution: first matching pattern, first target.
	for _, a := range aliases {
		if star := strings.Index(a.pattern, "*"); star >= 0 {
			prefix := a.pattern[:star]
			if strings.HasPrefix(specifier, prefix) {
				rest := specifier[len(prefix):]
				target := strings.Replace(a.targets[0], "*", rest, 1)
				if n := w.lookupWithExtensions(path.Join(w.Root, target)); n != nil {
					return n
				}
			}
			continue
		}
		if specifier == a.pattern && len(a.targets) > 0 {
			if n := w.lookupWithExtensions(path.Join(w.Root, a.targets[0])); n != nil {
				return n
			}
		}
	}

	if strings.HasPrefix(specifier, ".") {
		dir := path.Dir(src.FilePath)
		return w.lookupWithExtensions(path.Join(dir, specifier))
	}
	return nil
}

func (w *Workspace) lookupWithExtensions(base string) *graph.Node {
	for _, ext := range tsExtensions {
		if n := w.fileByPath[base+ext]; n != nil {
			return n
		}
	}
	return nil
}

// --- Python ---

// resolvePythonImport maps a dotted module to a file under the project root
// or the importing file's directory, then to virtual environments.
func (w *Workspace) resolvePythonImport(src *graph.Node, specifier string) *graph.Node {
	dotted := strings.TrimLeft(specifier, ".")
	rel := strings.ReplaceAll(dotted, ".", "/")
	candidates := []string{rel + ".py", rel + "/__init__.py"}

	bases := []string{w.Root, path.Dir(src.FilePath)}
	for _, base := range bases {
		for _, c := range candidates {
			if n := w.fileByPath[path.Join(base, c)]; n != nil {
				return n
			}
		}
	}
	return w.resolveVenvImport(candidates)
}

// resolveVenvImport scans virtual environments for a site-packages match.
// Matches become File nodes on first use (venv trees are outside discovery).
func (w *Workspace) resolveVenvImport(candidates []string) *graph.Node {
	var venvs []string
	for _, name := range []string{".venv", "venv", "env"} {
		venvs = append(venvs, path.Join(w.Root, name))
	}
	if v := os.Getenv("VIRTUAL_ENV"); v != "" {
		venvs = append(venvs, graph.NormalizePath(v))
	}

	for _, venv := range venvs {
		for _, sp := range sitePackagesDirs(venv) {
			for _, c := range candidates {
				full := path.Join(sp, c)
				if _, err := os.Stat(full); err != nil {
					continue
				}
				if n := w.fileByPath[full]; n != nil {
					return n
				}
				return w.AddNode(&graph.Node{
					ID:       graph.NodeID("file", path.Base(full), full),
					Type:     graph.NodeFile,
					Label:    path.Base(full),
					FilePath: full,
					Language: string(lang.Python),
				})
			}
		}
	}
	return nil
}

// sitePackagesDirs lists the site-packages directories of one venv.
func sitePackagesDirs(venv string) []string {
	var dirs []string
	libDir := path.Join(venv, "lib")
	if entries, err := os.ReadDir(libDir); err == nil {
		for _, e := range entries {
			if e.IsDir() && strings.HasPrefix(e.Name(), "python") {
				dirs = append(dirs, path.Join(libDir, e.Name(), "site-packages"))
			}
		}
	}
	dirs = append(dirs, path.Join(venv, "Lib", "site-packages"))
	return dirs
}

// --- Java ---

// resolveJavaImport maps a dotted FQN to a .java file under a source root.
func (w *Workspace) resolveJavaImport(specifier string) *graph.Node {
	rel := strings.ReplaceAll(specifier, ".", "/") + ".java"

	paths := make([]string, 0, len(w.fileByPath))
	for p := range w.fileByPath {
		if strings.HasSuffix(p, ".java") {
			paths = append(paths, p)
		}
	}
	sort.Strings(paths)
	for _, p := range paths {
		if strings.HasSuffix(p, "/"+rel) || p == path.Join(w.Root, rel) {
			return w.fileByPath[p]
		}
	}
	return nil
}

// --- Go ---

type goModule struct {
	module   string
	replaces map[string]string // module path → local dir
}

// loadGoModule parses go.mod for the module declaration and replace map.
func (w *Workspace) loadGoModule() *goModule {
	f, err := os.Open(path.Join(w.Root, "go.mod"))
	if err != nil {
		return nil
	}
	defer f.Close()

	gm := &goModule{replaces: map[string]string{}}
	inReplaceBlock := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		switch {
		case strings.HasPrefix(line, "module "):
			gm.module = strings.TrimSpace(strings.TrimPrefix(line, "module "))
		case strings.HasPrefix(line, "replace ("):
			inReplaceBlock = true
		case inReplaceBlock && line == ")":
			inReplaceBlock = false
		case strings.HasPrefix(line, "replace ") || inReplaceBlock:
			entry := strings.TrimPrefix(line, "replace ")
			parts := strings.SplitN(entry, "=>", 2)
			if len(parts) != 2 {
				continue
			}
			from := strings.Fields(strings.TrimSpace(parts[0]))
			to := strings.Fields(strings.TrimSpace(parts[1]))
			if len(from) >= 1 && len(to) >= 1 && (strings.HasPrefix(to[0], ".") || strings.HasPrefix(to[0], "/")) {
				gm.replaces[from[0]] = to[0]
			}
		}
	}
	if gm.module == "" {
		return nil
	}
	return gm
}

// resolveGoImport maps an import path to the first .go file (alphabetically)
// of the target package directory.
func (w *Workspace) resolveGoImport(specifier string, gm *goModule) *graph.Node {
	if gm == nil {
		return nil
	}

	mods := make([]string, 0, len(gm.replaces))
	for mod := range gm.replaces {
		mods = append(mods, mod)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(mods))) // longest prefix wins

	var dir string
	for _, mod := range mods {
		if specifier == mod || strings.HasPrefix(specifier, mod+"/") {
			rest := strings.TrimPrefix(strings.TrimPrefix(specifier, mod), "/")
			dir = path.Join(w.Root, gm.replaces[mod], rest)
			break
		}
	}
	if dir == "" {
		if specifier == gm.module {
			dir = w.Root
		} else if strings.HasPrefix(specifier, gm.module+"/") {
			dir = path.Join(w.Root, strings.TrimPrefix(specifier, gm.module+"/"))
		}
	}
	if dir == "" {
		return nil
	}

	var goFiles []string
	for p := range w.fileByPath {
		if path.Dir(p) == dir && strings.HasSuffix(p, ".go") {
			goFiles = append(goFiles, p)
		}
	}
	if len(goFiles) == 0 {
		return nil
	}
	sort.Strings(goFiles)
	return w.fileByPath[goFiles[0]]
}

// --- generic relative (CSS @import, HTML refs) ---

func (w *Workspace) resolveRelativeImport(src *graph.Node, specifier string) *graph.Node {
	if !strings.HasPrefix(specifier, ".") && !strings.HasPrefix(specifier, "/") {
		return nil
	}
	dir := path.Dir(src.FilePath)
	if n := w.fileByPath[path.Join(dir, specifier)]; n != nil {
		return n
	}
	return nil
}
