// Package parser maps file paths to tree-sitter grammars and parses source
// into syntax trees. Languages without a grammar (Proto, GraphQL, JSON and
// unknown extensions) run in fallback mode: the caller analyzes raw text.
package parser

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"unsafe"

	lru "github.com/hashicorp/golang-lru/v2"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	tree_sitter_c_sharp "github.com/tree-sitter/tree-sitter-c-sharp/bindings/go"
	tree_sitter_cpp "github.com/tree-sitter/tree-sitter-cpp/bindings/go"
	tree_sitter_css "github.com/tree-sitter/tree-sitter-css/bindings/go"
	tree_sitter_go "github.com/tree-sitter/tree-sitter-go/bindings/go"
	tree_sitter_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	tree_sitter_java "github.com/tree-sitter/tree-sitter-java/bindings/go"
	tree_sitter_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	tree_sitter_php "github.com/tree-sitter/tree-sitter-php/bindings/go"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
	tree_sitter_ruby "github.com/tree-sitter/tree-sitter-ruby/bindings/go"
	tree_sitter_rust "github.com/tree-sitter/tree-sitter-rust/bindings/go"
	tree_sitter_scala "github.com/tree-sitter/tree-sitter-scala/bindings/go"
	tree_sitter_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"

	tree_sitter_hcl "github.com/tree-sitter-grammars/tree-sitter-hcl/bindings/go"
	tree_sitter_kotlin "github.com/tree-sitter-grammars/tree-sitter-kotlin/bindings/go"
	tree_sitter_lua "github.com/tree-sitter-grammars/tree-sitter-lua/bindings/go"
	tree_sitter_yaml "github.com/tree-sitter-grammars/tree-sitter-yaml/bindings/go"

	tree_sitter_sql "github.com/DerekStride/tree-sitter-sql/bindings/go"
	tree_sitter_dart "github.com/UserNobody14/tree-sitter-dart/bindings/go"
	tree_sitter_swift "github.com/alex-pinkus/tree-sitter-swift/bindings/go"
	tree_sitter_bash "github.com/tree-sitter/tree-sitter-bash/bindings/go"

	tree_sitter_dockerfile "github.com/camdencheek/tree-sitter-dockerfile/bindings/go"

	"github.com/codemapper/codemap/internal/lang"
)

// Handle pairs a language tag with its tree-sitter grammar. TS is nil for
// languages analyzed by regex only.
type Handle struct {
	Language lang.Language
	TS       *tree_sitter.Language
}

// grammarFns maps a grammar key (extension, or "Dockerfile") to its binding.
// TS and TSX use distinct grammars under the same TypeScript language tag.
var grammarFns = map[string]func() unsafe.Pointer{
	".ts":         tree_sitter_typescript.LanguageTypescript,
	".tsx":        tree_sitter_typescript.LanguageTSX,
	".js":         tree_sitter_javascript.Language,
	".jsx":        tree_sitter_javascript.Language,
	".py":         tree_sitter_python.Language,
	".java":       tree_sitter_java.Language,
	".go":         tree_sitter_go.Language,
	".html":       tree_sitter_html.Language,
	".htm":        tree_sitter_html.Language,
	".css":        tree_sitter_css.Language,
	".cpp":        tree_sitter_cpp.Language,
	".cc":         tree_sitter_cpp.Language,
	".cxx":        tree_sitter_cpp.Language,
	".h":          tree_sitter_cpp.Language,
	".hpp":        tree_sitter_cpp.Language,
	".cs":         tree_sitter_c_sharp.Language,
	".rs":         tree_sitter_rust.Language,
	".dart":       tree_sitter_dart.Language,
	".php":        tree_sitter_php.LanguagePHPOnly,
	".rb":         tree_sitter_ruby.Language,
	".kt":         tree_sitter_kotlin.Language,
	".kts":        tree_sitter_kotlin.Language,
	".swift":      tree_sitter_swift.Language,
	".scala":      tree_sitter_scala.Language,
	".sc":         tree_sitter_scala.Language,
	".lua":        tree_sitter_lua.Language,
	".sh":         tree_sitter_bash.Language,
	".bash":       tree_sitter_bash.Language,
	".zsh":        tree_sitter_bash.Language,
	".yml":        tree_sitter_yaml.Language,
	".yaml":       tree_sitter_yaml.Language,
	".sql":        tree_sitter_sql.Language,
	".tf":         tree_sitter_hcl.Language,
	"Dockerfile": tree_sitter_dockerfile.Language,
}

// Provider resolves paths to language handles. Handles are cached across
// files sharing a grammar key; after warm-up the cache is read-only.
type Provider struct {
	handles *lru.Cache[string, *Handle]
	pools   sync.Map // grammar key -> *sync.Pool of *tree_sitter.Parser
}

// NewProvider creates a Provider with an empty handle cache.
func NewProvider() *Provider {
	cache, _ := lru.New[string, *Handle](64)
	return &Provider{handles: cache}
}

// grammarKey returns the cache key for a path: "Dockerfile" for Dockerfile
// basenames, the lowercased extension otherwise.
func grammarKey(path string) string {
	base := filepath.Base(path)
	if strings.HasPrefix(base, "Dockerfile") {
		return "Dockerfile"
	}
	return strings.ToLower(filepath.Ext(base))
}

// ParserFor returns the handle for a path, or nil when the extension is
// outside the closed set. A non-nil handle with a nil TS grammar means the
// language is known but analyzed in fallback mode.
func (p *Provider) ParserFor(path string) *Handle {
	l, ok := lang.ForPath(path)
	if !ok {
		return nil
	}
	key := grammarKey(path)
	if h, ok := p.handles.Get(key); ok {
		return h
	}

	h := &Handle{Language: l}
	if fn, ok := grammarFns[key]; ok {
		h.TS = tree_sitter.NewLanguage(fn())
	}
	p.handles.Add(key, h)
	return h
}

// Parse parses source with the handle's grammar. Returns an error when the
// handle has no grammar or the grammar's ABI is incompatible; callers fall
// back to analyzing raw text.
func (p *Provider) Parse(path string, h *Handle, source []byte) (*tree_sitter.Tree, error) {
	if h == nil || h.TS == nil {
		return nil, fmt.Errorf("no grammar for %s", path)
	}
	key := grammarKey(path)
	poolAny, _ := p.pools.LoadOrStore(key, &sync.Pool{
		New: func() any { return tree_sitter.NewParser() },
	})
	pool := poolAny.(*sync.Pool)

	psr, _ := pool.Get().(*tree_sitter.Parser)
	if psr == nil {
		return nil, fmt.Errorf("parser unavailable for %s", h.Language)
	}
	defer pool.Put(psr)

	if err := psr.SetLanguage(h.TS); err != nil {
		return nil, fmt.Errorf("grammar ABI mismatch for %s: %w", h.Language, err)
	}
	tree := psr.Parse(source, nil)
	if tree == nil {
		return nil, fmt.Errorf("parse failed for %s", h.Language)
	}
	return tree, nil
}

// WalkFunc is called for each node during traversal. Return false to skip
// the node's children.
type WalkFunc func(node *tree_sitter.Node) bool

// Walk traverses an AST depth-first.
func Walk(node *tree_sitter.Node, fn WalkFunc) {
	if node == nil {
		return
	}
	if !fn(node) {
		return
	}
	for i := uint(0); i < node.ChildCount(); i++ {
		if child := node.Child(i); child != nil {
			Walk(child, fn)
		}
	}
}

// NodeText returns the source text a node spans.
func NodeText(node *tree_sitter.Node, source []byte) string {
	return string(source[node.StartByte():node.EndByte()])
}

// TopLevelAncestor walks up from a node until its parent is the tree root,
// returning the top-level declaration enclosing the node. Snippets are taken
// from this ancestor so nested constructs carry their whole declaration.
func TopLevelAncestor(node *tree_sitter.Node, root *tree_sitter.Node) *tree_sitter.Node {
	cur := node
	for {
		parent := cur.Parent()
		if parent == nil || parent.Id() == root.Id() {
			return cur
		}
		cur = parent
	}
}
