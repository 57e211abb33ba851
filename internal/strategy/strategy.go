// Package strategy holds the per-language extraction strategies. A strategy
// turns one file (syntax tree + raw text) into partial code map data: nodes,
// edges, an export map, and best-effort call sites.
package strategy

import (
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codemapper/codemap/internal/graph"
	"github.com/codemapper/codemap/internal/lang"
)

// Input is everything a strategy sees for one file. Tree is nil in fallback
// mode (no grammar, parse error, or incompatible ABI); Source always holds
// the raw file content, so text-driven strategies work either way.
type Input struct {
	Tree     *tree_sitter.Tree
	Source   []byte
	Path     string // absolute, forward-slash normalized
	Language lang.Language
}

// Result is the partial map a strategy contributes for one file.
type Result struct {
	Nodes   []*graph.Node
	Edges   []*graph.Edge
	Exports map[string]string
	Calls   []graph.CallSite
}

// Func is a language strategy. Every strategy emits a File node for the
// analyzed path and may emit any number of other nodes and edges.
type Func func(in *Input) *Result

// registry maps language tags to their strategies.
var registry = map[lang.Language]Func{
	lang.TypeScript: AnalyzeTypeScript,
	lang.JavaScript: AnalyzeTypeScript,
	lang.Python:     AnalyzePython,
	lang.Java:       AnalyzeJava,
	lang.Go:         AnalyzeGo,
	lang.CPP:        AnalyzeCPP,
	lang.CSharp:     AnalyzeCSharp,
	lang.Rust:       AnalyzeRust,
	lang.PHP:        AnalyzePHP,
	lang.Ruby:       AnalyzeRuby,
	lang.Dart:       AnalyzeDart,
	lang.Kotlin:     AnalyzeGeneric,
	lang.Swift:      AnalyzeGeneric,
	lang.Scala:      AnalyzeGeneric,
	lang.Lua:        AnalyzeGeneric,
	lang.YAML:       AnalyzeYAML,
	lang.JSON:       AnalyzeJSON,
	lang.SQL:        AnalyzeSQL,
	lang.Terraform:  AnalyzeTerraform,
	lang.Bash:       AnalyzeBash,
	lang.CSS:        AnalyzeCSS,
	lang.HTML:       AnalyzeHTML,
	lang.Dockerfile: AnalyzeDockerfile,
	lang.GraphQL:    AnalyzeFileOnly,
	lang.Proto:      AnalyzeFileOnly,
}

// For returns the strategy for a language. Unknown languages get the
// file-node-only strategy.
func For(l lang.Language) Func {
	if fn, ok := registry[l]; ok {
		return fn
	}
	return AnalyzeFileOnly
}

// AnalyzeFileOnly emits just the File node. It serves languages with no
// extraction responsibilities and AST strategies running on a stub tree.
func AnalyzeFileOnly(in *Input) *Result {
	return newResult(in)
}
