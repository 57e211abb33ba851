package parser

import (
	"testing"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/codemapper/codemap/internal/lang"
)

func TestParserForKnownExtensions(t *testing.T) {
	p := NewProvider()
	cases := []struct {
		path       string
		want       lang.Language
		hasGrammar bool
	}{
		{"/r/app.ts", lang.TypeScript, true},
		{"/r/App.tsx", lang.TypeScript, true},
		{"/r/main.go", lang.Go, true},
		{"/r/main.py", lang.Python, true},
		{"/r/deploy.yaml", lang.YAML, true},
		{"/r/Dockerfile", lang.Dockerfile, true},
		{"/r/schema.graphql", lang.GraphQL, false},
		{"/r/api.proto", lang.Proto, false},
		{"/r/data.json", lang.JSON, false},
	}
	for _, c := range cases {
		h := p.ParserFor(c.path)
		if h == nil {
			t.Errorf("ParserFor(%q) = nil", c.path)
			continue
		}
		if h.Language != c.want {
			t.Errorf("ParserFor(%q).Language = %s, want %s", c.path, h.Language, c.want)
		}
		if (h.TS != nil) != c.hasGrammar {
			t.Errorf("ParserFor(%q) grammar presence = %v, want %v", c.path, h.TS != nil, c.hasGrammar)
		}
	}
}

func TestParserForUnknownExtension(t *testing.T) {
	p := NewProvider()
	if h := p.ParserFor("/r/readme.md"); h != nil {
		t.Fatalf("unknown extension must return nil, got %+v", h)
	}
}

func TestHandleCaching(t *testing.T) {
	p := NewProvider()
	a := p.ParserFor("/r/one.go")
	b := p.ParserFor("/r/two.go")
	if a != b {
		t.Fatal("handles must be cached per extension")
	}
}

func TestParseGo(t *testing.T) {
	p := NewProvider()
	h := p.ParserFor("/r/main.go")
	tree, err := p.Parse("/r/main.go", h, []byte("package main\n\nfunc main() {}\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	defer tree.Close()

	root := tree.RootNode()
	if root.Kind() != "source_file" {
		t.Fatalf("root kind = %s", root.Kind())
	}

	sawFunc := false
	Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() == "function_declaration" {
			sawFunc = true
		}
		return true
	})
	if !sawFunc {
		t.Fatal("walk missed the function declaration")
	}
}

func TestParseNoGrammar(t *testing.T) {
	p := NewProvider()
	h := p.ParserFor("/r/api.proto")
	if _, err := p.Parse("/r/api.proto", h, []byte("syntax = \"proto3\";")); err == nil {
		t.Fatal("expected error for grammarless language")
	}
}

func TestTopLevelAncestor(t *testing.T) {
	p := NewProvider()
	h := p.ParserFor("/r/main.go")
	source := []byte("package main\n\nfunc outer() {\n\tx := 1\n\t_ = x\n}\n")
	tree, err := p.Parse("/r/main.go", h, source)
	if err != nil {
		t.Fatal(err)
	}
	defer tree.Close()

	root := tree.RootNode()
	var assign *tree_sitter.Node
	Walk(root, func(n *tree_sitter.Node) bool {
		if n.Kind() == "short_var_declaration" {
			assign = n
		}
		return true
	})
	if assign == nil {
		t.Fatal("missing short_var_declaration")
	}

	top := TopLevelAncestor(assign, root)
	if top.Kind() != "function_declaration" {
		t.Fatalf("top-level ancestor kind = %s", top.Kind())
	}
	if NodeText(top, source) == "" {
		t.Fatal("empty snippet for top-level ancestor")
	}
}
