package lang

import "testing"

func TestForPath(t *testing.T) {
	cases := []struct {
		path string
		want Language
		ok   bool
	}{
		{"/repo/src/app.ts", TypeScript, true},
		{"/repo/src/App.tsx", TypeScript, true},
		{"/repo/lib/util.js", JavaScript, true},
		{"/repo/main.py", Python, true},
		{"/repo/Main.java", Java, true},
		{"/repo/server.go", Go, true},
		{"/repo/deploy/app.yaml", YAML, true},
		{"/repo/schema.sql", SQL, true},
		{"/repo/main.tf", Terraform, true},
		{"/repo/api.graphql", GraphQL, true},
		{"/repo/api.gql", GraphQL, true},
		{"/repo/Dockerfile", Dockerfile, true},
		{"/repo/Dockerfile.prod", Dockerfile, true},
		{"/repo/build.gradle", "", false},
		{"/repo/README.md", "", false},
	}
	for _, c := range cases {
		got, ok := ForPath(c.path)
		if ok != c.ok || got != c.want {
			t.Errorf("ForPath(%q) = %q, %v; want %q, %v", c.path, got, ok, c.want, c.ok)
		}
	}
}

func TestExtensionsClosedSet(t *testing.T) {
	exts := Extensions()
	if len(exts) == 0 {
		t.Fatal("empty extension whitelist")
	}
	for _, ext := range exts {
		if _, ok := ForExtension(ext); !ok {
			t.Errorf("extension %q not resolvable", ext)
		}
	}
}

func TestIsTSX(t *testing.T) {
	if !IsTSX("/a/App.tsx") || !IsTSX("/a/App.jsx") {
		t.Fatal("tsx/jsx should be React-flavoured")
	}
	if IsTSX("/a/app.ts") {
		t.Fatal("plain .ts is not React-flavoured")
	}
}
