// Package discover enumerates the files a run analyzes, applying the
// include/exclude patterns and size/count limits from configuration.
package discover

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"

	"github.com/codemapper/codemap/internal/lang"
)

// DefaultExcludes are directory names skipped when no exclude patterns are
// configured.
var DefaultExcludes = []string{"node_modules", "dist", "build", ".git", "target", "bin", "obj"}

// FileInfo is one discovered source file.
type FileInfo struct {
	Path     string // absolute
	RelPath  string // relative to the root, forward-slash
	Language lang.Language
}

// Options bounds a discovery run.
type Options struct {
	Include       []string // glob patterns, default ["**/*"]
	Exclude       []string // glob patterns, default DefaultExcludes
	MaxFiles      int      // 0 = unlimited
	MaxFileSizeKB int      // 0 = unlimited
	OnlyFiles     []string // bypass glob discovery entirely
	Diagnostics   bool
}

type matcher struct {
	include []glob.Glob
	exclude []glob.Glob
	// excludeNames holds bare directory-name excludes (no glob metacharacters
	// and no slash), matched against every path segment.
	excludeNames map[string]bool
}

func newMatcher(opts Options) *matcher {
	m := &matcher{excludeNames: make(map[string]bool)}

	include := opts.Include
	if len(include) == 0 {
		include = []string{"**/*"}
	}
	for _, pat := range include {
		pats := []string{pat}
		// A leading "**/" also matches zero directories, so "**/*" covers
		// files at the root.
		if rest, ok := strings.CutPrefix(pat, "**/"); ok {
			pats = append(pats, rest)
		}
		for _, p := range pats {
			if g, err := glob.Compile(p, '/'); err == nil {
				m.include = append(m.include, g)
			} else {
				slog.Warn("discover.include.bad_pattern", "pattern", p, "err", err)
			}
		}
	}

	exclude := opts.Exclude
	if len(exclude) == 0 {
		exclude = DefaultExcludes
	}
	for _, pat := range exclude {
		if !strings.ContainsAny(pat, "*?[{") && !strings.Contains(pat, "/") {
			m.excludeNames[pat] = true
			continue
		}
		if g, err := glob.Compile(pat, '/'); err == nil {
			m.exclude = append(m.exclude, g)
		} else {
			slog.Warn("discover.exclude.bad_pattern", "pattern", pat, "err", err)
		}
	}
	return m
}

func (m *matcher) excludedDir(name, rel string) bool {
	if m.excludeNames[name] {
		return true
	}
	for _, g := range m.exclude {
		if g.Match(rel) || g.Match(name) {
			return true
		}
	}
	return false
}

func (m *matcher) matchesFile(rel string) bool {
	for _, seg := range strings.Split(rel, "/") {
		if m.excludeNames[seg] {
			return false
		}
	}
	for _, g := range m.exclude {
		if g.Match(rel) {
			return false
		}
	}
	for _, g := range m.include {
		if g.Match(rel) {
			return true
		}
	}
	return false
}

// Discover walks root and returns the files to analyze. When opts.OnlyFiles
// is set it is used verbatim (entries may be absolute or root-relative) and
// no glob filtering applies.
func Discover(ctx context.Context, root string, opts Options) ([]FileInfo, error) {
	root, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	if len(opts.OnlyFiles) > 0 {
		return onlyFiles(root, opts.OnlyFiles), nil
	}

	m := newMatcher(opts)
	var files []FileInfo
	skippedSize := 0

	err = filepath.Walk(root, func(path string, info os.FileInfo, walkErr error) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if walkErr != nil {
			return filepath.SkipDir
		}
		rel, _ := filepath.Rel(root, path)
		rel = filepath.ToSlash(rel)

		if info.IsDir() {
			if rel != "." && m.excludedDir(info.Name(), rel) {
				return filepath.SkipDir
			}
			return nil
		}

		// The extension whitelist is closed; Dockerfile basenames ride along.
		l, ok := lang.ForPath(path)
		if !ok {
			return nil
		}
		if !m.matchesFile(rel) {
			return nil
		}
		if opts.MaxFileSizeKB > 0 && info.Size() > int64(opts.MaxFileSizeKB)*1024 {
			skippedSize++
			return nil
		}

		files = append(files, FileInfo{Path: path, RelPath: rel, Language: l})
		return nil
	})
	if err != nil {
		return nil, err
	}

	if opts.MaxFiles > 0 && len(files) > opts.MaxFiles {
		if opts.Diagnostics {
			slog.Info("discover.max_files", "limit", opts.MaxFiles, "dropped", len(files)-opts.MaxFiles)
		}
		files = files[:opts.MaxFiles]
	}
	if opts.Diagnostics && skippedSize > 0 {
		slog.Info("discover.size_filtered", "files", skippedSize, "limitKB", opts.MaxFileSizeKB)
	}
	return files, nil
}

// onlyFiles resolves an explicit file list against the root.
func onlyFiles(root string, paths []string) []FileInfo {
	files := make([]FileInfo, 0, len(paths))
	for _, p := range paths {
		abs := p
		if !filepath.IsAbs(p) {
			abs = filepath.Join(root, p)
		}
		if _, err := os.Stat(abs); err != nil {
			slog.Warn("discover.only_files.missing", "path", p)
			continue
		}
		l, ok := lang.ForPath(abs)
		if !ok {
			continue
		}
		rel, err := filepath.Rel(root, abs)
		if err != nil {
			rel = filepath.Base(abs)
		}
		files = append(files, FileInfo{Path: abs, RelPath: filepath.ToSlash(rel), Language: l})
	}
	return files
}
