// Package analyzer drives the pipeline: discovery, parallel per-file
// extraction, linkage post-passes, deduplication, quality analysis and the
// deterministic final sort.
package analyzer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/codemapper/codemap/internal/discover"
	"github.com/codemapper/codemap/internal/graph"
	"github.com/codemapper/codemap/internal/interact"
	"github.com/codemapper/codemap/internal/parser"
	"github.com/codemapper/codemap/internal/quality"
	"github.com/codemapper/codemap/internal/strategy"
)

// Version is the code map schema version.
const Version = "1.0"

// Generator tags emitted maps.
const Generator = "codemap"

// Analyzer runs the pipeline over one repository root.
type Analyzer struct {
	Root     string
	Config   Config
	Provider *parser.Provider

	// Now supplies the generatedAt stamp; overridable so golden runs are
	// byte-identical.
	Now func() time.Time

	// ParseErrors holds per-file parse failures after Run; strict mode
	// callers turn a non-empty list into a non-zero exit.
	ParseErrors []FileError
}

// FileError records a swallowed per-file failure.
type FileError struct {
	Path string
	Err  error
}

// New creates an Analyzer with a fresh parser provider.
func New(root string, cfg Config) *Analyzer {
	return &Analyzer{Root: root, Config: cfg, Provider: parser.NewProvider(), Now: time.Now}
}

// Run executes the full pipeline and returns the finalized code map.
func (a *Analyzer) Run(ctx context.Context) (*graph.CodeMap, error) {
	root, err := filepath.Abs(a.Root)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	a.Root = root

	slog.Info("pipeline.start", "root", root)
	t := time.Now()

	files, err := discover.Discover(ctx, root, discover.Options{
		Include:       a.Config.Include,
		Exclude:       a.Config.Exclude,
		MaxFiles:      a.Config.MaxFiles,
		MaxFileSizeKB: a.Config.MaxFileSizeKB,
		OnlyFiles:     a.Config.OnlyFiles,
		Diagnostics:   a.Config.Diagnostics,
	})
	if err != nil {
		return nil, fmt.Errorf("discover: %w", err)
	}
	slog.Info("pipeline.discovered", "files", len(files), "elapsed", time.Since(t))

	results, parseErrs := a.extract(ctx, files)
	a.ParseErrors = parseErrs

	ws := merge(root, results)
	slog.Info("pipeline.extracted", "nodes", len(ws.Nodes), "edges", len(ws.Edges))

	// Linkage passes run single-threaded so their output is independent of
	// worker interleavings.
	ws.ResolveImports()
	ws.SynthesizeAPICalls(a.Config.InteractionRules)
	ws.ResolveCalls()
	ws.LinkDatabase()
	ws.LinkORM()
	ws.LinkKubernetes()
	ws.LinkHelmKustomize()
	ws.LinkTerraform()
	ws.LinkGraphQL()

	ws.DedupeRoutes()

	m := &graph.CodeMap{
		Version:     Version,
		GeneratedAt: a.Now().UTC().Format(time.RFC3339),
		Generator:   Generator,
		Commit:      headCommit(root),
		Nodes:       ws.Nodes,
		Edges:       ws.Edges,
	}
	m.Statistics = quality.Analyze(m)

	graph.Sort(m)
	slog.Info("pipeline.done", "nodes", len(m.Nodes), "edges", len(m.Edges), "elapsed", time.Since(t))
	return m, nil
}

// extract runs strategies over the file list with a bounded worker pool.
// Results are collected by index so merge order is deterministic.
func (a *Analyzer) extract(ctx context.Context, files []discover.FileInfo) ([]*strategy.Result, []FileError) {
	results := make([]*strategy.Result, len(files))
	errs := make([]*FileError, len(files))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.Config.workers())
	for i, f := range files {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			results[i], errs[i] = a.extractOne(f)
			return nil
		})
	}
	_ = g.Wait()

	var parseErrs []FileError
	for _, e := range errs {
		if e != nil {
			parseErrs = append(parseErrs, *e)
		}
	}
	return results, parseErrs
}

// extractOne analyzes a single file. Parse failures fall back to a stub
// input (raw text only); read failures skip the file entirely.
func (a *Analyzer) extractOne(f discover.FileInfo) (*strategy.Result, *FileError) {
	source, err := os.ReadFile(f.Path)
	if err != nil {
		slog.Warn("extract.read.err", "path", f.RelPath, "err", err)
		return nil, nil
	}

	handle := a.Provider.ParserFor(f.Path)
	in := &strategy.Input{
		Source:   source,
		Path:     graph.NormalizePath(f.Path),
		Language: f.Language,
	}

	var ferr *FileError
	if handle != nil && handle.TS != nil {
		tree, perr := a.Provider.Parse(f.Path, handle, source)
		if perr != nil {
			slog.Warn("extract.parse.err", "path", f.RelPath, "err", perr)
			ferr = &FileError{Path: f.RelPath, Err: perr}
		} else {
			in.Tree = tree
			defer tree.Close()
		}
	}

	return strategy.For(f.Language)(in), ferr
}

// merge folds per-file results into one workspace in file-list order.
func merge(root string, results []*strategy.Result) *interact.Workspace {
	ws := interact.NewWorkspace(root)
	for _, r := range results {
		if r == nil {
			continue
		}
		ws.AddResult(r.Nodes, r.Edges, r.Exports, r.Calls)
	}
	return ws
}
