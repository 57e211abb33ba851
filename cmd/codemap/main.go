// Command codemap analyzes a polyglot repository and emits its code map.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"github.com/codemapper/codemap/internal/analyzer"
	"github.com/codemapper/codemap/internal/sink"
)

var version = "dev"

func main() {
	root := flag.String("root", ".", "repository root to analyze")
	out := flag.String("out", "", "write the code map JSON here (default stdout)")
	sqlitePath := flag.String("sqlite", "", "also persist the map to this SQLite database")
	configPath := flag.String("config", "", "JSON configuration file")
	concurrency := flag.Int("concurrency", 0, "worker count (default 4, clamped 1-32)")
	strict := flag.Bool("strict", false, "exit non-zero when any file failed to parse")
	diagnostics := flag.Bool("diagnostics", false, "log discovery limits")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println("codemap", version)
		return
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fatal("config: %v", err)
	}
	if *concurrency != 0 {
		cfg.Concurrency = *concurrency
	}
	if *strict {
		cfg.Strict = true
	}
	if *diagnostics {
		cfg.Diagnostics = true
	}

	a := analyzer.New(*root, cfg)
	m, err := a.Run(context.Background())
	if err != nil {
		fatal("analyze: %v", err)
	}

	w := os.Stdout
	if *out != "" {
		f, err := os.Create(*out)
		if err != nil {
			fatal("create output: %v", err)
		}
		defer f.Close()
		w = f
	}
	if err := sink.WriteJSON(w, m); err != nil {
		fatal("write map: %v", err)
	}

	if *sqlitePath != "" {
		db, err := sink.OpenSQLite(*sqlitePath)
		if err != nil {
			fatal("sqlite: %v", err)
		}
		if _, err := db.SaveCodeMap(m); err != nil {
			fatal("sqlite save: %v", err)
		}
		db.Close()
	}

	if cfg.Strict && len(a.ParseErrors) > 0 {
		for _, pe := range a.ParseErrors {
			slog.Error("parse.failed", "path", pe.Path, "err", pe.Err)
		}
		os.Exit(1)
	}
}

func loadConfig(path string) (analyzer.Config, error) {
	var cfg analyzer.Config
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := json.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
