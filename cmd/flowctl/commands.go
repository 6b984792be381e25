//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/autorpa/flowforge/agentwire"
	"github.com/autorpa/flowforge/exchange"
	"github.com/autorpa/flowforge/internal/batch"
	"github.com/autorpa/flowforge/internal/config"
	"github.com/autorpa/flowforge/log"
	"github.com/autorpa/flowforge/tabular"
	"github.com/autorpa/flowforge/validation"
	"github.com/autorpa/flowforge/variable"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailed  = 1
	exitUsage   = 2
	usageHeader = "usage: flowctl validate|transform|vars|export|import [flags] <pattern>..."
)

// errFailed marks a file whose processing succeeded but whose content is
// rejected, e.g. a workflow with error-severity issues.
var errFailed = errors.New("failed")

// command handles a single decoded workflow document.
type command func(ctx context.Context, env *env, path string, doc *exchange.Document) (any, error)

type env struct {
	sources []tabular.Source
	outDir  string
	now     func() time.Time
}

var commands = map[string]command{
	"validate":  validateCmd,
	"transform": transformCmd,
	"vars":      varsCmd,
	"export":    exportCmd,
	"import":    importCmd,
}

// patternList collects a repeatable flag.
type patternList []string

func (p *patternList) String() string { return strings.Join(*p, ",") }

func (p *patternList) Set(v string) error {
	*p = append(*p, v)
	return nil
}

// report is the line printed for each input file.
type report struct {
	File   string `json:"file"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(stderr, usageHeader)
		return exitUsage
	}
	name := args[0]
	cmd, ok := commands[name]
	if !ok {
		fmt.Fprintf(stderr, "unknown command %q\n%s\n", name, usageHeader)
		return exitUsage
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", "", "path to a YAML config file")
	workers := fs.Int("workers", 0, "number of files processed concurrently, config batch.workers by default")
	outDir := fs.String("out", ".", "directory for files written by export")
	logLevel := fs.String("log-level", "", "log level, overrides the config file")
	var sourcePatterns patternList
	fs.Var(&sourcePatterns, "source", "CSV or XLSX data source pattern, repeatable")
	if err := fs.Parse(args[1:]); err != nil {
		return exitUsage
	}
	if fs.NArg() == 0 {
		fmt.Fprintf(stderr, "%s: no input files\n", name)
		return exitUsage
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	log.SetLevel(cfg.Log.Level)
	if *workers <= 0 {
		*workers = cfg.Batch.Workers
	}

	paths, err := batch.Expand(fs.Args())
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitUsage
	}
	sources, err := loadSources(sourcePatterns)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailed
	}
	e := &env{sources: sources, outDir: *outDir, now: time.Now}

	results, err := batch.Run(ctx, paths, *workers, func(ctx context.Context, path string) (any, error) {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		var doc *exchange.Document
		if name == "import" {
			f, err := exchange.Import(data)
			if err != nil {
				return nil, err
			}
			doc = &f.Workflow
		} else if doc, err = exchange.Decode(data); err != nil {
			return nil, err
		}
		return cmd(ctx, e, path, doc)
	})
	if err != nil {
		fmt.Fprintln(stderr, err)
		return exitFailed
	}

	enc := json.NewEncoder(stdout)
	code := exitOK
	for _, r := range results {
		line := report{File: r.Path, Result: r.Value}
		if r.Err != nil {
			code = exitFailed
			if !errors.Is(r.Err, errFailed) {
				line.Error = r.Err.Error()
				log.Warnf("%s: %v", r.Path, r.Err)
			}
		}
		if err := enc.Encode(line); err != nil {
			fmt.Fprintln(stderr, err)
			return exitFailed
		}
	}
	return code
}

func loadSources(patterns []string) ([]tabular.Source, error) {
	if len(patterns) == 0 {
		return nil, nil
	}
	paths, err := batch.Expand(patterns)
	if err != nil {
		return nil, err
	}
	reg := tabular.NewRegistry()
	for _, p := range paths {
		content, err := os.ReadFile(p)
		if err != nil {
			return nil, fmt.Errorf("read source: %w", err)
		}
		src, err := tabular.Load(p, content, tabular.LoadOptions{FilePath: p})
		if err != nil {
			return nil, fmt.Errorf("load source %s: %w", p, err)
		}
		reg.Add(src)
	}
	return reg.List(), nil
}

type validateResult struct {
	Valid  bool               `json:"valid"`
	Issues []validation.Issue `json:"issues"`
}

func validateCmd(_ context.Context, _ *env, _ string, doc *exchange.Document) (any, error) {
	issues := validation.Validate(doc.Graph())
	if issues == nil {
		issues = []validation.Issue{}
	}
	res := validateResult{Valid: !validation.HasErrors(issues), Issues: issues}
	if !res.Valid {
		return res, errFailed
	}
	return res, nil
}

func transformCmd(_ context.Context, e *env, _ string, doc *exchange.Document) (any, error) {
	return agentwire.Transform(doc.Name, doc.Graph(), nil), nil
}

func varsCmd(_ context.Context, e *env, _ string, doc *exchange.Document) (any, error) {
	sources := e.sources
	if len(sources) == 0 {
		for _, ref := range doc.ExcelFiles {
			sources = append(sources, ref.Source())
		}
	}
	vars := variable.Resolve(doc.Graph(), sources)
	if vars == nil {
		vars = []variable.Variable{}
	}
	return vars, nil
}

func exportCmd(_ context.Context, e *env, _ string, doc *exchange.Document) (any, error) {
	now := e.now()
	if len(e.sources) > 0 {
		doc.ExcelFiles = exchange.Refs(e.sources)
	}
	data, err := exchange.Export(doc, now)
	if err != nil {
		return nil, err
	}
	out := filepath.Join(e.outDir, exchange.FileName(doc.Name, now))
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return nil, fmt.Errorf("write export: %w", err)
	}
	return map[string]string{"output": out}, nil
}

// importCmd prints the validated document held by an export file.
func importCmd(_ context.Context, _ *env, _ string, doc *exchange.Document) (any, error) {
	return doc, nil
}
