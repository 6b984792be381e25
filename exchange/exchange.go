//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package exchange reads and writes the workflow backup file: the full
// editable graph wrapped with a format version and an export timestamp.
package exchange

import (
	"errors"
	"fmt"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"github.com/autorpa/flowforge/tabular"
	"github.com/autorpa/flowforge/workflow"
)

// Version is the current file format version.
const Version = "1.0.0"

// ErrInvalidFile is wrapped by every import failure.
var ErrInvalidFile = errors.New("exchange: invalid workflow file")

// File is the exported envelope.
type File struct {
	Version    string    `json:"version"`
	ExportedAt time.Time `json:"exportedAt"`
	Workflow   Document  `json:"workflow"`
}

// Document is the exported workflow.
type Document struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Nodes       []workflow.Node `json:"nodes"`
	Edges       []workflow.Edge `json:"edges"`
	ExcelFiles  []SourceRef     `json:"excelFiles,omitempty"`
}

// Graph returns the document's graph.
func (d *Document) Graph() *workflow.Graph {
	return &workflow.Graph{Nodes: d.Nodes, Edges: d.Edges}
}

// SourceRef records a tabular source used by the workflow. Row data is not
// exported.
type SourceRef struct {
	ID                string   `json:"id"`
	Name              string   `json:"name"`
	FilePath          string   `json:"filePath"`
	Headers           []string `json:"headers"`
	TotalRows         int      `json:"totalRows"`
	FirstRowAsHeaders bool     `json:"firstRowAsHeaders"`
	Delimiter         string   `json:"delimiter,omitempty"`
}

// Refs describes the given sources for export.
func Refs(sources []tabular.Source) []SourceRef {
	out := make([]SourceRef, 0, len(sources))
	for _, s := range sources {
		out = append(out, SourceRef{
			ID:                s.ID,
			Name:              s.FileName,
			FilePath:          s.FilePath,
			Headers:           s.Columns,
			TotalRows:         s.RowCount,
			FirstRowAsHeaders: s.FirstRowAsHeaders,
			Delimiter:         s.Delimiter,
		})
	}
	return out
}

// Source rebuilds a row-less tabular source from the reference so that the
// variable catalog of an imported workflow can be computed before the file
// itself is loaded again.
func (r SourceRef) Source() tabular.Source {
	return tabular.Source{
		ID:                r.ID,
		Name:              tabular.SourceName(r.Name),
		FileName:          r.Name,
		FilePath:          r.FilePath,
		Columns:           r.Headers,
		RowCount:          r.TotalRows,
		Delimiter:         r.Delimiter,
		FirstRowAsHeaders: r.FirstRowAsHeaders,
	}
}

// Export encodes doc as an indented export file stamped with now.
func Export(doc *Document, now time.Time) ([]byte, error) {
	f := File{Version: Version, ExportedAt: now.UTC(), Workflow: *doc}
	if f.Workflow.Nodes == nil {
		f.Workflow.Nodes = []workflow.Node{}
	}
	if f.Workflow.Edges == nil {
		f.Workflow.Edges = []workflow.Edge{}
	}
	data, err := json.MarshalIndent(f, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode export file: %w", err)
	}
	return data, nil
}

// Import decodes an export file after checking its shape.
func Import(data []byte) (*File, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, invalid("not a JSON object")
	}
	if v, ok := raw["version"].(string); ok && !supported(v) {
		return nil, invalid("unsupported version %s", v)
	}
	wf, ok := raw["workflow"].(map[string]any)
	if !ok {
		return nil, invalid("workflow must be an object")
	}
	if err := checkDocument(wf); err != nil {
		return nil, err
	}
	var f File
	if err := json.Unmarshal(data, &f); err != nil {
		return nil, invalid("%v", err)
	}
	return &f, nil
}

// Decode accepts either an export file or a bare workflow document with
// name, nodes and edges at the top level.
func Decode(data []byte) (*Document, error) {
	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil || raw == nil {
		return nil, invalid("not a JSON object")
	}
	if _, ok := raw["workflow"]; ok {
		f, err := Import(data)
		if err != nil {
			return nil, err
		}
		return &f.Workflow, nil
	}
	if err := checkDocument(raw); err != nil {
		return nil, err
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, invalid("%v", err)
	}
	return &doc, nil
}

func checkDocument(wf map[string]any) error {
	if _, ok := wf["name"].(string); !ok {
		return invalid("workflow name must be a string")
	}
	nodes, ok := wf["nodes"].([]any)
	if !ok {
		return invalid("nodes must be an array")
	}
	edges, ok := wf["edges"].([]any)
	if !ok {
		return invalid("edges must be an array")
	}
	for i, n := range nodes {
		obj, ok := n.(map[string]any)
		if !ok {
			return invalid("node %d is not an object", i)
		}
		if _, ok := obj["id"].(string); !ok {
			return invalid("node %d has no string id", i)
		}
		if _, ok := obj["data"].(map[string]any); !ok {
			return invalid("node %v has no data object", obj["id"])
		}
	}
	for i, e := range edges {
		obj, ok := e.(map[string]any)
		if !ok {
			return invalid("edge %d is not an object", i)
		}
		for _, key := range []string{"id", "source", "target"} {
			if _, ok := obj[key].(string); !ok {
				return invalid("edge %d has no string %s", i, key)
			}
		}
	}
	return nil
}

func supported(version string) bool {
	major, _, _ := strings.Cut(version, ".")
	return major == "1"
}

func invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidFile, fmt.Sprintf(format, args...))
}

// FileName returns the download name for a workflow: the name lowercased
// with every character outside a-z and 0-9 replaced by '_', cut to 50
// characters, then the UTC date of now.
func FileName(name string, now time.Time) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		} else {
			b.WriteByte('_')
		}
		if b.Len() == 50 {
			break
		}
	}
	safe := b.String()
	if safe == "" {
		safe = "workflow"
	}
	return safe + "_" + now.UTC().Format("2006-01-02") + ".json"
}
