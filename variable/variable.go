//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package variable derives the catalog of named values that workflow fields
// can reference as {{name}} placeholders.
//
// Every variable is reported as visible everywhere: a value produced inside
// a loop body shows up for nodes outside the loop as well.
package variable

import (
	"fmt"

	"github.com/autorpa/flowforge/tabular"
	"github.com/autorpa/flowforge/workflow"
)

// Kind groups variables for display.
type Kind string

// Variable kinds.
const (
	KindExcel Kind = "excel"
	KindLoop  Kind = "loop"
	KindRead  Kind = "read"
)

// DefaultExcelVariable names the output of an excel-read node without one.
const DefaultExcelVariable = "excel_data"

// Variable is one catalog entry.
type Variable struct {
	// Name is a flat or dotted name such as "fila.dni".
	Name        string `json:"name"`
	Kind        Kind   `json:"type"`
	Description string `json:"description,omitempty"`
	// Source tells where the variable comes from.
	Source string `json:"source,omitempty"`
}

// Resolve returns the variable catalog of g given the loaded sources. It
// never fails: references that cannot be resolved contribute nothing.
// Entries are ordered: sources first, then nodes in dependency order.
func Resolve(g *workflow.Graph, sources []tabular.Source) []Variable {
	r := &resolver{
		ix:      workflow.NewIndex(g),
		sources: sources,
		visited: make(map[string]bool),
	}
	for _, s := range sources {
		r.seed(s)
	}
	for _, n := range r.ix.Nodes() {
		r.visit(n)
	}
	return r.out
}

type resolver struct {
	ix      *workflow.Index
	sources []tabular.Source
	visited map[string]bool
	// legacy holds the last spreadsheet loaded by an excel-read node.
	legacy *workflow.ExcelData
	out    []Variable
}

func (r *resolver) seed(s tabular.Source) {
	r.out = append(r.out, Variable{
		Name:        s.Name,
		Kind:        KindExcel,
		Description: fmt.Sprintf("whole file %s (%d rows)", s.FileName, s.RowCount),
		Source:      "file: " + s.FileName,
	})
	for _, col := range s.Columns {
		r.out = append(r.out, Variable{
			Name:        s.Name + "." + col,
			Kind:        KindExcel,
			Description: fmt.Sprintf("column %q of %s", col, s.FileName),
			Source:      fmt.Sprintf("file: %s, column: %s", s.FileName, col),
		})
	}
}

// visit marks n before its predecessors so that cycles terminate.
func (r *resolver) visit(n *workflow.Node) {
	if r.visited[n.ID] {
		return
	}
	r.visited[n.ID] = true
	for _, p := range r.ix.Predecessors(n.ID) {
		r.visit(p)
	}
	if !n.Kind.Executable() || n.Data.Config == nil {
		return
	}
	r.out = append(r.out, workflow.VisitConfig[[]Variable](n.Data.Config, contributor{r})...)
}

func (r *resolver) sourceByName(name string) *tabular.Source {
	for i := range r.sources {
		if r.sources[i].Name == name {
			return &r.sources[i]
		}
	}
	return nil
}

// contributor computes the variables a single config adds.
type contributor struct{ r *resolver }

func (contributor) Click(*workflow.ClickConfig) []Variable       { return nil }
func (contributor) TypeText(*workflow.TypeConfig) []Variable     { return nil }
func (contributor) Wait(*workflow.WaitConfig) []Variable         { return nil }
func (contributor) Navigate(*workflow.NavigateConfig) []Variable { return nil }
func (contributor) IfElse(*workflow.IfElseConfig) []Variable     { return nil }
func (contributor) Unknown(*workflow.UnknownConfig) []Variable   { return nil }

func (contributor) Extract(c *workflow.ExtractConfig) []Variable {
	return readVariable(c.VariableName, c.Selector, "Extract")
}

func (contributor) ReadText(c *workflow.ReadTextConfig) []Variable {
	return readVariable(c.VariableName, c.Selector, "Read Text")
}

func readVariable(name, selector, origin string) []Variable {
	if name == "" {
		return nil
	}
	return []Variable{{
		Name:        name,
		Kind:        KindRead,
		Description: "text read from " + selector,
		Source:      origin + ": " + name,
	}}
}

func (c contributor) ExcelRead(cfg *workflow.ExcelReadConfig) []Variable {
	name := cfg.VariableName
	if name == "" {
		name = DefaultExcelVariable
	}
	if cfg.LoadedData != nil {
		c.r.legacy = cfg.LoadedData
	}
	return []Variable{{
		Name:        name,
		Kind:        KindExcel,
		Description: "spreadsheet data from " + cfg.FilePath,
		Source:      "Excel Read: " + name,
	}}
}

func (c contributor) Loop(cfg *workflow.LoopConfig) []Variable {
	iter := cfg.IterVar()
	mode := cfg.Mode()
	if mode != workflow.LoopExcel {
		return []Variable{{
			Name:        iter,
			Kind:        KindLoop,
			Description: "current iteration number",
			Source:      fmt.Sprintf("Loop: %s (mode: %s)", iter, mode),
		}}
	}

	var columns []string
	origin := "Loop: " + iter
	if s := c.r.sourceByName(cfg.DataSource); s != nil {
		columns = s.Columns
		origin = fmt.Sprintf("Loop: %s (%s)", iter, s.FileName)
	} else if c.r.legacy != nil && cfg.DataSource != "" && cfg.DataSource == c.r.legacy.VariableName {
		columns = c.r.legacy.Headers
	}
	out := make([]Variable, 0, len(columns))
	for _, col := range columns {
		out = append(out, Variable{
			Name:        iter + "." + col,
			Kind:        KindLoop,
			Description: col + " of the current row",
			Source:      origin,
		})
	}
	return out
}
