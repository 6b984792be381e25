//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package validation checks a workflow graph and reports severity-tagged
// issues per node. It keeps no state between calls.
package validation

import (
	"fmt"
	"strings"

	"github.com/autorpa/flowforge/workflow"
)

// Validate runs the per-node checks followed by the structural checks.
// Note nodes are ignored. The result is deterministic for a given graph.
func Validate(g *workflow.Graph) []Issue {
	ix := workflow.NewIndex(g)
	var issues []Issue
	for _, id := range ix.Duplicates() {
		issues = append(issues, Issue{
			NodeID:   id,
			Severity: SeverityError,
			Kind:     KindDuplicateNode,
			Message:  fmt.Sprintf("node id %s is used more than once", id),
		})
	}
	for _, n := range ix.Nodes() {
		if !n.Kind.Executable() {
			continue
		}
		issues = append(issues, validateNode(ix, n)...)
	}
	return append(issues, validateStructure(ix)...)
}

func validateNode(ix *workflow.Index, n *workflow.Node) []Issue {
	var issues []Issue
	if err := ix.CheckParent(n.ID); err != nil {
		issues = append(issues, errorf(n.ID, KindInvalidParent, "invalid parent: %v", err))
	}

	cfg := n.Data.Config
	if cfg == nil {
		return append(issues, errorf(n.ID, KindMissingConfig, "node has no configuration"))
	}
	want := n.Data.Type
	if want == "" {
		want = cfg.ActionType()
	}
	if cfg.ActionType() != want {
		return append(issues, errorf(n.ID, KindConfigMismatch,
			"configuration is for %s but node is %s", cfg.ActionType(), want))
	}
	if want.NodeKind() != n.Kind {
		return append(issues, errorf(n.ID, KindConfigMismatch,
			"%s configuration cannot be used on a %s node", want, n.Kind))
	}
	return append(issues, workflow.VisitConfig[[]Issue](cfg, fieldChecker{id: n.ID})...)
}

// fieldChecker applies the required-field rules of each action type.
type fieldChecker struct{ id string }

func (f fieldChecker) selector(s string) []Issue {
	if blank(s) {
		return []Issue{errorf(f.id, KindMissingSelector, "selector is required")}
	}
	return nil
}

func (f fieldChecker) Click(c *workflow.ClickConfig) []Issue       { return f.selector(c.Selector) }
func (f fieldChecker) TypeText(c *workflow.TypeConfig) []Issue     { return f.selector(c.Selector) }
func (f fieldChecker) Extract(c *workflow.ExtractConfig) []Issue   { return f.selector(c.Selector) }
func (f fieldChecker) ReadText(c *workflow.ReadTextConfig) []Issue { return f.selector(c.Selector) }
func (fieldChecker) Wait(*workflow.WaitConfig) []Issue             { return nil }
func (fieldChecker) Unknown(*workflow.UnknownConfig) []Issue       { return nil }

func (f fieldChecker) Navigate(c *workflow.NavigateConfig) []Issue {
	if blank(c.URL) {
		return []Issue{errorf(f.id, KindMissingURL, "url is required")}
	}
	return nil
}

func (f fieldChecker) ExcelRead(c *workflow.ExcelReadConfig) []Issue {
	if blank(c.FilePath) {
		return []Issue{errorf(f.id, KindMissingFilePath, "spreadsheet file path is required")}
	}
	return nil
}

func (f fieldChecker) Loop(c *workflow.LoopConfig) []Issue {
	switch c.Mode() {
	case workflow.LoopExcel:
		if blank(c.DataSource) {
			return []Issue{errorf(f.id, KindMissingDataSource, "a data source is required for spreadsheet loops")}
		}
	case workflow.LoopCount:
		if c.RepeatCount <= 0 {
			return []Issue{{
				NodeID:   f.id,
				Severity: SeverityWarning,
				Kind:     KindInvalidRepeatCount,
				Message:  "repeat count must be greater than 0",
			}}
		}
	}
	return nil
}

func (f fieldChecker) IfElse(c *workflow.IfElseConfig) []Issue {
	if blank(c.Condition) {
		return []Issue{errorf(f.id, KindMissingCondition, "condition is required")}
	}
	return nil
}

func validateStructure(ix *workflow.Index) []Issue {
	var issues []Issue
	g := ix.Graph()
	for _, e := range g.Edges {
		if !ix.Has(e.Source) {
			issues = append(issues, errorf(e.Source, KindDanglingEdge,
				"edge %s starts at missing node %s", e.ID, e.Source))
		}
		if !ix.Has(e.Target) {
			issues = append(issues, errorf(e.Target, KindDanglingEdge,
				"edge %s ends at missing node %s", e.ID, e.Target))
		}
		src, ok1 := ix.Node(e.Source)
		dst, ok2 := ix.Node(e.Target)
		if ok1 && ok2 && workflow.CrossesLoops(src, dst) {
			issues = append(issues, errorf(e.Source, KindCrossLoopEdge,
				"edge %s connects nodes of loops %s and %s", e.ID, src.ParentID, dst.ParentID))
		}
	}

	var nodes []*workflow.Node
	for _, n := range ix.Nodes() {
		if n.Kind.Executable() {
			nodes = append(nodes, n)
		}
	}
	if len(nodes) == 0 {
		return issues
	}

	if len(g.Edges) > 0 {
		hasEntry := false
		for _, n := range nodes {
			if len(ix.Incoming(n.ID)) == 0 {
				hasEntry = true
				break
			}
		}
		if !hasEntry {
			issues = append(issues, Issue{
				NodeID:   nodes[0].ID,
				Severity: SeverityWarning,
				Kind:     KindNoEntryPoint,
				Message:  "workflow has no start node",
			})
		}
	}

	if len(nodes) > 1 {
		for _, n := range nodes {
			if len(ix.Incoming(n.ID)) == 0 && len(ix.Outgoing(n.ID)) == 0 {
				issues = append(issues, Issue{
					NodeID:   n.ID,
					Severity: SeverityWarning,
					Kind:     KindOrphanNode,
					Message:  "node is not connected to other nodes",
				})
			}
		}
	}
	return issues
}

func errorf(id string, kind Kind, format string, args ...any) Issue {
	return Issue{NodeID: id, Severity: SeverityError, Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func blank(s string) bool {
	return strings.TrimSpace(s) == ""
}
