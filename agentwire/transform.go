//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package agentwire

import (
	"github.com/autorpa/flowforge/workflow"
)

// Parameter defaults applied when a config leaves a field unset.
const (
	DefaultWaitSeconds  = 1
	DefaultWaitTimeout  = 30
	DefaultIterations   = 1
	DefaultTextVariable = "text"
)

// Agent loop types.
const (
	LoopTypeExcel = "excel"
	LoopTypeTimes = "times"
	LoopTypeUntil = "until"
	LoopTypeWhile = "while"
)

// Agent wait types.
const (
	WaitParamTime    = "time"
	WaitParamElement = "element"
)

var actionTypeNames = map[workflow.ActionType]string{
	workflow.ActionReadText: "readText",
}

var loopTypeNames = map[workflow.LoopMode]string{
	workflow.LoopExcel: LoopTypeExcel,
	workflow.LoopCount: LoopTypeTimes,
	workflow.LoopUntil: LoopTypeUntil,
	workflow.LoopWhile: LoopTypeWhile,
}

// Transform converts g into the agent format. Root-level nodes become the
// top-level sequence ordered along their edges; loop bodies are nested
// recursively and branch arms hold the nodes directly connected to the
// branch's true and false outputs within the same scope. Notes are dropped.
//
// Transform does not validate and never fails: missing fields become empty
// values. It does not modify g.
func Transform(name string, g *workflow.Graph, variables map[string]any) *Workflow {
	t := &transformer{
		ix:   workflow.NewIndex(g),
		path: make(map[string]bool),
	}
	return &Workflow{
		Name:      name,
		Nodes:     t.scope(workflow.RootScope),
		Edges:     convertEdges(t.ix.ScopeEdges(workflow.RootScope)),
		Variables: variables,
	}
}

type transformer struct {
	ix *workflow.Index
	// path holds the nodes being expanded, so that a loop that contains
	// itself or a branch that reaches itself is emitted only once.
	path map[string]bool
}

func (t *transformer) scope(parent string) []Node {
	nodes := t.ix.OrderedScope(parent)
	out := make([]Node, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, t.node(n))
	}
	return out
}

func (t *transformer) node(n *workflow.Node) Node {
	pos := n.Position
	out := Node{ID: n.ID, Type: nodeType(n), Position: &pos}
	expand := !t.path[n.ID]
	if expand {
		t.path[n.ID] = true
		defer delete(t.path, n.ID)
	}

	switch out.Type {
	case TypeLoop:
		out.Data = t.loop(n, expand)
	case TypeIfElse:
		out.Data = t.branch(n, expand)
	default:
		out.Data = action(n)
	}
	return out
}

func nodeType(n *workflow.Node) NodeType {
	kind := n.Kind
	if kind != workflow.KindAction && kind != workflow.KindLoop && kind != workflow.KindBranch {
		kind = workflow.KindAction
		if n.Data.Config != nil {
			kind = n.Data.Config.ActionType().NodeKind()
		}
	}
	switch kind {
	case workflow.KindLoop:
		return TypeLoop
	case workflow.KindBranch:
		return TypeIfElse
	default:
		return TypeAction
	}
}

func action(n *workflow.Node) NodeData {
	at := n.Data.Type
	if at == "" && n.Data.Config != nil {
		at = n.Data.Config.ActionType()
	}
	name, ok := actionTypeNames[at]
	if !ok {
		name = string(at)
	}
	params := workflow.VisitConfig[map[string]any](n.Data.Config, paramBuilder{})
	if params == nil {
		params = map[string]any{}
	}
	return NodeData{ActionType: name, Params: params}
}

func (t *transformer) loop(n *workflow.Node, expand bool) NodeData {
	cfg, ok := n.Data.Config.(*workflow.LoopConfig)
	if !ok {
		cfg = &workflow.LoopConfig{}
	}
	mode := cfg.Mode()
	loopType, ok := loopTypeNames[mode]
	if !ok {
		loopType = LoopTypeExcel
	}
	data := NodeData{LoopType: loopType}
	switch mode {
	case workflow.LoopExcel:
		src := cfg.DataSource
		data.Source = &src
	case workflow.LoopCount:
		iterations := cfg.RepeatCount
		if iterations == 0 {
			iterations = DefaultIterations
		}
		data.Iterations = &iterations
	case workflow.LoopUntil, workflow.LoopWhile:
		cond := cfg.Condition
		data.Condition = &cond
	}
	if expand {
		data.ChildNodes = t.scope(n.ID)
		data.ChildEdges = convertEdges(t.ix.ScopeEdges(n.ID))
	}
	return data
}

func (t *transformer) branch(n *workflow.Node, expand bool) NodeData {
	cond := ""
	if cfg, ok := n.Data.Config.(*workflow.IfElseConfig); ok {
		cond = cfg.Condition
	}
	data := NodeData{Condition: &cond}
	if !expand {
		return data
	}
	trueIDs := make(map[string]bool)
	falseIDs := make(map[string]bool)
	for _, e := range t.ix.Outgoing(n.ID) {
		switch e.SourceHandle {
		case workflow.HandleTrue:
			trueIDs[e.Target] = true
		case workflow.HandleFalse:
			falseIDs[e.Target] = true
		}
	}
	for _, sibling := range t.ix.OrderedScope(n.ParentID) {
		if trueIDs[sibling.ID] {
			data.TrueNodes = append(data.TrueNodes, t.node(sibling))
		}
		if falseIDs[sibling.ID] {
			data.FalseNodes = append(data.FalseNodes, t.node(sibling))
		}
	}
	return data
}

func convertEdges(edges []workflow.Edge) []Edge {
	out := make([]Edge, 0, len(edges))
	for _, e := range edges {
		out = append(out, Edge{
			ID:           e.ID,
			Source:       e.Source,
			Target:       e.Target,
			SourceHandle: e.SourceHandle,
			TargetHandle: e.TargetHandle,
		})
	}
	return out
}

// paramBuilder derives the agent params of an action node.
type paramBuilder struct{}

func (paramBuilder) Click(c *workflow.ClickConfig) map[string]any {
	p := map[string]any{"selector": ParseSelector(c.Selector)}
	if c.ClickType != "" {
		p["double"] = c.ClickType == "double"
	}
	return p
}

func (paramBuilder) TypeText(c *workflow.TypeConfig) map[string]any {
	return map[string]any{"selector": ParseSelector(c.Selector), "text": c.Text}
}

func (paramBuilder) Wait(c *workflow.WaitConfig) map[string]any {
	if c.WaitsForElement() {
		timeout := c.Timeout
		if timeout == 0 {
			timeout = DefaultWaitTimeout
		}
		return map[string]any{
			"waitType": WaitParamElement,
			"selector": ParseSelector(c.Selector),
			"timeout":  timeout,
		}
	}
	seconds := c.Duration
	if seconds == 0 {
		seconds = DefaultWaitSeconds
	}
	return map[string]any{"waitType": WaitParamTime, "seconds": seconds}
}

func (paramBuilder) Navigate(c *workflow.NavigateConfig) map[string]any {
	return map[string]any{"url": c.URL}
}

func (paramBuilder) Extract(c *workflow.ExtractConfig) map[string]any {
	return readParams(c.Selector, c.VariableName)
}

func (paramBuilder) ReadText(c *workflow.ReadTextConfig) map[string]any {
	return readParams(c.Selector, c.VariableName)
}

func readParams(selector, variable string) map[string]any {
	if variable == "" {
		variable = DefaultTextVariable
	}
	return map[string]any{"selector": ParseSelector(selector), "variableName": variable}
}

func (paramBuilder) ExcelRead(*workflow.ExcelReadConfig) map[string]any { return map[string]any{} }
func (paramBuilder) Loop(*workflow.LoopConfig) map[string]any           { return map[string]any{} }
func (paramBuilder) IfElse(*workflow.IfElseConfig) map[string]any       { return map[string]any{} }
func (paramBuilder) Unknown(*workflow.UnknownConfig) map[string]any     { return map[string]any{} }
