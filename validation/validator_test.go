//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autorpa/flowforge/workflow"
)

func node(id string, cfg workflow.ActionConfig) workflow.Node {
	return workflow.Node{
		ID:   id,
		Kind: cfg.ActionType().NodeKind(),
		Data: workflow.NodeData{Type: cfg.ActionType(), Config: cfg},
	}
}

func single(n workflow.Node) *workflow.Graph {
	return &workflow.Graph{Nodes: []workflow.Node{n}}
}

func kinds(issues []Issue) []Kind {
	var out []Kind
	for _, is := range issues {
		out = append(out, is.Kind)
	}
	return out
}

func TestClickSelectorRequired(t *testing.T) {
	cfg := &workflow.ClickConfig{Selector: ""}
	g := single(node("a", cfg))

	issues := Validate(g)
	require.Len(t, issues, 1)
	assert.Equal(t, Issue{
		NodeID:   "a",
		Severity: SeverityError,
		Kind:     KindMissingSelector,
		Message:  "selector is required",
	}, issues[0])

	cfg.Selector = "auto_id:btn1"
	assert.Empty(t, Validate(g))
}

func TestPerNodeRules(t *testing.T) {
	tests := []struct {
		name     string
		cfg      workflow.ActionConfig
		kind     Kind
		severity Severity
	}{
		{"type blank selector", &workflow.TypeConfig{Selector: "   ", Text: "x"}, KindMissingSelector, SeverityError},
		{"extract", &workflow.ExtractConfig{VariableName: "v"}, KindMissingSelector, SeverityError},
		{"read text", &workflow.ReadTextConfig{}, KindMissingSelector, SeverityError},
		{"navigate", &workflow.NavigateConfig{URL: " "}, KindMissingURL, SeverityError},
		{"excel read", &workflow.ExcelReadConfig{}, KindMissingFilePath, SeverityError},
		{"excel loop", &workflow.LoopConfig{LoopMode: workflow.LoopExcel}, KindMissingDataSource, SeverityError},
		{"default loop mode", &workflow.LoopConfig{}, KindMissingDataSource, SeverityError},
		{"count loop", &workflow.LoopConfig{LoopMode: workflow.LoopCount}, KindInvalidRepeatCount, SeverityWarning},
		{"negative count", &workflow.LoopConfig{LoopMode: workflow.LoopCount, RepeatCount: -1}, KindInvalidRepeatCount, SeverityWarning},
		{"branch", &workflow.IfElseConfig{}, KindMissingCondition, SeverityError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			issues := Validate(single(node("n", tt.cfg)))
			require.Len(t, issues, 1)
			assert.Equal(t, tt.kind, issues[0].Kind)
			assert.Equal(t, tt.severity, issues[0].Severity)
			assert.Equal(t, "n", issues[0].NodeID)
		})
	}
}

func TestValidNodes(t *testing.T) {
	cfgs := []workflow.ActionConfig{
		&workflow.WaitConfig{WaitType: workflow.WaitTime},
		&workflow.NavigateConfig{URL: "https://example.com/{{id}}"},
		&workflow.LoopConfig{LoopMode: workflow.LoopCount, RepeatCount: 3},
		&workflow.LoopConfig{LoopMode: workflow.LoopWhile},
		&workflow.IfElseConfig{Condition: "{{total}} > 0"},
		&workflow.ExcelReadConfig{FilePath: "C:/data.xlsx"},
		&workflow.UnknownConfig{Type: workflow.ActionSendEmail},
	}
	for _, cfg := range cfgs {
		assert.Empty(t, Validate(single(node("n", cfg))), "%T", cfg)
	}
}

func TestConfigProblems(t *testing.T) {
	missing := workflow.Node{ID: "m", Kind: workflow.KindAction, Data: workflow.NodeData{Type: workflow.ActionClick}}
	assert.Equal(t, []Kind{KindMissingConfig}, kinds(Validate(single(missing))))

	mismatch := workflow.Node{ID: "x", Kind: workflow.KindAction, Data: workflow.NodeData{
		Type: workflow.ActionNavigate, Config: &workflow.ClickConfig{},
	}}
	assert.Equal(t, []Kind{KindConfigMismatch}, kinds(Validate(single(mismatch))))

	wrongKind := workflow.Node{ID: "k", Kind: workflow.KindAction, Data: workflow.NodeData{
		Type: workflow.ActionLoop, Config: &workflow.LoopConfig{LoopMode: workflow.LoopCount, RepeatCount: 1},
	}}
	assert.Equal(t, []Kind{KindConfigMismatch}, kinds(Validate(single(wrongKind))))
}

func TestNotesSkipped(t *testing.T) {
	g := &workflow.Graph{Nodes: []workflow.Node{
		{ID: "note", Kind: workflow.KindNote, Data: workflow.NodeData{Title: "hello"}},
		node("a", &workflow.ClickConfig{Selector: "ok"}),
	}}
	assert.Empty(t, Validate(g))
}

func TestDanglingEdge(t *testing.T) {
	g := &workflow.Graph{
		Nodes: []workflow.Node{node("a", &workflow.ClickConfig{Selector: "s"})},
		Edges: []workflow.Edge{{ID: "e1", Source: "a", Target: "ghost"}},
	}
	issues := Validate(g)
	require.Len(t, issues, 1)
	assert.Equal(t, "ghost", issues[0].NodeID)
	assert.Equal(t, KindDanglingEdge, issues[0].Kind)
	assert.Equal(t, SeverityError, issues[0].Severity)
}

func TestStructure(t *testing.T) {
	a := node("a", &workflow.ClickConfig{Selector: "s"})
	b := node("b", &workflow.ClickConfig{Selector: "s"})
	c := node("c", &workflow.ClickConfig{Selector: "s"})

	t.Run("cycle has no entry", func(t *testing.T) {
		g := &workflow.Graph{
			Nodes: []workflow.Node{a, b},
			Edges: []workflow.Edge{{Source: "a", Target: "b"}, {Source: "b", Target: "a"}},
		}
		issues := Validate(g)
		require.Len(t, issues, 1)
		assert.Equal(t, KindNoEntryPoint, issues[0].Kind)
		assert.Equal(t, "a", issues[0].NodeID)
		assert.Equal(t, SeverityWarning, issues[0].Severity)
	})

	t.Run("orphan", func(t *testing.T) {
		g := &workflow.Graph{
			Nodes: []workflow.Node{a, b, c},
			Edges: []workflow.Edge{{Source: "a", Target: "b"}},
		}
		issues := Validate(g)
		assert.Equal(t, []Kind{KindOrphanNode}, kinds(issues))
		assert.Equal(t, "c", issues[0].NodeID)
		assert.False(t, HasErrors(issues))
	})

	t.Run("single node is not orphan", func(t *testing.T) {
		assert.Empty(t, Validate(single(a)))
	})
}

func TestScopeRules(t *testing.T) {
	l1 := node("l1", &workflow.LoopConfig{LoopMode: workflow.LoopCount, RepeatCount: 1})
	l2 := node("l2", &workflow.LoopConfig{LoopMode: workflow.LoopCount, RepeatCount: 1})
	c1 := node("c1", &workflow.ClickConfig{Selector: "s"})
	c1.ParentID = "l1"
	c2 := node("c2", &workflow.ClickConfig{Selector: "s"})
	c2.ParentID = "l2"
	stray := node("stray", &workflow.ClickConfig{Selector: "s"})
	stray.ParentID = "gone"

	g := &workflow.Graph{
		Nodes: []workflow.Node{l1, l2, c1, c2, stray, l1},
		Edges: []workflow.Edge{
			{ID: "x", Source: "c1", Target: "c2"},
			{ID: "y", Source: "l1", Target: "l2"},
			{ID: "z", Source: "l2", Target: "stray"},
		},
	}
	issues := Validate(g)
	assert.Equal(t, []Kind{KindDuplicateNode}, kinds(ForNode("l1", issues)))
	assert.Equal(t, []Kind{KindInvalidParent}, kinds(ForNode("stray", issues)))
	assert.Equal(t, []Kind{KindCrossLoopEdge}, kinds(ForNode("c1", issues)))
	assert.True(t, NodeHasErrors("c1", issues))
	assert.False(t, NodeHasWarnings("c1", issues))
}

func TestErr(t *testing.T) {
	assert.NoError(t, Err([]Issue{{NodeID: "a", Severity: SeverityWarning}}))

	err := Err([]Issue{
		{NodeID: "a", Severity: SeverityWarning, Kind: KindOrphanNode},
		{NodeID: "b", Severity: SeverityError, Kind: KindMissingURL, Message: "url is required"},
	})
	require.Error(t, err)
	var verr *Error
	require.True(t, errors.As(err, &verr))
	assert.Len(t, verr.Issues, 1)
	assert.Contains(t, err.Error(), "b [missing-url]")
}

func TestValidateEmpty(t *testing.T) {
	assert.Empty(t, Validate(&workflow.Graph{}))
	assert.Empty(t, Validate(nil))
}
