//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package workflow

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func action(id, parent string) Node {
	return Node{ID: id, Kind: KindAction, ParentID: parent,
		Data: NodeData{Type: ActionClick, Config: &ClickConfig{Selector: "x"}}}
}

func loopNode(id, parent string) Node {
	return Node{ID: id, Kind: KindLoop, ParentID: parent,
		Data: NodeData{Type: ActionLoop, Config: &LoopConfig{LoopMode: LoopCount, RepeatCount: 2}}}
}

func ids(nodes []*Node) []string {
	out := make([]string, len(nodes))
	for i, n := range nodes {
		out[i] = n.ID
	}
	return out
}

func TestOrderedScope(t *testing.T) {
	tests := []struct {
		name  string
		nodes []Node
		edges []Edge
		want  []string
	}{
		{
			name:  "edge reverses input order",
			nodes: []Node{action("b", ""), action("a", "")},
			edges: []Edge{{ID: "e", Source: "a", Target: "b"}},
			want:  []string{"a", "b"},
		},
		{
			name:  "unconnected keep input order",
			nodes: []Node{action("x", ""), action("y", ""), action("z", "")},
			want:  []string{"x", "y", "z"},
		},
		{
			name:  "diamond",
			nodes: []Node{action("d", ""), action("c", ""), action("b", ""), action("a", "")},
			edges: []Edge{
				{Source: "a", Target: "b"}, {Source: "a", Target: "c"},
				{Source: "b", Target: "d"}, {Source: "c", Target: "d"},
			},
			want: []string{"a", "c", "b", "d"},
		},
		{
			name:  "cycle remainder appended",
			nodes: []Node{action("p", ""), action("q", ""), action("r", "")},
			edges: []Edge{{Source: "p", Target: "q"}, {Source: "q", Target: "p"}},
			want:  []string{"r", "p", "q"},
		},
		{
			name:  "children and notes excluded",
			nodes: []Node{loopNode("l", ""), action("c", "l"), {ID: "n", Kind: KindNote}, action("a", "")},
			edges: []Edge{{Source: "a", Target: "l"}, {Source: "l", Target: "c"}},
			want:  []string{"a", "l"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ix := NewIndex(&Graph{Nodes: tt.nodes, Edges: tt.edges})
			assert.Equal(t, tt.want, ids(ix.OrderedScope(RootScope)))
		})
	}
}

func TestScopeEdges(t *testing.T) {
	g := &Graph{
		Nodes: []Node{loopNode("l", ""), action("c1", "l"), action("c2", "l"), action("r", "")},
		Edges: []Edge{
			{ID: "in", Source: "c1", Target: "c2"},
			{ID: "out", Source: "r", Target: "c1"},
			{ID: "ghost", Source: "c2", Target: "missing"},
		},
	}
	ix := NewIndex(g)
	require.Len(t, ix.ScopeEdges("l"), 1)
	assert.Equal(t, "in", ix.ScopeEdges("l")[0].ID)
	assert.Empty(t, ix.ScopeEdges(RootScope))
	assert.Equal(t, []string{"c1", "c2"}, ids(ix.OrderedScope("l")))
	assert.Equal(t, []string{"r"}, ids(ix.Predecessors("c1")))
}

func TestCheckParent(t *testing.T) {
	g := &Graph{Nodes: []Node{
		loopNode("l1", ""),
		loopNode("l2", "l1"),
		action("ok", "l2"),
		action("orphan", "gone"),
		action("plain", ""),
		action("underAction", "plain"),
		loopNode("c1", "c2"),
		loopNode("c2", "c1"),
	}}
	ix := NewIndex(g)
	assert.NoError(t, ix.CheckParent("ok"))
	assert.True(t, errors.Is(ix.CheckParent("orphan"), ErrParentNotFound))
	assert.True(t, errors.Is(ix.CheckParent("underAction"), ErrParentNotLoop))
	assert.True(t, errors.Is(ix.CheckParent("c1"), ErrParentCycle))
	assert.True(t, errors.Is(ix.CheckParent("nope"), ErrUnknownNode))
}

func TestDuplicates(t *testing.T) {
	ix := NewIndex(&Graph{Nodes: []Node{action("a", ""), action("a", ""), action("b", "")}})
	assert.Equal(t, []string{"a"}, ix.Duplicates())
	assert.Equal(t, []string{"a", "b"}, ids(ix.Nodes()))
}

func TestCanConnect(t *testing.T) {
	g := &Graph{Nodes: []Node{
		loopNode("l1", ""), loopNode("l2", ""),
		action("a1", "l1"), action("a2", "l1"), action("b1", "l2"),
		action("r", ""), {ID: "n", Kind: KindNote},
	}}
	tests := []struct {
		source, target string
		want           error
	}{
		{"a1", "a2", nil},
		{"r", "l1", nil},
		{"r", "a1", nil},
		{"a1", "b1", ErrCrossLoopEdge},
		{"b1", "a2", ErrCrossLoopEdge},
		{"a1", "a1", ErrSelfLoop},
		{"a1", "ghost", ErrUnknownNode},
		{"r", "n", ErrNoteEndpoint},
	}
	for _, tt := range tests {
		err := CanConnect(g, tt.source, tt.target)
		if tt.want == nil {
			assert.NoError(t, err, "%s->%s", tt.source, tt.target)
			continue
		}
		assert.ErrorIs(t, err, tt.want, "%s->%s", tt.source, tt.target)
	}
}

func TestSearch(t *testing.T) {
	nodes := []Node{
		{ID: "1", Kind: KindAction, Data: NodeData{Label: "Guardar factura", Type: ActionClick,
			Config: &ClickConfig{}}},
		{ID: "2", Kind: KindAction, Data: NodeData{Label: "Leer", Type: ActionReadText,
			Config: &ReadTextConfig{Common: Common{Description: "lee el total de la factura"}}}},
		{ID: "3", Kind: KindAction, Data: NodeData{Label: "Abrir", Type: ActionNavigate,
			Config: &NavigateConfig{}}},
		{ID: "4", Kind: KindNote, Data: NodeData{Title: "Factura pendiente"}},
	}
	got := Search(nodes, "  FACTURA ")
	require.Len(t, got, 3)
	assert.Equal(t, SearchResult{NodeID: "1", MatchType: MatchLabel, MatchedText: "Guardar factura"}, got[0])
	assert.Equal(t, MatchDescription, got[1].MatchType)
	assert.Equal(t, "4", got[2].NodeID)

	got = Search(nodes, "navig")
	require.Len(t, got, 1)
	assert.Equal(t, MatchActionType, got[0].MatchType)

	assert.Empty(t, Search(nodes, "   "))
}
