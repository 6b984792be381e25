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
	"fmt"
	"sort"
)

// RootScope is the scope key of nodes without a parent.
const RootScope = ""

// Index is a read-only lookup structure built once per graph version. It
// must not be used after the graph it was built from is modified.
type Index struct {
	graph    *Graph
	byID     map[string]*Node
	order    map[string]int
	children map[string][]*Node
	incoming map[string][]*Edge
	outgoing map[string][]*Edge
	dupes    []string
}

// NewIndex indexes g. When ids repeat, the first node wins and the
// repeated ids are reported by Duplicates.
func NewIndex(g *Graph) *Index {
	if g == nil {
		g = &Graph{}
	}
	ix := &Index{
		graph:    g,
		byID:     make(map[string]*Node, len(g.Nodes)),
		order:    make(map[string]int, len(g.Nodes)),
		children: make(map[string][]*Node),
		incoming: make(map[string][]*Edge),
		outgoing: make(map[string][]*Edge),
	}
	for i := range g.Nodes {
		n := &g.Nodes[i]
		if _, ok := ix.byID[n.ID]; ok {
			ix.dupes = append(ix.dupes, n.ID)
			continue
		}
		ix.byID[n.ID] = n
		ix.order[n.ID] = i
		ix.children[n.ParentID] = append(ix.children[n.ParentID], n)
	}
	for i := range g.Edges {
		e := &g.Edges[i]
		ix.outgoing[e.Source] = append(ix.outgoing[e.Source], e)
		ix.incoming[e.Target] = append(ix.incoming[e.Target], e)
	}
	return ix
}

// Graph returns the indexed graph.
func (ix *Index) Graph() *Graph { return ix.graph }

// Node looks a node up by id.
func (ix *Index) Node(id string) (*Node, bool) {
	n, ok := ix.byID[id]
	return n, ok
}

// Has reports whether a node with the id exists.
func (ix *Index) Has(id string) bool {
	_, ok := ix.byID[id]
	return ok
}

// Nodes returns the distinct nodes in input order.
func (ix *Index) Nodes() []*Node {
	out := make([]*Node, 0, len(ix.byID))
	for i := range ix.graph.Nodes {
		n := &ix.graph.Nodes[i]
		if ix.byID[n.ID] == n {
			out = append(out, n)
		}
	}
	return out
}

// Duplicates returns ids that appear on more than one node.
func (ix *Index) Duplicates() []string { return ix.dupes }

// Children returns the nodes whose parent is the given id, notes included,
// in input order. Use RootScope for root-level nodes.
func (ix *Index) Children(parent string) []*Node { return ix.children[parent] }

// Incoming returns the edges that end at id.
func (ix *Index) Incoming(id string) []*Edge { return ix.incoming[id] }

// Outgoing returns the edges that start at id.
func (ix *Index) Outgoing(id string) []*Edge { return ix.outgoing[id] }

// Predecessors returns the existing source nodes of the edges ending at id,
// in edge order.
func (ix *Index) Predecessors(id string) []*Node {
	var out []*Node
	for _, e := range ix.incoming[id] {
		if n, ok := ix.byID[e.Source]; ok {
			out = append(out, n)
		}
	}
	return out
}

// SameScope reports whether both ids exist and share a parent.
func (ix *Index) SameScope(a, b string) bool {
	na, ok := ix.byID[a]
	if !ok {
		return false
	}
	nb, ok := ix.byID[b]
	if !ok {
		return false
	}
	return na.ParentID == nb.ParentID
}

// CheckParent verifies that the parent chain of id ends at the root, only
// passes through loops and has no cycle.
func (ix *Index) CheckParent(id string) error {
	n, ok := ix.byID[id]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, id)
	}
	seen := map[string]bool{id: true}
	for n.ParentID != "" {
		p, ok := ix.byID[n.ParentID]
		if !ok {
			return fmt.Errorf("%w: %s", ErrParentNotFound, n.ParentID)
		}
		if p.Kind != KindLoop {
			return fmt.Errorf("%w: %s", ErrParentNotLoop, p.ID)
		}
		if seen[p.ID] {
			return fmt.Errorf("%w: %s", ErrParentCycle, p.ID)
		}
		seen[p.ID] = true
		n = p
	}
	return nil
}

// scopeMembers returns the executable nodes of a scope keyed by id.
func (ix *Index) scopeMembers(parent string) map[string]*Node {
	members := make(map[string]*Node)
	for _, n := range ix.children[parent] {
		if n.Kind.Executable() {
			members[n.ID] = n
		}
	}
	return members
}

// ScopeEdges returns the edges whose endpoints are both executable nodes of
// the given scope, in input order.
func (ix *Index) ScopeEdges(parent string) []Edge {
	members := ix.scopeMembers(parent)
	var out []Edge
	for _, e := range ix.graph.Edges {
		if members[e.Source] != nil && members[e.Target] != nil {
			out = append(out, e)
		}
	}
	return out
}

// OrderedScope returns the executable nodes of a scope ordered so that every
// edge inside the scope points forward. Ties keep input order. Nodes caught
// in a cycle are appended in input order.
func (ix *Index) OrderedScope(parent string) []*Node {
	var nodes []*Node
	for _, n := range ix.children[parent] {
		if n.Kind.Executable() {
			nodes = append(nodes, n)
		}
	}
	if len(nodes) < 2 {
		return nodes
	}

	indegree := make(map[string]int, len(nodes))
	next := make(map[string][]string, len(nodes))
	for _, e := range ix.ScopeEdges(parent) {
		indegree[e.Target]++
		next[e.Source] = append(next[e.Source], e.Target)
	}

	var ready []*Node
	for _, n := range nodes {
		if indegree[n.ID] == 0 {
			ready = append(ready, n)
		}
	}

	out := make([]*Node, 0, len(nodes))
	placed := make(map[string]bool, len(nodes))
	for len(ready) > 0 {
		n := ready[0]
		ready = ready[1:]
		out = append(out, n)
		placed[n.ID] = true
		for _, t := range next[n.ID] {
			indegree[t]--
			if indegree[t] == 0 {
				ready = ix.insertByOrder(ready, ix.byID[t])
			}
		}
	}
	for _, n := range nodes {
		if !placed[n.ID] {
			out = append(out, n)
		}
	}
	return out
}

func (ix *Index) insertByOrder(ready []*Node, n *Node) []*Node {
	pos := sort.Search(len(ready), func(i int) bool {
		return ix.order[ready[i].ID] > ix.order[n.ID]
	})
	ready = append(ready, nil)
	copy(ready[pos+1:], ready[pos:])
	ready[pos] = n
	return ready
}
