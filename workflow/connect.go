//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package workflow

import "fmt"

// CanConnect reports whether an edge from source to target may be added.
// Children of two different loops can never be connected.
func (ix *Index) CanConnect(source, target string) error {
	src, ok := ix.byID[source]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, source)
	}
	dst, ok := ix.byID[target]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownNode, target)
	}
	if source == target {
		return fmt.Errorf("%w: %s", ErrSelfLoop, source)
	}
	if src.Kind == KindNote || dst.Kind == KindNote {
		return ErrNoteEndpoint
	}
	if CrossesLoops(src, dst) {
		return fmt.Errorf("%w: %s is in %s, %s is in %s",
			ErrCrossLoopEdge, source, src.ParentID, target, dst.ParentID)
	}
	return nil
}

// CrossesLoops reports whether a and b are children of two different loops.
func CrossesLoops(a, b *Node) bool {
	return a.ParentID != "" && b.ParentID != "" && a.ParentID != b.ParentID
}

// CanConnect is a convenience wrapper that indexes g first.
func CanConnect(g *Graph, source, target string) error {
	return NewIndex(g).CanConnect(source, target)
}
