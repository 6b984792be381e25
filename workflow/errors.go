//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package workflow

import "errors"

// Connection errors returned by CanConnect.
var (
	ErrUnknownNode   = errors.New("workflow: node not found")
	ErrSelfLoop      = errors.New("workflow: node cannot connect to itself")
	ErrNoteEndpoint  = errors.New("workflow: notes cannot be connected")
	ErrCrossLoopEdge = errors.New("workflow: nodes in different loops cannot be connected")
)

// Parent errors returned by Index.CheckParent.
var (
	ErrParentNotFound = errors.New("workflow: parent not found")
	ErrParentNotLoop  = errors.New("workflow: parent is not a loop")
	ErrParentCycle    = errors.New("workflow: parent chain forms a cycle")
)
