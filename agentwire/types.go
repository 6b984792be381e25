//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package agentwire converts an editable workflow graph into the nested
// instruction format executed by the desktop automation agent.
//
// The JSON produced here is read by deployed agents; field names and nesting
// must not change.
package agentwire

import (
	json "github.com/goccy/go-json"

	"github.com/autorpa/flowforge/workflow"
)

// Workflow is the document posted to the agent's /execute endpoint.
type Workflow struct {
	Name      string         `json:"name"`
	Nodes     []Node         `json:"nodes"`
	Edges     []Edge         `json:"edges"`
	Variables map[string]any `json:"variables,omitempty"`
}

// NodeType tags an agent node.
type NodeType string

// Agent node types.
const (
	TypeAction NodeType = "action"
	TypeLoop   NodeType = "loop"
	TypeIfElse NodeType = "ifElse"
)

// Node is one instruction. Data fields depend on Type.
type Node struct {
	ID       string             `json:"id"`
	Type     NodeType           `json:"type"`
	Data     NodeData           `json:"data"`
	Position *workflow.Position `json:"position,omitempty"`
}

// NodeData is the union of the per-type payloads.
type NodeData struct {
	// action
	ActionType string         `json:"actionType,omitempty"`
	Params     map[string]any `json:"params,omitempty"`

	// loop
	LoopType   string  `json:"loopType,omitempty"`
	Source     *string `json:"source,omitempty"`
	Iterations *int    `json:"iterations,omitempty"`
	ChildNodes []Node  `json:"childNodes,omitempty"`
	ChildEdges []Edge  `json:"childEdges,omitempty"`

	// loop (until, while) and ifElse
	Condition *string `json:"condition,omitempty"`

	// ifElse
	TrueNodes  []Node `json:"trueNodes,omitempty"`
	FalseNodes []Node `json:"falseNodes,omitempty"`
}

// Edge is a connection inside one scope.
type Edge struct {
	ID           string `json:"id"`
	Source       string `json:"source"`
	Target       string `json:"target"`
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

type actionData struct {
	ActionType string         `json:"actionType"`
	Params     map[string]any `json:"params"`
}

type loopData struct {
	LoopType   string  `json:"loopType"`
	Source     *string `json:"source,omitempty"`
	Iterations *int    `json:"iterations,omitempty"`
	Condition  *string `json:"condition,omitempty"`
	ChildNodes []Node  `json:"childNodes"`
	ChildEdges []Edge  `json:"childEdges"`
}

type ifElseData struct {
	Condition  string `json:"condition"`
	TrueNodes  []Node `json:"trueNodes"`
	FalseNodes []Node `json:"falseNodes"`
}

// MarshalJSON writes only the data members that belong to the node type and
// always writes the collections of that type, empty or not.
func (n Node) MarshalJSON() ([]byte, error) {
	var data any
	switch n.Type {
	case TypeAction:
		params := n.Data.Params
		if params == nil {
			params = map[string]any{}
		}
		data = actionData{ActionType: n.Data.ActionType, Params: params}
	case TypeLoop:
		data = loopData{
			LoopType:   n.Data.LoopType,
			Source:     n.Data.Source,
			Iterations: n.Data.Iterations,
			Condition:  n.Data.Condition,
			ChildNodes: nonNilNodes(n.Data.ChildNodes),
			ChildEdges: nonNilEdges(n.Data.ChildEdges),
		}
	case TypeIfElse:
		cond := ""
		if n.Data.Condition != nil {
			cond = *n.Data.Condition
		}
		data = ifElseData{
			Condition:  cond,
			TrueNodes:  nonNilNodes(n.Data.TrueNodes),
			FalseNodes: nonNilNodes(n.Data.FalseNodes),
		}
	default:
		data = n.Data
	}
	return json.Marshal(struct {
		ID       string             `json:"id"`
		Type     NodeType           `json:"type"`
		Data     any                `json:"data"`
		Position *workflow.Position `json:"position,omitempty"`
	}{n.ID, n.Type, data, n.Position})
}

func nonNilNodes(n []Node) []Node {
	if n == nil {
		return []Node{}
	}
	return n
}

func nonNilEdges(e []Edge) []Edge {
	if e == nil {
		return []Edge{}
	}
	return e
}
