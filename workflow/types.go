//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package workflow defines the editable RPA workflow graph: typed nodes with
// an optional enclosing loop, directed edges and the per-action configuration
// carried by each executable node.
package workflow

import (
	"strings"

	json "github.com/goccy/go-json"
)

// Kind is the structural role of a node on the canvas.
type Kind string

// Node kinds.
const (
	KindAction Kind = "action"
	KindLoop   Kind = "loop"
	KindBranch Kind = "ifElse"
	KindNote   Kind = "note"
)

// UnmarshalJSON accepts the canonical kind names plus the "if-else" alias
// written by older editors.
func (k *Kind) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	*k = ParseKind(s)
	return nil
}

// ParseKind normalises a kind name. Unknown names are kept verbatim.
func ParseKind(s string) Kind {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "action":
		return KindAction
	case "loop":
		return KindLoop
	case "ifelse", "if-else", "branch":
		return KindBranch
	case "note":
		return KindNote
	default:
		return Kind(s)
	}
}

// Executable reports whether nodes of this kind take part in validation and
// transformation.
func (k Kind) Executable() bool {
	return k != KindNote
}

// ActionType identifies the automation step a node performs.
type ActionType string

// Action types.
const (
	ActionClick      ActionType = "click"
	ActionTypeText   ActionType = "type"
	ActionWait       ActionType = "wait"
	ActionNavigate   ActionType = "navigate"
	ActionExtract    ActionType = "extract"
	ActionReadText   ActionType = "read-text"
	ActionExcelRead  ActionType = "excel-read"
	ActionLoop       ActionType = "loop"
	ActionIfElse     ActionType = "if-else"
	ActionSendEmail  ActionType = "send-email"
	ActionExcelWrite ActionType = "excel-write"
)

// NodeKind returns the node kind an action type is placed in.
func (t ActionType) NodeKind() Kind {
	switch t {
	case ActionLoop:
		return KindLoop
	case ActionIfElse:
		return KindBranch
	default:
		return KindAction
	}
}

// Position is the canvas coordinate of a node. It has no execution meaning.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a vertex of the workflow graph.
type Node struct {
	// ID is unique within the graph and stable for the node's lifetime.
	ID string `json:"id"`

	// Kind is the node's structural role (serialised as "type").
	Kind Kind `json:"type"`

	// Position is the canvas coordinate.
	Position Position `json:"position"`

	// ParentID is the id of the enclosing loop, empty at root level.
	ParentID string `json:"parentId,omitempty"`

	// Data holds the label and configuration.
	Data NodeData `json:"data"`
}

// IsChild reports whether the node is nested inside a loop.
func (n *Node) IsChild() bool {
	return n.ParentID != ""
}

// NodeData is the payload of a node. Executable nodes use Label, Type and
// Config; note nodes use Title, Content and Color.
type NodeData struct {
	Label  string       `json:"label,omitempty"`
	Type   ActionType   `json:"type,omitempty"`
	Config ActionConfig `json:"-"`

	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	Color   string `json:"color,omitempty"`
}

type nodeDataJSON struct {
	Label   string          `json:"label,omitempty"`
	Type    ActionType      `json:"type,omitempty"`
	Config  json.RawMessage `json:"config,omitempty"`
	Title   string          `json:"title,omitempty"`
	Content string          `json:"content,omitempty"`
	Color   string          `json:"color,omitempty"`
}

// MarshalJSON writes the config as a nested object tagged with its type.
func (d NodeData) MarshalJSON() ([]byte, error) {
	out := nodeDataJSON{
		Label:   d.Label,
		Type:    d.Type,
		Title:   d.Title,
		Content: d.Content,
		Color:   d.Color,
	}
	if d.Config != nil {
		raw, err := MarshalConfig(d.Config)
		if err != nil {
			return nil, err
		}
		out.Config = raw
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the config variant selected by its "type" field,
// falling back to the node's action type when the config omits it.
func (d *NodeData) UnmarshalJSON(data []byte) error {
	var in nodeDataJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*d = NodeData{
		Label:   in.Label,
		Type:    in.Type,
		Title:   in.Title,
		Content: in.Content,
		Color:   in.Color,
	}
	if len(in.Config) == 0 || string(in.Config) == "null" {
		return nil
	}
	cfg, err := UnmarshalConfig(in.Config, in.Type)
	if err != nil {
		return err
	}
	d.Config = cfg
	return nil
}

// Edge is a directed connection between two nodes.
type Edge struct {
	ID     string `json:"id"`
	Source string `json:"source"`
	Target string `json:"target"`

	// SourceHandle is "true" or "false" on branch outputs.
	SourceHandle string `json:"sourceHandle,omitempty"`
	TargetHandle string `json:"targetHandle,omitempty"`
}

// Branch handle values.
const (
	HandleTrue  = "true"
	HandleFalse = "false"
)

// Graph is the editable workflow: an arena of nodes plus edges between them.
// Graph values are treated as immutable by every function in this module.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Clone returns a deep copy of the node and edge slices.
func (g *Graph) Clone() *Graph {
	if g == nil {
		return &Graph{}
	}
	out := &Graph{
		Nodes: make([]Node, len(g.Nodes)),
		Edges: make([]Edge, len(g.Edges)),
	}
	copy(out.Nodes, g.Nodes)
	copy(out.Edges, g.Edges)
	for i := range out.Nodes {
		if c := out.Nodes[i].Data.Config; c != nil {
			out.Nodes[i].Data.Config = CloneConfig(c)
		}
	}
	return out
}
