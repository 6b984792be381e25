//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package workflow

import "strings"

// MatchType tells which field a search hit came from.
type MatchType string

// Match types, in the order they are tried.
const (
	MatchLabel       MatchType = "label"
	MatchActionType  MatchType = "type"
	MatchDescription MatchType = "description"
)

// SearchResult is one node matched by Search.
type SearchResult struct {
	NodeID      string    `json:"nodeId"`
	MatchType   MatchType `json:"matchType"`
	MatchedText string    `json:"matchedText"`
}

// Search finds nodes whose label, action type or config description contain
// term, ignoring case. Each node is reported at most once, by the first
// field that matches. A blank term matches nothing.
func Search(nodes []Node, term string) []SearchResult {
	term = strings.ToLower(strings.TrimSpace(term))
	if term == "" {
		return nil
	}
	var out []SearchResult
	for i := range nodes {
		n := &nodes[i]
		label := n.Data.Label
		if n.Kind == KindNote && label == "" {
			label = n.Data.Title
		}
		switch {
		case strings.Contains(strings.ToLower(label), term):
			out = append(out, SearchResult{NodeID: n.ID, MatchType: MatchLabel, MatchedText: label})
		case strings.Contains(strings.ToLower(string(n.Data.Type)), term):
			out = append(out, SearchResult{NodeID: n.ID, MatchType: MatchActionType, MatchedText: string(n.Data.Type)})
		case n.Data.Config != nil &&
			strings.Contains(strings.ToLower(n.Data.Config.Meta().Description), term):
			desc := n.Data.Config.Meta().Description
			out = append(out, SearchResult{NodeID: n.ID, MatchType: MatchDescription, MatchedText: desc})
		}
	}
	return out
}
