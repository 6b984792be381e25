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
	"regexp"
	"strings"

	json "github.com/goccy/go-json"
)

// Selector identifies a UI control. The agent understands the keys auto_id,
// title, control_type and class_name.
type Selector map[string]any

// Selector keys understood by the agent.
const (
	SelectorAutoID      = "auto_id"
	SelectorTitle       = "title"
	SelectorControlType = "control_type"
	SelectorClassName   = "class_name"
)

var keyValuePattern = regexp.MustCompile(`^(\w+):(.+)$`)

// ParseSelector interprets a free-form selector string. In order of
// priority: a JSON object is used as is, "key:value" becomes {key: value}
// and any other text becomes {title: text}. Blank input yields an empty,
// non-nil selector. ParseSelector never fails.
func ParseSelector(s string) Selector {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return Selector{}
	}
	if strings.HasPrefix(trimmed, "{") {
		var obj map[string]any
		if err := json.Unmarshal([]byte(trimmed), &obj); err == nil && obj != nil {
			return Selector(obj)
		}
	}
	if m := keyValuePattern.FindStringSubmatch(trimmed); m != nil {
		return Selector{m[1]: m[2]}
	}
	return Selector{SelectorTitle: trimmed}
}
