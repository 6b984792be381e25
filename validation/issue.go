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
	"fmt"
	"strings"
)

// Severity of an issue. Only errors block execution.
type Severity string

// Severities.
const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Kind classifies an issue.
type Kind string

// Issue kinds.
const (
	KindMissingConfig      Kind = "missing-config"
	KindConfigMismatch     Kind = "config-mismatch"
	KindMissingSelector    Kind = "missing-selector"
	KindMissingURL         Kind = "missing-url"
	KindMissingDataSource  Kind = "missing-data-source"
	KindInvalidRepeatCount Kind = "invalid-repeat-count"
	KindMissingCondition   Kind = "missing-condition"
	KindMissingFilePath    Kind = "missing-file-path"
	KindInvalidParent      Kind = "invalid-parent"
	KindDuplicateNode      Kind = "duplicate-node"
	KindDanglingEdge       Kind = "dangling-edge"
	KindCrossLoopEdge      Kind = "cross-loop-edge"
	KindNoEntryPoint       Kind = "no-entry-point"
	KindOrphanNode         Kind = "orphan-node"
)

// Issue is a single finding attributed to a node id.
type Issue struct {
	NodeID   string   `json:"nodeId"`
	Severity Severity `json:"severity"`
	Kind     Kind     `json:"type"`
	Message  string   `json:"message"`
}

func (i Issue) String() string {
	return fmt.Sprintf("%s %s [%s]: %s", i.Severity, i.NodeID, i.Kind, i.Message)
}

// ForNode returns the issues attributed to id.
func ForNode(id string, issues []Issue) []Issue {
	var out []Issue
	for _, is := range issues {
		if is.NodeID == id {
			out = append(out, is)
		}
	}
	return out
}

// HasErrors reports whether any issue is an error.
func HasErrors(issues []Issue) bool {
	for _, is := range issues {
		if is.Severity == SeverityError {
			return true
		}
	}
	return false
}

// NodeHasErrors reports whether id has an error.
func NodeHasErrors(id string, issues []Issue) bool {
	return has(id, SeverityError, issues)
}

// NodeHasWarnings reports whether id has a warning.
func NodeHasWarnings(id string, issues []Issue) bool {
	return has(id, SeverityWarning, issues)
}

func has(id string, sev Severity, issues []Issue) bool {
	for _, is := range issues {
		if is.NodeID == id && is.Severity == sev {
			return true
		}
	}
	return false
}

// Filter returns the issues with the given severity.
func Filter(issues []Issue, sev Severity) []Issue {
	var out []Issue
	for _, is := range issues {
		if is.Severity == sev {
			out = append(out, is)
		}
	}
	return out
}

// Error wraps the error-severity issues of a graph that cannot run.
type Error struct {
	Issues []Issue
}

func (e *Error) Error() string {
	msgs := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		msgs[i] = is.String()
	}
	return fmt.Sprintf("workflow has %d error(s): %s", len(e.Issues), strings.Join(msgs, "; "))
}

// Err returns an *Error holding the error-severity issues, or nil when there
// are none. Warnings never produce an error.
func Err(issues []Issue) error {
	errs := Filter(issues, SeverityError)
	if len(errs) == 0 {
		return nil
	}
	return &Error{Issues: errs}
}
