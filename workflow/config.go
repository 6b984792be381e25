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
	"bytes"
	"fmt"

	json "github.com/goccy/go-json"
)

// ActionConfig is the closed set of per-action configurations. The set is
// sealed; use VisitConfig to handle every variant.
type ActionConfig interface {
	// ActionType is the tag written as "type" in JSON.
	ActionType() ActionType
	// Meta returns the fields shared by every variant.
	Meta() *Common
	sealed()
}

// Common holds the fields present on every configuration.
type Common struct {
	Label       string `json:"label,omitempty"`
	Description string `json:"description,omitempty"`
}

// ClickConfig configures a click action.
type ClickConfig struct {
	Common
	Selector string `json:"selector"`
	// ClickType is one of "left", "right" or "double".
	ClickType       string  `json:"clickType,omitempty"`
	WaitAfter       float64 `json:"waitAfter,omitempty"`
	ContinueOnError bool    `json:"continueOnError,omitempty"`
}

// TypeConfig configures typing text into a control. Text may contain
// {{variable}} placeholders.
type TypeConfig struct {
	Common
	Selector    string `json:"selector"`
	Text        string `json:"text"`
	ClearBefore bool   `json:"clearBefore,omitempty"`
	HumanLike   bool   `json:"humanLike,omitempty"`
	// Speed is one of "fast", "normal" or "slow".
	Speed string `json:"speed,omitempty"`
}

// Wait types.
const (
	WaitTime             = "time"
	WaitElementAppear    = "element-appear"
	WaitElementDisappear = "element-disappear"
)

// WaitConfig configures a pause, either fixed or until an element changes.
type WaitConfig struct {
	Common
	WaitType string `json:"waitType"`
	// Duration is in seconds and applies to WaitTime.
	Duration float64 `json:"duration,omitempty"`
	Selector string  `json:"selector,omitempty"`
	// Timeout is the maximum wait for element waits, in seconds.
	Timeout float64 `json:"timeout,omitempty"`
}

// WaitsForElement reports whether the wait watches an element.
func (c *WaitConfig) WaitsForElement() bool {
	return c.WaitType == WaitElementAppear || c.WaitType == WaitElementDisappear
}

// NavigateConfig opens a URL. URL may contain placeholders.
type NavigateConfig struct {
	Common
	URL         string `json:"url"`
	Browser     string `json:"browser,omitempty"`
	WaitForLoad bool   `json:"waitForLoad,omitempty"`
}

// ExtractConfig stores the text of a control in VariableName.
type ExtractConfig struct {
	Common
	Selector     string `json:"selector"`
	VariableName string `json:"variableName"`
	TrimSpaces   bool   `json:"trimSpaces,omitempty"`
}

// ReadTextConfig has the same shape as ExtractConfig.
type ReadTextConfig struct {
	Common
	Selector     string `json:"selector"`
	VariableName string `json:"variableName"`
	TrimSpaces   bool   `json:"trimSpaces,omitempty"`
}

// ExcelData is a spreadsheet preview loaded by a legacy excel-read node.
type ExcelData struct {
	FilePath     string           `json:"filePath"`
	SheetName    string           `json:"sheetName"`
	Headers      []string         `json:"headers"`
	Rows         []map[string]any `json:"rows"`
	TotalRows    int              `json:"totalRows"`
	VariableName string           `json:"variableName"`
}

// ExcelReadConfig is the legacy per-node spreadsheet reader.
type ExcelReadConfig struct {
	Common
	FilePath          string     `json:"filePath"`
	SheetName         string     `json:"sheetName,omitempty"`
	Range             string     `json:"range,omitempty"`
	FirstRowAsHeaders bool       `json:"firstRowAsHeaders,omitempty"`
	VariableName      string     `json:"variableName"`
	LoadedData        *ExcelData `json:"loadedData,omitempty"`
}

// LoopMode selects how a loop repeats its body.
type LoopMode string

// Loop modes.
const (
	LoopExcel LoopMode = "excel"
	LoopCount LoopMode = "count"
	LoopUntil LoopMode = "until"
	LoopWhile LoopMode = "while"
)

// LoopConfig configures a loop scope.
type LoopConfig struct {
	Common
	LoopMode LoopMode `json:"loopMode"`
	// DataSource names a tabular source for LoopExcel.
	DataSource        string `json:"dataSource,omitempty"`
	IterationVariable string `json:"iterationVariable,omitempty"`
	RepeatCount       int    `json:"repeatCount,omitempty"`
	Condition         string `json:"condition,omitempty"`
	MaxIterations     int    `json:"maxIterations,omitempty"`
	BreakOnError      bool   `json:"breakOnError,omitempty"`
}

// Mode returns the loop mode, defaulting to LoopExcel.
func (c *LoopConfig) Mode() LoopMode {
	if c.LoopMode == "" {
		return LoopExcel
	}
	return c.LoopMode
}

// DefaultIterationVariable is used when a loop names none.
const DefaultIterationVariable = "item"

// IterVar returns the iteration variable, defaulting to "item".
func (c *LoopConfig) IterVar() string {
	if c.IterationVariable == "" {
		return DefaultIterationVariable
	}
	return c.IterationVariable
}

// IfElseConfig configures a branch.
type IfElseConfig struct {
	Common
	Condition string `json:"condition"`
	// Operator is one of == != > < >= <= contains exists.
	Operator string `json:"operator,omitempty"`
	Value    string `json:"value,omitempty"`
}

// UnknownConfig preserves a configuration whose type is not modelled, such
// as send-email, so that it survives a decode and encode round trip.
type UnknownConfig struct {
	Common
	Type ActionType      `json:"-"`
	Raw  json.RawMessage `json:"-"`
}

func (*ClickConfig) ActionType() ActionType     { return ActionClick }
func (*TypeConfig) ActionType() ActionType      { return ActionTypeText }
func (*WaitConfig) ActionType() ActionType      { return ActionWait }
func (*NavigateConfig) ActionType() ActionType  { return ActionNavigate }
func (*ExtractConfig) ActionType() ActionType   { return ActionExtract }
func (*ReadTextConfig) ActionType() ActionType  { return ActionReadText }
func (*ExcelReadConfig) ActionType() ActionType { return ActionExcelRead }
func (*LoopConfig) ActionType() ActionType      { return ActionLoop }
func (*IfElseConfig) ActionType() ActionType    { return ActionIfElse }
func (c *UnknownConfig) ActionType() ActionType { return c.Type }

func (c *Common) Meta() *Common { return c }

func (*ClickConfig) sealed()     {}
func (*TypeConfig) sealed()      {}
func (*WaitConfig) sealed()      {}
func (*NavigateConfig) sealed()  {}
func (*ExtractConfig) sealed()   {}
func (*ReadTextConfig) sealed()  {}
func (*ExcelReadConfig) sealed() {}
func (*LoopConfig) sealed()      {}
func (*IfElseConfig) sealed()    {}
func (*UnknownConfig) sealed()   {}

// NewConfig returns an empty configuration for the given action type.
func NewConfig(t ActionType) ActionConfig {
	switch t {
	case ActionClick:
		return &ClickConfig{}
	case ActionTypeText:
		return &TypeConfig{}
	case ActionWait:
		return &WaitConfig{WaitType: WaitTime}
	case ActionNavigate:
		return &NavigateConfig{}
	case ActionExtract:
		return &ExtractConfig{}
	case ActionReadText:
		return &ReadTextConfig{}
	case ActionExcelRead:
		return &ExcelReadConfig{}
	case ActionLoop:
		return &LoopConfig{LoopMode: LoopExcel}
	case ActionIfElse:
		return &IfElseConfig{}
	default:
		return &UnknownConfig{Type: t}
	}
}

// MarshalConfig encodes c as a JSON object whose first member is "type".
func MarshalConfig(c ActionConfig) ([]byte, error) {
	if u, ok := c.(*UnknownConfig); ok && len(u.Raw) > 0 {
		return u.Raw, nil
	}
	body, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal %s config: %w", c.ActionType(), err)
	}
	tag, err := json.Marshal(string(c.ActionType()))
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.WriteString(`{"type":`)
	buf.Write(tag)
	if inner := bytes.TrimSpace(body[1 : len(body)-1]); len(inner) > 0 {
		buf.WriteByte(',')
		buf.Write(inner)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalConfig decodes a configuration object. The variant is chosen by
// the object's "type" member, or by fallback when the member is absent.
func UnmarshalConfig(data []byte, fallback ActionType) (ActionConfig, error) {
	var tag struct {
		Type ActionType `json:"type"`
	}
	if err := json.Unmarshal(data, &tag); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	t := tag.Type
	if t == "" {
		t = fallback
	}
	cfg := NewConfig(t)
	if u, ok := cfg.(*UnknownConfig); ok {
		var buf bytes.Buffer
		if err := json.Compact(&buf, data); err != nil {
			return nil, fmt.Errorf("decode %s config: %w", t, err)
		}
		u.Raw = buf.Bytes()
		if err := json.Unmarshal(data, &u.Common); err != nil {
			return nil, fmt.Errorf("decode %s config: %w", t, err)
		}
		return u, nil
	}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("decode %s config: %w", t, err)
	}
	return cfg, nil
}
