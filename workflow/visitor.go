//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package workflow

// ConfigVisitor handles every ActionConfig variant. Adding a variant adds a
// method here, which breaks every implementation until it is handled.
type ConfigVisitor[R any] interface {
	Click(*ClickConfig) R
	TypeText(*TypeConfig) R
	Wait(*WaitConfig) R
	Navigate(*NavigateConfig) R
	Extract(*ExtractConfig) R
	ReadText(*ReadTextConfig) R
	ExcelRead(*ExcelReadConfig) R
	Loop(*LoopConfig) R
	IfElse(*IfElseConfig) R
	Unknown(*UnknownConfig) R
}

// VisitConfig dispatches c to the matching visitor method. A nil config
// yields the zero value of R.
func VisitConfig[R any](c ActionConfig, v ConfigVisitor[R]) R {
	switch c := c.(type) {
	case *ClickConfig:
		return v.Click(c)
	case *TypeConfig:
		return v.TypeText(c)
	case *WaitConfig:
		return v.Wait(c)
	case *NavigateConfig:
		return v.Navigate(c)
	case *ExtractConfig:
		return v.Extract(c)
	case *ReadTextConfig:
		return v.ReadText(c)
	case *ExcelReadConfig:
		return v.ExcelRead(c)
	case *LoopConfig:
		return v.Loop(c)
	case *IfElseConfig:
		return v.IfElse(c)
	case *UnknownConfig:
		return v.Unknown(c)
	}
	var zero R
	return zero
}

type cloner struct{}

func (cloner) Click(c *ClickConfig) ActionConfig       { cp := *c; return &cp }
func (cloner) TypeText(c *TypeConfig) ActionConfig     { cp := *c; return &cp }
func (cloner) Wait(c *WaitConfig) ActionConfig         { cp := *c; return &cp }
func (cloner) Navigate(c *NavigateConfig) ActionConfig { cp := *c; return &cp }
func (cloner) Extract(c *ExtractConfig) ActionConfig   { cp := *c; return &cp }
func (cloner) ReadText(c *ReadTextConfig) ActionConfig { cp := *c; return &cp }
func (cloner) Loop(c *LoopConfig) ActionConfig         { cp := *c; return &cp }
func (cloner) IfElse(c *IfElseConfig) ActionConfig     { cp := *c; return &cp }

func (cloner) ExcelRead(c *ExcelReadConfig) ActionConfig {
	cp := *c
	if c.LoadedData != nil {
		data := *c.LoadedData
		data.Headers = append([]string(nil), c.LoadedData.Headers...)
		data.Rows = make([]map[string]any, len(c.LoadedData.Rows))
		for i, row := range c.LoadedData.Rows {
			r := make(map[string]any, len(row))
			for k, v := range row {
				r[k] = v
			}
			data.Rows[i] = r
		}
		cp.LoadedData = &data
	}
	return &cp
}

func (cloner) Unknown(c *UnknownConfig) ActionConfig {
	cp := *c
	cp.Raw = append(cp.Raw[:0:0], c.Raw...)
	return &cp
}

// CloneConfig returns a copy of c that shares no mutable state with it.
func CloneConfig(c ActionConfig) ActionConfig {
	return VisitConfig[ActionConfig](c, cloner{})
}
