//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package exchange

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/autorpa/flowforge/tabular"
	"github.com/autorpa/flowforge/workflow"
)

var exportTime = time.Date(2025, 3, 7, 22, 15, 0, 0, time.UTC)

func sampleDocument() *Document {
	return &Document{
		Name:        "Alta clientes",
		Description: "registra clientes",
		Nodes: []workflow.Node{
			{ID: "L", Kind: workflow.KindLoop, Position: workflow.Position{X: 5, Y: 6},
				Data: workflow.NodeData{Label: "Filas", Type: workflow.ActionLoop,
					Config: &workflow.LoopConfig{LoopMode: workflow.LoopExcel, DataSource: "clientes", IterationVariable: "fila"}}},
			{ID: "c", Kind: workflow.KindAction, ParentID: "L",
				Data: workflow.NodeData{Label: "Nombre", Type: workflow.ActionTypeText,
					Config: &workflow.TypeConfig{Selector: "auto_id:txtNombre", Text: "{{fila.nombre}}"}}},
			{ID: "if", Kind: workflow.KindBranch,
				Data: workflow.NodeData{Type: workflow.ActionIfElse,
					Config: &workflow.IfElseConfig{Condition: "{{x}}", Operator: "exists"}}},
			{ID: "n", Kind: workflow.KindNote, Data: workflow.NodeData{Title: "nota", Color: "blue"}},
		},
		Edges: []workflow.Edge{{ID: "e", Source: "if", Target: "L", SourceHandle: "true"}},
		ExcelFiles: Refs([]tabular.Source{{
			ID: "excel_1", Name: "clientes", FileName: "clientes.csv", FilePath: "temp/clientes.csv",
			Columns: []string{"dni", "nombre"}, RowCount: 40, FirstRowAsHeaders: true, Delimiter: ";",
		}}),
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	doc := sampleDocument()
	data, err := Export(doc, exportTime)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"version": "1.0.0"`)
	assert.Contains(t, string(data), `"exportedAt": "2025-03-07T22:15:00Z"`)

	f, err := Import(data)
	require.NoError(t, err)
	assert.Equal(t, Version, f.Version)
	assert.True(t, exportTime.Equal(f.ExportedAt))
	assert.Equal(t, *doc, f.Workflow)

	src := f.Workflow.ExcelFiles[0].Source()
	assert.Equal(t, "clientes", src.Name)
	assert.Equal(t, []string{"dni", "nombre"}, src.Columns)
}

func TestImportRejects(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"not json", `nope`, "not a JSON object"},
		{"array", `[]`, "not a JSON object"},
		{"no workflow", `{"version":"1.0.0"}`, "workflow must be an object"},
		{"future version", `{"version":"2.0.0","workflow":{}}`, "unsupported version"},
		{"name", `{"workflow":{"name":1,"nodes":[],"edges":[]}}`, "name must be a string"},
		{"nodes", `{"workflow":{"name":"x","nodes":{},"edges":[]}}`, "nodes must be an array"},
		{"edges", `{"workflow":{"name":"x","nodes":[]}}`, "edges must be an array"},
		{"node id", `{"workflow":{"name":"x","nodes":[{"id":3,"data":{}}],"edges":[]}}`, "node 0 has no string id"},
		{"node data", `{"workflow":{"name":"x","nodes":[{"id":"a"}],"edges":[]}}`, "node a has no data object"},
		{"edge target", `{"workflow":{"name":"x","nodes":[],"edges":[{"id":"e","source":"a"}]}}`, "edge 0 has no string target"},
		{"bad config", `{"workflow":{"name":"x","nodes":[{"id":"a","type":"action","data":{"type":"click","config":{"selector":1}}}],"edges":[]}}`, "decode click config"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Import([]byte(tt.data))
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidFile)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestDecodeBareDocument(t *testing.T) {
	doc, err := Decode([]byte(`{"name":"bare","nodes":[{"id":"a","type":"action","data":{"type":"navigate","config":{"url":"https://x"}}}],"edges":[]}`))
	require.NoError(t, err)
	assert.Equal(t, "bare", doc.Name)
	require.Len(t, doc.Nodes, 1)
	assert.Equal(t, "https://x", doc.Nodes[0].Data.Config.(*workflow.NavigateConfig).URL)

	data, err := Export(sampleDocument(), exportTime)
	require.NoError(t, err)
	doc, err = Decode(data)
	require.NoError(t, err)
	assert.Equal(t, "Alta clientes", doc.Name)

	_, err = Decode([]byte(`{"name":"x"}`))
	assert.ErrorIs(t, err, ErrInvalidFile)
}

func TestExportEmptyDocument(t *testing.T) {
	data, err := Export(&Document{Name: "vacío"}, exportTime)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"nodes": []`)
	assert.Contains(t, string(data), `"edges": []`)
	_, err = Import(data)
	assert.NoError(t, err)
}

func TestFileName(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Alta Clientes", "alta_clientes_2025-03-07.json"},
		{"Facturación 2024!", "facturaci_n_2024__2025-03-07.json"},
		{"", "workflow_2025-03-07.json"},
		{strings.Repeat("a", 80), strings.Repeat("a", 50) + "_2025-03-07.json"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FileName(tt.name, exportTime))
	}
	// late evening in UTC-5 is already the next day in UTC
	local := time.Date(2025, 3, 7, 21, 0, 0, 0, time.FixedZone("COT", -5*3600))
	assert.Equal(t, "x_2025-03-08.json", FileName("x", local))
}
