//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package designer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"unicode/utf8"

	"github.com/gorilla/mux"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/autorpa/flowforge/agentclient"
	"github.com/autorpa/flowforge/agentwire"
	"github.com/autorpa/flowforge/exchange"
	itelemetry "github.com/autorpa/flowforge/internal/telemetry"
	"github.com/autorpa/flowforge/log"
	"github.com/autorpa/flowforge/tabular"
	"github.com/autorpa/flowforge/validation"
	"github.com/autorpa/flowforge/variable"
	"github.com/autorpa/flowforge/workflow"
)

// workflowRequest is the editor's current draft.
type workflowRequest struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Nodes       []workflow.Node `json:"nodes"`
	Edges       []workflow.Edge `json:"edges"`
	Variables   map[string]any  `json:"variables,omitempty"`
}

func (req *workflowRequest) graph() *workflow.Graph {
	return &workflow.Graph{Nodes: req.Nodes, Edges: req.Edges}
}

type validateResponse struct {
	Valid  bool               `json:"valid"`
	Issues []validation.Issue `json:"issues"`
}

// validate runs the validator and records its outcome.
func (s *Server) validate(ctx context.Context, g *workflow.Graph) []validation.Issue {
	ctx, span := itelemetry.Tracer.Start(ctx, itelemetry.SpanValidate,
		trace.WithAttributes(attribute.Int(itelemetry.KeyNodeCount, len(g.Nodes))))
	defer span.End()

	issues := validation.Validate(g)
	itelemetry.IncValidation(ctx)
	for _, is := range issues {
		itelemetry.IncValidationIssue(ctx, string(is.Severity), string(is.Kind))
	}
	if issues == nil {
		issues = []validation.Issue{}
	}
	return issues
}

func (s *Server) transform(ctx context.Context, req *workflowRequest) *agentwire.Workflow {
	ctx, span := itelemetry.Tracer.Start(ctx, itelemetry.SpanTransform,
		trace.WithAttributes(attribute.String(itelemetry.KeyWorkflowName, req.Name)))
	defer span.End()

	itelemetry.IncTransform(ctx, req.Name, len(req.Nodes))
	return agentwire.Transform(req.Name, req.graph(), req.Variables)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}

// handleValidate reports every issue of the draft.
func (s *Server) handleValidate(w http.ResponseWriter, r *http.Request) {
	var req workflowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	issues := s.validate(r.Context(), req.graph())
	respondJSON(w, r, http.StatusOK, validateResponse{
		Valid:  !validation.HasErrors(issues),
		Issues: issues,
	})
}

// handleVariables returns the variable catalog using the loaded sources.
func (s *Server) handleVariables(w http.ResponseWriter, r *http.Request) {
	var req workflowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	_, span := itelemetry.Tracer.Start(r.Context(), itelemetry.SpanResolve)
	vars := variable.Resolve(req.graph(), s.sources.List())
	span.End()
	if vars == nil {
		vars = []variable.Variable{}
	}
	respondJSON(w, r, http.StatusOK, map[string]any{
		"variables": vars,
	})
}

// handleTransform converts the draft to the agent format without validating it.
func (s *Server) handleTransform(w http.ResponseWriter, r *http.Request) {
	var req workflowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	respondJSON(w, r, http.StatusOK, s.transform(r.Context(), &req))
}

// handleConnect answers whether a proposed edge would be accepted.
func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	var req struct {
		workflowRequest
		Source string `json:"source"`
		Target string `json:"target"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Source == "" || req.Target == "" {
		respondError(w, r, http.StatusBadRequest, "source and target are required")
		return
	}
	resp := map[string]any{"allowed": true}
	if err := workflow.CanConnect(req.graph(), req.Source, req.Target); err != nil {
		resp["allowed"] = false
		resp["reason"] = err.Error()
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// handleSearch finds nodes by label, action type or description.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Nodes []workflow.Node `json:"nodes"`
		Term  string          `json:"term"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	results := workflow.Search(req.Nodes, req.Term)
	if results == nil {
		results = []workflow.SearchResult{}
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"results": results})
}

// handleExport returns the backup file of the draft as an attachment.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	var req workflowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	now := s.now()
	doc := &exchange.Document{
		Name:        req.Name,
		Description: req.Description,
		Nodes:       req.Nodes,
		Edges:       req.Edges,
		ExcelFiles:  exchange.Refs(s.sources.List()),
	}
	data, err := exchange.Export(doc, now)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err.Error())
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", exchange.FileName(req.Name, now)))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		log.WarnfContext(r.Context(), "writing export: %v", err)
	}
}

// handleImport checks a backup file and returns its workflow. Referenced
// sources that are not loaded yet are registered without rows so that the
// variable catalog stays complete.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}
	f, err := exchange.Import(data)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	for _, ref := range f.Workflow.ExcelFiles {
		src := ref.Source()
		if _, ok := s.sources.ByName(src.Name); ok {
			continue
		}
		if _, err := s.sources.Get(src.ID); err == nil {
			continue
		}
		s.sources.Add(&src)
	}
	log.InfofContext(r.Context(), "imported workflow %q (%d nodes)", f.Workflow.Name, len(f.Workflow.Nodes))
	respondJSON(w, r, http.StatusOK, f)
}

// handleExecute validates, transforms and submits the draft to the agent.
func (s *Server) handleExecute(w http.ResponseWriter, r *http.Request) {
	var req workflowRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	issues := s.validate(r.Context(), req.graph())
	if validation.HasErrors(issues) {
		respondJSON(w, r, http.StatusUnprocessableEntity, validateResponse{Issues: issues})
		return
	}
	wf := s.transform(r.Context(), &req)
	res, err := s.agent.Execute(r.Context(), wf)
	if err != nil {
		log.WarnfContext(r.Context(), "execute %q: %v", req.Name, err)
		respondJSON(w, r, agentStatus(err), &agentclient.ExecutionResult{
			Status: agentclient.ExecutionError,
			Error:  err.Error(),
		})
		return
	}
	respondJSON(w, r, http.StatusOK, res)
}

func (s *Server) handleListSources(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]any{"sources": s.sources.List()})
}

// handleUploadSource loads a CSV or workbook sent as the raw request body.
// Query: name (required), noHeaders, delimiter, sheet, filePath, synced.
func (s *Server) handleUploadSource(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	name := q.Get("name")
	if name == "" {
		respondError(w, r, http.StatusBadRequest, "name is required")
		return
	}
	opts := tabular.LoadOptions{
		NoHeaders:       queryBool(q.Get("noHeaders")),
		SheetName:       q.Get("sheet"),
		FilePath:        q.Get("filePath"),
		SyncedWithAgent: queryBool(q.Get("synced")),
	}
	if d := q.Get("delimiter"); d != "" {
		if d == `\t` {
			d = "\t"
		}
		rn, size := utf8.DecodeRuneInString(d)
		if size != len(d) {
			respondError(w, r, http.StatusBadRequest, "delimiter must be a single character")
			return
		}
		opts.Delimiter = rn
	}
	content, err := io.ReadAll(io.LimitReader(r.Body, tabular.MaxFileSize+1))
	if err != nil {
		respondError(w, r, http.StatusBadRequest, "reading body: "+err.Error())
		return
	}
	src, err := tabular.Load(name, content, opts)
	switch {
	case errors.Is(err, tabular.ErrTooLarge):
		respondError(w, r, http.StatusRequestEntityTooLarge, err.Error())
		return
	case err != nil:
		respondError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	s.sources.Add(src)
	log.InfofContext(r.Context(), "loaded source %s (%d rows)", src.Name, src.RowCount)
	respondJSON(w, r, http.StatusCreated, src)
}

func (s *Server) handleGetSource(w http.ResponseWriter, r *http.Request) {
	src, err := s.sources.Get(mux.Vars(r)["id"])
	if err != nil {
		respondError(w, r, http.StatusNotFound, err.Error())
		return
	}
	respondJSON(w, r, http.StatusOK, src)
}

func (s *Server) handleDeleteSource(w http.ResponseWriter, r *http.Request) {
	if err := s.sources.Remove(mux.Vars(r)["id"]); err != nil {
		respondError(w, r, http.StatusNotFound, err.Error())
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleAgentHealth always answers 200; an unreachable agent is reported as
// disconnected.
func (s *Server) handleAgentHealth(w http.ResponseWriter, r *http.Request) {
	st, err := s.agent.Health(r.Context())
	if err != nil {
		log.Tracef("agent health: %v", err)
	}
	respondJSON(w, r, http.StatusOK, st)
}

func (s *Server) handleAgentLogs(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 0 {
			respondError(w, r, http.StatusBadRequest, "limit must be a non-negative integer")
			return
		}
		limit = n
	}
	logs, err := s.agent.Logs(r.Context(), limit)
	if err != nil {
		respondError(w, r, agentStatus(err), err.Error())
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]any{"logs": logs})
}

func (s *Server) handleAgentPicker(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Mode string `json:"mode"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	switch req.Mode {
	case "", agentclient.PickerDesktop, agentclient.PickerWeb:
	default:
		respondError(w, r, http.StatusBadRequest, "mode must be desktop or web")
		return
	}
	if err := s.agent.StartPicker(r.Context(), req.Mode); err != nil {
		respondError(w, r, agentStatus(err), err.Error())
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (s *Server) handleAgentDiagnostic(w http.ResponseWriter, r *http.Request) {
	out, err := s.agent.Diagnostic(r.Context())
	if err != nil {
		respondError(w, r, agentStatus(err), err.Error())
		return
	}
	respondJSON(w, r, http.StatusOK, out)
}

// agentStatus maps agent failures: an agent reply with a status is a bad
// gateway, no reply at all is service unavailable.
func agentStatus(err error) int {
	var se *agentclient.StatusError
	if errors.As(err, &se) {
		return http.StatusBadGateway
	}
	return http.StatusServiceUnavailable
}

func queryBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}
