//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package designer serves the workflow editor backend: validation, the
// variable catalog, agent transformation, backup files, tabular sources and
// a passthrough to the execution agent.
package designer

import (
	"context"
	"io"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/autorpa/flowforge/agentclient"
	"github.com/autorpa/flowforge/agentwire"
	itelemetry "github.com/autorpa/flowforge/internal/telemetry"
	"github.com/autorpa/flowforge/log"
	"github.com/autorpa/flowforge/tabular"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-ID"

// maxBodyBytes bounds JSON request bodies.
const maxBodyBytes = 8 << 20

// Agent is the part of the execution agent the designer uses.
type Agent interface {
	Health(ctx context.Context) (*agentclient.Status, error)
	Execute(ctx context.Context, wf *agentwire.Workflow) (*agentclient.ExecutionResult, error)
	StartPicker(ctx context.Context, mode string) error
	Logs(ctx context.Context, limit int) ([]string, error)
	Diagnostic(ctx context.Context) (map[string]any, error)
}

// Server exposes the designer HTTP API.
type Server struct {
	router    *mux.Router
	handler   http.Handler
	sources   *tabular.Registry
	agent     Agent
	origins   []string
	accessLog io.Writer
	now       func() time.Time
}

// Option configures the Server instance.
type Option func(*Server)

// WithAgent overrides the execution agent client.
func WithAgent(a Agent) Option {
	return func(s *Server) {
		if a != nil {
			s.agent = a
		}
	}
}

// WithSources shares a tabular source registry.
func WithSources(r *tabular.Registry) Option {
	return func(s *Server) {
		if r != nil {
			s.sources = r
		}
	}
}

// WithCORSOrigins restricts the allowed browser origins. Default is "*".
func WithCORSOrigins(origins ...string) Option {
	return func(s *Server) { s.origins = origins }
}

// WithAccessLog writes an Apache combined log line per request to w.
func WithAccessLog(w io.Writer) Option {
	return func(s *Server) { s.accessLog = w }
}

// WithClock overrides the export timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// New creates a designer server.
func New(opts ...Option) *Server {
	s := &Server{
		router:  mux.NewRouter(),
		sources: tabular.NewRegistry(),
		agent:   agentclient.New(),
		origins: []string{"*"},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerRoutes()

	c := cors.New(cors.Options{
		AllowedOrigins: s.origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"*"},
		ExposedHeaders: []string{"Content-Disposition", HeaderRequestID},
	})
	var h http.Handler = s.router
	h = c.Handler(h)
	if s.accessLog != nil {
		h = handlers.CombinedLoggingHandler(s.accessLog, h)
	}
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(false),
	)(h)
	s.handler = h
	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler { return s.handler }

// Sources returns the tabular source registry.
func (s *Server) Sources() *tabular.Registry { return s.sources }

func (s *Server) registerRoutes() {
	s.router.Use(requestScope)
	s.router.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)

	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/workflows/validate", s.handleValidate).Methods(http.MethodPost)
	api.HandleFunc("/workflows/variables", s.handleVariables).Methods(http.MethodPost)
	api.HandleFunc("/workflows/transform", s.handleTransform).Methods(http.MethodPost)
	api.HandleFunc("/workflows/connect", s.handleConnect).Methods(http.MethodPost)
	api.HandleFunc("/workflows/search", s.handleSearch).Methods(http.MethodPost)
	api.HandleFunc("/workflows/export", s.handleExport).Methods(http.MethodPost)
	api.HandleFunc("/workflows/import", s.handleImport).Methods(http.MethodPost)
	api.HandleFunc("/workflows/execute", s.handleExecute).Methods(http.MethodPost)

	api.HandleFunc("/sources", s.handleListSources).Methods(http.MethodGet)
	api.HandleFunc("/sources", s.handleUploadSource).Methods(http.MethodPost)
	api.HandleFunc("/sources/{id}", s.handleGetSource).Methods(http.MethodGet)
	api.HandleFunc("/sources/{id}", s.handleDeleteSource).Methods(http.MethodDelete)

	api.HandleFunc("/agent/health", s.handleAgentHealth).Methods(http.MethodGet)
	api.HandleFunc("/agent/logs", s.handleAgentLogs).Methods(http.MethodGet)
	api.HandleFunc("/agent/picker", s.handleAgentPicker).Methods(http.MethodPost)
	api.HandleFunc("/agent/diagnostic", s.handleAgentDiagnostic).Methods(http.MethodGet)
}

// requestScope tags each request with an id and a server span.
func requestScope(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(HeaderRequestID, id)

		name := r.Method + " " + r.URL.Path
		if route := mux.CurrentRoute(r); route != nil {
			if tpl, err := route.GetPathTemplate(); err == nil {
				name = r.Method + " " + tpl
			}
		}
		ctx, span := itelemetry.Tracer.Start(r.Context(), name,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(attribute.String("http.request_id", id)),
		)
		defer span.End()

		ctx = log.WithRequestID(ctx, id)
		log.Tracef("%s %s", r.Method, r.URL.Path)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type recoveryLogger struct{}

func (recoveryLogger) Println(args ...any) {
	log.Error(args...)
}
