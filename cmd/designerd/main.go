//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package main runs the workflow designer backend.
package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/autorpa/flowforge/agentclient"
	"github.com/autorpa/flowforge/internal/config"
	"github.com/autorpa/flowforge/log"
	"github.com/autorpa/flowforge/server/designer"
	"github.com/autorpa/flowforge/telemetry/metric"
	"github.com/autorpa/flowforge/telemetry/trace"
)

var (
	configPath = flag.String("config", "", "path to a YAML config file")
	addr       = flag.String("addr", "", "listen address, overrides the config file")
	agentURL   = flag.String("agent", "", "execution agent base URL, overrides the config file")
	accessLog  = flag.Bool("access-log", true, "write an access log line per request to stdout")
)

func main() {
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if *agentURL != "" {
		cfg.Agent.BaseURL = *agentURL
	}
	log.SetLevel(cfg.Log.Level)
	log.SetTraceEnabled(cfg.Log.Trace)

	if cfg.Telemetry.Enabled() {
		cleanup := startTelemetry(cfg.Telemetry)
		defer cleanup()
	}

	opts := []designer.Option{
		designer.WithAgent(agentclient.New(
			agentclient.WithBaseURL(cfg.Agent.BaseURL),
			agentclient.WithTimeout(cfg.Agent.Timeout),
		)),
		designer.WithCORSOrigins(cfg.Server.CORSOrigins...),
	}
	if *accessLog {
		opts = append(opts, designer.WithAccessLog(os.Stdout))
	}
	srv := designer.New(opts...)

	httpServer := &http.Server{
		Addr:         cfg.Server.Addr,
		Handler:      srv.Handler(),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		log.Infof("designer listening on %s (agent %s)", cfg.Server.Addr, cfg.Agent.BaseURL)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		log.Errorf("forced shutdown: %v", err)
	}
}

func startTelemetry(t config.Telemetry) func() {
	ctx := context.Background()
	cleanTrace, err := trace.Start(ctx,
		trace.WithEndpoint(t.Endpoint),
		trace.WithProtocol(t.Protocol),
		trace.WithServiceName(t.ServiceName),
	)
	if err != nil {
		log.Warnf("tracing disabled: %v", err)
		cleanTrace = func() error { return nil }
	}
	cleanMetric, err := metric.Start(ctx,
		metric.WithEndpoint(t.Endpoint),
		metric.WithProtocol(t.Protocol),
		metric.WithServiceName(t.ServiceName),
	)
	if err != nil {
		log.Warnf("metrics disabled: %v", err)
		cleanMetric = func() error { return nil }
	}
	return func() {
		if err := cleanTrace(); err != nil {
			log.Warnf("trace shutdown: %v", err)
		}
		if err := cleanMetric(); err != nil {
			log.Warnf("metric shutdown: %v", err)
		}
	}
}
