//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package telemetry holds the process wide tracer and instruments used by
// flowforge. Every instrument defaults to a noop implementation so callers
// never need a nil check; the public telemetry package swaps them in.
package telemetry

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// telemetry service constants.
const (
	ServiceName      = "flowforge"
	ServiceVersion   = "v0.1.0"
	ServiceNamespace = "autorpa"
	InstrumentName   = "flowforge"

	// ProtocolGRPC uses gRPC protocol for OTLP exporter.
	ProtocolGRPC string = "grpc"
	// ProtocolHTTP uses HTTP protocol for OTLP exporter.
	ProtocolHTTP string = "http"
)

// Span names.
const (
	SpanValidate  = "workflow.validate"
	SpanTransform = "workflow.transform"
	SpanResolve   = "workflow.resolve"
	SpanAgentCall = "agent.call"
)

// Attribute keys.
const (
	KeyWorkflowName  = "flowforge.workflow.name"
	KeyNodeCount     = "flowforge.workflow.node_count"
	KeyIssueSeverity = "flowforge.issue.severity"
	KeyIssueKind     = "flowforge.issue.kind"
	KeyAgentEndpoint = "flowforge.agent.endpoint"
	KeyAgentStatus   = "flowforge.agent.status_code"
)

// Metric names.
const (
	MeterName               = "flowforge"
	MetricValidationRuns    = "flowforge.validation.runs"
	MetricValidationIssues  = "flowforge.validation.issues"
	MetricTransforms        = "flowforge.transform.count"
	MetricAgentRequests     = "flowforge.agent.requests"
	MetricAgentRequestError = "flowforge.agent.request_errors"
)

var (
	// Tracer is the tracer used for every flowforge span.
	Tracer trace.Tracer = tracenoop.NewTracerProvider().Tracer(InstrumentName)

	MeterProvider metric.MeterProvider = noop.NewMeterProvider()

	ValidationRuns     metric.Int64Counter = noop.Int64Counter{}
	ValidationIssues   metric.Int64Counter = noop.Int64Counter{}
	Transforms         metric.Int64Counter = noop.Int64Counter{}
	AgentRequests      metric.Int64Counter = noop.Int64Counter{}
	AgentRequestErrors metric.Int64Counter = noop.Int64Counter{}
)

// SetTracerProvider replaces the global tracer.
func SetTracerProvider(tp trace.TracerProvider) {
	Tracer = tp.Tracer(InstrumentName)
}

// InitMeterProvider creates every instrument from mp.
func InitMeterProvider(mp metric.MeterProvider) error {
	if mp == nil {
		return fmt.Errorf("meter provider is nil")
	}
	meter := mp.Meter(MeterName)
	var err error
	if ValidationRuns, err = meter.Int64Counter(
		MetricValidationRuns,
		metric.WithDescription("Total number of validation runs"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create metric %s: %w", MetricValidationRuns, err)
	}
	if ValidationIssues, err = meter.Int64Counter(
		MetricValidationIssues,
		metric.WithDescription("Validation issues by severity and kind"),
		metric.WithUnit("{issue}"),
	); err != nil {
		return fmt.Errorf("failed to create metric %s: %w", MetricValidationIssues, err)
	}
	if Transforms, err = meter.Int64Counter(
		MetricTransforms,
		metric.WithDescription("Total number of agent transforms"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create metric %s: %w", MetricTransforms, err)
	}
	if AgentRequests, err = meter.Int64Counter(
		MetricAgentRequests,
		metric.WithDescription("Total number of agent requests"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create metric %s: %w", MetricAgentRequests, err)
	}
	if AgentRequestErrors, err = meter.Int64Counter(
		MetricAgentRequestError,
		metric.WithDescription("Agent requests that failed or returned a non 2xx status"),
		metric.WithUnit("1"),
	); err != nil {
		return fmt.Errorf("failed to create metric %s: %w", MetricAgentRequestError, err)
	}
	MeterProvider = mp
	return nil
}

// IncValidation counts one validation run.
func IncValidation(ctx context.Context) {
	ValidationRuns.Add(ctx, 1)
}

// IncValidationIssue counts one reported issue.
func IncValidationIssue(ctx context.Context, severity, kind string) {
	ValidationIssues.Add(ctx, 1, metric.WithAttributes(
		attribute.String(KeyIssueSeverity, severity),
		attribute.String(KeyIssueKind, kind),
	))
}

// IncTransform counts one transform of a workflow.
func IncTransform(ctx context.Context, workflowName string, nodes int) {
	Transforms.Add(ctx, 1, metric.WithAttributes(
		attribute.String(KeyWorkflowName, workflowName),
		attribute.Int(KeyNodeCount, nodes),
	))
}

// IncAgentRequest counts one agent call; status is 0 when the request never
// produced a response.
func IncAgentRequest(ctx context.Context, endpoint string, status int, failed bool) {
	attrs := metric.WithAttributes(
		attribute.String(KeyAgentEndpoint, endpoint),
		attribute.Int(KeyAgentStatus, status),
	)
	AgentRequests.Add(ctx, 1, attrs)
	if failed {
		AgentRequestErrors.Add(ctx, 1, attrs)
	}
}
