//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package trace exports flowforge spans over OTLP.
package trace

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	itelemetry "github.com/autorpa/flowforge/internal/telemetry"
)

// Start creates a tracer provider, installs it as the flowforge tracer and
// returns its shutdown function.
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	tp, err := NewTracerProvider(ctx, opts...)
	if err != nil {
		return nil, err
	}
	itelemetry.SetTracerProvider(tp)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))
	return func() error {
		return tp.Shutdown(context.Background())
	}, nil
}

// NewTracerProvider creates a batching tracer provider. The endpoint falls
// back to OTEL_EXPORTER_OTLP_TRACES_ENDPOINT and OTEL_EXPORTER_OTLP_ENDPOINT.
func NewTracerProvider(ctx context.Context, opts ...Option) (*sdktrace.TracerProvider, error) {
	options := itelemetry.DefaultExporterOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.Endpoint == "" {
		options.Endpoint = itelemetry.Endpoint("OTEL_EXPORTER_OTLP_TRACES_ENDPOINT", options.Protocol)
	}

	res, err := itelemetry.BuildResource(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var client otlptrace.Client
	switch options.Protocol {
	case itelemetry.ProtocolHTTP:
		client = otlptracehttp.NewClient(
			otlptracehttp.WithEndpoint(options.Endpoint),
			otlptracehttp.WithHeaders(options.Headers),
			otlptracehttp.WithInsecure(),
		)
	default:
		client = otlptracegrpc.NewClient(
			otlptracegrpc.WithEndpoint(options.Endpoint),
			otlptracegrpc.WithHeaders(options.Headers),
			otlptracegrpc.WithInsecure(),
		)
	}
	exporter, err := otlptrace.New(ctx, client)
	if err != nil {
		return nil, fmt.Errorf("failed to create trace exporter: %w", err)
	}

	return sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	), nil
}

// Option is a function that configures tracer options.
type Option func(*itelemetry.ExporterOptions)

// WithEndpoint sets the collector host and port.
func WithEndpoint(endpoint string) Option {
	return func(opts *itelemetry.ExporterOptions) {
		opts.Endpoint = endpoint
	}
}

// WithProtocol sets the export protocol: "grpc" (default) or "http".
func WithProtocol(protocol string) Option {
	return func(opts *itelemetry.ExporterOptions) {
		opts.Protocol = protocol
	}
}

// WithHeaders adds headers to every export request.
func WithHeaders(headers map[string]string) Option {
	return func(opts *itelemetry.ExporterOptions) {
		opts.Headers = headers
	}
}

// WithServiceName overrides the service.name resource attribute.
func WithServiceName(serviceName string) Option {
	return func(opts *itelemetry.ExporterOptions) {
		opts.ServiceName = serviceName
	}
}

// WithResourceAttributes appends custom resource attributes.
func WithResourceAttributes(attrs ...attribute.KeyValue) Option {
	return func(opts *itelemetry.ExporterOptions) {
		opts.ResourceAttributes = append(opts.ResourceAttributes, attrs...)
	}
}
