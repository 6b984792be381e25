//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

package telemetry

import (
	"context"
	"os"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.21.0"
)

// ExporterOptions is the configuration shared by the metric and trace exporters.
type ExporterOptions struct {
	Endpoint           string
	Protocol           string
	ServiceName        string
	ServiceVersion     string
	ServiceNamespace   string
	Headers            map[string]string
	ResourceAttributes []attribute.KeyValue
}

// DefaultExporterOptions returns the flowforge service identity over gRPC.
func DefaultExporterOptions() *ExporterOptions {
	return &ExporterOptions{
		Protocol:         ProtocolGRPC,
		ServiceName:      ServiceName,
		ServiceVersion:   ServiceVersion,
		ServiceNamespace: ServiceNamespace,
	}
}

// BuildResource describes the running service.
func BuildResource(ctx context.Context, opts *ExporterOptions) (*resource.Resource, error) {
	resourceOpts := []resource.Option{
		resource.WithAttributes(
			semconv.ServiceNamespace(opts.ServiceNamespace),
			semconv.ServiceName(opts.ServiceName),
			semconv.ServiceVersion(opts.ServiceVersion),
		),
		resource.WithFromEnv(),
		resource.WithHost(),         // Adds host.name
		resource.WithTelemetrySDK(), // Adds telemetry.sdk.{name,language,version}
	}
	if len(opts.ResourceAttributes) > 0 {
		resourceOpts = append(resourceOpts, resource.WithAttributes(opts.ResourceAttributes...))
	}
	return resource.New(ctx, resourceOpts...)
}

// Endpoint resolves the collector address from the signal specific variable,
// then the generic one, then the protocol default.
func Endpoint(signalEnv, protocol string) string {
	if endpoint := os.Getenv(signalEnv); endpoint != "" {
		return endpoint
	}
	if endpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT"); endpoint != "" {
		return endpoint
	}
	switch protocol {
	case ProtocolHTTP:
		return "localhost:4318"
	default:
		return "localhost:4317"
	}
}
