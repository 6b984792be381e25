//
// Tencent is pleased to support the open source community by making trpc-agent-go available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-agent-go is licensed under the Apache License Version 2.0.
//
//

// Package metric exports flowforge metrics over OTLP.
package metric

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"

	itelemetry "github.com/autorpa/flowforge/internal/telemetry"
)

// InitMeterProvider installs mp as the source of every flowforge instrument.
func InitMeterProvider(mp metric.MeterProvider) error {
	return itelemetry.InitMeterProvider(mp)
}

// Start creates a meter provider, registers it globally and returns its
// shutdown function.
func Start(ctx context.Context, opts ...Option) (clean func() error, err error) {
	mp, err := NewMeterProvider(ctx, opts...)
	if err != nil {
		return nil, err
	}
	if err := InitMeterProvider(mp); err != nil {
		return nil, err
	}
	otel.SetMeterProvider(mp)
	return func() error {
		return mp.Shutdown(context.Background())
	}, nil
}

// NewMeterProvider creates a new meter provider with optional configuration.
// OTEL_EXPORTER_OTLP_ENDPOINT and OTEL_EXPORTER_OTLP_METRICS_ENDPOINT are
// consulted when no endpoint option is given.
func NewMeterProvider(ctx context.Context, opts ...Option) (*sdkmetric.MeterProvider, error) {
	options := itelemetry.DefaultExporterOptions()
	for _, opt := range opts {
		opt(options)
	}
	if options.Endpoint == "" {
		options.Endpoint = itelemetry.Endpoint("OTEL_EXPORTER_OTLP_METRICS_ENDPOINT", options.Protocol)
	}

	res, err := itelemetry.BuildResource(ctx, options)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var exporter sdkmetric.Exporter
	switch options.Protocol {
	case itelemetry.ProtocolHTTP:
		exporter, err = otlpmetrichttp.New(ctx,
			otlpmetrichttp.WithEndpoint(options.Endpoint),
			otlpmetrichttp.WithHeaders(options.Headers),
			otlpmetrichttp.WithInsecure())
	default:
		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(options.Endpoint),
			otlpmetricgrpc.WithHeaders(options.Headers),
			otlpmetricgrpc.WithInsecure())
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics exporter: %w", err)
	}
	return newMeterProvider(res, sdkmetric.NewPeriodicReader(exporter)), nil
}

func newMeterProvider(res *resource.Resource, reader sdkmetric.Reader) *sdkmetric.MeterProvider {
	return sdkmetric.NewMeterProvider(
		sdkmetric.WithReader(reader),
		sdkmetric.WithResource(res),
	)
}

// Option is a function that configures meter options.
type Option func(*itelemetry.ExporterOptions)

// WithEndpoint sets the collector host and port, e.g. "example.com:4317".
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
