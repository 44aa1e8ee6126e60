// Package telemetry configures OpenTelemetry tracing for audit creation.
//
// Tracing is off by default and the returned provider is a no-op. When stdout
// tracing is enabled, finished spans are pretty-printed to the configured writer
// on shutdown or when the batcher flushes.
package telemetry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

const (
	defaultServiceNameConstant      = "esg-audit"
	serviceNameAttributeKeyConstant = "service.name"
	exporterErrorTemplateConstant   = "telemetry: stdout exporter: %w"
)

// Configuration selects the span exporters.
type Configuration struct {
	TraceStdout bool   `mapstructure:"trace_stdout"`
	ServiceName string `mapstructure:"service_name"`
}

// Provider owns the tracer provider and its shutdown.
type Provider struct {
	tracerProvider trace.TracerProvider
	shutdown       func(context.Context) error
}

// Setup builds a Provider. A nil writer sends spans to standard error.
func Setup(configuration Configuration, writer io.Writer) (*Provider, error) {
	if !configuration.TraceStdout {
		return &Provider{
			tracerProvider: tracenoop.NewTracerProvider(),
			shutdown:       func(context.Context) error { return nil },
		}, nil
	}

	if writer == nil {
		writer = os.Stderr
	}
	exporter, exporterError := stdouttrace.New(stdouttrace.WithWriter(writer), stdouttrace.WithPrettyPrint())
	if exporterError != nil {
		return nil, fmt.Errorf(exporterErrorTemplateConstant, exporterError)
	}

	serviceName := strings.TrimSpace(configuration.ServiceName)
	if len(serviceName) == 0 {
		serviceName = defaultServiceNameConstant
	}

	tracerProvider := sdktrace.NewTracerProvider(
		sdktrace.WithResource(resource.NewSchemaless(attribute.String(serviceNameAttributeKeyConstant, serviceName))),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
		sdktrace.WithBatcher(exporter),
	)
	return &Provider{
		tracerProvider: tracerProvider,
		shutdown: func(shutdownContext context.Context) error {
			return errors.Join(tracerProvider.ForceFlush(shutdownContext), tracerProvider.Shutdown(shutdownContext))
		},
	}, nil
}

// Tracer returns a named tracer. A nil Provider yields a no-op tracer.
func (provider *Provider) Tracer(name string) trace.Tracer {
	if provider == nil || provider.tracerProvider == nil {
		return tracenoop.NewTracerProvider().Tracer(name)
	}
	return provider.tracerProvider.Tracer(name)
}

// Shutdown flushes pending spans and releases the exporter.
func (provider *Provider) Shutdown(executionContext context.Context) error {
	if provider == nil || provider.shutdown == nil {
		return nil
	}
	return provider.shutdown(executionContext)
}
