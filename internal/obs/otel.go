// Package obs wires OpenTelemetry tracing.
package obs

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"

	"github.com/iliyamo/artist-map-tracker/internal/lib/logger/sl"
)

const ServiceName = "artist-map-tracker"

// InitTracer installs a batching OTLP/gRPC tracer provider for endpoint and
// returns its shutdown func.  With an empty endpoint the global no-op
// provider is left in place and shutdown does nothing.
func InitTracer(log *slog.Logger, endpoint, env string) func(context.Context) error {
	noop := func(context.Context) error { return nil }
	// use W3C Trace Context propagation
	otel.SetTextMapPropagator(propagation.TraceContext{})
	if endpoint == "" {
		log.Info("tracing disabled")
		return noop
	}

	// use insecure transport credentials for local dev / docker-compose setup
	conn, err := grpc.NewClient(endpoint, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Error("otlp dial", sl.Err(err))
		return noop
	}
	exp, err := otlptracegrpc.New(context.Background(), otlptracegrpc.WithGRPCConn(conn))
	if err != nil {
		log.Error("otlp exporter", sl.Err(err))
		return noop
	}
	res, err := resource.New(context.Background(),
		resource.WithAttributes(
			semconv.ServiceNameKey.String(ServiceName),
			semconv.ServiceVersionKey.String("0.1.0"),
			semconv.DeploymentEnvironmentKey.String(env),
		),
	)
	if err != nil {
		log.Warn("resource create", sl.Err(err))
	}
	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)
	log.Info("tracing enabled", slog.String("endpoint", endpoint))
	return tp.Shutdown
}
