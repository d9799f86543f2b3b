package config

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/metll/metll-backend/internal/log"
	"github.com/metll/metll-backend/pkg/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	"go.opentelemetry.io/otel/sdk/trace"
)

const defaultOTLPEndpoint = "http://localhost:4318"

type otlpEndpoint struct {
	HostPort string
	URLPath  string
	Insecure bool
}

// SetupTracing installs the global tracer provider when OTEL_TRACES_ENABLED is
// true. The returned shutdown func is nil when tracing is off.
func SetupTracing(logger *log.Logger) (func(context.Context) error, error) {
	if !utils.IsTracingEnabled() {
		return nil, nil
	}

	serviceName := utils.OTelServiceName()
	rawEndpoint := utils.GetEnvTrimmedOrDefault("OTEL_EXPORTER_OTLP_ENDPOINT", defaultOTLPEndpoint)

	endpoint, err := parseOTLPEndpoint(rawEndpoint)
	if err != nil {
		return nil, err
	}

	opts := []otlptracehttp.Option{
		otlptracehttp.WithEndpoint(endpoint.HostPort),
		otlptracehttp.WithURLPath(endpoint.URLPath),
	}
	if endpoint.Insecure {
		opts = append(opts, otlptracehttp.WithInsecure())
	}

	exporter, err := otlptracehttp.New(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("setup tracing exporter: %w", err)
	}

	attrs := []attribute.KeyValue{attribute.String("service.name", serviceName)}
	if appEnv := GetAppEnv(); appEnv != "" {
		attrs = append(attrs, attribute.String("deployment.environment", appEnv))
	}

	res, err := resource.New(context.Background(), resource.WithAttributes(attrs...))
	if err != nil {
		return nil, fmt.Errorf("setup tracing resource: %w", err)
	}

	ratio := samplerRatio(utils.GetEnvTrimmed("OTEL_TRACES_SAMPLER_ARG"))

	tp := trace.NewTracerProvider(
		trace.WithBatcher(exporter),
		trace.WithResource(res),
		trace.WithSampler(trace.ParentBased(trace.TraceIDRatioBased(ratio))),
	)

	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	logger.Info("OpenTelemetry tracing enabled", "service", serviceName, "endpoint", rawEndpoint, "sample_ratio", ratio)

	return tp.Shutdown, nil
}

// samplerRatio parses a ratio in [0,1]; anything else samples every trace.
func samplerRatio(raw string) float64 {
	ratio, err := strconv.ParseFloat(raw, 64)
	if err != nil || ratio < 0 || ratio > 1 {
		return 1
	}
	return ratio
}

// parseOTLPEndpoint accepts http(s)://host:port[/path] or a bare host:port.
func parseOTLPEndpoint(raw string) (otlpEndpoint, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return otlpEndpoint{}, fmt.Errorf("empty OTLP endpoint")
	}

	if !strings.Contains(raw, "://") {
		// otlptracehttp.WithEndpoint wants host:port only.
		if strings.ContainsAny(raw, "/?#") {
			return otlpEndpoint{}, fmt.Errorf("invalid OTLP endpoint %q: use http://host:port[/path] when a path is needed", raw)
		}
		return otlpEndpoint{HostPort: raw, URLPath: "/v1/traces", Insecure: true}, nil
	}

	u, err := url.Parse(raw)
	if err != nil {
		return otlpEndpoint{}, fmt.Errorf("invalid OTLP endpoint %q: %w", raw, err)
	}
	if u.Host == "" {
		return otlpEndpoint{}, fmt.Errorf("invalid OTLP endpoint %q: missing host", raw)
	}

	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return otlpEndpoint{}, fmt.Errorf("unsupported OTLP endpoint scheme %q in %q", u.Scheme, raw)
	}

	path := u.EscapedPath()
	if path == "" || path == "/" {
		path = "/v1/traces"
	}

	return otlpEndpoint{HostPort: u.Host, URLPath: path, Insecure: scheme == "http"}, nil
}
