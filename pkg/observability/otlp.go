package observability

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploggrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	otellog "go.opentelemetry.io/otel/log"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

// OTLPConfig describes the connection to a remote OTLP log collector.
type OTLPConfig struct {
	// Endpoint is the collector address, e.g. "localhost:4317". Endpoints
	// carrying an http(s) scheme or the conventional 4318 port select the
	// OTLP/HTTP transport; everything else uses gRPC.
	Endpoint string
	// Insecure disables transport security.
	Insecure bool
	// ServiceName overrides the resource service.name attribute.
	ServiceName string
}

// OTLPSink exports events as OpenTelemetry log records to a remote collector.
// Records are batched by the OTel SDK, so Emit is cheap for callers.
type OTLPSink struct {
	provider *sdklog.LoggerProvider
	logger   otellog.Logger
}

// NewOTLPSink connects the exporter described by cfg and wraps it in a
// batching logger provider.
func NewOTLPSink(ctx context.Context, cfg OTLPConfig) (*OTLPSink, error) {
	if cfg.Endpoint == "" {
		return nil, fmt.Errorf("otlp sink requires an endpoint")
	}
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "log-simulator"
	}

	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(serviceName),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	exporter, err := newOTLPExporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	provider := sdklog.NewLoggerProvider(
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exporter)),
		sdklog.WithResource(res),
	)

	return &OTLPSink{
		provider: provider,
		logger:   provider.Logger(serviceName),
	}, nil
}

func newOTLPExporter(ctx context.Context, cfg OTLPConfig) (sdklog.Exporter, error) {
	endpoint := cfg.Endpoint
	useHTTP := false
	if strings.HasPrefix(endpoint, "http://") || strings.HasPrefix(endpoint, "https://") {
		useHTTP = true
		endpoint = strings.TrimPrefix(strings.TrimPrefix(endpoint, "http://"), "https://")
	} else if strings.Contains(endpoint, ":4318") {
		useHTTP = true
	}

	if useHTTP {
		opts := []otlploghttp.Option{otlploghttp.WithEndpoint(endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlploghttp.WithInsecure())
		}
		exporter, err := otlploghttp.New(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("create http log exporter: %w", err)
		}
		return exporter, nil
	}

	opts := []otlploggrpc.Option{otlploggrpc.WithEndpoint(endpoint)}
	if cfg.Insecure {
		opts = append(opts,
			otlploggrpc.WithInsecure(),
			otlploggrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
		)
	}
	exporter, err := otlploggrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create grpc log exporter: %w", err)
	}
	return exporter, nil
}

// Emit implements Sink by translating the event into an OTel log record.
func (s *OTLPSink) Emit(ctx context.Context, event Event) error {
	var record otellog.Record
	ts := event.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	record.SetTimestamp(ts)
	record.SetObservedTimestamp(time.Now())
	record.SetSeverity(otelSeverity(event.Level))
	record.SetSeverityText(string(event.Level))
	record.SetBody(otellog.StringValue(event.Message))

	attrs := make([]otellog.KeyValue, 0, len(event.Attributes)+1)
	attrs = append(attrs, otellog.String("type", event.Type))
	for k, v := range event.Attributes {
		attrs = append(attrs, otelAttribute(k, v))
	}
	record.AddAttributes(attrs...)

	s.logger.Emit(ctx, record)
	return nil
}

// Close flushes batched records and shuts the provider down.
func (s *OTLPSink) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.provider.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown logger provider: %w", err)
	}
	return nil
}

func otelSeverity(level Level) otellog.Severity {
	switch level {
	case LevelError:
		return otellog.SeverityError
	case LevelWarn:
		return otellog.SeverityWarn
	default:
		return otellog.SeverityInfo
	}
}

func otelAttribute(key string, value interface{}) otellog.KeyValue {
	switch v := value.(type) {
	case string:
		return otellog.String(key, v)
	case bool:
		return otellog.Bool(key, v)
	case int:
		return otellog.Int64(key, int64(v))
	case int64:
		return otellog.Int64(key, v)
	case float64:
		return otellog.Float64(key, v)
	default:
		return otellog.String(key, fmt.Sprintf("%v", v))
	}
}

var _ Sink = (*OTLPSink)(nil)
