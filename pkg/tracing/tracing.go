// Package tracing 提供分布式追踪功能.
// 支持OpenTelemetry标准，导出到 OTLP(HTTP/gRPC) 或 Zipkin.
//
// Example:
//
//	import "github.com/yeisme/imagevault/pkg/tracing"
//
//	err := tracing.InitTracer(ctx, config.Tracing)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer tracing.ShutdownTracer(ctx)
//
//	ctx, span := tracing.StartSpan(ctx, "link.redeem")
//	defer span.End()
package tracing

import (
	"context"
	"fmt"
	"net/http"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/zipkin"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/yeisme/imagevault/pkg/configs"
)

// TracerName 本服务使用的 tracer 名称.
const TracerName = "imagevault"

var provider *sdktrace.TracerProvider

type exporterFactory func(ctx context.Context, cfg *configs.TracingConfig) (sdktrace.SpanExporter, error)

var exporters = map[string]exporterFactory{
	"otlp-http": func(ctx context.Context, cfg *configs.TracingConfig) (sdktrace.SpanExporter, error) {
		opts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracehttp.WithInsecure())
		}

		return otlptracehttp.New(ctx, opts...)
	},
	"otlp-grpc": func(ctx context.Context, cfg *configs.TracingConfig) (sdktrace.SpanExporter, error) {
		opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
		if cfg.Insecure {
			opts = append(opts, otlptracegrpc.WithInsecure())
		}

		return otlptracegrpc.New(ctx, opts...)
	},
	"zipkin": func(_ context.Context, cfg *configs.TracingConfig) (sdktrace.SpanExporter, error) {
		return zipkin.New(cfg.Endpoint)
	},
}

// InitTracer 按配置安装全局 TracerProvider 与 W3C 传播器；未启用时什么也不做，
// otel 默认的 noop provider 让 StartSpan 保持可用.
func InitTracer(ctx context.Context, cfg configs.TracingConfig) error {
	if !cfg.Enabled {
		return nil
	}

	factory, ok := exporters[cfg.ExporterType]
	if !ok {
		return fmt.Errorf("unsupported exporter type: %s", cfg.ExporterType)
	}

	exp, err := factory(ctx, &cfg)
	if err != nil {
		return fmt.Errorf("create %s exporter: %w", cfg.ExporterType, err)
	}

	attrs := make([]attribute.KeyValue, 0, len(cfg.ResourceLabels)+2)
	for k, v := range cfg.ResourceLabels {
		attrs = append(attrs, attribute.String(k, v))
	}
	// 显式的服务名与版本优先于 resource_labels 中的同名键
	attrs = append(attrs,
		semconv.ServiceNameKey.String(cfg.ServiceName),
		semconv.ServiceVersionKey.String(cfg.ServiceVersion),
	)

	res, err := resource.New(ctx, resource.WithAttributes(attrs...))
	if err != nil {
		return fmt.Errorf("build resource: %w", err)
	}

	provider = sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exp,
			sdktrace.WithBatchTimeout(cfg.BatchTimeout),
			sdktrace.WithMaxExportBatchSize(cfg.MaxBatchSize),
			sdktrace.WithMaxQueueSize(cfg.MaxQueueSize),
		),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.ParentBased(sdktrace.TraceIDRatioBased(cfg.SampleRate))),
	)

	otel.SetTracerProvider(provider)
	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return nil
}

// ShutdownTracer 刷出未导出的 span.
func ShutdownTracer(ctx context.Context) error {
	if provider == nil {
		return nil
	}

	return provider.Shutdown(ctx)
}

// StartSpan 以本服务的 tracer 开始一个 span，调用方负责 span.End().
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(TracerName).Start(ctx, name, opts...)
}

// Extract 从入站请求头恢复上游的 trace 上下文.
func Extract(ctx context.Context, header http.Header) context.Context {
	return otel.GetTextMapPropagator().Extract(ctx, propagation.HeaderCarrier(header))
}
