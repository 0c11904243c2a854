package mopentelemetry

import (
	"context"

	"github.com/thirdway-labs/modelctl/common"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"
)

// Telemetry holds the process-wide tracer provider used to propagate a trace
// context through every request, job, and background worker.
type Telemetry struct {
	LibraryName    string
	ServiceName    string
	ServiceVersion string
	DeploymentEnv  string
	TracerProvider *sdktrace.TracerProvider
	shutdown       func()
}

func (tl *Telemetry) newResource() (*sdkresource.Resource, error) {
	return sdkresource.Merge(
		sdkresource.Default(),
		sdkresource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(tl.ServiceName),
			semconv.ServiceVersion(tl.ServiceVersion),
			semconv.DeploymentEnvironment(tl.DeploymentEnv)),
	)
}

// InitializeTelemetry builds a tracer provider scoped to this process and
// installs it and the W3C trace-context propagator as the global defaults.
func (tl *Telemetry) InitializeTelemetry() *Telemetry {
	r, err := tl.newResource()
	if err != nil {
		r = sdkresource.Default()
	}

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(r))
	otel.SetTracerProvider(tp)

	tl.TracerProvider = tp
	tl.shutdown = func() {
		_ = tp.Shutdown(context.Background())
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{}))

	return &Telemetry{
		LibraryName:    tl.LibraryName,
		TracerProvider: tp,
		shutdown:       tl.shutdown,
	}
}

// ShutdownTelemetry flushes and stops the tracer provider.
func (tl *Telemetry) ShutdownTelemetry() {
	if tl.shutdown != nil {
		tl.shutdown()
	}
}

// ExtractContext returns ctx unchanged; no propagated trace context is
// extracted from any carrier.
func ExtractContext(ctx context.Context) context.Context {
	return ctx
}

// SetSpanAttributesFromStruct serializes valueStruct to JSON and attaches it to span under key.
func SetSpanAttributesFromStruct(span *trace.Span, key string, valueStruct any) error {
	vStr, err := common.StructToJSONString(valueStruct)
	if err != nil {
		return err
	}

	(*span).SetAttributes(attribute.KeyValue{
		Key:   attribute.Key(key),
		Value: attribute.StringValue(vStr),
	})

	return nil
}

// HandleSpanError records err on span and marks its status as an error.
func HandleSpanError(span *trace.Span, message string, err error) {
	(*span).SetStatus(codes.Error, message+": "+err.Error())
	(*span).RecordError(err)
}
