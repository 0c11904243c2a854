package http

import (
	"github.com/thirdway-labs/modelctl/common"
	"github.com/thirdway-labs/modelctl/common/mopentelemetry"
	"github.com/gofiber/fiber/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TelemetryMiddleware attaches a tracer to every request's context.
type TelemetryMiddleware struct {
	*mopentelemetry.Telemetry
}

// NewTelemetryMiddleware creates a new instance of TelemetryMiddleware.
func NewTelemetryMiddleware(tl *mopentelemetry.Telemetry) *TelemetryMiddleware {
	return &TelemetryMiddleware{tl}
}

// WithTelemetry starts a span named "<method> <path>" for the request and
// stores the tracer in the request's user context for downstream use.
func (tm *TelemetryMiddleware) WithTelemetry(tl *mopentelemetry.Telemetry) fiber.Handler {
	return func(c *fiber.Ctx) error {
		tracer := otel.Tracer(tl.LibraryName)
		ctx := common.ContextWithTracer(c.UserContext(), tracer)

		ctx, span := tracer.Start(ctx, c.Method()+" "+c.Route().Path)
		defer span.End()

		c.SetUserContext(ctx)

		return c.Next()
	}
}

// EndTracingSpans ends the span associated with the request's context after
// the handler chain completes, on its own goroutine so it never blocks the
// response.
func (tm *TelemetryMiddleware) EndTracingSpans(c *fiber.Ctx) error {
	err := c.Next()

	go func() {
		trace.SpanFromContext(c.UserContext()).End()
	}()

	return err
}
