package otel

import (
	"fmt"

	"github.com/fluxorio/todolist/pkg/web"
	"github.com/valyala/fasthttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// headerCarrier adapts fasthttp request headers to propagation.TextMapCarrier
type headerCarrier struct {
	h *fasthttp.RequestHeader
}

func (c headerCarrier) Get(key string) string {
	return string(c.h.Peek(key))
}

func (c headerCarrier) Set(key, value string) {
	c.h.Set(key, value)
}

func (c headerCarrier) Keys() []string {
	var keys []string
	c.h.VisitAll(func(k, _ []byte) {
		keys = append(keys, string(k))
	})
	return keys
}

// HTTPMiddleware starts a server span per request. Incoming trace context is
// honored, the span is attached to the request context and the request ID is
// recorded as an attribute.
func HTTPMiddleware(tracer trace.Tracer) web.FastMiddleware {
	return func(next web.FastRequestHandler) web.FastRequestHandler {
		return func(ctx *web.FastRequestContext) error {
			parent := otel.GetTextMapPropagator().Extract(ctx.Context(), headerCarrier{h: &ctx.RequestCtx.Request.Header})

			method := string(ctx.Method())
			// Renamed to "METHOD /pattern" below once a route matches.
			spanCtx, span := tracer.Start(parent, method,
				trace.WithSpanKind(trace.SpanKindServer),
				trace.WithAttributes(
					attribute.String("http.request.method", method),
					attribute.String("url.path", string(ctx.Path())),
					attribute.String("request.id", ctx.RequestID()),
				),
			)
			defer span.End()
			ctx.SetContext(spanCtx)

			err := next(ctx)

			if route := ctx.Route(); route != "" {
				span.SetName(method + " " + route)
				span.SetAttributes(attribute.String("http.route", route))
			}
			status := ctx.RequestCtx.Response.StatusCode()
			span.SetAttributes(attribute.Int("http.response.status_code", status))
			if err != nil {
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			} else if status >= 500 {
				span.SetStatus(codes.Error, fmt.Sprintf("HTTP %d", status))
			}
			return err
		}
	}
}
