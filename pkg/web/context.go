package web

import (
	"context"
	"fmt"

	"github.com/fluxorio/todolist/pkg/core"
	"github.com/valyala/fasthttp"
)

// FastRequestContext wraps fasthttp RequestCtx with Fluxor context
type FastRequestContext struct {
	RequestCtx *fasthttp.RequestCtx
	Vertx      core.Vertx
	EventBus   core.EventBus
	Params     map[string]string
	requestID  string
	route      string
	ctx        context.Context
	logger     core.Logger
}

// NewFastRequestContext wraps rc. vertx may be nil for isolated handler tests.
func NewFastRequestContext(rc *fasthttp.RequestCtx, vertx core.Vertx, requestID string) *FastRequestContext {
	c := &FastRequestContext{
		RequestCtx: rc,
		Vertx:      vertx,
		Params:     make(map[string]string),
		requestID:  requestID,
	}
	if vertx != nil {
		c.EventBus = vertx.EventBus()
		c.logger = vertx.Logger()
	}
	return c
}

// JSON writes JSON response (default format) - fail-fast
func (c *FastRequestContext) JSON(statusCode int, data interface{}) error {
	if statusCode < 100 || statusCode > 599 {
		return fmt.Errorf("invalid status code: %d", statusCode)
	}

	jsonData, err := core.JSONEncode(data)
	if err != nil {
		return fmt.Errorf("json encode error: %w", err)
	}

	c.RequestCtx.SetStatusCode(statusCode)
	c.RequestCtx.SetContentType("application/json")
	c.RequestCtx.SetBody(jsonData)
	return nil
}

// ErrorJSON writes {"error": message} with statusCode.
func (c *FastRequestContext) ErrorJSON(statusCode int, message string) error {
	return c.JSON(statusCode, map[string]string{"error": message})
}

// NoContent writes statusCode with an empty body and no content type.
func (c *FastRequestContext) NoContent(statusCode int) {
	c.RequestCtx.ResetBody()
	c.RequestCtx.SetStatusCode(statusCode)
	c.RequestCtx.Response.Header.Del(fasthttp.HeaderContentType)
	c.RequestCtx.Response.Header.SetNoDefaultContentType(true)
}

// Body returns the raw request body
func (c *FastRequestContext) Body() []byte {
	return c.RequestCtx.PostBody()
}

// Param returns path parameter value
func (c *FastRequestContext) Param(key string) string {
	return c.Params[key]
}

// Method returns HTTP method
func (c *FastRequestContext) Method() []byte {
	return c.RequestCtx.Method()
}

// Path returns request path
func (c *FastRequestContext) Path() []byte {
	return c.RequestCtx.Path()
}

// Route returns the matched route pattern (e.g. "/todos/:id"), or "" when
// no route matched.
func (c *FastRequestContext) Route() string {
	return c.route
}

// RequestID returns the request ID for this request
func (c *FastRequestContext) RequestID() string {
	return c.requestID
}

// Context returns the request's context, carrying the request ID and any
// values middleware attached with SetContext.
func (c *FastRequestContext) Context() context.Context {
	if c.ctx != nil {
		return c.ctx
	}
	ctx := context.Background()
	if c.requestID != "" {
		ctx = core.WithRequestID(ctx, c.requestID)
	}
	c.ctx = ctx
	return ctx
}

// SetContext replaces the request's context.
func (c *FastRequestContext) SetContext(ctx context.Context) {
	c.ctx = ctx
}

// Logger returns a logger tagged with the request ID
func (c *FastRequestContext) Logger() core.Logger {
	l := c.logger
	if l == nil {
		l = core.NewDefaultLogger()
	}
	return l.WithContext(c.Context())
}
