package web

import (
	"context"
	"net"
	"sync/atomic"
	"time"

	"github.com/fluxorio/todolist/pkg/core"
	"github.com/fluxorio/todolist/pkg/core/failfast"
	"github.com/valyala/fasthttp"
)

// FastHTTPServerConfig configures the fasthttp server
type FastHTTPServerConfig struct {
	Addr string
	// NormalCapacity is the in-flight request limit enforced by backpressure
	NormalCapacity     int
	MaxConns           int
	ReadTimeout        time.Duration
	WriteTimeout       time.Duration
	IdleTimeout        time.Duration
	MaxRequestBodySize int
	ShutdownTimeout    time.Duration
	// UnmeteredPaths bypass backpressure, so health checks still answer at capacity
	UnmeteredPaths []string
}

// DefaultFastHTTPServerConfig returns default configuration
func DefaultFastHTTPServerConfig(addr string) *FastHTTPServerConfig {
	return CCUBasedConfigWithUtilization(addr, 1000, 67)
}

// CCUBasedConfigWithUtilization returns configuration with target utilization percentage
// maxCCU: Maximum concurrent users capacity
// utilizationPercent: Target utilization under normal load (e.g., 67 for 67%)
// Formula: NormalCapacity = maxCCU * (utilizationPercent / 100)
func CCUBasedConfigWithUtilization(addr string, maxCCU int, utilizationPercent int) *FastHTTPServerConfig {
	if utilizationPercent < 1 || utilizationPercent > 100 {
		utilizationPercent = 67
	}
	if maxCCU < 1 {
		maxCCU = 1000
	}
	normalCapacity := int(float64(maxCCU) * float64(utilizationPercent) / 100.0)
	if normalCapacity < 1 {
		normalCapacity = 1
	}

	return &FastHTTPServerConfig{
		Addr:               addr,
		NormalCapacity:     normalCapacity,
		MaxConns:           maxCCU,
		ReadTimeout:        10 * time.Second,
		WriteTimeout:       10 * time.Second,
		IdleTimeout:        60 * time.Second,
		MaxRequestBodySize: 1 << 20,
		ShutdownTimeout:    5 * time.Second,
		UnmeteredPaths:     []string{"/health", "/ready"},
	}
}

// FastHTTPServer is the fasthttp based HTTP server. It applies backpressure,
// assigns request IDs and hands every request to its Router.
type FastHTTPServer struct {
	vertx        core.Vertx
	router       *Router
	server       *fasthttp.Server
	config       FastHTTPServerConfig
	backpressure *BackpressureController
	unmetered    map[string]struct{}
	logger       core.Logger
	shuttingDown atomic.Bool

	totalRequests      int64
	rejectedRequests   int64
	successfulRequests int64
	errorRequests      int64
}

// NewFastHTTPServer creates a new fasthttp server
func NewFastHTTPServer(vertx core.Vertx, config *FastHTTPServerConfig) *FastHTTPServer {
	failfast.NotNil(vertx, "vertx")
	if config == nil {
		config = DefaultFastHTTPServerConfig(":8080")
	}

	s := &FastHTTPServer{
		vertx:        vertx,
		router:       NewRouter(),
		config:       *config,
		backpressure: NewBackpressureController(config.NormalCapacity),
		unmetered:    make(map[string]struct{}, len(config.UnmeteredPaths)),
		logger:       vertx.Logger(),
	}
	for _, p := range config.UnmeteredPaths {
		s.unmetered[p] = struct{}{}
	}
	s.server = &fasthttp.Server{
		Handler:               s.handleRequest,
		Name:                  "todolist",
		ReadTimeout:           config.ReadTimeout,
		WriteTimeout:          config.WriteTimeout,
		IdleTimeout:           config.IdleTimeout,
		MaxConnsPerIP:         config.MaxConns,
		MaxRequestBodySize:    config.MaxRequestBodySize,
		NoDefaultServerHeader: true,
		NoDefaultContentType:  true,
		ReduceMemoryUsage:     true,
		CloseOnShutdown:       true,
	}
	return s
}

// Router returns the router
func (s *FastHTTPServer) Router() *Router {
	return s.router
}

// Addr returns the configured listen address
func (s *FastHTTPServer) Addr() string {
	return s.config.Addr
}

// ListenAndServe blocks serving on the configured address
func (s *FastHTTPServer) ListenAndServe() error {
	s.logger.Infof("HTTP server listening on %s", s.config.Addr)
	return s.server.ListenAndServe(s.config.Addr)
}

// Serve blocks serving connections from ln
func (s *FastHTTPServer) Serve(ln net.Listener) error {
	return s.server.Serve(ln)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *FastHTTPServer) Shutdown(ctx context.Context) error {
	s.shuttingDown.Store(true)
	if _, ok := ctx.Deadline(); !ok && s.config.ShutdownTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.ShutdownTimeout)
		defer cancel()
	}
	return s.server.ShutdownWithContext(ctx)
}

// Ready reports whether the server would admit another metered request.
// It turns false for good once Shutdown starts.
func (s *FastHTTPServer) Ready() bool {
	return !s.shuttingDown.Load() && !s.backpressure.Saturated()
}

// Handler returns the root request handler (useful for tests)
func (s *FastHTTPServer) Handler() fasthttp.RequestHandler {
	return s.handleRequest
}

// Metrics returns current server metrics
func (s *FastHTTPServer) Metrics() ServerMetrics {
	bp := s.backpressure.GetMetrics()
	return ServerMetrics{
		NormalCCU:          int(bp.NormalCapacity),
		CurrentCCU:         int(bp.CurrentLoad),
		CCUUtilization:     bp.Utilization,
		TotalRequests:      atomic.LoadInt64(&s.totalRequests),
		RejectedRequests:   atomic.LoadInt64(&s.rejectedRequests),
		SuccessfulRequests: atomic.LoadInt64(&s.successfulRequests),
		ErrorRequests:      atomic.LoadInt64(&s.errorRequests),
	}
}

// ServerMetrics provides server performance metrics
type ServerMetrics struct {
	NormalCCU          int     // Normal CCU capacity (target utilization)
	CurrentCCU         int     // Current in-flight requests
	CCUUtilization     float64 // Percentage of normal capacity in use
	TotalRequests      int64   // Total requests received, rejected included
	RejectedRequests   int64   // Total rejected requests (503)
	SuccessfulRequests int64   // 2xx responses
	ErrorRequests      int64   // 5xx responses
}

// handleRequest applies backpressure (except on unmetered paths), then
// routes the request.
// Fail-fast: returns 503 immediately when normal capacity is exceeded.
func (s *FastHTTPServer) handleRequest(ctx *fasthttp.RequestCtx) {
	atomic.AddInt64(&s.totalRequests, 1)

	requestID := string(ctx.Request.Header.Peek(core.RequestIDHeader))
	if requestID == "" {
		requestID = core.GenerateRequestID()
	}
	ctx.Response.Header.Set(core.RequestIDHeader, requestID)

	if _, ok := s.unmetered[string(ctx.Path())]; !ok {
		if !s.backpressure.TryAcquire() {
			atomic.AddInt64(&s.rejectedRequests, 1)
			ctx.SetStatusCode(fasthttp.StatusServiceUnavailable)
			ctx.SetContentType("application/json")
			ctx.SetBodyString(`{"error":"server at capacity"}`)
			return
		}
		defer s.backpressure.Release()
	}

	reqCtx := NewFastRequestContext(ctx, s.vertx, requestID)
	s.router.ServeFastHTTP(reqCtx)

	status := ctx.Response.StatusCode()
	switch {
	case status >= 200 && status < 300:
		atomic.AddInt64(&s.successfulRequests, 1)
	case status >= 500:
		atomic.AddInt64(&s.errorRequests, 1)
	}
}
