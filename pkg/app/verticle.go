package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	"strings"
	"sync"

	"github.com/fluxorio/todolist/pkg/core"
	"github.com/fluxorio/todolist/pkg/core/failfast"
	"github.com/fluxorio/todolist/pkg/events"
	"github.com/fluxorio/todolist/pkg/handlers"
	tracing "github.com/fluxorio/todolist/pkg/observability/otel"
	metrics "github.com/fluxorio/todolist/pkg/observability/prometheus"
	"github.com/fluxorio/todolist/pkg/store"
	"github.com/fluxorio/todolist/pkg/web"
	"github.com/fluxorio/todolist/pkg/web/middleware"
	"github.com/fluxorio/todolist/pkg/web/middleware/security"
	promclient "github.com/prometheus/client_golang/prometheus"
)

// Option customizes a TodoVerticle
type Option func(*TodoVerticle)

// WithListener serves on ln instead of listening on the configured address.
func WithListener(ln net.Listener) Option {
	return func(v *TodoVerticle) { v.listener = ln }
}

// WithRegistry uses reg for metrics instead of a fresh registry.
func WithRegistry(reg *promclient.Registry) Option {
	return func(v *TodoVerticle) { v.registry = reg }
}

// WithTracing uses p for request spans regardless of the tracing config.
// The verticle shuts p down on stop.
func WithTracing(p *tracing.Provider) Option {
	return func(v *TodoVerticle) { v.tracing = p }
}

// TodoVerticle owns the todo store and serves it over HTTP.
//
// Start order: tracing, metrics, store, event consumers, HTTP server.
// Stop runs the reverse so in-flight requests finish before the store closes.
type TodoVerticle struct {
	*core.BaseVerticle

	cfg    *AppConfig
	logger core.Logger

	listener net.Listener
	registry *promclient.Registry
	tracing  *tracing.Provider

	store     *store.Store
	server    *web.FastHTTPServer
	metrics   *metrics.Metrics
	consumers []core.Verticle
	started   []core.Verticle

	serveDone chan struct{}
	mu        sync.Mutex
	serveErr  error
}

// NewTodoVerticle creates the verticle. Nothing is opened until deploy.
func NewTodoVerticle(cfg *AppConfig, logger core.Logger, opts ...Option) *TodoVerticle {
	failfast.NotNil(cfg, "config")
	if logger == nil {
		logger = core.NewDefaultLogger()
	}
	v := &TodoVerticle{
		BaseVerticle: core.NewBaseVerticle("todo-service"),
		cfg:          cfg,
		logger:       logger,
	}
	for _, opt := range opts {
		opt(v)
	}
	v.SetHooks(v.start, v.stop)
	return v
}

// Store returns the store, nil before deploy
func (v *TodoVerticle) Store() *store.Store { return v.store }

// Server returns the HTTP server, nil before deploy
func (v *TodoVerticle) Server() *web.FastHTTPServer { return v.server }

// Addr returns the address the server listens on, empty before deploy
func (v *TodoVerticle) Addr() string {
	if v.listener == nil {
		return ""
	}
	return v.listener.Addr().String()
}

func (v *TodoVerticle) start(ctx core.FluxorContext) (err error) {
	defer func() {
		if err != nil {
			v.release(ctx)
		}
	}()

	if v.tracing == nil && v.cfg.Tracing.Enabled {
		v.tracing, err = tracing.NewProvider(ctx.Context(), tracing.Config{
			ServiceName: v.cfg.Tracing.ServiceName,
			Exporter:    v.cfg.Tracing.Exporter,
			Endpoint:    v.cfg.Tracing.ZipkinURL,
			SampleRate:  v.cfg.Tracing.SampleRate,
		})
		if err != nil {
			return fmt.Errorf("init tracing: %w", err)
		}
	}

	if v.cfg.Metrics.Enabled {
		if v.registry == nil {
			v.registry = metrics.NewRegistry()
		}
		v.metrics = metrics.NewMetrics(v.registry)
	}

	if err := v.openStore(ctx); err != nil {
		return err
	}

	if err := v.startConsumers(ctx); err != nil {
		return err
	}

	return v.startServer(ctx)
}

func (v *TodoVerticle) openStore(ctx core.FluxorContext) error {
	policy, err := store.ParsePersistPolicy(v.cfg.Store.PersistPolicy)
	if err != nil {
		return err
	}

	var persister store.Persister
	switch strings.ToLower(v.cfg.Store.Backend) {
	case BackendSQLite:
		p, err := store.NewSQLitePersister(v.cfg.Store.Path)
		if err != nil {
			return err
		}
		if v.metrics != nil {
			metrics.RegisterDBStats(v.metrics, p.Pool().DB(), "todos")
		}
		persister = p
	case BackendMemory:
		persister = store.NewMemoryPersister(nil)
	default:
		persister = store.NewJSONFilePersister(v.cfg.Store.Path)
	}

	v.store = store.New(ctx.Context(), persister,
		store.WithLogger(v.logger),
		store.WithPolicy(policy),
		store.WithObserver(events.Publisher(ctx.EventBus(), v.logger)),
	)
	if v.metrics != nil {
		v.metrics.SetTodoRecords(v.store.Len())
	}
	v.logger.Infof("todo store ready: backend=%s path=%s policy=%s", v.cfg.Store.Backend, v.cfg.Store.Path, policy)
	return nil
}

func (v *TodoVerticle) startConsumers(ctx core.FluxorContext) error {
	if v.cfg.Events.Audit {
		v.consumers = append(v.consumers, events.NewAuditVerticle(v.logger))
	}
	if v.metrics != nil {
		v.consumers = append(v.consumers, events.NewMetricsVerticle(v.metrics, v.store.Len))
	}
	if v.cfg.Events.NATSURL != "" {
		v.consumers = append(v.consumers, events.NewNATSBridgeVerticle(events.NATSBridgeConfig{
			URL:    v.cfg.Events.NATSURL,
			Prefix: v.cfg.Events.SubjectPrefix,
			Name:   "todolist",
		}))
	}

	for _, c := range v.consumers {
		if err := c.Start(ctx); err != nil {
			return fmt.Errorf("start event consumer: %w", err)
		}
		v.started = append(v.started, c)
	}
	return nil
}

func (v *TodoVerticle) startServer(ctx core.FluxorContext) error {
	sc := v.cfg.Server
	serverCfg := web.CCUBasedConfigWithUtilization(sc.Addr, sc.MaxCCU, sc.UtilizationPercent)
	serverCfg.ReadTimeout = sc.ReadTimeout.Std()
	serverCfg.WriteTimeout = sc.WriteTimeout.Std()
	serverCfg.ShutdownTimeout = sc.ShutdownTimeout.Std()

	v.server = web.NewFastHTTPServer(ctx.Vertx(), serverCfg)
	router := v.server.Router()

	chain := []web.FastMiddleware{
		middleware.Recovery(middleware.RecoveryConfig{Logger: v.logger, ExposePanic: sc.ExposePanics}),
	}
	if v.tracing != nil {
		chain = append(chain, tracing.HTTPMiddleware(v.tracing.Tracer()))
	}
	if v.metrics != nil {
		chain = append(chain, metrics.FastHTTPMetricsMiddleware(v.metrics))
	}
	chain = append(chain, middleware.AccessLog(v.logger))
	if sec := v.cfg.Security; sec.Headers {
		headers := security.DefaultHeadersConfig()
		headers.HSTS = sec.HSTS
		chain = append(chain, security.Headers(headers))
	}
	chain = append(chain, security.CORS(security.CORSConfig{
		AllowedOrigins: v.cfg.CORS.AllowedOrigins,
		AllowedMethods: v.cfg.CORS.AllowedMethods,
		AllowedHeaders: v.cfg.CORS.AllowedHeaders,
		ExposedHeaders: []string{core.RequestIDHeader},
		MaxAge:         v.cfg.CORS.MaxAge,
	}))
	// After CORS: preflights are never limited and 429s stay readable cross-origin.
	if rl := v.cfg.Security.RateLimit; rl.Enabled {
		chain = append(chain, security.RateLimit(security.RateLimitConfig{
			RequestsPerSecond: rl.RequestsPerSecond,
			Burst:             rl.Burst,
			SkipPaths:         []string{"/health", "/ready", v.cfg.Metrics.Path},
		}))
	}
	router.Use(chain...)

	handlers.NewTodoHandler(v.store).RegisterRoutes(router)
	handlers.NewHealthHandler(v.server.Ready).RegisterRoutes(router)
	if v.metrics != nil {
		metrics.RegisterServerMetrics(v.metrics, v.server)
		router.GETFast(v.cfg.Metrics.Path, metrics.Handler(v.registry))
	}

	if v.listener == nil {
		ln, err := net.Listen("tcp", sc.Addr)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", sc.Addr, err)
		}
		v.listener = ln
	}

	v.serveDone = make(chan struct{})
	go func() {
		defer close(v.serveDone)
		if err := v.server.Serve(v.listener); err != nil {
			v.logger.Errorf("http server stopped: %v", err)
			v.mu.Lock()
			v.serveErr = err
			v.mu.Unlock()
		}
	}()
	v.logger.Infof("todo service listening on %s", v.Addr())
	return nil
}

func (v *TodoVerticle) stop(ctx core.FluxorContext) error {
	var errs []error
	if v.server != nil {
		if err := v.server.Shutdown(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("shutdown http server: %w", err))
		}
		<-v.serveDone
		v.mu.Lock()
		if v.serveErr != nil {
			errs = append(errs, v.serveErr)
		}
		v.mu.Unlock()
	}
	errs = append(errs, v.release(ctx))
	v.logger.Info("todo service stopped")
	return errors.Join(errs...)
}

// release stops consumers, closes the store and flushes traces.
func (v *TodoVerticle) release(ctx core.FluxorContext) error {
	var errs []error
	for i := len(v.started) - 1; i >= 0; i-- {
		if err := v.started[i].Stop(ctx); err != nil {
			errs = append(errs, fmt.Errorf("stop event consumer: %w", err))
		}
	}
	v.started = nil

	if v.store != nil {
		if err := v.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	if v.tracing != nil {
		if err := v.tracing.Shutdown(context.Background()); err != nil {
			errs = append(errs, fmt.Errorf("flush traces: %w", err))
		}
	}
	return errors.Join(errs...)
}
