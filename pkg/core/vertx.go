package core

import (
	"context"
	"fmt"
	"sync"
)

// Vertx is the main entry point for the Fluxor runtime
type Vertx interface {
	// EventBus returns the event bus
	EventBus() EventBus

	// DeployVerticle deploys a verticle
	DeployVerticle(verticle Verticle) (string, error)

	// UndeployVerticle undeploys a verticle
	UndeployVerticle(deploymentID string) error

	// DeploymentCount returns the number of deployed verticles
	DeploymentCount() int

	// Logger returns the runtime logger
	Logger() Logger

	// Close undeploys every verticle, newest first, then closes the event bus
	Close() error

	// Context returns the root context
	Context() context.Context
}

// VertxOptions customizes NewVertxWithOptions.
type VertxOptions struct {
	Logger Logger

	// EventBusFactory replaces the default in-process bus
	EventBusFactory func(ctx context.Context, vertx Vertx) (EventBus, error)
}

type vertx struct {
	eventBus EventBus
	logger   Logger

	mu          sync.RWMutex
	deployments []*deployment

	ctx    context.Context
	cancel context.CancelFunc
}

type deployment struct {
	id       string
	verticle Verticle
	ctx      FluxorContext
}

// NewVertx creates a new Vertx instance with the in-process event bus
func NewVertx(ctx context.Context) Vertx {
	v, err := NewVertxWithOptions(ctx, VertxOptions{})
	if err != nil {
		// the default factory cannot fail
		panic(err)
	}
	return v
}

// NewVertxWithOptions creates a Vertx instance using opts
func NewVertxWithOptions(ctx context.Context, opts VertxOptions) (Vertx, error) {
	ctx, cancel := context.WithCancel(ctx)
	logger := opts.Logger
	if logger == nil {
		logger = NewDefaultLogger()
	}
	v := &vertx{
		ctx:    ctx,
		cancel: cancel,
		logger: logger,
	}

	if opts.EventBusFactory != nil {
		bus, err := opts.EventBusFactory(ctx, v)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("create event bus: %w", err)
		}
		v.eventBus = bus
	} else {
		v.eventBus = NewEventBus(ctx, v)
	}
	return v, nil
}

func (v *vertx) EventBus() EventBus       { return v.eventBus }
func (v *vertx) Logger() Logger           { return v.logger }
func (v *vertx) Context() context.Context { return v.ctx }

func (v *vertx) DeploymentCount() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.deployments)
}

func (v *vertx) DeployVerticle(verticle Verticle) (string, error) {
	if err := ValidateVerticle(verticle); err != nil {
		return "", err
	}
	return v.deploy(verticle, newContext(v.ctx, v))
}

func (v *vertx) deploy(verticle Verticle, ctx FluxorContext) (string, error) {
	id := generateDeploymentID()
	if err := verticle.Start(ctx); err != nil {
		return "", fmt.Errorf("verticle start failed: %w", err)
	}

	v.mu.Lock()
	v.deployments = append(v.deployments, &deployment{id: id, verticle: verticle, ctx: ctx})
	v.mu.Unlock()
	return id, nil
}

func (v *vertx) UndeployVerticle(deploymentID string) error {
	if deploymentID == "" {
		return &Error{Code: "INVALID_DEPLOYMENT_ID", Message: "deployment ID cannot be empty"}
	}

	v.mu.Lock()
	var dep *deployment
	for i, d := range v.deployments {
		if d.id == deploymentID {
			dep = d
			v.deployments = append(v.deployments[:i], v.deployments[i+1:]...)
			break
		}
	}
	v.mu.Unlock()

	if dep == nil {
		return &Error{Code: "DEPLOYMENT_NOT_FOUND", Message: "Deployment not found: " + deploymentID}
	}
	if err := dep.verticle.Stop(dep.ctx); err != nil {
		return fmt.Errorf("verticle stop failed: %w", err)
	}
	return nil
}

func (v *vertx) Close() error {
	v.mu.RLock()
	ids := make([]string, 0, len(v.deployments))
	for i := len(v.deployments) - 1; i >= 0; i-- {
		ids = append(ids, v.deployments[i].id)
	}
	v.mu.RUnlock()

	for _, id := range ids {
		if err := v.UndeployVerticle(id); err != nil {
			v.logger.Warnf("Failed to undeploy verticle %s during close: %v", id, err)
		}
	}

	v.cancel()
	return v.eventBus.Close()
}
