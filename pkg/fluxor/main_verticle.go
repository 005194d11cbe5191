// Package fluxor bootstraps an application: deploy verticles, block until a
// shutdown signal, then undeploy them.
package fluxor

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/fluxorio/todolist/pkg/core"
)

// MainVerticle is a convenience bootstrapper for "main-like" applications:
// deploy verticles -> Start() blocks until shutdown signal -> Stop().
type MainVerticle struct {
	vertx  core.Vertx
	logger core.Logger

	mu            sync.Mutex
	deploymentIDs []string

	stopOnce sync.Once
	stopped  chan struct{}
	stopErr  error
}

// NewMainVerticle creates the runtime. A nil logger uses the default logger.
func NewMainVerticle(ctx context.Context, logger core.Logger) (*MainVerticle, error) {
	if logger == nil {
		logger = core.NewDefaultLogger()
	}
	vx, err := core.NewVertxWithOptions(ctx, core.VertxOptions{Logger: logger})
	if err != nil {
		return nil, err
	}
	return &MainVerticle{
		vertx:   vx,
		logger:  logger,
		stopped: make(chan struct{}),
	}, nil
}

// Vertx returns the underlying Vertx (advanced usage).
func (m *MainVerticle) Vertx() core.Vertx { return m.vertx }

// DeployVerticle deploys v. Verticles are undeployed in reverse order on Stop.
func (m *MainVerticle) DeployVerticle(v core.Verticle) (string, error) {
	if v == nil {
		return "", &core.Error{Code: "INVALID_INPUT", Message: "verticle cannot be nil"}
	}

	id, err := m.vertx.DeployVerticle(v)
	if err != nil {
		return "", err
	}

	m.mu.Lock()
	m.deploymentIDs = append(m.deploymentIDs, id)
	m.mu.Unlock()
	return id, nil
}

// DeploymentIDs returns the ids deployed through m, oldest first.
func (m *MainVerticle) DeploymentIDs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.deploymentIDs...)
}

// Start blocks until SIGINT/SIGTERM, then stops the app. It also returns
// once Stop has been called elsewhere.
func (m *MainVerticle) Start() error {
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sig)

	select {
	case s := <-sig:
		m.logger.Infof("received %s, shutting down", s)
		return m.Stop()
	case <-m.stopped:
		return m.stopErr
	}
}

// Stop closes Vertx, which undeploys every verticle newest first and closes
// the event bus. Safe to call more than once.
func (m *MainVerticle) Stop() error {
	m.stopOnce.Do(func() {
		m.stopErr = m.vertx.Close()
		close(m.stopped)
	})
	<-m.stopped
	return m.stopErr
}

// Done is closed once Stop has finished.
func (m *MainVerticle) Done() <-chan struct{} {
	return m.stopped
}
