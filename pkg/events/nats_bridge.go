package events

import (
	"fmt"
	"time"

	"github.com/fluxorio/todolist/pkg/core"
	"github.com/nats-io/nats.go"
)

// NATSBridgeConfig configures the NATS bridge.
type NATSBridgeConfig struct {
	// URL is the NATS server URL, e.g. "nats://127.0.0.1:4222".
	URL string

	// Prefix is prepended to the event bus address. Default: "todolist".
	Prefix string

	// Name is an optional NATS connection name.
	Name string

	// ConnectTimeout bounds the initial dial. Default: 5s.
	ConnectTimeout time.Duration
}

// NATSBridgeVerticle republishes mutation events to NATS.
//
// Subject mapping: <prefix>.<address>, e.g. todolist.todos.created.
// The message body is the event JSON as published on the bus.
type NATSBridgeVerticle struct {
	*core.BaseVerticle
	cfg    NATSBridgeConfig
	nc     *nats.Conn
	logger core.Logger
}

// NewNATSBridgeVerticle creates the bridge. The connection is opened on
// deploy, so an unreachable server fails the deployment.
func NewNATSBridgeVerticle(cfg NATSBridgeConfig) *NATSBridgeVerticle {
	if cfg.URL == "" {
		cfg.URL = nats.DefaultURL
	}
	if cfg.Prefix == "" {
		cfg.Prefix = "todolist"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 5 * time.Second
	}
	v := &NATSBridgeVerticle{BaseVerticle: core.NewBaseVerticle("todo-nats-bridge"), cfg: cfg}
	v.SetHooks(v.start, v.stop)
	return v
}

// Subject returns the NATS subject for an event bus address.
func (v *NATSBridgeVerticle) Subject(address string) string {
	return v.cfg.Prefix + "." + address
}

func (v *NATSBridgeVerticle) start(ctx core.FluxorContext) error {
	v.logger = ctx.Logger()

	nc, err := nats.Connect(v.cfg.URL, nats.Timeout(v.cfg.ConnectTimeout), func(o *nats.Options) error {
		if v.cfg.Name != "" {
			o.Name = v.cfg.Name
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("connect to nats at %s: %w", v.cfg.URL, err)
	}
	v.nc = nc

	subscribe(v.BaseVerticle, v.forward)
	v.logger.Infof("forwarding todo events to nats %s under %s.*", v.cfg.URL, v.cfg.Prefix)
	return nil
}

func (v *NATSBridgeVerticle) forward(_ core.FluxorContext, msg core.Message) error {
	body, ok := msg.Body().([]byte)
	if !ok {
		return fmt.Errorf("unexpected body type %T on %s", msg.Body(), msg.Address())
	}
	out := &nats.Msg{
		Subject: v.Subject(msg.Address()),
		Data:    body,
		Header:  nats.Header{},
	}
	if rid := msg.Headers()[core.RequestIDHeader]; rid != "" {
		out.Header.Set(core.RequestIDHeader, rid)
	}
	return v.nc.PublishMsg(out)
}

func (v *NATSBridgeVerticle) stop(core.FluxorContext) error {
	if v.nc == nil {
		return nil
	}
	err := v.nc.FlushTimeout(v.cfg.ConnectTimeout)
	v.nc.Close()
	return err
}
