package events

import (
	"github.com/fluxorio/todolist/pkg/core"
	"github.com/fluxorio/todolist/pkg/store"
)

// AuditVerticle writes one log line per committed mutation.
type AuditVerticle struct {
	*core.BaseVerticle
	logger core.Logger
}

// NewAuditVerticle creates the audit consumer. A nil logger uses the
// runtime logger at deploy time.
func NewAuditVerticle(logger core.Logger) *AuditVerticle {
	v := &AuditVerticle{BaseVerticle: core.NewBaseVerticle("todo-audit"), logger: logger}
	v.SetHooks(v.start, nil)
	return v
}

func (v *AuditVerticle) start(ctx core.FluxorContext) error {
	if v.logger == nil {
		v.logger = ctx.Logger()
	}
	subscribe(v.BaseVerticle, v.handle)
	return nil
}

func (v *AuditVerticle) handle(_ core.FluxorContext, msg core.Message) error {
	var e store.Event
	if err := msg.DecodeBody(&e); err != nil {
		return err
	}
	fields := map[string]interface{}{
		"event":      string(e.Type),
		"todo_id":    e.Todo.ID,
		"todo_count": e.Count,
		"completed":  e.Todo.Completed,
	}
	if rid := msg.Headers()[core.RequestIDHeader]; rid != "" {
		fields["request_id"] = rid
	}
	v.logger.WithFields(fields).Infof("todo %s", e.Type)
	return nil
}
