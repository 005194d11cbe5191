package events

import (
	"github.com/fluxorio/todolist/pkg/core"
	"github.com/fluxorio/todolist/pkg/observability/prometheus"
	"github.com/fluxorio/todolist/pkg/store"
)

// MetricsVerticle counts mutations and tracks the collection size.
type MetricsVerticle struct {
	*core.BaseVerticle
	metrics *prometheus.Metrics
	records func() int
}

// NewMetricsVerticle creates the metrics consumer. When records is non-nil
// the record gauge is read from it instead of the event count, since events
// of different types are consumed concurrently.
func NewMetricsVerticle(m *prometheus.Metrics, records func() int) *MetricsVerticle {
	v := &MetricsVerticle{BaseVerticle: core.NewBaseVerticle("todo-metrics"), metrics: m, records: records}
	v.SetHooks(func(core.FluxorContext) error {
		subscribe(v.BaseVerticle, v.handle)
		return nil
	}, nil)
	return v
}

func (v *MetricsVerticle) handle(_ core.FluxorContext, msg core.Message) error {
	v.metrics.RecordEventBusMessage(msg.Address())
	var e store.Event
	if err := msg.DecodeBody(&e); err != nil {
		return err
	}
	v.metrics.RecordTodoMutation(string(e.Type), e.Count)
	if v.records != nil {
		v.metrics.SetTodoRecords(v.records())
	}
	return nil
}
