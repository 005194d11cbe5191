package prometheus

import (
	"database/sql"
	"strconv"
	"time"

	"github.com/fluxorio/todolist/pkg/web"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"
)

// FastHTTPMetricsMiddleware creates middleware that records HTTP metrics.
// Requests that match no route are labelled "unmatched" to bound cardinality.
func FastHTTPMetricsMiddleware(m *Metrics) web.FastMiddleware {
	return func(next web.FastRequestHandler) web.FastRequestHandler {
		return func(ctx *web.FastRequestContext) error {
			start := time.Now()
			err := next(ctx)

			route := ctx.Route()
			if route == "" {
				route = "unmatched"
			}
			status := ctx.RequestCtx.Response.StatusCode()
			if err != nil {
				status = 500
			}
			m.RecordHTTPRequest(string(ctx.Method()), route, strconv.Itoa(status), time.Since(start))
			return err
		}
	}
}

// RegisterServerMetrics exports the server's backpressure counters
func RegisterServerMetrics(m *Metrics, server *web.FastHTTPServer) {
	factory := promauto.With(m.registerer)
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "server_inflight_requests",
		Help:      "Requests currently being processed",
	}, func() float64 { return float64(server.Metrics().CurrentCCU) })
	factory.NewGaugeFunc(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "server_normal_capacity",
		Help:      "In-flight request limit before backpressure applies",
	}, func() float64 { return float64(server.Metrics().NormalCCU) })
	factory.NewCounterFunc(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "server_rejected_requests_total",
		Help:      "Requests rejected with 503 by backpressure",
	}, func() float64 { return float64(server.Metrics().RejectedRequests) })
}

// RegisterDBStats exports database/sql pool statistics for db
func RegisterDBStats(m *Metrics, db *sql.DB, name string) {
	m.registerer.MustRegister(collectors.NewDBStatsCollector(db, name))
}

// Handler serves the metrics gathered by gatherer
func Handler(gatherer prometheus.Gatherer) web.FastRequestHandler {
	h := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	return func(ctx *web.FastRequestContext) error {
		h(ctx.RequestCtx)
		return nil
	}
}
