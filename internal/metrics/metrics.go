package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	WsConnections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "syncroom_ws_connections",
		Help: "Current number of active websocket connections",
	})
	WsMessagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "syncroom_ws_messages_total",
		Help: "Total number of websocket messages handled",
	}, []string{"type"})
	WsHandlerDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "syncroom_ws_handler_duration_seconds",
		Help:    "Websocket handler duration in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"type"})
	HttpRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "syncroom_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "path", "status"})
)

func init() {
	prometheus.MustRegister(WsConnections, WsMessagesTotal, WsHandlerDuration, HttpRequestsTotal)
}
