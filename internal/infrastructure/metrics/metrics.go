package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "gateway"

// Metrics defines our Prometheus metrics
type Metrics struct {
	ConnectedClients   prometheus.Gauge
	Rooms              prometheus.Gauge
	HandshakesRejected *prometheus.CounterVec
	EventsConsumed     prometheus.Counter
	EventsMalformed    prometheus.Counter
	EventsDuplicate    prometheus.Counter
	FramesDelivered    *prometheus.CounterVec
	SlowClients        *prometheus.CounterVec
	BackplaneReceived  prometheus.Counter
	BackplaneFailures  *prometheus.CounterVec
	BrokerReconnects   prometheus.Counter

	gatherer prometheus.Gatherer
}

// New registers every collector on reg. Pass prometheus.NewRegistry() in tests.
func New(reg *prometheus.Registry) *Metrics {
	factory := promauto.With(reg)

	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	return &Metrics{
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "connected_clients",
			Help:      "Number of WebSocket clients connected to this instance.",
		}),
		Rooms: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms",
			Help:      "Number of non-empty rooms on this instance.",
		}),
		HandshakesRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "handshakes_rejected_total",
			Help:      "Upgrade requests refused, by reason.",
		}, []string{"reason"}),
		EventsConsumed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_consumed_total",
			Help:      "Broker messages received from the exchange.",
		}),
		EventsMalformed: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_malformed_total",
			Help:      "Broker messages dropped because they were not valid events.",
		}),
		EventsDuplicate: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "events_duplicate_total",
			Help:      "Events skipped because this instance already delivered them.",
		}),
		FramesDelivered: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_delivered_total",
			Help:      "Frames queued to client send buffers, by scope.",
		}, []string{"scope"}),
		SlowClients: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "slow_clients_total",
			Help:      "Frames that hit a full client send buffer, by policy applied.",
		}, []string{"policy"}),
		BackplaneReceived: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backplane_received_total",
			Help:      "Broadcasts received from peer instances.",
		}),
		BackplaneFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "backplane_failures_total",
			Help:      "Backplane publish or decode failures.",
		}, []string{"op"}),
		BrokerReconnects: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "broker_reconnects_total",
			Help:      "Broker dial attempts after the first, including reconnects after a lost connection.",
		}),
		gatherer: reg,
	}
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
