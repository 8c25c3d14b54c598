package pkg

import "github.com/prometheus/client_golang/prometheus"

var (
	CollabClientsGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "collab_server_clients",
		Help: "A gauge of clients connected to the collaboration server.",
	})

	CollabInFlightGauge = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "collab_server_in_flight_requests",
		Help: "A gauge of requests being handled by the collaboration server.",
	})

	CollabRequestsCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "collab_server_requests_total",
		Help: "A counter for requests to the collaboration server.",
	}, []string{"code", "method"})

	CollabFramesCounter = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "collab_server_frames_total",
		Help: "A counter for inbound frames by type and outcome.",
	}, []string{"type", "outcome"})

	CollabBroadcastsCounter = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "collab_server_broadcasts_total",
		Help: "A counter for frames fanned out to connected clients.",
	})
)

func init() {
	prometheus.MustRegister(
		CollabClientsGauge,
		CollabInFlightGauge,
		CollabRequestsCounter,
		CollabFramesCounter,
		CollabBroadcastsCounter,
	)
}
