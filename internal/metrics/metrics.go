// Package metrics holds the process-wide Prometheus instruments, exposed by
// the server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SessionsOpened counts transcode sessions constructed successfully.
	SessionsOpened = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mp3mirror_sessions_opened_total",
		Help: "Transcode sessions opened.",
	})

	// TranscodedBytes counts encoded audio bytes appended to session buffers.
	TranscodedBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "mp3mirror_transcoded_bytes_total",
		Help: "Encoded audio bytes produced.",
	})

	// SizePredictionDrift records the most recent predicted-vs-actual size
	// difference observed at session flush, in bytes.
	SizePredictionDrift = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mp3mirror_size_prediction_drift_bytes",
		Help: "Last observed difference between actual and predicted output size.",
	})

	// RequestsTotal counts HTTP requests by status class.
	RequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "mp3mirror_http_requests_total",
		Help: "HTTP requests served.",
	}, []string{"code"})

	// RequestsInFlight tracks requests currently being served.
	RequestsInFlight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "mp3mirror_http_requests_in_flight",
		Help: "HTTP requests currently in flight.",
	})
)
