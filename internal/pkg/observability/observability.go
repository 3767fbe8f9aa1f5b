package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	ServiceName = "pulsebackend"
)

var (
	BatchConsumeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "batch", "consume_duration_seconds"),
		Help:    "Duration of respondent batch consumption in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{})
	BatchConsumeMessagingLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    prometheus.BuildFQName(ServiceName, "batch", "consume_messaging_latency_seconds"),
		Help:    "Messaging latency of respondent batch consumption in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 10),
	}, []string{})
	RespondentsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: prometheus.BuildFQName(ServiceName, "batch", "respondents_processed"),
		Help: "Respondents processed, partitioned by classification result",
	}, []string{"result"})
	SessionRehydrateDuration = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "session", "rehydrate_duration_seconds"),
		Help: "Duration of last session rehydration in seconds",
	}, []string{"session"})
	LiveSubscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: prometheus.BuildFQName(ServiceName, "live", "subscribers"),
		Help: "Currently connected SSE subscribers",
	})
)
