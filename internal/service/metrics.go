package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	generationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "textgend",
			Subsystem: "generator",
			Name:      "generations_total",
			Help:      "Total generate calls by outcome",
		},
		[]string{"outcome"},
	)

	generatedSequencesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "textgend",
			Subsystem: "generator",
			Name:      "generated_sequences_total",
			Help:      "Total sequences returned to clients",
		},
	)

	generationDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "textgend",
			Subsystem: "generator",
			Name:      "generation_duration_seconds",
			Help:      "Duration of generate calls in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	modelLoadDuration = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "textgend",
			Subsystem: "generator",
			Name:      "model_load_duration_seconds",
			Help:      "Time spent constructing the generator",
		},
	)
)

func init() {
	prometheus.MustRegister(generationsTotal, generatedSequencesTotal, generationDuration, modelLoadDuration)
}

// Generation outcome labels.
const (
	outcomeOK       = "ok"
	outcomeInvalid  = "invalid"
	outcomeFailed   = "failed"
	outcomeCanceled = "canceled"
	outcomeNotReady = "not_ready"
)
