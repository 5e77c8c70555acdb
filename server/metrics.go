package server

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	chatRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weathersense",
		Name:      "chat_requests_total",
		Help:      "Chat requests by final payload status.",
	}, []string{"status"})

	chatAnswerSourceTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "weathersense",
		Name:      "chat_answer_source_total",
		Help:      "Final answers by source: llm passed the quality gate, tool-fallback did not.",
	}, []string{"source"})

	chatDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Namespace: "weathersense",
		Name:      "chat_duration_seconds",
		Help:      "End-to-end chat request duration.",
		Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
	})

	memoryClearsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "weathersense",
		Name:      "memory_clears_total",
		Help:      "Memory clear operations.",
	})
)
