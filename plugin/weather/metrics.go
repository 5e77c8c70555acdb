package weather

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var fetchAttemptsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "weathersense",
	Name:      "weather_fetch_attempts_total",
	Help:      "Upstream weather HTTP attempts by outcome: ok, transient, error.",
}, []string{"outcome"})
