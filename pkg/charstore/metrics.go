package charstore

import (
	"github.com/jbkun069/AnimeChatCraft/pkg/apperr"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Operations *prometheus.CounterVec
}

var metrics = &Metrics{
	Operations: prometheus.NewCounterVec(prometheus.CounterOpts{
		Subsystem: "charstore",
		Name:      "operations_total",
	}, []string{"backend", "op", "result"}),
}

func RegisterMetrics(reg prometheus.Registerer) {
	reg.MustRegister(metrics.Operations)
}

func observe(backend, op string, err error) {
	result := "ok"
	if err != nil {
		result = apperr.CodeOf(err).String()
	}

	metrics.Operations.WithLabelValues(backend, op, result).Inc()
}
