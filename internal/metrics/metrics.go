// Package metrics exports request execution counters for Prometheus.
package metrics

import (
	"context"
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/suar-net/suar-reactive/internal/model"
	"github.com/suar-net/suar-reactive/internal/service"
)

// Recorder counts finished executions by method and outcome.
type Recorder struct {
	executions *prometheus.CounterVec
	duration   *prometheus.HistogramVec
}

// NewRecorder creates the collectors and registers them with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		executions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "suar",
			Name:      "request_executions_total",
			Help:      "Finished request executions by method and outcome.",
		}, []string{"method", "outcome", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "suar",
			Name:      "request_execution_duration_seconds",
			Help:      "Time from execute to settled outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "outcome"}),
	}
	for _, c := range []prometheus.Collector{r.executions, r.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

func (r *Recorder) Record(_ context.Context, e service.Execution) {
	method := string(e.Config.Method)
	outcome := Outcome(e.Outcome)
	status := "none"
	if e.Outcome.Status != 0 {
		status = strconv.Itoa(e.Outcome.Status)
	}
	r.executions.WithLabelValues(method, outcome, status).Inc()
	r.duration.WithLabelValues(method, outcome).Observe(e.Duration.Seconds())
}

// Outcome classifies an execution result: success, http_error or transport_error.
func Outcome(o model.Outcome) string {
	var httpErr *model.HTTPError
	switch {
	case o.Error == nil:
		return "success"
	case errors.As(o.Error, &httpErr):
		return "http_error"
	default:
		return "transport_error"
	}
}
