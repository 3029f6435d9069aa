package guard

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/BaSui01/guardflow/validation"
)

// Metrics exposes the guard's prometheus counters. All methods tolerate a
// nil receiver so instrumentation stays optional.
type Metrics struct {
	callsStarted      prometheus.Counter
	callsFinished     *prometheus.CounterVec
	callsErrored      *prometheus.CounterVec
	iterationsTotal   prometheus.Counter
	reasksTotal       prometheus.Counter
	validatorFailures *prometheus.CounterVec
}

// NewMetrics registers the guard counters on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		callsStarted: factory.NewCounter(prometheus.CounterOpts{
			Name: "guardflow_calls_started_total",
			Help: "Calls started.",
		}),
		callsFinished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guardflow_calls_finished_total",
			Help: "Calls finished normally, by validation outcome.",
		}, []string{"passed"}),
		callsErrored: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guardflow_calls_errored_total",
			Help: "Calls terminated by a surfaced failure, by error code.",
		}, []string{"code"}),
		iterationsTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "guardflow_iterations_total",
			Help: "Model round-trips recorded across all calls.",
		}),
		reasksTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "guardflow_reasks_total",
			Help: "Reask rounds issued.",
		}),
		validatorFailures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "guardflow_validator_failures_total",
			Help: "Failed validator outcomes, by validator.",
		}, []string{"validator"}),
	}
}

func (m *Metrics) callStarted() {
	if m == nil {
		return
	}
	m.callsStarted.Inc()
}

func (m *Metrics) callFinished(passed bool) {
	if m == nil {
		return
	}
	if passed {
		m.callsFinished.WithLabelValues("true").Inc()
	} else {
		m.callsFinished.WithLabelValues("false").Inc()
	}
}

func (m *Metrics) callErrored(code string) {
	if m == nil {
		return
	}
	m.callsErrored.WithLabelValues(code).Inc()
}

func (m *Metrics) observeIteration(records []validation.Record) {
	if m == nil {
		return
	}
	m.iterationsTotal.Inc()
	for _, r := range records {
		if !r.Outcome.Valid {
			m.validatorFailures.WithLabelValues(r.Validator).Inc()
		}
	}
}

func (m *Metrics) observeReask() {
	if m == nil {
		return
	}
	m.reasksTotal.Inc()
}
