// Package gmetrics holds the prometheus collectors for check-ins,
// deadline misses and recovery cycles.
//
// Every method is safe to call on a nil *Metrics,
// so components can take an optional metrics value without branching.
package gmetrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	checkIns      *prometheus.CounterVec
	skips         *prometheus.CounterVec
	deadlineMiss  prometheus.Counter
	recoveries    *prometheus.CounterVec
	indicatorsSet *prometheus.GaugeVec

	gatherer prometheus.Gatherer
}

// New registers the collectors with reg.
// If reg is also a [prometheus.Gatherer], [*Metrics.Handler] serves it;
// otherwise the handler serves the default gatherer.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		checkIns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gtwdt_participant_checkins_total",
				Help: "Watchdog resets performed by each participant",
			},
			[]string{"participant"},
		),
		skips: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gtwdt_participant_skips_total",
				Help: "Iterations in which a participant deliberately skipped its reset",
			},
			[]string{"participant"},
		),
		deadlineMiss: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "gtwdt_deadline_misses_total",
				Help: "Deadline misses handled by the recovery coordinator",
			},
		),
		recoveries: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "gtwdt_recoveries_total",
				Help: "Completed recovery cycles by captured participant and action",
			},
			[]string{"participant", "action"},
		),
		indicatorsSet: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "gtwdt_indicator_on",
				Help: "Last level written by a participant to its indicator",
			},
			[]string{"participant"},
		),

		gatherer: prometheus.DefaultGatherer,
	}

	for _, c := range []prometheus.Collector{
		m.checkIns, m.skips, m.deadlineMiss, m.recoveries, m.indicatorsSet,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	if g, ok := reg.(prometheus.Gatherer); ok {
		m.gatherer = g
	}

	return m, nil
}

func (m *Metrics) CheckIn(participant string) {
	if m == nil {
		return
	}
	m.checkIns.WithLabelValues(participant).Inc()
}

func (m *Metrics) Skip(participant string) {
	if m == nil {
		return
	}
	m.skips.WithLabelValues(participant).Inc()
}

// DeadlineMiss is called once per consumed failure signal.
// Raises that collapse into one wakeup count once.
func (m *Metrics) DeadlineMiss() {
	if m == nil {
		return
	}
	m.deadlineMiss.Inc()
}

func (m *Metrics) Recovery(participant, action string) {
	if m == nil {
		return
	}
	m.recoveries.WithLabelValues(participant, action).Inc()
}

func (m *Metrics) Indicator(participant string, on bool) {
	if m == nil {
		return
	}
	v := 0.0
	if on {
		v = 1
	}
	m.indicatorsSet.WithLabelValues(participant).Set(v)
}

// Handler serves the registered collectors in the prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
