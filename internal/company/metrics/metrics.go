// Package metrics exposes Prometheus collectors for risk analysis.
// All methods are safe to call on a nil *Metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for scoring and its collaborators.
type Metrics struct {
	// Persons scored by group (officers, pscs)
	PersonsScored *prometheus.CounterVec

	// Triggered checks by check name
	RedFlags *prometheus.CounterVec

	// Distribution of person scores
	PersonScore prometheus.Histogram

	// News search calls by outcome: "hit", "miss", "error"
	NewsSearches *prometheus.CounterVec

	NewsSearchLatency prometheus.Histogram

	// Completed analyses by outcome: "ok", "error"
	Analyses *prometheus.CounterVec
}

// New registers the collectors with reg. A nil reg uses the default registerer.
func New(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	f := promauto.With(reg)
	return &Metrics{
		PersonsScored: f.NewCounterVec(prometheus.CounterOpts{
			Name: "companyrisk_persons_scored_total",
			Help: "Total persons scored by group",
		}, []string{"group"}),

		RedFlags: f.NewCounterVec(prometheus.CounterOpts{
			Name: "companyrisk_red_flags_total",
			Help: "Total red flags raised by check",
		}, []string{"check"}),

		PersonScore: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "companyrisk_person_score",
			Help:    "Distribution of person risk scores",
			Buckets: []float64{0, 10, 20, 30, 40, 50, 60, 70, 80, 90, 100},
		}),

		NewsSearches: f.NewCounterVec(prometheus.CounterOpts{
			Name: "companyrisk_news_searches_total",
			Help: "News search calls by outcome",
		}, []string{"outcome"}),

		NewsSearchLatency: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "companyrisk_news_search_duration_seconds",
			Help:    "Duration of news search calls excluding pacing",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),

		Analyses: f.NewCounterVec(prometheus.CounterOpts{
			Name: "companyrisk_analyses_total",
			Help: "Company analyses by outcome",
		}, []string{"outcome"}),
	}
}

// ObservePerson records one scored person.
func (m *Metrics) ObservePerson(group string, score float64) {
	if m != nil {
		m.PersonsScored.WithLabelValues(group).Inc()
		m.PersonScore.Observe(score)
	}
}

// IncrementRedFlag records a triggered check.
func (m *Metrics) IncrementRedFlag(check string) {
	if m != nil {
		m.RedFlags.WithLabelValues(check).Inc()
	}
}

// ObserveNewsSearch records a news search call.
func (m *Metrics) ObserveNewsSearch(outcome string, d time.Duration) {
	if m != nil {
		m.NewsSearches.WithLabelValues(outcome).Inc()
		m.NewsSearchLatency.Observe(d.Seconds())
	}
}

// IncrementAnalysis records a finished analysis.
func (m *Metrics) IncrementAnalysis(outcome string) {
	if m != nil {
		m.Analyses.WithLabelValues(outcome).Inc()
	}
}
