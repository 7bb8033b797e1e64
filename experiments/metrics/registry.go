package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registry holds the Prometheus metrics of simulation runs and RL sessions.
type Registry struct {
	registry *prometheus.Registry

	GamesTotal      *prometheus.CounterVec
	RoundsTotal     *prometheus.CounterVec
	DefenderPayoff  *prometheus.HistogramVec
	AttackerPayoff  *prometheus.HistogramVec
	ActiveTargets   *prometheus.HistogramVec
	RLStepsTotal    *prometheus.CounterVec
	RLEpisodesTotal prometheus.Counter
}

func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()
	r := &Registry{registry: reg}

	r.GamesTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "depgraph_games_total",
			Help: "Total number of simulated games",
		},
		[]string{"attacker", "defender"},
	)

	r.RoundsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "depgraph_rounds_total",
			Help: "Total number of resolved rounds",
		},
		[]string{"attacker", "defender"},
	)

	r.DefenderPayoff = promauto.With(reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "depgraph_defender_payoff",
			Help:    "Discounted defender payoff per game",
			Buckets: prometheus.LinearBuckets(-100, 10, 11),
		},
		[]string{"attacker", "defender"},
	)

	r.AttackerPayoff = promauto.With(reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "depgraph_attacker_payoff",
			Help:    "Discounted attacker payoff per game",
			Buckets: prometheus.LinearBuckets(-50, 10, 16),
		},
		[]string{"attacker", "defender"},
	)

	r.ActiveTargets = promauto.With(reg).NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "depgraph_active_targets",
			Help:    "Targets active at the end of a game",
			Buckets: prometheus.LinearBuckets(0, 1, 11),
		},
		[]string{"attacker", "defender"},
	)

	r.RLStepsTotal = promauto.With(reg).NewCounterVec(
		prometheus.CounterOpts{
			Name: "depgraph_rl_steps_total",
			Help: "Total number of RL environment steps by outcome",
		},
		[]string{"outcome"}, // valid, illegal_move, config_error
	)

	r.RLEpisodesTotal = promauto.With(reg).NewCounter(
		prometheus.CounterOpts{
			Name: "depgraph_rl_episodes_total",
			Help: "Total number of RL episodes started",
		},
	)

	return r
}

func (r *Registry) RecordGame(attacker, defender string, m GameMetric) {
	r.GamesTotal.WithLabelValues(attacker, defender).Inc()
	r.RoundsTotal.WithLabelValues(attacker, defender).Add(float64(m.Rounds))
	r.DefenderPayoff.WithLabelValues(attacker, defender).Observe(m.DefenderPayoff)
	r.AttackerPayoff.WithLabelValues(attacker, defender).Observe(m.AttackerPayoff)
	r.ActiveTargets.WithLabelValues(attacker, defender).Observe(float64(m.ActiveTargets))
}

func (r *Registry) RecordStep(outcome string) {
	r.RLStepsTotal.WithLabelValues(outcome).Inc()
}

func (r *Registry) RecordEpisode() {
	r.RLEpisodesTotal.Inc()
}

// GetPrometheusRegistry returns the underlying Prometheus registry
func (r *Registry) GetPrometheusRegistry() *prometheus.Registry {
	return r.registry
}
