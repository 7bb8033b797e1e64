package metrics

import (
	"sync/atomic"
	"time"

	"depgraph/game"
)

type RoundMetric struct {
	Round          int
	Attacked       int // nodes attacked
	Defended       int // nodes protected
	ActiveNodes    int
	AttackerPayoff float64 // discounted
	DefenderPayoff float64 // discounted
}

type GameMetric struct {
	Rounds         int
	ActiveTargets  int // at the end of the game
	AttackerPayoff float64
	DefenderPayoff float64
	StartTime      time.Time
	EndTime        time.Time
	Duration       time.Duration
	AttackedNodes  int
	DefendedNodes  int
	RoundMetrics   []RoundMetric
}

// Collector gathers per-game statistics from a simulation.
type Collector interface {
	Start()
	AddRound(attacked, defended, active int, payoff game.Payoff)
	Complete(final game.GameState, targets []int) GameMetric
}

type collector struct {
	startTime time.Time
	rounds    atomic.Int32
	attacked  atomic.Int32
	defended  atomic.Int32
	// only written by the simulation goroutine
	payoff      game.Payoff
	roundMetric []RoundMetric
}

func NewCollector() Collector {
	return &collector{}
}

func (m *collector) Start() {
	m.startTime = time.Now()
	m.rounds.Store(0)
	m.attacked.Store(0)
	m.defended.Store(0)
	m.payoff = game.Payoff{}
	m.roundMetric = nil
}

func (m *collector) AddRound(attacked, defended, active int, payoff game.Payoff) {
	round := m.rounds.Add(1)
	m.attacked.Add(int32(attacked))
	m.defended.Add(int32(defended))
	m.payoff = m.payoff.Add(payoff)
	m.roundMetric = append(m.roundMetric, RoundMetric{
		Round:          int(round),
		Attacked:       attacked,
		Defended:       defended,
		ActiveNodes:    active,
		AttackerPayoff: payoff.Attacker,
		DefenderPayoff: payoff.Defender,
	})
}

func (m *collector) Complete(final game.GameState, targets []int) GameMetric {
	end := time.Now()
	active := 0
	for _, id := range targets {
		if final.IsActive(id) {
			active++
		}
	}
	return GameMetric{
		Rounds:         int(m.rounds.Load()),
		ActiveTargets:  active,
		AttackerPayoff: m.payoff.Attacker,
		DefenderPayoff: m.payoff.Defender,
		StartTime:      m.startTime,
		EndTime:        end,
		Duration:       end.Sub(m.startTime),
		AttackedNodes:  int(m.attacked.Load()),
		DefendedNodes:  int(m.defended.Load()),
		RoundMetrics:   m.roundMetric,
	}
}

type dummyCollector struct{}

func NewDummyCollector() Collector {
	return &dummyCollector{}
}

func (m *dummyCollector) Start()                                                 {}
func (m *dummyCollector) AddRound(attacked, defended, active int, p game.Payoff) {}
func (m *dummyCollector) Complete(game.GameState, []int) GameMetric              { return GameMetric{} }
