package game

import (
	"fmt"
	"math"
	"sort"
)

type BeliefEntry struct {
	State GameState
	Prob  float64
}

// Belief is a distribution over game states. The zero value is the empty
// belief, meaning the state is not tracked. A non-empty belief always sums to 1.
// Beliefs are never modified after construction.
type Belief struct {
	entries []BeliefEntry // sorted by hash
}

// NewBelief groups entries by state and validates the result.
func NewBelief(entries ...BeliefEntry) (Belief, error) {
	w := NewWeights()
	for _, e := range entries {
		w.Add(e.State, e.Prob)
	}
	b := Belief{entries: w.sorted()}
	if err := b.Validate(); err != nil {
		return Belief{}, err
	}
	return b, nil
}

// CertainBelief puts all mass on gs.
func CertainBelief(gs GameState) Belief {
	return Belief{entries: []BeliefEntry{{State: gs, Prob: 1}}}
}

func (b Belief) Len() int {
	return len(b.entries)
}

func (b Belief) IsEmpty() bool {
	return len(b.entries) == 0
}

// Entries returns a copy ordered by state hash.
func (b Belief) Entries() []BeliefEntry {
	out := make([]BeliefEntry, len(b.entries))
	copy(out, b.entries)
	return out
}

func (b Belief) Prob(hash StateHash) float64 {
	i := sort.Search(len(b.entries), func(i int) bool { return b.entries[i].State.Hash() >= hash })
	if i < len(b.entries) && b.entries[i].State.Hash() == hash {
		return b.entries[i].Prob
	}
	return 0
}

func (b Belief) Validate() error {
	if len(b.entries) == 0 {
		return nil
	}
	total := 0.0
	for _, e := range b.entries {
		if math.IsNaN(e.Prob) || math.IsInf(e.Prob, 0) || e.Prob < 0 {
			return fmt.Errorf("state %d has mass %v: %w", e.State.Hash(), e.Prob, ErrInvalidBelief)
		}
		total += e.Prob
	}
	if math.Abs(total-1) > Epsilon {
		return fmt.Errorf("mass sums to %v: %w", total, ErrInvalidBelief)
	}
	return nil
}

// Truncate keeps the maxStates most likely states and renormalizes.
func (b Belief) Truncate(maxStates int) Belief {
	if maxStates <= 0 || len(b.entries) <= maxStates {
		return b
	}
	ranked := b.Entries()
	sort.SliceStable(ranked, func(i, j int) bool { return ranked[i].Prob > ranked[j].Prob })
	w := NewWeights()
	for _, e := range ranked[:maxStates] {
		w.Add(e.State, e.Prob)
	}
	out, err := w.Normalize()
	if err != nil {
		// Mass came from a valid belief.
		panic(err)
	}
	return out
}

// Weights accumulates unnormalized mass per state while a posterior is built.
type Weights struct {
	entries map[StateHash]*BeliefEntry
}

func NewWeights() *Weights {
	return &Weights{entries: make(map[StateHash]*BeliefEntry)}
}

func (w *Weights) Add(gs GameState, mass float64) {
	if e, ok := w.entries[gs.Hash()]; ok {
		e.Prob += mass
		return
	}
	w.entries[gs.Hash()] = &BeliefEntry{State: gs, Prob: mass}
}

func (w *Weights) Total() float64 {
	total := 0.0
	for _, e := range w.entries {
		total += e.Prob
	}
	return total
}

// Normalize turns the weights into a belief. Zero total mass yields the empty
// belief; negative or non-finite mass is an error.
func (w *Weights) Normalize() (Belief, error) {
	entries := w.sorted()
	total := 0.0
	for _, e := range entries {
		if math.IsNaN(e.Prob) || math.IsInf(e.Prob, 0) || e.Prob < 0 {
			return Belief{}, fmt.Errorf("state %d has mass %v: %w", e.State.Hash(), e.Prob, ErrInvalidBelief)
		}
		total += e.Prob
	}
	if total == 0 {
		return Belief{}, nil
	}
	kept := entries[:0]
	for _, e := range entries {
		if e.Prob > 0 {
			e.Prob /= total
			kept = append(kept, e)
		}
	}
	return Belief{entries: kept}, nil
}

func (w *Weights) sorted() []BeliefEntry {
	entries := make([]BeliefEntry, 0, len(w.entries))
	for _, e := range w.entries {
		entries = append(entries, *e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].State.Hash() < entries[j].State.Hash() })
	return entries
}
