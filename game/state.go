package game

import (
	"encoding/binary"
	"hash/fnv"
)

// GameState is the set of enabled (attacker-controlled) nodes. It is immutable:
// every operation returns a new state with its hash already computed.
type GameState struct {
	enabled []bool // indexed by node id-1
	hash    StateHash
}

// NewState returns a state over nodeCount nodes with the given ids enabled.
// Out-of-range ids are ignored.
func NewState(nodeCount int, enabled ...int) GameState {
	gs := GameState{enabled: make([]bool, nodeCount)}
	for _, id := range enabled {
		if id >= 1 && id <= nodeCount {
			gs.enabled[id-1] = true
		}
	}
	gs.hash = gs.computeHash()
	return gs
}

func (gs GameState) NodeCount() int {
	return len(gs.enabled)
}

func (gs GameState) IsActive(id int) bool {
	return id >= 1 && id <= len(gs.enabled) && gs.enabled[id-1]
}

// ActiveIDs returns the enabled node ids in ascending order.
func (gs GameState) ActiveIDs() []int {
	ids := []int{}
	for i, on := range gs.enabled {
		if on {
			ids = append(ids, i+1)
		}
	}
	return ids
}

func (gs GameState) ActiveCount() int {
	count := 0
	for _, on := range gs.enabled {
		if on {
			count++
		}
	}
	return count
}

// AllActive reports whether every id is enabled. It is true for no ids.
func (gs GameState) AllActive(ids []int) bool {
	for _, id := range ids {
		if !gs.IsActive(id) {
			return false
		}
	}
	return true
}

// With returns a copy with ids enabled.
func (gs GameState) With(ids ...int) GameState {
	return gs.update(ids, true)
}

// Without returns a copy with ids disabled.
func (gs GameState) Without(ids ...int) GameState {
	return gs.update(ids, false)
}

func (gs GameState) update(ids []int, value bool) GameState {
	next := GameState{enabled: make([]bool, len(gs.enabled))}
	copy(next.enabled, gs.enabled)
	for _, id := range ids {
		if id >= 1 && id <= len(next.enabled) {
			next.enabled[id-1] = value
		}
	}
	next.hash = next.computeHash()
	return next
}

func (gs GameState) Equal(other GameState) bool {
	if len(gs.enabled) != len(other.enabled) {
		return false
	}
	for i := range gs.enabled {
		if gs.enabled[i] != other.enabled[i] {
			return false
		}
	}
	return true
}

func (gs GameState) Hash() StateHash {
	return gs.hash
}

// The hash covers the sorted sequence of enabled ids.
func (gs GameState) computeHash() StateHash {
	hasher := fnv.New64a()

	binary.Write(hasher, binary.LittleEndian, int64(len(gs.enabled)))
	for i, on := range gs.enabled {
		if on {
			binary.Write(hasher, binary.LittleEndian, int64(i+1))
		}
	}

	return StateHash(hasher.Sum64())
}
