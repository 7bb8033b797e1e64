package game

import (
	"errors"
	"fmt"
)

type StateHash uint64

var (
	ErrInvalidBelief = errors.New("invalid belief")
	ErrInvalidIDs    = errors.New("invalid node ids")
)

// Epsilon is the tolerance used when checking that probability mass sums to 1.
const Epsilon = 1e-6

// ValidateIDs checks that ids are strictly ascending and within 1..max.
func ValidateIDs(ids []int, max int) error {
	prev := 0
	for _, id := range ids {
		if id < 1 || id > max {
			return fmt.Errorf("id %d outside 1..%d: %w", id, max, ErrInvalidIDs)
		}
		if id <= prev {
			return fmt.Errorf("id %d after %d: %w", id, prev, ErrInvalidIDs)
		}
		prev = id
	}
	return nil
}
