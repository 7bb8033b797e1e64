// Package solver is the boundary to an external linear or mixed-integer
// program solver used by equilibrium strategies.
package solver

import (
	"context"
	"errors"
	"fmt"
	"math"
)

var (
	ErrNotSolved     = errors.New("problem not solved")
	ErrUnknownColumn = errors.New("unknown column")
)

type Status int

const (
	Unknown Status = iota
	Optimal
	Infeasible
	Unbounded
)

func (s Status) String() string {
	switch s {
	case Optimal:
		return "OPTIMAL"
	case Infeasible:
		return "INFEASIBLE"
	case Unbounded:
		return "UNBOUNDED"
	default:
		return "UNKNOWN"
	}
}

type Sense int

const (
	Minimize Sense = iota
	Maximize
)

// Bounds of a column or row. Use math.Inf for a free side.
type Bounds struct {
	Lower float64
	Upper float64
}

func Free() Bounds {
	return Bounds{Lower: math.Inf(-1), Upper: math.Inf(1)}
}

func Fixed(v float64) Bounds {
	return Bounds{Lower: v, Upper: v}
}

// Problem is implemented by solver backends. Columns and rows are numbered in
// the order they are added, from 0.
type Problem interface {
	AddColumn(name string, b Bounds, objective float64, integer bool) int
	AddRow(name string, b Bounds, columns []int, coefficients []float64) (int, error)
	SetSense(s Sense)
	// SetObjective replaces the objective coefficient of an existing column.
	SetObjective(column int, coef float64) error
	// Solve blocks until the backend returns or ctx is done.
	Solve(ctx context.Context) error
	Status() Status
	Objective() float64
	Primal(column int) float64
	Dual(row int) float64
	NumColumns() int
	NumRows() int
}

// SolveError is returned when a solve finishes without an optimal solution.
type SolveError struct {
	Status Status
	Err    error // backend failure, if any
}

func (e *SolveError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("solve ended with status %s: %v", e.Status, e.Err)
	}
	return fmt.Sprintf("solve ended with status %s", e.Status)
}

func (e *SolveError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrNotSolved, e.Err}
	}
	return []error{ErrNotSolved}
}

type Solution struct {
	Objective float64
	Primal    []float64
	Dual      []float64
}

// SetObjective sets the full objective: coefs[i] for column i, in the given
// sense. Columns past len(coefs) keep their coefficients.
func SetObjective(p Problem, sense Sense, coefs []float64) error {
	if len(coefs) > p.NumColumns() {
		return fmt.Errorf("%d objective coefficients for %d columns: %w", len(coefs), p.NumColumns(), ErrUnknownColumn)
	}
	for i, c := range coefs {
		if err := p.SetObjective(i, c); err != nil {
			return fmt.Errorf("objective column %d: %w", i, err)
		}
	}
	p.SetSense(sense)
	return nil
}

// SolveChecked solves p and reads back its solution. Anything other than an
// optimal status is a *SolveError.
func SolveChecked(ctx context.Context, p Problem) (Solution, error) {
	if err := p.Solve(ctx); err != nil {
		return Solution{}, &SolveError{Status: p.Status(), Err: err}
	}
	if status := p.Status(); status != Optimal {
		return Solution{}, &SolveError{Status: status}
	}
	sol := Solution{
		Objective: p.Objective(),
		Primal:    make([]float64, p.NumColumns()),
		Dual:      make([]float64, p.NumRows()),
	}
	for i := range sol.Primal {
		sol.Primal[i] = p.Primal(i)
	}
	for i := range sol.Dual {
		sol.Dual[i] = p.Dual(i)
	}
	return sol, nil
}
