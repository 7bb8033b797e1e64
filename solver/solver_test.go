package solver

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

// fakeProblem returns canned results.
type fakeProblem struct {
	columns []Bounds
	costs   []float64
	rows    []Bounds
	sense   Sense
	status  Status
	err     error
	primal  []float64
	dual    []float64
	solved  bool
}

func (p *fakeProblem) AddColumn(name string, b Bounds, objective float64, integer bool) int {
	p.columns = append(p.columns, b)
	p.costs = append(p.costs, objective)
	return len(p.columns) - 1
}

func (p *fakeProblem) SetObjective(column int, coef float64) error {
	if column < 0 || column >= len(p.costs) {
		return fmt.Errorf("column %d: %w", column, ErrUnknownColumn)
	}
	p.costs[column] = coef
	return nil
}

func (p *fakeProblem) AddRow(name string, b Bounds, columns []int, coefficients []float64) (int, error) {
	if len(columns) != len(coefficients) {
		return 0, fmt.Errorf("row %s has %d columns and %d coefficients", name, len(columns), len(coefficients))
	}
	p.rows = append(p.rows, b)
	return len(p.rows) - 1, nil
}

func (p *fakeProblem) SetSense(s Sense) { p.sense = s }

func (p *fakeProblem) Solve(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	p.solved = true
	return p.err
}

func (p *fakeProblem) Status() Status {
	if !p.solved {
		return Unknown
	}
	return p.status
}

func (p *fakeProblem) Objective() float64   { return 1.5 }
func (p *fakeProblem) Primal(c int) float64 { return p.primal[c] }
func (p *fakeProblem) Dual(r int) float64   { return p.dual[r] }
func (p *fakeProblem) NumColumns() int      { return len(p.columns) }
func (p *fakeProblem) NumRows() int         { return len(p.rows) }

func TestSolveChecked(t *testing.T) {
	build := func(status Status, err error) *fakeProblem {
		p := &fakeProblem{status: status, err: err, primal: []float64{0.25, 0.75}, dual: []float64{-1}}
		p.AddColumn("x", Bounds{Lower: 0, Upper: 1}, 1, false)
		p.AddColumn("y", Bounds{Lower: 0, Upper: 1}, 2, false)
		_, rowErr := p.AddRow("sum", Fixed(1), []int{0, 1}, []float64{1, 1})
		require.NoError(t, rowErr)
		p.SetSense(Maximize)
		return p
	}

	t.Run("optimal", func(t *testing.T) {
		sol, err := SolveChecked(context.Background(), build(Optimal, nil))
		require.NoError(t, err)
		require.Equal(t, 1.5, sol.Objective)
		require.Equal(t, []float64{0.25, 0.75}, sol.Primal)
		require.Equal(t, []float64{-1}, sol.Dual)
	})

	t.Run("non optimal status is distinguishable", func(t *testing.T) {
		for _, status := range []Status{Infeasible, Unbounded, Unknown} {
			_, err := SolveChecked(context.Background(), build(status, nil))
			require.ErrorIs(t, err, ErrNotSolved)
			var solveErr *SolveError
			require.ErrorAs(t, err, &solveErr)
			require.Equal(t, status, solveErr.Status)
			require.Contains(t, err.Error(), status.String())
		}
	})

	t.Run("backend failure", func(t *testing.T) {
		backend := errors.New("license expired")
		_, err := SolveChecked(context.Background(), build(Optimal, backend))
		require.ErrorIs(t, err, backend)
		require.ErrorIs(t, err, ErrNotSolved)
	})

	t.Run("cancelled", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := SolveChecked(ctx, build(Optimal, nil))
		require.ErrorIs(t, err, context.Canceled)
	})

	t.Run("objective", func(t *testing.T) {
		p := build(Optimal, nil)
		require.NoError(t, SetObjective(p, Minimize, []float64{3}))
		require.Equal(t, []float64{3, 2}, p.costs)
		require.Equal(t, Minimize, p.sense)

		err := SetObjective(p, Maximize, []float64{1, 1, 1})
		require.ErrorIs(t, err, ErrUnknownColumn)
		require.Equal(t, Minimize, p.sense, "Sense is untouched on failure")
		require.ErrorIs(t, p.SetObjective(-1, 1), ErrUnknownColumn)
	})

	t.Run("mismatched row", func(t *testing.T) {
		p := &fakeProblem{}
		_, err := p.AddRow("bad", Free(), []int{0}, nil)
		require.Error(t, err)
	})
}
