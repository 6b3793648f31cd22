package cpi

import (
	"fmt"
	"sync"

	"github.com/shopspring/decimal"

	"github.com/mr1hm/emdat-stats/internal/table"
)

// Rebaser converts year series into constant dollars of a base year.
// Multipliers are computed once per base year and reused.
type Rebaser struct {
	table *Table

	mu          sync.Mutex
	multipliers map[int]map[int]decimal.Decimal
}

func NewRebaser(t *Table) *Rebaser {
	return &Rebaser{
		table:       t,
		multipliers: make(map[int]map[int]decimal.Decimal),
	}
}

// Multipliers returns CPI(base)/CPI(year) for every year in the table.
func (r *Rebaser) Multipliers(baseYear int) (map[int]decimal.Decimal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if m, ok := r.multipliers[baseYear]; ok {
		return m, nil
	}

	base, err := r.table.Value(baseYear)
	if err != nil {
		return nil, fmt.Errorf("base year: %w", err)
	}

	m := make(map[int]decimal.Decimal, len(r.table.years))
	for _, y := range r.table.years {
		v := r.table.index[y]
		if v.IsZero() {
			continue
		}
		m[y] = base.Div(v)
	}
	r.multipliers[baseYear] = m
	return m, nil
}

// Rebase returns trunc(value × multiplier(year)) for every entry of s.
// Truncation is toward zero.
func (r *Rebaser) Rebase(s table.Series, baseYear int) ([]int64, error) {
	mult, err := r.Multipliers(baseYear)
	if err != nil {
		return nil, err
	}

	out := make([]int64, len(s.Years))
	for i, y := range s.Years {
		m, ok := mult[y]
		if !ok {
			_, err := r.table.Value(y)
			if err == nil {
				err = fmt.Errorf("cpi index for %d is zero", y)
			}
			return nil, err
		}
		out[i] = decimal.NewFromFloat(s.Values[i]).Mul(m).IntPart()
	}
	return out, nil
}

// RebaseMatrix rebases every column of m and returns a new matrix.
func (r *Rebaser) RebaseMatrix(m *table.Matrix, baseYear int) (*table.Matrix, error) {
	out := table.NewMatrix(append([]int(nil), m.Rows...), append([]string(nil), m.Columns...))
	for _, c := range m.Columns {
		rebased, err := r.Rebase(m.Column(c), baseYear)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c, err)
		}
		for i, y := range m.Rows {
			out.Add(y, c, float64(rebased[i]))
		}
	}
	return out, nil
}
