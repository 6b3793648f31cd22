// Package table holds the derived result shapes returned by queries:
// a year-indexed matrix, a single year series and a keyed ranking.
package table

import (
	"sort"
)

// Matrix is a wide, year × key table. Every cell is present; absent
// combinations hold 0.
type Matrix struct {
	Rows    []int       `json:"rows"`
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"`

	rowIdx map[int]int
	colIdx map[string]int
}

// NewMatrix allocates a zero-filled matrix. rows and columns are used as given.
func NewMatrix(rows []int, columns []string) *Matrix {
	m := &Matrix{
		Rows:    rows,
		Columns: columns,
		Values:  make([][]float64, len(rows)),
	}
	for i := range m.Values {
		m.Values[i] = make([]float64, len(columns))
	}
	m.index()
	return m
}

func (m *Matrix) index() {
	m.rowIdx = make(map[int]int, len(m.Rows))
	for i, r := range m.Rows {
		m.rowIdx[r] = i
	}
	m.colIdx = make(map[string]int, len(m.Columns))
	for j, c := range m.Columns {
		m.colIdx[c] = j
	}
}

func (m *Matrix) Empty() bool {
	return m == nil || len(m.Rows) == 0 || len(m.Columns) == 0
}

func (m *Matrix) HasColumn(col string) bool {
	if m.colIdx == nil {
		m.index()
	}
	_, ok := m.colIdx[col]
	return ok
}

// At returns the cell for (row, col), 0 when either key is unknown.
func (m *Matrix) At(row int, col string) float64 {
	if m.rowIdx == nil {
		m.index()
	}
	i, ok := m.rowIdx[row]
	if !ok {
		return 0
	}
	j, ok := m.colIdx[col]
	if !ok {
		return 0
	}
	return m.Values[i][j]
}

// Add accumulates v into (row, col). It reports false when the key is outside
// the matrix axes.
func (m *Matrix) Add(row int, col string, v float64) bool {
	if m.rowIdx == nil {
		m.index()
	}
	i, ok := m.rowIdx[row]
	if !ok {
		return false
	}
	j, ok := m.colIdx[col]
	if !ok {
		return false
	}
	m.Values[i][j] += v
	return true
}

// Column extracts one column as a year series.
func (m *Matrix) Column(col string) Series {
	if m.colIdx == nil {
		m.index()
	}
	s := Series{
		Years:  append([]int(nil), m.Rows...),
		Values: make([]float64, len(m.Rows)),
	}
	j, ok := m.colIdx[col]
	if !ok {
		return s
	}
	for i := range m.Rows {
		s.Values[i] = m.Values[i][j]
	}
	return s
}

// RowSum adds up every column for one row.
func (m *Matrix) RowSum(row int) float64 {
	if m.rowIdx == nil {
		m.index()
	}
	i, ok := m.rowIdx[row]
	if !ok {
		return 0
	}
	var total float64
	for _, v := range m.Values[i] {
		total += v
	}
	return total
}

// ColumnSums returns one entry per column, in column order.
func (m *Matrix) ColumnSums() Ranking {
	sums := make(Ranking, len(m.Columns))
	for j, c := range m.Columns {
		sums[j].Key = c
		for i := range m.Rows {
			sums[j].Value += m.Values[i][j]
		}
	}
	return sums
}

// YearSpan returns every year from first to last inclusive.
func YearSpan(first, last int) []int {
	if last < first {
		return nil
	}
	years := make([]int, 0, last-first+1)
	for y := first; y <= last; y++ {
		years = append(years, y)
	}
	return years
}

// Series is a single value per year, in the order of Years.
type Series struct {
	Years  []int     `json:"years"`
	Values []float64 `json:"values"`
}

func (s Series) Len() int {
	return len(s.Years)
}

// Span is the difference between the latest and earliest year present.
func (s Series) Span() int {
	if len(s.Years) == 0 {
		return 0
	}
	first, last := s.Years[0], s.Years[0]
	for _, y := range s.Years[1:] {
		if y < first {
			first = y
		}
		if y > last {
			last = y
		}
	}
	return last - first
}

type Entry struct {
	Key   string  `json:"key"`
	Value float64 `json:"value"`
}

// Ranking is an ordered key → value list.
type Ranking []Entry

// SortDesc orders by descending value; equal values keep their relative order.
func (r Ranking) SortDesc() {
	sort.SliceStable(r, func(i, j int) bool {
		return r[i].Value > r[j].Value
	})
}

func (r Ranking) Get(key string) (float64, bool) {
	for _, e := range r {
		if e.Key == key {
			return e.Value, true
		}
	}
	return 0, false
}

func (r Ranking) Keys() []string {
	keys := make([]string, len(r))
	for i, e := range r {
		keys[i] = e.Key
	}
	return keys
}
