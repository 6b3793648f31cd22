// Package cpi converts nominal US$ figures into constant dollars of a base
// year using a consumer price index table.
package cpi

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"sort"
	"strconv"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/shopspring/decimal"

	"github.com/mr1hm/emdat-stats/internal/models"
)

// FileName is the CPI reference file inside the data directory.
const FileName = "US_CPI.csv"

// titleRows precede the CSV header in the published CPI file.
const titleRows = 1

// Table maps a year to its index value.
type Table struct {
	index map[int]decimal.Decimal
	years []int
}

// NewTable builds a table from plain values.
func NewTable(values map[int]float64) *Table {
	t := &Table{index: make(map[int]decimal.Decimal, len(values))}
	for y, v := range values {
		t.index[y] = decimal.NewFromFloat(v)
		t.years = append(t.years, y)
	}
	sort.Ints(t.years)
	return t
}

// LoadTable reads the CPI file at path.
func LoadTable(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("error opening cpi table: %w", err)
	}
	defer f.Close()

	t, err := ReadTable(f)
	if err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return t, nil
}

// ReadTable parses a title line followed by a CSV with a "year" column and
// one index column.
func ReadTable(r io.Reader) (*Table, error) {
	br := bufio.NewReader(r)
	for i := 0; i < titleRows; i++ {
		if _, err := br.ReadString('\n'); err != nil {
			return nil, fmt.Errorf("error skipping title row: %w", err)
		}
	}

	df := dataframe.ReadCSV(br, dataframe.HasHeader(true), dataframe.DetectTypes(false))
	if df.Err != nil {
		return nil, fmt.Errorf("error parsing csv: %w", df.Err)
	}

	var yearCol, valueCol string
	for _, name := range df.Names() {
		switch {
		case yearCol == "" && strings.EqualFold(strings.TrimSpace(name), "year"):
			yearCol = name
		case valueCol == "":
			valueCol = name
		}
	}
	if yearCol == "" || valueCol == "" {
		return nil, fmt.Errorf("%w: cpi table needs a year column and a value column, got %v", models.ErrInvalidField, df.Names())
	}

	years := df.Col(yearCol).Records()
	values := df.Col(valueCol).Records()

	t := &Table{index: make(map[int]decimal.Decimal, len(years))}
	for i := range years {
		y, err := strconv.Atoi(strings.TrimSpace(years[i]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad year %q", i+titleRows+2, years[i])
		}
		v, err := decimal.NewFromString(strings.TrimSpace(values[i]))
		if err != nil {
			return nil, fmt.Errorf("line %d: bad index value %q: %w", i+titleRows+2, values[i], err)
		}
		if _, dup := t.index[y]; !dup {
			t.years = append(t.years, y)
		}
		t.index[y] = v
	}
	sort.Ints(t.years)
	return t, nil
}

// Value returns the index for year.
func (t *Table) Value(year int) (decimal.Decimal, error) {
	v, ok := t.index[year]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %d not in cpi table", models.ErrMissingReferenceYear, year)
	}
	return v, nil
}

// Years returns the covered years in ascending order.
func (t *Table) Years() []int {
	return append([]int(nil), t.years...)
}
