package query

import (
	"fmt"
	"math"
	"sort"

	"github.com/go-gota/gota/dataframe"

	"github.com/mr1hm/emdat-stats/internal/dataset"
	"github.com/mr1hm/emdat-stats/internal/models"
	"github.com/mr1hm/emdat-stats/internal/table"
)

// frame holds the columns a grouping needs, pulled out of a filtered frame.
type frame struct {
	years     []int
	countries []string
	types     []string
	disNos    []string
	values    []float64 // absent cells are already 0
}

func load(ds *dataset.Dataset, f Filter, stat models.Statistic) (*frame, error) {
	if !stat.Valid() {
		return nil, fmt.Errorf("%w: unknown statistic %q", models.ErrInvalidField, stat)
	}
	return loadRows(ds, f, stat)
}

// loadRows filters and extracts keys; values are only read when stat is set.
func loadRows(ds *dataset.Dataset, f Filter, stat models.Statistic) (*frame, error) {
	df, err := Apply(ds.Frame(), f)
	if err != nil {
		return nil, err
	}
	return columns(df, stat)
}

func columns(df dataframe.DataFrame, stat models.Statistic) (*frame, error) {
	fr := &frame{}
	if df.Nrow() == 0 {
		return fr, nil
	}

	years, err := df.Col(dataset.ColYear).Int()
	if err != nil {
		return nil, fmt.Errorf("error reading years: %w", err)
	}
	fr.years = years
	fr.countries = df.Col(dataset.ColCountry).Records()
	fr.types = df.Col(dataset.ColDisasterType).Records()
	fr.disNos = df.Col(dataset.ColDisNo).Records()

	if stat != "" {
		fr.values = df.Col(string(stat)).Float()
		for i, v := range fr.values {
			if math.IsNaN(v) {
				fr.values[i] = 0
			}
		}
	}
	return fr, nil
}

func (fr *frame) len() int {
	return len(fr.years)
}

func (fr *frame) yearRange() (int, int) {
	first, last := fr.years[0], fr.years[0]
	for _, y := range fr.years[1:] {
		if y < first {
			first = y
		}
		if y > last {
			last = y
		}
	}
	return first, last
}

// matrix builds a dense year × key matrix: rows run from the first to the
// last year present, columns are the sorted distinct keys.
func (fr *frame) matrix(keys []string, cell func(i int) float64) *table.Matrix {
	if fr.len() == 0 {
		return table.NewMatrix(nil, nil)
	}
	first, last := fr.yearRange()
	m := table.NewMatrix(table.YearSpan(first, last), sortedUnique(keys))
	for i := range fr.years {
		m.Add(fr.years[i], keys[i], cell(i))
	}
	return m
}

// sums groups values by key; the result is in ascending key order.
func (fr *frame) sums(keys []string) table.Ranking {
	idx := make(map[string]int)
	var r table.Ranking
	for _, k := range sortedUnique(keys) {
		idx[k] = len(r)
		r = append(r, table.Entry{Key: k})
	}
	for i, k := range keys {
		r[idx[k]].Value += fr.values[i]
	}
	return r
}

func sortedUnique(values []string) []string {
	seen := make(map[string]bool, len(values))
	var out []string
	for _, v := range values {
		if !seen[v] {
			seen[v] = true
			out = append(out, v)
		}
	}
	sort.Strings(out)
	return out
}

// CountByTypeTimeseries counts distinct disasters per year and disaster type.
func CountByTypeTimeseries(ds *dataset.Dataset, f Filter) (*table.Matrix, error) {
	fr, err := loadRows(ds, f, "")
	if err != nil {
		return nil, err
	}

	type cellKey struct {
		year  int
		dtype string
		disNo string
	}
	seen := make(map[cellKey]bool, fr.len())

	m := fr.matrix(fr.types, func(i int) float64 {
		k := cellKey{fr.years[i], fr.types[i], fr.disNos[i]}
		if fr.disNos[i] == "" || seen[k] {
			return 0
		}
		seen[k] = true
		return 1
	})
	return m, nil
}

// StatByType sums stat per disaster type over the whole filtered period,
// largest first.
func StatByType(ds *dataset.Dataset, f Filter, stat models.Statistic) (table.Ranking, error) {
	fr, err := load(ds, f, stat)
	if err != nil {
		return nil, err
	}
	r := fr.sums(fr.types)
	r.SortDesc()
	return r, nil
}

// StatByTypeTimeseries sums stat per year and disaster type.
func StatByTypeTimeseries(ds *dataset.Dataset, f Filter, stat models.Statistic) (*table.Matrix, error) {
	fr, err := load(ds, f, stat)
	if err != nil {
		return nil, err
	}
	return fr.matrix(fr.types, func(i int) float64 { return fr.values[i] }), nil
}

// StatByCountry sums stat per country over the whole filtered period, in
// country order.
func StatByCountry(ds *dataset.Dataset, f Filter, stat models.Statistic) (table.Ranking, error) {
	fr, err := load(ds, f, stat)
	if err != nil {
		return nil, err
	}
	return fr.sums(fr.countries), nil
}

// StatByCountryTimeseries sums stat per year and country.
func StatByCountryTimeseries(ds *dataset.Dataset, f Filter, stat models.Statistic) (*table.Matrix, error) {
	fr, err := load(ds, f, stat)
	if err != nil {
		return nil, err
	}
	return fr.matrix(fr.countries, func(i int) float64 { return fr.values[i] }), nil
}

// TotalForPeriod is the grand total of stat over the filtered rows.
func TotalForPeriod(ds *dataset.Dataset, f Filter, stat models.Statistic) (float64, error) {
	fr, err := load(ds, f, stat)
	if err != nil {
		return 0, err
	}
	var total float64
	for _, v := range fr.values {
		total += v
	}
	return total, nil
}

// TotalsForPeriod returns one grand total per requested statistic. The
// filter runs once for all of them.
func TotalsForPeriod(ds *dataset.Dataset, f Filter, stats ...models.Statistic) (map[models.Statistic]float64, error) {
	for _, s := range stats {
		if !s.Valid() {
			return nil, fmt.Errorf("%w: unknown statistic %q", models.ErrInvalidField, s)
		}
	}

	df, err := Apply(ds.Frame(), f)
	if err != nil {
		return nil, err
	}

	totals := make(map[models.Statistic]float64, len(stats))
	for _, s := range stats {
		fr, err := columns(df, s)
		if err != nil {
			return nil, err
		}
		var total float64
		for _, v := range fr.values {
			total += v
		}
		totals[s] = total
	}
	return totals, nil
}
