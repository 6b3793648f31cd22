package query

import (
	"errors"
	"testing"

	"github.com/davecgh/go-spew/spew"

	"github.com/mr1hm/emdat-stats/internal/dataset"
	"github.com/mr1hm/emdat-stats/internal/models"
	"github.com/mr1hm/emdat-stats/internal/table"
)

func newDataset(t *testing.T, events []models.Event) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.FromEvents(events)
	if err != nil {
		t.Fatalf("failed to build dataset: %v", err)
	}
	return ds
}

func pakistanFloods(t *testing.T) *dataset.Dataset {
	return newDataset(t, []models.Event{
		{Year: 2001, Country: "Pakistan", DisNo: "2001-0001-PAK", DisasterType: "Flood", Deaths: models.Float(100)},
		{Year: 2005, Country: "Pakistan", DisNo: "2005-0001-PAK", DisasterType: "Flood", Deaths: models.Float(50)},
	})
}

// sampleDataset has a disaster spanning two countries, a row with no deaths
// recorded and rows on both year bounds.
func sampleDataset(t *testing.T) *dataset.Dataset {
	return newDataset(t, []models.Event{
		{Year: 2000, Country: "India", DisNo: "2000-0010-IND", DisasterType: "Drought", Affected: models.Float(1e6)},
		{Year: 2001, Country: "Pakistan", DisNo: "2001-0001-PAK", DisasterType: "Flood", Deaths: models.Float(100), TotalDamages: models.Float(2000)},
		{Year: 2001, Country: "India", DisNo: "2001-0002-IND", DisasterType: "Earthquake", Deaths: models.Float(20000)},
		{Year: 2003, Country: "India", DisNo: "2003-0003-IND", DisasterType: "Flood", Deaths: models.Float(30)},
		{Year: 2003, Country: "Bangladesh", DisNo: "2003-0003-IND", DisasterType: "Flood", Deaths: models.Float(70)},
		{Year: 2005, Country: "Pakistan", DisNo: "2005-0001-PAK", DisasterType: "Flood", Deaths: models.Float(50), TotalDamages: models.Float(1000)},
		{Year: 2005, Country: "Pakistan", DisNo: "2005-0002-PAK", DisasterType: "Earthquake", Deaths: models.Float(73000)},
		{Year: 2010, Country: "Pakistan", DisNo: "2010-0004-PAK", DisasterType: "Flood", Deaths: models.Float(2000)},
	})
}

func TestStatByCountryTimeseries_DenseRows(t *testing.T) {
	ds := pakistanFloods(t)

	m, err := StatByCountryTimeseries(ds, Filter{}, models.StatDeaths)
	if err != nil {
		t.Fatalf("StatByCountryTimeseries failed: %v", err)
	}

	want := []float64{100, 0, 0, 0, 50}
	if len(m.Rows) != len(want) || m.Rows[0] != 2001 || m.Rows[4] != 2005 {
		t.Fatalf("expected rows 2001..2005, got %v", m.Rows)
	}
	for i, y := range m.Rows {
		if got := m.At(y, "Pakistan"); got != want[i] {
			t.Errorf("year %d: expected %v, got %v", y, want[i], got)
		}
	}
}

func TestTotalForPeriod(t *testing.T) {
	ds := pakistanFloods(t)

	f := Filter{MinYear: 2000, MaxYear: 2010, Countries: []string{"Pakistan"}, DisasterTypes: []string{"Flood"}}
	total, err := TotalForPeriod(ds, f, models.StatDeaths)
	if err != nil {
		t.Fatalf("TotalForPeriod failed: %v", err)
	}
	if total != 150 {
		t.Errorf("expected 150, got %v", total)
	}
}

func TestFilter_Bounds(t *testing.T) {
	ds := sampleDataset(t)

	tests := []struct {
		name   string
		filter Filter
		want   float64
	}{
		{"no range", Filter{}, 95250},
		{"exclusive", Filter{MinYear: 2000, MaxYear: 2010}, 93250},
		{"inclusive", Filter{MinYear: 2000, MaxYear: 2010, Bounds: Inclusive}, 95250},
		{"only min is ignored", Filter{MinYear: 2004}, 95250},
		{"empty window", Filter{MinYear: 2001, MaxYear: 2002}, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			total, err := TotalForPeriod(ds, tt.filter, models.StatDeaths)
			if err != nil {
				t.Fatalf("TotalForPeriod failed: %v", err)
			}
			if total != tt.want {
				t.Errorf("expected %v, got %v", tt.want, total)
			}
		})
	}
}

func TestFilter_SubsetOfUnfiltered(t *testing.T) {
	ds := sampleDataset(t)
	all, err := ds.Events()
	if err != nil {
		t.Fatalf("Events failed: %v", err)
	}

	filters := []Filter{
		{MinYear: 2000, MaxYear: 2006},
		{Countries: []string{"Pakistan", "Bangladesh"}},
		{DisasterTypes: []string{"Flood"}, MinYear: 2000, MaxYear: 2010, Bounds: Inclusive},
		{Countries: []string{"India"}, DisasterTypes: []string{"Earthquake", "Drought"}},
		{Countries: []string{"Atlantis"}},
	}
	for _, f := range filters {
		got, err := Events(ds, f)
		if err != nil {
			t.Fatalf("Events(%+v) failed: %v", f, err)
		}
		var want []models.Event
		for i := range all {
			if f.Match(&all[i]) {
				want = append(want, all[i])
			}
		}
		if len(got) != len(want) {
			t.Errorf("filter %+v: expected %d rows, got %d\n%s", f, len(want), len(got), spew.Sdump(got))
			continue
		}
		for i := range got {
			if got[i].DisNo != want[i].DisNo || got[i].Country != want[i].Country {
				t.Errorf("filter %+v: row %d mismatch: %s", f, i, spew.Sdump(got[i], want[i]))
			}
		}
	}
}

func TestFilter_AllIsIdentity(t *testing.T) {
	ds := sampleDataset(t)

	base, err := StatByCountry(ds, Filter{}, models.StatDeaths)
	if err != nil {
		t.Fatalf("StatByCountry failed: %v", err)
	}
	for _, f := range []Filter{
		{Countries: []string{All}},
		{DisasterTypes: []string{All}},
		{Countries: []string{}, DisasterTypes: []string{All}},
	} {
		got, err := StatByCountry(ds, f, models.StatDeaths)
		if err != nil {
			t.Fatalf("StatByCountry failed: %v", err)
		}
		if spew.Sdump(got) != spew.Sdump(base) {
			t.Errorf("filter %+v changed the result:\n%s", f, spew.Sdump(got))
		}
	}
}

func TestCountByTypeTimeseries(t *testing.T) {
	ds := sampleDataset(t)

	m, err := CountByTypeTimeseries(ds, Filter{})
	if err != nil {
		t.Fatalf("CountByTypeTimeseries failed: %v", err)
	}

	if got := m.Columns; len(got) != 3 || got[0] != "Drought" || got[1] != "Earthquake" || got[2] != "Flood" {
		t.Errorf("expected sorted type columns, got %v", got)
	}
	if len(m.Rows) != 11 {
		t.Errorf("expected rows 2000..2010, got %v", m.Rows)
	}

	// the 2003 flood spans two countries but is one disaster
	if got := m.At(2003, "Flood"); got != 1 {
		t.Errorf("expected 1 flood in 2003, got %v", got)
	}

	distinct := make(map[int]map[string]bool)
	events, _ := ds.Events()
	for _, e := range events {
		if distinct[e.Year] == nil {
			distinct[e.Year] = make(map[string]bool)
		}
		distinct[e.Year][e.DisNo] = true
	}
	for _, y := range m.Rows {
		if got, want := m.RowSum(y), float64(len(distinct[y])); got != want {
			t.Errorf("year %d: row sum %v, distinct disasters %v", y, got, want)
		}
	}
}

func TestMatricesHaveNoMissingCells(t *testing.T) {
	ds := sampleDataset(t)

	check := func(name string, m *table.Matrix) {
		if len(m.Values) != len(m.Rows) {
			t.Errorf("%s: %d value rows for %d years", name, len(m.Values), len(m.Rows))
		}
		for i, row := range m.Values {
			if len(row) != len(m.Columns) {
				t.Errorf("%s: row %d has %d cells for %d columns", name, i, len(row), len(m.Columns))
			}
		}
		for i := 1; i < len(m.Rows); i++ {
			if m.Rows[i] != m.Rows[i-1]+1 {
				t.Errorf("%s: gap between %d and %d", name, m.Rows[i-1], m.Rows[i])
			}
		}
	}

	counts, err := CountByTypeTimeseries(ds, Filter{})
	if err != nil {
		t.Fatalf("CountByTypeTimeseries failed: %v", err)
	}
	check("counts", counts)

	for _, s := range models.Statistics {
		byType, err := StatByTypeTimeseries(ds, Filter{}, s)
		if err != nil {
			t.Fatalf("StatByTypeTimeseries(%s) failed: %v", s, err)
		}
		check("by type "+s.String(), byType)

		byCountry, err := StatByCountryTimeseries(ds, Filter{}, s)
		if err != nil {
			t.Fatalf("StatByCountryTimeseries(%s) failed: %v", s, err)
		}
		check("by country "+s.String(), byCountry)
	}
}

func TestStatByType_Ordering(t *testing.T) {
	ds := sampleDataset(t)

	r, err := StatByType(ds, Filter{}, models.StatDeaths)
	if err != nil {
		t.Fatalf("StatByType failed: %v", err)
	}

	want := table.Ranking{
		{Key: "Earthquake", Value: 93000},
		{Key: "Flood", Value: 2250},
		{Key: "Drought", Value: 0},
	}
	if spew.Sdump(r) != spew.Sdump(want) {
		t.Errorf("unexpected ranking:\n%s", spew.Sdump(r))
	}
}

func TestStatByCountry_KeyOrder(t *testing.T) {
	ds := sampleDataset(t)

	r, err := StatByCountry(ds, Filter{}, models.StatDeaths)
	if err != nil {
		t.Fatalf("StatByCountry failed: %v", err)
	}
	keys := r.Keys()
	if len(keys) != 3 || keys[0] != "Bangladesh" || keys[1] != "India" || keys[2] != "Pakistan" {
		t.Errorf("expected alphabetical countries, got %v", keys)
	}
	if v, _ := r.Get("Pakistan"); v != 75150 {
		t.Errorf("expected Pakistan 75150, got %v", v)
	}
}

func TestTotalsForPeriod(t *testing.T) {
	ds := sampleDataset(t)

	f := Filter{Countries: []string{"Pakistan"}}
	totals, err := TotalsForPeriod(ds, f, models.StatDeaths, models.StatTotalDamages)
	if err != nil {
		t.Fatalf("TotalsForPeriod failed: %v", err)
	}
	if totals[models.StatDeaths] != 75150 || totals[models.StatTotalDamages] != 3000 {
		t.Errorf("unexpected totals: %s", spew.Sdump(totals))
	}

	for _, s := range []models.Statistic{models.StatDeaths, models.StatTotalDamages} {
		single, _ := TotalForPeriod(ds, f, s)
		if single != totals[s] {
			t.Errorf("%s: single total %v differs from %v", s, single, totals[s])
		}
	}
}

func TestInvalidStatistic(t *testing.T) {
	ds := sampleDataset(t)
	bad := models.Statistic("casualties")

	if _, err := StatByType(ds, Filter{}, bad); !errors.Is(err, models.ErrInvalidField) {
		t.Errorf("StatByType: expected ErrInvalidField, got %v", err)
	}
	if _, err := StatByCountryTimeseries(ds, Filter{}, bad); !errors.Is(err, models.ErrInvalidField) {
		t.Errorf("StatByCountryTimeseries: expected ErrInvalidField, got %v", err)
	}
	if _, err := TotalForPeriod(ds, Filter{}, bad); !errors.Is(err, models.ErrInvalidField) {
		t.Errorf("TotalForPeriod: expected ErrInvalidField, got %v", err)
	}
	if _, err := TotalsForPeriod(ds, Filter{}, models.StatDeaths, bad); !errors.Is(err, models.ErrInvalidField) {
		t.Errorf("TotalsForPeriod: expected ErrInvalidField, got %v", err)
	}
}

func TestEmptyResults(t *testing.T) {
	ds := sampleDataset(t)
	f := Filter{Countries: []string{"Atlantis"}}

	m, err := StatByTypeTimeseries(ds, f, models.StatDeaths)
	if err != nil {
		t.Fatalf("StatByTypeTimeseries failed: %v", err)
	}
	if !m.Empty() {
		t.Errorf("expected empty matrix, got %s", spew.Sdump(m))
	}

	counts, err := CountByTypeTimeseries(ds, f)
	if err != nil || !counts.Empty() {
		t.Errorf("expected empty counts, got %v (%v)", counts, err)
	}

	r, err := StatByCountry(ds, f, models.StatDeaths)
	if err != nil || len(r) != 0 {
		t.Errorf("expected empty ranking, got %v (%v)", r, err)
	}

	total, err := TotalForPeriod(ds, f, models.StatDeaths)
	if err != nil || total != 0 {
		t.Errorf("expected 0, got %v (%v)", total, err)
	}
}

func TestQueriesDoNotMutateDataset(t *testing.T) {
	ds := sampleDataset(t)
	before := ds.Len()

	StatByType(ds, Filter{Countries: []string{"Pakistan"}, MinYear: 2000, MaxYear: 2004}, models.StatDeaths)
	CountByTypeTimeseries(ds, Filter{DisasterTypes: []string{"Flood"}})

	if ds.Len() != before {
		t.Errorf("dataset changed from %d to %d rows", before, ds.Len())
	}
}

func TestParseBounds(t *testing.T) {
	for s, want := range map[string]Bounds{"": Exclusive, "exclusive": Exclusive, "inclusive": Inclusive} {
		got, err := ParseBounds(s)
		if err != nil || got != want {
			t.Errorf("%q: expected %s, got %s (%v)", s, want, got, err)
		}
	}
	if _, err := ParseBounds("open"); !errors.Is(err, models.ErrInvalidField) {
		t.Errorf("expected ErrInvalidField, got %v", err)
	}
}
