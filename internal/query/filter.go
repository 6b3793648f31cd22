// Package query answers "how many / how much, by which dimension, for which
// subset" questions over a dataset. Every function is pure: the dataset frame
// is copied and filtered, never written back.
package query

import (
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/mr1hm/emdat-stats/internal/dataset"
	"github.com/mr1hm/emdat-stats/internal/models"
)

// All is the sentinel that disables a country or disaster type filter.
const All = "all"

// Bounds controls whether MinYear and MaxYear themselves are kept.
type Bounds int

const (
	// Exclusive keeps min < year < max.
	Exclusive Bounds = iota
	// Inclusive keeps min <= year <= max.
	Inclusive
)

func ParseBounds(s string) (Bounds, error) {
	switch s {
	case "", "exclusive":
		return Exclusive, nil
	case "inclusive":
		return Inclusive, nil
	default:
		return Exclusive, fmt.Errorf("%w: unknown bounds %q", models.ErrInvalidField, s)
	}
}

func (b Bounds) String() string {
	if b == Inclusive {
		return "inclusive"
	}
	return "exclusive"
}

// Filter selects rows. The year range applies only when both MinYear and
// MaxYear are non-zero. An empty list, or exactly ["all"], disables the
// country and disaster type predicates.
type Filter struct {
	MinYear       int
	MaxYear       int
	Bounds        Bounds
	Countries     []string
	DisasterTypes []string
}

func (f Filter) hasYearRange() bool {
	return f.MinYear != 0 && f.MaxYear != 0
}

// Match reports whether a single event passes the filter.
func (f Filter) Match(e *models.Event) bool {
	if f.hasYearRange() {
		if f.Bounds == Inclusive {
			if e.Year < f.MinYear || e.Year > f.MaxYear {
				return false
			}
		} else if e.Year <= f.MinYear || e.Year >= f.MaxYear {
			return false
		}
	}
	if selective(f.Countries) && !contains(f.Countries, e.Country) {
		return false
	}
	if selective(f.DisasterTypes) && !contains(f.DisasterTypes, e.DisasterType) {
		return false
	}
	return true
}

func selective(values []string) bool {
	if len(values) == 0 {
		return false
	}
	return !(len(values) == 1 && values[0] == All)
}

func contains(values []string, v string) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}

// Apply runs the year, country and disaster type predicates in that order.
func Apply(df dataframe.DataFrame, f Filter) (dataframe.DataFrame, error) {
	var filters []dataframe.F

	if f.hasYearRange() {
		lo, hi := series.Greater, series.Less
		if f.Bounds == Inclusive {
			lo, hi = series.GreaterEq, series.LessEq
		}
		filters = append(filters,
			dataframe.F{Colname: dataset.ColYear, Comparator: lo, Comparando: f.MinYear},
			dataframe.F{Colname: dataset.ColYear, Comparator: hi, Comparando: f.MaxYear},
		)
	}
	if selective(f.Countries) {
		filters = append(filters, dataframe.F{Colname: dataset.ColCountry, Comparator: series.In, Comparando: f.Countries})
	}
	if selective(f.DisasterTypes) {
		filters = append(filters, dataframe.F{Colname: dataset.ColDisasterType, Comparator: series.In, Comparando: f.DisasterTypes})
	}

	// Filter ORs its arguments, so predicates are chained one at a time.
	for _, flt := range filters {
		if df.Nrow() == 0 {
			return df, nil
		}
		df = df.Filter(flt)
		if df.Err != nil {
			return df, fmt.Errorf("error filtering on %s: %w", flt.Colname, df.Err)
		}
	}
	return df, nil
}

// Events returns the filtered rows as events.
func Events(ds *dataset.Dataset, f Filter) ([]models.Event, error) {
	df, err := Apply(ds.Frame(), f)
	if err != nil {
		return nil, err
	}
	return dataset.EventsFromFrame(df)
}
