// Package dataset holds the EMDAT events as a read-only gota data frame.
package dataset

import (
	"fmt"
	"math"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"github.com/mr1hm/emdat-stats/internal/models"
)

// Internal column names of the frame.
const (
	ColYear             = "year"
	ColCountry          = "country"
	ColDisNo            = "dis_no"
	ColDisasterGroup    = "disaster_group"
	ColDisasterSubgroup = "disaster_subgroup"
	ColDisasterType     = "disaster_type"
	ColDisasterSubtype  = "disaster_subtype"
	ColLocation         = "location"
	ColEventName        = "event_name"
	ColLatitude         = "lat"
	ColLongitude        = "lon"
)

const (
	MinPlausibleYear = 1900
	MaxPlausibleYear = 2100
)

var stringColumns = []string{
	ColCountry,
	ColDisNo,
	ColDisasterGroup,
	ColDisasterSubgroup,
	ColDisasterType,
	ColDisasterSubtype,
	ColLocation,
	ColEventName,
}

type Dataset struct {
	df            dataframe.DataFrame
	countries     []string
	disasterTypes []string
	nEvents       int
	firstYear     int
	lastYear      int
}

// FromEvents validates events and builds a dataset from them.
func FromEvents(events []models.Event) (*Dataset, error) {
	for i := range events {
		if err := validate(&events[i]); err != nil {
			return nil, fmt.Errorf("event %d: %w", i, err)
		}
	}

	years := make([]int, len(events))
	strs := make(map[string][]string, len(stringColumns))
	for _, c := range stringColumns {
		strs[c] = make([]string, len(events))
	}
	lat := make([]float64, len(events))
	lon := make([]float64, len(events))
	stats := make(map[models.Statistic][]float64, len(models.Statistics))
	for _, s := range models.Statistics {
		stats[s] = make([]float64, len(events))
	}

	for i, e := range events {
		years[i] = e.Year
		strs[ColCountry][i] = e.Country
		strs[ColDisNo][i] = e.DisNo
		strs[ColDisasterGroup][i] = e.DisasterGroup
		strs[ColDisasterSubgroup][i] = e.DisasterSubgroup
		strs[ColDisasterType][i] = e.DisasterType
		strs[ColDisasterSubtype][i] = e.DisasterSubtype
		strs[ColLocation][i] = e.Location
		strs[ColEventName][i] = e.EventName
		lat[i] = orNaN(e.Latitude)
		lon[i] = orNaN(e.Longitude)
		for _, s := range models.Statistics {
			stats[s][i] = orNaN(e.Stat(s))
		}
	}

	cols := []series.Series{series.New(years, series.Int, ColYear)}
	for _, c := range stringColumns {
		cols = append(cols, series.New(strs[c], series.String, c))
	}
	cols = append(cols,
		series.New(lat, series.Float, ColLatitude),
		series.New(lon, series.Float, ColLongitude),
	)
	for _, s := range models.Statistics {
		cols = append(cols, series.New(stats[s], series.Float, string(s)))
	}

	df := dataframe.New(cols...)
	if df.Err != nil {
		return nil, fmt.Errorf("error building frame: %w", df.Err)
	}

	d := &Dataset{df: df}
	d.summarize(events)
	return d, nil
}

func validate(e *models.Event) error {
	if e.DisNo == "" {
		return fmt.Errorf("%w: missing disaster number", models.ErrInvalidField)
	}
	if e.Year < MinPlausibleYear || e.Year > MaxPlausibleYear {
		return fmt.Errorf("%w: implausible year %d", models.ErrInvalidField, e.Year)
	}
	return nil
}

func (d *Dataset) summarize(events []models.Event) {
	seenCountry := make(map[string]bool)
	seenType := make(map[string]bool)
	seenDis := make(map[string]bool)
	for i, e := range events {
		if i == 0 || e.Year < d.firstYear {
			d.firstYear = e.Year
		}
		if e.Year > d.lastYear {
			d.lastYear = e.Year
		}
		if !seenCountry[e.Country] {
			seenCountry[e.Country] = true
			d.countries = append(d.countries, e.Country)
		}
		if !seenType[e.DisasterType] {
			seenType[e.DisasterType] = true
			d.disasterTypes = append(d.disasterTypes, e.DisasterType)
		}
		seenDis[e.DisNo] = true
	}
	d.nEvents = len(seenDis)
}

// Frame returns a copy of the underlying frame. Callers may filter or reshape
// it freely; the dataset itself is never written after construction.
func (d *Dataset) Frame() dataframe.DataFrame {
	return d.df.Copy()
}

// Len is the number of rows, which can exceed NEvents for multi-country disasters.
func (d *Dataset) Len() int {
	return d.df.Nrow()
}

// NEvents is the number of distinct disasters.
func (d *Dataset) NEvents() int {
	return d.nEvents
}

// Countries returns the unique country names in order of first appearance.
func (d *Dataset) Countries() []string {
	return append([]string(nil), d.countries...)
}

// DisasterTypes returns the unique disaster types in order of first appearance.
func (d *Dataset) DisasterTypes() []string {
	return append([]string(nil), d.disasterTypes...)
}

// YearRange returns the earliest and latest year present, zeros when empty.
func (d *Dataset) YearRange() (int, int) {
	return d.firstYear, d.lastYear
}

// Events materializes every row.
func (d *Dataset) Events() ([]models.Event, error) {
	return EventsFromFrame(d.df)
}

// EventsFromFrame converts a frame with the dataset schema back into events.
func EventsFromFrame(df dataframe.DataFrame) ([]models.Event, error) {
	n := df.Nrow()
	if n == 0 {
		return nil, nil
	}

	years, err := df.Col(ColYear).Int()
	if err != nil {
		return nil, fmt.Errorf("error reading years: %w", err)
	}
	strs := make(map[string][]string, len(stringColumns))
	for _, c := range stringColumns {
		strs[c] = df.Col(c).Records()
	}
	lat := df.Col(ColLatitude).Float()
	lon := df.Col(ColLongitude).Float()
	stats := make(map[models.Statistic][]float64, len(models.Statistics))
	for _, s := range models.Statistics {
		stats[s] = df.Col(string(s)).Float()
	}

	events := make([]models.Event, n)
	for i := 0; i < n; i++ {
		e := &events[i]
		e.Year = years[i]
		e.Country = strs[ColCountry][i]
		e.DisNo = strs[ColDisNo][i]
		e.DisasterGroup = strs[ColDisasterGroup][i]
		e.DisasterSubgroup = strs[ColDisasterSubgroup][i]
		e.DisasterType = strs[ColDisasterType][i]
		e.DisasterSubtype = strs[ColDisasterSubtype][i]
		e.Location = strs[ColLocation][i]
		e.EventName = strs[ColEventName][i]
		e.Latitude = fromNaN(lat[i])
		e.Longitude = fromNaN(lon[i])
		for _, s := range models.Statistics {
			e.SetStat(s, fromNaN(stats[s][i]))
		}
	}
	return events, nil
}

func orNaN(v *float64) float64 {
	if v == nil {
		return math.NaN()
	}
	return *v
}

func fromNaN(v float64) *float64 {
	if math.IsNaN(v) {
		return nil
	}
	return &v
}
