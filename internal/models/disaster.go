package models

// Event is one EMDAT row. A disaster (DisNo) may span several rows, one per
// country or location. Numeric statistics are nil when the source cell is empty.
type Event struct {
	Year             int      `json:"year"`
	Country          string   `json:"country"`
	DisNo            string   `json:"dis_no"` // e.g. "2001-0146-PAK"
	DisasterGroup    string   `json:"disaster_group,omitempty"`
	DisasterSubgroup string   `json:"disaster_subgroup,omitempty"`
	DisasterType     string   `json:"disaster_type"`
	DisasterSubtype  string   `json:"disaster_subtype,omitempty"`
	Location         string   `json:"location,omitempty"`
	EventName        string   `json:"event_name,omitempty"`
	Latitude         *float64 `json:"lat,omitempty"`
	Longitude        *float64 `json:"lon,omitempty"`

	Deaths        *float64 `json:"deaths,omitempty"`
	Injured       *float64 `json:"injured,omitempty"`
	Affected      *float64 `json:"affected,omitempty"`
	Homeless      *float64 `json:"homeless,omitempty"`
	TotalAffected *float64 `json:"total_affected,omitempty"`

	// Thousands of US$ at the time of the event.
	ReconstructionCosts *float64 `json:"reconstruction_costs,omitempty"`
	InsuredDamages      *float64 `json:"insured_damages,omitempty"`
	TotalDamages        *float64 `json:"total_damages,omitempty"`
}

type Coordinates struct {
	Latitude  float64
	Longitude float64
}

// Coordinates reports false when the row has no usable position.
func (e *Event) Coordinates() (Coordinates, bool) {
	if e.Latitude == nil || e.Longitude == nil {
		return Coordinates{}, false
	}
	return Coordinates{
		Latitude:  *e.Latitude,
		Longitude: *e.Longitude,
	}, true
}

// Stat returns the value of s for this event, nil when absent.
func (e *Event) Stat(s Statistic) *float64 {
	switch s {
	case StatDeaths:
		return e.Deaths
	case StatInjured:
		return e.Injured
	case StatAffected:
		return e.Affected
	case StatHomeless:
		return e.Homeless
	case StatTotalAffected:
		return e.TotalAffected
	case StatReconstructionCosts:
		return e.ReconstructionCosts
	case StatInsuredDamages:
		return e.InsuredDamages
	case StatTotalDamages:
		return e.TotalDamages
	default:
		return nil
	}
}

// SetStat stores v under s. Unknown statistics are ignored.
func (e *Event) SetStat(s Statistic, v *float64) {
	switch s {
	case StatDeaths:
		e.Deaths = v
	case StatInjured:
		e.Injured = v
	case StatAffected:
		e.Affected = v
	case StatHomeless:
		e.Homeless = v
	case StatTotalAffected:
		e.TotalAffected = v
	case StatReconstructionCosts:
		e.ReconstructionCosts = v
	case StatInsuredDamages:
		e.InsuredDamages = v
	case StatTotalDamages:
		e.TotalDamages = v
	}
}

// Float is a small helper for building optional statistics.
func Float(v float64) *float64 {
	return &v
}
