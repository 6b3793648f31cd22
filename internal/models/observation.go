package models

// Observation is one published value of an external indicator.
type Observation struct {
	Indicator string  `db:"indicator"`
	ISO       string  `db:"iso"`
	Year      int     `db:"year"`
	Value     float64 `db:"value"`
}
