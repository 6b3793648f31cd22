package models

import (
	"fmt"
	"strings"
)

type Statistic string

const (
	StatDeaths              Statistic = "deaths"
	StatInjured             Statistic = "injured"
	StatAffected            Statistic = "affected"
	StatHomeless            Statistic = "homeless"
	StatTotalAffected       Statistic = "total_affected"
	StatReconstructionCosts Statistic = "reconstruction_costs"
	StatInsuredDamages      Statistic = "insured_damages"
	StatTotalDamages        Statistic = "total_damages"
)

// Statistics lists every summable column in schema order.
var Statistics = []Statistic{
	StatDeaths,
	StatInjured,
	StatAffected,
	StatHomeless,
	StatTotalAffected,
	StatReconstructionCosts,
	StatInsuredDamages,
	StatTotalDamages,
}

func ParseStatistic(s string) (Statistic, error) {
	stat := Statistic(strings.ToLower(strings.TrimSpace(s)))
	if !stat.Valid() {
		return "", fmt.Errorf("%w: unknown statistic %q", ErrInvalidField, s)
	}
	return stat, nil
}

func (s Statistic) Valid() bool {
	for _, known := range Statistics {
		if s == known {
			return true
		}
	}
	return false
}

// Monetary reports whether s is expressed in thousands of US$.
func (s Statistic) Monetary() bool {
	switch s {
	case StatReconstructionCosts, StatInsuredDamages, StatTotalDamages:
		return true
	default:
		return false
	}
}

func (s Statistic) String() string {
	return string(s)
}
