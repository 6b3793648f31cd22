// Package indicators fetches national economic series (GNI, population) for
// the countries of a query result from the World Bank indicator API.
package indicators

import (
	"context"
	"fmt"
	"strings"

	"github.com/mr1hm/emdat-stats/internal/models"
	"github.com/mr1hm/emdat-stats/internal/table"
)

type Indicator struct {
	Name string // short name used in URLs and the cache
	Code string // World Bank indicator code
	Desc string
}

var (
	GNI = Indicator{
		Name: "gni",
		Code: "NY.GNP.MKTP.CD",
		Desc: "GNI (current US$)",
	}
	Population = Indicator{
		Name: "population",
		Code: "SP.POP.TOTL",
		Desc: "Population, total",
	}
)

// Known lists the supported indicators.
var Known = []Indicator{GNI, Population}

func ParseIndicator(s string) (Indicator, error) {
	for _, ind := range Known {
		if strings.EqualFold(s, ind.Name) || strings.EqualFold(s, ind.Code) {
			return ind, nil
		}
	}
	return Indicator{}, fmt.Errorf("%w: unknown indicator %q", models.ErrInvalidField, s)
}

// Fetcher returns a year × ISO code matrix for one indicator. Years the
// source has not published are 0. An unavailable source, or a requested code
// with no data at all, fails with models.ErrExternalFetch.
type Fetcher interface {
	Fetch(ctx context.Context, ind Indicator, isoCodes []string, fromYear, toYear int) (*table.Matrix, error)
}

// observations flattens a fetched matrix for storage.
func observations(ind Indicator, m *table.Matrix) []models.Observation {
	obs := make([]models.Observation, 0, len(m.Rows)*len(m.Columns))
	for i, y := range m.Rows {
		for j, iso := range m.Columns {
			obs = append(obs, models.Observation{
				Indicator: ind.Name,
				ISO:       iso,
				Year:      y,
				Value:     m.Values[i][j],
			})
		}
	}
	return obs
}

func normalize(isoCodes []string) []string {
	out := make([]string, 0, len(isoCodes))
	seen := make(map[string]bool, len(isoCodes))
	for _, c := range isoCodes {
		c = strings.ToUpper(strings.TrimSpace(c))
		if c == "" || seen[c] {
			continue
		}
		seen[c] = true
		out = append(out, c)
	}
	return out
}
