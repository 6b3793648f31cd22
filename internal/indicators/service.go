package indicators

import (
	"context"
	"fmt"

	"github.com/mr1hm/emdat-stats/internal/table"
)

// Service resolves EMDAT country names to ISO codes and fetches indicators
// for them.
type Service struct {
	fetcher Fetcher
	iso     *ISOTable
}

func NewService(fetcher Fetcher, iso *ISOTable) *Service {
	return &Service{
		fetcher: fetcher,
		iso:     iso,
	}
}

// GNI takes a matrix whose columns are country names and whose rows are
// years, and returns GNI in current US$ for the same countries and years.
func (s *Service) GNI(ctx context.Context, m *table.Matrix) (*table.Matrix, error) {
	return s.For(ctx, GNI, m)
}

// Population is GNI's counterpart for total population.
func (s *Service) Population(ctx context.Context, m *table.Matrix) (*table.Matrix, error) {
	return s.For(ctx, Population, m)
}

// For fetches ind over the countries and year span of m.
func (s *Service) For(ctx context.Context, ind Indicator, m *table.Matrix) (*table.Matrix, error) {
	if m.Empty() {
		return table.NewMatrix(nil, nil), nil
	}
	return s.Fetch(ctx, ind, m.Columns, m.Rows[0], m.Rows[len(m.Rows)-1])
}

// Fetch returns a year × country matrix keyed by the EMDAT names given.
func (s *Service) Fetch(ctx context.Context, ind Indicator, countries []string, fromYear, toYear int) (*table.Matrix, error) {
	isos, err := s.iso.Codes(countries)
	if err != nil {
		return nil, err
	}

	byISO, err := s.fetcher.Fetch(ctx, ind, isos, fromYear, toYear)
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", ind.Name, err)
	}

	out := table.NewMatrix(table.YearSpan(fromYear, toYear), append([]string(nil), countries...))
	for i, c := range countries {
		col := byISO.Column(isos[i])
		for k, y := range col.Years {
			out.Add(y, c, col.Values[k])
		}
	}
	return out, nil
}
