package query

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mr1hm/emdat-stats/internal/dataset"
	"github.com/mr1hm/emdat-stats/internal/models"
	"github.com/mr1hm/emdat-stats/internal/table"
)

const (
	DefaultBaseYear   = 2010
	DefaultDamageStat = models.StatTotalDamages
)

// Rebaser converts a nominal year series into whole constant dollars.
type Rebaser interface {
	Rebase(s table.Series, baseYear int) ([]int64, error)
}

// AverageAnnualLoss returns, per disaster type, the rebased loss summed over
// the filtered period and divided by the span of years present (latest minus
// earliest). Years with zero loss inside the span still count. The result is
// truncated to whole dollars and ordered largest first.
func AverageAnnualLoss(ds *dataset.Dataset, f Filter, stat models.Statistic, baseYear int, rebaser Rebaser) (table.Ranking, error) {
	if !stat.Monetary() {
		return nil, fmt.Errorf("%w: %q is not a monetary statistic", models.ErrInvalidField, stat)
	}

	m, err := StatByTypeTimeseries(ds, f, stat)
	if err != nil {
		return nil, err
	}
	if m.Empty() {
		return table.Ranking{}, nil
	}

	span := int64(m.Rows[len(m.Rows)-1] - m.Rows[0])
	if span == 0 {
		// A single year has no span; report its loss as one year's worth.
		span = 1
	}
	years := decimal.NewFromInt(span)

	aal := make(table.Ranking, 0, len(m.Columns))
	for _, c := range m.Columns {
		rebased, err := rebaser.Rebase(m.Column(c), baseYear)
		if err != nil {
			return nil, fmt.Errorf("rebasing %q: %w", c, err)
		}
		var total int64
		for _, v := range rebased {
			total += v
		}
		aal = append(aal, table.Entry{
			Key:   c,
			Value: float64(decimal.NewFromInt(total).Div(years).IntPart()),
		})
	}
	aal.SortDesc()
	return aal, nil
}
