package indicators

import (
	"context"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mr1hm/emdat-stats/internal/models"
	"github.com/mr1hm/emdat-stats/internal/table"
)

// Store persists fetched indicator values.
type Store interface {
	CoveredISOs(ctx context.Context, indicator string, isoCodes []string, fromYear, toYear int) ([]string, error)
	LoadIndicator(ctx context.Context, indicator string, isoCodes []string, fromYear, toYear int) ([]models.Observation, error)
	SaveIndicator(ctx context.Context, indicator string, isoCodes []string, fromYear, toYear int, obs []models.Observation) error
}

// CachedFetcher serves codes whose year range was fetched before from the
// store and only asks next for the rest.
type CachedFetcher struct {
	next  Fetcher
	store Store
}

func NewCachedFetcher(next Fetcher, store Store) *CachedFetcher {
	return &CachedFetcher{
		next:  next,
		store: store,
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, ind Indicator, isoCodes []string, fromYear, toYear int) (*table.Matrix, error) {
	isos := normalize(isoCodes)
	if len(isos) == 0 {
		return table.NewMatrix(nil, nil), nil
	}

	covered, err := c.store.CoveredISOs(ctx, ind.Name, isos, fromYear, toYear)
	if err != nil {
		return nil, fmt.Errorf("error checking cache: %w", err)
	}
	have := make(map[string]bool, len(covered))
	for _, iso := range covered {
		have[iso] = true
	}
	var missing []string
	for _, iso := range isos {
		if !have[iso] {
			missing = append(missing, iso)
		}
	}

	if len(missing) > 0 {
		fetched, err := c.next.Fetch(ctx, ind, missing, fromYear, toYear)
		if err != nil {
			return nil, err
		}
		if err := c.store.SaveIndicator(ctx, ind.Name, missing, fromYear, toYear, observations(ind, fetched)); err != nil {
			return nil, fmt.Errorf("error saving to cache: %w", err)
		}
		if len(covered) == 0 {
			return fetched, nil
		}
	}
	slog.Debug("indicator cache", "indicator", ind.Name, "hits", len(covered), "misses", len(missing))

	obs, err := c.store.LoadIndicator(ctx, ind.Name, isos, fromYear, toYear)
	if err != nil {
		return nil, fmt.Errorf("error loading from cache: %w", err)
	}

	cols := append([]string(nil), isos...)
	sort.Strings(cols)
	m := table.NewMatrix(table.YearSpan(fromYear, toYear), cols)
	for _, o := range obs {
		m.Add(o.Year, o.ISO, o.Value)
	}
	return m, nil
}
