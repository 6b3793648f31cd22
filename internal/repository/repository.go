package repository

import (
	"context"

	"github.com/mr1hm/emdat-stats/internal/models"
)

// IndicatorRepository caches external indicator values. A code counts as
// covered for a year range once a fetch spanning that range was saved for it,
// so years the source never published are not asked for again.
type IndicatorRepository interface {
	CoveredISOs(ctx context.Context, indicator string, isoCodes []string, fromYear, toYear int) ([]string, error)
	LoadIndicator(ctx context.Context, indicator string, isoCodes []string, fromYear, toYear int) ([]models.Observation, error)
	SaveIndicator(ctx context.Context, indicator string, isoCodes []string, fromYear, toYear int, obs []models.Observation) error
}
