package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/emdat-stats/internal/models"
	"github.com/mr1hm/emdat-stats/internal/query"
	"github.com/mr1hm/emdat-stats/internal/table"
)

type params struct {
	MinYear       int      `form:"min_year" binding:"omitempty,min=1900,max=2100"`
	MaxYear       int      `form:"max_year" binding:"omitempty,min=1900,max=2100"`
	Bounds        string   `form:"bounds"`
	Countries     []string `form:"country"`
	DisasterTypes []string `form:"disaster_type"`
	Stats         []string `form:"stat"`
	BaseYear      int      `form:"base_year" binding:"omitempty,min=1900,max=2100"`
	Format        string   `form:"format" binding:"omitempty,oneof=json text"`
}

func bindParams(c *gin.Context) (params, bool) {
	var p params
	if err := c.ShouldBindQuery(&p); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{
			"error": err.Error(),
		})
		return p, false
	}
	return p, true
}

func (p params) filter() (query.Filter, error) {
	b, err := query.ParseBounds(p.Bounds)
	if err != nil {
		return query.Filter{}, err
	}
	if p.MinYear != 0 && p.MaxYear != 0 && p.MinYear > p.MaxYear {
		return query.Filter{}, fmt.Errorf("%w: min_year %d is after max_year %d", models.ErrInvalidField, p.MinYear, p.MaxYear)
	}
	return query.Filter{
		MinYear:       p.MinYear,
		MaxYear:       p.MaxYear,
		Bounds:        b,
		Countries:     p.Countries,
		DisasterTypes: p.DisasterTypes,
	}, nil
}

// stat returns the single requested statistic, or def when none was given.
func (p params) stat(def models.Statistic) (models.Statistic, error) {
	switch len(p.Stats) {
	case 0:
		if def == "" {
			return "", fmt.Errorf("%w: stat is required", models.ErrInvalidField)
		}
		return def, nil
	case 1:
		return models.ParseStatistic(p.Stats[0])
	default:
		return "", fmt.Errorf("%w: expected one stat, got %d", models.ErrInvalidField, len(p.Stats))
	}
}

func (p params) baseYear(def int) int {
	if p.BaseYear != 0 {
		return p.BaseYear
	}
	return def
}

func writeMatrix(c *gin.Context, p params, m *table.Matrix) {
	if p.Format == "text" {
		c.Status(http.StatusOK)
		c.Header("Content-Type", "text/plain; charset=utf-8")
		if err := m.WriteText(c.Writer); err != nil {
			c.Error(err)
		}
		return
	}
	c.JSON(http.StatusOK, m)
}

func writeRanking(c *gin.Context, p params, r table.Ranking) {
	if p.Format == "text" {
		c.Status(http.StatusOK)
		c.Header("Content-Type", "text/plain; charset=utf-8")
		if err := r.WriteText(c.Writer); err != nil {
			c.Error(err)
		}
		return
	}
	if r == nil {
		r = table.Ranking{}
	}
	c.JSON(http.StatusOK, r)
}
