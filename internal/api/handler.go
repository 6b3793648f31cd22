package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/mr1hm/emdat-stats/internal/dataset"
	"github.com/mr1hm/emdat-stats/internal/indicators"
	"github.com/mr1hm/emdat-stats/internal/models"
	"github.com/mr1hm/emdat-stats/internal/query"
	"github.com/mr1hm/emdat-stats/internal/table"
)

// MatrixRebaser converts every column of a nominal matrix to constant dollars.
type MatrixRebaser interface {
	query.Rebaser
	RebaseMatrix(m *table.Matrix, baseYear int) (*table.Matrix, error)
}

// IndicatorService fetches an indicator over the countries and years of a
// country matrix.
type IndicatorService interface {
	For(ctx context.Context, ind indicators.Indicator, m *table.Matrix) (*table.Matrix, error)
}

type Handler struct {
	ds         *dataset.Dataset
	rebaser    MatrixRebaser
	indicators IndicatorService
	baseYear   int
}

func NewHandler(ds *dataset.Dataset, rebaser MatrixRebaser, svc IndicatorService, baseYear int) *Handler {
	if baseYear == 0 {
		baseYear = query.DefaultBaseYear
	}
	return &Handler{
		ds:         ds,
		rebaser:    rebaser,
		indicators: svc,
		baseYear:   baseYear,
	}
}

func (h *Handler) RegisterRoutes(r *gin.Engine) {
	r.GET("/health", h.health)

	g := r.Group("/api")
	g.GET("/dataset", h.getDataset)
	g.GET("/events", h.getEvents)
	g.GET("/counts/by-type/timeseries", h.getCountByTypeTimeseries)
	g.GET("/stats/by-type", h.getStatByType)
	g.GET("/stats/by-type/timeseries", h.getStatByTypeTimeseries)
	g.GET("/stats/by-country", h.getStatByCountry)
	g.GET("/stats/by-country/timeseries", h.getStatByCountryTimeseries)
	g.GET("/stats/total", h.getTotal)
	g.GET("/aal/by-type", h.getAAL)
	g.GET("/indicators/:indicator", h.getIndicator)
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (h *Handler) getDataset(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"rows":           h.ds.Len(),
		"events":         h.ds.NEvents(),
		"countries":      h.ds.Countries(),
		"disaster_types": h.ds.DisasterTypes(),
		"statistics":     models.Statistics,
	})
}

func (h *Handler) getEvents(c *gin.Context) {
	p, ok := bindParams(c)
	if !ok {
		return
	}
	f, err := p.filter()
	if err != nil {
		writeError(c, err)
		return
	}

	events, err := query.Events(h.ds, f)
	if err != nil {
		writeError(c, err)
		return
	}

	fc := toGeoJSON(events)
	c.Header("Content-Type", "application/geo+json")
	c.JSON(http.StatusOK, fc)
}

func (h *Handler) getCountByTypeTimeseries(c *gin.Context) {
	p, ok := bindParams(c)
	if !ok {
		return
	}
	f, err := p.filter()
	if err != nil {
		writeError(c, err)
		return
	}

	m, err := query.CountByTypeTimeseries(h.ds, f)
	if err != nil {
		writeError(c, err)
		return
	}
	writeMatrix(c, p, m)
}

func (h *Handler) getStatByType(c *gin.Context) {
	p, f, stat, ok := h.statParams(c)
	if !ok {
		return
	}

	r, err := query.StatByType(h.ds, f, stat)
	if err != nil {
		writeError(c, err)
		return
	}
	writeRanking(c, p, r)
}

func (h *Handler) getStatByTypeTimeseries(c *gin.Context) {
	p, f, stat, ok := h.statParams(c)
	if !ok {
		return
	}

	m, err := query.StatByTypeTimeseries(h.ds, f, stat)
	if err == nil {
		m, err = h.maybeRebase(p, stat, m)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	writeMatrix(c, p, m)
}

func (h *Handler) getStatByCountry(c *gin.Context) {
	p, f, stat, ok := h.statParams(c)
	if !ok {
		return
	}

	r, err := query.StatByCountry(h.ds, f, stat)
	if err != nil {
		writeError(c, err)
		return
	}
	writeRanking(c, p, r)
}

func (h *Handler) getStatByCountryTimeseries(c *gin.Context) {
	p, f, stat, ok := h.statParams(c)
	if !ok {
		return
	}

	m, err := query.StatByCountryTimeseries(h.ds, f, stat)
	if err == nil {
		m, err = h.maybeRebase(p, stat, m)
	}
	if err != nil {
		writeError(c, err)
		return
	}
	writeMatrix(c, p, m)
}

// getTotal sums every requested stat, or all of them when none is given.
func (h *Handler) getTotal(c *gin.Context) {
	p, ok := bindParams(c)
	if !ok {
		return
	}
	f, err := p.filter()
	if err != nil {
		writeError(c, err)
		return
	}

	stats := models.Statistics
	if len(p.Stats) > 0 {
		stats = make([]models.Statistic, 0, len(p.Stats))
		for _, s := range p.Stats {
			stat, err := models.ParseStatistic(s)
			if err != nil {
				writeError(c, err)
				return
			}
			stats = append(stats, stat)
		}
	}

	totals, err := query.TotalsForPeriod(h.ds, f, stats...)
	if err != nil {
		writeError(c, err)
		return
	}

	r := make(table.Ranking, 0, len(stats))
	for _, s := range stats {
		r = append(r, table.Entry{Key: s.String(), Value: totals[s]})
	}
	writeRanking(c, p, r)
}

func (h *Handler) getAAL(c *gin.Context) {
	p, ok := bindParams(c)
	if !ok {
		return
	}
	f, err := p.filter()
	if err != nil {
		writeError(c, err)
		return
	}
	stat, err := p.stat(query.DefaultDamageStat)
	if err != nil {
		writeError(c, err)
		return
	}

	r, err := query.AverageAnnualLoss(h.ds, f, stat, p.baseYear(h.baseYear), h.rebaser)
	if err != nil {
		writeError(c, err)
		return
	}
	writeRanking(c, p, r)
}

// getIndicator fetches an indicator for the countries and years of the
// country timeseries selected by the request.
func (h *Handler) getIndicator(c *gin.Context) {
	ind, err := indicators.ParseIndicator(c.Param("indicator"))
	if err != nil {
		writeError(c, err)
		return
	}
	p, ok := bindParams(c)
	if !ok {
		return
	}
	f, err := p.filter()
	if err != nil {
		writeError(c, err)
		return
	}
	stat, err := p.stat(models.StatDeaths)
	if err != nil {
		writeError(c, err)
		return
	}

	m, err := query.StatByCountryTimeseries(h.ds, f, stat)
	if err != nil {
		writeError(c, err)
		return
	}
	out, err := h.indicators.For(c.Request.Context(), ind, m)
	if err != nil {
		writeError(c, err)
		return
	}
	writeMatrix(c, p, out)
}

func (h *Handler) statParams(c *gin.Context) (params, query.Filter, models.Statistic, bool) {
	p, ok := bindParams(c)
	if !ok {
		return p, query.Filter{}, "", false
	}
	f, err := p.filter()
	if err != nil {
		writeError(c, err)
		return p, f, "", false
	}
	stat, err := p.stat("")
	if err != nil {
		writeError(c, err)
		return p, f, "", false
	}
	return p, f, stat, true
}

// maybeRebase converts a monetary matrix to constant dollars when the request
// names a base year.
func (h *Handler) maybeRebase(p params, stat models.Statistic, m *table.Matrix) (*table.Matrix, error) {
	if p.BaseYear == 0 {
		return m, nil
	}
	if !stat.Monetary() {
		return nil, fmt.Errorf("%w: base_year only applies to monetary statistics, got %q", models.ErrInvalidField, stat)
	}
	if m.Empty() {
		return m, nil
	}
	return h.rebaser.RebaseMatrix(m, p.BaseYear)
}

func writeError(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, models.ErrInvalidField):
		status = http.StatusBadRequest
	case errors.Is(err, models.ErrMissingReferenceYear), errors.Is(err, models.ErrMissingISOCode):
		status = http.StatusUnprocessableEntity
	case errors.Is(err, models.ErrExternalFetch):
		status = http.StatusBadGateway
	}

	if status >= http.StatusInternalServerError {
		slog.Error("request failed", "path", c.FullPath(), "request_id", c.GetString(requestIDKey), "error", err)
	}
	c.AbortWithStatusJSON(status, gin.H{
		"error": err.Error(),
	})
}
