package indicators

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/mr1hm/emdat-stats/internal/worker"
)

const DefaultBatchSize = 20

type batch struct {
	ind  Indicator
	isos []string
}

// Prefetcher warms a cached Fetcher for a set of countries, one batch of ISO
// codes per job.
type Prefetcher struct {
	fetcher    Fetcher
	iso        *ISOTable
	workers    int
	bufferSize int
	batchSize  int
}

func NewPrefetcher(fetcher Fetcher, iso *ISOTable, workers, bufferSize, batchSize int) *Prefetcher {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Prefetcher{
		fetcher:    fetcher,
		iso:        iso,
		workers:    workers,
		bufferSize: bufferSize,
		batchSize:  batchSize,
	}
}

// Run fetches every indicator in inds for countries over fromYear..toYear.
// Countries without an ISO code are skipped and reported in the returned
// error alongside failed batches.
func (p *Prefetcher) Run(ctx context.Context, inds []Indicator, countries []string, fromYear, toYear int) error {
	var errs []error
	var isos []string
	for _, c := range countries {
		iso, err := p.iso.Code(c)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		isos = append(isos, iso)
	}
	isos = normalize(isos)
	sort.Strings(isos)

	pool := worker.New(p.workers, p.bufferSize, func(ctx context.Context, b batch) error {
		if _, err := p.fetcher.Fetch(ctx, b.ind, b.isos, fromYear, toYear); err != nil {
			return fmt.Errorf("prefetching %s for %v: %w", b.ind.Name, b.isos, err)
		}
		slog.Info("prefetched indicator batch", "indicator", b.ind.Name, "countries", len(b.isos))
		return nil
	})
	pool.Start(ctx)

	jobs := 0
submit:
	for _, ind := range inds {
		for i := 0; i < len(isos); i += p.batchSize {
			end := min(i+p.batchSize, len(isos))
			if err := pool.Submit(ctx, batch{ind: ind, isos: isos[i:end]}); err != nil {
				errs = append(errs, err)
				break submit
			}
			jobs++
		}
	}

	if err := pool.Stop(); err != nil {
		errs = append(errs, err)
	}
	slog.Info("prefetch finished", "indicators", len(inds), "countries", len(isos), "jobs", jobs, "from", fromYear, "to", toYear)
	return errors.Join(errs...)
}
