// Command emdat-prefetch fills the indicator cache for every country in the
// dataset and exits.
package main

import (
	"context"
	"log/slog"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/mr1hm/emdat-stats/internal/config"
	"github.com/mr1hm/emdat-stats/internal/dataset"
	"github.com/mr1hm/emdat-stats/internal/indicators"
	"github.com/mr1hm/emdat-stats/internal/logging"
	"github.com/mr1hm/emdat-stats/internal/repository"
)

func main() {
	indicator := pflag.StringP("indicator", "i", "", "only prefetch this indicator (gni or population)")
	from := pflag.Int("from", 0, "first year, defaults to the earliest year in the dataset")
	to := pflag.Int("to", 0, "last year, defaults to the latest year in the dataset")
	pflag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	inds := indicators.Known
	if *indicator != "" {
		ind, err := indicators.ParseIndicator(*indicator)
		if err != nil {
			logging.Fatalf("%v", err)
		}
		inds = []indicators.Indicator{ind}
	}

	ds, err := dataset.Load(cfg.Data.EMDATPath())
	if err != nil {
		logging.Fatalf("Failed to load dataset: %v", err)
	}
	first, last := ds.YearRange()
	if *from != 0 {
		first = *from
	}
	if *to != 0 {
		last = *to
	}

	isoTable, err := indicators.LoadISOTable(cfg.Data.ISOPath())
	if err != nil {
		logging.Fatalf("Failed to load ISO table: %v", err)
	}

	db, err := repository.NewSQLiteDB(cfg.DB.Path)
	if err != nil {
		logging.Fatalf("Failed to initialize database: %v", err)
	}
	defer db.Close()

	client := indicators.NewWorldBankClient(cfg.Indicators.BaseURL, cfg.Indicators.Timeout, cfg.Indicators.PerPage)
	fetcher := indicators.NewCachedFetcher(
		indicators.NewRetryFetcher(client, cfg.Indicators.MaxRetries, 0),
		db,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("prefetch starting", "indicators", len(inds), "countries", len(ds.Countries()), "from", first, "to", last)

	p := indicators.NewPrefetcher(fetcher, isoTable, cfg.Worker.Count, cfg.Worker.BufferSize, cfg.Indicators.BatchSize)
	if err := p.Run(ctx, inds, ds.Countries(), first, last); err != nil {
		slog.Error("prefetch incomplete", "error", err)
		db.Close()
		logging.Fatalf("prefetch failed")
	}
}
