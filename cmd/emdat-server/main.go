package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"

	"github.com/mr1hm/emdat-stats/internal/api"
	"github.com/mr1hm/emdat-stats/internal/config"
	"github.com/mr1hm/emdat-stats/internal/cpi"
	"github.com/mr1hm/emdat-stats/internal/dataset"
	"github.com/mr1hm/emdat-stats/internal/indicators"
	"github.com/mr1hm/emdat-stats/internal/logging"
	"github.com/mr1hm/emdat-stats/internal/repository"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		logging.Fatalf("Fatal while loading config: %v", err)
	}
	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)

	slog.Info("Server starting", "host", cfg.Server.Host, "port", cfg.Server.Port, "data_dir", cfg.Data.Dir)

	ds, err := dataset.Load(cfg.Data.EMDATPath())
	if err != nil {
		logging.Fatalf("Failed to load dataset: %v", err)
	}

	cpiTable, err := cpi.LoadTable(cfg.Data.CPIPath())
	if err != nil {
		logging.Fatalf("Failed to load CPI table: %v", err)
	}
	rebaser := cpi.NewRebaser(cpiTable)

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
	svc := indicators.NewService(fetcher, isoTable)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prefetchDone := make(chan struct{})
	if cfg.Indicators.PrefetchOnStart {
		go func() {
			defer close(prefetchDone)
			first, last := ds.YearRange()
			p := indicators.NewPrefetcher(fetcher, isoTable, cfg.Worker.Count, cfg.Worker.BufferSize, cfg.Indicators.BatchSize)
			if err := p.Run(ctx, indicators.Known, ds.Countries(), first, last); err != nil {
				slog.Warn("prefetch incomplete", "error", err)
			}
		}()
	} else {
		close(prefetchDone)
	}

	handler := api.NewHandler(ds, rebaser, svc, cfg.Query.BaseYear)
	router := newRouter(cfg.Server, handler)

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler: router,
	}

	go func() {
		slog.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logging.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("shutting down...")

	cancel()
	<-prefetchDone

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		slog.Error("server shutdown error", "error", err)
	}

	slog.Info("shutdown complete")
}

func newRouter(cfg config.ServerConfig, handler *api.Handler) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(api.RequestIDMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  cfg.AllowOrigins,
		AllowMethods:  []string{"GET", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
	}))
	router.Use(api.RateLimitMiddleware(cfg.RateLimit))

	handler.RegisterRoutes(router)
	return router
}
