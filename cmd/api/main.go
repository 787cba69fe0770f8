package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	httpadapter "github.com/kirillkom/compliance-navigator/internal/adapters/http"
	"github.com/kirillkom/compliance-navigator/internal/bootstrap"
	"github.com/kirillkom/compliance-navigator/internal/config"
	"github.com/kirillkom/compliance-navigator/internal/observability/logging"
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger("api", cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewAPI(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	opts := []httpadapter.RouterOption{
		httpadapter.WithMetrics(app.Metrics),
		httpadapter.WithLogger(logger),
		httpadapter.WithModelStatus(app.ModelName, app.ModelCheck),
	}
	if app.CacheCheck != nil {
		opts = append(opts, httpadapter.WithCacheStatus(app.CacheCheck))
	}
	router := httpadapter.NewRouter(cfg, app.Analyzer, app.Chat, app.Agent, app.Renderer, opts...).Handler()
	server := &http.Server{
		Addr:              ":" + cfg.APIPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       60 * time.Second,
		WriteTimeout:      5 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		logger.Info("api listening", "port", cfg.APIPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api server error", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("api shutdown error", "error", err)
	}
}
