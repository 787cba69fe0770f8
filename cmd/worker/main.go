package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kirillkom/compliance-navigator/internal/bootstrap"
	"github.com/kirillkom/compliance-navigator/internal/config"
	"github.com/kirillkom/compliance-navigator/internal/core/domain"
	"github.com/kirillkom/compliance-navigator/internal/observability/logging"
)

const (
	serviceName  = "worker"
	inboxSource  = "inbox"
	eventTimeout = 30 * time.Second
)

func main() {
	cfg := config.Load()
	logger := logging.NewJSONLogger(serviceName, cfg.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app, err := bootstrap.NewWorker(ctx, cfg, logger)
	if err != nil {
		logger.Error("bootstrap error", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	metricsServer := &http.Server{
		Addr:              ":" + cfg.WorkerMetricsPort,
		Handler:           app.Metrics.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("worker metrics listening", "port", cfg.WorkerMetricsPort)
		if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return metricsServer.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		logger.Info("worker subscribed", "subject", cfg.NATSSubject, "group", cfg.NATSQueueGroup)
		return app.Subscriber.SubscribeDocumentsAnalyzed(gctx, func(handlerCtx context.Context, event domain.DocumentsAnalyzedEvent) error {
			return persistEvent(handlerCtx, app, event)
		})
	})
	if app.Inbox != nil {
		g.Go(func() error {
			return watchInbox(gctx, app)
		})
	}

	if err := g.Wait(); err != nil {
		logger.Error("worker stopped", "error", err)
		os.Exit(1)
	}
}

func persistEvent(ctx context.Context, app *bootstrap.Worker, event domain.DocumentsAnalyzedEvent) error {
	start := time.Now()
	app.Metrics.StartEvent()
	if !event.OccurredAt.IsZero() {
		app.Metrics.ObserveEventLag(serviceName, start.Sub(event.OccurredAt))
	}

	saveCtx, cancel := context.WithTimeout(ctx, eventTimeout)
	defer cancel()
	err := app.Repo.SaveBatch(saveCtx, event)
	app.Metrics.FinishEvent(serviceName, time.Since(start), err)
	if err != nil {
		return err
	}

	app.Logger.Info("worker.batch.saved",
		"batch_id", event.BatchID,
		"source", event.Source,
		"documents", len(event.Documents),
		"compliance_score", event.ComplianceScore,
	)
	return nil
}

// watchInbox analyzes each file dropped into the inbox as a batch of one.
// The analyzer publishes the result, so it is persisted through the same
// event path as API uploads.
func watchInbox(ctx context.Context, app *bootstrap.Worker) error {
	files, err := app.Inbox.Watch(ctx)
	if err != nil {
		return err
	}
	app.Logger.Info("worker inbox watching", "dir", app.Config.InboxDir)

	for file := range files {
		batch := app.Analyzer.AnalyzeFiles(ctx, inboxSource, []domain.UploadedFile{file})
		for _, result := range batch.Results {
			app.Metrics.RecordInboxFile(serviceName, result.Success)
		}
	}
	return nil
}
