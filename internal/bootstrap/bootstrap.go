package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/kirillkom/compliance-navigator/internal/config"
	"github.com/kirillkom/compliance-navigator/internal/core/analysis"
	"github.com/kirillkom/compliance-navigator/internal/core/ports"
	"github.com/kirillkom/compliance-navigator/internal/core/usecase"
	rediscache "github.com/kirillkom/compliance-navigator/internal/infrastructure/cache/redis"
	"github.com/kirillkom/compliance-navigator/internal/infrastructure/extractor/pdftext"
	"github.com/kirillkom/compliance-navigator/internal/infrastructure/inbox"
	"github.com/kirillkom/compliance-navigator/internal/infrastructure/language"
	"github.com/kirillkom/compliance-navigator/internal/infrastructure/llm/ollama"
	"github.com/kirillkom/compliance-navigator/internal/infrastructure/ocr/tesseract"
	"github.com/kirillkom/compliance-navigator/internal/infrastructure/queue/nats"
	"github.com/kirillkom/compliance-navigator/internal/infrastructure/report/xlsx"
	"github.com/kirillkom/compliance-navigator/internal/infrastructure/repository/postgres"
	"github.com/kirillkom/compliance-navigator/internal/infrastructure/resilience"
	"github.com/kirillkom/compliance-navigator/internal/observability/metrics"
)

// API holds everything the HTTP process serves.
type API struct {
	Config config.Config
	Logger *slog.Logger

	Analyzer ports.DocumentAnalyzer
	Chat     ports.DocumentChat
	Agent    ports.AgentRouter
	Renderer ports.ComplianceReportRenderer
	Metrics  *metrics.HTTPServerMetrics

	ModelName  string
	ModelCheck ports.HealthChecker
	// CacheCheck is nil when the extraction cache is disabled.
	CacheCheck ports.HealthChecker

	closeFn func()
}

func NewAPI(ctx context.Context, cfg config.Config, logger *slog.Logger) (*API, error) {
	profiles, err := loadSamplingProfiles(cfg.HandlerProfilesPath)
	if err != nil {
		return nil, err
	}

	httpMetrics := metrics.NewHTTPServerMetrics("api")
	executor := newExecutor(logger, func(operation string, _, to gobreaker.State) {
		httpMetrics.SetBreakerState(operation, int(to))
	})
	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ClientName:         "compliance-api",
		ResilienceExecutor: executor,
		Logger:             logger,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	analyzer, cache, closeCache := newBatchAnalyzer(ctx, cfg, logger, httpMetrics, queue)

	generator := ollama.New(
		cfg.OllamaURL,
		cfg.OllamaGenModel,
		time.Duration(cfg.OllamaTimeoutSeconds)*time.Second,
		executor,
		logger,
	)
	intents := usecase.NewIntentClassifier(generator, profiles.Get(usecase.HandlerIntent), logger)
	agent := usecase.NewRouter(intents, generator, language.NewManual(),
		usecase.WithSamplingProfiles(profiles),
		usecase.WithRouterObserver(httpMetrics),
		usecase.WithRouterLogger(logger),
	)

	api := &API{
		Config:     cfg,
		Logger:     logger,
		Analyzer:   analyzer,
		Chat:       usecase.NewDocumentChatUseCase(analyzer, agent),
		Agent:      agent,
		Renderer:   xlsx.New(logger),
		Metrics:    httpMetrics,
		ModelName:  cfg.OllamaGenModel,
		ModelCheck: generator,
		closeFn: func() {
			queue.Close()
			closeCache()
		},
	}
	if cache != nil {
		api.CacheCheck = cache
	}
	return api, nil
}

func (a *API) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// Worker holds the event consumer and, when an inbox directory is
// configured, the directory watcher feeding the batch analyzer.
type Worker struct {
	Config config.Config
	Logger *slog.Logger

	Subscriber ports.EventSubscriber
	Repo       ports.AnalysisRepository
	Metrics    *metrics.WorkerMetrics

	Inbox    *inbox.Watcher
	Analyzer ports.DocumentAnalyzer

	closeFn func()
}

func NewWorker(ctx context.Context, cfg config.Config, logger *slog.Logger) (*Worker, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	repo := postgres.NewAnalysisRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ensure schema: %w", err)
	}

	queue, err := nats.New(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ClientName:         "compliance-worker",
		QueueGroup:         cfg.NATSQueueGroup,
		ResilienceExecutor: newExecutor(logger, nil),
		Logger:             logger,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	w := &Worker{
		Config:     cfg,
		Logger:     logger,
		Subscriber: queue,
		Repo:       repo,
		Metrics:    metrics.NewWorkerMetrics("worker"),
	}

	closeCache := func() {}
	if cfg.InboxDir != "" {
		var analyzer *usecase.BatchAnalyzer
		analyzer, _, closeCache = newBatchAnalyzer(ctx, cfg, logger, nil, queue)
		w.Analyzer = analyzer
		w.Inbox = inbox.New(cfg.InboxDir,
			inbox.WithMaxBytes(cfg.UploadMaxFileBytes),
			inbox.WithLogger(logger),
		)
	}

	w.closeFn = func() {
		queue.Close()
		closeCache()
		_ = db.Close()
	}
	return w, nil
}

func (w *Worker) Close() {
	if w.closeFn != nil {
		w.closeFn()
	}
}

// newBatchAnalyzer assembles extraction and analysis. The Redis cache is
// optional: an unreachable server only disables caching, and the returned
// cache is nil.
func newBatchAnalyzer(
	ctx context.Context,
	cfg config.Config,
	logger *slog.Logger,
	observer ports.PipelineObserver,
	publisher ports.EventPublisher,
) (*usecase.BatchAnalyzer, *rediscache.ExtractionCache, func()) {
	ocr := tesseract.New(tesseract.Config{
		Tesseract: cfg.TesseractPath,
		Pdftoppm:  cfg.PdftoppmPath,
		Lang:      cfg.OCRLang,
		DPI:       cfg.OCRDPI,
		MaxPages:  cfg.OCRMaxPages,
	}, logger)

	extractorOpts := []usecase.ExtractorOption{
		usecase.WithFileTimeout(time.Duration(cfg.FileExtractTimeoutSeconds) * time.Second),
		usecase.WithExtractorLogger(logger),
	}
	batchOpts := []usecase.BatchOption{
		usecase.WithEventPublisher(publisher),
		usecase.WithConcurrency(cfg.ExtractConcurrency),
		usecase.WithBatchLogger(logger),
	}
	if observer != nil {
		extractorOpts = append(extractorOpts, usecase.WithExtractorObserver(observer))
		batchOpts = append(batchOpts, usecase.WithBatchObserver(observer))
	}

	var cache *rediscache.ExtractionCache
	closeCache := func() {}
	if cfg.RedisAddr != "" {
		client, err := rediscache.Open(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			logger.Warn("extract.cache.disabled", "addr", cfg.RedisAddr, "error", err)
		} else {
			cache = rediscache.NewExtractionCache(client,
				rediscache.WithTTL(time.Duration(cfg.ExtractCacheTTLSeconds)*time.Second),
			)
			extractorOpts = append(extractorOpts, usecase.WithExtractionCache(cache))
			closeCache = func() { _ = client.Close() }
		}
	}

	extractor := usecase.NewExtractor(ocr, pdftext.New(logger), extractorOpts...)
	return usecase.NewBatchAnalyzer(extractor, analysis.NewEngine(), batchOpts...), cache, closeCache
}

func newExecutor(logger *slog.Logger, observer resilience.StateObserver) *resilience.Executor {
	return resilience.NewExecutor(
		resilience.DefaultConfig(),
		resilience.WithLogger(logger),
		resilience.WithStateObserver(observer),
	)
}

func loadSamplingProfiles(path string) (usecase.SamplingProfiles, error) {
	raw, err := config.LoadHandlerProfiles(path)
	if err != nil {
		return nil, fmt.Errorf("load handler profiles: %w", err)
	}
	profiles := make(usecase.SamplingProfiles, len(raw))
	for name, p := range raw {
		profiles[name] = usecase.SamplingProfile{Temperature: p.Temperature, MaxTokens: p.MaxTokens}
	}
	return profiles, nil
}
