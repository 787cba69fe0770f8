package nats

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
	"github.com/kirillkom/compliance-navigator/internal/infrastructure/resilience"
	"github.com/nats-io/nats.go"
)

// Queue carries documents.analyzed events between the API and the worker.
type Queue struct {
	conn     *nats.Conn
	subject  string
	group    string
	executor *resilience.Executor
	logger   *slog.Logger
}

type Options struct {
	ClientName           string
	QueueGroup           string
	ConnectTimeout       time.Duration
	ReconnectWait        time.Duration
	MaxReconnects        int
	RetryOnFailedConnect *bool
	ResilienceExecutor   *resilience.Executor
	Logger               *slog.Logger
}

func New(url, subject string, options Options) (*Queue, error) {
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clientName := options.ClientName
	if clientName == "" {
		clientName = "compliance-navigator"
	}
	group := options.QueueGroup
	if group == "" {
		group = "analysis-workers"
	}
	connectTimeout := options.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = 2 * time.Second
	}
	reconnectWait := options.ReconnectWait
	if reconnectWait <= 0 {
		reconnectWait = 2 * time.Second
	}
	maxReconnects := options.MaxReconnects
	if maxReconnects <= 0 {
		maxReconnects = 60
	}
	retryOnFailedConnect := true
	if options.RetryOnFailedConnect != nil {
		retryOnFailedConnect = *options.RetryOnFailedConnect
	}

	conn, err := nats.Connect(
		url,
		nats.Name(clientName),
		nats.Timeout(connectTimeout),
		nats.ReconnectWait(reconnectWait),
		nats.MaxReconnects(maxReconnects),
		nats.RetryOnFailedConnect(retryOnFailedConnect),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			logger.Warn("nats.disconnected", "error", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			logger.Info("nats.reconnected", "url", nc.ConnectedUrl())
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect nats: %w", err)
	}
	return &Queue{
		conn:     conn,
		subject:  subject,
		group:    group,
		executor: options.ResilienceExecutor,
		logger:   logger,
	}, nil
}

func (q *Queue) Close() {
	if q.conn != nil {
		q.conn.Close()
	}
}

// PublishDocumentsAnalyzed implements ports.EventPublisher.
func (q *Queue) PublishDocumentsAnalyzed(ctx context.Context, event domain.DocumentsAnalyzedEvent) error {
	payload, err := encodeEvent(event)
	if err != nil {
		return err
	}

	call := func(_ context.Context) error {
		if err := q.conn.Publish(q.subject, payload); err != nil {
			return fmt.Errorf("nats publish: %w", err)
		}
		return nil
	}
	if q.executor != nil {
		err = q.executor.Execute(ctx, "nats.publish", call, classifyNATSError)
	} else {
		err = call(ctx)
	}
	return wrapTemporaryIfNeeded(err)
}

// SubscribeDocumentsAnalyzed implements ports.EventSubscriber. It blocks until
// ctx is done, then drains the subscription.
func (q *Queue) SubscribeDocumentsAnalyzed(ctx context.Context, handler func(context.Context, domain.DocumentsAnalyzedEvent) error) error {
	sub, err := q.conn.QueueSubscribe(q.subject, q.group, func(msg *nats.Msg) {
		handleMessage(ctx, q.logger, msg.Data, handler)
	})
	if err != nil {
		return fmt.Errorf("nats subscribe: %w", err)
	}
	if err := q.conn.Flush(); err != nil {
		return fmt.Errorf("nats flush: %w", err)
	}

	<-ctx.Done()
	if err := sub.Drain(); err != nil {
		return fmt.Errorf("nats drain subscription: %w", err)
	}
	if err := q.conn.FlushTimeout(5 * time.Second); err != nil {
		return fmt.Errorf("nats flush after drain: %w", err)
	}
	return nil
}

func handleMessage(ctx context.Context, logger *slog.Logger, data []byte, handler func(context.Context, domain.DocumentsAnalyzedEvent) error) {
	if ctx.Err() != nil {
		return
	}
	event, err := decodeEvent(data)
	if err != nil {
		logger.Error("nats.message.invalid", "error", err, "bytes", len(data))
		return
	}
	if err := handler(ctx, event); err != nil {
		logger.Error("nats.handler.failed", "batch_id", event.BatchID, "error", err)
	}
}

func encodeEvent(event domain.DocumentsAnalyzedEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, domain.WrapError(domain.ErrInvalidInput, "encode documents.analyzed", err)
	}
	return payload, nil
}

func decodeEvent(data []byte) (domain.DocumentsAnalyzedEvent, error) {
	var event domain.DocumentsAnalyzedEvent
	if err := json.Unmarshal(data, &event); err != nil {
		return event, domain.WrapError(domain.ErrInvalidInput, "decode documents.analyzed", err)
	}
	if event.BatchID == "" {
		return event, domain.WrapError(domain.ErrInvalidInput, "decode documents.analyzed", fmt.Errorf("missing batch_id"))
	}
	return event, nil
}
