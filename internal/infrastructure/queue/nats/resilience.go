package nats

import (
	"context"
	"errors"

	"github.com/nats-io/nats.go"

	"github.com/kirillkom/compliance-navigator/internal/core/domain"
	"github.com/kirillkom/compliance-navigator/internal/infrastructure/resilience"
)

// transientPublishErrors clear up once the client reconnects.
var transientPublishErrors = []error{
	nats.ErrNoServers,
	nats.ErrTimeout,
	nats.ErrConnectionClosed,
	nats.ErrConnectionReconnecting,
	nats.ErrDisconnected,
}

func classifyNATSError(err error) resilience.ErrorClassification {
	switch {
	case err == nil:
		return resilience.ErrorClassification{}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return resilience.ErrorClassification{}
	case resilience.IsCircuitOpen(err):
		// The breaker already counted the failures that opened it.
		return resilience.ErrorClassification{Retryable: true}
	case errors.Is(err, nats.ErrMaxPayload), domain.IsKind(err, domain.ErrInvalidInput):
		// Oversized or unencodable events are not broker failures.
		return resilience.ErrorClassification{}
	}
	for _, transient := range transientPublishErrors {
		if errors.Is(err, transient) {
			return resilience.ErrorClassification{Retryable: true, RecordFailure: true}
		}
	}
	return resilience.ErrorClassification{RecordFailure: true}
}

// wrapTemporaryIfNeeded marks broker outages as domain.ErrTemporary so
// callers can tell them apart from bad events.
func wrapTemporaryIfNeeded(err error) error {
	if err == nil || domain.IsKind(err, domain.ErrTemporary) {
		return err
	}
	if classifyNATSError(err).Retryable {
		return domain.WrapError(domain.ErrTemporary, "publish documents.analyzed", err)
	}
	return err
}
