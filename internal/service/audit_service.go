package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/auth-service/internal/events"
	"github.com/spec-kit/auth-service/internal/observability"
)

// EventPublisher forwards audit events to an external sink.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

// AuditService records auth activity: it logs each event, counts it and
// forwards it to the configured publisher.
type AuditService struct {
	dispatcher events.Dispatcher
	publisher  EventPublisher
	metrics    *observability.Metrics
	logger     *zap.Logger
}

// NewAuditService creates the service. publisher and metrics may be nil.
func NewAuditService(dispatcher events.Dispatcher, publisher EventPublisher, metrics *observability.Metrics, logger *zap.Logger) *AuditService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &AuditService{
		dispatcher: dispatcher,
		publisher:  publisher,
		metrics:    metrics,
		logger:     logger,
	}
}

// RegisterHandlers subscribes to every audit event.
func (a *AuditService) RegisterHandlers() {
	if a.dispatcher == nil {
		return
	}
	a.dispatcher.SubscribeAll(a.handle)
}

func (a *AuditService) handle(ctx context.Context, event events.Event) error {
	level := zap.InfoLevel
	if event.Type == events.EventLoginFailed {
		level = zap.WarnLevel
	}
	if ce := a.logger.Check(level, "audit"); ce != nil {
		ce.Write(
			zap.String("event_id", event.ID),
			zap.String("event_type", string(event.Type)),
			zap.String("subject", event.Subject),
			zap.String("actor", event.Actor),
			zap.Time("timestamp", event.Timestamp),
			zap.Any("payload", event.Payload),
		)
	}
	a.metrics.RecordAuthEvent(string(event.Type))

	if a.publisher == nil {
		return nil
	}
	// Fan-out failures are reported to the dispatcher but never reach the caller.
	if err := a.publisher.Publish(ctx, event); err != nil {
		a.logger.Debug("audit publish failed", zap.String("event_type", string(event.Type)), zap.Error(err))
		return err
	}
	return nil
}
