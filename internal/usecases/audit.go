package usecases

import (
	"context"
	"time"

	"go.uber.org/zap"

	"chatdagang/internal/entities"
)

type AuditStore interface {
	Insert(ctx context.Context, rec *entities.MessageLog) error
}

// EventSink is the optional fan-out target for audit events (AMQP in prod).
type EventSink interface {
	Publish(ctx context.Context, key string, payload any, correlationID string) error
}

// AuditLogger appends transcript records. It is non-blocking with respect to
// the turn: storage and fan-out failures are logged and swallowed, never
// propagated or retried.
type AuditLogger struct {
	store  AuditStore
	events EventSink // nil when fan-out is disabled
	log    *zap.Logger
}

func NewAuditLogger(store AuditStore, events EventSink, log *zap.Logger) *AuditLogger {
	return &AuditLogger{store: store, events: events, log: log.Named("audit")}
}

func (a *AuditLogger) Record(ctx context.Context, rec entities.MessageLog) {
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}

	if err := a.store.Insert(ctx, &rec); err != nil {
		a.log.Warn("transcript insert failed",
			zap.String("correlation_id", rec.CorrelationID),
			zap.String("direction", string(rec.Direction)),
			zap.Error(err))
	}

	if a.events != nil {
		key := "audit." + string(rec.Direction) + "." + string(rec.Channel)
		if err := a.events.Publish(ctx, key, rec, rec.CorrelationID); err != nil {
			a.log.Warn("audit fan-out failed", zap.String("key", key), zap.Error(err))
		}
	}
}
