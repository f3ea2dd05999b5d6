package worker

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/school-auth/internal/events"
)

// StartAuditWorker subscribes an audit-log handler for every auth event.
// Denied requests are logged at warn so they stand out in aggregation.
func StartAuditWorker(dispatcher events.Dispatcher, logger *zap.Logger) {
	if dispatcher == nil {
		return
	}

	audit := logger.Named("audit")
	dispatcher.SubscribeAll(func(_ context.Context, event events.Event) error {
		fields := []zap.Field{
			zap.String("event_id", event.ID),
			zap.String("subject", event.Subject),
			zap.Time("at", event.Timestamp),
			zap.Any("payload", event.Payload),
		}
		if event.Type == events.EventAuthDenied {
			audit.Warn(string(event.Type), fields...)
		} else {
			audit.Info(string(event.Type), fields...)
		}
		return nil
	})
}
