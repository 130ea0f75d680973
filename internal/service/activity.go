package service

import (
	"context"
	"log/slog"
	"time"

	"atelier/internal/notifications"
	"atelier/internal/observability"
)

// recordActivity publishes ev to the admin feed. Feed failures are logged and
// never fail the operation that produced the event.
func recordActivity(ctx context.Context, n *notifications.Notifier, ev notifications.ActivityEvent) {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	if err := n.PublishActivity(ctx, ev); err != nil {
		observability.GlobalLogger.WarnContext(ctx, "failed to record activity",
			slog.String("type", ev.Type),
			slog.String("error", err.Error()))
	}
}
