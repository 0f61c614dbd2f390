package service

import (
	"context"

	"warden/internal/middleware"
	"warden/internal/notifications"
)

// publishEvent sends a lifecycle event best-effort: a dead event stream never
// fails the moderation action itself. Failures are logged and dropped.
func publishEvent(ctx context.Context, n *notifications.Notifier, event notifications.Event) {
	if n == nil {
		return
	}
	if err := n.Publish(ctx, event); err != nil {
		middleware.Logger.WarnContext(ctx, "Failed to publish moderation event",
			"event_type", event.Type, "ban_id", event.BanID, "error", err)
	}
}
