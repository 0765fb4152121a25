package logging

import (
	"log/slog"
	"os"
)

// Init configures the global slog logger.
// In production (IS_DEV unset or false) it uses JSON output for log
// aggregation. In development it uses the human-readable text handler.
func Init(isDev bool) {
	var handler slog.Handler
	if isDev {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})
	} else {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
			Level: slog.LevelInfo,
		})
	}

	slog.SetDefault(slog.New(handler))
}

// WithUser returns a logger with the user identifier attached.
// Use this for all logging on user-scoped request paths.
func WithUser(userID string) *slog.Logger {
	return slog.With("user_id", userID)
}

// WithWebhookEvent returns a logger scoped to one webhook delivery.
func WithWebhookEvent(eventID string) *slog.Logger {
	return slog.With("webhook_event_id", eventID)
}
