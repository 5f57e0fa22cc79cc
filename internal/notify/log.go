package notify

import (
	"context"
	"log/slog"
)

// LogPublisher writes events to the process log. It is the default when no
// Kafka brokers are configured, and doubles as a test sink.
type LogPublisher struct {
	logger *slog.Logger
}

// NewLogPublisher constructs a log-backed publisher.
func NewLogPublisher(logger *slog.Logger) *LogPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogPublisher{logger: logger}
}

// Publish logs the event.
func (p *LogPublisher) Publish(ctx context.Context, event Event) {
	p.logger.InfoContext(ctx, "notification event",
		"type", event.Type,
		"activity_id", event.ActivityID,
		"user_id", event.UserID,
		"detail", event.Detail,
	)
}
