package publish_event

import (
	"context"

	"github.com/m04kA/SMC-SalonCalendar/internal/events"
)

type EventPublisher interface {
	Publish(ctx context.Context, evt events.Event) error
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
