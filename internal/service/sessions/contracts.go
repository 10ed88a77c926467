package sessions

import (
	"time"

	"github.com/m04kA/SMC-SalonCalendar/internal/events"
)

// EventBus шина событий приложения
type EventBus interface {
	Subscribe(t events.Type, handler events.Handler) (unsubscribe func())
}

// Collector приемник метрик сессий и загрузок
type Collector interface {
	SetActiveSessions(n int)
	IncDayLoad(result string)
}

// TimeProvider интерфейс для получения текущего времени (для тестирования)
type TimeProvider interface {
	Now() time.Time
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// RealTimeProvider реальный провайдер времени для production
type RealTimeProvider struct{}

// Now возвращает текущее время
func (p *RealTimeProvider) Now() time.Time {
	return time.Now()
}
