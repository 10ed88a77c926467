package dayview

import (
	"time"

	"github.com/m04kA/SMC-SalonCalendar/internal/events"
	"github.com/m04kA/SMC-SalonCalendar/internal/service/dayloader"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

// Loader загрузчик записей дня, которым управляет координатор
type Loader interface {
	// Load запрашивает день асинхронно, повторный запрос того же дня ничего не делает
	Load(day types.Date)
	// Reload повторяет запрос текущего дня
	Reload()
	State() dayloader.State
	Subscribe(listener func()) (unsubscribe func())
	Close()
}

// EventSource источник событий приложения
type EventSource interface {
	Subscribe(t events.Type, handler events.Handler) (unsubscribe func())
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
