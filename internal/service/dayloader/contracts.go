package dayloader

import (
	"context"

	"github.com/m04kA/SMC-SalonCalendar/internal/domain"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

// AppointmentRepository интерфейс репозитория записей
type AppointmentRepository interface {
	GetByDate(ctx context.Context, day types.Date) ([]*domain.Appointment, error)
}

// Fetcher источник записей дня для загрузчика
type Fetcher interface {
	Fetch(ctx context.Context, day types.Date) ([]*domain.Appointment, error)
}

// Collector приемник метрик загрузок
type Collector interface {
	IncDayLoad(result string)
}

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
