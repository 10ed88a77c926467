package get_appointments

import (
	"context"

	"github.com/m04kA/SMC-SalonCalendar/internal/domain"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

type AppointmentRepository interface {
	GetByDate(ctx context.Context, day types.Date) ([]*domain.Appointment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
