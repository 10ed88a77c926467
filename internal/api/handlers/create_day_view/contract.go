package create_day_view

import (
	"github.com/m04kA/SMC-SalonCalendar/internal/service/sessions"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

type SessionRegistry interface {
	Create(initial types.Date) (*sessions.Session, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
