package swipe_day_view

import (
	"github.com/m04kA/SMC-SalonCalendar/internal/service/sessions"
)

type SessionRegistry interface {
	Get(id string) (*sessions.Session, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}
