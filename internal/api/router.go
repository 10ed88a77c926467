package api

import (
	"context"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	closeDayViewHandler "github.com/m04kA/SMC-SalonCalendar/internal/api/handlers/close_day_view"
	createDayViewHandler "github.com/m04kA/SMC-SalonCalendar/internal/api/handlers/create_day_view"
	getAppointmentsHandler "github.com/m04kA/SMC-SalonCalendar/internal/api/handlers/get_appointments"
	getDayViewHandler "github.com/m04kA/SMC-SalonCalendar/internal/api/handlers/get_day_view"
	navigateDayViewHandler "github.com/m04kA/SMC-SalonCalendar/internal/api/handlers/navigate_day_view"
	publishEventHandler "github.com/m04kA/SMC-SalonCalendar/internal/api/handlers/publish_event"
	streamDayViewHandler "github.com/m04kA/SMC-SalonCalendar/internal/api/handlers/stream_day_view"
	swipeDayViewHandler "github.com/m04kA/SMC-SalonCalendar/internal/api/handlers/swipe_day_view"
	updateOverlayHandler "github.com/m04kA/SMC-SalonCalendar/internal/api/handlers/update_overlay"
	"github.com/m04kA/SMC-SalonCalendar/internal/api/middleware"
	"github.com/m04kA/SMC-SalonCalendar/internal/domain"
	"github.com/m04kA/SMC-SalonCalendar/internal/events"
	"github.com/m04kA/SMC-SalonCalendar/internal/service/sessions"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

// SessionRegistry реестр сессий дневного представления
type SessionRegistry interface {
	Create(initial types.Date) (*sessions.Session, error)
	Get(id string) (*sessions.Session, error)
	Close(id string) error
}

type EventPublisher interface {
	Publish(ctx context.Context, evt events.Event) error
}

type AppointmentRepository interface {
	GetByDate(ctx context.Context, day types.Date) ([]*domain.Appointment, error)
}

type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Dependencies зависимости HTTP слоя.
// Metrics == nil отключает HTTP метрики и endpoint prometheus.
type Dependencies struct {
	Sessions     SessionRegistry
	Events       EventPublisher
	Appointments AppointmentRepository
	Metrics      middleware.HTTPCollector
	MetricsPath  string
	Logger       Logger
}

// NewRouter собирает маршруты сервиса
func NewRouter(deps Dependencies) *mux.Router {
	log := deps.Logger

	createDayView := createDayViewHandler.NewHandler(deps.Sessions, log)
	getDayView := getDayViewHandler.NewHandler(deps.Sessions, log)
	closeDayView := closeDayViewHandler.NewHandler(deps.Sessions, log)
	navigateDayView := navigateDayViewHandler.NewHandler(deps.Sessions, log)
	swipeDayView := swipeDayViewHandler.NewHandler(deps.Sessions, log)
	updateOverlay := updateOverlayHandler.NewHandler(deps.Sessions, log)
	streamDayView := streamDayViewHandler.NewHandler(deps.Sessions, log)
	publishEvent := publishEventHandler.NewHandler(deps.Events, log)
	getAppointments := getAppointmentsHandler.NewHandler(deps.Appointments, log)

	r := mux.NewRouter()
	r.Use(middleware.AccessLog(log))

	if deps.Metrics != nil {
		r.Use(middleware.MetricsMiddleware(deps.Metrics))
		if deps.MetricsPath != "" {
			r.Handle(deps.MetricsPath, promhttp.Handler()).Methods(http.MethodGet)
		}
	}

	api := r.PathPrefix("/api/v1").Subrouter()

	// --- Сессии дневного представления ---
	api.HandleFunc("/day-views", createDayView.Handle).Methods(http.MethodPost)
	api.HandleFunc("/day-views/{sessionId}", getDayView.Handle).Methods(http.MethodGet)
	api.HandleFunc("/day-views/{sessionId}", closeDayView.Handle).Methods(http.MethodDelete)

	// Навигация по дням, свайп и окна поверх дня
	api.HandleFunc("/day-views/{sessionId}/navigation", navigateDayView.Handle).Methods(http.MethodPost)
	api.HandleFunc("/day-views/{sessionId}/swipe", swipeDayView.Handle).Methods(http.MethodPost)
	api.HandleFunc("/day-views/{sessionId}/overlay", updateOverlay.Handle).Methods(http.MethodPost)

	// Поток состояний (websocket)
	api.HandleFunc("/day-views/{sessionId}/stream", streamDayView.Handle).Methods(http.MethodGet)

	// --- События приложения ---
	api.HandleFunc("/events", publishEvent.Handle).Methods(http.MethodPost)

	// --- Записи дня ---
	api.HandleFunc("/appointments", getAppointments.Handle).Methods(http.MethodGet)

	return r
}
