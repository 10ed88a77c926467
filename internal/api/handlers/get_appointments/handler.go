package get_appointments

import (
	"net/http"

	"github.com/m04kA/SMC-SalonCalendar/internal/api/handlers"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

const (
	msgMissingDate = "требуется параметр date"
	msgInvalidDate = "некорректный формат даты, ожидается YYYY-MM-DD"
)

type Handler struct {
	repo   AppointmentRepository
	logger Logger
}

func NewHandler(repo AppointmentRepository, logger Logger) *Handler {
	return &Handler{
		repo:   repo,
		logger: logger,
	}
}

// Handle GET /api/v1/appointments?date=2024-03-10
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	dateStr := r.URL.Query().Get("date")
	if dateStr == "" {
		h.logger.Warn("GET /appointments - Missing date")
		handlers.RespondBadRequest(w, msgMissingDate)
		return
	}

	day, err := types.ParseDate(dateStr)
	if err != nil {
		h.logger.Warn("GET /appointments - Invalid date: %q", dateStr)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	appointments, err := h.repo.GetByDate(r.Context(), day)
	if err != nil {
		h.logger.Error("GET /appointments - Failed to get appointments: date=%s, error=%v", day.Key(), err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("GET /appointments - Appointments retrieved: date=%s, count=%d", day.Key(), len(appointments))
	handlers.RespondJSON(w, http.StatusOK, handlers.FromDomainAppointments(appointments))
}
