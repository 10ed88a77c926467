package create_day_view

import (
	"net/http"

	"github.com/m04kA/SMC-SalonCalendar/internal/api/handlers"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
)

type Handler struct {
	registry SessionRegistry
	logger   Logger
}

func NewHandler(registry SessionRegistry, logger Logger) *Handler {
	return &Handler{
		registry: registry,
		logger:   logger,
	}
}

// Handle POST /api/v1/day-views
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CreateDayViewRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /day-views - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	initial, err := req.InitialDate()
	if err != nil {
		h.logger.Warn("POST /day-views - Invalid date: %v", err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	session, err := h.registry.Create(initial)
	if err != nil {
		h.logger.Error("POST /day-views - Failed to create session: %v", err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /day-views - Session created: session_id=%s", session.ID)
	handlers.RespondJSON(w, http.StatusCreated, handlers.FromView(session.ID, session.View.View()))
}
