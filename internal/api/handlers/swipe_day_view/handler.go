package swipe_day_view

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SalonCalendar/internal/api/handlers"
	"github.com/m04kA/SMC-SalonCalendar/internal/service/sessions"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgMissingCoordinates = "требуются startX и endX"
	msgSessionNotFound    = "сессия не найдена или закрыта"
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

// Handle POST /api/v1/day-views/{sessionId}/swipe
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req SwipeRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /day-views/{id}/swipe - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}
	if req.StartX == nil || req.EndX == nil {
		h.logger.Warn("POST /day-views/{id}/swipe - Missing coordinates: session_id=%s", sessionID)
		handlers.RespondBadRequest(w, msgMissingCoordinates)
		return
	}

	session, err := h.registry.Get(sessionID)
	if err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			h.logger.Warn("POST /day-views/{id}/swipe - Session not found: session_id=%s", sessionID)
			handlers.RespondNotFound(w, msgSessionNotFound)
			return
		}
		h.logger.Error("POST /day-views/{id}/swipe - Failed to get session: session_id=%s, error=%v", sessionID, err)
		handlers.RespondInternalError(w)
		return
	}

	session.View.Swipe(*req.StartX, *req.EndX)

	h.logger.Info("POST /day-views/{id}/swipe - Swipe handled: session_id=%s, delta=%.0f, day=%s",
		sessionID, *req.EndX-*req.StartX, session.View.SelectedDate().Key())
	handlers.RespondJSON(w, http.StatusOK, handlers.FromView(session.ID, session.View.View()))
}
