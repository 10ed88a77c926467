package close_day_view

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SalonCalendar/internal/api/handlers"
	"github.com/m04kA/SMC-SalonCalendar/internal/service/sessions"
)

const (
	msgSessionNotFound = "сессия не найдена или закрыта"
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

// Handle DELETE /api/v1/day-views/{sessionId}
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	if err := h.registry.Close(sessionID); err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			h.logger.Warn("DELETE /day-views/{id} - Session not found: session_id=%s", sessionID)
			handlers.RespondNotFound(w, msgSessionNotFound)
			return
		}
		h.logger.Error("DELETE /day-views/{id} - Failed to close session: session_id=%s, error=%v", sessionID, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("DELETE /day-views/{id} - Session closed: session_id=%s", sessionID)
	handlers.RespondNoContent(w)
}
