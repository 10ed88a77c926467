package navigate_day_view

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SalonCalendar/internal/api/handlers"
	"github.com/m04kA/SMC-SalonCalendar/internal/service/sessions"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidAction      = "неизвестное действие, ожидается previous, next, today, date или retry"
	msgInvalidDate        = "некорректный формат даты, ожидается YYYY-MM-DD"
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

// Handle POST /api/v1/day-views/{sessionId}/navigation
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req NavigateRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /day-views/{id}/navigation - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	session, err := h.registry.Get(sessionID)
	if err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			h.logger.Warn("POST /day-views/{id}/navigation - Session not found: session_id=%s", sessionID)
			handlers.RespondNotFound(w, msgSessionNotFound)
			return
		}
		h.logger.Error("POST /day-views/{id}/navigation - Failed to get session: session_id=%s, error=%v", sessionID, err)
		handlers.RespondInternalError(w)
		return
	}

	view := session.View
	switch req.Action {
	case ActionPrevious:
		view.GoToPreviousDay()
	case ActionNext:
		view.GoToNextDay()
	case ActionToday:
		view.GoToToday()
	case ActionRetry:
		view.Retry()
	case ActionDate:
		day, err := types.ParseDate(req.Date)
		if err != nil {
			h.logger.Warn("POST /day-views/{id}/navigation - Invalid date: session_id=%s, date=%q", sessionID, req.Date)
			handlers.RespondBadRequest(w, msgInvalidDate)
			return
		}
		view.SetSelectedDate(day)
	default:
		h.logger.Warn("POST /day-views/{id}/navigation - Unknown action: session_id=%s, action=%q", sessionID, req.Action)
		handlers.RespondBadRequest(w, msgInvalidAction)
		return
	}

	h.logger.Info("POST /day-views/{id}/navigation - %s: session_id=%s, day=%s",
		req.Action, sessionID, view.SelectedDate().Key())
	handlers.RespondJSON(w, http.StatusOK, handlers.FromView(session.ID, view.View()))
}
