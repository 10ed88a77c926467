package update_overlay

import (
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-SalonCalendar/internal/api/handlers"
	"github.com/m04kA/SMC-SalonCalendar/internal/service/sessions"
	"github.com/m04kA/SMC-SalonCalendar/internal/usecase/dayview"
)

const (
	msgInvalidRequestBody  = "некорректное тело запроса"
	msgInvalidAction       = "неизвестное действие с окном"
	msgMissingAppointment  = "для редактирования требуется appointment или appointmentId"
	msgAppointmentNotFound = "запись не найдена среди записей выбранного дня"
	msgDraftFailed         = "не удалось открыть запись на редактирование"
	msgSessionNotFound     = "сессия не найдена или закрыта"
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

// Handle POST /api/v1/day-views/{sessionId}/overlay
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	var req OverlayRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /day-views/{id}/overlay - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	session, err := h.registry.Get(sessionID)
	if err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			h.logger.Warn("POST /day-views/{id}/overlay - Session not found: session_id=%s", sessionID)
			handlers.RespondNotFound(w, msgSessionNotFound)
			return
		}
		h.logger.Error("POST /day-views/{id}/overlay - Failed to get session: session_id=%s, error=%v", sessionID, err)
		handlers.RespondInternalError(w)
		return
	}

	view := session.View
	switch req.Action {
	case ActionNew:
		view.OpenNewAppointment()
	case ActionEdit:
		if err := h.openEdit(view, &req); err != nil {
			switch {
			case errors.Is(err, errMissingAppointment):
				handlers.RespondBadRequest(w, msgMissingAppointment)
			case errors.Is(err, dayview.ErrAppointmentNotFound):
				h.logger.Warn("POST /day-views/{id}/overlay - Appointment not found: session_id=%s, appointment_id=%s",
					sessionID, req.AppointmentID)
				handlers.RespondNotFound(w, msgAppointmentNotFound)
			case errors.Is(err, dayview.ErrDraftNormalization):
				h.logger.Warn("POST /day-views/{id}/overlay - Draft failed: session_id=%s, error=%v", sessionID, err)
				handlers.RespondError(w, http.StatusUnprocessableEntity, msgDraftFailed)
			default:
				h.logger.Error("POST /day-views/{id}/overlay - Failed to open edit: session_id=%s, error=%v", sessionID, err)
				handlers.RespondInternalError(w)
			}
			return
		}
	case ActionProductSale:
		view.OpenProductSale()
	case ActionDatePicker:
		view.OpenDatePicker()
	case ActionCloseForm:
		view.CloseAppointmentModal()
	case ActionCloseProductSale:
		view.CloseProductSaleModal()
	case ActionCloseDatePicker:
		view.CloseDatePicker()
	case ActionDismissNotification:
		view.DismissNotification()
	default:
		h.logger.Warn("POST /day-views/{id}/overlay - Unknown action: session_id=%s, action=%q", sessionID, req.Action)
		handlers.RespondBadRequest(w, msgInvalidAction)
		return
	}

	h.logger.Info("POST /day-views/{id}/overlay - %s: session_id=%s, overlay=%s",
		req.Action, sessionID, view.Overlay().Kind())
	handlers.RespondJSON(w, http.StatusOK, handlers.FromView(session.ID, view.View()))
}

var errMissingAppointment = errors.New("update_overlay: appointment is required")

func (h *Handler) openEdit(view *dayview.Coordinator, req *OverlayRequest) error {
	switch {
	case req.Appointment != nil:
		return view.OpenEditAppointment(req.Appointment)
	case req.AppointmentID != "":
		return view.OpenEditAppointmentByID(req.AppointmentID)
	default:
		return errMissingAppointment
	}
}
