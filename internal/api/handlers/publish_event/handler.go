package publish_event

import (
	"errors"
	"net/http"

	"github.com/m04kA/SMC-SalonCalendar/internal/api/handlers"
	"github.com/m04kA/SMC-SalonCalendar/internal/events"
)

const (
	msgInvalidRequestBody = "некорректное тело запроса"
	msgInvalidDate        = "некорректный формат даты события, ожидается YYYY-MM-DD"
	msgUnknownEventType   = "неизвестный тип события"
)

type Handler struct {
	publisher EventPublisher
	logger    Logger
}

func NewHandler(publisher EventPublisher, logger Logger) *Handler {
	return &Handler{
		publisher: publisher,
		logger:    logger,
	}
}

// Handle POST /api/v1/events
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	var req PublishEventRequest
	if err := handlers.DecodeJSON(r, &req); err != nil {
		h.logger.Warn("POST /events - Invalid request body: %v", err)
		handlers.RespondBadRequest(w, msgInvalidRequestBody)
		return
	}

	evt, err := req.ToEvent()
	if err != nil {
		h.logger.Warn("POST /events - Invalid event date: type=%s, error=%v", req.Type, err)
		handlers.RespondBadRequest(w, msgInvalidDate)
		return
	}

	if err := h.publisher.Publish(r.Context(), evt); err != nil {
		if errors.Is(err, events.ErrUnknownEventType) {
			h.logger.Warn("POST /events - Unknown event type: type=%q", req.Type)
			handlers.RespondBadRequest(w, msgUnknownEventType)
			return
		}
		h.logger.Error("POST /events - Failed to publish event: type=%s, error=%v", req.Type, err)
		handlers.RespondInternalError(w)
		return
	}

	h.logger.Info("POST /events - Event published: type=%s", req.Type)
	w.WriteHeader(http.StatusAccepted)
}
