package stream_day_view

import (
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/m04kA/SMC-SalonCalendar/internal/api/handlers"
	"github.com/m04kA/SMC-SalonCalendar/internal/service/sessions"
	"github.com/m04kA/SMC-SalonCalendar/internal/usecase/dayview"
)

const (
	msgSessionNotFound = "сессия не найдена или закрыта"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

type Handler struct {
	registry SessionRegistry
	upgrader websocket.Upgrader
	logger   Logger
}

func NewHandler(registry SessionRegistry, logger Logger) *Handler {
	return &Handler{
		registry: registry,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			// Сервис работает за тем же origin, что и SPA, либо за прокси, который проверяет origin сам
			CheckOrigin: func(*http.Request) bool { return true },
		},
		logger: logger,
	}
}

// Handle GET /api/v1/day-views/{sessionId}/stream
// После подключения отправляет текущее состояние и затем новое состояние после каждого изменения.
// Когда сессия закрывается, соединение закрывается с кодом 1000.
func (h *Handler) Handle(w http.ResponseWriter, r *http.Request) {
	sessionID := mux.Vars(r)["sessionId"]

	session, err := h.registry.Get(sessionID)
	if err != nil {
		if errors.Is(err, sessions.ErrSessionNotFound) {
			h.logger.Warn("GET /day-views/{id}/stream - Session not found: session_id=%s", sessionID)
			handlers.RespondNotFound(w, msgSessionNotFound)
			return
		}
		h.logger.Error("GET /day-views/{id}/stream - Failed to get session: session_id=%s, error=%v", sessionID, err)
		handlers.RespondInternalError(w)
		return
	}

	updates, unsubscribe, err := session.View.Subscribe()
	if err != nil {
		if errors.Is(err, dayview.ErrClosed) {
			handlers.RespondNotFound(w, msgSessionNotFound)
			return
		}
		h.logger.Error("GET /day-views/{id}/stream - Failed to subscribe: session_id=%s, error=%v", sessionID, err)
		handlers.RespondInternalError(w)
		return
	}
	defer unsubscribe()

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade уже ответил клиенту
		h.logger.Warn("GET /day-views/{id}/stream - Upgrade failed: session_id=%s, error=%v", sessionID, err)
		return
	}
	defer conn.Close()

	detach := session.AttachStream()
	defer detach()

	h.logger.Info("GET /day-views/{id}/stream - Stream opened: session_id=%s", sessionID)

	done := make(chan struct{})
	go readPump(conn, done)

	if err := h.writeView(conn, session); err != nil {
		h.logger.Warn("GET /day-views/{id}/stream - Write failed: session_id=%s, error=%v", sessionID, err)
		return
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			h.logger.Info("GET /day-views/{id}/stream - Client disconnected: session_id=%s", sessionID)
			return

		case _, ok := <-updates:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				h.logger.Info("GET /day-views/{id}/stream - Session closed, stream finished: session_id=%s", sessionID)
				return
			}
			if err := h.writeView(conn, session); err != nil {
				h.logger.Warn("GET /day-views/{id}/stream - Write failed: session_id=%s, error=%v", sessionID, err)
				return
			}

		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				h.logger.Warn("GET /day-views/{id}/stream - Ping failed: session_id=%s, error=%v", sessionID, err)
				return
			}
		}
	}
}

func (h *Handler) writeView(conn *websocket.Conn, session *sessions.Session) error {
	if err := conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return conn.WriteJSON(handlers.FromView(session.ID, session.View.View()))
}

// readPump читает и отбрасывает входящие сообщения, чтобы обрабатывать pong и закрытие соединения
func readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := conn.NextReader(); err != nil {
			return
		}
	}
}
