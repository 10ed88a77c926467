package sessions

import "errors"

var (
	// ErrSessionNotFound возвращается, когда сессии нет или она уже закрыта
	ErrSessionNotFound = errors.New("sessions.service: session not found")

	// ErrInternal возвращается при внутренних ошибках сервиса
	ErrInternal = errors.New("sessions.service: internal error")
)
