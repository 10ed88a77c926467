package dayview

import "errors"

var (
	// ErrClosed возвращается при обращении к закрытому представлению
	ErrClosed = errors.New("dayview: view is closed")

	// ErrDraftNormalization возвращается, когда черновик записи не удалось собрать
	ErrDraftNormalization = errors.New("dayview: failed to build appointment draft")

	// ErrAppointmentNotFound возвращается, когда записи нет среди записей выбранного дня
	ErrAppointmentNotFound = errors.New("dayview: appointment not found on selected day")

	// ErrInvalidOptions возвращается при некорректных настройках представления
	ErrInvalidOptions = errors.New("dayview: invalid options")
)

// Тексты уведомлений для пользователя
const (
	msgDraftFailed = "Não foi possível abrir o agendamento para edição"
)
