package events

import (
	"errors"

	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

// Type имя события приложения. Значения совпадают с именами событий, которые шлют формы.
type Type string

const (
	TypeAppointmentCreated Type = "appointmentCreated"
	TypeAppointmentUpdated Type = "appointmentUpdated"
	TypeOpenNewAppointment Type = "openNewAppointment"
	TypeOpenProductSale    Type = "openProductSale"
)

// ErrUnknownEventType возвращается при публикации события неизвестного типа
var ErrUnknownEventType = errors.New("events: unknown event type")

// AllTypes все поддерживаемые типы событий
var AllTypes = []Type{
	TypeAppointmentCreated,
	TypeAppointmentUpdated,
	TypeOpenNewAppointment,
	TypeOpenProductSale,
}

// Valid проверяет, что тип события поддерживается
func (t Type) Valid() bool {
	for _, known := range AllTypes {
		if t == known {
			return true
		}
	}
	return false
}

// Event событие шины. Date есть только у appointmentCreated/appointmentUpdated и может отсутствовать.
type Event struct {
	Type Type
	Date *types.Date
}

// Handler обработчик события
type Handler func(Event)
