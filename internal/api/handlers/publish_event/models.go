package publish_event

import (
	"github.com/m04kA/SMC-SalonCalendar/internal/events"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

// PublishEventRequest HTTP request model, повторяет форму события формы: {type, detail: {date}}
type PublishEventRequest struct {
	Type   string       `json:"type"`
	Detail *EventDetail `json:"detail,omitempty"`
}

// EventDetail полезная нагрузка события
type EventDetail struct {
	Date string `json:"date,omitempty"` // "2024-03-10"
}

// ToEvent конвертирует HTTP запрос в событие шины
func (r *PublishEventRequest) ToEvent() (events.Event, error) {
	evt := events.Event{Type: events.Type(r.Type)}

	if r.Detail != nil && r.Detail.Date != "" {
		day, err := types.ParseDate(r.Detail.Date)
		if err != nil {
			return events.Event{}, err
		}
		evt.Date = &day
	}

	return evt, nil
}
