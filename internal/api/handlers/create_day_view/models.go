package create_day_view

import (
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

// CreateDayViewRequest HTTP request model
type CreateDayViewRequest struct {
	Date string `json:"date,omitempty"` // "2024-03-10", пусто = сегодня
}

// InitialDate разбирает начальный день сессии
func (r *CreateDayViewRequest) InitialDate() (types.Date, error) {
	if r.Date == "" {
		return types.Date{}, nil
	}
	return types.ParseDate(r.Date)
}
