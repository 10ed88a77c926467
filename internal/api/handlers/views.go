package handlers

import (
	"time"

	"github.com/m04kA/SMC-SalonCalendar/internal/domain"
	"github.com/m04kA/SMC-SalonCalendar/internal/usecase/dayview"
)

// DayViewResponse состояние сессии дневного представления
type DayViewResponse struct {
	SessionID    string `json:"sessionId"`
	SelectedDate string `json:"selectedDate"` // yyyy-MM-dd
	Label        string `json:"label"`
	IsToday      bool   `json:"isToday"`

	Overlay              string                   `json:"overlay"`
	Draft                *domain.AppointmentDraft `json:"draft"`
	ShowForm             bool                     `json:"showForm"`
	ShowProductSaleModal bool                     `json:"showProductSaleModal"`
	ShowCalendar         bool                     `json:"showCalendar"`

	Appointments []AppointmentResponse `json:"appointments"`
	Loading      bool                  `json:"loading"`
	Error        *string               `json:"error"`

	Slots        []SlotResponse `json:"slots"`
	Notification *string        `json:"notification,omitempty"`
}

// SlotResponse слот сетки дня
type SlotResponse struct {
	StartTime       string   `json:"startTime"`
	DurationMinutes int      `json:"durationMinutes"`
	AppointmentIDs  []string `json:"appointmentIds"`
	Overlapping     int      `json:"overlapping"`
}

// AppointmentResponse запись клиента
type AppointmentResponse struct {
	ID                 string                     `json:"id"`
	ClientID           string                     `json:"client_id"`
	ClientName         string                     `json:"client_name"`
	ProfessionalID     string                     `json:"professional_id"`
	ProfessionalName   string                     `json:"professional_name"`
	Date               string                     `json:"date"`
	Time               string                     `json:"time"`
	EndTime            string                     `json:"end_time,omitempty"`
	Duration           int                        `json:"duration"`
	Services           []string                   `json:"services"`
	Status             string                     `json:"status"`
	Notes              *string                    `json:"notes,omitempty"`
	CustomTimes        map[string]string          `json:"custom_times"`
	PendingAmount      *float64                   `json:"pending_amount,omitempty"`
	AdditionalProducts []domain.AdditionalProduct `json:"additional_products,omitempty"`
	CreatedAt          string                     `json:"created_at,omitempty"`
	UpdatedAt          string                     `json:"updated_at,omitempty"`
}

// FromView конвертирует снимок представления в HTTP ответ
func FromView(sessionID string, view dayview.View) *DayViewResponse {
	resp := &DayViewResponse{
		SessionID:            sessionID,
		SelectedDate:         view.SelectedDate.Key(),
		Label:                view.Label,
		IsToday:              view.IsToday,
		Overlay:              string(view.Overlay),
		Draft:                view.Draft,
		ShowForm:             view.ShowForm,
		ShowProductSaleModal: view.ShowProductSaleModal,
		ShowCalendar:         view.ShowCalendar,
		Appointments:         FromDomainAppointments(view.Appointments),
		Loading:              view.Loading,
		Slots:                make([]SlotResponse, len(view.Slots)),
	}

	if view.Error != "" {
		errText := view.Error
		resp.Error = &errText
	}
	if view.Notification != "" {
		notification := view.Notification
		resp.Notification = &notification
	}

	for i, slot := range view.Slots {
		ids := make([]string, len(slot.Appointments))
		for j, a := range slot.Appointments {
			ids[j] = a.ID
		}
		resp.Slots[i] = SlotResponse{
			StartTime:       slot.StartTime.String(),
			DurationMinutes: slot.DurationMinutes,
			AppointmentIDs:  ids,
			Overlapping:     slot.Overlapping,
		}
	}

	return resp
}

// FromDomainAppointments конвертирует записи в HTTP модели
func FromDomainAppointments(appointments []*domain.Appointment) []AppointmentResponse {
	result := make([]AppointmentResponse, len(appointments))
	for i, a := range appointments {
		result[i] = FromDomainAppointment(a)
	}
	return result
}

// FromDomainAppointment конвертирует запись в HTTP модель
func FromDomainAppointment(a *domain.Appointment) AppointmentResponse {
	resp := AppointmentResponse{
		ID:                 a.ID,
		ClientID:           a.ClientID,
		ClientName:         a.ClientName,
		ProfessionalID:     a.ProfessionalID,
		ProfessionalName:   a.ProfessionalName,
		Date:               a.Date.Key(),
		Time:               a.Time.String(),
		Duration:           a.DurationMinutes,
		Services:           a.Services,
		Status:             string(a.Status),
		Notes:              a.Notes,
		CustomTimes:        a.CustomTimes,
		PendingAmount:      a.PendingAmount,
		AdditionalProducts: a.AdditionalProducts,
	}

	if resp.Services == nil {
		resp.Services = []string{}
	}
	if resp.CustomTimes == nil {
		resp.CustomTimes = map[string]string{}
	}
	if end, err := a.EndTime(); err == nil {
		resp.EndTime = end.String()
	}
	if !a.CreatedAt.IsZero() {
		resp.CreatedAt = a.CreatedAt.Format(time.RFC3339)
	}
	if !a.UpdatedAt.IsZero() {
		resp.UpdatedAt = a.UpdatedAt.Format(time.RFC3339)
	}

	return resp
}
