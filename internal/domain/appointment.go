package domain

import (
	"time"

	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

// AppointmentStatus статус записи клиента
type AppointmentStatus string

const (
	StatusScheduled AppointmentStatus = "scheduled"
	StatusConfirmed AppointmentStatus = "confirmed"
	StatusCompleted AppointmentStatus = "completed"
	StatusCancelled AppointmentStatus = "cancelled"
	StatusNoShow    AppointmentStatus = "no_show"
)

// AdditionalProduct товар, добавленный к записи (продажа во время визита)
type AdditionalProduct struct {
	ProductID string  `json:"product_id"`
	Name      string  `json:"name"`
	Quantity  int     `json:"quantity"`
	Price     float64 `json:"price"`
}

// Appointment запись клиента к специалисту салона
type Appointment struct {
	ID               string
	ClientID         string
	ClientName       string // денормализовано из clients
	ProfessionalID   string
	ProfessionalName string // денормализовано из professionals
	Date             types.Date
	Time             types.TimeString
	DurationMinutes  int
	Services         []string
	Status           AppointmentStatus
	Notes            *string
	CustomTimes      map[string]string // serviceID -> время начала этой услуги

	PendingAmount      *float64
	AdditionalProducts []AdditionalProduct

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsActive возвращает true, если запись не отменена и клиент не пропустил визит
func (a *Appointment) IsActive() bool {
	return a.Status != StatusCancelled && a.Status != StatusNoShow
}

// HasPendingAmount возвращает true, если у записи есть неоплаченный остаток
func (a *Appointment) HasPendingAmount() bool {
	return a.PendingAmount != nil && *a.PendingAmount > 0
}

// EndTime возвращает время окончания записи
func (a *Appointment) EndTime() (types.TimeString, error) {
	return a.Time.AddMinutes(a.DurationMinutes)
}

// Record проецирует запись в свободную форму, которой обмениваются внешние компоненты (формы, клиенты API)
func (a *Appointment) Record() map[string]interface{} {
	services := make([]interface{}, len(a.Services))
	for i, s := range a.Services {
		services[i] = s
	}

	customTimes := make(map[string]interface{}, len(a.CustomTimes))
	for k, v := range a.CustomTimes {
		customTimes[k] = v
	}

	record := map[string]interface{}{
		"id":                a.ID,
		"client_id":         a.ClientID,
		"client_name":       a.ClientName,
		"professional_id":   a.ProfessionalID,
		"professional_name": a.ProfessionalName,
		"date":              a.Date.Key(),
		"time":              a.Time.String(),
		"duration":          a.DurationMinutes,
		"services":          services,
		"status":            string(a.Status),
		"custom_times":      customTimes,
	}

	if a.Notes != nil {
		record["notes"] = *a.Notes
	}
	if a.PendingAmount != nil {
		record["pending_amount"] = *a.PendingAmount
	}

	return record
}
