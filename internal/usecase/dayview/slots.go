package dayview

import (
	"github.com/m04kA/SMC-SalonCalendar/internal/domain"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

// generateTimeSlots генерирует слоты дня от открытия до закрытия с фиксированным шагом.
// Последний слот не выходит за время закрытия.
func generateTimeSlots(openTime, closeTime types.TimeString, step int) []types.TimeString {
	slots := make([]types.TimeString, 0)
	current := openTime

	for current.IsBefore(closeTime) {
		slotEnd, err := current.AddMinutes(step)
		if err != nil || slotEnd.IsAfter(closeTime) {
			break
		}

		slots = append(slots, current)
		current = slotEnd
	}

	return slots
}

// buildSlots раскладывает записи дня по слотам сетки
func buildSlots(openTime, closeTime types.TimeString, step int, appointments []*domain.Appointment) []Slot {
	starts := generateTimeSlots(openTime, closeTime, step)
	result := make([]Slot, len(starts))

	for i, slotStart := range starts {
		result[i] = Slot{
			StartTime:       slotStart,
			DurationMinutes: step,
			Appointments:    startingInSlot(slotStart, step, appointments),
			Overlapping:     countOverlappingAppointments(slotStart, step, appointments),
		}
	}

	return result
}

// startingInSlot возвращает записи, время начала которых попадает в [slotStart, slotStart+step)
func startingInSlot(slotStart types.TimeString, step int, appointments []*domain.Appointment) []*domain.Appointment {
	slotEnd, err := slotStart.AddMinutes(step)
	if err != nil {
		return nil
	}

	var result []*domain.Appointment
	for _, a := range appointments {
		if !a.Time.IsBefore(slotStart) && a.Time.IsBefore(slotEnd) {
			result = append(result, a)
		}
	}
	return result
}

// countOverlappingAppointments подсчитывает активные записи, пересекающиеся со слотом.
// Запись, которая заканчивается ровно в начале слота (или начинается ровно в его конце), не пересекается с ним.
//
// Примеры:
// - Слот 11:30-12:00, запись 11:20-11:40 → ЕСТЬ пересечение
// - Слот 11:30-12:00, запись 11:00-11:30 → НЕТ пересечения
func countOverlappingAppointments(slotStart types.TimeString, step int, appointments []*domain.Appointment) int {
	slotEnd, err := slotStart.AddMinutes(step)
	if err != nil {
		return 0
	}

	count := 0
	for _, a := range appointments {
		if !a.IsActive() {
			continue
		}

		end, err := a.EndTime()
		if err != nil {
			continue
		}

		if a.Time.IsBefore(slotEnd) && end.IsAfter(slotStart) {
			count++
		}
	}

	return count
}
