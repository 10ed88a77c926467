package dayview

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/m04kA/SMC-SalonCalendar/internal/domain"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

// BuildDraft собирает черновик редактирования из записи в свободной форме.
// Поле, которое не удалось привести к нужному типу, получает значение по умолчанию.
// Дата без значения берется из fallbackDate (ключ выбранного дня).
// Паника при разборе перехватывается и возвращается как ErrDraftNormalization.
func BuildDraft(raw map[string]interface{}, fallbackDate string) (draft domain.AppointmentDraft, err error) {
	defer func() {
		if r := recover(); r != nil {
			draft = domain.AppointmentDraft{}
			err = fmt.Errorf("%w: %v", ErrDraftNormalization, r)
		}
	}()

	if raw == nil {
		return domain.AppointmentDraft{}, fmt.Errorf("%w: appointment record is empty", ErrDraftNormalization)
	}

	draft = domain.NewAppointmentDraft(fallbackDate)
	draft.ID = stringValue(raw["id"])
	draft.ClientID = stringValue(raw["client_id"])
	draft.ClientName = stringValue(raw["client_name"])
	if draft.ClientName == "" {
		draft.ClientName = nestedName(raw["client"])
	}
	draft.ProfessionalID = stringValue(raw["professional_id"])
	draft.ProfessionalName = stringValue(raw["professional_name"])
	if draft.ProfessionalName == "" {
		draft.ProfessionalName = nestedName(raw["professional"])
	}

	if day, err := types.ParseDate(stringValue(raw["date"])); err == nil {
		draft.Date = day.Key()
	}

	if t, err := types.NewTimeStringFromString(stringValue(raw["time"])); err == nil {
		draft.Time = t.String()
	}

	if duration, ok := durationValue(raw["duration"]); ok {
		draft.Duration = duration
	}

	draft.Services = servicesValue(raw["services"])

	if status := stringValue(raw["status"]); status != "" {
		draft.Status = status
	}

	draft.Notes = stringValue(raw["notes"])
	draft.CustomTimes = customTimesValue(raw["custom_times"])

	return draft, nil
}

// stringValue приводит скалярное значение к строке; nil и составные значения дают пустую строку
func stringValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case json.Number:
		return val.String()
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(val), 'f', -1, 32)
	case int:
		return strconv.Itoa(val)
	case int64:
		return strconv.FormatInt(val, 10)
	case bool:
		return strconv.FormatBool(val)
	case fmt.Stringer:
		return val.String()
	default:
		return ""
	}
}

// durationValue принимает число или строку с числом минут
func durationValue(v interface{}) (int, bool) {
	var minutes float64

	switch val := v.(type) {
	case float64:
		minutes = val
	case float32:
		minutes = float64(val)
	case int:
		minutes = float64(val)
	case int64:
		minutes = float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return 0, false
		}
		minutes = f
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return 0, false
		}
		minutes = f
	default:
		return 0, false
	}

	if math.IsNaN(minutes) || math.IsInf(minutes, 0) {
		return 0, false
	}

	rounded := int(math.Round(minutes))
	if rounded < domain.MinDurationMinutes || rounded > domain.MaxDurationMinutes {
		return 0, false
	}
	return rounded, true
}

// servicesValue принимает список идентификаторов: строки, числа или объекты с полем id
func servicesValue(v interface{}) []string {
	services := []string{}

	switch val := v.(type) {
	case []string:
		for _, s := range val {
			if s = strings.TrimSpace(s); s != "" {
				services = append(services, s)
			}
		}
	case []interface{}:
		for _, item := range val {
			var id string
			if obj, ok := item.(map[string]interface{}); ok {
				id = stringValue(obj["id"])
			} else {
				id = stringValue(item)
			}
			if id != "" {
				services = append(services, id)
			}
		}
	}

	return services
}

func customTimesValue(v interface{}) map[string]string {
	customTimes := map[string]string{}

	switch val := v.(type) {
	case map[string]string:
		for k, t := range val {
			customTimes[k] = t
		}
	case map[string]interface{}:
		for k, raw := range val {
			if t := stringValue(raw); t != "" {
				customTimes[k] = t
			}
		}
	}

	return customTimes
}

// nestedName достает name из вложенного объекта вида {"client": {"name": "..."}}
func nestedName(v interface{}) string {
	obj, ok := v.(map[string]interface{})
	if !ok {
		return ""
	}
	return stringValue(obj["name"])
}
