package domain

// AppointmentDraft нормализованная копия записи, открытая на редактирование.
// Каждое поле имеет безопасное значение по умолчанию, форма никогда не получает пустых ссылок.
type AppointmentDraft struct {
	ID               string            `json:"id"`
	ClientID         string            `json:"client_id"`
	ClientName       string            `json:"client_name"`
	ProfessionalID   string            `json:"professional_id"`
	ProfessionalName string            `json:"professional_name"`
	Date             string            `json:"date"` // ключ дня yyyy-MM-dd
	Time             string            `json:"time"`
	Duration         int               `json:"duration"`
	Services         []string          `json:"services"`
	Status           string            `json:"status"`
	Notes            string            `json:"notes"`
	CustomTimes      map[string]string `json:"custom_times"`
}

// NewAppointmentDraft возвращает черновик, заполненный значениями по умолчанию
func NewAppointmentDraft(dateKey string) AppointmentDraft {
	return AppointmentDraft{
		Date:        dateKey,
		Duration:    DefaultDurationMinutes,
		Services:    []string{},
		Status:      string(DefaultStatus),
		CustomTimes: map[string]string{},
	}
}
