package dayview

import (
	"fmt"
	"time"

	"github.com/m04kA/SMC-SalonCalendar/internal/domain"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

// Options настройки дневного представления
type Options struct {
	Location         *time.Location // зона, в которой считается "сегодня"; nil = time.Local
	Locale           string         // локаль заголовка дня: pt-BR (по умолчанию) или en-US
	SwipeThresholdPx float64        // 0 = domain.DefaultSwipeThresholdPx
	OpenTime         types.TimeString
	CloseTime        types.TimeString
	SlotStepMinutes  int
	TimeProvider     TimeProvider // nil = RealTimeProvider
}

// withDefaults заполняет незаданные настройки и проверяет сетку слотов
func (o Options) withDefaults() (Options, error) {
	if o.Location == nil {
		o.Location = time.Local
	}
	if o.Locale == "" {
		o.Locale = domain.LocalePtBR
	}
	if o.SwipeThresholdPx <= 0 {
		o.SwipeThresholdPx = domain.DefaultSwipeThresholdPx
	}
	if o.TimeProvider == nil {
		o.TimeProvider = &RealTimeProvider{}
	}
	if o.SlotStepMinutes == 0 {
		o.SlotStepMinutes = domain.DefaultDurationMinutes
	}
	if o.OpenTime.Minutes() == 0 && o.CloseTime.Minutes() == 0 {
		o.OpenTime, _ = types.NewTimeStringFromString("08:00")
		o.CloseTime, _ = types.NewTimeStringFromString("20:00")
	}

	if o.SlotStepMinutes < 0 {
		return o, fmt.Errorf("%w: slot step must be positive", ErrInvalidOptions)
	}
	if !o.OpenTime.IsBefore(o.CloseTime) {
		return o, fmt.Errorf("%w: open time %s must be before close time %s", ErrInvalidOptions, o.OpenTime, o.CloseTime)
	}
	switch o.Locale {
	case domain.LocalePtBR, domain.LocaleEnUS:
	default:
		return o, fmt.Errorf("%w: unsupported locale %q", ErrInvalidOptions, o.Locale)
	}
	return o, nil
}

// View снимок состояния дневного представления для отрисовки
type View struct {
	SelectedDate types.Date
	Label        string // заголовок дня в локали представления
	IsToday      bool

	Overlay domain.OverlayKind
	Draft   *domain.AppointmentDraft // только в режиме редактирования

	ShowForm             bool
	ShowProductSaleModal bool
	ShowCalendar         bool

	// Состояние загрузчика как есть
	Appointments []*domain.Appointment
	Loading      bool
	Error        string

	Slots        []Slot
	Notification string // последнее уведомление для пользователя, пусто если нет
}

// Slot временной слот сетки дня
type Slot struct {
	StartTime       types.TimeString
	DurationMinutes int
	Appointments    []*domain.Appointment // записи, начинающиеся в этом слоте
	Overlapping     int                   // активные записи, пересекающиеся со слотом
}
