package domain

// Значения по умолчанию для черновика записи
const (
	DefaultDurationMinutes = 30
	DefaultStatus          = StatusScheduled
)

// DefaultSwipeThresholdPx минимальное горизонтальное смещение жеста, при котором меняется день
const DefaultSwipeThresholdPx = 100

// Ограничения длительности записи
const (
	MinDurationMinutes = 1
	MaxDurationMinutes = 24 * 60
)

// Поддерживаемые локали заголовка дня
const (
	LocalePtBR = "pt-BR"
	LocaleEnUS = "en-US"
)
