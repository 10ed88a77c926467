package types

import (
	"database/sql/driver"
	"errors"
	"fmt"
	"time"
)

// TimeLayout формат времени (HH:MM)
const TimeLayout = "15:04"

const minutesPerDay = 24 * 60

var (
	// ErrInvalidTime возвращается при некорректной строке времени
	ErrInvalidTime = errors.New("types: invalid time")

	// ErrTimeOverflow возвращается, когда результат выходит за пределы суток
	ErrTimeOverflow = errors.New("types: time out of day range")
)

// TimeString время суток с точностью до минуты, например "09:30"
type TimeString struct {
	minutes int
}

// NewTimeString возвращает время суток момента t
func NewTimeString(t time.Time) TimeString {
	return TimeString{minutes: t.Hour()*60 + t.Minute()}
}

// NewTimeStringFromString разбирает "HH:MM" или "HH:MM:SS" (postgres time)
func NewTimeStringFromString(s string) (TimeString, error) {
	for _, layout := range []string{TimeLayout, "15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimeString(t), nil
		}
	}
	return TimeString{}, fmt.Errorf("%w: %q", ErrInvalidTime, s)
}

// NewTimeStringFromMinutes создает время из количества минут от полуночи
func NewTimeStringFromMinutes(minutes int) (TimeString, error) {
	if minutes < 0 || minutes >= minutesPerDay {
		return TimeString{}, fmt.Errorf("%w: %d minutes", ErrTimeOverflow, minutes)
	}
	return TimeString{minutes: minutes}, nil
}

// Minutes возвращает количество минут от полуночи
func (t TimeString) Minutes() int {
	return t.minutes
}

// AddMinutes прибавляет минуты. Ровно 24:00 допустимо как конец рабочего дня.
func (t TimeString) AddMinutes(minutes int) (TimeString, error) {
	result := t.minutes + minutes
	if result < 0 || result > minutesPerDay {
		return TimeString{}, fmt.Errorf("%w: %s%+d", ErrTimeOverflow, t, minutes)
	}
	return TimeString{minutes: result}, nil
}

// IsBefore проверяет, что t строго раньше other
func (t TimeString) IsBefore(other TimeString) bool {
	return t.minutes < other.minutes
}

// IsAfter проверяет, что t строго позже other
func (t TimeString) IsAfter(other TimeString) bool {
	return t.minutes > other.minutes
}

// String возвращает время в формате HH:MM
func (t TimeString) String() string {
	return fmt.Sprintf("%02d:%02d", t.minutes/60, t.minutes%60)
}

// Scan реализует sql.Scanner (колонка типа time)
func (t *TimeString) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*t = NewTimeString(v)
		return nil
	case []byte:
		parsed, err := NewTimeStringFromString(string(v))
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case string:
		parsed, err := NewTimeStringFromString(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidTime, src)
	}
}

// Value реализует driver.Valuer
func (t TimeString) Value() (driver.Value, error) {
	return t.String(), nil
}
