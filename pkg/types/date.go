package types

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// DateLayout формат ключа дня (yyyy-MM-dd)
const DateLayout = "2006-01-02"

// ErrInvalidDate возвращается при некорректной строке даты
var ErrInvalidDate = errors.New("types: invalid date")

// Date календарная дата без времени суток.
// Внутри хранится полночь UTC, поэтому прибавление дней не зависит от переходов на летнее время.
type Date struct {
	t time.Time
}

// NewDate создает дату из года, месяца и дня (значения нормализуются как в time.Date)
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// DateOf возвращает календарную дату момента t в его собственной временной зоне
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, m, d)
}

// ParseDate разбирает ключ дня "yyyy-MM-dd".
// Также принимает RFC3339 метку времени и берет из неё дату.
func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(DateLayout, s); err == nil {
		return DateOf(t), nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return DateOf(t), nil
	}
	return Date{}, fmt.Errorf("%w: %q", ErrInvalidDate, s)
}

// MustParseDate как ParseDate, но паникует при ошибке (для тестов и констант)
func MustParseDate(s string) Date {
	d, err := ParseDate(s)
	if err != nil {
		panic(err)
	}
	return d
}

// Key возвращает ключ дня в формате yyyy-MM-dd
func (d Date) Key() string {
	return d.t.Format(DateLayout)
}

// String реализует fmt.Stringer
func (d Date) String() string {
	return d.Key()
}

// AddDays сдвигает дату на n календарных дней
func (d Date) AddDays(n int) Date {
	return Date{t: d.t.AddDate(0, 0, n)}
}

// Equal сравнивает даты с точностью до дня
func (d Date) Equal(other Date) bool {
	return d.t.Equal(other.t)
}

// Before проверяет, что дата раньше other
func (d Date) Before(other Date) bool {
	return d.t.Before(other.t)
}

// IsZero проверяет, что дата не задана
func (d Date) IsZero() bool {
	return d.t.IsZero()
}

func (d Date) Year() int             { return d.t.Year() }
func (d Date) Month() time.Month     { return d.t.Month() }
func (d Date) Day() int              { return d.t.Day() }
func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// Time возвращает полночь даты в UTC
func (d Date) Time() time.Time {
	return d.t
}

// In возвращает полночь даты в указанной временной зоне
func (d Date) In(loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

// MarshalJSON сериализует дату как ключ дня
func (d Date) MarshalJSON() ([]byte, error) {
	if d.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(d.Key())
}

// UnmarshalJSON читает дату из ключа дня
func (d *Date) UnmarshalJSON(data []byte) error {
	var s *string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidDate, err)
	}
	if s == nil || *s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(*s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Scan реализует sql.Scanner (колонка типа date)
func (d *Date) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		*d = DateOf(v)
		return nil
	case []byte:
		parsed, err := ParseDate(string(v))
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case string:
		parsed, err := ParseDate(v)
		if err != nil {
			return err
		}
		*d = parsed
		return nil
	case nil:
		*d = Date{}
		return nil
	default:
		return fmt.Errorf("%w: cannot scan %T", ErrInvalidDate, src)
	}
}

// Value реализует driver.Valuer
func (d Date) Value() (driver.Value, error) {
	if d.IsZero() {
		return nil, nil
	}
	return d.Key(), nil
}
