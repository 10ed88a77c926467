package dayview

import (
	"fmt"
	"strings"

	"github.com/m04kA/SMC-SalonCalendar/internal/domain"
	"github.com/m04kA/SMC-SalonCalendar/pkg/types"
)

var (
	ptWeekdays = [...]string{"domingo", "segunda-feira", "terça-feira", "quarta-feira", "quinta-feira", "sexta-feira", "sábado"}
	ptMonths   = [...]string{"janeiro", "fevereiro", "março", "abril", "maio", "junho", "julho", "agosto", "setembro", "outubro", "novembro", "dezembro"}
)

// formatDayLabel форматирует заголовок дня.
// pt-BR: "Domingo, 10 de março de 2024"; en-US: "Sunday, March 10, 2024".
func formatDayLabel(day types.Date, locale string) string {
	switch locale {
	case domain.LocaleEnUS:
		return day.Time().Format("Monday, January 2, 2006")
	default:
		return capitalize(fmt.Sprintf("%s, %d de %s de %d",
			ptWeekdays[day.Weekday()], day.Day(), ptMonths[day.Month()-1], day.Year()))
	}
}

// capitalize делает заглавной первую букву строки
func capitalize(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}
