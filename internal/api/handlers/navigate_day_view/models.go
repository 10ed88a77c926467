package navigate_day_view

// Действия навигации
const (
	ActionPrevious = "previous"
	ActionNext     = "next"
	ActionToday    = "today"
	ActionDate     = "date"
	ActionRetry    = "retry"
)

// NavigateRequest HTTP request model
type NavigateRequest struct {
	Action string `json:"action"`
	Date   string `json:"date,omitempty"` // "2024-03-10", только для action=date
}
