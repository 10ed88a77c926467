package update_overlay

// Действия с окнами
const (
	ActionNew                 = "new"
	ActionEdit                = "edit"
	ActionProductSale         = "product_sale"
	ActionDatePicker          = "date_picker"
	ActionCloseForm           = "close_form"
	ActionCloseProductSale    = "close_product_sale"
	ActionCloseDatePicker     = "close_date_picker"
	ActionDismissNotification = "dismiss_notification"
)

// OverlayRequest HTTP request model.
// Для action=edit нужна либо запись в свободной форме (appointment), либо ID записи выбранного дня.
type OverlayRequest struct {
	Action        string                 `json:"action"`
	Appointment   map[string]interface{} `json:"appointment,omitempty"`
	AppointmentID string                 `json:"appointmentId,omitempty"`
}
