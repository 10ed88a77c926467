package swipe_day_view

// SwipeRequest HTTP request model: горизонтальные координаты начала и конца касания
type SwipeRequest struct {
	StartX *float64 `json:"startX"`
	EndX   *float64 `json:"endX"`
}
