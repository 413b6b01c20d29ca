package models

const (
	DeliveryTelegram = "telegram"
	DeliveryEmail    = "email"
)

type DeliveryRequest struct {
	OrderID string `json:"order_id"`
	Method  string `json:"method"`
	Details string `json:"details"`
}
