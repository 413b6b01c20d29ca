package models

type PaymentStatus string

func (s PaymentStatus) String() string {
	return string(s)
}

// Statuses the processor reports over IPN.
const (
	PaymentWaiting       PaymentStatus = "waiting"
	PaymentConfirming    PaymentStatus = "confirming"
	PaymentSending       PaymentStatus = "sending"
	PaymentPartiallyPaid PaymentStatus = "partially_paid"
	PaymentFinished      PaymentStatus = "finished"
	PaymentFailed        PaymentStatus = "failed"
	PaymentRefunded      PaymentStatus = "refunded"
	PaymentExpired       PaymentStatus = "expired"
)

// orderStatusFor maps a processor-reported payment status to the order status
// it produces. Statuses missing from the map acknowledge without mutating.
var orderStatusFor = map[PaymentStatus]OrderStatus{
	PaymentFinished: OrderPaid,
	PaymentFailed:   OrderCancelled,
	PaymentRefunded: OrderCancelled,
	PaymentExpired:  OrderCancelled,
}

func (s PaymentStatus) OrderTransition() (OrderStatus, bool) {
	to, ok := orderStatusFor[s]
	return to, ok
}

type PaymentNotification struct {
	PaymentID     int64         `json:"payment_id"`
	PaymentStatus PaymentStatus `json:"payment_status"`
	OrderID       string        `json:"order_id"`
}
