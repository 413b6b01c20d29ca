package redisx

import "time"

const (
	// Rendered storefront page: storefront:index -> html
	KeyStorefrontCache = "storefront:index"

	// Delivery conversation state: delivery:session:{chat_id} -> {"order_id","method"}
	KeyDeliverySession = "delivery:session:%d"
)

var (
	TTLStorefrontCache = 5 * time.Minute
	TTLDeliverySession = 30 * time.Minute
)
