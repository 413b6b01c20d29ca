package db

import (
	"github.com/vaultshop/vault-shop/models"
)

// Database is the storage surface the handlers and the bot share. Order rows
// only change status through the conditional CancelOrder/MarkOrderPaid paths.
type Database interface {
	ListProducts() ([]models.Product, error)
	GetProduct(id int64) (*models.Product, error)
	AddProduct(product models.Product) error
	DeleteProduct(id int64) error

	PutOrder(order models.Order) error
	SetOrderPaymentID(orderID string, paymentID string) error
	GetOrderStatus(orderID string) (models.OrderStatus, error)
	CancelOrder(orderID string) (bool, error)
	MarkOrderPaid(orderID string) (string, bool, error)
	GetRecentOrders(limit int) ([]models.Order, error)

	Close() error
}
