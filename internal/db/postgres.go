package db

import (
	"database/sql"
	"errors"
	"fmt"
	"log"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/vaultshop/vault-shop/config"
	_ "github.com/vaultshop/vault-shop/internal/db/migrations"
	"github.com/vaultshop/vault-shop/models"
)

type Manager struct {
	Db *sql.DB
}

func NewManager(cfg *config.Config) (*Manager, error) {
	db, err := sql.Open("pgx", cfg.DatabaseURI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err = db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	manager := &Manager{
		Db: db,
	}

	if err = goose.Up(db, "./internal/db/migrations"); err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	return manager, nil
}

func (m *Manager) ListProducts() ([]models.Product, error) {
	rows, err := m.Db.Query(`
		SELECT id, name, price, description, image_url
		FROM products
		ORDER BY id
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}
	defer rows.Close()

	var products []models.Product
	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan product: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

// GetProduct returns (nil, nil) when no product has the given id.
func (m *Manager) GetProduct(id int64) (*models.Product, error) {
	var p models.Product

	err := m.Db.QueryRow(`
		SELECT id, name, price, description, image_url
		FROM products
		WHERE id = $1
	`, id).Scan(&p.ID, &p.Name, &p.Price, &p.Description, &p.ImageURL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}

	return &p, nil
}

func (m *Manager) AddProduct(product models.Product) error {
	_, err := m.Db.Exec(`
		INSERT INTO products (name, price, description, image_url)
		VALUES ($1, $2, $3, $4)
	`, product.Name, product.Price, product.Description, product.ImageURL)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}

	return nil
}

func (m *Manager) DeleteProduct(id int64) error {
	_, err := m.Db.Exec(`DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete product: %w", err)
	}

	return nil
}

func (m *Manager) PutOrder(order models.Order) error {
	_, err := m.Db.Exec(`
		INSERT INTO orders (order_id, product_id, total_amount, user_identifier, payment_id, order_status)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, order.OrderID, order.ProductID, order.TotalAmount, order.UserIdentifier, order.PaymentID, order.OrderStatus)
	if err != nil {
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

func (m *Manager) SetOrderPaymentID(orderID string, paymentID string) error {
	_, err := m.Db.Exec(`
		UPDATE orders SET payment_id = $2 WHERE order_id = $1
	`, orderID, paymentID)
	if err != nil {
		return fmt.Errorf("failed to set payment id: %w", err)
	}

	return nil
}

func (m *Manager) GetOrderStatus(orderID string) (models.OrderStatus, error) {
	var status string

	err := m.Db.QueryRow(`
		SELECT order_status FROM orders WHERE order_id = $1
	`, orderID).Scan(&status)
	if err != nil {
		return "", fmt.Errorf("failed to get order status: %w", err)
	}

	return models.OrderStatus(status), nil
}

// CancelOrder transitions a pending order to cancelled. The condition on the
// current status means paid orders stay paid and repeated cancels report false.
func (m *Manager) CancelOrder(orderID string) (bool, error) {
	res, err := m.Db.Exec(`
		UPDATE orders SET order_status = $2
		WHERE order_id = $1 AND order_status = $3
	`, orderID, models.OrderCancelled, models.OrderPending)
	if err != nil {
		return false, fmt.Errorf("failed to cancel order: %w", err)
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read affected rows: %w", err)
	}

	return affected > 0, nil
}

// MarkOrderPaid flips a pending order to paid, stamps paid_at and returns the
// buyer identifier, all in one conditional statement. A replayed notification
// matches zero rows and returns updated=false.
func (m *Manager) MarkOrderPaid(orderID string) (string, bool, error) {
	var userIdentifier string

	err := m.Db.QueryRow(`
		UPDATE orders SET order_status = $2, paid_at = CURRENT_TIMESTAMP
		WHERE order_id = $1 AND order_status = $3
		RETURNING user_identifier
	`, orderID, models.OrderPaid, models.OrderPending).Scan(&userIdentifier)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to mark order paid: %w", err)
	}

	return userIdentifier, true, nil
}

func (m *Manager) GetRecentOrders(limit int) ([]models.Order, error) {
	rows, err := m.Db.Query(`
		SELECT order_id, order_status, created_at
		FROM orders
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list recent orders: %w", err)
	}
	defer rows.Close()

	var orders []models.Order
	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.OrderID, &o.OrderStatus, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, o)
	}

	return orders, rows.Err()
}

func (m *Manager) Close() error {
	return m.Db.Close()
}
