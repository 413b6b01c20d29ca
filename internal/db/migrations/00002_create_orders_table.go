package migrations

import (
	"context"
	"database/sql"

	"github.com/pressly/goose/v3"
)

func init() {
	goose.AddMigrationContext(UpOrdersTable, DownOrdersTable)
}

func UpOrdersTable(ctx context.Context, tx *sql.Tx) error {
	// No foreign key on product_id: products may be deleted from the admin
	// console while orders are kept forever.
	_, err := tx.ExecContext(ctx, `CREATE TABLE orders
(
    id SERIAL PRIMARY KEY,
    order_id VARCHAR(32) NOT NULL UNIQUE,
    product_id BIGINT NOT NULL,
    total_amount NUMERIC(12, 2) NOT NULL,
    user_identifier VARCHAR(64) NOT NULL DEFAULT '',
    payment_id VARCHAR(64) NOT NULL DEFAULT '',
    order_status VARCHAR(16) NOT NULL DEFAULT 'pending',
    created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP NOT NULL,
    paid_at TIMESTAMP
);`)
	return err
}

func DownOrdersTable(ctx context.Context, tx *sql.Tx) error {
	_, err := tx.ExecContext(ctx, "DROP TABLE orders;")
	return err
}
