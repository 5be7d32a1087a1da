package mysql

import (
	"context"
	"database/sql"
	"fmt"
)

var schema = []struct {
	name  string
	query string
}{
	{"cart_items", `
	CREATE TABLE IF NOT EXISTS cart_items (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		menu_item_id VARCHAR(64) NOT NULL,
		name VARCHAR(255) NOT NULL,
		unit_price DECIMAL(10,2) NOT NULL DEFAULT 0.00,
		quantity INT NOT NULL DEFAULT 1,
		modifiers JSON NULL,
		notes TEXT NULL,
		session_id VARCHAR(64) NOT NULL DEFAULT 'default',
		added_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		UNIQUE KEY uq_cart_items_menu_session (menu_item_id, session_id),
		INDEX idx_cart_items_session (session_id)
	)`},
	{"local_orders", `
	CREATE TABLE IF NOT EXISTS local_orders (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		local_id VARCHAR(40) NOT NULL,
		table_id VARCHAR(64) NOT NULL,
		status VARCHAR(16) NOT NULL DEFAULT 'staged',
		payload JSON NOT NULL,
		created_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		UNIQUE KEY uq_local_orders_local_id (local_id),
		INDEX idx_local_orders_status (status),
		INDEX idx_local_orders_table (table_id),
		INDEX idx_local_orders_created (created_at)
	)`},
	{"sync_queue", `
	CREATE TABLE IF NOT EXISTS sync_queue (
		id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
		type VARCHAR(32) NOT NULL,
		local_id VARCHAR(40) NOT NULL,
		data JSON NOT NULL,
		enqueued_at DATETIME(3) NOT NULL DEFAULT CURRENT_TIMESTAMP(3),
		attempts INT NOT NULL DEFAULT 0,
		next_attempt_at DATETIME(3) NULL,
		last_error TEXT NULL,
		parked TINYINT(1) NOT NULL DEFAULT 0,
		UNIQUE KEY uq_sync_queue_local_id (local_id),
		INDEX idx_sync_queue_type (type)
	)`},
}

// Tables lists the local store tables in creation order.
func Tables() []string {
	names := make([]string, len(schema))
	for i, tbl := range schema {
		names[i] = tbl.name
	}
	return names
}

// Migrate creates the local store tables when they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	for _, tbl := range schema {
		if _, err := db.ExecContext(ctx, tbl.query); err != nil {
			return fmt.Errorf("creating table %s: %w", tbl.name, err)
		}
	}
	return nil
}
