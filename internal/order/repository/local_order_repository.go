package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"tableside/internal/domain"
	"tableside/internal/errors"
)

type MySQLLocalOrderRepository struct {
	db *sql.DB
}

func NewMySQLLocalOrderRepository(db *sql.DB) *MySQLLocalOrderRepository {
	return &MySQLLocalOrderRepository{db: db}
}

const localOrderColumns = `id, local_id, table_id, status, payload, created_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanLocalOrder(row rowScanner) (*domain.LocalOrder, error) {
	var (
		order   domain.LocalOrder
		payload []byte
	)

	if err := row.Scan(&order.ID, &order.LocalID, &order.TableID, &order.Status, &payload, &order.CreatedAt); err != nil {
		return nil, err
	}

	if err := json.Unmarshal(payload, &order.Payload); err != nil {
		return nil, fmt.Errorf("decoding payload of local order %s: %w", order.LocalID, err)
	}

	return &order, nil
}

func (r *MySQLLocalOrderRepository) Insert(ctx context.Context, tx *sql.Tx, order domain.LocalOrder) (int64, error) {
	payload, err := json.Marshal(order.Payload)
	if err != nil {
		return 0, fmt.Errorf("encoding local order payload: %w", err)
	}

	query := `
		INSERT INTO local_orders (local_id, table_id, status, payload, created_at)
		VALUES (?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query, order.LocalID, order.TableID, order.Status, payload, order.CreatedAt)
	if err != nil {
		return 0, fmt.Errorf("inserting local order: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return id, nil
}

func (r *MySQLLocalOrderRepository) FindByLocalID(ctx context.Context, localID string) (*domain.LocalOrder, error) {
	query := `SELECT ` + localOrderColumns + ` FROM local_orders WHERE local_id = ?`

	order, err := scanLocalOrder(r.db.QueryRowContext(ctx, query, localID))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("local order %s not found", localID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying local order: %w", err)
	}

	return order, nil
}

// ListAll returns every local order, newest first.
func (r *MySQLLocalOrderRepository) ListAll(ctx context.Context) ([]domain.LocalOrder, error) {
	query := `SELECT ` + localOrderColumns + `
		FROM local_orders
		ORDER BY created_at DESC, id DESC`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying local orders: %w", err)
	}
	defer rows.Close()

	orders := []domain.LocalOrder{}
	for rows.Next() {
		order, err := scanLocalOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning local order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating local orders: %w", err)
	}

	return orders, nil
}

func (r *MySQLLocalOrderRepository) UpdateStatus(ctx context.Context, tx *sql.Tx, localID, status string) error {
	result, err := tx.ExecContext(ctx, `UPDATE local_orders SET status = ? WHERE local_id = ?`, status, localID)
	if err != nil {
		return fmt.Errorf("updating local order status: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("local order %s not found", localID))
	}

	return nil
}

func (r *MySQLLocalOrderRepository) DeleteByLocalID(ctx context.Context, tx *sql.Tx, localID string) (int64, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM local_orders WHERE local_id = ?`, localID)
	if err != nil {
		return 0, fmt.Errorf("deleting local order: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return deleted, nil
}

// DeleteOrphans removes local orders that no longer have a sync queue entry.
func (r *MySQLLocalOrderRepository) DeleteOrphans(ctx context.Context) (int64, error) {
	query := `
		DELETE lo FROM local_orders lo
		LEFT JOIN sync_queue sq ON sq.local_id = lo.local_id
		WHERE sq.id IS NULL
	`

	result, err := r.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("deleting orphaned local orders: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return deleted, nil
}

func (r *MySQLLocalOrderRepository) DeleteAll(ctx context.Context, tx *sql.Tx) (int64, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM local_orders`)
	if err != nil {
		return 0, fmt.Errorf("clearing local orders: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return deleted, nil
}
