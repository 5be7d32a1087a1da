package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"tableside/internal/domain"
	"tableside/internal/errors"
)

type MySQLCartItemRepository struct {
	db *sql.DB
}

func NewMySQLCartItemRepository(db *sql.DB) *MySQLCartItemRepository {
	return &MySQLCartItemRepository{db: db}
}

const cartItemColumns = `id, menu_item_id, name, unit_price, quantity, modifiers, notes, session_id, added_at`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanCartItem(row rowScanner) (*domain.CartItem, error) {
	var (
		item      domain.CartItem
		modifiers []byte
		notes     sql.NullString
	)

	err := row.Scan(
		&item.ID, &item.MenuItemID, &item.Name, &item.UnitPrice, &item.Quantity,
		&modifiers, &notes, &item.SessionID, &item.AddedAt,
	)
	if err != nil {
		return nil, err
	}

	if len(modifiers) > 0 {
		if err := json.Unmarshal(modifiers, &item.Modifiers); err != nil {
			return nil, fmt.Errorf("decoding modifiers of cart item %d: %w", item.ID, err)
		}
	}
	item.Notes = notes.String

	return &item, nil
}

func encodeModifiers(modifiers []domain.Modifier) (interface{}, error) {
	if modifiers == nil {
		return nil, nil
	}
	data, err := json.Marshal(modifiers)
	if err != nil {
		return nil, fmt.Errorf("encoding modifiers: %w", err)
	}
	return data, nil
}

func nullableNotes(notes string) interface{} {
	if notes == "" {
		return nil
	}
	return notes
}

// FindByMenuItemAndSessionForUpdate locks the row for the rest of tx. The
// unique (menu_item_id, session_id) index also gap-locks a missing row.
func (r *MySQLCartItemRepository) FindByMenuItemAndSessionForUpdate(ctx context.Context, tx *sql.Tx, menuItemID, sessionID string) (*domain.CartItem, error) {
	query := `SELECT ` + cartItemColumns + `
		FROM cart_items
		WHERE menu_item_id = ? AND session_id = ?
		FOR UPDATE`

	item, err := scanCartItem(tx.QueryRowContext(ctx, query, menuItemID, sessionID))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("cart item %s not found in session %s", menuItemID, sessionID))
	}
	if err != nil {
		return nil, fmt.Errorf("querying cart item for update: %w", err)
	}

	return item, nil
}

func (r *MySQLCartItemRepository) FindByID(ctx context.Context, id int64) (*domain.CartItem, error) {
	query := `SELECT ` + cartItemColumns + ` FROM cart_items WHERE id = ?`

	item, err := scanCartItem(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("cart item with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying cart item by id: %w", err)
	}

	return item, nil
}

func (r *MySQLCartItemRepository) Insert(ctx context.Context, tx *sql.Tx, item domain.CartItem) (int64, error) {
	modifiers, err := encodeModifiers(item.Modifiers)
	if err != nil {
		return 0, err
	}

	query := `
		INSERT INTO cart_items (menu_item_id, name, unit_price, quantity, modifiers, notes, session_id, added_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query,
		item.MenuItemID, item.Name, item.UnitPrice, item.Quantity,
		modifiers, nullableNotes(item.Notes), item.SessionID, item.AddedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("inserting cart item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return id, nil
}

// UpdateMerged writes back quantity, modifiers and notes after a merge.
func (r *MySQLCartItemRepository) UpdateMerged(ctx context.Context, tx *sql.Tx, item domain.CartItem) error {
	modifiers, err := encodeModifiers(item.Modifiers)
	if err != nil {
		return err
	}

	query := `UPDATE cart_items SET quantity = ?, modifiers = ?, notes = ? WHERE id = ?`

	result, err := tx.ExecContext(ctx, query, item.Quantity, modifiers, nullableNotes(item.Notes), item.ID)
	if err != nil {
		return fmt.Errorf("updating cart item: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("cart item with id %d not found", item.ID))
	}

	return nil
}

func (r *MySQLCartItemRepository) UpdateQuantity(ctx context.Context, id int64, quantity int) error {
	query := `UPDATE cart_items SET quantity = ? WHERE id = ?`

	result, err := r.db.ExecContext(ctx, query, quantity, id)
	if err != nil {
		return fmt.Errorf("updating cart item quantity: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("cart item with id %d not found", id))
	}

	return nil
}

// Delete is unconditional; deleting a missing id is not an error.
func (r *MySQLCartItemRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting cart item: %w", err)
	}
	return nil
}

func (r *MySQLCartItemRepository) DeleteBySession(ctx context.Context, sessionID string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM cart_items WHERE session_id = ?`, sessionID)
	if err != nil {
		return 0, fmt.Errorf("clearing cart: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return deleted, nil
}

func (r *MySQLCartItemRepository) ListBySession(ctx context.Context, sessionID string) ([]domain.CartItem, error) {
	query := `SELECT ` + cartItemColumns + `
		FROM cart_items
		WHERE session_id = ?
		ORDER BY added_at ASC, id ASC`

	rows, err := r.db.QueryContext(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("querying cart items: %w", err)
	}
	defer rows.Close()

	items := []domain.CartItem{}
	for rows.Next() {
		item, err := scanCartItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning cart item: %w", err)
		}
		items = append(items, *item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating cart items: %w", err)
	}

	return items, nil
}

// DeleteAll clears every session's cart.
func (r *MySQLCartItemRepository) DeleteAll(ctx context.Context, tx *sql.Tx) (int64, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM cart_items`)
	if err != nil {
		return 0, fmt.Errorf("clearing all carts: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return deleted, nil
}
