package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableside/internal/domain"
	apperrors "tableside/internal/errors"
)

var cartColumns = []string{"id", "menu_item_id", "name", "unit_price", "quantity", "modifiers", "notes", "session_id", "added_at"}

func newMockRepo(t *testing.T) (*MySQLCartItemRepository, *sql.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewMySQLCartItemRepository(db), db, mock
}

func TestNewMySQLCartItemRepository(t *testing.T) {
	db := &sql.DB{}
	repo := NewMySQLCartItemRepository(db)

	assert.NotNil(t, repo)
	assert.Equal(t, db, repo.db)
}

func TestCartItemRepository_FindForUpdate_Found(t *testing.T) {
	repo, db, mock := newMockRepo(t)
	addedAt := time.Date(2024, 5, 1, 18, 30, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("(?s)"+regexp.QuoteMeta("FROM cart_items")+".*"+regexp.QuoteMeta("FOR UPDATE")).
		WithArgs("burger", "default").
		WillReturnRows(sqlmock.NewRows(cartColumns).AddRow(
			7, "burger", "Burger", "12.50", 2, []byte(`[{"id":"bacon","name":"Bacon","priceDelta":1.5}]`), "no onion", "default", addedAt,
		))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	item, err := repo.FindByMenuItemAndSessionForUpdate(context.Background(), tx, "burger", "default")
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, int64(7), item.ID)
	assert.Equal(t, "12.5", item.UnitPrice.String())
	assert.Equal(t, 2, item.Quantity)
	require.Len(t, item.Modifiers, 1)
	assert.Equal(t, "bacon", item.Modifiers[0].ID)
	assert.Equal(t, "no onion", item.Notes)
	assert.Equal(t, addedAt, item.AddedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartItemRepository_FindForUpdate_NotFound(t *testing.T) {
	repo, db, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectQuery("FROM cart_items").
		WithArgs("burger", "default").
		WillReturnRows(sqlmock.NewRows(cartColumns))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)

	item, err := repo.FindByMenuItemAndSessionForUpdate(context.Background(), tx, "burger", "default")
	require.NoError(t, tx.Rollback())

	assert.Nil(t, item)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartItemRepository_Insert(t *testing.T) {
	repo, db, mock := newMockRepo(t)
	addedAt := time.Now().UTC()
	item := domain.CartItem{
		MenuItemID: "soda",
		Name:       "Soda",
		UnitPrice:  decimal.RequireFromString("2.00"),
		Quantity:   1,
		SessionID:  "default",
		AddedAt:    addedAt,
	}

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO cart_items")).
		WithArgs("soda", "Soda", sqlmock.AnyArg(), 1, nil, nil, "default", addedAt).
		WillReturnResult(sqlmock.NewResult(11, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)

	id, err := repo.Insert(context.Background(), tx, item)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, int64(11), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartItemRepository_UpdateMerged_NotFound(t *testing.T) {
	repo, db, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE cart_items SET quantity = ?, modifiers = ?, notes = ?")).
		WithArgs(5, []byte(`[]`), "extra ice", int64(3)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)

	err = repo.UpdateMerged(context.Background(), tx, domain.CartItem{ID: 3, Quantity: 5, Modifiers: []domain.Modifier{}, Notes: "extra ice"})
	require.NoError(t, tx.Rollback())

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartItemRepository_UpdateQuantity(t *testing.T) {
	repo, _, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE cart_items SET quantity = ? WHERE id = ?")).
		WithArgs(4, int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE cart_items SET quantity = ? WHERE id = ?")).
		WithArgs(4, int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.UpdateQuantity(context.Background(), 9, 4))

	err := repo.UpdateQuantity(context.Background(), 404, 4)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartItemRepository_Delete_IsUnconditional(t *testing.T) {
	repo, _, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE id = ?")).
		WithArgs(int64(404)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	assert.NoError(t, repo.Delete(context.Background(), 404))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartItemRepository_DeleteBySession(t *testing.T) {
	repo, _, mock := newMockRepo(t)

	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM cart_items WHERE session_id = ?")).
		WithArgs("table-3").
		WillReturnResult(sqlmock.NewResult(0, 2))

	deleted, err := repo.DeleteBySession(context.Background(), "table-3")
	require.NoError(t, err)
	assert.Equal(t, int64(2), deleted)
}

func TestCartItemRepository_ListBySession(t *testing.T) {
	repo, _, mock := newMockRepo(t)
	now := time.Now().UTC()

	mock.ExpectQuery(regexp.QuoteMeta("WHERE session_id = ?")).
		WithArgs("default").
		WillReturnRows(sqlmock.NewRows(cartColumns).
			AddRow(1, "A", "Pasta", "10.00", 2, nil, nil, "default", now).
			AddRow(2, "B", "Salad", "5.00", 1, []byte(`[{"id":"m","name":"Feta","priceDelta":2}]`), nil, "default", now))

	items, err := repo.ListBySession(context.Background(), "default")
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Nil(t, items[0].Modifiers)
	assert.Empty(t, items[0].Notes)
	assert.Equal(t, "27", domain.CartTotal(items).String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCartItemRepository_ListBySession_Empty(t *testing.T) {
	repo, _, mock := newMockRepo(t)

	mock.ExpectQuery("FROM cart_items").
		WithArgs("default").
		WillReturnRows(sqlmock.NewRows(cartColumns))

	items, err := repo.ListBySession(context.Background(), "default")
	require.NoError(t, err)
	assert.NotNil(t, items)
	assert.Empty(t, items)
}

func TestCartItemRepository_ListBySession_StorageFault(t *testing.T) {
	repo, _, mock := newMockRepo(t)
	fault := errors.New("connection refused")

	mock.ExpectQuery("FROM cart_items").WillReturnError(fault)

	_, err := repo.ListBySession(context.Background(), "default")
	assert.ErrorIs(t, err, fault)
}

func TestCartItemRepository_DeleteAll(t *testing.T) {
	repo, db, mock := newMockRepo(t)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM cart_items`)).
		WillReturnResult(sqlmock.NewResult(0, 4))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	deleted, err := repo.DeleteAll(context.Background(), tx)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, int64(4), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}
