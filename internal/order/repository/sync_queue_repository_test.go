package repository

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tableside/internal/domain"
	apperrors "tableside/internal/errors"
)

var syncEntryCols = []string{"id", "type", "local_id", "data", "enqueued_at", "attempts", "next_attempt_at", "last_error", "parked"}

func TestSyncQueueRepository_ListByType_InsertionOrder(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMySQLSyncQueueRepository(db)
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	next := now.Add(4 * time.Second)

	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY id ASC")).
		WithArgs("order").
		WillReturnRows(sqlmock.NewRows(syncEntryCols).
			AddRow(1, "order", "1-a", []byte(`{"table_id":"t1","items":[]}`), now, 0, nil, nil, false).
			AddRow(2, "order", "2-b", []byte(`{"table_id":"t2","items":[]}`), now, 2, next, "Service Unavailable (status 503)", true))

	entries, err := repo.ListByType(context.Background(), domain.SyncEntryTypeOrder)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, int64(1), entries[0].ID)
	assert.Nil(t, entries[0].NextAttemptAt)
	assert.Nil(t, entries[0].LastError)
	assert.False(t, entries[0].Parked)

	assert.Equal(t, 2, entries[1].Attempts)
	require.NotNil(t, entries[1].NextAttemptAt)
	assert.Equal(t, next, *entries[1].NextAttemptAt)
	require.NotNil(t, entries[1].LastError)
	assert.Contains(t, *entries[1].LastError, "503")
	assert.True(t, entries[1].Parked)
	assert.Equal(t, "t2", entries[1].Data.TableID)
}

func TestSyncQueueRepository_ListByType_StorageFault(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMySQLSyncQueueRepository(db)
	fault := errors.New("bad connection")

	mock.ExpectQuery("FROM sync_queue").WillReturnError(fault)

	_, err := repo.ListByType(context.Background(), domain.SyncEntryTypeOrder)
	assert.ErrorIs(t, err, fault)
}

func TestSyncQueueRepository_Insert(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMySQLSyncQueueRepository(db)
	ts := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO sync_queue (type, local_id, data, enqueued_at)")).
		WithArgs("order", "1-a", []byte(`{"table_id":"t1","items":null}`), ts).
		WillReturnResult(sqlmock.NewResult(9, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	id, err := repo.Insert(context.Background(), tx, domain.SyncQueueEntry{
		Type:      domain.SyncEntryTypeOrder,
		LocalID:   "1-a",
		Data:      domain.OrderPayload{TableID: "t1"},
		Timestamp: ts,
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	assert.Equal(t, int64(9), id)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncQueueRepository_CountByType(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMySQLSyncQueueRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM sync_queue WHERE type = ?")).
		WithArgs("order").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.CountByType(context.Background(), domain.SyncEntryTypeOrder)
	require.NoError(t, err)
	assert.Equal(t, 4, count)
}

func TestSyncQueueRepository_RecordFailure(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMySQLSyncQueueRepository(db)
	next := time.Date(2024, 5, 1, 12, 0, 8, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET attempts = ?, next_attempt_at = ?, last_error = ?, parked = ?")).
		WithArgs(3, next, "timeout", false, int64(5)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	tx, err := db.Begin()
	require.NoError(t, err)
	require.NoError(t, repo.RecordFailure(context.Background(), tx, 5, 3, next, "timeout", false))
	require.NoError(t, tx.Commit())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSyncQueueRepository_ResetAttempts_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMySQLSyncQueueRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("SET attempts = 0, next_attempt_at = NULL, parked = 0")).
		WithArgs(int64(77)).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	tx, err := db.Begin()
	require.NoError(t, err)
	err = repo.ResetAttempts(context.Background(), tx, 77)
	require.NoError(t, tx.Rollback())

	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestSyncQueueRepository_FindByID_NotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMySQLSyncQueueRepository(db)

	mock.ExpectQuery("FROM sync_queue WHERE id").
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(syncEntryCols))

	_, err := repo.FindByID(context.Background(), 1)
	_, ok := apperrors.IsNotFoundError(err)
	assert.True(t, ok)
}

func TestSyncQueueRepository_DeleteAll_StorageFault(t *testing.T) {
	db, mock := newMock(t)
	repo := NewMySQLSyncQueueRepository(db)
	fault := errors.New("lock wait timeout")

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM sync_queue`)).WillReturnError(fault)

	tx, err := db.Begin()
	require.NoError(t, err)
	_, err = repo.DeleteAll(context.Background(), tx)

	assert.ErrorIs(t, err, fault)
}
