package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"tableside/internal/domain"
	"tableside/internal/errors"
)

type MySQLSyncQueueRepository struct {
	db *sql.DB
}

func NewMySQLSyncQueueRepository(db *sql.DB) *MySQLSyncQueueRepository {
	return &MySQLSyncQueueRepository{db: db}
}

const syncEntryColumns = `id, type, local_id, data, enqueued_at, attempts, next_attempt_at, last_error, parked`

func scanSyncEntry(row rowScanner) (*domain.SyncQueueEntry, error) {
	var (
		entry         domain.SyncQueueEntry
		data          []byte
		nextAttemptAt sql.NullTime
		lastError     sql.NullString
	)

	err := row.Scan(
		&entry.ID, &entry.Type, &entry.LocalID, &data, &entry.Timestamp,
		&entry.Attempts, &nextAttemptAt, &lastError, &entry.Parked,
	)
	if err != nil {
		return nil, err
	}

	if err := json.Unmarshal(data, &entry.Data); err != nil {
		return nil, fmt.Errorf("decoding data of sync entry %d: %w", entry.ID, err)
	}
	if nextAttemptAt.Valid {
		t := nextAttemptAt.Time
		entry.NextAttemptAt = &t
	}
	if lastError.Valid {
		msg := lastError.String
		entry.LastError = &msg
	}

	return &entry, nil
}

func (r *MySQLSyncQueueRepository) Insert(ctx context.Context, tx *sql.Tx, entry domain.SyncQueueEntry) (int64, error) {
	data, err := json.Marshal(entry.Data)
	if err != nil {
		return 0, fmt.Errorf("encoding sync entry data: %w", err)
	}

	query := `
		INSERT INTO sync_queue (type, local_id, data, enqueued_at)
		VALUES (?, ?, ?, ?)
	`

	result, err := tx.ExecContext(ctx, query, entry.Type, entry.LocalID, data, entry.Timestamp)
	if err != nil {
		return 0, fmt.Errorf("inserting sync entry: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting last insert id: %w", err)
	}

	return id, nil
}

func (r *MySQLSyncQueueRepository) FindByID(ctx context.Context, id int64) (*domain.SyncQueueEntry, error) {
	query := `SELECT ` + syncEntryColumns + ` FROM sync_queue WHERE id = ?`

	entry, err := scanSyncEntry(r.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError(fmt.Sprintf("sync entry with id %d not found", id))
	}
	if err != nil {
		return nil, fmt.Errorf("querying sync entry: %w", err)
	}

	return entry, nil
}

// ListByType returns the entries of one type in insertion order.
func (r *MySQLSyncQueueRepository) ListByType(ctx context.Context, entryType string) ([]domain.SyncQueueEntry, error) {
	query := `SELECT ` + syncEntryColumns + `
		FROM sync_queue
		WHERE type = ?
		ORDER BY id ASC`

	rows, err := r.db.QueryContext(ctx, query, entryType)
	if err != nil {
		return nil, fmt.Errorf("querying sync entries: %w", err)
	}
	defer rows.Close()

	entries := []domain.SyncQueueEntry{}
	for rows.Next() {
		entry, err := scanSyncEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning sync entry: %w", err)
		}
		entries = append(entries, *entry)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating sync entries: %w", err)
	}

	return entries, nil
}

func (r *MySQLSyncQueueRepository) CountByType(ctx context.Context, entryType string) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM sync_queue WHERE type = ?`, entryType).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting sync entries: %w", err)
	}
	return count, nil
}

func (r *MySQLSyncQueueRepository) DeleteByLocalID(ctx context.Context, tx *sql.Tx, localID string) (int64, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM sync_queue WHERE local_id = ?`, localID)
	if err != nil {
		return 0, fmt.Errorf("deleting sync entry: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return deleted, nil
}

// RecordFailure stores the outcome of a failed replay.
func (r *MySQLSyncQueueRepository) RecordFailure(ctx context.Context, tx *sql.Tx, id int64, attempts int, nextAttemptAt time.Time, lastError string, parked bool) error {
	query := `
		UPDATE sync_queue
		SET attempts = ?, next_attempt_at = ?, last_error = ?, parked = ?
		WHERE id = ?
	`

	result, err := tx.ExecContext(ctx, query, attempts, nextAttemptAt, lastError, parked, id)
	if err != nil {
		return fmt.Errorf("recording sync failure: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("sync entry with id %d not found", id))
	}

	return nil
}

// ResetAttempts makes an entry immediately due again and unparks it. The last
// error is kept for reference.
func (r *MySQLSyncQueueRepository) ResetAttempts(ctx context.Context, tx *sql.Tx, id int64) error {
	query := `UPDATE sync_queue SET attempts = 0, next_attempt_at = NULL, parked = 0 WHERE id = ?`

	result, err := tx.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("resetting sync entry: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("getting rows affected: %w", err)
	}

	if rowsAffected == 0 {
		return errors.NewNotFoundError(fmt.Sprintf("sync entry with id %d not found", id))
	}

	return nil
}

// DeleteAll empties the queue, parked entries included.
func (r *MySQLSyncQueueRepository) DeleteAll(ctx context.Context, tx *sql.Tx) (int64, error) {
	result, err := tx.ExecContext(ctx, `DELETE FROM sync_queue`)
	if err != nil {
		return 0, fmt.Errorf("clearing sync queue: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("getting rows affected: %w", err)
	}

	return deleted, nil
}
