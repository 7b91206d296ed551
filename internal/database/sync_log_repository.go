package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/HelixAutomations/enquiry-timeline/internal/models"
	"github.com/google/uuid"
)

// SyncLogRepository persists fetch attempts for audit and troubleshooting.
type SyncLogRepository struct {
	db *sql.DB
}

// NewSyncLogRepository creates a new sync log repository.
func NewSyncLogRepository(db *sql.DB) *SyncLogRepository {
	return &SyncLogRepository{db: db}
}

// Record stores one fetch attempt.
func (r *SyncLogRepository) Record(ctx context.Context, log models.SyncLog) error {
	if log.ID == "" {
		log.ID = uuid.New().String()
	}
	if log.Timestamp.IsZero() {
		log.Timestamp = time.Now()
	}

	query := `
		INSERT INTO sync_logs (id, enquiry_id, source, status, message, item_count, duration_ms, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.db.ExecContext(ctx, query,
		log.ID,
		log.EnquiryID,
		log.Source,
		log.Status,
		log.Message,
		log.ItemCount,
		log.DurationMs,
		log.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to record sync log: %w", err)
	}

	return nil
}

// ListByEnquiry returns recent fetch attempts for an enquiry, newest first.
func (r *SyncLogRepository) ListByEnquiry(ctx context.Context, enquiryID string, limit int) ([]models.SyncLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, enquiry_id, source, status, message, item_count, duration_ms, timestamp
		FROM sync_logs
		WHERE enquiry_id = $1
		ORDER BY timestamp DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, enquiryID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list sync logs: %w", err)
	}
	defer rows.Close()

	var logs []models.SyncLog
	for rows.Next() {
		var log models.SyncLog
		var message sql.NullString

		if err := rows.Scan(
			&log.ID,
			&log.EnquiryID,
			&log.Source,
			&log.Status,
			&message,
			&log.ItemCount,
			&log.DurationMs,
			&log.Timestamp,
		); err != nil {
			return nil, fmt.Errorf("failed to scan sync log: %w", err)
		}

		log.Message = message.String
		logs = append(logs, log)
	}

	return logs, rows.Err()
}

// PurgeOlderThan removes audit rows past their retention window.
func (r *SyncLogRepository) PurgeOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM sync_logs WHERE timestamp < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to purge sync logs: %w", err)
	}
	return result.RowsAffected()
}
