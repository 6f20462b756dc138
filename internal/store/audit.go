// ABOUTME: Append-only access log for export/archive forensics
// ABOUTME: Records which compliance operation touched what, with a filterable read path

package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Access log action names
const (
	AccessActionExport  = "export"
	AccessActionDryRun  = "dry_run"
	AccessActionDelete  = "delete"
	AccessActionSetHold = "set_legal_hold"
)

// RecordAccess appends an entry to the access log.
// Generates ID and CreatedAt if not set.
func (s *SQLiteStore) RecordAccess(ctx context.Context, rec *AccessRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	query := `
		INSERT INTO audit_access_log (id, accessor_id, target_type, target_id, action, result, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID,
		rec.AccessorID,
		rec.TargetType,
		rec.TargetID,
		rec.Action,
		nullString(rec.Result),
		rec.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("inserting access record: %w", err)
	}

	s.logger.Debug("recorded access",
		"id", rec.ID,
		"action", rec.Action,
		"target", rec.TargetType+"/"+rec.TargetID,
	)
	return nil
}

// normalizeAccessLimit applies default (100) and cap (1000) to access log limits.
func normalizeAccessLimit(limit int) int {
	switch {
	case limit <= 0:
		return 100
	case limit > 1000:
		return 1000
	default:
		return limit
	}
}

const accessLogQuery = `
	SELECT id, accessor_id, target_type, target_id, action, result, created_at
	FROM audit_access_log
	WHERE (? IS NULL OR target_type = ?)
	  AND (? IS NULL OR target_id = ?)
	  AND (? IS NULL OR action = ?)
	  AND (? IS NULL OR created_at >= ?)
	  AND (? IS NULL OR created_at <= ?)
	ORDER BY created_at DESC
	LIMIT ?
`

// ListAccessLog returns access records matching the filter criteria,
// newest first. The engine never calls this; it exists for forensic
// tooling and the CLI trail command.
func (s *SQLiteStore) ListAccessLog(ctx context.Context, f AccessFilter) ([]AccessRecord, error) {
	limit := normalizeAccessLimit(f.Limit)

	var sinceStr, untilStr *string
	if f.Since != nil {
		v := f.Since.UTC().Format(time.RFC3339)
		sinceStr = &v
	}
	if f.Until != nil {
		v := f.Until.UTC().Format(time.RFC3339)
		untilStr = &v
	}

	rows, err := s.db.QueryContext(ctx, accessLogQuery,
		f.TargetType, f.TargetType,
		f.TargetID, f.TargetID,
		f.Action, f.Action,
		sinceStr, sinceStr,
		untilStr, untilStr,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying access log: %w", err)
	}
	defer func() { _ = rows.Close() }()

	records := []AccessRecord{}
	for rows.Next() {
		var rec AccessRecord
		var result sql.NullString
		var createdAtStr string

		if err := rows.Scan(
			&rec.ID,
			&rec.AccessorID,
			&rec.TargetType,
			&rec.TargetID,
			&rec.Action,
			&result,
			&createdAtStr,
		); err != nil {
			return nil, fmt.Errorf("scanning access record: %w", err)
		}

		rec.Result = stringPtr(result)
		rec.CreatedAt, err = time.Parse(time.RFC3339, createdAtStr)
		if err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}

		records = append(records, rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating access records: %w", err)
	}
	return records, nil
}
