package sqlite

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/translationhelps/helps-proxy/internal/store"
)

func (d *DB) InsertAuditRecord(ctx context.Context, r *store.AuditRecord) error {
	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO audit_records
			(id, timestamp, session_id, client_type, tool_name,
			 params_redacted, status, error_message, latency_ms,
			 response_size, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ID, formatTime(r.Timestamp), r.SessionID, r.ClientType, r.ToolName,
		normalizeJSON(r.ParamsRedacted, "{}"), r.Status, r.ErrorMessage,
		r.LatencyMs, r.ResponseSize, formatTime(r.CreatedAt),
	)
	return err
}

func (d *DB) QueryAuditRecords(
	ctx context.Context, f store.AuditFilter,
) ([]store.AuditRecord, int, error) {
	where := " WHERE 1=1"
	var args []any
	if f.ToolName != "" {
		where += " AND tool_name = ?"
		args = append(args, f.ToolName)
	}
	if f.Status != "" {
		where += " AND status = ?"
		args = append(args, f.Status)
	}

	var total int
	if err := d.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM audit_records"+where, args...,
	).Scan(&total); err != nil {
		return nil, 0, err
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, timestamp, session_id, client_type, tool_name,
			params_redacted, status, error_message, latency_ms,
			response_size, created_at
		FROM audit_records`+where+`
		ORDER BY timestamp DESC LIMIT ? OFFSET ?`,
		append(args, limit, f.Offset)...,
	)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var out []store.AuditRecord
	for rows.Next() {
		var r store.AuditRecord
		var ts, created, params string
		if err := rows.Scan(
			&r.ID, &ts, &r.SessionID, &r.ClientType, &r.ToolName,
			&params, &r.Status, &r.ErrorMessage, &r.LatencyMs,
			&r.ResponseSize, &created,
		); err != nil {
			return nil, 0, err
		}
		r.Timestamp = parseTime(ts)
		r.CreatedAt = parseTime(created)
		r.ParamsRedacted = []byte(params)
		out = append(out, r)
	}
	return out, total, rows.Err()
}

func (d *DB) GetAuditStats(
	ctx context.Context, after, before time.Time,
) (*store.AuditStats, error) {
	var s store.AuditStats
	err := d.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COUNT(*) FILTER (WHERE status = 'success'),
			COUNT(*) FILTER (WHERE status = 'error'),
			COALESCE(AVG(latency_ms), 0)
		FROM audit_records
		WHERE timestamp >= ? AND timestamp <= ?`,
		formatTime(after), formatTime(before),
	).Scan(&s.TotalRequests, &s.SuccessCount, &s.ErrorCount, &s.AvgLatencyMs)
	if err != nil {
		return nil, err
	}
	return &s, nil
}
