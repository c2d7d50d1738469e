package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/translationhelps/helps-proxy/internal/store"
)

func (d *DB) CreateSession(ctx context.Context, s *store.Session) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	if s.ConnectedAt.IsZero() {
		s.ConnectedAt = time.Now().UTC()
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO sessions
			(id, client_type, client_version, connected_at, disconnected_at)
		VALUES (?, ?, ?, ?, ?)`,
		s.ID, s.ClientType, s.ClientVersion,
		formatTime(s.ConnectedAt), formatTimePtr(s.DisconnectedAt),
	)
	return err
}

func (d *DB) GetSession(ctx context.Context, id string) (*store.Session, error) {
	row := d.db.QueryRowContext(ctx, `
		SELECT id, client_type, client_version, connected_at, disconnected_at
		FROM sessions WHERE id = ?`, id)

	var s store.Session
	var connectedAt string
	var disconnectedAt *string
	err := row.Scan(&s.ID, &s.ClientType, &s.ClientVersion, &connectedAt, &disconnectedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	s.ConnectedAt = parseTime(connectedAt)
	s.DisconnectedAt = parseTimePtr(disconnectedAt)
	return &s, nil
}

func (d *DB) DisconnectSession(ctx context.Context, id string) error {
	res, err := d.db.ExecContext(ctx, `
		UPDATE sessions SET disconnected_at = ?
		WHERE id = ? AND disconnected_at IS NULL`,
		formatTime(time.Now()), id,
	)
	if err != nil {
		return err
	}
	return checkRowsAffected(res)
}

func (d *DB) CleanupStaleSessions(ctx context.Context, before time.Time) (int, error) {
	res, err := d.db.ExecContext(ctx, `
		UPDATE sessions SET disconnected_at = connected_at
		WHERE disconnected_at IS NULL AND connected_at < ?`,
		formatTime(before),
	)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
