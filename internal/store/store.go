package store

import (
	"context"
	"time"
)

// Store is the composite interface for all data access.
type Store interface {
	SessionStore
	AuditStore
	Ping(ctx context.Context) error
	Close() error
}

// SessionStore manages session records.
type SessionStore interface {
	CreateSession(ctx context.Context, s *Session) error
	GetSession(ctx context.Context, id string) (*Session, error)
	DisconnectSession(ctx context.Context, id string) error
	CleanupStaleSessions(ctx context.Context, before time.Time) (int, error)
}

// AuditStore manages audit log records.
type AuditStore interface {
	InsertAuditRecord(ctx context.Context, r *AuditRecord) error
	QueryAuditRecords(ctx context.Context, f AuditFilter) ([]AuditRecord, int, error)
	GetAuditStats(ctx context.Context, after, before time.Time) (*AuditStats, error)
}
