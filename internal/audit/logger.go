// Package audit records proxied tool calls with parameter redaction.
package audit

import (
	"context"
	"fmt"

	"github.com/translationhelps/helps-proxy/internal/store"
)

// Logger writes audit records with parameter redaction.
type Logger struct {
	store store.AuditStore
}

// NewLogger creates an audit Logger backed by the given store.
func NewLogger(auditStore store.AuditStore) *Logger {
	return &Logger{store: auditStore}
}

// Record redacts sensitive parameters and inserts the audit record.
func (l *Logger) Record(ctx context.Context, rec *store.AuditRecord) error {
	if len(rec.ParamsRedacted) > 0 {
		rec.ParamsRedacted = Redact(rec.ParamsRedacted)
	}
	if err := l.store.InsertAuditRecord(ctx, rec); err != nil {
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}
