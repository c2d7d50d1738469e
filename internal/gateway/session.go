package gateway

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/translationhelps/helps-proxy/internal/store"
)

// sessionManager tracks the current MCP client session. With a nil store,
// sessions exist only in memory for the connection lifetime.
type sessionManager struct {
	store   store.SessionStore
	session *store.Session
}

func newSessionManager(s store.SessionStore) *sessionManager {
	return &sessionManager{store: s}
}

func (sm *sessionManager) create(ctx context.Context, clientInfo ClientInfo) {
	sm.session = &store.Session{
		ID:            uuid.NewString(),
		ClientType:    clientInfo.Name,
		ClientVersion: clientInfo.Version,
	}
	if sm.store == nil {
		return
	}
	if err := sm.store.CreateSession(ctx, sm.session); err != nil {
		slog.Error("create session", "error", err)
	}
}

func (sm *sessionManager) disconnect(ctx context.Context) {
	if sm.session == nil || sm.store == nil {
		return
	}
	if err := sm.store.DisconnectSession(ctx, sm.session.ID); err != nil {
		slog.Warn("disconnect session", "id", sm.session.ID, "error", err)
	}
}

func (sm *sessionManager) sessionID() string {
	if sm.session == nil {
		return ""
	}
	return sm.session.ID
}

func (sm *sessionManager) clientType() string {
	if sm.session == nil {
		return ""
	}
	return sm.session.ClientType
}
