package sqlite

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/translationhelps/helps-proxy/internal/store"
)

func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(context.Background(), filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDB_SessionLifecycle(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	s := &store.Session{ClientType: "claude-desktop", ClientVersion: "1.2"}
	if err := db.CreateSession(ctx, s); err != nil {
		t.Fatalf("CreateSession: %v", err)
	}
	if s.ID == "" {
		t.Fatal("CreateSession did not assign an ID")
	}

	got, err := db.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if got.ClientType != "claude-desktop" || got.ClientVersion != "1.2" {
		t.Errorf("session = %+v", got)
	}
	if got.DisconnectedAt != nil {
		t.Error("new session should not be disconnected")
	}

	if err := db.DisconnectSession(ctx, s.ID); err != nil {
		t.Fatalf("DisconnectSession: %v", err)
	}
	got, err = db.GetSession(ctx, s.ID)
	if err != nil {
		t.Fatalf("GetSession after disconnect: %v", err)
	}
	if got.DisconnectedAt == nil {
		t.Error("disconnected_at not set")
	}

	// Double disconnect is a no-op miss.
	if err := db.DisconnectSession(ctx, s.ID); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("second disconnect err = %v; want ErrNotFound", err)
	}
}

func TestDB_GetSession_NotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.GetSession(context.Background(), "missing"); !errors.Is(err, store.ErrNotFound) {
		t.Fatalf("err = %v; want ErrNotFound", err)
	}
}

func TestDB_CleanupStaleSessions(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	old := &store.Session{ConnectedAt: time.Now().Add(-48 * time.Hour)}
	fresh := &store.Session{}
	if err := db.CreateSession(ctx, old); err != nil {
		t.Fatal(err)
	}
	if err := db.CreateSession(ctx, fresh); err != nil {
		t.Fatal(err)
	}

	n, err := db.CleanupStaleSessions(ctx, time.Now().Add(-24*time.Hour))
	if err != nil {
		t.Fatalf("CleanupStaleSessions: %v", err)
	}
	if n != 1 {
		t.Fatalf("cleaned %d; want 1", n)
	}

	got, _ := db.GetSession(ctx, fresh.ID)
	if got.DisconnectedAt != nil {
		t.Error("fresh session was cleaned up")
	}
}

func TestDB_AuditRecords(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	records := []*store.AuditRecord{
		{ToolName: "fetch_scripture", Status: "success", LatencyMs: 100,
			ParamsRedacted: json.RawMessage(`{"reference":"John 3:16"}`)},
		{ToolName: "fetch_scripture", Status: "error", LatencyMs: 300,
			ErrorMessage: "upstream unavailable"},
		{ToolName: "get_context", Status: "success", LatencyMs: 200},
	}
	for _, r := range records {
		if err := db.InsertAuditRecord(ctx, r); err != nil {
			t.Fatalf("InsertAuditRecord: %v", err)
		}
	}

	// Unfiltered query.
	got, total, err := db.QueryAuditRecords(ctx, store.AuditFilter{})
	if err != nil {
		t.Fatalf("QueryAuditRecords: %v", err)
	}
	if total != 3 || len(got) != 3 {
		t.Fatalf("total = %d, len = %d; want 3, 3", total, len(got))
	}

	// Tool filter.
	got, total, err = db.QueryAuditRecords(ctx, store.AuditFilter{ToolName: "fetch_scripture"})
	if err != nil {
		t.Fatal(err)
	}
	if total != 2 {
		t.Errorf("tool filter total = %d; want 2", total)
	}

	// Status filter.
	got, _, err = db.QueryAuditRecords(ctx, store.AuditFilter{Status: "error"})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0].ErrorMessage != "upstream unavailable" {
		t.Errorf("status filter = %+v", got)
	}

	// Limit.
	got, total, err = db.QueryAuditRecords(ctx, store.AuditFilter{Limit: 2})
	if err != nil {
		t.Fatal(err)
	}
	if total != 3 || len(got) != 2 {
		t.Errorf("limit: total = %d, len = %d; want 3, 2", total, len(got))
	}
}

func TestDB_AuditRecord_RoundTrip(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	r := &store.AuditRecord{
		SessionID:      "sess-1",
		ClientType:     "test",
		ToolName:       "fetch_translation_notes",
		ParamsRedacted: json.RawMessage(`{"reference":"Titus 1:1"}`),
		Status:         "success",
		LatencyMs:      42,
		ResponseSize:   1234,
	}
	if err := db.InsertAuditRecord(ctx, r); err != nil {
		t.Fatalf("InsertAuditRecord: %v", err)
	}

	got, _, err := db.QueryAuditRecords(ctx, store.AuditFilter{})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 {
		t.Fatalf("len = %d; want 1", len(got))
	}
	rec := got[0]
	if rec.SessionID != "sess-1" || rec.ToolName != "fetch_translation_notes" {
		t.Errorf("record = %+v", rec)
	}
	if rec.LatencyMs != 42 || rec.ResponseSize != 1234 {
		t.Errorf("latency/size = %d/%d", rec.LatencyMs, rec.ResponseSize)
	}
	if string(rec.ParamsRedacted) != `{"reference":"Titus 1:1"}` {
		t.Errorf("params = %s", rec.ParamsRedacted)
	}
	if rec.Timestamp.IsZero() || rec.CreatedAt.IsZero() {
		t.Error("timestamps not defaulted on insert")
	}
}

func TestDB_GetAuditStats(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, r := range []*store.AuditRecord{
		{ToolName: "a", Status: "success", LatencyMs: 100},
		{ToolName: "b", Status: "success", LatencyMs: 200},
		{ToolName: "c", Status: "error", LatencyMs: 600},
	} {
		if err := db.InsertAuditRecord(ctx, r); err != nil {
			t.Fatal(err)
		}
	}

	stats, err := db.GetAuditStats(ctx, time.Now().Add(-time.Hour), time.Now().Add(time.Hour))
	if err != nil {
		t.Fatalf("GetAuditStats: %v", err)
	}
	if stats.TotalRequests != 3 || stats.SuccessCount != 2 || stats.ErrorCount != 1 {
		t.Errorf("stats = %+v", stats)
	}
	if stats.AvgLatencyMs != 300 {
		t.Errorf("avg latency = %v; want 300", stats.AvgLatencyMs)
	}
}

func TestDB_MigrateIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "reopen.db")
	ctx := context.Background()

	db, err := New(ctx, path)
	if err != nil {
		t.Fatalf("first open: %v", err)
	}
	s := &store.Session{ClientType: "t"}
	if err := db.CreateSession(ctx, s); err != nil {
		t.Fatal(err)
	}
	db.Close()

	db, err = New(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()
	if _, err := db.GetSession(ctx, s.ID); err != nil {
		t.Fatalf("data lost across reopen: %v", err)
	}
}
