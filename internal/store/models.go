package store

import (
	"encoding/json"
	"time"
)

// Session represents one MCP client connection.
type Session struct {
	ID             string     `json:"id"`
	ClientType     string     `json:"client_type"`
	ClientVersion  string     `json:"client_version"`
	ConnectedAt    time.Time  `json:"connected_at"`
	DisconnectedAt *time.Time `json:"disconnected_at,omitempty"`
}

// AuditRecord is one proxied tool call.
type AuditRecord struct {
	ID             string          `json:"id"`
	Timestamp      time.Time       `json:"timestamp"`
	SessionID      string          `json:"session_id"`
	ClientType     string          `json:"client_type"`
	ToolName       string          `json:"tool_name"`
	ParamsRedacted json.RawMessage `json:"params_redacted,omitempty"`
	Status         string          `json:"status"` // "success" or "error"
	ErrorMessage   string          `json:"error_message,omitempty"`
	LatencyMs      int             `json:"latency_ms"`
	ResponseSize   int             `json:"response_size"`
	CreatedAt      time.Time       `json:"created_at"`
}

// AuditFilter narrows audit queries.
type AuditFilter struct {
	ToolName string
	Status   string
	Limit    int
	Offset   int
}

// AuditStats summarizes proxied calls over a time window.
type AuditStats struct {
	TotalRequests int     `json:"total_requests"`
	SuccessCount  int     `json:"success_count"`
	ErrorCount    int     `json:"error_count"`
	AvgLatencyMs  float64 `json:"avg_latency_ms"`
}
