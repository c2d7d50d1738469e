package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/translationhelps/helps-proxy/internal/audit"
	"github.com/translationhelps/helps-proxy/internal/catalog"
	"github.com/translationhelps/helps-proxy/internal/normalize"
	"github.com/translationhelps/helps-proxy/internal/store"
)

const (
	serverName      = "helps-proxy"
	serverVersion   = "1.0.0"
	protocolVersion = "2024-11-05"
)

// ToolCatalog decides which tools are advertised and callable.
type ToolCatalog interface {
	List(ctx context.Context) ([]catalog.Tool, error)
	IsEnabled(name string) bool
}

// UpstreamCaller dispatches a tool invocation to the upstream service.
type UpstreamCaller interface {
	CallTool(ctx context.Context, name string, args map[string]any) (json.RawMessage, error)
}

// handler contains the logic for each MCP method.
type handler struct {
	catalog         ToolCatalog
	upstream        UpstreamCaller
	sessions        *sessionManager
	auditor         *audit.Logger // nil = auditing disabled
	filterBookNotes bool
}

func (h *handler) handleInitialize(
	ctx context.Context, params json.RawMessage,
) (json.RawMessage, *RPCError) {
	var p InitializeParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: err.Error()}
	}

	h.sessions.create(ctx, p.ClientInfo)

	result := InitializeResult{
		ProtocolVersion: protocolVersion,
		Capabilities: ServerCapability{
			Tools: &ToolCapability{},
		},
		ServerInfo: ServerInfo{Name: serverName, Version: serverVersion},
	}

	data, err := json.Marshal(result)
	if err != nil {
		return nil, &RPCError{Code: CodeInternalError, Message: err.Error()}
	}
	return data, nil
}

// handleToolsList answers with the filtered upstream catalog. Any failure
// (upstream unreachable, allow-list validation) degrades to an empty tool
// list so the transport always gets a well-formed answer. Cancellation is
// the exception: it propagates via the error return.
func (h *handler) handleToolsList(
	ctx context.Context,
) (json.RawMessage, *RPCError, error) {
	tools, err := h.catalog.List(ctx)
	if err != nil {
		if isCancellation(err) {
			return nil, nil, err
		}
		slog.Error("list tools failed", "error", err)
		tools = nil
	}
	if tools == nil {
		tools = []catalog.Tool{}
	}
	slog.Info("advertising tools", "count", len(tools))

	data, err := json.Marshal(map[string]any{"tools": tools})
	if err != nil {
		return nil, &RPCError{Code: CodeInternalError, Message: err.Error()}, nil
	}
	return data, nil, nil
}

// handleToolsCall proxies one tool invocation: enabled check, endpoint
// routing, optional note filtering, then normalization. Upstream faults
// become a single descriptive text block; cancellation propagates.
func (h *handler) handleToolsCall(
	ctx context.Context, params json.RawMessage,
) (json.RawMessage, *RPCError, error) {
	start := time.Now()

	var req CallToolRequest
	if err := json.Unmarshal(params, &req); err != nil {
		return nil, &RPCError{Code: CodeInvalidParams, Message: err.Error()}, nil
	}

	var args map[string]any
	if len(req.Arguments) > 0 {
		if err := json.Unmarshal(req.Arguments, &args); err != nil {
			return nil, &RPCError{Code: CodeInvalidParams, Message: "arguments must be an object"}, nil
		}
	}

	slog.Info("calling tool", "tool", req.Name)

	// Disabled tools never reach the endpoint router.
	if !h.catalog.IsEnabled(req.Name) {
		slog.Warn("tool disabled by configuration", "tool", req.Name)
		result, rpcErr := textResult(fmt.Sprintf(
			"Tool '%s' is disabled. Enable it with --enabled-tools option.", req.Name))
		h.recordAudit(ctx, req.Name, req.Arguments, result, "tool disabled", start)
		return result, rpcErr, nil
	}

	payload, err := h.upstream.CallTool(ctx, req.Name, args)
	if err != nil {
		// Cancellation is a control signal, not an application error.
		if isCancellation(err) {
			return nil, nil, err
		}
		slog.Error("tool call failed", "tool", req.Name, "error", err)
		result, rpcErr := textResult(fmt.Sprintf("Error calling tool %s: %v", req.Name, err))
		h.recordAudit(ctx, req.Name, req.Arguments, result, err.Error(), start)
		return result, rpcErr, nil
	}

	if req.Name == "fetch_translation_notes" && h.filterBookNotes {
		payload = normalize.FilterBookChapterNotes(payload)
	}

	blocks := normalize.Payload(payload, stringArg(args, "reference"))
	content := make([]ToolContent, len(blocks))
	for i, b := range blocks {
		content[i] = ToolContent{Type: "text", Text: b.Text}
	}

	data, err := json.Marshal(CallToolResult{Content: content})
	if err != nil {
		return nil, &RPCError{Code: CodeInternalError, Message: err.Error()}, nil
	}
	h.recordAudit(ctx, req.Name, req.Arguments, data, "", start)
	return data, nil, nil
}

// recordAudit persists an audit record for a tool call. Audit failures are
// logged, never surfaced to the client.
func (h *handler) recordAudit(
	ctx context.Context,
	toolName string,
	params json.RawMessage,
	result json.RawMessage,
	errMsg string,
	start time.Time,
) {
	if h.auditor == nil {
		return
	}

	rec := &store.AuditRecord{
		Timestamp:      start,
		SessionID:      h.sessions.sessionID(),
		ClientType:     h.sessions.clientType(),
		ToolName:       toolName,
		ParamsRedacted: params,
		Status:         "success",
		LatencyMs:      int(time.Since(start).Milliseconds()),
		ResponseSize:   len(result),
	}
	if errMsg != "" {
		rec.Status = "error"
		rec.ErrorMessage = errMsg
	}

	if err := h.auditor.Record(ctx, rec); err != nil {
		slog.Error("audit record failed", "error", err)
	}
}

// textResult marshals a single-block text result.
func textResult(text string) (json.RawMessage, *RPCError) {
	data, err := json.Marshal(CallToolResult{
		Content: []ToolContent{{Type: "text", Text: text}},
	})
	if err != nil {
		return nil, &RPCError{Code: CodeInternalError, Message: err.Error()}
	}
	return data, nil
}

func isCancellation(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}

func stringArg(args map[string]any, key string) string {
	if s, ok := args[key].(string); ok {
		return s
	}
	return ""
}
