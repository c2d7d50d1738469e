// Package gateway implements the MCP server side of the proxy: a
// line-framed JSON-RPC 2.0 loop over stdio and the method handlers that
// translate MCP requests into upstream REST calls.
package gateway

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/translationhelps/helps-proxy/internal/audit"
	"github.com/translationhelps/helps-proxy/internal/store"
)

// Server is the MCP proxy server.
type Server struct {
	handler *handler
	mu      sync.Mutex // protects stdout writes
}

// ServerOption configures optional server features.
type ServerOption func(*handler)

// WithAudit enables session tracking and tool-call audit logging.
func WithAudit(sessions store.SessionStore, logger *audit.Logger) ServerOption {
	return func(h *handler) {
		h.sessions.store = sessions
		h.auditor = logger
	}
}

// WithBookChapterNoteFilter drops book- and chapter-level introduction
// notes from fetch_translation_notes responses before normalization.
func WithBookChapterNoteFilter() ServerOption {
	return func(h *handler) {
		h.filterBookNotes = true
	}
}

// NewServer creates a new MCP proxy server.
func NewServer(cat ToolCatalog, up UpstreamCaller, opts ...ServerOption) *Server {
	h := &handler{
		catalog:  cat,
		upstream: up,
		sessions: newSessionManager(nil),
	}
	for _, o := range opts {
		o(h)
	}
	return &Server{handler: h}
}

// RunStdio runs the MCP server over stdio (stdin/stdout).
func (s *Server) RunStdio(ctx context.Context) error {
	return s.run(ctx, os.Stdin, os.Stdout)
}

// RunConn runs the MCP server over an arbitrary reader/writer pair.
func (s *Server) RunConn(ctx context.Context, r io.Reader, w io.Writer) error {
	return s.run(ctx, r, w)
}

func (s *Server) run(ctx context.Context, r io.Reader, w io.Writer) error {
	defer s.handler.sessions.disconnect(context.WithoutCancel(ctx))

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 1024*1024), 1024*1024)

	for scanner.Scan() {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		resp, err := s.dispatch(ctx, line)
		if err != nil {
			return err
		}
		if resp == nil {
			continue // notification, no response needed
		}

		if err := s.writeResponse(w, resp); err != nil {
			return fmt.Errorf("write response: %w", err)
		}
	}
	return scanner.Err()
}

// dispatch routes one request line. The error return carries only control
// signals (cancellation) that must terminate the session; application
// faults are answered in-band.
func (s *Server) dispatch(ctx context.Context, line []byte) (*Response, error) {
	var req Request
	if err := json.Unmarshal(line, &req); err != nil {
		return &Response{
			JSONRPC: "2.0",
			Error: &RPCError{
				Code:    CodeParseError,
				Message: "invalid JSON: " + err.Error(),
			},
		}, nil
	}

	// Notifications have no ID; don't send a response.
	if req.ID == nil {
		s.handleNotification(req)
		return nil, nil
	}

	var result json.RawMessage
	var rpcErr *RPCError
	var err error

	switch req.Method {
	case "initialize":
		result, rpcErr = s.handler.handleInitialize(ctx, req.Params)
	case "ping":
		result, _ = json.Marshal(map[string]any{})
	case "tools/list":
		result, rpcErr, err = s.handler.handleToolsList(ctx)
	case "tools/call":
		result, rpcErr, err = s.handler.handleToolsCall(ctx, req.Params)
	default:
		rpcErr = &RPCError{
			Code:    CodeMethodNotFound,
			Message: fmt.Sprintf("unknown method: %s", req.Method),
		}
	}
	if err != nil {
		return nil, err
	}

	resp := &Response{JSONRPC: "2.0", ID: req.ID}
	if rpcErr != nil {
		resp.Error = rpcErr
	} else {
		resp.Result = result
	}
	return resp, nil
}

func (s *Server) handleNotification(req Request) {
	switch req.Method {
	case "notifications/initialized":
		slog.Info("client initialized")
	default:
		slog.Debug("unhandled notification", "method", req.Method)
	}
}

func (s *Server) writeResponse(w io.Writer, resp *Response) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = w.Write(data)
	return err
}
