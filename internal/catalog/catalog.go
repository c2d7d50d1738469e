// Package catalog decides which upstream tools are advertised and callable,
// and what their declared input schemas look like.
package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// ErrUnknownTools indicates the enabled-tools allow-list names tools that do
// not exist in the upstream catalog. Fatal at startup or first catalog
// fetch, not retried.
var ErrUnknownTools = errors.New("unknown tools specified")

// Tool is a tool descriptor as advertised to the MCP client. The input
// schema is carried verbatim from upstream, except for hidden-parameter
// redaction.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// Lister fetches the raw upstream tool catalog.
type Lister interface {
	ListTools(ctx context.Context) (json.RawMessage, error)
}

// Filter filters the upstream catalog against an allow-list and redacts
// hidden parameters from tool schemas. Safe for concurrent use.
type Filter struct {
	upstream Lister
	enabled  map[string]struct{} // nil = all tools enabled
	hidden   map[string]struct{}

	// validated flips once the allow-list has been checked against a
	// successfully fetched catalog. Concurrent duplicate validations are
	// harmless; the first success wins.
	validated atomic.Bool
	group     singleflight.Group
}

// New creates a Filter. A nil enabled slice means all tools are enabled; an
// empty non-nil slice disables every tool.
func New(upstream Lister, enabled, hidden []string) *Filter {
	f := &Filter{upstream: upstream}
	if enabled != nil {
		f.enabled = make(map[string]struct{}, len(enabled))
		for _, name := range enabled {
			f.enabled[name] = struct{}{}
		}
	}
	if len(hidden) > 0 {
		f.hidden = make(map[string]struct{}, len(hidden))
		for _, name := range hidden {
			f.hidden[name] = struct{}{}
		}
	}
	return f
}

// IsEnabled reports whether a tool may be called. Exact, case-sensitive
// name match; no allow-list means everything is enabled.
func (f *Filter) IsEnabled(name string) bool {
	if f.enabled == nil {
		return true
	}
	_, ok := f.enabled[name]
	return ok
}

// List fetches the upstream catalog and applies the allow-list filter and
// hidden-parameter redaction. Every call makes a fresh upstream round trip;
// only concurrent duplicate fetches are coalesced.
func (f *Filter) List(ctx context.Context) ([]Tool, error) {
	v, err, _ := f.group.Do("tools/list", func() (any, error) {
		return f.upstream.ListTools(ctx)
	})
	if err != nil {
		return nil, fmt.Errorf("fetch upstream catalog: %w", err)
	}
	raw := v.(json.RawMessage)

	var parsed struct {
		Tools []Tool `json:"tools"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse upstream catalog: %w", err)
	}

	if err := f.Validate(parsed.Tools); err != nil {
		return nil, err
	}

	// Keep upstream order; filter only.
	out := make([]Tool, 0, len(parsed.Tools))
	for _, t := range parsed.Tools {
		if !f.IsEnabled(t.Name) {
			continue
		}
		if len(t.InputSchema) > 0 && f.hidden != nil {
			t.InputSchema = hideParams(t.InputSchema, f.hidden)
		}
		out = append(out, t)
	}
	return out, nil
}

// Validate checks the allow-list against a fetched catalog. The check runs
// until it first succeeds and is a no-op afterwards.
func (f *Filter) Validate(upstream []Tool) error {
	if f.enabled == nil || f.validated.Load() {
		return nil
	}

	known := make(map[string]struct{}, len(upstream))
	for _, t := range upstream {
		known[t.Name] = struct{}{}
	}

	var unknown []string
	for name := range f.enabled {
		if _, ok := known[name]; !ok {
			unknown = append(unknown, name)
		}
	}
	if len(unknown) > 0 {
		sort.Strings(unknown)
		return fmt.Errorf("%w: %s", ErrUnknownTools, strings.Join(unknown, ", "))
	}

	f.validated.Store(true)
	return nil
}
