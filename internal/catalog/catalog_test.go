package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
)

type fakeLister struct {
	payload string
	err     error
	calls   atomic.Int32
}

func (f *fakeLister) ListTools(ctx context.Context) (json.RawMessage, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return json.RawMessage(f.payload), nil
}

const threeTools = `{"tools":[
	{"name":"fetch_scripture","description":"Fetch scripture text"},
	{"name":"fetch_translation_notes","description":"Fetch notes"},
	{"name":"get_context","description":"Get context"}
]}`

func names(tools []Tool) []string {
	out := make([]string, len(tools))
	for i, t := range tools {
		out[i] = t.Name
	}
	return out
}

func TestFilter_List_NilAllowListEnablesAll(t *testing.T) {
	f := New(&fakeLister{payload: threeTools}, nil, nil)

	tools, err := f.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tools) != 3 {
		t.Fatalf("got %d tools; want 3", len(tools))
	}
	if !f.IsEnabled("anything_at_all") {
		t.Error("nil allow-list should enable every tool")
	}
}

func TestFilter_List_EmptyAllowListDisablesAll(t *testing.T) {
	f := New(&fakeLister{payload: threeTools}, []string{}, nil)

	tools, err := f.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(tools) != 0 {
		t.Fatalf("got %d tools; want 0", len(tools))
	}
	if f.IsEnabled("fetch_scripture") {
		t.Error("empty allow-list should disable every tool")
	}
}

func TestFilter_List_FilterPreservesUpstreamOrder(t *testing.T) {
	f := New(&fakeLister{payload: threeTools}, []string{"get_context", "fetch_scripture"}, nil)

	tools, err := f.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	got := names(tools)
	if len(got) != 2 || got[0] != "fetch_scripture" || got[1] != "get_context" {
		t.Fatalf("names = %v; want upstream order [fetch_scripture get_context]", got)
	}
}

func TestFilter_List_UnknownToolsFatal(t *testing.T) {
	f := New(&fakeLister{payload: threeTools}, []string{"fetch_scripture", "zzz_bogus", "aaa_bogus"}, nil)

	_, err := f.List(context.Background())
	if !errors.Is(err, ErrUnknownTools) {
		t.Fatalf("err = %v; want ErrUnknownTools", err)
	}
	// Offenders are named, sorted.
	if !strings.Contains(err.Error(), "aaa_bogus, zzz_bogus") {
		t.Errorf("error does not name offenders in order: %v", err)
	}
}

func TestFilter_Validate_RunsOnce(t *testing.T) {
	f := New(&fakeLister{}, []string{"fetch_scripture"}, nil)

	catalog := []Tool{{Name: "fetch_scripture"}}
	if err := f.Validate(catalog); err != nil {
		t.Fatalf("first Validate: %v", err)
	}
	// After a success, a shrunken catalog no longer trips validation.
	if err := f.Validate([]Tool{}); err != nil {
		t.Fatalf("second Validate should be a no-op: %v", err)
	}
}

func TestFilter_Validate_RetriesUntilSuccess(t *testing.T) {
	f := New(&fakeLister{}, []string{"fetch_scripture"}, nil)

	if err := f.Validate([]Tool{{Name: "other"}}); !errors.Is(err, ErrUnknownTools) {
		t.Fatalf("err = %v; want ErrUnknownTools", err)
	}
	// Failure does not latch; a later good catalog validates.
	if err := f.Validate([]Tool{{Name: "fetch_scripture"}}); err != nil {
		t.Fatalf("Validate after failure: %v", err)
	}
}

func TestFilter_List_FetchErrorWrapped(t *testing.T) {
	wantErr := errors.New("boom")
	f := New(&fakeLister{err: wantErr}, nil, nil)

	_, err := f.List(context.Background())
	if !errors.Is(err, wantErr) {
		t.Fatalf("err = %v; want wrapped boom", err)
	}
}

func TestFilter_List_FreshFetchPerCall(t *testing.T) {
	lister := &fakeLister{payload: threeTools}
	f := New(lister, nil, nil)

	ctx := context.Background()
	if _, err := f.List(ctx); err != nil {
		t.Fatal(err)
	}
	if _, err := f.List(ctx); err != nil {
		t.Fatal(err)
	}
	if got := lister.calls.Load(); got != 2 {
		t.Fatalf("upstream calls = %d; want 2 (no caching between sequential calls)", got)
	}
}

func TestFilter_List_HidesParams(t *testing.T) {
	payload := `{"tools":[{"name":"fetch_scripture","inputSchema":{
		"type":"object",
		"properties":{"reference":{"type":"string"},"apiKey":{"type":"string"}},
		"required":["reference","apiKey"]
	}}]}`
	f := New(&fakeLister{payload: payload}, nil, []string{"apiKey"})

	tools, err := f.List(context.Background())
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	var schema struct {
		Properties map[string]json.RawMessage `json:"properties"`
		Required   []string                   `json:"required"`
	}
	if err := json.Unmarshal(tools[0].InputSchema, &schema); err != nil {
		t.Fatalf("unmarshal schema: %v", err)
	}
	if _, ok := schema.Properties["apiKey"]; ok {
		t.Error("apiKey should be removed from properties")
	}
	if _, ok := schema.Properties["reference"]; !ok {
		t.Error("reference should survive")
	}
	if len(schema.Required) != 1 || schema.Required[0] != "reference" {
		t.Errorf("required = %v; want [reference]", schema.Required)
	}
}
