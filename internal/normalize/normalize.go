// Package normalize turns the upstream service's heterogeneous JSON response
// shapes into a uniform ordered sequence of text blocks.
package normalize

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Block is the atomic unit of a normalized tool result: plain text.
type Block struct {
	Text string
}

// shapeFn attempts to decode one known payload shape. It reports whether the
// shape matched; a match is final even when the decoded list was empty.
type shapeFn func(payload map[string]json.RawMessage, reference string) ([]Block, bool)

// shapes are tried in fixed priority order and the first match wins, never
// combined. `content` must always win when present: it is an
// already-normalized upstream response.
var shapes = []shapeFn{
	decodeContent,
	decodeScripture,
	decodeNotes,
	decodeWords,
	decodeSingleWord,
	decodeQuestions,
	decodeResult,
}

// Payload normalizes one successful upstream JSON payload into a non-empty
// ordered sequence of blocks. reference is the invocation's reference
// argument, used in section headers; empty means unknown. Normalization is
// pure: the same payload always yields the same blocks.
func Payload(payload json.RawMessage, reference string) []Block {
	if reference == "" {
		reference = "Reference"
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		// Non-object payload: fall through to the pretty-print fallback.
		return []Block{{Text: prettyJSON(payload)}}
	}

	for _, shape := range shapes {
		if blocks, ok := shape(top, reference); ok {
			return blocks
		}
	}
	return []Block{{Text: prettyJSON(payload)}}
}

// decodeContent handles upstream responses already in MCP content form.
// Only items with type "text" survive, order preserved.
func decodeContent(top map[string]json.RawMessage, _ string) ([]Block, bool) {
	raw, ok := top["content"]
	if !ok {
		return nil, false
	}
	var items []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, false
	}

	var blocks []Block
	for _, it := range items {
		if it.Type == "text" {
			blocks = append(blocks, Block{Text: it.Text})
		}
	}
	if len(blocks) == 0 {
		return []Block{{Text: "Empty response"}}, true
	}
	return blocks, true
}

func decodeScripture(top map[string]json.RawMessage, _ string) ([]Block, bool) {
	raw, ok := top["scripture"]
	if !ok {
		return nil, false
	}
	var entries []struct {
		Text        string `json:"text"`
		Translation string `json:"translation"`
	}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, false
	}
	if len(entries) == 0 {
		return []Block{{Text: "No scripture text found"}}, true
	}

	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteString("\n\n")
		}
		b.WriteString(e.Text)
		if e.Translation != "" {
			fmt.Fprintf(&b, " (%s)", e.Translation)
		}
	}
	return []Block{{Text: b.String()}}, true
}

// noteKeys are checked in order; the first key present selects the list.
var noteKeys = []string{"notes", "verseNotes", "items"}

func decodeNotes(top map[string]json.RawMessage, reference string) ([]Block, bool) {
	var raw json.RawMessage
	found := false
	for _, key := range noteKeys {
		if v, ok := top[key]; ok {
			raw = v
			found = true
			break
		}
	}
	if !found {
		return nil, false
	}

	var notes []json.RawMessage
	if err := json.Unmarshal(raw, &notes); err != nil {
		return nil, false
	}
	if len(notes) == 0 {
		return []Block{{Text: "No translation notes found for this reference."}}, true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Translation Notes for %s:\n\n", reference)
	for i, n := range notes {
		fmt.Fprintf(&b, "%d. %s\n\n", i+1, noteText(n))
	}
	return []Block{{Text: b.String()}}, true
}

// noteText extracts the first non-empty of the known note text fields,
// falling back to the item's JSON form.
func noteText(item json.RawMessage) string {
	var fields struct {
		UpperNote string `json:"Note"`
		Note      string `json:"note"`
		Text      string `json:"text"`
		Content   string `json:"content"`
	}
	if err := json.Unmarshal(item, &fields); err == nil {
		for _, s := range []string{fields.UpperNote, fields.Note, fields.Text, fields.Content} {
			if s != "" {
				return s
			}
		}
	}
	return string(item)
}

func decodeWords(top map[string]json.RawMessage, reference string) ([]Block, bool) {
	raw, ok := top["words"]
	if !ok {
		return nil, false
	}
	var words []struct {
		Term       string `json:"term"`
		Name       string `json:"name"`
		Definition string `json:"definition"`
		Content    string `json:"content"`
	}
	if err := json.Unmarshal(raw, &words); err != nil {
		return nil, false
	}
	if len(words) == 0 {
		return []Block{{Text: "No translation words found for this reference."}}, true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Translation Words for %s:\n\n", reference)
	for _, w := range words {
		term := firstNonEmpty(w.Term, w.Name, "Unknown Term")
		def := firstNonEmpty(w.Definition, w.Content, "No definition available")
		fmt.Fprintf(&b, "**%s**\n%s\n\n", term, def)
	}
	return []Block{{Text: b.String()}}, true
}

// decodeSingleWord handles the single translation-word shape, which has
// top-level term and definition instead of a words list.
func decodeSingleWord(top map[string]json.RawMessage, _ string) ([]Block, bool) {
	termRaw, okTerm := top["term"]
	defRaw, okDef := top["definition"]
	if !okTerm || !okDef {
		return nil, false
	}
	return []Block{{Text: fmt.Sprintf("**%s**\n%s", scalarText(termRaw), scalarText(defRaw))}}, true
}

func decodeQuestions(top map[string]json.RawMessage, reference string) ([]Block, bool) {
	raw, ok := top["questions"]
	if !ok {
		return nil, false
	}
	var questions []struct {
		Question      string `json:"question"`
		UpperQuestion string `json:"Question"`
		Answer        string `json:"answer"`
		UpperAnswer   string `json:"Answer"`
	}
	if err := json.Unmarshal(raw, &questions); err != nil {
		return nil, false
	}
	if len(questions) == 0 {
		return []Block{{Text: "No translation questions found for this reference."}}, true
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Translation Questions for %s:\n\n", reference)
	for i, q := range questions {
		question := firstNonEmpty(q.Question, q.UpperQuestion, "No question")
		answer := firstNonEmpty(q.Answer, q.UpperAnswer, "No answer")
		fmt.Fprintf(&b, "Q%d: %s\nA: %s\n\n", i+1, question, answer)
	}
	return []Block{{Text: b.String()}}, true
}

// decodeResult handles the wrapped-result shape: pretty JSON for objects,
// plain string form otherwise.
func decodeResult(top map[string]json.RawMessage, _ string) ([]Block, bool) {
	raw, ok := top["result"]
	if !ok {
		return nil, false
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err == nil {
		return []Block{{Text: prettyJSON(raw)}}, true
	}
	return []Block{{Text: scalarText(raw)}}, true
}

// scalarText renders a raw JSON value as display text: strings unquoted,
// everything else in its literal JSON form.
func scalarText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	return string(raw)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func prettyJSON(raw json.RawMessage) string {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return string(raw)
	}
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return string(raw)
	}
	return string(out)
}
