package normalize

import (
	"encoding/json"
	"regexp"
)

// chapterIntroRe matches chapter-level introduction references like "3:intro".
var chapterIntroRe = regexp.MustCompile(`^\d+:intro$`)

// FilterBookChapterNotes drops book-level (front:intro) and chapter-level
// ({chapter}:intro) entries from a translation-notes payload, keeping
// verse-specific entries and all other payload fields untouched. Payloads
// without a note list pass through unchanged.
func FilterBookChapterNotes(payload json.RawMessage) json.RawMessage {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(payload, &top); err != nil {
		return payload
	}

	for _, key := range noteKeys {
		raw, ok := top[key]
		if !ok {
			continue
		}

		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			return payload
		}

		kept := make([]json.RawMessage, 0, len(items))
		for _, item := range items {
			if isIntroNote(item) {
				continue
			}
			kept = append(kept, item)
		}

		filtered, err := json.Marshal(kept)
		if err != nil {
			return payload
		}
		top[key] = filtered

		out, err := json.Marshal(top)
		if err != nil {
			return payload
		}
		return out
	}
	return payload
}

func isIntroNote(item json.RawMessage) bool {
	var fields struct {
		Reference string `json:"Reference"`
	}
	if err := json.Unmarshal(item, &fields); err != nil {
		return false
	}
	return fields.Reference == "front:intro" || chapterIntroRe.MatchString(fields.Reference)
}
