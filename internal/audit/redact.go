package audit

import (
	"encoding/json"
	"strings"
)

// redactPatterns are key substrings that trigger redaction. The upstream
// data itself is public, but argument bags from arbitrary clients can still
// carry credential-shaped keys.
var redactPatterns = []string{
	"token",
	"key",
	"secret",
	"password",
	"authorization",
	"cookie",
	"credential",
}

const redactedValue = "[REDACTED]"

// Redact replaces sensitive values in a JSON params object with [REDACTED],
// recursing into nested objects. Non-object input passes through unchanged.
func Redact(params json.RawMessage) json.RawMessage {
	if len(params) == 0 {
		return params
	}

	var obj map[string]json.RawMessage
	if err := json.Unmarshal(params, &obj); err != nil {
		return params
	}

	changed := false
	for key, val := range obj {
		if shouldRedact(key) {
			redacted, _ := json.Marshal(redactedValue)
			obj[key] = redacted
			changed = true
			continue
		}
		if nested := Redact(val); string(nested) != string(val) {
			obj[key] = nested
			changed = true
		}
	}

	if !changed {
		return params
	}

	result, err := json.Marshal(obj)
	if err != nil {
		return params
	}
	return result
}

func shouldRedact(key string) bool {
	lower := strings.ToLower(key)
	for _, pattern := range redactPatterns {
		if strings.Contains(lower, pattern) {
			return true
		}
	}
	return false
}
