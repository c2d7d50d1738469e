package catalog

import "encoding/json"

// hideParams removes the named parameters from a tool input schema: from
// the properties map and from the required list when present. All other
// schema fields pass through untouched. Unparseable schemas are returned
// as-is.
func hideParams(raw json.RawMessage, hidden map[string]struct{}) json.RawMessage {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return raw
	}

	changed := false
	if propsRaw, ok := obj["properties"]; ok {
		if props, ok := stripProperties(propsRaw, hidden); ok {
			obj["properties"] = props
			changed = true
		}
	}
	if reqRaw, ok := obj["required"]; ok {
		if req, ok := stripRequired(reqRaw, hidden); ok {
			obj["required"] = req
			changed = true
		}
	}
	if !changed {
		return raw
	}

	out, err := json.Marshal(obj)
	if err != nil {
		return raw
	}
	return out
}

func stripProperties(raw json.RawMessage, hidden map[string]struct{}) (json.RawMessage, bool) {
	var props map[string]json.RawMessage
	if err := json.Unmarshal(raw, &props); err != nil {
		return nil, false
	}
	for name := range hidden {
		delete(props, name)
	}
	out, err := json.Marshal(props)
	if err != nil {
		return nil, false
	}
	return out, true
}

// stripRequired filters hidden names out of the required list, preserving
// the declared order of the rest.
func stripRequired(raw json.RawMessage, hidden map[string]struct{}) (json.RawMessage, bool) {
	var required []string
	if err := json.Unmarshal(raw, &required); err != nil {
		return nil, false
	}
	kept := make([]string, 0, len(required))
	for _, name := range required {
		if _, drop := hidden[name]; drop {
			continue
		}
		kept = append(kept, name)
	}
	out, err := json.Marshal(kept)
	if err != nil {
		return nil, false
	}
	return out, true
}
