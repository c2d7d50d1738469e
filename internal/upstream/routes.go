package upstream

import (
	"fmt"
	"net/url"
	"strconv"
)

// Route maps a tool name to a direct REST endpoint on the upstream service.
// Params lists the argument keys admitted as query parameters; everything
// else in the invocation is dropped. Tools without a Route take the generic
// POST fallback to the upstream MCP endpoint.
type Route struct {
	Path   string
	Params []string
}

// routes is the static tool→endpoint table. Admitted params are copied 1:1
// from the identically-named argument key when present.
var routes = map[string]Route{
	"fetch_scripture": {
		Path:   "/api/fetch-scripture",
		Params: []string{"reference", "language", "organization"},
	},
	"fetch_translation_notes": {
		Path:   "/api/translation-notes",
		Params: []string{"reference", "language", "organization"},
	},
	"fetch_translation_questions": {
		Path:   "/api/translation-questions",
		Params: []string{"reference", "language", "organization"},
	},
	"get_translation_word": {
		Path:   "/api/fetch-translation-words",
		Params: []string{"reference", "wordId", "language", "organization"},
	},
	"fetch_translation_words": {
		Path:   "/api/fetch-translation-words",
		Params: []string{"reference", "wordId", "language", "organization"},
	},
	"browse_translation_words": {
		Path:   "/api/browse-translation-words",
		Params: []string{"language", "organization", "category", "search", "limit"},
	},
	"get_context": {
		Path:   "/api/get-context",
		Params: []string{"reference", "language", "organization"},
	},
	"extract_references": {
		Path:   "/api/extract-references",
		Params: []string{"text", "includeContext"},
	},
}

// RouteFor returns the direct endpoint route for a tool name, if one exists.
func RouteFor(name string) (Route, bool) {
	r, ok := routes[name]
	return r, ok
}

// Query builds the query string for a route from an argument map. Only keys
// admitted by the route and present in args are forwarded.
func (r Route) Query(args map[string]any) url.Values {
	q := url.Values{}
	for _, p := range r.Params {
		v, ok := args[p]
		if !ok {
			continue
		}
		q.Set(p, queryValue(v))
	}
	return q
}

// queryValue renders a JSON scalar as a query parameter value.
func queryValue(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case nil:
		return ""
	default:
		return fmt.Sprintf("%v", t)
	}
}
