package upstream

import "errors"

var (
	// ErrUnavailable indicates the upstream returned a non-200 status or the
	// request failed at the transport level (including timeouts).
	ErrUnavailable = errors.New("upstream unavailable")

	// ErrMalformedPayload indicates the upstream returned 200 with a body
	// that is not valid JSON.
	ErrMalformedPayload = errors.New("malformed upstream payload")
)
