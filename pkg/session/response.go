package session

import (
	"encoding/json"
	"fmt"

	"github.com/lgess-community/ess-go/pkg/esserr"
)

// Response is the raw answer of an authenticated request.
type Response struct {
	StatusCode int
	Body       json.RawMessage
}

// Decode unmarshals the body into v.
func (r *Response) Decode(v any) error {
	if err := json.Unmarshal(r.Body, v); err != nil {
		return esserr.Protocol("decode response", fmt.Errorf("invalid JSON body: %w", err))
	}
	return nil
}

// Map decodes the body as a JSON object.
func (r *Response) Map() (map[string]any, error) {
	var m map[string]any
	if err := r.Decode(&m); err != nil {
		return nil, err
	}
	return m, nil
}

// isAuthFailure reports whether the body is exactly the expired-token
// sentinel {"auth": "auth_key failed"}.
func (r *Response) isAuthFailure() bool {
	var m map[string]any
	if err := json.Unmarshal(r.Body, &m); err != nil {
		return false
	}
	return len(m) == 1 && m["auth"] == AuthFailedValue
}
