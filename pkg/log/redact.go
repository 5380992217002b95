package log

// RedactedValue replaces secret values in logged payloads.
const RedactedValue = "<redacted>"

// secretKeys are payload fields that must never reach a log sink.
var secretKeys = map[string]struct{}{
	"password": {},
	"auth_key": {},
	"key":      {},
}

// Redact returns a shallow copy of payload with secret fields replaced by
// RedactedValue. Nested maps are redacted recursively. A nil payload returns nil.
func Redact(payload map[string]any) map[string]any {
	if payload == nil {
		return nil
	}
	out := make(map[string]any, len(payload))
	for k, v := range payload {
		if _, secret := secretKeys[k]; secret {
			out[k] = RedactedValue
			continue
		}
		if nested, ok := v.(map[string]any); ok {
			out[k] = Redact(nested)
			continue
		}
		out[k] = v
	}
	return out
}
