package log

import (
	"time"
)

// Event represents a protocol log event captured at any layer.
// CBOR encoding uses integer keys for compactness.
type Event struct {
	// Timestamp when the event occurred (nanosecond precision).
	Timestamp time.Time `cbor:"1,keyasint"`

	// SessionID uniquely identifies the session or discovery run (UUID).
	SessionID string `cbor:"2,keyasint"`

	// Direction indicates message flow.
	Direction Direction `cbor:"3,keyasint"`

	// Layer where the event was captured.
	Layer Layer `cbor:"4,keyasint"`

	// Category classifies the event type.
	Category Category `cbor:"5,keyasint"`

	// RemoteAddr is the appliance address (IP or IP:port).
	RemoteAddr string `cbor:"6,keyasint,omitempty"`

	// DeviceName is the appliance name, when known.
	DeviceName string `cbor:"7,keyasint,omitempty"`

	// Type-specific payload (one of these will be set).
	Message     *MessageEvent     `cbor:"10,keyasint,omitempty"` // HTTP layer
	StateChange *StateChangeEvent `cbor:"11,keyasint,omitempty"` // Session state
	Discovery   *DiscoveryEvent   `cbor:"12,keyasint,omitempty"` // mDNS results
	Error       *ErrorEventData   `cbor:"13,keyasint,omitempty"` // Errors at any layer
}

// Direction indicates the direction of message flow.
type Direction uint8

const (
	// DirectionIn indicates an incoming message.
	DirectionIn Direction = 0
	// DirectionOut indicates an outgoing message.
	DirectionOut Direction = 1
)

// String returns the direction name.
func (d Direction) String() string {
	switch d {
	case DirectionIn:
		return "IN"
	case DirectionOut:
		return "OUT"
	default:
		return "UNKNOWN"
	}
}

// Layer indicates which layer captured the event.
type Layer uint8

const (
	// LayerDiscovery is the mDNS/DNS-SD layer.
	LayerDiscovery Layer = 0
	// LayerHTTP is the HTTPS request layer.
	LayerHTTP Layer = 1
	// LayerSession is the authentication/session layer.
	LayerSession Layer = 2
)

// String returns the layer name.
func (l Layer) String() string {
	switch l {
	case LayerDiscovery:
		return "DISCOVERY"
	case LayerHTTP:
		return "HTTP"
	case LayerSession:
		return "SESSION"
	default:
		return "UNKNOWN"
	}
}

// Category classifies the event type.
type Category uint8

const (
	// CategoryMessage indicates a request or response.
	CategoryMessage Category = 0
	// CategoryState indicates a state change.
	CategoryState Category = 1
	// CategoryDiscovery indicates a discovery result.
	CategoryDiscovery Category = 2
	// CategoryError indicates an error event.
	CategoryError Category = 3
)

// String returns the category name.
func (c Category) String() string {
	switch c {
	case CategoryMessage:
		return "MESSAGE"
	case CategoryState:
		return "STATE"
	case CategoryDiscovery:
		return "DISCOVERY"
	case CategoryError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// MessageEvent captures one HTTP request or response exchanged with the appliance.
type MessageEvent struct {
	// Type distinguishes request from response.
	Type MessageType `cbor:"1,keyasint"`

	// Method is the HTTP method (PUT/POST).
	Method string `cbor:"2,keyasint"`

	// Endpoint is the request path, e.g. "/v1/user/essinfo/home".
	Endpoint string `cbor:"3,keyasint"`

	// Attempt is the one-based attempt number within one authenticated request.
	Attempt int `cbor:"4,keyasint,omitempty"`

	// For responses: the HTTP status code.
	StatusCode *int `cbor:"5,keyasint,omitempty"`

	// Payload is the redacted JSON body.
	Payload any `cbor:"6,keyasint,omitempty"`

	// Duration is the round-trip time (response only).
	Duration *time.Duration `cbor:"7,keyasint,omitempty"`
}

// MessageType distinguishes request/response.
type MessageType uint8

const (
	// MessageTypeRequest indicates a request message.
	MessageTypeRequest MessageType = 0
	// MessageTypeResponse indicates a response message.
	MessageTypeResponse MessageType = 1
)

// String returns the message type name.
func (m MessageType) String() string {
	switch m {
	case MessageTypeRequest:
		return "REQUEST"
	case MessageTypeResponse:
		return "RESPONSE"
	default:
		return "UNKNOWN"
	}
}

// StateChangeEvent captures session lifecycle events.
type StateChangeEvent struct {
	// OldState is the previous state (may be empty).
	OldState string `cbor:"1,keyasint,omitempty"`

	// NewState is the new state.
	NewState string `cbor:"2,keyasint"`

	// Reason for the change (if available).
	Reason string `cbor:"3,keyasint,omitempty"`
}

// DiscoveryEvent captures the outcome of a resolve or browse.
type DiscoveryEvent struct {
	// Operation is "resolve" or "browse".
	Operation string `cbor:"1,keyasint"`

	// Instance is the queried or observed instance name.
	Instance string `cbor:"2,keyasint,omitempty"`

	// Addresses are the addresses reported for Instance.
	Addresses []string `cbor:"3,keyasint,omitempty"`

	// Count is the number of advertisements collected (browse only).
	Count int `cbor:"4,keyasint,omitempty"`
}

// ErrorEventData captures errors at any layer.
type ErrorEventData struct {
	// Layer where the error occurred.
	Layer Layer `cbor:"1,keyasint"`

	// Message is the error message.
	Message string `cbor:"2,keyasint"`

	// Category is the esserr category name, when known.
	Category string `cbor:"3,keyasint,omitempty"`

	// Context describes what operation was being performed.
	Context string `cbor:"4,keyasint,omitempty"`
}
