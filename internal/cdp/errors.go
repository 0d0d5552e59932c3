package cdp

import (
	"errors"
	"fmt"
)

// ErrConnectionClosed rejects every request still pending when its session is
// torn down. Callers can branch on it with errors.Is (retry on a closed
// connection, never on a schema error).
var ErrConnectionClosed = errors.New("connection closed")

// SchemaError reports caller-side misuse of the catalog: an unknown method or
// event, a missing required parameter, or a parameter the catalog does not
// declare. It is raised before anything is sent.
type SchemaError struct {
	Method string
	Reason string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("schema: %s: %s", e.Method, e.Reason)
}

// ProtocolViolation reports a remote frame that does not conform to the
// remote's own declared schema, or a frame that cannot be routed. Response
// path violations surface to the caller; out-of-band ones are logged and
// dropped.
type ProtocolViolation struct {
	Context string
	Reason  string
}

func (e *ProtocolViolation) Error() string {
	return fmt.Sprintf("protocol violation: %s: %s", e.Context, e.Reason)
}

// ListenerError wraps a panic raised by a single event listener. Listener
// failures are isolated per listener and aggregated, never fatal to dispatch.
type ListenerError struct {
	Subscription string
	Event        string
	Cause        interface{}
}

func (e *ListenerError) Error() string {
	return fmt.Sprintf("listener %s panicked on %s: %v", e.Subscription, e.Event, e.Cause)
}
