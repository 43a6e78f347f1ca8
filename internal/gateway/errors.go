package gateway

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// Gateway error kinds. Match them with errors.Is.
var (
	ErrTimeout          = errors.New("device request timed out")
	ErrUnreachable      = errors.New("device unreachable")
	ErrMalformedPayload = errors.New("malformed device payload")
)

// GatewayError describes a failed gateway operation.
type GatewayError struct {
	Op   string // "pump_command", "fetch_status", ...
	Kind error  // one of ErrTimeout, ErrUnreachable, ErrMalformedPayload
	Err  error  // underlying cause, may be nil
}

func (e *GatewayError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%s: %v", e.Op, e.Kind)
	}
	return fmt.Sprintf("%s: %v: %v", e.Op, e.Kind, e.Err)
}

func (e *GatewayError) Unwrap() []error {
	return []error{e.Kind, e.Err}
}

func newError(op string, kind, cause error) *GatewayError {
	return &GatewayError{Op: op, Kind: kind, Err: cause}
}

// fromTransport classifies a transport failure as a timeout or an unreachable device.
func fromTransport(op string, err error) *GatewayError {
	if errors.Is(err, context.DeadlineExceeded) {
		return newError(op, ErrTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return newError(op, ErrTimeout, err)
	}
	return newError(op, ErrUnreachable, err)
}

// KindName returns a short machine-readable name for a gateway error, or "" for other errors.
func KindName(err error) string {
	switch {
	case errors.Is(err, ErrTimeout):
		return "timeout"
	case errors.Is(err, ErrUnreachable):
		return "unreachable"
	case errors.Is(err, ErrMalformedPayload):
		return "malformed_payload"
	}
	return ""
}
