package ai

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// RemoteServiceError wraps a transport or provider failure of a remote model call.
type RemoteServiceError struct {
	Provider string
	Op       string
	Err      error
}

func (e *RemoteServiceError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("%s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Provider, e.Op, e.Err)
}

func (e *RemoteServiceError) Unwrap() error { return e.Err }

// MalformedResponseError means the remote call succeeded but its payload could not be decoded.
type MalformedResponseError struct {
	Raw string
	Err error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed model response: %v", e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

// Error classes reported in fallback audit logs.
const (
	ClassTimeout           = "timeout"
	ClassCanceled          = "canceled"
	ClassMalformedResponse = "malformed_response"
	ClassRemoteService     = "remote_service"
	ClassUnknown           = "unknown"
)

// ErrorClass maps err onto the fallback taxonomy. It returns "" for nil.
func ErrorClass(err error) string {
	if err == nil {
		return ""
	}

	var netErr net.Error
	var malformed *MalformedResponseError
	var remote *RemoteServiceError

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return ClassTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		return ClassTimeout
	case errors.Is(err, context.Canceled):
		return ClassCanceled
	case errors.As(err, &malformed):
		return ClassMalformedResponse
	case errors.As(err, &remote):
		return ClassRemoteService
	default:
		return ClassUnknown
	}
}
