package client

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinels for the three failure kinds of an API call. Use errors.Is.
var (
	ErrTransport = errors.New("transport failure")
	ErrStatus    = errors.New("unsuccessful status")
	ErrDecode    = errors.New("malformed response")
)

// TransportError means no HTTP response was received: no connectivity,
// timeout, refused connection, cancelled context.
type TransportError struct {
	Op  string
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

func (e *TransportError) Is(target error) bool { return target == ErrTransport }

// StatusError is a non-2xx response. Message is the server's {"error"} text
// when it sent one.
type StatusError struct {
	Op         string
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = http.StatusText(e.StatusCode)
	}
	return fmt.Sprintf("%s: %d %s", e.Op, e.StatusCode, msg)
}

func (e *StatusError) Is(target error) bool { return target == ErrStatus }

// DecodeError is a 2xx response whose body could not be understood.
type DecodeError struct {
	Op  string
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func (e *DecodeError) Is(target error) bool { return target == ErrDecode }

// StatusCode returns the HTTP status of a *StatusError in err's chain, or 0.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
