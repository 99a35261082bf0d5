package client

import (
	"errors"
	"fmt"

	"github.com/astrasemi/qualitylens/internal/insight"
)

// User-visible fallback messages.
const (
	GenericErrorMessage = "An error occurred while processing your request."
	UnknownErrorMessage = "Unknown error"
	TimeoutMessage      = "The insight service did not respond in time."
)

// TransportError is returned when the request could not complete or the
// endpoint answered with a non-2xx status.
type TransportError struct {
	StatusCode int
	Message    string
	Err        error
}

func (e *TransportError) Error() string {
	if e == nil {
		return "transport error"
	}
	if e.StatusCode > 0 {
		return fmt.Sprintf("insight request failed: status %d: %s", e.StatusCode, e.Message)
	}
	if e.Err != nil {
		return fmt.Sprintf("insight request failed: %v", e.Err)
	}
	return "insight request failed: " + e.Message
}

func (e *TransportError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// ParseError is returned when a 2xx body is not valid JSON.
type ParseError struct {
	Message string
	Body    []byte
	Err     error
}

func (e *ParseError) Error() string {
	if e == nil || e.Err == nil {
		return "parse error"
	}
	return "decode insight response: " + e.Err.Error()
}

func (e *ParseError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Message resolves the text shown in the error panel for err.
func Message(err error) string {
	if err == nil {
		return ""
	}

	var verr *insight.ValidationError
	if errors.As(err, &verr) {
		return verr.Error()
	}
	var terr *TransportError
	if errors.As(err, &terr) && terr.Message != "" {
		return terr.Message
	}
	var perr *ParseError
	if errors.As(err, &perr) && perr.Message != "" {
		return perr.Message
	}
	return GenericErrorMessage
}
