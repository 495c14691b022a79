package provider

import (
	"errors"
	"fmt"
)

// Reason explains why a fallback value was substituted.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonTransport Reason = "transport"
	ReasonStatus    Reason = "status"
	ReasonPayload   Reason = "payload"
)

// ErrEmptyPayload is returned when a source answers with no usable data.
var ErrEmptyPayload = errors.New("empty payload")

// StatusError is a non-2xx upstream response.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("status %d", e.Code)
	}
	return fmt.Sprintf("status %d, body: %s", e.Code, e.Body)
}

// PayloadError is a response that could not be decoded or failed validation.
type PayloadError struct {
	Msg string
	Err error
}

func (e *PayloadError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *PayloadError) Unwrap() error { return e.Err }

// Classify maps an error to a fallback reason.
func Classify(err error) Reason {
	if err == nil {
		return ReasonNone
	}
	var se *StatusError
	if errors.As(err, &se) {
		return ReasonStatus
	}
	var pe *PayloadError
	if errors.As(err, &pe) || errors.Is(err, ErrEmptyPayload) {
		return ReasonPayload
	}
	return ReasonTransport
}
