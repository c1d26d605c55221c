package gateway

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnavailable    = errors.New("server unavailable")
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidBaseURL = errors.New("invalid server url")
)

// NetworkError means the request never produced an HTTP response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: %s: %v", e.Op, ErrUnavailable, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

func (e *NetworkError) Is(target error) bool { return target == ErrUnavailable }

// RejectedError is a non-success response other than 401/403.
type RejectedError struct {
	Op     string
	Status int
	Detail string
}

func (e *RejectedError) Error() string {
	return fmt.Sprintf("%s: %s: %s", e.Op, statusLine(e.Status), e.Detail)
}

// AuthExpiredError is a 401/403 response. By the time it is returned the
// session has already been logged out.
type AuthExpiredError struct {
	Op     string
	Status int
	Detail string
}

func (e *AuthExpiredError) Error() string {
	msg := fmt.Sprintf("%s: %s: session expired, log in again", e.Op, statusLine(e.Status))
	if e.Detail != "" {
		msg += " (" + e.Detail + ")"
	}
	return msg
}

func (e *AuthExpiredError) Is(target error) bool { return target == ErrUnauthorized }

// MalformedResponseError is a success response whose body could not be
// understood.
type MalformedResponseError struct {
	Op     string
	Status int
	Err    error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("%s: malformed response (%s): %v", e.Op, statusLine(e.Status), e.Err)
}

func (e *MalformedResponseError) Unwrap() error { return e.Err }

func statusLine(code int) string {
	if t := http.StatusText(code); t != "" {
		return fmt.Sprintf("%d %s", code, t)
	}
	return fmt.Sprintf("status %d", code)
}

// genericDetail is used when the server sent no usable detail.
func genericDetail(code int) string {
	switch {
	case code == http.StatusBadRequest:
		return "the request was rejected"
	case code == http.StatusNotFound:
		return "not found"
	case code == http.StatusConflict:
		return "conflicts with the current state"
	case code == http.StatusUnprocessableEntity:
		return "invalid input"
	case code >= 500:
		return "server error, try again later"
	default:
		if t := http.StatusText(code); t != "" {
			return strings.ToLower(t)
		}
		return "request failed"
	}
}
