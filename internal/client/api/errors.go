package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrBadRequest   = errors.New("bad request")
	ErrServer       = errors.New("server error")
)

// Error is a non-2xx answer from the API. It unwraps to one of the
// sentinel errors above so callers can use errors.Is.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("api: status %d", e.Status)
	}
	return fmt.Sprintf("api: status %d: %s", e.Status, e.Message)
}

func (e *Error) Unwrap() error {
	switch {
	case e.Status == http.StatusUnauthorized, e.Status == http.StatusForbidden:
		return ErrUnauthorized
	case e.Status == http.StatusNotFound:
		return ErrNotFound
	case e.Status == http.StatusConflict:
		return ErrConflict
	case e.Status >= 400 && e.Status < 500:
		return ErrBadRequest
	default:
		return ErrServer
	}
}

// errorFromResponse builds an *Error from a failed response body. A body
// that is not the {"message": ...} envelope is used verbatim.
func errorFromResponse(status int, body []byte) *Error {
	var m messageResponse
	if err := json.Unmarshal(body, &m); err == nil && m.Message != "" {
		return &Error{Status: status, Message: m.Message}
	}
	return &Error{Status: status, Message: strings.TrimSpace(string(body))}
}
