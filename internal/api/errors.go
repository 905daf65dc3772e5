package api

import (
	"errors"
	"fmt"
	"net/http"
)

// NetworkError means the request never produced a response.
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("%s: network error: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ServerError is a non-success status, or a success status whose body
// reported an error field.
type ServerError struct {
	Op      string
	Status  int
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("%s: %s (status %d)", e.Op, e.Message, e.Status)
	}
	return fmt.Sprintf("%s: server returned status %d", e.Op, e.Status)
}

// ValidationError is raised on the client before any request is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func IsNotFound(err error) bool {
	var se *ServerError
	return errors.As(err, &se) && se.Status == http.StatusNotFound
}

func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// UserMessage turns an error into the short text shown in a notice: the
// server's own message when it sent one, otherwise a generic description.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var (
		ve *ValidationError
		se *ServerError
		ne *NetworkError
	)
	switch {
	case errors.As(err, &ve):
		return ve.Message
	case errors.As(err, &se):
		if se.Message != "" {
			return se.Message
		}
		if se.Status == http.StatusNotFound {
			return "not found"
		}
		return fmt.Sprintf("server error (%d)", se.Status)
	case errors.As(err, &ne):
		return "network error, check your connection"
	default:
		return err.Error()
	}
}
