package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// StatusError is returned when the server answers with a non-2xx status.
type StatusError struct {
	Method     string
	Path       string
	StatusCode int
	Body       string
}

func newStatusError(method, path string, code int, body []byte) *StatusError {
	return &StatusError{
		Method:     method,
		Path:       path,
		StatusCode: code,
		Body:       strings.TrimSpace(string(body)),
	}
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("%s %s returned status %d", e.Method, e.Path, e.StatusCode)
	}
	return fmt.Sprintf("%s %s returned status %d: %s", e.Method, e.Path, e.StatusCode, e.Body)
}

// RejectedError reports a start request the server refused with an error message.
type RejectedError struct {
	Message string
}

func (e *RejectedError) Error() string {
	return "Error: " + e.Message
}

// IsTransport reports whether err came from talking to the server, including
// undecodable response bodies.
func IsTransport(err error) bool {
	var (
		status  *StatusError
		urlErr  *url.Error
		syntax  *json.SyntaxError
		typeErr *json.UnmarshalTypeError
	)
	return errors.As(err, &status) ||
		errors.As(err, &urlErr) ||
		errors.As(err, &syntax) ||
		errors.As(err, &typeErr) ||
		errors.Is(err, io.EOF) ||
		errors.Is(err, io.ErrUnexpectedEOF)
}
