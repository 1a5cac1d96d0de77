// Package apperr holds the API's error types and the classifier that turns
// any failure into an HTTP status, a stable code and a user-facing message.
package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// Stable error codes carried in failure envelopes.
const (
	CodeValidation    = "VALIDATION_FAILED"
	CodeNotFound      = "NOT_FOUND"
	CodeTrackNotFound = "TRACK_NOT_FOUND"
	CodeRaceNotFound  = "RACE_NOT_FOUND"
	CodeHorseNotFound = "HORSE_NOT_FOUND"
	CodeUnauthorized  = "UNAUTHORIZED"
	CodeForbidden     = "FORBIDDEN"
	CodeInternal      = "INTERNAL"
	CodeRequest       = "REQUEST_FAILED"
)

// ValidationError reports a request rejected before any database call.
type ValidationError struct {
	Message string
	Missing []string
	Invalid []string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// NotFoundError reports an explicit lookup that matched no row.
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found", e.Resource)
}

// Classification is the HTTP-facing view of an error.
type Classification struct {
	Status  int
	Code    string
	Message string
}

// Internal reports whether the error was not attributable to the request.
func (c Classification) Internal() bool {
	return c.Status >= http.StatusInternalServerError
}

// businessRules are checked in order against the database message; the first
// match wins. Matching is case-sensitive.
var businessRules = []struct {
	substr string
	code   string
}{
	{"Track does not exist", CodeTrackNotFound},
	{"Race does not exist", CodeRaceNotFound},
	{"Horse does not exist", CodeHorseNotFound},
}

// Classify maps err to a status, code and message. Unrecognised errors are
// 500s that keep their original message.
func Classify(err error) Classification {
	var verr *ValidationError
	if errors.As(err, &verr) {
		return Classification{Status: http.StatusBadRequest, Code: CodeValidation, Message: verr.Message}
	}
	var nf *NotFoundError
	if errors.As(err, &nf) {
		return Classification{Status: http.StatusNotFound, Code: CodeNotFound, Message: nf.Error()}
	}

	msg := Message(err)
	for _, r := range businessRules {
		if strings.Contains(msg, r.substr) {
			return Classification{Status: http.StatusBadRequest, Code: r.code, Message: r.substr}
		}
	}
	return Classification{Status: http.StatusInternalServerError, Code: CodeInternal, Message: msg}
}

// Message returns the human-readable part of err. For MySQL server errors
// that is the server message without the "Error 1644 (45000): " prefix.
func Message(err error) string {
	if err == nil {
		return ""
	}
	var myErr *mysql.MySQLError
	if errors.As(err, &myErr) {
		return myErr.Message
	}
	return err.Error()
}

// CodeForStatus picks the envelope code for a bare HTTP status, as raised by
// the router or middleware rather than by a classified error.
func CodeForStatus(status int) string {
	switch {
	case status == http.StatusBadRequest:
		return CodeValidation
	case status == http.StatusUnauthorized:
		return CodeUnauthorized
	case status == http.StatusForbidden:
		return CodeForbidden
	case status == http.StatusNotFound:
		return CodeNotFound
	case status >= http.StatusInternalServerError:
		return CodeInternal
	default:
		return CodeRequest
	}
}
