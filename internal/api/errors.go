package api

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrUnauthorized matches any *Error carrying HTTP 401.
var ErrUnauthorized = errors.New("unauthorized")

// Error is a non-2xx response from the collaborator.
type Error struct {
	Method     string
	Path       string
	StatusCode int
	// Detail is the server-supplied message from the "detail" field, if any.
	Detail string
	Body   string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("%s %s: HTTP %d: %s", e.Method, e.Path, e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("%s %s: HTTP %d", e.Method, e.Path, e.StatusCode)
}

// Is lets errors.Is(err, ErrUnauthorized) match 401 responses.
func (e *Error) Is(target error) bool {
	return target == ErrUnauthorized && e.StatusCode == http.StatusUnauthorized
}

// IsNotFound returns true if err is a 404 response.
func IsNotFound(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.StatusCode == http.StatusNotFound
}

// DetailOr returns the server-supplied detail carried by err, or fallback
// when err has none.
func DetailOr(err error, fallback string) string {
	var e *Error
	if errors.As(err, &e) && e.Detail != "" {
		return e.Detail
	}
	return fallback
}

// parseDetail extracts the "detail" convention from an error body. FastAPI
// sends either a string or a list of {loc, msg} objects for validation errors.
func parseDetail(body []byte) string {
	if !gjson.ValidBytes(body) {
		return ""
	}
	detail := gjson.GetBytes(body, "detail")
	switch {
	case !detail.Exists():
		if msg := gjson.GetBytes(body, "message"); msg.Type == gjson.String {
			return msg.String()
		}
		return ""
	case detail.Type == gjson.String:
		return detail.String()
	case detail.IsArray():
		var msgs []string
		for _, item := range detail.Array() {
			msg := item.Get("msg").String()
			if msg == "" {
				continue
			}
			if loc := item.Get("loc").Array(); len(loc) > 0 {
				msg = loc[len(loc)-1].String() + ": " + msg
			}
			msgs = append(msgs, msg)
		}
		return strings.Join(msgs, "; ")
	default:
		return detail.Raw
	}
}
