package errors

import (
	"net/http"
	"sort"
	"strings"

	"github.com/pkg/errors"
)

type Exception struct {
	Message    string
	StatusCode int
	Fields     map[string]string
	Err        error
}

func (e *Exception) Error() string {
	msg := e.Message
	if len(e.Fields) > 0 {
		msg += ": " + e.FieldSummary()
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Exception) Unwrap() error {
	return e.Err
}

// Is matches sentinels by message and status code, so an exception
// carrying fields or a cause still satisfies errors.Is against its sentinel.
func (e *Exception) Is(target error) bool {
	t, ok := target.(*Exception)
	if !ok {
		return false
	}
	return e.Message == t.Message && e.StatusCode == t.StatusCode
}

func (e *Exception) WithCause(err error) *Exception {
	c := *e
	c.Err = err
	return &c
}

func (e *Exception) WithFields(fields map[string]string) *Exception {
	c := *e
	c.Fields = fields
	return &c
}

// FieldSummary renders field errors in a stable order.
func (e *Exception) FieldSummary() string {
	names := make([]string, 0, len(e.Fields))
	for name := range e.Fields {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+e.Fields[name])
	}
	return strings.Join(parts, ", ")
}

func StatusCode(err error) int {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}
	return http.StatusInternalServerError
}

func AsException(err error) (*Exception, bool) {
	var appErr *Exception
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}
