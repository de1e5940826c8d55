package backend

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
)

type Kind int

const (
	Transport Kind = iota
	AuthRequired
	Validation
	Forbidden
	NotFound
	Conflict
)

func (k Kind) String() string {
	switch k {
	case AuthRequired:
		return "auth_required"
	case Validation:
		return "validation"
	case Forbidden:
		return "forbidden"
	case NotFound:
		return "not_found"
	case Conflict:
		return "conflict"
	}
	return "transport"
}

// Error is a failed backend call. Fields holds per-field validation
// messages; Message the general one.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Fields  map[string][]string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("backend %s: %s: %v", e.Kind, e.Message, e.Err)
	}
	if e.Status != 0 {
		return fmt.Sprintf("backend %s (%d): %s", e.Kind, e.Status, e.Message)
	}
	return fmt.Sprintf("backend %s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// KindOf returns the kind of a backend error, or Transport for anything else.
func KindOf(err error) Kind {
	var be *Error
	if errors.As(err, &be) {
		return be.Kind
	}
	return Transport
}

func IsKind(err error, k Kind) bool {
	var be *Error
	return errors.As(err, &be) && be.Kind == k
}

func transportError(msg string, err error) *Error {
	return &Error{Kind: Transport, Message: msg, Err: err}
}

// decodeError maps a non-2xx response onto the error taxonomy. Bodies look
// like {"error":"..."}, {"errors":{"field":["..."]}} or {"errors":["..."]}.
func decodeError(status int, body []byte) *Error {
	e := &Error{Status: status}

	var payload struct {
		Error   string          `json:"error"`
		Message string          `json:"message"`
		Errors  json.RawMessage `json:"errors"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		e.Message = payload.Error
		if e.Message == "" {
			e.Message = payload.Message
		}
		fields, general := parseErrors(payload.Errors)
		e.Fields = fields
		if e.Message == "" && len(general) > 0 {
			e.Message = strings.Join(general, "\n")
		}
	}
	if e.Message == "" && len(e.Fields) > 0 {
		e.Message = flattenFields(e.Fields)
	}
	if e.Message == "" {
		e.Message = http.StatusText(status)
	}

	switch {
	case status == http.StatusUnauthorized:
		e.Kind = AuthRequired
	case status == http.StatusForbidden:
		e.Kind = Forbidden
	case status == http.StatusNotFound:
		e.Kind = NotFound
	case status == http.StatusConflict:
		e.Kind = Conflict
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		if len(e.Fields) > 0 {
			e.Kind = Validation
		} else {
			// a rejected action without field errors means its
			// precondition no longer holds on the server
			e.Kind = Conflict
		}
	default:
		e.Kind = Transport
	}
	return e
}

func parseErrors(raw json.RawMessage) (map[string][]string, []string) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var asMap map[string]json.RawMessage
	if err := json.Unmarshal(raw, &asMap); err == nil {
		fields := make(map[string][]string, len(asMap))
		for field, v := range asMap {
			var many []string
			if err := json.Unmarshal(v, &many); err == nil {
				fields[field] = many
				continue
			}
			var one string
			if err := json.Unmarshal(v, &one); err == nil {
				fields[field] = []string{one}
			}
		}
		return fields, nil
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return nil, list
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return nil, []string{one}
	}
	return nil, nil
}

func flattenFields(fields map[string][]string) string {
	names := make([]string, 0, len(fields))
	for name := range fields {
		names = append(names, name)
	}
	sort.Strings(names)
	var parts []string
	for _, name := range names {
		for _, msg := range fields[name] {
			parts = append(parts, name+" "+msg)
		}
	}
	return strings.Join(parts, "\n")
}
