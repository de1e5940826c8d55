package models

import "encoding/json"

// Cursor is an opaque pagination token issued by the backend. It is only
// ever handed back unmodified on the next request.
type Cursor struct {
	token string
}

func (c Cursor) IsZero() bool {
	return c.token == ""
}

// QueryValue is the form the backend expects in the "before" parameter.
func (c Cursor) QueryValue() string {
	return c.token
}

func (c Cursor) MarshalJSON() ([]byte, error) {
	if c.token == "" {
		return []byte("null"), nil
	}
	return json.Marshal(c.token)
}

func (c *Cursor) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		c.token = ""
		return nil
	}
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case string:
		c.token = v
	case nil, bool:
		c.token = ""
	default:
		// numeric cursors are still opaque; keep their literal text
		c.token = string(b)
	}
	return nil
}

type CursorPage[T any] struct {
	Data       []T    `json:"data"`
	NextCursor Cursor `json:"next_cursor"`
}

// NewCursor wraps a token received from the backend.
func NewCursor(token string) Cursor {
	return Cursor{token: token}
}
