package models

import (
	"fmt"
	"strconv"
	"strings"
)

// ID is a backend record id. JSON:API documents carry ids as strings while
// attributes such as sender_id are numbers, so both forms decode.
type ID int64

func (id *ID) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		*id = 0
		return nil
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid id %q: %w", s, err)
	}
	*id = ID(n)
	return nil
}

func (id ID) String() string {
	return strconv.FormatInt(int64(id), 10)
}

func ParseID(s string) (ID, error) {
	n, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || n <= 0 {
		return 0, fmt.Errorf("invalid id %q", s)
	}
	return ID(n), nil
}
