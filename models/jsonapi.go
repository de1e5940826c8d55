package models

import (
	"encoding/json"
	"fmt"
)

// The backend answers either with flat objects ({"data":[{...}]}) or with
// JSON:API resources ({"data":[{"id":..,"attributes":{..}}]}). The decoders
// below accept both and always hand back flat structs.

type document struct {
	Data       json.RawMessage `json:"data"`
	NextCursor *Cursor         `json:"next_cursor"`
	Meta       struct {
		NextCursor *Cursor `json:"next_cursor"`
	} `json:"meta"`
}

func (d *document) nextCursor() Cursor {
	if d.NextCursor != nil && !d.NextCursor.IsZero() {
		return *d.NextCursor
	}
	if d.Meta.NextCursor != nil {
		return *d.Meta.NextCursor
	}
	return Cursor{}
}

// decodeResource fills dst from either shape and returns the resource meta.
func decodeResource(raw json.RawMessage, dst any) (json.RawMessage, error) {
	var env struct {
		Attributes json.RawMessage `json:"attributes"`
		Meta       json.RawMessage `json:"meta"`
	}
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, err
	}
	if len(env.Attributes) > 0 && string(env.Attributes) != "null" {
		if err := json.Unmarshal(env.Attributes, dst); err != nil {
			return nil, err
		}
	}
	// flat fields, or only the envelope id for JSON:API resources
	if err := json.Unmarshal(raw, dst); err != nil {
		return nil, err
	}
	return env.Meta, nil
}

func decodeOne(b []byte, dst any) (json.RawMessage, error) {
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	raw := doc.Data
	if len(raw) == 0 || string(raw) == "null" {
		raw = b
	}
	return decodeResource(raw, dst)
}

func decodeList[T any](b []byte) ([]T, []json.RawMessage, Cursor, error) {
	var doc document
	if err := json.Unmarshal(b, &doc); err != nil {
		return nil, nil, Cursor{}, fmt.Errorf("decode document: %w", err)
	}
	var raws []json.RawMessage
	if len(doc.Data) > 0 && string(doc.Data) != "null" {
		if err := json.Unmarshal(doc.Data, &raws); err != nil {
			return nil, nil, Cursor{}, fmt.Errorf("decode data: %w", err)
		}
	}
	items := make([]T, 0, len(raws))
	metas := make([]json.RawMessage, 0, len(raws))
	for _, raw := range raws {
		var item T
		meta, err := decodeResource(raw, &item)
		if err != nil {
			return nil, nil, Cursor{}, fmt.Errorf("decode resource: %w", err)
		}
		items = append(items, item)
		metas = append(metas, meta)
	}
	return items, metas, doc.nextCursor(), nil
}

func DecodeUser(b []byte) (*User, error) {
	var u User
	if _, err := decodeOne(b, &u); err != nil {
		return nil, err
	}
	if u.ID == 0 {
		return nil, fmt.Errorf("decode user: missing id")
	}
	return &u, nil
}

func DecodeNote(b []byte, viewer *User) (*Note, error) {
	var n Note
	if _, err := decodeOne(b, &n); err != nil {
		return nil, err
	}
	normalizeNote(&n, viewer)
	return &n, nil
}

// DecodeNotePage decodes a note list. Notes without an author are the
// viewer's own (the /notes endpoint omits it).
func DecodeNotePage(b []byte, viewer *User) (CursorPage[Note], error) {
	notes, _, next, err := decodeList[Note](b)
	if err != nil {
		return CursorPage[Note]{}, err
	}
	for i := range notes {
		normalizeNote(&notes[i], viewer)
	}
	return CursorPage[Note]{Data: notes, NextCursor: next}, nil
}

func normalizeNote(n *Note, viewer *User) {
	if n.Author == nil && viewer != nil {
		n.Author = viewer.ToSummary()
	}
	if n.Categories == nil {
		n.Categories = []Category{}
	}
}

func DecodeFriendships(b []byte) ([]Friendship, error) {
	rows, _, _, err := decodeList[Friendship](b)
	return rows, err
}

func DecodeFriendship(b []byte) (*Friendship, error) {
	var f Friendship
	if _, err := decodeOne(b, &f); err != nil {
		return nil, err
	}
	return &f, nil
}

// SearchResult is one row of /users/search. ServerRelationship and
// FriendshipID come from the resource meta.
type SearchResult struct {
	User
	ServerRelationship string `json:"-"`
	FriendshipID       ID     `json:"-"`
}

func DecodeUserSearch(b []byte) ([]SearchResult, error) {
	users, metas, _, err := decodeList[User](b)
	if err != nil {
		return nil, err
	}
	out := make([]SearchResult, 0, len(users))
	for i, u := range users {
		r := SearchResult{User: u}
		if len(metas[i]) > 0 && string(metas[i]) != "null" {
			var meta struct {
				Relationship string `json:"relationship"`
				FriendshipID ID     `json:"friendship_id"`
			}
			if err := json.Unmarshal(metas[i], &meta); err != nil {
				return nil, fmt.Errorf("decode search meta: %w", err)
			}
			r.ServerRelationship = meta.Relationship
			r.FriendshipID = meta.FriendshipID
		}
		out = append(out, r)
	}
	return out, nil
}

func DecodeProfileSummary(b []byte) (*ProfileSummary, error) {
	var s ProfileSummary
	if _, err := decodeOne(b, &s); err != nil {
		return nil, err
	}
	return &s, nil
}
