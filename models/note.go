package models

import "time"

type Category struct {
	ID   ID     `json:"id,omitempty"`
	Name string `json:"name"`
}

type Note struct {
	ID         ID           `json:"id"`
	Title      string       `json:"title"`
	Body       string       `json:"body"`
	Public     bool         `json:"public"`
	CreatedAt  time.Time    `json:"created_at"`
	UpdatedAt  time.Time    `json:"updated_at"`
	Author     *UserSummary `json:"author,omitempty"`
	Categories []Category   `json:"categories"`
}

// NoteInput is the compose/edit payload sent to the backend.
type NoteInput struct {
	Title      string   `json:"title" validate:"required,max=50"`
	Body       string   `json:"body" validate:"plainrequired,plainmax=10000"`
	Public     bool     `json:"public"`
	Categories []string `json:"categories" validate:"max=10,unique,dive,min=2,max=30"`
}

// AuthorID returns 0 when the note has no embedded author.
func (n *Note) AuthorID() ID {
	if n.Author == nil {
		return 0
	}
	return n.Author.ID
}
