package models

import "strings"

type User struct {
	ID        ID     `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	Email     string `json:"email,omitempty"`
}

// UserSummary is the author projection embedded in notes.
type UserSummary struct {
	ID        ID     `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

type ProfileSummary struct {
	NotesCount   int `json:"notes_count"`
	FriendsCount int `json:"friends_count"`
}

func (u *User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

func (u *User) ToSummary() *UserSummary {
	return &UserSummary{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

func (s UserSummary) FullName() string {
	return strings.TrimSpace(s.FirstName + " " + s.LastName)
}
