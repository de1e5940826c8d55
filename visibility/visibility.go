// Package visibility decides what a viewer may see of a note. It mirrors the
// backend's rules for display only; the backend enforces them.
package visibility

import (
	"inkline/models"
	"inkline/relationship"
)

type LinkMode string

const (
	LinkSelf   LinkMode = "self"
	LinkLinked LinkMode = "linked"
	LinkPlain  LinkMode = "plain"
)

// CanView reports whether viewer may read note. A nil viewer is anonymous.
func CanView(viewer *models.User, note *models.Note) bool {
	if note == nil {
		return false
	}
	if viewer != nil && note.Author != nil && note.Author.ID == viewer.ID {
		return true
	}
	return note.Public
}

// AuthorLinkMode decides how the author's name renders for viewer. Only
// friends get a profile link; a public note alone does not expose the profile.
func AuthorLinkMode(viewer *models.User, author *models.UserSummary, label relationship.Label) LinkMode {
	if viewer == nil || author == nil {
		return LinkPlain
	}
	if author.ID == viewer.ID {
		return LinkSelf
	}
	if label == relationship.Friend {
		return LinkLinked
	}
	return LinkPlain
}

// ModeFor computes the link mode from the viewer's friendship list.
func ModeFor(viewer *models.User, friendships []models.Friendship, author *models.UserSummary) LinkMode {
	if viewer == nil || author == nil {
		return LinkPlain
	}
	return AuthorLinkMode(viewer, author, relationship.LabelFor(viewer.ID, friendships, author.ID))
}

// FilterVisible drops the notes viewer may not read, keeping order.
func FilterVisible(viewer *models.User, notes []models.Note) []models.Note {
	out := make([]models.Note, 0, len(notes))
	for i := range notes {
		if CanView(viewer, &notes[i]) {
			out = append(out, notes[i])
		}
	}
	return out
}
