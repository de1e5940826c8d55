// Package relationship derives the viewer-relative relationship between two
// users from their friendship record and lists the transitions legal from it.
package relationship

import (
	"fmt"

	"inkline/models"
)

type Label int

const (
	None Label = iota
	PendingSent
	PendingIncoming
	Friend
	BlockedByMe
	BlockedByThem
)

var labelNames = [...]string{
	None:            "none",
	PendingSent:     "pending_sent",
	PendingIncoming: "pending_incoming",
	Friend:          "friend",
	BlockedByMe:     "blocked_by_me",
	BlockedByThem:   "blocked_by_them",
}

func (l Label) String() string {
	if l < 0 || int(l) >= len(labelNames) {
		return fmt.Sprintf("Label(%d)", int(l))
	}
	return labelNames[l]
}

func (l Label) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

func ParseLabel(s string) (Label, error) {
	for i, name := range labelNames {
		if name == s {
			return Label(i), nil
		}
	}
	return None, fmt.Errorf("unknown relationship label %q", s)
}

// Find returns the record joining viewerID and otherID, if any. At most one
// record exists per unordered pair.
func Find(viewerID models.ID, friendships []models.Friendship, otherID models.ID) (models.Friendship, bool) {
	for _, f := range friendships {
		if f.Involves(viewerID, otherID) {
			return f, true
		}
	}
	return models.Friendship{}, false
}

// LabelFor classifies otherID relative to viewerID. It is a pure function of
// its inputs; callers recompute it on every read.
func LabelFor(viewerID models.ID, friendships []models.Friendship, otherID models.ID) Label {
	f, ok := Find(viewerID, friendships, otherID)
	if !ok {
		return None
	}
	return labelOf(viewerID, f)
}

func labelOf(viewerID models.ID, f models.Friendship) Label {
	switch f.Status {
	case models.FriendshipAccepted:
		return Friend
	case models.FriendshipPending:
		if f.SenderID == viewerID {
			return PendingSent
		}
		return PendingIncoming
	case models.FriendshipBlocked:
		if f.SenderID == viewerID {
			return BlockedByMe
		}
		return BlockedByThem
	}
	// unknown statuses are treated as no relationship
	return None
}
