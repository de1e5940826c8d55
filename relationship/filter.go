package relationship

import (
	"fmt"
	"strings"

	"inkline/models"
)

// Filter selects one tab of the friendship management view.
type Filter string

const (
	FilterFriends  Filter = "friends"
	FilterIncoming Filter = "incoming"
	FilterSent     Filter = "sent"
	FilterBlocked  Filter = "blocked"
)

func ParseFilter(s string) (Filter, error) {
	switch f := Filter(s); f {
	case FilterFriends, FilterIncoming, FilterSent, FilterBlocked:
		return f, nil
	case "":
		return FilterFriends, nil
	}
	return "", fmt.Errorf("unknown friendship filter %q", s)
}

func (f Filter) matches(l Label) bool {
	switch f {
	case FilterFriends:
		return l == Friend
	case FilterIncoming:
		return l == PendingIncoming
	case FilterSent:
		return l == PendingSent
	case FilterBlocked:
		// users who blocked the viewer are never listed
		return l == BlockedByMe
	}
	return false
}

// Entry is a friendship row seen from the viewer's side.
type Entry struct {
	Friendship models.Friendship `json:"friendship"`
	Label      Label             `json:"label"`
	Actions    []Action          `json:"actions"`
}

// Select returns the viewer's rows for a tab, narrowed by a case-insensitive
// match on the other user's display name. Input order is kept.
func Select(viewerID models.ID, friendships []models.Friendship, f Filter, name string) []Entry {
	q := strings.ToLower(strings.TrimSpace(name))
	out := []Entry{}
	for _, fr := range friendships {
		if fr.SenderID != viewerID && fr.ReceiverID != viewerID {
			continue
		}
		l := labelOf(viewerID, fr)
		if !f.matches(l) {
			continue
		}
		if q != "" && !strings.Contains(strings.ToLower(fr.DisplayName()), q) {
			continue
		}
		out = append(out, Entry{Friendship: fr, Label: l, Actions: Actions(l)})
	}
	return out
}
