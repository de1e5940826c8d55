package models

import (
	"strings"
	"time"
)

type FriendshipStatus string

const (
	FriendshipPending  FriendshipStatus = "pending"
	FriendshipAccepted FriendshipStatus = "accepted"
	FriendshipBlocked  FriendshipStatus = "blocked"
)

func (s FriendshipStatus) Valid() bool {
	switch s {
	case FriendshipPending, FriendshipAccepted, FriendshipBlocked:
		return true
	}
	return false
}

type Friendship struct {
	ID                 ID               `json:"id"`
	SenderID           ID               `json:"sender_id"`
	ReceiverID         ID               `json:"receiver_id"`
	Status             FriendshipStatus `json:"status"`
	EffectiveTimestamp time.Time        `json:"effective_timestamp"`
	OtherUserID        ID               `json:"other_user_id,omitempty"`
	OtherUserName      string           `json:"other_user_name,omitempty"` // "<id> - <First Last>"
}

// Involves reports whether the record joins exactly the pair {a, b}.
func (f *Friendship) Involves(a, b ID) bool {
	return (f.SenderID == a && f.ReceiverID == b) || (f.SenderID == b && f.ReceiverID == a)
}

// Other returns the participant that is not viewerID.
func (f *Friendship) Other(viewerID ID) ID {
	if f.SenderID == viewerID {
		return f.ReceiverID
	}
	return f.SenderID
}

// DisplayName strips the "<id> - " prefix the backend puts on other_user_name.
func (f *Friendship) DisplayName() string {
	if _, name, ok := strings.Cut(f.OtherUserName, " - "); ok {
		return strings.TrimSpace(name)
	}
	return strings.TrimSpace(f.OtherUserName)
}
