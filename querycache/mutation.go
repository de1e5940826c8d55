package querycache

type Mutation int

const (
	NoteChanged Mutation = iota
	FriendshipChanged
	AuthChanged
	ProfileUpdated
)

func (m Mutation) String() string {
	switch m {
	case NoteChanged:
		return "note"
	case FriendshipChanged:
		return "friendship"
	case AuthChanged:
		return "auth"
	case ProfileUpdated:
		return "profile"
	}
	return "unknown"
}

// Predicate is the set of keys whose contents a mutation may have changed.
func (m Mutation) Predicate() Predicate {
	switch m {
	case NoteChanged:
		return Roots(RootMyNotes, RootFeed)
	case FriendshipChanged:
		return Roots(RootFriendships, RootUserSearch)
	case AuthChanged:
		return Any
	case ProfileUpdated:
		return Exact(K(RootMe))
	}
	return func(Key) bool { return false }
}
