package querycache

import "strings"

// Roots of the named result sets.
const (
	RootMe             = "me"
	RootMyNotes        = "my-notes"
	RootFeed           = "feed"
	RootFriendships    = "friendships"
	RootUserSearch     = "user-search"
	RootUser           = "user"
	RootUserNotes      = "user-notes"
	RootProfileSummary = "profile-summary"
)

// Key addresses one result set, e.g. ("user-search", "al").
type Key []string

func K(parts ...string) Key {
	return Key(parts)
}

func (k Key) Root() string {
	if len(k) == 0 {
		return ""
	}
	return k[0]
}

func (k Key) String() string {
	return strings.Join(k, ":")
}

// id is the map identity of a key; parts may themselves contain ':'.
func (k Key) id() string {
	return strings.Join(k, "\x00")
}

func (k Key) Equal(o Key) bool {
	if len(k) != len(o) {
		return false
	}
	for i := range k {
		if k[i] != o[i] {
			return false
		}
	}
	return true
}

type Predicate func(Key) bool

func Exact(k Key) Predicate {
	return func(o Key) bool { return k.Equal(o) }
}

// Roots matches every key under any of the given roots.
func Roots(roots ...string) Predicate {
	return func(k Key) bool {
		for _, r := range roots {
			if k.Root() == r {
				return true
			}
		}
		return false
	}
}

func Any(Key) bool { return true }
