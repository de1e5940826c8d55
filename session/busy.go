package session

import (
	"sort"
	"sync"

	"inkline/models"
)

// Busy is the set of entities with a mutation outstanding. Holding one
// entity never blocks another.
type Busy struct {
	mu  sync.Mutex
	set map[string]struct{}
}

func NewBusy() *Busy {
	return &Busy{set: make(map[string]struct{})}
}

// Acquire marks key busy. It fails if the key is already held; otherwise
// the returned func releases it.
func (b *Busy) Acquire(key string) (func(), bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, held := b.set[key]; held {
		return nil, false
	}
	b.set[key] = struct{}{}
	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			delete(b.set, key)
			b.mu.Unlock()
		})
	}, true
}

func (b *Busy) IsBusy(key string) bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, held := b.set[key]
	return held
}

func (b *Busy) Keys() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	keys := make([]string, 0, len(b.set))
	for k := range b.set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func friendshipKey(id models.ID) string { return "friendship:" + id.String() }

func userKey(id models.ID) string { return "user:" + id.String() }
