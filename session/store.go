package session

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/crypto/hkdf"
	"golang.org/x/crypto/nacl/secretbox"
)

// CredentialStore keeps each session's backend cookies so a restarted web
// tier can resume it. Load returns ErrNoSession for unknown or expired ids.
type CredentialStore interface {
	Save(ctx context.Context, id string, cookies []*http.Cookie, ttl time.Duration) error
	Load(ctx context.Context, id string) ([]*http.Cookie, error)
	Delete(ctx context.Context, id string) error
}

type storedCookie struct {
	Name    string    `json:"name"`
	Value   string    `json:"value"`
	Path    string    `json:"path,omitempty"`
	Expires time.Time `json:"expires,omitempty"`
}

func encodeCookies(cookies []*http.Cookie) ([]byte, error) {
	out := make([]storedCookie, 0, len(cookies))
	for _, c := range cookies {
		out = append(out, storedCookie{Name: c.Name, Value: c.Value, Path: c.Path, Expires: c.Expires})
	}
	return json.Marshal(out)
}

func decodeCookies(b []byte) ([]*http.Cookie, error) {
	var stored []storedCookie
	if err := json.Unmarshal(b, &stored); err != nil {
		return nil, err
	}
	out := make([]*http.Cookie, 0, len(stored))
	for _, c := range stored {
		out = append(out, &http.Cookie{Name: c.Name, Value: c.Value, Path: c.Path, Expires: c.Expires})
	}
	return out, nil
}

// MemoryStore is the single-process CredentialStore.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryItem
	now   func() time.Time
}

type memoryItem struct {
	data    []byte
	expires time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{items: make(map[string]memoryItem), now: time.Now}
}

func (m *MemoryStore) Save(_ context.Context, id string, cookies []*http.Cookie, ttl time.Duration) error {
	data, err := encodeCookies(cookies)
	if err != nil {
		return err
	}
	m.mu.Lock()
	m.items[id] = memoryItem{data: data, expires: m.now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) ([]*http.Cookie, error) {
	m.mu.Lock()
	item, ok := m.items[id]
	if ok && !m.now().Before(item.expires) {
		delete(m.items, id)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, ErrNoSession
	}
	return decodeCookies(item.data)
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.items, id)
	m.mu.Unlock()
	return nil
}

// Sealer encrypts stored credentials with a key derived from the server
// secret.
type Sealer struct {
	key [32]byte
}

func NewSealer(secret []byte) (*Sealer, error) {
	if len(secret) == 0 {
		return nil, errors.New("session: empty credential secret")
	}
	s := &Sealer{}
	r := hkdf.New(sha256.New, secret, nil, []byte("inkline credential store"))
	if _, err := io.ReadFull(r, s.key[:]); err != nil {
		return nil, fmt.Errorf("derive credential key: %w", err)
	}
	return s, nil
}

func (s *Sealer) Seal(plain []byte) ([]byte, error) {
	var nonce [24]byte
	if _, err := rand.Read(nonce[:]); err != nil {
		return nil, err
	}
	return secretbox.Seal(nonce[:], plain, &nonce, &s.key), nil
}

func (s *Sealer) Open(box []byte) ([]byte, error) {
	if len(box) < 24+secretbox.Overhead {
		return nil, errors.New("session: sealed credentials too short")
	}
	var nonce [24]byte
	copy(nonce[:], box[:24])
	plain, ok := secretbox.Open(nil, box[24:], &nonce, &s.key)
	if !ok {
		return nil, errors.New("session: sealed credentials failed authentication")
	}
	return plain, nil
}

// RedisStore keeps sealed credentials in Redis under "inkline:session:<id>".
type RedisStore struct {
	rdb    redis.Cmdable
	sealer *Sealer
	prefix string
}

func NewRedisStore(rdb redis.Cmdable, sealer *Sealer) *RedisStore {
	return &RedisStore{rdb: rdb, sealer: sealer, prefix: "inkline:session:"}
}

func (r *RedisStore) Save(ctx context.Context, id string, cookies []*http.Cookie, ttl time.Duration) error {
	data, err := encodeCookies(cookies)
	if err != nil {
		return err
	}
	box, err := r.sealer.Seal(data)
	if err != nil {
		return fmt.Errorf("seal credentials: %w", err)
	}
	return r.rdb.Set(ctx, r.prefix+id, box, ttl).Err()
}

func (r *RedisStore) Load(ctx context.Context, id string) ([]*http.Cookie, error) {
	box, err := r.rdb.Get(ctx, r.prefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNoSession
	}
	if err != nil {
		return nil, fmt.Errorf("load credentials: %w", err)
	}
	data, err := r.sealer.Open(box)
	if err != nil {
		return nil, err
	}
	return decodeCookies(data)
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	return r.rdb.Del(ctx, r.prefix+id).Err()
}
