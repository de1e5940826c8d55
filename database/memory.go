package database

import (
	"context"
	"sync"

	"inkline/models"
)

// MemoryPreferences keeps themes in process when no MySQL DSN is configured.
type MemoryPreferences struct {
	mu     sync.RWMutex
	themes map[string]models.Theme
}

func NewMemoryPreferences() *MemoryPreferences {
	return &MemoryPreferences{themes: make(map[string]models.Theme)}
}

func (m *MemoryPreferences) Theme(_ context.Context, owner string) (models.Theme, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	t, ok := m.themes[owner]
	return t, ok, nil
}

func (m *MemoryPreferences) SetTheme(_ context.Context, owner string, theme models.Theme) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.themes[owner] = theme
	return nil
}
