package credentials

import (
	"context"
	"sync"

	"github.com/dmitrijs2005/blogclient/internal/client/models"
)

type MemoryStore struct {
	mu   sync.RWMutex
	cred *models.Credential
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context) (models.Credential, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.cred == nil {
		return models.Credential{}, false, nil
	}
	return *m.cred, true, nil
}

func (m *MemoryStore) Set(_ context.Context, cred models.Credential) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = &cred
	return nil
}

func (m *MemoryStore) Clear(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cred = nil
	return nil
}

func (m *MemoryStore) Close() error { return nil }
