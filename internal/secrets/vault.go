package secrets

import (
	"context"
	"slices"
	"sync"

	"github.com/rendis/addonkit/pkg/schema"
)

// Vault is a Resolver that also owns secret storage. Entries are scoped to
// an addon ID: a secret put for one addon never resolves for another.
type Vault interface {
	Resolver
	Put(ctx context.Context, addonID, name string, value []byte) error
	Delete(ctx context.Context, addonID, name string) error
	List(ctx context.Context, addonID string) ([]string, error)
}

// SecretStore is the minimal persistence interface needed by the vault.
type SecretStore interface {
	StoreSecret(ctx context.Context, key string, value []byte) error
	GetSecret(ctx context.Context, key string) ([]byte, error)
	DeleteSecret(ctx context.Context, key string) error
	ListSecrets(ctx context.Context) ([]string, error)
}

// MemoryStore is a process-local SecretStore. The host owns its lifetime.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string][]byte)}
}

func (m *MemoryStore) StoreSecret(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = slices.Clone(value)
	return nil
}

func (m *MemoryStore) GetSecret(_ context.Context, key string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	if !ok {
		return nil, schema.NewErrorf(schema.ErrCodeNotFound, "secret %q not found", key)
	}
	return slices.Clone(v), nil
}

func (m *MemoryStore) DeleteSecret(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.data[key]; !ok {
		return schema.NewErrorf(schema.ErrCodeNotFound, "secret %q not found", key)
	}
	delete(m.data, key)
	return nil
}

// ListSecrets returns the stored keys in sorted order.
func (m *MemoryStore) ListSecrets(_ context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys, nil
}

var _ SecretStore = (*MemoryStore)(nil)
