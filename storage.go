package authclient

import (
	"context"
	"sync"
)

// Canonical storage keys. The legacy aliases are checked on read for
// deployments that wrote them before the schema was versioned; new
// writes only touch the canonical names.
const (
	StorageKeyToken         = "token"
	StorageKeyUser          = "user"
	StorageKeyRefreshToken  = "refresh_token"
	StorageKeySchemaVersion = "schema_version"

	legacyKeyToken = "access_token"
	legacyKeyUser  = "user_data"

	storageSchemaVersion = "2"
)

// sessionKeys is every key a purge must remove, aliases included. A
// purge interrupted mid-sequence leaves a partial state the next read
// self-heals from, so ordering here does not matter.
var sessionKeys = []string{
	StorageKeyToken,
	StorageKeyUser,
	StorageKeyRefreshToken,
	StorageKeySchemaVersion,
	legacyKeyToken,
	legacyKeyUser,
}

// readAliased returns the value under key, falling back to the legacy
// alias when the canonical key is absent.
func readAliased(ctx context.Context, s Storage, key, alias string) (string, error) {
	val, err := s.Get(ctx, key)
	if err == nil {
		return val, nil
	}
	if !IsKeyNotFound(err) {
		return "", err
	}
	return s.Get(ctx, alias)
}

// purgeSession removes every stored session key, canonical and legacy.
func purgeSession(ctx context.Context, s Storage) error {
	return s.Delete(ctx, sessionKeys...)
}

// MemoryStorage is a Storage backed by a plain map. It is the default
// for tests and for hosts that do not need session state to survive a
// process restart.
type MemoryStorage struct {
	mu   sync.RWMutex
	data map[string]string
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{data: map[string]string{}}
}

func (m *MemoryStorage) Get(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	val, ok := m.data[key]
	if !ok {
		return "", ErrKeyNotFound
	}
	return val, nil
}

func (m *MemoryStorage) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.data[key] = value
	return nil
}

func (m *MemoryStorage) Delete(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}
