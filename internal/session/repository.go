package session

import "sync"

const (
	ProfileKey = "user"
	TokenKey   = "jwtToken"
)

// Repository is the durable key/value store holding the cached profile and session token.
type Repository interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Clear(key string)
}

type MemoryRepository struct {
	mu     sync.RWMutex
	values map[string]string
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{values: map[string]string{}}
}

func (r *MemoryRepository) Get(key string) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.values[key]
	return v, ok
}

func (r *MemoryRepository) Set(key, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values[key] = value
}

func (r *MemoryRepository) Clear(key string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.values, key)
}
