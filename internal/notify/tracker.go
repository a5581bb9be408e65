package notify

import (
	"context"
	"fmt"
	"strconv"
	"sync"
)

// KV is the persistence behind a ReadTracker. Keys are opaque strings.
type KV interface {
	Has(ctx context.Context, key string) (bool, error)
	Set(ctx context.Context, key string) error
}

// ReadTracker remembers which notifications a reader has opened.
type ReadTracker struct {
	kv    KV
	scope string
}

// NewReadTracker scopes keys so several readers can share one KV.
func NewReadTracker(kv KV, scope string) *ReadTracker {
	return &ReadTracker{kv: kv, scope: scope}
}

func (t *ReadTracker) key(id int64) string {
	return t.scope + ":notification:" + strconv.FormatInt(id, 10)
}

func (t *ReadTracker) IsRead(ctx context.Context, id int64) (bool, error) {
	ok, err := t.kv.Has(ctx, t.key(id))
	if err != nil {
		return false, fmt.Errorf("read state of notification %d: %w", id, err)
	}
	return ok, nil
}

// MarkRead is idempotent.
func (t *ReadTracker) MarkRead(ctx context.Context, id int64) error {
	if err := t.kv.Set(ctx, t.key(id)); err != nil {
		return fmt.Errorf("mark notification %d read: %w", id, err)
	}
	return nil
}

// MemoryKV is a process-local KV, used when no database is configured.
type MemoryKV struct {
	mu   sync.RWMutex
	keys map[string]struct{}
}

func NewMemoryKV() *MemoryKV {
	return &MemoryKV{keys: make(map[string]struct{})}
}

func (m *MemoryKV) Has(_ context.Context, key string) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	_, ok := m.keys[key]
	return ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.keys[key] = struct{}{}
	return nil
}
