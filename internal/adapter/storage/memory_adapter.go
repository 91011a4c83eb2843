package storage

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/rl1809/hoodie-drop/internal/core/domain"
)

type memoryEntry struct {
	checkout  domain.Checkout
	expiresAt time.Time
}

// MemoryAdapter keeps checkouts in process. It is the default store for a
// single instance; anything spread over several instances needs Redis.
type MemoryAdapter struct {
	mu        sync.Mutex
	checkouts map[string]memoryEntry
	locks     map[string]string
	seq       uint64
	ttl       time.Duration
	now       func() time.Time
}

func NewMemoryAdapter(ttl time.Duration) *MemoryAdapter {
	return &MemoryAdapter{
		checkouts: make(map[string]memoryEntry),
		locks:     make(map[string]string),
		ttl:       ttl,
		now:       time.Now,
	}
}

func (m *MemoryAdapter) SaveCheckout(ctx context.Context, checkout domain.Checkout) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry := memoryEntry{checkout: checkout}
	if m.ttl > 0 {
		entry.expiresAt = m.now().Add(m.ttl)
	}
	m.checkouts[checkout.ID] = entry
	m.sweepLocked()
	return nil
}

func (m *MemoryAdapter) GetCheckout(ctx context.Context, id string) (*domain.Checkout, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.checkouts[id]
	if !ok {
		return nil, nil
	}
	if m.expired(entry) {
		delete(m.checkouts, id)
		return nil, nil
	}
	checkout := entry.checkout
	return &checkout, nil
}

func (m *MemoryAdapter) AcquireLock(ctx context.Context, id string) (string, bool, error) {
	if err := ctx.Err(); err != nil {
		return "", false, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, held := m.locks[id]; held {
		return "", false, nil
	}
	m.seq++
	token := strconv.FormatUint(m.seq, 10)
	m.locks[id] = token
	return token, true, nil
}

func (m *MemoryAdapter) ReleaseLock(_ context.Context, id, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.locks[id] == token {
		delete(m.locks, id)
	}
	return nil
}

// Len reports the number of live checkouts.
func (m *MemoryAdapter) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sweepLocked()
	return len(m.checkouts)
}

func (m *MemoryAdapter) expired(entry memoryEntry) bool {
	return !entry.expiresAt.IsZero() && !m.now().Before(entry.expiresAt)
}

func (m *MemoryAdapter) sweepLocked() {
	for id, entry := range m.checkouts {
		if m.expired(entry) {
			delete(m.checkouts, id)
		}
	}
}
