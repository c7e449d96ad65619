package snapshot

import (
	"sync"
	"time"
)

// memo is the in-process first level in front of Redis. It holds at most one
// snapshot and forgets it after ttl.
type memo struct {
	ttl     time.Duration
	now     func() time.Time
	mu      sync.RWMutex
	value   *Snapshot
	expires time.Time
	gen     uint64
}

func newMemo(ttl time.Duration) *memo {
	return &memo{ttl: ttl, now: time.Now}
}

func (m *memo) Get() (*Snapshot, bool) {
	if m == nil || m.ttl <= 0 {
		return nil, false
	}
	m.mu.RLock()
	value, expires := m.value, m.expires
	m.mu.RUnlock()
	if value == nil {
		return nil, false
	}
	if m.now().After(expires) {
		m.mu.Lock()
		if m.value == value {
			m.value = nil
			m.expires = time.Time{}
		}
		m.mu.Unlock()
		return nil, false
	}
	return value, true
}

// Generation changes on every Bust.
func (m *memo) Generation() uint64 {
	if m == nil {
		return 0
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.gen
}

// SetIfCurrent stores value only when no Bust happened since gen was read.
func (m *memo) SetIfCurrent(value *Snapshot, gen uint64) bool {
	if m == nil || m.ttl <= 0 || value == nil {
		return false
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gen != gen {
		return false
	}
	m.value = value
	m.expires = m.now().Add(m.ttl)
	return true
}

func (m *memo) Bust() {
	if m == nil {
		return
	}
	m.mu.Lock()
	m.value = nil
	m.expires = time.Time{}
	m.gen++
	m.mu.Unlock()
}
