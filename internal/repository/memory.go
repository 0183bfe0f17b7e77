package repository

import (
	"context"
	"sync"
	"time"
)

type rateWindow struct {
	count   int
	resetAt time.Time
}

// MemoryLimiter хранит счётчики в памяти. Используется при отключённом Redis
// и как запасной вариант в FailoverLimiter.
type MemoryLimiter struct {
	mu      sync.Mutex
	windows map[string]*rateWindow
}

func NewMemoryLimiter() *MemoryLimiter {
	return &MemoryLimiter{windows: make(map[string]*rateWindow)}
}

func (m *MemoryLimiter) CheckRateLimit(_ context.Context, key string, limit int, window time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	w, ok := m.windows[key]
	if !ok || now.After(w.resetAt) {
		m.windows[key] = &rateWindow{count: 1, resetAt: now.Add(window)}
		m.cleanupLocked(now)
		return limit >= 1, nil
	}

	w.count++
	return w.count <= limit, nil
}

// cleanupLocked удаляет протухшие окна, чтобы карта не росла бесконечно.
func (m *MemoryLimiter) cleanupLocked(now time.Time) {
	if len(m.windows) < 1024 {
		return
	}
	for k, w := range m.windows {
		if now.After(w.resetAt) {
			delete(m.windows, k)
		}
	}
}
