package distributed_lock

import (
	"context"
	"sync"
	"time"
)

// LocalLock 进程内锁，未启用 Redis 的单实例部署使用
type LocalLock struct {
	mu      sync.Mutex
	expires map[string]time.Time
	now     func() time.Time
}

// NewLocalLock 创建进程内锁
func NewLocalLock() *LocalLock {
	return &LocalLock{expires: make(map[string]time.Time), now: time.Now}
}

// TryLock 实现 DistributedLock
func (l *LocalLock) TryLock(_ context.Context, key string, ttl time.Duration) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.heldLocked(key) {
		return false, nil
	}
	l.expires[key] = l.now().Add(ttl)
	return true, nil
}

// Unlock 实现 DistributedLock
func (l *LocalLock) Unlock(_ context.Context, key string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.expires, key)
	return nil
}

// Refresh 实现 DistributedLock
func (l *LocalLock) Refresh(_ context.Context, key string, ttl time.Duration) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.heldLocked(key) {
		return ErrLockHeld
	}
	l.expires[key] = l.now().Add(ttl)
	return nil
}

// IsLocked 实现 DistributedLock
func (l *LocalLock) IsLocked(_ context.Context, key string) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.heldLocked(key), nil
}

func (l *LocalLock) heldLocked(key string) bool {
	exp, ok := l.expires[key]
	if !ok {
		return false
	}
	if !l.now().Before(exp) {
		delete(l.expires, key)
		return false
	}
	return true
}
