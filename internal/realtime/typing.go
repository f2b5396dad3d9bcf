package realtime

import (
	"sync"
	"time"
)

const typingThrottleDuration = 3 * time.Second

// typingThrottle lets one typing indicator per user through every interval
type typingThrottle struct {
	mu    sync.Mutex
	last  map[uint]time.Time
	every time.Duration
	now   func() time.Time
}

func newTypingThrottle(every time.Duration) *typingThrottle {
	return &typingThrottle{
		last:  make(map[uint]time.Time),
		every: every,
		now:   time.Now,
	}
}

func (t *typingThrottle) Allow(userID uint) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.now()
	if last, ok := t.last[userID]; ok && now.Sub(last) < t.every {
		return false
	}
	t.last[userID] = now
	return true
}

// Forget drops state for a user that went offline
func (t *typingThrottle) Forget(userID uint) {
	t.mu.Lock()
	delete(t.last, userID)
	t.mu.Unlock()
}
