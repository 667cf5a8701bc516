package telegram

import (
	"sync"
	"time"

	"golang.org/x/time/rate"
)

const (
	DefaultChatRate  = 1.0
	DefaultChatBurst = 10
	limiterReset     = time.Hour
)

// ChatLimiter keeps one token bucket per chat. The buckets are dropped
// every hour so idle chats do not accumulate.
type ChatLimiter struct {
	mu        sync.Mutex
	limiters  map[int64]*rate.Limiter
	limit     rate.Limit
	burst     int
	lastReset time.Time
	now       func() time.Time
}

func NewChatLimiter(perSecond float64, burst int) *ChatLimiter {
	if perSecond <= 0 {
		perSecond = DefaultChatRate
	}
	if burst <= 0 {
		burst = DefaultChatBurst
	}
	return &ChatLimiter{
		limiters:  make(map[int64]*rate.Limiter),
		limit:     rate.Limit(perSecond),
		burst:     burst,
		lastReset: time.Now(),
		now:       time.Now,
	}
}

// Allow reports whether a message from chatID may be processed now.
func (l *ChatLimiter) Allow(chatID int64) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastReset) > limiterReset {
		l.limiters = make(map[int64]*rate.Limiter)
		l.lastReset = now
	}

	limiter, ok := l.limiters[chatID]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[chatID] = limiter
	}
	return limiter.AllowN(now, 1)
}
