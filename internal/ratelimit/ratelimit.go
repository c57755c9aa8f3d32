package ratelimit

import (
	"hash/fnv"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

const (
	// DefaultWindow matches the 60s quota window advertised to API clients.
	DefaultWindow = time.Minute

	shardCount = 16
)

type Result struct {
	Allowed   bool
	Remaining int
	ResetAt   time.Time
}

type entry struct {
	count       int
	windowStart time.Time
}

type shard struct {
	mu      sync.Mutex
	entries *lru.Cache[string, *entry]
}

// Limiter is a fixed-window per-key counter. The whole window's count resets
// at rollover, so a caller can burst up to 2x the limit across a window
// boundary; that is the documented behaviour, not a sliding window.
//
// The entry table is bounded: each shard keeps an LRU cache and evicts the
// least recently seen key when full, which silently forgives that caller's
// usage. Shards keep unrelated keys from contending on one lock.
type Limiter struct {
	window time.Duration
	shards [shardCount]*shard
	now    func() time.Time
}

func New(window time.Duration, maxKeys int) *Limiter {
	if window <= 0 {
		window = DefaultWindow
	}
	perShard := maxKeys / shardCount
	if perShard < 1 {
		perShard = 1
	}
	l := &Limiter{window: window, now: time.Now}
	for i := range l.shards {
		c, _ := lru.New[string, *entry](perShard)
		l.shards[i] = &shard{entries: c}
	}
	return l
}

// Admit counts one request for key against limit. It never blocks on I/O and
// a rejection mutates nothing, so rejected calls have zero observable effect.
func (l *Limiter) Admit(key string, limit int) Result {
	now := l.now()
	s := l.shardFor(key)

	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries.Get(key)
	if !ok || now.Sub(e.windowStart) > l.window {
		e = &entry{count: 1, windowStart: now}
		s.entries.Add(key, e)
		return Result{Allowed: true, Remaining: limit - 1, ResetAt: now.Add(l.window)}
	}

	resetAt := e.windowStart.Add(l.window)
	if e.count >= limit {
		return Result{Allowed: false, Remaining: 0, ResetAt: resetAt}
	}
	e.count++
	return Result{Allowed: true, Remaining: limit - e.count, ResetAt: resetAt}
}

func (l *Limiter) shardFor(key string) *shard {
	h := fnv.New32a()
	h.Write([]byte(key))
	return l.shards[h.Sum32()%shardCount]
}
