package reminder

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// SentSet remembers which reminders went out, so a repeated or overlapping
// scan does not send the same occurrence twice.
type SentSet interface {
	// MarkSent records the reminder and reports whether it was not yet recorded.
	MarkSent(ctx context.Context, r Reminder) (bool, error)
}

func sentKey(r Reminder) string {
	return r.ClassAt.Format("2006-01-02") + "|" + r.StudentID + "|" + r.Subject
}

// MemorySentSet keeps sent keys in process memory.
type MemorySentSet struct {
	mu   sync.Mutex
	sent map[string]time.Time
}

// NewMemorySentSet creates an empty set.
func NewMemorySentSet() *MemorySentSet {
	return &MemorySentSet{sent: make(map[string]time.Time)}
}

func (s *MemorySentSet) MarkSent(_ context.Context, r Reminder) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	// keys from previous days can never match again
	for k, at := range s.sent {
		if r.ClassAt.Sub(at) > 24*time.Hour {
			delete(s.sent, k)
		}
	}
	k := sentKey(r)
	if _, ok := s.sent[k]; ok {
		return false, nil
	}
	s.sent[k] = r.ClassAt
	return true, nil
}

// RedisSentSet stores sent keys with SETNX so several workers share one set.
type RedisSentSet struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisSentSet creates a set whose keys expire after a little over a day.
func NewRedisSentSet(client *redis.Client) *RedisSentSet {
	return &RedisSentSet{client: client, prefix: "tuition:reminder:sent:", ttl: 26 * time.Hour}
}

func (s *RedisSentSet) MarkSent(ctx context.Context, r Reminder) (bool, error) {
	return s.client.SetNX(ctx, s.prefix+sentKey(r), 1, s.ttl).Result()
}
