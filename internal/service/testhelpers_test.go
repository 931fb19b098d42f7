package service

import (
	"context"
	"encoding/json"
	"errors"
	"path"
	"sync"
	"time"

	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
	"github.com/noah-isme/youth-sports-api/pkg/mail"
)

// recordingMailer captures outbound messages and can fail chosen recipients.
type recordingMailer struct {
	mu     sync.Mutex
	sent   []mail.Message
	failOn map[string]bool
}

func (m *recordingMailer) Send(ctx context.Context, msg mail.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failOn[msg.To] {
		return errors.New("550 mailbox unavailable")
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *recordingMailer) messages() []mail.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]mail.Message(nil), m.sent...)
}

// queuedMail records jobs instead of running a worker pool.
type queuedMail struct {
	jobs []MailJob
	err  error
}

func (q *queuedMail) Queue(job MailJob) error {
	if q.err != nil {
		return q.err
	}
	q.jobs = append(q.jobs, job)
	return nil
}

// memoryCache is a JSON round-tripping stand-in for the Redis repository.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string][]byte
	locks   map[string]bool
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string][]byte{}, locks: map[string]bool{}}
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	raw, ok := m.entries[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	return json.Unmarshal(raw, dest)
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = raw
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for key := range m.entries {
		if ok, _ := path.Match(pattern, key); ok {
			delete(m.entries, key)
		}
	}
	return nil
}

func (m *memoryCache) Acquire(ctx context.Context, key string, ttl time.Duration) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.locks[key] {
		return "", false, nil
	}
	m.locks[key] = true
	return "token-" + key, true, nil
}

func (m *memoryCache) Release(ctx context.Context, key, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.locks, key)
	return nil
}
