package session

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"smartbus/internal/clock"
	"smartbus/internal/domain"
)

// MemoryStore keeps sessions in process. One session per email: opening a
// new one replaces the previous.
type MemoryStore struct {
	clk clock.Clock
	ttl time.Duration

	mu      sync.Mutex
	byID    map[string]Session
	byEmail map[string]string

	subs subscribers
}

func NewMemoryStore(clk clock.Clock, ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		clk:     clk,
		ttl:     ttl,
		byID:    map[string]Session{},
		byEmail: map[string]string{},
	}
}

func (m *MemoryStore) Open(ctx context.Context, s Session) (Session, error) {
	now := m.clk.Now()
	s.ID = uuid.NewString()
	s.Email = normalizeEmail(s.Email)
	s.OpenedAt = now
	s.ExpiresAt = now.Add(m.ttl)

	m.mu.Lock()
	prev, hadPrev := m.byID[m.byEmail[s.Email]]
	if hadPrev {
		delete(m.byID, prev.ID)
	}
	m.byID[s.ID] = s
	m.byEmail[s.Email] = s.ID
	m.mu.Unlock()

	if hadPrev {
		m.subs.notify(Change{Kind: Closed, Session: prev})
	}
	m.subs.notify(Change{Kind: Opened, Session: s})
	return s, nil
}

func (m *MemoryStore) Get(ctx context.Context, id string) (Session, error) {
	m.mu.Lock()
	s, ok := m.byID[id]
	m.mu.Unlock()
	if !ok {
		return Session{}, domain.NotFoundError{Resource: "admin session"}
	}
	if !m.clk.Now().Before(s.ExpiresAt) {
		_ = m.Close(ctx, id)
		return Session{}, domain.NotFoundError{Resource: "admin session"}
	}
	return s, nil
}

func (m *MemoryStore) Close(ctx context.Context, id string) error {
	m.mu.Lock()
	s, ok := m.byID[id]
	if ok {
		delete(m.byID, id)
		if m.byEmail[s.Email] == id {
			delete(m.byEmail, s.Email)
		}
	}
	m.mu.Unlock()

	if ok {
		m.subs.notify(Change{Kind: Closed, Session: s})
	}
	return nil
}

func (m *MemoryStore) CloseByEmail(ctx context.Context, email string) error {
	m.mu.Lock()
	id, ok := m.byEmail[normalizeEmail(email)]
	m.mu.Unlock()
	if !ok {
		return nil
	}
	return m.Close(ctx, id)
}

func (m *MemoryStore) Subscribe(fn func(Change)) func() {
	return m.subs.add(fn)
}
