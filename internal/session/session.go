// Package session keeps admin sessions and tells interested parties when one
// is opened or closed.
package session

import (
	"context"
	"strings"
	"sync"
	"time"
)

// ChangedChannel is the pub/sub channel carrying Change notifications.
const ChangedChannel = "admin_session_changed"

type Session struct {
	ID          string    `json:"id"`
	AdminID     int64     `json:"admin_id"`
	Email       string    `json:"email"`
	CompanyID   int64     `json:"company_id"`
	CompanyName string    `json:"company_name"`
	OpenedAt    time.Time `json:"opened_at"`
	ExpiresAt   time.Time `json:"expires_at"`
}

type ChangeKind string

const (
	Opened ChangeKind = "opened"
	Closed ChangeKind = "closed"
)

type Change struct {
	Kind    ChangeKind `json:"kind"`
	Session Session    `json:"session"`
}

// Store persists admin sessions. Get returns domain.NotFoundError for an
// unknown or expired id. Subscribers are called synchronously after each
// change; the returned func removes the subscription.
type Store interface {
	Open(ctx context.Context, s Session) (Session, error)
	Get(ctx context.Context, id string) (Session, error)
	Close(ctx context.Context, id string) error
	CloseByEmail(ctx context.Context, email string) error
	Subscribe(fn func(Change)) (unsubscribe func())
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

type subscribers struct {
	mu   sync.Mutex
	next int
	fns  map[int]func(Change)
}

func (s *subscribers) add(fn func(Change)) func() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.fns == nil {
		s.fns = map[int]func(Change){}
	}
	id := s.next
	s.next++
	s.fns[id] = fn
	return func() {
		s.mu.Lock()
		delete(s.fns, id)
		s.mu.Unlock()
	}
}

func (s *subscribers) notify(c Change) {
	s.mu.Lock()
	fns := make([]func(Change), 0, len(s.fns))
	for _, fn := range s.fns {
		fns = append(fns, fn)
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(c)
	}
}
