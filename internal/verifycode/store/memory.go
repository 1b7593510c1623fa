package store

import (
	"context"
	"sync"
	"time"

	"trustgate/internal/verifycode/models"
	"trustgate/pkg/platform/sentinel"
)

// InMemory keeps codes and verified marks in process memory. Expired entries
// are invisible to reads and removed by RemoveExpiredAt.
type InMemory struct {
	mu       sync.Mutex
	codes    map[string]*models.Code
	verified map[string]time.Time
}

func NewInMemory() *InMemory {
	return &InMemory{
		codes:    make(map[string]*models.Code),
		verified: make(map[string]time.Time),
	}
}

func (s *InMemory) SaveCode(_ context.Context, code *models.Code) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *code
	s.codes[code.Email] = &cp
	return nil
}

func (s *InMemory) FindCode(_ context.Context, email string, now time.Time) (*models.Code, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[email]
	if !ok || c.IsExpired(now) {
		return nil, sentinel.ErrNotFound
	}
	cp := *c
	return &cp, nil
}

func (s *InMemory) IncrementAttempts(_ context.Context, email string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	c, ok := s.codes[email]
	if !ok {
		return 0, sentinel.ErrNotFound
	}
	c.Attempts++
	return c.Attempts, nil
}

func (s *InMemory) DeleteCode(_ context.Context, email string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.codes, email)
	return nil
}

func (s *InMemory) MarkVerified(_ context.Context, email string, until time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.verified[email] = until
	return nil
}

func (s *InMemory) IsVerified(_ context.Context, email string, now time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	until, ok := s.verified[email]
	return ok && now.Before(until), nil
}

// StartCleanup runs periodic cleanup of expired entries until ctx is cancelled.
func (s *InMemory) StartCleanup(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.RemoveExpiredAt(time.Now())
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

// RemoveExpiredAt drops codes and verified marks that have expired as of now
// and returns how many entries were removed.
func (s *InMemory) RemoveExpiredAt(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for email, c := range s.codes {
		if c.IsExpired(now) {
			delete(s.codes, email)
			removed++
		}
	}
	for email, until := range s.verified {
		if !now.Before(until) {
			delete(s.verified, email)
			removed++
		}
	}
	return removed
}
