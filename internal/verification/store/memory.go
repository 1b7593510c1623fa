package store

import (
	"context"
	"sort"
	"sync"

	"trustgate/internal/verification/models"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/sentinel"
)

// InMemory keeps submissions in a map. Returned values are copies, so
// callers never share state with the store.
type InMemory struct {
	mu          sync.RWMutex
	submissions map[id.SubmissionID]*models.Submission
}

func NewInMemory() *InMemory {
	return &InMemory{submissions: make(map[id.SubmissionID]*models.Submission)}
}

func (s *InMemory) Create(_ context.Context, sub *models.Submission) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.submissions[sub.ID]; ok {
		return sentinel.ErrAlreadyUsed
	}
	s.submissions[sub.ID] = clone(sub)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, subID id.SubmissionID) (*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sub, ok := s.submissions[subID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return clone(sub), nil
}

// ListByStatus returns matching submissions oldest first.
func (s *InMemory) ListByStatus(_ context.Context, status models.Status) ([]*models.Submission, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Submission
	for _, sub := range s.submissions {
		if sub.Status == status {
			out = append(out, clone(sub))
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ID.String() < out[j].ID.String()
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

// Execute runs validate then mutate on the stored submission under the write
// lock. A validate error leaves the submission untouched.
func (s *InMemory) Execute(_ context.Context, subID id.SubmissionID, validate func(*models.Submission) error, mutate func(*models.Submission)) (*models.Submission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sub, ok := s.submissions[subID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	working := clone(sub)
	if err := validate(working); err != nil {
		return nil, err
	}
	mutate(working)
	s.submissions[subID] = working
	return clone(working), nil
}

func clone(sub *models.Submission) *models.Submission {
	c := *sub
	if sub.ReviewedAt != nil {
		t := *sub.ReviewedAt
		c.ReviewedAt = &t
	}
	return &c
}
