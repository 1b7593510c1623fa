package bucket

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustgate/internal/ratelimit/models"
	"trustgate/pkg/requestcontext"
)

var (
	testLimit = models.Limit{Requests: 10, Window: time.Minute}
	baseTime  = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
)

type InMemoryBucketStoreSuite struct {
	suite.Suite
	store *InMemoryBucketStore
}

func TestInMemoryBucketStoreSuite(t *testing.T) {
	suite.Run(t, new(InMemoryBucketStoreSuite))
}

func (s *InMemoryBucketStoreSuite) SetupTest() {
	s.store = NewInMemoryBucketStore()
}

func at(offset time.Duration) context.Context {
	return requestcontext.WithTime(context.Background(), baseTime.Add(offset))
}

func (s *InMemoryBucketStoreSuite) TestAllow() {
	s.Run("first request allowed", func() {
		result, err := s.store.Allow(at(0), "allow:first", testLimit)
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(testLimit.Requests, result.Limit)
		s.Equal(testLimit.Requests-1, result.Remaining)
		s.Equal(baseTime.Add(time.Minute), result.ResetAt)
	})

	s.Run("requests up to limit allowed", func() {
		var result *models.Result
		var err error
		for range testLimit.Requests {
			result, err = s.store.Allow(at(0), "allow:limit", testLimit)
		}
		s.Require().NoError(err)
		s.True(result.Allowed)
		s.Equal(0, result.Remaining)
	})

	s.Run("request over limit denied", func() {
		for range testLimit.Requests {
			_, err := s.store.Allow(at(0), "allow:over", testLimit)
			s.Require().NoError(err)
		}
		result, err := s.store.Allow(at(20*time.Second), "allow:over", testLimit)
		s.Require().NoError(err)
		s.False(result.Allowed)
		s.Equal(0, result.Remaining)
		s.Equal(40, result.RetryAfter)
	})
}

func (s *InMemoryBucketStoreSuite) TestWindowSlides() {
	for i := range testLimit.Requests {
		_, err := s.store.Allow(at(time.Duration(i)*time.Second), "slide", testLimit)
		s.Require().NoError(err)
	}

	result, err := s.store.Allow(at(59*time.Second), "slide", testLimit)
	s.Require().NoError(err)
	s.False(result.Allowed, "window still full")

	// The first request leaves the window exactly one minute after it was made.
	result, err = s.store.Allow(at(time.Minute), "slide", testLimit)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(0, result.Remaining)

	count, err := s.store.CurrentCount(at(time.Minute), "slide")
	s.Require().NoError(err)
	s.Equal(testLimit.Requests, count)
}

func (s *InMemoryBucketStoreSuite) TestKeysAreIndependent() {
	for range testLimit.Requests {
		_, err := s.store.Allow(at(0), models.IPKey("10.0.0.1"), testLimit)
		s.Require().NoError(err)
	}
	result, err := s.store.Allow(at(0), models.IPKey("10.0.0.2"), testLimit)
	s.Require().NoError(err)
	s.True(result.Allowed)
}

func (s *InMemoryBucketStoreSuite) TestReset() {
	for range testLimit.Requests {
		_, err := s.store.Allow(at(0), "reset", testLimit)
		s.Require().NoError(err)
	}
	s.Require().NoError(s.store.Reset(context.Background(), "reset"))

	result, err := s.store.Allow(at(0), "reset", testLimit)
	s.Require().NoError(err)
	s.True(result.Allowed)
	s.Equal(testLimit.Requests-1, result.Remaining)
}

func (s *InMemoryBucketStoreSuite) TestRemoveIdle() {
	_, err := s.store.Allow(at(0), "idle", testLimit)
	s.Require().NoError(err)
	_, err = s.store.Allow(at(50*time.Second), "busy", testLimit)
	s.Require().NoError(err)

	s.Equal(1, s.store.RemoveIdleAt(baseTime.Add(70*time.Second)))

	count, err := s.store.CurrentCount(at(70*time.Second), "busy")
	s.Require().NoError(err)
	s.Equal(1, count)
}

func (s *InMemoryBucketStoreSuite) TestConcurrent() {
	limit := models.Limit{Requests: 100, Window: time.Minute}
	var wg sync.WaitGroup
	var mu sync.Mutex
	allowedCount := 0

	for range 200 {
		wg.Go(func() {
			result, err := s.store.Allow(at(0), "concurrent", limit)
			s.NoError(err)
			if err == nil && result.Allowed {
				mu.Lock()
				allowedCount++
				mu.Unlock()
			}
		})
	}

	wg.Wait()
	s.Equal(limit.Requests, allowedCount)
}
