package store

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"trustgate/internal/users/models"
	id "trustgate/pkg/domain"
	"trustgate/pkg/platform/sentinel"
)

type UserStoreSuite struct {
	suite.Suite
	store *InMemory
	ctx   context.Context
}

func TestUserStoreSuite(t *testing.T) {
	suite.Run(t, new(UserStoreSuite))
}

func (s *UserStoreSuite) SetupTest() {
	s.store = NewInMemory()
	s.ctx = context.Background()
}

func (s *UserStoreSuite) newUser(email string, score int) *models.User {
	u, err := models.NewUser(id.NewUserID(), "Test User", email, "hash", score, time.Now())
	s.Require().NoError(err)
	return u
}

func (s *UserStoreSuite) TestCreateAndFind() {
	s.Run("finds by id and case-insensitive email", func() {
		u := s.newUser("Jane@Acme.com", 50)
		s.Require().NoError(s.store.Create(s.ctx, u))

		found, err := s.store.FindByID(s.ctx, u.ID)
		s.Require().NoError(err)
		s.Equal(u.Email, found.Email)

		found, err = s.store.FindByEmail(s.ctx, "jane@acme.COM")
		s.Require().NoError(err)
		s.Equal(u.ID, found.ID)
	})

	s.Run("rejects duplicate email", func() {
		s.Require().NoError(s.store.Create(s.ctx, s.newUser("dup@acme.com", 50)))
		err := s.store.Create(s.ctx, s.newUser("DUP@acme.com", 50))
		s.ErrorIs(err, sentinel.ErrAlreadyUsed)
	})

	s.Run("unknown id is ErrNotFound", func() {
		_, err := s.store.FindByID(s.ctx, id.NewUserID())
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("returned users are copies", func() {
		u := s.newUser("copy@acme.com", 50)
		s.Require().NoError(s.store.Create(s.ctx, u))
		found, _ := s.store.FindByID(s.ctx, u.ID)
		found.TrustScore = 1
		again, _ := s.store.FindByID(s.ctx, u.ID)
		s.Equal(50, again.TrustScore)
	})
}

func (s *UserStoreSuite) TestExecute() {
	s.Run("validation failure leaves the user untouched", func() {
		u := s.newUser("v@acme.com", 50)
		s.Require().NoError(s.store.Create(s.ctx, u))

		boom := errors.New("nope")
		_, err := s.store.Execute(s.ctx, u.ID,
			func(*models.User) error { return boom },
			func(u *models.User) { u.TrustScore = 0 },
		)
		s.ErrorIs(err, boom)

		found, _ := s.store.FindByID(s.ctx, u.ID)
		s.Equal(50, found.TrustScore)
	})

	s.Run("missing user is ErrNotFound", func() {
		_, err := s.store.Execute(s.ctx, id.NewUserID(),
			func(*models.User) error { return nil },
			func(*models.User) {},
		)
		s.ErrorIs(err, sentinel.ErrNotFound)
	})

	s.Run("concurrent increments are not lost", func() {
		u := s.newUser("race@acme.com", 0)
		s.Require().NoError(s.store.Create(s.ctx, u))

		const workers = 50
		var wg sync.WaitGroup
		for range workers {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := s.store.Execute(s.ctx, u.ID,
					func(*models.User) error { return nil },
					func(u *models.User) { u.ApplyTrustDelta(1, time.Now()) },
				)
				s.NoError(err)
			}()
		}
		wg.Wait()

		found, _ := s.store.FindByID(s.ctx, u.ID)
		s.Equal(workers, found.TrustScore)
		s.Empty(s.store.locks.locks, "idle locks are released")
	})
}

func (s *UserStoreSuite) TestListByStatus() {
	a := s.newUser("a@acme.com", 50)
	b := s.newUser("b@acme.com", 50)
	b.ApplyApproval(time.Now())
	s.Require().NoError(s.store.Create(s.ctx, a))
	s.Require().NoError(s.store.Create(s.ctx, b))

	approved, err := s.store.ListByStatus(s.ctx, models.StatusApproved)
	s.Require().NoError(err)
	s.Require().Len(approved, 1)
	s.Equal(b.ID, approved[0].ID)
}
