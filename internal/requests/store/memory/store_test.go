package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/ports"
	"solicitudes/internal/requests/store/storetest"
	dErrors "solicitudes/pkg/domain-errors"
)

type InMemoryStoreSuite struct {
	storetest.RepositorySuite
}

func TestInMemoryStoreSuite(t *testing.T) {
	s := new(InMemoryStoreSuite)
	s.NewRepo = func() ports.Repository { return NewInMemory() }
	suite.Run(t, s)
}

func (s *InMemoryStoreSuite) TestNextIdentityPreviewsSequence() {
	store := NewInMemory()
	next, ok, err := store.NextIdentity(s.Ctx)
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(models.RequestID(1), next)

	r := models.NewRequest(models.MustDocumentName("Contrato"), s.Now)
	s.Require().NoError(store.Save(s.Ctx, r))
	s.Equal(next, r.ID())

	next, _, err = store.NextIdentity(s.Ctx)
	s.Require().NoError(err)
	s.Equal(models.RequestID(2), next)
}

func (s *InMemoryStoreSuite) TestReturnedAggregatesAreCopies() {
	store := NewInMemory()
	r := models.NewRequest(models.MustDocumentName("Contrato"), s.Now)
	s.Require().NoError(store.Save(s.Ctx, r))

	found, err := store.FindByID(s.Ctx, r.ID())
	s.Require().NoError(err)
	found.ForceStatus(models.StatusRejected, s.Now)

	again, err := store.FindByID(s.Ctx, r.ID())
	s.Require().NoError(err)
	s.Equal(models.StatusPending, again.Status())
}

func (s *InMemoryStoreSuite) TestCancelledContext() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewInMemory().FindAll(ctx)
	s.ErrorIs(err, context.Canceled)
}

func (s *InMemoryStoreSuite) TestConcurrentInsertsGetDistinctIDs() {
	store := NewInMemory()
	const workers = 50

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r := models.NewRequest(models.MustDocumentName("Contrato paralelo"), s.Now)
			s.NoError(store.Save(context.Background(), r))
		}()
	}
	wg.Wait()

	total, err := store.Count(s.Ctx)
	s.Require().NoError(err)
	s.Equal(workers, total)
	next, _, _ := store.NextIdentity(s.Ctx)
	s.Equal(models.RequestID(workers+1), next)
}

func TestTransactor(t *testing.T) {
	s := new(TransactorSuite)
	suite.Run(t, s)
}

type TransactorSuite struct {
	suite.Suite
}

func (s *TransactorSuite) TestRunsFunctionWithDeadline() {
	tx := NewTransactor()
	called := false
	err := tx.RunInTx(context.Background(), func(ctx context.Context) error {
		called = true
		_, hasDeadline := ctx.Deadline()
		s.True(hasDeadline)
		return nil
	})
	s.Require().NoError(err)
	s.True(called)
}

func (s *TransactorSuite) TestCancelledContextIsTimeout() {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := NewTransactor().RunInTx(ctx, func(context.Context) error {
		s.Fail("must not run")
		return nil
	})
	s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
}

func (s *TransactorSuite) TestKeepsCallerDeadline() {
	deadline := time.Now().Add(time.Minute)
	ctx, cancel := context.WithDeadline(context.Background(), deadline)
	defer cancel()
	err := NewTransactor().RunInTx(ctx, func(ctx context.Context) error {
		got, _ := ctx.Deadline()
		s.Equal(deadline, got)
		return nil
	})
	s.NoError(err)
}
