// Package storetest holds the behaviour every ports.Repository adapter must
// share. Adapter packages embed RepositorySuite in their own test suites.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/stretchr/testify/suite"

	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/ports"
	"solicitudes/pkg/platform/sentinel"
)

// RepositorySuite exercises a repository returned by NewRepo. NewRepo is
// called before every test and must return an empty store.
type RepositorySuite struct {
	suite.Suite
	NewRepo func() ports.Repository

	Repo ports.Repository
	Ctx  context.Context
	Now  time.Time
}

func (s *RepositorySuite) SetupTest() {
	s.Require().NotNil(s.NewRepo, "NewRepo must be set")
	s.Repo = s.NewRepo()
	s.Ctx = context.Background()
	s.Now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
}

func (s *RepositorySuite) create(name string, status models.Status, offset time.Duration) *models.Request {
	r, err := models.NewRequestWithStatus(models.MustDocumentName(name), status, s.Now.Add(offset))
	s.Require().NoError(err)
	s.Require().NoError(s.Repo.Save(s.Ctx, r))
	return r
}

func (s *RepositorySuite) TestSaveAssignsIdentity() {
	s.Run("insert assigns increasing ids and version 1", func() {
		first := s.create("Contrato A", models.StatusPending, 0)
		second := s.create("Contrato B", models.StatusPending, time.Second)

		s.True(first.HasID())
		s.Greater(second.ID(), first.ID())
		s.Equal(1, first.Version())
	})

	s.Run("saved aggregate round trips", func() {
		r := s.create("Informe Trimestral", models.StatusNeedsRevision, time.Minute)

		found, err := s.Repo.FindByID(s.Ctx, r.ID())
		s.Require().NoError(err)
		s.Require().NotNil(found)
		s.Equal(r.ID(), found.ID())
		s.Equal("Informe Trimestral", found.DocumentName().String())
		s.Equal(models.StatusNeedsRevision, found.Status())
		s.True(found.CreatedAt().Equal(r.CreatedAt()))
		s.True(found.UpdatedAt().Equal(r.UpdatedAt()))
		s.Equal(r.Version(), found.Version())
	})
}

func (s *RepositorySuite) TestUpdate() {
	s.Run("update persists status and bumps version", func() {
		r := s.create("Contrato de Prueba", models.StatusPending, 0)
		s.Require().NoError(r.ChangeStatus(models.StatusApproved, s.Now.Add(time.Hour)))
		s.Require().NoError(s.Repo.Save(s.Ctx, r))
		s.Equal(2, r.Version())

		found, err := s.Repo.FindByIDOrFail(s.Ctx, r.ID())
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, found.Status())
		s.True(found.UpdatedAt().Equal(s.Now.Add(time.Hour)))
		s.Equal(2, found.Version())
	})

	s.Run("stale version is rejected", func() {
		r := s.create("Contrato Concurrente", models.StatusPending, 0)
		a, err := s.Repo.FindByIDOrFail(s.Ctx, r.ID())
		s.Require().NoError(err)
		b, err := s.Repo.FindByIDOrFail(s.Ctx, r.ID())
		s.Require().NoError(err)

		s.Require().NoError(a.ChangeStatus(models.StatusApproved, s.Now))
		s.Require().NoError(s.Repo.Save(s.Ctx, a))

		s.Require().NoError(b.ChangeStatus(models.StatusRejected, s.Now))
		err = s.Repo.Save(s.Ctx, b)
		s.ErrorIs(err, sentinel.ErrConflict)

		found, err := s.Repo.FindByIDOrFail(s.Ctx, r.ID())
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, found.Status())
	})

	s.Run("updating a deleted row reports not found", func() {
		r := s.create("Contrato Borrado", models.StatusPending, 0)
		_, err := s.Repo.DeleteByID(s.Ctx, r.ID())
		s.Require().NoError(err)

		r.ForceStatus(models.StatusRejected, s.Now)
		s.ErrorIs(s.Repo.Save(s.Ctx, r), sentinel.ErrNotFound)
	})
}

func (s *RepositorySuite) TestLookups() {
	s.Run("FindByID returns nil for unknown ids", func() {
		found, err := s.Repo.FindByID(s.Ctx, 9999)
		s.Require().NoError(err)
		s.Nil(found)
	})

	s.Run("FindByIDOrFail returns RequestNotFound", func() {
		_, err := s.Repo.FindByIDOrFail(s.Ctx, 9999)
		var nf *models.RequestNotFoundError
		s.Require().True(errors.As(err, &nf))
		s.Equal(models.RequestID(9999), nf.ID)
	})

	s.Run("Exists", func() {
		r := s.create("Contrato Existe", models.StatusPending, 0)
		ok, err := s.Repo.Exists(s.Ctx, r.ID())
		s.Require().NoError(err)
		s.True(ok)

		ok, err = s.Repo.Exists(s.Ctx, 9999)
		s.Require().NoError(err)
		s.False(ok)
	})
}

func (s *RepositorySuite) TestCollections() {
	a := s.create("Alpha contrato", models.StatusPending, 0)
	b := s.create("Beta factura", models.StatusApproved, time.Second)
	c := s.create("Gamma contrato", models.StatusApproved, 2*time.Second)

	s.Run("FindAll is newest first", func() {
		all, err := s.Repo.FindAll(s.Ctx)
		s.Require().NoError(err)
		s.Equal([]models.RequestID{c.ID(), b.ID(), a.ID()}, ids(all))
	})

	s.Run("FindByStatus filters and orders", func() {
		approved, err := s.Repo.FindByStatus(s.Ctx, models.StatusApproved)
		s.Require().NoError(err)
		s.Equal([]models.RequestID{c.ID(), b.ID()}, ids(approved))

		rejected, err := s.Repo.FindByStatus(s.Ctx, models.StatusRejected)
		s.Require().NoError(err)
		s.Empty(rejected)
	})

	s.Run("counts", func() {
		total, err := s.Repo.Count(s.Ctx)
		s.Require().NoError(err)
		s.Equal(3, total)

		approved, err := s.Repo.CountByStatus(s.Ctx, models.StatusApproved)
		s.Require().NoError(err)
		s.Equal(2, approved)
	})
}

func (s *RepositorySuite) TestPagination() {
	var created []*models.Request
	for i := 1; i <= 25; i++ {
		status := models.StatusPending
		if i%5 == 0 {
			status = models.StatusRejected
		}
		created = append(created, s.create(fmt.Sprintf("Documento %02d", i), status, time.Duration(i)*time.Second))
	}

	s.Run("third page of ten holds the last five", func() {
		page, err := s.Repo.FindAllPaginated(s.Ctx, models.ListCriteria{Page: 3, PerPage: 10})
		s.Require().NoError(err)
		s.Len(page.Items, 5)
		s.Equal(25, page.Total)
		s.Equal(3, page.LastPage)
		s.Equal(3, page.CurrentPage)
		s.False(page.HasMorePages())
		s.Equal(created[4].ID(), page.Items[0].ID())
	})

	s.Run("out of range page is empty and echoed", func() {
		page, err := s.Repo.FindAllPaginated(s.Ctx, models.ListCriteria{Page: 9, PerPage: 10})
		s.Require().NoError(err)
		s.Empty(page.Items)
		s.Equal(9, page.CurrentPage)
		s.Equal(3, page.LastPage)
	})

	s.Run("status filter", func() {
		rejected := models.StatusRejected
		page, err := s.Repo.FindAllPaginated(s.Ctx, models.ListCriteria{Page: 1, PerPage: 10, Status: &rejected})
		s.Require().NoError(err)
		s.Equal(5, page.Total)
		s.Equal(1, page.LastPage)
		for _, r := range page.Items {
			s.Equal(models.StatusRejected, r.Status())
		}
	})

	s.Run("search is case insensitive", func() {
		page, err := s.Repo.FindAllPaginated(s.Ctx, models.ListCriteria{Page: 1, PerPage: 50, Search: "DOCUMENTO 1"})
		s.Require().NoError(err)
		s.Equal(10, page.Total)
	})

	s.Run("sort by document name ascending", func() {
		page, err := s.Repo.FindAllPaginated(s.Ctx, models.ListCriteria{
			Page: 1, PerPage: 3, SortBy: models.SortByDocumentName, SortOrder: models.SortAsc,
		})
		s.Require().NoError(err)
		s.Equal([]models.RequestID{created[0].ID(), created[1].ID(), created[2].ID()}, ids(page.Items))
	})

	s.Run("sort by created_at descending", func() {
		page, err := s.Repo.FindAllPaginated(s.Ctx, models.ListCriteria{
			Page: 1, PerPage: 2, SortBy: models.SortByCreatedAt, SortOrder: models.SortDesc,
		})
		s.Require().NoError(err)
		s.Equal([]models.RequestID{created[24].ID(), created[23].ID()}, ids(page.Items))
	})

	s.Run("zero criteria defaults to first page of fifteen", func() {
		page, err := s.Repo.FindAllPaginated(s.Ctx, models.ListCriteria{})
		s.Require().NoError(err)
		s.Len(page.Items, 15)
		s.Equal(15, page.PerPage)
		s.Equal(1, page.CurrentPage)
		s.Equal(created[24].ID(), page.Items[0].ID())
	})
}

func (s *RepositorySuite) TestDelete() {
	s.Run("DeleteByID reports whether a row was removed", func() {
		r := s.create("Contrato Temporal", models.StatusPending, 0)

		deleted, err := s.Repo.DeleteByID(s.Ctx, r.ID())
		s.Require().NoError(err)
		s.True(deleted)

		deleted, err = s.Repo.DeleteByID(s.Ctx, r.ID())
		s.Require().NoError(err)
		s.False(deleted)
	})

	s.Run("Delete removes the aggregate", func() {
		r := s.create("Contrato Temporal", models.StatusApproved, 0)
		s.Require().NoError(s.Repo.Delete(s.Ctx, r))

		found, err := s.Repo.FindByID(s.Ctx, r.ID())
		s.Require().NoError(err)
		s.Nil(found)
	})

	s.Run("Delete ignores unsaved aggregates", func() {
		r := models.NewRequest(models.MustDocumentName("Nunca Guardado"), s.Now)
		s.NoError(s.Repo.Delete(s.Ctx, r))
	})
}

func ids(rs []*models.Request) []models.RequestID {
	out := make([]models.RequestID, 0, len(rs))
	for _, r := range rs {
		out = append(out, r.ID())
	}
	return out
}
