package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/ports/mocks"
	dErrors "solicitudes/pkg/domain-errors"
	"solicitudes/pkg/platform/sentinel"
	"solicitudes/pkg/requestcontext"
)

type ServiceSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	repo   *mocks.MockRepository
	audit  *mocks.MockAuditLogger
	events *mocks.MockEventDispatcher
	svc    *Service
	ctx    context.Context
	now    time.Time
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.repo = mocks.NewMockRepository(s.ctrl)
	s.audit = mocks.NewMockAuditLogger(s.ctrl)
	s.events = mocks.NewMockEventDispatcher(s.ctrl)
	s.svc = New(s.repo, WithAuditLogger(s.audit), WithEventDispatcher(s.events))
	s.now = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	s.ctx = requestcontext.WithTime(context.Background(), s.now)
}

func assignID(id models.RequestID) func(context.Context, *models.Request) error {
	return func(_ context.Context, r *models.Request) error {
		r.AssignID(id)
		r.ApplyVersion(1)
		return nil
	}
}

func (s *ServiceSuite) stored(id models.RequestID, status models.Status) *models.Request {
	return models.Reconstitute(id, models.MustDocumentName("Contrato de Servicios"), status, s.now.Add(-time.Hour), s.now.Add(-time.Hour), 1)
}

func (s *ServiceSuite) TestCreateRequest() {
	s.Run("persists then audits then dispatches", func() {
		gomock.InOrder(
			s.repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(assignID(1)),
			s.audit.EXPECT().LogCreated(gomock.Any(), models.RequestID(1), "Contrato Marco"),
			s.events.EXPECT().Dispatch(gomock.Any(), models.RequestCreated{
				ID: 1, DocumentName: "Contrato Marco", Status: models.StatusPending, At: s.now,
			}).Return(nil),
		)

		summary, err := s.svc.Create.Execute(s.ctx, "  Contrato Marco ")
		s.Require().NoError(err)
		s.Equal(int64(1), summary.ID)
		s.Equal("Contrato Marco", summary.DocumentName)
		s.Equal(models.StatusPending, summary.Status)
		s.Equal("Pendiente", summary.StatusLabel)
		s.True(summary.CreatedAt.Equal(s.now))
		s.True(summary.CanBeApproved)
	})

	s.Run("invalid name has no side effects", func() {
		_, err := s.svc.Create.Execute(s.ctx, "ab")
		s.ErrorIs(err, models.ErrInvalidDocumentName)
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("save failure is audited and not dispatched", func() {
		boom := errors.New("disk full")
		s.repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(boom)
		s.audit.EXPECT().LogError(gomock.Any(), "create", "failed to save request", gomock.Any())

		_, err := s.svc.Create.Execute(s.ctx, "Contrato Marco")
		s.Same(boom, err, "store errors reach the caller unchanged")
		s.True(dErrors.HasCode(err, dErrors.CodeInternal))
	})

	s.Run("dispatch failure reaches the caller after persisting", func() {
		broker := errors.New("broker down")
		gomock.InOrder(
			s.repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(assignID(2)),
			s.audit.EXPECT().LogCreated(gomock.Any(), models.RequestID(2), "Factura"),
			s.events.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(broker),
		)

		_, err := s.svc.Create.Execute(s.ctx, "Factura")
		s.Same(broker, err)
	})

	s.Run("with status", func() {
		s.repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(assignID(3))
		s.audit.EXPECT().LogCreated(gomock.Any(), models.RequestID(3), "Informe Anual")
		s.events.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(nil)

		summary, err := s.svc.Create.ExecuteWithStatus(s.ctx, "Informe Anual", models.StatusApproved)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, summary.Status)
		s.True(summary.CanBeRevised)
	})
}

func (s *ServiceSuite) TestGetRequest() {
	s.Run("found", func() {
		s.repo.EXPECT().FindByIDOrFail(gomock.Any(), models.RequestID(5)).Return(s.stored(5, models.StatusApproved), nil)

		summary, err := s.svc.Get.Execute(s.ctx, 5)
		s.Require().NoError(err)
		s.Equal(int64(5), summary.ID)
		s.Equal("success", summary.StatusColor)
	})

	s.Run("not found", func() {
		s.repo.EXPECT().FindByIDOrFail(gomock.Any(), models.RequestID(6)).Return(nil, &models.RequestNotFoundError{ID: 6})

		_, err := s.svc.Get.Execute(s.ctx, 6)
		s.ErrorIs(err, models.ErrRequestNotFound)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("invalid id never reaches the store", func() {
		_, err := s.svc.Get.Execute(s.ctx, 0)
		s.ErrorIs(err, models.ErrInvalidRequestID)
	})

	s.Run("find returns nil for unknown ids", func() {
		s.repo.EXPECT().FindByID(gomock.Any(), models.RequestID(7)).Return(nil, nil)

		summary, err := s.svc.Get.Find(s.ctx, 7)
		s.Require().NoError(err)
		s.Nil(summary)
	})
}

func (s *ServiceSuite) TestUpdateRequestStatus() {
	s.Run("legal transition", func() {
		gomock.InOrder(
			s.repo.EXPECT().FindByIDOrFail(gomock.Any(), models.RequestID(1)).Return(s.stored(1, models.StatusPending), nil),
			s.repo.EXPECT().Save(gomock.Any(), gomock.Any()).DoAndReturn(func(_ context.Context, r *models.Request) error {
				s.Equal(models.StatusApproved, r.Status())
				r.ApplyVersion(2)
				return nil
			}),
			s.audit.EXPECT().LogStatusChanged(gomock.Any(), models.RequestID(1), models.StatusPending, models.StatusApproved, false),
			s.events.EXPECT().Dispatch(gomock.Any(), models.RequestStatusChanged{
				ID: 1, PreviousStatus: models.StatusPending, NewStatus: models.StatusApproved, At: s.now,
			}).Return(nil),
		)

		summary, err := s.svc.UpdateStatus.Execute(s.ctx, 1, models.StatusApproved)
		s.Require().NoError(err)
		s.Equal(models.StatusApproved, summary.Status)
		s.True(summary.UpdatedAt.Equal(s.now))
	})

	s.Run("illegal transition leaves everything untouched", func() {
		s.repo.EXPECT().FindByIDOrFail(gomock.Any(), models.RequestID(2)).Return(s.stored(2, models.StatusApproved), nil)

		_, err := s.svc.UpdateStatus.Execute(s.ctx, 2, models.StatusRejected)
		var transition *models.InvalidStateTransitionError
		s.Require().ErrorAs(err, &transition)
		s.Equal(models.StatusApproved, transition.From)
		s.Equal(models.StatusRejected, transition.To)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidStateTransition))
	})

	s.Run("force skips the table", func() {
		s.repo.EXPECT().FindByIDOrFail(gomock.Any(), models.RequestID(2)).Return(s.stored(2, models.StatusApproved), nil)
		s.repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		s.audit.EXPECT().LogStatusChanged(gomock.Any(), models.RequestID(2), models.StatusApproved, models.StatusRejected, true)
		s.events.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(nil)

		summary, err := s.svc.UpdateStatus.ForceExecute(s.ctx, 2, models.StatusRejected)
		s.Require().NoError(err)
		s.Equal(models.StatusRejected, summary.Status)
	})

	s.Run("unknown status value", func() {
		_, err := s.svc.UpdateStatus.Execute(s.ctx, 1, models.Status("archived"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("stale version maps to conflict", func() {
		s.repo.EXPECT().FindByIDOrFail(gomock.Any(), models.RequestID(3)).Return(s.stored(3, models.StatusPending), nil)
		s.repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(sentinel.ErrConflict)
		s.audit.EXPECT().LogError(gomock.Any(), "update_status", gomock.Any(), gomock.Any())

		_, err := s.svc.UpdateStatus.Execute(s.ctx, 3, models.StatusRejected)
		s.ErrorIs(err, sentinel.ErrConflict)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("dispatch failure reaches the caller", func() {
		broker := errors.New("broker down")
		s.repo.EXPECT().FindByIDOrFail(gomock.Any(), models.RequestID(5)).Return(s.stored(5, models.StatusPending), nil)
		s.repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(nil)
		s.audit.EXPECT().LogStatusChanged(gomock.Any(), models.RequestID(5), models.StatusPending, models.StatusApproved, false)
		s.events.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(broker)

		_, err := s.svc.UpdateStatus.Execute(s.ctx, 5, models.StatusApproved)
		s.ErrorIs(err, broker)
	})

	s.Run("row deleted underneath maps to not found", func() {
		s.repo.EXPECT().FindByIDOrFail(gomock.Any(), models.RequestID(4)).Return(s.stored(4, models.StatusPending), nil)
		s.repo.EXPECT().Save(gomock.Any(), gomock.Any()).Return(sentinel.ErrNotFound)

		_, err := s.svc.UpdateStatus.Execute(s.ctx, 4, models.StatusRejected)
		s.ErrorIs(err, models.ErrRequestNotFound)
	})
}

func (s *ServiceSuite) TestDeleteRequest() {
	s.Run("deletes then audits then dispatches", func() {
		stored := s.stored(8, models.StatusRejected)
		gomock.InOrder(
			s.repo.EXPECT().FindByIDOrFail(gomock.Any(), models.RequestID(8)).Return(stored, nil),
			s.repo.EXPECT().Delete(gomock.Any(), stored).Return(nil),
			s.audit.EXPECT().LogDeleted(gomock.Any(), models.RequestID(8), "Contrato de Servicios"),
			s.events.EXPECT().Dispatch(gomock.Any(), models.RequestDeleted{
				ID: 8, DocumentName: "Contrato de Servicios", At: s.now,
			}).Return(nil),
		)

		deleted, err := s.svc.Delete.Execute(s.ctx, 8)
		s.Require().NoError(err)
		s.True(deleted)
	})

	s.Run("dispatch failure reaches the caller", func() {
		broker := errors.New("broker down")
		stored := s.stored(10, models.StatusPending)
		s.repo.EXPECT().FindByIDOrFail(gomock.Any(), models.RequestID(10)).Return(stored, nil)
		s.repo.EXPECT().Delete(gomock.Any(), stored).Return(nil)
		s.audit.EXPECT().LogDeleted(gomock.Any(), models.RequestID(10), "Contrato de Servicios")
		s.events.EXPECT().Dispatch(gomock.Any(), gomock.Any()).Return(broker)

		_, err := s.svc.Delete.Execute(s.ctx, 10)
		s.ErrorIs(err, broker)
	})

	s.Run("strict variant propagates not found", func() {
		s.repo.EXPECT().FindByIDOrFail(gomock.Any(), models.RequestID(9)).Return(nil, &models.RequestNotFoundError{ID: 9})

		deleted, err := s.svc.Delete.Execute(s.ctx, 9)
		s.ErrorIs(err, models.ErrRequestNotFound)
		s.False(deleted)
	})

	s.Run("force variant tolerates not found", func() {
		s.repo.EXPECT().FindByIDOrFail(gomock.Any(), models.RequestID(9)).Return(nil, &models.RequestNotFoundError{ID: 9})

		deleted, err := s.svc.Delete.ForceExecute(s.ctx, 9)
		s.Require().NoError(err)
		s.False(deleted)
	})

	s.Run("store failure", func() {
		stored := s.stored(10, models.StatusPending)
		boom := errors.New("connection reset")
		s.repo.EXPECT().FindByIDOrFail(gomock.Any(), models.RequestID(10)).Return(stored, nil)
		s.repo.EXPECT().Delete(gomock.Any(), stored).Return(boom)
		s.audit.EXPECT().LogError(gomock.Any(), "delete", gomock.Any(), gomock.Any())

		deleted, err := s.svc.Delete.ForceExecute(s.ctx, 10)
		s.ErrorIs(err, boom)
		s.False(deleted)
	})
}

func (s *ServiceSuite) TestListRequests() {
	s.Run("query is shaped into criteria", func() {
		approved := models.StatusApproved
		s.repo.EXPECT().FindAllPaginated(gomock.Any(), models.ListCriteria{
			Page: 2, PerPage: 100, Status: &approved, Search: "contrato",
			SortBy: models.SortByDocumentName, SortOrder: models.SortAsc,
		}).Return(models.NewPaginatedResult([]*models.Request{s.stored(1, models.StatusApproved)}, 101, 100, 2), nil)

		page, err := s.svc.List.Execute(s.ctx, models.ListRequestsQuery{
			Page: 2, PerPage: intPtr(500), Status: " Approved ", Search: " contrato ",
			SortBy: "document_name", SortOrder: "ASC",
		})
		s.Require().NoError(err)
		s.Len(page.Items, 1)
		s.Equal(101, page.Total)
		s.Equal(2, page.LastPage)
		s.Equal(int64(1), page.Items[0].ID)
	})

	s.Run("invalid status filter", func() {
		_, err := s.svc.List.Execute(s.ctx, models.ListRequestsQuery{Status: "archived"})
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})

	s.Run("stats", func() {
		s.repo.EXPECT().Count(gomock.Any()).Return(10, nil)
		s.repo.EXPECT().CountByStatus(gomock.Any(), models.StatusPending).Return(4, nil)
		s.repo.EXPECT().CountByStatus(gomock.Any(), models.StatusApproved).Return(3, nil)
		s.repo.EXPECT().CountByStatus(gomock.Any(), models.StatusRejected).Return(3, nil)
		s.repo.EXPECT().CountByStatus(gomock.Any(), models.StatusNeedsRevision).Return(0, nil)

		stats, err := s.svc.List.Stats(s.ctx)
		s.Require().NoError(err)
		s.Equal(10, stats.Total)
		s.Equal(4, stats.ByStatus[models.StatusPending])
		s.Equal(0, stats.ByStatus[models.StatusNeedsRevision])
	})

	s.Run("by status rejects unknown values", func() {
		_, err := s.svc.List.ByStatus(s.ctx, models.Status("archived"))
		s.True(dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func intPtr(n int) *int { return &n }
