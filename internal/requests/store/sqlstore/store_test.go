package sqlstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"solicitudes/internal/platform/database"
	"solicitudes/internal/requests/models"
	"solicitudes/internal/requests/ports"
	"solicitudes/internal/requests/store/storetest"
	dErrors "solicitudes/pkg/domain-errors"
	"solicitudes/pkg/platform/tx"
)

func openSQLite(t *testing.T) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.Open(ctx, database.Config{Driver: database.DriverSQLite, URL: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(ctx, db, nil))
	t.Cleanup(func() { _ = db.Close() })
	return db
}

type SQLiteStoreSuite struct {
	storetest.RepositorySuite
	db *sqlx.DB
}

func TestSQLiteStoreSuite(t *testing.T) {
	s := new(SQLiteStoreSuite)
	s.NewRepo = func() ports.Repository {
		s.db = openSQLite(s.T())
		return New(s.db)
	}
	suite.Run(t, s)
}

func (s *SQLiteStoreSuite) TestNextIdentityIsUnknown() {
	_, ok, err := s.Repo.NextIdentity(s.Ctx)
	s.Require().NoError(err)
	s.False(ok)
}

func (s *SQLiteStoreSuite) TestSearchEscapesWildcards() {
	r := models.NewRequest(models.MustDocumentName("Descuento 100% aplicado"), s.Now)
	s.Require().NoError(s.Repo.Save(s.Ctx, r))
	other := models.NewRequest(models.MustDocumentName("Descuento 1000 aplicado"), s.Now)
	s.Require().NoError(s.Repo.Save(s.Ctx, other))

	page, err := s.Repo.FindAllPaginated(s.Ctx, models.ListCriteria{Search: "100%"})
	s.Require().NoError(err)
	s.Require().Len(page.Items, 1)
	s.Equal(r.ID(), page.Items[0].ID())
}

func (s *SQLiteStoreSuite) TestTransactorCommitsAndRollsBack() {
	store := s.Repo
	txr := NewTransactor(s.db)

	s.Run("commit", func() {
		committed := false
		err := txr.RunInTx(s.Ctx, func(ctx context.Context) error {
			s.True(tx.AfterCommit(ctx, func(context.Context) { committed = true }))
			return store.Save(ctx, models.NewRequest(models.MustDocumentName("Dentro de tx"), s.Now))
		})
		s.Require().NoError(err)
		s.True(committed)
		n, err := store.Count(s.Ctx)
		s.Require().NoError(err)
		s.Equal(1, n)
	})

	s.Run("rollback on error", func() {
		boom := errors.New("boom")
		committed := false
		err := txr.RunInTx(s.Ctx, func(ctx context.Context) error {
			tx.AfterCommit(ctx, func(context.Context) { committed = true })
			if err := store.Save(ctx, models.NewRequest(models.MustDocumentName("Descartado"), s.Now)); err != nil {
				return err
			}
			return boom
		})
		s.ErrorIs(err, boom)
		s.False(committed)
		n, err := store.Count(s.Ctx)
		s.Require().NoError(err)
		s.Equal(1, n)
	})

	s.Run("nested calls join the outer transaction", func() {
		err := txr.RunInTx(s.Ctx, func(ctx context.Context) error {
			return txr.RunInTx(ctx, func(inner context.Context) error {
				return store.Save(inner, models.NewRequest(models.MustDocumentName("Anidado"), s.Now))
			})
		})
		s.Require().NoError(err)
		n, err := store.Count(s.Ctx)
		s.Require().NoError(err)
		s.Equal(2, n)
	})

	s.Run("cancelled context", func() {
		ctx, cancel := context.WithCancel(s.Ctx)
		cancel()
		err := txr.RunInTx(ctx, func(context.Context) error { return nil })
		s.True(dErrors.HasCode(err, dErrors.CodeTimeout))
	})
}

func TestDBTimeScan(t *testing.T) {
	want := time.Date(2024, 6, 1, 12, 30, 0, 0, time.UTC)
	cases := []any{
		want,
		want.In(time.FixedZone("CET", 3600)),
		"2024-06-01 12:30:00+00:00",
		"2024-06-01T12:30:00Z",
		[]byte("2024-06-01 12:30:00"),
	}
	for _, src := range cases {
		var got dbTime
		require.NoError(t, got.Scan(src), "%v", src)
		assert.True(t, want.Equal(got.Time), "%v", src)
		assert.Equal(t, time.UTC, got.Location())
	}

	var bad dbTime
	assert.Error(t, bad.Scan("yesterday"))
	assert.Error(t, bad.Scan(nil))
	assert.Error(t, bad.Scan(42))
}

func TestEscapeLike(t *testing.T) {
	assert.Equal(t, `50\% \_off\\`, escapeLike(`50% _off\`))
}
