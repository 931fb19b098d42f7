package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/youth-sports-api/internal/models"
)

func TestParentRepositoryUpsertNormalisesEmail(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewParentRepository(db)
	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "phone", "created_at", "updated_at"}).
		AddRow("existing-parent", "Dana", "Reyes", "dana@example.com", "555-0100", now, now)
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO parents")).
		WithArgs(sqlmock.AnyArg(), "Dana", "Reyes", "dana@example.com", "555-0100", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnRows(rows)

	parent := &models.Parent{FirstName: "Dana", LastName: "Reyes", Email: "  Dana@Example.com ", Phone: "555-0100"}
	require.NoError(t, repo.Upsert(context.Background(), parent))
	require.Equal(t, "existing-parent", parent.ID)
	require.Equal(t, "dana@example.com", parent.Email)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestParentRepositoryListSearch(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewParentRepository(db)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, first_name, last_name, email, phone, created_at, updated_at FROM parents WHERE")).
		WithArgs("%dana%").
		WillReturnRows(sqlmock.NewRows([]string{"id", "first_name", "last_name", "email", "phone", "created_at", "updated_at"}).
			AddRow("p-1", "Dana", "Reyes", "dana@example.com", "", now, now))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM parents")).
		WithArgs("%dana%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	parents, total, err := repo.List(context.Background(), models.ParentFilter{Search: "Dana"})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, parents, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
