package repository

import (
	"context"
	"database/sql"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrollmentRepositoryEnrollReturnsExistingActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments WHERE student_id = $1 AND team_id = $2 AND active")).
		WithArgs("student-1", "team-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "student_id", "team_id", "active", "created_at", "updated_at"}).
			AddRow("enr-1", "student-1", "team-1", true, now, now))

	enrollment, created, err := NewEnrollmentRepository(db).Enroll(context.Background(), "student-1", "team-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.Equal(t, "enr-1", enrollment.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryEnrollInserts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM enrollments")).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment, created, err := NewEnrollmentRepository(db).Enroll(context.Background(), "student-1", "team-2")
	require.NoError(t, err)
	assert.True(t, created)
	assert.True(t, enrollment.Active)
	assert.Equal(t, "team-2", enrollment.TeamID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositorySetActiveMissingRow(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectExec(regexp.QuoteMeta("UPDATE enrollments SET active")).
		WithArgs("enr-404", false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := NewEnrollmentRepository(db).SetActive(context.Background(), "enr-404", false)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	require.NoError(t, mock.ExpectationsWereMet())
}
