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

	"github.com/noah-isme/youth-sports-api/internal/models"
)

var studentRowColumns = []string{"id", "parent_id", "first_name", "last_name", "date_of_birth", "grade", "emergency_contact_name", "emergency_contact_phone", "created_at", "updated_at"}

func TestStudentRepositoryFindOrCreateReusesExisting(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	dob := time.Date(2015, 4, 2, 0, 0, 0, 0, time.UTC)
	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("FROM students")).
		WithArgs("parent-1", "mia", "Reyes", dob).
		WillReturnRows(sqlmock.NewRows(studentRowColumns).
			AddRow("student-1", "parent-1", "Mia", "Reyes", dob, "4", "Ana Reyes", "555-0199", now, now))

	student := &models.Student{ParentID: "parent-1", FirstName: "mia", LastName: "Reyes", DateOfBirth: dob}
	require.NoError(t, NewStudentRepository(db).FindOrCreate(context.Background(), student))
	assert.Equal(t, "student-1", student.ID)
	assert.Equal(t, "Mia", student.FirstName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestStudentRepositoryFindOrCreateInserts(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	mock.ExpectQuery(regexp.QuoteMeta("FROM students")).WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO students")).WillReturnResult(sqlmock.NewResult(1, 1))

	student := &models.Student{ParentID: "parent-1", FirstName: "Leo", LastName: "Reyes", DateOfBirth: time.Date(2017, 9, 12, 0, 0, 0, 0, time.UTC)}
	require.NoError(t, NewStudentRepository(db).FindOrCreate(context.Background(), student))
	assert.NotEmpty(t, student.ID)
	assert.False(t, student.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}
