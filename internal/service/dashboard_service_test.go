package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
)

type fakeDashboardData struct {
	parent      *models.Parent
	students    []models.Student
	enrollments []models.EnrollmentDetail
	payments    []models.PaymentDetail
	messages    []models.Message
	paymentsErr error
	lastFilter  models.ParentFilter
}

func (f *fakeDashboardData) FindByID(ctx context.Context, id string) (*models.Parent, error) {
	if f.parent == nil || f.parent.ID != id {
		return nil, sql.ErrNoRows
	}
	return f.parent, nil
}

func (f *fakeDashboardData) List(ctx context.Context, filter models.ParentFilter) ([]models.Parent, int, error) {
	f.lastFilter = filter
	return []models.Parent{*f.parent}, 41, nil
}

type dashStudents struct{ f *fakeDashboardData }

func (d dashStudents) ListByParent(ctx context.Context, parentID string) ([]models.Student, error) {
	return d.f.students, nil
}

type dashEnrollments struct{ f *fakeDashboardData }

func (d dashEnrollments) ListByParent(ctx context.Context, parentID string) ([]models.EnrollmentDetail, error) {
	return d.f.enrollments, nil
}

type dashPayments struct{ f *fakeDashboardData }

func (d dashPayments) ListByParent(ctx context.Context, parentID string) ([]models.PaymentDetail, error) {
	return d.f.payments, d.f.paymentsErr
}

type dashMessages struct{ f *fakeDashboardData }

func (d dashMessages) ListByParent(ctx context.Context, parentID string) ([]models.Message, error) {
	return d.f.messages, nil
}

func newDashboardFixture() (*DashboardService, *fakeDashboardData) {
	data := &fakeDashboardData{
		parent:   &models.Parent{ID: "parent-1", FirstName: "Dana", Email: "dana@example.com"},
		students: []models.Student{{ID: "s-1", FirstName: "Mia"}},
		enrollments: []models.EnrollmentDetail{
			{Enrollment: models.Enrollment{ID: "e-1", Active: true}, TeamActive: true},
			{Enrollment: models.Enrollment{ID: "e-2", Active: true}, TeamActive: false},
			{Enrollment: models.Enrollment{ID: "e-3", Active: false}, TeamActive: true},
		},
		payments: []models.PaymentDetail{
			{Payment: models.Payment{ID: "p-1", AmountCents: 12000, Status: models.PaymentStatusPending}},
			{Payment: models.Payment{ID: "p-2", AmountCents: 9000, Status: models.PaymentStatusPaid}},
			{Payment: models.Payment{ID: "p-3", AmountCents: 5000, Status: models.PaymentStatusRefunded}},
		},
		messages: []models.Message{{ID: "m-1"}, {ID: "m-2", Read: true}},
	}
	svc := NewDashboardService(DashboardServiceParams{
		Parents:     data,
		Students:    dashStudents{data},
		Enrollments: dashEnrollments{data},
		Payments:    dashPayments{data},
		Messages:    dashMessages{data},
	})
	return svc, data
}

func TestParentDashboardSummary(t *testing.T) {
	svc, _ := newDashboardFixture()

	resp, err := svc.Parent(context.Background(), "parent-1")
	require.NoError(t, err)
	assert.Equal(t, "Dana", resp.Parent.FirstName)
	assert.Len(t, resp.Enrollments, 3)
	assert.Equal(t, 1, resp.Summary.ActiveEnrollments)
	assert.Equal(t, 1, resp.Summary.CancelledPrograms)
	assert.Equal(t, int64(12000), resp.Summary.OutstandingCents)
	assert.Equal(t, int64(9000), resp.Summary.PaidCents)
	assert.Equal(t, 1, resp.Summary.UnreadMessages)
}

func TestParentDashboardEmptyCollections(t *testing.T) {
	svc, data := newDashboardFixture()
	data.students, data.enrollments, data.payments, data.messages = nil, nil, nil, nil

	resp, err := svc.Parent(context.Background(), "parent-1")
	require.NoError(t, err)
	assert.NotNil(t, resp.Students)
	assert.NotNil(t, resp.Messages)
	assert.Zero(t, resp.Summary.OutstandingCents)
}

func TestParentDashboardErrors(t *testing.T) {
	svc, data := newDashboardFixture()

	_, err := svc.Parent(context.Background(), "")
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	_, err = svc.Parent(context.Background(), "parent-404")
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)

	data.paymentsErr = errors.New("connection reset")
	_, err = svc.Parent(context.Background(), "parent-1")
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}

func TestParentsPagination(t *testing.T) {
	svc, data := newDashboardFixture()

	parents, pagination, err := svc.Parents(context.Background(), models.ParentFilter{Search: "dana", Page: 0, PageSize: 500})
	require.NoError(t, err)
	assert.Len(t, parents, 1)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 41, pagination.TotalCount)
	assert.Equal(t, "dana", data.lastFilter.Search)
}
