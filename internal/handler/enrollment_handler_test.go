package handler

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
)

type fakeEnrollmentService struct {
	id  string
	req dto.UpdateEnrollmentStatusRequest
}

func (f *fakeEnrollmentService) SetStatus(_ context.Context, id string, req dto.UpdateEnrollmentStatusRequest) (*models.EnrollmentDetail, error) {
	if id == "enr-missing" {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
	}
	f.id, f.req = id, req
	return &models.EnrollmentDetail{Enrollment: models.Enrollment{ID: id, Active: *req.Active}, TeamName: "U10 Soccer"}, nil
}

func TestEnrollmentHandlerWithdraw(t *testing.T) {
	svc := &fakeEnrollmentService{}
	h := NewEnrollmentHandler(svc)
	c, rec := newTestContext(http.MethodPatch, "/admin/enrollments/enr-1/status", strings.NewReader(`{"active":false}`))
	asAdmin(c)
	c.AddParam("id", "enr-1")

	h.SetStatus(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "enr-1", svc.id)
	require.NotNil(t, svc.req.Active)
	assert.False(t, *svc.req.Active)
	var detail models.EnrollmentDetail
	decodeData(t, rec, &detail)
	assert.False(t, detail.Active)
}

func TestEnrollmentHandlerErrors(t *testing.T) {
	h := NewEnrollmentHandler(&fakeEnrollmentService{})

	c, rec := newTestContext(http.MethodPatch, "/admin/enrollments/enr-1/status", strings.NewReader(`{"active":`))
	c.AddParam("id", "enr-1")
	h.SetStatus(c)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	c, rec = newTestContext(http.MethodPatch, "/admin/enrollments/enr-missing/status", strings.NewReader(`{"active":false}`))
	c.AddParam("id", "enr-missing")
	h.SetStatus(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
