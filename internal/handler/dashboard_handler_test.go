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

type fakeDashboardService struct {
	parentID string
	filter   models.ParentFilter
}

func (f *fakeDashboardService) Parent(_ context.Context, parentID string) (*dto.ParentDashboardResponse, error) {
	f.parentID = parentID
	if parentID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a parent")
	}
	return &dto.ParentDashboardResponse{
		Parent:  models.Parent{ID: parentID},
		Summary: dto.DashboardSummary{ActiveEnrollments: 2, OutstandingCents: 12000},
	}, nil
}

func (f *fakeDashboardService) Parents(_ context.Context, filter models.ParentFilter) ([]models.Parent, *models.Pagination, error) {
	f.filter = filter
	return []models.Parent{{ID: "p-1"}}, &models.Pagination{Page: filter.Page, PageSize: filter.PageSize, TotalCount: 1}, nil
}

type fakeMessenger struct {
	readParent  string
	readMessage string
	postedTo    string
}

func (f *fakeMessenger) PostToParent(_ context.Context, parentID string, req dto.ParentMessageRequest) (*models.Message, error) {
	f.postedTo = parentID
	return &models.Message{ID: "msg-1", Subject: req.Subject}, nil
}

func (f *fakeMessenger) MarkRead(_ context.Context, parentID, messageID string) error {
	if messageID == "someone-elses" {
		return appErrors.Clone(appErrors.ErrNotFound, "message not found")
	}
	f.readParent, f.readMessage = parentID, messageID
	return nil
}

func TestDashboardHandlerParentUsesTokenParent(t *testing.T) {
	svc := &fakeDashboardService{}
	h := NewDashboardHandler(svc, &fakeMessenger{})
	c, rec := newTestContext(http.MethodGet, "/dashboard", nil)
	asParent(c, "p-7")

	h.Parent(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "p-7", svc.parentID)
	var res dto.ParentDashboardResponse
	decodeData(t, rec, &res)
	assert.Equal(t, 2, res.Summary.ActiveEnrollments)
	assert.Equal(t, int64(12000), res.Summary.OutstandingCents)
}

func TestDashboardHandlerParentUnauthenticated(t *testing.T) {
	h := NewDashboardHandler(&fakeDashboardService{}, &fakeMessenger{})
	c, rec := newTestContext(http.MethodGet, "/dashboard", nil)

	h.Parent(c)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestDashboardHandlerMarkRead(t *testing.T) {
	messages := &fakeMessenger{}
	h := NewDashboardHandler(&fakeDashboardService{}, messages)

	c, rec := newTestContext(http.MethodPatch, "/dashboard/messages/msg-1/read", nil)
	asParent(c, "p-1")
	c.AddParam("id", "msg-1")
	h.MarkRead(c)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "p-1", messages.readParent)
	assert.Equal(t, "msg-1", messages.readMessage)

	c, rec = newTestContext(http.MethodPatch, "/dashboard/messages/someone-elses/read", nil)
	asParent(c, "p-1")
	c.AddParam("id", "someone-elses")
	h.MarkRead(c)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDashboardHandlerParentsPagination(t *testing.T) {
	svc := &fakeDashboardService{}
	h := NewDashboardHandler(svc, &fakeMessenger{})
	c, rec := newTestContext(http.MethodGet, "/admin/parents?q=reyes&page=2&limit=5", nil)

	h.Parents(c)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "reyes", svc.filter.Search)
	env := decodeEnvelope(t, rec)
	require.NotNil(t, env.Pagination)
	assert.Equal(t, 2, env.Pagination.Page)
	assert.Equal(t, 5, env.Pagination.PageSize)
}

func TestDashboardHandlerPostMessage(t *testing.T) {
	messages := &fakeMessenger{}
	h := NewDashboardHandler(&fakeDashboardService{}, messages)
	c, rec := newTestContext(http.MethodPost, "/admin/parents/p-3/messages", strings.NewReader(`{"subject":"Schedule change","body":"Practice moves to 5pm"}`))
	c.AddParam("id", "p-3")

	h.PostMessage(c)

	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "p-3", messages.postedTo)
}
