package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
)

type dashboardParents interface {
	FindByID(ctx context.Context, id string) (*models.Parent, error)
	List(ctx context.Context, filter models.ParentFilter) ([]models.Parent, int, error)
}

type dashboardStudents interface {
	ListByParent(ctx context.Context, parentID string) ([]models.Student, error)
}

type dashboardEnrollments interface {
	ListByParent(ctx context.Context, parentID string) ([]models.EnrollmentDetail, error)
}

type dashboardPayments interface {
	ListByParent(ctx context.Context, parentID string) ([]models.PaymentDetail, error)
}

type dashboardMessages interface {
	ListByParent(ctx context.Context, parentID string) ([]models.Message, error)
}

// DashboardServiceParams groups constructor dependencies.
type DashboardServiceParams struct {
	Parents     dashboardParents
	Students    dashboardStudents
	Enrollments dashboardEnrollments
	Payments    dashboardPayments
	Messages    dashboardMessages
	Logger      *zap.Logger
}

// DashboardService composes the signed-in parent's overview.
type DashboardService struct {
	parents     dashboardParents
	students    dashboardStudents
	enrollments dashboardEnrollments
	payments    dashboardPayments
	messages    dashboardMessages
	logger      *zap.Logger
}

// NewDashboardService constructs a DashboardService.
func NewDashboardService(params DashboardServiceParams) *DashboardService {
	logger := params.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{
		parents:     params.Parents,
		students:    params.Students,
		enrollments: params.Enrollments,
		payments:    params.Payments,
		messages:    params.Messages,
		logger:      logger,
	}
}

// Parent returns everything the parent dashboard shows.
func (s *DashboardService) Parent(ctx context.Context, parentID string) (*dto.ParentDashboardResponse, error) {
	if parentID == "" {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "account is not linked to a parent")
	}
	parent, err := s.parents.FindByID(ctx, parentID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "parent not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load parent")
	}

	students, err := s.students.ListByParent(ctx, parentID)
	if err != nil {
		return nil, s.loadError(err, "students")
	}
	enrollments, err := s.enrollments.ListByParent(ctx, parentID)
	if err != nil {
		return nil, s.loadError(err, "enrollments")
	}
	payments, err := s.payments.ListByParent(ctx, parentID)
	if err != nil {
		return nil, s.loadError(err, "payments")
	}
	messages, err := s.messages.ListByParent(ctx, parentID)
	if err != nil {
		return nil, s.loadError(err, "messages")
	}

	resp := &dto.ParentDashboardResponse{
		Parent:      *parent,
		Students:    nonNil(students),
		Enrollments: nonNil(enrollments),
		Payments:    nonNil(payments),
		Messages:    nonNil(messages),
	}
	resp.Summary = summarise(resp)
	return resp, nil
}

// Parents lists parents for the admin console.
func (s *DashboardService) Parents(ctx context.Context, filter models.ParentFilter) ([]models.Parent, *models.Pagination, error) {
	page, size := models.NormalizePage(filter.Page, filter.PageSize)
	filter.Page, filter.PageSize = page, size
	parents, total, err := s.parents.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list parents")
	}
	return nonNil(parents), &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

func (s *DashboardService) loadError(err error, what string) error {
	s.logger.Error("dashboard load failed", zap.String("section", what), zap.Error(err))
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load "+what)
}

func summarise(resp *dto.ParentDashboardResponse) dto.DashboardSummary {
	var summary dto.DashboardSummary
	for _, e := range resp.Enrollments {
		if !e.Active {
			continue
		}
		if e.TeamActive {
			summary.ActiveEnrollments++
		} else {
			summary.CancelledPrograms++
		}
	}
	for _, p := range resp.Payments {
		switch p.Status {
		case models.PaymentStatusPending:
			summary.OutstandingCents += p.AmountCents
		case models.PaymentStatusPaid:
			summary.PaidCents += p.AmountCents
		}
	}
	for _, m := range resp.Messages {
		if !m.Read {
			summary.UnreadMessages++
		}
	}
	return summary
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
