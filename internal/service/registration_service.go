package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
	"github.com/noah-isme/youth-sports-api/pkg/mail"
)

type registrationStudents interface {
	FindOrCreate(ctx context.Context, student *models.Student) error
}

type registrationTeams interface {
	FindByID(ctx context.Context, id string) (*models.TeamSummary, error)
}

type registrationEnrollments interface {
	Enroll(ctx context.Context, studentID, teamID string) (*models.Enrollment, bool, error)
}

type registrationPayments interface {
	Create(ctx context.Context, payment *models.Payment) error
	FindLatestByEnrollment(ctx context.Context, enrollmentID string) (*models.Payment, error)
}

type mailQueuer interface {
	Queue(job MailJob) error
}

// RegistrationConfig tunes registration side effects.
type RegistrationConfig struct {
	Currency     string
	DashboardURL string
}

// RegistrationService turns the public registration form into parent,
// student, enrollment and payment rows.
type RegistrationService struct {
	parents     parentUpserter
	students    registrationStudents
	teams       registrationTeams
	enrollments registrationEnrollments
	payments    registrationPayments
	mail        mailQueuer
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
	config      RegistrationConfig
}

// NewRegistrationService wires the registration flow. mail may be nil.
func NewRegistrationService(
	parents parentUpserter,
	students registrationStudents,
	teams registrationTeams,
	enrollments registrationEnrollments,
	payments registrationPayments,
	mailer mailQueuer,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
	cfg RegistrationConfig,
) *RegistrationService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Currency == "" {
		cfg.Currency = "usd"
	}
	return &RegistrationService{
		parents:     parents,
		students:    students,
		teams:       teams,
		enrollments: enrollments,
		payments:    payments,
		mail:        mailer,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
		config:      cfg,
	}
}

// Register upserts the parent on email, creates or reuses each student and
// enrolls them in the requested teams with a pending payment per paid team.
// Enrollments that already exist are reused, and one left without its payment
// by an earlier failed submission gets it now. A submission that adds nothing
// is a conflict.
func (s *RegistrationService) Register(ctx context.Context, req dto.RegistrationRequest) (*dto.RegistrationResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid registration payload")
	}

	births := make([]time.Time, len(req.Students))
	for i, st := range req.Students {
		dob, err := time.Parse("2006-01-02", st.DateOfBirth)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid date of birth")
		}
		births[i] = dob
	}

	teams, err := s.loadTeams(ctx, req.Students)
	if err != nil {
		return nil, err
	}

	parent := &models.Parent{
		FirstName: strings.TrimSpace(req.Parent.FirstName),
		LastName:  strings.TrimSpace(req.Parent.LastName),
		Email:     req.Parent.Email,
		Phone:     strings.TrimSpace(req.Parent.Phone),
	}
	if err := s.parents.Upsert(ctx, parent); err != nil {
		return nil, appErrors.Classify(err, "failed to save parent")
	}

	resp := &dto.RegistrationResponse{
		Parent:      *parent,
		Students:    []models.Student{},
		Enrollments: []models.Enrollment{},
		Payments:    []models.Payment{},
	}
	var (
		lines     []mail.StudentLine
		duplicate string
	)

	for i, st := range req.Students {
		student := &models.Student{
			ParentID:              parent.ID,
			FirstName:             strings.TrimSpace(st.FirstName),
			LastName:              strings.TrimSpace(st.LastName),
			DateOfBirth:           births[i],
			Grade:                 strings.TrimSpace(st.Grade),
			EmergencyContactName:  strings.TrimSpace(st.EmergencyContactName),
			EmergencyContactPhone: strings.TrimSpace(st.EmergencyContactPhone),
		}
		if err := s.students.FindOrCreate(ctx, student); err != nil {
			return nil, appErrors.Classify(err, "failed to save student")
		}
		resp.Students = append(resp.Students, *student)

		for _, teamID := range uniqueIDs(st.TeamIDs) {
			team := teams[teamID]
			enrollment, created, err := s.enrollments.Enroll(ctx, student.ID, teamID)
			if err != nil {
				return nil, appErrors.Classify(err, "failed to enroll student")
			}
			resp.Enrollments = append(resp.Enrollments, *enrollment)

			payment, added, err := s.settlePayment(ctx, enrollment.ID, team, created)
			if err != nil {
				return nil, err
			}
			if payment != nil && payment.Status == models.PaymentStatusPending {
				resp.Payments = append(resp.Payments, *payment)
				resp.TotalCents += payment.AmountCents
			}
			if !created && !added {
				if duplicate == "" {
					duplicate = fmt.Sprintf("%s is already enrolled in %s", student.FullName(), team.Name)
				}
				continue
			}
			lines = append(lines, mail.StudentLine{
				Name:       student.FullName(),
				TeamName:   team.Name,
				SchoolName: team.SchoolName,
				Price:      FormatAmount(team.PriceCents, s.config.Currency),
			})
		}
	}

	if len(lines) == 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, duplicate)
	}

	s.metrics.RecordRegistration()
	s.confirm(parent, lines)
	s.logger.Info("registration completed",
		zap.String("parent_id", parent.ID),
		zap.Int("students", len(resp.Students)),
		zap.Int("enrollments", len(resp.Enrollments)),
	)
	return resp, nil
}

// loadTeams checks every requested team before anything is written.
func (s *RegistrationService) loadTeams(ctx context.Context, students []dto.RegistrationStudent) (map[string]*models.TeamSummary, error) {
	teams := make(map[string]*models.TeamSummary)
	requested := make(map[string]int)
	for _, st := range students {
		for _, id := range uniqueIDs(st.TeamIDs) {
			requested[id]++
			if _, ok := teams[id]; ok {
				continue
			}
			team, err := s.teams.FindByID(ctx, id)
			if err != nil {
				if errors.Is(err, sql.ErrNoRows) {
					return nil, appErrors.Clone(appErrors.ErrNotFound, "team not found")
				}
				return nil, appErrors.Classify(err, "failed to load team")
			}
			if !team.Active {
				return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s is not accepting registrations", team.Name))
			}
			teams[id] = team
		}
	}
	for id, count := range requested {
		if left := teams[id].SpotsLeft(); left >= 0 && count > left {
			return nil, appErrors.Clone(appErrors.ErrConflict, fmt.Sprintf("%s is full", teams[id].Name))
		}
	}
	return teams, nil
}

// settlePayment returns the payment owed for an enrollment. A new enrollment
// on a paid team always gets a pending payment; an existing one gets it only
// when none was ever recorded. The bool reports whether a payment was created.
func (s *RegistrationService) settlePayment(ctx context.Context, enrollmentID string, team *models.TeamSummary, created bool) (*models.Payment, bool, error) {
	if team.PriceCents <= 0 {
		return nil, false, nil
	}
	if !created {
		existing, err := s.payments.FindLatestByEnrollment(ctx, enrollmentID)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, false, appErrors.Classify(err, "failed to load payment")
		}
	}
	payment := &models.Payment{
		EnrollmentID: enrollmentID,
		AmountCents:  team.PriceCents,
		Currency:     s.config.Currency,
		Status:       models.PaymentStatusPending,
	}
	if err := s.payments.Create(ctx, payment); err != nil {
		return nil, false, appErrors.Classify(err, "failed to create payment")
	}
	return payment, true, nil
}

func (s *RegistrationService) confirm(parent *models.Parent, lines []mail.StudentLine) {
	if s.mail == nil || len(lines) == 0 {
		return
	}
	job := MailJob{
		Template: mail.TemplateRegistration,
		To:       parent.Email,
		Subject:  "Registration received",
		Data: mail.RegistrationData{
			FirstName:    parent.FirstName,
			Students:     lines,
			DashboardURL: s.config.DashboardURL,
		},
	}
	if err := s.mail.Queue(job); err != nil {
		s.logger.Warn("failed to queue registration email", zap.String("parent_id", parent.ID), zap.Error(err))
	}
}

// FormatAmount renders minor units as "12.50 USD".
func FormatAmount(cents int64, currency string) string {
	if cents == 0 {
		return "Free"
	}
	return fmt.Sprintf("%d.%02d %s", cents/100, cents%100, strings.ToUpper(currency))
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
