package service

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
	"github.com/noah-isme/youth-sports-api/pkg/mail"
)

type campaignRepository interface {
	Targets(ctx context.Context, kind models.CampaignKind) ([]models.CampaignRow, error)
	CreateRun(ctx context.Context, run *models.CampaignRun) error
	FinishRun(ctx context.Context, run *models.CampaignRun) error
	RecordDelivery(ctx context.Context, delivery *models.CampaignDelivery) error
	SentEmails(ctx context.Context, kind models.CampaignKind, runKey string) (map[string]struct{}, error)
	ListRuns(ctx context.Context, kind models.CampaignKind, limit int) ([]models.CampaignRun, error)
}

type campaignLocker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (bool, func(), error)
}

type unsubscribeLinker interface {
	UnsubscribeURL(email string) string
}

// CampaignConfig tunes bulk sends.
type CampaignConfig struct {
	SendDelay time.Duration
	LockTTL   time.Duration
	SiteURL   string
}

type campaignTemplate struct {
	name    string
	subject string
}

var campaignTemplates = map[models.CampaignKind]campaignTemplate{
	models.CampaignCancellation: {name: mail.TemplateCancellation, subject: "Important update: program cancelled"},
	models.CampaignWinback:      {name: mail.TemplateWinback, subject: "Registration is open again"},
}

// CampaignService selects recipients for a campaign and sends to them one by one.
type CampaignService struct {
	repo      campaignRepository
	mailer    mail.Mailer
	renderer  *mail.Renderer
	locker    campaignLocker
	links     unsubscribeLinker
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
	config    CampaignConfig
	sleep     func(ctx context.Context, d time.Duration) error
}

// NewCampaignService wires the campaign use cases. locker and links may be nil.
func NewCampaignService(repo campaignRepository, mailer mail.Mailer, renderer *mail.Renderer, locker campaignLocker, links unsubscribeLinker, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger, cfg CampaignConfig) *CampaignService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 30 * time.Minute
	}
	return &CampaignService{
		repo:      repo,
		mailer:    mailer,
		renderer:  renderer,
		locker:    locker,
		links:     links,
		metrics:   metrics,
		validator: validate,
		logger:    logger,
		config:    cfg,
		sleep:     sleepContext,
	}
}

// GroupRecipients folds joined rows into one recipient per lower-cased parent
// email, keeping first-seen order and listing each student-team pair once.
func GroupRecipients(rows []models.CampaignRow) []models.CampaignRecipient {
	index := make(map[string]int)
	seen := make(map[string]struct{})
	var recipients []models.CampaignRecipient

	for _, row := range rows {
		email := strings.ToLower(strings.TrimSpace(row.ParentEmail))
		if email == "" {
			continue
		}
		pos, ok := index[email]
		if !ok {
			pos = len(recipients)
			index[email] = pos
			recipients = append(recipients, models.CampaignRecipient{
				Email:     email,
				ParentID:  row.ParentID,
				FirstName: row.ParentFirstName,
				LastName:  row.ParentLastName,
			})
		}
		pair := email + "|" + row.StudentID + "|" + row.TeamID
		if _, dup := seen[pair]; dup {
			continue
		}
		seen[pair] = struct{}{}
		recipients[pos].Students = append(recipients[pos].Students, models.CampaignStudent{
			StudentID:  row.StudentID,
			FirstName:  row.StudentFirstName,
			LastName:   row.StudentLastName,
			TeamID:     row.TeamID,
			TeamName:   row.TeamName,
			SchoolName: row.SchoolName,
		})
	}
	return recipients
}

// Preview lists who a campaign would reach without sending anything.
func (s *CampaignService) Preview(ctx context.Context, kind models.CampaignKind, limit int) (*dto.CampaignPreviewResponse, error) {
	recipients, err := s.recipients(ctx, kind)
	if err != nil {
		return nil, err
	}
	resp := &dto.CampaignPreviewResponse{Campaign: kind, Total: len(recipients), Recipients: recipients}
	if limit > 0 && limit < len(recipients) {
		resp.Recipients = recipients[:limit]
	}
	if resp.Recipients == nil {
		resp.Recipients = []models.CampaignRecipient{}
	}
	return resp, nil
}

// Send delivers the campaign sequentially. One recipient failing never stops
// the batch. Without a run key every matching recipient is sent again on each
// call; with one, addresses already sent under that key are skipped. A test
// email reroutes every message and records a test run without deliveries.
// Real sends are refused while outbound mail is not configured.
func (s *CampaignService) Send(ctx context.Context, kind models.CampaignKind, req dto.CampaignSendRequest) (*dto.CampaignSendResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid campaign options")
	}
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown campaign")
	}
	testEmail := strings.TrimSpace(req.TestEmail)
	if testEmail == "" && !mail.Configured(s.mailer) {
		return nil, appErrors.Clone(appErrors.ErrUnavailable, "email delivery is not configured")
	}

	if s.locker != nil {
		ok, release, err := s.locker.Lock(ctx, "campaign:lock:"+string(kind), s.config.LockTTL)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to acquire campaign lock")
		}
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrConflict, "campaign is already being sent")
		}
		defer release()
	}

	recipients, err := s.recipients(ctx, kind)
	if err != nil {
		return nil, err
	}

	runKey := strings.TrimSpace(req.RunKey)
	result := &dto.CampaignSendResult{
		Campaign: kind,
		TestMode: testEmail != "",
		Matched:  len(recipients),
		Errors:   []dto.CampaignError{},
	}

	already := map[string]struct{}{}
	run := &models.CampaignRun{Campaign: kind, TestMode: result.TestMode}
	if !result.TestMode && runKey != "" {
		if already, err = s.repo.SentEmails(ctx, kind, runKey); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load previous deliveries")
		}
		run.RunKey = &runKey
	}
	if err := s.repo.CreateRun(ctx, run); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record campaign run")
	}
	result.RunID = run.ID

	delay := s.config.SendDelay
	if req.DelayMs != nil {
		delay = time.Duration(*req.DelayMs) * time.Millisecond
	}
	tmpl := campaignTemplates[kind]
	log := s.logger.With(zap.String("campaign", string(kind)), zap.Bool("test_mode", result.TestMode))

	for _, rcpt := range recipients {
		if req.Limit > 0 && result.Attempted >= req.Limit {
			break
		}
		if _, done := already[rcpt.Email]; done {
			result.Skipped++
			continue
		}
		if result.Attempted > 0 && delay > 0 {
			if err := s.sleep(ctx, delay); err != nil {
				log.Warn("campaign interrupted", zap.Int("attempted", result.Attempted), zap.Error(err))
				break
			}
		}

		to := rcpt.Email
		if result.TestMode {
			to = testEmail
		}
		result.Attempted++
		sendErr := s.deliver(ctx, kind, tmpl, rcpt, to)
		status := models.DeliverySent
		if sendErr != nil {
			status = models.DeliveryFailed
			result.Failed++
			result.Errors = append(result.Errors, dto.CampaignError{Email: to, Error: sendErr.Error()})
			log.Warn("campaign delivery failed", zap.String("email", to), zap.Error(sendErr))
		} else {
			result.Sent++
		}
		s.metrics.RecordCampaignDelivery(string(kind), string(status))

		if !result.TestMode {
			delivery := &models.CampaignDelivery{RunID: run.ID, Email: rcpt.Email, Status: status}
			if sendErr != nil {
				delivery.Error = sendErr.Error()
			}
			if err := s.repo.RecordDelivery(context.WithoutCancel(ctx), delivery); err != nil {
				log.Warn("failed to record campaign delivery", zap.String("email", rcpt.Email), zap.Error(err))
			}
		}
	}

	run.Attempted, run.Sent, run.Failed, run.Skipped = result.Attempted, result.Sent, result.Failed, result.Skipped
	if err := s.repo.FinishRun(context.WithoutCancel(ctx), run); err != nil {
		log.Warn("failed to finalise campaign run", zap.String("run_id", run.ID), zap.Error(err))
	}

	log.Info("campaign finished",
		zap.Int("matched", result.Matched),
		zap.Int("attempted", result.Attempted),
		zap.Int("sent", result.Sent),
		zap.Int("failed", result.Failed),
		zap.Int("skipped", result.Skipped),
	)
	return result, nil
}

// Runs returns recent recorded runs.
func (s *CampaignService) Runs(ctx context.Context, kind models.CampaignKind, limit int) ([]models.CampaignRun, error) {
	if kind != "" && !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown campaign")
	}
	runs, err := s.repo.ListRuns(ctx, kind, limit)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list campaign runs")
	}
	if runs == nil {
		runs = []models.CampaignRun{}
	}
	return runs, nil
}

func (s *CampaignService) recipients(ctx context.Context, kind models.CampaignKind) ([]models.CampaignRecipient, error) {
	if !kind.Valid() {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "unknown campaign")
	}
	start := time.Now()
	rows, err := s.repo.Targets(ctx, kind)
	s.metrics.ObserveDBQuery("campaign_targets_"+string(kind), time.Since(start))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load campaign recipients")
	}
	return GroupRecipients(rows), nil
}

func (s *CampaignService) deliver(ctx context.Context, kind models.CampaignKind, tmpl campaignTemplate, rcpt models.CampaignRecipient, to string) error {
	data := mail.CampaignData{FirstName: rcpt.FirstName, SiteURL: s.config.SiteURL}
	for _, st := range rcpt.Students {
		data.Students = append(data.Students, mail.StudentLine{
			Name:       strings.TrimSpace(st.FirstName + " " + st.LastName),
			TeamName:   st.TeamName,
			SchoolName: st.SchoolName,
		})
	}
	if kind == models.CampaignWinback && s.links != nil {
		data.UnsubscribeURL = s.links.UnsubscribeURL(rcpt.Email)
	}
	body, err := s.renderer.Render(tmpl.name, data)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, mail.Message{To: to, Subject: tmpl.subject, HTML: body})
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
