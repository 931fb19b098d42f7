package service

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/noah-isme/youth-sports-api/pkg/jobs"
	"github.com/noah-isme/youth-sports-api/pkg/mail"
)

const mailJobType = "mail"

// MailJob is one transactional email waiting to be rendered and sent.
type MailJob struct {
	Template string
	To       string
	Subject  string
	ReplyTo  string
	Data     interface{}
}

// MailService delivers transactional email through a background queue.
// Campaign sends do not use it.
type MailService struct {
	queue    *jobs.Queue
	mailer   mail.Mailer
	renderer *mail.Renderer
	metrics  *MetricsService
	logger   *zap.Logger
}

// NewMailService builds the service and its worker queue.
func NewMailService(mailer mail.Mailer, renderer *mail.Renderer, metrics *MetricsService, logger *zap.Logger, cfg jobs.QueueConfig) *MailService {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &MailService{mailer: mailer, renderer: renderer, metrics: metrics, logger: logger}
	cfg.Logger = logger
	s.queue = jobs.NewQueue("mail", s.handle, cfg)
	return s
}

// Start launches the workers.
func (s *MailService) Start(ctx context.Context) {
	s.queue.Start(ctx)
}

// Stop drains queued mail and stops the workers.
func (s *MailService) Stop() {
	s.queue.Stop()
}

// Queue schedules a message for delivery.
func (s *MailService) Queue(job MailJob) error {
	if job.To == "" {
		return fmt.Errorf("mail job %s has no recipient", job.Template)
	}
	if err := s.queue.Enqueue(jobs.Job{Type: mailJobType, Payload: job}); err != nil {
		s.metrics.RecordMailJob(job.Template, "rejected")
		return err
	}
	return nil
}

func (s *MailService) handle(ctx context.Context, job jobs.Job) error {
	payload, ok := job.Payload.(MailJob)
	if !ok {
		s.logger.Error("unexpected mail payload", zap.String("job_id", job.ID))
		return nil
	}
	if err := s.Deliver(ctx, payload); err != nil {
		s.metrics.RecordMailJob(payload.Template, "failed")
		return err
	}
	s.metrics.RecordMailJob(payload.Template, "sent")
	return nil
}

// Deliver renders and sends a job synchronously.
func (s *MailService) Deliver(ctx context.Context, job MailJob) error {
	body, err := s.renderer.Render(job.Template, job.Data)
	if err != nil {
		return err
	}
	return s.mailer.Send(ctx, mail.Message{To: job.To, Subject: job.Subject, HTML: body, ReplyTo: job.ReplyTo})
}
