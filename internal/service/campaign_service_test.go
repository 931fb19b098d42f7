package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	"github.com/noah-isme/youth-sports-api/pkg/config"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
	"github.com/noah-isme/youth-sports-api/pkg/mail"
)

type mockCampaignRepo struct {
	rows       []models.CampaignRow
	targetsErr error
	runs       []*models.CampaignRun
	deliveries []*models.CampaignDelivery
}

func (m *mockCampaignRepo) Targets(ctx context.Context, kind models.CampaignKind) ([]models.CampaignRow, error) {
	return m.rows, m.targetsErr
}

func (m *mockCampaignRepo) CreateRun(ctx context.Context, run *models.CampaignRun) error {
	run.ID = "run-" + string(rune('a'+len(m.runs)))
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockCampaignRepo) FinishRun(ctx context.Context, run *models.CampaignRun) error {
	now := time.Now()
	run.FinishedAt = &now
	return nil
}

func (m *mockCampaignRepo) RecordDelivery(ctx context.Context, delivery *models.CampaignDelivery) error {
	m.deliveries = append(m.deliveries, delivery)
	return nil
}

func (m *mockCampaignRepo) SentEmails(ctx context.Context, kind models.CampaignKind, runKey string) (map[string]struct{}, error) {
	sent := map[string]struct{}{}
	for _, d := range m.deliveries {
		for _, r := range m.runs {
			if r.ID == d.RunID && r.RunKey != nil && *r.RunKey == runKey && d.Status == models.DeliverySent {
				sent[d.Email] = struct{}{}
			}
		}
	}
	return sent, nil
}

func (m *mockCampaignRepo) ListRuns(ctx context.Context, kind models.CampaignKind, limit int) ([]models.CampaignRun, error) {
	var out []models.CampaignRun
	for _, r := range m.runs {
		out = append(out, *r)
	}
	return out, nil
}

type mockLocker struct {
	held     bool
	released int
}

func (l *mockLocker) Lock(ctx context.Context, key string, ttl time.Duration) (bool, func(), error) {
	if l.held {
		return false, func() {}, nil
	}
	return true, func() { l.released++ }, nil
}

type staticLinks struct{}

func (staticLinks) UnsubscribeURL(email string) string {
	return "https://api.example.org/newsletter/unsubscribe?token=" + email
}

func cancellationRows() []models.CampaignRow {
	return []models.CampaignRow{
		{ParentID: "p-1", ParentFirstName: "Dana", ParentEmail: "Dana@Example.com", StudentID: "s-1", StudentFirstName: "Mia", TeamID: "t-1", TeamName: "U10 Soccer", SchoolName: "Lincoln"},
		{ParentID: "p-1", ParentFirstName: "Dana", ParentEmail: "dana@example.com", StudentID: "s-2", StudentFirstName: "Leo", TeamID: "t-1", TeamName: "U10 Soccer", SchoolName: "Lincoln"},
		{ParentID: "p-2", ParentFirstName: "Sam", ParentEmail: "sam@example.com", StudentID: "s-3", StudentFirstName: "Ava", TeamID: "t-2", TeamName: "U12 Hoops", SchoolName: "Roosevelt"},
		{ParentID: "p-3", ParentFirstName: "Kai", ParentEmail: "kai@example.com", StudentID: "s-4", StudentFirstName: "Noa", TeamID: "t-2", TeamName: "U12 Hoops", SchoolName: "Roosevelt"},
	}
}

func newTestCampaignService(repo *mockCampaignRepo, mailer mail.Mailer, locker campaignLocker) *CampaignService {
	svc := NewCampaignService(repo, mailer, mail.MustRenderer(), locker, staticLinks{}, NewMetricsService(), nil, nil, CampaignConfig{SiteURL: "https://league.example.org"})
	svc.sleep = func(context.Context, time.Duration) error { return nil }
	return svc
}

func TestGroupRecipientsByLowercaseEmail(t *testing.T) {
	recipients := GroupRecipients(cancellationRows())
	require.Len(t, recipients, 3)
	assert.Equal(t, "dana@example.com", recipients[0].Email)
	assert.Len(t, recipients[0].Students, 2)
	assert.Equal(t, "sam@example.com", recipients[1].Email)
}

func TestGroupRecipientsDropsDuplicatePairs(t *testing.T) {
	rows := cancellationRows()
	rows = append(rows, rows[0])
	recipients := GroupRecipients(rows)
	assert.Len(t, recipients[0].Students, 2)
}

func TestCampaignPreviewDoesNotSend(t *testing.T) {
	mailer := &recordingMailer{}
	svc := newTestCampaignService(&mockCampaignRepo{rows: cancellationRows()}, mailer, nil)

	preview, err := svc.Preview(context.Background(), models.CampaignCancellation, 2)
	require.NoError(t, err)
	assert.Equal(t, 3, preview.Total)
	assert.Len(t, preview.Recipients, 2)
	assert.Empty(t, mailer.messages())
}

func TestCampaignSendOneEmailPerParent(t *testing.T) {
	mailer := &recordingMailer{}
	repo := &mockCampaignRepo{rows: cancellationRows()}
	svc := newTestCampaignService(repo, mailer, nil)

	result, err := svc.Send(context.Background(), models.CampaignCancellation, dto.CampaignSendRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Matched)
	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 3, result.Sent)

	sent := mailer.messages()
	require.Len(t, sent, 3)
	assert.Equal(t, "dana@example.com", sent[0].To)
	assert.Contains(t, sent[0].HTML, "Mia")
	assert.Contains(t, sent[0].HTML, "Leo")
	require.Len(t, repo.runs, 1)
	assert.Len(t, repo.deliveries, 3)
	assert.NotNil(t, repo.runs[0].FinishedAt)
}

func TestCampaignSendTestEmailWithLimitSendsExactlyOne(t *testing.T) {
	mailer := &recordingMailer{}
	repo := &mockCampaignRepo{rows: cancellationRows()}
	svc := newTestCampaignService(repo, mailer, nil)

	result, err := svc.Send(context.Background(), models.CampaignCancellation, dto.CampaignSendRequest{Limit: 1, TestEmail: "qa@example.org"})
	require.NoError(t, err)
	assert.True(t, result.TestMode)
	assert.Equal(t, 1, result.Attempted)
	assert.Equal(t, 1, result.Sent)

	sent := mailer.messages()
	require.Len(t, sent, 1)
	assert.Equal(t, "qa@example.org", sent[0].To)
	require.Len(t, repo.runs, 1)
	assert.True(t, repo.runs[0].TestMode)
	assert.Nil(t, repo.runs[0].RunKey)
	assert.Equal(t, 1, repo.runs[0].Sent)
	assert.Empty(t, repo.deliveries)
}

func TestCampaignTestRunDoesNotConsumeRunKey(t *testing.T) {
	mailer := &recordingMailer{}
	repo := &mockCampaignRepo{rows: cancellationRows()}
	svc := newTestCampaignService(repo, mailer, nil)

	_, err := svc.Send(context.Background(), models.CampaignCancellation, dto.CampaignSendRequest{TestEmail: "qa@example.org", RunKey: "fall-2026"})
	require.NoError(t, err)

	result, err := svc.Send(context.Background(), models.CampaignCancellation, dto.CampaignSendRequest{RunKey: "fall-2026"})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Sent)
	assert.Equal(t, 0, result.Skipped)
}

func TestCampaignSendRefusedWithoutMailRelay(t *testing.T) {
	repo := &mockCampaignRepo{rows: cancellationRows()}
	svc := newTestCampaignService(repo, mail.New(config.SMTPConfig{}, zap.NewNop()), nil)

	_, err := svc.Send(context.Background(), models.CampaignCancellation, dto.CampaignSendRequest{RunKey: "fall-2026"})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrUnavailable.Status, appErrors.FromError(err).Status)
	assert.Empty(t, repo.runs)
	assert.Empty(t, repo.deliveries)

	sent, err := repo.SentEmails(context.Background(), models.CampaignCancellation, "fall-2026")
	require.NoError(t, err)
	assert.Empty(t, sent)
}

func TestCampaignTestSendAllowedWithoutMailRelay(t *testing.T) {
	repo := &mockCampaignRepo{rows: cancellationRows()}
	svc := newTestCampaignService(repo, mail.New(config.SMTPConfig{}, zap.NewNop()), nil)

	result, err := svc.Send(context.Background(), models.CampaignCancellation, dto.CampaignSendRequest{Limit: 1, TestEmail: "qa@example.org"})
	require.NoError(t, err)
	assert.True(t, result.TestMode)
	assert.Empty(t, repo.deliveries)
}

func TestCampaignSendTwiceWithoutRunKeySendsDuplicates(t *testing.T) {
	mailer := &recordingMailer{}
	svc := newTestCampaignService(&mockCampaignRepo{rows: cancellationRows()}, mailer, nil)

	_, err := svc.Send(context.Background(), models.CampaignCancellation, dto.CampaignSendRequest{})
	require.NoError(t, err)
	second, err := svc.Send(context.Background(), models.CampaignCancellation, dto.CampaignSendRequest{})
	require.NoError(t, err)

	assert.Equal(t, 3, second.Sent)
	assert.Equal(t, 0, second.Skipped)
	counts := map[string]int{}
	for _, msg := range mailer.messages() {
		counts[msg.To]++
	}
	assert.Equal(t, map[string]int{"dana@example.com": 2, "sam@example.com": 2, "kai@example.com": 2}, counts)
}

func TestCampaignSendWithRunKeySkipsDelivered(t *testing.T) {
	mailer := &recordingMailer{failOn: map[string]bool{"sam@example.com": true}}
	repo := &mockCampaignRepo{rows: cancellationRows()}
	svc := newTestCampaignService(repo, mailer, nil)

	first, err := svc.Send(context.Background(), models.CampaignCancellation, dto.CampaignSendRequest{RunKey: "fall-2026"})
	require.NoError(t, err)
	assert.Equal(t, 2, first.Sent)
	assert.Equal(t, 1, first.Failed)

	mailer.failOn = nil
	second, err := svc.Send(context.Background(), models.CampaignCancellation, dto.CampaignSendRequest{RunKey: "fall-2026"})
	require.NoError(t, err)
	assert.Equal(t, 2, second.Skipped)
	assert.Equal(t, 1, second.Sent)
	assert.Len(t, mailer.messages(), 3)
}

func TestCampaignSendFailureDoesNotAbortBatch(t *testing.T) {
	mailer := &recordingMailer{failOn: map[string]bool{"dana@example.com": true}}
	svc := newTestCampaignService(&mockCampaignRepo{rows: cancellationRows()}, mailer, nil)

	result, err := svc.Send(context.Background(), models.CampaignCancellation, dto.CampaignSendRequest{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Attempted)
	assert.Equal(t, 2, result.Sent)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "dana@example.com", result.Errors[0].Email)
}

func TestCampaignSendRejectsConcurrentRun(t *testing.T) {
	svc := newTestCampaignService(&mockCampaignRepo{rows: cancellationRows()}, &recordingMailer{}, &mockLocker{held: true})

	_, err := svc.Send(context.Background(), models.CampaignCancellation, dto.CampaignSendRequest{})
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestCampaignSendReleasesLock(t *testing.T) {
	locker := &mockLocker{}
	svc := newTestCampaignService(&mockCampaignRepo{rows: cancellationRows()}, &recordingMailer{}, locker)

	_, err := svc.Send(context.Background(), models.CampaignCancellation, dto.CampaignSendRequest{})
	require.NoError(t, err)
	assert.Equal(t, 1, locker.released)
}

func TestCampaignSendStopsWhenContextCancelled(t *testing.T) {
	mailer := &recordingMailer{}
	repo := &mockCampaignRepo{rows: cancellationRows()}
	svc := newTestCampaignService(repo, mailer, nil)
	delay := 10
	svc.sleep = func(ctx context.Context, d time.Duration) error { return context.Canceled }

	result, err := svc.Send(context.Background(), models.CampaignCancellation, dto.CampaignSendRequest{DelayMs: &delay})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Attempted)
	assert.Len(t, mailer.messages(), 1)
	assert.NotNil(t, repo.runs[0].FinishedAt)
}

func TestCampaignWinbackIncludesUnsubscribeLink(t *testing.T) {
	mailer := &recordingMailer{}
	svc := newTestCampaignService(&mockCampaignRepo{rows: cancellationRows()[:1]}, mailer, nil)

	_, err := svc.Send(context.Background(), models.CampaignWinback, dto.CampaignSendRequest{})
	require.NoError(t, err)
	sent := mailer.messages()
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].HTML, "newsletter/unsubscribe")
}

func TestCampaignUnknownKind(t *testing.T) {
	svc := newTestCampaignService(&mockCampaignRepo{}, &recordingMailer{}, nil)
	_, err := svc.Send(context.Background(), models.CampaignKind("spam"), dto.CampaignSendRequest{})
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestCampaignTargetsError(t *testing.T) {
	svc := newTestCampaignService(&mockCampaignRepo{targetsErr: errors.New("db down")}, &recordingMailer{}, nil)
	_, err := svc.Preview(context.Background(), models.CampaignCancellation, 0)
	assert.Equal(t, appErrors.ErrInternal.Code, appErrors.FromError(err).Code)
}
