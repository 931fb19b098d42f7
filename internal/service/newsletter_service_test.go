package service

import (
	"context"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/youth-sports-api/internal/dto"
	"github.com/noah-isme/youth-sports-api/internal/models"
	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
	"github.com/noah-isme/youth-sports-api/pkg/storage"
)

type memoryNewsletter struct {
	subs map[string]models.NewsletterSubscriber
}

func (m *memoryNewsletter) Upsert(ctx context.Context, sub *models.NewsletterSubscriber) error {
	m.subs[sub.Email] = *sub
	return nil
}

func (m *memoryNewsletter) Delete(ctx context.Context, email string) (bool, error) {
	_, ok := m.subs[email]
	delete(m.subs, email)
	return ok, nil
}

func newNewsletterFixture() (*NewsletterService, *memoryNewsletter) {
	repo := &memoryNewsletter{subs: map[string]models.NewsletterSubscriber{}}
	signer := storage.NewTokenSigner("unsubscribe-secret", time.Hour)
	return NewNewsletterService(repo, signer, "https://api.example.org/api/v1/newsletter/unsubscribe", nil, nil), repo
}

func TestNewsletterSubscribeUpserts(t *testing.T) {
	svc, repo := newNewsletterFixture()

	_, err := svc.Subscribe(context.Background(), dto.SubscribeRequest{Email: "Dana@Example.com", Sport: "Soccer"})
	require.NoError(t, err)
	_, err = svc.Subscribe(context.Background(), dto.SubscribeRequest{Email: "dana@example.com", Sport: "basketball"})
	require.NoError(t, err)

	require.Len(t, repo.subs, 1)
	assert.Equal(t, "basketball", repo.subs["dana@example.com"].Sport)
}

func TestNewsletterSubscribeValidation(t *testing.T) {
	svc, _ := newNewsletterFixture()
	_, err := svc.Subscribe(context.Background(), dto.SubscribeRequest{Email: "nope"})
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNewsletterUnsubscribeRoundTrip(t *testing.T) {
	svc, repo := newNewsletterFixture()
	_, err := svc.Subscribe(context.Background(), dto.SubscribeRequest{Email: "dana@example.com"})
	require.NoError(t, err)

	link := svc.UnsubscribeURL("Dana@example.com")
	parsed, err := url.Parse(link)
	require.NoError(t, err)

	email, err := svc.Unsubscribe(context.Background(), parsed.Query().Get("token"))
	require.NoError(t, err)
	assert.Equal(t, "dana@example.com", email)
	assert.Empty(t, repo.subs)
}

func TestNewsletterUnsubscribeRejectsTampering(t *testing.T) {
	svc, _ := newNewsletterFixture()

	_, err := svc.Unsubscribe(context.Background(), "garbage")
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	other := storage.NewTokenSigner("different-secret", time.Hour)
	token, _, err := other.Generate("unsubscribe", "dana@example.com")
	require.NoError(t, err)
	_, err = svc.Unsubscribe(context.Background(), token)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestNewsletterWithoutSigner(t *testing.T) {
	svc := NewNewsletterService(&memoryNewsletter{subs: map[string]models.NewsletterSubscriber{}}, nil, "", nil, nil)
	assert.Empty(t, svc.UnsubscribeURL("dana@example.com"))
	_, err := svc.Unsubscribe(context.Background(), "x")
	assert.Equal(t, appErrors.ErrUnavailable.Code, appErrors.FromError(err).Code)
}
