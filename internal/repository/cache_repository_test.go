package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/noah-isme/youth-sports-api/pkg/errors"
)

func TestCacheRepositoryWithoutRedis(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var dest []string
	assert.ErrorIs(t, repo.Get(ctx, "teams:all", &dest), appErrors.ErrCacheMiss)
	assert.NoError(t, repo.Set(ctx, "teams:all", []string{"a"}, time.Minute))
	assert.NoError(t, repo.DeleteByPattern(ctx, "teams:*"))
	assert.NoError(t, repo.Ping(ctx))

	token, ok, err := repo.Acquire(ctx, "campaign:lock:winback", time.Minute)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.NotEmpty(t, token)
	assert.NoError(t, repo.Release(ctx, "campaign:lock:winback", token))
}
