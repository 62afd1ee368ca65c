package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/HF-CYGG/Dawn-Course-sub000/pkg/errors"
)

func TestCacheRepositoryWithoutClient(t *testing.T) {
	repo := NewCacheRepository(nil, nil)
	ctx := context.Background()

	var out []int
	assert.ErrorIs(t, repo.Get(ctx, "timetable:term:t:occurrences", &out), appErrors.ErrCacheMiss)
	require.NoError(t, repo.Set(ctx, "k", []int{1}, time.Minute))
	require.NoError(t, repo.DeleteByPattern(ctx, "timetable:term:t:*"))
	require.NoError(t, repo.Ping(ctx))
	require.NoError(t, repo.Close())
}
