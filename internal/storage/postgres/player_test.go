package postgres_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cory-johannsen/arena/internal/game/stats"
	"github.com/cory-johannsen/arena/internal/storage/postgres"
	"github.com/cory-johannsen/arena/internal/testutil"
)

func TestPlayerRepository_GetOrCreate(t *testing.T) {
	repo := postgres.NewPlayerRepository(testutil.NewPool(t))
	ctx := context.Background()
	id := uniqueOwner("player")

	p, err := repo.GetOrCreate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, id, p.ID)
	assert.Equal(t, stats.InitialRating, p.Rating)
	assert.Zero(t, p.Wins)
	assert.False(t, p.CreatedAt.IsZero())

	// A second call returns the same profile instead of resetting it.
	require.NoError(t, repo.AdjustRating(ctx, id, 25))
	again, err := repo.GetOrCreate(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, stats.InitialRating+25, again.Rating)
}

func TestPlayerRepository_GetByID_NotFound(t *testing.T) {
	repo := postgres.NewPlayerRepository(testutil.NewPool(t))

	_, err := repo.GetByID(context.Background(), uniqueOwner("ghost"))
	assert.ErrorIs(t, err, postgres.ErrPlayerNotFound)
}

func TestPlayerRepository_AdjustRating(t *testing.T) {
	repo := postgres.NewPlayerRepository(testutil.NewPool(t))
	ctx := context.Background()
	id := uniqueOwner("player")

	// Adjusting an unseen player creates the profile first.
	require.NoError(t, repo.AdjustRating(ctx, id, 25))
	p, err := repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, stats.InitialRating+25, p.Rating)
	assert.Equal(t, 1, p.Wins)
	assert.Zero(t, p.Losses)

	require.NoError(t, repo.AdjustRating(ctx, id, -25))
	p, err = repo.GetByID(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, stats.InitialRating, p.Rating)
	assert.Equal(t, 1, p.Wins)
	assert.Equal(t, 1, p.Losses)
}
