package tags_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/slipstream/delaygate/internal/delayprofile"
	"github.com/slipstream/delaygate/internal/tags"
	"github.com/slipstream/delaygate/internal/testutil"
)

func TestService_CreateIsIdempotent(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	svc := tags.NewService(tdb.Conn, tdb.Logger)
	ctx := context.Background()

	first, err := svc.Create(ctx, "  Anime ")
	require.NoError(t, err)
	assert.Equal(t, "anime", first.Label)

	second, err := svc.Create(ctx, "ANIME")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	_, err = svc.Create(ctx, "   ")
	assert.ErrorIs(t, err, tags.ErrInvalidTag)

	all, err := svc.List(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestService_DeleteInUse(t *testing.T) {
	tdb := testutil.NewTestDB(t)
	defer tdb.Close()

	svc := tags.NewService(tdb.Conn, tdb.Logger)
	store := delayprofile.NewStore(tdb.Conn, tdb.Logger)
	ctx := context.Background()
	require.NoError(t, store.Load(ctx))

	tag, err := svc.Create(ctx, "4k")
	require.NoError(t, err)
	profile, err := store.Add(ctx, delayprofile.Input{TorrentDelay: 60, Tags: []int64{tag.ID}})
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, tag.ID), tags.ErrTagInUse)

	require.NoError(t, store.Delete(ctx, profile.ID))
	require.NoError(t, svc.Delete(ctx, tag.ID))

	_, err = svc.Get(ctx, tag.ID)
	assert.ErrorIs(t, err, tags.ErrTagNotFound)
	assert.ErrorIs(t, svc.Delete(ctx, tag.ID), tags.ErrTagNotFound)
}
