package bridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lachee/gall-bot/internal/gall"
	"github.com/Lachee/gall-bot/internal/index"
)

func newSyncFixture(t *testing.T) (*fakeGall, *Service) {
	t.Helper()
	api := newFakeGall()
	svc := NewService(nil, api, newFakeChat(), index.NewMemoryStore(), &fakeSettings{}, nil)
	return api, svc
}

func TestSyncGuild_RegistersUnknownGuild(t *testing.T) {
	t.Parallel()

	api, svc := newSyncFixture(t)

	require.NoError(t, svc.SyncGuild(context.Background(), GuildEvent{
		GuildID: "g1",
		Name:    "art server",
		Emojis:  []gall.Emoji{{ID: "e1", Name: "blob"}},
	}))

	assert.Equal(t, []string{
		"updateguild id=g1 emojis=1",
		"addguild id=g1",
		"updateguild id=g1 emojis=1",
	}, api.callLog())
	assert.Equal(t, 1, svc.SyncedGuilds())
}

func TestSyncGuild_UpdatesKnownGuildOnce(t *testing.T) {
	t.Parallel()

	api, svc := newSyncFixture(t)
	api.state.guildKnown = true

	require.NoError(t, svc.SyncGuild(context.Background(), GuildEvent{GuildID: "g1", Name: "art server"}))
	assert.Equal(t, []string{"updateguild id=g1 emojis=0"}, api.callLog())
}

func TestSyncEmojis_DiffsAgainstSnapshot(t *testing.T) {
	t.Parallel()

	api, svc := newSyncFixture(t)
	api.state.guildKnown = true
	require.NoError(t, svc.SyncGuild(context.Background(), GuildEvent{
		GuildID: "g1",
		Emojis: []gall.Emoji{
			{ID: "keep", Name: "same"},
			{ID: "rename", Name: "old"},
			{ID: "gone", Name: "bye"},
		},
	}))

	require.NoError(t, svc.SyncEmojis(context.Background(), "g1", []gall.Emoji{
		{ID: "keep", Name: "same"},
		{ID: "rename", Name: "new"},
		{ID: "fresh", Name: "hello"},
	}))

	calls := api.callLog()
	assert.Contains(t, calls, "updateemoji id=rename")
	assert.Contains(t, calls, "createemoji id=fresh")
	assert.Contains(t, calls, "deleteemoji id=gone")
	assert.NotContains(t, calls, "updateemoji id=keep")
}

func TestRemoveGuild_ForgetsSnapshot(t *testing.T) {
	t.Parallel()

	api, svc := newSyncFixture(t)
	api.state.guildKnown = true
	require.NoError(t, svc.SyncGuild(context.Background(), GuildEvent{GuildID: "g1"}))
	require.Equal(t, 1, svc.SyncedGuilds())

	require.NoError(t, svc.RemoveGuild(context.Background(), "g1"))
	assert.Zero(t, svc.SyncedGuilds())
	assert.Contains(t, api.callLog(), "removeguild id=g1")
}
