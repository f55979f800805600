package bridge

import (
	"context"
	"fmt"
	"sync"

	"github.com/Lachee/gall-bot/internal/gall"
	"github.com/Lachee/gall-bot/internal/settings"
)

// fakeGallState is shared between every per-actor view of a fakeGall so the
// test can count calls regardless of which view made them.
type fakeGallState struct {
	mu    sync.Mutex
	calls []string

	publishGallery *gall.Gallery
	publishErr     error
	findResults    []gall.Gallery
	findErr        error
	galleries      map[int64]gall.Gallery
	guildKnown     bool
	opErr          error
}

type fakeGall struct {
	state *fakeGallState
	actor string
}

func newFakeGall() *fakeGall {
	return &fakeGall{state: &fakeGallState{galleries: make(map[int64]gall.Gallery)}}
}

func (f *fakeGall) record(format string, args ...any) {
	f.state.mu.Lock()
	defer f.state.mu.Unlock()
	f.state.calls = append(f.state.calls, fmt.Sprintf(format, args...))
}

func (f *fakeGall) callCount(prefix string) int {
	f.state.mu.Lock()
	defer f.state.mu.Unlock()
	count := 0
	for _, call := range f.state.calls {
		if len(call) >= len(prefix) && call[:len(prefix)] == prefix {
			count++
		}
	}
	return count
}

func (f *fakeGall) callLog() []string {
	f.state.mu.Lock()
	defer f.state.mu.Unlock()
	return append([]string(nil), f.state.calls...)
}

func (f *fakeGall) ActAs(actor string) GalleryAPI {
	return &fakeGall{state: f.state, actor: actor}
}

func (f *fakeGall) Publish(ctx context.Context, locators []string, guildID, channelID, messageID, title string) (*gall.Gallery, error) {
	f.record("publish actor=%s message=%s locators=%d", f.actor, messageID, len(locators))
	return f.state.publishGallery, f.state.publishErr
}

func (f *fakeGall) FindGalleries(ctx context.Context, query string) ([]gall.Gallery, error) {
	f.record("find actor=%s query=%s", f.actor, query)
	return f.state.findResults, f.state.findErr
}

func (f *fakeGall) GetGallery(ctx context.Context, ref gall.GalleryRef) (*gall.Gallery, error) {
	f.record("get actor=%s id=%d", f.actor, ref.GalleryID())
	if gallery, ok := f.state.galleries[ref.GalleryID()]; ok {
		return &gallery, nil
	}
	return nil, nil
}

func (f *fakeGall) AddReaction(ctx context.Context, ref gall.GalleryRef, emoji gall.Emoji) error {
	f.record("react actor=%s id=%d emoji=%s", f.actor, ref.GalleryID(), emoji.Name)
	return f.state.opErr
}

func (f *fakeGall) RemoveReaction(ctx context.Context, ref gall.GalleryRef, emoji gall.Emoji) error {
	f.record("unreact actor=%s id=%d emoji=%s", f.actor, ref.GalleryID(), emoji.Name)
	return f.state.opErr
}

func (f *fakeGall) Pin(ctx context.Context, ref gall.GalleryRef) error {
	f.record("pin actor=%s id=%d", f.actor, ref.GalleryID())
	return f.state.opErr
}

func (f *fakeGall) Favourite(ctx context.Context, ref gall.GalleryRef) error {
	f.record("favourite actor=%s id=%d", f.actor, ref.GalleryID())
	return f.state.opErr
}

func (f *fakeGall) Unfavourite(ctx context.Context, ref gall.GalleryRef) error {
	f.record("unfavourite actor=%s id=%d", f.actor, ref.GalleryID())
	return f.state.opErr
}

func (f *fakeGall) AddGuild(ctx context.Context, guildID string) error {
	f.record("addguild id=%s", guildID)
	f.state.mu.Lock()
	f.state.guildKnown = true
	f.state.mu.Unlock()
	return f.state.opErr
}

func (f *fakeGall) RemoveGuild(ctx context.Context, guildID string) error {
	f.record("removeguild id=%s", guildID)
	return f.state.opErr
}

func (f *fakeGall) UpdateGuild(ctx context.Context, guildID, name string, emojis []gall.Emoji) (bool, error) {
	f.record("updateguild id=%s emojis=%d", guildID, len(emojis))
	f.state.mu.Lock()
	defer f.state.mu.Unlock()
	return f.state.guildKnown, f.state.opErr
}

func (f *fakeGall) CreateEmoji(ctx context.Context, emoji gall.Emoji) error {
	f.record("createemoji id=%s", emoji.ID)
	return f.state.opErr
}

func (f *fakeGall) UpdateEmoji(ctx context.Context, emoji gall.Emoji) error {
	f.record("updateemoji id=%s", emoji.ID)
	return f.state.opErr
}

func (f *fakeGall) DeleteEmoji(ctx context.Context, emojiID string) error {
	f.record("deleteemoji id=%s", emojiID)
	return f.state.opErr
}

func (f *fakeGall) BaseURL() string {
	return "https://gall.example/"
}

func (f *fakeGall) GalleryPageURL(ref gall.GalleryRef) string {
	return fmt.Sprintf("https://gall.example/gallery/%d/", ref.GalleryID())
}

// fakeChat records outbound chat calls and serves canned message content.
type fakeChat struct {
	mu       sync.Mutex
	calls    []string
	content  map[string]string
	fetchErr error
	sendErr  error
	nextID   int
}

func newFakeChat() *fakeChat {
	return &fakeChat{content: make(map[string]string)}
}

func (f *fakeChat) record(format string, args ...any) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, fmt.Sprintf(format, args...))
}

func (f *fakeChat) callLog() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

func (f *fakeChat) SendMessage(ctx context.Context, channelID, content string) (string, error) {
	f.mu.Lock()
	f.nextID++
	id := fmt.Sprintf("sent-%d", f.nextID)
	f.calls = append(f.calls, fmt.Sprintf("send channel=%s content=%s", channelID, content))
	f.mu.Unlock()
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return id, nil
}

func (f *fakeChat) React(ctx context.Context, channelID, messageID, emoji string) error {
	f.record("react message=%s emoji=%s", messageID, emoji)
	return nil
}

func (f *fakeChat) Unreact(ctx context.Context, channelID, messageID, emoji string) error {
	f.record("unreact message=%s emoji=%s", messageID, emoji)
	return nil
}

func (f *fakeChat) SuppressEmbeds(ctx context.Context, channelID, messageID string) error {
	f.record("suppress message=%s", messageID)
	return nil
}

func (f *fakeChat) FetchMessageContent(ctx context.Context, channelID, messageID string) (string, error) {
	f.record("fetch message=%s", messageID)
	if f.fetchErr != nil {
		return "", f.fetchErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.content[messageID], nil
}

// fakeSettings serves fixed per-guild settings.
type fakeSettings struct {
	guilds map[string]settings.Guild
	err    error
}

func (f *fakeSettings) Guild(ctx context.Context, guildID string) (settings.Guild, error) {
	if f.err != nil {
		return settings.Guild{}, f.err
	}
	if guild, ok := f.guilds[guildID]; ok {
		return guild, nil
	}
	return settings.Defaults(guildID), nil
}
