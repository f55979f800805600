// Package bridge is the core of the bot: it correlates chat messages with
// galleries on the GALL service, deduplicates uploads, and mirrors reaction
// emoji onto gallery records.
package bridge

import (
	"context"

	"github.com/google/uuid"

	"github.com/Lachee/gall-bot/internal/gall"
	"github.com/Lachee/gall-bot/internal/settings"
)

// MessageEvent is a chat message as the bridge sees it. Identifiers are
// opaque platform strings and are never interpreted.
type MessageEvent struct {
	MessageID   string
	ChannelID   string
	GuildID     string
	AuthorID    string
	Content     string
	Attachments []string
	Bot         bool
}

// ReactionEvent is an emoji reaction being added to or removed from a
// message.
type ReactionEvent struct {
	MessageID string
	ChannelID string
	GuildID   string
	UserID    string
	Emoji     gall.Emoji
	Added     bool
	Bot       bool
}

// GuildEvent describes a guild the bot is a member of.
type GuildEvent struct {
	GuildID string
	Name    string
	Emojis  []gall.Emoji
}

// UploadBatch is one pending publish: the locators gathered from an
// initiating message plus any burst-collected follow-ups. It is consumed
// exactly once by the publisher.
type UploadBatch struct {
	ID       uuid.UUID
	Actor    string
	GuildID  string
	Channel  string
	Messages []string
	Locators []string
}

// GalleryAPI is the slice of the GALL client the bridge calls once an
// acting identity has been fixed.
type GalleryAPI interface {
	Publish(ctx context.Context, locators []string, guildID, channelID, messageID, title string) (*gall.Gallery, error)
	FindGalleries(ctx context.Context, query string) ([]gall.Gallery, error)
	GetGallery(ctx context.Context, ref gall.GalleryRef) (*gall.Gallery, error)
	AddReaction(ctx context.Context, ref gall.GalleryRef, emoji gall.Emoji) error
	RemoveReaction(ctx context.Context, ref gall.GalleryRef, emoji gall.Emoji) error
	Pin(ctx context.Context, ref gall.GalleryRef) error
	Favourite(ctx context.Context, ref gall.GalleryRef) error
	Unfavourite(ctx context.Context, ref gall.GalleryRef) error
	AddGuild(ctx context.Context, guildID string) error
	RemoveGuild(ctx context.Context, guildID string) error
	UpdateGuild(ctx context.Context, guildID, name string, emojis []gall.Emoji) (bool, error)
	CreateEmoji(ctx context.Context, emoji gall.Emoji) error
	UpdateEmoji(ctx context.Context, emoji gall.Emoji) error
	DeleteEmoji(ctx context.Context, emojiID string) error
	BaseURL() string
	GalleryPageURL(ref gall.GalleryRef) string
}

// GalleryClient is a GalleryAPI that can derive per-actor views. Acting
// identity is always an explicit parameter; the underlying client holds no
// mutable "current actor" state.
type GalleryClient interface {
	GalleryAPI
	ActAs(actor string) GalleryAPI
}

type gallClient struct {
	*gall.Client
}

func (c gallClient) ActAs(actor string) GalleryAPI {
	return gallClient{c.Client.As(actor)}
}

// NewGalleryClient adapts a gall.Client into a GalleryClient.
func NewGalleryClient(client *gall.Client) GalleryClient {
	return gallClient{client}
}

// ChatClient is the outbound surface of the chat platform the bridge needs.
type ChatClient interface {
	SendMessage(ctx context.Context, channelID, content string) (messageID string, err error)
	React(ctx context.Context, channelID, messageID, emoji string) error
	Unreact(ctx context.Context, channelID, messageID, emoji string) error
	SuppressEmbeds(ctx context.Context, channelID, messageID string) error
	FetchMessageContent(ctx context.Context, channelID, messageID string) (string, error)
}

// MessageSource delivers message events to a handler. The returned remove
// func cancels the subscription; it must be safe to call exactly once on
// every exit path.
type MessageSource interface {
	SubscribeMessages(handler func(MessageEvent)) (remove func())
}

// SettingsProvider yields per-guild configuration.
type SettingsProvider interface {
	Guild(ctx context.Context, guildID string) (settings.Guild, error)
}
