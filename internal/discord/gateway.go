// Package discord connects the bridge to the Discord gateway and REST API.
package discord

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/bwmarrin/discordgo"

	"github.com/Lachee/gall-bot/internal/bridge"
	"github.com/Lachee/gall-bot/internal/config"
	"github.com/Lachee/gall-bot/internal/gall"
)

// EventHandler is the slice of the bridge service the gateway dispatches to.
type EventHandler interface {
	HandleMessage(ctx context.Context, ev bridge.MessageEvent) error
	HandleReaction(ctx context.Context, ev bridge.ReactionEvent) error
	SyncGuild(ctx context.Context, ev bridge.GuildEvent) error
	RemoveGuild(ctx context.Context, guildID string) error
	SyncEmojis(ctx context.Context, guildID string, emojis []gall.Emoji) error
}

// Gateway owns the discordgo session. It implements bridge.ChatClient for
// outbound calls and bridge.MessageSource for the burst collector's scoped
// follow-up subscriptions.
type Gateway struct {
	logger  *slog.Logger
	session *discordgo.Session

	mu          sync.RWMutex
	handler     EventHandler
	subscribers map[int]func(bridge.MessageEvent)
	nextSub     int
	connected   bool
}

// NewGateway creates a gateway for the configured bot token. The session is
// not opened until Start.
func NewGateway(log *slog.Logger, cfg config.DiscordConfig) (*Gateway, error) {
	if log == nil {
		log = slog.Default()
	}
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsGuildEmojis |
		discordgo.IntentsDirectMessages |
		discordgo.IntentMessageContent

	return &Gateway{
		logger:      log.With(slog.String("service", "discord")),
		session:     session,
		subscribers: make(map[int]func(bridge.MessageEvent)),
	}, nil
}

// Bind attaches the event handler. The gateway and the bridge service are
// mutually dependent, so the handler arrives after construction.
func (g *Gateway) Bind(handler EventHandler) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.handler = handler
}

// Start registers the gateway event handlers and opens the connection.
func (g *Gateway) Start(ctx context.Context) error {
	g.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		g.mu.Lock()
		g.connected = true
		g.mu.Unlock()
		g.logger.Info("gateway ready",
			slog.String("user_id", r.User.ID),
			slog.Int("guilds", len(r.Guilds)))
	})
	g.session.AddHandler(func(s *discordgo.Session, d *discordgo.Disconnect) {
		g.mu.Lock()
		g.connected = false
		g.mu.Unlock()
		g.logger.Warn("gateway disconnected")
	})
	g.session.AddHandler(g.onMessageCreate)
	g.session.AddHandler(g.onReactionAdd)
	g.session.AddHandler(g.onReactionRemove)
	g.session.AddHandler(g.onGuildCreate)
	g.session.AddHandler(g.onGuildUpdate)
	g.session.AddHandler(g.onGuildDelete)
	g.session.AddHandler(g.onGuildEmojisUpdate)

	if err := g.session.Open(); err != nil {
		return fmt.Errorf("open gateway: %w", err)
	}
	return nil
}

// Stop closes the gateway connection.
func (g *Gateway) Stop(ctx context.Context) error {
	g.mu.Lock()
	g.connected = false
	g.mu.Unlock()
	return g.session.Close()
}

// Connected reports whether the gateway session is up.
func (g *Gateway) Connected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.connected
}

// SubscribeMessages implements bridge.MessageSource. Events are fanned out
// to every live subscriber; the remove func is idempotent.
func (g *Gateway) SubscribeMessages(handler func(bridge.MessageEvent)) func() {
	g.mu.Lock()
	id := g.nextSub
	g.nextSub++
	g.subscribers[id] = handler
	g.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			g.mu.Lock()
			delete(g.subscribers, id)
			g.mu.Unlock()
		})
	}
}

func (g *Gateway) onMessageCreate(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil {
		return
	}
	ev := bridge.MessageEvent{
		MessageID:   m.ID,
		ChannelID:   m.ChannelID,
		GuildID:     m.GuildID,
		AuthorID:    m.Author.ID,
		Content:     m.Content,
		Attachments: attachmentURLs(m.Message),
		Bot:         m.Author.Bot || m.Author.ID == botID(s),
	}

	g.mu.RLock()
	subscribers := make([]func(bridge.MessageEvent), 0, len(g.subscribers))
	for _, sub := range g.subscribers {
		subscribers = append(subscribers, sub)
	}
	handler := g.handler
	g.mu.RUnlock()

	for _, sub := range subscribers {
		sub(ev)
	}
	if handler == nil {
		return
	}
	go func() {
		if err := handler.HandleMessage(context.Background(), ev); err != nil {
			g.logger.Error("handle message failed",
				slog.String("message_id", ev.MessageID), slog.Any("error", err))
		}
	}()
}

func (g *Gateway) onReactionAdd(s *discordgo.Session, r *discordgo.MessageReactionAdd) {
	g.dispatchReaction(s, r.MessageReaction, r.Member, true)
}

func (g *Gateway) onReactionRemove(s *discordgo.Session, r *discordgo.MessageReactionRemove) {
	g.dispatchReaction(s, r.MessageReaction, nil, false)
}

func (g *Gateway) dispatchReaction(s *discordgo.Session, r *discordgo.MessageReaction, member *discordgo.Member, added bool) {
	handler := g.currentHandler()
	if handler == nil {
		return
	}
	bot := r.UserID != "" && r.UserID == botID(s)
	if member != nil && member.User != nil && member.User.Bot {
		bot = true
	}
	ev := bridge.ReactionEvent{
		MessageID: r.MessageID,
		ChannelID: r.ChannelID,
		GuildID:   r.GuildID,
		UserID:    r.UserID,
		Emoji: gall.Emoji{
			ID:       r.Emoji.ID,
			Name:     r.Emoji.Name,
			Animated: r.Emoji.Animated,
			GuildID:  r.GuildID,
		},
		Added: added,
		Bot:   bot,
	}
	go func() {
		if err := handler.HandleReaction(context.Background(), ev); err != nil {
			g.logger.Error("handle reaction failed",
				slog.String("message_id", ev.MessageID), slog.Any("error", err))
		}
	}()
}

func (g *Gateway) onGuildCreate(s *discordgo.Session, gc *discordgo.GuildCreate) {
	g.syncGuild(gc.Guild)
}

func (g *Gateway) onGuildUpdate(s *discordgo.Session, gu *discordgo.GuildUpdate) {
	g.syncGuild(gu.Guild)
}

func (g *Gateway) syncGuild(guild *discordgo.Guild) {
	handler := g.currentHandler()
	if handler == nil || guild == nil {
		return
	}
	ev := bridge.GuildEvent{
		GuildID: guild.ID,
		Name:    guild.Name,
		Emojis:  convertEmojis(guild.ID, guild.Emojis),
	}
	go func() {
		if err := handler.SyncGuild(context.Background(), ev); err != nil {
			g.logger.Error("guild sync failed", slog.String("guild_id", ev.GuildID), slog.Any("error", err))
		}
	}()
}

func (g *Gateway) onGuildDelete(s *discordgo.Session, gd *discordgo.GuildDelete) {
	handler := g.currentHandler()
	if handler == nil || gd.Guild == nil {
		return
	}
	// Unavailable means an outage, not a removal.
	if gd.Unavailable {
		return
	}
	guildID := gd.ID
	go func() {
		if err := handler.RemoveGuild(context.Background(), guildID); err != nil {
			g.logger.Error("guild removal failed", slog.String("guild_id", guildID), slog.Any("error", err))
		}
	}()
}

func (g *Gateway) onGuildEmojisUpdate(s *discordgo.Session, e *discordgo.GuildEmojisUpdate) {
	handler := g.currentHandler()
	if handler == nil {
		return
	}
	guildID := e.GuildID
	emojis := convertEmojis(guildID, e.Emojis)
	go func() {
		if err := handler.SyncEmojis(context.Background(), guildID, emojis); err != nil {
			g.logger.Error("emoji sync failed", slog.String("guild_id", guildID), slog.Any("error", err))
		}
	}()
}

func (g *Gateway) currentHandler() EventHandler {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.handler
}

// Guilds returns how many guilds the session currently tracks.
func (g *Gateway) Guilds() int {
	if g.session.State == nil {
		return 0
	}
	return len(g.session.State.Guilds)
}

// ResyncAll pushes every tracked guild to the gallery service. Used by the
// periodic sync job to heal drift.
func (g *Gateway) ResyncAll(ctx context.Context) {
	handler := g.currentHandler()
	if handler == nil || g.session.State == nil {
		return
	}
	for _, guild := range g.session.State.Guilds {
		ev := bridge.GuildEvent{
			GuildID: guild.ID,
			Name:    guild.Name,
			Emojis:  convertEmojis(guild.ID, guild.Emojis),
		}
		if err := handler.SyncGuild(ctx, ev); err != nil {
			g.logger.Error("periodic guild sync failed", slog.String("guild_id", guild.ID), slog.Any("error", err))
		}
	}
}

func botID(s *discordgo.Session) string {
	if s == nil || s.State == nil || s.State.User == nil {
		return ""
	}
	return s.State.User.ID
}

func attachmentURLs(msg *discordgo.Message) []string {
	if msg == nil || len(msg.Attachments) == 0 {
		return nil
	}
	urls := make([]string, 0, len(msg.Attachments))
	for _, att := range msg.Attachments {
		if att == nil || att.URL == "" {
			continue
		}
		urls = append(urls, att.URL)
	}
	return urls
}

func convertEmojis(guildID string, emojis []*discordgo.Emoji) []gall.Emoji {
	converted := make([]gall.Emoji, 0, len(emojis))
	for _, emoji := range emojis {
		if emoji == nil {
			continue
		}
		converted = append(converted, gall.Emoji{
			ID:       emoji.ID,
			Name:     emoji.Name,
			Animated: emoji.Animated,
			GuildID:  guildID,
		})
	}
	return converted
}
