package bridge

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/Lachee/gall-bot/internal/index"
	"github.com/Lachee/gall-bot/internal/settings"
)

// Service wires the extractor, lock, collector, publisher, resolver and
// router into the two inbound event flows. It is the only entry point the
// gateway calls.
type Service struct {
	logger    *slog.Logger
	gall      GalleryClient
	chat      ChatClient
	store     index.Store
	settings  SettingsProvider
	locks     *ActorLock
	collector *Collector
	publisher *Publisher
	resolver  *Resolver
	router    *Router
	sync      *syncState
}

// NewService creates the bridge service.
func NewService(log *slog.Logger, client GalleryClient, chat ChatClient, store index.Store, provider SettingsProvider, collector *Collector) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		logger:    log.With(slog.String("service", "bridge")),
		gall:      client,
		chat:      chat,
		store:     store,
		settings:  provider,
		locks:     NewActorLock(),
		collector: collector,
		publisher: NewPublisher(log, client),
		resolver:  NewResolver(log, client, chat, store),
		router:    NewRouter(log, client),
		sync:      newSyncState(),
	}
}

// HandleMessage processes one inbound chat message. Every outcome short of
// a programming error is handled here; the returned error is for the
// gateway's log line only.
func (s *Service) HandleMessage(ctx context.Context, ev MessageEvent) error {
	if ev.Bot {
		return nil
	}

	guild, err := s.settings.Guild(ctx, ev.GuildID)
	if err != nil {
		s.logger.Warn("failed to load guild settings, using defaults",
			slog.String("guild_id", ev.GuildID), slog.Any("error", err))
		guild = settings.Defaults(ev.GuildID)
	}
	if !guild.UploadsEnabled {
		return nil
	}
	if guild.ChannelID != "" && guild.ChannelID != ev.ChannelID {
		return nil
	}

	// A message that already links a gallery gets the confirmation emoji
	// instead of a second upload.
	if gallery, err := s.resolver.FromContent(ctx, ev.Content, ev.AuthorID); err == nil && gallery != nil {
		if err := s.chat.React(ctx, ev.ChannelID, ev.MessageID, emojiConfirm); err != nil {
			s.logger.Warn("failed to react to gallery link", slog.Any("error", err))
		}
		return nil
	}

	locators := ExtractLocators(ev.Content, ev.Attachments)
	if len(locators) == 0 {
		return nil
	}

	if !s.locks.TryAcquire(ev.AuthorID) {
		s.logger.Debug("upload already in flight, dropping message",
			slog.String("author_id", ev.AuthorID), slog.String("message_id", ev.MessageID))
		return nil
	}
	defer s.locks.Release(ev.AuthorID)

	if err := s.chat.React(ctx, ev.ChannelID, ev.MessageID, emojiProcessing); err != nil {
		s.logger.Warn("failed to add processing reaction", slog.Any("error", err))
	}
	defer func() {
		if err := s.chat.Unreact(ctx, ev.ChannelID, ev.MessageID, emojiProcessing); err != nil {
			s.logger.Warn("failed to remove processing reaction", slog.Any("error", err))
		}
	}()

	batch := UploadBatch{
		ID:       uuid.New(),
		Actor:    ev.AuthorID,
		GuildID:  ev.GuildID,
		Channel:  ev.ChannelID,
		Messages: []string{ev.MessageID},
		Locators: locators,
	}
	if len(ev.Attachments) > 0 && guild.BurstEnabled && s.collector != nil {
		extra := s.collector.Collect(ctx, ev.AuthorID, ev.ChannelID)
		batch.Messages = append(batch.Messages, extra.Messages...)
		batch.Locators = mergeLocators(batch.Locators, extra.Locators)
	}

	gallery, err := s.publisher.Publish(ctx, batch)
	if err != nil {
		s.failUpload(ctx, ev)
		s.logger.Error("publish failed",
			slog.String("batch_id", batch.ID.String()), slog.Any("error", err))
		return err
	}

	var galleryID *int64
	if gallery != nil {
		galleryID = &gallery.ID
	}
	for _, messageID := range batch.Messages {
		if err := s.store.Put(ctx, messageID, galleryID); err != nil {
			s.logger.Warn("failed to index message",
				slog.String("message_id", messageID), slog.Any("error", err))
		}
	}

	if gallery == nil {
		s.failUpload(ctx, ev)
		s.logger.Info("gallery service rejected batch", slog.String("batch_id", batch.ID.String()))
		return nil
	}

	if err := s.chat.SuppressEmbeds(ctx, ev.ChannelID, ev.MessageID); err != nil {
		s.logger.Warn("failed to suppress embeds", slog.Any("error", err))
	}
	confirmationID, err := s.chat.SendMessage(ctx, ev.ChannelID, s.gall.GalleryPageURL(gallery))
	if err != nil {
		s.logger.Warn("failed to send confirmation", slog.Any("error", err))
		return nil
	}
	if err := s.store.Put(ctx, confirmationID, galleryID); err != nil {
		s.logger.Warn("failed to index confirmation message", slog.Any("error", err))
	}
	if err := s.chat.React(ctx, ev.ChannelID, confirmationID, emojiConfirm); err != nil {
		s.logger.Warn("failed to react to confirmation", slog.Any("error", err))
	}
	s.logger.Info("published gallery",
		slog.String("batch_id", batch.ID.String()),
		slog.Int64("gallery_id", gallery.ID),
		slog.Int("messages", len(batch.Messages)))
	return nil
}

// HandleReaction resolves the reacted message to a gallery and routes the
// emoji. Messages with no gallery are ignored.
func (s *Service) HandleReaction(ctx context.Context, ev ReactionEvent) error {
	if ev.Bot {
		return nil
	}

	if ev.GuildID != "" {
		guild, err := s.settings.Guild(ctx, ev.GuildID)
		if err == nil && !guild.ReactionsEnabled {
			return nil
		}
	}

	gallery, err := s.resolver.Resolve(ctx, ev.MessageID, ev.ChannelID, ev.UserID)
	if err != nil {
		return err
	}
	if gallery == nil {
		return nil
	}
	return s.router.Route(ctx, ev, gallery)
}

func (s *Service) failUpload(ctx context.Context, ev MessageEvent) {
	if err := s.chat.React(ctx, ev.ChannelID, ev.MessageID, emojiFailure); err != nil {
		s.logger.Warn("failed to add failure reaction", slog.Any("error", err))
	}
}

func mergeLocators(base, extra []string) []string {
	seen := make(map[string]struct{}, len(base))
	for _, locator := range base {
		seen[locator] = struct{}{}
	}
	for _, locator := range extra {
		if _, ok := seen[locator]; ok {
			continue
		}
		seen[locator] = struct{}{}
		base = append(base, locator)
	}
	return base
}
