package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/Lachee/gall-bot/internal/gall"
)

// syncState remembers the emoji set last pushed per guild so emoji events
// can be diffed into create/update/delete calls.
type syncState struct {
	mu     sync.Mutex
	emojis map[string]map[string]gall.Emoji
}

func newSyncState() *syncState {
	return &syncState{emojis: make(map[string]map[string]gall.Emoji)}
}

func (s *syncState) snapshot(guildID string) map[string]gall.Emoji {
	s.mu.Lock()
	defer s.mu.Unlock()
	known := make(map[string]gall.Emoji, len(s.emojis[guildID]))
	for id, emoji := range s.emojis[guildID] {
		known[id] = emoji
	}
	return known
}

func (s *syncState) record(guildID string, emojis []gall.Emoji) {
	s.mu.Lock()
	defer s.mu.Unlock()
	known := make(map[string]gall.Emoji, len(emojis))
	for _, emoji := range emojis {
		known[emoji.ID] = emoji
	}
	s.emojis[guildID] = known
}

func (s *syncState) forget(guildID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.emojis, guildID)
}

func (s *syncState) guildCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.emojis)
}

// SyncGuild pushes a guild's name and emoji set to the gallery service. An
// unknown guild is registered first, then updated.
func (s *Service) SyncGuild(ctx context.Context, guild GuildEvent) error {
	known, err := s.gall.UpdateGuild(ctx, guild.GuildID, guild.Name, guild.Emojis)
	if err != nil {
		return fmt.Errorf("sync guild %s: %w", guild.GuildID, err)
	}
	if !known {
		if err := s.gall.AddGuild(ctx, guild.GuildID); err != nil {
			return fmt.Errorf("sync guild %s: %w", guild.GuildID, err)
		}
		if _, err := s.gall.UpdateGuild(ctx, guild.GuildID, guild.Name, guild.Emojis); err != nil {
			return fmt.Errorf("sync guild %s: %w", guild.GuildID, err)
		}
	}
	s.sync.record(guild.GuildID, guild.Emojis)
	s.logger.Info("synced guild",
		slog.String("guild_id", guild.GuildID),
		slog.Int("emojis", len(guild.Emojis)))
	return nil
}

// RemoveGuild deregisters a guild the bot has left.
func (s *Service) RemoveGuild(ctx context.Context, guildID string) error {
	s.sync.forget(guildID)
	if err := s.gall.RemoveGuild(ctx, guildID); err != nil {
		return fmt.Errorf("remove guild %s: %w", guildID, err)
	}
	s.logger.Info("removed guild", slog.String("guild_id", guildID))
	return nil
}

// SyncEmojis diffs the guild's current emoji set against the last pushed
// snapshot and issues the matching create, update and delete calls.
func (s *Service) SyncEmojis(ctx context.Context, guildID string, current []gall.Emoji) error {
	known := s.sync.snapshot(guildID)

	var firstErr error
	keep := func(err error) {
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	for _, emoji := range current {
		previous, ok := known[emoji.ID]
		switch {
		case !ok:
			keep(s.gall.CreateEmoji(ctx, emoji))
		case previous.Name != emoji.Name || previous.Animated != emoji.Animated:
			keep(s.gall.UpdateEmoji(ctx, emoji))
		}
		delete(known, emoji.ID)
	}
	for id := range known {
		keep(s.gall.DeleteEmoji(ctx, id))
	}

	s.sync.record(guildID, current)
	if firstErr != nil {
		return fmt.Errorf("sync emojis %s: %w", guildID, firstErr)
	}
	return nil
}

// SyncedGuilds reports how many guilds have been synced since startup.
func (s *Service) SyncedGuilds() int {
	return s.sync.guildCount()
}
