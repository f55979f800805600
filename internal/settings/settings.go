// Package settings stores per-guild bot configuration.
package settings

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DefaultPrefix is the command prefix a guild starts with.
const DefaultPrefix = "!"

// Guild is the configuration for one guild. A guild with no stored row uses
// the defaults.
type Guild struct {
	GuildID          string
	Prefix           string
	ChannelID        string
	UploadsEnabled   bool
	ReactionsEnabled bool
	BurstEnabled     bool
}

// Defaults returns the configuration a guild has before anything is stored.
func Defaults(guildID string) Guild {
	return Guild{
		GuildID:          guildID,
		Prefix:           DefaultPrefix,
		UploadsEnabled:   true,
		ReactionsEnabled: true,
		BurstEnabled:     true,
	}
}

// DB is the subset of pgxpool.Pool the service needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Service reads and writes guild settings.
type Service struct {
	db     DB
	logger *slog.Logger
}

// NewService creates a settings service.
func NewService(log *slog.Logger, db DB) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		db:     db,
		logger: log.With(slog.String("service", "settings")),
	}
}

// Guild returns the stored settings for a guild, or the defaults when none
// are stored.
func (s *Service) Guild(ctx context.Context, guildID string) (Guild, error) {
	guild := Guild{GuildID: guildID}
	row := s.db.QueryRow(ctx, `
		SELECT prefix, channel_id, uploads_enabled, reactions_enabled, burst_enabled
		FROM guild_settings WHERE guild_id = $1`, guildID)
	err := row.Scan(&guild.Prefix, &guild.ChannelID, &guild.UploadsEnabled, &guild.ReactionsEnabled, &guild.BurstEnabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return Defaults(guildID), nil
	}
	if err != nil {
		return Guild{}, fmt.Errorf("settings get: %w", err)
	}
	return guild, nil
}

// Upsert stores the settings for a guild, normalizing the prefix first.
func (s *Service) Upsert(ctx context.Context, guild Guild) error {
	guild.Prefix = strings.TrimSpace(guild.Prefix)
	if guild.Prefix == "" {
		guild.Prefix = DefaultPrefix
	}
	_, err := s.db.Exec(ctx, `
		INSERT INTO guild_settings (guild_id, prefix, channel_id, uploads_enabled, reactions_enabled, burst_enabled, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW())
		ON CONFLICT (guild_id) DO UPDATE SET
			prefix = EXCLUDED.prefix,
			channel_id = EXCLUDED.channel_id,
			uploads_enabled = EXCLUDED.uploads_enabled,
			reactions_enabled = EXCLUDED.reactions_enabled,
			burst_enabled = EXCLUDED.burst_enabled,
			updated_at = NOW()`,
		guild.GuildID, guild.Prefix, guild.ChannelID, guild.UploadsEnabled, guild.ReactionsEnabled, guild.BurstEnabled)
	if err != nil {
		return fmt.Errorf("settings upsert: %w", err)
	}
	s.logger.Info("updated guild settings", slog.String("guild_id", guild.GuildID))
	return nil
}

// Delete removes a guild's stored settings, reverting it to the defaults.
func (s *Service) Delete(ctx context.Context, guildID string) error {
	_, err := s.db.Exec(ctx, `DELETE FROM guild_settings WHERE guild_id = $1`, guildID)
	if err != nil {
		return fmt.Errorf("settings delete: %w", err)
	}
	return nil
}
