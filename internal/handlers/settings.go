package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/Lachee/gall-bot/internal/settings"
)

type SettingsHandler struct {
	logger   *slog.Logger
	settings *settings.Service
}

func NewSettingsHandler(log *slog.Logger, svc *settings.Service) *SettingsHandler {
	if log == nil {
		log = slog.Default()
	}
	return &SettingsHandler{
		logger:   log.With(slog.String("handler", "settings")),
		settings: svc,
	}
}

func (h *SettingsHandler) Register(e *echo.Echo) {
	e.GET("/guilds/:id/settings", h.Get)
	e.PUT("/guilds/:id/settings", h.Put)
}

type guildSettingsBody struct {
	Prefix           string `json:"prefix"`
	ChannelID        string `json:"channel_id"`
	UploadsEnabled   bool   `json:"uploads_enabled"`
	ReactionsEnabled bool   `json:"reactions_enabled"`
	BurstEnabled     bool   `json:"burst_enabled"`
}

func (h *SettingsHandler) Get(c echo.Context) error {
	guild, err := h.settings.Guild(c.Request().Context(), c.Param("id"))
	if err != nil {
		h.logger.Error("get settings failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to load settings")
	}
	return c.JSON(http.StatusOK, guildSettingsBody{
		Prefix:           guild.Prefix,
		ChannelID:        guild.ChannelID,
		UploadsEnabled:   guild.UploadsEnabled,
		ReactionsEnabled: guild.ReactionsEnabled,
		BurstEnabled:     guild.BurstEnabled,
	})
}

func (h *SettingsHandler) Put(c echo.Context) error {
	var body guildSettingsBody
	if err := c.Bind(&body); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body")
	}
	guild := settings.Guild{
		GuildID:          c.Param("id"),
		Prefix:           body.Prefix,
		ChannelID:        body.ChannelID,
		UploadsEnabled:   body.UploadsEnabled,
		ReactionsEnabled: body.ReactionsEnabled,
		BurstEnabled:     body.BurstEnabled,
	}
	if err := h.settings.Upsert(c.Request().Context(), guild); err != nil {
		h.logger.Error("update settings failed", slog.Any("error", err))
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to store settings")
	}
	return c.NoContent(http.StatusNoContent)
}
