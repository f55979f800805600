package handlers

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"
)

// GatewayStatus reports the live state of the chat gateway.
type GatewayStatus interface {
	Connected() bool
	Guilds() int
}

// IndexStats exposes index write activity.
type IndexStats interface {
	Writes() int64
}

type StatusHandler struct {
	logger  *slog.Logger
	gateway GatewayStatus
	index   IndexStats
}

func NewStatusHandler(log *slog.Logger, gateway GatewayStatus, index IndexStats) *StatusHandler {
	if log == nil {
		log = slog.Default()
	}
	return &StatusHandler{
		logger:  log.With(slog.String("handler", "status")),
		gateway: gateway,
		index:   index,
	}
}

func (h *StatusHandler) Register(e *echo.Echo) {
	e.GET("/status", h.Status)
}

type statusResponse struct {
	Connected   bool  `json:"connected"`
	Guilds      int   `json:"guilds"`
	IndexWrites int64 `json:"index_writes"`
}

func (h *StatusHandler) Status(c echo.Context) error {
	resp := statusResponse{}
	if h.gateway != nil {
		resp.Connected = h.gateway.Connected()
		resp.Guilds = h.gateway.Guilds()
	}
	if h.index != nil {
		resp.IndexWrites = h.index.Writes()
	}
	return c.JSON(http.StatusOK, resp)
}
