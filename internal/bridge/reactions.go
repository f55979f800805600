package bridge

import (
	"context"
	"log/slog"

	"github.com/Lachee/gall-bot/internal/gall"
)

// Reaction emoji the bot itself uses on messages.
const (
	emojiProcessing = "🕑"
	emojiFailure    = "❌"
	emojiConfirm    = "🔥"
)

// Router maps chat reaction emoji onto gallery operations.
type Router struct {
	logger *slog.Logger
	gall   GalleryClient
}

// NewRouter creates a reaction router.
func NewRouter(log *slog.Logger, client GalleryClient) *Router {
	if log == nil {
		log = slog.Default()
	}
	return &Router{
		logger: log.With(slog.String("service", "reactions")),
		gall:   client,
	}
}

// Route applies one reaction event to a gallery on behalf of the reacting
// user. 🔥 🔖 👀 toggle the favourite state, 📌 📍 pin on add only (there is
// no unpin), and everything else is recorded as a generic reaction.
func (r *Router) Route(ctx context.Context, ev ReactionEvent, ref gall.GalleryRef) error {
	api := r.gall.ActAs(ev.UserID)
	switch ev.Emoji.Name {
	case "🔥", "🔖", "👀":
		if ev.Added {
			return api.Favourite(ctx, ref)
		}
		return api.Unfavourite(ctx, ref)
	case "📌", "📍":
		if !ev.Added {
			return nil
		}
		return api.Pin(ctx, ref)
	default:
		if ev.Added {
			return api.AddReaction(ctx, ref, ev.Emoji)
		}
		return api.RemoveReaction(ctx, ref, ev.Emoji)
	}
}
