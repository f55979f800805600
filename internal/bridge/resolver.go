package bridge

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"github.com/Lachee/gall-bot/internal/gall"
	"github.com/Lachee/gall-bot/internal/index"
)

var galleryPathPattern = regexp.MustCompile(`gallery/(\d+)/?`)

// Resolver answers "which gallery does this message refer to". Results are
// memoized in the index store, including the negative case, so the remote
// search runs at most once per message id.
type Resolver struct {
	logger *slog.Logger
	gall   GalleryClient
	chat   ChatClient
	store  index.Store
}

// NewResolver creates a resolver.
func NewResolver(log *slog.Logger, client GalleryClient, chat ChatClient, store index.Store) *Resolver {
	if log == nil {
		log = slog.Default()
	}
	return &Resolver{
		logger: log.With(slog.String("service", "resolver")),
		gall:   client,
		chat:   chat,
		store:  store,
	}
}

// Resolve maps a message to its gallery, if any. The order is: index lookup
// (positive or negative), remote search by message id, then a scan of the
// message content for an embedded gallery page link. Whatever the outcome,
// it is recorded so the next call for the same message hits the index.
func (r *Resolver) Resolve(ctx context.Context, messageID, channelID, actor string) (*gall.Gallery, error) {
	galleryID, found, err := r.store.Get(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", messageID, err)
	}
	if found {
		if galleryID == nil {
			return nil, nil
		}
		return r.gall.ActAs(actor).GetGallery(ctx, gall.ID(*galleryID))
	}

	api := r.gall.ActAs(actor)
	galleries, err := api.FindGalleries(ctx, messageID)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", messageID, err)
	}
	if len(galleries) > 0 {
		gallery := galleries[0]
		if err := r.store.Put(ctx, messageID, &gallery.ID); err != nil {
			r.logger.Warn("failed to record resolution", slog.String("message_id", messageID), slog.Any("error", err))
		}
		return &gallery, nil
	}

	content, err := r.chat.FetchMessageContent(ctx, channelID, messageID)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", messageID, err)
	}
	gallery, err := r.FromContent(ctx, content, actor)
	if err != nil {
		return nil, err
	}
	if gallery != nil {
		if err := r.store.Put(ctx, messageID, &gallery.ID); err != nil {
			r.logger.Warn("failed to record resolution", slog.String("message_id", messageID), slog.Any("error", err))
		}
		return gallery, nil
	}

	if err := r.store.Put(ctx, messageID, nil); err != nil {
		r.logger.Warn("failed to record negative resolution", slog.String("message_id", messageID), slog.Any("error", err))
	}
	return nil, nil
}

// FromContent scans message text for a gallery page link under the site base
// URL and fetches the gallery it names. It returns nil when the text links
// no gallery.
func (r *Resolver) FromContent(ctx context.Context, content, actor string) (*gall.Gallery, error) {
	base := r.gall.BaseURL()
	at := strings.Index(content, base)
	if at < 0 {
		return nil, nil
	}
	match := galleryPathPattern.FindStringSubmatch(content[at:])
	if match == nil {
		return nil, nil
	}
	id, err := strconv.ParseInt(match[1], 10, 64)
	if err != nil {
		return nil, nil
	}
	return r.gall.ActAs(actor).GetGallery(ctx, gall.ID(id))
}
