package bridge

import (
	"context"
	"log/slog"

	"github.com/Lachee/gall-bot/internal/gall"
)

// Publisher submits upload batches to the gallery service.
type Publisher struct {
	logger *slog.Logger
	gall   GalleryClient
}

// NewPublisher creates a publisher.
func NewPublisher(log *slog.Logger, client GalleryClient) *Publisher {
	if log == nil {
		log = slog.Default()
	}
	return &Publisher{
		logger: log.With(slog.String("service", "publisher")),
		gall:   client,
	}
}

// Publish submits the batch as its actor. A nil gallery with a nil error is
// an application-level rejection; the caller treats it as a failed upload
// without retrying.
func (p *Publisher) Publish(ctx context.Context, batch UploadBatch) (*gall.Gallery, error) {
	if len(batch.Locators) == 0 || len(batch.Messages) == 0 {
		return nil, nil
	}
	p.logger.Info("publishing batch",
		slog.String("batch_id", batch.ID.String()),
		slog.String("actor", batch.Actor),
		slog.Int("locators", len(batch.Locators)),
		slog.Int("messages", len(batch.Messages)))

	gallery, err := p.gall.ActAs(batch.Actor).Publish(ctx, batch.Locators, batch.GuildID, batch.Channel, batch.Messages[0], "")
	if err != nil {
		return nil, err
	}
	return gallery, nil
}
