package bridge

import (
	"context"
	"log/slog"
	"time"
)

// BurstResult holds what a collection window gathered: the extra locators
// and the ids of the messages they came from.
type BurstResult struct {
	Locators []string
	Messages []string
}

// Collector gathers rapid follow-up attachment messages from the same author
// in the same channel so a multi-message upload lands in a single gallery.
type Collector struct {
	logger *slog.Logger
	source MessageSource
	extend time.Duration
	total  time.Duration
}

// NewCollector creates a collector. extend is how long the window stays open
// after each qualifying follow-up; total caps the whole window.
func NewCollector(log *slog.Logger, source MessageSource, extend, total time.Duration) *Collector {
	if log == nil {
		log = slog.Default()
	}
	return &Collector{
		logger: log.With(slog.String("service", "burst")),
		source: source,
		extend: extend,
		total:  total,
	}
}

// Collect opens a window for follow-ups from authorID in channelID and
// blocks until it closes. The window closes on the total timeout, on a
// follow-up from the author that carries no attachments, or on context
// cancellation. Each attachment-bearing follow-up is absorbed into the
// result and extends the window. The subscription is removed on every exit
// path, so no events leak past the window.
func (c *Collector) Collect(ctx context.Context, authorID, channelID string) BurstResult {
	events := make(chan MessageEvent, 16)
	remove := c.source.SubscribeMessages(func(ev MessageEvent) {
		if ev.Bot || ev.AuthorID != authorID || ev.ChannelID != channelID {
			return
		}
		select {
		case events <- ev:
		default:
		}
	})
	defer remove()

	totalTimer := time.NewTimer(c.total)
	defer totalTimer.Stop()

	// The extend timer is armed only once a follow-up arrives; an idle
	// window runs to the total timeout.
	var extendTimer *time.Timer
	var extendC <-chan time.Time
	defer func() {
		if extendTimer != nil {
			extendTimer.Stop()
		}
	}()

	var result BurstResult
	for {
		select {
		case <-ctx.Done():
			return result
		case <-totalTimer.C:
			return result
		case <-extendC:
			return result
		case ev := <-events:
			if len(ev.Attachments) == 0 {
				return result
			}
			result.Locators = append(result.Locators, ExtractLocators("", ev.Attachments)...)
			result.Messages = append(result.Messages, ev.MessageID)
			c.logger.Debug("absorbed follow-up attachments",
				slog.String("message_id", ev.MessageID),
				slog.Int("attachments", len(ev.Attachments)))
			if extendTimer == nil {
				extendTimer = time.NewTimer(c.extend)
				extendC = extendTimer.C
			} else {
				if !extendTimer.Stop() {
					<-extendTimer.C
				}
				extendTimer.Reset(c.extend)
			}
		}
	}
}
