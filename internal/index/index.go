// Package index persists the message-to-gallery mapping that lets reactions
// added long after a post resolve back to the right gallery.
package index

import "context"

// Store maps chat message ids to gallery ids. Entries are memoized lookups:
// once a message id maps to a gallery, later writes never replace it with a
// different gallery. A nil gallery id is a negative entry ("looked up, found
// nothing") and short-circuits future lookups the same as a hit.
//
// The table is append-only with no eviction; growth is an accepted
// operational limit.
type Store interface {
	// Get returns the gallery id recorded for a message. found is true for
	// both positive and negative entries; a negative entry yields a nil id.
	Get(ctx context.Context, messageID string) (galleryID *int64, found bool, err error)

	// Put records a resolution result. Upgrading a negative entry to a
	// gallery id is allowed; replacing one gallery id with another is not.
	Put(ctx context.Context, messageID string, galleryID *int64) error
}
