package index

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB is the subset of pgxpool.Pool the store needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PGStore is the durable Postgres-backed Store.
type PGStore struct {
	db     DB
	logger *slog.Logger
	writes atomic.Int64
}

// NewPGStore creates a store over the given database handle.
func NewPGStore(log *slog.Logger, db DB) *PGStore {
	if log == nil {
		log = slog.Default()
	}
	return &PGStore{
		db:     db,
		logger: log.With(slog.String("service", "index")),
	}
}

// Get implements Store.
func (s *PGStore) Get(ctx context.Context, messageID string) (*int64, bool, error) {
	var galleryID *int64
	row := s.db.QueryRow(ctx, `SELECT gallery_id FROM message_galleries WHERE message_id = $1`, messageID)
	if err := row.Scan(&galleryID); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("index get: %w", err)
	}
	return galleryID, true, nil
}

// Put implements Store. The upsert only overwrites a NULL gallery id, so a
// recorded gallery is never replaced; concurrent writers can race freely.
func (s *PGStore) Put(ctx context.Context, messageID string, galleryID *int64) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO message_galleries (message_id, gallery_id)
		VALUES ($1, $2)
		ON CONFLICT (message_id) DO UPDATE SET gallery_id = EXCLUDED.gallery_id
		WHERE message_galleries.gallery_id IS NULL`,
		messageID, galleryID)
	if err != nil {
		return fmt.Errorf("index put: %w", err)
	}
	s.writes.Add(1)
	return nil
}

// Writes returns the number of successful puts since startup.
func (s *PGStore) Writes() int64 {
	return s.writes.Load()
}
