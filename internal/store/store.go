// Package store keeps the caption history and the favorites collection.
// Both lists live in memory and are mirrored to named records in SQLite;
// every mutation rewrites the whole list in one statement.
package store

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/hpungsan/captiongenius/internal/caption"
	"github.com/hpungsan/captiongenius/internal/db"
	"github.com/hpungsan/captiongenius/internal/errors"
	"github.com/hpungsan/captiongenius/internal/logging"
	"github.com/hpungsan/captiongenius/internal/settings"
)

// DefaultHistoryLimit is the number of history entries kept when Options leaves it unset.
const DefaultHistoryLimit = 10

// Options configures a Store.
type Options struct {
	HistoryLimit int
	Logger       *slog.Logger

	// Now overrides the clock (tests). Defaults to time.Now.
	Now func() time.Time
}

// Store is the persistence store for history and favorites.
// It is safe for concurrent use.
type Store struct {
	db     *sql.DB
	limit  int
	logger *slog.Logger
	now    func() time.Time

	mu        sync.Mutex
	history   []caption.HistoryItem
	favorites []caption.CollectionItem
	entropy   *ulid.MonotonicEntropy
}

// Open loads both collections from database. A missing or unreadable record
// yields an empty collection and a warning; it is never an error.
func Open(ctx context.Context, database *sql.DB, opts Options) (*Store, error) {
	s := &Store{
		db:      database,
		limit:   opts.HistoryLimit,
		logger:  opts.Logger,
		now:     opts.Now,
		entropy: ulid.Monotonic(rand.Reader, 0),
	}
	if s.limit <= 0 {
		s.limit = DefaultHistoryLimit
	}
	if s.logger == nil {
		s.logger = logging.Discard()
	}
	if s.now == nil {
		s.now = time.Now
	}

	history, err := load[caption.HistoryItem](ctx, s, db.RecordHistory)
	if err != nil {
		return nil, err
	}
	if len(history) > s.limit {
		history = history[:s.limit]
	}
	favorites, err := load[caption.CollectionItem](ctx, s, db.RecordFavorites)
	if err != nil {
		return nil, err
	}

	s.history = history
	s.favorites = favorites
	return s, nil
}

// load reads one record. Only database failures are returned; a payload that
// does not decode is logged and treated as empty.
func load[T any](ctx context.Context, s *Store, name string) ([]T, error) {
	rec, found, err := db.GetRecord(ctx, s.db, name)
	if err != nil {
		return nil, err
	}
	if !found || rec.Payload == "" {
		return []T{}, nil
	}

	var items []T
	if err := json.Unmarshal([]byte(rec.Payload), &items); err != nil {
		s.logger.Warn("discarding unreadable record", "record", name, "error", err)
		return []T{}, nil
	}
	if items == nil {
		items = []T{}
	}
	return items, nil
}

func (s *Store) persist(ctx context.Context, name string, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return errors.NewInternal(err)
	}
	return db.PutRecord(ctx, s.db, name, string(payload))
}

// HistoryLimit returns the maximum number of history entries kept.
func (s *Store) HistoryLimit() int {
	return s.limit
}

// RecordHistory prepends a snapshot of a successful generation, dropping the
// oldest entries beyond the history limit.
func (s *Store) RecordHistory(ctx context.Context, image caption.Image, captions []caption.GeneratedCaption, st settings.Settings) (caption.HistoryItem, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	item := caption.HistoryItem{
		ID:            ulid.MustNew(ulid.Timestamp(now), s.entropy).String(),
		Timestamp:     now.UnixMilli(),
		OriginalImage: image.Clone(),
		Captions:      caption.CloneCaptions(captions),
		Settings:      st,
	}

	next := make([]caption.HistoryItem, 0, s.limit)
	next = append(next, item)
	for _, h := range s.history {
		if len(next) == s.limit {
			break
		}
		next = append(next, h)
	}

	if err := s.persist(ctx, db.RecordHistory, next); err != nil {
		return caption.HistoryItem{}, err
	}
	s.history = next
	return item.Clone(), nil
}

// ClearHistory removes every history entry.
func (s *Store) ClearHistory(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	next := []caption.HistoryItem{}
	if err := s.persist(ctx, db.RecordHistory, next); err != nil {
		return err
	}
	s.history = next
	return nil
}

// SaveFavorite prepends c to the favorites unless a favorite with the same
// text already exists. saved reports whether the collection changed; when it
// did not, the existing item is returned.
func (s *Store) SaveFavorite(ctx context.Context, c caption.GeneratedCaption, st settings.Settings) (item caption.CollectionItem, saved bool, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.favorites {
		if f.Text == c.Text {
			return f.Clone(), false, nil
		}
	}

	item = caption.CollectionItem{
		ID:        c.ID,
		Text:      c.Text,
		Timestamp: s.now().UnixMilli(),
		Tags:      st.Tags(),
	}

	next := make([]caption.CollectionItem, 0, len(s.favorites)+1)
	next = append(next, item)
	next = append(next, s.favorites...)

	if err := s.persist(ctx, db.RecordFavorites, next); err != nil {
		return caption.CollectionItem{}, false, err
	}
	s.favorites = next
	return item.Clone(), true, nil
}

// RemoveFavorite deletes the favorite with the given id.
// Returns false if no such favorite exists.
func (s *Store) RemoveFavorite(ctx context.Context, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := -1
	for i, f := range s.favorites {
		if f.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return false, nil
	}

	next := make([]caption.CollectionItem, 0, len(s.favorites)-1)
	next = append(next, s.favorites[:idx]...)
	next = append(next, s.favorites[idx+1:]...)

	if err := s.persist(ctx, db.RecordFavorites, next); err != nil {
		return false, err
	}
	s.favorites = next
	return true, nil
}

// History returns a copy of the history, newest first.
func (s *Store) History() []caption.HistoryItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]caption.HistoryItem, len(s.history))
	for i, h := range s.history {
		out[i] = h.Clone()
	}
	return out
}

// Favorites returns a copy of the favorites, newest first.
func (s *Store) Favorites() []caption.CollectionItem {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]caption.CollectionItem, len(s.favorites))
	for i, f := range s.favorites {
		out[i] = f.Clone()
	}
	return out
}

// HistoryItem returns the history entry with the given id.
func (s *Store) HistoryItem(id string) (caption.HistoryItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, h := range s.history {
		if h.ID == id {
			return h.Clone(), true
		}
	}
	return caption.HistoryItem{}, false
}

// Favorite returns the favorite with the given id.
func (s *Store) Favorite(id string) (caption.CollectionItem, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, f := range s.favorites {
		if f.ID == id {
			return f.Clone(), true
		}
	}
	return caption.CollectionItem{}, false
}

// Restore returns the image and captions stored on item, copied verbatim.
func Restore(item caption.HistoryItem) (caption.Image, []caption.GeneratedCaption) {
	return item.OriginalImage.Clone(), caption.CloneCaptions(item.Captions)
}
