package badger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
)

var (
	metaKey     = []byte("feed:meta")
	albumPrefix = []byte("feed:album:")
)

func albumKey(rank int) []byte {
	return []byte(fmt.Sprintf("feed:album:%03d", rank))
}

// FeedRepo implements repository.FeedStore using BadgerDB. The header and
// every album live under separate keys and are always written in the same
// transaction.
type FeedRepo struct {
	db *DB
}

// NewFeedRepo creates a new BadgerDB-based feed store
func NewFeedRepo(db *DB) *FeedRepo {
	return &FeedRepo{db: db}
}

// ReplaceFeed deletes the cached feed and writes feed in one transaction
func (r *FeedRepo) ReplaceFeed(ctx context.Context, feed *domain.Feed) error {
	if feed == nil {
		return fmt.Errorf("replace feed: %w", domain.ErrInvalidInput)
	}

	err := r.db.Update(func(txn *badger.Txn) error {
		if err := deleteFeed(txn); err != nil {
			return err
		}

		header, err := json.Marshal(feed.Header())
		if err != nil {
			return err
		}
		if err := txn.Set(metaKey, header); err != nil {
			return err
		}

		for i, album := range feed.Albums {
			data, err := json.Marshal(album)
			if err != nil {
				return err
			}
			if err := txn.Set(albumKey(i+1), data); err != nil {
				return err
			}
		}

		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to replace feed: %w", err)
	}

	return nil
}

// CurrentFeed reads the cached feed
func (r *FeedRepo) CurrentFeed(ctx context.Context) (*domain.Feed, error) {
	var feed *domain.Feed

	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(metaKey)
		if err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return domain.ErrFeedNotFound
			}
			return err
		}

		var header domain.FeedHeader
		if err := item.Value(func(val []byte) error {
			return json.Unmarshal(val, &header)
		}); err != nil {
			return err
		}

		albums := make([]domain.Album, 0, header.AlbumCount)
		for rank := 1; rank <= header.AlbumCount; rank++ {
			item, err := txn.Get(albumKey(rank))
			if err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("%w: album %d missing", domain.ErrCorruptFeed, rank)
				}
				return err
			}

			var album domain.Album
			if err := item.Value(func(val []byte) error {
				return json.Unmarshal(val, &album)
			}); err != nil {
				return err
			}
			albums = append(albums, album)
		}

		feed = header.Feed(albums)
		return nil
	})
	if err != nil {
		if errors.Is(err, domain.ErrFeedNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	return feed, nil
}

// Clear removes the cached feed
func (r *FeedRepo) Clear(ctx context.Context) error {
	if err := r.db.Update(deleteFeed); err != nil {
		return fmt.Errorf("failed to clear feed: %w", err)
	}
	return nil
}

// HealthCheck checks if the database is healthy
func (r *FeedRepo) HealthCheck() error {
	return r.db.HealthCheck()
}

// Close closes the database
func (r *FeedRepo) Close() error {
	return r.db.Close()
}

// deleteFeed removes the header and every album key
func deleteFeed(txn *badger.Txn) error {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = false
	opts.Prefix = albumPrefix

	var keys [][]byte
	it := txn.NewIterator(opts)
	for it.Seek(albumPrefix); it.ValidForPrefix(albumPrefix); it.Next() {
		keys = append(keys, it.Item().KeyCopy(nil))
	}
	it.Close()

	for _, key := range keys {
		if err := txn.Delete(key); err != nil {
			return err
		}
	}

	return txn.Delete(metaKey)
}
