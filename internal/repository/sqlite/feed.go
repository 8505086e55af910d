package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
)

// currentFeedID is the only primary key the feeds table accepts
const currentFeedID = "current"

// FeedRepo implements repository.FeedStore using SQLite
type FeedRepo struct {
	db *DB
}

// NewFeedRepo creates a new feed store
func NewFeedRepo(db *DB) *FeedRepo {
	return &FeedRepo{db: db}
}

// ReplaceFeed deletes the cached feed (albums cascade) and inserts feed in
// one transaction
func (r *FeedRepo) ReplaceFeed(ctx context.Context, feed *domain.Feed) error {
	if feed == nil {
		return fmt.Errorf("replace feed: %w", domain.ErrInvalidInput)
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, currentFeedID); err != nil {
		return fmt.Errorf("failed to delete feed: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO feeds (id, feed_id, title, country, copyright, updated, album_count)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`,
		currentFeedID,
		feed.ID,
		feed.Title,
		feed.Country,
		feed.Copyright,
		formatTime(feed.Updated),
		len(feed.Albums),
	)
	if err != nil {
		return fmt.Errorf("failed to insert feed: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO albums (feed_id, rank, album_id, name, artist_name, artist_id, artist_url,
			artwork_url, release_date, content_advisory_rating, genres, url)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare album insert: %w", err)
	}
	defer stmt.Close()

	for i, a := range feed.Albums {
		genres, err := json.Marshal(a.Genres)
		if err != nil {
			return fmt.Errorf("failed to encode genres: %w", err)
		}

		if _, err := stmt.ExecContext(ctx,
			currentFeedID,
			i+1,
			a.ID,
			a.Name,
			a.ArtistName,
			a.ArtistID,
			a.ArtistURL,
			a.ArtworkURL,
			a.ReleaseDate,
			a.ContentAdvisoryRating,
			string(genres),
			a.URL,
		); err != nil {
			return fmt.Errorf("failed to insert album %d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit feed: %w", err)
	}

	return nil
}

// CurrentFeed reads the cached feed inside one read transaction
func (r *FeedRepo) CurrentFeed(ctx context.Context) (*domain.Feed, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var header domain.FeedHeader
	var updated string

	err = tx.QueryRowContext(ctx, `
		SELECT feed_id, title, country, copyright, updated, album_count
		FROM feeds
		WHERE id = ?
	`, currentFeedID).Scan(
		&header.ID,
		&header.Title,
		&header.Country,
		&header.Copyright,
		&updated,
		&header.AlbumCount,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrFeedNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get feed: %w", err)
	}

	header.Updated, err = parseTime(updated)
	if err != nil {
		return nil, fmt.Errorf("failed to parse feed timestamp: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		SELECT rank, album_id, name, artist_name, artist_id, artist_url, artwork_url,
			release_date, content_advisory_rating, genres, url
		FROM albums
		WHERE feed_id = ?
		ORDER BY rank ASC
	`, currentFeedID)
	if err != nil {
		return nil, fmt.Errorf("failed to list albums: %w", err)
	}
	defer rows.Close()

	albums := make([]domain.Album, 0, header.AlbumCount)
	for rows.Next() {
		var a domain.Album
		var genres string

		if err := rows.Scan(
			&a.Rank,
			&a.ID,
			&a.Name,
			&a.ArtistName,
			&a.ArtistID,
			&a.ArtistURL,
			&a.ArtworkURL,
			&a.ReleaseDate,
			&a.ContentAdvisoryRating,
			&genres,
			&a.URL,
		); err != nil {
			return nil, fmt.Errorf("failed to scan album: %w", err)
		}

		if err := json.Unmarshal([]byte(genres), &a.Genres); err != nil {
			return nil, fmt.Errorf("failed to decode genres: %w", err)
		}
		albums = append(albums, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate albums: %w", err)
	}

	if len(albums) != header.AlbumCount {
		return nil, fmt.Errorf("%w: %d of %d albums present", domain.ErrCorruptFeed, len(albums), header.AlbumCount)
	}

	return header.Feed(albums), nil
}

// Clear removes the cached feed
func (r *FeedRepo) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM feeds WHERE id = ?`, currentFeedID); err != nil {
		return fmt.Errorf("failed to clear feed: %w", err)
	}
	return nil
}

// HealthCheck checks if the database is healthy
func (r *FeedRepo) HealthCheck() error {
	return r.db.HealthCheck()
}

// Close closes the database connection
func (r *FeedRepo) Close() error {
	return r.db.Close()
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339Nano)
}

func parseTime(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339Nano, s)
}
