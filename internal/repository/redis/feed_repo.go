// Package redis stores the cached feed in a Redis server.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/go-redis/redis/v9"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
)

// Options configures the Redis connection
type Options struct {
	Addr     string
	Password string
	DB       int
}

// NewClient connects to Redis and pings it
func NewClient(ctx context.Context, opts Options) (*goredis.Client, error) {
	client := goredis.NewClient(&goredis.Options{
		Network:         "tcp",
		Addr:            opts.Addr,
		Password:        opts.Password,
		DB:              opts.DB,
		MaxRetries:      3,
		MinRetryBackoff: 50 * time.Millisecond,
		MaxRetryBackoff: 2 * time.Second,
		DialTimeout:     10 * time.Second,
		ReadTimeout:     5 * time.Second,
		WriteTimeout:    5 * time.Second,
		MinIdleConns:    1,
		MaxIdleConns:    8,
		ConnMaxIdleTime: time.Minute,
		ConnMaxLifetime: time.Hour,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("new redis client ping: %w", err)
	}
	return client, nil
}

// FeedRepo implements repository.FeedStore on Redis. The header is a JSON
// string and the albums a list of JSON values in rank order; both keys are
// always written and read inside one MULTI/EXEC.
type FeedRepo struct {
	client    *goredis.Client
	feedKey   string
	albumsKey string
}

// NewFeedRepo creates a Redis feed store whose keys start with prefix
func NewFeedRepo(client *goredis.Client, prefix string) *FeedRepo {
	return &FeedRepo{
		client:    client,
		feedKey:   prefix + ":feed",
		albumsKey: prefix + ":albums",
	}
}

// ReplaceFeed swaps the cached feed atomically
func (r *FeedRepo) ReplaceFeed(ctx context.Context, feed *domain.Feed) error {
	handleErr := func(err error) error {
		return fmt.Errorf("failed to replace feed: %w", err)
	}
	if feed == nil {
		return handleErr(domain.ErrInvalidInput)
	}

	header, err := json.Marshal(feed.Header())
	if err != nil {
		return handleErr(err)
	}
	albums := make([]interface{}, 0, len(feed.Albums))
	for _, a := range feed.Albums {
		data, err := json.Marshal(a)
		if err != nil {
			return handleErr(err)
		}
		albums = append(albums, data)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		pipe.Del(ctx, r.feedKey, r.albumsKey)
		pipe.Set(ctx, r.feedKey, header, 0)
		if len(albums) > 0 {
			pipe.RPush(ctx, r.albumsKey, albums...)
		}
		return nil
	})
	if err != nil {
		return handleErr(err)
	}
	return nil
}

// CurrentFeed reads the cached feed
func (r *FeedRepo) CurrentFeed(ctx context.Context) (*domain.Feed, error) {
	handleErr := func(err error) (*domain.Feed, error) {
		return nil, fmt.Errorf("failed to read feed: %w", err)
	}

	var headerCmd *goredis.StringCmd
	var albumsCmd *goredis.StringSliceCmd
	_, err := r.client.TxPipelined(ctx, func(pipe goredis.Pipeliner) error {
		headerCmd = pipe.Get(ctx, r.feedKey)
		albumsCmd = pipe.LRange(ctx, r.albumsKey, 0, -1)
		return nil
	})
	if err != nil && !errors.Is(err, goredis.Nil) {
		return handleErr(err)
	}

	rawHeader, err := headerCmd.Bytes()
	if errors.Is(err, goredis.Nil) {
		return nil, domain.ErrFeedNotFound
	} else if err != nil {
		return handleErr(err)
	}

	var header domain.FeedHeader
	if err := json.Unmarshal(rawHeader, &header); err != nil {
		return handleErr(err)
	}

	rawAlbums, err := albumsCmd.Result()
	if err != nil {
		return handleErr(err)
	}
	if len(rawAlbums) != header.AlbumCount {
		return handleErr(fmt.Errorf("%w: %d of %d albums present", domain.ErrCorruptFeed, len(rawAlbums), header.AlbumCount))
	}

	albums := make([]domain.Album, 0, len(rawAlbums))
	for _, raw := range rawAlbums {
		var a domain.Album
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return handleErr(err)
		}
		albums = append(albums, a)
	}

	return header.Feed(albums), nil
}

// Clear removes the cached feed
func (r *FeedRepo) Clear(ctx context.Context) error {
	if err := r.client.Del(ctx, r.feedKey, r.albumsKey).Err(); err != nil {
		return fmt.Errorf("failed to clear feed: %w", err)
	}
	return nil
}

// HealthCheck pings the server
func (r *FeedRepo) HealthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return r.client.Ping(ctx).Err()
}

// Close closes the client
func (r *FeedRepo) Close() error {
	return r.client.Close()
}
