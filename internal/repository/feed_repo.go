package repository

import (
	"context"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
)

// FeedStore persists the single cached chart feed
type FeedStore interface {
	// ReplaceFeed removes whatever is cached and stores feed, atomically
	ReplaceFeed(ctx context.Context, feed *domain.Feed) error

	// CurrentFeed returns the cached feed or domain.ErrFeedNotFound
	CurrentFeed(ctx context.Context) (*domain.Feed, error)

	// Clear removes the cached feed
	Clear(ctx context.Context) error

	// HealthCheck checks if the backing store is usable
	HealthCheck() error

	// Close releases the backing store
	Close() error
}
