// Package storetest holds the behaviour every feed store driver must share.
package storetest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
)

// Store is the subset of repository.FeedStore exercised here
type Store interface {
	ReplaceFeed(ctx context.Context, feed *domain.Feed) error
	CurrentFeed(ctx context.Context) (*domain.Feed, error)
	Clear(ctx context.Context) error
	HealthCheck() error
}

// SampleFeed returns a small chart headed by Midnights
func SampleFeed() *domain.Feed {
	return &domain.Feed{
		ID:        "https://rss.applemarketingtools.com/api/v2/us/music/most-played/100/albums.json",
		Title:     "Top Albums",
		Country:   "us",
		Copyright: "Copyright © 2022 Apple Inc. All rights reserved.",
		Updated:   time.Date(2022, 10, 29, 4, 1, 22, 0, time.UTC),
		Albums: []domain.Album{
			{
				ID:                    "1649434004",
				Rank:                  1,
				Name:                  "Midnights",
				ArtistName:            "Taylor Swift",
				ArtistID:              "159260351",
				ArtistURL:             "https://music.apple.com/us/artist/taylor-swift/159260351",
				ArtworkURL:            "https://is1-ssl.mzstatic.com/image/thumb/Music122/v4/midnights/100x100bb.jpg",
				ReleaseDate:           "2022-10-21",
				ContentAdvisoryRating: "Explict",
				Genres: []domain.Genre{
					{ID: "34", Name: "Music", URL: "https://itunes.apple.com/us/genre/id34"},
					{ID: "14", Name: "Pop", URL: "https://itunes.apple.com/us/genre/id14"},
				},
				URL: "https://music.apple.com/us/album/midnights/1649434004",
			},
			{
				ID:          "1654834999",
				Rank:        2,
				Name:        "Her Loss",
				ArtistName:  "Drake & 21 Savage",
				ArtworkURL:  "https://is1-ssl.mzstatic.com/image/thumb/Music112/v4/herloss/100x100bb.jpg",
				ReleaseDate: "2022-11-04",
				Genres: []domain.Genre{
					{ID: "18", Name: "Hip-Hop/Rap"},
				},
				URL: "https://music.apple.com/us/album/her-loss/1654834999",
			},
			{
				ID:          "1645937257",
				Rank:        3,
				Name:        "Stranger Things 4 (Soundtrack)",
				ArtistName:  "Various Artists",
				ArtworkURL:  "https://is1-ssl.mzstatic.com/image/thumb/Music122/v4/st4/100x100bb.jpg",
				ReleaseDate: "2022-07-01",
				URL:         "https://music.apple.com/us/album/stranger-things-4/1645937257",
			},
		},
	}
}

// GeneratedFeed returns a feed with n synthetic albums
func GeneratedFeed(n int, title string) *domain.Feed {
	feed := &domain.Feed{
		ID:        "generated",
		Title:     title,
		Country:   "us",
		Copyright: "Copyright © 2022 Apple Inc. All rights reserved.",
		Updated:   time.Date(2022, 11, 1, 0, 0, 0, 0, time.UTC),
		Albums:    make([]domain.Album, 0, n),
	}
	for i := 1; i <= n; i++ {
		feed.Albums = append(feed.Albums, domain.Album{
			ID:          fmt.Sprintf("%s-%d", title, i),
			Rank:        i,
			Name:        fmt.Sprintf("%s album %d", title, i),
			ArtistName:  fmt.Sprintf("Artist %d", i),
			ArtworkURL:  fmt.Sprintf("https://example.com/%d.jpg", i),
			ReleaseDate: "2022-01-01",
			Genres:      []domain.Genre{{ID: "14", Name: "Pop"}},
			URL:         fmt.Sprintf("https://example.com/album/%d", i),
		})
	}
	return feed
}

// Run exercises the replace, read and clear contract against a fresh store
// produced by open
func Run(t *testing.T, open func(t *testing.T) Store) {
	t.Run("EmptyBeforeFirstWrite", func(t *testing.T) {
		s := open(t)
		_, err := s.CurrentFeed(context.Background())
		if !errors.Is(err, domain.ErrFeedNotFound) {
			t.Fatalf("CurrentFeed on empty store: got %v, want ErrFeedNotFound", err)
		}
	})

	t.Run("RoundTrip", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		want := SampleFeed()

		if err := s.ReplaceFeed(ctx, want); err != nil {
			t.Fatalf("ReplaceFeed: %v", err)
		}
		got, err := s.CurrentFeed(ctx)
		if err != nil {
			t.Fatalf("CurrentFeed: %v", err)
		}
		if !got.Equal(want) {
			t.Fatalf("round trip mismatch:\n got %+v\nwant %+v", got, want)
		}
		if got.Albums[0].Name != "Midnights" || got.Albums[0].ArtistName != "Taylor Swift" {
			t.Errorf("first album = %+v", got.Albums[0])
		}
	})

	t.Run("ReplaceLeavesNoResidue", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		if err := s.ReplaceFeed(ctx, GeneratedFeed(100, "old")); err != nil {
			t.Fatalf("ReplaceFeed old: %v", err)
		}
		next := GeneratedFeed(7, "new")
		if err := s.ReplaceFeed(ctx, next); err != nil {
			t.Fatalf("ReplaceFeed new: %v", err)
		}

		got, err := s.CurrentFeed(ctx)
		if err != nil {
			t.Fatalf("CurrentFeed: %v", err)
		}
		if !got.Equal(next) {
			t.Fatalf("expected only the new feed, got %d albums titled %q", len(got.Albums), got.Title)
		}
	})

	t.Run("ReplaceIsIdempotent", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		feed := SampleFeed()

		for i := 0; i < 2; i++ {
			if err := s.ReplaceFeed(ctx, feed); err != nil {
				t.Fatalf("ReplaceFeed #%d: %v", i+1, err)
			}
		}
		got, err := s.CurrentFeed(ctx)
		if err != nil {
			t.Fatalf("CurrentFeed: %v", err)
		}
		if !got.Equal(feed) {
			t.Fatal("second identical replace changed the stored feed")
		}
	})

	t.Run("EmptyFeedIsStored", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		empty := GeneratedFeed(0, "empty")

		if err := s.ReplaceFeed(ctx, SampleFeed()); err != nil {
			t.Fatalf("ReplaceFeed: %v", err)
		}
		if err := s.ReplaceFeed(ctx, empty); err != nil {
			t.Fatalf("ReplaceFeed empty: %v", err)
		}

		got, err := s.CurrentFeed(ctx)
		if err != nil {
			t.Fatalf("CurrentFeed: %v", err)
		}
		if !got.IsEmpty() || got.Title != "empty" {
			t.Fatalf("expected stored empty feed, got %+v", got)
		}
	})

	t.Run("Clear", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()

		if err := s.Clear(ctx); err != nil {
			t.Fatalf("Clear on empty store: %v", err)
		}
		if err := s.ReplaceFeed(ctx, SampleFeed()); err != nil {
			t.Fatalf("ReplaceFeed: %v", err)
		}
		if err := s.Clear(ctx); err != nil {
			t.Fatalf("Clear: %v", err)
		}
		if _, err := s.CurrentFeed(ctx); !errors.Is(err, domain.ErrFeedNotFound) {
			t.Fatalf("CurrentFeed after Clear: got %v, want ErrFeedNotFound", err)
		}
	})

	t.Run("ConcurrentReadersSeeWholeFeeds", func(t *testing.T) {
		s := open(t)
		ctx := context.Background()
		large := GeneratedFeed(100, "large")
		small := GeneratedFeed(7, "small")

		if err := s.ReplaceFeed(ctx, large); err != nil {
			t.Fatalf("ReplaceFeed: %v", err)
		}

		const readers = 4
		const writes = 40
		done := make(chan struct{})
		errs := make(chan error, readers+1)
		var wg sync.WaitGroup

		for i := 0; i < readers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				for {
					select {
					case <-done:
						return
					default:
					}
					got, err := s.CurrentFeed(ctx)
					if errors.Is(err, domain.ErrFeedNotFound) {
						continue
					}
					if err != nil {
						errs <- fmt.Errorf("CurrentFeed: %w", err)
						return
					}
					if !got.Equal(large) && !got.Equal(small) {
						errs <- fmt.Errorf("read a mixed feed: %d albums titled %q", len(got.Albums), got.Title)
						return
					}
				}
			}()
		}

		for i := 0; i < writes; i++ {
			next := small
			if i%2 == 1 {
				next = large
			}
			if err := s.ReplaceFeed(ctx, next); err != nil {
				errs <- fmt.Errorf("ReplaceFeed #%d: %w", i+1, err)
				break
			}
		}
		close(done)
		wg.Wait()
		close(errs)

		for err := range errs {
			t.Error(err)
		}
	})

	t.Run("HealthCheck", func(t *testing.T) {
		if err := open(t).HealthCheck(); err != nil {
			t.Fatalf("HealthCheck: %v", err)
		}
	})
}
