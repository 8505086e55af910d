package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
	"github.com/amiyamandal-dev/topalbums/internal/repository/storetest"
)

func newTestRepo(t *testing.T) *FeedRepo {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "albums.db"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	repo := NewFeedRepo(db)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestFeedRepoContract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) storetest.Store {
		return newTestRepo(t)
	})
}

func TestMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "albums.db")
	ctx := context.Background()

	db, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := NewFeedRepo(db).ReplaceFeed(ctx, storetest.SampleFeed()); err != nil {
		t.Fatalf("ReplaceFeed: %v", err)
	}
	db.Close()

	db, err = New(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer db.Close()

	got, err := NewFeedRepo(db).CurrentFeed(ctx)
	if err != nil {
		t.Fatalf("CurrentFeed: %v", err)
	}
	if !got.Equal(storetest.SampleFeed()) {
		t.Fatal("feed changed across reopen")
	}
}

func TestSingletonFeedRow(t *testing.T) {
	repo := newTestRepo(t)
	_, err := repo.db.Exec(`INSERT INTO feeds (id) VALUES ('other')`)
	if err == nil {
		t.Fatal("expected the feeds table to reject a second feed")
	}
}

func TestClearCascadesToAlbums(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.ReplaceFeed(ctx, storetest.SampleFeed()); err != nil {
		t.Fatalf("ReplaceFeed: %v", err)
	}
	if err := repo.Clear(ctx); err != nil {
		t.Fatalf("Clear: %v", err)
	}

	var n int
	if err := repo.db.QueryRow(`SELECT COUNT(*) FROM albums`).Scan(&n); err != nil {
		t.Fatalf("count albums: %v", err)
	}
	if n != 0 {
		t.Fatalf("albums left after clear = %d", n)
	}
}

func TestCurrentFeedDetectsMissingAlbum(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.ReplaceFeed(ctx, storetest.SampleFeed()); err != nil {
		t.Fatalf("ReplaceFeed: %v", err)
	}
	if _, err := repo.db.Exec(`DELETE FROM albums WHERE rank = 2`); err != nil {
		t.Fatalf("delete album: %v", err)
	}

	if _, err := repo.CurrentFeed(ctx); !errors.Is(err, domain.ErrCorruptFeed) {
		t.Fatalf("got %v, want ErrCorruptFeed", err)
	}
}
