package badger

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/badger/v4"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
	"github.com/amiyamandal-dev/topalbums/internal/repository/storetest"
)

func newTestRepo(t *testing.T) *FeedRepo {
	t.Helper()
	db, err := New(filepath.Join(t.TempDir(), "albums.badger"))
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

func TestFeedRepoInMemory(t *testing.T) {
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory: %v", err)
	}
	repo := NewFeedRepo(db)
	defer repo.Close()

	if err := repo.ReplaceFeed(context.Background(), storetest.SampleFeed()); err != nil {
		t.Fatalf("ReplaceFeed: %v", err)
	}
	got, err := repo.CurrentFeed(context.Background())
	if err != nil || len(got.Albums) != 3 {
		t.Fatalf("CurrentFeed = %v, %v", got, err)
	}
}

func TestFeedRepoPersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "albums.badger")
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

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "albums.badger")

	db, err := New(path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if err := db.Update(func(txn *badger.Txn) error {
		return txn.Set(schemaKey, []byte("0"))
	}); err != nil {
		t.Fatalf("overwrite schema: %v", err)
	}
	db.Close()

	if _, err := New(path); !errors.Is(err, domain.ErrSchemaMismatch) {
		t.Fatalf("New with old schema: got %v, want ErrSchemaMismatch", err)
	}
}

func TestCurrentFeedDetectsMissingAlbum(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.ReplaceFeed(ctx, storetest.SampleFeed()); err != nil {
		t.Fatalf("ReplaceFeed: %v", err)
	}
	if err := repo.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(albumKey(2))
	}); err != nil {
		t.Fatalf("delete album: %v", err)
	}

	if _, err := repo.CurrentFeed(ctx); !errors.Is(err, domain.ErrCorruptFeed) {
		t.Fatalf("got %v, want ErrCorruptFeed", err)
	}
}

func TestReplaceFeedRejectsNil(t *testing.T) {
	repo := newTestRepo(t)
	if err := repo.ReplaceFeed(context.Background(), nil); !errors.Is(err, domain.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}
}

func TestHealthCheckAfterClose(t *testing.T) {
	db, err := NewInMemory()
	if err != nil {
		t.Fatalf("NewInMemory: %v", err)
	}
	db.Close()
	if err := db.HealthCheck(); err == nil {
		t.Fatal("expected HealthCheck to fail on a closed db")
	}
}
