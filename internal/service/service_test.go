package service

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
	"github.com/amiyamandal-dev/topalbums/internal/reachability"
	"github.com/amiyamandal-dev/topalbums/internal/repository"
	"github.com/amiyamandal-dev/topalbums/internal/repository/badger"
	"github.com/amiyamandal-dev/topalbums/internal/repository/storetest"
	"github.com/amiyamandal-dev/topalbums/internal/search"
	"github.com/amiyamandal-dev/topalbums/pkg/logger"
)

type fakeFetcher struct {
	mu    sync.Mutex
	feed  *domain.Feed
	err   error
	calls atomic.Int32
	gate  chan struct{} // when set, FetchFeed blocks until it is closed
}

func (f *fakeFetcher) FetchFeed(ctx context.Context) (*domain.Feed, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.feed, f.err
}

func (f *fakeFetcher) set(feed *domain.Feed, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.feed, f.err = feed, err
}

// failingStore fails every write but reads through to the wrapped store
type failingStore struct {
	repository.FeedStore
}

func (failingStore) ReplaceFeed(context.Context, *domain.Feed) error {
	return errors.New("disk full")
}

type fixture struct {
	fetcher *fakeFetcher
	store   repository.FeedStore
	index   *search.BleveIndex
	sync    *SyncService
	albums  *AlbumService
}

func newFixture(t *testing.T, reachable bool) *fixture {
	t.Helper()

	db, err := badger.NewInMemory()
	if err != nil {
		t.Fatalf("badger: %v", err)
	}
	store := badger.NewFeedRepo(db)
	t.Cleanup(func() { store.Close() })

	index := search.NewBleveIndex(logger.NewNop())
	if err := index.Open(""); err != nil {
		t.Fatalf("index: %v", err)
	}
	t.Cleanup(func() { index.Close() })

	return newFixtureWith(t, store, index, reachable)
}

func newFixtureWith(t *testing.T, store repository.FeedStore, index *search.BleveIndex, reachable bool) *fixture {
	t.Helper()
	fetcher := &fakeFetcher{feed: storetest.SampleFeed()}
	log := logger.NewNop()

	f := &fixture{
		fetcher: fetcher,
		store:   store,
		index:   index,
		sync:    NewSyncService(fetcher, store, index, reachability.Static(reachable), nil, time.Second, log),
		albums:  NewAlbumService(store, index, nil, log),
	}
	t.Cleanup(f.sync.Stop)
	return f
}

func TestSyncRoundTrip(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	outcome, err := f.sync.SyncAlbums(ctx)
	if err != nil {
		t.Fatalf("SyncAlbums: %v", err)
	}
	if outcome.AlbumCount != 3 || outcome.Empty || outcome.Shared || outcome.ID == "" {
		t.Errorf("outcome = %+v", outcome)
	}

	albums, ok := f.albums.Albums(ctx)
	if !ok || len(albums) != 3 {
		t.Fatalf("Albums = %d, %v", len(albums), ok)
	}
	if albums[0].Name != "Midnights" || albums[0].ArtistName != "Taylor Swift" {
		t.Errorf("first album = %+v", albums[0])
	}

	copyright, ok := f.albums.Copyright(ctx)
	if !ok || copyright != "Copyright © 2022 Apple Inc. All rights reserved." {
		t.Errorf("Copyright = %q, %v", copyright, ok)
	}

	status := f.sync.Status()
	if status.State != domain.SyncSucceeded || status.LastSyncID != outcome.ID || status.LastSuccessAt == nil {
		t.Errorf("status = %+v", status)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	if _, err := f.sync.SyncAlbums(ctx); err != nil {
		t.Fatalf("first sync: %v", err)
	}
	first, _ := f.albums.Feed(ctx)

	if _, err := f.sync.SyncAlbums(ctx); err != nil {
		t.Fatalf("second sync: %v", err)
	}
	second, _ := f.albums.Feed(ctx)

	if !first.Equal(second) {
		t.Fatal("two syncs of the same payload produced different feeds")
	}
}

func TestSyncReplacesPreviousFeed(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	f.fetcher.set(storetest.GeneratedFeed(100, "old"), nil)
	if _, err := f.sync.SyncAlbums(ctx); err != nil {
		t.Fatalf("first sync: %v", err)
	}

	next := storetest.GeneratedFeed(4, "new")
	f.fetcher.set(next, nil)
	if _, err := f.sync.SyncAlbums(ctx); err != nil {
		t.Fatalf("second sync: %v", err)
	}

	got, ok := f.albums.Feed(ctx)
	if !ok || !got.Equal(next) {
		t.Fatalf("expected only the new feed, got %+v", got)
	}
}

func TestSyncWithoutNetworkLeavesStoreUntouched(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	if _, err := f.sync.SyncAlbums(ctx); err != nil {
		t.Fatalf("seed sync: %v", err)
	}
	before, _ := f.albums.Feed(ctx)

	offline := newFixtureWith(t, f.store, f.index, false)
	offline.fetcher.set(storetest.GeneratedFeed(2, "never"), nil)

	_, err := offline.sync.SyncAlbums(ctx)
	if !errors.Is(err, domain.ErrNoConnectivity) {
		t.Fatalf("got %v, want NoConnectivity", err)
	}
	fe := domain.AsFetchError(err)
	if fe.Message != domain.MsgConnectionLost {
		t.Errorf("message = %q", fe.Message)
	}
	if offline.fetcher.calls.Load() != 0 {
		t.Error("fetcher was called while offline")
	}

	after, _ := f.albums.Feed(ctx)
	if !before.Equal(after) {
		t.Fatal("store changed during an offline sync")
	}
	if status := offline.sync.Status(); status.State != domain.SyncFailed || status.LastError == nil ||
		status.LastError.Kind != domain.KindNoConnectivity {
		t.Errorf("status = %+v", status)
	}
}

func TestSyncFetchErrorLeavesStoreUntouched(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	if _, err := f.sync.SyncAlbums(ctx); err != nil {
		t.Fatalf("seed sync: %v", err)
	}

	tests := []*domain.FetchError{
		domain.NewFetchError(domain.KindDecodeError, errors.New("bad json")),
		domain.NewFetchError(domain.KindTimeout, context.DeadlineExceeded),
		domain.NewFetchError(domain.KindUnknownError, errors.New("status 500")).WithCode(500),
	}
	for _, want := range tests {
		f.fetcher.set(nil, want)

		_, err := f.sync.SyncAlbums(ctx)
		got := domain.AsFetchError(err)
		if got == nil || got.Kind != want.Kind || got.Code != want.Code {
			t.Errorf("got %v, want %v", err, want)
		}

		feed, ok := f.albums.Feed(ctx)
		if !ok || !feed.Equal(storetest.SampleFeed()) {
			t.Errorf("store changed after %s", want.Kind)
		}
	}
}

func TestSyncForeignFetchErrorIsUnknown(t *testing.T) {
	f := newFixture(t, true)
	f.fetcher.set(nil, errors.New("boom"))

	_, err := f.sync.SyncAlbums(context.Background())
	if !errors.Is(err, domain.ErrUnknown) {
		t.Fatalf("got %v, want UnknownError", err)
	}
}

func TestSyncStorageFailure(t *testing.T) {
	base := newFixture(t, true)
	f := newFixtureWith(t, failingStore{base.store}, base.index, true)

	_, err := f.sync.SyncAlbums(context.Background())
	if !errors.Is(err, domain.ErrStorage) {
		t.Fatalf("got %v, want StorageError", err)
	}
	if domain.AsFetchError(err).Message != domain.MsgStorageFailure {
		t.Errorf("message = %q", domain.AsFetchError(err).Message)
	}
	if !f.albums.IsEmpty(context.Background()) {
		t.Error("expected nothing cached after a failed write")
	}
}

func TestSyncEmptyChart(t *testing.T) {
	f := newFixture(t, true)
	f.fetcher.set(storetest.GeneratedFeed(0, "empty"), nil)

	outcome, err := f.sync.SyncAlbums(context.Background())
	if err != nil {
		t.Fatalf("SyncAlbums: %v", err)
	}
	if !outcome.Empty || outcome.Message() != domain.MsgNoRecords {
		t.Errorf("outcome = %+v", outcome)
	}
	if !f.albums.IsEmpty(context.Background()) {
		t.Error("IsEmpty = false after an empty chart")
	}
}

func TestConcurrentSyncsShareOneFetch(t *testing.T) {
	f := newFixture(t, true)
	f.fetcher.gate = make(chan struct{})

	const callers = 5
	var wg sync.WaitGroup
	outcomes := make([]*domain.SyncOutcome, callers)
	errs := make([]error, callers)

	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			outcomes[i], errs[i] = f.sync.SyncAlbums(context.Background())
		}(i)
	}

	// wait for the leader to reach the fetcher, then give joiners time to queue
	deadline := time.Now().Add(2 * time.Second)
	for f.fetcher.calls.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	time.Sleep(50 * time.Millisecond)
	close(f.fetcher.gate)
	wg.Wait()

	if n := f.fetcher.calls.Load(); n != 1 {
		t.Fatalf("fetch calls = %d, want 1", n)
	}

	shared := 0
	for i := range outcomes {
		if errs[i] != nil {
			t.Fatalf("caller %d: %v", i, errs[i])
		}
		if outcomes[i].ID != outcomes[0].ID {
			t.Errorf("caller %d got sync %s, want %s", i, outcomes[i].ID, outcomes[0].ID)
		}
		if outcomes[i].Shared {
			shared++
		}
	}
	if shared != callers-1 {
		t.Errorf("shared outcomes = %d, want %d", shared, callers-1)
	}
}

func TestSyncSurvivesCallerCancellation(t *testing.T) {
	f := newFixture(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := f.sync.SyncAlbums(ctx); err != nil {
		t.Fatalf("SyncAlbums with cancelled ctx: %v", err)
	}
	if f.albums.IsEmpty(context.Background()) {
		t.Error("expected the sync to complete")
	}
}

func TestSyncAlbumsAsyncCallsBackAfterStore(t *testing.T) {
	f := newFixture(t, true)
	done := make(chan bool, 1)

	f.sync.SyncAlbumsAsync(context.Background(), func(outcome *domain.SyncOutcome, err error) {
		if err != nil {
			t.Errorf("async sync: %v", err)
		}
		done <- !f.albums.IsEmpty(context.Background())
	})

	select {
	case stored := <-done:
		if !stored {
			t.Error("callback ran before the store was updated")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("callback not called")
	}
}

func TestStartRunsImmediatelyAndStops(t *testing.T) {
	f := newFixture(t, true)

	if err := f.sync.Start(context.Background(), time.Hour); err != nil {
		t.Fatalf("Start: %v", err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for f.albums.IsEmpty(context.Background()) && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if f.albums.IsEmpty(context.Background()) {
		t.Fatal("initial sync did not run")
	}

	stopped := make(chan struct{})
	go func() {
		f.sync.Stop()
		close(stopped)
	}()
	select {
	case <-stopped:
	case <-time.After(5 * time.Second):
		t.Fatal("Stop did not return")
	}
}

func TestStopRightAfterStartWaitsForLoop(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newFixture(t, true)

		if err := f.sync.Start(context.Background(), time.Hour); err != nil {
			t.Fatalf("Start: %v", err)
		}
		f.sync.Stop()

		// the loop's initial sync, if it ran, finished before Stop returned
		if st := f.sync.Status(); st.State == domain.SyncFetching {
			t.Fatalf("iteration %d: sync still running after Stop", i)
		}
	}
}

func TestStartAfterStop(t *testing.T) {
	f := newFixture(t, true)
	f.sync.Stop()

	if err := f.sync.Start(context.Background(), time.Hour); !errors.Is(err, ErrStopped) {
		t.Fatalf("Start after Stop = %v, want ErrStopped", err)
	}

	done := make(chan error, 1)
	f.sync.SyncAlbumsAsync(context.Background(), func(_ *domain.SyncOutcome, err error) {
		done <- err
	})
	if err := <-done; !errors.Is(err, ErrStopped) {
		t.Errorf("async after Stop = %v, want ErrStopped", err)
	}
	if !f.albums.IsEmpty(context.Background()) {
		t.Error("sync ran after Stop")
	}

	// a second Stop must not panic or block
	f.sync.Stop()
}

func TestSyncRebuildsSearchIndex(t *testing.T) {
	f := newFixture(t, true)
	ctx := context.Background()

	if _, err := f.sync.SyncAlbums(ctx); err != nil {
		t.Fatalf("SyncAlbums: %v", err)
	}

	res, err := f.albums.Search(ctx, &search.SearchQuery{Query: "midnights"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.Albums) != 1 || res.Albums[0].ArtistName != "Taylor Swift" {
		t.Fatalf("search result = %+v", res)
	}
}
