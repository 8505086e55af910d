package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
	"github.com/amiyamandal-dev/topalbums/internal/metrics"
	"github.com/amiyamandal-dev/topalbums/internal/reachability"
	"github.com/amiyamandal-dev/topalbums/internal/repository"
	"github.com/amiyamandal-dev/topalbums/internal/search"
	"github.com/amiyamandal-dev/topalbums/pkg/logger"
)

// Fetcher retrieves the current chart from upstream
type Fetcher interface {
	FetchFeed(ctx context.Context) (*domain.Feed, error)
}

// syncKey is the singleflight key; there is only one feed to sync
const syncKey = "albums"

// SyncService fetches the chart and replaces the cached feed. Concurrent
// callers share one in-flight sync.
type SyncService struct {
	fetcher      Fetcher
	store        repository.FeedStore
	index        search.Index
	checker      reachability.Checker
	metrics      metrics.Recorder
	fetchTimeout time.Duration
	logger       *logger.Logger

	group singleflight.Group

	mu     sync.RWMutex
	status domain.SyncStatus

	// lifeMu orders wg.Add against Stop so nothing is added once
	// Stop has begun waiting
	lifeMu   sync.Mutex
	stopped  bool
	wg       sync.WaitGroup
	stopChan chan struct{}
}

// ErrStopped is reported when background work is requested after Stop
var ErrStopped = errors.New("sync service is stopped")

// NewSyncService creates a new sync service. index may be nil.
func NewSyncService(
	fetcher Fetcher,
	store repository.FeedStore,
	index search.Index,
	checker reachability.Checker,
	rec metrics.Recorder,
	fetchTimeout time.Duration,
	logger *logger.Logger,
) *SyncService {
	if checker == nil {
		checker = reachability.Static(true)
	}
	if rec == nil {
		rec = metrics.Nop{}
	}

	return &SyncService{
		fetcher:      fetcher,
		store:        store,
		index:        index,
		checker:      checker,
		metrics:      rec,
		fetchTimeout: fetchTimeout,
		logger:       logger.WithComponent("sync-service"),
		status:       domain.SyncStatus{State: domain.SyncIdle},
		stopChan:     make(chan struct{}),
	}
}

// SyncAlbums runs a sync, or joins the one already running, and returns
// once the store reflects its result. Failures are *domain.FetchError.
// The sync itself is not cancelled when ctx is.
func (s *SyncService) SyncAlbums(ctx context.Context) (*domain.SyncOutcome, error) {
	leader := false
	v, err, _ := s.group.Do(syncKey, func() (interface{}, error) {
		leader = true
		return s.run(context.WithoutCancel(ctx))
	})
	if err != nil {
		return nil, err
	}

	outcome := *v.(*domain.SyncOutcome)
	outcome.Shared = !leader
	return &outcome, nil
}

// SyncAlbumsAsync runs SyncAlbums in the background and calls onComplete
// after the store has been updated. After Stop it reports ErrStopped instead.
func (s *SyncService) SyncAlbumsAsync(ctx context.Context, onComplete func(*domain.SyncOutcome, error)) {
	if !s.track() {
		if onComplete != nil {
			onComplete(nil, ErrStopped)
		}
		return
	}
	go func() {
		defer s.wg.Done()
		outcome, err := s.SyncAlbums(ctx)
		if onComplete != nil {
			onComplete(outcome, err)
		}
	}()
}

// Status returns a snapshot of the sync state
func (s *SyncService) Status() domain.SyncStatus {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Start launches a background loop that syncs now and then every interval
// until Stop is called or ctx is cancelled. It returns immediately.
func (s *SyncService) Start(ctx context.Context, interval time.Duration) error {
	if !s.track() {
		return ErrStopped
	}
	go s.loop(ctx, interval)
	return nil
}

func (s *SyncService) loop(ctx context.Context, interval time.Duration) {
	defer s.wg.Done()

	s.logger.Info("Starting album sync service", "interval", interval)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	// Run initial sync
	s.syncAndLog(ctx)

	for {
		select {
		case <-ticker.C:
			s.syncAndLog(ctx)
		case <-s.stopChan:
			s.logger.Info("Stopping album sync service")
			return
		case <-ctx.Done():
			s.logger.Info("Context cancelled, stopping sync service")
			return
		}
	}
}

// Stop stops the background loop and waits for running syncs to finish.
// It is safe to call more than once.
func (s *SyncService) Stop() {
	s.lifeMu.Lock()
	if !s.stopped {
		s.stopped = true
		close(s.stopChan)
	}
	s.lifeMu.Unlock()
	s.wg.Wait()
}

// track registers one unit of background work unless Stop has been called
func (s *SyncService) track() bool {
	s.lifeMu.Lock()
	defer s.lifeMu.Unlock()
	if s.stopped {
		return false
	}
	s.wg.Add(1)
	return true
}

func (s *SyncService) syncAndLog(ctx context.Context) {
	if _, err := s.SyncAlbums(ctx); err != nil {
		s.logger.Warn("Scheduled sync failed", "error", err)
	}
}

// run performs one sync attempt: reachability, fetch, replace, reindex
func (s *SyncService) run(ctx context.Context) (*domain.SyncOutcome, error) {
	id := uuid.New().String()
	log := s.logger.WithSyncID(id)
	startedAt := time.Now().UTC()

	s.begin(id, startedAt)
	log.Info("Syncing albums")

	if !s.checker.IsReachable(ctx) {
		return nil, s.fail(log, startedAt,
			domain.NewFetchError(domain.KindNoConnectivity, errors.New("network is unreachable")))
	}

	fetchCtx := ctx
	if s.fetchTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, s.fetchTimeout)
		defer cancel()
	}

	feed, err := s.fetcher.FetchFeed(fetchCtx)
	if err != nil {
		return nil, s.fail(log, startedAt, domain.AsFetchError(err))
	}

	if err := s.store.ReplaceFeed(ctx, feed); err != nil {
		return nil, s.fail(log, startedAt, domain.NewFetchError(domain.KindStorageError, err))
	}
	s.metrics.SetCachedAlbums(len(feed.Albums))

	if s.index != nil {
		if err := s.index.Rebuild(ctx, feed); err != nil {
			log.Warn("Failed to rebuild search index", "error", err)
		}
	}

	outcome := &domain.SyncOutcome{
		ID:         id,
		StartedAt:  startedAt,
		FinishedAt: time.Now().UTC(),
		AlbumCount: len(feed.Albums),
		Empty:      feed.IsEmpty(),
	}
	s.succeed(outcome)

	result := "success"
	if outcome.Empty {
		result = "empty"
	}
	s.metrics.RecordSync(result, outcome.FinishedAt.Sub(startedAt))

	log.Info("Album sync completed",
		"albums", outcome.AlbumCount,
		"duration", outcome.FinishedAt.Sub(startedAt),
	)

	return outcome, nil
}

func (s *SyncService) begin(id string, at time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.status.State = domain.SyncFetching
	s.status.LastSyncID = id
	s.status.LastAttemptAt = &at
}

func (s *SyncService) succeed(outcome *domain.SyncOutcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	finished := outcome.FinishedAt
	s.status.State = domain.SyncSucceeded
	s.status.LastSuccessAt = &finished
	s.status.LastError = nil
}

func (s *SyncService) fail(log *logger.Logger, startedAt time.Time, fe *domain.FetchError) *domain.FetchError {
	s.mu.Lock()
	s.status.State = domain.SyncFailed
	s.status.LastError = fe.View()
	s.mu.Unlock()

	s.metrics.RecordSync(string(fe.Kind), time.Since(startedAt))
	log.Warn("Album sync failed", "kind", string(fe.Kind), "code", fe.Code, "error", fe.Err)

	return fe
}
