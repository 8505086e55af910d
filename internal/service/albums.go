package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
	"github.com/amiyamandal-dev/topalbums/internal/metrics"
	"github.com/amiyamandal-dev/topalbums/internal/repository"
	"github.com/amiyamandal-dev/topalbums/internal/search"
	"github.com/amiyamandal-dev/topalbums/pkg/logger"
)

// AlbumService is the read side over the cached feed. Reads never fail:
// a store error is logged and reported as absent data.
type AlbumService struct {
	store   repository.FeedStore
	index   search.Index
	metrics metrics.Recorder
	logger  *logger.Logger
}

// AlbumSearchResult is a page of search hits resolved against the cached feed
type AlbumSearchResult struct {
	Albums     []domain.Album
	Total      int
	Page       int
	Limit      int
	TotalPages int
	QueryTime  int64
}

// NewAlbumService creates a new album service. index may be nil, in which
// case Search is unavailable. A nil rec records nothing.
func NewAlbumService(store repository.FeedStore, index search.Index, rec metrics.Recorder, logger *logger.Logger) *AlbumService {
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &AlbumService{
		store:   store,
		index:   index,
		metrics: rec,
		logger:  logger.WithComponent("album-service"),
	}
}

// Feed returns the cached feed, or false when nothing is cached
func (s *AlbumService) Feed(ctx context.Context) (*domain.Feed, bool) {
	feed, err := s.store.CurrentFeed(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrFeedNotFound) {
			s.logger.Warn("Failed to read cached feed", "error", err)
		}
		return nil, false
	}
	return feed, true
}

// Albums returns the cached albums in chart order
func (s *AlbumService) Albums(ctx context.Context) ([]domain.Album, bool) {
	feed, ok := s.Feed(ctx)
	if !ok {
		return nil, false
	}
	return feed.Albums, true
}

// Copyright returns the copyright line of the cached feed
func (s *AlbumService) Copyright(ctx context.Context) (string, bool) {
	feed, ok := s.Feed(ctx)
	if !ok {
		return "", false
	}
	return feed.Copyright, true
}

// IsEmpty reports whether there is nothing to show
func (s *AlbumService) IsEmpty(ctx context.Context) bool {
	feed, ok := s.Feed(ctx)
	return !ok || feed.IsEmpty()
}

// Album looks an album up by ID, falling back to chart rank
func (s *AlbumService) Album(ctx context.Context, idOrRank string) (*domain.Album, error) {
	idOrRank = strings.TrimSpace(idOrRank)
	if idOrRank == "" {
		return nil, fmt.Errorf("album id: %w", domain.ErrInvalidInput)
	}

	feed, ok := s.Feed(ctx)
	if !ok {
		return nil, domain.ErrAlbumNotFound
	}

	if album, ok := feed.FindAlbum(idOrRank); ok {
		return &album, nil
	}
	if rank, err := strconv.Atoi(idOrRank); err == nil {
		if album, ok := feed.AlbumAtRank(rank); ok {
			return &album, nil
		}
	}

	return nil, domain.ErrAlbumNotFound
}

// Search queries the index and resolves hits against the cached feed. Hits
// for albums no longer cached are dropped.
func (s *AlbumService) Search(ctx context.Context, query *search.SearchQuery) (*AlbumSearchResult, error) {
	if s.index == nil {
		return nil, errors.New("search index is not configured")
	}

	feed, ok := s.Feed(ctx)
	if !ok {
		return &AlbumSearchResult{Albums: []domain.Album{}, Page: max(query.Page, 1), Limit: query.Limit}, nil
	}

	res, err := s.index.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	albums := make([]domain.Album, 0, len(res.IDs))
	for _, id := range res.IDs {
		if album, ok := feed.FindAlbum(id); ok {
			albums = append(albums, album)
		}
	}

	return &AlbumSearchResult{
		Albums:     albums,
		Total:      res.Total,
		Page:       res.Page,
		Limit:      res.Limit,
		TotalPages: res.TotalPages,
		QueryTime:  res.QueryTime,
	}, nil
}

// Clear drops the cached feed and its search documents
func (s *AlbumService) Clear(ctx context.Context) error {
	if err := s.store.Clear(ctx); err != nil {
		s.logger.Error("Failed to clear cached feed", "error", err)
		return err
	}
	s.metrics.SetCachedAlbums(0)
	if s.index != nil {
		if err := s.index.Clear(ctx); err != nil {
			s.logger.Warn("Failed to clear search index", "error", err)
		}
	}
	s.logger.Info("Cleared cached feed")
	return nil
}

// Reindex brings derived state in line with the cached feed after a
// restart: the cached album gauge, and the search index when it disagrees
// with the feed (e.g. an in-memory index)
func (s *AlbumService) Reindex(ctx context.Context) error {
	feed, ok := s.Feed(ctx)
	if !ok {
		s.metrics.SetCachedAlbums(0)
		return nil
	}
	s.metrics.SetCachedAlbums(len(feed.Albums))

	if s.index == nil {
		return nil
	}

	count, err := s.index.Count()
	if err == nil && count == uint64(len(feed.Albums)) {
		return nil
	}

	if err := s.index.Rebuild(ctx, feed); err != nil {
		return fmt.Errorf("failed to reindex cached feed: %w", err)
	}
	s.logger.Info("Reindexed cached feed", "albums", len(feed.Albums))
	return nil
}
