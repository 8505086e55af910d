package search

import (
	"context"
	"strings"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
)

// AlbumDocument represents an album in the search index
type AlbumDocument struct {
	Name   string   `json:"name"`
	Artist string   `json:"artist"`
	Genres []string `json:"genres"`
	Rank   int      `json:"rank"`
}

// SearchQuery represents a search query
type SearchQuery struct {
	Query string
	Genre string
	Page  int
	Limit int
}

// SearchResult holds matching album IDs, best match first
type SearchResult struct {
	IDs        []string
	Total      int
	Page       int
	Limit      int
	TotalPages int
	QueryTime  int64 // milliseconds
}

// Index defines the interface for the album search index
type Index interface {
	// Open opens the search index. An empty path keeps it in memory.
	Open(indexPath string) error

	// Close closes the search index
	Close() error

	// Rebuild replaces the indexed albums with those of feed
	Rebuild(ctx context.Context, feed *domain.Feed) error

	// Clear removes every indexed album
	Clear(ctx context.Context) error

	// Search searches the index
	Search(ctx context.Context, query *SearchQuery) (*SearchResult, error)

	// Count returns the number of documents in the index
	Count() (uint64, error)
}

// AlbumToDocument converts an album to a search document
func AlbumToDocument(album domain.Album) *AlbumDocument {
	genres := make([]string, 0, len(album.Genres))
	for _, g := range album.Genres {
		genres = append(genres, normalizeGenre(g.Name))
	}
	return &AlbumDocument{
		Name:   album.Name,
		Artist: album.ArtistName,
		Genres: genres,
		Rank:   album.Rank,
	}
}

func normalizeGenre(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}
