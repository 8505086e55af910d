package search

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
	"github.com/amiyamandal-dev/topalbums/pkg/logger"
)

// ErrIndexClosed is returned when the index is used before Open or after Close
var ErrIndexClosed = errors.New("search index is not open")

// maxPage caps the requested page so the result offset stays in range
const maxPage = 10000

// BleveIndex implements the Index interface using Bleve
type BleveIndex struct {
	index  bleve.Index
	mu     sync.RWMutex // Protects concurrent access to the index
	logger *logger.Logger
}

// NewBleveIndex creates a new Bleve search index
func NewBleveIndex(logger *logger.Logger) *BleveIndex {
	return &BleveIndex{
		logger: logger.WithComponent("bleve-index"),
	}
}

// Open opens or creates the search index
func (b *BleveIndex) Open(indexPath string) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	var err error

	if indexPath == "" {
		b.index, err = bleve.NewMemOnly(b.buildIndexMapping())
		if err != nil {
			return fmt.Errorf("failed to create in-memory search index: %w", err)
		}
		b.logger.Debug("Created in-memory search index")
		return nil
	}

	// Ensure directory exists
	if err := os.MkdirAll(filepath.Dir(indexPath), 0o755); err != nil {
		return fmt.Errorf("failed to create index directory: %w", err)
	}

	// Try to open existing index
	b.index, err = bleve.Open(indexPath)
	if err == nil {
		b.logger.Info("Opened existing search index", "path", indexPath)
		return nil
	}

	// Index doesn't exist, create new one
	b.index, err = bleve.New(indexPath, b.buildIndexMapping())
	if err != nil {
		return fmt.Errorf("failed to create search index: %w", err)
	}

	b.logger.Info("Created new search index", "path", indexPath)
	return nil
}

// buildIndexMapping builds the index mapping for albums
func (b *BleveIndex) buildIndexMapping() mapping.IndexMapping {
	albumMapping := bleve.NewDocumentMapping()

	// Name field - analyzed with stemming
	nameFieldMapping := bleve.NewTextFieldMapping()
	nameFieldMapping.Analyzer = "en"
	nameFieldMapping.Store = false
	albumMapping.AddFieldMappingsAt("name", nameFieldMapping)

	// Artist field - analyzed, no stemming so names match as typed
	artistFieldMapping := bleve.NewTextFieldMapping()
	artistFieldMapping.Analyzer = "standard"
	artistFieldMapping.Store = false
	albumMapping.AddFieldMappingsAt("artist", artistFieldMapping)

	// Genres field - keyword, lowercased before indexing
	genresFieldMapping := bleve.NewKeywordFieldMapping()
	genresFieldMapping.Store = false
	albumMapping.AddFieldMappingsAt("genres", genresFieldMapping)

	// Rank field - numeric, used as the tie breaker
	rankFieldMapping := bleve.NewNumericFieldMapping()
	rankFieldMapping.Store = false
	albumMapping.AddFieldMappingsAt("rank", rankFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.AddDocumentMapping("album", albumMapping)
	indexMapping.DefaultMapping = albumMapping

	return indexMapping
}

// Close closes the search index
func (b *BleveIndex) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.index != nil {
		if err := b.index.Close(); err != nil {
			return fmt.Errorf("failed to close index: %w", err)
		}
		b.index = nil
		b.logger.Info("Closed search index")
	}
	return nil
}

// Rebuild replaces the indexed albums in one batch
func (b *BleveIndex) Rebuild(ctx context.Context, feed *domain.Feed) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.index == nil {
		return ErrIndexClosed
	}

	batch := b.index.NewBatch()
	if err := b.deleteAll(batch); err != nil {
		return err
	}

	if feed != nil {
		for _, album := range feed.Albums {
			if err := batch.Index(album.ID, AlbumToDocument(album)); err != nil {
				return fmt.Errorf("failed to index album %s: %w", album.ID, err)
			}
		}
	}

	if err := b.index.Batch(batch); err != nil {
		b.logger.Error("Failed to rebuild search index", "error", err)
		return fmt.Errorf("failed to rebuild index: %w", err)
	}

	count := 0
	if feed != nil {
		count = len(feed.Albums)
	}
	b.logger.Debug("Rebuilt search index", "albums", count)
	return nil
}

// Clear removes every indexed album
func (b *BleveIndex) Clear(ctx context.Context) error {
	return b.Rebuild(ctx, nil)
}

// deleteAll queues a delete for every document currently indexed
func (b *BleveIndex) deleteAll(batch *bleve.Batch) error {
	count, err := b.index.DocCount()
	if err != nil {
		return fmt.Errorf("failed to get doc count: %w", err)
	}
	if count == 0 {
		return nil
	}

	req := bleve.NewSearchRequest(bleve.NewMatchAllQuery())
	req.Size = int(count)
	res, err := b.index.Search(req)
	if err != nil {
		return fmt.Errorf("failed to list indexed albums: %w", err)
	}
	for _, hit := range res.Hits {
		batch.Delete(hit.ID)
	}
	return nil
}

// Search searches the index
func (b *BleveIndex) Search(ctx context.Context, query *SearchQuery) (*SearchResult, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.index == nil {
		return nil, ErrIndexClosed
	}

	startTime := time.Now()

	// Pagination
	query.Page = min(max(query.Page, 1), maxPage)
	if query.Limit < 1 {
		query.Limit = 20
	}
	if query.Limit > 100 {
		query.Limit = 100
	}

	searchRequest := bleve.NewSearchRequest(b.buildSearchQuery(query))
	searchRequest.From = (query.Page - 1) * query.Limit
	searchRequest.Size = query.Limit
	searchRequest.SortBy([]string{"-_score", "rank"})

	searchResults, err := b.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		b.logger.Error("Search failed", "error", err)
		return nil, fmt.Errorf("search failed: %w", err)
	}

	queryTime := time.Since(startTime).Milliseconds()

	ids := make([]string, 0, len(searchResults.Hits))
	for _, hit := range searchResults.Hits {
		ids = append(ids, hit.ID)
	}

	total := int(searchResults.Total)
	totalPages := total / query.Limit
	if total%query.Limit > 0 {
		totalPages++
	}

	b.logger.Debug("Search completed",
		"query", query.Query,
		"genre", query.Genre,
		"results", total,
		"time_ms", queryTime,
	)

	return &SearchResult{
		IDs:        ids,
		Total:      total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: totalPages,
		QueryTime:  queryTime,
	}, nil
}

// buildSearchQuery builds a Bleve query from search parameters
func (b *BleveIndex) buildSearchQuery(searchQuery *SearchQuery) query.Query {
	var queries []query.Query

	// Full-text query on name or artist
	if searchQuery.Query != "" {
		nameQuery := bleve.NewMatchQuery(searchQuery.Query)
		nameQuery.SetField("name")
		nameQuery.SetBoost(2)

		artistQuery := bleve.NewMatchQuery(searchQuery.Query)
		artistQuery.SetField("artist")

		queries = append(queries, bleve.NewDisjunctionQuery(nameQuery, artistQuery))
	}

	// Genre filter
	if genre := normalizeGenre(searchQuery.Genre); genre != "" {
		genreQuery := bleve.NewTermQuery(genre)
		genreQuery.SetField("genres")
		queries = append(queries, genreQuery)
	}

	switch len(queries) {
	case 0:
		return bleve.NewMatchAllQuery()
	case 1:
		return queries[0]
	default:
		return bleve.NewConjunctionQuery(queries...)
	}
}

// Count returns the number of documents in the index
func (b *BleveIndex) Count() (uint64, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.index == nil {
		return 0, ErrIndexClosed
	}

	count, err := b.index.DocCount()
	if err != nil {
		return 0, fmt.Errorf("failed to get doc count: %w", err)
	}
	return count, nil
}
