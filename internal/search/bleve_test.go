package search

import (
	"context"
	"errors"
	"math"
	"path/filepath"
	"testing"

	"github.com/amiyamandal-dev/topalbums/internal/repository/storetest"
	"github.com/amiyamandal-dev/topalbums/pkg/logger"
)

func newTestIndex(t *testing.T) *BleveIndex {
	t.Helper()
	idx := NewBleveIndex(logger.NewNop())
	if err := idx.Open(""); err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { idx.Close() })

	if err := idx.Rebuild(context.Background(), storetest.SampleFeed()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	return idx
}

func TestSearchByName(t *testing.T) {
	idx := newTestIndex(t)

	res, err := idx.Search(context.Background(), &SearchQuery{Query: "midnights"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 || len(res.IDs) != 1 || res.IDs[0] != "1649434004" {
		t.Fatalf("result = %+v", res)
	}
}

func TestSearchByArtist(t *testing.T) {
	idx := newTestIndex(t)

	res, err := idx.Search(context.Background(), &SearchQuery{Query: "Taylor Swift"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(res.IDs) == 0 || res.IDs[0] != "1649434004" {
		t.Fatalf("result = %+v", res)
	}
}

func TestSearchByGenre(t *testing.T) {
	idx := newTestIndex(t)

	res, err := idx.Search(context.Background(), &SearchQuery{Genre: "hip-hop/rap"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 1 || res.IDs[0] != "1654834999" {
		t.Fatalf("result = %+v", res)
	}

	res, err = idx.Search(context.Background(), &SearchQuery{Query: "midnights", Genre: "Hip-Hop/Rap"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 0 {
		t.Fatalf("expected text and genre to be combined, got %+v", res)
	}
}

func TestSearchMatchAllOrdersByRank(t *testing.T) {
	idx := newTestIndex(t)

	res, err := idx.Search(context.Background(), &SearchQuery{Limit: 2})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 3 || res.TotalPages != 2 || len(res.IDs) != 2 {
		t.Fatalf("result = %+v", res)
	}
	if res.IDs[0] != "1649434004" || res.IDs[1] != "1654834999" {
		t.Errorf("ids = %v, want rank order", res.IDs)
	}

	res, err = idx.Search(context.Background(), &SearchQuery{Page: 2, Limit: 2})
	if err != nil {
		t.Fatalf("Search page 2: %v", err)
	}
	if len(res.IDs) != 1 || res.IDs[0] != "1645937257" {
		t.Errorf("page 2 ids = %v", res.IDs)
	}
}

func TestSearchHugePageIsEmpty(t *testing.T) {
	idx := newTestIndex(t)

	res, err := idx.Search(context.Background(), &SearchQuery{Page: math.MaxInt, Limit: 100})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 3 || len(res.IDs) != 0 {
		t.Errorf("result = %+v, want total 3 and no ids", res)
	}
	if res.Page != maxPage {
		t.Errorf("page = %d, want clamped to %d", res.Page, maxPage)
	}
}

func TestRebuildReplacesDocuments(t *testing.T) {
	idx := newTestIndex(t)
	ctx := context.Background()

	if err := idx.Rebuild(ctx, storetest.GeneratedFeed(5, "next")); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	count, err := idx.Count()
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if count != 5 {
		t.Fatalf("count = %d, want 5", count)
	}

	res, err := idx.Search(ctx, &SearchQuery{Query: "midnights"})
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if res.Total != 0 {
		t.Errorf("stale album still indexed: %+v", res)
	}
}

func TestClear(t *testing.T) {
	idx := newTestIndex(t)

	if err := idx.Clear(context.Background()); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	count, err := idx.Count()
	if err != nil || count != 0 {
		t.Fatalf("Count = %d, %v", count, err)
	}
}

func TestOnDiskIndexReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "albums.bleve")

	idx := NewBleveIndex(logger.NewNop())
	if err := idx.Open(path); err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := idx.Rebuild(context.Background(), storetest.SampleFeed()); err != nil {
		t.Fatalf("Rebuild: %v", err)
	}
	idx.Close()

	idx = NewBleveIndex(logger.NewNop())
	if err := idx.Open(path); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer idx.Close()

	count, err := idx.Count()
	if err != nil || count != 3 {
		t.Fatalf("Count = %d, %v", count, err)
	}
}

func TestClosedIndex(t *testing.T) {
	idx := NewBleveIndex(logger.NewNop())
	if _, err := idx.Search(context.Background(), &SearchQuery{}); !errors.Is(err, ErrIndexClosed) {
		t.Fatalf("got %v, want ErrIndexClosed", err)
	}
}
