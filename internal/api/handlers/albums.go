package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
	"github.com/amiyamandal-dev/topalbums/internal/search"
	"github.com/amiyamandal-dev/topalbums/internal/service"
	"github.com/amiyamandal-dev/topalbums/pkg/logger"
	"github.com/amiyamandal-dev/topalbums/pkg/response"
)

// defaultPageSize shows the whole chart on one page
const defaultPageSize = 100

// AlbumHandler serves the cached chart
type AlbumHandler struct {
	albumService *service.AlbumService
	logger       *logger.Logger
}

// NewAlbumHandler creates a new album handler
func NewAlbumHandler(albumService *service.AlbumService, logger *logger.Logger) *AlbumHandler {
	return &AlbumHandler{
		albumService: albumService,
		logger:       logger.WithComponent("album-handler"),
	}
}

// List returns a page of cached albums with the feed copyright
func (h *AlbumHandler) List(c *gin.Context) {
	parser := NewQueryParamParser(c)
	pg := parser.Pagination(defaultPageSize)
	if err := parser.Error(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	feed, ok := h.albumService.Feed(c.Request.Context())
	if !ok || feed.IsEmpty() {
		page := AlbumsPage{Albums: []AlbumView{}}
		if ok {
			page.Title = feed.Title
			page.Copyright = feed.Copyright
			page.Updated = timePtr(feed.Updated)
		}
		response.PaginatedWithMessage(c, domain.MsgNoRecords, page, pg.Page, pg.Limit, 0)
		return
	}

	total := len(feed.Albums)
	start := min(max(pg.Offset(), 0), total)
	end := min(start+pg.Limit, total)

	response.Paginated(c, AlbumsPage{
		Title:     feed.Title,
		Copyright: feed.Copyright,
		Updated:   timePtr(feed.Updated),
		Albums:    newAlbumViews(feed.Albums[start:end]),
	}, pg.Page, pg.Limit, total)
}

// Get returns one album by ID or chart rank
func (h *AlbumHandler) Get(c *gin.Context) {
	album, err := h.albumService.Album(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrAlbumNotFound):
			response.NotFound(c, "Album not found")
		case errors.Is(err, domain.ErrInvalidInput):
			response.BadRequest(c, "Album id is required")
		default:
			h.logger.Error("Failed to get album", "id", c.Param("id"), "error", err)
			response.InternalServerError(c, "Failed to get album")
		}
		return
	}

	response.Success(c, newAlbumView(*album))
}

// Search performs a search over the cached albums
func (h *AlbumHandler) Search(c *gin.Context) {
	parser := NewQueryParamParser(c)
	pg := parser.Pagination(20)
	q := parser.String("q", "")
	genre := parser.String("genre", "")
	if err := parser.Error(); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	result, err := h.albumService.Search(c.Request.Context(), &search.SearchQuery{
		Query: q,
		Genre: genre,
		Page:  pg.Page,
		Limit: pg.Limit,
	})
	if err != nil {
		h.logger.Error("Search failed", "query", q, "error", err)
		response.InternalServerError(c, "Search failed")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"data": gin.H{
			"results":     newAlbumViews(result.Albums),
			"total":       result.Total,
			"page":        result.Page,
			"limit":       result.Limit,
			"total_pages": result.TotalPages,
			"query_time":  result.QueryTime,
		},
	})
}

// Feed returns the cached feed header
func (h *AlbumHandler) Feed(c *gin.Context) {
	feed, ok := h.albumService.Feed(c.Request.Context())
	if !ok {
		response.NotFound(c, domain.MsgNoRecords)
		return
	}

	response.Success(c, newFeedView(feed))
}

// Clear drops the cached feed
func (h *AlbumHandler) Clear(c *gin.Context) {
	if err := h.albumService.Clear(c.Request.Context()); err != nil {
		response.InternalServerError(c, "Failed to clear cached albums")
		return
	}

	response.SuccessWithMessage(c, "Cached albums cleared", nil)
}
