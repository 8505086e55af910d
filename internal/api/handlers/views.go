package handlers

import (
	"time"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
)

// AlbumView is an album plus the labels the chart grid displays
type AlbumView struct {
	domain.Album
	DisplayName  string `json:"display_name"`
	ReleaseLabel string `json:"release_label"`
	PrimaryGenre string `json:"primary_genre,omitempty"`
}

// AlbumsPage is the body of GET /albums
type AlbumsPage struct {
	Title     string      `json:"title"`
	Copyright string      `json:"copyright"`
	Updated   *time.Time  `json:"updated,omitempty"`
	Albums    []AlbumView `json:"albums"`
}

// FeedView is the body of GET /feed
type FeedView struct {
	ID         string     `json:"id"`
	Title      string     `json:"title"`
	Country    string     `json:"country,omitempty"`
	Copyright  string     `json:"copyright"`
	Updated    *time.Time `json:"updated,omitempty"`
	AlbumCount int        `json:"album_count"`
}

func newAlbumView(a domain.Album) AlbumView {
	return AlbumView{
		Album:        a,
		DisplayName:  a.DisplayName(),
		ReleaseLabel: a.ReleaseLabel(),
		PrimaryGenre: a.PrimaryGenre(),
	}
}

func newAlbumViews(albums []domain.Album) []AlbumView {
	views := make([]AlbumView, 0, len(albums))
	for _, a := range albums {
		views = append(views, newAlbumView(a))
	}
	return views
}

func newFeedView(f *domain.Feed) FeedView {
	return FeedView{
		ID:         f.ID,
		Title:      f.Title,
		Country:    f.Country,
		Copyright:  f.Copyright,
		Updated:    timePtr(f.Updated),
		AlbumCount: len(f.Albums),
	}
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
