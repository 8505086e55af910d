package domain

import (
	"strings"
	"time"
)

// Album is one chart entry. Albums are owned by exactly one Feed.
type Album struct {
	ID                    string  `json:"id"`
	Rank                  int     `json:"rank"` // 1-based chart position
	Name                  string  `json:"name"`
	ArtistName            string  `json:"artist_name"`
	ArtistID              string  `json:"artist_id,omitempty"`
	ArtistURL             string  `json:"artist_url,omitempty"`
	ArtworkURL            string  `json:"artwork_url"`
	ReleaseDate           string  `json:"release_date"` // YYYY-MM-DD as sent upstream
	ContentAdvisoryRating string  `json:"content_advisory_rating,omitempty"`
	Genres                []Genre `json:"genres,omitempty"`
	URL                   string  `json:"url"`
}

// Genre is a chart genre tag
type Genre struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url,omitempty"`
}

// releaseDateLayout is the upstream date format
const releaseDateLayout = "2006-01-02"

// DisplayName is the album name as shown on the chart grid
func (a Album) DisplayName() string {
	return strings.ToUpper(a.Name)
}

// ReleasedOn parses ReleaseDate. ok is false when the date is missing or malformed.
func (a Album) ReleasedOn() (t time.Time, ok bool) {
	if a.ReleaseDate == "" {
		return time.Time{}, false
	}
	t, err := time.Parse(releaseDateLayout, a.ReleaseDate)
	if err != nil {
		return time.Time{}, false
	}
	return t, true
}

// ReleaseLabel renders the release date as "Released Oct 21, 2022".
// Unparseable dates are shown verbatim.
func (a Album) ReleaseLabel() string {
	if t, ok := a.ReleasedOn(); ok {
		return "Released " + t.Format("Jan 2, 2006")
	}
	if a.ReleaseDate == "" {
		return ""
	}
	return "Released " + a.ReleaseDate
}

// PrimaryGenre returns the first genre name, or "" when there is none
func (a Album) PrimaryGenre() string {
	if len(a.Genres) == 0 {
		return ""
	}
	return a.Genres[0].Name
}

// GenreNames lists the genre names in upstream order
func (a Album) GenreNames() []string {
	names := make([]string, 0, len(a.Genres))
	for _, g := range a.Genres {
		names = append(names, g.Name)
	}
	return names
}

// Feed is one cached snapshot of the chart. The local store holds at most one.
type Feed struct {
	ID        string    `json:"id"` // upstream feed URL
	Title     string    `json:"title"`
	Country   string    `json:"country,omitempty"`
	Copyright string    `json:"copyright"`
	Updated   time.Time `json:"updated"`
	Albums    []Album   `json:"albums"`
}

// IsEmpty reports whether the feed carries no albums
func (f *Feed) IsEmpty() bool {
	return f == nil || len(f.Albums) == 0
}

// FindAlbum returns the album with the given upstream id
func (f *Feed) FindAlbum(id string) (Album, bool) {
	if f == nil {
		return Album{}, false
	}
	for _, a := range f.Albums {
		if a.ID == id {
			return a, true
		}
	}
	return Album{}, false
}

// AlbumAtRank returns the album at a 1-based chart position
func (f *Feed) AlbumAtRank(rank int) (Album, bool) {
	if f == nil || rank < 1 || rank > len(f.Albums) {
		return Album{}, false
	}
	return f.Albums[rank-1], true
}

// Header returns a copy of the feed without its albums
func (f *Feed) Header() FeedHeader {
	return FeedHeader{
		ID:         f.ID,
		Title:      f.Title,
		Country:    f.Country,
		Copyright:  f.Copyright,
		Updated:    f.Updated,
		AlbumCount: len(f.Albums),
	}
}

// FeedHeader is the album-less part of a feed. Stores persist it next to the
// album records so that readers can detect a partially written feed.
type FeedHeader struct {
	ID         string    `json:"id"`
	Title      string    `json:"title"`
	Country    string    `json:"country,omitempty"`
	Copyright  string    `json:"copyright"`
	Updated    time.Time `json:"updated"`
	AlbumCount int       `json:"album_count"`
}

// Feed rebuilds a feed from the header and its albums
func (h FeedHeader) Feed(albums []Album) *Feed {
	return &Feed{
		ID:        h.ID,
		Title:     h.Title,
		Country:   h.Country,
		Copyright: h.Copyright,
		Updated:   h.Updated,
		Albums:    albums,
	}
}

// Equal reports whether two feeds carry the same chart data. Timestamps are
// compared as instants and nil and empty genre lists are treated alike.
func (f *Feed) Equal(other *Feed) bool {
	if f == nil || other == nil {
		return f == other
	}
	if f.ID != other.ID || f.Title != other.Title || f.Country != other.Country ||
		f.Copyright != other.Copyright || !f.Updated.Equal(other.Updated) ||
		len(f.Albums) != len(other.Albums) {
		return false
	}
	for i := range f.Albums {
		if !f.Albums[i].Equal(other.Albums[i]) {
			return false
		}
	}
	return true
}

// Equal reports whether two albums are the same value
func (a Album) Equal(other Album) bool {
	if a.ID != other.ID || a.Rank != other.Rank || a.Name != other.Name ||
		a.ArtistName != other.ArtistName || a.ArtistID != other.ArtistID ||
		a.ArtistURL != other.ArtistURL || a.ArtworkURL != other.ArtworkURL ||
		a.ReleaseDate != other.ReleaseDate || a.ContentAdvisoryRating != other.ContentAdvisoryRating ||
		a.URL != other.URL || len(a.Genres) != len(other.Genres) {
		return false
	}
	for i := range a.Genres {
		if a.Genres[i] != other.Genres[i] {
			return false
		}
	}
	return true
}
