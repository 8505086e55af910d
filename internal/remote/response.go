package remote

import (
	"html"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"

	"github.com/amiyamandal-dev/topalbums/internal/domain"
)

// albumsResponse is the JSON envelope returned by the chart endpoint
type albumsResponse struct {
	Feed *feedPayload `json:"feed" validate:"required"`
}

type feedPayload struct {
	Title     string         `json:"title"`
	ID        string         `json:"id"`
	Copyright string         `json:"copyright"`
	Country   string         `json:"country"`
	Updated   string         `json:"updated"`
	Results   []albumPayload `json:"results" validate:"required,max=1000,dive"`
}

type albumPayload struct {
	ID                    string         `json:"id" validate:"required"`
	Name                  string         `json:"name" validate:"required"`
	ArtistName            string         `json:"artistName" validate:"required"`
	ArtistID              string         `json:"artistId"`
	ArtistURL             string         `json:"artistUrl" validate:"omitempty,url"`
	ArtworkURL            string         `json:"artworkUrl100" validate:"omitempty,url"`
	ReleaseDate           string         `json:"releaseDate"`
	Kind                  string         `json:"kind"`
	ContentAdvisoryRating string         `json:"contentAdvisoryRating"`
	Genres                []genrePayload `json:"genres" validate:"dive"`
	URL                   string         `json:"url" validate:"omitempty,url"`
}

type genrePayload struct {
	GenreID string `json:"genreId"`
	Name    string `json:"name" validate:"required"`
	URL     string `json:"url"`
}

// updatedLayouts are the timestamp formats seen in feed.updated
var updatedLayouts = []string{
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339,
}

func parseUpdated(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}
	for _, layout := range updatedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// textCleaner strips markup from free-text fields
type textCleaner struct {
	policy *bluemonday.Policy
}

func newTextCleaner() *textCleaner {
	return &textCleaner{policy: bluemonday.StrictPolicy()}
}

// maxCleanPasses bounds how many layers of entity encoding are peeled off
const maxCleanPasses = 4

// clean removes tags and undoes the entity escaping bluemonday applies, so
// "Simon & Garfunkel" stays readable. Sanitizing repeats until the value is
// stable, so markup hidden behind entities ("&lt;b&gt;") is stripped too.
func (c *textCleaner) clean(s string) string {
	if !strings.ContainsAny(s, "<>&") {
		return strings.TrimSpace(s)
	}

	for range maxCleanPasses {
		next := html.UnescapeString(c.policy.Sanitize(s))
		if next == s {
			return strings.TrimSpace(s)
		}
		s = next
	}

	// still layered after maxCleanPasses: decode the rest and drop angle
	// brackets so no tag can come back out of it
	for range maxDecodePasses {
		next := html.UnescapeString(s)
		if next == s {
			break
		}
		s = next
	}
	return strings.TrimSpace(angleBrackets.Replace(s))
}

const maxDecodePasses = 16

var angleBrackets = strings.NewReplacer("<", "", ">", "")

// toDomain converts a validated payload into a feed. Ranks follow array order.
func (p *feedPayload) toDomain(c *textCleaner) *domain.Feed {
	feed := &domain.Feed{
		ID:        p.ID,
		Title:     c.clean(p.Title),
		Country:   p.Country,
		Copyright: c.clean(p.Copyright),
		Updated:   parseUpdated(p.Updated),
		Albums:    make([]domain.Album, 0, len(p.Results)),
	}

	for i, r := range p.Results {
		album := domain.Album{
			ID:                    r.ID,
			Rank:                  i + 1,
			Name:                  c.clean(r.Name),
			ArtistName:            c.clean(r.ArtistName),
			ArtistID:              r.ArtistID,
			ArtistURL:             r.ArtistURL,
			ArtworkURL:            r.ArtworkURL,
			ReleaseDate:           r.ReleaseDate,
			ContentAdvisoryRating: r.ContentAdvisoryRating,
			URL:                   r.URL,
		}
		if len(r.Genres) > 0 {
			album.Genres = make([]domain.Genre, 0, len(r.Genres))
			for _, g := range r.Genres {
				album.Genres = append(album.Genres, domain.Genre{
					ID:   g.GenreID,
					Name: c.clean(g.Name),
					URL:  g.URL,
				})
			}
		}
		feed.Albums = append(feed.Albums, album)
	}

	return feed
}
