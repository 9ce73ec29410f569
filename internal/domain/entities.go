package domain

import (
	"fmt"
	"strings"
	"time"
	"unicode"
)

// UnknownTitle is stored when the remote record carries no title.
const UnknownTitle = "Unknown Title"

// Anime is a single catalog entry. It is both the persisted record and the
// value handed to consumers; the store always returns copies.
type Anime struct {
	ID            int    `json:"id"`             // MyAnimeList ID, primary key
	Title         string `json:"title"`          // Default (romaji) title
	TitleAlt      string `json:"title_alt"`      // English title, empty if none
	TitleJapanese string `json:"title_japanese"` // Native title, empty if none
	Synopsis      string `json:"synopsis"`

	Episodes   *int     `json:"episodes,omitempty"`
	Score      *float64 `json:"score,omitempty"`
	ScoredBy   *int     `json:"scored_by,omitempty"`
	Rank       *int     `json:"rank,omitempty"` // Primary sort key for lists
	Popularity *int     `json:"popularity,omitempty"`
	Year       *int     `json:"year,omitempty"`

	Status   string `json:"status"`   // e.g. "Finished Airing"
	Rating   string `json:"rating"`   // e.g. "PG-13 - Teens 13 or older"
	Duration string `json:"duration"` // e.g. "24 min per ep"
	Season   string `json:"season"`
	Source   string `json:"source"` // e.g. "Manga"
	Type     string `json:"type"`   // e.g. "TV", "Movie"

	// Image URLs
	ImageURL      string `json:"image_url"`
	LargeImageURL string `json:"large_image_url"`

	// Trailer
	TrailerURL      string `json:"trailer_url"`
	TrailerEmbedURL string `json:"trailer_embed_url"`
	TrailerImageURL string `json:"trailer_image_url"`

	Genres  []string `json:"genres"`
	Studios []string `json:"studios"`

	// FetchedAt is the time of the write that produced this revision.
	FetchedAt time.Time `json:"fetched_at"`
}

// Clone returns a deep copy so callers can't alias the slices of a stored entry.
func (a Anime) Clone() Anime {
	c := a
	c.Episodes = cloneInt(a.Episodes)
	c.ScoredBy = cloneInt(a.ScoredBy)
	c.Rank = cloneInt(a.Rank)
	c.Popularity = cloneInt(a.Popularity)
	c.Year = cloneInt(a.Year)
	if a.Score != nil {
		v := *a.Score
		c.Score = &v
	}
	if a.Genres != nil {
		c.Genres = append([]string(nil), a.Genres...)
	}
	if a.Studios != nil {
		c.Studios = append([]string(nil), a.Studios...)
	}
	return c
}

// FormattedScore returns the score for display, e.g. "★ 8.7"
func (a Anime) FormattedScore() string {
	if a.Score == nil {
		return "★ N/A"
	}
	return fmt.Sprintf("★ %.1f", *a.Score)
}

// FormattedEpisodes returns the episode count for display, e.g. "12 Episodes"
func (a Anime) FormattedEpisodes() string {
	if a.Episodes == nil {
		return "? Episodes"
	}
	return fmt.Sprintf("%d Episodes", *a.Episodes)
}

// Initial returns the upper-cased first letter of the title, used when images are hidden.
func (a Anime) Initial() string {
	for _, r := range strings.TrimSpace(a.Title) {
		return string(unicode.ToUpper(r))
	}
	return "?"
}

// DisplayTitle prefers the English title when present.
func (a Anime) DisplayTitle() string {
	if a.TitleAlt != "" {
		return a.TitleAlt
	}
	return a.Title
}

// Pagination mirrors the paging block of a list response.
type Pagination struct {
	CurrentPage     int
	LastVisiblePage int
	HasNextPage     bool
}

// IntPtr is a convenience for building optional numeric fields.
func IntPtr(v int) *int { return &v }

// FloatPtr is a convenience for building optional numeric fields.
func FloatPtr(v float64) *float64 { return &v }

func cloneInt(p *int) *int {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
