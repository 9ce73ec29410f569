package jikan

import (
	"github.com/mmcdole/anidex/internal/domain"
)

// MapAnimeList converts API entries to domain entries, preserving order
func MapAnimeList(dtos []AnimeDTO) []domain.Anime {
	items := make([]domain.Anime, 0, len(dtos))
	for _, d := range dtos {
		items = append(items, MapAnime(d))
	}
	return items
}

// MapAnime converts a single API entry. FetchedAt is left zero; it is
// stamped when the entry is written to the cache.
func MapAnime(d AnimeDTO) domain.Anime {
	a := domain.Anime{
		ID:            d.MalID,
		Title:         domain.UnknownTitle,
		TitleAlt:      d.TitleEnglish,
		TitleJapanese: d.TitleJapanese,
		Synopsis:      d.Synopsis,
		Episodes:      d.Episodes,
		Score:         d.Score,
		ScoredBy:      d.ScoredBy,
		Rank:          d.Rank,
		Popularity:    d.Popularity,
		Status:        d.Status,
		Rating:        d.Rating,
		Duration:      d.Duration,
		Season:        d.Season,
		Year:          d.Year,
		Genres:        names(d.Genres),
		Studios:       names(d.Studios),
		Source:        d.Source,
		Type:          d.Type,
	}
	if d.Title != nil {
		a.Title = *d.Title
	}

	if d.Images != nil {
		a.ImageURL = firstNonEmpty(imageField(d.Images.JPG, false), imageField(d.Images.WebP, false))
		a.LargeImageURL = firstNonEmpty(imageField(d.Images.JPG, true), imageField(d.Images.WebP, true))
	}

	if t := d.Trailer; t != nil {
		a.TrailerURL = t.URL
		a.TrailerEmbedURL = t.EmbedURL
		if t.Images != nil {
			a.TrailerImageURL = firstNonEmpty(t.Images.MaximumImageURL, t.Images.LargeImageURL, t.Images.ImageURL)
		}
	}

	return a
}

// MapPagination converts the API pagination block. A missing block means
// the response was the only page.
func MapPagination(p *PaginationDTO, requested int) domain.Pagination {
	if p == nil {
		return domain.Pagination{CurrentPage: requested, LastVisiblePage: requested}
	}
	current := p.CurrentPage
	if current == 0 {
		current = requested
	}
	return domain.Pagination{
		CurrentPage:     current,
		LastVisiblePage: p.LastVisiblePage,
		HasNextPage:     p.HasNextPage,
	}
}

func imageField(u *ImageURLs, large bool) string {
	if u == nil {
		return ""
	}
	if large {
		return u.LargeImageURL
	}
	return u.ImageURL
}

// names flattens genre/studio references, dropping entries without a name
func names(refs []Named) []string {
	if refs == nil {
		return nil
	}
	out := make([]string, 0, len(refs))
	for _, r := range refs {
		if r.Name != nil {
			out = append(out, *r.Name)
		}
	}
	return out
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
