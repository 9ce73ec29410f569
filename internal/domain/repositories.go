package domain

import (
	"context"
)

// CatalogSource provides read-only access to the remote anime catalog.
// Implementations do not retry; failures wrap one of the sentinel errors.
type CatalogSource interface {
	// FetchTopList returns one page of the top-ranked list
	FetchTopList(ctx context.Context, page int) ([]Anime, Pagination, error)

	// FetchByID returns the full record for a single entry.
	// Returns ErrNotFound when the remote has no such entry.
	FetchByID(ctx context.Context, id int) (*Anime, error)

	// FetchByFilter returns one page of the top list filtered server-side
	// (airing, upcoming, bypopularity, favorite)
	FetchByFilter(ctx context.Context, filter string, page int) ([]Anime, Pagination, error)
}

// Server-side filters accepted by FetchByFilter
const (
	FilterAiring       = "airing"
	FilterUpcoming     = "upcoming"
	FilterByPopularity = "bypopularity"
	FilterFavorite     = "favorite"
)

// CatalogFilters lists the filters in display order.
var CatalogFilters = []string{FilterAiring, FilterUpcoming, FilterByPopularity, FilterFavorite}
