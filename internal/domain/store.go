package domain

import "context"

// CatalogStore handles the local anime cache (BoltDB or memory).
// Every write is a full-record upsert keyed by ID; reads return copies.
type CatalogStore interface {
	// === Reads ===
	GetAll() ([]Anime, error)             // Sorted by rank ascending, unranked last
	GetByID(id int) (*Anime, error)       // nil when absent
	Search(query string) ([]Anime, error) // Case-insensitive substring on Title/TitleAlt
	Count() (int, error)

	// === Writes ===
	Put(a Anime) error
	PutAll(items []Anime) error
	ReplaceAll(items []Anime) error // Clear + PutAll in one transaction
	Clear() error

	// === Observation ===
	// Watchers get the current snapshot first, then one per committed write.
	WatchAll(ctx context.Context) <-chan []Anime
	WatchByID(ctx context.Context, id int) <-chan *Anime

	// === Lifecycle ===
	Close() error
}
