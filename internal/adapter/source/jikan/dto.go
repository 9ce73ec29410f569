package jikan

// TopResponse is the envelope returned by /top/{resource}
type TopResponse struct {
	Pagination *PaginationDTO `json:"pagination"`
	Data       []AnimeDTO     `json:"data"`
}

// DetailResponse is the envelope returned by /{resource}/{id}/full
type DetailResponse struct {
	Data *AnimeDTO `json:"data"`
}

// PaginationDTO describes the page a list response belongs to
type PaginationDTO struct {
	LastVisiblePage int  `json:"last_visible_page"`
	HasNextPage     bool `json:"has_next_page"`
	CurrentPage     int  `json:"current_page"`
}

// AnimeDTO is a single entry as the API reports it. Every field except
// mal_id may be null.
type AnimeDTO struct {
	MalID         int      `json:"mal_id"`
	Title         *string  `json:"title"`
	TitleEnglish  string   `json:"title_english"`
	TitleJapanese string   `json:"title_japanese"`
	Synopsis      string   `json:"synopsis"`
	Episodes      *int     `json:"episodes"`
	Score         *float64 `json:"score"`
	ScoredBy      *int     `json:"scored_by"`
	Rank          *int     `json:"rank"`
	Popularity    *int     `json:"popularity"`
	Status        string   `json:"status"`
	Rating        string   `json:"rating"`
	Duration      string   `json:"duration"`
	Season        string   `json:"season"`
	Year          *int     `json:"year"`
	Images        *Images  `json:"images"`
	Trailer       *Trailer `json:"trailer"`
	Genres        []Named  `json:"genres"`
	Studios       []Named  `json:"studios"`
	Source        string   `json:"source"`
	Type          string   `json:"type"`
}

// Images holds the per-format cover URLs
type Images struct {
	JPG  *ImageURLs `json:"jpg"`
	WebP *ImageURLs `json:"webp"`
}

// ImageURLs is one format's set of cover sizes
type ImageURLs struct {
	ImageURL      string `json:"image_url"`
	SmallImageURL string `json:"small_image_url"`
	LargeImageURL string `json:"large_image_url"`
}

// Trailer references a YouTube trailer
type Trailer struct {
	YoutubeID string         `json:"youtube_id"`
	URL       string         `json:"url"`
	EmbedURL  string         `json:"embed_url"`
	Images    *TrailerImages `json:"images"`
}

// TrailerImages are YouTube thumbnails for the trailer
type TrailerImages struct {
	ImageURL        string `json:"image_url"`
	SmallImageURL   string `json:"small_image_url"`
	MediumImageURL  string `json:"medium_image_url"`
	LargeImageURL   string `json:"large_image_url"`
	MaximumImageURL string `json:"maximum_image_url"`
}

// Named is a genre or studio reference
type Named struct {
	MalID *int    `json:"mal_id"`
	Name  *string `json:"name"`
}
