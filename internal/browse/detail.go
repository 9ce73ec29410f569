package browse

import (
	"context"
	"log/slog"

	"github.com/mmcdole/anidex/internal/domain"
)

// MsgInvalidID is shown for ids that can never exist remotely.
const MsgInvalidID = "Invalid anime ID"

// DetailSource produces single-entry sync streams; catalog.Service satisfies it.
type DetailSource interface {
	SyncAnime(ctx context.Context, id int) <-chan domain.Result[domain.Anime]
}

// DetailState is the presentation state of one entry.
// Variants: DetailLoading, DetailReady, DetailError.
type DetailState interface {
	isDetailState()
}

type DetailLoading struct{}

// DetailReady carries the entry. Notice is set when it is cached data kept
// after a failed refresh.
type DetailReady struct {
	Anime  domain.Anime
	Notice string
}

type DetailError struct {
	Message string
}

func (DetailLoading) isDetailState() {}
func (DetailReady) isDetailState()   {}
func (DetailError) isDetailState()   {}

// ReduceDetail maps one single-entry result to the state it produces.
func ReduceDetail(r domain.Result[domain.Anime]) DetailState {
	switch r := r.(type) {
	case domain.Loading[domain.Anime]:
		if r.Data == nil {
			return DetailLoading{}
		}
		return DetailReady{Anime: *r.Data}
	case domain.Success[domain.Anime]:
		return DetailReady{Anime: r.Data}
	case domain.Failure[domain.Anime]:
		if r.Data != nil {
			return DetailReady{Anime: *r.Data, Notice: r.Message}
		}
		if r.Message == "" {
			return DetailError{Message: "Failed to load anime details"}
		}
		return DetailError{Message: r.Message}
	default:
		return DetailLoading{}
	}
}

// DetailModel holds the state of a single entry.
type DetailModel struct {
	src DetailSource
	id  int
	m   *model[domain.Anime, DetailState]
}

// NewDetailModel creates a detail model for id. Call Load to start.
func NewDetailModel(src DetailSource, id int, logger *slog.Logger) *DetailModel {
	var initial DetailState = DetailLoading{}
	if id <= 0 {
		initial = DetailError{Message: MsgInvalidID}
	}
	return &DetailModel{
		src: src,
		id:  id,
		m:   newModel[domain.Anime, DetailState](initial, ReduceDetail, logger),
	}
}

// Load syncs the entry. The returned channel closes when this load is over.
func (d *DetailModel) Load() <-chan struct{} {
	if d.id <= 0 {
		done := make(chan struct{})
		close(done)
		return done
	}
	return d.m.start(func(ctx context.Context) <-chan domain.Result[domain.Anime] {
		return d.src.SyncAnime(ctx, d.id)
	}, false)
}

// Retry reloads the entry.
func (d *DetailModel) Retry() <-chan struct{} { return d.Load() }

// ID returns the entry id this model tracks.
func (d *DetailModel) ID() int { return d.id }

// State returns the current state.
func (d *DetailModel) State() DetailState { return d.m.current() }

// Subscribe streams state changes, starting with the current state.
func (d *DetailModel) Subscribe(ctx context.Context) <-chan DetailState { return d.m.subscribe(ctx) }

// Close stops collection and ends every subscription.
func (d *DetailModel) Close() { d.m.close() }
