package browse

import (
	"context"
	"log/slog"

	"github.com/mmcdole/anidex/internal/domain"
)

// MsgUnknownError is shown when a failure carries no message.
const MsgUnknownError = "Unknown error occurred"

// ListSource produces list sync streams; catalog.Service satisfies it.
type ListSource interface {
	SyncTopList(ctx context.Context, force bool) <-chan domain.Result[[]domain.Anime]
}

// ListState is the presentation state of the list.
// Variants: ListLoading, ListReady, ListError.
type ListState interface {
	isListState()
}

// ListLoading means nothing is available to show yet.
type ListLoading struct{}

// ListReady carries entries to show. Notice is set when the entries are
// cached data kept after a failed refresh.
type ListReady struct {
	Items  []domain.Anime
	Notice string
}

// ListError means there is nothing to show; the user should retry.
type ListError struct {
	Message string
}

func (ListLoading) isListState() {}
func (ListReady) isListState()   {}
func (ListError) isListState()   {}

// ReduceList maps one list result to the state it produces.
func ReduceList(r domain.Result[[]domain.Anime]) ListState {
	switch r := r.(type) {
	case domain.Loading[[]domain.Anime]:
		if r.Data == nil {
			return ListLoading{}
		}
		return ListReady{Items: *r.Data}
	case domain.Success[[]domain.Anime]:
		return ListReady{Items: r.Data}
	case domain.Failure[[]domain.Anime]:
		if r.Data != nil && len(*r.Data) > 0 {
			return ListReady{Items: *r.Data, Notice: r.Message}
		}
		if r.Message == "" {
			return ListError{Message: MsgUnknownError}
		}
		return ListError{Message: r.Message}
	default:
		return ListLoading{}
	}
}

// ListModel holds the state of the top list.
type ListModel struct {
	src ListSource
	m   *model[[]domain.Anime, ListState]
}

// NewListModel creates a list model in the loading state. Call Load to start.
func NewListModel(src ListSource, logger *slog.Logger) *ListModel {
	return &ListModel{
		src: src,
		m:   newModel[[]domain.Anime, ListState](ListLoading{}, ReduceList, logger),
	}
}

// Load syncs the list. The returned channel closes when this load is over.
func (l *ListModel) Load(force bool) <-chan struct{} {
	return l.load(force, false)
}

// Refresh forces a remote fetch and marks the model refreshing until the
// stream ends.
func (l *ListModel) Refresh() <-chan struct{} {
	return l.load(true, true)
}

// Retry forces a remote fetch after an error.
func (l *ListModel) Retry() <-chan struct{} {
	return l.load(true, false)
}

func (l *ListModel) load(force, refreshing bool) <-chan struct{} {
	return l.m.start(func(ctx context.Context) <-chan domain.Result[[]domain.Anime] {
		return l.src.SyncTopList(ctx, force)
	}, refreshing)
}

// State returns the current state.
func (l *ListModel) State() ListState { return l.m.current() }

// Refreshing reports whether a user-initiated refresh is in flight.
func (l *ListModel) Refreshing() bool { return l.m.isRefreshing() }

// Subscribe streams state changes, starting with the current state.
func (l *ListModel) Subscribe(ctx context.Context) <-chan ListState { return l.m.subscribe(ctx) }

// Close stops collection and ends every subscription.
func (l *ListModel) Close() { l.m.close() }
