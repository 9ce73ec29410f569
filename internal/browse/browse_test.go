package browse

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/anidex/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedList hands out one pre-filled stream per call
type scriptedList struct {
	mu      sync.Mutex
	streams []chan domain.Result[[]domain.Anime]
	forces  []bool
}

func (s *scriptedList) SyncTopList(ctx context.Context, force bool) <-chan domain.Result[[]domain.Anime] {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.forces = append(s.forces, force)
	ch := s.streams[0]
	s.streams = s.streams[1:]
	return ch
}

func listStream(results ...domain.Result[[]domain.Anime]) chan domain.Result[[]domain.Anime] {
	ch := make(chan domain.Result[[]domain.Anime], len(results))
	for _, r := range results {
		ch <- r
	}
	close(ch)
	return ch
}

type scriptedDetail struct {
	calls   int
	results []domain.Result[domain.Anime]
}

func (s *scriptedDetail) SyncAnime(ctx context.Context, id int) <-chan domain.Result[domain.Anime] {
	s.calls++
	ch := make(chan domain.Result[domain.Anime], len(s.results))
	for _, r := range s.results {
		ch <- r
	}
	close(ch)
	return ch
}

func waitDone(t *testing.T, done <-chan struct{}) {
	t.Helper()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("load did not finish")
	}
}

var (
	cachedList = []domain.Anime{{ID: 1, Title: "Cached"}}
	freshList  = []domain.Anime{{ID: 1, Title: "Fresh"}, {ID: 2, Title: "Fresh 2"}}
)

func TestReduceList(t *testing.T) {
	empty := []domain.Anime{}

	tests := []struct {
		name string
		in   domain.Result[[]domain.Anime]
		want ListState
	}{
		{"loading without data", domain.Loading[[]domain.Anime]{}, ListLoading{}},
		{"loading with cache", domain.Loading[[]domain.Anime]{Data: &cachedList}, ListReady{Items: cachedList}},
		{"success", domain.Success[[]domain.Anime]{Data: freshList}, ListReady{Items: freshList}},
		{"failure with cache", domain.Failure[[]domain.Anime]{Message: "timeout", Data: &cachedList}, ListReady{Items: cachedList, Notice: "timeout"}},
		{"failure with empty cache", domain.Failure[[]domain.Anime]{Message: "timeout", Data: &empty}, ListError{Message: "timeout"}},
		{"failure without data", domain.Failure[[]domain.Anime]{Message: domain.MsgOfflineNoCache}, ListError{Message: domain.MsgOfflineNoCache}},
		{"failure without message", domain.Failure[[]domain.Anime]{}, ListError{Message: MsgUnknownError}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ReduceList(tt.in))
		})
	}
}

func TestListModel_LoadFoldsStream(t *testing.T) {
	src := &scriptedList{streams: []chan domain.Result[[]domain.Anime]{
		listStream(
			domain.Loading[[]domain.Anime]{},
			domain.Loading[[]domain.Anime]{Data: &cachedList},
			domain.Failure[[]domain.Anime]{Message: "timeout", Data: &cachedList},
		),
	}}
	lm := NewListModel(src, nil)
	defer lm.Close()

	assert.Equal(t, ListLoading{}, lm.State())
	waitDone(t, lm.Load(false))

	assert.Equal(t, ListReady{Items: cachedList, Notice: "timeout"}, lm.State())
	assert.Equal(t, []bool{false}, src.forces)
}

func TestListModel_RefreshAndRetryForce(t *testing.T) {
	src := &scriptedList{streams: []chan domain.Result[[]domain.Anime]{
		listStream(domain.Failure[[]domain.Anime]{Message: domain.MsgOfflineNoCache}),
		listStream(domain.Success[[]domain.Anime]{Data: freshList}),
	}}
	lm := NewListModel(src, nil)
	defer lm.Close()

	waitDone(t, lm.Retry())
	assert.Equal(t, ListError{Message: domain.MsgOfflineNoCache}, lm.State())

	waitDone(t, lm.Refresh())
	assert.Equal(t, ListReady{Items: freshList}, lm.State())
	assert.False(t, lm.Refreshing(), "terminal emission clears refreshing")
	assert.Equal(t, []bool{true, true}, src.forces)
}

func TestListModel_RefreshingUntilTerminal(t *testing.T) {
	stream := make(chan domain.Result[[]domain.Anime], 3)
	src := &scriptedList{streams: []chan domain.Result[[]domain.Anime]{stream}}
	lm := NewListModel(src, nil)
	defer lm.Close()

	done := lm.Refresh()
	assert.True(t, lm.Refreshing())

	stream <- domain.Loading[[]domain.Anime]{Data: &cachedList}
	assert.Eventually(t, func() bool { return isReady(lm.State()) }, time.Second, 5*time.Millisecond)
	assert.True(t, lm.Refreshing())

	stream <- domain.Success[[]domain.Anime]{Data: freshList}
	close(stream)
	waitDone(t, done)
	assert.False(t, lm.Refreshing())
}

func isReady(s ListState) bool {
	_, ok := s.(ListReady)
	return ok
}

func TestListModel_NewLoadSupersedesPrevious(t *testing.T) {
	slow := make(chan domain.Result[[]domain.Anime], 3)
	src := &scriptedList{streams: []chan domain.Result[[]domain.Anime]{
		slow,
		listStream(domain.Success[[]domain.Anime]{Data: freshList}),
	}}
	lm := NewListModel(src, nil)
	defer lm.Close()

	first := lm.Load(false)
	second := lm.Load(true)
	waitDone(t, first)
	waitDone(t, second)

	// The superseded stream finishing late must not overwrite newer state
	slow <- domain.Failure[[]domain.Anime]{Message: "late"}
	close(slow)
	time.Sleep(20 * time.Millisecond)

	assert.Equal(t, ListReady{Items: freshList}, lm.State())
}

func TestListModel_Subscribe(t *testing.T) {
	stream := make(chan domain.Result[[]domain.Anime], 3)
	src := &scriptedList{streams: []chan domain.Result[[]domain.Anime]{stream}}
	lm := NewListModel(src, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	states := lm.Subscribe(ctx)
	assert.Equal(t, ListLoading{}, <-states)

	done := lm.Load(false)
	stream <- domain.Success[[]domain.Anime]{Data: freshList}
	close(stream)
	waitDone(t, done)

	select {
	case s := <-states:
		assert.Equal(t, ListReady{Items: freshList}, s)
	case <-time.After(2 * time.Second):
		t.Fatal("no state emitted")
	}

	lm.Close()
	_, ok := <-states
	assert.False(t, ok, "close ends subscriptions")
}

func TestReduceDetail(t *testing.T) {
	cached := domain.Anime{ID: 7, Title: "Cached"}

	assert.Equal(t, DetailLoading{}, ReduceDetail(domain.Loading[domain.Anime]{}))
	assert.Equal(t, DetailReady{Anime: cached}, ReduceDetail(domain.Loading[domain.Anime]{Data: &cached}))
	assert.Equal(t, DetailReady{Anime: cached, Notice: "request failed: HTTP 500"},
		ReduceDetail(domain.Failure[domain.Anime]{Message: "request failed: HTTP 500", Data: &cached}))
	assert.Equal(t, DetailError{Message: domain.MsgAnimeNotFound},
		ReduceDetail(domain.Failure[domain.Anime]{Message: domain.MsgAnimeNotFound}))
}

func TestDetailModel(t *testing.T) {
	fresh := domain.Anime{ID: 7, Title: "Fresh"}
	src := &scriptedDetail{results: []domain.Result[domain.Anime]{
		domain.Loading[domain.Anime]{},
		domain.Success[domain.Anime]{Data: fresh},
	}}

	dm := NewDetailModel(src, 7, nil)
	defer dm.Close()
	assert.Equal(t, 7, dm.ID())

	waitDone(t, dm.Load())
	assert.Equal(t, DetailReady{Anime: fresh}, dm.State())

	waitDone(t, dm.Retry())
	assert.Equal(t, 2, src.calls)
}

func TestDetailModel_InvalidID(t *testing.T) {
	src := &scriptedDetail{}
	dm := NewDetailModel(src, 0, nil)
	defer dm.Close()

	waitDone(t, dm.Load())
	assert.Equal(t, DetailError{Message: MsgInvalidID}, dm.State())
	assert.Zero(t, src.calls)

	require.NotNil(t, dm.Subscribe(context.Background()))
}
