package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/mmcdole/anidex/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// storeModes runs a test against the bolt-backed and memory-only stores.
var storeModes = []struct {
	name       string
	persistent bool
}{
	{"bolt", true},
	{"memory", false},
}

func setupTestStore(t *testing.T, persistent bool) *CatalogStore {
	t.Helper()
	dir := ""
	if persistent {
		dir = t.TempDir()
	}
	s, err := NewCatalogStore(dir, "https://api.jikan.moe/v4", nil)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func createTestAnime(id int, title string, rank *int) domain.Anime {
	return domain.Anime{
		ID:            id,
		Title:         title,
		TitleAlt:      title + " (EN)",
		Synopsis:      "A test synopsis",
		Episodes:      domain.IntPtr(12),
		Score:         domain.FloatPtr(8.25),
		Rank:          rank,
		Status:        "Finished Airing",
		ImageURL:      "https://cdn.example/" + title + ".jpg",
		Genres:        []string{"Action", "Adventure"},
		Studios:       []string{"Toei Animation"},
		FetchedAt:     time.Now(),
		TitleJapanese: "テスト",
	}
}

func ids(items []domain.Anime) []int {
	out := make([]int, len(items))
	for i, a := range items {
		out[i] = a.ID
	}
	return out
}

func TestPutAndGetByID_RoundTrip(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			s := setupTestStore(t, mode.persistent)

			want := createTestAnime(21, "One Piece", domain.IntPtr(1))
			want.Year = domain.IntPtr(1999)
			require.NoError(t, s.Put(want))

			got, err := s.GetByID(21)
			require.NoError(t, err)
			require.NotNil(t, got)

			assert.WithinDuration(t, want.FetchedAt, got.FetchedAt, time.Millisecond)
			got.FetchedAt = want.FetchedAt
			assert.Equal(t, want, *got)
		})
	}
}

func TestGetByID_Missing(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			s := setupTestStore(t, mode.persistent)
			got, err := s.GetByID(404)
			require.NoError(t, err)
			assert.Nil(t, got)
		})
	}
}

func TestPut_OverwritesEveryField(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			s := setupTestStore(t, mode.persistent)

			require.NoError(t, s.Put(createTestAnime(1, "Old", domain.IntPtr(5))))

			replacement := domain.Anime{ID: 1, Title: "New", FetchedAt: time.Now()}
			require.NoError(t, s.Put(replacement))

			got, err := s.GetByID(1)
			require.NoError(t, err)
			require.NotNil(t, got)
			assert.Equal(t, "New", got.Title)
			assert.Empty(t, got.TitleAlt)
			assert.Nil(t, got.Rank)
			assert.Nil(t, got.Score)
			assert.Empty(t, got.Genres)

			n, err := s.Count()
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestGetAll_SortedByRankWithUnrankedLast(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			s := setupTestStore(t, mode.persistent)

			require.NoError(t, s.PutAll([]domain.Anime{
				createTestAnime(50, "Unranked B", nil),
				createTestAnime(10, "Third", domain.IntPtr(3)),
				createTestAnime(30, "First", domain.IntPtr(1)),
				createTestAnime(7, "Unranked A", nil),
				createTestAnime(20, "Second tie high id", domain.IntPtr(2)),
				createTestAnime(15, "Second tie low id", domain.IntPtr(2)),
			}))

			all, err := s.GetAll()
			require.NoError(t, err)
			assert.Equal(t, []int{30, 15, 20, 10, 7, 50}, ids(all))
		})
	}
}

func TestGetAll_Empty(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			s := setupTestStore(t, mode.persistent)
			all, err := s.GetAll()
			require.NoError(t, err)
			assert.Empty(t, all)
		})
	}
}

func TestReplaceAll_SwapsCollection(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			s := setupTestStore(t, mode.persistent)

			require.NoError(t, s.PutAll([]domain.Anime{
				createTestAnime(1, "A", domain.IntPtr(1)),
				createTestAnime(2, "B", domain.IntPtr(2)),
				createTestAnime(3, "C", domain.IntPtr(3)),
			}))
			require.NoError(t, s.ReplaceAll([]domain.Anime{
				createTestAnime(3, "C2", domain.IntPtr(1)),
				createTestAnime(4, "D", domain.IntPtr(2)),
			}))

			all, err := s.GetAll()
			require.NoError(t, err)
			assert.Equal(t, []int{3, 4}, ids(all))
			assert.Equal(t, "C2", all[0].Title)
		})
	}
}

func TestClearAndCount(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			s := setupTestStore(t, mode.persistent)

			require.NoError(t, s.PutAll([]domain.Anime{
				createTestAnime(1, "A", domain.IntPtr(1)),
				createTestAnime(2, "B", domain.IntPtr(2)),
			}))
			n, err := s.Count()
			require.NoError(t, err)
			assert.Equal(t, 2, n)

			require.NoError(t, s.Clear())
			n, err = s.Count()
			require.NoError(t, err)
			assert.Zero(t, n)

			// Store remains usable after clear
			require.NoError(t, s.Put(createTestAnime(3, "C", nil)))
			n, err = s.Count()
			require.NoError(t, err)
			assert.Equal(t, 1, n)
		})
	}
}

func TestSearch(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			s := setupTestStore(t, mode.persistent)

			naruto := createTestAnime(20, "Naruto", domain.IntPtr(2))
			naruto.TitleAlt = ""
			onePiece := createTestAnime(21, "One Piece", domain.IntPtr(5))
			onePiece.TitleAlt = ""
			alt := domain.Anime{ID: 5114, Title: "Hagane no Renkinjutsushi", TitleAlt: "Fullmetal Alchemist: Brotherhood", Rank: domain.IntPtr(1)}
			punch := domain.Anime{ID: 30276, Title: "One Punch Man", Rank: domain.IntPtr(3)}
			require.NoError(t, s.PutAll([]domain.Anime{naruto, onePiece, alt, punch}))

			got, err := s.Search("one")
			require.NoError(t, err)
			assert.Equal(t, []int{30276, 21}, ids(got))

			got, err = s.Search("ONE PIECE")
			require.NoError(t, err)
			assert.Equal(t, []int{21}, ids(got))

			got, err = s.Search("alchemist")
			require.NoError(t, err)
			assert.Equal(t, []int{5114}, ids(got))

			got, err = s.Search("bleach")
			require.NoError(t, err)
			assert.Empty(t, got)

			got, err = s.Search("   ")
			require.NoError(t, err)
			assert.Empty(t, got)
		})
	}
}

func TestReturnedValuesAreCopies(t *testing.T) {
	s := setupTestStore(t, false)
	require.NoError(t, s.Put(createTestAnime(1, "A", domain.IntPtr(1))))

	got, err := s.GetByID(1)
	require.NoError(t, err)
	got.Genres[0] = "Mutated"
	*got.Rank = 99

	again, err := s.GetByID(1)
	require.NoError(t, err)
	assert.Equal(t, "Action", again.Genres[0])
	assert.Equal(t, 1, *again.Rank)
}

func TestPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	s, err := NewCatalogStore(dir, "https://api.jikan.moe/v4", nil)
	require.NoError(t, err)
	require.NoError(t, s.Put(createTestAnime(1, "A", domain.IntPtr(1))))
	require.NoError(t, s.Close())

	s, err = NewCatalogStore(dir, "https://api.jikan.moe/v4/", nil)
	require.NoError(t, err)
	defer s.Close()

	n, err := s.Count()
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	// A different API gets its own cache
	other, err := NewCatalogStore(dir, "https://mirror.example/v4", nil)
	require.NoError(t, err)
	defer other.Close()
	n, err = other.Count()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestWatchAll_ReemitsOnWrite(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			s := setupTestStore(t, mode.persistent)
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			ch := s.WatchAll(ctx)
			assert.Empty(t, receive(t, ch))

			require.NoError(t, s.Put(createTestAnime(1, "A", domain.IntPtr(2))))
			assert.Equal(t, []int{1}, ids(receive(t, ch)))

			require.NoError(t, s.Put(createTestAnime(2, "B", domain.IntPtr(1))))
			assert.Equal(t, []int{2, 1}, ids(receive(t, ch)))

			require.NoError(t, s.Clear())
			assert.Empty(t, receive(t, ch))

			cancel()
			for range ch {
			}
		})
	}
}

func TestWatchByID(t *testing.T) {
	s := setupTestStore(t, true)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.WatchByID(ctx, 7)
	assert.Nil(t, receive(t, ch))

	require.NoError(t, s.Put(createTestAnime(7, "Seven", nil)))
	got := receive(t, ch)
	require.NotNil(t, got)
	assert.Equal(t, "Seven", got.Title)
}

func TestWatch_SlowWatcherSeesLatest(t *testing.T) {
	s := setupTestStore(t, false)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := s.WatchAll(ctx)
	receive(t, ch) // initial snapshot

	for i := 1; i <= 20; i++ {
		require.NoError(t, s.Put(createTestAnime(i, "x", domain.IntPtr(i))))
	}

	assert.Eventually(t, func() bool {
		select {
		case snap := <-ch:
			return len(snap) == 20
		default:
			return false
		}
	}, 2*time.Second, 5*time.Millisecond)
}

func TestWatch_ClosedOnStoreClose(t *testing.T) {
	s, err := NewCatalogStore("", "", nil)
	require.NoError(t, err)

	ch := s.WatchAll(context.Background())
	receive(t, ch)
	require.NoError(t, s.Close())

	select {
	case _, ok := <-ch:
		if ok {
			_, ok = <-ch
		}
		assert.False(t, ok)
	case <-time.After(2 * time.Second):
		t.Fatal("watch channel not closed")
	}
}

func TestConcurrentUpserts(t *testing.T) {
	for _, mode := range storeModes {
		t.Run(mode.name, func(t *testing.T) {
			s := setupTestStore(t, mode.persistent)

			var wg sync.WaitGroup
			for w := 0; w < 4; w++ {
				wg.Add(1)
				go func(w int) {
					defer wg.Done()
					for i := 0; i < 25; i++ {
						a := createTestAnime(i, "writer", domain.IntPtr(i+1))
						a.Synopsis = string(rune('a' + w))
						assert.NoError(t, s.Put(a))
						_, err := s.GetAll()
						assert.NoError(t, err)
					}
				}(w)
			}
			wg.Wait()

			n, err := s.Count()
			require.NoError(t, err)
			assert.Equal(t, 25, n)
		})
	}
}

func receive[T any](t *testing.T, ch <-chan T) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		require.True(t, ok, "channel closed")
		return v
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for snapshot")
	}
	var zero T
	return zero
}
