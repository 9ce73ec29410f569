// Package catalog implements the offline-first synchronization strategy:
// when to trust the cache, when to refetch, and how fetch failures are
// reconciled against cached data. Every sync operation returns a stream of
// domain.Result values that ends with exactly one Success or Failure.
package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/mmcdole/anidex/internal/domain"
)

// maxEmissions is the longest stream an operation produces:
// Loading(nil), Loading(cached), terminal.
const maxEmissions = 3

// Options tunes a Service. Zero values select the defaults.
type Options struct {
	StaleAfter time.Duration
	Clock      domain.Clock
}

// Service orchestrates remote source + cache store operations.
type Service struct {
	store      domain.CatalogStore
	source     domain.CatalogSource
	conn       domain.Connectivity
	staleAfter time.Duration
	now        domain.Clock
	logger     *slog.Logger
}

// NewService creates a new catalog service.
func NewService(
	store domain.CatalogStore,
	source domain.CatalogSource,
	conn domain.Connectivity,
	opts Options,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	if opts.StaleAfter <= 0 {
		opts.StaleAfter = domain.DefaultStaleAfter
	}
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	return &Service{
		store:      store,
		source:     source,
		conn:       conn,
		staleAfter: opts.StaleAfter,
		now:        opts.Clock,
		logger:     logger,
	}
}

// SyncTopList emits the cached top list, refreshing it from the remote when
// forced, empty or stale. A successful refresh replaces the whole cache.
//
// Staleness is judged on the first cached entry in rank order; every row of
// a list refresh shares one timestamp so that entry stands for the batch.
func (s *Service) SyncTopList(ctx context.Context, force bool) <-chan domain.Result[[]domain.Anime] {
	out := make(chan domain.Result[[]domain.Anime], maxEmissions)
	logger := s.invocationLogger("sync_top_list")

	go func() {
		defer close(out)
		ctx := context.WithoutCancel(ctx)

		out <- domain.Loading[[]domain.Anime]{}

		cached, err := s.store.GetAll()
		if err != nil {
			logger.Error("failed to read cache", "error", err)
			out <- domain.Failure[[]domain.Anime]{Message: cacheReadMessage(err)}
			return
		}

		hasCache := len(cached) > 0
		var cachedData *[]domain.Anime
		if hasCache {
			cachedData = &cached
			out <- domain.Loading[[]domain.Anime]{Data: cachedData}
		}

		shouldFetch := force || !hasCache || domain.IsStale(cached[0].FetchedAt, s.now(), s.staleAfter)
		connected := s.conn.Connected()
		logger.Debug("list sync decision",
			"cached", len(cached),
			"force", force,
			"should_fetch", shouldFetch,
			"connected", connected,
		)

		switch {
		case shouldFetch && connected:
			items, _, err := s.source.FetchTopList(ctx, 1)
			switch {
			case err != nil:
				logger.Error("failed to fetch top list", "error", err)
				out <- domain.Failure[[]domain.Anime]{Message: err.Error(), Data: cachedData}

			case len(items) == 0 && hasCache:
				logger.Warn("remote returned empty list, keeping cache", "cached", len(cached))
				out <- domain.Success[[]domain.Anime]{Data: cached}

			case len(items) == 0:
				logger.Warn("remote returned empty list")
				out <- domain.Failure[[]domain.Anime]{Message: domain.MsgNoAnimeFound}

			default:
				s.stamp(items)
				if err := s.store.ReplaceAll(items); err != nil {
					logger.Error("failed to save top list", "error", err)
				}
				logger.Info("fetched top list", "count", len(items))
				out <- domain.Success[[]domain.Anime]{Data: items}
			}

		case !connected && !hasCache:
			out <- domain.Failure[[]domain.Anime]{Message: domain.MsgOfflineNoCache}

		default:
			logger.Debug("serving cached list", "count", len(cached))
			out <- domain.Success[[]domain.Anime]{Data: cached}
		}
	}()

	return out
}

// SyncAnime emits the cached entry for id and, whenever online, refetches
// its full record. A remote "not found" keeps the cached entry.
func (s *Service) SyncAnime(ctx context.Context, id int) <-chan domain.Result[domain.Anime] {
	out := make(chan domain.Result[domain.Anime], maxEmissions)
	logger := s.invocationLogger("sync_anime").With("id", id)

	go func() {
		defer close(out)
		ctx := context.WithoutCancel(ctx)

		out <- domain.Loading[domain.Anime]{}

		cached, err := s.store.GetByID(id)
		if err != nil {
			logger.Error("failed to read cache", "error", err)
			out <- domain.Failure[domain.Anime]{Message: cacheReadMessage(err)}
			return
		}
		if cached != nil {
			out <- domain.Loading[domain.Anime]{Data: cached}
		}

		if !s.conn.Connected() {
			if cached != nil {
				out <- domain.Success[domain.Anime]{Data: *cached}
				return
			}
			out <- domain.Failure[domain.Anime]{Message: domain.MsgOffline}
			return
		}

		fresh, err := s.source.FetchByID(ctx, id)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			logger.Warn("remote has no such anime", "cached", cached != nil)
			if cached != nil {
				out <- domain.Success[domain.Anime]{Data: *cached}
				return
			}
			out <- domain.Failure[domain.Anime]{Message: domain.MsgAnimeNotFound}

		case err != nil:
			logger.Error("failed to fetch anime", "error", err)
			out <- domain.Failure[domain.Anime]{Message: err.Error(), Data: cached}

		default:
			fresh.FetchedAt = s.now()
			if err := s.store.Put(*fresh); err != nil {
				logger.Error("failed to save anime", "error", err)
			}
			logger.Debug("fetched anime")
			out <- domain.Success[domain.Anime]{Data: *fresh}
		}
	}()

	return out
}

// LoadPage fetches one page of the top list and upserts it into the cache.
// Paging is online-only.
func (s *Service) LoadPage(ctx context.Context, page int) <-chan domain.Result[[]domain.Anime] {
	logger := s.invocationLogger("load_page").With("page", page)
	return s.loadRemotePage(ctx, logger, func(ctx context.Context) ([]domain.Anime, domain.Pagination, error) {
		return s.source.FetchTopList(ctx, page)
	})
}

// LoadFilter fetches one page of a server-side filtered list and upserts it
// into the cache.
func (s *Service) LoadFilter(ctx context.Context, filter string, page int) <-chan domain.Result[[]domain.Anime] {
	logger := s.invocationLogger("load_filter").With("filter", filter, "page", page)
	return s.loadRemotePage(ctx, logger, func(ctx context.Context) ([]domain.Anime, domain.Pagination, error) {
		return s.source.FetchByFilter(ctx, filter, page)
	})
}

type pageFetcher func(ctx context.Context) ([]domain.Anime, domain.Pagination, error)

func (s *Service) loadRemotePage(ctx context.Context, logger *slog.Logger, fetch pageFetcher) <-chan domain.Result[[]domain.Anime] {
	out := make(chan domain.Result[[]domain.Anime], maxEmissions)

	go func() {
		defer close(out)
		ctx := context.WithoutCancel(ctx)

		out <- domain.Loading[[]domain.Anime]{}

		if !s.conn.Connected() {
			out <- domain.Failure[[]domain.Anime]{Message: domain.MsgOffline}
			return
		}

		items, pagination, err := fetch(ctx)
		if err != nil {
			logger.Error("failed to fetch page", "error", err)
			out <- domain.Failure[[]domain.Anime]{Message: err.Error()}
			return
		}

		if len(items) > 0 {
			s.stamp(items)
			if err := s.store.PutAll(items); err != nil {
				logger.Error("failed to save page", "error", err)
			}
		}
		logger.Debug("fetched page",
			"count", len(items),
			"has_next", pagination.HasNextPage,
			"last_page", pagination.LastVisiblePage,
		)
		out <- domain.Success[[]domain.Anime]{Data: items}
	}()

	return out
}

// --- Private helpers ---

// stamp marks a batch with a single write timestamp
func (s *Service) stamp(items []domain.Anime) {
	now := s.now()
	for i := range items {
		items[i].FetchedAt = now
	}
}

func (s *Service) invocationLogger(op string) *slog.Logger {
	return s.logger.With("op", op, "sync_id", uuid.NewString())
}

func cacheReadMessage(err error) string {
	return fmt.Sprintf("Failed to read cache: %v", err)
}
