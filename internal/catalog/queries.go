package catalog

import (
	"cmp"
	"context"
	"slices"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
	"github.com/mmcdole/anidex/internal/domain"
)

// Cache-only reads. None of these touch the network.

// ObserveList streams the cached list, re-emitting after every write.
func (s *Service) ObserveList(ctx context.Context) <-chan []domain.Anime {
	return s.store.WatchAll(ctx)
}

// ObserveAnime streams a single cached entry (nil while absent).
func (s *Service) ObserveAnime(ctx context.Context, id int) <-chan *domain.Anime {
	return s.store.WatchByID(ctx, id)
}

// Search returns cached entries whose title or English title contains query.
func (s *Service) Search(query string) ([]domain.Anime, error) {
	items, err := s.store.Search(query)
	if err != nil {
		s.logger.Error("failed to search cache", "query", query, "error", err)
		return nil, err
	}
	return items, nil
}

// Suggest returns up to limit cached titles that fuzzily match query, best
// match first. Used when a substring search comes back empty.
func (s *Service) Suggest(query string, limit int) []string {
	query = strings.TrimSpace(query)
	if query == "" || limit <= 0 {
		return nil
	}

	items, err := s.store.GetAll()
	if err != nil {
		s.logger.Error("failed to read cache for suggestions", "error", err)
		return nil
	}

	titles := make([]string, 0, len(items)*2)
	seen := make(map[string]bool, len(items)*2)
	for _, a := range items {
		for _, t := range []string{a.Title, a.TitleAlt} {
			if t != "" && !seen[t] {
				seen[t] = true
				titles = append(titles, t)
			}
		}
	}

	matches := fuzzy.RankFindFold(query, titles)
	slices.SortStableFunc(matches, func(a, b fuzzy.Rank) int {
		if c := cmp.Compare(a.Distance, b.Distance); c != 0 {
			return c
		}
		return cmp.Compare(a.OriginalIndex, b.OriginalIndex)
	})

	out := make([]string, 0, min(limit, len(matches)))
	for _, m := range matches {
		if len(out) == limit {
			break
		}
		out = append(out, m.Target)
	}
	return out
}

// HasCachedData reports whether the cache holds any entries.
func (s *Service) HasCachedData() bool {
	n, err := s.store.Count()
	if err != nil {
		s.logger.Error("failed to count cache", "error", err)
		return false
	}
	return n > 0
}

// ClearCache removes every cached entry.
func (s *Service) ClearCache() error {
	if err := s.store.Clear(); err != nil {
		s.logger.Error("failed to clear cache", "error", err)
		return err
	}
	s.logger.Info("cleared cache")
	return nil
}
