package store

import (
	"cmp"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/mmcdole/anidex/internal/domain"
	bolt "go.etcd.io/bbolt"
)

// Bucket names
var bucketAnime = []byte("anime")

// CatalogStore implements domain.CatalogStore using BoltDB.
type CatalogStore struct {
	db *bolt.DB

	// Used instead of db when running without persistence
	mu  sync.RWMutex
	mem map[int]domain.Anime

	watchers *registry
	logger   *slog.Logger
}

// NewCatalogStore opens the cache under baseCacheDir. Each API base URL gets its
// own subdirectory so mirrors never share rows. An empty baseCacheDir selects
// memory-only mode.
func NewCatalogStore(baseCacheDir, apiURL string, logger *slog.Logger) (*CatalogStore, error) {
	if logger == nil {
		logger = slog.Default()
	}
	s := &CatalogStore{
		mem:      make(map[int]domain.Anime),
		watchers: newRegistry(),
		logger:   logger,
	}
	if baseCacheDir == "" {
		// Memory-only mode (no persistence)
		return s, nil
	}

	dir := baseCacheDir
	if apiURL != "" {
		dir = filepath.Join(baseCacheDir, hashAPIURL(apiURL))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, err
	}

	dbPath := filepath.Join(dir, "anidex.db")
	db, err := bolt.Open(dbPath, 0600, &bolt.Options{Timeout: 1 * time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucketAnime)
		return err
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	s.db = db
	return s, nil
}

func hashAPIURL(apiURL string) string {
	normalized := strings.TrimRight(strings.ToLower(apiURL), "/")
	hash := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(hash[:6])
}

func (s *CatalogStore) Close() error {
	s.watchers.closeAll()
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// === Reads ===

func (s *CatalogStore) GetAll() ([]domain.Anime, error) {
	items, err := s.scan(nil)
	if err != nil {
		return nil, err
	}
	sortByRank(items)
	return items, nil
}

func (s *CatalogStore) GetByID(id int) (*domain.Anime, error) {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		a, ok := s.mem[id]
		if !ok {
			return nil, nil
		}
		c := a.Clone()
		return &c, nil
	}

	var data []byte
	err := s.db.View(func(tx *bolt.Tx) error {
		if v := tx.Bucket(bucketAnime).Get(itob(id)); v != nil {
			data = make([]byte, len(v))
			copy(data, v)
		}
		return nil
	})
	if err != nil || data == nil {
		return nil, err
	}

	var a domain.Anime
	if err := json.Unmarshal(data, &a); err != nil {
		return nil, fmt.Errorf("decode anime %d: %w", id, err)
	}
	return &a, nil
}

// Search matches query case-insensitively against Title and TitleAlt.
func (s *CatalogStore) Search(query string) ([]domain.Anime, error) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil, nil
	}
	items, err := s.scan(func(a *domain.Anime) bool {
		return strings.Contains(strings.ToLower(a.Title), q) ||
			strings.Contains(strings.ToLower(a.TitleAlt), q)
	})
	if err != nil {
		return nil, err
	}
	sortByRank(items)
	return items, nil
}

func (s *CatalogStore) Count() (int, error) {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return len(s.mem), nil
	}
	var n int
	err := s.db.View(func(tx *bolt.Tx) error {
		n = tx.Bucket(bucketAnime).Stats().KeyN
		return nil
	})
	return n, err
}

// === Writes ===

func (s *CatalogStore) Put(a domain.Anime) error {
	return s.PutAll([]domain.Anime{a})
}

func (s *CatalogStore) PutAll(items []domain.Anime) error {
	return s.write(false, items)
}

// ReplaceAll swaps the whole collection in one transaction. A crash leaves
// either the previous rows or the new ones, never an empty bucket.
func (s *CatalogStore) ReplaceAll(items []domain.Anime) error {
	return s.write(true, items)
}

func (s *CatalogStore) Clear() error {
	return s.write(true, nil)
}

func (s *CatalogStore) write(clear bool, items []domain.Anime) error {
	if s.db == nil {
		s.mu.Lock()
		if clear {
			s.mem = make(map[int]domain.Anime, len(items))
		}
		for _, a := range items {
			s.mem[a.ID] = a.Clone()
		}
		s.mu.Unlock()
		s.watchers.broadcast()
		return nil
	}

	encoded := make([][]byte, len(items))
	for i, a := range items {
		data, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode anime %d: %w", a.ID, err)
		}
		encoded[i] = data
	}

	err := s.db.Update(func(tx *bolt.Tx) error {
		if clear {
			if tx.Bucket(bucketAnime) != nil {
				if err := tx.DeleteBucket(bucketAnime); err != nil {
					return err
				}
			}
			if _, err := tx.CreateBucket(bucketAnime); err != nil {
				return err
			}
		}
		b := tx.Bucket(bucketAnime)
		for i, a := range items {
			if err := b.Put(itob(a.ID), encoded[i]); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.watchers.broadcast()
	return nil
}

// === Observation ===

// WatchAll emits the full sorted list now and after every committed write.
func (s *CatalogStore) WatchAll(ctx context.Context) <-chan []domain.Anime {
	return watch(ctx, s, s.GetAll)
}

// WatchByID emits the entry (nil when absent) now and after every committed write.
func (s *CatalogStore) WatchByID(ctx context.Context, id int) <-chan *domain.Anime {
	return watch(ctx, s, func() (*domain.Anime, error) { return s.GetByID(id) })
}

// watch re-runs load whenever the store signals a write. The output channel
// holds one snapshot; an unread snapshot is replaced by the newer one.
func watch[T any](ctx context.Context, s *CatalogStore, load func() (T, error)) <-chan T {
	out := make(chan T, 1)
	id, notify := s.watchers.add()

	go func() {
		defer close(out)
		defer s.watchers.remove(id)

		for {
			snap, err := load()
			if err != nil {
				s.logger.Error("watch reload failed", "error", err)
			} else {
				select {
				case out <- snap:
				default:
					select {
					case <-out:
					default:
					}
					out <- snap
				}
			}

			select {
			case <-ctx.Done():
				return
			case _, ok := <-notify:
				if !ok {
					return
				}
			}
		}
	}()

	return out
}

// === Helpers ===

// scan returns copies of every row accepted by keep (all rows when keep is nil).
func (s *CatalogStore) scan(keep func(*domain.Anime) bool) ([]domain.Anime, error) {
	if s.db == nil {
		s.mu.RLock()
		defer s.mu.RUnlock()
		items := make([]domain.Anime, 0, len(s.mem))
		for _, a := range s.mem {
			if keep == nil || keep(&a) {
				items = append(items, a.Clone())
			}
		}
		return items, nil
	}

	var items []domain.Anime
	err := s.db.View(func(tx *bolt.Tx) error {
		return tx.Bucket(bucketAnime).ForEach(func(k, v []byte) error {
			var a domain.Anime
			if err := json.Unmarshal(v, &a); err != nil {
				return fmt.Errorf("decode anime %d: %w", btoi(k), err)
			}
			if keep == nil || keep(&a) {
				items = append(items, a)
			}
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return items, nil
}

// sortByRank orders by rank ascending with unranked entries last, ties by ID.
func sortByRank(items []domain.Anime) {
	slices.SortStableFunc(items, func(a, b domain.Anime) int {
		switch {
		case a.Rank == nil && b.Rank == nil:
		case a.Rank == nil:
			return 1
		case b.Rank == nil:
			return -1
		default:
			if c := cmp.Compare(*a.Rank, *b.Rank); c != 0 {
				return c
			}
		}
		return cmp.Compare(a.ID, b.ID)
	})
}

func itob(id int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(id))
	return b
}

func btoi(b []byte) int {
	return int(binary.BigEndian.Uint64(b))
}
