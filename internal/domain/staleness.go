package domain

import "time"

// DefaultStaleAfter is how long cached data is trusted without a refresh.
const DefaultStaleAfter = time.Hour

// IsStale reports whether data fetched at fetchedAt is older than threshold at now.
// Exact equality is still fresh.
func IsStale(fetchedAt, now time.Time, threshold time.Duration) bool {
	return now.Sub(fetchedAt) > threshold
}
