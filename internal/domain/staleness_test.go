package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsStale(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		fetchedAt time.Time
		threshold time.Duration
		want      bool
	}{
		{"just fetched", now, time.Hour, false},
		{"exact threshold is fresh", now.Add(-time.Hour), time.Hour, false},
		{"one millisecond past threshold", now.Add(-time.Hour - time.Millisecond), time.Hour, true},
		{"well past threshold", now.Add(-48 * time.Hour), time.Hour, true},
		{"zero time is stale", time.Time{}, time.Hour, true},
		{"fetched in the future", now.Add(time.Minute), time.Hour, false},
		{"zero threshold", now.Add(-time.Nanosecond), 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsStale(tt.fetchedAt, now, tt.threshold))
		})
	}
}
