package scheduler

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/furcwire-project/furcwire/internal/config"
)

type fakePruner struct {
	cutoff time.Time
	n      int64
	err    error
}

func (f *fakePruner) Prune(cutoff time.Time) (int64, error) {
	f.cutoff = cutoff
	return f.n, f.err
}

func (f *fakePruner) Count() (int, error) { return 1, nil }

func fixedNow(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNextCleanup(t *testing.T) {
	day := time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name     string
		clock    string
		now      time.Time
		expected time.Time
	}{
		{"later today", "04:00", day.Add(3 * time.Hour), day.Add(4 * time.Hour)},
		{"already passed", "04:00", day.Add(5 * time.Hour), day.Add(28 * time.Hour)},
		{"exactly now", "04:00", day.Add(4 * time.Hour), day.Add(28 * time.Hour)},
		{"custom time", "22:30", day.Add(3 * time.Hour), day.Add(22*time.Hour + 30*time.Minute)},
		{"invalid falls back", "bogus", day.Add(time.Hour), day.Add(4 * time.Hour)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewScheduler(config.CaptureConfig{CleanupTime: tt.clock}, nil, nil)
			s.now = fixedNow(tt.now)
			assert.Equal(t, tt.expected, s.NextCleanup())
		})
	}
}

func TestPruneCaptures(t *testing.T) {
	now := time.Date(2026, 10, 15, 4, 0, 0, 0, time.UTC)
	pruner := &fakePruner{n: 3}
	s := NewScheduler(config.CaptureConfig{RetentionDays: 14}, pruner, nil)
	s.now = fixedNow(now)

	deleted, err := s.PruneCaptures()
	require.NoError(t, err)
	assert.EqualValues(t, 3, deleted)
	assert.Equal(t, now.AddDate(0, 0, -14), pruner.cutoff)

	pruner.err = errors.New("disk full")
	deleted, err = s.PruneCaptures()
	assert.ErrorIs(t, err, pruner.err)
	assert.Zero(t, deleted)
}

func TestFormatBytes(t *testing.T) {
	assert.Equal(t, "512 B", formatBytes(512))
	assert.Equal(t, "1.50 KB", formatBytes(1536))
	assert.Equal(t, "2.00 MB", formatBytes(2*1024*1024))
	assert.Equal(t, "1.00 GB", formatBytes(1024*1024*1024))
}
