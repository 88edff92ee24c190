package schedule

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func trackerWith(t *testing.T, player string, slots ...int) *Tracker {
	t.Helper()
	tr := NewTracker()
	for _, s := range slots {
		require.NoError(t, tr.Record(player, s))
	}
	return tr
}

func TestTrackerStreak(t *testing.T) {
	tests := []struct {
		name    string
		history []int
		slot    int
		want    int
	}{
		{"never played", nil, 5, 1},
		{"played once just before", []int{4}, 5, 2},
		{"played two in a row just before", []int{3, 4}, 5, 3},
		{"played three in a row just before", []int{2, 3, 4}, 5, 4},
		{"gap resets streak", []int{2, 3}, 5, 1},
		{"run broken earlier", []int{1, 3, 4}, 5, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tr := trackerWith(t, "A1", tt.history...)
			assert.Equal(t, tt.want, tr.Streak("A1", tt.slot))
			// Streak is a query; asking again gives the same answer.
			assert.Equal(t, tt.want, tr.Streak("A1", tt.slot))
		})
	}
}

func TestTrackerRestGap(t *testing.T) {
	tr := trackerWith(t, "A1", 1, 4)
	assert.Equal(t, 3, tr.RestGap("A1", 7))
	assert.Equal(t, NeverPlayed, tr.RestGap("B1", 7))
}

func TestTrackerPlayedIn(t *testing.T) {
	tr := trackerWith(t, "A1", 1, 4, 5)
	assert.True(t, tr.PlayedIn("A1", 4))
	assert.True(t, tr.PlayedIn("A1", 1))
	assert.False(t, tr.PlayedIn("A1", 3))
	assert.False(t, tr.PlayedIn("A1", 0))
	assert.False(t, tr.PlayedIn("B1", 4))
}

func TestTrackerRecord(t *testing.T) {
	tr := NewTracker()
	require.NoError(t, tr.Record("A1", 2))

	t.Run("rejects same slot", func(t *testing.T) {
		assert.Error(t, tr.Record("A1", 2))
	})

	t.Run("rejects earlier slot", func(t *testing.T) {
		assert.Error(t, tr.Record("A1", 1))
	})

	t.Run("history is a copy", func(t *testing.T) {
		h := tr.History("A1")
		h[0] = 99
		assert.Equal(t, []int{2}, tr.History("A1"))
	})

	t.Run("reset clears history", func(t *testing.T) {
		tr.Reset()
		assert.Empty(t, tr.History("A1"))
		assert.NoError(t, tr.Record("A1", 1))
	})
}

func TestTrackerMaxStreakAndRest(t *testing.T) {
	tr := trackerWith(t, "A1", 1, 2, 5, 6, 7, 10)
	assert.Equal(t, 3, tr.MaxStreak("A1"))
	assert.Equal(t, 3, tr.MaxRest("A1"))
	assert.Equal(t, 0, tr.MaxStreak("B1"))
	assert.Equal(t, 0, tr.MaxRest("B1"))
}
