package schedule

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/derekprior/rrdoubles/internal/config"
	"github.com/derekprior/rrdoubles/internal/strategy"
	"github.com/derekprior/rrdoubles/internal/testutil"
)

func fixedAssembler() *Assembler {
	n := 0
	return &Assembler{
		NewID: func() string {
			n++
			return fmt.Sprintf("id-%d", n)
		},
		Now: func() time.Time {
			return time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC)
		},
	}
}

func TestAssemble(t *testing.T) {
	cfg := testutil.NewConfig(t, 3, 2, "1+2", "3+4")
	cfg.Teams[0].Name = "Falcons"
	cfg.Teams[0].Players = []config.Player{{Number: 1, Name: "Ann"}, {Number: 2, Name: "Bea"}, {Number: 3}, {Number: 4}}

	tasks, err := (&strategy.RoundRobin{}).GenerateTasks(cfg)
	require.NoError(t, err)

	// Deliberately out of order.
	assignments := []Assignment{
		{Task: tasks[2], Slot: 2, Court: 1},
		{Task: tasks[1], Slot: 1, Court: 2},
		{Task: tasks[0], Slot: 1, Court: 1},
		{Task: tasks[5], Slot: 3, Court: 2},
	}
	result := fixedAssembler().Assemble(cfg, assignments)

	t.Run("orders by slot then court", func(t *testing.T) {
		require.Len(t, result.Assignments, 4)
		assert.Equal(t, tasks[0], result.Assignments[0].Task)
		assert.Equal(t, tasks[1], result.Assignments[1].Task)
		assert.Equal(t, tasks[2], result.Assignments[2].Task)
		assert.Equal(t, tasks[5], result.Assignments[3].Task)
	})

	t.Run("match records", func(t *testing.T) {
		require.Len(t, result.Matches, 4)
		m := result.Matches[0]
		assert.Equal(t, "id-1", m.ID)
		assert.Equal(t, 1, m.Number)
		assert.Equal(t, 1, m.Round)
		assert.Equal(t, "Falcons", m.TeamAName)
		assert.Equal(t, "B", m.TeamBName)
		assert.Equal(t, [2]string{"Ann", "Bea"}, m.TeamAPlayerNames)
		assert.Equal(t, [2]string{"B1", "B2"}, m.TeamBPlayerNames)
		assert.Equal(t, StatusPending, m.Status)
		assert.NotNil(t, m.Scores)
		assert.Empty(t, m.Scores)

		last := result.Matches[3]
		assert.Equal(t, 4, last.Number)
		assert.Equal(t, 2, last.Round)
		assert.Equal(t, 3, last.Slot)
		assert.Equal(t, 2, last.Court)
	})

	t.Run("all matches pending", func(t *testing.T) {
		for _, m := range result.Matches {
			assert.Equal(t, StatusPending, m.Status)
			assert.Equal(t, time.Date(2026, 5, 2, 9, 0, 0, 0, time.UTC), m.CreatedAt)
		}
	})

	t.Run("summary", func(t *testing.T) {
		assert.Equal(t, Summary{
			TotalMatches: 4,
			TotalSlots:   3,
			TotalRounds:  2,
			// 3 slots × 30 minutes / 2 courts
			EstimatedDuration: 45 * time.Minute,
		}, result.Summary)
	})

	t.Run("team metrics", func(t *testing.T) {
		assert.Equal(t, 3, result.TeamMetrics["A"].Matches)
		assert.Equal(t, 3, result.TeamMetrics["B"].Matches)
		assert.Equal(t, 2, result.TeamMetrics["C"].Matches)
	})

	t.Run("player metrics", func(t *testing.T) {
		a1 := result.PlayerMetrics["A1"]
		require.NotNil(t, a1)
		assert.Equal(t, "A", a1.Team)
		assert.Equal(t, 2, a1.Matches) // slots 1 and 2
		assert.Equal(t, 2, a1.MaxStreak)
		assert.Equal(t, 1, a1.MaxRest)

		b3 := result.PlayerMetrics["B3"]
		require.NotNil(t, b3)
		assert.Equal(t, "B", b3.Team)
		assert.Equal(t, 2, b3.Matches) // slots 1 and 3
		assert.Equal(t, 1, b3.MaxStreak)
		assert.Equal(t, 2, b3.MaxRest)
	})
}

func TestAssembleWarnsOnLongStreaks(t *testing.T) {
	cfg := testutil.NewConfig(t, 2, 1, "1+2", "1+3", "1+4")
	tasks, err := (&strategy.RoundRobin{}).GenerateTasks(cfg)
	require.NoError(t, err)

	result := fixedAssembler().Assemble(cfg, []Assignment{
		{Task: tasks[0], Slot: 1, Court: 1},
		{Task: tasks[1], Slot: 2, Court: 1},
		{Task: tasks[2], Slot: 3, Court: 1},
	})
	require.Len(t, result.Warnings, 2)
	assert.Equal(t, "A1 plays 3 consecutive slots (slots T1, T2, T3)", result.Warnings[0])
	assert.Equal(t, "B1 plays 3 consecutive slots (slots T1, T2, T3)", result.Warnings[1])
	assert.Len(t, result.TeamMetrics["A"].Violations, 1)
}

func TestAssembleEmpty(t *testing.T) {
	cfg := testutil.NewConfig(t, 2, 1, "1+2")
	result := NewAssembler().Assemble(cfg, nil)
	assert.Empty(t, result.Matches)
	assert.Equal(t, Summary{}, result.Summary)
}

func TestAssembleGeneratesUUIDs(t *testing.T) {
	cfg := testutil.NewConfig(t, 3, 1, "1+2")
	result := run(t, cfg)
	seen := make(map[string]bool)
	for _, m := range result.Matches {
		assert.Len(t, m.ID, 36)
		assert.False(t, seen[m.ID])
		seen[m.ID] = true
	}
}

func TestResultPlayers(t *testing.T) {
	r := &Result{PlayerMetrics: map[string]*PlayerMetrics{
		"B1": {}, "A10": {}, "A2": {},
	}}
	assert.Equal(t, []string{"A2", "A10", "B1"}, r.Players())
}

func TestStatusValid(t *testing.T) {
	for _, s := range []Status{StatusPending, StatusOngoing, StatusFinished} {
		assert.True(t, s.Valid(), s)
	}
	assert.False(t, Status("cancelled").Valid())
	assert.False(t, Status("").Valid())
}
