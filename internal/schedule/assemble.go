package schedule

import (
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/derekprior/rrdoubles/internal/config"
)

// Status is the lifecycle state of a match. Assemble only emits
// StatusPending; the later states belong to whoever records results.
type Status string

const (
	StatusPending  Status = "pending"
	StatusOngoing  Status = "ongoing"
	StatusFinished Status = "finished"
)

// Valid reports whether s is a known match status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusOngoing, StatusFinished:
		return true
	}
	return false
}

// Score is the result of one set.
type Score struct {
	Set   int
	TeamA int
	TeamB int
}

// Match is the record handed to whoever runs the tournament day.
type Match struct {
	ID               string
	Number           int
	Round            int
	Slot             int
	Court            int
	Formation        string
	TeamA            string
	TeamB            string
	TeamAName        string
	TeamBName        string
	TeamAPlayers     [2]string
	TeamBPlayers     [2]string
	TeamAPlayerNames [2]string
	TeamBPlayerNames [2]string
	Status           Status
	Scores           []Score
	CreatedAt        time.Time
}

// Summary holds schedule-wide totals.
type Summary struct {
	TotalMatches      int
	TotalSlots        int
	TotalRounds       int
	EstimatedDuration time.Duration
}

// PlayerMetrics holds per-player schedule statistics.
type PlayerMetrics struct {
	Team      string
	Matches   int
	MaxStreak int
	MaxRest   int
}

// TeamMetrics holds per-team schedule statistics.
type TeamMetrics struct {
	Matches    int
	Violations []string
}

// Result is the output of the scheduling process.
type Result struct {
	Assignments   []Assignment
	Matches       []Match
	Summary       Summary
	Warnings      []string
	PlayerMetrics map[string]*PlayerMetrics
	TeamMetrics   map[string]*TeamMetrics
}

// Assembler turns slot assignments into match records and statistics.
type Assembler struct {
	NewID func() string
	Now   func() time.Time
}

func NewAssembler() *Assembler {
	return &Assembler{NewID: uuid.NewString, Now: time.Now}
}

// Round returns the round a slot belongs to; each round spans two slots.
func Round(slot int) int {
	return (slot + 1) / 2
}

// Assemble orders the assignments by slot and court and derives the result.
func (a *Assembler) Assemble(cfg *config.Config, assignments []Assignment) *Result {
	ordered := make([]Assignment, len(assignments))
	copy(ordered, assignments)
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].Slot != ordered[j].Slot {
			return ordered[i].Slot < ordered[j].Slot
		}
		return ordered[i].Court < ordered[j].Court
	})

	created := a.Now()
	matches := make([]Match, len(ordered))
	for i, asg := range ordered {
		t := asg.Task
		matches[i] = Match{
			ID:               a.NewID(),
			Number:           i + 1,
			Round:            Round(asg.Slot),
			Slot:             asg.Slot,
			Court:            asg.Court,
			Formation:        t.Formation,
			TeamA:            t.TeamA,
			TeamB:            t.TeamB,
			TeamAName:        cfg.TeamName(t.TeamA),
			TeamBName:        cfg.TeamName(t.TeamB),
			TeamAPlayers:     t.TeamAPlayers,
			TeamBPlayers:     t.TeamBPlayers,
			TeamAPlayerNames: [2]string{cfg.PlayerName(t.TeamAPlayers[0]), cfg.PlayerName(t.TeamAPlayers[1])},
			TeamBPlayerNames: [2]string{cfg.PlayerName(t.TeamBPlayers[0]), cfg.PlayerName(t.TeamBPlayers[1])},
			Status:           StatusPending,
			Scores:           []Score{},
			CreatedAt:        created,
		}
	}

	slots := 0
	for _, asg := range ordered {
		if asg.Slot > slots {
			slots = asg.Slot
		}
	}
	summary := Summary{
		TotalMatches: len(ordered),
		TotalSlots:   slots,
		TotalRounds:  Round(slots),
	}
	if cfg.CourtCount > 0 {
		summary.EstimatedDuration = time.Duration(slots*cfg.MatchDuration) * time.Minute / time.Duration(cfg.CourtCount)
	}

	warnings, players, teams := buildMetrics(cfg, ordered)
	return &Result{
		Assignments:   ordered,
		Matches:       matches,
		Summary:       summary,
		Warnings:      warnings,
		PlayerMetrics: players,
		TeamMetrics:   teams,
	}
}

func buildMetrics(cfg *config.Config, assignments []Assignment) ([]string, map[string]*PlayerMetrics, map[string]*TeamMetrics) {
	tracker := NewTracker()
	teams := make(map[string]*TeamMetrics)
	for _, code := range cfg.TeamCodes() {
		teams[code] = &TeamMetrics{}
	}

	// Assignments are ordered by slot, so Record sees increasing slots.
	var order []string
	players := make(map[string]*PlayerMetrics)
	for _, a := range assignments {
		for _, team := range []string{a.Task.TeamA, a.Task.TeamB} {
			if teams[team] == nil {
				teams[team] = &TeamMetrics{}
			}
			teams[team].Matches++
		}
		for i, p := range a.Task.Players() {
			m, ok := players[p]
			if !ok {
				team := a.Task.TeamA
				if i >= 2 {
					team = a.Task.TeamB
				}
				m = &PlayerMetrics{Team: team}
				players[p] = m
				order = append(order, p)
			}
			m.Matches++
			_ = tracker.Record(p, a.Slot)
		}
	}

	var warnings []string
	sort.Strings(order)
	for _, p := range order {
		m := players[p]
		m.MaxStreak = tracker.MaxStreak(p)
		m.MaxRest = tracker.MaxRest(p)
		if m.MaxStreak >= cfg.Rules.MaxConsecutiveSlots && cfg.Rules.MaxConsecutiveSlots > 1 {
			w := fmt.Sprintf("%s plays %d consecutive slots (slots %s)",
				p, m.MaxStreak, formatSlots(tracker.History(p)))
			warnings = append(warnings, w)
			teams[m.Team].Violations = append(teams[m.Team].Violations, w)
		}
	}

	return warnings, players, teams
}

func formatSlots(slots []int) string {
	s := ""
	for i, n := range slots {
		if i > 0 {
			s += ", "
		}
		s += fmt.Sprintf("T%d", n)
	}
	return s
}

// Players returns the codes of every scheduled player, ordered by team and
// then roster number.
func (r *Result) Players() []string {
	players := make([]string, 0, len(r.PlayerMetrics))
	for p := range r.PlayerMetrics {
		players = append(players, p)
	}
	sort.Slice(players, func(i, j int) bool {
		ti, ni, okI := config.ParsePlayerCode(players[i])
		tj, nj, okJ := config.ParsePlayerCode(players[j])
		if !okI || !okJ {
			return players[i] < players[j]
		}
		if ti != tj {
			return ti < tj
		}
		return ni < nj
	})
	return players
}
