package validator

import (
	"fmt"
	"slices"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/derekprior/rrdoubles/internal/config"
	"github.com/derekprior/rrdoubles/internal/excel"
	"github.com/derekprior/rrdoubles/internal/schedule"
)

// Violation represents a constraint violation found during validation.
type Violation struct {
	Row     int    // Matches sheet row, 0 when the violation spans rows
	Type    string // "error" or "warning"
	Message string
}

// Validate reads a schedule workbook and checks it against the config rules.
func Validate(cfg *config.Config, path string) ([]Violation, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening file: %w", err)
	}
	defer f.Close()

	entries, err := excel.ReadEntries(f)
	if err != nil {
		return nil, fmt.Errorf("reading assignments: %w", err)
	}

	return Check(cfg, entries), nil
}

// Check runs every rule against already parsed entries.
func Check(cfg *config.Config, entries []excel.Entry) []Violation {
	var violations []Violation

	// Hard constraints
	violations = append(violations, checkKnownTeamsAndFormations(cfg, entries)...)
	violations = append(violations, checkLineups(cfg, entries)...)
	violations = append(violations, checkStatus(entries)...)
	violations = append(violations, checkCourts(cfg, entries)...)
	violations = append(violations, checkDoubleBooking(entries)...)
	violations = append(violations, checkConsecutiveSlots(cfg, entries)...)

	// Every pairing and formation exactly once
	violations = append(violations, checkCompleteness(cfg, entries)...)

	return violations
}

// HasErrors reports whether any violation is an error.
func HasErrors(violations []Violation) bool {
	for _, v := range violations {
		if v.Type == "error" {
			return true
		}
	}
	return false
}

func checkKnownTeamsAndFormations(cfg *config.Config, entries []excel.Entry) []Violation {
	var violations []Violation
	for _, e := range entries {
		t := e.Task
		for _, team := range []string{t.TeamA, t.TeamB} {
			if _, ok := cfg.Team(team); !ok {
				violations = append(violations, Violation{
					Row:     e.Row,
					Type:    "error",
					Message: fmt.Sprintf("unknown team %q", team),
				})
			}
		}
		if t.TeamA == t.TeamB {
			violations = append(violations, Violation{
				Row:     e.Row,
				Type:    "error",
				Message: fmt.Sprintf("team %s plays itself", t.TeamA),
			})
		}
		if !slices.Contains(cfg.Formations, t.Formation) {
			violations = append(violations, Violation{
				Row:     e.Row,
				Type:    "error",
				Message: fmt.Sprintf("unknown formation %q", t.Formation),
			})
		}
	}
	return violations
}

func checkLineups(cfg *config.Config, entries []excel.Entry) []Violation {
	var violations []Violation
	for _, e := range entries {
		t := e.Task
		for _, side := range []struct {
			team    string
			players [2]string
		}{{t.TeamA, t.TeamAPlayers}, {t.TeamB, t.TeamBPlayers}} {
			want, ok := cfg.Lineup(side.team, t.Formation)
			if !ok {
				continue // reported as unknown team or formation
			}
			if !samePair(want, side.players) {
				violations = append(violations, Violation{
					Row:  e.Row,
					Type: "error",
					Message: fmt.Sprintf("%s %s lineup is %s, %s (configured %s, %s)",
						side.team, t.Formation, side.players[0], side.players[1], want[0], want[1]),
				})
			}
		}
	}
	return violations
}

func checkStatus(entries []excel.Entry) []Violation {
	var violations []Violation
	for _, e := range entries {
		if e.Status == "" || e.Status.Valid() {
			continue
		}
		violations = append(violations, Violation{
			Row:  e.Row,
			Type: "error",
			Message: fmt.Sprintf("unknown status %q (want %s, %s or %s)",
				e.Status, schedule.StatusPending, schedule.StatusOngoing, schedule.StatusFinished),
		})
	}
	return violations
}

func samePair(a, b [2]string) bool {
	return (a[0] == b[0] && a[1] == b[1]) || (a[0] == b[1] && a[1] == b[0])
}

func checkCourts(cfg *config.Config, entries []excel.Entry) []Violation {
	type slotCourt struct{ slot, court int }
	seen := make(map[slotCourt]int)

	var violations []Violation
	for _, e := range entries {
		if e.Court > cfg.CourtCount {
			violations = append(violations, Violation{
				Row:     e.Row,
				Type:    "error",
				Message: fmt.Sprintf("court %d does not exist (%d courts)", e.Court, cfg.CourtCount),
			})
		}
		key := slotCourt{e.Slot, e.Court}
		if first, ok := seen[key]; ok {
			violations = append(violations, Violation{
				Row:     e.Row,
				Type:    "error",
				Message: fmt.Sprintf("court %d in slot T%d already used by row %d", e.Court, e.Slot, first),
			})
			continue
		}
		seen[key] = e.Row
	}
	return violations
}

func checkDoubleBooking(entries []excel.Entry) []Violation {
	type playerSlot struct {
		player string
		slot   int
	}
	seen := make(map[playerSlot]int)

	var violations []Violation
	for _, e := range entries {
		for _, p := range e.Task.Players() {
			key := playerSlot{p, e.Slot}
			if first, ok := seen[key]; ok {
				violations = append(violations, Violation{
					Row:     e.Row,
					Type:    "error",
					Message: fmt.Sprintf("%s plays twice in slot T%d (rows %d and %d)", p, e.Slot, first, e.Row),
				})
				continue
			}
			seen[key] = e.Row
		}
	}
	return violations
}

func checkConsecutiveSlots(cfg *config.Config, entries []excel.Entry) []Violation {
	limit := cfg.Rules.MaxConsecutiveSlots
	playerSlots := buildPlayerSlots(entries)

	var violations []Violation
	for _, player := range sortedKeys(playerSlots) {
		slots := playerSlots[player]
		tr := schedule.NewTracker()
		for i, s := range slots {
			streak := tr.Streak(player, s.slot)
			// Slots are sorted and unique per player, so Record cannot fail.
			_ = tr.Record(player, s.slot)

			runEnds := i == len(slots)-1 || slots[i+1].slot != s.slot+1
			switch {
			case streak > limit:
				violations = append(violations, Violation{
					Row:  s.row,
					Type: "error",
					Message: fmt.Sprintf("%s plays %d consecutive slots ending T%d (max %d)",
						player, streak, s.slot, limit),
				})
			case streak == limit && limit > 1 && runEnds:
				violations = append(violations, Violation{
					Row:  s.row,
					Type: "warning",
					Message: fmt.Sprintf("%s plays %d consecutive slots ending T%d",
						player, streak, s.slot),
				})
			}
		}
	}
	return violations
}

func checkCompleteness(cfg *config.Config, entries []excel.Entry) []Violation {
	type matchup struct{ a, b, formation string }
	rows := make(map[matchup][]int)
	for _, e := range entries {
		a, b := e.Task.TeamA, e.Task.TeamB
		if a > b {
			a, b = b, a
		}
		key := matchup{a, b, e.Task.Formation}
		rows[key] = append(rows[key], e.Row)
	}

	var violations []Violation
	teams := cfg.TeamCodes()
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			for _, formation := range cfg.Formations {
				r := rows[matchup{teams[i], teams[j], formation}]
				switch {
				case len(r) == 0:
					violations = append(violations, Violation{
						Type:    "error",
						Message: fmt.Sprintf("%s vs %s (%s) is not scheduled", teams[i], teams[j], formation),
					})
				case len(r) > 1:
					violations = append(violations, Violation{
						Row:     r[1],
						Type:    "error",
						Message: fmt.Sprintf("%s vs %s (%s) is scheduled %d times", teams[i], teams[j], formation, len(r)),
					})
				}
			}
		}
	}
	return violations
}

type slotRow struct {
	slot int
	row  int
}

// buildPlayerSlots returns each player's slots in ascending order, keeping
// the first row for a slot the player is booked twice in.
func buildPlayerSlots(entries []excel.Entry) map[string][]slotRow {
	m := make(map[string][]slotRow)
	for _, e := range entries {
		for _, p := range e.Task.Players() {
			m[p] = append(m[p], slotRow{e.Slot, e.Row})
		}
	}
	for p, slots := range m {
		sort.SliceStable(slots, func(i, j int) bool { return slots[i].slot < slots[j].slot })
		m[p] = slices.CompactFunc(slots, func(a, b slotRow) bool { return a.slot == b.slot })
	}
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
