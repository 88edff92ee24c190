package strategy

import (
	"errors"
	"fmt"
	"strings"

	"github.com/derekprior/rrdoubles/internal/config"
)

// ErrConfigurationIncomplete is matched by errors.Is for an *IncompleteError.
var ErrConfigurationIncomplete = errors.New("configuration incomplete")

// Task is one formation to be played between two teams.
type Task struct {
	Index        int // generation order, used as the final tie-break
	TeamA        string
	TeamB        string
	Formation    string
	TeamAPlayers [2]string
	TeamBPlayers [2]string
}

// Players returns the four player codes involved in the task.
func (t Task) Players() [4]string {
	return [4]string{t.TeamAPlayers[0], t.TeamAPlayers[1], t.TeamBPlayers[0], t.TeamBPlayers[1]}
}

func (t Task) String() string {
	return fmt.Sprintf("%s vs %s (%s)", t.TeamA, t.TeamB, t.Formation)
}

// MissingLineup names a team that has no players assigned to a formation.
type MissingLineup struct {
	Team      string
	Formation string
}

// IncompleteError lists every missing lineup found before generation.
type IncompleteError struct {
	Missing []MissingLineup
}

func (e *IncompleteError) Error() string {
	parts := make([]string, len(e.Missing))
	for i, m := range e.Missing {
		parts[i] = fmt.Sprintf("%s/%s", m.Team, m.Formation)
	}
	return fmt.Sprintf("%s: %d lineup(s) missing: %s", ErrConfigurationIncomplete, len(e.Missing), strings.Join(parts, ", "))
}

func (e *IncompleteError) Is(target error) bool {
	return target == ErrConfigurationIncomplete
}

// Teams returns the distinct teams with at least one missing lineup, in order.
func (e *IncompleteError) Teams() []string {
	var teams []string
	seen := make(map[string]bool)
	for _, m := range e.Missing {
		if !seen[m.Team] {
			seen[m.Team] = true
			teams = append(teams, m.Team)
		}
	}
	return teams
}

// CheckLineups reports every (team, formation) without a two-player lineup,
// ordered by team and then by formation.
func CheckLineups(cfg *config.Config) []MissingLineup {
	var missing []MissingLineup
	for _, team := range cfg.TeamCodes() {
		for _, formation := range cfg.Formations {
			if _, ok := cfg.Lineup(team, formation); !ok {
				missing = append(missing, MissingLineup{Team: team, Formation: formation})
			}
		}
	}
	return missing
}

// Strategy generates the list of tasks for a tournament.
type Strategy interface {
	GenerateTasks(cfg *config.Config) ([]Task, error)
}

// Get returns a Strategy by name.
func Get(name string) (Strategy, error) {
	switch name {
	case "round_robin", "":
		return &RoundRobin{}, nil
	default:
		return nil, fmt.Errorf("unknown strategy: %q", name)
	}
}

// RoundRobin pairs every team with every other team once and plays each
// formation in every pairing.
type RoundRobin struct{}

func (s *RoundRobin) GenerateTasks(cfg *config.Config) ([]Task, error) {
	if missing := CheckLineups(cfg); len(missing) > 0 {
		return nil, &IncompleteError{Missing: missing}
	}

	teams := cfg.TeamCodes()
	tasks := make([]Task, 0, len(teams)*(len(teams)-1)/2*len(cfg.Formations))
	for i := 0; i < len(teams); i++ {
		for j := i + 1; j < len(teams); j++ {
			for _, formation := range cfg.Formations {
				a, _ := cfg.Lineup(teams[i], formation)
				b, _ := cfg.Lineup(teams[j], formation)
				tasks = append(tasks, Task{
					Index:        len(tasks),
					TeamA:        teams[i],
					TeamB:        teams[j],
					Formation:    formation,
					TeamAPlayers: a,
					TeamBPlayers: b,
				})
			}
		}
	}
	return tasks, nil
}
