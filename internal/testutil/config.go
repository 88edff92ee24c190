package testutil

import (
	"strconv"
	"strings"
	"testing"

	"github.com/derekprior/rrdoubles/internal/config"
)

// NewConfig builds a validated tournament with complete lineups. A formation
// label such as "3+4" fields players 3 and 4 of every team; any other label
// fields the next two unused player numbers.
func NewConfig(t *testing.T, teamCount, courtCount int, formations ...string) *config.Config {
	t.Helper()

	cfg := &config.Config{
		Name:          "Test Cup",
		TeamCount:     teamCount,
		CourtCount:    courtCount,
		MatchDuration: 30,
		Formations:    formations,
	}
	for i := 0; i < teamCount; i++ {
		code := config.TeamCode(i)
		team := config.Team{Code: code, Lineups: make(map[string][]string)}
		next := 1
		for _, f := range formations {
			a, b, ok := labelNumbers(f)
			if !ok {
				a, b = next, next+1
			}
			if b >= next {
				next = b + 1
			}
			team.Lineups[f] = []string{config.PlayerCode(code, a), config.PlayerCode(code, b)}
		}
		cfg.Teams = append(cfg.Teams, team)
	}

	if err := cfg.Validate(); err != nil {
		t.Fatalf("invalid test config: %v", err)
	}
	return cfg
}

func labelNumbers(label string) (int, int, bool) {
	parts := strings.Split(label, "+")
	if len(parts) != 2 {
		return 0, 0, false
	}
	a, err := strconv.Atoi(parts[0])
	if err != nil || a < 1 {
		return 0, 0, false
	}
	b, err := strconv.Atoi(parts[1])
	if err != nil || b < 1 || b == a {
		return 0, 0, false
	}
	return a, b, true
}
