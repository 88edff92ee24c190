package config

import (
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidCourtOrTeamCount is returned when the tournament has fewer than
// two teams, more teams than there are team codes, or no courts.
var ErrInvalidCourtOrTeamCount = errors.New("invalid court or team count")

// MaxTeams is the number of single-letter team codes available (A-Z).
const MaxTeams = 26

const (
	DefaultMaxConsecutiveSlots = 3
	DefaultRestTarget          = 2
)

// ClockTime is a wall-clock time of day parsed from "HH:MM".
type ClockTime struct {
	Hour   int
	Minute int
}

func (c *ClockTime) UnmarshalYAML(value *yaml.Node) error {
	t, err := time.Parse("15:04", value.Value)
	if err != nil {
		return fmt.Errorf("invalid time %q: %w", value.Value, err)
	}
	c.Hour, c.Minute = t.Hour(), t.Minute()
	return nil
}

func (c ClockTime) String() string {
	return fmt.Sprintf("%02d:%02d", c.Hour, c.Minute)
}

type Player struct {
	Number int    `yaml:"number"`
	Name   string `yaml:"name"`
}

type Team struct {
	Code    string              `yaml:"code"`
	Name    string              `yaml:"name"`
	Players []Player            `yaml:"players"`
	Lineups map[string][]string `yaml:"lineups"`
}

type Rules struct {
	MaxConsecutiveSlots int `yaml:"max_consecutive_slots"`
	MaxSlots            int `yaml:"max_slots"`
}

type Guidelines struct {
	// RestTarget is nil when unset so that an explicit 0 survives Validate.
	RestTarget *int `yaml:"rest_target"`
}

type Config struct {
	Name          string     `yaml:"name"`
	TeamCount     int        `yaml:"team_count"`
	TeamCapacity  int        `yaml:"team_capacity"`
	CourtCount    int        `yaml:"court_count"`
	MatchDuration int        `yaml:"match_duration"`
	StartTime     *ClockTime `yaml:"start_time"`
	Formations    []string   `yaml:"formations"`
	Strategy      string     `yaml:"strategy"`
	Rules         Rules      `yaml:"rules"`
	Guidelines    Guidelines `yaml:"guidelines"`
	Teams         []Team     `yaml:"teams"`
}

// TeamCode returns the code of the i-th team (0-based): A, B, C, ...
func TeamCode(i int) string {
	return string(rune('A' + i))
}

// PlayerCode joins a team code and player number, e.g. "A3".
func PlayerCode(team string, number int) string {
	return team + strconv.Itoa(number)
}

// ParsePlayerCode splits a player code into its team code and number. Only
// the canonical form PlayerCode produces is accepted, so "A01" and "A+1" are
// rejected rather than aliasing A1.
func ParsePlayerCode(code string) (team string, number int, ok bool) {
	if len(code) < 2 {
		return "", 0, false
	}
	n, err := strconv.Atoi(code[1:])
	if err != nil || n < 1 || code != PlayerCode(code[:1], n) {
		return "", 0, false
	}
	return code[:1], n, true
}

// TeamCodes returns the codes of all teams in the tournament, in order.
func (c *Config) TeamCodes() []string {
	codes := make([]string, 0, c.TeamCount)
	for i := 0; i < c.TeamCount; i++ {
		codes = append(codes, TeamCode(i))
	}
	return codes
}

// Team returns the configured team with the given code, if any.
func (c *Config) Team(code string) (*Team, bool) {
	for i := range c.Teams {
		if c.Teams[i].Code == code {
			return &c.Teams[i], true
		}
	}
	return nil, false
}

// TeamName returns the display name of a team, falling back to its code.
func (c *Config) TeamName(code string) string {
	if t, ok := c.Team(code); ok && t.Name != "" {
		return t.Name
	}
	return code
}

// Lineup returns the two player codes a team fields for a formation.
func (c *Config) Lineup(team, formation string) ([2]string, bool) {
	t, ok := c.Team(team)
	if !ok {
		return [2]string{}, false
	}
	codes, ok := t.Lineups[formation]
	if !ok || len(codes) != 2 {
		return [2]string{}, false
	}
	return [2]string{codes[0], codes[1]}, true
}

// RestTarget returns the configured rest target, or the default when unset.
func (c *Config) RestTarget() int {
	if c.Guidelines.RestTarget == nil {
		return DefaultRestTarget
	}
	return *c.Guidelines.RestTarget
}

// PlayerName returns the roster name for a player code, or the code itself.
func (c *Config) PlayerName(code string) string {
	team, number, ok := ParsePlayerCode(code)
	if !ok {
		return code
	}
	if t, ok := c.Team(team); ok {
		for _, p := range t.Players {
			if p.Number == number && p.Name != "" {
				return p.Name
			}
		}
	}
	return code
}

// LoadFromBytes parses YAML bytes into a Config and validates it.
func LoadFromBytes(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// LoadFromFile reads and parses a YAML config file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	return LoadFromBytes(data)
}

// Validate checks the structure of the configuration and fills in defaults.
// Missing lineups are not an error here; see strategy.CheckLineups.
func (c *Config) Validate() error {
	if c.TeamCount < 2 || c.TeamCount > MaxTeams {
		return fmt.Errorf("%w: team_count must be between 2 and %d, got %d", ErrInvalidCourtOrTeamCount, MaxTeams, c.TeamCount)
	}
	if c.CourtCount < 1 {
		return fmt.Errorf("%w: court_count must be at least 1, got %d", ErrInvalidCourtOrTeamCount, c.CourtCount)
	}

	if c.MatchDuration < 0 {
		return fmt.Errorf("match_duration must not be negative")
	}
	if c.StartTime != nil && c.MatchDuration == 0 {
		return fmt.Errorf("start_time requires a match_duration")
	}

	if len(c.Formations) == 0 {
		return fmt.Errorf("at least one formation is required")
	}
	formations := make(map[string]bool)
	for _, f := range c.Formations {
		if strings.TrimSpace(f) == "" {
			return fmt.Errorf("formation labels must not be empty")
		}
		if formations[f] {
			return fmt.Errorf("formation %q is listed more than once", f)
		}
		formations[f] = true
	}

	if c.Strategy == "" {
		c.Strategy = "round_robin"
	}
	// 0 would forbid every match, so it stands for "unset".
	if c.Rules.MaxConsecutiveSlots == 0 {
		c.Rules.MaxConsecutiveSlots = DefaultMaxConsecutiveSlots
	}
	if c.Rules.MaxConsecutiveSlots < 1 {
		return fmt.Errorf("max_consecutive_slots must be at least 1")
	}
	if c.Rules.MaxSlots < 0 {
		return fmt.Errorf("max_slots must not be negative")
	}
	if c.Guidelines.RestTarget == nil {
		n := DefaultRestTarget
		c.Guidelines.RestTarget = &n
	}
	if *c.Guidelines.RestTarget < 0 {
		return fmt.Errorf("rest_target must not be negative")
	}

	valid := make(map[string]bool)
	for _, code := range c.TeamCodes() {
		valid[code] = true
	}

	seen := make(map[string]bool)
	for _, t := range c.Teams {
		if !valid[t.Code] {
			return fmt.Errorf("team %q is not one of the %d configured teams (A-%s)", t.Code, c.TeamCount, TeamCode(c.TeamCount-1))
		}
		if seen[t.Code] {
			return fmt.Errorf("team %q is listed more than once", t.Code)
		}
		seen[t.Code] = true

		roster := make(map[int]bool)
		for _, p := range t.Players {
			if p.Number < 1 {
				return fmt.Errorf("team %q: player numbers must be positive, got %d", t.Code, p.Number)
			}
			if c.TeamCapacity > 0 && p.Number > c.TeamCapacity {
				return fmt.Errorf("team %q: player %d exceeds team_capacity %d", t.Code, p.Number, c.TeamCapacity)
			}
			if roster[p.Number] {
				return fmt.Errorf("team %q: player %d is listed more than once", t.Code, p.Number)
			}
			roster[p.Number] = true
		}

		labels := make([]string, 0, len(t.Lineups))
		for formation := range t.Lineups {
			labels = append(labels, formation)
		}
		sort.Strings(labels)
		for _, formation := range labels {
			if !formations[formation] {
				return fmt.Errorf("team %q: lineup for unknown formation %q", t.Code, formation)
			}
		}

		for _, formation := range c.Formations {
			codes, ok := t.Lineups[formation]
			if !ok {
				continue
			}
			if len(codes) != 2 {
				return fmt.Errorf("team %q: lineup %q must name exactly 2 players, got %d", t.Code, formation, len(codes))
			}
			if codes[0] == codes[1] {
				return fmt.Errorf("team %q: lineup %q names %s twice", t.Code, formation, codes[0])
			}
			for _, code := range codes {
				team, number, ok := ParsePlayerCode(code)
				if !ok && strings.HasPrefix(code, t.Code) && len(code) > 1 {
					if n, err := strconv.Atoi(code[1:]); err == nil && n > 0 {
						return fmt.Errorf("team %q: lineup %q has non-canonical player code %q (want %s)", t.Code, formation, code, PlayerCode(t.Code, n))
					}
				}
				if !ok || team != t.Code {
					return fmt.Errorf("team %q: lineup %q has player %q from another team or with an invalid code", t.Code, formation, code)
				}
				if c.TeamCapacity > 0 && number > c.TeamCapacity {
					return fmt.Errorf("team %q: lineup %q player %s exceeds team_capacity %d", t.Code, formation, code, c.TeamCapacity)
				}
				if len(roster) > 0 && !roster[number] {
					return fmt.Errorf("team %q: lineup %q player %s is not on the roster", t.Code, formation, code)
				}
			}
		}
	}

	return nil
}
