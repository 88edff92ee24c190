package schedule

import (
	"fmt"
	"time"

	"github.com/derekprior/rrdoubles/internal/config"
)

// Slot describes one time slot of the tournament day.
type Slot struct {
	Index int
	Round int
	Start time.Duration // offset from midnight; zero when no start time is set
	End   time.Duration
	Timed bool
}

// Label returns "T3" or, with a start time, "T3 10:00-10:30".
func (s Slot) Label() string {
	if !s.Timed {
		return fmt.Sprintf("T%d", s.Index)
	}
	return fmt.Sprintf("T%d %s", s.Index, s.TimeRange())
}

// TimeRange returns "10:00-10:30", or "" for an untimed slot.
func (s Slot) TimeRange() string {
	if !s.Timed {
		return ""
	}
	return clock(s.Start) + "-" + clock(s.End)
}

// GenerateSlots builds the first n slots of the day. With a configured start
// time, slot i starts (i-1) match durations after it.
func GenerateSlots(cfg *config.Config, n int) []Slot {
	slots := make([]Slot, 0, n)
	duration := time.Duration(cfg.MatchDuration) * time.Minute
	for i := 1; i <= n; i++ {
		s := Slot{Index: i, Round: Round(i)}
		if cfg.StartTime != nil {
			start := time.Duration(cfg.StartTime.Hour)*time.Hour +
				time.Duration(cfg.StartTime.Minute)*time.Minute +
				time.Duration(i-1)*duration
			s.Start, s.End, s.Timed = start, start+duration, true
		}
		slots = append(slots, s)
	}
	return slots
}

func clock(d time.Duration) string {
	d %= 24 * time.Hour
	return fmt.Sprintf("%02d:%02d", int(d/time.Hour), int(d%time.Hour/time.Minute))
}
