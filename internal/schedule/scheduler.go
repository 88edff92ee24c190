package schedule

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/derekprior/rrdoubles/internal/config"
	"github.com/derekprior/rrdoubles/internal/strategy"
)

// ErrSchedulingDeadlock is matched by errors.Is for a *DeadlockError.
var ErrSchedulingDeadlock = errors.New("scheduling deadlock")

const (
	recentPenalty = 1000 // per player who played in the previous slot
	idleWeight    = 10   // per slot of rest beyond the rest target

	// After one empty slot every streak has reset, so a second one in a row
	// means no remaining task can ever be placed.
	maxEmptySlots = 2
)

// Assignment pairs a task with a time slot and court.
type Assignment struct {
	Task  strategy.Task
	Slot  int
	Court int
}

// DeadlockError reports a run that stopped making progress.
type DeadlockError struct {
	Slot      int
	Scheduled int
	Remaining []strategy.Task
	Blocked   []string // players whose streak kept remaining tasks out
	Reason    string
}

func (e *DeadlockError) Error() string {
	msg := fmt.Sprintf("%s at slot %d: %s; scheduled %d, %d remaining",
		ErrSchedulingDeadlock, e.Slot, e.Reason, e.Scheduled, len(e.Remaining))
	if len(e.Blocked) > 0 {
		msg += fmt.Sprintf(" (blocked players: %s)", strings.Join(e.Blocked, ", "))
	}
	for _, t := range e.Remaining {
		msg += fmt.Sprintf("\n  • %s", t)
	}
	return msg
}

func (e *DeadlockError) Is(target error) bool {
	return target == ErrSchedulingDeadlock
}

// Schedule assigns every task to a (slot, court), filling slots in order.
// The returned Result is nil whenever err is non-nil.
func Schedule(ctx context.Context, cfg *config.Config, tasks []strategy.Task) (*Result, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := checkTasks(tasks); err != nil {
		return nil, err
	}

	s := newScheduler(cfg, tasks)
	if err := s.run(ctx); err != nil {
		return nil, err
	}

	return NewAssembler().Assemble(cfg, s.assignments), nil
}

// checkTasks rejects tasks that cannot be played: an empty player code means
// a lineup was never filled in.
func checkTasks(tasks []strategy.Task) error {
	var missing []strategy.MissingLineup
	for _, t := range tasks {
		complete := true
		if t.TeamAPlayers[0] == "" || t.TeamAPlayers[1] == "" {
			missing = append(missing, strategy.MissingLineup{Team: t.TeamA, Formation: t.Formation})
			complete = false
		}
		if t.TeamBPlayers[0] == "" || t.TeamBPlayers[1] == "" {
			missing = append(missing, strategy.MissingLineup{Team: t.TeamB, Formation: t.Formation})
			complete = false
		}
		if !complete {
			continue
		}
		seen := make(map[string]bool, 4)
		for _, p := range t.Players() {
			if seen[p] {
				return fmt.Errorf("task %s lists player %s twice", t, p)
			}
			seen[p] = true
		}
	}
	if len(missing) > 0 {
		return &strategy.IncompleteError{Missing: missing}
	}
	return nil
}

// rejectionReason categorizes why a task was skipped for a court.
type rejectionReason int

const (
	rejectDoubleBooked rejectionReason = iota
	rejectFatigue
)

func (r rejectionReason) String() string {
	switch r {
	case rejectDoubleBooked:
		return "double-booked"
	case rejectFatigue:
		return "fatigue cap"
	default:
		return "unknown"
	}
}

type scheduler struct {
	cfg *config.Config

	remaining   []strategy.Task // in generation order
	tracker     *Tracker
	assignments []Assignment

	rejections map[rejectionReason]int
}

func newScheduler(cfg *config.Config, tasks []strategy.Task) *scheduler {
	remaining := make([]strategy.Task, len(tasks))
	copy(remaining, tasks)
	sort.SliceStable(remaining, func(i, j int) bool {
		return remaining[i].Index < remaining[j].Index
	})
	return &scheduler{
		cfg:        cfg,
		remaining:  remaining,
		tracker:    NewTracker(),
		rejections: make(map[rejectionReason]int),
	}
}

func (s *scheduler) run(ctx context.Context) error {
	log := zerolog.Ctx(ctx)
	empty := 0

	for slot := 1; len(s.remaining) > 0; slot++ {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("scheduling stopped at slot %d: %w", slot, err)
		}
		if budget := s.cfg.Rules.MaxSlots; budget > 0 && slot > budget {
			return s.deadlock(slot, fmt.Sprintf("slot budget of %d exhausted", budget))
		}

		filled, err := s.fillSlot(slot)
		if err != nil {
			return err
		}
		log.Debug().
			Int("slot", slot).
			Int("filled", filled).
			Int("remaining", len(s.remaining)).
			Msg("slot scheduled")

		if filled > 0 {
			empty = 0
			continue
		}
		empty++
		if empty >= maxEmptySlots {
			err := s.deadlock(slot, fmt.Sprintf("no court filled for %d consecutive slots", empty))
			log.Error().Err(err).Msg("scheduling stalled")
			return err
		}
	}
	return nil
}

// fillSlot repeats passes over the courts until a pass places nothing.
func (s *scheduler) fillSlot(slot int) (int, error) {
	used := make(map[string]bool)
	courts := make(map[int]bool)
	filled := 0

	for {
		progress := false
		for court := 1; court <= s.cfg.CourtCount; court++ {
			if courts[court] {
				continue
			}
			i, ok := s.best(slot, used)
			if !ok {
				continue
			}
			if err := s.assign(i, slot, court, used); err != nil {
				return filled, err
			}
			courts[court] = true
			filled++
			progress = true
		}
		if !progress {
			return filled, nil
		}
	}
}

// rank orders candidate tasks; tiers are compared before penalties.
type rank struct {
	tier   int
	recent int
	idle   int
	index  int
}

func (r rank) less(o rank) bool {
	if r.tier != o.tier {
		return r.tier < o.tier
	}
	if r.recent != o.recent {
		return r.recent < o.recent
	}
	if r.idle != o.idle {
		return r.idle > o.idle // longer rest goes first
	}
	return r.index < o.index
}

// best returns the position in s.remaining of the best eligible task.
func (s *scheduler) best(slot int, used map[string]bool) (int, bool) {
	bestIdx := -1
	var bestRank rank

	for i, task := range s.remaining {
		r, reason, ok := s.rankTask(task, slot, used)
		if !ok {
			s.rejections[reason]++
			continue
		}
		if bestIdx < 0 || r.less(bestRank) {
			bestIdx, bestRank = i, r
		}
	}
	return bestIdx, bestIdx >= 0
}

func (s *scheduler) rankTask(task strategy.Task, slot int, used map[string]bool) (rank, rejectionReason, bool) {
	players := task.Players()
	for _, p := range players {
		if used[p] {
			return rank{}, rejectDoubleBooked, false
		}
	}

	maxStreak := s.cfg.Rules.MaxConsecutiveSlots
	r := rank{index: task.Index}
	for _, p := range players {
		streak := s.tracker.Streak(p, slot)
		if streak > maxStreak {
			return rank{}, rejectFatigue, false
		}
		if streak >= maxStreak {
			r.tier = 1
		}
		if s.tracker.PlayedIn(p, slot-1) {
			r.recent += recentPenalty
		}
		if rest := s.tracker.RestGap(p, slot) - s.cfg.RestTarget(); rest > 0 {
			r.idle += rest * idleWeight
		}
	}
	return r, 0, true
}

func (s *scheduler) assign(i, slot, court int, used map[string]bool) error {
	task := s.remaining[i]
	for _, p := range task.Players() {
		used[p] = true
		if err := s.tracker.Record(p, slot); err != nil {
			return fmt.Errorf("assigning %s: %w", task, err)
		}
	}
	s.assignments = append(s.assignments, Assignment{Task: task, Slot: slot, Court: court})
	s.remaining = append(s.remaining[:i], s.remaining[i+1:]...)
	return nil
}

func (s *scheduler) deadlock(slot int, reason string) *DeadlockError {
	blocked := make(map[string]bool)
	for _, task := range s.remaining {
		for _, p := range task.Players() {
			if s.tracker.Streak(p, slot) > s.cfg.Rules.MaxConsecutiveSlots {
				blocked[p] = true
			}
		}
	}
	players := make([]string, 0, len(blocked))
	for p := range blocked {
		players = append(players, p)
	}
	sort.Strings(players)

	remaining := make([]strategy.Task, len(s.remaining))
	copy(remaining, s.remaining)
	reason += fmt.Sprintf(" (%d %s, %d %s rejections)",
		s.rejections[rejectDoubleBooked], rejectDoubleBooked,
		s.rejections[rejectFatigue], rejectFatigue)
	return &DeadlockError{
		Slot:      slot,
		Scheduled: len(s.assignments),
		Remaining: remaining,
		Blocked:   players,
		Reason:    reason,
	}
}
