package schedule

import "fmt"

// NeverPlayed is the rest gap reported for a player with no matches yet.
const NeverPlayed = 1 << 16

// Tracker records the slots each player has been scheduled into.
type Tracker struct {
	history map[string][]int // player -> strictly increasing slots
}

func NewTracker() *Tracker {
	return &Tracker{history: make(map[string][]int)}
}

// Streak returns the length of the player's run of consecutive slots if they
// were also scheduled in slot.
func (t *Tracker) Streak(player string, slot int) int {
	h := t.history[player]
	if len(h) == 0 || h[len(h)-1] != slot-1 {
		return 1
	}
	run := 1
	for i := len(h) - 1; i > 0 && h[i]-h[i-1] == 1; i-- {
		run++
	}
	return run + 1
}

// RestGap returns the number of slots since the player last played.
func (t *Tracker) RestGap(player string, slot int) int {
	h := t.history[player]
	if len(h) == 0 {
		return NeverPlayed
	}
	return slot - h[len(h)-1]
}

// PlayedIn reports whether the player is scheduled in slot.
func (t *Tracker) PlayedIn(player string, slot int) bool {
	h := t.history[player]
	for i := len(h) - 1; i >= 0 && h[i] >= slot; i-- {
		if h[i] == slot {
			return true
		}
	}
	return false
}

// Record appends slot to the player's history.
func (t *Tracker) Record(player string, slot int) error {
	h := t.history[player]
	if len(h) > 0 && h[len(h)-1] >= slot {
		return fmt.Errorf("player %s: slot %d recorded after slot %d", player, slot, h[len(h)-1])
	}
	t.history[player] = append(h, slot)
	return nil
}

// History returns a copy of the slots the player has been scheduled into.
func (t *Tracker) History(player string) []int {
	return append([]int(nil), t.history[player]...)
}

// MaxStreak returns the player's longest run of consecutive slots.
func (t *Tracker) MaxStreak(player string) int {
	h := t.history[player]
	if len(h) == 0 {
		return 0
	}
	best, run := 1, 1
	for i := 1; i < len(h); i++ {
		if h[i]-h[i-1] == 1 {
			run++
		} else {
			run = 1
		}
		if run > best {
			best = run
		}
	}
	return best
}

// MaxRest returns the longest number of slots between two of the player's
// matches, or 0 if they played fewer than two.
func (t *Tracker) MaxRest(player string) int {
	h := t.history[player]
	best := 0
	for i := 1; i < len(h); i++ {
		if gap := h[i] - h[i-1]; gap > best {
			best = gap
		}
	}
	return best
}

func (t *Tracker) Reset() {
	t.history = make(map[string][]int)
}
