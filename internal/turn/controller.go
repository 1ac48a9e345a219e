// Package turn tracks the active conversational turn of one call.
//
// The model signals turn boundaries with turn.start / turn.end events. A
// turn.start arriving while a different turn is active is a barge-in: the
// caller began speaking before the model finished responding, and the
// stale in-flight response must be cancelled so the model does not talk
// over the caller. The controller decides when that cancellation is due;
// actually sending response.cancel is the caller's job.
//
// A Controller is owned by the single goroutine consuming model events and
// is deliberately unsynchronised.
package turn

// Controller is the per-call turn state machine. The zero value is an idle
// controller ready for use.
type Controller struct {
	active string
}

// Active returns the identifier of the turn currently in flight, or ""
// when idle.
func (c *Controller) Active() string {
	return c.active
}

// Begin records a turn.start for id and returns the identifier of the turn
// it superseded, if any. A non-empty return means the caller must cancel
// that turn's in-flight response before treating id as current. Repeating
// the current id is idempotent and supersedes nothing.
func (c *Controller) Begin(id string) (superseded string) {
	if id == c.active {
		return ""
	}
	superseded = c.active
	c.active = id
	return superseded
}

// End records a turn.end for id. It reports whether the ended id matched
// the active turn; stale or duplicate ends return false and change no
// state.
func (c *Controller) End(id string) bool {
	if c.active == "" || id != c.active {
		return false
	}
	c.active = ""
	return true
}
