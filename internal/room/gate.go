package room

import "errors"

// Submission gate refusals. These are expected states a UI can reach, not
// faults: callers typically ignore them or disable the submit affordance.
var (
	ErrNotConnected     = errors.New("not connected")
	ErrNoCurrentEvent   = errors.New("no event is open")
	ErrNoSelection      = errors.New("no choice selected")
	ErrAlreadySubmitted = errors.New("already submitted for this event")
	ErrWindowClosed     = errors.New("answer window has closed")
)

// Gate enforces at-most-one outbound submission per event. Selection and the
// submitted flag are reset exactly once per event lifecycle by the engine.
type Gate struct {
	selected     int
	hasSelection bool
	hasSubmitted bool
}

// Select records the locally chosen answer. The choice is immutable once a
// submission went out.
func (g *Gate) Select(answerID int) error {
	if g.hasSubmitted {
		return ErrAlreadySubmitted
	}
	g.selected = answerID
	g.hasSelection = true
	return nil
}

// Authorize checks every precondition for sending a submission and returns
// the selected answer id if allowed.
func (g *Gate) Authorize(connected bool, snap Snapshot, cd *Countdown) (int, error) {
	switch {
	case !connected:
		return 0, ErrNotConnected
	case snap.CurrentEvent == nil:
		return 0, ErrNoCurrentEvent
	case !g.hasSelection:
		return 0, ErrNoSelection
	case g.hasSubmitted:
		return 0, ErrAlreadySubmitted
	case cd.State() != CountdownRunning || cd.Remaining() <= 0:
		return 0, ErrWindowClosed
	}
	return g.selected, nil
}

// MarkSubmitted flips the one-shot flag. Called optimistically at send time,
// never rolled back on ack.
func (g *Gate) MarkSubmitted() {
	g.hasSubmitted = true
}

// Reset clears selection and the submitted flag for the next event.
func (g *Gate) Reset() {
	g.selected = 0
	g.hasSelection = false
	g.hasSubmitted = false
}

func (g *Gate) HasSubmitted() bool { return g.hasSubmitted }

// Selected reports the current local selection, if any.
func (g *Gate) Selected() (int, bool) {
	return g.selected, g.hasSelection
}
