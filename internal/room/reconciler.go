package room

import (
	"github.com/rs/zerolog/log"
)

// Effect tells the engine what to do alongside a merge: reseed or stop the
// countdown, reset the one-shot submission state, or surface a notice.
type Effect struct {
	ReseedSeconds   int
	StopCountdown   bool
	ResetSubmission bool
	Notice          string
}

// Apply merges one decoded message into the current snapshot and returns the
// next snapshot. It is called sequentially from a single goroutine; prev is
// never mutated. Identity fields, once known, are carried forward through
// every merge regardless of what the payload says.
func Apply(prev Snapshot, msg Message) (Snapshot, Effect) {
	switch m := msg.(type) {
	case RoomUpdate:
		return applyRoomUpdate(prev, m)
	case NewEvent:
		return applyNewEvent(prev, m)
	case AnswersClosed:
		return applyAnswersClosed(prev, m)
	case EventResolved:
		return applyEventResolved(prev, m)
	case EventResults:
		next := prev
		next.Leaderboard = mergeLeaderboard(prev.Leaderboard, m.Leaderboard)
		return next, Effect{ResetSubmission: true}
	case GameEnded:
		next := prev
		next.GameStatus = GameStatusCompleted
		next.Leaderboard = SanitizeLeaderboard(m.FinalLeaderboard)
		return next, Effect{}
	case SubmissionAck:
		// Delivery confirmation only; the submitted flag was set at send time.
		return prev, Effect{Notice: m.Message}
	case ServerError:
		return prev, Effect{Notice: m.Message}
	case Unknown:
		log.Debug().Str("type", string(m.Type)).Msg("ignoring unrecognized message type")
		return prev, Effect{}
	default:
		return prev, Effect{}
	}
}

func applyRoomUpdate(prev Snapshot, m RoomUpdate) (Snapshot, Effect) {
	next := NewSnapshot(m.Room, m.Leaderboard)
	next.Identity = prev.Identity.Merge(m.Room.Identity())
	if next.HostName == "" {
		next.HostName = prev.HostName
	}
	// A full refresh does not restate the answer lifecycle; keep what the
	// event-flow messages established for the event still on screen.
	if next.CurrentEvent != nil && prev.CurrentEvent != nil && next.CurrentEvent.ID == prev.CurrentEvent.ID {
		next.AnswerStatus = prev.AnswerStatus
		next.ResolutionCountdownSeconds = prev.ResolutionCountdownSeconds
	}
	next.LastEventResult = prev.LastEventResult
	return next, Effect{Notice: m.Message}
}

func applyNewEvent(prev Snapshot, m NewEvent) (Snapshot, Effect) {
	next := prev
	ev := m.Event
	next.CurrentEvent = &ev
	next.Leaderboard = mergeLeaderboard(prev.Leaderboard, m.Leaderboard)
	next.AnswerStatus = AnswerStatusNone
	next.LastEventResult = nil
	next.ResolutionCountdownSeconds = 0
	if next.GameStatus != GameStatusCompleted {
		next.GameStatus = GameStatusInProgress
	}
	return next, Effect{ReseedSeconds: ev.TimerSeconds, ResetSubmission: true}
}

func applyAnswersClosed(prev Snapshot, m AnswersClosed) (Snapshot, Effect) {
	next := prev
	next.AnswerStatus = AnswerStatusClosed
	next.ResolutionCountdownSeconds = m.ResolutionInSeconds
	next.Leaderboard = mergeLeaderboard(prev.Leaderboard, m.Leaderboard)
	return next, Effect{StopCountdown: true}
}

func applyEventResolved(prev Snapshot, m EventResolved) (Snapshot, Effect) {
	next := prev
	next.CurrentEvent = nil
	next.AnswerStatus = AnswerStatusResolved
	next.LastEventResult = &EventResult{
		CorrectAnswerID:   m.CorrectAnswerID,
		CorrectAnswerText: m.CorrectAnswerText,
		Results:           m.Results,
	}
	next.ResolutionCountdownSeconds = 0
	next.Leaderboard = mergeLeaderboard(prev.Leaderboard, m.Leaderboard)
	return next, Effect{StopCountdown: true, ResetSubmission: true}
}

// mergeLeaderboard applies a pushed leaderboard over the prior one. nil means
// the frame carried no leaderboard at all, so the prior one is retained.
func mergeLeaderboard(prev, incoming []PlayerEntry) []PlayerEntry {
	if incoming == nil {
		return prev
	}
	return SanitizeLeaderboard(incoming)
}
