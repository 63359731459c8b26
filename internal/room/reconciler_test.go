package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fullIdentityUpdate() RoomUpdate {
	return RoomUpdate{
		Room: RoomState{
			ID:         "abc123",
			Name:       "Pub Quiz",
			GameName:   "Lions vs Ravens",
			HostName:   "mo",
			GameStatus: GameStatusWaiting,
		},
		Leaderboard: []PlayerEntry{{Name: "alice", Score: 0}},
	}
}

func TestApply_IdentityMonotonicity(t *testing.T) {
	snap, _ := Apply(Snapshot{}, fullIdentityUpdate())
	require.Equal(t, "abc123", snap.Identity.ID)

	// A later partial push with empty identity fields must not regress them.
	messages := []Message{
		RoomUpdate{Room: RoomState{GameStatus: GameStatusInProgress}, Leaderboard: []PlayerEntry{}},
		NewEvent{Event: CurrentEvent{ID: "event_1", TimerSeconds: 20}},
		RoomUpdate{Room: RoomState{Name: "Renamed Venue"}},
		EventResults{Leaderboard: []PlayerEntry{}},
	}
	for _, msg := range messages {
		snap, _ = Apply(snap, msg)
		assert.Equal(t, "abc123", snap.Identity.ID, "%T must not clear the room id", msg)
		assert.Equal(t, "Lions vs Ravens", snap.Identity.GameName, "%T must not clear the game name", msg)
	}
	// But a non-empty value does replace.
	assert.Equal(t, "Renamed Venue", snap.Identity.Name)
}

func TestApply_NewEventWithoutPriorSnapshot(t *testing.T) {
	msg := NewEvent{
		Event: CurrentEvent{
			ID:            "event_1",
			Question:      "Who scores next?",
			AnswerChoices: []Choice{{ID: 1, Text: "Lions"}, {ID: 2, Text: "Ravens"}},
			TimerSeconds:  20,
		},
		Leaderboard: []PlayerEntry{{Name: "bob", Score: 0}},
	}

	snap, eff := Apply(Snapshot{}, msg)
	require.NotNil(t, snap.CurrentEvent, "the event must never be dropped because prior state is missing")
	assert.Equal(t, "event_1", snap.CurrentEvent.ID)
	assert.Equal(t, GameStatusInProgress, snap.GameStatus)
	assert.Equal(t, AnswerStatusNone, snap.AnswerStatus)
	assert.Equal(t, 20, eff.ReseedSeconds)
	assert.True(t, eff.ResetSubmission)
}

func TestApply_NewEventClearsPriorResolution(t *testing.T) {
	snap, _ := Apply(Snapshot{}, fullIdentityUpdate())
	snap, _ = Apply(snap, NewEvent{Event: CurrentEvent{ID: "event_1", TimerSeconds: 20}})
	snap, _ = Apply(snap, EventResolved{CorrectAnswerID: 1, CorrectAnswerText: "Yes", Results: map[string]int{"alice": 33}})
	require.NotNil(t, snap.LastEventResult)

	snap, eff := Apply(snap, NewEvent{Event: CurrentEvent{ID: "event_2", TimerSeconds: 15}})
	assert.Equal(t, "event_2", snap.CurrentEvent.ID)
	assert.Nil(t, snap.LastEventResult)
	assert.Equal(t, AnswerStatusNone, snap.AnswerStatus)
	assert.Equal(t, 0, snap.ResolutionCountdownSeconds)
	assert.Equal(t, 15, eff.ReseedSeconds)
}

func TestApply_AnswersClosed(t *testing.T) {
	snap, _ := Apply(Snapshot{}, fullIdentityUpdate())
	snap, _ = Apply(snap, NewEvent{Event: CurrentEvent{ID: "event_1", TimerSeconds: 20}})

	snap, eff := Apply(snap, AnswersClosed{ResolutionInSeconds: 10})
	assert.True(t, eff.StopCountdown)
	assert.False(t, eff.ResetSubmission)
	assert.Equal(t, AnswerStatusClosed, snap.AnswerStatus)
	assert.Equal(t, 10, snap.ResolutionCountdownSeconds)
	assert.NotNil(t, snap.CurrentEvent, "the event stays visible while waiting for resolution")
	// No leaderboard in the frame: the prior one is retained.
	require.Len(t, snap.Leaderboard, 1)
	assert.Equal(t, "alice", snap.Leaderboard[0].Name)

	snap, _ = Apply(snap, AnswersClosed{Leaderboard: []PlayerEntry{{Name: "alice", Score: 5}, {Name: "bob", Score: 2}}})
	assert.Len(t, snap.Leaderboard, 2)
}

func TestApply_EventResolved(t *testing.T) {
	snap, _ := Apply(Snapshot{}, fullIdentityUpdate())
	snap, _ = Apply(snap, NewEvent{Event: CurrentEvent{ID: "event_1", TimerSeconds: 20}})

	snap, eff := Apply(snap, EventResolved{
		CorrectAnswerID:   1,
		CorrectAnswerText: "Yes",
		Results:           map[string]int{"alice": 33, "bob": 0},
		Leaderboard:       []PlayerEntry{{Name: "alice", Score: 33}, {Name: "bob", Score: 0}},
	})

	assert.Nil(t, snap.CurrentEvent)
	assert.Equal(t, AnswerStatusResolved, snap.AnswerStatus)
	require.NotNil(t, snap.LastEventResult)
	assert.Equal(t, "Yes", snap.LastEventResult.CorrectAnswerText)
	assert.Equal(t, 33, snap.LastEventResult.Results["alice"])
	assert.True(t, eff.ResetSubmission)
	assert.True(t, eff.StopCountdown)
}

// currentEvent must never coexist with a resolved answer status, across any
// message order.
func TestApply_EventExclusivity(t *testing.T) {
	messages := []Message{
		fullIdentityUpdate(),
		NewEvent{Event: CurrentEvent{ID: "event_1", TimerSeconds: 20}},
		AnswersClosed{ResolutionInSeconds: 5},
		EventResolved{CorrectAnswerID: 1, Results: map[string]int{}},
		EventResults{Leaderboard: []PlayerEntry{{Name: "alice", Score: 33}}},
		NewEvent{Event: CurrentEvent{ID: "event_2", TimerSeconds: 15}},
		GameEnded{FinalLeaderboard: []PlayerEntry{{Name: "alice", Score: 33}}},
	}

	var snap Snapshot
	for _, msg := range messages {
		snap, _ = Apply(snap, msg)
		if snap.AnswerStatus == AnswerStatusResolved {
			assert.Nil(t, snap.CurrentEvent, "after %T", msg)
		}
	}
}

func TestApply_EventResultsTouchesOnlyLeaderboard(t *testing.T) {
	snap, _ := Apply(Snapshot{}, fullIdentityUpdate())
	snap, _ = Apply(snap, NewEvent{Event: CurrentEvent{ID: "event_1", TimerSeconds: 20}})
	before := snap

	snap, eff := Apply(snap, EventResults{Leaderboard: []PlayerEntry{{Name: "alice", Score: 10}}})
	assert.Equal(t, before.CurrentEvent, snap.CurrentEvent)
	assert.Equal(t, before.AnswerStatus, snap.AnswerStatus)
	assert.Equal(t, before.GameStatus, snap.GameStatus)
	require.Len(t, snap.Leaderboard, 1)
	assert.Equal(t, 10, snap.Leaderboard[0].Score)
	assert.True(t, eff.ResetSubmission)
	assert.False(t, eff.StopCountdown)
}

func TestApply_GameEnded(t *testing.T) {
	snap, _ := Apply(Snapshot{}, fullIdentityUpdate())
	snap, _ = Apply(snap, NewEvent{Event: CurrentEvent{ID: "event_1", TimerSeconds: 20}})

	snap, _ = Apply(snap, GameEnded{FinalLeaderboard: []PlayerEntry{{Name: "alice", Score: 99}}})
	assert.Equal(t, GameStatusCompleted, snap.GameStatus)
	require.Len(t, snap.Leaderboard, 1)
	assert.Equal(t, 99, snap.Leaderboard[0].Score)
}

func TestApply_LeaderboardSanitation(t *testing.T) {
	snap, _ := Apply(Snapshot{}, RoomUpdate{
		Room: RoomState{ID: "abc123"},
		Leaderboard: []PlayerEntry{
			{Name: "", Score: 5},
			{Name: "Alice", Score: 3},
		},
	})
	require.Len(t, snap.Leaderboard, 1)
	assert.Equal(t, "Alice", snap.Leaderboard[0].Name)
}

func TestApply_AcksAndErrorsLeaveSnapshotUntouched(t *testing.T) {
	snap, _ := Apply(Snapshot{}, fullIdentityUpdate())
	before := snap

	snap, eff := Apply(snap, SubmissionAck{AnswerID: 2, Message: "Bet placed!"})
	assert.Equal(t, before, snap)
	assert.Equal(t, "Bet placed!", eff.Notice)

	snap, eff = Apply(snap, ServerError{Message: "Betting window has closed"})
	assert.Equal(t, before, snap)
	assert.Equal(t, "Betting window has closed", eff.Notice)

	snap, eff = Apply(snap, Unknown{Type: "future_type"})
	assert.Equal(t, before, snap)
	assert.Zero(t, eff)
}

func TestApply_RoomUpdatePreservesLifecycleForSameEvent(t *testing.T) {
	snap, _ := Apply(Snapshot{}, fullIdentityUpdate())
	ev := CurrentEvent{ID: "event_1", TimerSeconds: 20}
	snap, _ = Apply(snap, NewEvent{Event: ev})
	snap, _ = Apply(snap, AnswersClosed{ResolutionInSeconds: 10})

	// The server broadcasts room_update for join/leave chatter mid-event; it
	// must not reopen a closed answer window.
	update := fullIdentityUpdate()
	update.Room.CurrentEvent = &ev
	update.Room.GameStatus = GameStatusInProgress
	snap, _ = Apply(snap, update)

	assert.Equal(t, AnswerStatusClosed, snap.AnswerStatus)
	assert.Equal(t, 10, snap.ResolutionCountdownSeconds)
}
