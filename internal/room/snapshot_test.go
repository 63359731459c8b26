package room

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRoomIdentity_Merge(t *testing.T) {
	known := RoomIdentity{ID: "abc123", Name: "Pub Quiz", GameName: "Lions vs Ravens"}

	merged := known.Merge(RoomIdentity{})
	assert.Equal(t, known, merged, "empty incoming fields carry no information")

	merged = known.Merge(RoomIdentity{Name: "New Venue"})
	assert.Equal(t, "abc123", merged.ID)
	assert.Equal(t, "New Venue", merged.Name)
	assert.Equal(t, "Lions vs Ravens", merged.GameName)
}

func TestSanitizeLeaderboard(t *testing.T) {
	assert.Nil(t, SanitizeLeaderboard(nil))

	got := SanitizeLeaderboard([]PlayerEntry{
		{Name: "", Score: 5},
		{Name: "Alice", Score: 3},
		{Name: "", Score: -1},
	})
	require.Len(t, got, 1)
	assert.Equal(t, "Alice", got[0].Name)

	got = SanitizeLeaderboard([]PlayerEntry{{Name: "", Score: 1}})
	assert.NotNil(t, got)
	assert.Empty(t, got, "a fully malformed leaderboard degrades to no players")
}

func TestSnapshot_CloneIsDeep(t *testing.T) {
	bet := 2
	snap := Snapshot{
		Identity:     RoomIdentity{ID: "abc123"},
		GameStatus:   GameStatusInProgress,
		CurrentEvent: &CurrentEvent{ID: "event_1", AnswerChoices: []Choice{{ID: 1, Text: "Yes"}}},
		Leaderboard:  []PlayerEntry{{Name: "alice", Score: 3, CurrentBet: &bet}},
		LastEventResult: &EventResult{
			CorrectAnswerID: 1,
			Results:         map[string]int{"alice": 33},
		},
	}

	clone := snap.Clone()
	clone.CurrentEvent.AnswerChoices[0].Text = "mutated"
	clone.Leaderboard[0].Score = 999
	*clone.Leaderboard[0].CurrentBet = 7
	clone.LastEventResult.Results["alice"] = 0

	assert.Equal(t, "Yes", snap.CurrentEvent.AnswerChoices[0].Text)
	assert.Equal(t, 3, snap.Leaderboard[0].Score)
	assert.Equal(t, 2, *snap.Leaderboard[0].CurrentBet)
	assert.Equal(t, 33, snap.LastEventResult.Results["alice"])
}

func TestNewSnapshot_Defaults(t *testing.T) {
	snap := NewSnapshot(RoomState{ID: "abc123"}, nil)
	assert.Equal(t, GameStatusWaiting, snap.GameStatus)
	assert.Equal(t, AnswerStatusNone, snap.AnswerStatus)
	assert.Nil(t, snap.Leaderboard)
}
