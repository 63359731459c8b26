package room

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDecode_MalformedFrameReturnsError(t *testing.T) {
	tests := []struct {
		name string
		raw  string
	}{
		{name: "not json", raw: "not json at all"},
		{name: "truncated", raw: `{"type":"room_update","data":{`},
		{name: "missing type", raw: `{"data":{}}`},
		{name: "wrong payload shape", raw: `{"type":"new_event","data":{"event":"not an object"}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			msg, err := Decode([]byte(tt.raw))
			require.Error(t, err)
			assert.Nil(t, msg)
		})
	}
}

func TestDecode_UnknownTypeIsNoOp(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"brand_new_thing","data":{"whatever":1}}`))
	require.NoError(t, err)
	unknown, ok := msg.(Unknown)
	require.True(t, ok)
	assert.Equal(t, MessageType("brand_new_thing"), unknown.Type)
}

func TestDecode_RoomUpdate(t *testing.T) {
	raw := `{
		"type": "room_update",
		"timestamp": "2026-08-31T19:00:00.123456",
		"data": {
			"room": {
				"id": "abc123",
				"name": "Pub Quiz",
				"game_name": "Lions vs Ravens",
				"host_name": "mo",
				"game_status": "waiting",
				"current_event": null,
				"players": {"alice": {"name": "alice", "score": 0}}
			},
			"leaderboard": [{"name": "alice", "score": 0, "current_bet": null}],
			"message": "alice joined the room"
		}
	}`
	msg, err := Decode([]byte(raw))
	require.NoError(t, err)

	update, ok := msg.(RoomUpdate)
	require.True(t, ok)
	assert.Equal(t, "abc123", update.Room.ID)
	assert.Equal(t, "Pub Quiz", update.Room.Name)
	assert.Equal(t, GameStatusWaiting, update.Room.GameStatus)
	assert.Equal(t, "alice joined the room", update.Message)
	require.Len(t, update.Leaderboard, 1)
	assert.Equal(t, "alice", update.Leaderboard[0].Name)
	assert.Nil(t, update.Leaderboard[0].CurrentBet)
}

func TestDecode_NewEventCarriesServerExtras(t *testing.T) {
	// The server serializes its full event model, including fields the
	// client has no use for; they must not break decoding.
	raw := `{
		"type": "new_event",
		"data": {
			"event": {
				"id": "event_1",
				"question": "Will the Lions score?",
				"answer_choices": [{"id": 1, "text": "Yes"}, {"id": 2, "text": "No"}],
				"correct_answer_id": 1,
				"probability": 0.45,
				"points_reward": 33,
				"timer_seconds": 30,
				"resolution_delay_seconds": 10,
				"status": "active",
				"created_at": "2026-08-31T19:05:00.000001",
				"expires_at": "2026-08-31T19:05:30.000001"
			},
			"leaderboard": []
		}
	}`
	msg, err := Decode([]byte(raw))
	require.NoError(t, err)

	ev, ok := msg.(NewEvent)
	require.True(t, ok)
	assert.Equal(t, "event_1", ev.Event.ID)
	assert.Equal(t, 30, ev.Event.TimerSeconds)
	require.Len(t, ev.Event.AnswerChoices, 2)
	assert.NotNil(t, ev.Leaderboard)
	assert.Empty(t, ev.Leaderboard)
}

func TestDecode_ClosedVariantsShareShape(t *testing.T) {
	for _, typ := range []string{"answers_closed", "betting_closed"} {
		raw := `{"type":"` + typ + `","data":{"resolution_in_seconds":10}}`
		msg, err := Decode([]byte(raw))
		require.NoError(t, err)

		closed, ok := msg.(AnswersClosed)
		require.True(t, ok, typ)
		assert.Equal(t, 10, closed.ResolutionInSeconds)
		assert.Nil(t, closed.Leaderboard, "absent leaderboard must stay nil")
	}
}

func TestDecode_AckVariantsShareShape(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"bet_placed","data":{"answer_id":2,"wagered_amount":33,"message":"Bet placed!"}}`))
	require.NoError(t, err)
	ack, ok := msg.(SubmissionAck)
	require.True(t, ok)
	assert.Equal(t, 2, ack.AnswerID)
	assert.Equal(t, 33, ack.WageredAmount)

	msg, err = Decode([]byte(`{"type":"answer_submitted","data":{}}`))
	require.NoError(t, err)
	_, ok = msg.(SubmissionAck)
	assert.True(t, ok)
}

func TestDecode_MissingDataDefaultsToEmptyObject(t *testing.T) {
	msg, err := Decode([]byte(`{"type":"game_ended"}`))
	require.NoError(t, err)
	ended, ok := msg.(GameEnded)
	require.True(t, ok)
	assert.Nil(t, ended.FinalLeaderboard)
}

func TestOutboundFrames(t *testing.T) {
	tests := []struct {
		name     string
		env      Envelope
		wantType MessageType
		wantData string
	}{
		{name: "join", env: JoinRoom("alice"), wantType: TypeJoinRoom, wantData: `{"player_name":"alice"}`},
		{name: "start", env: StartGame(), wantType: TypeStartGame, wantData: `{}`},
		{name: "submit answer", env: SubmitChoice(VariantSubmitAnswer, 2), wantType: TypeSubmitAnswer, wantData: `{"answer_id":2}`},
		{name: "place bet", env: SubmitChoice(VariantPlaceBet, 3), wantType: TypePlaceBet, wantData: `{"answer_id":3}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantType, tt.env.Type)
			assert.JSONEq(t, tt.wantData, string(tt.env.Data))

			raw, err := json.Marshal(tt.env)
			require.NoError(t, err)
			var round Envelope
			require.NoError(t, json.Unmarshal(raw, &round))
			assert.Equal(t, tt.wantType, round.Type)
		})
	}
}
