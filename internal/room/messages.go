package room

import (
	"encoding/json"
	"fmt"
)

// MessageType discriminates the wire frames exchanged with the server.
type MessageType string

const (
	// Client to server.
	TypeJoinRoom     MessageType = "join_room"
	TypeStartGame    MessageType = "start_game"
	TypeSubmitAnswer MessageType = "submit_answer"
	TypePlaceBet     MessageType = "place_bet"

	// Server to client.
	TypeRoomUpdate      MessageType = "room_update"
	TypeNewEvent        MessageType = "new_event"
	TypeAnswersClosed   MessageType = "answers_closed"
	TypeBettingClosed   MessageType = "betting_closed"
	TypeEventResolved   MessageType = "event_resolved"
	TypeEventResults    MessageType = "event_results"
	TypeGameEnded       MessageType = "game_ended"
	TypeAnswerSubmitted MessageType = "answer_submitted"
	TypeBetPlaced       MessageType = "bet_placed"
	TypeError           MessageType = "error"
)

// Envelope is the outer frame shape: {"type": ..., "data": {...}}. The
// server also attaches a timestamp, but its format is not stable across
// server versions, so it is deliberately not decoded.
type Envelope struct {
	Type MessageType     `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Message is the closed set of decoded inbound frames. Frames with a type the
// client does not know decode to Unknown so a newer server never breaks the
// pipeline.
type Message interface {
	messageType() MessageType
}

// RoomUpdate is a full room refresh, optionally carrying a human-readable
// notice such as "Alice joined the room".
type RoomUpdate struct {
	Room        RoomState     `json:"room"`
	Leaderboard []PlayerEntry `json:"leaderboard"`
	Message     string        `json:"message,omitempty"`
}

// NewEvent opens a fresh prediction event.
type NewEvent struct {
	Event       CurrentEvent  `json:"event"`
	Leaderboard []PlayerEntry `json:"leaderboard"`
}

// AnswersClosed signals the answer window has shut. A nil Leaderboard means
// the frame carried none and the prior one is retained.
type AnswersClosed struct {
	Leaderboard         []PlayerEntry `json:"leaderboard"`
	ResolutionInSeconds int           `json:"resolution_in_seconds"`
}

// EventResolved carries the outcome of the current event.
type EventResolved struct {
	CorrectAnswerID   int            `json:"correct_answer_id"`
	CorrectAnswerText string         `json:"correct_answer_text"`
	Results           map[string]int `json:"results"`
	Leaderboard       []PlayerEntry  `json:"leaderboard"`
}

// EventResults is a leaderboard-only refresh, lighter than a resolution.
type EventResults struct {
	Leaderboard []PlayerEntry `json:"leaderboard"`
}

// GameEnded terminates the game with the final standings.
type GameEnded struct {
	FinalLeaderboard []PlayerEntry `json:"final_leaderboard"`
}

// SubmissionAck confirms delivery of submit_answer or place_bet. The local
// submitted flag was already set optimistically at send time; the ack only
// carries an optional notice (and, for bets, the wagered amount).
type SubmissionAck struct {
	AnswerID      int    `json:"answer_id"`
	WageredAmount int    `json:"wagered_amount"`
	Message       string `json:"message,omitempty"`
}

// ServerError is a semantic error pushed by the server, surfaced verbatim.
type ServerError struct {
	Message string `json:"message"`
}

// Unknown is the forward-compatibility fallback for unrecognized types.
type Unknown struct {
	Type MessageType
}

func (RoomUpdate) messageType() MessageType    { return TypeRoomUpdate }
func (NewEvent) messageType() MessageType      { return TypeNewEvent }
func (AnswersClosed) messageType() MessageType { return TypeAnswersClosed }
func (EventResolved) messageType() MessageType { return TypeEventResolved }
func (EventResults) messageType() MessageType  { return TypeEventResults }
func (GameEnded) messageType() MessageType     { return TypeGameEnded }
func (SubmissionAck) messageType() MessageType { return TypeAnswerSubmitted }
func (ServerError) messageType() MessageType   { return TypeError }
func (u Unknown) messageType() MessageType     { return u.Type }

// Decode parses a raw text frame into a typed message. A malformed frame
// returns an error and must produce no state transition; an unrecognized type
// returns Unknown and no error.
func Decode(raw []byte) (Message, error) {
	var env Envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("unmarshal envelope: %w", err)
	}
	if env.Type == "" {
		return nil, fmt.Errorf("frame has no type")
	}

	data := env.Data
	if len(data) == 0 {
		data = []byte("{}")
	}

	switch env.Type {
	case TypeRoomUpdate:
		var m RoomUpdate
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return m, nil
	case TypeNewEvent:
		var m NewEvent
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return m, nil
	case TypeAnswersClosed, TypeBettingClosed:
		var m AnswersClosed
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return m, nil
	case TypeEventResolved:
		var m EventResolved
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return m, nil
	case TypeEventResults:
		var m EventResults
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return m, nil
	case TypeGameEnded:
		var m GameEnded
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return m, nil
	case TypeAnswerSubmitted, TypeBetPlaced:
		var m SubmissionAck
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return m, nil
	case TypeError:
		var m ServerError
		if err := json.Unmarshal(data, &m); err != nil {
			return nil, fmt.Errorf("unmarshal %s: %w", env.Type, err)
		}
		return m, nil
	default:
		return Unknown{Type: env.Type}, nil
	}
}

func mustEnvelope(t MessageType, data any) Envelope {
	raw, err := json.Marshal(data)
	if err != nil {
		// All outbound payloads are plain structs over basic types.
		panic(fmt.Sprintf("marshal %s payload: %v", t, err))
	}
	return Envelope{Type: t, Data: raw}
}

// JoinRoom builds the join announcement the server requires as the first
// frame on every (re)connected socket.
func JoinRoom(playerName string) Envelope {
	return mustEnvelope(TypeJoinRoom, struct {
		PlayerName string `json:"player_name"`
	}{playerName})
}

// StartGame builds the host-only game start request.
func StartGame() Envelope {
	return mustEnvelope(TypeStartGame, struct{}{})
}

// SubmitVariant selects which wire type carries a choice commit. The server
// exposes submit_answer and place_bet as equivalent variants of the same
// gameplay action.
type SubmitVariant string

const (
	VariantSubmitAnswer SubmitVariant = "submit_answer"
	VariantPlaceBet     SubmitVariant = "place_bet"
)

// SubmitChoice builds the outbound frame committing a choice for the current
// event, using the configured variant.
func SubmitChoice(variant SubmitVariant, answerID int) Envelope {
	t := TypeSubmitAnswer
	if variant == VariantPlaceBet {
		t = TypePlaceBet
	}
	return mustEnvelope(t, struct {
		AnswerID int `json:"answer_id"`
	}{answerID})
}
